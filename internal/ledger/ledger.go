// Package ledger combines storage and the fairness engine into the operations
// callers use: previewing and running rounds, editing the roster, and resets.
//
// Each operation is a complete load, compute, persist sequence. A Ledger
// serializes its own operations; it does not coordinate with other processes
// writing the same store.
package ledger

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mmynk/coffeeledger/internal/models"
	"github.com/mmynk/coffeeledger/internal/money"
	"github.com/mmynk/coffeeledger/internal/storage"
)

// Recorder receives ledger events, typically for metrics.
type Recorder interface {
	RoundSettled(strategy models.TieStrategy, payer string, total money.Money)
	OperationFailed(operation string, err error)
}

// Ledger is the entry point to the coffee rotation.
type Ledger struct {
	mu sync.Mutex

	store      storage.Store
	model      models.SettlementModel
	defaultTie models.TieStrategy
	roster     map[string]money.Money
	now        func() time.Time
	recorder   Recorder

	seedChecked bool
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithSettlementModel fixes how rounds move balances. It cannot change later,
// since the model defines what a stored balance means.
func WithSettlementModel(m models.SettlementModel) Option {
	return func(l *Ledger) { l.model = m }
}

// WithDefaultTieStrategy is used when a call names no strategy or an unknown one.
func WithDefaultTieStrategy(t models.TieStrategy) Option {
	return func(l *Ledger) { l.defaultTie = t }
}

// WithDefaultRoster replaces storage.DefaultRoster as the seed for an empty
// ledger. An empty roster disables seeding.
func WithDefaultRoster(roster map[string]money.Money) Option {
	return func(l *Ledger) { l.roster = roster }
}

// WithClock overrides time.Now for round timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithRecorder attaches a Recorder.
func WithRecorder(r Recorder) Option {
	return func(l *Ledger) { l.recorder = r }
}

// New creates a Ledger over store.
func New(store storage.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:      store,
		model:      models.DefaultSettlementModel,
		defaultTie: models.DefaultTieStrategy,
		roster:     storage.DefaultRoster,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SettlementModel reports the model this ledger settles rounds with.
func (l *Ledger) SettlementModel() models.SettlementModel {
	return l.model
}

// tieStrategy resolves a caller-supplied strategy name.
func (l *Ledger) tieStrategy(s string) models.TieStrategy {
	if t, ok := models.LookupTieStrategy(s); ok {
		return t
	}
	return l.defaultTie
}

// load returns prices and balances, seeding the default roster the first time
// the ledger sees an empty price store. Stored prices that are not positive
// are dropped with a warning. Every priced person is guaranteed a
// balance entry in the returned maps; repaired reports whether any had to be
// added, so state-changing callers know to persist them.
func (l *Ledger) load(ctx context.Context) (prices, balances map[string]money.Money, repaired bool, err error) {
	if !l.seedChecked {
		if _, err := storage.Seed(ctx, l.store, l.roster); err != nil {
			return nil, nil, false, err
		}
		l.seedChecked = true
	}

	prices, err = l.store.LoadPrices(ctx)
	if err != nil {
		return nil, nil, false, err
	}
	balances, err = l.store.LoadBalances(ctx)
	if err != nil {
		return nil, nil, false, err
	}

	for name, price := range prices {
		if !price.IsPositive() {
			slog.Warn("Ignoring non-positive price", "name", name, "price", price.String())
			delete(prices, name)
			continue
		}
		if _, ok := balances[name]; !ok {
			slog.Debug("Adding missing balance entry", "name", name)
			balances[name] = money.Zero
			repaired = true
		}
	}
	return prices, balances, repaired, nil
}

// observe reports a failed operation to the recorder.
func (l *Ledger) observe(operation string, err error) {
	if err == nil || l.recorder == nil {
		return
	}
	l.recorder.OperationFailed(operation, err)
}
