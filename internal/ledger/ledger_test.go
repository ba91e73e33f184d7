package ledger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/coffeeledger/internal/apperrors"
	"github.com/mmynk/coffeeledger/internal/models"
	"github.com/mmynk/coffeeledger/internal/money"
	"github.com/mmynk/coffeeledger/internal/storage"
	"github.com/mmynk/coffeeledger/internal/storage/filestore"
	"github.com/mmynk/coffeeledger/internal/storage/memory"
	"github.com/mmynk/coffeeledger/internal/storage/sqlite"
)

var testRoster = map[string]money.Money{
	"Ann": money.MustParse("3.00"),
	"Bob": money.MustParse("4.50"),
	"Cat": money.MustParse("2.25"),
}

// fixedClock returns a clock that advances one minute per call.
func fixedClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Minute)
		return t
	}
}

type fakeRecorder struct {
	rounds   []string
	failures []string
}

func (f *fakeRecorder) RoundSettled(_ models.TieStrategy, payer string, _ money.Money) {
	f.rounds = append(f.rounds, payer)
}

func (f *fakeRecorder) OperationFailed(operation string, _ error) {
	f.failures = append(f.failures, operation)
}

func newLedger(t *testing.T, opts ...Option) (*Ledger, storage.Store) {
	t.Helper()
	store := memory.New()
	opts = append([]Option{WithDefaultRoster(testRoster), WithClock(fixedClock())}, opts...)
	return New(store, opts...), store
}

func TestGetState_SeedsDefaultRoster(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)

	state, err := l.GetState(ctx)
	require.NoError(t, err)
	assert.Len(t, state.Prices, 3)
	assert.Len(t, state.Balances, 3)
	assert.Empty(t, state.History)
	assert.Len(t, state.Standings, 3)
	for name := range testRoster {
		assert.True(t, state.Balances[name].IsZero(), name)
	}
}

func TestGetState_FillsMissingBalances(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.SavePrices(ctx, map[string]money.Money{"Ann": money.MustParse("1.00"), "Bob": money.MustParse("2.00")}))
	require.NoError(t, store.SaveBalances(ctx, map[string]money.Money{"Ann": money.MustParse("5.00")}))

	l := New(store)
	state, err := l.GetState(ctx)
	require.NoError(t, err)
	assert.Equal(t, "5.00", state.Balances["Ann"].String())
	assert.Equal(t, "0.00", state.Balances["Bob"].String())
}

func TestPreviewNext_DoesNotPersist(t *testing.T) {
	ctx := context.Background()
	l, store := newLedger(t)

	preview, err := l.PreviewNext(ctx, []string{"Bob", "Ann", "Nobody"}, "alpha")
	require.NoError(t, err)
	assert.Equal(t, "Ann", preview.Payer)
	assert.Equal(t, "7.50", preview.TotalCost.String())
	assert.Equal(t, []string{"Bob", "Ann"}, preview.Included)
	assert.Equal(t, models.TieAlpha, preview.Strategy)

	history, err := store.ReadHistory(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)

	balances, err := store.LoadBalances(ctx)
	require.NoError(t, err)
	for _, b := range balances {
		assert.True(t, b.IsZero())
	}
}

func TestPreviewNext_EmptyCandidatesMeansEveryone(t *testing.T) {
	l, _ := newLedger(t)

	preview, err := l.PreviewNext(context.Background(), nil, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Ann", "Bob", "Cat"}, preview.Included)
	assert.Equal(t, "9.75", preview.TotalCost.String())
	assert.Equal(t, models.TieLeastRecent, preview.Strategy)
}

func TestPreviewNext_NoMatches(t *testing.T) {
	rec := &fakeRecorder{}
	l, _ := newLedger(t, WithRecorder(rec))

	_, err := l.PreviewNext(context.Background(), []string{"Xavier"}, "")
	require.Error(t, err)
	assert.True(t, apperrors.KindOf(err) == apperrors.KindEmptySelection)
	assert.Equal(t, "no provided people match prices", err.Error())
	assert.Equal(t, []string{"preview_next"}, rec.failures)
}

func TestRunRound_CreditOnly(t *testing.T) {
	ctx := context.Background()
	rec := &fakeRecorder{}
	l, store := newLedger(t, WithRecorder(rec))

	result, err := l.RunRound(ctx, []string{"Ann", "Bob"}, "alpha")
	require.NoError(t, err)
	assert.Equal(t, "Ann", result.Payer)
	assert.Equal(t, "7.50", result.TotalCost.String())
	assert.Equal(t, []string{"Ann", "Bob"}, result.Included)
	assert.Equal(t, "2024-05-01T09:01:00.000000Z", result.Timestamp)
	assert.Equal(t, "7.50", result.Balances["Ann"].String())
	assert.Equal(t, "0.00", result.Balances["Bob"].String())
	assert.Equal(t, "0.00", result.Balances["Cat"].String())
	require.Len(t, result.History, 1)
	assert.Equal(t, "Ann", result.History[0].Payer)
	assert.Equal(t, []string{"Ann"}, rec.rounds)

	// Durability: what was persisted matches what was returned.
	persisted, err := store.LoadBalances(ctx)
	require.NoError(t, err)
	require.Len(t, persisted, len(result.Balances))
	for name, want := range result.Balances {
		assert.True(t, want.Equal(persisted[name]), name)
	}

	// Bob now has the lowest balance.
	result, err = l.RunRound(ctx, []string{"Ann", "Bob"}, "alpha")
	require.NoError(t, err)
	assert.Equal(t, "Bob", result.Payer)
	assert.Equal(t, "7.50", result.Balances["Bob"].String())
	assert.Len(t, result.History, 2)
}

func TestRunRound_DebitCredit(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t, WithSettlementModel(models.DebitCredit))
	assert.Equal(t, models.DebitCredit, l.SettlementModel())

	result, err := l.RunRound(ctx, []string{"Ann", "Bob", "Cat"}, "alpha")
	require.NoError(t, err)
	assert.Equal(t, "Ann", result.Payer)
	assert.Equal(t, "6.75", result.Balances["Ann"].String(), "9.75 - 3.00")
	assert.Equal(t, "-4.50", result.Balances["Bob"].String())
	assert.Equal(t, "-2.25", result.Balances["Cat"].String())

	// Bob owes the most now.
	result, err = l.RunRound(ctx, []string{"Ann", "Bob", "Cat"}, "alpha")
	require.NoError(t, err)
	assert.Equal(t, "Bob", result.Payer)
	assert.Equal(t, "0.75", result.Balances["Bob"].String(), "-4.50 - 4.50 + 9.75")
}

func TestRunRound_LeastRecentRotation(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t, WithDefaultRoster(map[string]money.Money{
		"Ann": money.MustParse("2.00"),
		"Bob": money.MustParse("2.00"),
	}))

	var payers []string
	for range 4 {
		result, err := l.RunRound(ctx, nil, "least_recent")
		require.NoError(t, err)
		payers = append(payers, result.Payer)
	}
	assert.Equal(t, []string{"Ann", "Bob", "Ann", "Bob"}, payers)
}

func TestRunRound_NoPrices(t *testing.T) {
	l := New(memory.New(), WithDefaultRoster(nil))

	_, err := l.RunRound(context.Background(), []string{"Ann"}, "")
	require.Error(t, err)
	assert.True(t, apperrors.KindOf(err) == apperrors.KindEmptySelection)
	assert.Equal(t, "no prices configured", err.Error())
}

func TestRunRound_StorageFailure(t *testing.T) {
	ctx := context.Background()
	rec := &fakeRecorder{}
	l, store := newLedger(t, WithRecorder(rec))
	_, err := l.GetState(ctx)
	require.NoError(t, err)

	store.(*memory.Store).FailOn(memory.OpAppendHistory)

	_, err = l.RunRound(ctx, nil, "")
	require.Error(t, err)
	assert.True(t, apperrors.KindOf(err) == apperrors.KindStorage)
	assert.True(t, errors.Is(err, memory.ErrInjected))
	assert.Empty(t, rec.rounds)
	assert.Equal(t, []string{"run_round"}, rec.failures)

	balances, err := store.LoadBalances(ctx)
	require.NoError(t, err)
	for _, b := range balances {
		assert.True(t, b.IsZero(), "failed round must not move balances")
	}
}

func TestUpsertPrice(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)

	_, err := l.RunRound(ctx, []string{"Ann"}, "")
	require.NoError(t, err)

	roster, err := l.UpsertPrice(ctx, "  Ann ", "3.75")
	require.NoError(t, err)
	assert.Equal(t, "3.75", roster.Prices["Ann"].String())
	assert.Equal(t, "3.00", roster.Balances["Ann"].String(), "existing balance kept")

	roster, err = l.UpsertPrice(ctx, "Dee O'Hara", 5)
	require.NoError(t, err)
	assert.Equal(t, "5.00", roster.Prices["Dee O'Hara"].String())
	assert.True(t, roster.Balances["Dee O'Hara"].IsZero())

	_, err = l.UpsertPrice(ctx, "R2-D2", "1.00")
	assert.True(t, apperrors.KindOf(err) == apperrors.KindValidation)
	assert.EqualError(t, err, "invalid name")

	_, err = l.UpsertPrice(ctx, "Eve", "-1")
	assert.True(t, apperrors.KindOf(err) == apperrors.KindValidation)

	_, err = l.UpsertPrice(ctx, "Eve", "free")
	assert.True(t, apperrors.KindOf(err) == apperrors.KindValidation)
}

func TestRemovePerson(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)

	_, err := l.RunRound(ctx, []string{"Bob"}, "")
	require.NoError(t, err)

	removal, err := l.RemovePerson(ctx, "Bob")
	require.NoError(t, err)
	assert.True(t, removal.Removed)
	assert.NotContains(t, removal.Prices, "Bob")
	assert.NotContains(t, removal.Balances, "Bob")

	removal, err = l.RemovePerson(ctx, "Bob")
	require.NoError(t, err)
	assert.False(t, removal.Removed)

	state, err := l.GetState(ctx)
	require.NoError(t, err)
	require.Len(t, state.History, 1, "history keeps removed people")
	assert.Equal(t, "Bob", state.History[0].Payer)

	_, err = l.RemovePerson(ctx, "   ")
	assert.True(t, apperrors.KindOf(err) == apperrors.KindValidation)
}

func TestRemovePerson_LastPersonStaysRemoved(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t, WithDefaultRoster(map[string]money.Money{"Ann": money.MustParse("1.00")}))

	_, err := l.RemovePerson(ctx, "Ann")
	require.NoError(t, err)

	state, err := l.GetState(ctx)
	require.NoError(t, err)
	assert.Empty(t, state.Prices, "seeding only happens on first use")
}

func TestResetBalances(t *testing.T) {
	ctx := context.Background()
	l, store := newLedger(t)

	_, err := l.RunRound(ctx, nil, "")
	require.NoError(t, err)
	require.NoError(t, store.SaveBalances(ctx, map[string]money.Money{
		"Ann": money.MustParse("9.75"), "Bob": money.Zero, "Cat": money.Zero, "Ghost": money.MustParse("1.00"),
	}))

	reset, err := l.ResetBalances(ctx, false)
	require.NoError(t, err)
	assert.Len(t, reset.Balances, 3, "orphan balance dropped")
	for _, b := range reset.Balances {
		assert.True(t, b.IsZero())
	}
	assert.Len(t, reset.History, 1)

	reset, err = l.ResetBalances(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, reset.History)
}

func TestClearHistory(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)

	result, err := l.RunRound(ctx, nil, "")
	require.NoError(t, err)
	payer := result.Payer

	history, err := l.ClearHistory(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)

	state, err := l.GetState(ctx)
	require.NoError(t, err)
	assert.Equal(t, "9.75", state.Balances[payer].String(), "balances untouched")
}

func TestUnknownTieStrategyFallsBack(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t, WithDefaultTieStrategy(models.TieAlpha))

	preview, err := l.PreviewNext(ctx, nil, "coin-flip")
	require.NoError(t, err)
	assert.Equal(t, models.TieAlpha, preview.Strategy)

	preview, err = l.PreviewNext(ctx, nil, "ROUND_ROBIN")
	require.NoError(t, err)
	assert.Equal(t, models.TieRoundRobin, preview.Strategy)
}

// Every backend must give the same observable behaviour, including durability.
func TestRunRound_Backends(t *testing.T) {
	ctx := context.Background()

	backends := map[string]func(t *testing.T) storage.Store{
		"memory": func(t *testing.T) storage.Store { return memory.New() },
		"file": func(t *testing.T) storage.Store {
			s, err := filestore.New(t.TempDir())
			require.NoError(t, err)
			return s
		},
		"sqlite": func(t *testing.T) storage.Store {
			s, err := sqlite.New(filepath.Join(t.TempDir(), "ledger.db"))
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		},
	}

	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			store := open(t)
			l := New(store, WithDefaultRoster(testRoster), WithClock(fixedClock()))

			var last *RoundResult
			for range 5 {
				result, err := l.RunRound(ctx, nil, "round_robin")
				require.NoError(t, err)
				last = result
			}
			require.Len(t, last.History, 5)

			persisted, err := store.LoadBalances(ctx)
			require.NoError(t, err)
			require.Len(t, persisted, len(last.Balances))
			for person, want := range last.Balances {
				assert.True(t, want.Equal(persisted[person]), "%s: want %s got %s", person, want, persisted[person])
			}

			total := money.Zero
			for _, b := range persisted {
				total = total.Add(b)
			}
			assert.Equal(t, "48.75", total.String(), "five rounds of 9.75")
		})
	}
}

func TestRemovePerson_PersistsRepairedBalances(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.SavePrices(ctx, map[string]money.Money{"Ann": money.MustParse("1.00"), "Bob": money.MustParse("2.00")}))
	require.NoError(t, store.SaveBalances(ctx, map[string]money.Money{"Ann": money.MustParse("1.00")}))

	l := New(store)
	removal, err := l.RemovePerson(ctx, "Nobody")
	require.NoError(t, err)
	assert.False(t, removal.Removed)

	balances, err := store.LoadBalances(ctx)
	require.NoError(t, err)
	assert.Contains(t, balances, "Bob")
	assert.Equal(t, "1.00", balances["Ann"].String())
}

func TestGetState_NullBalancesFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, filestore.PricesFile), []byte(`{"Ann": 4.5}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, filestore.BalancesFile), []byte(`null`), 0o644))

	store, err := filestore.New(dir)
	require.NoError(t, err)

	state, err := New(store).GetState(ctx)
	require.NoError(t, err)
	assert.Equal(t, "4.50", state.Prices["Ann"].String())
	assert.True(t, state.Balances["Ann"].IsZero())
}

func TestSeed_NullBalancesFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, filestore.BalancesFile), []byte(`null`), 0o644))

	store, err := filestore.New(dir)
	require.NoError(t, err)

	state, err := New(store, WithDefaultRoster(testRoster)).GetState(ctx)
	require.NoError(t, err)
	assert.Len(t, state.Prices, 3)
	assert.Len(t, state.Balances, 3)
}

func TestLoad_DropsNonPositivePrices(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.SavePrices(ctx, map[string]money.Money{
		"Ann": money.MustParse("3.00"),
		"Bob": money.Zero,
		"Cat": money.MustParse("-1.00"),
	}))

	l := New(store, WithSettlementModel(models.DebitCredit))

	state, err := l.GetState(ctx)
	require.NoError(t, err)
	assert.Len(t, state.Prices, 1)
	assert.Contains(t, state.Prices, "Ann")

	_, err = l.RunRound(ctx, []string{"Bob", "Cat"}, "")
	assert.True(t, apperrors.KindOf(err) == apperrors.KindEmptySelection)

	result, err := l.RunRound(ctx, []string{"Ann", "Bob", "Cat"}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Ann"}, result.Included)
	assert.Equal(t, "3.00", result.TotalCost.String())
	assert.True(t, result.Balances["Ann"].IsZero(), "-3.00 + 3.00")
}
