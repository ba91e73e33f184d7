// Package service exposes the coffee ledger over Connect RPC.
package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/coffeeledger/internal/apperrors"
	"github.com/mmynk/coffeeledger/internal/ledger"
)

// Ensure LedgerService implements LedgerServiceHandler
var _ LedgerServiceHandler = (*LedgerService)(nil)

// LedgerService implements the Connect LedgerService on top of a ledger.Ledger.
type LedgerService struct {
	ledger *ledger.Ledger
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(l *ledger.Ledger) *LedgerService {
	return &LedgerService{ledger: l}
}

// GetState returns prices, balances, history and standings.
func (s *LedgerService) GetState(ctx context.Context, req *connect.Request[GetStateRequest]) (*connect.Response[GetStateResponse], error) {
	state, err := s.ledger.GetState(ctx)
	if err != nil {
		return nil, toConnectError("GetState", err)
	}
	return connect.NewResponse(&GetStateResponse{
		Prices:          state.Prices,
		Balances:        state.Balances,
		History:         nonNil(state.History),
		Standings:       nonNil(state.Standings),
		SettlementModel: string(s.ledger.SettlementModel()),
	}), nil
}

// PreviewNext reports who would pay without settling anything.
func (s *LedgerService) PreviewNext(ctx context.Context, req *connect.Request[PreviewNextRequest]) (*connect.Response[PreviewNextResponse], error) {
	slog.Debug("Previewing round", "people", req.Msg.People, "tie_strategy", req.Msg.TieStrategy)

	preview, err := s.ledger.PreviewNext(ctx, req.Msg.People, req.Msg.TieStrategy)
	if err != nil {
		return nil, toConnectError("PreviewNext", err)
	}
	return connect.NewResponse(&PreviewNextResponse{
		NextPayer:      preview.Payer,
		TotalCost:      preview.TotalCost,
		IncludedPeople: preview.Included,
		TieStrategy:    string(preview.Strategy),
	}), nil
}

// RunRound settles a round and returns the new state.
func (s *LedgerService) RunRound(ctx context.Context, req *connect.Request[RunRoundRequest]) (*connect.Response[RunRoundResponse], error) {
	slog.Debug("Running round", "people", req.Msg.People, "tie_strategy", req.Msg.TieStrategy)

	result, err := s.ledger.RunRound(ctx, req.Msg.People, req.Msg.TieStrategy)
	if err != nil {
		return nil, toConnectError("RunRound", err)
	}
	return connect.NewResponse(&RunRoundResponse{
		Timestamp:      result.Timestamp,
		Payer:          result.Payer,
		TotalCost:      result.TotalCost,
		IncludedPeople: result.Included,
		TieStrategy:    string(result.Strategy),
		Prices:         result.Prices,
		Balances:       result.Balances,
		History:        nonNil(result.History),
	}), nil
}

// SetPrice adds a person or changes their price.
func (s *LedgerService) SetPrice(ctx context.Context, req *connect.Request[SetPriceRequest]) (*connect.Response[SetPriceResponse], error) {
	roster, err := s.ledger.UpsertPrice(ctx, req.Msg.Name, req.Msg.Price)
	if err != nil {
		return nil, toConnectError("SetPrice", err)
	}
	return connect.NewResponse(&SetPriceResponse{
		Prices:   roster.Prices,
		Balances: roster.Balances,
	}), nil
}

// RemovePerson drops a person's price and balance.
func (s *LedgerService) RemovePerson(ctx context.Context, req *connect.Request[RemovePersonRequest]) (*connect.Response[RemovePersonResponse], error) {
	removal, err := s.ledger.RemovePerson(ctx, req.Msg.Name)
	if err != nil {
		return nil, toConnectError("RemovePerson", err)
	}
	return connect.NewResponse(&RemovePersonResponse{
		Removed:  removal.Removed,
		Prices:   removal.Prices,
		Balances: removal.Balances,
	}), nil
}

// ResetBalances zeroes balances, optionally clearing history.
func (s *LedgerService) ResetBalances(ctx context.Context, req *connect.Request[ResetBalancesRequest]) (*connect.Response[ResetBalancesResponse], error) {
	reset, err := s.ledger.ResetBalances(ctx, req.Msg.ClearHistory)
	if err != nil {
		return nil, toConnectError("ResetBalances", err)
	}
	return connect.NewResponse(&ResetBalancesResponse{
		Balances: reset.Balances,
		History:  nonNil(reset.History),
	}), nil
}

// ClearHistory truncates history.
func (s *LedgerService) ClearHistory(ctx context.Context, req *connect.Request[ClearHistoryRequest]) (*connect.Response[ClearHistoryResponse], error) {
	history, err := s.ledger.ClearHistory(ctx)
	if err != nil {
		return nil, toConnectError("ClearHistory", err)
	}
	return connect.NewResponse(&ClearHistoryResponse{History: nonNil(history)}), nil
}

// toConnectError maps ledger error kinds to Connect codes. Storage details
// are logged, not returned.
func toConnectError(procedure string, err error) error {
	if errors.Is(err, context.Canceled) {
		return connect.NewError(connect.CodeCanceled, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	}

	switch apperrors.KindOf(err) {
	case apperrors.KindValidation:
		return connect.NewError(connect.CodeInvalidArgument, err)
	case apperrors.KindEmptySelection:
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case apperrors.KindStorage:
		slog.Error(procedure+" failed", "error", err)
		return connect.NewError(connect.CodeInternal, errors.New("storage failure"))
	default:
		slog.Error(procedure+" failed", "error", err)
		return connect.NewError(connect.CodeInternal, errors.New("internal error"))
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
