package service

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// LedgerServiceName is the fully-qualified name of the LedgerService service.
const LedgerServiceName = "coffeeledger.v1.LedgerService"

// Fully-qualified procedure names, used for routing and in logs and metrics.
const (
	LedgerServiceGetStateProcedure      = "/coffeeledger.v1.LedgerService/GetState"
	LedgerServicePreviewNextProcedure   = "/coffeeledger.v1.LedgerService/PreviewNext"
	LedgerServiceRunRoundProcedure      = "/coffeeledger.v1.LedgerService/RunRound"
	LedgerServiceSetPriceProcedure      = "/coffeeledger.v1.LedgerService/SetPrice"
	LedgerServiceRemovePersonProcedure  = "/coffeeledger.v1.LedgerService/RemovePerson"
	LedgerServiceResetBalancesProcedure = "/coffeeledger.v1.LedgerService/ResetBalances"
	LedgerServiceClearHistoryProcedure  = "/coffeeledger.v1.LedgerService/ClearHistory"
)

// LedgerServiceHandler is implemented by LedgerService.
type LedgerServiceHandler interface {
	GetState(context.Context, *connect.Request[GetStateRequest]) (*connect.Response[GetStateResponse], error)
	PreviewNext(context.Context, *connect.Request[PreviewNextRequest]) (*connect.Response[PreviewNextResponse], error)
	RunRound(context.Context, *connect.Request[RunRoundRequest]) (*connect.Response[RunRoundResponse], error)
	SetPrice(context.Context, *connect.Request[SetPriceRequest]) (*connect.Response[SetPriceResponse], error)
	RemovePerson(context.Context, *connect.Request[RemovePersonRequest]) (*connect.Response[RemovePersonResponse], error)
	ResetBalances(context.Context, *connect.Request[ResetBalancesRequest]) (*connect.Response[ResetBalancesResponse], error)
	ClearHistory(context.Context, *connect.Request[ClearHistoryRequest]) (*connect.Response[ClearHistoryResponse], error)
}

// LedgerServiceClient is a client for coffeeledger.v1.LedgerService.
type LedgerServiceClient interface {
	GetState(context.Context, *connect.Request[GetStateRequest]) (*connect.Response[GetStateResponse], error)
	PreviewNext(context.Context, *connect.Request[PreviewNextRequest]) (*connect.Response[PreviewNextResponse], error)
	RunRound(context.Context, *connect.Request[RunRoundRequest]) (*connect.Response[RunRoundResponse], error)
	SetPrice(context.Context, *connect.Request[SetPriceRequest]) (*connect.Response[SetPriceResponse], error)
	RemovePerson(context.Context, *connect.Request[RemovePersonRequest]) (*connect.Response[RemovePersonResponse], error)
	ResetBalances(context.Context, *connect.Request[ResetBalancesRequest]) (*connect.Response[ResetBalancesResponse], error)
	ClearHistory(context.Context, *connect.Request[ClearHistoryRequest]) (*connect.Response[ClearHistoryResponse], error)
}

// NewLedgerServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself. The JSON codec is always registered.
func NewLedgerServiceHandler(svc LedgerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	getState := connect.NewUnaryHandler(LedgerServiceGetStateProcedure, svc.GetState,
		append(opts, connect.WithIdempotency(connect.IdempotencyNoSideEffects))...)
	previewNext := connect.NewUnaryHandler(LedgerServicePreviewNextProcedure, svc.PreviewNext,
		append(opts, connect.WithIdempotency(connect.IdempotencyNoSideEffects))...)
	runRound := connect.NewUnaryHandler(LedgerServiceRunRoundProcedure, svc.RunRound, opts...)
	setPrice := connect.NewUnaryHandler(LedgerServiceSetPriceProcedure, svc.SetPrice,
		append(opts, connect.WithIdempotency(connect.IdempotencyIdempotent))...)
	removePerson := connect.NewUnaryHandler(LedgerServiceRemovePersonProcedure, svc.RemovePerson,
		append(opts, connect.WithIdempotency(connect.IdempotencyIdempotent))...)
	resetBalances := connect.NewUnaryHandler(LedgerServiceResetBalancesProcedure, svc.ResetBalances,
		append(opts, connect.WithIdempotency(connect.IdempotencyIdempotent))...)
	clearHistory := connect.NewUnaryHandler(LedgerServiceClearHistoryProcedure, svc.ClearHistory,
		append(opts, connect.WithIdempotency(connect.IdempotencyIdempotent))...)

	return "/" + LedgerServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case LedgerServiceGetStateProcedure:
			getState.ServeHTTP(w, r)
		case LedgerServicePreviewNextProcedure:
			previewNext.ServeHTTP(w, r)
		case LedgerServiceRunRoundProcedure:
			runRound.ServeHTTP(w, r)
		case LedgerServiceSetPriceProcedure:
			setPrice.ServeHTTP(w, r)
		case LedgerServiceRemovePersonProcedure:
			removePerson.ServeHTTP(w, r)
		case LedgerServiceResetBalancesProcedure:
			resetBalances.ServeHTTP(w, r)
		case LedgerServiceClearHistoryProcedure:
			clearHistory.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// NewLedgerServiceClient constructs a client for coffeeledger.v1.LedgerService.
// baseURL is the server root, e.g. http://localhost:8080.
func NewLedgerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) LedgerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &ledgerServiceClient{
		getState:      connect.NewClient[GetStateRequest, GetStateResponse](httpClient, baseURL+LedgerServiceGetStateProcedure, opts...),
		previewNext:   connect.NewClient[PreviewNextRequest, PreviewNextResponse](httpClient, baseURL+LedgerServicePreviewNextProcedure, opts...),
		runRound:      connect.NewClient[RunRoundRequest, RunRoundResponse](httpClient, baseURL+LedgerServiceRunRoundProcedure, opts...),
		setPrice:      connect.NewClient[SetPriceRequest, SetPriceResponse](httpClient, baseURL+LedgerServiceSetPriceProcedure, opts...),
		removePerson:  connect.NewClient[RemovePersonRequest, RemovePersonResponse](httpClient, baseURL+LedgerServiceRemovePersonProcedure, opts...),
		resetBalances: connect.NewClient[ResetBalancesRequest, ResetBalancesResponse](httpClient, baseURL+LedgerServiceResetBalancesProcedure, opts...),
		clearHistory:  connect.NewClient[ClearHistoryRequest, ClearHistoryResponse](httpClient, baseURL+LedgerServiceClearHistoryProcedure, opts...),
	}
}

type ledgerServiceClient struct {
	getState      *connect.Client[GetStateRequest, GetStateResponse]
	previewNext   *connect.Client[PreviewNextRequest, PreviewNextResponse]
	runRound      *connect.Client[RunRoundRequest, RunRoundResponse]
	setPrice      *connect.Client[SetPriceRequest, SetPriceResponse]
	removePerson  *connect.Client[RemovePersonRequest, RemovePersonResponse]
	resetBalances *connect.Client[ResetBalancesRequest, ResetBalancesResponse]
	clearHistory  *connect.Client[ClearHistoryRequest, ClearHistoryResponse]
}

func (c *ledgerServiceClient) GetState(ctx context.Context, req *connect.Request[GetStateRequest]) (*connect.Response[GetStateResponse], error) {
	return c.getState.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) PreviewNext(ctx context.Context, req *connect.Request[PreviewNextRequest]) (*connect.Response[PreviewNextResponse], error) {
	return c.previewNext.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) RunRound(ctx context.Context, req *connect.Request[RunRoundRequest]) (*connect.Response[RunRoundResponse], error) {
	return c.runRound.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) SetPrice(ctx context.Context, req *connect.Request[SetPriceRequest]) (*connect.Response[SetPriceResponse], error) {
	return c.setPrice.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) RemovePerson(ctx context.Context, req *connect.Request[RemovePersonRequest]) (*connect.Response[RemovePersonResponse], error) {
	return c.removePerson.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) ResetBalances(ctx context.Context, req *connect.Request[ResetBalancesRequest]) (*connect.Response[ResetBalancesResponse], error) {
	return c.resetBalances.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) ClearHistory(ctx context.Context, req *connect.Request[ClearHistoryRequest]) (*connect.Response[ClearHistoryResponse], error) {
	return c.clearHistory.CallUnary(ctx, req)
}
