package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/coffeeledger/internal/ledger"
	"github.com/mmynk/coffeeledger/internal/metrics"
	"github.com/mmynk/coffeeledger/internal/middleware"
	"github.com/mmynk/coffeeledger/internal/money"
	"github.com/mmynk/coffeeledger/internal/storage/memory"
	"github.com/mmynk/coffeeledger/internal/storage/sqlite"
)

var testRoster = map[string]money.Money{
	"Alice": money.MustParse("3.00"),
	"Bob":   money.MustParse("4.50"),
	"Carol": money.MustParse("2.25"),
}

// setupTestServer creates a test server backed by a temporary SQLite database.
func setupTestServer(t *testing.T, opts ...ledger.Option) (LedgerServiceClient, *httptest.Server) {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err, "create store")

	opts = append([]ledger.Option{ledger.WithDefaultRoster(testRoster)}, opts...)
	svc := NewLedgerService(ledger.New(store, opts...))
	path, handler := NewLedgerServiceHandler(svc, connect.WithInterceptors(middleware.LoggingInterceptor(nil)))

	mux := http.NewServeMux()
	mux.Handle(path, handler)
	server := httptest.NewServer(mux)

	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	return NewLedgerServiceClient(http.DefaultClient, server.URL), server
}

func TestGetState_Seeded(t *testing.T) {
	client, _ := setupTestServer(t)

	resp, err := client.GetState(context.Background(), connect.NewRequest(&GetStateRequest{}))
	require.NoError(t, err)

	assert.Len(t, resp.Msg.Prices, 3)
	assert.Equal(t, "4.50", resp.Msg.Prices["Bob"].String())
	assert.Empty(t, resp.Msg.History)
	assert.Len(t, resp.Msg.Standings, 3)
	assert.Equal(t, "credit_only", resp.Msg.SettlementModel)
}

func TestPreviewNext(t *testing.T) {
	client, _ := setupTestServer(t)

	resp, err := client.PreviewNext(context.Background(), connect.NewRequest(&PreviewNextRequest{
		People:      []string{"Bob", "Alice", "Mallory"},
		TieStrategy: "alpha",
	}))
	require.NoError(t, err)

	assert.Equal(t, "Alice", resp.Msg.NextPayer)
	assert.Equal(t, "7.50", resp.Msg.TotalCost.String())
	assert.Equal(t, []string{"Bob", "Alice"}, resp.Msg.IncludedPeople)
}

func TestRunRound_RotatesPayer(t *testing.T) {
	client, _ := setupTestServer(t)
	ctx := context.Background()

	first, err := client.RunRound(ctx, connect.NewRequest(&RunRoundRequest{TieStrategy: "alpha"}))
	require.NoError(t, err)
	assert.Equal(t, "Alice", first.Msg.Payer)
	assert.Equal(t, "9.75", first.Msg.Balances["Alice"].String())
	require.Len(t, first.Msg.History, 1)
	_, err = time.Parse(time.RFC3339Nano, first.Msg.Timestamp)
	assert.NoError(t, err, "timestamp %q is not ISO-8601", first.Msg.Timestamp)

	second, err := client.RunRound(ctx, connect.NewRequest(&RunRoundRequest{TieStrategy: "alpha"}))
	require.NoError(t, err)
	assert.Equal(t, "Bob", second.Msg.Payer)

	state, err := client.GetState(ctx, connect.NewRequest(&GetStateRequest{}))
	require.NoError(t, err)
	assert.Len(t, state.Msg.History, 2)
}

func TestRunRound_NoMatches(t *testing.T) {
	client, _ := setupTestServer(t)

	_, err := client.RunRound(context.Background(), connect.NewRequest(&RunRoundRequest{
		People: []string{"Mallory"},
	}))
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))
}

func TestSetPrice(t *testing.T) {
	client, _ := setupTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		price any
		want  string
	}{
		{name: "Dave", price: 3.5, want: "3.50"},
		{name: "Erin", price: "$4.25", want: "4.25"},
		{name: "Bob", price: "5", want: "5.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := client.SetPrice(ctx, connect.NewRequest(&SetPriceRequest{Name: tt.name, Price: tt.price}))
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.Msg.Prices[tt.name].String())
			assert.Contains(t, resp.Msg.Balances, tt.name)
		})
	}
}

func TestSetPrice_Invalid(t *testing.T) {
	client, _ := setupTestServer(t)
	ctx := context.Background()

	bad := []*SetPriceRequest{
		{Name: "R2D2", Price: "1.00"},
		{Name: "", Price: "1.00"},
		{Name: "Dave", Price: "-2"},
		{Name: "Dave", Price: "a lot"},
		{Name: "Dave", Price: nil},
	}
	for _, req := range bad {
		_, err := client.SetPrice(ctx, connect.NewRequest(req))
		assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err), "SetPrice(%q, %v)", req.Name, req.Price)
	}
}

func TestRemovePerson(t *testing.T) {
	client, _ := setupTestServer(t)
	ctx := context.Background()

	resp, err := client.RemovePerson(ctx, connect.NewRequest(&RemovePersonRequest{Name: "Carol"}))
	require.NoError(t, err)
	assert.True(t, resp.Msg.Removed)
	assert.NotContains(t, resp.Msg.Prices, "Carol")

	resp, err = client.RemovePerson(ctx, connect.NewRequest(&RemovePersonRequest{Name: "Carol"}))
	require.NoError(t, err)
	assert.False(t, resp.Msg.Removed, "second removal should report nothing removed")
}

func TestResetBalancesAndClearHistory(t *testing.T) {
	client, _ := setupTestServer(t)
	ctx := context.Background()

	for range 2 {
		_, err := client.RunRound(ctx, connect.NewRequest(&RunRoundRequest{}))
		require.NoError(t, err)
	}

	reset, err := client.ResetBalances(ctx, connect.NewRequest(&ResetBalancesRequest{}))
	require.NoError(t, err)
	for name, bal := range reset.Msg.Balances {
		assert.True(t, bal.IsZero(), "%s balance: got %s", name, bal)
	}
	assert.Len(t, reset.Msg.History, 2, "history kept")

	cleared, err := client.ClearHistory(ctx, connect.NewRequest(&ClearHistoryRequest{}))
	require.NoError(t, err)
	assert.NotNil(t, cleared.Msg.History)
	assert.Empty(t, cleared.Msg.History)
}

func TestStorageFailureIsInternal(t *testing.T) {
	store := memory.New()
	store.FailOn(memory.OpLoadPrices)
	path, handler := NewLedgerServiceHandler(NewLedgerService(ledger.New(store)))
	mux := http.NewServeMux()
	mux.Handle(path, handler)
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewLedgerServiceClient(http.DefaultClient, server.URL)
	_, err := client.GetState(context.Background(), connect.NewRequest(&GetStateRequest{}))

	var connectErr *connect.Error
	require.ErrorAs(t, err, &connectErr)
	assert.Equal(t, connect.CodeInternal, connectErr.Code())
	assert.NotContains(t, connectErr.Message(), "injected", "storage details leaked to client")
}

// Browsers talk plain JSON over the Connect protocol without a generated client.
func TestPlainJSONRequest(t *testing.T) {
	_, server := setupTestServer(t)

	body := []byte(`{"name": "Dave", "price": 4.10}`)
	req, err := http.NewRequest(http.MethodPost, server.URL+LedgerServiceSetPriceProcedure, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	var out struct {
		Prices map[string]json.Number `json:"prices"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, json.Number("4.10"), out.Prices["Dave"])
}

func TestRPCMetrics(t *testing.T) {
	m := metrics.New()
	store := memory.New()
	l := ledger.New(store, ledger.WithDefaultRoster(testRoster), ledger.WithRecorder(m))
	path, handler := NewLedgerServiceHandler(NewLedgerService(l), connect.WithInterceptors(middleware.LoggingInterceptor(m)))
	mux := http.NewServeMux()
	mux.Handle(path, handler)
	mux.Handle("/metrics", m.Handler())
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewLedgerServiceClient(http.DefaultClient, server.URL)
	_, err := client.RunRound(context.Background(), connect.NewRequest(&RunRoundRequest{TieStrategy: "alpha"}))
	require.NoError(t, err)
	_, _ = client.RunRound(context.Background(), connect.NewRequest(&RunRoundRequest{People: []string{"Nobody"}}))

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := string(data)

	for _, want := range []string{
		`coffeeledger_rounds_total{strategy="alpha"} 1`,
		`coffeeledger_payer_selected_total{payer="Alice"} 1`,
		`coffeeledger_operation_errors_total{kind="empty_selection",operation="run_round"} 1`,
		`coffeeledger_rpc_duration_seconds_count{code="ok",procedure="/coffeeledger.v1.LedgerService/RunRound"} 1`,
		`coffeeledger_rpc_duration_seconds_count{code="failed_precondition",procedure="/coffeeledger.v1.LedgerService/RunRound"} 1`,
	} {
		assert.Contains(t, body, want)
	}
}
