package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/tezfolio/internal/adapters/notify"
	"github.com/alejandrodnm/tezfolio/internal/application/portfolio"
	"github.com/alejandrodnm/tezfolio/internal/domain"
	"github.com/alejandrodnm/tezfolio/internal/server"
)

// --- fakes ---

type stubWallet struct{ err error }

func (w stubWallet) Connect(context.Context, bool) (domain.Session, error) {
	if w.err != nil {
		return domain.Session{}, w.err
	}
	return domain.Session{
		Owner:           "tz1owner",
		PublicKey:       "edpk",
		ContractAddress: "KT1contract",
		Submitter:       stubSubmitter{},
	}, nil
}

type stubSubmitter struct{}

func (stubSubmitter) Submit(context.Context, domain.ContractCall) (domain.Operation, error) {
	return stubOperation{}, nil
}

type stubOperation struct{}

func (stubOperation) Hash() string                                  { return "ooHash" }
func (stubOperation) AwaitConfirmations(context.Context, int) error { return nil }

type stubPools struct{}

func (stubPools) FetchPools(context.Context) ([]domain.Pool, error) {
	return []domain.Pool{
		{PoolAddress: "KT1a", TokenSymbol: "AAA", Standard: domain.StandardFA12},
		{
			PoolAddress:  "KT1b",
			TokenSymbol:  "BBB",
			Standard:     domain.StandardFA2,
			TokenID:      "0",
			FeeFactor:    0.997,
			LastActivity: time.Date(2022, 4, 30, 0, 0, 0, 0, time.UTC),
		},
	}, nil
}

type stubAnalytics struct{ err error }

func (a stubAnalytics) Emulate(context.Context, domain.AnalyticsRequest) ([]domain.EmulationSample, error) {
	if a.err != nil {
		return nil, a.err
	}
	day := time.Date(2022, 5, 1, 0, 0, 0, 0, time.UTC)
	return []domain.EmulationSample{{Day: day, Evaluation: 1}, {Day: day.AddDate(0, 0, 1), Evaluation: 1.1}}, nil
}

func (a stubAnalytics) Optimize(context.Context, domain.AnalyticsRequest) ([]domain.Variant, error) {
	return nil, a.err
}

// stubPositions reports no position until a portfolio has been opened.
type stubPositions struct{ opened *atomic.Bool }

func (p stubPositions) FetchPosition(context.Context, string, string) (domain.Position, error) {
	if p.opened.Load() {
		return domain.Position{{Symbol: "AAA", Asset: "a", Weight: "1", Token: "KT1a"}}, nil
	}
	return nil, nil
}

type openTracker struct {
	stubSubmitter
	opened *atomic.Bool
}

func (t openTracker) Submit(ctx context.Context, call domain.ContractCall) (domain.Operation, error) {
	t.opened.Store(call.Entrypoint == domain.EntrypointCreatePortfolio)
	return t.stubSubmitter.Submit(ctx, call)
}

type trackingWallet struct {
	stubWallet
	opened *atomic.Bool
}

func (w trackingWallet) Connect(ctx context.Context, force bool) (domain.Session, error) {
	s, err := w.stubWallet.Connect(ctx, force)
	s.Submitter = openTracker{opened: w.opened}
	return s, err
}

type testEnv struct {
	srv   *httptest.Server
	inbox *notify.Inbox
}

func newEnv(t *testing.T, walletErr, analyticsErr error) *testEnv {
	t.Helper()
	opened := new(atomic.Bool)
	inbox := notify.NewInbox(10)
	ctrl := portfolio.New(portfolio.Deps{
		Wallet:    trackingWallet{stubWallet: stubWallet{err: walletErr}, opened: opened},
		Pools:     stubPools{},
		Analytics: stubAnalytics{err: analyticsErr},
		Positions: stubPositions{opened: opened},
		Notifier:  inbox,
	}, portfolio.Config{})

	s := server.New(server.Config{Controller: ctrl, Inbox: inbox})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return &testEnv{srv: ts, inbox: inbox}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, e.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent {
		_ = json.NewDecoder(resp.Body).Decode(&out)
	}
	return resp.StatusCode, out
}

// --- tests ---

func TestHealth(t *testing.T) {
	env := newEnv(t, nil, nil)
	status, body := env.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestState_Disconnected(t *testing.T) {
	env := newEnv(t, nil, nil)
	status, body := env.do(t, http.MethodGet, "/api/state", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "disconnected", body["stage"])
}

func TestAddPool_BeforeConnectIsConflict(t *testing.T) {
	env := newEnv(t, nil, nil)
	status, body := env.do(t, http.MethodPost, "/api/allocation", `{"pool_address":"KT1a"}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "precondition", body["kind"])
}

func TestConnect_WalletFailureIsUnauthorized(t *testing.T) {
	env := newEnv(t, errors.New("user rejected"), nil)

	status, body := env.do(t, http.MethodPost, "/api/session", `{"force_permissions":true}`)

	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "connection", body["kind"])
	require.Len(t, env.inbox.List(), 1)
}

func TestFullFlow_OpenPosition(t *testing.T) {
	env := newEnv(t, nil, nil)

	status, body := env.do(t, http.MethodPost, "/api/session", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "building", body["stage"])
	assert.Equal(t, "tz1owner", body["owner"])

	status, _ = env.do(t, http.MethodPost, "/api/allocation", `{"pool_address":"KT1a"}`)
	require.Equal(t, http.StatusOK, status)

	req, err := http.NewRequest(http.MethodGet, env.srv.URL+"/api/pools", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	var pools []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pools))
	resp.Body.Close()
	require.Len(t, pools, 1)
	assert.Equal(t, "KT1b", pools[0]["pool_address"])
	assert.InDelta(t, 0.997, pools[0]["fee_factor"], 1e-9)
	assert.Equal(t, "2022-04-30", pools[0]["last_activity"])

	status, body = env.do(t, http.MethodPut, "/api/allocation/KT1a/weight", `{"weight":100}`)
	require.Equal(t, http.StatusOK, status)
	alloc := body["allocation"].([]any)
	require.Len(t, alloc, 1)
	assert.InDelta(t, 100, alloc[0].(map[string]any)["weight"], 1e-9)

	status, body = env.do(t, http.MethodPost, "/api/emulate", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "emulation_ready", body["stage"])
	samples := body["emulation"].([]any)
	require.Len(t, samples, 2)
	first := samples[0].(map[string]any)
	assert.Equal(t, "2022-05-01", first["day"])
	assert.InDelta(t, 100, first["percent"], 1e-9)
	assert.NotNil(t, body["summary"])

	status, body = env.do(t, http.MethodPost, "/api/portfolio", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "has_position", body["stage"])
	assert.Empty(t, body["allocation"])
}

func TestEmulate_TransportFailure(t *testing.T) {
	env := newEnv(t, nil, errors.New("connection refused"))
	status, _ := env.do(t, http.MethodPost, "/api/session", "")
	require.Equal(t, http.StatusOK, status)
	status, _ = env.do(t, http.MethodPost, "/api/allocation", `{"pool_address":"KT1b"}`)
	require.Equal(t, http.StatusOK, status)

	status, body := env.do(t, http.MethodPost, "/api/emulate", "")

	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "transport", body["kind"])

	notices := env.inbox.List()
	require.Len(t, notices, 1)
	assert.Equal(t, domain.NoticeError, notices[0].Level)

	status, _ = env.do(t, http.MethodDelete, "/api/notices/"+notices[0].ID, "")
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = env.do(t, http.MethodDelete, "/api/notices/"+notices[0].ID, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestBadRequests(t *testing.T) {
	env := newEnv(t, nil, nil)

	status, _ := env.do(t, http.MethodPost, "/api/allocation", `{not json`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.do(t, http.MethodPost, "/api/variants/abc/select", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.do(t, http.MethodGet, "/api/operations?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestOperations_WithoutJournal(t *testing.T) {
	env := newEnv(t, nil, nil)
	req, err := http.NewRequest(http.MethodGet, env.srv.URL+"/api/operations", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var ops []any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ops))
	assert.Empty(t, ops)
}
