package analytics_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/alejandrodnm/tezfolio/internal/adapters/analytics"
	"github.com/alejandrodnm/tezfolio/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveFixture(t *testing.T, path, fixture string) *httptest.Server {
	t.Helper()
	data, err := os.ReadFile("../../../testdata/fixtures/" + fixture)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, path, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchPools_Success(t *testing.T) {
	srv := serveFixture(t, "/pools", "pools.json")

	pools, err := analytics.NewClient(srv.URL).FetchPools(context.Background())
	require.NoError(t, err)
	require.Len(t, pools, 3, "el pool con tzips desconocido se descarta")

	q := pools[0]
	assert.Equal(t, "KT1X3zxdTzPB9DgVzA3ad6dgZe9JEamoaeRy", q.PoolAddress)
	assert.Equal(t, "QUIPU", q.TokenSymbol)
	assert.Equal(t, domain.StandardFA2, q.Standard)
	assert.Equal(t, "0", q.TokenID)
	assert.Equal(t, 6, q.Decimals)
	assert.InDelta(t, 4.6, q.TezToToken, 1e-9)
	assert.False(t, q.LastActivity.IsZero())

	k := pools[1]
	assert.Equal(t, domain.StandardFA12, k.Standard)
	assert.Empty(t, k.TokenID)
	assert.Equal(t, 18, k.Decimals)

	btc := pools[2]
	assert.Equal(t, domain.StandardFA2, btc.Standard, "tzips en mayúsculas")
	assert.Equal(t, "0", btc.TokenID, "token_id numérico")
	assert.Zero(t, btc.TezToToken, "precio desconocido → 0")
	assert.True(t, btc.LastActivity.IsZero())
}

func TestEmulate_Success(t *testing.T) {
	data, err := os.ReadFile("../../../testdata/fixtures/emulate.json")
	require.NoError(t, err)

	var got domain.AnalyticsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/emulate", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write(data)
	}))
	defer srv.Close()

	req := domain.AnalyticsRequest{Assets: []domain.AnalyticsAsset{{Symbol: "QUIPU", Weight: 0}, {Symbol: "kUSD", Weight: 40}}}
	samples, err := analytics.NewClient(srv.URL).Emulate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, req, got)
	require.Len(t, samples, 5)
	assert.InDelta(t, 1.0, samples[0].Evaluation, 1e-9)
	assert.Equal(t, 2022, samples[0].Day.Year())
	assert.True(t, samples[3].Day.After(samples[2].Day))
	assert.InDelta(t, 1.07, samples[4].Evaluation, 1e-9)
}

func TestEmulate_BadDay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":[{"day":"yesterday","evaluation":1}]}`))
	}))
	defer srv.Close()

	_, err := analytics.NewClient(srv.URL).Emulate(context.Background(), domain.AnalyticsRequest{})
	require.Error(t, err)

	var apiErr *analytics.APIError
	assert.True(t, errors.As(err, &apiErr))
}

func TestOptimize_Variants(t *testing.T) {
	srv := serveFixture(t, "/markovitz-optimize", "optimize.json")

	variants, err := analytics.NewClient(srv.URL).Optimize(context.Background(), domain.AnalyticsRequest{})
	require.NoError(t, err)
	require.Len(t, variants, 2)

	assert.InDelta(t, 0.12, variants[0].ProfitRatio, 1e-9)
	assert.InDelta(t, 0.31, variants[0].VolatilityRatio, 1e-9)
	assert.Equal(t, map[string]float64{"QUIPU": 0.6, "kUSD": 0.4}, variants[0].Weights)
	assert.Equal(t, map[string]float64{"kUSD": 1.0}, variants[1].Weights)
}

func TestOptimize_EmptyResultIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":[]}`))
	}))
	defer srv.Close()

	variants, err := analytics.NewClient(srv.URL).Optimize(context.Background(), domain.AnalyticsRequest{})
	require.NoError(t, err)
	assert.Empty(t, variants)
}

func TestFetchPosition_Success(t *testing.T) {
	data, err := os.ReadFile("../../../testdata/fixtures/portfolio.json")
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/portfolio", r.URL.Path)
		assert.Equal(t, "tz1owner", r.URL.Query().Get("owner"))
		assert.Equal(t, "KT1contract", r.URL.Query().Get("contract_address"))
		w.Write(data)
	}))
	defer srv.Close()

	pos, err := analytics.NewClient(srv.URL).FetchPosition(context.Background(), "tz1owner", "KT1contract")
	require.NoError(t, err)
	require.Len(t, pos, 2)

	assert.Equal(t, "QUIPU", pos[0].Symbol)
	assert.Equal(t, "0.6", pos[0].Weight)
	assert.Equal(t, "0.4", pos[1].Weight, "peso numérico normalizado a string")
	assert.Equal(t, "KT1K4EwTpbvYN9agJdjpyJm4ZZdhpUNKB3F6", pos[1].Token)
}

func TestValidationErrorUsesFirstDetailMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail":[{"loc":["body","assets",0,"weight"],"msg":"weights must sum to 100","type":"value_error"},{"loc":[],"msg":"second","type":"x"}]}`))
	}))
	defer srv.Close()

	_, err := analytics.NewClient(srv.URL).Emulate(context.Background(), domain.AnalyticsRequest{})
	require.Error(t, err)

	var apiErr *analytics.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "weights must sum to 100", apiErr.UserMessage())
}

func TestClientErrorWithoutDetailFallsBackToTransportMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`oops`))
	}))
	defer srv.Close()

	_, err := analytics.NewClient(srv.URL).Optimize(context.Background(), domain.AnalyticsRequest{})

	var apiErr *analytics.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Request failed with status code 400", apiErr.UserMessage())
}

func TestServerErrorIsRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"result":[]}`))
	}))
	defer srv.Close()

	_, err := analytics.NewClient(srv.URL).Optimize(context.Background(), domain.AnalyticsRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestNetworkErrorSurfacesTransportMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := analytics.NewClient(url).FetchPools(context.Background())
	require.Error(t, err)

	var apiErr *analytics.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Zero(t, apiErr.StatusCode)
	assert.NotEmpty(t, apiErr.UserMessage())
	assert.NotNil(t, errors.Unwrap(apiErr))
}
