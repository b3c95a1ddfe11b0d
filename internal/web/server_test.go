package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/elys-network/lender/internal/access"
	"github.com/elys-network/lender/internal/clock"
	"github.com/elys-network/lender/internal/config"
	"github.com/elys-network/lender/internal/events"
	"github.com/elys-network/lender/internal/lender"
	"github.com/elys-network/lender/internal/metrics"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	operator = common.HexToAddress("0xad00000000000000000000000000000000000001")
	alice    = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
)

func newTestServer(t *testing.T) (*WebServer, *lender.Registry) {
	t.Helper()
	m := metrics.NewMetrics("test")
	reg := lender.NewRegistry(operator, clock.NewManual(1_700_000_000), events.Multi{m})
	require.NoError(t, reg.BuildAll(config.DefaultPools(operator)))
	return NewWebServer(ServerConfig{Registry: reg, Metrics: m}), reg
}

func get(t *testing.T, ws *WebServer, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	ws.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body := map[string]interface{}{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestHealth(t *testing.T) {
	ws, _ := newTestServer(t)

	rec, body := get(t, ws, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", body["status"])
	status := body["lender_status"].(map[string]interface{})
	assert.Equal(t, float64(2), status["pools"])
	assert.Equal(t, "disabled", status["database"])
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestPools(t *testing.T) {
	ws, _ := newTestServer(t)

	rec, body := get(t, ws, "/api/pools")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["count"])

	rec, body = get(t, ws, "/api/pools/flex")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "usdc-lending", body["strategy"])
	assert.Equal(t, float64(90), body["min_lock_days"])
	assert.Len(t, body["checkpoints"], 1)

	rec, _ = get(t, ws, "/api/pools/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestQuote(t *testing.T) {
	ws, _ := newTestServer(t)

	rec, body := get(t, ws, "/api/pools/flex/quote?days=90")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(499), body["apr"])
	assert.Equal(t, float64(25), body["bonus_rate"])

	rec, _ = get(t, ws, "/api/pools/flex/quote?days=30")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = get(t, ws, "/api/pools/flex/quote?days=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = get(t, ws, "/api/pools/fixed-90d/quote?days=90")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAccount(t *testing.T) {
	ws, reg := newTestServer(t)
	flex, err := reg.Flex("flex")
	require.NoError(t, err)
	usdc, _ := reg.Ledger("uusdc")
	require.NoError(t, usdc.Mint(alice, sdkmath.NewInt(2_000_000)))
	require.NoError(t, usdc.Approve(alice, flex.Address(), sdkmath.NewInt(2_000_000)))
	require.NoError(t, flex.Deposit(access.As(alice), sdkmath.NewInt(2_000_000)))

	rec, body := get(t, ws, "/api/pools/flex/accounts/"+alice.Hex())
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2000000", body["total_deposit"])

	rec, _ = get(t, ws, "/api/pools/flex/accounts/alice")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryNeedsDatabase(t *testing.T) {
	ws, _ := newTestServer(t)

	for _, path := range []string{"/api/pools/flex/events", "/api/pools/flex/events/counts", "/api/pools/flex/snapshots"} {
		rec, _ := get(t, ws, path)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ws, reg := newTestServer(t)
	flex, err := reg.Flex("flex")
	require.NoError(t, err)
	usdc, _ := reg.Ledger("uusdc")
	require.NoError(t, usdc.Mint(alice, sdkmath.NewInt(1_000_000)))
	require.NoError(t, usdc.Approve(alice, flex.Address(), sdkmath.NewInt(1_000_000)))
	require.NoError(t, flex.Deposit(access.As(alice), sdkmath.NewInt(1_000_000)))

	rec, _ := get(t, ws, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `test_pool_events_total{kind="Deposited",pool="flex"} 1`)
}
