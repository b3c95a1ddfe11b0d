package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/elys-network/lender/internal/events"
	"github.com/elys-network/lender/internal/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitCountsByPoolAndKind(t *testing.T) {
	m := NewMetrics("test")
	lender := common.HexToAddress("0x00000000000000000000000000000000000a11ce")

	m.Emit(events.BonusClaimed("flex", 1, lender, sdkmath.NewInt(1)))
	m.Emit(events.BonusClaimed("flex", 2, lender, sdkmath.NewInt(1)))
	m.Emit(events.FeesWithdrawn("fixed", 3, lender, sdkmath.NewInt(1)))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EventsTotal.WithLabelValues("flex", string(events.KindBonusClaimed))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsTotal.WithLabelValues("fixed", string(events.KindFeesWithdrawn))))
}

func TestObservePool(t *testing.T) {
	m := NewMetrics("test")
	info := types.PoolInfo{
		Name:            "flex",
		StableToken:     types.Token{Symbol: "USDC", Denom: "uusdc", Decimals: 6},
		PoolSize:        sdkmath.NewInt(2_500_000),
		MaxLimit:        sdkmath.NewInt(10_000_000),
		TotalPenaltyFee: sdkmath.NewInt(500_000),
	}
	m.ObservePool(info, sdkmath.NewInt(2_600_000), 3)

	assert.Equal(t, 2.5, testutil.ToFloat64(m.PoolSize.WithLabelValues("flex")))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.PoolMaxLimit.WithLabelValues("flex")))
	assert.Equal(t, 0.5, testutil.ToFloat64(m.PenaltyFees.WithLabelValues("flex")))
	assert.Equal(t, 2.6, testutil.ToFloat64(m.StrategyBalance.WithLabelValues("flex")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Lenders.WithLabelValues("flex")))
}

func TestObserveCycleAndHandler(t *testing.T) {
	m := NewMetrics("test")
	m.ObserveCycle(time.Second, nil)
	m.ObserveCycle(time.Second, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CyclesTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CyclesTotal.WithLabelValues("error")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_monitor_cycles_total")
}
