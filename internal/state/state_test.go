package state

import (
	"context"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/elys-network/lender/internal/events"
	"github.com/elys-network/lender/internal/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB starts a PostgreSQL container, installs it as DB and applies the schema.
func setupTestDB(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("lender"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")
	require.NoError(t, Open(dsn))
	require.NoError(t, EnsureSchema())

	t.Cleanup(func() {
		CloseDB()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})
}

func TestStoreWithoutDatabase(t *testing.T) {
	DB = nil
	_, err := SavePoolParameters(types.PoolParameters{Name: "x"}, 1, true)
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = GetRecentEvents("x", 10)
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, EventStore{}.Save(context.Background(), events.Event{}), ErrNotInitialized)
	assert.ErrorIs(t, EnsureSchema(), ErrNotInitialized)
}

func TestDSN(t *testing.T) {
	cfg := DBConfig{Host: "localhost", Port: 5432, User: "u", Password: "p", DBName: "lender", SSLMode: "disable"}
	assert.Equal(t, "host=localhost port=5432 user=u password=p dbname=lender sslmode=disable", cfg.DSN())
}

func TestPostgresStores(t *testing.T) {
	setupTestDB(t)

	t.Run("pool parameters are versioned", func(t *testing.T) {
		params := types.PoolParameters{Name: "flex", Kind: types.PoolKindFlexible, BaseApr: 1000, MinDeposit: "1000000"}
		_, err := SavePoolParameters(params, 1, true)
		require.NoError(t, err)

		params.BaseApr = 2000
		_, err = SavePoolParameters(params, 2, true)
		require.NoError(t, err)

		loaded, err := LoadActivePoolParameters("flex")
		require.NoError(t, err)
		assert.Equal(t, uint64(2000), loaded.BaseApr)

		version, err := LatestPoolParametersVersion("flex")
		require.NoError(t, err)
		assert.Equal(t, 2, version)

		all, err := LoadAllActivePoolParameters()
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "1000000", all[0].MinDeposit)

		_, err = LoadActivePoolParameters("missing")
		assert.Error(t, err)
	})

	t.Run("events round trip", func(t *testing.T) {
		lender := common.HexToAddress("0x00000000000000000000000000000000000a11ce")
		store := EventStore{}
		store.Emit(events.Deposited("flex", 100, lender, 0, sdkmath.NewInt(5), 0, 0, 0))
		store.Emit(events.BonusClaimed("flex", 200, lender, sdkmath.NewInt(7)))
		store.Emit(events.BonusClaimed("other", 300, lender, sdkmath.NewInt(7)))

		recent, err := GetRecentEvents("flex", 10)
		require.NoError(t, err)
		require.Len(t, recent, 2)
		assert.Equal(t, events.KindBonusClaimed, recent[0].Kind)
		assert.Equal(t, "7", recent[0].Attributes["amount"])

		counts, err := GetEventCounts("flex")
		require.NoError(t, err)
		assert.Equal(t, []EventCount{{Kind: events.KindBonusClaimed, Count: 1}, {Kind: events.KindDeposited, Count: 1}}, counts)
	})

	t.Run("snapshots and cycles", func(t *testing.T) {
		cycle, err := IncrementCycleNumber()
		require.NoError(t, err)
		assert.Equal(t, 1, cycle)

		big, ok := sdkmath.NewIntFromString("24657534246575342465")
		require.True(t, ok)
		snap := types.PoolSnapshot{
			CycleNumber:     cycle,
			CycleID:         uuid.NewString(),
			PoolName:        "flex",
			Timestamp:       time.Now().UTC(),
			PoolSize:        big,
			TotalPenaltyFee: sdkmath.ZeroInt(),
			StrategyBalance: big,
			Owners:          []string{"0xa", "0xb"},
			Info:            types.PoolInfo{Name: "flex", Kind: types.PoolKindFlexible, PoolSize: big},
		}
		_, err = SavePoolSnapshot(snap)
		require.NoError(t, err)

		got, err := GetRecentSnapshots("flex", 5)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.True(t, big.Equal(got[0].PoolSize))
		assert.Equal(t, []string{"0xa", "0xb"}, got[0].Owners)
		assert.Equal(t, "flex", got[0].Info.Name)

		require.NoError(t, ResetCycleNumber(0))
		current, err := GetCurrentCycleNumber()
		require.NoError(t, err)
		assert.Equal(t, 0, current)
	})
}
