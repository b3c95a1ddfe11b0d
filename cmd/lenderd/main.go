package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/elys-network/lender/internal/clock"
	"github.com/elys-network/lender/internal/config"
	"github.com/elys-network/lender/internal/events"
	"github.com/elys-network/lender/internal/lender"
	"github.com/elys-network/lender/internal/logger"
	"github.com/elys-network/lender/internal/metrics"
	"github.com/elys-network/lender/internal/state"
	"github.com/elys-network/lender/internal/types"
	"github.com/elys-network/lender/internal/utils"
	"github.com/elys-network/lender/internal/web"
	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:          "lenderd",
		Short:        "Fixed and flexible term lending pools with stable interest and bonus rewards",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newSimulateCmd())

	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Build the configured pools, serve the HTTP API and run the monitor loop",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	// --- 1. Initialization Phase ---
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}
	if err := config.LoadConfig(); err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	logger.Initialize(config.LogLevel)
	log.Info().Str("mode", config.Mode).Msg("Lender starting...")

	persist := config.PersistenceEnabled()
	if persist {
		dbCfg := state.DBConfig{
			Host: config.DBHost, Port: config.DBPort,
			User: config.DBUser, Password: config.DBPassword,
			DBName: config.DBName, SSLMode: config.DBSSLMode,
		}
		if err := state.InitDB(dbCfg); err != nil {
			return fmt.Errorf("initialize database: %w", err)
		}
		defer state.CloseDB()
		if err := state.EnsureSchema(); err != nil {
			return fmt.Errorf("ensure database schema: %w", err)
		}
	} else {
		log.Warn().Msg("DB_HOST not set, running without persistence")
	}

	params, err := loadPoolParameters(persist)
	if err != nil {
		return err
	}

	// --- 2. Pools ---
	m := metrics.NewMetrics("lender")
	emitter := events.Multi{events.LogEmitter{Logger: logger.GetForComponent("pool_events")}, m}
	if persist {
		emitter = append(emitter, state.EventStore{Timeout: 5 * time.Second})
	}

	registry := lender.NewRegistry(config.AdminAddress, clock.System{}, emitter)
	if err := registry.BuildAll(params); err != nil {
		return fmt.Errorf("build pools: %w", err)
	}
	log.Info().Int("pools", len(params)).Msg("Pools built successfully.")

	// --- 3. Web Server ---
	webServer := web.NewWebServer(web.ServerConfig{Port: config.WebPort, Registry: registry, Metrics: m, Persist: persist})
	go func() {
		log.Info().Str("port", config.WebPort).Str("url", "http://localhost:"+config.WebPort).Msg("Starting lender API")
		if err := webServer.Start(); err != nil {
			log.Error().Err(err).Msg("Web server failed to start")
		}
	}()

	// --- 4. Monitor Loop ---
	monitor, err := lender.NewMonitor(lender.MonitorConfig{Registry: registry, Metrics: m, Persist: persist})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	monitor.RunLoop(ctx, config.MonitorInterval)
	log.Info().Msg("Lender stopped")
	return nil
}

// loadPoolParameters prefers a definitions file, then the database, then the built-in
// defaults. Definitions that did not come from the database are saved as a new version.
func loadPoolParameters(persist bool) ([]types.PoolParameters, error) {
	var (
		params []types.PoolParameters
		err    error
	)
	switch {
	case config.PoolsFile != "":
		params, err = config.LoadPools(config.PoolsFile, config.AdminAddress)
		if err != nil {
			return nil, fmt.Errorf("load pool definitions: %w", err)
		}
	case persist:
		params, err = state.LoadAllActivePoolParameters()
		if err != nil {
			return nil, fmt.Errorf("load pool parameters: %w", err)
		}
		if len(params) > 0 {
			log.Info().Int("pools", len(params)).Msg("Pool parameters loaded from database.")
			return params, nil
		}
		fallthrough
	default:
		log.Warn().Msg("No pool definitions found, using defaults.")
		params = config.DefaultPools(config.AdminAddress)
	}

	if persist {
		for _, p := range params {
			latest, err := state.LatestPoolParametersVersion(p.Name)
			if err != nil {
				return nil, fmt.Errorf("read parameters version of %s: %w", p.Name, err)
			}
			if _, err := state.SavePoolParameters(p, latest+1, true); err != nil {
				return nil, fmt.Errorf("save parameters of %s: %w", p.Name, err)
			}
		}
	}
	return params, nil
}

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run deposits, claims and withdrawals against in-memory pools and print what each pool paid",
		RunE:  runSimulate,
	}
	cmd.Flags().String("pools", "", "pool definitions file (defaults to the built-in pools)")
	cmd.Flags().String("admin", "", "admin address (defaults to a derived address)")
	cmd.Flags().Int("lenders", 10, "number of simulated lenders")
	cmd.Flags().String("deposit", "1000000000", "deposit per lender and position in stable base units")
	cmd.Flags().Int("days", 120, "simulated days")
	cmd.Flags().String("log-level", "warn", "log level")
	return cmd
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	level, _ := flags.GetString("log-level")
	logger.Initialize(level)

	adminHex, _ := flags.GetString("admin")
	admin := utils.DeriveAddress("lender", "simulation-admin")
	if adminHex != "" {
		if !common.IsHexAddress(adminHex) {
			return fmt.Errorf("admin %q is not an address", adminHex)
		}
		admin = common.HexToAddress(adminHex)
	}

	params := config.DefaultPools(admin)
	if path, _ := flags.GetString("pools"); path != "" {
		var err error
		if params, err = config.LoadPools(path, admin); err != nil {
			return err
		}
	}

	depositStr, _ := flags.GetString("deposit")
	deposit, ok := sdkmath.NewIntFromString(depositStr)
	if !ok {
		return fmt.Errorf("deposit %q is not an integer", depositStr)
	}
	lenders, _ := flags.GetInt("lenders")
	days, _ := flags.GetInt("days")

	clk := clock.NewManual(time.Now().Unix())
	registry := lender.NewRegistry(admin, clk, events.Nop{})
	if err := registry.BuildAll(params); err != nil {
		return err
	}

	reports, err := lender.Simulate(registry, clk, lender.SimConfig{Lenders: lenders, Deposit: deposit, Days: days})
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}
