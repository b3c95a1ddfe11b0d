package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/elys-network/lender/internal/lender"
	"github.com/elys-network/lender/internal/logger"
	"github.com/elys-network/lender/internal/metrics"
	"github.com/elys-network/lender/internal/pool"
	"github.com/elys-network/lender/internal/state"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
)

var webLogger = logger.GetForComponent("web_server")

// ServerConfig holds what the read-only API serves from.
type ServerConfig struct {
	Port     string
	Registry *lender.Registry
	Metrics  *metrics.Metrics // optional, enables /metrics
	Persist  bool             // history endpoints read from the database
}

// WebServer handles HTTP requests for pool, account and history data
type WebServer struct {
	router   *mux.Router
	port     string
	registry *lender.Registry
	metrics  *metrics.Metrics
	persist  bool
	started  time.Time
}

// NewWebServer creates a new web server instance
func NewWebServer(cfg ServerConfig) *WebServer {
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	server := &WebServer{
		router:   mux.NewRouter(),
		port:     port,
		registry: cfg.Registry,
		metrics:  cfg.Metrics,
		persist:  cfg.Persist,
		started:  time.Now(),
	}

	server.setupRoutes()
	return server
}

// Handler exposes the router, mostly for tests.
func (ws *WebServer) Handler() http.Handler { return ws.router }

// setupRoutes configures all HTTP routes
func (ws *WebServer) setupRoutes() {
	ws.router.HandleFunc("/health", ws.handleHealth).Methods("GET")
	if ws.metrics != nil {
		ws.router.Handle("/metrics", ws.metrics.Handler()).Methods("GET")
	}

	api := ws.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", ws.handleHealth).Methods("GET")
	api.HandleFunc("/pools", ws.handleGetPools).Methods("GET")
	api.HandleFunc("/pools/{name}", ws.handleGetPool).Methods("GET")
	api.HandleFunc("/pools/{name}/quote", ws.handleGetQuote).Methods("GET")
	api.HandleFunc("/pools/{name}/accounts/{owner}", ws.handleGetAccount).Methods("GET")
	api.HandleFunc("/pools/{name}/events", ws.handleGetEvents).Methods("GET")
	api.HandleFunc("/pools/{name}/events/counts", ws.handleGetEventCounts).Methods("GET")
	api.HandleFunc("/pools/{name}/snapshots", ws.handleGetSnapshots).Methods("GET")

	ws.router.Use(ws.corsMiddleware)
	ws.router.Use(ws.loggingMiddleware)
}

// Start starts the web server
func (ws *WebServer) Start() error {
	webLogger.Info().Str("port", ws.port).Msg("Starting web server")

	server := &http.Server{
		Addr:         ":" + ws.port,
		Handler:      ws.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

// handleHealth reports process stats and, when persistence is on, database reachability
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	dbStatus := "disabled"
	healthy := true
	if ws.persist {
		dbStatus = "ok"
		if err := state.TestDBConnection(); err != nil {
			dbStatus = err.Error()
			healthy = false
		}
	}

	overallStatus := "OK"
	statusCode := http.StatusOK
	if !healthy {
		overallStatus = "DEGRADED"
		statusCode = http.StatusServiceUnavailable
	}

	response := map[string]interface{}{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"system": map[string]interface{}{
			"version":          runtime.Version(),
			"goroutines_count": runtime.NumGoroutine(),
			"alloc_bytes":      memStats.Alloc,
			"sys_bytes":        memStats.Sys,
			"gc_cycles":        memStats.NumGC,
			"uptime_seconds":   int64(time.Since(ws.started).Seconds()),
		},
		"lender_status": map[string]interface{}{
			"pools":    len(ws.registry.Pools()),
			"database": dbStatus,
			"now":      ws.registry.Clock().Now(),
		},
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// handleGetPools lists every registered pool
func (ws *WebServer) handleGetPools(w http.ResponseWriter, r *http.Request) {
	pools := ws.registry.Pools()
	infos := make([]interface{}, 0, len(pools))
	for _, p := range pools {
		infos = append(infos, p.Info())
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"pools": infos,
		"count": len(infos),
	})
}

// handleGetPool returns one pool with its strategy balance and, for flexible pools,
// the base rate history
func (ws *WebServer) handleGetPool(w http.ResponseWriter, r *http.Request) {
	p, ok := ws.lookupPool(w, r)
	if !ok {
		return
	}

	response := map[string]interface{}{
		"info":     p.Info(),
		"strategy": p.Strategy().Name(),
	}
	if balance, err := p.StrategyBalance(); err == nil {
		response["strategy_balance"] = balance
	} else {
		webLogger.Warn().Err(err).Str("pool", p.Name()).Msg("Failed to read strategy balance")
	}
	if params, err := ws.registry.Parameters(p.Name()); err == nil {
		response["parameters"] = params
	}
	if flex, isFlex := p.(*pool.FlexPool); isFlex {
		minDays, maxDays := flex.DurationLimits()
		response["checkpoints"] = flex.Checkpoints()
		response["min_lock_days"] = minDays
		response["max_lock_days"] = maxDays
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetQuote previews the rates of a locked deposit: /quote?days=180
func (ws *WebServer) handleGetQuote(w http.ResponseWriter, r *http.Request) {
	p, ok := ws.lookupPool(w, r)
	if !ok {
		return
	}
	flex, isFlex := p.(*pool.FlexPool)
	if !isFlex {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Quotes are only available for flexible pools")
		return
	}
	days, err := strconv.ParseUint(r.URL.Query().Get("days"), 10, 64)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid lock duration")
		return
	}

	rates, err := flex.Quote(days)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"pool":       p.Name(),
		"days":       days,
		"apr":        rates.Apr,
		"bonus_rate": rates.BonusRate,
	})
}

// handleGetAccount returns an owner's deposits and pending rewards
func (ws *WebServer) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	p, ok := ws.lookupPool(w, r)
	if !ok {
		return
	}
	owner := mux.Vars(r)["owner"]
	if !common.IsHexAddress(owner) {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid owner address")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, p.Account(common.HexToAddress(owner)))
}

// handleGetEvents returns the most recent committed events of a pool
func (ws *WebServer) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	p, ok := ws.lookupHistory(w, r)
	if !ok {
		return
	}
	limit := parseLimit(r)

	evs, err := state.GetRecentEvents(p.Name(), limit)
	if err != nil {
		webLogger.Error().Err(err).Str("pool", p.Name()).Msg("Failed to get recent events")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve events")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"events": evs,
		"count":  len(evs),
		"limit":  limit,
	})
}

// handleGetEventCounts returns per-kind event totals of a pool
func (ws *WebServer) handleGetEventCounts(w http.ResponseWriter, r *http.Request) {
	p, ok := ws.lookupHistory(w, r)
	if !ok {
		return
	}

	counts, err := state.GetEventCounts(p.Name())
	if err != nil {
		webLogger.Error().Err(err).Str("pool", p.Name()).Msg("Failed to get event counts")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve event counts")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, counts)
}

// handleGetSnapshots returns the monitor's most recent snapshots of a pool
func (ws *WebServer) handleGetSnapshots(w http.ResponseWriter, r *http.Request) {
	p, ok := ws.lookupHistory(w, r)
	if !ok {
		return
	}
	limit := parseLimit(r)

	snaps, err := state.GetRecentSnapshots(p.Name(), limit)
	if err != nil {
		webLogger.Error().Err(err).Str("pool", p.Name()).Msg("Failed to get recent snapshots")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve snapshots")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"snapshots": snaps,
		"count":     len(snaps),
		"limit":     limit,
	})
}

func (ws *WebServer) lookupPool(w http.ResponseWriter, r *http.Request) (pool.Pool, bool) {
	name := mux.Vars(r)["name"]
	p, err := ws.registry.Pool(name)
	if err != nil {
		if errors.Is(err, lender.ErrUnknownPool) {
			ws.writeErrorResponse(w, http.StatusNotFound, "Pool not found")
		} else {
			ws.writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		}
		return nil, false
	}
	return p, true
}

func (ws *WebServer) lookupHistory(w http.ResponseWriter, r *http.Request) (pool.Pool, bool) {
	p, ok := ws.lookupPool(w, r)
	if !ok {
		return nil, false
	}
	if !ws.persist {
		ws.writeErrorResponse(w, http.StatusServiceUnavailable, "History requires a database")
		return nil, false
	}
	return p, true
}

func parseLimit(r *http.Request) int {
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 && parsedLimit <= 100 {
			limit = parsedLimit
		}
	}
	return limit
}

// writeJSONResponse writes a JSON response
func (ws *WebServer) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		webLogger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeErrorResponse writes an error response
func (ws *WebServer) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	response := map[string]interface{}{
		"error":     true,
		"message":   message,
		"timestamp": time.Now().UTC(),
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// corsMiddleware adds CORS headers
func (ws *WebServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (ws *WebServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		webLogger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Int("status", wrapper.statusCode).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

// responseWriterWrapper wraps http.ResponseWriter to capture status code
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
