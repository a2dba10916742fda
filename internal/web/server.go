package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/emity-labs/emity/internal/logger"
	"github.com/emity-labs/emity/internal/risk"
	"github.com/emity-labs/emity/internal/state"
	"github.com/emity-labs/emity/internal/types"
	"github.com/gorilla/mux"
)

var webLogger = logger.GetForComponent("web_server")

// WebServer handles HTTP requests for pool intelligence data
type WebServer struct {
	router *mux.Router
	addr   string
}

// NewWebServer creates a new web server instance
func NewWebServer(addr string) *WebServer {
	if addr == "" {
		addr = ":8000"
	}

	server := &WebServer{
		router: mux.NewRouter(),
		addr:   addr,
	}

	server.setupRoutes()
	return server
}

// Router exposes the configured router, mainly for tests.
func (ws *WebServer) Router() http.Handler {
	return ws.router
}

// setupRoutes configures all HTTP routes
func (ws *WebServer) setupRoutes() {
	ws.router.HandleFunc("/health", ws.handleHealth).Methods("GET")

	api := ws.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/pools", ws.handleGetPools).Methods("GET")
	api.HandleFunc("/pools/{address}", ws.handleGetPool).Methods("GET")
	api.HandleFunc("/recommendations", ws.handleGetRecommendations).Methods("GET")
	api.HandleFunc("/allocation", ws.handleGetAllocation).Methods("GET")
	api.HandleFunc("/market", ws.handleGetMarket).Methods("GET")
	api.HandleFunc("/position-size", ws.handlePositionSize).Methods("POST")
	api.HandleFunc("/sync-values", ws.handleSyncValues).Methods("POST")
	api.HandleFunc("/positions", ws.handleGetPositions).Methods("GET")
	api.HandleFunc("/positions", ws.handleCreatePosition).Methods("POST")
	api.HandleFunc("/positions/{id}/update", ws.handleUpdatePosition).Methods("POST")
	api.HandleFunc("/positions/{id}/close", ws.handleClosePosition).Methods("POST")
	api.HandleFunc("/config", ws.handleGetConfig).Methods("GET")
	api.HandleFunc("/config", ws.handleUpdateConfig).Methods("POST")
	api.HandleFunc("/alerts", ws.handleGetAlerts).Methods("GET")
	api.HandleFunc("/stats", ws.handleGetStats).Methods("GET")

	ws.router.Use(ws.corsMiddleware)
	ws.router.Use(ws.loggingMiddleware)
}

// Start starts the web server
func (ws *WebServer) Start() error {
	webLogger.Info().Str("addr", ws.addr).Msg("Starting web server")

	server := &http.Server{
		Addr:         ws.addr,
		Handler:      ws.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

// handleHealth returns service health including database reachability.
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbStatus := "ready"
	status := "online"
	if err := state.TestDBConnection(); err != nil {
		dbStatus = "unavailable"
		status = "degraded"
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"status":    status,
		"version":   "1.0.0",
		"system":    "EMITY",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"modules": map[string]string{
			"api":      "ready",
			"database": dbStatus,
		},
	})
}

// handleGetPools returns all analyzed pools, best score first.
func (ws *WebServer) handleGetPools(w http.ResponseWriter, r *http.Request) {
	pools, err := state.GetPoolSnapshots(0, 100)
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to load pools")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to load pools")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"count":     len(pools),
		"pools":     pools,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleGetPool returns one pool with its ranges and simulations.
func (ws *WebServer) handleGetPool(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]

	pool, err := state.GetPoolSnapshot(address)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusNotFound, "Pool not found")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"pool":    pool,
	})
}

// handleGetRecommendations returns the pools clearing the configured minimum
// score together with a portfolio allocation plan.
func (ws *WebServer) handleGetRecommendations(w http.ResponseWriter, r *http.Request) {
	cfg, err := state.GetRiskConfig()
	if err != nil {
		webLogger.Warn().Err(err).Msg("Falling back to default risk config")
	}
	engine := risk.NewEngine(cfg)

	pools, err := state.GetPoolSnapshots(0, 100)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to load pools")
		return
	}

	allocation := engine.CalculatePortfolioAllocation(pools)

	recommended := make([]types.PoolSnapshot, 0)
	for _, pool := range pools {
		if pool.Score >= engine.Config().MinScore {
			recommended = append(recommended, pool)
		}
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"recommendations": recommended,
		"allocation":      allocation,
	})
}

// handleGetAllocation returns the portfolio allocation plan over the current
// pool set.
func (ws *WebServer) handleGetAllocation(w http.ResponseWriter, r *http.Request) {
	cfg, err := state.GetRiskConfig()
	if err != nil {
		webLogger.Warn().Err(err).Msg("Falling back to default risk config")
	}
	engine := risk.NewEngine(cfg)

	pools, err := state.GetPoolSnapshots(0, 100)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to load pools")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"allocation": engine.CalculatePortfolioAllocation(pools),
	})
}

// handleGetMarket returns the current market gate verdict.
func (ws *WebServer) handleGetMarket(w http.ResponseWriter, r *http.Request) {
	cfg, err := state.GetRiskConfig()
	if err != nil {
		webLogger.Warn().Err(err).Msg("Falling back to default risk config")
	}
	engine := risk.NewEngine(cfg)

	pools, err := state.GetPoolSnapshots(0, 100)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to load pools")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"market":  engine.CheckMarketConditions(pools),
	})
}

// handlePositionSize sizes one pool under the persisted policy.
func (ws *WebServer) handlePositionSize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PoolAddress string  `json:"pool_address"`
		OverridePct float64 `json:"override_pct"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PoolAddress == "" {
		ws.writeErrorResponse(w, http.StatusBadRequest, "pool_address is required")
		return
	}

	pool, err := state.GetPoolSnapshot(req.PoolAddress)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusNotFound, "Pool not found")
		return
	}

	cfg, err := state.GetRiskConfig()
	if err != nil {
		webLogger.Warn().Err(err).Msg("Falling back to default risk config")
	}
	engine := risk.NewEngine(cfg)

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"decision": engine.CalculatePositionSize(pool, req.OverridePct),
	})
}

// handleSyncValues converts a position size between percent and USDT.
func (ws *WebServer) handleSyncValues(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value float64 `json:"value"`
		Type  string  `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	valueType := strings.ToLower(req.Type)
	if valueType != "pct" && valueType != "usdt" {
		ws.writeErrorResponse(w, http.StatusBadRequest, "type must be \"pct\" or \"usdt\"")
		return
	}

	cfg, err := state.GetRiskConfig()
	if err != nil {
		webLogger.Warn().Err(err).Msg("Falling back to default risk config")
	}
	engine := risk.NewEngine(cfg)

	pct, usdt := engine.SyncPositionValues(req.Value, valueType)
	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"pct":     pct,
		"usdt":    usdt,
	})
}

// handleGetPositions returns all open positions.
func (ws *WebServer) handleGetPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := state.GetActivePositions()
	if err != nil {
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to load positions")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"positions": positions,
	})
}

// handleCreatePosition registers a manually opened position for tracking.
func (ws *WebServer) handleCreatePosition(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PoolAddress string  `json:"pool_address"`
		CapitalUSD  float64 `json:"capital_usd"`
		RangeLower  float64 `json:"range_lower"`
		RangeUpper  float64 `json:"range_upper"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PoolAddress == "" || req.CapitalUSD <= 0 {
		ws.writeErrorResponse(w, http.StatusBadRequest, "pool_address and a positive capital_usd are required")
		return
	}

	id, err := state.SavePosition(types.Position{
		PoolAddress: strings.ToLower(req.PoolAddress),
		CapitalUSD:  req.CapitalUSD,
		RangeLower:  req.RangeLower,
		RangeUpper:  req.RangeUpper,
		EntryDate:   time.Now().UTC(),
	})
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to save position")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to save position")
		return
	}

	ws.writeJSONResponse(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"id":      id,
	})
}

// handleUpdatePosition refreshes the mark-to-market fields of one position.
func (ws *WebServer) handleUpdatePosition(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid position id")
		return
	}

	var req struct {
		PnlUSD      float64 `json:"pnl_usd"`
		TimeInRange float64 `json:"time_in_range"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := state.UpdatePositionPnl(id, req.PnlUSD, req.TimeInRange); err != nil {
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to update position")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{"success": true})
}

// handleClosePosition marks a position closed with its final P&L.
func (ws *WebServer) handleClosePosition(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid position id")
		return
	}

	var req struct {
		PnlUSD float64 `json:"pnl_usd"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := state.ClosePosition(id, req.PnlUSD); err != nil {
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to close position")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{"success": true})
}

// handleGetConfig returns the effective policy plus its audit history.
func (ws *WebServer) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := state.GetRiskConfig()
	if err != nil {
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to load config")
		return
	}

	history, err := state.GetConfigHistory(50)
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to load config history")
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"config":  cfg,
		"history": history,
	})
}

// handleUpdateConfig applies a partial policy update, auditing every change.
func (ws *WebServer) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var updates map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	for key, raw := range updates {
		value := strings.Trim(string(raw), "\"")
		if err := state.SetConfigValue(key, value); err != nil {
			webLogger.Error().Err(err).Str("key", key).Msg("Failed to persist config key")
			ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to save configuration")
			return
		}
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Configurações atualizadas",
	})
}

// handleGetAlerts returns recent alerts, newest first.
func (ws *WebServer) handleGetAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := state.GetRecentAlerts(50)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to load alerts")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"alerts":  alerts,
	})
}

// handleGetStats returns headline system statistics.
func (ws *WebServer) handleGetStats(w http.ResponseWriter, r *http.Request) {
	pools, _ := state.GetPoolSnapshots(0, 1000)
	activePositions, _ := state.CountActivePositions()
	alertsToday, _ := state.CountAlertsToday()

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"stats": map[string]interface{}{
			"pools_tracked":    len(pools),
			"active_positions": activePositions,
			"alerts_today":     alertsToday,
		},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// writeJSONResponse writes a JSON response with the given status code
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
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
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

		webLogger.Info().
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

func (rw *responseWriterWrapper) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}
