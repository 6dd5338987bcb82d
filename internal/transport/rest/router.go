package rest

import (
	"net/http"

	"voicepanels/internal/logger"
	"voicepanels/internal/metrics"
	"voicepanels/internal/service"
	"voicepanels/internal/transport/rest/handler"
	"voicepanels/internal/transport/rest/middleware"
	"voicepanels/internal/transport/ws"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService    *service.AuthService
	InsightService *service.InsightService
	IngestService  *service.IngestService
	PanelService   *service.PanelService
	AgentTools     *service.AgentTools
	Metrics        *metrics.Metrics
	Logger         *logger.Logger
	WSHub          *ws.Hub
	AllowedOrigins []string
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	panelHandler := handler.NewPanelHandler(c.InsightService, c.PanelService, c.Logger)
	insightHandler := handler.NewInsightHandler(c.InsightService, c.Logger)
	evaluationHandler := handler.NewEvaluationHandler(c.IngestService, c.Logger)
	agentHandler := handler.NewAgentHandler(c.AgentTools, c.Logger)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.InsightService, c.AllowedOrigins, c.Logger.Component("ws"))

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	r.Use(c.Metrics.Middleware)

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")
	if c.Metrics != nil {
		r.Handle("/metrics", c.Metrics.Handler()).Methods("GET")
	}

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	v1.HandleFunc("/panels", panelHandler.List).Methods("GET", "OPTIONS")
	v1.HandleFunc("/insights/summary", insightHandler.OverallSummary).Methods("GET", "OPTIONS")
	v1.HandleFunc("/insights/panels/{panelId}/summary", insightHandler.PanelSummary).Methods("GET", "OPTIONS")
	v1.HandleFunc("/insights/panels/{panelId}/export.xlsx", insightHandler.ExportPanel).Methods("GET", "OPTIONS")
	v1.HandleFunc("/insights/compare", insightHandler.Compare).Methods("POST", "OPTIONS")
	v1.HandleFunc("/insights/quotes", insightHandler.Quotes).Methods("GET", "OPTIONS")
	v1.HandleFunc("/insights/search", insightHandler.Search).Methods("GET", "OPTIONS")
	v1.HandleFunc("/agent/tools", agentHandler.Definitions).Methods("GET", "OPTIONS")
	v1.HandleFunc("/agent/tools", agentHandler.Run).Methods("POST", "OPTIONS")

	// WebSocket routes (token in query param)
	v1.HandleFunc("/ws/panels/{panelId}", wsHandler.PanelWS).Methods("GET")

	// Host routes (require host auth)
	hostRoutes := v1.NewRoute().Subrouter()
	hostRoutes.Use(authMW.RequireHost)

	hostRoutes.HandleFunc("/panels", panelHandler.Create).Methods("POST", "OPTIONS")
	hostRoutes.HandleFunc("/evaluations", evaluationHandler.Create).Methods("POST", "OPTIONS")

	var h http.Handler = r
	h = handlers.CORS(
		handlers.AllowedOrigins(originsOrAny(c.AllowedOrigins)),
		handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Request-ID"}),
	)(h)
	h = handlers.CombinedLoggingHandler(c.Logger.Writer(), h)
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(c.Logger), handlers.PrintRecoveryStack(true))(h)
	return h
}

func originsOrAny(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
