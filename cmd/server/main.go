package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voicepanels/internal/cache"
	"voicepanels/internal/config"
	"voicepanels/internal/logger"
	"voicepanels/internal/metrics"
	"voicepanels/internal/repository"
	"voicepanels/internal/service"
	"voicepanels/internal/transport/rest"
	"voicepanels/internal/transport/ws"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// @title Voice Panels Insights API
// @version 1.0
// @description Aggregated insights over AI voice interview panels
// @host localhost:8080
// @BasePath /v1
func main() {
	_ = godotenv.Load()

	log := logger.New()
	ctx := context.Background()

	cfg := config.Load()
	aiConfig := config.DefaultAIConfig()
	if aiConfig.IsEnabled() {
		log.WithField("model", aiConfig.Model).Info("transcript evaluator configured")
	} else {
		log.Warn("OPENAI_API_KEY not set, transcripts use the heuristic evaluator")
	}

	stores, err := repository.Open(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to open evaluation store")
	}
	defer stores.Close(context.Background())
	log.WithField("driver", stores.Driver).Info("connected to evaluation store")

	// Redis is optional; without it every summary is computed on demand
	var summaries cache.SummaryCache
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.WithError(err).WithField("addr", cfg.RedisAddr).Warn("redis unavailable, summary cache disabled")
	} else {
		summaries = cache.NewSummaryCache(rdb, cfg.SummaryCacheTTL)
		log.WithField("ttl", cfg.SummaryCacheTTL).Info("connected to redis")
	}
	cancel()

	m := metrics.New()

	wsHub := ws.NewHub(log.Component("ws"))

	// Initialize services
	authSvc := service.NewAuthService(cfg)
	evaluator := service.NewEvaluatorService(aiConfig, log.Component("evaluator"))
	insightSvc := service.NewInsightService(stores.Evaluations, stores.Panels, summaries, m, log.Component("insights"), cfg.CompareConcurrency)
	ingestSvc := service.NewIngestService(stores.Evaluations, stores.Panels, evaluator, summaries, insightSvc, m, log.Component("ingest"))
	panelSvc := service.NewPanelService(stores.Panels)
	agentTools := service.NewAgentTools(insightSvc, log.Component("agent"))

	// Inject broadcaster (wsHub implements service.Broadcaster)
	ingestSvc.SetBroadcaster(wsHub)

	router := rest.NewRouter(&rest.Container{
		AuthService:    authSvc,
		InsightService: insightSvc,
		IngestService:  ingestSvc,
		PanelService:   panelSvc,
		AgentTools:     agentTools,
		Metrics:        m,
		Logger:         log,
		WSHub:          wsHub,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{"port": cfg.HTTPPort, "host_user": cfg.HostUsername}).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("ListenAndServe failed")
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	wsHub.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}

	log.Info("server exited")
}
