package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "auditapi/docs"
	"auditapi/internal/audit"
	"auditapi/internal/cache"
	"auditapi/internal/config"
	"auditapi/internal/logging"
	"auditapi/internal/repository"
	"auditapi/internal/service"
	"auditapi/internal/transport/rest"
	"auditapi/internal/transport/ws"

	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// @title Audit API
// @version 1.0
// @description Generates business marketing audits from model output
// @host localhost:8080
// @BasePath /
func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger is not configured yet
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Debug)
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()

	logger.Info("AI config",
		zap.String("model", cfg.AI.Model),
		zap.Int("timeout_ms", cfg.AI.TimeoutMS),
		zap.Bool("api_key_configured", cfg.AI.IsEnabled()),
		zap.String("schema_variant", cfg.Report.SchemaVariant),
		zap.Bool("lenient_repair", cfg.Report.LenientRepair))
	if !cfg.AI.IsEnabled() {
		logger.Warn("GEMINI_API_KEY not set, audit requests will return 503")
	}

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer mongoClient.Disconnect(context.Background())

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		logger.Fatal("failed to ping MongoDB", zap.Error(err))
	}
	logger.Info("connected to MongoDB", zap.String("database", cfg.MongoDatabase))

	db := mongoClient.Database(cfg.MongoDatabase)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		logger.Fatal("failed to ping Redis", zap.Error(err))
	}
	logger.Info("connected to Redis", zap.String("addr", cfg.RedisAddr))

	secret := cfg.SessionSecret
	if secret == "" {
		secret = randomSecret()
		logger.Warn("SESSION_SECRET not set, sessions will not survive a restart")
	}

	pipelineCfg, err := cfg.Report.PipelineConfig()
	if err != nil {
		logger.Fatal("invalid report config", zap.Error(err))
	}

	// Repositories and caches
	submissionRepo := repository.NewSubmissionRepo(ctx, db, logger)
	reportCache := cache.NewReportCache(rdb, cfg.SessionTTL)

	// Services
	gemini := service.NewGeminiClient(cfg.AI, logger)
	pipeline := audit.New(pipelineCfg, logger)
	auditSvc := service.NewAuditService(gemini, pipeline, pipelineCfg.DeclarationName, submissionRepo, reportCache, logger)
	sessionSvc := service.NewSessionService(secret, cfg.SessionTTL, reportCache)

	wsHub := ws.NewHub(logger)
	auditSvc.SetBroadcaster(wsHub)

	router := rest.NewRouter(&rest.Container{
		AuditService:   auditSvc,
		SessionService: sessionSvc,
		WSHub:          wsHub,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.Strings("allowed_origins", cfg.AllowedOrigins))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("ListenAndServe", zap.Error(err))
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	auditSvc.Wait()
	wsHub.Close()

	logger.Info("server exited")
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
