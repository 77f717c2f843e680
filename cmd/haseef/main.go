package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/laya1n/Haseef-sub000/internal/config"
	"github.com/laya1n/Haseef-sub000/internal/db"
	dbRedis "github.com/laya1n/Haseef-sub000/internal/db/redis"
	"github.com/laya1n/Haseef-sub000/internal/domain"
	"github.com/laya1n/Haseef-sub000/internal/domain/record"
	"github.com/laya1n/Haseef-sub000/internal/domain/search/suggest"
	logpkg "github.com/laya1n/Haseef-sub000/internal/logger"
	"github.com/laya1n/Haseef-sub000/internal/metrics"
	"github.com/laya1n/Haseef-sub000/internal/repository/answercache"
	"github.com/laya1n/Haseef-sub000/internal/repository/archive"
	batchrepo "github.com/laya1n/Haseef-sub000/internal/repository/batch"
	budgetrepo "github.com/laya1n/Haseef-sub000/internal/repository/budget"
	chiTransport "github.com/laya1n/Haseef-sub000/internal/transport/chi"
	openaiChat "github.com/laya1n/Haseef-sub000/internal/transport/openai"
	assistantuc "github.com/laya1n/Haseef-sub000/internal/usecase/assistant"
	healthuc "github.com/laya1n/Haseef-sub000/internal/usecase/health"
	recordsuc "github.com/laya1n/Haseef-sub000/internal/usecase/records"
	"github.com/laya1n/Haseef-sub000/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting haseef API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	// rueidis speaks to both Redis and Valkey
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:      cfg.Database.Addrs,
		Password:   cfg.Database.Password,
		ClientName: "haseef",
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterPipelineMetrics()
	metrics.RegisterAssistantMetrics()

	prefix := cfg.Storage.KeyPrefix
	uploads := buildArchive(ctx, cfg.Archive, logger)

	// Records
	recordsOpts := recordsuc.Options{
		Suggest: suggest.Config{
			Limit:               cfg.Pipeline.SuggestLimit,
			PrefixQuota:         cfg.Pipeline.SuggestPrefixQuota,
			SubstringQuota:      cfg.Pipeline.SuggestSubstringQuota,
			MinCorrectionLength: cfg.Pipeline.CorrectionMinLength,
		},
		DefaultPageSize: cfg.Pipeline.DefaultPageSize,
		MaxPageSize:     cfg.Pipeline.MaxPageSize,
	}
	// Pass nil interface (not typed nil pointer) when the archive is disabled.
	var recordsArchive recordsuc.UploadArchive
	if uploads != nil {
		recordsArchive = uploads
	}
	recordsSvc := recordsuc.New(batchrepo.New(store, prefix), recordsArchive, recordsOpts, logger)

	seeds := make(map[record.Kind]string, len(cfg.Records.SeedFiles))
	for kind, path := range cfg.Records.SeedFiles {
		seeds[record.Kind(kind)] = path
	}
	if err := recordsSvc.Seed(ctx, seeds); err != nil {
		logger.Fatal("Failed to seed record batches", zap.Error(err))
	}

	// Assistant
	assistant, budget := buildAssistant(ctx, cfg.Assistant, store, prefix, logger)
	assistantSvc := assistantuc.New(assistant, recordsSvc, budget, cfg.Assistant.MaxContextRecords, logger)
	if assistantSvc.Enabled() {
		logger.Info("Assistant enabled", zap.String("model", cfg.Assistant.Model))
	}

	// Health: the assistant is checked only when configured
	components := map[string]healthuc.Checker{"records": recordsSvc}
	if assistantSvc.Enabled() {
		components["assistant"] = assistantSvc
	}
	healthSvc := healthuc.New(store, components)

	server := chiTransport.NewServer(recordsSvc, assistantSvc, healthSvc, chiTransport.Options{
		MaxUploadBytes: cfg.Records.MaxUploadBytes,
		RecentDays:     cfg.Pipeline.RecentDays,
	}, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.AuthMiddleware(cfg.Auth.APIKeys, cfg.Auth.CookieName))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildArchive returns the raw upload archive, or nil when disabled.
func buildArchive(ctx context.Context, cfg config.ArchiveConfig, logger *zap.Logger) *archive.Repo {
	switch cfg.Driver {
	case "s3":
		objects, err := archive.NewS3Store(ctx, archive.S3Config{
			Bucket:          cfg.Bucket,
			Region:          cfg.Region,
			Endpoint:        cfg.Endpoint,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			ForcePathStyle:  cfg.ForcePathStyle,
		})
		if err != nil {
			logger.Fatal("Failed to create upload archive", zap.Error(err))
		}
		logger.Info("Upload archive: s3", zap.String("bucket", cfg.Bucket))
		return archive.New(objects, cfg.Prefix)
	case "memory":
		logger.Info("Upload archive: memory")
		return archive.New(archive.NewMemoryStore(), cfg.Prefix)
	default:
		return nil
	}
}

// buildAssistant assembles the decorator chain: OpenAI -> Cached -> Instruction.
// Both results are nil interfaces when the feature is off.
func buildAssistant(
	ctx context.Context,
	cfg config.AssistantConfig,
	store db.Store,
	prefix string,
	logger *zap.Logger,
) (domain.Assistant, assistantuc.Budget) {
	if cfg.APIKey == "" {
		logger.Info("Assistant disabled: no api key")
		return nil, nil
	}

	// Base provider (with transport metrics built-in)
	var assistant domain.Assistant = openaiChat.NewChat(&openaiChat.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Timeout: time.Duration(cfg.TimeoutSec) * time.Second,
		Logger:  logger,
	})

	if cfg.CacheTTLSec > 0 {
		assistant = answercache.New(
			assistant, store, prefix, cfg.Model,
			time.Duration(cfg.CacheTTLSec)*time.Second,
			metrics.AssistantCacheTotal, logger,
		)
	}

	// Instruction prefix (outermost, so the cache key includes it)
	if cfg.Instruction != "" {
		assistant = domain.NewInstructionAssistant(assistant, cfg.Instruction)
	}

	// Go gotcha: (*BudgetTracker)(nil) wrapped in Budget != nil.
	var budget assistantuc.Budget
	if cfg.Budget.DailyTokenLimit > 0 || cfg.Budget.MonthlyTokenLimit > 0 {
		tracker := assistantuc.NewBudgetTracker(
			cfg.Budget.DailyTokenLimit, cfg.Budget.MonthlyTokenLimit,
			assistantuc.BudgetAction(cfg.Budget.Action), logger,
		)
		tracker.WithStore(ctx, budgetrepo.New(store, prefix, 48*time.Hour, 62*24*time.Hour))
		budget = tracker
	}

	return assistant, budget
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.ErrorCodeInternalError,
						Message: "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// One line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("query", r.URL.RawQuery),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
