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

	"github.com/inkwell-labs/inkwell/internal/cache"
	"github.com/inkwell-labs/inkwell/internal/config"
	dbRedis "github.com/inkwell-labs/inkwell/internal/db/redis"
	logpkg "github.com/inkwell-labs/inkwell/internal/logger"
	"github.com/inkwell-labs/inkwell/internal/metrics"
	"github.com/inkwell-labs/inkwell/internal/repository/embgateway"
	structuredrepo "github.com/inkwell-labs/inkwell/internal/repository/structured"
	vectorrepo "github.com/inkwell-labs/inkwell/internal/repository/vector"
	chiTransport "github.com/inkwell-labs/inkwell/internal/transport/chi"
	openaiTransport "github.com/inkwell-labs/inkwell/internal/transport/openai"
	"github.com/inkwell-labs/inkwell/internal/usecase/orchestrator"
	"github.com/inkwell-labs/inkwell/internal/usecase/pipeline"
	"github.com/inkwell-labs/inkwell/internal/usecase/planner"
	"github.com/inkwell-labs/inkwell/internal/usecase/subquestion"
	"github.com/inkwell-labs/inkwell/internal/version"
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

	logger.Info("Starting inkwell API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterRetrievalMetrics()

	// Embedding provider behind the caching/coalescing gateway
	baseEmbedder := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		MaxChars:   cfg.Embedding.MaxChars,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})
	embedder, err := embgateway.New(baseEmbedder, cfg.Embedding.CacheSize, metrics.EmbeddingCacheTotal, logger)
	if err != nil {
		logger.Fatal("Failed to create embedding gateway", zap.Error(err))
	}
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	completer := openaiTransport.NewCompleter(&openaiTransport.CompleterConfig{
		APIKey:          cfg.Completion.APIKey,
		BaseURL:         cfg.Completion.BaseURL,
		Model:           cfg.Completion.Model,
		MaxHistoryTurns: cfg.Completion.MaxHistoryTurns,
		MessageCapChars: cfg.Completion.MessageCapChars,
		Logger:          logger,
	})

	// Repositories (domain-native, no adapters)
	vectorRepo := vectorrepo.New(store, cfg.Retrieval.IndexName, logger)
	structuredRepo := structuredrepo.New(store, cfg.Retrieval.IndexName, logger)

	// Use case services
	plannerSvc := planner.New()
	searchSvc := orchestrator.New(vectorRepo, structuredRepo, orchestrator.Config{
		SimilarityThreshold: cfg.Retrieval.SimilarityThreshold,
		AnalyticalThreshold: cfg.Retrieval.AnalyticalThreshold,
		Limit:               cfg.Retrieval.DefaultLimit,
	}, logger)

	subProcessor, err := subquestion.New(
		embedder, searchSvc, structuredRepo,
		cfg.Retrieval.SubQuestionBatchSize, logger,
	)
	if err != nil {
		logger.Fatal("Failed to create sub-question processor", zap.Error(err))
	}
	defer subProcessor.Close()

	decomposer := pipeline.NewLLMDecomposer(completer, logger)

	ttlPolicy := cache.TTLPolicy{
		Base: time.Duration(cfg.Cache.BaseTTLSec) * time.Second,
		Max:  time.Duration(cfg.Cache.MaxTTLSec) * time.Second,
	}
	respCache := cache.NewResponseCache[pipeline.Response](
		cfg.Cache.Capacity, ttlPolicy, metrics.ResponseCacheTotal,
	).WithEvictionHook(metrics.ResponseCacheEvictionsTotal.Inc)

	askSvc := pipeline.New(
		plannerSvc, embedder, searchSvc, subProcessor, decomposer, completer,
		respCache, pipeline.Config{
			ResultLimit:    cfg.Retrieval.DefaultLimit,
			RequestTimeout: time.Duration(cfg.Retrieval.RequestTimeoutSec) * time.Second,
		}, logger,
	)

	// Create chi server
	server := chiTransport.NewServer(askSvc, store, baseEmbedder, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
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

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
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

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
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
