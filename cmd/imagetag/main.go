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

	"github.com/bluestone/imagetag/internal/config"
	dbRedis "github.com/bluestone/imagetag/internal/db/redis"
	logpkg "github.com/bluestone/imagetag/internal/logger"
	"github.com/bluestone/imagetag/internal/metrics"
	imagerepo "github.com/bluestone/imagetag/internal/repository/image"
	labelcountrepo "github.com/bluestone/imagetag/internal/repository/labelcount"
	suggestionrepo "github.com/bluestone/imagetag/internal/repository/suggestion"
	"github.com/bluestone/imagetag/internal/scheduler"
	chiTransport "github.com/bluestone/imagetag/internal/transport/chi"
	openaiVision "github.com/bluestone/imagetag/internal/transport/openai"
	healthuc "github.com/bluestone/imagetag/internal/usecase/health"
	imageuc "github.com/bluestone/imagetag/internal/usecase/image"
	labeluc "github.com/bluestone/imagetag/internal/usecase/label"
	suggestuc "github.com/bluestone/imagetag/internal/usecase/suggest"
	"github.com/bluestone/imagetag/internal/usecase/suggestbuild"
	"github.com/bluestone/imagetag/internal/version"
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

	logger.Info("Starting imagetag API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	// Valkey and Redis speak the same protocol; one rueidis store serves both.
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

	// Register domain metrics explicitly (no init())
	metrics.RegisterVisionMetrics()
	metrics.RegisterBuildMetrics()

	// Vision labeler
	labeler := openaiVision.NewLabeler(&openaiVision.Config{
		APIKey:        cfg.Vision.APIKey,
		BaseURL:       cfg.Vision.BaseURL,
		Model:         cfg.Vision.Model,
		MaxLabels:     cfg.Vision.MaxLabels,
		MinConfidence: cfg.Vision.MinConfidence,
		Provider:      "openai",
		Logger:        logger,
	})
	logger.Info("Vision labeler created",
		zap.String("model", cfg.Vision.Model),
		zap.Int("max_labels", cfg.Vision.MaxLabels),
		zap.Float64("min_confidence", cfg.Vision.MinConfidence),
	)

	// Create repositories
	prefix := cfg.Storage.KeyPrefix
	imgRepo := imagerepo.New(store, prefix)
	countRepo := labelcountrepo.New(store, prefix, logger)
	suggRepo := suggestionrepo.New(store, prefix, logger)

	// Create use case services
	labelSvc := labeluc.New(labeler, imgRepo, countRepo, logger)
	imageSvc := imageuc.New(imgRepo, labelSvc, logger).
		WithUploadLimit(int64(cfg.Storage.MaxUploadBytes)).
		WithPagination(cfg.Storage.DefaultPageSize, cfg.Storage.MaxPageSize)
	suggestSvc := suggestuc.New(suggRepo, cfg.Suggest.MaxPrefixLength)
	builder := suggestbuild.New(countRepo, suggRepo,
		cfg.Suggest.MaxSuggestions, cfg.Suggest.MaxPrefixLength, logger)

	// Health service
	healthSvc := healthuc.New(store, labeler)

	// Create chi server
	server := chiTransport.NewServer(imageSvc, labelSvc, suggestSvc, builder, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

	// Periodic rebuild scheduler
	schedCtx, stopSched := context.WithCancel(ctx)
	defer stopSched()
	if cfg.Suggest.RebuildIntervalMin > 0 {
		sched := scheduler.New(builder,
			time.Duration(cfg.Suggest.RebuildIntervalMin)*time.Minute, logger)
		go sched.Start(schedCtx)
	}

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
	stopSched()

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
