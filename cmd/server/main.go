// Command server starts the interview analyzer HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fairyhunter13/ai-interview-analyzer/internal/adapter/ai/mock"
	"github.com/fairyhunter13/ai-interview-analyzer/internal/adapter/ai/spark"
	"github.com/fairyhunter13/ai-interview-analyzer/internal/adapter/httpserver"
	"github.com/fairyhunter13/ai-interview-analyzer/internal/adapter/media"
	"github.com/fairyhunter13/ai-interview-analyzer/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interview-analyzer/internal/adapter/queue/redpanda"
	"github.com/fairyhunter13/ai-interview-analyzer/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/ai-interview-analyzer/internal/app"
	"github.com/fairyhunter13/ai-interview-analyzer/internal/config"
	"github.com/fairyhunter13/ai-interview-analyzer/internal/domain"
	"github.com/fairyhunter13/ai-interview-analyzer/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)
	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		slog.Error("schema setup failed", slog.Any("error", err))
		os.Exit(1)
	}

	sessRepo := postgres.NewSessionRepo(pool)
	questionRepo := postgres.NewQuestionRepo(pool)
	analysisRepo := postgres.NewAnalysisRepo(pool)
	jobRepo := postgres.NewJobRepo(pool)
	evalRepo := app.NewObservedEvaluations(
		postgres.NewEvaluationRepo(pool),
		observability.NewScoreDriftMonitor(50, 10),
	)

	spool, err := media.NewSpool(cfg.MediaSpoolDir)
	if err != nil {
		slog.Error("media spool init failed", slog.Any("error", err))
		os.Exit(1)
	}

	if cfg.DataRetentionDays > 0 {
		cleanupSvc := postgres.NewCleanupService(pool, spool, cfg.DataRetentionDays)
		go cleanupSvc.RunPeriodic(ctx, cfg.CleanupInterval)
		slog.Info("cleanup service started",
			slog.Int("retention_days", cfg.DataRetentionDays),
			slog.Duration("interval", cfg.CleanupInterval))
	}

	producer, err := redpanda.NewProducer(cfg.KafkaBrokers)
	if err != nil {
		slog.Error("redpanda producer connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := producer.Close(); err != nil {
			slog.Error("failed to close queue producer", slog.Any("error", err))
		}
	}()

	var llm domain.LLMClient
	if cfg.SparkEnabled() {
		llm = app.NewBreakerLLM(spark.New(cfg), 5, 30*time.Second)
		slog.Info("spark LLM client configured")
	} else {
		llm = mock.New()
		slog.Warn("spark credentials missing, using deterministic mock LLM")
	}

	interviews := usecase.NewInterviewService(sessRepo, questionRepo, analysisRepo, evalRepo, llm)
	analysis := usecase.NewAnalysisService(jobRepo, producer, sessRepo)
	results := usecase.NewResultService(sessRepo, questionRepo, analysisRepo, evalRepo)

	sweeper := app.NewStuckJobSweeper(jobRepo, 10*time.Minute, time.Minute)
	go sweeper.Run(ctx)

	dbCheck, queueCheck := app.BuildReadinessChecks(pool, producer)
	srv := httpserver.NewServer(cfg, interviews, analysis, results, spool, dbCheck, queueCheck)
	handler := app.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}
