// Command worker consumes clip analysis jobs from Redpanda and runs the
// multimodal pipeline.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fairyhunter13/ai-interview-analyzer/internal/adapter/media"
	"github.com/fairyhunter13/ai-interview-analyzer/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interview-analyzer/internal/adapter/queue/redpanda"
	"github.com/fairyhunter13/ai-interview-analyzer/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/ai-interview-analyzer/internal/adapter/stt"
	"github.com/fairyhunter13/ai-interview-analyzer/internal/analysis/filler"
	"github.com/fairyhunter13/ai-interview-analyzer/internal/analysis/video"
	"github.com/fairyhunter13/ai-interview-analyzer/internal/config"
	"github.com/fairyhunter13/ai-interview-analyzer/internal/domain"
	"github.com/fairyhunter13/ai-interview-analyzer/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)
	observability.InitMetrics()

	// Worker metrics on a dedicated port so Prometheus can scrape queue and
	// analysis instrumentation.
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(":9090", mux); err != nil {
			slog.Error("worker metrics server error", slog.Any("error", err))
		}
	}()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	slog.Info("starting worker", slog.String("env", cfg.AppEnv))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("database connection failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	analysisCfg, err := config.LoadAnalysisConfig(cfg.AnalysisConfigPath)
	if err != nil {
		slog.Error("analysis config load failed", slog.Any("error", err))
		os.Exit(1)
	}

	detector, err := video.NewDetector(analysisCfg.FaceCascadePath, analysisCfg.PuplocCascadePath)
	if err != nil {
		slog.Error("face cascade load failed", slog.Any("error", err))
		os.Exit(1)
	}
	extractor := video.NewExtractor(detector)
	extractor.MaxFrames = analysisCfg.MaxFrames

	var transcriber domain.Transcriber
	if cfg.STTEnabled() {
		transcriber = stt.New(cfg)
		slog.Info("speech-to-text client configured")
	} else {
		transcriber = stt.Noop{}
		slog.Warn("speech-to-text credentials missing, transcripts disabled")
	}

	spool, err := media.NewSpool(cfg.MediaSpoolDir)
	if err != nil {
		slog.Error("media spool init failed", slog.Any("error", err))
		os.Exit(1)
	}

	analyzeSvc := usecase.AnalyzeService{
		Jobs:           postgres.NewJobRepo(pool),
		Analyses:       postgres.NewAnalysisRepo(pool),
		Media:          media.NewFFmpeg(cfg.FFmpegBin),
		Spool:          spool,
		Video:          extractor,
		Transcriber:    transcriber,
		Analysis:       analysisCfg,
		SegmentTimeout: cfg.TranscribeSegTimeout,
		LoadWAV:        media.LoadWAV,
		SplitWAV:       filler.SplitWAV,
	}

	consumer, err := redpanda.NewConsumer(cfg.KafkaBrokers, "interview-analyzer-workers", analyzeSvc, cfg.ConsumerMaxConcurrency)
	if err != nil {
		slog.Error("redpanda consumer init failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer consumer.Close()

	if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
		slog.Error("consumer stopped", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("worker stopped")
}
