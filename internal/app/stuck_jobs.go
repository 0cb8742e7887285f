package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// StuckJobFailer is the repository slice the sweeper needs.
type StuckJobFailer interface {
	FailStuckProcessing(ctx context.Context, cutoff time.Time, errMsg string) (int64, error)
}

// StuckJobSweeper fails analysis jobs that have sat in processing past
// maxProcessingAge, so a worker crash between status update and completion
// doesn't leave jobs processing forever.
type StuckJobSweeper struct {
	jobs             StuckJobFailer
	maxProcessingAge time.Duration
	interval         time.Duration
}

func NewStuckJobSweeper(jobs StuckJobFailer, maxProcessingAge, interval time.Duration) *StuckJobSweeper {
	if jobs == nil {
		return nil
	}
	if maxProcessingAge <= 0 {
		maxProcessingAge = 10 * time.Minute
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &StuckJobSweeper{jobs: jobs, maxProcessingAge: maxProcessingAge, interval: interval}
}

func (s *StuckJobSweeper) Run(ctx context.Context) {
	if s == nil {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweepOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			slog.Info("stuck job sweeper stopping")
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *StuckJobSweeper) sweepOnce(ctx context.Context) {
	tracer := otel.Tracer("jobs.sweeper")
	ctx, span := tracer.Start(ctx, "StuckJobSweeper.sweepOnce")
	defer span.End()

	cutoff := time.Now().Add(-s.maxProcessingAge)
	msg := fmt.Sprintf("processing exceeded maximum age %v; failed by sweeper", s.maxProcessingAge)
	n, err := s.jobs.FailStuckProcessing(ctx, cutoff, msg)
	if err != nil {
		span.RecordError(err)
		slog.Error("stuck job sweep failed", slog.Any("error", err))
		return
	}
	span.SetAttributes(attribute.Int64("jobs.marked_failed", n))
	if n > 0 {
		slog.Warn("stuck jobs failed by sweeper", slog.Int64("count", n))
	}
}
