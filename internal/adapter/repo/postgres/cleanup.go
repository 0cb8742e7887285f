package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// SpoolSweeper removes aged media files alongside the database sweep.
type SpoolSweeper interface {
	SweepOlderThan(cutoff time.Time) (int, error)
}

// CleanupService enforces data retention: sessions past the retention window
// are deleted together with their dependents, and the media spool is swept on
// the same cutoff.
type CleanupService struct {
	Pool          PgxPool
	Spool         SpoolSweeper
	RetentionDays int
}

func NewCleanupService(pool PgxPool, spool SpoolSweeper, retentionDays int) *CleanupService {
	if retentionDays <= 0 {
		retentionDays = 90
	}
	return &CleanupService{Pool: pool, Spool: spool, RetentionDays: retentionDays}
}

// CleanupOldData removes data older than the retention period. Child tables
// go first; sessions last, so a partial failure never orphans rows.
func (s *CleanupService) CleanupOldData(ctx context.Context) error {
	cutoff := time.Now().UTC().AddDate(0, 0, -s.RetentionDays)

	stmts := []struct {
		table string
		sql   string
	}{
		{"evaluations", `DELETE FROM evaluations WHERE session_id IN (SELECT id FROM sessions WHERE created_at < $1)`},
		{"analyses", `DELETE FROM analyses WHERE session_id IN (SELECT id FROM sessions WHERE created_at < $1)`},
		{"questions", `DELETE FROM questions WHERE session_id IN (SELECT id FROM sessions WHERE created_at < $1)`},
		{"jobs", `DELETE FROM jobs WHERE created_at < $1`},
		{"sessions", `DELETE FROM sessions WHERE created_at < $1`},
	}
	for _, st := range stmts {
		tag, err := s.Pool.Exec(ctx, st.sql, cutoff)
		if err != nil {
			return fmt.Errorf("op=cleanup.%s: %w", st.table, err)
		}
		if n := tag.RowsAffected(); n > 0 {
			slog.Info("retention sweep", slog.String("table", st.table), slog.Int64("deleted", n))
		}
	}

	if s.Spool != nil {
		removed, err := s.Spool.SweepOlderThan(cutoff)
		if err != nil {
			slog.Warn("spool sweep failed", slog.Any("error", err))
		} else if removed > 0 {
			slog.Info("spool sweep", slog.Int("removed", removed))
		}
	}
	return nil
}

// RunPeriodic runs an initial sweep and then one per interval until the
// context ends.
func (s *CleanupService) RunPeriodic(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := s.CleanupOldData(ctx); err != nil {
		slog.Error("initial cleanup failed", slog.Any("error", err))
	}
	for {
		select {
		case <-ctx.Done():
			slog.Info("cleanup service stopping")
			return
		case <-ticker.C:
			if err := s.CleanupOldData(ctx); err != nil {
				slog.Error("periodic cleanup failed", slog.Any("error", err))
			}
		}
	}
}
