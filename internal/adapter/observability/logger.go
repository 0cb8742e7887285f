package observability

import (
	"log/slog"
	"os"

	"github.com/fairyhunter13/ai-interview-analyzer/internal/config"
)

// SetupLogger builds the process-wide JSON logger. Development runs at debug,
// everything else at info. The service and env fields ride on every record so
// aggregation can split streams per deployment.
func SetupLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.IsDev() {
		level = slog.LevelDebug
	}
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(h).With(
		slog.String("service", cfg.OTELServiceName),
		slog.String("env", cfg.AppEnv),
	)
}
