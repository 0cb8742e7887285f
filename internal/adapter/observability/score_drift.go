package observability

import (
	"log/slog"
	"math"
	"sync"
)

// ScoreDriftMonitor watches final evaluation scores for drift from a
// baseline. The first full window establishes the baseline when none was set
// explicitly; after that every full window is compared against it. Drift is
// the absolute difference of means on the score's own scale.
type ScoreDriftMonitor struct {
	mu             sync.Mutex
	baseline       map[string]float64
	recent         map[string][]float64
	windowSize     int
	driftThreshold float64
}

// NewScoreDriftMonitor creates a monitor with the given rolling window size
// and alert threshold.
func NewScoreDriftMonitor(windowSize int, driftThreshold float64) *ScoreDriftMonitor {
	if windowSize <= 0 {
		windowSize = 50
	}
	return &ScoreDriftMonitor{
		baseline:       make(map[string]float64),
		recent:         make(map[string][]float64),
		windowSize:     windowSize,
		driftThreshold: driftThreshold,
	}
}

// SetBaseline pins the reference mean for a metric.
func (m *ScoreDriftMonitor) SetBaseline(metric string, score float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.baseline[metric] = score
}

// Record adds a score and, once the window is full, exports the drift and
// logs a warning when it crosses the threshold.
func (m *ScoreDriftMonitor) Record(metric string, score float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	window := append(m.recent[metric], score)
	if len(window) > m.windowSize {
		window = window[1:]
	}
	m.recent[metric] = window
	if len(window) < m.windowSize {
		return
	}

	mean := 0.0
	for _, s := range window {
		mean += s
	}
	mean /= float64(len(window))

	base, ok := m.baseline[metric]
	if !ok {
		m.baseline[metric] = mean
		return
	}

	drift := math.Abs(mean - base)
	RecordScoreDrift(metric, drift)
	if drift > m.driftThreshold {
		slog.Warn("score drift detected",
			slog.String("metric", metric),
			slog.Float64("drift", drift),
			slog.Float64("baseline", base),
			slog.Float64("recent_mean", mean))
	}
}
