package app

import (
	"github.com/fairyhunter13/ai-interview-analyzer/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interview-analyzer/internal/domain"
)

// ObservedEvaluations decorates an evaluation repository with score metrics:
// every stored final evaluation feeds the overall-score histogram and the
// drift monitor. Reads pass through untouched.
type ObservedEvaluations struct {
	domain.EvaluationRepository
	Drift *observability.ScoreDriftMonitor
}

// NewObservedEvaluations wraps inner with metric recording.
func NewObservedEvaluations(inner domain.EvaluationRepository, drift *observability.ScoreDriftMonitor) *ObservedEvaluations {
	return &ObservedEvaluations{EvaluationRepository: inner, Drift: drift}
}

func (o *ObservedEvaluations) Create(ctx domain.Context, e domain.FinalEvaluation) error {
	if err := o.EvaluationRepository.Create(ctx, e); err != nil {
		return err
	}
	observability.ObserveFinalScore(float64(e.OverallScore))
	if o.Drift != nil {
		o.Drift.Record("overall", float64(e.OverallScore))
		o.Drift.Record("content", float64(e.ContentScore))
		o.Drift.Record("delivery", float64(e.DeliveryScore))
		o.Drift.Record("non_verbal", float64(e.NonVerbalScore))
	}
	return nil
}
