package service

import (
	"fmt"
	"log/slog"

	"caretrack/internal/audit"
	"caretrack/internal/models"
)

// AssessmentService turns a completed skills assessment into rating changes.
// Each outcome goes through the gatekeeper independently: one bad outcome
// does not block the rest of the assessment from landing.
type AssessmentService struct {
	competency *CompetencyService
}

// NewAssessmentService creates a new assessment service
func NewAssessmentService(competency *CompetencyService) *AssessmentService {
	return &AssessmentService{competency: competency}
}

// AssessmentOutcome is one assessed task within a submission
type AssessmentOutcome struct {
	TaskID uint                   `json:"task_id"`
	Level  models.CompetencyLevel `json:"level"`
	Notes  *string                `json:"notes,omitempty"`
}

// OutcomeResult reports what happened to one outcome
type OutcomeResult struct {
	TaskID uint             `json:"task_id"`
	Result *SetRatingResult `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// SubmitOutcomes applies every outcome of an assessment for one worker.
// Outcomes are processed in order; failures are collected per task rather
// than aborting the submission. First-time pairs still go through the
// confirmation queue like any other assessment-sourced rating.
func (s *AssessmentService) SubmitOutcomes(workerID uint, outcomes []AssessmentOutcome, actor audit.Actor) ([]OutcomeResult, error) {
	if len(outcomes) == 0 {
		return nil, fmt.Errorf("%w: assessment contains no outcomes", ErrInvalidInput)
	}

	seen := make(map[uint]bool, len(outcomes))
	for _, outcome := range outcomes {
		if seen[outcome.TaskID] {
			return nil, fmt.Errorf("%w: task %d appears more than once", ErrInvalidInput, outcome.TaskID)
		}
		seen[outcome.TaskID] = true
	}

	results := make([]OutcomeResult, 0, len(outcomes))
	for _, outcome := range outcomes {
		result, err := s.competency.SetRating(workerID, outcome.TaskID, outcome.Level, models.SourceAssessment, actor, outcome.Notes, false)
		if err != nil {
			slog.Warn("Assessment outcome failed",
				"worker_id", workerID, "task_id", outcome.TaskID, "error", err)
			results = append(results, OutcomeResult{TaskID: outcome.TaskID, Error: err.Error()})
			continue
		}
		results = append(results, OutcomeResult{TaskID: outcome.TaskID, Result: result})
	}

	return results, nil
}
