// Package audit is the domain-event side channel of the engine. Every
// mutating operation emits one Event; the SQL sink is the system of record
// for who changed what, when — the engine itself never reads it back for
// decisions.
package audit

import (
	"encoding/json"
	"log/slog"

	"caretrack/internal/models"
	"caretrack/internal/repository"
)

// Actions emitted by the engine
const (
	ActionUpdateTaskProgress       = "UPDATE_TASK_PROGRESS"
	ActionResetTaskProgress        = "RESET_TASK_PROGRESS"
	ActionInheritTaskProgress      = "INHERIT_TASK_PROGRESS"
	ActionSetManualCompetency      = "SET_MANUAL_COMPETENCY"
	ActionSetAssessmentCompetency  = "SET_ASSESSMENT_COMPETENCY"
	ActionResetCompetencyProgress  = "RESET_COMPETENCY_AND_PROGRESS"
	ActionCreateConfirmation       = "CREATE_COMPETENCY_CONFIRMATION"
	ActionSupersedeConfirmation    = "SUPERSEDE_COMPETENCY_CONFIRMATION"
	ActionResolveConfirmation      = "RESOLVE_COMPETENCY_CONFIRMATION"
	ActionLinkWorkerPackage        = "LINK_WORKER_PACKAGE"
	ActionUnlinkWorkerPackage      = "UNLINK_WORKER_PACKAGE"
	ActionLinkTaskPackage          = "LINK_TASK_PACKAGE"
	ActionUnlinkTaskPackage        = "UNLINK_TASK_PACKAGE"
)

// Actor identifies who performed an operation, with the request metadata
// the trail records alongside every event
type Actor struct {
	ID        *uint
	Name      string
	IPAddress string
	UserAgent string
}

// Event is one domain event. Before and After hold entity snapshots and are
// serialized to JSON by the sink; either may be nil.
type Event struct {
	Actor      Actor
	Action     string
	EntityType string
	EntityID   string
	Before     interface{}
	After      interface{}
}

// Recorder is the side channel injected into every service
type Recorder interface {
	Record(event Event)
}

// SQLRecorder persists events through the audit repository. Recording never
// fails the business operation: sink errors are logged and swallowed.
type SQLRecorder struct {
	repo *repository.AuditRepository
}

func NewSQLRecorder(repo *repository.AuditRepository) *SQLRecorder {
	return &SQLRecorder{repo: repo}
}

// Record writes one event to the audit trail
func (r *SQLRecorder) Record(event Event) {
	log := &models.AuditLog{
		ActorID:     event.Actor.ID,
		ActorName:   event.Actor.Name,
		Action:      event.Action,
		EntityType:  event.EntityType,
		EntityID:    event.EntityID,
		BeforeState: marshalState(event.Before),
		AfterState:  marshalState(event.After),
		IPAddress:   event.Actor.IPAddress,
		UserAgent:   event.Actor.UserAgent,
	}

	if err := r.repo.Create(log); err != nil {
		slog.Error("Failed to record audit event", "action", event.Action, "entity_id", event.EntityID, "error", err)
	}
}

func marshalState(state interface{}) *string {
	if state == nil {
		return nil
	}
	data, err := json.Marshal(state)
	if err != nil {
		slog.Error("Failed to marshal audit state", "error", err)
		return nil
	}
	s := string(data)
	return &s
}
