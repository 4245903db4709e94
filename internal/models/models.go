package models

import (
	"time"
)

// Worker represents a care worker whose task competence is tracked.
// Identity and account data are owned by the external user management system;
// only the fields the engine needs are mirrored here.
type Worker struct {
	ID        uint      `json:"id" db:"id"`
	FirstName string    `json:"first_name" db:"first_name"`
	LastName  string    `json:"last_name" db:"last_name"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CareTask represents a trackable skill/activity with a completion target
type CareTask struct {
	ID          uint      `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	TargetCount int       `json:"target_count" db:"target_count"` // completions required for 100%
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// CarePackage represents an organizational unit (e.g. a client or site)
// that workers and tasks can both be attached to
type CarePackage struct {
	ID        uint      `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// WorkerPackageLink represents the many-to-many relationship between workers
// and care packages. Unlinking flips is_active instead of deleting the row so
// progress history stays attributable.
type WorkerPackageLink struct {
	WorkerID  uint      `json:"worker_id" db:"worker_id"`
	PackageID uint      `json:"package_id" db:"package_id"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TaskPackageLink represents the many-to-many relationship between tasks and
// care packages, soft-unlinked the same way as WorkerPackageLink
type TaskPackageLink struct {
	TaskID    uint      `json:"task_id" db:"task_id"`
	PackageID uint      `json:"package_id" db:"package_id"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ProgressRecord represents a worker's completion standing for one task within
// one care package. Progress is conceptually global per (worker, task); the
// package scoping exists for reporting, and the progress service keeps all
// records for a pair converged.
type ProgressRecord struct {
	ID                   uint      `json:"id" db:"id"`
	WorkerID             uint      `json:"worker_id" db:"worker_id"`
	PackageID            uint      `json:"package_id" db:"package_id"`
	TaskID               uint      `json:"task_id" db:"task_id"`
	CompletionCount      int       `json:"completion_count" db:"completion_count"`
	CompletionPercentage int       `json:"completion_percentage" db:"completion_percentage"`
	LastUpdated          time.Time `json:"last_updated" db:"last_updated"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
}

// ProgressRecordWithDetails includes task and package names for listings
type ProgressRecordWithDetails struct {
	ProgressRecord
	TaskName    string `json:"task_name"`
	TargetCount int    `json:"target_count"`
	PackageName string `json:"package_name"`
}

// CompetencyRating represents the single global skill rating for a
/// (worker, task) pair. There is no package dimension: a rating applies
// everywhere the worker is deployed.
type CompetencyRating struct {
	ID             uint            `json:"id" db:"id"`
	WorkerID       uint            `json:"worker_id" db:"worker_id"`
	TaskID         uint            `json:"task_id" db:"task_id"`
	Level          CompetencyLevel `json:"level" db:"level"`
	Source         RatingSource    `json:"source" db:"source"`
	SetByAdminID   *uint           `json:"set_by_admin_id,omitempty" db:"set_by_admin_id"`
	SetByAdminName *string         `json:"set_by_admin_name,omitempty" db:"set_by_admin_name"`
	Notes          *string         `json:"notes,omitempty" db:"notes"` // decrypted for API responses, ciphertext at rest when Vault is enabled
	SetAt          time.Time       `json:"set_at" db:"set_at"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// CompetencyRatingWithDetails includes the task name for listings
type CompetencyRatingWithDetails struct {
	CompetencyRating
	TaskName string `json:"task_name"`
}

// ConfirmationState is the explicit lifecycle state of a PendingConfirmation
type ConfirmationState string

const (
	ConfirmationPending   ConfirmationState = "pending"
	ConfirmationConfirmed ConfirmationState = "confirmed"
	ConfirmationRejected  ConfirmationState = "rejected"
	ConfirmationExpired   ConfirmationState = "expired"
)

// PendingConfirmation represents a rating change waiting for the worker's
// acknowledgment. A first-time rating only becomes a CompetencyRating after
// the worker confirms it within the expiry window.
type PendingConfirmation struct {
	ID             string          `json:"id" db:"id"` // UUID, handed out to the confirmation UI
	WorkerID       uint            `json:"worker_id" db:"worker_id"`
	TaskID         uint            `json:"task_id" db:"task_id"`
	NewLevel       CompetencyLevel `json:"new_level" db:"new_level"`
	Source         RatingSource    `json:"source" db:"source"`
	ProposedByID   *uint           `json:"proposed_by_id,omitempty" db:"proposed_by_id"`
	ProposedByName string          `json:"proposed_by_name" db:"proposed_by_name"`
	Notes          *string         `json:"notes,omitempty" db:"notes"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	ExpiresAt      time.Time       `json:"expires_at" db:"expires_at"`
	ConfirmedAt    *time.Time      `json:"confirmed_at,omitempty" db:"confirmed_at"`
	Confirmed      *bool           `json:"confirmed,omitempty" db:"confirmed"`

	// Populated fields (not from DB)
	WorkerName string `json:"worker_name,omitempty" db:"-"`
	TaskName   string `json:"task_name,omitempty" db:"-"`
}

// State derives the explicit lifecycle state from the stored fields.
// Expiry is evaluated lazily against now; an unresolved entry past its
// horizon reads as expired without any row mutation.
func (c *PendingConfirmation) State(now time.Time) ConfirmationState {
	if c.ConfirmedAt != nil {
		if c.Confirmed != nil && *c.Confirmed {
			return ConfirmationConfirmed
		}
		return ConfirmationRejected
	}
	if now.After(c.ExpiresAt) {
		return ConfirmationExpired
	}
	return ConfirmationPending
}

// AuditLog represents one entry in the audit trail. The audit trail is the
// only history mechanism: progress and rating rows hold current state only.
type AuditLog struct {
	ID          uint      `json:"id" db:"id"`
	ActorID     *uint     `json:"actor_id,omitempty" db:"actor_id"`
	ActorName   string    `json:"actor_name,omitempty" db:"actor_name"`
	Action      string    `json:"action" db:"action"`
	EntityType  string    `json:"entity_type" db:"entity_type"`
	EntityID    string    `json:"entity_id" db:"entity_id"`
	BeforeState *string   `json:"before_state,omitempty" db:"before_state"`
	AfterState  *string   `json:"after_state,omitempty" db:"after_state"`
	IPAddress   string    `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent   string    `json:"user_agent,omitempty" db:"user_agent"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
