package service

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"caretrack/internal/audit"
	"caretrack/internal/models"
	"caretrack/internal/repository"
	"caretrack/internal/securenotes"
)

// CompetencyService is the gatekeeper for the global rating of a
// (worker, task) pair. Every write passes through SetRating, which decides
// between three paths under the pair's advisory lock: a cascading reset
// (NOT_ASSESSED), a queued confirmation (first-time rating), or a direct
// upsert (re-rating or deliberate bypass).
type CompetencyService struct {
	db               *sql.DB
	competencyRepo   *repository.CompetencyRepository
	confirmationRepo *repository.ConfirmationRepository
	progressRepo     *repository.ProgressRepository
	workerRepo       *repository.WorkerRepository
	taskRepo         *repository.TaskRepository
	notes            *securenotes.Service
	recorder         audit.Recorder
	expiryWindow     time.Duration
}

// SetRatingResult reports what SetRating actually did: either a rating was
// written (Rating set), a confirmation was queued instead (Pending), or the
// pair was reset wholesale (Reset).
type SetRatingResult struct {
	Pending      bool                        `json:"pending"`
	Reset        bool                        `json:"reset"`
	Rating       *models.CompetencyRating    `json:"rating,omitempty"`
	Confirmation *models.PendingConfirmation `json:"confirmation,omitempty"`
}

// NewCompetencyService creates a new competency service
func NewCompetencyService(
	db *sql.DB,
	competencyRepo *repository.CompetencyRepository,
	confirmationRepo *repository.ConfirmationRepository,
	progressRepo *repository.ProgressRepository,
	workerRepo *repository.WorkerRepository,
	taskRepo *repository.TaskRepository,
	notes *securenotes.Service,
	recorder audit.Recorder,
	expiryWindow time.Duration,
) *CompetencyService {
	return &CompetencyService{
		db:               db,
		competencyRepo:   competencyRepo,
		confirmationRepo: confirmationRepo,
		progressRepo:     progressRepo,
		workerRepo:       workerRepo,
		taskRepo:         taskRepo,
		notes:            notes,
		recorder:         recorder,
		expiryWindow:     expiryWindow,
	}
}

// SetRating applies a rating change for a (worker, task) pair.
//
// NOT_ASSESSED triggers the cascading reset: the rating is deleted, every
// unresolved confirmation for the pair is rejected, and all progress records
// are zeroed, atomically.
//
// For any other level, a pair that has never been rated gets a pending
// confirmation instead of a rating, unless skipConfirmation is set. A pair
// that already holds a rating is updated directly; the confirmation protocol
// only guards the first entry into the rated state.
func (s *CompetencyService) SetRating(
	workerID, taskID uint,
	level models.CompetencyLevel,
	source models.RatingSource,
	actor audit.Actor,
	notes *string,
	skipConfirmation bool,
) (*SetRatingResult, error) {
	if !level.Valid() {
		return nil, fmt.Errorf("%w: unknown competency level %q", ErrInvalidInput, level)
	}
	if !source.Valid() {
		return nil, fmt.Errorf("%w: unknown rating source %q", ErrInvalidInput, source)
	}
	if err := s.requirePair(workerID, taskID); err != nil {
		return nil, err
	}

	if level == models.LevelNotAssessed {
		return s.resetPair(workerID, taskID, actor)
	}

	sealed, err := s.notes.Seal(notes)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer rollback(tx)

	if err := repository.LockWorkerTask(tx, workerID, taskID); err != nil {
		return nil, err
	}

	existing, err := s.competencyRepo.GetTx(tx, workerID, taskID)
	if err != nil {
		return nil, err
	}

	if existing == nil && !skipConfirmation {
		return s.queueConfirmation(tx, workerID, taskID, level, source, actor, sealed)
	}

	rating := &models.CompetencyRating{
		WorkerID: workerID,
		TaskID:   taskID,
		Level:    level,
		Source:   source,
		Notes:    sealed,
	}
	if source == models.SourceManual {
		rating.SetByAdminID = actor.ID
		if actor.Name != "" {
			name := actor.Name
			rating.SetByAdminName = &name
		}
	}

	if err := s.competencyRepo.UpsertTx(tx, rating); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	action := audit.ActionSetAssessmentCompetency
	if source == models.SourceManual {
		action = audit.ActionSetManualCompetency
	}
	s.recorder.Record(audit.Event{
		Actor:      actor,
		Action:     action,
		EntityType: "competency_rating",
		EntityID:   pairEntityID(workerID, taskID),
		Before:     existing,
		After:      rating,
	})

	rating.Notes = notes
	return &SetRatingResult{Rating: rating}, nil
}

// queueConfirmation supersedes any outstanding request for the pair and
// creates a fresh one with a full expiry window
func (s *CompetencyService) queueConfirmation(
	tx *sql.Tx,
	workerID, taskID uint,
	level models.CompetencyLevel,
	source models.RatingSource,
	actor audit.Actor,
	sealedNotes *string,
) (*SetRatingResult, error) {
	superseded, err := s.confirmationRepo.RejectUnresolvedForPairTx(tx, workerID, taskID)
	if err != nil {
		return nil, err
	}

	confirmation := &models.PendingConfirmation{
		ID:             uuid.NewString(),
		WorkerID:       workerID,
		TaskID:         taskID,
		NewLevel:       level,
		Source:         source,
		ProposedByID:   actor.ID,
		ProposedByName: actor.Name,
		Notes:          sealedNotes,
		ExpiresAt:      time.Now().Add(s.expiryWindow),
	}
	if err := s.confirmationRepo.CreateTx(tx, confirmation); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	if superseded > 0 {
		slog.Info("Superseded outstanding confirmations",
			"worker_id", workerID, "task_id", taskID, "count", superseded)
		s.recorder.Record(audit.Event{
			Actor:      actor,
			Action:     audit.ActionSupersedeConfirmation,
			EntityType: "pending_confirmation",
			EntityID:   pairEntityID(workerID, taskID),
		})
	}
	s.recorder.Record(audit.Event{
		Actor:      actor,
		Action:     audit.ActionCreateConfirmation,
		EntityType: "pending_confirmation",
		EntityID:   confirmation.ID,
		After:      confirmation,
	})

	return &SetRatingResult{Pending: true, Confirmation: confirmation}, nil
}

// resetPair implements the NOT_ASSESSED cascade: rating gone, outstanding
// confirmations rejected, every progress record zeroed — in all packages,
// active links or not
func (s *CompetencyService) resetPair(workerID, taskID uint, actor audit.Actor) (*SetRatingResult, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer rollback(tx)

	if err := repository.LockWorkerTask(tx, workerID, taskID); err != nil {
		return nil, err
	}

	existing, err := s.competencyRepo.GetTx(tx, workerID, taskID)
	if err != nil {
		return nil, err
	}

	if _, err := s.competencyRepo.DeleteTx(tx, workerID, taskID); err != nil {
		return nil, err
	}
	rejected, err := s.confirmationRepo.RejectUnresolvedForPairTx(tx, workerID, taskID)
	if err != nil {
		return nil, err
	}
	resetRecords, err := s.progressRepo.ResetAllTx(tx, workerID, taskID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	slog.Info("Competency and progress reset",
		"worker_id", workerID, "task_id", taskID,
		"rejected_confirmations", rejected, "reset_records", resetRecords)

	s.recorder.Record(audit.Event{
		Actor:      actor,
		Action:     audit.ActionResetCompetencyProgress,
		EntityType: "competency_rating",
		EntityID:   pairEntityID(workerID, taskID),
		Before:     existing,
	})

	return &SetRatingResult{Reset: true}, nil
}

// ResolveConfirmation records the worker's decision on a pending
// confirmation. Confirming installs the proposed rating; rejecting leaves
// the pair unrated. Either way the entry becomes terminal.
func (s *CompetencyService) ResolveConfirmation(id string, confirmed bool, actor audit.Actor) (*models.CompetencyRating, error) {
	confirmation, err := s.confirmationRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if confirmation == nil {
		return nil, fmt.Errorf("%w: confirmation %s", ErrNotFound, id)
	}

	switch confirmation.State(time.Now()) {
	case models.ConfirmationConfirmed, models.ConfirmationRejected:
		return nil, fmt.Errorf("%w: confirmation %s", ErrAlreadyResolved, id)
	case models.ConfirmationExpired:
		return nil, fmt.Errorf("%w: confirmation %s expired at %s", ErrExpired, id, confirmation.ExpiresAt.Format(time.RFC3339))
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer rollback(tx)

	if err := repository.LockWorkerTask(tx, confirmation.WorkerID, confirmation.TaskID); err != nil {
		return nil, err
	}

	resolved, err := s.confirmationRepo.ResolveTx(tx, id, confirmed)
	if err != nil {
		return nil, err
	}
	if !resolved {
		// lost the race against a concurrent resolve or supersession
		return nil, fmt.Errorf("%w: confirmation %s", ErrAlreadyResolved, id)
	}

	var rating *models.CompetencyRating
	if confirmed {
		rating = &models.CompetencyRating{
			WorkerID: confirmation.WorkerID,
			TaskID:   confirmation.TaskID,
			Level:    confirmation.NewLevel,
			Source:   confirmation.Source,
			Notes:    confirmation.Notes,
		}
		if confirmation.Source == models.SourceManual {
			rating.SetByAdminID = confirmation.ProposedByID
			if confirmation.ProposedByName != "" {
				name := confirmation.ProposedByName
				rating.SetByAdminName = &name
			}
		}
		if err := s.competencyRepo.UpsertTx(tx, rating); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.recorder.Record(audit.Event{
		Actor:      actor,
		Action:     audit.ActionResolveConfirmation,
		EntityType: "pending_confirmation",
		EntityID:   id,
		Before:     confirmation,
		After:      map[string]interface{}{"confirmed": confirmed},
	})

	if rating != nil {
		decrypted, err := s.notes.Open(rating.Notes)
		if err != nil {
			slog.Error("Failed to decrypt rating notes", "confirmation_id", id, "error", err)
		} else {
			rating.Notes = decrypted
		}
	}
	return rating, nil
}

// GetConfirmation retrieves one confirmation with its derived state and
// decrypted notes
func (s *CompetencyService) GetConfirmation(id string) (*models.PendingConfirmation, models.ConfirmationState, error) {
	confirmation, err := s.confirmationRepo.GetByID(id)
	if err != nil {
		return nil, "", err
	}
	if confirmation == nil {
		return nil, "", fmt.Errorf("%w: confirmation %s", ErrNotFound, id)
	}
	if err := s.openConfirmationNotes(confirmation); err != nil {
		return nil, "", err
	}
	return confirmation, confirmation.State(time.Now()), nil
}

// ListPendingConfirmations retrieves unresolved, unexpired confirmations,
// optionally scoped to one worker
func (s *CompetencyService) ListPendingConfirmations(workerID *uint) ([]models.PendingConfirmation, error) {
	if workerID != nil {
		worker, err := s.workerRepo.GetByID(*workerID)
		if err != nil {
			return nil, err
		}
		if worker == nil {
			return nil, fmt.Errorf("%w: worker %d", ErrNotFound, *workerID)
		}
	}

	confirmations, err := s.confirmationRepo.ListPending(workerID, time.Now())
	if err != nil {
		return nil, err
	}
	for i := range confirmations {
		if err := s.openConfirmationNotes(&confirmations[i]); err != nil {
			return nil, err
		}
	}
	return confirmations, nil
}

// GetRating retrieves the global rating for a pair, with decrypted notes
func (s *CompetencyService) GetRating(workerID, taskID uint) (*models.CompetencyRating, error) {
	if err := s.requirePair(workerID, taskID); err != nil {
		return nil, err
	}
	rating, err := s.competencyRepo.Get(workerID, taskID)
	if err != nil {
		return nil, err
	}
	if rating == nil {
		return nil, fmt.Errorf("%w: no rating for worker %d, task %d", ErrNotFound, workerID, taskID)
	}
	decrypted, err := s.notes.Open(rating.Notes)
	if err != nil {
		return nil, err
	}
	rating.Notes = decrypted
	return rating, nil
}

// ListWorkerRatings retrieves all of a worker's ratings with decrypted notes
func (s *CompetencyService) ListWorkerRatings(workerID uint) ([]models.CompetencyRatingWithDetails, error) {
	worker, err := s.workerRepo.GetByID(workerID)
	if err != nil {
		return nil, err
	}
	if worker == nil {
		return nil, fmt.Errorf("%w: worker %d", ErrNotFound, workerID)
	}

	ratings, err := s.competencyRepo.ListByWorker(workerID)
	if err != nil {
		return nil, err
	}
	for i := range ratings {
		decrypted, err := s.notes.Open(ratings[i].Notes)
		if err != nil {
			return nil, err
		}
		ratings[i].Notes = decrypted
	}
	return ratings, nil
}

func (s *CompetencyService) openConfirmationNotes(c *models.PendingConfirmation) error {
	decrypted, err := s.notes.Open(c.Notes)
	if err != nil {
		return err
	}
	c.Notes = decrypted
	return nil
}

func (s *CompetencyService) requirePair(workerID, taskID uint) error {
	worker, err := s.workerRepo.GetByID(workerID)
	if err != nil {
		return err
	}
	if worker == nil {
		return fmt.Errorf("%w: worker %d", ErrNotFound, workerID)
	}
	task, err := s.taskRepo.GetByID(taskID)
	if err != nil {
		return err
	}
	if task == nil {
		return fmt.Errorf("%w: task %d", ErrNotFound, taskID)
	}
	return nil
}
