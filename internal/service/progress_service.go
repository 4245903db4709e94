package service

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"

	"caretrack/internal/audit"
	"caretrack/internal/models"
	"caretrack/internal/repository"
)

// ProgressService owns every write to progress records. Progress is a
// worker-global attribute stored per package; UpdateProgress keeps the
// package-scoped copies converged by fanning the new count out to every
// actively-linked record inside one transaction.
type ProgressService struct {
	db           *sql.DB
	progressRepo *repository.ProgressRepository
	linkRepo     *repository.LinkRepository
	workerRepo   *repository.WorkerRepository
	taskRepo     *repository.TaskRepository
	packageRepo  *repository.PackageRepository
	recorder     audit.Recorder
}

// NewProgressService creates a new progress service
func NewProgressService(
	db *sql.DB,
	progressRepo *repository.ProgressRepository,
	linkRepo *repository.LinkRepository,
	workerRepo *repository.WorkerRepository,
	taskRepo *repository.TaskRepository,
	packageRepo *repository.PackageRepository,
	recorder audit.Recorder,
) *ProgressService {
	return &ProgressService{
		db:           db,
		progressRepo: progressRepo,
		linkRepo:     linkRepo,
		workerRepo:   workerRepo,
		taskRepo:     taskRepo,
		packageRepo:  packageRepo,
		recorder:     recorder,
	}
}

// UpdateProgress records a new completion count for a worker's task within
// one package, then synchronizes every other actively-linked package record
// for the same (worker, task) pair to the same value. All touched records
// become consistent together or not at all.
func (s *ProgressService) UpdateProgress(workerID, packageID, taskID uint, completionCount int, actor audit.Actor) (*models.ProgressRecord, error) {
	if completionCount < 0 {
		return nil, fmt.Errorf("%w: completion count must not be negative", ErrInvalidInput)
	}

	task, err := s.requireLinkedTriple(workerID, packageID, taskID)
	if err != nil {
		return nil, err
	}

	before, err := s.progressRepo.GetByKey(workerID, packageID, taskID)
	if err != nil {
		return nil, err
	}

	record := &models.ProgressRecord{
		WorkerID:             workerID,
		PackageID:            packageID,
		TaskID:               taskID,
		CompletionCount:      completionCount,
		CompletionPercentage: models.CompletionPercentage(completionCount, task.TargetCount),
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer rollback(tx)

	if err := repository.LockWorkerTask(tx, workerID, taskID); err != nil {
		return nil, err
	}

	if err := s.progressRepo.UpsertTx(tx, record); err != nil {
		return nil, err
	}

	synced, err := s.progressRepo.SyncLinkedTx(tx, workerID, taskID, record.CompletionCount, record.CompletionPercentage)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	slog.Debug("Progress synchronized",
		"worker_id", workerID, "task_id", taskID,
		"count", completionCount, "records", synced)

	s.recorder.Record(audit.Event{
		Actor:      actor,
		Action:     audit.ActionUpdateTaskProgress,
		EntityType: "progress_record",
		EntityID:   progressEntityID(workerID, packageID, taskID),
		Before:     before,
		After:      record,
	})

	return record, nil
}

// ResetProgress zeroes the single progress record for one package. This is
// a per-package correction tool and deliberately does not fan out; the
// global demotion path is a competency reset, which cascades everywhere.
func (s *ProgressService) ResetProgress(workerID, packageID, taskID uint, actor audit.Actor) (*models.ProgressRecord, error) {
	before, err := s.progressRepo.GetByKey(workerID, packageID, taskID)
	if err != nil {
		return nil, err
	}
	if before == nil {
		return nil, fmt.Errorf("%w: no progress record for worker %d, package %d, task %d", ErrNotFound, workerID, packageID, taskID)
	}

	record := &models.ProgressRecord{
		WorkerID:  workerID,
		PackageID: packageID,
		TaskID:    taskID,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer rollback(tx)

	if err := s.progressRepo.UpsertTx(tx, record); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.recorder.Record(audit.Event{
		Actor:      actor,
		Action:     audit.ActionResetTaskProgress,
		EntityType: "progress_record",
		EntityID:   progressEntityID(workerID, packageID, taskID),
		Before:     before,
		After:      record,
	})

	return record, nil
}

// ListWorkerProgress retrieves a worker's full progress matrix
func (s *ProgressService) ListWorkerProgress(workerID uint) ([]models.ProgressRecordWithDetails, error) {
	worker, err := s.workerRepo.GetByID(workerID)
	if err != nil {
		return nil, err
	}
	if worker == nil {
		return nil, fmt.Errorf("%w: worker %d", ErrNotFound, workerID)
	}
	return s.progressRepo.ListByWorker(workerID)
}

// ListPackageProgress retrieves all progress records within one package
func (s *ProgressService) ListPackageProgress(packageID uint) ([]models.ProgressRecordWithDetails, error) {
	pkg, err := s.packageRepo.GetByID(packageID)
	if err != nil {
		return nil, err
	}
	if pkg == nil {
		return nil, fmt.Errorf("%w: package %d", ErrNotFound, packageID)
	}
	return s.progressRepo.ListByPackage(packageID)
}

// requireLinkedTriple verifies the worker, package and task exist and that
// both links are active, returning the task for percentage derivation
func (s *ProgressService) requireLinkedTriple(workerID, packageID, taskID uint) (*models.CareTask, error) {
	worker, err := s.workerRepo.GetByID(workerID)
	if err != nil {
		return nil, err
	}
	if worker == nil {
		return nil, fmt.Errorf("%w: worker %d", ErrNotFound, workerID)
	}

	task, err := s.taskRepo.GetByID(taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, fmt.Errorf("%w: task %d", ErrNotFound, taskID)
	}

	workerLinked, err := s.linkRepo.IsWorkerLinked(workerID, packageID)
	if err != nil {
		return nil, err
	}
	if !workerLinked {
		return nil, fmt.Errorf("%w: worker %d is not actively linked to package %d", ErrNotLinked, workerID, packageID)
	}

	taskLinked, err := s.linkRepo.IsTaskLinked(taskID, packageID)
	if err != nil {
		return nil, err
	}
	if !taskLinked {
		return nil, fmt.Errorf("%w: task %d is not actively linked to package %d", ErrNotLinked, taskID, packageID)
	}

	return task, nil
}

func progressEntityID(workerID, packageID, taskID uint) string {
	return strconv.FormatUint(uint64(workerID), 10) + ":" +
		strconv.FormatUint(uint64(packageID), 10) + ":" +
		strconv.FormatUint(uint64(taskID), 10)
}

// rollback discards a transaction unless it was already committed
func rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		slog.Error("Failed to rollback transaction", "error", err)
	}
}
