package service

import (
	"database/sql"
	"log/slog"

	"caretrack/internal/models"
	"caretrack/internal/repository"
)

// InheritanceService seeds progress records for newly created links so that
// work already demonstrated elsewhere is never lost. A new (worker, package,
// task) record starts at the worker's best completion count for that task
// across all active links, or zero when the pair has no history.
type InheritanceService struct {
	progressRepo *repository.ProgressRepository
	linkRepo     *repository.LinkRepository
}

// NewInheritanceService creates a new inheritance service
func NewInheritanceService(progressRepo *repository.ProgressRepository, linkRepo *repository.LinkRepository) *InheritanceService {
	return &InheritanceService{progressRepo: progressRepo, linkRepo: linkRepo}
}

// SeedWorkerPackageTx creates progress records for one worker against every
// task actively linked to the package. Runs inside the caller's link
// transaction so the link and its seeded records land together. A failed
// seed for one task is logged and skipped; the remaining tasks still seed.
func (s *InheritanceService) SeedWorkerPackageTx(tx *sql.Tx, workerID, packageID uint) ([]models.ProgressRecord, error) {
	tasks, err := s.linkRepo.ActiveTasksForPackageTx(tx, packageID)
	if err != nil {
		return nil, err
	}

	var seeded []models.ProgressRecord
	for _, task := range tasks {
		record, err := s.seedPairTx(tx, workerID, packageID, task)
		if err != nil {
			slog.Warn("Failed to seed progress record",
				"worker_id", workerID, "package_id", packageID, "task_id", task.ID, "error", err)
			continue
		}
		seeded = append(seeded, *record)
	}

	return seeded, nil
}

// SeedTaskPackageTx creates progress records for one task against every
// worker actively linked to the package
func (s *InheritanceService) SeedTaskPackageTx(tx *sql.Tx, taskID, packageID uint, task *models.CareTask) ([]models.ProgressRecord, error) {
	workers, err := s.linkRepo.ActiveWorkersForPackageTx(tx, packageID)
	if err != nil {
		return nil, err
	}

	var seeded []models.ProgressRecord
	for _, worker := range workers {
		record, err := s.seedPairTx(tx, worker.ID, packageID, *task)
		if err != nil {
			slog.Warn("Failed to seed progress record",
				"worker_id", worker.ID, "package_id", packageID, "task_id", taskID, "error", err)
			continue
		}
		seeded = append(seeded, *record)
	}

	return seeded, nil
}

// seedPairTx writes one record at the worker's best count for the task.
// The new link is already active at this point, so an existing record in
// this package participates in the maximum and is never regressed.
func (s *InheritanceService) seedPairTx(tx *sql.Tx, workerID, packageID uint, task models.CareTask) (*models.ProgressRecord, error) {
	count, _, err := s.progressRepo.MaxActiveCountTx(tx, workerID, task.ID)
	if err != nil {
		return nil, err
	}

	record := &models.ProgressRecord{
		WorkerID:             workerID,
		PackageID:            packageID,
		TaskID:               task.ID,
		CompletionCount:      count,
		CompletionPercentage: models.CompletionPercentage(count, task.TargetCount),
	}
	if err := s.progressRepo.UpsertTx(tx, record); err != nil {
		return nil, err
	}
	return record, nil
}
