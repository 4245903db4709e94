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

// AssignmentService manages the worker↔package and task↔package links.
// Linking and progress seeding run in one transaction so a package never
// gains a member without the inherited records that membership implies.
type AssignmentService struct {
	db          *sql.DB
	linkRepo    *repository.LinkRepository
	workerRepo  *repository.WorkerRepository
	taskRepo    *repository.TaskRepository
	packageRepo *repository.PackageRepository
	inheritance *InheritanceService
	recorder    audit.Recorder
}

// NewAssignmentService creates a new assignment service
func NewAssignmentService(
	db *sql.DB,
	linkRepo *repository.LinkRepository,
	workerRepo *repository.WorkerRepository,
	taskRepo *repository.TaskRepository,
	packageRepo *repository.PackageRepository,
	inheritance *InheritanceService,
	recorder audit.Recorder,
) *AssignmentService {
	return &AssignmentService{
		db:          db,
		linkRepo:    linkRepo,
		workerRepo:  workerRepo,
		taskRepo:    taskRepo,
		packageRepo: packageRepo,
		inheritance: inheritance,
		recorder:    recorder,
	}
}

// LinkWorker adds a worker to a package (or reactivates a previous link)
// and seeds their progress records from existing history
func (s *AssignmentService) LinkWorker(workerID, packageID uint, actor audit.Actor) ([]models.ProgressRecord, error) {
	worker, err := s.workerRepo.GetByID(workerID)
	if err != nil {
		return nil, err
	}
	if worker == nil {
		return nil, fmt.Errorf("%w: worker %d", ErrNotFound, workerID)
	}
	if err := s.requirePackage(packageID); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer rollback(tx)

	if err := s.linkRepo.UpsertWorkerLinkTx(tx, workerID, packageID); err != nil {
		return nil, err
	}

	seeded, err := s.inheritance.SeedWorkerPackageTx(tx, workerID, packageID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	slog.Info("Worker linked to package",
		"worker_id", workerID, "package_id", packageID, "seeded_records", len(seeded))

	s.recorder.Record(audit.Event{
		Actor:      actor,
		Action:     audit.ActionLinkWorkerPackage,
		EntityType: "worker_package_link",
		EntityID:   pairEntityID(workerID, packageID),
		After:      models.WorkerPackageLink{WorkerID: workerID, PackageID: packageID, IsActive: true},
	})
	s.recordSeeded(actor, seeded)

	return seeded, nil
}

// UnlinkWorker soft-removes a worker from a package. Progress records are
// kept; they simply stop participating in synchronization and inheritance.
func (s *AssignmentService) UnlinkWorker(workerID, packageID uint, actor audit.Actor) error {
	unlinked, err := s.linkRepo.DeactivateWorkerLink(workerID, packageID)
	if err != nil {
		return err
	}
	if !unlinked {
		return fmt.Errorf("%w: worker %d has no active link to package %d", ErrNotLinked, workerID, packageID)
	}

	s.recorder.Record(audit.Event{
		Actor:      actor,
		Action:     audit.ActionUnlinkWorkerPackage,
		EntityType: "worker_package_link",
		EntityID:   pairEntityID(workerID, packageID),
		Before:     models.WorkerPackageLink{WorkerID: workerID, PackageID: packageID, IsActive: true},
		After:      models.WorkerPackageLink{WorkerID: workerID, PackageID: packageID, IsActive: false},
	})
	return nil
}

// LinkTask adds a task to a package (or reactivates a previous link) and
// seeds a progress record for every worker already in the package
func (s *AssignmentService) LinkTask(taskID, packageID uint, actor audit.Actor) ([]models.ProgressRecord, error) {
	task, err := s.taskRepo.GetByID(taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, fmt.Errorf("%w: task %d", ErrNotFound, taskID)
	}
	if err := s.requirePackage(packageID); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer rollback(tx)

	if err := s.linkRepo.UpsertTaskLinkTx(tx, taskID, packageID); err != nil {
		return nil, err
	}

	seeded, err := s.inheritance.SeedTaskPackageTx(tx, taskID, packageID, task)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	slog.Info("Task linked to package",
		"task_id", taskID, "package_id", packageID, "seeded_records", len(seeded))

	s.recorder.Record(audit.Event{
		Actor:      actor,
		Action:     audit.ActionLinkTaskPackage,
		EntityType: "task_package_link",
		EntityID:   pairEntityID(taskID, packageID),
		After:      models.TaskPackageLink{TaskID: taskID, PackageID: packageID, IsActive: true},
	})
	s.recordSeeded(actor, seeded)

	return seeded, nil
}

// UnlinkTask soft-removes a task from a package
func (s *AssignmentService) UnlinkTask(taskID, packageID uint, actor audit.Actor) error {
	unlinked, err := s.linkRepo.DeactivateTaskLink(taskID, packageID)
	if err != nil {
		return err
	}
	if !unlinked {
		return fmt.Errorf("%w: task %d has no active link to package %d", ErrNotLinked, taskID, packageID)
	}

	s.recorder.Record(audit.Event{
		Actor:      actor,
		Action:     audit.ActionUnlinkTaskPackage,
		EntityType: "task_package_link",
		EntityID:   pairEntityID(taskID, packageID),
		Before:     models.TaskPackageLink{TaskID: taskID, PackageID: packageID, IsActive: true},
		After:      models.TaskPackageLink{TaskID: taskID, PackageID: packageID, IsActive: false},
	})
	return nil
}

func (s *AssignmentService) requirePackage(packageID uint) error {
	pkg, err := s.packageRepo.GetByID(packageID)
	if err != nil {
		return err
	}
	if pkg == nil {
		return fmt.Errorf("%w: package %d", ErrNotFound, packageID)
	}
	return nil
}

func (s *AssignmentService) recordSeeded(actor audit.Actor, seeded []models.ProgressRecord) {
	for i := range seeded {
		rec := seeded[i]
		s.recorder.Record(audit.Event{
			Actor:      actor,
			Action:     audit.ActionInheritTaskProgress,
			EntityType: "progress_record",
			EntityID:   progressEntityID(rec.WorkerID, rec.PackageID, rec.TaskID),
			After:      rec,
		})
	}
}

func pairEntityID(a, b uint) string {
	return strconv.FormatUint(uint64(a), 10) + ":" + strconv.FormatUint(uint64(b), 10)
}
