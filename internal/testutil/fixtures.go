package testutil

import (
	"database/sql"
	"testing"

	"caretrack/internal/models"
)

// Fixtures holds common test data
type Fixtures struct {
	DB *sql.DB
}

// NewFixtures creates a fixture helper around an open test database
func NewFixtures(db *sql.DB) *Fixtures {
	return &Fixtures{DB: db}
}

// CreateWorker inserts a worker and returns it
func (f *Fixtures) CreateWorker(t *testing.T, firstName, lastName string) *models.Worker {
	t.Helper()

	worker := &models.Worker{FirstName: firstName, LastName: lastName, IsActive: true}
	err := f.DB.QueryRow(`
		INSERT INTO workers (first_name, last_name, is_active)
		VALUES ($1, $2, TRUE)
		RETURNING id, created_at, updated_at
	`, firstName, lastName).Scan(&worker.ID, &worker.CreatedAt, &worker.UpdatedAt)
	if err != nil {
		t.Fatalf("Failed to create worker fixture: %v", err)
	}
	return worker
}

// CreateTask inserts a care task with the given completion target
func (f *Fixtures) CreateTask(t *testing.T, name string, targetCount int) *models.CareTask {
	t.Helper()

	task := &models.CareTask{Name: name, TargetCount: targetCount, IsActive: true}
	err := f.DB.QueryRow(`
		INSERT INTO care_tasks (name, target_count, is_active)
		VALUES ($1, $2, TRUE)
		RETURNING id, created_at, updated_at
	`, name, targetCount).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		t.Fatalf("Failed to create task fixture: %v", err)
	}
	return task
}

// CreatePackage inserts a care package
func (f *Fixtures) CreatePackage(t *testing.T, name string) *models.CarePackage {
	t.Helper()

	pkg := &models.CarePackage{Name: name, IsActive: true}
	err := f.DB.QueryRow(`
		INSERT INTO care_packages (name, is_active)
		VALUES ($1, TRUE)
		RETURNING id, created_at, updated_at
	`, name).Scan(&pkg.ID, &pkg.CreatedAt, &pkg.UpdatedAt)
	if err != nil {
		t.Fatalf("Failed to create package fixture: %v", err)
	}
	return pkg
}

// LinkWorker activates a worker↔package link directly
func (f *Fixtures) LinkWorker(t *testing.T, workerID, packageID uint) {
	t.Helper()

	_, err := f.DB.Exec(`
		INSERT INTO worker_package_links (worker_id, package_id, is_active)
		VALUES ($1, $2, TRUE)
		ON CONFLICT (worker_id, package_id) DO UPDATE SET is_active = TRUE
	`, workerID, packageID)
	if err != nil {
		t.Fatalf("Failed to link worker fixture: %v", err)
	}
}

// LinkTask activates a task↔package link directly
func (f *Fixtures) LinkTask(t *testing.T, taskID, packageID uint) {
	t.Helper()

	_, err := f.DB.Exec(`
		INSERT INTO task_package_links (task_id, package_id, is_active)
		VALUES ($1, $2, TRUE)
		ON CONFLICT (task_id, package_id) DO UPDATE SET is_active = TRUE
	`, taskID, packageID)
	if err != nil {
		t.Fatalf("Failed to link task fixture: %v", err)
	}
}

// ProgressCount reads the stored completion count for a triple, -1 when absent
func (f *Fixtures) ProgressCount(t *testing.T, workerID, packageID, taskID uint) int {
	t.Helper()

	var count int
	err := f.DB.QueryRow(`
		SELECT completion_count FROM progress_records
		WHERE worker_id = $1 AND package_id = $2 AND task_id = $3
	`, workerID, packageID, taskID).Scan(&count)
	if err == sql.ErrNoRows {
		return -1
	}
	if err != nil {
		t.Fatalf("Failed to read progress count: %v", err)
	}
	return count
}
