package repository

import (
	"database/sql"

	"caretrack/internal/models"
)

// LinkRepository manages the worker↔package and task↔package join tables.
// Unlinking is always a soft deactivation; rows are kept so historical
// progress remains attributable to the package it was earned in.
type LinkRepository struct {
	db *sql.DB
}

func NewLinkRepository(db *sql.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

// UpsertWorkerLinkTx creates or reactivates a worker↔package link
func (r *LinkRepository) UpsertWorkerLinkTx(tx *sql.Tx, workerID, packageID uint) error {
	query := `
		INSERT INTO worker_package_links (worker_id, package_id, is_active)
		VALUES ($1, $2, TRUE)
		ON CONFLICT (worker_id, package_id)
		DO UPDATE SET is_active = TRUE, updated_at = NOW()
	`
	_, err := tx.Exec(query, workerID, packageID)
	return err
}

// DeactivateWorkerLink soft-unlinks a worker from a package.
// Returns false if no active link existed.
func (r *LinkRepository) DeactivateWorkerLink(workerID, packageID uint) (bool, error) {
	query := `
		UPDATE worker_package_links
		SET is_active = FALSE, updated_at = NOW()
		WHERE worker_id = $1 AND package_id = $2 AND is_active = TRUE
	`
	result, err := r.db.Exec(query, workerID, packageID)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	return affected > 0, err
}

// IsWorkerLinked checks whether a worker is actively linked to a package
func (r *LinkRepository) IsWorkerLinked(workerID, packageID uint) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM worker_package_links
			WHERE worker_id = $1 AND package_id = $2 AND is_active = TRUE
		)
	`
	var exists bool
	err := r.db.QueryRow(query, workerID, packageID).Scan(&exists)
	return exists, err
}

// UpsertTaskLinkTx creates or reactivates a task↔package link
func (r *LinkRepository) UpsertTaskLinkTx(tx *sql.Tx, taskID, packageID uint) error {
	query := `
		INSERT INTO task_package_links (task_id, package_id, is_active)
		VALUES ($1, $2, TRUE)
		ON CONFLICT (task_id, package_id)
		DO UPDATE SET is_active = TRUE, updated_at = NOW()
	`
	_, err := tx.Exec(query, taskID, packageID)
	return err
}

// DeactivateTaskLink soft-unlinks a task from a package.
// Returns false if no active link existed.
func (r *LinkRepository) DeactivateTaskLink(taskID, packageID uint) (bool, error) {
	query := `
		UPDATE task_package_links
		SET is_active = FALSE, updated_at = NOW()
		WHERE task_id = $1 AND package_id = $2 AND is_active = TRUE
	`
	result, err := r.db.Exec(query, taskID, packageID)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	return affected > 0, err
}

// IsTaskLinked checks whether a task is actively linked to a package
func (r *LinkRepository) IsTaskLinked(taskID, packageID uint) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM task_package_links
			WHERE task_id = $1 AND package_id = $2 AND is_active = TRUE
		)
	`
	var exists bool
	err := r.db.QueryRow(query, taskID, packageID).Scan(&exists)
	return exists, err
}

// ActiveTasksForPackageTx retrieves all tasks actively linked to a package
func (r *LinkRepository) ActiveTasksForPackageTx(tx *sql.Tx, packageID uint) ([]models.CareTask, error) {
	query := `
		SELECT t.id, t.name, t.description, t.target_count, t.is_active, t.created_at, t.updated_at
		FROM care_tasks t
		JOIN task_package_links tpl ON tpl.task_id = t.id
		WHERE tpl.package_id = $1 AND tpl.is_active = TRUE
		ORDER BY t.id
	`
	rows, err := tx.Query(query, packageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.CareTask
	for rows.Next() {
		var t models.CareTask
		err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.TargetCount, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}

	return tasks, rows.Err()
}

// ActiveWorkersForPackageTx retrieves all workers actively linked to a package
func (r *LinkRepository) ActiveWorkersForPackageTx(tx *sql.Tx, packageID uint) ([]models.Worker, error) {
	query := `
		SELECT w.id, w.first_name, w.last_name, w.is_active, w.created_at, w.updated_at
		FROM workers w
		JOIN worker_package_links wpl ON wpl.worker_id = w.id
		WHERE wpl.package_id = $1 AND wpl.is_active = TRUE
		ORDER BY w.id
	`
	rows, err := tx.Query(query, packageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workers []models.Worker
	for rows.Next() {
		var w models.Worker
		err := rows.Scan(&w.ID, &w.FirstName, &w.LastName, &w.IsActive, &w.CreatedAt, &w.UpdatedAt)
		if err != nil {
			return nil, err
		}
		workers = append(workers, w)
	}

	return workers, rows.Err()
}
