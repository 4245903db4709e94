package repository

import (
	"database/sql"

	"caretrack/internal/models"
)

type ProgressRepository struct {
	db *sql.DB
}

func NewProgressRepository(db *sql.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// GetByKey retrieves the progress record for one (worker, package, task)
// triple, returning nil when absent
func (r *ProgressRepository) GetByKey(workerID, packageID, taskID uint) (*models.ProgressRecord, error) {
	query := `
		SELECT id, worker_id, package_id, task_id, completion_count, completion_percentage, last_updated, created_at
		FROM progress_records
		WHERE worker_id = $1 AND package_id = $2 AND task_id = $3
	`
	var p models.ProgressRecord
	err := r.db.QueryRow(query, workerID, packageID, taskID).Scan(
		&p.ID,
		&p.WorkerID,
		&p.PackageID,
		&p.TaskID,
		&p.CompletionCount,
		&p.CompletionPercentage,
		&p.LastUpdated,
		&p.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpsertTx writes the progress record for one triple, creating it when
// missing. The atomic insert-or-update avoids duplicate-row races when two
// requests hit the same key concurrently.
func (r *ProgressRepository) UpsertTx(tx *sql.Tx, record *models.ProgressRecord) error {
	query := `
		INSERT INTO progress_records (worker_id, package_id, task_id, completion_count, completion_percentage, last_updated)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (worker_id, package_id, task_id)
		DO UPDATE SET
			completion_count = EXCLUDED.completion_count,
			completion_percentage = EXCLUDED.completion_percentage,
			last_updated = NOW()
		RETURNING id, last_updated, created_at
	`
	return tx.QueryRow(
		query,
		record.WorkerID,
		record.PackageID,
		record.TaskID,
		record.CompletionCount,
		record.CompletionPercentage,
	).Scan(&record.ID, &record.LastUpdated, &record.CreatedAt)
}

// SyncLinkedTx overwrites the count and percentage on every progress record
// for the (worker, task) pair in packages where both the worker and the task
// are still actively linked. Records under inactive links are left untouched.
func (r *ProgressRepository) SyncLinkedTx(tx *sql.Tx, workerID, taskID uint, count, percentage int) (int64, error) {
	query := `
		UPDATE progress_records pr
		SET completion_count = $3, completion_percentage = $4, last_updated = NOW()
		WHERE pr.worker_id = $1 AND pr.task_id = $2
		  AND EXISTS (
			SELECT 1 FROM worker_package_links wpl
			WHERE wpl.worker_id = pr.worker_id AND wpl.package_id = pr.package_id AND wpl.is_active = TRUE
		  )
		  AND EXISTS (
			SELECT 1 FROM task_package_links tpl
			WHERE tpl.task_id = pr.task_id AND tpl.package_id = pr.package_id AND tpl.is_active = TRUE
		  )
	`
	result, err := tx.Exec(query, workerID, taskID, count, percentage)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ResetAllTx drives every progress record for the (worker, task) pair to
// zero, in every package regardless of link activity. Used by the cascading
// competency reset, which must not leave stale nonzero progress anywhere.
func (r *ProgressRepository) ResetAllTx(tx *sql.Tx, workerID, taskID uint) (int64, error) {
	query := `
		UPDATE progress_records
		SET completion_count = 0, completion_percentage = 0, last_updated = NOW()
		WHERE worker_id = $1 AND task_id = $2
	`
	result, err := tx.Exec(query, workerID, taskID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// MaxActiveCountTx returns the worker's best completion count for a task
// across all packages they are actively linked to. The boolean reports
// whether any record existed at all.
func (r *ProgressRepository) MaxActiveCountTx(tx *sql.Tx, workerID, taskID uint) (int, bool, error) {
	query := `
		SELECT MAX(pr.completion_count)
		FROM progress_records pr
		JOIN worker_package_links wpl
		  ON wpl.worker_id = pr.worker_id AND wpl.package_id = pr.package_id AND wpl.is_active = TRUE
		WHERE pr.worker_id = $1 AND pr.task_id = $2
	`
	var max sql.NullInt64
	if err := tx.QueryRow(query, workerID, taskID).Scan(&max); err != nil {
		return 0, false, err
	}
	if !max.Valid {
		return 0, false, nil
	}
	return int(max.Int64), true, nil
}

// ListByWorker retrieves a worker's progress matrix across all packages
// they are actively linked to, with task and package names for display
func (r *ProgressRepository) ListByWorker(workerID uint) ([]models.ProgressRecordWithDetails, error) {
	query := `
		SELECT pr.id, pr.worker_id, pr.package_id, pr.task_id,
		       pr.completion_count, pr.completion_percentage, pr.last_updated, pr.created_at,
		       t.name, t.target_count, p.name
		FROM progress_records pr
		JOIN care_tasks t ON t.id = pr.task_id
		JOIN care_packages p ON p.id = pr.package_id
		JOIN worker_package_links wpl
		  ON wpl.worker_id = pr.worker_id AND wpl.package_id = pr.package_id AND wpl.is_active = TRUE
		WHERE pr.worker_id = $1
		ORDER BY p.name, t.name
	`
	return r.queryDetails(query, workerID)
}

// ListByPackage retrieves all progress records within one package
func (r *ProgressRepository) ListByPackage(packageID uint) ([]models.ProgressRecordWithDetails, error) {
	query := `
		SELECT pr.id, pr.worker_id, pr.package_id, pr.task_id,
		       pr.completion_count, pr.completion_percentage, pr.last_updated, pr.created_at,
		       t.name, t.target_count, p.name
		FROM progress_records pr
		JOIN care_tasks t ON t.id = pr.task_id
		JOIN care_packages p ON p.id = pr.package_id
		WHERE pr.package_id = $1
		ORDER BY pr.worker_id, t.name
	`
	return r.queryDetails(query, packageID)
}

func (r *ProgressRepository) queryDetails(query string, arg interface{}) ([]models.ProgressRecordWithDetails, error) {
	rows, err := r.db.Query(query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.ProgressRecordWithDetails
	for rows.Next() {
		var rec models.ProgressRecordWithDetails
		err := rows.Scan(
			&rec.ID,
			&rec.WorkerID,
			&rec.PackageID,
			&rec.TaskID,
			&rec.CompletionCount,
			&rec.CompletionPercentage,
			&rec.LastUpdated,
			&rec.CreatedAt,
			&rec.TaskName,
			&rec.TargetCount,
			&rec.PackageName,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}
