package repository

import (
	"database/sql"

	"caretrack/internal/models"
)

type CompetencyRepository struct {
	db *sql.DB
}

func NewCompetencyRepository(db *sql.DB) *CompetencyRepository {
	return &CompetencyRepository{db: db}
}

const competencyColumns = `id, worker_id, task_id, level, source, set_by_admin_id, set_by_admin_name, notes, set_at, created_at, updated_at`

// Get retrieves the global rating for a (worker, task) pair, nil when absent
func (r *CompetencyRepository) Get(workerID, taskID uint) (*models.CompetencyRating, error) {
	query := `SELECT ` + competencyColumns + ` FROM competency_ratings WHERE worker_id = $1 AND task_id = $2`
	return scanRating(r.db.QueryRow(query, workerID, taskID))
}

// GetTx is Get inside an open transaction, used by the gatekeeper's
// check-then-act under the pair's advisory lock
func (r *CompetencyRepository) GetTx(tx *sql.Tx, workerID, taskID uint) (*models.CompetencyRating, error) {
	query := `SELECT ` + competencyColumns + ` FROM competency_ratings WHERE worker_id = $1 AND task_id = $2`
	return scanRating(tx.QueryRow(query, workerID, taskID))
}

// UpsertTx writes the rating for a pair, creating or replacing it.
// The unique key on (worker_id, task_id) keeps the rating a singleton.
func (r *CompetencyRepository) UpsertTx(tx *sql.Tx, rating *models.CompetencyRating) error {
	query := `
		INSERT INTO competency_ratings (worker_id, task_id, level, source, set_by_admin_id, set_by_admin_name, notes, set_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (worker_id, task_id)
		DO UPDATE SET
			level = EXCLUDED.level,
			source = EXCLUDED.source,
			set_by_admin_id = EXCLUDED.set_by_admin_id,
			set_by_admin_name = EXCLUDED.set_by_admin_name,
			notes = EXCLUDED.notes,
			set_at = NOW(),
			updated_at = NOW()
		RETURNING id, set_at, created_at, updated_at
	`
	return tx.QueryRow(
		query,
		rating.WorkerID,
		rating.TaskID,
		rating.Level,
		rating.Source,
		rating.SetByAdminID,
		rating.SetByAdminName,
		rating.Notes,
	).Scan(&rating.ID, &rating.SetAt, &rating.CreatedAt, &rating.UpdatedAt)
}

// DeleteTx removes the rating for a pair, reporting whether one existed
func (r *CompetencyRepository) DeleteTx(tx *sql.Tx, workerID, taskID uint) (bool, error) {
	result, err := tx.Exec(`DELETE FROM competency_ratings WHERE worker_id = $1 AND task_id = $2`, workerID, taskID)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	return affected > 0, err
}

// ListByWorker retrieves all of a worker's ratings with task names
func (r *CompetencyRepository) ListByWorker(workerID uint) ([]models.CompetencyRatingWithDetails, error) {
	query := `
		SELECT cr.id, cr.worker_id, cr.task_id, cr.level, cr.source,
		       cr.set_by_admin_id, cr.set_by_admin_name, cr.notes,
		       cr.set_at, cr.created_at, cr.updated_at, t.name
		FROM competency_ratings cr
		JOIN care_tasks t ON t.id = cr.task_id
		WHERE cr.worker_id = $1
		ORDER BY t.name
	`
	rows, err := r.db.Query(query, workerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ratings []models.CompetencyRatingWithDetails
	for rows.Next() {
		var rating models.CompetencyRatingWithDetails
		err := rows.Scan(
			&rating.ID,
			&rating.WorkerID,
			&rating.TaskID,
			&rating.Level,
			&rating.Source,
			&rating.SetByAdminID,
			&rating.SetByAdminName,
			&rating.Notes,
			&rating.SetAt,
			&rating.CreatedAt,
			&rating.UpdatedAt,
			&rating.TaskName,
		)
		if err != nil {
			return nil, err
		}
		ratings = append(ratings, rating)
	}

	return ratings, rows.Err()
}

func scanRating(row *sql.Row) (*models.CompetencyRating, error) {
	var rating models.CompetencyRating
	err := row.Scan(
		&rating.ID,
		&rating.WorkerID,
		&rating.TaskID,
		&rating.Level,
		&rating.Source,
		&rating.SetByAdminID,
		&rating.SetByAdminName,
		&rating.Notes,
		&rating.SetAt,
		&rating.CreatedAt,
		&rating.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rating, nil
}
