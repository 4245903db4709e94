package repository

import (
	"database/sql"
	"time"

	"caretrack/internal/models"
)

type ConfirmationRepository struct {
	db *sql.DB
}

func NewConfirmationRepository(db *sql.DB) *ConfirmationRepository {
	return &ConfirmationRepository{db: db}
}

// CreateTx inserts a new pending confirmation
func (r *ConfirmationRepository) CreateTx(tx *sql.Tx, c *models.PendingConfirmation) error {
	query := `
		INSERT INTO pending_confirmations (id, worker_id, task_id, new_level, source, proposed_by_id, proposed_by_name, notes, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`
	return tx.QueryRow(
		query,
		c.ID,
		c.WorkerID,
		c.TaskID,
		c.NewLevel,
		c.Source,
		c.ProposedByID,
		c.ProposedByName,
		c.Notes,
		c.ExpiresAt,
	).Scan(&c.CreatedAt)
}

// GetByID retrieves a confirmation by its UUID, nil when absent
func (r *ConfirmationRepository) GetByID(id string) (*models.PendingConfirmation, error) {
	query := `
		SELECT id, worker_id, task_id, new_level, source, proposed_by_id, proposed_by_name,
		       notes, created_at, expires_at, confirmed_at, confirmed
		FROM pending_confirmations
		WHERE id = $1
	`
	var c models.PendingConfirmation
	err := r.db.QueryRow(query, id).Scan(
		&c.ID,
		&c.WorkerID,
		&c.TaskID,
		&c.NewLevel,
		&c.Source,
		&c.ProposedByID,
		&c.ProposedByName,
		&c.Notes,
		&c.CreatedAt,
		&c.ExpiresAt,
		&c.ConfirmedAt,
		&c.Confirmed,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// RejectUnresolvedForPairTx terminalizes every unresolved confirmation for a
// (worker, task) pair as rejected. Used when a newer request supersedes the
// outstanding one, and by the cascading reset.
func (r *ConfirmationRepository) RejectUnresolvedForPairTx(tx *sql.Tx, workerID, taskID uint) (int64, error) {
	query := `
		UPDATE pending_confirmations
		SET confirmed_at = NOW(), confirmed = FALSE
		WHERE worker_id = $1 AND task_id = $2 AND confirmed_at IS NULL
	`
	result, err := tx.Exec(query, workerID, taskID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ResolveTx stamps a confirmation as resolved. The guard on confirmed_at
// makes resolution idempotent-safe under concurrent resolve attempts:
// the second caller updates zero rows.
func (r *ConfirmationRepository) ResolveTx(tx *sql.Tx, id string, confirmed bool) (bool, error) {
	query := `
		UPDATE pending_confirmations
		SET confirmed_at = NOW(), confirmed = $2
		WHERE id = $1 AND confirmed_at IS NULL
	`
	result, err := tx.Exec(query, id, confirmed)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	return affected > 0, err
}

// ListPending retrieves unresolved, unexpired confirmations with worker and
// task names, optionally filtered to one worker
func (r *ConfirmationRepository) ListPending(workerID *uint, now time.Time) ([]models.PendingConfirmation, error) {
	query := `
		SELECT pc.id, pc.worker_id, pc.task_id, pc.new_level, pc.source,
		       pc.proposed_by_id, pc.proposed_by_name, pc.notes,
		       pc.created_at, pc.expires_at, pc.confirmed_at, pc.confirmed,
		       w.first_name || ' ' || w.last_name AS worker_name, t.name AS task_name
		FROM pending_confirmations pc
		JOIN workers w ON w.id = pc.worker_id
		JOIN care_tasks t ON t.id = pc.task_id
		WHERE pc.confirmed_at IS NULL AND pc.expires_at > $1
		  AND ($2::INTEGER IS NULL OR pc.worker_id = $2)
		ORDER BY pc.created_at ASC
	`
	rows, err := r.db.Query(query, now, workerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var confirmations []models.PendingConfirmation
	for rows.Next() {
		var c models.PendingConfirmation
		err := rows.Scan(
			&c.ID,
			&c.WorkerID,
			&c.TaskID,
			&c.NewLevel,
			&c.Source,
			&c.ProposedByID,
			&c.ProposedByName,
			&c.Notes,
			&c.CreatedAt,
			&c.ExpiresAt,
			&c.ConfirmedAt,
			&c.Confirmed,
			&c.WorkerName,
			&c.TaskName,
		)
		if err != nil {
			return nil, err
		}
		confirmations = append(confirmations, c)
	}

	return confirmations, rows.Err()
}

// DeleteExpiredBefore purges unresolved confirmations whose expiry passed
// before the cutoff. Only the retention job calls this; the engine itself
// leaves expired rows inert.
func (r *ConfirmationRepository) DeleteExpiredBefore(cutoff time.Time) (int64, error) {
	query := `DELETE FROM pending_confirmations WHERE confirmed_at IS NULL AND expires_at < $1`
	result, err := r.db.Exec(query, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
