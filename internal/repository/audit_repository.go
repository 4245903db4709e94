package repository

import (
	"database/sql"
	"time"

	"caretrack/internal/models"
)

type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create inserts an audit log entry
func (r *AuditRepository) Create(log *models.AuditLog) error {
	query := `
		INSERT INTO audit_logs (actor_id, actor_name, action, entity_type, entity_id, before_state, after_state, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`
	return r.db.QueryRow(
		query,
		log.ActorID,
		log.ActorName,
		log.Action,
		log.EntityType,
		log.EntityID,
		log.BeforeState,
		log.AfterState,
		log.IPAddress,
		log.UserAgent,
	).Scan(&log.ID, &log.CreatedAt)
}

// List retrieves audit entries newest first, optionally filtered by action
func (r *AuditRepository) List(action string, limit, offset int) ([]models.AuditLog, error) {
	query := `
		SELECT id, actor_id, actor_name, action, entity_type, entity_id,
		       before_state, after_state, ip_address, user_agent, created_at
		FROM audit_logs
		WHERE ($1 = '' OR action = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(query, action, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.AuditLog
	for rows.Next() {
		var l models.AuditLog
		err := rows.Scan(
			&l.ID,
			&l.ActorID,
			&l.ActorName,
			&l.Action,
			&l.EntityType,
			&l.EntityID,
			&l.BeforeState,
			&l.AfterState,
			&l.IPAddress,
			&l.UserAgent,
			&l.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}

	return logs, rows.Err()
}

// DeleteOlderThan prunes audit entries created before the cutoff
func (r *AuditRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM audit_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
