package repository

import (
	"database/sql"

	"caretrack/internal/models"
)

type WorkerRepository struct {
	db *sql.DB
}

func NewWorkerRepository(db *sql.DB) *WorkerRepository {
	return &WorkerRepository{db: db}
}

// Create inserts a new worker mirror record
func (r *WorkerRepository) Create(worker *models.Worker) error {
	query := `
		INSERT INTO workers (first_name, last_name, is_active)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(
		query,
		worker.FirstName,
		worker.LastName,
		worker.IsActive,
	).Scan(&worker.ID, &worker.CreatedAt, &worker.UpdatedAt)
}

// GetByID retrieves a worker by ID, returning nil when absent
func (r *WorkerRepository) GetByID(id uint) (*models.Worker, error) {
	query := `
		SELECT id, first_name, last_name, is_active, created_at, updated_at
		FROM workers
		WHERE id = $1
	`
	var w models.Worker
	err := r.db.QueryRow(query, id).Scan(
		&w.ID,
		&w.FirstName,
		&w.LastName,
		&w.IsActive,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// List retrieves all workers ordered by name
func (r *WorkerRepository) List() ([]models.Worker, error) {
	query := `
		SELECT id, first_name, last_name, is_active, created_at, updated_at
		FROM workers
		ORDER BY last_name, first_name
	`
	rows, err := r.db.Query(query)
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

// SetActive updates the active flag on a worker
func (r *WorkerRepository) SetActive(id uint, active bool) error {
	query := `UPDATE workers SET is_active = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.db.Exec(query, id, active)
	return err
}
