package repository

import (
	"database/sql"

	"caretrack/internal/models"
)

type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts a new trackable task
func (r *TaskRepository) Create(task *models.CareTask) error {
	query := `
		INSERT INTO care_tasks (name, description, target_count, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(
		query,
		task.Name,
		task.Description,
		task.TargetCount,
		task.IsActive,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
}

// GetByID retrieves a task by ID, returning nil when absent
func (r *TaskRepository) GetByID(id uint) (*models.CareTask, error) {
	query := `
		SELECT id, name, description, target_count, is_active, created_at, updated_at
		FROM care_tasks
		WHERE id = $1
	`
	var t models.CareTask
	err := r.db.QueryRow(query, id).Scan(
		&t.ID,
		&t.Name,
		&t.Description,
		&t.TargetCount,
		&t.IsActive,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// List retrieves all tasks ordered by name
func (r *TaskRepository) List() ([]models.CareTask, error) {
	query := `
		SELECT id, name, description, target_count, is_active, created_at, updated_at
		FROM care_tasks
		ORDER BY name
	`
	rows, err := r.db.Query(query)
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
