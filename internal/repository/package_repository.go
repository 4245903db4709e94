package repository

import (
	"database/sql"

	"caretrack/internal/models"
)

type PackageRepository struct {
	db *sql.DB
}

func NewPackageRepository(db *sql.DB) *PackageRepository {
	return &PackageRepository{db: db}
}

// Create inserts a new care package
func (r *PackageRepository) Create(pkg *models.CarePackage) error {
	query := `
		INSERT INTO care_packages (name, is_active)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(query, pkg.Name, pkg.IsActive).Scan(&pkg.ID, &pkg.CreatedAt, &pkg.UpdatedAt)
}

// GetByID retrieves a care package by ID, returning nil when absent
func (r *PackageRepository) GetByID(id uint) (*models.CarePackage, error) {
	query := `
		SELECT id, name, is_active, created_at, updated_at
		FROM care_packages
		WHERE id = $1
	`
	var p models.CarePackage
	err := r.db.QueryRow(query, id).Scan(&p.ID, &p.Name, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List retrieves all care packages ordered by name
func (r *PackageRepository) List() ([]models.CarePackage, error) {
	query := `
		SELECT id, name, is_active, created_at, updated_at
		FROM care_packages
		ORDER BY name
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var packages []models.CarePackage
	for rows.Next() {
		var p models.CarePackage
		if err := rows.Scan(&p.ID, &p.Name, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		packages = append(packages, p)
	}

	return packages, rows.Err()
}
