package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yalicar/string-compliance-iq/internal/models"
)

// ProjectRepository handles data access for projects
type ProjectRepository struct {
	pool *pgxpool.Pool
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(pool *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{pool: pool}
}

// projectColumns is the canonical column list for projects, used across all queries.
const projectColumns = `id, name, location, client, engineer, capacity_kwp,
	module_type, inverter_type, created_at, updated_at`

// scanProject scans a row into a Project struct using the canonical column order.
func scanProject(row pgx.Row, p *models.Project) error {
	return row.Scan(
		&p.ID,
		&p.Name,
		&p.Location,
		&p.Client,
		&p.Engineer,
		&p.CapacityKWp,
		&p.ModuleType,
		&p.InverterType,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}

// Create inserts a new project
func (r *ProjectRepository) Create(ctx context.Context, p *models.Project) error {
	if p == nil {
		return errors.New("project cannot be nil")
	}

	query := `
		INSERT INTO projects (
			id, name, location, client, engineer, capacity_kwp,
			module_type, inverter_type, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
		RETURNING ` + projectColumns

	return scanProject(r.pool.QueryRow(
		ctx, query,
		p.ID, p.Name, p.Location, p.Client, p.Engineer, p.CapacityKWp,
		p.ModuleType, p.InverterType, p.CreatedAt, p.UpdatedAt,
	), p)
}

// GetByID retrieves a project by ID. Returns nil, nil when not found.
func (r *ProjectRepository) GetByID(ctx context.Context, projectID uuid.UUID) (*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`
	p := &models.Project{}
	err := scanProject(r.pool.QueryRow(ctx, query, projectID), p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// GetByName retrieves a project by its unique name. Returns nil, nil when not found.
func (r *ProjectRepository) GetByName(ctx context.Context, name string) (*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE name = $1`
	p := &models.Project{}
	err := scanProject(r.pool.QueryRow(ctx, query, name), p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// List returns projects ordered by most recently updated.
func (r *ProjectRepository) List(ctx context.Context, limit, offset int) ([]models.Project, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM projects`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + projectColumns + ` FROM projects ORDER BY updated_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var p models.Project
		if err := scanProject(rows, &p); err != nil {
			return nil, 0, err
		}
		projects = append(projects, p)
	}
	return projects, total, rows.Err()
}

// Update updates a project's metadata
func (r *ProjectRepository) Update(ctx context.Context, p *models.Project) error {
	if p == nil {
		return errors.New("project cannot be nil")
	}

	query := `
		UPDATE projects
		SET name = $2, location = $3, client = $4, engineer = $5,
		    capacity_kwp = $6, module_type = $7, inverter_type = $8, updated_at = $9
		WHERE id = $1
		RETURNING ` + projectColumns

	err := scanProject(r.pool.QueryRow(
		ctx, query,
		p.ID, p.Name, p.Location, p.Client, p.Engineer,
		p.CapacityKWp, p.ModuleType, p.InverterType, p.UpdatedAt,
	), p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errors.New("project not found")
		}
		return err
	}
	return nil
}
