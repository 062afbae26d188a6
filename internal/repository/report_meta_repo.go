package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yalicar/string-compliance-iq/internal/models"
)

// ReportMetaRepository records metadata about generated reports. Only the
// metadata is stored; the documents themselves are handed to the render
// service and never persisted here.
type ReportMetaRepository struct {
	pool *pgxpool.Pool
}

// NewReportMetaRepository creates a new report metadata repository
func NewReportMetaRepository(pool *pgxpool.Pool) *ReportMetaRepository {
	return &ReportMetaRepository{pool: pool}
}

// Create inserts a report metadata row
func (r *ReportMetaRepository) Create(ctx context.Context, meta *models.ReportMeta) error {
	if meta == nil {
		return errors.New("report metadata cannot be nil")
	}

	query := `
		INSERT INTO report_meta (id, project_id, stage, norm_standard, filename, size_bytes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		meta.ID, meta.ProjectID, meta.Stage, meta.NormStandard,
		meta.Filename, meta.SizeBytes, meta.CreatedAt)
	return err
}

// ListByProject returns a project's generated reports, newest first.
func (r *ReportMetaRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.ReportMeta, error) {
	query := `
		SELECT id, project_id, stage, norm_standard, filename, size_bytes, created_at
		FROM report_meta
		WHERE project_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metas []models.ReportMeta
	for rows.Next() {
		var m models.ReportMeta
		err := rows.Scan(&m.ID, &m.ProjectID, &m.Stage, &m.NormStandard,
			&m.Filename, &m.SizeBytes, &m.CreatedAt)
		if err != nil {
			return nil, err
		}
		metas = append(metas, m)
	}
	return metas, rows.Err()
}
