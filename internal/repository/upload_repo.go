package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yalicar/string-compliance-iq/internal/models"
)

// UploadRepository handles data access for upload records
type UploadRepository struct {
	pool *pgxpool.Pool
}

// NewUploadRepository creates a new upload repository
func NewUploadRepository(pool *pgxpool.Pool) *UploadRepository {
	return &UploadRepository{pool: pool}
}

// uploadColumns is the canonical column list for uploads, used across all queries.
const uploadColumns = `id, project_id, filename, file_size, status, validation_status,
	row_count, warnings, errors, content_hash, created_at, updated_at`

// scanUpload scans a row into an Upload struct using the canonical column order.
func scanUpload(row pgx.Row, upload *models.Upload) error {
	return row.Scan(
		&upload.ID,
		&upload.ProjectID,
		&upload.Filename,
		&upload.FileSize,
		&upload.Status,
		&upload.ValidationStatus,
		&upload.RowCount,
		&upload.Warnings,
		&upload.Errors,
		&upload.ContentHash,
		&upload.CreatedAt,
		&upload.UpdatedAt,
	)
}

// Create inserts a new upload record
func (r *UploadRepository) Create(ctx context.Context, upload *models.Upload) error {
	if upload == nil {
		return errors.New("upload cannot be nil")
	}

	query := `
		INSERT INTO uploads (
			id, project_id, filename, file_size, status, validation_status,
			row_count, warnings, errors, content_hash, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
		RETURNING ` + uploadColumns

	return scanUpload(r.pool.QueryRow(
		ctx, query,
		upload.ID, upload.ProjectID, upload.Filename, upload.FileSize,
		upload.Status, upload.ValidationStatus, upload.RowCount,
		upload.Warnings, upload.Errors, upload.ContentHash,
		upload.CreatedAt, upload.UpdatedAt,
	), upload)
}

// GetByID retrieves an upload by ID, scoped to the project
func (r *UploadRepository) GetByID(ctx context.Context, projectID, uploadID uuid.UUID) (*models.Upload, error) {
	query := `SELECT ` + uploadColumns + ` FROM uploads WHERE id = $1 AND project_id = $2`
	upload := &models.Upload{}
	err := scanUpload(r.pool.QueryRow(ctx, query, uploadID, projectID), upload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return upload, nil
}

// GetByContentHash retrieves an upload by SHA-256 content hash, scoped to the project.
// Returns nil, nil if no match found.
func (r *UploadRepository) GetByContentHash(ctx context.Context, projectID uuid.UUID, hash string) (*models.Upload, error) {
	query := `SELECT ` + uploadColumns + ` FROM uploads WHERE project_id = $1 AND content_hash = $2`
	upload := &models.Upload{}
	err := scanUpload(r.pool.QueryRow(ctx, query, projectID, hash), upload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return upload, nil
}

// Latest retrieves the most recent completed upload for a project.
// Returns nil, nil if the project has no uploads.
func (r *UploadRepository) Latest(ctx context.Context, projectID uuid.UUID) (*models.Upload, error) {
	query := `SELECT ` + uploadColumns + ` FROM uploads
		WHERE project_id = $1 AND status = 'completed'
		ORDER BY created_at DESC LIMIT 1`
	upload := &models.Upload{}
	err := scanUpload(r.pool.QueryRow(ctx, query, projectID), upload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return upload, nil
}

// Update updates an upload record
func (r *UploadRepository) Update(ctx context.Context, upload *models.Upload) error {
	if upload == nil {
		return errors.New("upload cannot be nil")
	}

	query := `
		UPDATE uploads
		SET filename = $3, file_size = $4,
		    status = $5, validation_status = $6, row_count = $7,
		    warnings = $8, errors = $9, content_hash = $10, updated_at = $11
		WHERE id = $1 AND project_id = $2
		RETURNING ` + uploadColumns

	err := scanUpload(r.pool.QueryRow(
		ctx, query,
		upload.ID, upload.ProjectID, upload.Filename, upload.FileSize,
		upload.Status, upload.ValidationStatus, upload.RowCount,
		upload.Warnings, upload.Errors, upload.ContentHash, upload.UpdatedAt,
	), upload)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errors.New("upload not found")
		}
		return err
	}
	return nil
}
