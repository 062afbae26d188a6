package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yalicar/string-compliance-iq/internal/models"
)

// CircuitRecordRepository handles data access for circuit rows parsed from CSV uploads
type CircuitRecordRepository struct {
	pool *pgxpool.Pool
}

// NewCircuitRecordRepository creates a new circuit record repository
func NewCircuitRecordRepository(pool *pgxpool.Pool) *CircuitRecordRepository {
	return &CircuitRecordRepository{pool: pool}
}

// BulkInsert performs a batch insert of circuit records using parameterized queries
func (r *CircuitRecordRepository) BulkInsert(ctx context.Context, records []models.CircuitRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}

	query := `
		INSERT INTO circuit_records (
			id, upload_id, project_id, string_id, length_pos_m, length_neg_m,
			raw_data, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
	`

	for _, record := range records {
		batch.Queue(
			query,
			record.ID,
			record.UploadID,
			record.ProjectID,
			record.StringID,
			record.LengthPosM,
			record.LengthNegM,
			record.RawData,
			record.CreatedAt,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(records); i++ {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}

	return nil
}

// GetByUpload retrieves all circuit records for a given upload, in row order
func (r *CircuitRecordRepository) GetByUpload(ctx context.Context, uploadID uuid.UUID) ([]models.CircuitRecord, error) {
	query := `
		SELECT id, upload_id, project_id, string_id, length_pos_m, length_neg_m,
		       raw_data, created_at
		FROM circuit_records
		WHERE upload_id = $1
		ORDER BY created_at ASC, string_id ASC
	`

	rows, err := r.pool.Query(ctx, query, uploadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.CircuitRecord
	for rows.Next() {
		record := models.CircuitRecord{}
		err := rows.Scan(
			&record.ID,
			&record.UploadID,
			&record.ProjectID,
			&record.StringID,
			&record.LengthPosM,
			&record.LengthNegM,
			&record.RawData,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// CountByUpload returns the total number of circuit records for a given upload
func (r *CircuitRecordRepository) CountByUpload(ctx context.Context, uploadID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM circuit_records
		WHERE upload_id = $1
	`

	var count int
	err := r.pool.QueryRow(ctx, query, uploadID).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// DeleteByUpload removes all circuit records belonging to an upload.
func (r *CircuitRecordRepository) DeleteByUpload(ctx context.Context, uploadID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM circuit_records WHERE upload_id = $1`, uploadID)
	return err
}
