package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yalicar/string-compliance-iq/internal/normative"
)

// OverrideRepository is the Postgres-backed normative.OverrideStore. One row
// per project/stage; parameters stored as JSONB dotted-path maps.
type OverrideRepository struct {
	pool *pgxpool.Pool
}

// NewOverrideRepository creates a new override repository
func NewOverrideRepository(pool *pgxpool.Pool) *OverrideRepository {
	return &OverrideRepository{pool: pool}
}

var _ normative.OverrideStore = (*OverrideRepository)(nil)

// Get retrieves the override for a project stage. Returns nil, nil when the
// stage has no override; absence is representable, never an error.
func (r *OverrideRepository) Get(ctx context.Context, projectID uuid.UUID, stage string) (*normative.Override, error) {
	query := `
		SELECT project_id, stage, base_standard, params, updated_at
		FROM normative_overrides
		WHERE project_id = $1 AND stage = $2
	`

	ov := &normative.Override{}
	var params []byte
	err := r.pool.QueryRow(ctx, query, projectID, stage).Scan(
		&ov.ProjectID,
		&ov.Stage,
		&ov.BaseStandard,
		&params,
		&ov.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(params, &ov.Params); err != nil {
		return nil, err
	}
	return ov, nil
}

// ListStages returns the stages of a project that carry an override.
func (r *OverrideRepository) ListStages(ctx context.Context, projectID uuid.UUID) ([]string, error) {
	query := `SELECT stage FROM normative_overrides WHERE project_id = $1 ORDER BY stage`

	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stages []string
	for rows.Next() {
		var stage string
		if err := rows.Scan(&stage); err != nil {
			return nil, err
		}
		stages = append(stages, stage)
	}
	return stages, rows.Err()
}

// Put upserts the override for a project stage.
func (r *OverrideRepository) Put(ctx context.Context, ov *normative.Override) error {
	if ov == nil {
		return errors.New("override cannot be nil")
	}
	params, err := json.Marshal(ov.Params)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO normative_overrides (project_id, stage, base_standard, params, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (project_id, stage)
		DO UPDATE SET base_standard = $3, params = $4, updated_at = $5
	`

	_, err = r.pool.Exec(ctx, query, ov.ProjectID, ov.Stage, ov.BaseStandard, params, ov.UpdatedAt)
	return err
}

// Delete removes the override for a project stage. Deleting an absent
// override is a no-op.
func (r *OverrideRepository) Delete(ctx context.Context, projectID uuid.UUID, stage string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM normative_overrides WHERE project_id = $1 AND stage = $2`,
		projectID, stage)
	return err
}
