package normative

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Override is one stored per-(project, stage) parameter override: the base
// standard it modifies plus the dotted-path parameter values that replace
// the catalog defaults.
type Override struct {
	ProjectID    uuid.UUID      `json:"project_id"`
	Stage        string         `json:"stage"`
	BaseStandard Standard       `json:"base_standard"`
	Params       map[string]any `json:"params"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// OverrideStore is the boundary to the override persistence collaborator.
// The production implementation is the Postgres repository; tests use an
// in-memory fake. Absence of an override is a normal state: Get returns
// (nil, nil), never an error, when nothing is stored.
type OverrideStore interface {
	Get(ctx context.Context, projectID uuid.UUID, stage string) (*Override, error)
	ListStages(ctx context.Context, projectID uuid.UUID) ([]string, error)
	Put(ctx context.Context, ov *Override) error
	Delete(ctx context.Context, projectID uuid.UUID, stage string) error
}
