package normative

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yalicar/string-compliance-iq/internal/faults"
)

// State is the override lifecycle state for one (project, stage) pair.
type State string

const (
	StateNoOverride     State = "NO_OVERRIDE"
	StatePendingLoad    State = "OVERRIDE_PENDING_LOAD"
	StateOverrideActive State = "OVERRIDE_ACTIVE"
	StateLoadFailed     State = "LOAD_FAILED"
)

var (
	// ErrNoActiveOverride rejects update/reset calls issued while no override
	// exists. This is a programming error in the caller, not a cue to create:
	// update is never silently converted to create.
	ErrNoActiveOverride = errors.New("no active override for this project and stage")
	// ErrOverrideExists rejects create calls while an override is already active.
	ErrOverrideExists = errors.New("override already exists for this project and stage")
	// ErrConfirmationRequired rejects a reset that was not explicitly confirmed.
	// The delete is irreversible, so the confirmation must happen upstream of
	// the destructive call.
	ErrConfirmationRequired = errors.New("reset requires explicit confirmation")
)

// StageStatus reports whether a single stage carries an override.
type StageStatus struct {
	OverrideExists bool `json:"override_exists"`
}

// ProjectStatus is the per-project override summary consumed by the UI and
// the report synthesizer's compliance-standard section.
type ProjectStatus struct {
	ProjectID       uuid.UUID              `json:"project_id"`
	HasCustomConfig bool                   `json:"has_custom_config"`
	Stages          map[string]StageStatus `json:"stages"`
}

type stageKey struct {
	project uuid.UUID
	stage   string
}

type editBuffer struct {
	params map[string]any
	dirty  bool
}

// Manager tracks per-(project, stage) override state and mediates all
// create/update/reset transitions against the override store. It also owns
// the dirty-edit buffer for unsaved parameter edits; nothing outside this
// type reads or mutates that buffer, keeping "what the user is editing"
// isolated from "what was last calculated".
type Manager struct {
	store   OverrideStore
	catalog *Catalog
	logger  *slog.Logger

	mu     sync.Mutex
	states map[stageKey]State
	edits  map[stageKey]*editBuffer
}

// NewManager creates an override manager over the given store and catalog.
func NewManager(store OverrideStore, catalog *Catalog) *Manager {
	return &Manager{
		store:   store,
		catalog: catalog,
		logger:  slog.Default().With(slog.String("service", "normative-manager")),
		states:  make(map[stageKey]State),
		edits:   make(map[stageKey]*editBuffer),
	}
}

// State returns the tracked state for a (project, stage) pair. Pairs that
// were never synchronized default to NO_OVERRIDE, so calculations with the
// base standard are always possible.
func (m *Manager) State(projectID uuid.UUID, stage string) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.states[stageKey{projectID, stage}]; ok {
		return s
	}
	return StateNoOverride
}

// CheckStatus synchronizes the tracked states from the store and returns the
// project's override summary. It is read-only and idempotent. On transport
// failure it degrades: every stage is reported as NO_OVERRIDE (tracked as
// LOAD_FAILED internally) and the error is returned for surfacing, but the
// degraded status remains usable.
func (m *Manager) CheckStatus(ctx context.Context, projectID uuid.UUID) (ProjectStatus, error) {
	status := ProjectStatus{
		ProjectID: projectID,
		Stages:    make(map[string]StageStatus, len(Stages)),
	}

	m.mu.Lock()
	for _, stage := range Stages {
		m.states[stageKey{projectID, stage}] = StatePendingLoad
	}
	m.mu.Unlock()

	stored, err := m.store.ListStages(ctx, projectID)
	if err != nil {
		m.mu.Lock()
		for _, stage := range Stages {
			m.states[stageKey{projectID, stage}] = StateLoadFailed
			status.Stages[stage] = StageStatus{}
		}
		m.mu.Unlock()
		m.logger.Warn("override status check failed, degrading to no overrides",
			slog.String("project_id", projectID.String()),
			slog.String("error", err.Error()))
		return status, faults.Transport("check override status", err)
	}

	existing := make(map[string]bool, len(stored))
	for _, stage := range stored {
		existing[stage] = true
	}

	m.mu.Lock()
	for _, stage := range Stages {
		has := existing[stage]
		status.Stages[stage] = StageStatus{OverrideExists: has}
		if has {
			m.states[stageKey{projectID, stage}] = StateOverrideActive
			status.HasCustomConfig = true
		} else {
			m.states[stageKey{projectID, stage}] = StateNoOverride
		}
	}
	m.mu.Unlock()

	return status, nil
}

// EffectiveParameters returns the parameter set the calculation service
// should use for a stage: the base standard merged with the project override
// when one exists. On transport failure reading the override it degrades to
// the base set and reports the error; the base standard remains usable.
func (m *Manager) EffectiveParameters(ctx context.Context, projectID uuid.UUID, stage string, std Standard) (ParameterSet, bool, error) {
	base, err := m.catalog.Base(std)
	if err != nil {
		return ParameterSet{}, false, err
	}
	if !KnownStage(stage) {
		return ParameterSet{}, false, faults.Validation("stage", "unknown stage %q", stage)
	}

	ov, err := m.store.Get(ctx, projectID, stage)
	if err != nil {
		m.setState(projectID, stage, StateLoadFailed)
		return base, false, faults.Transport("load override", err)
	}
	if ov == nil {
		m.setState(projectID, stage, StateNoOverride)
		return base, false, nil
	}

	overrideBase, err := m.catalog.Base(ov.BaseStandard)
	if err != nil {
		return ParameterSet{}, false, err
	}
	resolved, err := Resolve(overrideBase, ov.Params)
	if err != nil {
		return ParameterSet{}, false, err
	}
	m.setState(projectID, stage, StateOverrideActive)
	return resolved, true, nil
}

// CreateOverride validates and persists a new override. The base standard
// must be recognized and every parameter is checked structurally before any
// write. On store failure the state remains NO_OVERRIDE and the failure is
// surfaced to the caller.
func (m *Manager) CreateOverride(ctx context.Context, projectID uuid.UUID, stage string, base Standard, params map[string]any) error {
	if !KnownStage(stage) {
		return faults.Validation("stage", "unknown stage %q", stage)
	}
	baseSet, err := m.catalog.Base(base)
	if err != nil {
		return err
	}
	if err := ValidateOverrides(params, baseSet); err != nil {
		return err
	}
	if m.State(projectID, stage) == StateOverrideActive {
		return ErrOverrideExists
	}

	ov := &Override{
		ProjectID:    projectID,
		Stage:        stage,
		BaseStandard: base,
		Params:       params,
		UpdatedAt:    time.Now().UTC(),
	}
	if err := m.store.Put(ctx, ov); err != nil {
		return faults.Transport("create override", err)
	}
	m.setState(projectID, stage, StateOverrideActive)
	m.logger.Info("override created",
		slog.String("project_id", projectID.String()),
		slog.String("stage", stage),
		slog.String("base_norm", string(base)),
		slog.Int("param_count", len(params)))
	return nil
}

// UpdateOverride replaces parameter values on an existing override. It is
// valid only while the state is OVERRIDE_ACTIVE: calling it with no active
// override is rejected locally, without a network call. On store failure the
// caller's edit buffer is untouched so unsaved edits survive.
func (m *Manager) UpdateOverride(ctx context.Context, projectID uuid.UUID, stage string, params map[string]any) error {
	if m.State(projectID, stage) != StateOverrideActive {
		return ErrNoActiveOverride
	}

	existing, err := m.store.Get(ctx, projectID, stage)
	if err != nil {
		return faults.Transport("load override", err)
	}
	if existing == nil {
		// The store diverged from our tracked state (external delete).
		m.setState(projectID, stage, StateNoOverride)
		return ErrNoActiveOverride
	}

	baseSet, err := m.catalog.Base(existing.BaseStandard)
	if err != nil {
		return err
	}
	if err := ValidateOverrides(params, baseSet); err != nil {
		return err
	}

	merged := make(map[string]any, len(existing.Params)+len(params))
	for k, v := range existing.Params {
		merged[k] = v
	}
	for k, v := range params {
		merged[k] = v
	}

	updated := &Override{
		ProjectID:    projectID,
		Stage:        stage,
		BaseStandard: existing.BaseStandard,
		Params:       merged,
		UpdatedAt:    time.Now().UTC(),
	}
	if err := m.store.Put(ctx, updated); err != nil {
		return faults.Transport("update override", err)
	}
	return nil
}

// ResetOverride deletes an override, reverting the stage to the base
// standard. The delete is irreversible and therefore requires the caller to
// have collected an explicit confirmation first; unconfirmed calls are
// rejected before any network traffic.
func (m *Manager) ResetOverride(ctx context.Context, projectID uuid.UUID, stage string, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	if m.State(projectID, stage) != StateOverrideActive {
		return ErrNoActiveOverride
	}
	if err := m.store.Delete(ctx, projectID, stage); err != nil {
		return faults.Transport("delete override", err)
	}

	key := stageKey{projectID, stage}
	m.mu.Lock()
	m.states[key] = StateNoOverride
	delete(m.edits, key)
	m.mu.Unlock()

	m.logger.Info("override reset to base standard",
		slog.String("project_id", projectID.String()),
		slog.String("stage", stage))
	return nil
}

// CopyBaseToAllStages seeds every known stage with an editable copy of the
// chosen base standard's parameter values, creating or replacing overrides.
func (m *Manager) CopyBaseToAllStages(ctx context.Context, projectID uuid.UUID, std Standard) ([]string, error) {
	baseSet, err := m.catalog.Base(std)
	if err != nil {
		return nil, err
	}

	flattened := make(map[string]any)
	for secName, sec := range baseSet.Sections {
		for pName, p := range sec.Parameters {
			flattened[secName+"."+pName] = p.Value
		}
	}

	seeded := make([]string, 0, len(Stages))
	for _, stage := range Stages {
		ov := &Override{
			ProjectID:    projectID,
			Stage:        stage,
			BaseStandard: std,
			Params:       flattened,
			UpdatedAt:    time.Now().UTC(),
		}
		if err := m.store.Put(ctx, ov); err != nil {
			return seeded, faults.Transport("copy base standard", err)
		}
		m.setState(projectID, stage, StateOverrideActive)
		seeded = append(seeded, stage)
	}
	return seeded, nil
}

func (m *Manager) setState(projectID uuid.UUID, stage string, s State) {
	m.mu.Lock()
	m.states[stageKey{projectID, stage}] = s
	m.mu.Unlock()
}
