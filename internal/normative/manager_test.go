package normative

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yalicar/string-compliance-iq/internal/faults"
)

// fakeStore is an in-memory OverrideStore with failure injection and call
// counting, used to assert which operations reach the wire.
type fakeStore struct {
	overrides map[string]*Override
	failNext  error
	calls     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{overrides: make(map[string]*Override)}
}

func (f *fakeStore) key(projectID uuid.UUID, stage string) string {
	return projectID.String() + "/" + stage
}

func (f *fakeStore) takeErr() error {
	err := f.failNext
	f.failNext = nil
	return err
}

func (f *fakeStore) Get(_ context.Context, projectID uuid.UUID, stage string) (*Override, error) {
	f.calls++
	if err := f.takeErr(); err != nil {
		return nil, err
	}
	return f.overrides[f.key(projectID, stage)], nil
}

func (f *fakeStore) ListStages(_ context.Context, projectID uuid.UUID) ([]string, error) {
	f.calls++
	if err := f.takeErr(); err != nil {
		return nil, err
	}
	var stages []string
	for _, ov := range f.overrides {
		if ov.ProjectID == projectID {
			stages = append(stages, ov.Stage)
		}
	}
	return stages, nil
}

func (f *fakeStore) Put(_ context.Context, ov *Override) error {
	f.calls++
	if err := f.takeErr(); err != nil {
		return err
	}
	f.overrides[f.key(ov.ProjectID, ov.Stage)] = ov
	return nil
}

func (f *fakeStore) Delete(_ context.Context, projectID uuid.UUID, stage string) error {
	f.calls++
	if err := f.takeErr(); err != nil {
		return err
	}
	delete(f.overrides, f.key(projectID, stage))
	return nil
}

func newTestManager(t *testing.T) (*Manager, *fakeStore) {
	t.Helper()
	catalog, err := LoadCatalog()
	require.NoError(t, err, "embedded standards catalog must parse")
	store := newFakeStore()
	return NewManager(store, catalog), store
}

func TestCheckStatus_NoOverrides(t *testing.T) {
	m, _ := newTestManager(t)
	projectID := uuid.New()

	status, err := m.CheckStatus(context.Background(), projectID)
	require.NoError(t, err, "absence of configuration is a normal state, not an error")

	assert.False(t, status.HasCustomConfig)
	assert.Len(t, status.Stages, len(Stages), "every known stage must be reported")
	for stage, st := range status.Stages {
		assert.False(t, st.OverrideExists, "stage %s should have no override", stage)
	}
}

func TestCheckStatus_TransportFailureDegrades(t *testing.T) {
	m, store := newTestManager(t)
	projectID := uuid.New()
	store.failNext = errors.New("connection refused")

	status, err := m.CheckStatus(context.Background(), projectID)
	require.Error(t, err)
	assert.True(t, faults.IsTransport(err), "status-check failures surface as transport errors")

	// Degraded status is still usable: base-standard calculations proceed.
	assert.False(t, status.HasCustomConfig)
	assert.Len(t, status.Stages, len(Stages))
	assert.Equal(t, StateLoadFailed, m.State(projectID, "dc_strings"))
}

func TestCreateOverride_Lifecycle(t *testing.T) {
	m, store := newTestManager(t)
	projectID := uuid.New()
	ctx := context.Background()

	params := map[string]any{"voltage_drop.max_percentage": 1.2}
	require.NoError(t, m.CreateOverride(ctx, projectID, "dc_strings", StandardIEC, params))
	assert.Equal(t, StateOverrideActive, m.State(projectID, "dc_strings"))

	status, err := m.CheckStatus(ctx, projectID)
	require.NoError(t, err)
	assert.True(t, status.HasCustomConfig)
	assert.True(t, status.Stages["dc_strings"].OverrideExists)
	assert.False(t, status.Stages["ac_circuits"].OverrideExists)

	// Creating again over an active override is rejected.
	err = m.CreateOverride(ctx, projectID, "dc_strings", StandardIEC, params)
	assert.ErrorIs(t, err, ErrOverrideExists)

	_ = store
}

func TestCreateOverride_ValidationStopsBeforeWire(t *testing.T) {
	m, store := newTestManager(t)
	projectID := uuid.New()
	ctx := context.Background()

	tests := []struct {
		name   string
		stage  string
		base   Standard
		params map[string]any
	}{
		{"unknown stage", "hv_circuits", StandardIEC, map[string]any{"voltage_drop.max_percentage": 1.0}},
		{"unknown parameter", "dc_strings", StandardIEC, map[string]any{"voltage_drop.bogus": 1.0}},
		{"out of range", "dc_strings", StandardIEC, map[string]any{"voltage_drop.max_percentage": 42.0}},
		{"wrong type", "dc_strings", StandardIEC, map[string]any{"cable.material": 7}},
		{"bad option", "dc_strings", StandardIEC, map[string]any{"cable.material": "gold"}},
		{"empty params", "dc_strings", StandardIEC, map[string]any{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			before := store.calls
			err := m.CreateOverride(ctx, projectID, tc.stage, tc.base, tc.params)
			require.Error(t, err)
			assert.True(t, faults.IsValidation(err), "malformed local input must be a validation error: %v", err)
			assert.Equal(t, before, store.calls, "malformed edits are rejected locally, without a round-trip")
		})
	}
}

func TestCreateOverride_UnrecognizedStandard(t *testing.T) {
	_, err := ParseStandard("DIN")
	require.Error(t, err)
	assert.True(t, faults.IsValidation(err))
}

func TestCreateOverride_StoreFailureSurfaced(t *testing.T) {
	m, store := newTestManager(t)
	projectID := uuid.New()
	store.failNext = errors.New("write timeout")

	err := m.CreateOverride(context.Background(), projectID, "dc_strings", StandardNEC,
		map[string]any{"voltage_drop.max_percentage": 1.8})
	require.Error(t, err)
	assert.True(t, faults.IsTransport(err), "store failures are surfaced, not swallowed")
	assert.Equal(t, StateNoOverride, m.State(projectID, "dc_strings"), "failed create leaves state unchanged")
}

func TestUpdateOverride_RejectedWithoutActiveOverride(t *testing.T) {
	m, store := newTestManager(t)
	projectID := uuid.New()

	err := m.UpdateOverride(context.Background(), projectID, "dc_strings",
		map[string]any{"voltage_drop.max_percentage": 1.0})
	assert.ErrorIs(t, err, ErrNoActiveOverride)
	assert.Zero(t, store.calls, "update while NO_OVERRIDE must not issue a network call")
}

func TestUpdateOverride_MergesIntoExisting(t *testing.T) {
	m, store := newTestManager(t)
	projectID := uuid.New()
	ctx := context.Background()

	require.NoError(t, m.CreateOverride(ctx, projectID, "dc_strings", StandardIEC,
		map[string]any{"voltage_drop.max_percentage": 1.2}))
	require.NoError(t, m.UpdateOverride(ctx, projectID, "dc_strings",
		map[string]any{"cable.material": "aluminum"}))

	stored := store.overrides[store.key(projectID, "dc_strings")]
	require.NotNil(t, stored)
	assert.Equal(t, StandardIEC, stored.BaseStandard, "update keeps the original base standard")
	assert.Equal(t, 1.2, stored.Params["voltage_drop.max_percentage"])
	assert.Equal(t, "aluminum", stored.Params["cable.material"])
}

func TestSaveEdits_BufferSurvivesFailedPersist(t *testing.T) {
	m, store := newTestManager(t)
	projectID := uuid.New()
	ctx := context.Background()

	require.NoError(t, m.CreateOverride(ctx, projectID, "dc_strings", StandardIEC,
		map[string]any{"voltage_drop.max_percentage": 1.2}))

	m.Edit(projectID, "dc_strings", "voltage_drop.max_percentage", 0.9)
	assert.True(t, m.Dirty(projectID, "dc_strings"), "a local edit marks the buffer dirty")

	// First Get inside UpdateOverride fails: the persist never happens.
	store.failNext = errors.New("connection reset")
	err := m.SaveEdits(ctx, projectID, "dc_strings")
	require.Error(t, err)
	assert.True(t, m.Dirty(projectID, "dc_strings"), "a failed persist must not clear the dirty flag")
	assert.Equal(t, map[string]any{"voltage_drop.max_percentage": 0.9},
		m.PendingEdits(projectID, "dc_strings"), "unsaved edits are retained on failure")

	// Retry without the fault: the buffer clears only now.
	require.NoError(t, m.SaveEdits(ctx, projectID, "dc_strings"))
	assert.False(t, m.Dirty(projectID, "dc_strings"))
	assert.Nil(t, m.PendingEdits(projectID, "dc_strings"))
}

func TestResetOverride_RequiresConfirmation(t *testing.T) {
	m, store := newTestManager(t)
	projectID := uuid.New()
	ctx := context.Background()

	require.NoError(t, m.CreateOverride(ctx, projectID, "dc_strings", StandardIEC,
		map[string]any{"voltage_drop.max_percentage": 1.2}))

	before := store.calls
	err := m.ResetOverride(ctx, projectID, "dc_strings", false)
	assert.ErrorIs(t, err, ErrConfirmationRequired)
	assert.Equal(t, before, store.calls, "unconfirmed reset must not reach the store")
}

func TestResetOverride_RecomputesHasCustomConfig(t *testing.T) {
	m, _ := newTestManager(t)
	projectID := uuid.New()
	ctx := context.Background()

	require.NoError(t, m.CreateOverride(ctx, projectID, "dc_strings", StandardIEC,
		map[string]any{"voltage_drop.max_percentage": 1.2}))

	require.NoError(t, m.ResetOverride(ctx, projectID, "dc_strings", true))
	assert.Equal(t, StateNoOverride, m.State(projectID, "dc_strings"))

	status, err := m.CheckStatus(ctx, projectID)
	require.NoError(t, err)
	assert.False(t, status.Stages["dc_strings"].OverrideExists,
		"reset transitions override_exists from true to false")
	assert.False(t, status.HasCustomConfig,
		"has_custom_config recomputes to false when no other stage retains an override")
}

func TestEffectiveParameters_MergesOverride(t *testing.T) {
	m, _ := newTestManager(t)
	projectID := uuid.New()
	ctx := context.Background()

	base, hasOverride, err := m.EffectiveParameters(ctx, projectID, "dc_strings", StandardIEC)
	require.NoError(t, err)
	assert.False(t, hasOverride)
	p, ok := base.Lookup("voltage_drop.max_percentage")
	require.True(t, ok)
	assert.Equal(t, 1.5, p.Value)

	require.NoError(t, m.CreateOverride(ctx, projectID, "dc_strings", StandardIEC,
		map[string]any{"voltage_drop.max_percentage": 0.8}))

	effective, hasOverride, err := m.EffectiveParameters(ctx, projectID, "dc_strings", StandardIEC)
	require.NoError(t, err)
	assert.True(t, hasOverride)
	p, ok = effective.Lookup("voltage_drop.max_percentage")
	require.True(t, ok)
	assert.Equal(t, 0.8, p.Value, "override value replaces the catalog default")

	// The catalog base is untouched.
	fresh, _, err := m.EffectiveParameters(ctx, uuid.New(), "dc_strings", StandardIEC)
	require.NoError(t, err)
	p, _ = fresh.Lookup("voltage_drop.max_percentage")
	assert.Equal(t, 1.5, p.Value, "resolution must not mutate the base catalog")
}

func TestEffectiveParameters_TransportFailureDegradesToBase(t *testing.T) {
	m, store := newTestManager(t)
	projectID := uuid.New()
	store.failNext = errors.New("dial timeout")

	params, hasOverride, err := m.EffectiveParameters(context.Background(), projectID, "dc_strings", StandardIEC)
	require.Error(t, err)
	assert.True(t, faults.IsTransport(err))
	assert.False(t, hasOverride)
	assert.Equal(t, StandardIEC, params.Standard, "base standard remains usable on transport failure")
	assert.NotEmpty(t, params.Sections)
}

func TestCopyBaseToAllStages(t *testing.T) {
	m, _ := newTestManager(t)
	projectID := uuid.New()
	ctx := context.Background()

	seeded, err := m.CopyBaseToAllStages(ctx, projectID, StandardNEC)
	require.NoError(t, err)
	assert.ElementsMatch(t, Stages, seeded)

	status, err := m.CheckStatus(ctx, projectID)
	require.NoError(t, err)
	assert.True(t, status.HasCustomConfig)
	for _, stage := range Stages {
		assert.True(t, status.Stages[stage].OverrideExists, "stage %s should carry a seeded override", stage)
	}
}
