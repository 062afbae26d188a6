package normative

import (
	"context"

	"github.com/google/uuid"
)

// Edit records an unsaved parameter edit in the (project, stage) buffer and
// marks the buffer dirty. The edit is local: nothing is validated or sent
// until SaveEdits.
func (m *Manager) Edit(projectID uuid.UUID, stage string, path string, value any) {
	key := stageKey{projectID, stage}
	m.mu.Lock()
	defer m.mu.Unlock()
	buf, ok := m.edits[key]
	if !ok {
		buf = &editBuffer{params: make(map[string]any)}
		m.edits[key] = buf
	}
	buf.params[path] = value
	buf.dirty = true
}

// Dirty reports whether the (project, stage) buffer holds unsaved edits.
// The flag clears only on a successful persist, never on a local edit alone
// and never on a failed persist.
func (m *Manager) Dirty(projectID uuid.UUID, stage string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf, ok := m.edits[stageKey{projectID, stage}]
	return ok && buf.dirty
}

// PendingEdits returns a copy of the unsaved edits for a (project, stage).
func (m *Manager) PendingEdits(projectID uuid.UUID, stage string) map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf, ok := m.edits[stageKey{projectID, stage}]
	if !ok {
		return nil
	}
	out := make(map[string]any, len(buf.params))
	for k, v := range buf.params {
		out[k] = v
	}
	return out
}

// SaveEdits persists the buffered edits through UpdateOverride. The buffer
// is cleared only when the persist succeeds; on any failure the edits stay
// in the buffer so the user does not lose unsaved work.
func (m *Manager) SaveEdits(ctx context.Context, projectID uuid.UUID, stage string) error {
	pending := m.PendingEdits(projectID, stage)
	if len(pending) == 0 {
		return nil
	}
	if err := m.UpdateOverride(ctx, projectID, stage, pending); err != nil {
		return err
	}

	key := stageKey{projectID, stage}
	m.mu.Lock()
	delete(m.edits, key)
	m.mu.Unlock()
	return nil
}

// DiscardEdits drops the unsaved edits for a (project, stage).
func (m *Manager) DiscardEdits(projectID uuid.UUID, stage string) {
	m.mu.Lock()
	delete(m.edits, stageKey{projectID, stage})
	m.mu.Unlock()
}
