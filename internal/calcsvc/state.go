package calcsvc

import (
	"sync"

	"github.com/google/uuid"

	"github.com/yalicar/string-compliance-iq/internal/compliance"
)

// Batch is one committed calculation run: the classified circuits and their
// summary, treated as a single atomic unit.
type Batch struct {
	ProjectID           uuid.UUID
	Stage               string
	Generation          uint64
	HasProjectOverrides bool
	Circuits            []compliance.CircuitResult
	Summary             compliance.BatchSummary
}

// ResultState holds the latest committed batch per project stage. It is
// sequence-guarded: Begin issues a generation number and Commit discards any
// response carrying a generation older than the newest one issued for that
// stage, so a slow first request can never overwrite the result of a second
// request issued after it.
type ResultState struct {
	mu      sync.Mutex
	latest  map[stateKey]uint64
	batches map[stateKey]*Batch
}

type stateKey struct {
	projectID uuid.UUID
	stage     string
}

func NewResultState() *ResultState {
	return &ResultState{
		latest:  make(map[stateKey]uint64),
		batches: make(map[stateKey]*Batch),
	}
}

// Begin registers a new calculation request for the stage and returns its
// generation. Every call invalidates all generations issued earlier for the
// same stage.
func (s *ResultState) Begin(projectID uuid.UUID, stage string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := stateKey{projectID, stage}
	s.latest[key]++
	return s.latest[key]
}

// Commit stores the batch if its generation is still current. It reports
// whether the batch was accepted; a stale batch is discarded untouched.
func (s *ResultState) Commit(b *Batch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := stateKey{b.ProjectID, b.Stage}
	if b.Generation != s.latest[key] {
		return false
	}
	s.batches[key] = b
	return true
}

// Snapshot returns the latest committed batch for the stage, or nil when no
// calculation has completed yet. The returned batch is shared and must be
// treated as read-only.
func (s *ResultState) Snapshot(projectID uuid.UUID, stage string) *Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batches[stateKey{projectID, stage}]
}
