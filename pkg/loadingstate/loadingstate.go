// Package loadingstate tracks background ingestion progress so the tool
// surface and health endpoint can report it without coupling to the
// coordinator internals.
package loadingstate

import "sync"

// SourceError pairs a source identifier with the error it produced.
type SourceError struct {
	Source  string
	Message string
}

// Snapshot is a point-in-time, immutable copy of the loading state.
type Snapshot struct {
	SourcesTotal int
	SourcesDone  int
	SkillsLoaded int
	Errors       []SourceError
	IsComplete   bool
}

// State is the mutable record, guarded by a fine-grained read-mostly lock.
// It is mutated only by the coordinator; everything else only reads
// snapshots.
type State struct {
	mu sync.RWMutex

	sourcesTotal int
	sourcesDone  int
	skillsLoaded int
	errors       []SourceError
	isComplete   bool
}

// New creates a State with no sources registered yet.
func New() *State {
	return &State{}
}

// SetTotal records how many sources are being started. Called once at
// startup before any worker completes.
func (s *State) SetTotal(total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sourcesTotal = total
	s.isComplete = total == 0
}

// RecordSourceDone marks one source worker finished, optionally with an
// error, and advances is_complete once every source has reported in.
func (s *State) RecordSourceDone(source string, skillsLoaded int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sourcesDone++
	s.skillsLoaded += skillsLoaded
	if err != nil {
		s.errors = append(s.errors, SourceError{Source: source, Message: err.Error()})
	}
	if s.sourcesDone >= s.sourcesTotal {
		s.isComplete = true
	}
}

// AdjustSkillsLoaded changes the running skill count by delta, used by
// periodic refresh to reflect targeted add/remove without touching the
// sources_total/sources_done bookkeeping.
func (s *State) AdjustSkillsLoaded(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skillsLoaded += delta
}

// Snapshot returns a consistent value copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		SourcesTotal: s.sourcesTotal,
		SourcesDone:  s.sourcesDone,
		SkillsLoaded: s.skillsLoaded,
		Errors:       append([]SourceError(nil), s.errors...),
		IsComplete:   s.isComplete,
	}
}
