package state

import (
	"maps"
	"sync"

	"github.com/matst80/slask-tyres/pkg/paging"
	"github.com/matst80/slask-tyres/pkg/types"
)

// Synchronizer keeps the host's location state in step with the engine.
// Initial and programmatic writes replace the current history entry; user
// driven changes after the first render push a new one.
type Synchronizer struct {
	mu           sync.Mutex
	codec        *Codec
	location     types.LocationState
	rendered     bool
	restoring    bool
	restoredPage int
	last         map[string]string
}

func NewSynchronizer(codec *Codec, location types.LocationState) *Synchronizer {
	return &Synchronizer{codec: codec, location: location}
}

func (s *Synchronizer) Codec() *Codec {
	return s.codec
}

// Restore reads the host location and decodes it against the current
// snapshot. The restored page is held until the first render.
func (s *Synchronizer) Restore(v Validator) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.location == nil {
		return DefaultState(s.codec.Bounds())
	}
	st := s.codec.DecodeMap(s.location.ReadLocationState(), v)
	s.restoring = true
	s.restoredPage = st.Page
	return st
}

// ResolvePage picks the page to show. The first render after Restore keeps
// the restored page clamped to the result size; later criteria changes
// reset to page one.
func (s *Synchronizer) ResolvePage(requested int, criteriaChanged bool, total, size int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.restoring {
		s.restoring = false
		return paging.ClampPage(s.restoredPage, total, size)
	}
	if criteriaChanged {
		return 1
	}
	return paging.ClampPage(requested, total, size)
}

// Write publishes st unless it equals the last written state.
func (s *Synchronizer) Write(st State, userDriven bool) (types.HistoryMode, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mode := types.HistoryReplace
	if userDriven && s.rendered {
		mode = types.HistoryPush
	}
	encoded := s.codec.EncodeMap(st)
	if s.last != nil && maps.Equal(s.last, encoded) {
		return mode, false
	}
	s.last = encoded
	if s.location != nil {
		s.location.WriteLocationState(maps.Clone(encoded), mode)
	}
	return mode, true
}

// MarkRendered records that the first render happened.
func (s *Synchronizer) MarkRendered() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rendered = true
}

func (s *Synchronizer) Rendered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rendered
}

// MemoryLocation is an in-process location state that records history.
type MemoryLocation struct {
	mu      sync.Mutex
	current map[string]string
	history []map[string]string
	modes   []types.HistoryMode
}

func NewMemoryLocation(initial map[string]string) *MemoryLocation {
	if initial == nil {
		initial = map[string]string{}
	}
	return &MemoryLocation{
		current: maps.Clone(initial),
		history: []map[string]string{maps.Clone(initial)},
	}
}

func (m *MemoryLocation) ReadLocationState() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.current)
}

func (m *MemoryLocation) WriteLocationState(state map[string]string, mode types.HistoryMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = maps.Clone(state)
	if mode == types.HistoryPush {
		m.history = append(m.history, maps.Clone(state))
	} else {
		m.history[len(m.history)-1] = maps.Clone(state)
	}
	m.modes = append(m.modes, mode)
}

// History returns the entries back/forward navigation would visit.
func (m *MemoryLocation) History() []map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneHistory(m.history)
}

func (m *MemoryLocation) Modes() []types.HistoryMode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.HistoryMode(nil), m.modes...)
}

func cloneHistory(in []map[string]string) []map[string]string {
	ret := make([]map[string]string, len(in))
	for i, m := range in {
		ret[i] = maps.Clone(m)
	}
	return ret
}
