package devserver

import (
	"sync/atomic"

	"git.home.luguber.info/inful/pub/internal/compiler"
)

// Store publishes the ArtifactMap served to HTTP clients. A compile pass builds
// a new map and swaps it in whole, so readers never see a half-built site.
type Store struct {
	current atomic.Pointer[compiler.ArtifactMap]
}

// NewStore returns a Store serving an empty map.
func NewStore() *Store {
	s := &Store{}
	empty := compiler.ArtifactMap{}
	s.current.Store(&empty)
	return s
}

// Load returns the current map. Callers must not modify it.
func (s *Store) Load() compiler.ArtifactMap {
	return *s.current.Load()
}

// Swap publishes m and returns the map it replaced.
func (s *Store) Swap(m compiler.ArtifactMap) compiler.ArtifactMap {
	if m == nil {
		m = compiler.ArtifactMap{}
	}
	return *s.current.Swap(&m)
}
