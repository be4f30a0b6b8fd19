package devserver

import (
	"path/filepath"
	"strings"
	"sync"
)

// SeenSet records the source files the watch loop has observed. It tells a
// genuine change to a known file apart from the watcher reporting an existing
// file as newly added.
type SeenSet struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

// NewSeenSet returns an empty set.
func NewSeenSet() *SeenSet {
	return &SeenSet{paths: map[string]struct{}{}}
}

// Add records path and reports whether it was new.
func (s *SeenSet) Add(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.paths[path]; ok {
		return false
	}
	s.paths[path] = struct{}{}
	return true
}

// Has reports whether path was seen.
func (s *SeenSet) Has(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.paths[path]
	return ok
}

// Remove forgets path and, when path is a directory, every file below it. It
// reports whether anything was removed.
func (s *SeenSet) Remove(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := false
	if _, ok := s.paths[path]; ok {
		delete(s.paths, path)
		removed = true
	}
	prefix := path + string(filepath.Separator)
	for p := range s.paths {
		if strings.HasPrefix(p, prefix) {
			delete(s.paths, p)
			removed = true
		}
	}
	return removed
}

// Len returns the number of seen paths.
func (s *SeenSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.paths)
}
