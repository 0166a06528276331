package versionstore

import (
	"fmt"

	"transcript-revision-service/internal/models"
)

// State represents the lifecycle state of a per-transcript session.
type State int

const (
	// StateUnloaded - no versions cached for the transcript yet.
	StateUnloaded State = iota
	// StateLoaded - versions cached and a current-version pointer set.
	// Saves and deletes keep the session in this state; there is no
	// terminal state, the session lives for the editing session.
	StateLoaded
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "UNLOADED"
	case StateLoaded:
		return "LOADED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// session holds the cached versions and current-version pointer for one
// transcript identifier. The version slice is kept sorted ascending by
// version number.
type session struct {
	state    State
	versions []models.Version
	current  int // current version number, -1 when unloaded
}

func newSession() *session {
	return &session{state: StateUnloaded, current: -1}
}

func (s *session) indexOf(version int) int {
	for i := range s.versions {
		if s.versions[i].Version == version {
			return i
		}
	}
	return -1
}

func (s *session) remove(version int) {
	if i := s.indexOf(version); i >= 0 {
		s.versions = append(s.versions[:i], s.versions[i+1:]...)
	}
}

func (s *session) latest() int {
	if len(s.versions) == 0 {
		return -1
	}
	return s.versions[len(s.versions)-1].Version
}
