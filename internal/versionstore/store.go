package versionstore

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"transcript-revision-service/internal/models"
	"transcript-revision-service/internal/observability/logging"
	"transcript-revision-service/internal/observability/metrics"
)

// Store owns the canonical sequence of versions for each transcript
// identifier. It caches loaded versions per transcript and tracks a
// current-version pointer; the backing store is the authoritative source and
// the only serialization point for version-number assignment.
type Store struct {
	backend Backend
	metrics *metrics.Metrics

	mu       sync.Mutex
	sessions map[string]*session
}

// NewStore creates a Store over the given backend.
func NewStore(backend Backend) *Store {
	return &Store{
		backend:  backend,
		metrics:  metrics.DefaultMetrics,
		sessions: make(map[string]*session),
	}
}

func (s *Store) session(transcriptID string) *session {
	sess, ok := s.sessions[transcriptID]
	if !ok {
		sess = newSession()
		s.sessions[transcriptID] = sess
	}
	return sess
}

// State returns the session state for a transcript.
func (s *Store) State(transcriptID string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[transcriptID]; ok {
		return sess.state
	}
	return StateUnloaded
}

// CurrentVersion returns the current-version pointer for a transcript, or
// false when the session is unloaded.
func (s *Store) CurrentVersion(transcriptID string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[transcriptID]
	if !ok || sess.state != StateLoaded {
		return 0, false
	}
	return sess.current, true
}

// ListVersions fetches all versions from the backing store and repopulates
// the cache. The backend, not the cache, is authoritative for listing.
func (s *Store) ListVersions(ctx context.Context, transcriptID string) ([]models.Version, error) {
	start := time.Now()
	versions, err := s.backend.ListVersions(ctx, transcriptID)
	s.metrics.RecordVersionOp("list", err, time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}

	sort.Slice(versions, func(i, j int) bool { return versions[i].Version < versions[j].Version })

	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(transcriptID)
	sess.versions = versions
	if len(versions) > 0 {
		sess.state = StateLoaded
		if sess.indexOf(sess.current) < 0 {
			sess.current = sess.latest()
		}
	}

	out := make([]models.Version, len(versions))
	copy(out, versions)
	return out, nil
}

// LoadVersion returns one version. A cache hit returns immediately; a miss
// fetches from the backend without inserting into the cached version list,
// so ad hoc reads never leave the cache partial or unordered.
func (s *Store) LoadVersion(ctx context.Context, transcriptID string, version int) (*models.Version, error) {
	s.mu.Lock()
	if sess, ok := s.sessions[transcriptID]; ok {
		if i := sess.indexOf(version); i >= 0 {
			v := sess.versions[i]
			v.Document = *v.Document.Clone()
			s.mu.Unlock()
			s.metrics.RecordVersionCacheLookup(true)
			return &v, nil
		}
	}
	s.mu.Unlock()
	s.metrics.RecordVersionCacheLookup(false)

	start := time.Now()
	v, err := s.backend.LoadVersion(ctx, transcriptID, version)
	s.metrics.RecordVersionOp("load", err, time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("load version %d: %w", version, err)
	}
	return v, nil
}

// LoadLatest returns the highest-numbered version from the backing store.
func (s *Store) LoadLatest(ctx context.Context, transcriptID string) (*models.Version, error) {
	start := time.Now()
	v, err := s.backend.LoadLatest(ctx, transcriptID)
	s.metrics.RecordVersionOp("load_latest", err, time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("load latest version: %w", err)
	}
	return v, nil
}

// SaveVersion stores the document as a new version. The backend assigns the
// version number; on success the version is appended to the cache and set as
// current.
func (s *Store) SaveVersion(ctx context.Context, transcriptID string, doc *models.RecognizerDocument, changes string, expectedParent int) (*models.Version, error) {
	start := time.Now()
	v, err := s.backend.SaveVersion(ctx, transcriptID, doc, changes, expectedParent)
	s.metrics.RecordVersionOp("save", err, time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("save version: %w", err)
	}

	s.mu.Lock()
	sess := s.session(transcriptID)
	sess.versions = append(sess.versions, *v)
	sess.current = v.Version
	sess.state = StateLoaded
	s.mu.Unlock()

	log := logging.WithVersion(transcriptID, v.Version)
	log.Info().
		Str("changes", changes).
		Msg("Version saved")

	out := *v
	out.Document = *out.Document.Clone()
	return &out, nil
}

// DeleteVersion removes a version. Version 0 is the only guaranteed-original
// snapshot and is rejected here, before any backend call.
func (s *Store) DeleteVersion(ctx context.Context, transcriptID string, version int) error {
	if version == 0 {
		return ErrVersionZeroProtected
	}

	start := time.Now()
	err := s.backend.DeleteVersion(ctx, transcriptID, version)
	s.metrics.RecordVersionOp("delete", err, time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("delete version %d: %w", version, err)
	}

	s.mu.Lock()
	if sess, ok := s.sessions[transcriptID]; ok {
		sess.remove(version)
		if sess.current == version {
			sess.current = sess.latest()
		}
	}
	s.mu.Unlock()

	log := logging.WithVersion(transcriptID, version)
	log.Info().Msg("Version deleted")
	return nil
}

// HasUnsavedChanges reports whether candidate differs from the version at
// the current-version pointer. No cached versions counts as unsaved.
func (s *Store) HasUnsavedChanges(transcriptID string, candidate *models.RecognizerDocument) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[transcriptID]
	if !ok || len(sess.versions) == 0 {
		return true
	}
	i := sess.indexOf(sess.current)
	if i < 0 {
		return true
	}
	return !reflect.DeepEqual(sess.versions[i].Document, *candidate)
}
