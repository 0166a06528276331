// Package mock provides an in-memory version store backend for development
// and testing.
package mock

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"transcript-revision-service/internal/models"
	"transcript-revision-service/internal/versionstore"
)

// Backend keeps all versions in memory. Failure injection via the Fail*
// fields lets tests exercise error paths.
type Backend struct {
	mu       sync.Mutex
	versions map[string][]models.Version
	clock    func() time.Time

	// Failure injection for tests. When set, the corresponding operation
	// returns the error instead of executing.
	FailList   error
	FailLoad   error
	FailSave   error
	FailDelete error

	// Call counters for tests.
	SaveCalls   int
	DeleteCalls int
}

// NewBackend creates an empty in-memory backend.
func NewBackend() *Backend {
	return &Backend{
		versions: make(map[string][]models.Version),
		clock:    time.Now,
	}
}

// NewBackendWithClock creates a backend with a fixed clock for deterministic
// timestamps.
func NewBackendWithClock(clock func() time.Time) *Backend {
	b := NewBackend()
	b.clock = clock
	return b
}

// ListVersions returns all versions for a transcript ordered ascending.
func (b *Backend) ListVersions(ctx context.Context, transcriptID string) ([]models.Version, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailList != nil {
		return nil, b.FailList
	}

	stored := b.versions[transcriptID]
	out := make([]models.Version, len(stored))
	copy(out, stored)
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// LoadVersion returns one version, or versionstore.ErrVersionNotFound.
func (b *Backend) LoadVersion(ctx context.Context, transcriptID string, version int) (*models.Version, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailLoad != nil {
		return nil, b.FailLoad
	}

	for _, v := range b.versions[transcriptID] {
		if v.Version == version {
			out := v
			out.Document = *v.Document.Clone()
			return &out, nil
		}
	}
	return nil, versionstore.ErrVersionNotFound
}

// LoadLatest returns the highest-numbered version, or
// versionstore.ErrNoVersions.
func (b *Backend) LoadLatest(ctx context.Context, transcriptID string) (*models.Version, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailLoad != nil {
		return nil, b.FailLoad
	}

	stored := b.versions[transcriptID]
	if len(stored) == 0 {
		return nil, versionstore.ErrNoVersions
	}
	latest := stored[0]
	for _, v := range stored[1:] {
		if v.Version > latest.Version {
			latest = v
		}
	}
	out := latest
	out.Document = *latest.Document.Clone()
	return &out, nil
}

// SaveVersion assigns the next version number and stores a deep copy of the
// document.
func (b *Backend) SaveVersion(ctx context.Context, transcriptID string, doc *models.RecognizerDocument, changes string, expectedParent int) (*models.Version, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.SaveCalls++
	if b.FailSave != nil {
		return nil, b.FailSave
	}

	parent := -1
	for _, v := range b.versions[transcriptID] {
		if v.Version > parent {
			parent = v.Version
		}
	}
	if expectedParent != versionstore.SkipParentCheck && parent != expectedParent {
		return nil, fmt.Errorf("latest is %d, expected %d: %w", parent, expectedParent, versionstore.ErrVersionConflict)
	}

	v := models.Version{
		Version:   parent + 1,
		Timestamp: b.clock().UTC().Format(time.RFC3339),
		Changes:   changes,
		Document:  *doc.Clone(),
	}
	b.versions[transcriptID] = append(b.versions[transcriptID], v)

	out := v
	out.Document = *v.Document.Clone()
	return &out, nil
}

// DeleteVersion removes one version, or returns
// versionstore.ErrVersionNotFound.
func (b *Backend) DeleteVersion(ctx context.Context, transcriptID string, version int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.DeleteCalls++
	if b.FailDelete != nil {
		return b.FailDelete
	}

	stored := b.versions[transcriptID]
	for i, v := range stored {
		if v.Version == version {
			b.versions[transcriptID] = append(stored[:i], stored[i+1:]...)
			return nil
		}
	}
	return versionstore.ErrVersionNotFound
}
