// Package versionstore persists, lists, loads, and deletes numbered
// snapshots of a transcript's recognizer document, with a per-transcript
// in-memory cache and current-version pointer.
package versionstore

import (
	"context"
	"errors"
	"fmt"

	"transcript-revision-service/internal/models"
)

// SkipParentCheck disables optimistic concurrency checking on save, for
// callers that cannot know the parent version.
const SkipParentCheck = -1

var (
	// ErrVersionNotFound indicates the requested version does not exist.
	ErrVersionNotFound = errors.New("version not found")
	// ErrVersionZeroProtected indicates an attempt to delete version 0,
	// the only guaranteed-original snapshot. Rejected before any backend
	// call.
	ErrVersionZeroProtected = errors.New("version 0 is the original and cannot be deleted")
	// ErrVersionConflict indicates the latest stored version did not match
	// the expected parent at save time.
	ErrVersionConflict = errors.New("version conflict: latest version does not match expected parent")
	// ErrNoVersions indicates a transcript with no stored versions.
	ErrNoVersions = errors.New("no versions stored for transcript")
)

// TransportError wraps a backing-store failure with a recoverability flag.
// The engine never retries; the caller decides whether to retry or surface
// the failure.
type TransportError struct {
	Op        string
	Err       error
	Transient bool
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("version store %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Recoverable reports whether retrying the operation may succeed.
func (e *TransportError) Recoverable() bool { return e.Transient }

// Backend is the backing store consumed by the Store. Version numbers are
// always backend-assigned; clients never pick them. All operations are
// idempotent except SaveVersion, which always creates a new version.
type Backend interface {
	// ListVersions returns all versions for a transcript, ascending.
	ListVersions(ctx context.Context, transcriptID string) ([]models.Version, error)

	// LoadVersion returns one version, or ErrVersionNotFound.
	LoadVersion(ctx context.Context, transcriptID string, version int) (*models.Version, error)

	// LoadLatest returns the highest-numbered version, or ErrNoVersions.
	LoadLatest(ctx context.Context, transcriptID string) (*models.Version, error)

	// SaveVersion stores the document under the next version number and
	// returns the created version. When expectedParent is not
	// SkipParentCheck the save fails with ErrVersionConflict unless the
	// latest stored version equals expectedParent (no versions stored
	// counts as parent -1).
	SaveVersion(ctx context.Context, transcriptID string, doc *models.RecognizerDocument, changes string, expectedParent int) (*models.Version, error)

	// DeleteVersion removes one version, or returns ErrVersionNotFound.
	DeleteVersion(ctx context.Context, transcriptID string, version int) error
}
