// Package revision orchestrates the transcript editing flow: load a stored
// version, hand it to the editor as the editor format, merge corrections
// back, validate, persist the result as a new version, and emit events.
package revision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"transcript-revision-service/internal/events"
	"transcript-revision-service/internal/models"
	"transcript-revision-service/internal/observability/logging"
	"transcript-revision-service/internal/observability/metrics"
	"transcript-revision-service/internal/service/correction"
	"transcript-revision-service/internal/service/transform"
	"transcript-revision-service/internal/service/validate"
	"transcript-revision-service/internal/versionstore"
)

// ErrInvalidDocument wraps structural validation failures on save.
var ErrInvalidDocument = errors.New("document failed structural validation")

// Service ties the version store, the correction merger, and the event
// publisher together behind the operations the API exposes.
type Service struct {
	store     *versionstore.Store
	merger    *correction.Merger
	publisher *events.Publisher
	metrics   *metrics.Metrics
}

// New creates the revision service.
func New(store *versionstore.Store, publisher *events.Publisher) *Service {
	return &Service{
		store:     store,
		merger:    correction.NewMerger(),
		publisher: publisher,
		metrics:   metrics.DefaultMetrics,
	}
}

// EnsureOriginal stores doc as version 0 when the transcript has no versions
// yet. Existing version sequences are left untouched.
func (s *Service) EnsureOriginal(ctx context.Context, transcriptID string, doc *models.RecognizerDocument) (*models.Version, error) {
	if res := validate.Structure(doc); !res.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, res.Errors)
	}

	versions, err := s.store.ListVersions(ctx, transcriptID)
	if err != nil {
		return nil, err
	}
	if len(versions) > 0 {
		return &versions[0], nil
	}

	v, err := s.store.SaveVersion(ctx, transcriptID, doc, "Original transcription", versionstore.SkipParentCheck)
	if err != nil {
		return nil, err
	}
	log := logging.WithTranscript(transcriptID)
	log.Info().Msg("Original version stored")
	s.publishVersionSaved(ctx, transcriptID, v)
	return v, nil
}

// ListVersions returns version metadata for a transcript, oldest first.
func (s *Service) ListVersions(ctx context.Context, transcriptID string) ([]models.VersionInfo, error) {
	versions, err := s.store.ListVersions(ctx, transcriptID)
	if err != nil {
		return nil, err
	}
	infos := make([]models.VersionInfo, len(versions))
	for i, v := range versions {
		infos[i] = models.VersionInfo{Version: v.Version, Timestamp: v.Timestamp, Changes: v.Changes}
	}
	return infos, nil
}

// GetVersion returns one stored version.
func (s *Service) GetVersion(ctx context.Context, transcriptID string, version int) (*models.Version, error) {
	return s.store.LoadVersion(ctx, transcriptID, version)
}

// GetLatest returns the newest stored version.
func (s *Service) GetLatest(ctx context.Context, transcriptID string) (*models.Version, error) {
	return s.store.LoadLatest(ctx, transcriptID)
}

// DeleteVersion removes a stored version. Version 0 is protected.
func (s *Service) DeleteVersion(ctx context.Context, transcriptID string, version int) error {
	return s.store.DeleteVersion(ctx, transcriptID, version)
}

// EditorDocument loads a version and converts it to the editor format.
// A negative version selects the latest.
func (s *Service) EditorDocument(ctx context.Context, transcriptID string, version int) (*models.EditorDocument, int, error) {
	v, err := s.loadVersionOrLatest(ctx, transcriptID, version)
	if err != nil {
		return nil, 0, err
	}

	start := time.Now()
	editor, err := transform.ToEditorFormat(&v.Document)
	s.metrics.RecordTransform(err, time.Since(start).Seconds())
	if err != nil {
		return nil, 0, err
	}
	return editor, v.Version, nil
}

// ApplyCorrections merges an edited document against the latest stored
// version and persists the result as a new version. When the edit changes
// nothing, no version is written and the latest version is returned as-is.
// expectedParent guards against concurrent editors; pass
// versionstore.SkipParentCheck to bypass the check.
func (s *Service) ApplyCorrections(ctx context.Context, transcriptID string, edited *models.EditorDocument, expectedParent int) (*models.Version, correction.MergeStats, error) {
	var stats correction.MergeStats
	log := logging.WithTranscript(transcriptID)

	latest, err := s.store.LoadLatest(ctx, transcriptID)
	if err != nil {
		return nil, stats, err
	}
	if expectedParent != versionstore.SkipParentCheck && latest.Version != expectedParent {
		return nil, stats, fmt.Errorf("latest is %d, expected %d: %w", latest.Version, expectedParent, versionstore.ErrVersionConflict)
	}

	merged, stats, err := s.merger.Merge(&latest.Document, edited)
	s.metrics.RecordMerge(stats.ChangedWords, stats.IndexMismatch, err)
	if err != nil {
		return nil, stats, err
	}

	if stats.ChangedWords == 0 && stats.SpeakerRenames == 0 {
		log.Debug().Msg("No changes to merge")
		return latest, stats, nil
	}

	if res := validate.Structure(merged); !res.Valid {
		return nil, stats, fmt.Errorf("%w: %v", ErrInvalidDocument, res.Errors)
	}

	// Integrity warnings, not failures: timing, speakers, and confidence
	// must survive a merge untouched.
	if res := validate.RoundTrip(&latest.Document, edited, merged); !res.Valid {
		s.metrics.RecordRoundTripViolations(len(res.Errors))
		log.Warn().
			Strs("violations", res.Errors).
			Msg("Round-trip integrity violations detected")
	}

	changes := describeChanges(stats)
	v, err := s.store.SaveVersion(ctx, transcriptID, merged, changes, expectedParent)
	if err != nil {
		return nil, stats, err
	}

	s.publishVersionSaved(ctx, transcriptID, v)
	s.publishCorrectionMerged(ctx, transcriptID, v.Version, stats)
	return v, stats, nil
}

// Paragraphs derives paragraph blocks from a stored version. A negative
// version selects the latest.
func (s *Service) Paragraphs(ctx context.Context, transcriptID string, version int) ([]transform.Paragraph, error) {
	v, err := s.loadVersionOrLatest(ctx, transcriptID, version)
	if err != nil {
		return nil, err
	}
	return transform.ExtractParagraphs(&v.Document), nil
}

// WordAtTime returns the word covering timestamp t in the latest version.
func (s *Service) WordAtTime(ctx context.Context, transcriptID string, t float64) (models.Word, bool, error) {
	v, err := s.store.LoadLatest(ctx, transcriptID)
	if err != nil {
		return models.Word{}, false, err
	}
	w, ok := transform.FindWordAtTime(&v.Document, t)
	return w, ok, nil
}

// WordsInRange returns the words overlapping [start, end] in the latest
// version.
func (s *Service) WordsInRange(ctx context.Context, transcriptID string, start, end float64) ([]models.Word, error) {
	v, err := s.store.LoadLatest(ctx, transcriptID)
	if err != nil {
		return nil, err
	}
	return transform.WordsInRange(&v.Document, start, end), nil
}

func (s *Service) loadVersionOrLatest(ctx context.Context, transcriptID string, version int) (*models.Version, error) {
	if version < 0 {
		return s.store.LoadLatest(ctx, transcriptID)
	}
	return s.store.LoadVersion(ctx, transcriptID, version)
}

func (s *Service) publishVersionSaved(ctx context.Context, transcriptID string, v *models.Version) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.PublishVersionSaved(ctx, events.VersionSavedEvent{
		EventType:    "transcript.revision.saved",
		TranscriptID: transcriptID,
		Version:      v.Version,
		Changes:      v.Changes,
		Timestamp:    v.Timestamp,
	})
	if err != nil {
		// Event delivery is best-effort; the version is already stored.
		log := logging.WithTranscript(transcriptID)
		log.Warn().Err(err).Msg("Failed to publish version event")
	}
}

func (s *Service) publishCorrectionMerged(ctx context.Context, transcriptID string, version int, stats correction.MergeStats) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.PublishCorrectionMerged(ctx, events.CorrectionMergedEvent{
		EventType:      "transcript.correction.merged",
		TranscriptID:   transcriptID,
		ChangedWords:   stats.ChangedWords,
		SpeakerRenames: stats.SpeakerRenames,
		Version:        version,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		log := logging.WithTranscript(transcriptID)
		log.Warn().Err(err).Msg("Failed to publish correction event")
	}
}

func describeChanges(stats correction.MergeStats) string {
	switch {
	case stats.ChangedWords > 0 && stats.SpeakerRenames > 0:
		return fmt.Sprintf("Corrected %d words, renamed %d speakers", stats.ChangedWords, stats.SpeakerRenames)
	case stats.ChangedWords > 0:
		return fmt.Sprintf("Corrected %d words", stats.ChangedWords)
	case stats.SpeakerRenames > 0:
		return fmt.Sprintf("Renamed %d speakers", stats.SpeakerRenames)
	default:
		return "No changes"
	}
}
