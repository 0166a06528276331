// Package correction reconciles word-level edits made in editor format back
// into a recognizer document. The merge never mutates the caller's document
// and preserves the pristine recognizer output across any number of
// correction rounds.
package correction

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"transcript-revision-service/internal/models"
	"transcript-revision-service/internal/observability/logging"
)

// ErrEmptyEditorDocument indicates an editor document with no words. Fatal:
// the merge is aborted and the caller keeps the original document.
var ErrEmptyEditorDocument = errors.New("editor document has no words")

// ErrNoAuthoritativeWords indicates the original document has nothing to
// merge into.
var ErrNoAuthoritativeWords = errors.New("original document has no authoritative words")

// MergeStats reports what a merge changed.
type MergeStats struct {
	ChangedWords   int
	SpeakerRenames int
	// IndexMismatch is set when the editor word count diverges from the
	// recognizer word count. Recoverable: the overlapping prefix is merged
	// and trailing recognizer words keep their original values.
	IndexMismatch bool
}

// Merger applies editor-format edits to recognizer documents.
type Merger struct {
	clock func() time.Time
}

// NewMerger returns a Merger using the wall clock for correction timestamps.
func NewMerger() *Merger {
	return &Merger{clock: time.Now}
}

// NewMergerWithClock returns a Merger with a fixed clock, for tests.
func NewMergerWithClock(clock func() time.Time) *Merger {
	return &Merger{clock: clock}
}

// Merge pairs recognizer words with editor words positionally by index and
// embeds detected corrections into a deep copy of original. A word is changed
// when its text or punctuated text differs from the current recognizer value;
// on first change the value being overwritten is captured as the original.
// Re-merging an unchanged editor document returns an equal document with no
// extra correction generation.
func (m *Merger) Merge(original *models.RecognizerDocument, edited *models.EditorDocument) (*models.RecognizerDocument, MergeStats, error) {
	var stats MergeStats

	if edited == nil || len(edited.Words) == 0 {
		return nil, stats, ErrEmptyEditorDocument
	}

	out := original.Clone()
	alt := out.AuthoritativeAlternative()
	if alt == nil || len(alt.Words) == 0 {
		return nil, stats, ErrNoAuthoritativeWords
	}

	log := logging.WithComponent("correction")

	n := len(alt.Words)
	if len(edited.Words) != n {
		stats.IndexMismatch = true
		log.Warn().
			Int("recognizerWords", n).
			Int("editorWords", len(edited.Words)).
			Msg("Word count mismatch, merging overlapping prefix only")
		if len(edited.Words) < n {
			n = len(edited.Words)
		}
	}

	for i := 0; i < n; i++ {
		ew := edited.Words[i]
		w := &alt.Words[i]

		// Recognizers may omit punctuated text; the editor format carries
		// the word itself in its place, so compare against the same
		// effective value.
		punct := w.PunctuatedWord
		if punct == "" {
			punct = w.Word
		}
		if ew.Word == w.Word && ew.Punct == punct {
			continue
		}
		// Capture the pre-edit value exactly once, anchoring every later
		// diff to the pristine recognizer output.
		if w.OriginalWord == "" {
			w.OriginalWord = w.Word
		}
		if w.OriginalPunct == "" {
			w.OriginalPunct = punct
		}
		w.Corrected = true
		w.Word = ew.Word
		w.PunctuatedWord = ew.Punct
		stats.ChangedWords++
	}

	namesChanged := !speakerNamesEqual(currentSpeakerNames(out), edited.SpeakerNames)
	if stats.ChangedWords == 0 && !namesChanged {
		return out, stats, nil
	}

	// Transcript text is regenerated here and nowhere else; it is never
	// hand-edited directly.
	rebuilt := joinPunctuated(alt.Words)
	alt.Transcript = rebuilt
	out.Text = rebuilt

	prev := 0
	if out.Corrections != nil {
		prev = out.Corrections.Version
	}
	out.Corrections = &models.Corrections{
		Version:   prev + 1,
		Timestamp: m.clock().UTC().Format(time.RFC3339),
	}
	if len(edited.SpeakerNames) > 0 {
		names := make(map[int]string, len(edited.SpeakerNames))
		for id, name := range edited.SpeakerNames {
			names[id] = name
		}
		out.Corrections.SpeakerNames = names
		stats.SpeakerRenames = applySpeakerNames(out, names)
	}

	return out, stats, nil
}

// applySpeakerNames rewrites utterance labels from the structured id→name
// map. Unmapped speakers keep the default "Speaker N" label.
func applySpeakerNames(doc *models.RecognizerDocument, names map[int]string) int {
	renamed := 0
	for i := range doc.Speakers {
		u := &doc.Speakers[i]
		if name, ok := names[u.SpeakerID]; ok {
			if u.Speaker != name {
				renamed++
			}
			u.Speaker = name
		} else {
			u.Speaker = DefaultSpeakerLabel(u.SpeakerID)
		}
	}
	return renamed
}

// DefaultSpeakerLabel returns the label used for speakers without a custom
// name.
func DefaultSpeakerLabel(id int) string {
	return fmt.Sprintf("Speaker %d", id)
}

func joinPunctuated(words []models.Word) string {
	parts := make([]string, len(words))
	for i, w := range words {
		if w.PunctuatedWord != "" {
			parts[i] = w.PunctuatedWord
		} else {
			parts[i] = w.Word
		}
	}
	return strings.Join(parts, " ")
}

func currentSpeakerNames(doc *models.RecognizerDocument) map[int]string {
	if doc.Corrections == nil {
		return nil
	}
	return doc.Corrections.SpeakerNames
}

func speakerNamesEqual(a, b map[int]string) bool {
	if len(a) != len(b) {
		return false
	}
	for id, name := range a {
		if b[id] != name {
			return false
		}
	}
	return true
}
