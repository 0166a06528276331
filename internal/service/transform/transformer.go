// Package transform converts recognizer-format transcript documents into the
// flattened editor representation. The transformer is stateless; transforming
// the same document twice yields structurally equal output.
package transform

import (
	"errors"

	"transcript-revision-service/internal/models"
	"transcript-revision-service/internal/observability/metrics"
)

// ErrMalformedDocument indicates a recognizer document without an
// authoritative word array. Fatal: the transform is aborted.
var ErrMalformedDocument = errors.New("recognizer document has no authoritative words")

// NeutralConfidence replaces a missing word confidence. Confidence is
// advisory, so a missing value never fails the transform.
const NeutralConfidence = 0.9

// ToEditorFormat produces one editor word per recognizer word, preserving
// order and index, and populates the segmentation graph. Correction flags are
// copied verbatim; a format conversion never drops correction history.
func ToEditorFormat(doc *models.RecognizerDocument) (*models.EditorDocument, error) {
	words := doc.AuthoritativeWords()
	if len(words) == 0 {
		return nil, ErrMalformedDocument
	}

	editorWords := make([]models.EditorWord, len(words))
	for i, w := range words {
		confidence := w.Confidence
		if confidence <= 0 {
			confidence = NeutralConfidence
		}
		punct := w.PunctuatedWord
		if punct == "" {
			punct = w.Word
		}
		editorWords[i] = models.EditorWord{
			Word:              w.Word,
			Punct:             punct,
			Start:             w.Start,
			End:               w.End,
			Confidence:        confidence,
			Speaker:           w.Speaker,
			SpeakerConfidence: w.SpeakerConfidence,
			Index:             i,
			Corrected:         w.Corrected,
			OriginalWord:      w.OriginalWord,
			OriginalPunct:     w.OriginalPunct,
		}
	}

	segmentation, tier := BuildSegmentation(doc)
	metrics.DefaultMetrics.RecordSegmentationTier(string(tier))

	speakers := make([]models.Utterance, len(doc.Speakers))
	copy(speakers, doc.Speakers)

	out := &models.EditorDocument{
		Words:        editorWords,
		Speakers:     speakers,
		Segmentation: segmentation,
		Transcript:   doc.Text,
		Metadata: models.EditorMetadata{
			Duration:    doc.AudioDuration,
			Confidence:  doc.Confidence,
			ServiceName: doc.ServiceName,
		},
	}

	// Presence of the map signals "has custom names"; never an empty map.
	if doc.Corrections != nil && len(doc.Corrections.SpeakerNames) > 0 {
		names := make(map[int]string, len(doc.Corrections.SpeakerNames))
		for id, name := range doc.Corrections.SpeakerNames {
			names[id] = name
		}
		out.SpeakerNames = names
	}

	return out, nil
}
