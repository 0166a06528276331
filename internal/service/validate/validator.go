// Package validate checks structural well-formedness of recognizer documents
// and round-trip transformation integrity.
package validate

import (
	"fmt"
	"math"

	"transcript-revision-service/internal/models"
)

// Tolerance is the numeric tolerance for timing and confidence comparisons.
const Tolerance = 1e-3

// Result accumulates integrity violations. A single run reports all
// mismatches, not just the first.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

func (r *Result) addf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// RoundTrip verifies that merging an edited editor document back into a
// recognizer document changed only what a correction may change. Timing,
// speaker attribution, and confidence must survive the round trip; only
// text, punctuated text, and the correction ledger may differ.
func RoundTrip(original *models.RecognizerDocument, edited *models.EditorDocument, roundTripped *models.RecognizerDocument) Result {
	var res Result

	origWords := original.AuthoritativeWords()
	rtWords := roundTripped.AuthoritativeWords()

	n := len(origWords)
	if len(rtWords) < n {
		n = len(rtWords)
	}
	for i := 0; i < n; i++ {
		ow, rw := origWords[i], rtWords[i]
		if !within(ow.Start, rw.Start) {
			res.addf("word %d: start changed %.4f -> %.4f", i, ow.Start, rw.Start)
		}
		if !within(ow.End, rw.End) {
			res.addf("word %d: end changed %.4f -> %.4f", i, ow.End, rw.End)
		}
		if ow.Speaker != rw.Speaker {
			res.addf("word %d: speaker changed %d -> %d", i, ow.Speaker, rw.Speaker)
		}
		if !within(ow.Confidence, rw.Confidence) {
			res.addf("word %d: confidence changed %.4f -> %.4f", i, ow.Confidence, rw.Confidence)
		}
	}

	if !within(original.AudioDuration, roundTripped.AudioDuration) {
		res.addf("audio duration changed %.4f -> %.4f", original.AudioDuration, roundTripped.AudioDuration)
	}
	if !within(original.Confidence, roundTripped.Confidence) {
		res.addf("overall confidence changed %.4f -> %.4f", original.Confidence, roundTripped.Confidence)
	}

	res.Valid = len(res.Errors) == 0
	return res
}

// Structure checks that a recognizer document is structurally well-formed:
// an authoritative channel/alternative exists, words are present, and every
// word satisfies start < end.
func Structure(doc *models.RecognizerDocument) Result {
	var res Result

	if len(doc.RawResponse.Results.Channels) == 0 {
		res.addf("raw response has no channels")
		res.Valid = false
		return res
	}
	alt := doc.AuthoritativeAlternative()
	if alt == nil {
		res.addf("channel 0 has no alternatives")
		res.Valid = false
		return res
	}
	if len(alt.Words) == 0 {
		res.addf("authoritative alternative has no words")
	}
	for i, w := range alt.Words {
		if w.Word == "" {
			res.addf("word %d: empty text", i)
		}
		if w.Start >= w.End {
			res.addf("word %d: start %.4f >= end %.4f", i, w.Start, w.End)
		}
		if w.Confidence < 0 || w.Confidence > 1 {
			res.addf("word %d: confidence %.4f outside [0,1]", i, w.Confidence)
		}
		if w.Speaker < 0 {
			res.addf("word %d: negative speaker id %d", i, w.Speaker)
		}
	}
	if doc.AudioDuration < 0 {
		res.addf("negative audio duration %.4f", doc.AudioDuration)
	}

	res.Valid = len(res.Errors) == 0
	return res
}

func within(a, b float64) bool {
	return math.Abs(a-b) <= Tolerance
}
