// Package models defines the data structures for recognizer and editor
// transcript documents.
package models

// Word is a single recognized word in the authoritative alternative.
// Invariant: Start < End. Corrected words additionally carry the original
// values, captured exactly once on first correction.
type Word struct {
	Word              string  `json:"word"`
	Start             float64 `json:"start"`
	End               float64 `json:"end"`
	Confidence        float64 `json:"confidence"`
	Speaker           int     `json:"speaker"`
	SpeakerConfidence float64 `json:"speaker_confidence"`
	PunctuatedWord    string  `json:"punctuated_word"`

	Corrected     bool   `json:"corrected,omitempty"`
	OriginalWord  string `json:"original_word,omitempty"`
	OriginalPunct string `json:"original_punct,omitempty"`
}

// Utterance is a speaker-attributed time span with its own text,
// independent of word or paragraph granularity. SpeakerID is first-class
// structured data; the display label is never reverse-parsed to recover it.
type Utterance struct {
	Speaker    string  `json:"speaker"`
	SpeakerID  int     `json:"speaker_id"`
	StartTime  float64 `json:"start_time"`
	EndTime    float64 `json:"end_time"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Sentence is a recognizer-supplied sentence inside a paragraph block.
type Sentence struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// ParagraphBlock groups sentences as supplied by the recognizer.
type ParagraphBlock struct {
	Sentences []Sentence `json:"sentences"`
	Speaker   int        `json:"speaker"`
	Start     float64    `json:"start"`
	End       float64    `json:"end"`
}

// Paragraphs is the optional paragraph structure of an alternative.
type Paragraphs struct {
	Transcript string           `json:"transcript,omitempty"`
	Paragraphs []ParagraphBlock `json:"paragraphs"`
}

// Alternative holds one transcription hypothesis. Index 0 of the first
// channel is the authoritative one.
type Alternative struct {
	Transcript string      `json:"transcript"`
	Confidence float64     `json:"confidence,omitempty"`
	Words      []Word      `json:"words"`
	Paragraphs *Paragraphs `json:"paragraphs,omitempty"`
}

// Channel holds the alternatives for one audio channel.
type Channel struct {
	Alternatives []Alternative `json:"alternatives"`
}

// RawMetadata is the recognizer's response metadata.
type RawMetadata struct {
	RequestID string  `json:"request_id,omitempty"`
	Created   string  `json:"created,omitempty"`
	Duration  float64 `json:"duration,omitempty"`
	Channels  int     `json:"channels,omitempty"`
}

// RawResults holds the channel list of a raw recognizer response.
type RawResults struct {
	Channels []Channel `json:"channels"`
}

// RawResponse is the unmodified recognizer output preserved inside every
// document version.
type RawResponse struct {
	Metadata RawMetadata `json:"metadata"`
	Results  RawResults  `json:"results"`
}

// Corrections records the document-local edit generation. Version here is an
// in-memory edit counter, not a persisted version number.
type Corrections struct {
	Version      int            `json:"version"`
	Timestamp    string         `json:"timestamp"`
	SpeakerNames map[int]string `json:"speaker_names,omitempty"`
}

// RecognizerDocument is the canonical transcript document. AudioDuration and
// Confidence are immutable across corrections; only word content, transcript
// text, and speaker names may change.
type RecognizerDocument struct {
	Text           string       `json:"text"`
	Speakers       []Utterance  `json:"speakers"`
	Confidence     float64      `json:"confidence"`
	AudioDuration  float64      `json:"audio_duration"`
	ProcessingTime float64      `json:"processing_time,omitempty"`
	RawResponse    RawResponse  `json:"raw_response"`
	Corrections    *Corrections `json:"corrections,omitempty"`
	ServiceName    string       `json:"service,omitempty"`
}

// AuthoritativeAlternative returns a pointer to channel 0, alternative 0, or
// nil when the document has no such alternative.
func (d *RecognizerDocument) AuthoritativeAlternative() *Alternative {
	if len(d.RawResponse.Results.Channels) == 0 {
		return nil
	}
	ch := &d.RawResponse.Results.Channels[0]
	if len(ch.Alternatives) == 0 {
		return nil
	}
	return &ch.Alternatives[0]
}

// AuthoritativeWords returns the word array of channel 0, alternative 0.
func (d *RecognizerDocument) AuthoritativeWords() []Word {
	alt := d.AuthoritativeAlternative()
	if alt == nil {
		return nil
	}
	return alt.Words
}

// Clone returns a structural deep copy of the document. Callers that merge
// corrections operate on clones and never mutate a stored version in place.
func (d *RecognizerDocument) Clone() *RecognizerDocument {
	out := *d

	out.Speakers = make([]Utterance, len(d.Speakers))
	copy(out.Speakers, d.Speakers)

	out.RawResponse.Results.Channels = make([]Channel, len(d.RawResponse.Results.Channels))
	for i, ch := range d.RawResponse.Results.Channels {
		alts := make([]Alternative, len(ch.Alternatives))
		for j, alt := range ch.Alternatives {
			words := make([]Word, len(alt.Words))
			copy(words, alt.Words)
			alt.Words = words
			if alt.Paragraphs != nil {
				paras := *alt.Paragraphs
				paras.Paragraphs = make([]ParagraphBlock, len(alt.Paragraphs.Paragraphs))
				for k, pb := range alt.Paragraphs.Paragraphs {
					sents := make([]Sentence, len(pb.Sentences))
					copy(sents, pb.Sentences)
					pb.Sentences = sents
					paras.Paragraphs[k] = pb
				}
				alt.Paragraphs = &paras
			}
			alts[j] = alt
		}
		out.RawResponse.Results.Channels[i] = Channel{Alternatives: alts}
	}

	if d.Corrections != nil {
		corr := *d.Corrections
		if d.Corrections.SpeakerNames != nil {
			corr.SpeakerNames = make(map[int]string, len(d.Corrections.SpeakerNames))
			for k, v := range d.Corrections.SpeakerNames {
				corr.SpeakerNames[k] = v
			}
		}
		out.Corrections = &corr
	}

	return &out
}

// Version is an immutable, numbered, persisted snapshot of a transcript's
// recognizer document. Version 0 is the original recognizer output and is
// never deletable.
type Version struct {
	Version   int                `json:"version"`
	Timestamp string             `json:"timestamp"`
	Changes   string             `json:"changes"`
	Document  RecognizerDocument `json:"document"`
}

// VersionInfo is version metadata without the document payload.
type VersionInfo struct {
	Version   int    `json:"version"`
	Timestamp string `json:"timestamp"`
	Changes   string `json:"changes"`
}
