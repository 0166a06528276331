package models

// EditorWord mirrors Word in the flattened editor representation. The editor
// uses "punct" for the punctuated text and carries a positional index.
// Invariant at transform time: Words[i].Index == i.
type EditorWord struct {
	Word              string  `json:"word"`
	Punct             string  `json:"punct"`
	Start             float64 `json:"start"`
	End               float64 `json:"end"`
	Confidence        float64 `json:"confidence"`
	Speaker           int     `json:"speaker"`
	SpeakerConfidence float64 `json:"speaker_confidence"`
	Index             int     `json:"index"`

	Corrected     bool   `json:"corrected,omitempty"`
	OriginalWord  string `json:"original_word,omitempty"`
	OriginalPunct string `json:"original_punct,omitempty"`
}

// SegmentationSpeaker is one deduplicated speaker in a segmentation graph.
type SegmentationSpeaker struct {
	ID     int    `json:"id"`
	Gender string `json:"gender"`
}

// SegmentationSegment is one speaker turn in a segmentation graph.
type SegmentationSegment struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	Speaker  int     `json:"speaker_id"`
}

// SegmentationGraph is a derived speaker-turn view used to synchronize
// playback and highlighting. It is disposable and always rebuildable from
// the recognizer document; never a source of truth.
type SegmentationGraph struct {
	Speakers []SegmentationSpeaker `json:"speakers"`
	Segments []SegmentationSegment `json:"segments"`
}

// EditorMetadata carries document-level figures into the editor.
type EditorMetadata struct {
	Duration    float64 `json:"duration"`
	Confidence  float64 `json:"confidence"`
	ServiceName string  `json:"service"`
}

// EditorDocument is the flattened representation consumed and produced by the
// interactive editing surface. SpeakerNames is nil unless custom names exist;
// presence signals "has custom names".
type EditorDocument struct {
	Words        []EditorWord       `json:"words"`
	Speakers     []Utterance        `json:"speakers"`
	Segmentation *SegmentationGraph `json:"segmentation,omitempty"`
	Transcript   string             `json:"transcript"`
	Metadata     EditorMetadata     `json:"metadata"`
	SpeakerNames map[int]string     `json:"speaker_names,omitempty"`
}
