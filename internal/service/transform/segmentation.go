package transform

import (
	"sort"
	"strconv"
	"strings"

	"transcript-revision-service/internal/models"
)

// Tier identifies which speaker-attribution granularity a segmentation graph
// was built from.
type Tier string

const (
	// TierUtterance - one segment per utterance; boundaries are authoritative.
	TierUtterance Tier = "utterance"
	// TierParagraph - one segment per recognizer-supplied sentence.
	TierParagraph Tier = "paragraph"
	// TierWordRun - consecutive words sharing a speaker id form one segment.
	TierWordRun Tier = "word_run"
)

// BuildSegmentation derives a speaker-turn graph from the best available
// granularity, in strict preference order: utterances, then paragraph
// sentences, then word runs. A nil graph means "cannot synchronize speaker
// view" (empty word array), not an error.
func BuildSegmentation(doc *models.RecognizerDocument) (*models.SegmentationGraph, Tier) {
	words := doc.AuthoritativeWords()
	if len(words) == 0 {
		return nil, ""
	}

	if len(doc.Speakers) > 0 {
		return fromUtterances(doc.Speakers), TierUtterance
	}

	alt := doc.AuthoritativeAlternative()
	if alt.Paragraphs != nil && len(alt.Paragraphs.Paragraphs) > 0 {
		return fromParagraphs(alt.Paragraphs.Paragraphs, words), TierParagraph
	}

	return fromWordRuns(words), TierWordRun
}

func fromUtterances(utterances []models.Utterance) *models.SegmentationGraph {
	segments := make([]models.SegmentationSegment, 0, len(utterances))
	for _, u := range utterances {
		id := u.SpeakerID
		if id == 0 && isDefaultSpeakerLabel(u.Speaker) {
			// Documents ingested before speaker ids were structured carry
			// the id only in the default "Speaker N" label. Custom names
			// never reach the parser, even when they end in digits.
			id = ParseSpeakerID(u.Speaker)
		}
		segments = append(segments, models.SegmentationSegment{
			Start:    u.StartTime,
			Duration: u.EndTime - u.StartTime,
			Speaker:  id,
		})
	}
	return buildGraph(segments)
}

func fromParagraphs(blocks []models.ParagraphBlock, words []models.Word) *models.SegmentationGraph {
	var segments []models.SegmentationSegment
	for _, block := range blocks {
		for _, sent := range block.Sentences {
			segments = append(segments, models.SegmentationSegment{
				Start:    sent.Start,
				Duration: sent.End - sent.Start,
				Speaker:  sentenceSpeaker(sent, words),
			})
		}
	}
	return buildGraph(segments)
}

// sentenceSpeaker attributes a sentence to the first word whose time range
// falls inside [sent.Start, sent.End). Sentences with no matching word
// default to speaker 0.
func sentenceSpeaker(sent models.Sentence, words []models.Word) int {
	for _, w := range words {
		if w.Start >= sent.Start && w.Start < sent.End {
			return w.Speaker
		}
	}
	return 0
}

func fromWordRuns(words []models.Word) *models.SegmentationGraph {
	var segments []models.SegmentationSegment
	runStart := words[0].Start
	runSpeaker := words[0].Speaker
	runEnd := words[0].End

	for _, w := range words[1:] {
		// A single differing speaker id ends the run immediately.
		if w.Speaker != runSpeaker {
			segments = append(segments, models.SegmentationSegment{
				Start:    runStart,
				Duration: runEnd - runStart,
				Speaker:  runSpeaker,
			})
			runStart = w.Start
			runSpeaker = w.Speaker
		}
		runEnd = w.End
	}
	segments = append(segments, models.SegmentationSegment{
		Start:    runStart,
		Duration: runEnd - runStart,
		Speaker:  runSpeaker,
	})
	return buildGraph(segments)
}

// buildGraph deduplicates speaker ids into a stable, sorted speaker list.
func buildGraph(segments []models.SegmentationSegment) *models.SegmentationGraph {
	seen := make(map[int]bool)
	var ids []int
	for _, s := range segments {
		if !seen[s.Speaker] {
			seen[s.Speaker] = true
			ids = append(ids, s.Speaker)
		}
	}
	sort.Ints(ids)

	speakers := make([]models.SegmentationSpeaker, 0, len(ids))
	for _, id := range ids {
		speakers = append(speakers, models.SegmentationSpeaker{ID: id, Gender: "unknown"})
	}
	return &models.SegmentationGraph{Speakers: speakers, Segments: segments}
}

// isDefaultSpeakerLabel reports whether label has the default "Speaker N"
// form.
func isDefaultSpeakerLabel(label string) bool {
	rest, ok := strings.CutPrefix(strings.TrimSpace(label), "Speaker ")
	if !ok {
		return false
	}
	n, err := strconv.Atoi(rest)
	return err == nil && n >= 0
}

// ParseSpeakerID extracts the numeric speaker id from an utterance label.
// Default labels have the form "Speaker N"; labels that carry no trailing
// number (custom names) map to speaker 0.
func ParseSpeakerID(label string) int {
	label = strings.TrimSpace(label)
	if n, err := strconv.Atoi(label); err == nil && n >= 0 {
		return n
	}
	if idx := strings.LastIndexByte(label, ' '); idx >= 0 {
		if n, err := strconv.Atoi(label[idx+1:]); err == nil && n >= 0 {
			return n
		}
	}
	return 0
}
