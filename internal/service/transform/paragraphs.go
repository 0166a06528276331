package transform

import (
	"sort"
	"strings"

	"transcript-revision-service/internal/models"
)

const (
	// PauseBreak is the silence gap between consecutive words that forces a
	// paragraph break.
	PauseBreak = 2.0
	// MaxParagraphWords caps paragraph length when neither speaker nor pause
	// breaks occur.
	MaxParagraphWords = 100
)

// Paragraph is a derived block of consecutive words, attributed to the
// speaker that utters the majority of them.
type Paragraph struct {
	Speaker   int     `json:"speaker"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	Text      string  `json:"text"`
	WordCount int     `json:"word_count"`
}

// ExtractParagraphs derives paragraphs from the authoritative word array.
// A new paragraph starts on a speaker change, after a pause longer than
// PauseBreak seconds, or when the current paragraph reaches
// MaxParagraphWords words.
func ExtractParagraphs(doc *models.RecognizerDocument) []Paragraph {
	words := doc.AuthoritativeWords()
	if len(words) == 0 {
		return nil
	}

	var paragraphs []Paragraph
	runStart := 0
	for i := 1; i < len(words); i++ {
		w := words[i]
		prev := words[i-1]
		if w.Speaker != prev.Speaker || w.Start-prev.End > PauseBreak || i-runStart >= MaxParagraphWords {
			paragraphs = append(paragraphs, buildParagraph(words[runStart:i]))
			runStart = i
		}
	}
	paragraphs = append(paragraphs, buildParagraph(words[runStart:]))
	return paragraphs
}

func buildParagraph(words []models.Word) Paragraph {
	counts := make(map[int]int)
	parts := make([]string, 0, len(words))
	for _, w := range words {
		counts[w.Speaker]++
		text := w.PunctuatedWord
		if text == "" {
			text = w.Word
		}
		parts = append(parts, text)
	}

	// Majority speaker, lowest id winning ties for determinism.
	speaker, best := 0, -1
	ids := make([]int, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if counts[id] > best {
			speaker, best = id, counts[id]
		}
	}

	return Paragraph{
		Speaker:   speaker,
		Start:     words[0].Start,
		End:       words[len(words)-1].End,
		Text:      strings.Join(parts, " "),
		WordCount: len(words),
	}
}

// FindWordAtTime returns the word whose [Start, End] interval contains t,
// or false when no word does. The word array is ordered by start time, so a
// binary search narrows the candidates.
func FindWordAtTime(doc *models.RecognizerDocument, t float64) (models.Word, bool) {
	words := doc.AuthoritativeWords()
	if len(words) == 0 {
		return models.Word{}, false
	}

	// First word starting after t; the match, if any, is at or before i-1.
	i := sort.Search(len(words), func(i int) bool { return words[i].Start > t })
	for j := i - 1; j >= 0; j-- {
		if words[j].End >= t {
			if words[j].Start <= t {
				return words[j], true
			}
			continue
		}
		break
	}
	return models.Word{}, false
}

// WordsInRange returns all words that overlap the [start, end] interval.
func WordsInRange(doc *models.RecognizerDocument, start, end float64) []models.Word {
	var out []models.Word
	for _, w := range doc.AuthoritativeWords() {
		if w.End >= start && w.Start <= end {
			out = append(out, w)
		}
	}
	return out
}
