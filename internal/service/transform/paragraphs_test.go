package transform

import (
	"fmt"
	"testing"

	"transcript-revision-service/internal/models"
)

func TestExtractParagraphs_SpeakerBreak(t *testing.T) {
	doc := docWithWords([]models.Word{
		{Word: "hello", PunctuatedWord: "Hello,", Start: 0.0, End: 0.4, Speaker: 0},
		{Word: "there", PunctuatedWord: "there.", Start: 0.4, End: 0.8, Speaker: 0},
		{Word: "hi", PunctuatedWord: "Hi.", Start: 0.9, End: 1.2, Speaker: 1},
	})

	paragraphs := ExtractParagraphs(doc)
	if len(paragraphs) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d", len(paragraphs))
	}
	if paragraphs[0].Text != "Hello, there." {
		t.Errorf("unexpected first paragraph text %q", paragraphs[0].Text)
	}
	if paragraphs[0].Speaker != 0 || paragraphs[1].Speaker != 1 {
		t.Errorf("unexpected paragraph speakers: %+v", paragraphs)
	}
	if paragraphs[1].Start != 0.9 || paragraphs[1].End != 1.2 {
		t.Errorf("unexpected second paragraph bounds: %+v", paragraphs[1])
	}
}

func TestExtractParagraphs_PauseBreak(t *testing.T) {
	doc := docWithWords([]models.Word{
		{Word: "before", PunctuatedWord: "Before.", Start: 0.0, End: 0.5, Speaker: 0},
		// Gap of 2.5s exceeds the pause threshold.
		{Word: "after", PunctuatedWord: "After.", Start: 3.0, End: 3.5, Speaker: 0},
	})

	paragraphs := ExtractParagraphs(doc)
	if len(paragraphs) != 2 {
		t.Fatalf("expected pause to break paragraph, got %d paragraphs", len(paragraphs))
	}
}

func TestExtractParagraphs_WordCap(t *testing.T) {
	words := make([]models.Word, MaxParagraphWords+10)
	for i := range words {
		start := float64(i) * 0.3
		words[i] = models.Word{
			Word:           fmt.Sprintf("w%d", i),
			PunctuatedWord: fmt.Sprintf("w%d", i),
			Start:          start,
			End:            start + 0.25,
			Speaker:        0,
		}
	}

	paragraphs := ExtractParagraphs(docWithWords(words))
	if len(paragraphs) != 2 {
		t.Fatalf("expected word cap to split into 2 paragraphs, got %d", len(paragraphs))
	}
	if paragraphs[0].WordCount != MaxParagraphWords {
		t.Errorf("expected first paragraph at the cap, got %d words", paragraphs[0].WordCount)
	}
	if paragraphs[1].WordCount != 10 {
		t.Errorf("expected 10 remaining words, got %d", paragraphs[1].WordCount)
	}
}

func TestExtractParagraphs_Empty(t *testing.T) {
	if got := ExtractParagraphs(docWithWords(nil)); got != nil {
		t.Errorf("expected nil for empty words, got %v", got)
	}
}

func TestFindWordAtTime(t *testing.T) {
	doc := docWithWords([]models.Word{
		{Word: "one", Start: 0.0, End: 0.5},
		{Word: "two", Start: 0.6, End: 1.0},
		{Word: "three", Start: 1.0, End: 1.5},
	})

	tests := []struct {
		name  string
		t     float64
		want  string
		found bool
	}{
		{"inside first", 0.25, "one", true},
		{"exact start", 0.6, "two", true},
		{"exact end", 0.5, "one", true},
		{"in gap", 0.55, "", false},
		{"before all", -1.0, "", false},
		{"after all", 2.0, "", false},
		{"boundary shared", 1.0, "two", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, ok := FindWordAtTime(doc, tt.t)
			if ok != tt.found {
				t.Fatalf("found = %v, want %v", ok, tt.found)
			}
			if ok && w.Word != tt.want {
				t.Errorf("got word %q, want %q", w.Word, tt.want)
			}
		})
	}
}

func TestWordsInRange(t *testing.T) {
	doc := docWithWords([]models.Word{
		{Word: "one", Start: 0.0, End: 0.5},
		{Word: "two", Start: 0.6, End: 1.0},
		{Word: "three", Start: 1.1, End: 1.5},
	})

	words := WordsInRange(doc, 0.4, 1.05)
	if len(words) != 2 {
		t.Fatalf("expected 2 overlapping words, got %d", len(words))
	}
	if words[0].Word != "one" || words[1].Word != "two" {
		t.Errorf("unexpected words in range: %+v", words)
	}

	if got := WordsInRange(doc, 5.0, 6.0); got != nil {
		t.Errorf("expected no words outside range, got %+v", got)
	}
}
