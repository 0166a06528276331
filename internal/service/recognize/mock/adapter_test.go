package mock

import (
	"context"
	"testing"

	"transcript-revision-service/internal/service/recognize"
	"transcript-revision-service/internal/service/validate"
)

func TestRecognize_ReturnsWellFormedDocument(t *testing.T) {
	a := New()
	defer a.Close()

	doc, err := a.Recognize(context.Background(), nil, recognize.DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res := validate.Structure(doc); !res.Valid {
		t.Errorf("fixture document is malformed: %v", res.Errors)
	}
	if len(doc.AuthoritativeWords()) != len(DefaultWords) {
		t.Errorf("expected %d words, got %d", len(DefaultWords), len(doc.AuthoritativeWords()))
	}
	if doc.ServiceName != "mock" {
		t.Errorf("unexpected service name %q", doc.ServiceName)
	}
}

func TestDocument_UtteranceGrouping(t *testing.T) {
	doc := Document()

	if len(doc.Speakers) != 2 {
		t.Fatalf("expected 2 utterances, got %d", len(doc.Speakers))
	}
	if doc.Speakers[0].SpeakerID != 0 || doc.Speakers[1].SpeakerID != 1 {
		t.Errorf("unexpected speaker ids: %+v", doc.Speakers)
	}
	if doc.Speakers[0].EndTime >= doc.Speakers[1].StartTime {
		t.Error("utterances must not overlap")
	}
}

func TestDocument_FreshCopyPerCall(t *testing.T) {
	a := Document()
	b := Document()

	a.RawResponse.Results.Channels[0].Alternatives[0].Words[0].Word = "mutated"
	if b.AuthoritativeWords()[0].Word == "mutated" {
		t.Error("documents must not share word storage")
	}
}
