package google

import (
	"math"
	"testing"
	"time"

	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/protobuf/types/known/durationpb"
)

func wordInfo(word string, start, end float64, confidence float32, tag int32) *speechpb.WordInfo {
	return &speechpb.WordInfo{
		Word:       word,
		StartTime:  durationpb.New(time.Duration(start * float64(time.Second))),
		EndTime:    durationpb.New(time.Duration(end * float64(time.Second))),
		Confidence: confidence,
		SpeakerTag: tag,
	}
}

func TestConvert_Basic(t *testing.T) {
	resp := &speechpb.RecognizeResponse{
		Results: []*speechpb.SpeechRecognitionResult{{
			Alternatives: []*speechpb.SpeechRecognitionAlternative{{
				Transcript: "Hello world.",
				Confidence: 0.95,
				Words: []*speechpb.WordInfo{
					wordInfo("Hello,", 0.1, 0.5, 0.97, 0),
					wordInfo("world.", 0.5, 0.9, 0.93, 0),
				},
			}},
		}},
	}

	doc := Convert(resp)

	if doc.Text != "Hello world." {
		t.Errorf("unexpected text %q", doc.Text)
	}
	if doc.ServiceName != "google" {
		t.Errorf("unexpected service name %q", doc.ServiceName)
	}

	words := doc.AuthoritativeWords()
	if len(words) != 2 {
		t.Fatalf("expected 2 words, got %d", len(words))
	}
	if words[0].Word != "hello" || words[0].PunctuatedWord != "Hello," {
		t.Errorf("punctuation not split out: %+v", words[0])
	}
	if math.Abs(words[0].Start-0.1) > 1e-6 || math.Abs(words[0].End-0.5) > 1e-6 {
		t.Errorf("timing not converted: %+v", words[0])
	}
	if math.Abs(doc.AudioDuration-0.9) > 1e-6 {
		t.Errorf("expected duration from last word end, got %v", doc.AudioDuration)
	}
	if math.Abs(doc.Confidence-0.95) > 1e-6 {
		t.Errorf("unexpected confidence %v", doc.Confidence)
	}
}

func TestConvert_DiarizedResultWins(t *testing.T) {
	// With diarization, the last result repeats every word with speaker tags.
	resp := &speechpb.RecognizeResponse{
		Results: []*speechpb.SpeechRecognitionResult{
			{
				Alternatives: []*speechpb.SpeechRecognitionAlternative{{
					Transcript: "Hello world.",
					Confidence: 0.95,
					Words: []*speechpb.WordInfo{
						wordInfo("Hello,", 0.1, 0.5, 0.97, 0),
						wordInfo("world.", 0.5, 0.9, 0.93, 0),
					},
				}},
			},
			{
				Alternatives: []*speechpb.SpeechRecognitionAlternative{{
					Words: []*speechpb.WordInfo{
						wordInfo("Hello,", 0.1, 0.5, 0.97, 1),
						wordInfo("world.", 0.5, 0.9, 0.93, 2),
					},
				}},
			},
		},
	}

	doc := Convert(resp)

	words := doc.AuthoritativeWords()
	if len(words) != 2 {
		t.Fatalf("expected diarized words only, got %d", len(words))
	}
	// 1-based tags map to 0-based speaker ids.
	if words[0].Speaker != 0 || words[1].Speaker != 1 {
		t.Errorf("speaker tags not converted: %+v", words)
	}

	if len(doc.Speakers) != 2 {
		t.Fatalf("expected 2 utterances, got %d", len(doc.Speakers))
	}
	if doc.Speakers[0].Speaker != "Speaker 0" || doc.Speakers[0].SpeakerID != 0 {
		t.Errorf("unexpected first utterance: %+v", doc.Speakers[0])
	}
	if doc.Speakers[1].Text != "world." {
		t.Errorf("unexpected second utterance text %q", doc.Speakers[1].Text)
	}
}

func TestConvert_Empty(t *testing.T) {
	doc := Convert(&speechpb.RecognizeResponse{})

	if doc.Text != "" || doc.AudioDuration != 0 {
		t.Errorf("expected empty document, got %+v", doc)
	}
	if doc.Speakers != nil {
		t.Errorf("expected no utterances, got %+v", doc.Speakers)
	}
}
