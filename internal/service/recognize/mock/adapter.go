// Package mock provides a mock recognition adapter for development and
// testing without cloud credentials.
package mock

import (
	"context"
	"strings"
	"sync"
	"time"

	"transcript-revision-service/internal/models"
	"transcript-revision-service/internal/service/correction"
	"transcript-revision-service/internal/service/recognize"
)

const serviceName = "mock"

// SimulatedWord is one word of a canned transcript.
type SimulatedWord struct {
	Word       string
	Punct      string
	Start      float64
	End        float64
	Confidence float64
	Speaker    int
}

// DefaultWords provides a sample two-speaker exchange for simulation.
var DefaultWords = []SimulatedWord{
	{Word: "hello", Punct: "Hello,", Start: 0.08, End: 0.42, Confidence: 0.98, Speaker: 0},
	{Word: "thanks", Punct: "thanks", Start: 0.46, End: 0.81, Confidence: 0.96, Speaker: 0},
	{Word: "for", Punct: "for", Start: 0.81, End: 0.97, Confidence: 0.99, Speaker: 0},
	{Word: "calling", Punct: "calling.", Start: 0.97, End: 1.48, Confidence: 0.97, Speaker: 0},
	{Word: "hi", Punct: "Hi,", Start: 2.10, End: 2.35, Confidence: 0.95, Speaker: 1},
	{Word: "i", Punct: "I", Start: 2.39, End: 2.45, Confidence: 0.93, Speaker: 1},
	{Word: "need", Punct: "need", Start: 2.45, End: 2.70, Confidence: 0.97, Speaker: 1},
	{Word: "some", Punct: "some", Start: 2.70, End: 2.91, Confidence: 0.94, Speaker: 1},
	{Word: "help", Punct: "help.", Start: 2.91, End: 3.30, Confidence: 0.98, Speaker: 1},
}

// Adapter implements recognize.Adapter with canned responses. Each call
// returns a fresh document built from DefaultWords.
type Adapter struct {
	mu    sync.Mutex
	calls int
}

// New creates a new mock recognition adapter.
func New() *Adapter {
	return &Adapter{}
}

// Recognize ignores the audio and returns the canned document.
func (a *Adapter) Recognize(ctx context.Context, audio []byte, opts recognize.Options) (*models.RecognizerDocument, error) {
	a.mu.Lock()
	a.calls++
	a.mu.Unlock()

	return Document(), nil
}

// Close is a no-op.
func (a *Adapter) Close() error {
	return nil
}

// Document builds the canned transcript document from DefaultWords. Exported
// so tests elsewhere can use a realistic fixture.
func Document() *models.RecognizerDocument {
	words := make([]models.Word, len(DefaultWords))
	for i, sw := range DefaultWords {
		words[i] = models.Word{
			Word:              sw.Word,
			Start:             sw.Start,
			End:               sw.End,
			Confidence:        sw.Confidence,
			Speaker:           sw.Speaker,
			SpeakerConfidence: 0.9,
			PunctuatedWord:    sw.Punct,
		}
	}

	var utterances []models.Utterance
	runStart := 0
	for i := 1; i <= len(words); i++ {
		if i == len(words) || words[i].Speaker != words[runStart].Speaker {
			run := words[runStart:i]
			parts := make([]string, len(run))
			confSum := 0.0
			for j, w := range run {
				parts[j] = w.PunctuatedWord
				confSum += w.Confidence
			}
			id := run[0].Speaker
			utterances = append(utterances, models.Utterance{
				Speaker:    correction.DefaultSpeakerLabel(id),
				SpeakerID:  id,
				StartTime:  run[0].Start,
				EndTime:    run[len(run)-1].End,
				Text:       strings.Join(parts, " "),
				Confidence: confSum / float64(len(run)),
			})
			runStart = i
		}
	}

	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = w.PunctuatedWord
	}
	text := strings.Join(parts, " ")
	duration := words[len(words)-1].End

	return &models.RecognizerDocument{
		Text:          text,
		Speakers:      utterances,
		Confidence:    0.96,
		AudioDuration: duration,
		RawResponse: models.RawResponse{
			Metadata: models.RawMetadata{
				Created:  time.Now().UTC().Format(time.RFC3339),
				Duration: duration,
				Channels: 1,
			},
			Results: models.RawResults{
				Channels: []models.Channel{{
					Alternatives: []models.Alternative{{
						Transcript: text,
						Confidence: 0.96,
						Words:      words,
					}},
				}},
			},
		},
		ServiceName: serviceName,
	}
}
