// Package google provides a Google Cloud Speech-to-Text recognition adapter.
package google

import (
	"context"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"

	"transcript-revision-service/internal/models"
	"transcript-revision-service/internal/service/correction"
	"transcript-revision-service/internal/service/recognize"
)

const serviceName = "google"

// Adapter implements recognize.Adapter using Google Cloud Speech-to-Text.
type Adapter struct {
	client *speech.Client
}

// New creates a new Google recognition adapter.
// Requires GOOGLE_APPLICATION_CREDENTIALS environment variable to be set.
func New(ctx context.Context) (*Adapter, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &Adapter{client: c}, nil
}

// Recognize runs batch recognition and converts the provider response into
// the canonical document shape.
func (a *Adapter) Recognize(ctx context.Context, audio []byte, opts recognize.Options) (*models.RecognizerDocument, error) {
	started := time.Now()

	req := &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:              speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:       int32(opts.SampleRateHz),
			LanguageCode:          opts.LanguageCode,
			EnableWordTimeOffsets: true,
			EnableWordConfidence:  true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	}
	if opts.EnableSpeakers {
		req.Config.DiarizationConfig = &speechpb.SpeakerDiarizationConfig{
			EnableSpeakerDiarization: true,
		}
	}

	resp, err := a.client.Recognize(ctx, req)
	if err != nil {
		return nil, err
	}

	doc := Convert(resp)
	doc.ProcessingTime = time.Since(started).Seconds()
	return doc, nil
}

// Close releases the underlying client.
func (a *Adapter) Close() error {
	return a.client.Close()
}

// Convert maps a Google recognition response onto the canonical document.
// With diarization enabled the last result repeats every word carrying
// speaker tags, so words are taken from the final result when tags are
// present there.
func Convert(resp *speechpb.RecognizeResponse) *models.RecognizerDocument {
	words := collectWords(resp)

	var (
		transcripts []string
		confSum     float64
		confCount   int
	)
	for _, r := range resp.Results {
		if len(r.Alternatives) == 0 {
			continue
		}
		alt := r.Alternatives[0]
		transcripts = append(transcripts, strings.TrimSpace(alt.Transcript))
		if alt.Confidence > 0 {
			confSum += float64(alt.Confidence)
			confCount++
		}
	}

	text := strings.Join(transcripts, " ")
	confidence := 0.0
	if confCount > 0 {
		confidence = confSum / float64(confCount)
	}

	duration := 0.0
	if n := len(words); n > 0 {
		duration = words[n-1].End
	}

	return &models.RecognizerDocument{
		Text:          text,
		Speakers:      buildUtterances(words),
		Confidence:    confidence,
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
						Confidence: confidence,
						Words:      words,
					}},
				}},
			},
		},
		ServiceName: serviceName,
	}
}

func collectWords(resp *speechpb.RecognizeResponse) []models.Word {
	// Prefer the diarization result: Google repeats all words with speaker
	// tags in the last result.
	if n := len(resp.Results); n > 0 && hasSpeakerTags(resp.Results[n-1]) {
		if ws := resultWords(resp.Results[n-1]); len(ws) > 0 {
			return ws
		}
	}

	var words []models.Word
	for _, r := range resp.Results {
		words = append(words, resultWords(r)...)
	}
	return words
}

func hasSpeakerTags(r *speechpb.SpeechRecognitionResult) bool {
	if len(r.Alternatives) == 0 {
		return false
	}
	for _, w := range r.Alternatives[0].Words {
		if w.SpeakerTag != 0 {
			return true
		}
	}
	return false
}

func resultWords(r *speechpb.SpeechRecognitionResult) []models.Word {
	if len(r.Alternatives) == 0 {
		return nil
	}
	alt := r.Alternatives[0]
	words := make([]models.Word, 0, len(alt.Words))
	for _, w := range alt.Words {
		speaker := int(w.SpeakerTag)
		if speaker > 0 {
			// Google tags are 1-based; speaker ids are 0-based.
			speaker--
		}
		words = append(words, models.Word{
			Word:           strings.ToLower(strings.Trim(w.Word, ".,!?")),
			Start:          w.StartTime.AsDuration().Seconds(),
			End:            w.EndTime.AsDuration().Seconds(),
			Confidence:     float64(w.Confidence),
			Speaker:        speaker,
			PunctuatedWord: w.Word,
		})
	}
	return words
}

// buildUtterances groups consecutive same-speaker words into utterances.
func buildUtterances(words []models.Word) []models.Utterance {
	if len(words) == 0 {
		return nil
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
	return utterances
}
