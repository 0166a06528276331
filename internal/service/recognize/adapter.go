// Package recognize defines the interface for speech recognition adapters
// that produce transcript documents.
package recognize

import (
	"context"

	"transcript-revision-service/internal/models"
)

// Options control a recognition request.
type Options struct {
	LanguageCode   string
	SampleRateHz   int
	EnableSpeakers bool
}

// DefaultOptions returns the options used when none are supplied.
func DefaultOptions() Options {
	return Options{
		LanguageCode:   "en-US",
		SampleRateHz:   16000,
		EnableSpeakers: true,
	}
}

// Adapter defines the interface for recognition providers. Implementations
// run batch recognition over complete audio and return the canonical
// document, ready to be stored as the original version.
type Adapter interface {
	// Recognize transcribes audio and builds a transcript document.
	Recognize(ctx context.Context, audio []byte, opts Options) (*models.RecognizerDocument, error)

	// Close releases provider resources.
	Close() error
}
