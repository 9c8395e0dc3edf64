package capture

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	startAttempts     = 3
	defaultRetryDelay = time.Second
)

// Recorder drives a Source with the standard start policy: permission is
// checked before the engine is touched, and engine start failures are retried
// a fixed number of times before the attempt is abandoned.
type Recorder struct {
	source Source

	// RetryDelay is the pause between failed start attempts. Tests shrink it.
	RetryDelay time.Duration
}

func NewRecorder(source Source) *Recorder {
	return &Recorder{source: source, RetryDelay: defaultRetryDelay}
}

// Start checks microphone permission and then starts the recognition engine.
// A denied permission returns ErrPermissionDenied without starting the
// source. Engine failures are retried up to three times with a delay between
// attempts; exhaustion returns ErrRecognitionUnavailable.
func (r *Recorder) Start(ctx context.Context) error {
	state, err := r.source.Permission(ctx)
	if err != nil {
		return err
	}
	if state == PermissionDenied {
		return ErrPermissionDenied
	}

	var lastErr error
	for attempt := 1; attempt <= startAttempts; attempt++ {
		lastErr = r.source.Start(ctx)
		if lastErr == nil {
			return nil
		}
		log.Warn().Err(lastErr).Int("attempt", attempt).Msg("recognition start failed")
		if attempt < startAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.RetryDelay):
			}
		}
	}
	log.Error().Err(lastErr).Msg("recognition unavailable after retries")
	return ErrRecognitionUnavailable
}

// Stop stops the underlying source.
func (r *Recorder) Stop(ctx context.Context) error {
	return r.source.Stop(ctx)
}

// Events exposes the source's event stream.
func (r *Recorder) Events() <-chan Event {
	return r.source.Events()
}
