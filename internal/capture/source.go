// Package capture abstracts speech recognition engines behind an event
// stream. A Source emits interim hypotheses, finalized results, errors, and
// permission changes; the Recorder adds the permission gate and start retry
// policy in front of any Source.
package capture

import (
	"context"
	"errors"
)

// PermissionState mirrors the browser permission model for microphone access.
type PermissionState string

const (
	PermissionGranted PermissionState = "granted"
	PermissionDenied  PermissionState = "denied"
	PermissionPrompt  PermissionState = "prompt"
)

var (
	// ErrPermissionDenied means microphone access was refused. The source is
	// never started in that case.
	ErrPermissionDenied = errors.New("microphone permission denied")

	// ErrRecognitionUnavailable means the recognition engine failed to start
	// after all retry attempts.
	ErrRecognitionUnavailable = errors.New("speech recognition unavailable")
)

// Event is one recognition occurrence. Exactly one concrete type is delivered
// per channel receive.
type Event interface {
	isEvent()
}

// EventInterim carries an in-progress hypothesis that may still change.
type EventInterim struct {
	Text string
}

// EventFinal carries finalized fragments for the attempt so far.
type EventFinal struct {
	Fragments []string
}

// EventError reports an engine failure. The source stops emitting after it.
type EventError struct {
	Err error
}

// EventPermission reports a permission change observed mid-session.
type EventPermission struct {
	State PermissionState
}

func (EventInterim) isEvent()    {}
func (EventFinal) isEvent()      {}
func (EventError) isEvent()      {}
func (EventPermission) isEvent() {}

// Source is a speech recognition engine. Events() must be closed by the
// source once it has permanently stopped emitting.
type Source interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Events() <-chan Event
	Permission(ctx context.Context) (PermissionState, error)
}
