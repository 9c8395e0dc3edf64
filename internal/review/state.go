// Package review orchestrates one answer attempt end to end: recording,
// transcript assembly, grading, voice analysis, and the idempotent save. The
// session lifecycle is an explicit state machine so every phase change is a
// checked transition.
package review

import "fmt"

// State is the phase of an answer session.
type State string

const (
	StateIdle            State = "idle"
	StateRecording       State = "recording"
	StateGrading         State = "grading"
	StateAnalyzingVoice  State = "analyzing_voice"
	StateReadyToSave     State = "ready_to_save"
	StateSaved           State = "saved"
	StateAlreadyAnswered State = "already_answered"
)

// StateEvent is an occurrence that moves a session between states.
type StateEvent string

const (
	EventPriorAnswerFound StateEvent = "prior_answer_found"
	EventStartRecording   StateEvent = "start_recording"
	EventStopAccepted     StateEvent = "stop_accepted"
	EventGradeDone        StateEvent = "grade_done"
	EventAnalysisDone     StateEvent = "analysis_done"
	EventSaveDone         StateEvent = "save_done"
	EventRecordAgain      StateEvent = "record_again"
)

// ErrInvalidTransition reports an event that is not legal in the current
// state.
type ErrInvalidTransition struct {
	From  State
	Event StateEvent
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("invalid transition: event %q in state %q", e.Event, e.From)
}

// Transition returns the state that follows `from` when `event` occurs. It is
// a pure function; illegal combinations return ErrInvalidTransition and leave
// the caller's state unchanged.
func Transition(from State, event StateEvent) (State, error) {
	// A retake is legal from every state and always discards the attempt.
	if event == EventRecordAgain {
		return StateRecording, nil
	}

	switch from {
	case StateIdle:
		switch event {
		case EventPriorAnswerFound:
			return StateAlreadyAnswered, nil
		case EventStartRecording:
			return StateRecording, nil
		}
	case StateRecording:
		if event == EventStopAccepted {
			return StateGrading, nil
		}
	case StateGrading:
		if event == EventGradeDone {
			return StateAnalyzingVoice, nil
		}
	case StateAnalyzingVoice:
		if event == EventAnalysisDone {
			return StateReadyToSave, nil
		}
	case StateReadyToSave:
		if event == EventSaveDone {
			return StateSaved, nil
		}
	}
	return from, &ErrInvalidTransition{From: from, Event: event}
}
