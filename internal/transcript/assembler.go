// Package transcript accumulates speech recognition output into the answer
// text for a single attempt. Recognition engines deliver a mix of interim
// hypotheses and finalized fragments; the assembler keeps them separate and
// guarantees the finalized transcript never shrinks while recording.
package transcript

import (
	"strings"
	"sync"
	"unicode/utf8"
)

// MinAnswerLength is the minimum finalized transcript length (in runes) for
// an attempt to be gradeable.
const MinAnswerLength = 30

// Fragment is one recognized piece of speech. Engines that only produce plain
// strings can wrap them with Text alone.
type Fragment struct {
	Transcript string `json:"transcript"`
}

// State is a point-in-time view of the assembler.
type State struct {
	Interim   string
	Finalized string
}

// Assembler builds the answer transcript for one attempt. It is safe for
// concurrent use: recognition events arrive on the capture goroutine while
// the orchestrator reads snapshots.
type Assembler struct {
	mu        sync.Mutex
	interim   string
	finalized string
	stopped   bool
}

func NewAssembler() *Assembler {
	return &Assembler{}
}

// ApplyResults replaces the finalized transcript with the joined fragment
// texts. Fragments are joined with single spaces and trimmed; an empty join
// leaves the previous transcript in place so a late empty result cannot wipe
// recognized speech. After the attempt is stopped the call is a no-op.
func (a *Assembler) ApplyResults(fragments []Fragment) {
	parts := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if f.Transcript != "" {
			parts = append(parts, f.Transcript)
		}
	}
	joined := strings.TrimSpace(strings.Join(parts, " "))

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	if joined != "" {
		a.finalized = joined
	}
}

// ApplyInterim replaces the interim hypothesis wholesale. No-op once stopped.
func (a *Assembler) ApplyInterim(text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	a.interim = text
}

// MarkStopped freezes the assembler. Recognition engines can deliver trailing
// results after a manual stop; those must not alter the transcript the user
// decided to submit.
func (a *Assembler) MarkStopped() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
}

// Resume lifts the stop flag without clearing the transcript. The
// orchestrator uses it when a stop is rejected (answer too short) and the
// attempt continues.
func (a *Assembler) Resume() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = false
}

// Reset clears everything for a fresh attempt.
func (a *Assembler) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.interim = ""
	a.finalized = ""
	a.stopped = false
}

// Snapshot returns the current state with the finalized text trimmed.
func (a *Assembler) Snapshot() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return State{
		Interim:   a.interim,
		Finalized: strings.TrimSpace(a.finalized),
	}
}

// LongEnough reports whether the finalized transcript meets the minimum
// answer length.
func (a *Assembler) LongEnough() bool {
	return utf8.RuneCountInString(a.Snapshot().Finalized) >= MinAnswerLength
}
