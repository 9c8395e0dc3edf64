package review

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jonathan/interview-coach/internal/capture"
	"github.com/jonathan/interview-coach/internal/observability"
	"github.com/jonathan/interview-coach/internal/transcript"
	"github.com/jonathan/interview-coach/internal/types"
	"github.com/jonathan/interview-coach/internal/voice"
)

const (
	defaultSettleDelay   = 2 * time.Second
	defaultAnalysisDelay = time.Second
)

var (
	// ErrAnswerTooShort rejects a stop when the finalized transcript is under
	// the minimum answer length. The session stays in the recording state.
	ErrAnswerTooShort = errors.New("answer is too short to grade")

	// ErrNoGrade rejects a save that has no grade result attached.
	ErrNoGrade = errors.New("no grade result to save")

	// ErrNoUser means no authenticated user id is available, so prior answers
	// cannot be checked and new ones cannot be saved.
	ErrNoUser = errors.New("no user id on session")
)

// Grader produces a correctness assessment for an answer.
type Grader interface {
	Grade(ctx context.Context, question types.Question, userAnswer string) (types.GradeResult, error)
}

// VoiceAnalyzer produces the secondary structured judgment of an answer.
type VoiceAnalyzer interface {
	Analyze(ctx context.Context, question, transcription, expectedAnswer string) (types.VoiceAnalysisResult, voice.Source)
}

// AnswerStore is the persistence gateway the panel saves through.
type AnswerStore interface {
	FindUserAnswer(ctx context.Context, userID, question string) (*types.UserAnswer, error)
	SaveUserAnswer(ctx context.Context, answer types.UserAnswer) (types.UserAnswer, error)
}

// RecordingDevice is the capture surface the panel drives.
// *capture.Recorder satisfies it.
type RecordingDevice interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Events() <-chan capture.Event
}

// SaveOutcome reports the result of a save request.
type SaveOutcome struct {
	Answer          types.UserAnswer
	AlreadyAnswered bool
}

// Snapshot is a point-in-time view of a session, pushed to clients after
// every phase change.
type Snapshot struct {
	State          State                      `json:"state"`
	Interim        string                     `json:"interim"`
	Transcript     string                     `json:"transcript"`
	Grade          *types.GradeResult         `json:"grade,omitempty"`
	GradeDegraded  bool                       `json:"grade_degraded,omitempty"`
	Analysis       *types.VoiceAnalysisResult `json:"analysis,omitempty"`
	AnalysisSource voice.Source               `json:"analysis_source,omitempty"`
	Saved          *types.UserAnswer          `json:"saved,omitempty"`
}

// Panel coordinates one answer session for one question.
type Panel struct {
	question    types.Question
	interviewID *uuid.UUID
	userID      string

	device    RecordingDevice
	assembler *transcript.Assembler
	grader    Grader
	analyzer  VoiceAnalyzer
	store     AnswerStore

	// SettleDelay is the pause after stopping capture, giving the recognition
	// engine time to deliver trailing results. AnalysisDelay is the pause
	// between grading and voice analysis. Tests shrink both.
	SettleDelay   time.Duration
	AnalysisDelay time.Duration

	mu             sync.Mutex
	state          State
	manualStop     bool
	consuming      bool
	grade          *types.GradeResult
	gradeDegraded  bool
	analysis       *types.VoiceAnalysisResult
	analysisSource voice.Source
	saved          *types.UserAnswer
}

// NewPanel builds an idle session for one question. interviewID may be nil
// for standalone practice questions.
func NewPanel(question types.Question, interviewID *uuid.UUID, userID string,
	device RecordingDevice, grader Grader, analyzer VoiceAnalyzer, store AnswerStore) *Panel {
	return &Panel{
		question:      question,
		interviewID:   interviewID,
		userID:        userID,
		device:        device,
		assembler:     transcript.NewAssembler(),
		grader:        grader,
		analyzer:      analyzer,
		store:         store,
		SettleDelay:   defaultSettleDelay,
		AnalysisDelay: defaultAnalysisDelay,
		state:         StateIdle,
	}
}

// Load checks for a prior answer to this question. When one exists the
// session lands in the already-answered state and the stored record is
// exposed through the snapshot. Without a user id the check is skipped and
// the session stays idle.
func (p *Panel) Load(ctx context.Context) error {
	if p.userID == "" || p.store == nil {
		return nil
	}
	prior, err := p.store.FindUserAnswer(ctx, p.userID, p.question.Question)
	if err != nil {
		return err
	}
	if prior == nil {
		return nil
	}
	if err := p.apply(EventPriorAnswerFound); err != nil {
		return err
	}
	p.mu.Lock()
	p.saved = prior
	p.mu.Unlock()
	return nil
}

// StartRecording begins a capture attempt. The device is only started after
// the transition is known to be legal, and the state only advances once the
// device has started.
func (p *Panel) StartRecording(ctx context.Context) error {
	p.mu.Lock()
	next, err := Transition(p.state, EventStartRecording)
	if err != nil {
		p.mu.Unlock()
		return err
	}
	p.mu.Unlock()

	if err := p.device.Start(ctx); err != nil {
		return err
	}

	p.mu.Lock()
	p.state = next
	p.manualStop = false
	p.mu.Unlock()
	p.assembler.Reset()
	observability.DefaultMetrics.RecordingsStarted.Inc()

	p.ensureConsumer()
	return nil
}

// ensureConsumer spawns the event consumer if one is not already draining the
// device stream. Both StartRecording and RecordAgain can be the first call
// that starts the device on a session.
func (p *Panel) ensureConsumer() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.consuming {
		return
	}
	p.consuming = true
	go p.consumeEvents()
}

// consumeEvents feeds capture events into the assembler until the device
// closes its stream.
func (p *Panel) consumeEvents() {
	defer func() {
		p.mu.Lock()
		p.consuming = false
		p.mu.Unlock()
	}()
	for ev := range p.device.Events() {
		switch e := ev.(type) {
		case capture.EventInterim:
			p.assembler.ApplyInterim(e.Text)
		case capture.EventFinal:
			fragments := make([]transcript.Fragment, len(e.Fragments))
			for i, text := range e.Fragments {
				fragments[i] = transcript.Fragment{Transcript: text}
			}
			p.assembler.ApplyResults(fragments)
		case capture.EventError:
			p.mu.Lock()
			manual := p.manualStop
			p.mu.Unlock()
			if !manual {
				log.Warn().Err(e.Err).Msg("recognition error during capture")
			}
		case capture.EventPermission:
			if e.State == capture.PermissionDenied {
				log.Warn().Msg("microphone permission revoked mid-session")
			}
		}
	}
}

// StopRecording ends the capture attempt and runs the grading and analysis
// phases. A transcript under the minimum length rejects the stop: the stop
// flag is lifted and the session stays in the recording state so the user can
// retake. Grading failures degrade to a sentinel result and the flow always
// reaches the ready-to-save state.
func (p *Panel) StopRecording(ctx context.Context) error {
	p.mu.Lock()
	if _, err := Transition(p.state, EventStopAccepted); err != nil {
		p.mu.Unlock()
		return err
	}
	p.manualStop = true
	p.mu.Unlock()

	p.assembler.MarkStopped()
	if err := p.device.Stop(ctx); err != nil {
		log.Warn().Err(err).Msg("capture stop failed")
	}
	observability.DefaultMetrics.RecordingsStopped.Inc()

	// Let in-flight recognition settle before reading the transcript. The
	// assembler is already frozen, so results arriving now are suppressed
	// rather than mutating the answer the user decided to submit.
	if err := sleep(ctx, p.SettleDelay); err != nil {
		return err
	}

	if !p.assembler.LongEnough() {
		p.assembler.Resume()
		p.mu.Lock()
		p.manualStop = false
		p.mu.Unlock()
		return ErrAnswerTooShort
	}

	if err := p.apply(EventStopAccepted); err != nil {
		return err
	}

	answer := p.assembler.Snapshot().Finalized
	grade, gradeErr := p.grader.Grade(ctx, p.question, answer)
	if gradeErr != nil {
		log.Warn().Err(gradeErr).Msg("grading degraded")
	}
	p.mu.Lock()
	p.grade = &grade
	p.gradeDegraded = gradeErr != nil
	p.mu.Unlock()

	if err := p.apply(EventGradeDone); err != nil {
		return err
	}
	if err := sleep(ctx, p.AnalysisDelay); err != nil {
		return err
	}

	analysis, source := p.analyzer.Analyze(ctx, p.question.Question, answer, p.question.Answer)
	p.mu.Lock()
	p.analysis = &analysis
	p.analysisSource = source
	p.mu.Unlock()

	return p.apply(EventAnalysisDone)
}

// Save persists the graded answer. The write is idempotent per
// (user, question): an existing record short-circuits with
// AlreadyAnswered set and no insert. A session without a grade result is
// rejected before any store call.
func (p *Panel) Save(ctx context.Context) (SaveOutcome, error) {
	p.mu.Lock()
	if _, err := Transition(p.state, EventSaveDone); err != nil {
		p.mu.Unlock()
		return SaveOutcome{}, err
	}
	grade := p.grade
	analysis := p.analysis
	p.mu.Unlock()

	if grade == nil {
		return SaveOutcome{}, ErrNoGrade
	}
	if p.userID == "" {
		return SaveOutcome{}, ErrNoUser
	}

	prior, err := p.store.FindUserAnswer(ctx, p.userID, p.question.Question)
	if err != nil {
		return SaveOutcome{}, err
	}
	if prior != nil {
		if err := p.apply(EventSaveDone); err != nil {
			return SaveOutcome{}, err
		}
		p.mu.Lock()
		p.saved = prior
		p.mu.Unlock()
		observability.DefaultMetrics.AnswerSaves.WithLabelValues("duplicate").Inc()
		return SaveOutcome{Answer: *prior, AlreadyAnswered: true}, nil
	}

	record := types.UserAnswer{
		InterviewID:   p.interviewID,
		Question:      p.question.Question,
		CorrectAnswer: p.question.Answer,
		UserAnswer:    p.assembler.Snapshot().Finalized,
		Feedback:      grade.Feedback,
		Rating:        grade.Ratings,
		VoiceAnalysis: analysis,
		UserID:        p.userID,
	}
	saved, err := p.store.SaveUserAnswer(ctx, record)
	if err != nil {
		return SaveOutcome{}, err
	}
	if err := p.apply(EventSaveDone); err != nil {
		return SaveOutcome{}, err
	}
	p.mu.Lock()
	p.saved = &saved
	p.mu.Unlock()
	observability.DefaultMetrics.AnswerSaves.WithLabelValues("created").Inc()
	return SaveOutcome{Answer: saved}, nil
}

// RecordAgain discards the attempt in progress, whatever its phase, and
// starts a fresh capture.
func (p *Panel) RecordAgain(ctx context.Context) error {
	p.mu.Lock()
	p.grade = nil
	p.gradeDegraded = false
	p.analysis = nil
	p.analysisSource = ""
	p.saved = nil
	p.manualStop = false
	p.mu.Unlock()
	p.assembler.Reset()

	if err := p.device.Start(ctx); err != nil {
		return err
	}
	p.ensureConsumer()
	return p.apply(EventRecordAgain)
}

// Snapshot returns the current session view.
func (p *Panel) Snapshot() Snapshot {
	snap := p.assembler.Snapshot()
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{
		State:          p.state,
		Interim:        snap.Interim,
		Transcript:     snap.Finalized,
		Grade:          p.grade,
		GradeDegraded:  p.gradeDegraded,
		Analysis:       p.analysis,
		AnalysisSource: p.analysisSource,
		Saved:          p.saved,
	}
}

// State returns the current phase.
func (p *Panel) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Panel) apply(event StateEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	next, err := Transition(p.state, event)
	if err != nil {
		return err
	}
	p.state = next
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
