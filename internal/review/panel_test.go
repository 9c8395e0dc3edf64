package review

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-coach/internal/capture"
	"github.com/jonathan/interview-coach/internal/types"
	"github.com/jonathan/interview-coach/internal/voice"
)

var testQuestion = types.Question{
	Question: "How does a connection pool improve throughput?",
	Answer:   "It reuses established connections instead of dialing per request.",
}

const longAnswer = "a connection pool keeps established connections around and hands them out to requests"

type fakeDevice struct {
	events    chan Event
	startErr  error
	stopCalls int
}

type Event = capture.Event

func newFakeDevice() *fakeDevice {
	return &fakeDevice{events: make(chan Event, 16)}
}

func (d *fakeDevice) Start(context.Context) error { return d.startErr }

func (d *fakeDevice) Stop(context.Context) error {
	d.stopCalls++
	return nil
}

func (d *fakeDevice) Events() <-chan Event { return d.events }

func (d *fakeDevice) emitFinal(texts ...string) {
	d.events <- capture.EventFinal{Fragments: texts}
}

type fixedGrader struct {
	result types.GradeResult
	err    error
	calls  int
}

func (g *fixedGrader) Grade(context.Context, types.Question, string) (types.GradeResult, error) {
	g.calls++
	return g.result, g.err
}

type fixedAnalyzer struct {
	result types.VoiceAnalysisResult
	source voice.Source
}

func (a *fixedAnalyzer) Analyze(context.Context, string, string, string) (types.VoiceAnalysisResult, voice.Source) {
	return a.result, a.source
}

type memoryStore struct {
	mu      sync.Mutex
	answers map[string]types.UserAnswer
	saves   int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{answers: make(map[string]types.UserAnswer)}
}

func (s *memoryStore) key(userID, question string) string { return userID + "|" + question }

func (s *memoryStore) FindUserAnswer(_ context.Context, userID, question string) (*types.UserAnswer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.answers[s.key(userID, question)]; ok {
		copied := a
		return &copied, nil
	}
	return nil, nil
}

func (s *memoryStore) SaveUserAnswer(_ context.Context, answer types.UserAnswer) (types.UserAnswer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	answer.CreatedAt = time.Now()
	s.answers[s.key(answer.UserID, answer.Question)] = answer
	return answer, nil
}

func newTestPanel(device RecordingDevice, grader Grader, analyzer VoiceAnalyzer, store AnswerStore) *Panel {
	p := NewPanel(testQuestion, nil, "user-1", device, grader, analyzer, store)
	p.SettleDelay = 0
	p.AnalysisDelay = 0
	return p
}

func runAttempt(t *testing.T, p *Panel, device *fakeDevice, answer string) {
	t.Helper()
	require.NoError(t, p.StartRecording(context.Background()))
	device.emitFinal(answer)
	waitForTranscript(t, p, answer)
	require.NoError(t, p.StopRecording(context.Background()))
}

func waitForTranscript(t *testing.T, p *Panel, want string) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if p.Snapshot().Transcript == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("transcript never reached %q, got %q", want, p.Snapshot().Transcript)
}

func TestPanel_FullAttempt(t *testing.T) {
	device := newFakeDevice()
	grader := &fixedGrader{result: types.GradeResult{Ratings: 8, Feedback: "solid"}}
	analyzer := &fixedAnalyzer{result: voice.Heuristic(longAnswer), source: voice.SourceHeuristic}
	store := newMemoryStore()
	p := newTestPanel(device, grader, analyzer, store)

	require.NoError(t, p.Load(context.Background()))
	runAttempt(t, p, device, longAnswer)

	assert.Equal(t, StateReadyToSave, p.State())
	snap := p.Snapshot()
	require.NotNil(t, snap.Grade)
	assert.Equal(t, 8, snap.Grade.Ratings)
	assert.False(t, snap.GradeDegraded)
	require.NotNil(t, snap.Analysis)
	assert.Equal(t, voice.SourceHeuristic, snap.AnalysisSource)

	outcome, err := p.Save(context.Background())
	require.NoError(t, err)
	assert.False(t, outcome.AlreadyAnswered)
	assert.Equal(t, "user-1", outcome.Answer.UserID)
	assert.Equal(t, longAnswer, outcome.Answer.UserAnswer)
	assert.Equal(t, StateSaved, p.State())
	assert.Equal(t, 1, store.saves)
}

func TestPanel_SaveIsIdempotent(t *testing.T) {
	device := newFakeDevice()
	grader := &fixedGrader{result: types.GradeResult{Ratings: 7, Feedback: "ok"}}
	analyzer := &fixedAnalyzer{source: voice.SourceRemote}
	store := newMemoryStore()

	first := newTestPanel(device, grader, analyzer, store)
	runAttempt(t, first, device, longAnswer)
	_, err := first.Save(context.Background())
	require.NoError(t, err)

	second := newTestPanel(newFakeDevice(), grader, analyzer, store)
	secondDevice := second.device.(*fakeDevice)
	runAttempt(t, second, secondDevice, longAnswer)
	outcome, err := second.Save(context.Background())
	require.NoError(t, err)

	assert.True(t, outcome.AlreadyAnswered)
	assert.Equal(t, 1, store.saves, "duplicate save performs no insert")
	assert.Equal(t, StateSaved, second.State())
}

func TestPanel_LoadDetectsPriorAnswer(t *testing.T) {
	store := newMemoryStore()
	_, err := store.SaveUserAnswer(context.Background(), types.UserAnswer{
		Question: testQuestion.Question,
		UserID:   "user-1",
		Rating:   6,
	})
	require.NoError(t, err)

	p := newTestPanel(newFakeDevice(), &fixedGrader{}, &fixedAnalyzer{}, store)
	require.NoError(t, p.Load(context.Background()))

	assert.Equal(t, StateAlreadyAnswered, p.State())
	require.NotNil(t, p.Snapshot().Saved)
	assert.Equal(t, 6, p.Snapshot().Saved.Rating)
}

func TestPanel_ShortAnswerRejectsStop(t *testing.T) {
	device := newFakeDevice()
	grader := &fixedGrader{}
	p := newTestPanel(device, grader, &fixedAnalyzer{}, newMemoryStore())

	require.NoError(t, p.StartRecording(context.Background()))
	device.emitFinal("too short")
	waitForTranscript(t, p, "too short")

	err := p.StopRecording(context.Background())
	assert.ErrorIs(t, err, ErrAnswerTooShort)
	assert.Equal(t, StateRecording, p.State())
	assert.Zero(t, grader.calls, "no grading below the length gate")
}

func TestPanel_GradingDegradesButFlowContinues(t *testing.T) {
	device := newFakeDevice()
	grader := &fixedGrader{
		result: types.GradeResult{Ratings: 0, Feedback: "Unable to generate feedback"},
		err:    errors.New("api unreachable"),
	}
	analyzer := &fixedAnalyzer{source: voice.SourceHeuristic}
	p := newTestPanel(device, grader, analyzer, newMemoryStore())

	runAttempt(t, p, device, longAnswer)

	assert.Equal(t, StateReadyToSave, p.State())
	snap := p.Snapshot()
	assert.True(t, snap.GradeDegraded)
	assert.Equal(t, "Unable to generate feedback", snap.Grade.Feedback)
}

func TestPanel_SaveWithoutGradeRejected(t *testing.T) {
	p := newTestPanel(newFakeDevice(), &fixedGrader{}, &fixedAnalyzer{}, newMemoryStore())

	_, err := p.Save(context.Background())
	var invalid *ErrInvalidTransition
	assert.ErrorAs(t, err, &invalid, "idle session cannot save")
}

func TestPanel_SaveWithNilGradeRejectedBeforeStoreCall(t *testing.T) {
	store := newMemoryStore()
	p := newTestPanel(newFakeDevice(), &fixedGrader{}, &fixedAnalyzer{}, store)
	p.state = StateReadyToSave

	_, err := p.Save(context.Background())
	assert.ErrorIs(t, err, ErrNoGrade)
	assert.Zero(t, store.saves)
}

func TestPanel_RecordAgainDiscardsAttempt(t *testing.T) {
	device := newFakeDevice()
	grader := &fixedGrader{result: types.GradeResult{Ratings: 5, Feedback: "fine"}}
	p := newTestPanel(device, grader, &fixedAnalyzer{}, newMemoryStore())

	runAttempt(t, p, device, longAnswer)
	require.Equal(t, StateReadyToSave, p.State())

	require.NoError(t, p.RecordAgain(context.Background()))

	assert.Equal(t, StateRecording, p.State())
	snap := p.Snapshot()
	assert.Empty(t, snap.Transcript)
	assert.Nil(t, snap.Grade)
	assert.Nil(t, snap.Analysis)
	assert.Nil(t, snap.Saved)
}

func TestPanel_LateResultsAfterStopSuppressed(t *testing.T) {
	device := newFakeDevice()
	grader := &fixedGrader{result: types.GradeResult{Ratings: 7, Feedback: "ok"}}
	p := newTestPanel(device, grader, &fixedAnalyzer{}, newMemoryStore())

	runAttempt(t, p, device, longAnswer)

	device.emitFinal(longAnswer + " plus trailing output the user never submitted")
	time.Sleep(10 * time.Millisecond)

	assert.Equal(t, longAnswer, p.Snapshot().Transcript)
}

func TestPanel_StartRecordingPropagatesDeviceError(t *testing.T) {
	device := newFakeDevice()
	device.startErr = capture.ErrRecognitionUnavailable
	p := newTestPanel(device, &fixedGrader{}, &fixedAnalyzer{}, newMemoryStore())

	err := p.StartRecording(context.Background())
	assert.ErrorIs(t, err, capture.ErrRecognitionUnavailable)
	assert.Equal(t, StateIdle, p.State())
}

func TestPanel_TranscriptNeverShrinksAcrossResults(t *testing.T) {
	device := newFakeDevice()
	p := newTestPanel(device, &fixedGrader{}, &fixedAnalyzer{}, newMemoryStore())

	require.NoError(t, p.StartRecording(context.Background()))
	device.emitFinal(longAnswer)
	waitForTranscript(t, p, longAnswer)

	device.events <- capture.EventFinal{Fragments: nil}
	time.Sleep(10 * time.Millisecond)

	assert.Equal(t, longAnswer, p.Snapshot().Transcript)
	assert.True(t, strings.HasPrefix(p.Snapshot().Transcript, "a connection pool"))
}

func TestPanel_RecordAgainFromAlreadyAnsweredCapturesEvents(t *testing.T) {
	// RecordAgain can be the first call that starts the device: a session
	// loaded onto an answered question never went through StartRecording.
	store := newMemoryStore()
	_, err := store.SaveUserAnswer(context.Background(), types.UserAnswer{
		Question: testQuestion.Question,
		UserID:   "user-1",
		Rating:   6,
	})
	require.NoError(t, err)

	device := newFakeDevice()
	grader := &fixedGrader{result: types.GradeResult{Ratings: 7, Feedback: "better"}}
	p := newTestPanel(device, grader, &fixedAnalyzer{}, store)

	require.NoError(t, p.Load(context.Background()))
	require.Equal(t, StateAlreadyAnswered, p.State())

	require.NoError(t, p.RecordAgain(context.Background()))
	assert.Equal(t, StateRecording, p.State())

	device.emitFinal(longAnswer)
	waitForTranscript(t, p, longAnswer)

	require.NoError(t, p.StopRecording(context.Background()))
	assert.Equal(t, StateReadyToSave, p.State())
	assert.Equal(t, 1, grader.calls)
}
