package grading

import (
	"context"
	"errors"
	"testing"

	"github.com/jonathan/interview-coach/internal/llm"
	"github.com/jonathan/interview-coach/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubClient returns a canned response or error for every call.
type stubClient struct {
	response string
	err      error
	prompts  []string
}

func (s *stubClient) GenerateContent(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.response, s.err
}

func (s *stubClient) Close() error { return nil }

var testQuestion = types.Question{
	Question: "What is a goroutine?",
	Answer:   "A lightweight thread managed by the Go runtime.",
}

func TestGrade_ParsesBareJSON(t *testing.T) {
	client := &stubClient{response: `{"ratings": 7, "feedback": "Good coverage of the basics."}`}
	grader := NewGrader(client)

	result, err := grader.Grade(context.Background(), testQuestion, "A goroutine is a lightweight thread")
	require.NoError(t, err)
	assert.Equal(t, 7, result.Ratings)
	assert.Equal(t, "Good coverage of the basics.", result.Feedback)
}

func TestGrade_PromptContainsAllParts(t *testing.T) {
	client := &stubClient{response: `{"ratings": 5, "feedback": "ok"}`}
	grader := NewGrader(client)

	_, err := grader.Grade(context.Background(), testQuestion, "some answer text")
	require.NoError(t, err)
	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], testQuestion.Question)
	assert.Contains(t, client.prompts[0], testQuestion.Answer)
	assert.Contains(t, client.prompts[0], "some answer text")
}

func TestGrade_MarkdownFence(t *testing.T) {
	client := &stubClient{response: "```json\n{\"ratings\":7,\"feedback\":\"ok\"}\n```"}
	grader := NewGrader(client)

	result, err := grader.Grade(context.Background(), testQuestion, "answer")
	require.NoError(t, err)
	assert.Equal(t, types.GradeResult{Ratings: 7, Feedback: "ok"}, result)
}

func TestGrade_LeadingProse(t *testing.T) {
	client := &stubClient{response: `Here is the result: {"ratings":7,"feedback":"ok"}`}
	grader := NewGrader(client)

	result, err := grader.Grade(context.Background(), testQuestion, "answer")
	require.NoError(t, err)
	assert.Equal(t, types.GradeResult{Ratings: 7, Feedback: "ok"}, result)
}

func TestGrade_UnparseableResponse(t *testing.T) {
	client := &stubClient{response: "I cannot grade this answer."}
	grader := NewGrader(client)

	result, err := grader.Grade(context.Background(), testQuestion, "answer")
	require.NoError(t, err)
	assert.Equal(t, types.GradeResult{Ratings: 0, Feedback: FeedbackParseFailure}, result)
}

func TestGrade_MalformedJSON(t *testing.T) {
	client := &stubClient{response: `{"ratings": "seven", "feedback": }`}
	grader := NewGrader(client)

	result, err := grader.Grade(context.Background(), testQuestion, "answer")
	require.NoError(t, err)
	assert.Equal(t, types.GradeResult{Ratings: 0, Feedback: FeedbackParseFailure}, result)
}

func TestGrade_TransportFailure(t *testing.T) {
	client := &stubClient{err: errors.New("connection refused")}
	grader := NewGrader(client)

	result, err := grader.Grade(context.Background(), testQuestion, "answer")
	assert.Error(t, err)
	assert.Equal(t, types.GradeResult{Ratings: 0, Feedback: FeedbackTransportFailure}, result)
}

func TestGrade_NilClient(t *testing.T) {
	grader := NewGrader(nil)

	result, err := grader.Grade(context.Background(), testQuestion, "answer")
	assert.Error(t, err)
	assert.Equal(t, types.GradeResult{Ratings: 0, Feedback: FeedbackTransportFailure}, result)
}

func TestClampRating(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{-5, 0},
		{0, 0},
		{7, 7},
		{7.9, 7},
		{10, 10},
		{15, 10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, clampRating(tt.in))
	}
}
