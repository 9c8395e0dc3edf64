package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_GradePrompt(t *testing.T) {
	prompt, err := Get("grading.json", "grade-answer")
	require.NoError(t, err)
	assert.Contains(t, prompt, "{{.Question}}")
	assert.Contains(t, prompt, "{{.UserAnswer}}")
	assert.Contains(t, prompt, "{{.CorrectAnswer}}")
	assert.Contains(t, prompt, `"ratings"`)
	assert.Contains(t, prompt, `"feedback"`)
}

func TestGet_VoicePrompt(t *testing.T) {
	prompt, err := Get("voice.json", "analyze-response")
	require.NoError(t, err)
	assert.Contains(t, prompt, "sentiment")
	assert.Contains(t, prompt, "domainKnowledge")
	assert.Contains(t, prompt, "voiceTone")
	assert.Contains(t, prompt, "confidenceScore")
	assert.Contains(t, prompt, "overallAssessment")
}

func TestGet_UnknownKey(t *testing.T) {
	_, err := Get("grading.json", "no-such-prompt")
	assert.Error(t, err)
}

func TestGet_UnknownFile(t *testing.T) {
	_, err := Get("missing.json", "grade-answer")
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	out := Format("Q: {{.Question}} A: {{.Answer}}", map[string]string{
		"Question": "What is a goroutine?",
		"Answer":   "A lightweight thread.",
	})
	assert.Equal(t, "Q: What is a goroutine? A: A lightweight thread.", out)
}

func TestMustGet_PanicsOnMissing(t *testing.T) {
	assert.Panics(t, func() {
		MustGet("grading.json", "missing-key")
	})
}
