package questions

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-coach/internal/llm"
)

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

var validRequest = Request{
	Position:   "Backend Engineer",
	TechStack:  "Go, PostgreSQL",
	Experience: 4,
}

func TestGenerate_ParsesQuestionArray(t *testing.T) {
	client := &stubClient{response: `[
		{"question": "What is a goroutine?", "answer": "A lightweight thread."},
		{"question": "What is a channel?", "answer": "A typed conduit."}
	]`}
	g := NewGenerator(client)

	questions, err := g.Generate(context.Background(), validRequest)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, "What is a goroutine?", questions[0].Question)
	assert.Equal(t, "A typed conduit.", questions[1].Answer)
}

func TestGenerate_PromptCarriesRequestFields(t *testing.T) {
	client := &stubClient{response: `[{"question": "q", "answer": "a"}]`}
	g := NewGenerator(client)

	_, err := g.Generate(context.Background(), validRequest)
	require.NoError(t, err)
	require.Len(t, client.prompts, 1)

	prompt := client.prompts[0]
	assert.Contains(t, prompt, "Backend Engineer")
	assert.Contains(t, prompt, "Go, PostgreSQL")
	assert.Contains(t, prompt, "4")
	assert.Contains(t, prompt, "5", "default count used when unset")
}

func TestGenerate_FencedResponse(t *testing.T) {
	client := &stubClient{response: "```json\n[{\"question\": \"q\", \"answer\": \"a\"}]\n```"}
	g := NewGenerator(client)

	questions, err := g.Generate(context.Background(), validRequest)
	require.NoError(t, err)
	assert.Len(t, questions, 1)
}

func TestGenerate_SkipsIncompleteEntries(t *testing.T) {
	client := &stubClient{response: `[
		{"question": "complete", "answer": "yes"},
		{"question": "missing answer"},
		{"answer": "missing question"}
	]`}
	g := NewGenerator(client)

	questions, err := g.Generate(context.Background(), validRequest)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "complete", questions[0].Question)
}

func TestGenerate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		client *stubClient
	}{
		{"transport error", &stubClient{err: errors.New("unreachable")}},
		{"no array", &stubClient{response: "sorry, no can do"}},
		{"malformed array", &stubClient{response: `[{"question": }]`}},
		{"all entries unusable", &stubClient{response: `[{"question": "q"}]`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGenerator(tt.client)
			_, err := g.Generate(context.Background(), validRequest)

			var genErr *GenerateError
			assert.ErrorAs(t, err, &genErr)
		})
	}
}

func TestGenerate_InvalidRequestRejectedBeforeModelCall(t *testing.T) {
	client := &stubClient{response: `[{"question": "q", "answer": "a"}]`}
	g := NewGenerator(client)

	_, err := g.Generate(context.Background(), Request{Position: "", TechStack: "Go"})
	var genErr *GenerateError
	assert.ErrorAs(t, err, &genErr)
	assert.Empty(t, client.prompts)
}

func TestExtractPostingText_UsesJobSelectors(t *testing.T) {
	html := `<html><body>
		<nav>site navigation</nav>
		<div class="job-description">
			<h1>Backend Engineer</h1>
			<p>Build Go services.</p>
		</div>
		<footer>legal footer</footer>
	</body></html>`

	text, err := ExtractPostingText(html)
	require.NoError(t, err)
	assert.Contains(t, text, "Backend Engineer")
	assert.Contains(t, text, "Build Go services.")
	assert.NotContains(t, text, "site navigation")
	assert.NotContains(t, text, "legal footer")
}

func TestExtractPostingText_FallsBackToBody(t *testing.T) {
	html := `<html><body><p>plain posting text</p></body></html>`

	text, err := ExtractPostingText(html)
	require.NoError(t, err)
	assert.Equal(t, "plain posting text", text)
}

func TestExtractPostingText_DropsBlankLines(t *testing.T) {
	html := "<html><body><main><p>first</p>\n\n\n<p>second</p></main></body></html>"

	text, err := ExtractPostingText(html)
	require.NoError(t, err)
	for _, line := range strings.Split(text, "\n") {
		assert.NotEmpty(t, line)
	}
}
