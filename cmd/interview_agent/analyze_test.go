package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTranscript_FlagWins(t *testing.T) {
	analyzeTranscript = "  spoken answer text  "
	analyzeTranscriptFile = "ignored.txt"
	defer func() { analyzeTranscript, analyzeTranscriptFile = "", "" }()

	got, err := loadTranscript()
	require.NoError(t, err)
	assert.Equal(t, "spoken answer text", got)
}

func TestLoadTranscript_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcript.txt")
	require.NoError(t, os.WriteFile(path, []byte("a transcript read from disk\n"), 0o644))

	analyzeTranscript = ""
	analyzeTranscriptFile = path
	defer func() { analyzeTranscriptFile = "" }()

	got, err := loadTranscript()
	require.NoError(t, err)
	assert.Equal(t, "a transcript read from disk", got)
}

func TestLoadTranscript_MissingFile(t *testing.T) {
	analyzeTranscript = ""
	analyzeTranscriptFile = filepath.Join(t.TempDir(), "absent.txt")
	defer func() { analyzeTranscriptFile = "" }()

	_, err := loadTranscript()
	assert.Error(t, err)
}

func TestLoadTranscript_NothingSet(t *testing.T) {
	analyzeTranscript = ""
	analyzeTranscriptFile = ""

	got, err := loadTranscript()
	require.NoError(t, err)
	assert.Empty(t, got)
}
