package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-coach/internal/capture"
)

func TestWSSource_EmitGatedOnActive(t *testing.T) {
	source := newWSSource()
	ctx := context.Background()

	// Browser events before capture starts are dropped.
	source.emit(capture.EventFinal{Fragments: []string{"early"}})
	assert.Empty(t, source.events)

	require.NoError(t, source.Start(ctx))
	source.emit(capture.EventFinal{Fragments: []string{"recorded"}})
	require.Len(t, source.events, 1)

	ev := <-source.events
	final, ok := ev.(capture.EventFinal)
	require.True(t, ok)
	assert.Equal(t, []string{"recorded"}, final.Fragments)

	require.NoError(t, source.Stop(ctx))
	source.emit(capture.EventInterim{Text: "late"})
	assert.Empty(t, source.events)
}

func TestWSSource_PermissionReadableWhileInactive(t *testing.T) {
	source := newWSSource()

	source.setPermission(capture.PermissionDenied)

	state, err := source.Permission(context.Background())
	require.NoError(t, err)
	assert.Equal(t, capture.PermissionDenied, state)
}
