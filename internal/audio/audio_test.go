package audio

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screenlog/internal/oracle"
)

func TestNoOpAlwaysReportsNoTranscript(t *testing.T) {
	transcript, ok, err := NoOp{}.Transcript(context.Background(), 12345)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, transcript)
}

func TestNoOpSatisfiesOracleAudioCollaborator(t *testing.T) {
	var _ oracle.AudioCollaborator = NoOp{}
}
