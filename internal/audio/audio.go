// Package audio defines the Audio collaborator interface the Extraction
// Oracle consults for a frame's timestamp (spec.md §4.11 treats it as an
// external collaborator referenced only by interface). No transcription
// is implemented here — that pipeline is explicitly out of scope — but
// the Indexing Pipeline's call site always has something to invoke.
package audio

import "context"

// Collaborator supplies a transcript for a frame captured at timestampMs,
// if one exists. It satisfies internal/oracle.AudioCollaborator.
type Collaborator interface {
	Transcript(ctx context.Context, timestampMs int64) (transcript string, ok bool, err error)
}

// NoOp is the default Collaborator used when no audio source is
// configured: it always reports no transcript, never an error.
type NoOp struct{}

// Transcript always returns ok=false.
func (NoOp) Transcript(ctx context.Context, timestampMs int64) (string, bool, error) {
	return "", false, nil
}
