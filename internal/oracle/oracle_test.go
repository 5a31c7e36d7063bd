package oracle

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screenlog/internal/domain"
	"screenlog/internal/llmtransport"
)

type stubClient struct {
	lastReq llmtransport.CompletionRequest
	resp    llmtransport.CompletionResponse
	err     error
}

func (s *stubClient) Complete(ctx context.Context, req llmtransport.CompletionRequest) (llmtransport.CompletionResponse, error) {
	s.lastReq = req
	return s.resp, s.err
}

type stubRules struct{ preamble string }

func (r stubRules) FormatIndexingPreamble() string { return r.preamble }

func writeFrameFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "20260101_120000000.jpg")
	require.NoError(t, os.WriteFile(path, []byte("fake-jpeg-bytes"), 0o644))
	return path
}

func TestExtractSendsImageAndParsesResponse(t *testing.T) {
	client := &stubClient{resp: llmtransport.CompletionResponse{
		Text: `{"activities":[{"layer":"primary","app":{"name":"vscode","category":"ide"},"activity":"coding","summary":"writing the oracle package"}]}`,
	}}
	o := New(client, "gpt-4o-mini", nil, nil)

	frame := domain.Frame{Filename: "20260101_120000000.jpg", Timestamp: 1, Date: "2026-01-01", Time: "12:00:00", AbsolutePath: writeFrameFile(t)}
	result, err := o.Extract(context.Background(), frame, nil)
	require.NoError(t, err)
	require.Len(t, result.Activities, 1)
	assert.Equal(t, "vscode", result.Activities[0].App.Name)

	require.Len(t, client.lastReq.Messages, 2)
	userMsg := client.lastReq.Messages[1]
	require.Len(t, userMsg.Content, 2)
	assert.Equal(t, "image", userMsg.Content[1].Type)
}

func TestExtractIncludesRulesPreamble(t *testing.T) {
	client := &stubClient{resp: llmtransport.CompletionResponse{
		Text: `{"activities":[{"layer":"primary","app":{"name":"chrome","category":"browser"},"activity":"browsing","summary":"reading docs"}]}`,
	}}
	o := New(client, "gpt-4o-mini", stubRules{preamble: "DO NOT INDEX / EXCLUDE:\n1. password prompts\n"}, nil)

	frame := domain.Frame{Filename: "f.jpg", Timestamp: 1, Date: "2026-01-01", Time: "12:00:00", AbsolutePath: writeFrameFile(t)}
	_, err := o.Extract(context.Background(), frame, nil)
	require.NoError(t, err)

	sysMsg := client.lastReq.Messages[0]
	assert.Contains(t, sysMsg.Content[0].Text, "password prompts")
}

func TestExtractIncludesRecentContext(t *testing.T) {
	client := &stubClient{resp: llmtransport.CompletionResponse{
		Text: `{"activities":[{"layer":"primary","app":{"name":"chrome","category":"browser"},"activity":"browsing","summary":"reading docs"}]}`,
	}}
	o := New(client, "gpt-4o-mini", nil, nil)

	frame := domain.Frame{Filename: "f.jpg", Timestamp: 1, Date: "2026-01-01", Time: "12:00:00", AbsolutePath: writeFrameFile(t)}
	recent := []RecentEntry{{Date: "2026-01-01", Time: "11:55:00", Summary: "reviewed a pull request"}}
	_, err := o.Extract(context.Background(), frame, recent)
	require.NoError(t, err)

	userText := client.lastReq.Messages[1].Content[0].Text
	assert.Contains(t, userText, "reviewed a pull request")
}

func TestExtractPropagatesTransportError(t *testing.T) {
	client := &stubClient{err: domain.ErrExtractionTransport}
	o := New(client, "gpt-4o-mini", nil, nil)

	frame := domain.Frame{Filename: "f.jpg", Timestamp: 1, Date: "2026-01-01", Time: "12:00:00", AbsolutePath: writeFrameFile(t)}
	_, err := o.Extract(context.Background(), frame, nil)
	assert.ErrorIs(t, err, domain.ErrExtractionTransport)
}

func TestExtractUnreadableImageErrors(t *testing.T) {
	client := &stubClient{}
	o := New(client, "gpt-4o-mini", nil, nil)

	frame := domain.Frame{Filename: "missing.jpg", AbsolutePath: filepath.Join(t.TempDir(), "missing.jpg")}
	_, err := o.Extract(context.Background(), frame, nil)
	assert.ErrorIs(t, err, domain.ErrImageUnreadable)
}
