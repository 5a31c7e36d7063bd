package llmtransport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToWireMessagesTextOnly(t *testing.T) {
	msgs := []Message{Text(RoleUser, "hello")}
	wire, err := toWireMessages(msgs)
	require.NoError(t, err)
	require.Len(t, wire, 1)

	var content string
	require.NoError(t, json.Unmarshal(wire[0].Content, &content))
	assert.Equal(t, "hello", content)
}

func TestToWireMessagesWithImage(t *testing.T) {
	msgs := []Message{TextWithImage(RoleUser, "describe this", "image/jpeg", "Zm9vYmFy")}
	wire, err := toWireMessages(msgs)
	require.NoError(t, err)

	var parts []wireContentPart
	require.NoError(t, json.Unmarshal(wire[0].Content, &parts))
	require.Len(t, parts, 2)
	assert.Equal(t, "text", parts[0].Type)
	assert.Equal(t, "image_url", parts[1].Type)
	assert.Contains(t, parts[1].ImageURL.URL, "data:image/jpeg;base64,Zm9vYmFy")
}

func TestCompleteSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"},"finish_reason":"stop"}],"usage":{"prompt_tokens":5,"completion_tokens":2}}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient(srv.URL, "test-key")
	resp, err := client.Complete(context.Background(), CompletionRequest{Model: "gpt-4o-mini", Messages: []Message{Text(RoleUser, "hi")}})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, 5, resp.InputTokens)
}

func TestCompleteRetriesOnTransientStatus(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"recovered"}}]}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient(srv.URL, "test-key")
	client.Retry.BaseDelay = 0
	resp, err := client.Complete(context.Background(), CompletionRequest{Model: "m", Messages: []Message{Text(RoleUser, "hi")}})
	require.NoError(t, err)
	assert.Equal(t, "recovered", resp.Text)
	assert.Equal(t, 2, attempts)
}

func TestCompleteErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"message":"bad request","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient(srv.URL, "test-key")
	_, err := client.Complete(context.Background(), CompletionRequest{Model: "m", Messages: []Message{Text(RoleUser, "hi")}})
	require.Error(t, err)
}
