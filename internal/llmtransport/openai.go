package llmtransport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"screenlog/internal/domain"
)

// OpenAIClient speaks the OpenAI chat-completions wire format, which every
// provider screenlog targets (OpenAI itself, and any OpenAI-compatible
// gateway) accepts. It wraps each request in a CircuitBreaker and a bounded
// exponential-backoff retry loop, both adapted from the teacher's
// per-provider proxy resilience layer.
type OpenAIClient struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Breaker    *CircuitBreaker
	Retry      RetryConfig
}

// NewOpenAIClient builds a client with the teacher's default resilience
// parameters: 5 consecutive failures trips the breaker, a 30s cooldown
// before probing again, 3 retry attempts with jittered exponential backoff.
func NewOpenAIClient(baseURL, apiKey string) *OpenAIClient {
	return &OpenAIClient{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
		Breaker:    NewCircuitBreaker(5, 30*time.Second, 2),
		Retry:      RetryConfig{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond, MaxDelay: 10 * time.Second},
	}
}

type wireMessage struct {
	Role       string          `json:"role"`
	Content    json.RawMessage `json:"content,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
	ToolCalls  []wireToolCall  `json:"tool_calls,omitempty"`
}

type wireContentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *wireImageURL `json:"image_url,omitempty"`
}

type wireImageURL struct {
	URL string `json:"url"`
}

type wireToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function wireToolFunction `json:"function"`
}

type wireToolFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type wireTool struct {
	Type     string           `json:"type"`
	Function wireToolFunction2 `json:"function"`
}

type wireToolFunction2 struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  ParamSchema `json:"parameters"`
}

type wireRequest struct {
	Model       string         `json:"model"`
	Messages    []wireMessage  `json:"messages"`
	Tools       []wireTool     `json:"tools,omitempty"`
	MaxTokens   int            `json:"max_tokens,omitempty"`
	Temperature float64        `json:"temperature,omitempty"`
}

type wireResponse struct {
	Choices []struct {
		Message struct {
			Content   string         `json:"content"`
			ToolCalls []wireToolCall `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *wireError `json:"error,omitempty"`
}

type wireError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func toWireMessages(msgs []Message) ([]wireMessage, error) {
	out := make([]wireMessage, 0, len(msgs))
	for _, m := range msgs {
		wm := wireMessage{Role: string(m.Role), ToolCallID: m.ToolCallID}
		for _, tc := range m.ToolCalls {
			wm.ToolCalls = append(wm.ToolCalls, wireToolCall{
				ID: tc.ID, Type: "function",
				Function: wireToolFunction{Name: tc.Name, Arguments: tc.Arguments},
			})
		}
		if len(m.Content) == 1 && m.Content[0].Type == "text" && len(m.ToolCalls) == 0 {
			raw, err := json.Marshal(m.Content[0].Text)
			if err != nil {
				return nil, err
			}
			wm.Content = raw
		} else if len(m.Content) > 0 {
			parts := make([]wireContentPart, 0, len(m.Content))
			for _, c := range m.Content {
				switch c.Type {
				case "text":
					parts = append(parts, wireContentPart{Type: "text", Text: c.Text})
				case "image":
					if c.Image == nil {
						continue
					}
					url := fmt.Sprintf("data:%s;base64,%s", c.Image.MediaType, c.Image.Data)
					parts = append(parts, wireContentPart{Type: "image_url", ImageURL: &wireImageURL{URL: url}})
				}
			}
			raw, err := json.Marshal(parts)
			if err != nil {
				return nil, err
			}
			wm.Content = raw
		}
		out = append(out, wm)
	}
	return out, nil
}

func toWireTools(tools []ToolDefinition) []wireTool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]wireTool, 0, len(tools))
	for _, t := range tools {
		out = append(out, wireTool{
			Type: "function",
			Function: wireToolFunction2{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return out
}

// Complete sends req to the configured provider, retrying transient
// failures (HTTP 429/502/503/504) under a per-client circuit breaker.
func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	wireMsgs, err := toWireMessages(req.Messages)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("%w: %v", domain.ErrExtractionMalformed, err)
	}
	body, err := json.Marshal(wireRequest{
		Model:       req.Model,
		Messages:    wireMsgs,
		Tools:       toWireTools(req.Tools),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return CompletionResponse{}, err
	}

	var lastErr error
	for attempt := 0; attempt < c.Retry.MaxAttempts; attempt++ {
		if !c.Breaker.Allow() {
			return CompletionResponse{}, fmt.Errorf("%w: circuit open for provider", domain.ErrExtractionTransport)
		}
		if attempt > 0 {
			delay := backoffDelay(attempt, c.Retry.BaseDelay, c.Retry.MaxDelay)
			if err := sleepWithContext(ctx, delay); err != nil {
				return CompletionResponse{}, err
			}
		}

		resp, status, err := c.doRequest(ctx, body)
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", domain.ErrExtractionTransport, err)
			c.Breaker.RecordFailure()
			continue
		}
		if isRetryableStatus(status) {
			lastErr = fmt.Errorf("%w: provider returned status %d", domain.ErrExtractionTransport, status)
			c.Breaker.RecordFailure()
			continue
		}
		if status != http.StatusOK {
			c.Breaker.RecordFailure()
			return CompletionResponse{}, fmt.Errorf("%w: provider returned status %d", domain.ErrExtractionTransport, status)
		}

		c.Breaker.RecordSuccess()
		return decodeResponse(resp)
	}
	return CompletionResponse{}, lastErr
}

func (c *OpenAIClient) doRequest(ctx context.Context, body []byte) ([]byte, int, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return data, resp.StatusCode, nil
}

func decodeResponse(data []byte) (CompletionResponse, error) {
	var wr wireResponse
	if err := json.Unmarshal(data, &wr); err != nil {
		return CompletionResponse{}, fmt.Errorf("%w: %v", domain.ErrExtractionMalformed, err)
	}
	if wr.Error != nil {
		return CompletionResponse{}, fmt.Errorf("%w: %s", domain.ErrExtractionTransport, wr.Error.Message)
	}
	if len(wr.Choices) == 0 {
		return CompletionResponse{}, fmt.Errorf("%w: no choices in response", domain.ErrExtractionEmpty)
	}

	choice := wr.Choices[0]
	out := CompletionResponse{
		Text:         choice.Message.Content,
		InputTokens:  wr.Usage.PromptTokens,
		OutputTokens: wr.Usage.CompletionTokens,
		StopReason:   choice.FinishReason,
	}
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out, nil
}
