// Package llmtransport is the multimodal chat-completion transport shared by
// the Extraction Oracle, the Rules Store's interpreter, the Profile
// Manager's summarizer, and the Chat Facade. Its message/content-block
// shapes are grounded on allaspectsdev-tokenman's internal/pipeline
// normalized request model, and its resilience primitives (circuit breaker,
// retry-with-backoff) are adapted from that teacher's internal/proxy
// package.
package llmtransport

import "context"

// Role is a chat message's speaker.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ContentBlock is one part of a multi-part message. Exactly one of Text or
// Image is meaningful per block, selected by Type.
type ContentBlock struct {
	Type  string `json:"type"` // "text" or "image"
	Text  string `json:"text,omitempty"`
	Image *Image `json:"image,omitempty"`
}

// Image is an inline, base64-encoded image attachment, modeled after the
// richer Attachment type in cklxx-elephant.ai's internal/domain/agent/ports
// package (Name/MediaType/Data/Fingerprint) scoped down to what a vision
// request needs.
type Image struct {
	MediaType string `json:"mediaType"` // e.g. "image/jpeg"
	Data      string `json:"data"`      // base64-encoded bytes
}

// Message is one turn in a chat-completion request.
type Message struct {
	Role       Role           `json:"role"`
	Content    []ContentBlock `json:"content"`
	ToolCallID string         `json:"toolCallId,omitempty"`
	ToolCalls  []ToolCall     `json:"toolCalls,omitempty"`
}

// Text builds a single-block text message.
func Text(role Role, text string) Message {
	return Message{Role: role, Content: []ContentBlock{{Type: "text", Text: text}}}
}

// TextWithImage builds a two-block message pairing an instruction with an
// inline image, the shape the Extraction Oracle sends per frame.
func TextWithImage(role Role, text string, mediaType string, imageData string) Message {
	return Message{Role: role, Content: []ContentBlock{
		{Type: "text", Text: text},
		{Type: "image", Image: &Image{MediaType: mediaType, Data: imageData}},
	}}
}

// ToolCall is a model-issued invocation of one registered tool.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // raw JSON object
}

// ToolDefinition describes a callable tool in JSON-schema-like form.
type ToolDefinition struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  ParamSchema `json:"parameters"`
}

// ParamSchema is a minimal JSON-schema object describing a tool's
// parameters.
type ParamSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

// Property is one field of a ParamSchema.
type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// CompletionRequest is a normalized chat-completion request.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	Tools       []ToolDefinition
	MaxTokens   int
	Temperature float64
}

// CompletionResponse is a normalized chat-completion response.
type CompletionResponse struct {
	Text         string
	ToolCalls    []ToolCall
	InputTokens  int
	OutputTokens int
	StopReason   string
}

// Client sends a completion request to a model provider. Implementations
// own their own retry/circuit-breaking; callers get a single call that
// either succeeds or returns a transport error.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
}
