package types

import "encoding/json"

const (
	// RoleSystem System role message
	RoleSystem = "system"

	// RoleUser User role message
	RoleUser = "user"

	// RoleAssistant AI assistant role message
	RoleAssistant = "assistant"

	// RoleTool Tool result message
	RoleTool = "tool"
)

// Message is one entry of the conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content,omitempty"`

	// Assistant messages only.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// Tool messages only.
	ToolCallID string `json:"tool_call_id,omitempty"`
	Name       string `json:"name,omitempty"`
}

// ToolCall is a single invocation requested by the model.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`

	// Set once the stream has ended: the decoded arguments, or why they could not be decoded.
	Args map[string]any `json:"-"`
	Err  error          `json:"-"`
}

// HasToolCalls reports whether an assistant message requested any tools.
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// Function is a tool definition in the OpenAI function-calling shape.
type Function struct {
	Type     string             `json:"type"`
	Function FunctionDefinition `json:"function"`
}

type FunctionDefinition struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  FunctionParameters `json:"parameters"`
}

type FunctionParameters struct {
	Type       string                     `json:"type"`
	Properties map[string]PropertyDetails `json:"properties"`
	Required   []string                   `json:"required,omitempty"`
}

type PropertyDetails struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Default     any      `json:"default,omitempty"`
	Items       *Items   `json:"items,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

type Items struct {
	Type string `json:"type"`
}

// SchemaJSON returns the parameters object as raw JSON, for providers that embed it verbatim.
func (p FunctionParameters) SchemaJSON() json.RawMessage {
	b, err := json.Marshal(p)
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	return b
}
