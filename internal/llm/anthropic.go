package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/paper-scout/scout/internal/types"
)

const (
	anthropicVersion      = "2023-06-01"
	defaultAnthropicLimit = 1024
)

type anthropicProvider struct {
	http      *http.Client
	url       string
	apiKey    string
	model     string
	maxTokens int
}

func newAnthropicProvider(httpClient *http.Client, baseURL, apiKey, model string, maxTokens int) (Provider, error) {
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("invalid anthropic base url %q", baseURL)
	}
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicLimit
	}
	return &anthropicProvider{
		http:      httpClient,
		url:       baseURL + "/v1/messages",
		apiKey:    apiKey,
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
	MaxTokens int                `json:"max_tokens"`
	Stream    bool               `json:"stream"`
	Tools     []anthropicTool    `json:"tools,omitempty"`
}

type anthropicMessage struct {
	Role    string           `json:"role"`
	Content []anthropicBlock `json:"content"`
}

type anthropicBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
}

type anthropicTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// toAnthropicMessages moves tool results into user turns and merges
// consecutive results into one message, since the Messages API requires
// strictly alternating roles.
func toAnthropicMessages(msgs []types.Message) []anthropicMessage {
	out := make([]anthropicMessage, 0, len(msgs))
	appendBlocks := func(role string, blocks ...anthropicBlock) {
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Content = append(out[n-1].Content, blocks...)
			return
		}
		out = append(out, anthropicMessage{Role: role, Content: blocks})
	}

	for _, m := range msgs {
		switch m.Role {
		case types.RoleSystem:
			continue
		case types.RoleTool:
			appendBlocks(types.RoleUser, anthropicBlock{
				Type:      "tool_result",
				ToolUseID: m.ToolCallID,
				Content:   m.Content,
			})
		case types.RoleAssistant:
			var blocks []anthropicBlock
			if m.Content != "" {
				blocks = append(blocks, anthropicBlock{Type: "text", Text: m.Content})
			}
			for _, tc := range m.ToolCalls {
				input := json.RawMessage(tc.Arguments)
				if !json.Valid(input) {
					input = json.RawMessage("{}")
				}
				blocks = append(blocks, anthropicBlock{Type: "tool_use", ID: tc.ID, Name: tc.Name, Input: input})
			}
			if len(blocks) == 0 {
				blocks = append(blocks, anthropicBlock{Type: "text", Text: ""})
			}
			appendBlocks(types.RoleAssistant, blocks...)
		default:
			appendBlocks(types.RoleUser, anthropicBlock{Type: "text", Text: m.Content})
		}
	}
	return out
}

func toAnthropicTools(fns []types.Function) []anthropicTool {
	if len(fns) == 0 {
		return nil
	}
	out := make([]anthropicTool, 0, len(fns))
	for _, fn := range fns {
		out = append(out, anthropicTool{
			Name:        fn.Function.Name,
			Description: fn.Function.Description,
			InputSchema: fn.Function.Parameters.SchemaJSON(),
		})
	}
	return out
}

func (p *anthropicProvider) Stream(ctx context.Context, req Request, fn func(Fragment) error) error {
	payload := anthropicRequest{
		Model:     p.model,
		System:    systemPrompt(req.Messages),
		Messages:  toAnthropicMessages(req.Messages),
		MaxTokens: p.maxTokens,
		Stream:    true,
		Tools:     toAnthropicTools(req.Tools),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request payload: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := p.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
		return &types.APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	// Content blocks are addressed by index; only tool_use blocks get an id.
	ids := make(map[int64]string)
	return consumeSSE(ctx, resp.Body, func(_ string, data string) error {
		if !gjson.Valid(data) {
			return nil
		}
		event := gjson.Parse(data)
		switch event.Get("type").String() {
		case "content_block_start":
			block := event.Get("content_block")
			if block.Get("type").String() != "tool_use" {
				return nil
			}
			id := block.Get("id").String()
			ids[event.Get("index").Int()] = id
			return fn(Fragment{ToolCalls: []ToolCallDelta{{ID: id, Name: block.Get("name").String()}}})
		case "content_block_delta":
			delta := event.Get("delta")
			switch delta.Get("type").String() {
			case "text_delta":
				if text := delta.Get("text").String(); text != "" {
					return fn(Fragment{Text: text})
				}
			case "input_json_delta":
				partial := delta.Get("partial_json").String()
				if partial == "" {
					return nil
				}
				return fn(Fragment{ToolCalls: []ToolCallDelta{{
					ID:        ids[event.Get("index").Int()],
					Arguments: partial,
				}}})
			}
			return nil
		case "message_stop":
			return errStreamDone
		case "error":
			return fmt.Errorf("llm error: %s", event.Get("error.message").String())
		default:
			// message_start, message_delta, content_block_stop, ping
			return nil
		}
	})
}
