package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/paper-scout/scout/internal/types"
)

type openAIProvider struct {
	http    *http.Client
	chatURL string
	apiKey  string
	model   string
}

func newOpenAIProvider(httpClient *http.Client, baseURL, apiKey, model string) (Provider, error) {
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("invalid openai base url %q", baseURL)
	}
	return &openAIProvider{
		http:    httpClient,
		chatURL: baseURL + "/chat/completions",
		apiKey:  apiKey,
		model:   model,
	}, nil
}

type oaiChatReq struct {
	Model      string           `json:"model"`
	Messages   []oaiChatMsg     `json:"messages"`
	Stream     bool             `json:"stream"`
	Tools      []types.Function `json:"tools,omitempty"`
	ToolChoice string           `json:"tool_choice,omitempty"`
}

type oaiChatMsg struct {
	Role       string        `json:"role"`
	Content    *string       `json:"content"`
	ToolCalls  []oaiToolCall `json:"tool_calls,omitempty"`
	ToolCallID string        `json:"tool_call_id,omitempty"`
	Name       string        `json:"name,omitempty"`
}

type oaiToolCall struct {
	Index    *int   `json:"index,omitempty"`
	ID       string `json:"id,omitempty"`
	Type     string `json:"type,omitempty"`
	Function struct {
		Name      string `json:"name,omitempty"`
		Arguments string `json:"arguments,omitempty"`
	} `json:"function"`
}

type oaiStreamResp struct {
	Choices []struct {
		Delta struct {
			Content   string        `json:"content,omitempty"`
			ToolCalls []oaiToolCall `json:"tool_calls,omitempty"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason,omitempty"`
		Index        int    `json:"index,omitempty"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func toOpenAIMessages(msgs []types.Message) []oaiChatMsg {
	out := make([]oaiChatMsg, 0, len(msgs))
	for _, m := range msgs {
		msg := oaiChatMsg{Role: m.Role}
		if m.Content != "" || len(m.ToolCalls) == 0 {
			content := m.Content
			msg.Content = &content
		}
		for _, tc := range m.ToolCalls {
			var call oaiToolCall
			call.ID = tc.ID
			call.Type = "function"
			call.Function.Name = tc.Name
			call.Function.Arguments = tc.Arguments
			msg.ToolCalls = append(msg.ToolCalls, call)
		}
		if m.Role == types.RoleTool {
			msg.ToolCallID = m.ToolCallID
			msg.Name = m.Name
		}
		out = append(out, msg)
	}
	return out
}

func (p *openAIProvider) Stream(ctx context.Context, req Request, fn func(Fragment) error) error {
	payload := oaiChatReq{
		Model:    p.model,
		Messages: toOpenAIMessages(req.Messages),
		Stream:   true,
		Tools:    req.Tools,
	}
	if len(req.Tools) > 0 {
		payload.ToolChoice = "auto"
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request payload: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.chatURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
		return &types.APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	// Continuation deltas often carry only an index; remember which id each index opened.
	ids := make(map[int]string)
	return consumeSSE(ctx, resp.Body, func(_ string, data string) error {
		if data == "[DONE]" {
			return errStreamDone
		}
		var chunk oaiStreamResp
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			// Some gateways send keepalive garbage between frames.
			return nil
		}
		if chunk.Error != nil && strings.TrimSpace(chunk.Error.Message) != "" {
			return fmt.Errorf("llm error: %s", chunk.Error.Message)
		}
		for _, choice := range chunk.Choices {
			frag := Fragment{Text: choice.Delta.Content}
			for _, tc := range choice.Delta.ToolCalls {
				delta := ToolCallDelta{
					ID:        tc.ID,
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				}
				if tc.Index != nil {
					switch {
					case delta.ID != "":
						ids[*tc.Index] = delta.ID
					case ids[*tc.Index] != "":
						delta.ID = ids[*tc.Index]
					default:
						// Some gateways identify calls by index alone.
						delta.ID = "call_" + uuid.NewString()
						ids[*tc.Index] = delta.ID
					}
				}
				frag.ToolCalls = append(frag.ToolCalls, delta)
			}
			if frag.Empty() {
				continue
			}
			if err := fn(frag); err != nil {
				return err
			}
		}
		return nil
	})
}
