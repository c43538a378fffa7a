package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/paper-scout/scout/internal/types"
)

type geminiProvider struct {
	http   *http.Client
	u      *url.URL
	apiKey string
	model  string
}

func newGeminiProvider(httpClient *http.Client, baseURL, apiKey, model string) (Provider, error) {
	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" {
		return nil, fmt.Errorf("invalid gemini base url %q", baseURL)
	}
	return &geminiProvider{http: httpClient, u: base, apiKey: apiKey, model: model}, nil
}

type geminiReq struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	Tools             []geminiTool    `json:"tools,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text             string                  `json:"text,omitempty"`
	FunctionCall     *geminiFunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *geminiFunctionResponse `json:"functionResponse,omitempty"`
}

type geminiFunctionCall struct {
	ID   string         `json:"id,omitempty"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

type geminiFunctionResponse struct {
	ID       string         `json:"id,omitempty"`
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

type geminiTool struct {
	FunctionDeclarations []geminiFunctionDecl `json:"functionDeclarations"`
}

type geminiFunctionDecl struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type geminiResp struct {
	Candidates []struct {
		Content struct {
			Role  string       `json:"role"`
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func toGeminiContents(msgs []types.Message) []geminiContent {
	out := make([]geminiContent, 0, len(msgs))
	appendParts := func(role string, parts ...geminiPart) {
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Parts = append(out[n-1].Parts, parts...)
			return
		}
		out = append(out, geminiContent{Role: role, Parts: parts})
	}

	for _, m := range msgs {
		switch m.Role {
		case types.RoleSystem:
			continue
		case types.RoleTool:
			appendParts(types.RoleUser, geminiPart{FunctionResponse: &geminiFunctionResponse{
				ID:       m.ToolCallID,
				Name:     m.Name,
				Response: map[string]any{"content": m.Content},
			}})
		case types.RoleAssistant:
			var parts []geminiPart
			if m.Content != "" {
				parts = append(parts, geminiPart{Text: m.Content})
			}
			for _, tc := range m.ToolCalls {
				args := map[string]any{}
				_ = json.Unmarshal([]byte(tc.Arguments), &args)
				parts = append(parts, geminiPart{FunctionCall: &geminiFunctionCall{ID: tc.ID, Name: tc.Name, Args: args}})
			}
			if len(parts) == 0 {
				parts = append(parts, geminiPart{Text: ""})
			}
			appendParts("model", parts...)
		default:
			appendParts(types.RoleUser, geminiPart{Text: m.Content})
		}
	}
	return out
}

// geminiSchema drops the keys the Gemini schema dialect rejects.
func geminiSchema(p types.FunctionParameters) map[string]any {
	props := make(map[string]any, len(p.Properties))
	for name, prop := range p.Properties {
		entry := map[string]any{"type": prop.Type}
		if prop.Description != "" {
			entry["description"] = prop.Description
		}
		if prop.Items != nil {
			entry["items"] = map[string]any{"type": prop.Items.Type}
		}
		if len(prop.Enum) > 0 {
			entry["enum"] = prop.Enum
		}
		props[name] = entry
	}
	schema := map[string]any{"type": p.Type, "properties": props}
	if len(p.Required) > 0 {
		schema["required"] = p.Required
	}
	return schema
}

func toGeminiTools(fns []types.Function) []geminiTool {
	if len(fns) == 0 {
		return nil
	}
	decls := make([]geminiFunctionDecl, 0, len(fns))
	for _, fn := range fns {
		decls = append(decls, geminiFunctionDecl{
			Name:        fn.Function.Name,
			Description: fn.Function.Description,
			Parameters:  geminiSchema(fn.Function.Parameters),
		})
	}
	return []geminiTool{{FunctionDeclarations: decls}}
}

func (p *geminiProvider) Stream(ctx context.Context, req Request, fn func(Fragment) error) error {
	reqURL := *p.u
	reqURL.Path = strings.TrimRight(p.u.Path, "/") + "/v1beta/models/" + url.PathEscape(p.model) + ":streamGenerateContent"
	reqURL.RawPath = ""
	reqURL.RawQuery = "alt=sse"

	payload := geminiReq{
		Contents: toGeminiContents(req.Messages),
		Tools:    toGeminiTools(req.Tools),
	}
	if sys := systemPrompt(req.Messages); sys != "" {
		payload.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: sys}}}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request payload: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", p.apiKey)

	resp, err := p.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
		return &types.APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	return consumeSSE(ctx, resp.Body, func(_ string, data string) error {
		if data == "[DONE]" {
			return errStreamDone
		}
		var chunk geminiResp
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return nil
		}
		if chunk.Error != nil {
			return fmt.Errorf("llm error: %s", chunk.Error.Message)
		}
		if len(chunk.Candidates) == 0 {
			return nil
		}
		var frag Fragment
		for _, part := range chunk.Candidates[0].Content.Parts {
			frag.Text += part.Text
			if part.FunctionCall == nil {
				continue
			}
			// Gemini sends each call whole; older models omit the id.
			id := part.FunctionCall.ID
			if id == "" {
				id = "call_" + uuid.NewString()
			}
			args := part.FunctionCall.Args
			if args == nil {
				args = map[string]any{}
			}
			raw, err := json.Marshal(args)
			if err != nil {
				raw = []byte("{}")
			}
			frag.ToolCalls = append(frag.ToolCalls, ToolCallDelta{
				ID:        id,
				Name:      part.FunctionCall.Name,
				Arguments: string(raw),
			})
		}
		if frag.Empty() {
			return nil
		}
		return fn(frag)
	})
}
