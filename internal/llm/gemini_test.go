package llm

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paper-scout/scout/internal/types"
)

func TestGemini_StreamTextAndFunctionCall(t *testing.T) {
	frames := []string{
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"Looking"}]}}]}`,
		`{"candidates":[{"content":{"role":"model","parts":[{"functionCall":{"name":"paper_search","args":{"query":"llm","max_results":3}}}]}}]}`,
	}

	var sent map[string]any
	srv := sseServer(t, frames, func(r *http.Request, body []byte) {
		assert.Equal(t, "/v1beta/models/gemini-test:streamGenerateContent", r.URL.Path)
		assert.Equal(t, "sse", r.URL.Query().Get("alt"))
		assert.Equal(t, "g-key", r.Header.Get("x-goog-api-key"))
		assert.NoError(t, json.Unmarshal(body, &sent))
	})
	defer srv.Close()

	p, err := newGeminiProvider(srv.Client(), srv.URL, "g-key", "gemini-test")
	require.NoError(t, err)

	frags, err := collectFragments(t, p, Request{
		Messages: []types.Message{
			{Role: types.RoleSystem, Content: "sys"},
			{Role: types.RoleUser, Content: "find"},
		},
		Tools: []types.Function{{Type: "function", Function: types.FunctionDefinition{
			Name: "paper_search",
			Parameters: types.FunctionParameters{
				Type: "object",
				Properties: map[string]types.PropertyDetails{
					"max_results": {Type: "integer", Default: 5},
				},
			},
		}}},
	})
	require.NoError(t, err)
	require.Len(t, frags, 2)

	assert.Equal(t, "Looking", frags[0].Text)
	call := frags[1].ToolCalls[0]
	assert.True(t, strings.HasPrefix(call.ID, "call_"))
	assert.Equal(t, "paper_search", call.Name)
	assert.JSONEq(t, `{"query":"llm","max_results":3}`, call.Arguments)

	assert.NotNil(t, sent["systemInstruction"])
	tools := sent["tools"].([]any)
	decl := tools[0].(map[string]any)["functionDeclarations"].([]any)[0].(map[string]any)
	prop := decl["parameters"].(map[string]any)["properties"].(map[string]any)["max_results"].(map[string]any)
	_, hasDefault := prop["default"]
	assert.False(t, hasDefault)
}

func TestGemini_ToolResultsBecomeFunctionResponses(t *testing.T) {
	contents := toGeminiContents([]types.Message{
		{Role: types.RoleUser, Content: "hi"},
		{Role: types.RoleAssistant, ToolCalls: []types.ToolCall{{ID: "c1", Name: "paper_search", Arguments: `{"query":"x"}`}}},
		{Role: types.RoleTool, ToolCallID: "c1", Name: "paper_search", Content: "No papers found for your query."},
	})

	require.Len(t, contents, 3)
	assert.Equal(t, "model", contents[1].Role)
	require.NotNil(t, contents[1].Parts[0].FunctionCall)
	assert.Equal(t, "x", contents[1].Parts[0].FunctionCall.Args["query"])

	assert.Equal(t, types.RoleUser, contents[2].Role)
	resp := contents[2].Parts[0].FunctionResponse
	require.NotNil(t, resp)
	assert.Equal(t, "paper_search", resp.Name)
	assert.Equal(t, "No papers found for your query.", resp.Response["content"])
}

func TestGemini_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, "bad request")
	}))
	defer srv.Close()

	p, err := newGeminiProvider(srv.Client(), srv.URL, "k", "m")
	require.NoError(t, err)

	_, err = collectFragments(t, p, Request{Messages: []types.Message{{Role: types.RoleUser, Content: "hi"}}})
	var apiErr *types.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}

func TestGemini_KeepsBaseURLPathPrefix(t *testing.T) {
	var gotPath, gotQuery string
	srv := sseServer(t, []string{`{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`}, func(r *http.Request, _ []byte) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
	})
	defer srv.Close()

	p, err := newGeminiProvider(srv.Client(), srv.URL+"/proxy/gemini/", "k", "m")
	require.NoError(t, err)

	_, err = collectFragments(t, p, Request{Messages: []types.Message{{Role: types.RoleUser, Content: "hi"}}})
	require.NoError(t, err)
	assert.Equal(t, "/proxy/gemini/v1beta/models/m:streamGenerateContent", gotPath)
	assert.Equal(t, "alt=sse", gotQuery)
}
