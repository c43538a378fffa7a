package logic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paper-scout/scout/internal/types"
)

func assistantCalling(ids ...string) types.Message {
	msg := types.Message{Role: types.RoleAssistant}
	for _, id := range ids {
		msg.ToolCalls = append(msg.ToolCalls, types.ToolCall{ID: id, Name: "paper_search", Arguments: "{}"})
	}
	return msg
}

func toolResult(id string) types.Message {
	return types.Message{Role: types.RoleTool, ToolCallID: id, Name: "paper_search", Content: "ok"}
}

func TestNewHistory_SystemPrompt(t *testing.T) {
	h := NewHistory("be helpful")
	require.Equal(t, 1, h.Len())
	assert.Equal(t, types.RoleSystem, h.Messages()[0].Role)

	assert.Equal(t, 0, NewHistory("").Len())
}

func TestHistory_AcceptsToolRoundTrip(t *testing.T) {
	h := NewHistory("sys")
	require.NoError(t, h.Append(types.Message{Role: types.RoleUser, Content: "find papers"}))
	require.NoError(t, h.Append(assistantCalling("a", "b")))
	require.NoError(t, h.Append(toolResult("b")))
	require.NoError(t, h.Append(toolResult("a")))
	require.NoError(t, h.Append(types.Message{Role: types.RoleAssistant, Content: "done"}))
	assert.Equal(t, 6, h.Len())
}

func TestHistory_RejectsBadShapes(t *testing.T) {
	tests := []struct {
		name  string
		setup []types.Message
		msg   types.Message
	}{
		{name: "unknown role", msg: types.Message{Role: "narrator"}},
		{name: "user with tool calls", msg: types.Message{Role: types.RoleUser, ToolCalls: []types.ToolCall{{ID: "a"}}}},
		{name: "system with tool call id", msg: types.Message{Role: types.RoleSystem, ToolCallID: "a"}},
		{name: "assistant with tool call id", msg: types.Message{Role: types.RoleAssistant, ToolCallID: "a"}},
		{name: "assistant duplicate ids", msg: assistantCalling("a", "a")},
		{name: "assistant empty id", msg: assistantCalling("")},
		{name: "tool without id", setup: []types.Message{assistantCalling("a")}, msg: types.Message{Role: types.RoleTool}},
		{name: "tool without request", msg: toolResult("a")},
		{name: "tool after user", setup: []types.Message{assistantCalling("a"), {Role: types.RoleUser, Content: "hi"}}, msg: toolResult("a")},
		{name: "tool answering unknown id", setup: []types.Message{assistantCalling("a")}, msg: toolResult("b")},
		{name: "tool answered twice", setup: []types.Message{assistantCalling("a"), toolResult("a")}, msg: toolResult("a")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHistory("")
			for _, m := range tt.setup {
				require.NoError(t, h.Append(m))
			}
			before := h.Len()

			err := h.Append(tt.msg)
			assert.ErrorIs(t, err, types.ErrHistoryShape)
			assert.Equal(t, before, h.Len())
		})
	}
}

func TestHistory_Truncate(t *testing.T) {
	h := NewHistory("sys")
	require.NoError(t, h.Append(types.Message{Role: types.RoleUser, Content: "one"}))
	checkpoint := h.Len()
	require.NoError(t, h.Append(types.Message{Role: types.RoleUser, Content: "two"}))
	require.NoError(t, h.Append(assistantCalling("a")))

	h.Truncate(checkpoint)
	require.Equal(t, checkpoint, h.Len())
	assert.Equal(t, "one", h.Messages()[1].Content)

	h.Truncate(10)
	assert.Equal(t, checkpoint, h.Len())

	h.Truncate(-1)
	assert.Equal(t, 0, h.Len())
}

func TestHistory_MessagesIsACopy(t *testing.T) {
	h := NewHistory("sys")
	msgs := h.Messages()
	msgs[0].Content = "changed"

	assert.Equal(t, "sys", h.Messages()[0].Content)
}
