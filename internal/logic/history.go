package logic

import (
	"fmt"
	"slices"

	"github.com/paper-scout/scout/internal/types"
)

// History is the ordered message log of one conversation. It is append-only
// except for Truncate, which rolls back a failed turn.
type History struct {
	msgs []types.Message
}

// NewHistory starts a conversation, seeded with a system message when systemPrompt is set
func NewHistory(systemPrompt string) *History {
	h := &History{}
	if systemPrompt != "" {
		h.msgs = append(h.msgs, types.Message{Role: types.RoleSystem, Content: systemPrompt})
	}
	return h
}

// Append adds msg after checking that it keeps the history well formed
func (h *History) Append(msg types.Message) error {
	if err := h.check(msg); err != nil {
		return err
	}
	msg.ToolCalls = slices.Clone(msg.ToolCalls)
	h.msgs = append(h.msgs, msg)
	return nil
}

func (h *History) check(msg types.Message) error {
	switch msg.Role {
	case types.RoleSystem, types.RoleUser:
		if msg.HasToolCalls() || msg.ToolCallID != "" {
			return fmt.Errorf("%w: %s message carries tool fields", types.ErrHistoryShape, msg.Role)
		}
	case types.RoleAssistant:
		if msg.ToolCallID != "" {
			return fmt.Errorf("%w: assistant message carries a tool call id", types.ErrHistoryShape)
		}
		seen := make(map[string]bool, len(msg.ToolCalls))
		for _, call := range msg.ToolCalls {
			if call.ID == "" || seen[call.ID] {
				return fmt.Errorf("%w: assistant tool call ids must be unique and non-empty", types.ErrHistoryShape)
			}
			seen[call.ID] = true
		}
	case types.RoleTool:
		return h.checkToolResult(msg)
	default:
		return fmt.Errorf("%w: unknown role %q", types.ErrHistoryShape, msg.Role)
	}
	return nil
}

// checkToolResult requires the nearest preceding non-tool message to be the
// assistant message that requested msg.ToolCallID, answered at most once.
func (h *History) checkToolResult(msg types.Message) error {
	if msg.ToolCallID == "" {
		return fmt.Errorf("%w: tool message without tool call id", types.ErrHistoryShape)
	}
	for i := len(h.msgs) - 1; i >= 0; i-- {
		prev := h.msgs[i]
		if prev.Role == types.RoleTool {
			if prev.ToolCallID == msg.ToolCallID {
				return fmt.Errorf("%w: tool call %q already answered", types.ErrHistoryShape, msg.ToolCallID)
			}
			continue
		}
		if prev.Role == types.RoleAssistant {
			for _, call := range prev.ToolCalls {
				if call.ID == msg.ToolCallID {
					return nil
				}
			}
		}
		break
	}
	return fmt.Errorf("%w: tool call %q was not requested by the preceding assistant message",
		types.ErrHistoryShape, msg.ToolCallID)
}

// Len returns the number of messages
func (h *History) Len() int {
	return len(h.msgs)
}

// Messages returns a copy of the history
func (h *History) Messages() []types.Message {
	return slices.Clone(h.msgs)
}

// Truncate drops every message after the first n
func (h *History) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	if n >= len(h.msgs) {
		return
	}
	clear(h.msgs[n:])
	h.msgs = h.msgs[:n]
}
