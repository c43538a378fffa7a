package llm

import (
	"context"

	"github.com/paper-scout/scout/internal/types"
)

// ToolCallDelta is one partial tool-call piece of a stream fragment.
// An empty ID continues the most recently opened call.
type ToolCallDelta struct {
	ID        string
	Name      string
	Arguments string
}

// Fragment is one incremental item of a provider stream
type Fragment struct {
	Text      string
	ToolCalls []ToolCallDelta
}

// Empty reports whether the fragment carries nothing
func (f Fragment) Empty() bool {
	return f.Text == "" && len(f.ToolCalls) == 0
}

// Request seeds a stream with the conversation so far
type Request struct {
	Messages []types.Message
	Tools    []types.Function
}

//go:generate mockgen -source=provider.go -destination=mocks/mock_provider.go -package=mocks

// Provider opens model response streams. Every call to Stream opens an
// independent stream; fragments are passed to fn in arrival order and
// returning an error from fn aborts the stream with that error.
type Provider interface {
	Stream(ctx context.Context, req Request, fn func(Fragment) error) error
}

// systemPrompt joins all system messages; used by providers that take the
// system prompt out of band.
func systemPrompt(msgs []types.Message) string {
	var out string
	for _, m := range msgs {
		if m.Role != types.RoleSystem || m.Content == "" {
			continue
		}
		if out != "" {
			out += "\n\n"
		}
		out += m.Content
	}
	return out
}
