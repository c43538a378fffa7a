package logic

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/paper-scout/scout/internal/llm"
	"github.com/paper-scout/scout/internal/types"
)

// Accumulator folds the fragments of one provider stream into the final
// assistant text and the tool calls in first-seen order.
type Accumulator struct {
	text  strings.Builder
	calls map[string]*pendingCall
	order []string
}

type pendingCall struct {
	name string
	args strings.Builder
}

func NewAccumulator() *Accumulator {
	return &Accumulator{calls: make(map[string]*pendingCall)}
}

// Add applies one fragment. Pieces that cannot be attributed to a call are
// dropped and reported as ErrStreamProtocolAnomaly; the rest of the fragment
// is still applied.
func (a *Accumulator) Add(f llm.Fragment) error {
	a.text.WriteString(f.Text)

	var errs []error
	for _, piece := range f.ToolCalls {
		if err := a.addPiece(piece); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *Accumulator) addPiece(piece llm.ToolCallDelta) error {
	var call *pendingCall
	if piece.ID != "" {
		call = a.calls[piece.ID]
		if call == nil {
			call = &pendingCall{}
			a.calls[piece.ID] = call
			a.order = append(a.order, piece.ID)
		}
	} else {
		if len(a.order) == 0 {
			return fmt.Errorf("%w: tool call piece without id and no open call, dropped %d bytes of arguments",
				types.ErrStreamProtocolAnomaly, len(piece.Arguments))
		}
		call = a.calls[a.order[len(a.order)-1]]
	}

	var err error
	switch {
	case piece.Name == "":
	case call.name == "":
		call.name = piece.Name
	case call.name != piece.Name:
		err = fmt.Errorf("%w: tool call %q renamed from %q to %q, keeping the first name",
			types.ErrStreamProtocolAnomaly, piece.ID, call.name, piece.Name)
	}

	call.args.WriteString(piece.Arguments)
	return err
}

// Finish returns the accumulated text and tool calls. Each call's arguments
// are decoded into Args, or Err is set wrapping ErrMalformedArguments.
// Calls that received neither a name nor arguments are dropped.
func (a *Accumulator) Finish() (string, []types.ToolCall) {
	calls := make([]types.ToolCall, 0, len(a.order))
	for _, id := range a.order {
		pending := a.calls[id]
		raw := pending.args.String()
		if pending.name == "" && strings.TrimSpace(raw) == "" {
			continue
		}

		call := types.ToolCall{ID: id, Name: pending.name, Arguments: raw}
		if strings.TrimSpace(raw) == "" {
			call.Arguments = "{}"
		}
		call.Args, call.Err = parseArguments(call.Arguments)
		calls = append(calls, call)
	}
	return a.text.String(), calls
}

func parseArguments(raw string) (map[string]any, error) {
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrMalformedArguments, err)
	}
	if args == nil {
		return nil, fmt.Errorf("%w: arguments must be a JSON object", types.ErrMalformedArguments)
	}
	return args, nil
}
