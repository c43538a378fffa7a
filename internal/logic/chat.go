package logic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/paper-scout/scout/internal/functions"
	"github.com/paper-scout/scout/internal/llm"
	"github.com/paper-scout/scout/internal/logger"
	"github.com/paper-scout/scout/internal/service"
	"github.com/paper-scout/scout/internal/timeout"
	"github.com/paper-scout/scout/internal/types"
	"github.com/paper-scout/scout/internal/utils"
)

const DefaultMaxToolRounds = 8

// ToolRunner executes tool calls and advertises their schemas
type ToolRunner interface {
	Execute(ctx context.Context, name string, args map[string]any) functions.Outcome
	Definitions() []types.Function
}

// Output receives everything the user should see during a turn
type Output interface {
	Text(delta string)
	ToolCall(name, args string)
	ProcessingToolOutput()
	Warning(msg string)
	Error(err error)
}

type ChatOptions struct {
	SystemPrompt  string
	IdleTimeout   time.Duration
	MaxToolRounds int
	TokenCounter  *utils.TokenCounter
	Metrics       *service.MetricsService
}

// ChatLogic drives one conversation. Turns are serialized.
type ChatLogic struct {
	mu       sync.Mutex
	provider llm.Provider
	tools    ToolRunner
	out      Output
	history  *History

	idleTimeout   time.Duration
	maxToolRounds int
	tokenCounter  *utils.TokenCounter
	metrics       *service.MetricsService
}

func NewChatLogic(provider llm.Provider, tools ToolRunner, out Output, opts ChatOptions) *ChatLogic {
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = types.DefaultSystemPrompt
	}
	if opts.MaxToolRounds <= 0 {
		opts.MaxToolRounds = DefaultMaxToolRounds
	}
	return &ChatLogic{
		provider:      provider,
		tools:         tools,
		out:           out,
		history:       NewHistory(opts.SystemPrompt),
		idleTimeout:   opts.IdleTimeout,
		maxToolRounds: opts.MaxToolRounds,
		tokenCounter:  opts.TokenCounter,
		metrics:       opts.Metrics,
	}
}

// History returns a copy of the conversation so far
func (l *ChatLogic) History() []types.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.history.Messages()
}

// HandleUserTurn runs one user turn to completion, including every tool
// round trip the model asks for. A failed turn is removed from the history
// as a whole and reported to the output; the returned error wraps ErrTurnFatal.
func (l *ChatLogic) HandleUserTurn(ctx context.Context, input string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	checkpoint := l.history.Len()
	start := time.Now()

	err := l.runTurn(ctx, input)
	if err != nil {
		l.history.Truncate(checkpoint)
		err = fmt.Errorf("%w: %w", types.ErrTurnFatal, err)
		logger.Error("turn failed, history rolled back",
			zap.Int("historyLen", checkpoint),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		l.out.Error(err)
		l.recordTurn(types.OutcomeFailure)
		return err
	}

	logger.Info("turn completed",
		zap.Int("historyLen", l.history.Len()),
		zap.Int("appended", l.history.Len()-checkpoint),
		zap.Duration("elapsed", time.Since(start)),
	)
	l.recordTurn(types.OutcomeSuccess)
	return nil
}

func (l *ChatLogic) runTurn(ctx context.Context, input string) error {
	if err := l.history.Append(types.Message{Role: types.RoleUser, Content: input}); err != nil {
		return err
	}

	for round := 0; ; round++ {
		if round > 0 {
			l.out.ProcessingToolOutput()
		}

		text, calls, err := l.stream(ctx)
		if err != nil {
			return err
		}

		if len(calls) > 0 && round >= l.maxToolRounds {
			return fmt.Errorf("model requested tools after %d rounds", l.maxToolRounds)
		}

		msg := types.Message{Role: types.RoleAssistant, Content: strings.TrimSpace(text)}
		for _, call := range calls {
			msg.ToolCalls = append(msg.ToolCalls, types.ToolCall{ID: call.ID, Name: call.Name, Arguments: call.Arguments})
		}
		if msg.Content == "" && !msg.HasToolCalls() {
			return nil
		}
		if err := l.history.Append(msg); err != nil {
			return err
		}
		if len(calls) == 0 {
			return nil
		}

		for _, call := range calls {
			result := types.Message{
				Role:       types.RoleTool,
				ToolCallID: call.ID,
				Name:       call.Name,
				Content:    l.execute(ctx, call),
			}
			if err := l.history.Append(result); err != nil {
				return err
			}
		}
	}
}

// execute runs one accumulated call and returns the tool message content
func (l *ChatLogic) execute(ctx context.Context, call types.ToolCall) string {
	if call.Err != nil {
		logger.Warn("skipping tool call with malformed arguments",
			zap.String("tool_name", call.Name),
			zap.String("arguments", call.Arguments),
			zap.Error(call.Err),
		)
		l.out.ToolCall(call.Name, call.Arguments)
		return fmt.Sprintf("Malformed arguments for %s: %v", call.Name, call.Err)
	}

	l.out.ToolCall(call.Name, displayArgs(call))
	outcome := l.tools.Execute(ctx, call.Name, call.Args)
	return outcome.Text
}

// stream opens one provider stream over the current history and accumulates it
func (l *ChatLogic) stream(ctx context.Context) (string, []types.ToolCall, error) {
	msgs := l.history.Messages()
	tokens := l.tokenCounter.CountMessagesTokens(msgs)
	if l.metrics != nil {
		l.metrics.SetHistoryTokens(tokens)
	}
	logger.Info("opening model stream",
		zap.Int("messages", len(msgs)),
		zap.Int("historyTokens", tokens),
	)

	streamCtx, idle := timeout.NewIdleTimer(ctx, l.idleTimeout)
	defer idle.Stop()

	acc := NewAccumulator()
	stats := utils.NewFragmentStats()
	req := llm.Request{Messages: msgs, Tools: l.tools.Definitions()}

	err := l.provider.Stream(streamCtx, req, func(f llm.Fragment) error {
		idle.Reset()
		stats.OnFragment()
		if f.Text != "" {
			l.out.Text(f.Text)
		}
		if err := acc.Add(f); err != nil {
			logger.Warn("stream protocol anomaly", zap.Error(err))
			l.out.Warning(err.Error())
		}
		return nil
	})
	if err != nil {
		if idle.Expired() {
			err = fmt.Errorf("%w: %w", context.Cause(streamCtx), err)
		}
		logStreamStats(stats.Stop())
		return "", nil, fmt.Errorf("model stream failed: %w", err)
	}
	logStreamStats(stats.End())

	text, calls := acc.Finish()
	return text, calls, nil
}

func (l *ChatLogic) recordTurn(outcome types.OutcomeStatus) {
	if l.metrics != nil {
		l.metrics.RecordTurn(string(outcome))
	}
}

func logStreamStats(info *utils.FragmentStatInfo) {
	if info == nil {
		return
	}
	logger.Info("model stream finished",
		zap.Int("fragments", info.Count),
		zap.Float32("firstFragmentMs", info.FirstMs),
		zap.Float32("meanIntervalMs", info.Mean),
		zap.Float32("p95IntervalMs", info.P95),
		zap.Float32("maxIntervalMs", info.Max),
		zap.Int64("elapsedMs", info.ElapsedMs),
		zap.Bool("isError", info.IsError),
	)
}

func displayArgs(call types.ToolCall) string {
	if call.Args == nil {
		return call.Arguments
	}
	b, err := json.Marshal(call.Args)
	if err != nil {
		return call.Arguments
	}
	return string(b)
}
