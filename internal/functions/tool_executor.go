package functions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/paper-scout/scout/internal/logger"
	"github.com/paper-scout/scout/internal/model"
	"github.com/paper-scout/scout/internal/service"
	"github.com/paper-scout/scout/internal/types"
)

const maxResponseBytes = 8 << 20

// Outcome is the normalized result of one tool invocation. Text is always set.
type Outcome struct {
	Status types.OutcomeStatus
	Text   string

	// Err classifies a failure for logging; it never leaves the executor as a returned error.
	Err error
}

// Failed reports whether the invocation did not succeed
func (o Outcome) Failed() bool {
	return o.Status != types.OutcomeSuccess
}

func success(text string) Outcome {
	return Outcome{Status: types.OutcomeSuccess, Text: text}
}

func failure(text string, err error) Outcome {
	return Outcome{Status: types.OutcomeFailure, Text: text, Err: err}
}

// ToolExecutor dispatches tool calls to their HTTP servers
type ToolExecutor struct {
	manager    *ToolManager
	httpClient *http.Client
	metrics    *service.MetricsService
	records    service.ToolRecordInterface
}

// NewToolExecutor creates an executor over the registry. metrics may be nil.
func NewToolExecutor(manager *ToolManager, metrics *service.MetricsService) *ToolExecutor {
	return &ToolExecutor{
		manager:    manager,
		httpClient: &http.Client{},
		metrics:    metrics,
	}
}

// SetRecordService also persists every tool call record through rs
func (e *ToolExecutor) SetRecordService(rs service.ToolRecordInterface) {
	e.records = rs
}

// Definitions returns the function schemas of every registered tool
func (e *ToolExecutor) Definitions() []types.Function {
	return e.manager.Definitions()
}

// Execute runs one tool call. It never returns an error: every failure is
// folded into the Outcome text, and one log record is written per call.
func (e *ToolExecutor) Execute(ctx context.Context, name string, args map[string]any) (out Outcome) {
	record := model.NewToolCallLog(name, args)
	defer func() {
		if r := recover(); r != nil {
			out = failure(fmt.Sprintf("Failed to call %s tool: %v", name, r), fmt.Errorf("%w: panic: %v", types.ErrToolTransport, r))
		}
		record.Finish(out.Status, out.Err)
		logger.Info("tool call", zap.Inline(record))
		if e.metrics != nil {
			e.metrics.RecordToolCall(record)
		}
		if e.records != nil {
			e.records.LogAsync(record)
		}
	}()

	tool, exists := e.manager.GetTool(name)
	if !exists {
		return failure("Unknown tool: "+name, fmt.Errorf("tool not found: %s", name))
	}

	params, err := tool.Normalize(args)
	if err != nil {
		return failure(fmt.Sprintf("Invalid arguments for %s: %v", name, err), fmt.Errorf("%w: %v", types.ErrMalformedArguments, err))
	}
	record.Arguments = params

	return e.dispatch(ctx, tool, params)
}

func (e *ToolExecutor) dispatch(ctx context.Context, tool *Tool, params map[string]any) Outcome {
	if tool.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, tool.Timeout)
		defer cancel()
	}

	req, err := e.buildRequest(ctx, tool, params)
	if err != nil {
		return transportFailure(tool.Name, err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return transportFailure(tool.Name, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return transportFailure(tool.Name, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return transportFailure(tool.Name, statusError(resp, raw))
	}

	var result types.ToolResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return failure(
			fmt.Sprintf("Failed to decode JSON from %s server: %v. Response: %s", tool.Name, err, string(raw)),
			fmt.Errorf("%w: decode: %v", types.ErrToolTransport, err),
		)
	}

	if result.Status != types.ToolStatusSuccess {
		detail := result.Detail
		if detail == "" {
			detail = "Unknown error"
		}
		return failure(
			fmt.Sprintf("Error from %s server: %s", tool.Name, detail),
			fmt.Errorf("%w: %s", types.ErrToolApplication, detail),
		)
	}

	return success(render(tool.Name, &result, raw))
}

func (e *ToolExecutor) buildRequest(ctx context.Context, tool *Tool, params map[string]any) (*http.Request, error) {
	if !strings.EqualFold(tool.Method, http.MethodPost) {
		return nil, fmt.Errorf("unsupported method: %s", tool.Method)
	}

	body, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tool.URL(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return req, nil
}

func transportFailure(toolName string, err error) Outcome {
	return failure(
		fmt.Sprintf("Failed to call %s tool: %v", toolName, err),
		fmt.Errorf("%w: %w", types.ErrToolTransport, err),
	)
}

// statusError describes a non-2xx response, carrying the server's detail when it sent one.
func statusError(resp *http.Response, raw []byte) error {
	msg := fmt.Sprintf("%s for url: %s", resp.Status, resp.Request.URL)
	if gjson.ValidBytes(raw) {
		if detail := gjson.GetBytes(raw, "detail"); detail.Exists() && detail.String() != "" {
			msg += ": " + detail.String()
		}
	}
	return errors.New(msg)
}
