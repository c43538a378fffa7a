package model

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/paper-scout/scout/internal/types"
)

// ToolCallLog is the record emitted once per tool invocation
type ToolCallLog struct {
	Timestamp      time.Time           `json:"timestamp"`
	ToolName       string              `json:"tool_name"`
	Arguments      map[string]any      `json:"arguments"`
	LatencySeconds float64             `json:"latency_seconds"`
	Outcome        types.OutcomeStatus `json:"outcome"`

	// Error information
	Error string `json:"error,omitempty"`
}

// NewToolCallLog starts a record for toolName at the current time
func NewToolCallLog(toolName string, args map[string]any) *ToolCallLog {
	return &ToolCallLog{
		Timestamp: time.Now(),
		ToolName:  toolName,
		Arguments: args,
		Outcome:   types.OutcomeFailure,
	}
}

// Finish stamps latency and outcome
func (l *ToolCallLog) Finish(outcome types.OutcomeStatus, err error) {
	l.LatencySeconds = time.Since(l.Timestamp).Seconds()
	l.Outcome = outcome
	if err != nil {
		l.Error = err.Error()
	}
}

// ToCompressedJSON converts the log entry to JSON string
func (l *ToolCallLog) ToCompressedJSON() (string, error) {
	buf := &bytes.Buffer{}
	encoder := json.NewEncoder(buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(l); err != nil {
		return "", err
	}
	// Remove the newline added by Encode()
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// MarshalLogObject lets the record be passed to zap.Object. The timestamp is
// left to the encoder.
func (l *ToolCallLog) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("tool_name", l.ToolName)
	if err := enc.AddReflected("arguments", l.Arguments); err != nil {
		return err
	}
	enc.AddFloat64("latency_seconds", l.LatencySeconds)
	enc.AddString("outcome", string(l.Outcome))
	if l.Error != "" {
		enc.AddString("error", l.Error)
	}
	return nil
}
