package utils

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"

	"github.com/paper-scout/scout/internal/logger"
	"github.com/paper-scout/scout/internal/types"
)

// TokenCounter provides token counting functionality. A nil counter, or one
// whose encoding could not be loaded, falls back to EstimateTokens.
type TokenCounter struct {
	encoder *tiktoken.Tiktoken
}

// NewTokenCounter creates a new token counter instance
func NewTokenCounter() (*TokenCounter, error) {
	// Use cl100k_base encoding (used by GPT-3.5 and GPT-4)
	encoder, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, err
	}

	return &TokenCounter{
		encoder: encoder,
	}, nil
}

// NewTokenCounterOrEstimate never fails; without the encoding it estimates
func NewTokenCounterOrEstimate() *TokenCounter {
	tc, err := NewTokenCounter()
	if err != nil {
		logger.Warn("tiktoken encoding unavailable, estimating token counts", zap.Error(err))
		return &TokenCounter{}
	}
	return tc
}

// CountTokens counts tokens in a text string
func (tc *TokenCounter) CountTokens(text string) int {
	if tc == nil || tc.encoder == nil {
		return EstimateTokens(text)
	}

	tokens := tc.encoder.Encode(text, nil, nil)
	return len(tokens)
}

// CountMessagesTokens counts a whole history, tool calls included
func (tc *TokenCounter) CountMessagesTokens(messages []types.Message) int {
	totalTokens := 0
	for _, message := range messages {
		totalTokens += tc.CountOneMessageTokens(message)
	}

	// Add overhead tokens for the conversation (approximately 3 tokens)
	totalTokens += 3
	return totalTokens
}

func (tc *TokenCounter) CountOneMessageTokens(message types.Message) int {
	totalTokens := tc.CountTokens(message.Role)
	totalTokens += tc.CountTokens(message.Content)
	for _, call := range message.ToolCalls {
		totalTokens += tc.CountTokens(call.Name)
		totalTokens += tc.CountTokens(call.Arguments)
	}

	// Add overhead tokens per message (approximately 3 tokens per message)
	totalTokens += 3
	return totalTokens
}

// Truncate cuts text to at most maxTokens tokens. Non-positive maxTokens keeps everything.
func (tc *TokenCounter) Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 || text == "" {
		return text
	}
	if tc == nil || tc.encoder == nil {
		limit := maxTokens * charsPerToken
		if len(text) <= limit {
			return text
		}
		return strings.ToValidUTF8(text[:limit], "")
	}

	tokens := tc.encoder.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}
	return tc.encoder.Decode(tokens[:maxTokens])
}

const charsPerToken = 4

// EstimateTokens provides a simple token estimation without tiktoken
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	// Simple estimation: roughly 4 characters per token
	return (len(text) + charsPerToken - 1) / charsPerToken
}
