package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/paper-scout/scout/internal/types"
)

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("abc"))
	assert.Equal(t, 2, EstimateTokens("abcdefgh"))
	assert.Equal(t, 3, EstimateTokens("abcdefghi"))
}

func TestTokenCounter_NilFallsBackToEstimate(t *testing.T) {
	var tc *TokenCounter
	assert.Equal(t, EstimateTokens("hello world"), tc.CountTokens("hello world"))

	empty := &TokenCounter{}
	assert.Equal(t, EstimateTokens("hello world"), empty.CountTokens("hello world"))
}

func TestCountMessagesTokens_IncludesToolCalls(t *testing.T) {
	var tc *TokenCounter
	plain := []types.Message{{Role: types.RoleAssistant, Content: "ok"}}
	withCall := []types.Message{{
		Role:      types.RoleAssistant,
		Content:   "ok",
		ToolCalls: []types.ToolCall{{ID: "c1", Name: "paper_search", Arguments: `{"query":"diffusion models"}`}},
	}}

	assert.Greater(t, tc.CountMessagesTokens(withCall), tc.CountMessagesTokens(plain))
	assert.Equal(t, 3, tc.CountMessagesTokens(nil))
}

func TestTruncate_Estimate(t *testing.T) {
	var tc *TokenCounter
	text := strings.Repeat("a", 100)

	assert.Equal(t, text, tc.Truncate(text, 0))
	assert.Equal(t, text, tc.Truncate(text, 25))
	assert.Equal(t, strings.Repeat("a", 40), tc.Truncate(text, 10))
}

func TestTruncate_KeepsValidUTF8(t *testing.T) {
	var tc *TokenCounter
	// one estimated token is four bytes, two runes here
	text := strings.Repeat("é", 10)
	got := tc.Truncate(text, 1)
	assert.Equal(t, "éé", got)

	odd := "a" + strings.Repeat("é", 10)
	got = tc.Truncate(odd, 1)
	assert.Equal(t, "aé", got)
}
