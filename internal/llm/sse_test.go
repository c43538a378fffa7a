package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsumeSSE_MultiLineDataAndComments(t *testing.T) {
	stream := strings.Join([]string{
		": keepalive",
		"event: message",
		"data: {\"a\":",
		"data: 1}",
		"",
		"data: second",
		"",
	}, "\n")

	var events, payloads []string
	err := consumeSSE(context.Background(), strings.NewReader(stream), func(event, data string) error {
		events = append(events, event)
		payloads = append(payloads, data)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"message", ""}, events)
	assert.Equal(t, []string{"{\"a\":\n1}", "second"}, payloads)
}

func TestConsumeSSE_StopsOnDone(t *testing.T) {
	stream := "data: one\n\ndata: [DONE]\n\ndata: never\n\n"

	var got []string
	err := consumeSSE(context.Background(), strings.NewReader(stream), func(_, data string) error {
		if data == "[DONE]" {
			return errStreamDone
		}
		got = append(got, data)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"one"}, got)
}

func TestConsumeSSE_FlushesTrailingEventWithoutBlankLine(t *testing.T) {
	var got []string
	err := consumeSSE(context.Background(), strings.NewReader("data: tail"), func(_, data string) error {
		got = append(got, data)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"tail"}, got)
}

func TestConsumeSSE_CallbackErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	err := consumeSSE(context.Background(), strings.NewReader("data: x\n\n"), func(_, _ string) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestConsumeSSE_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := consumeSSE(ctx, strings.NewReader("data: x\n\n"), func(_, _ string) error {
		t.Fatal("callback must not run after cancellation")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
