package llm

import (
	"context"
	"strings"
)

// Collect drains a stream and returns its concatenated text. Tool-call
// pieces are ignored.
func Collect(ctx context.Context, p Provider, req Request) (string, error) {
	var sb strings.Builder
	err := p.Stream(ctx, req, func(f Fragment) error {
		sb.WriteString(f.Text)
		return nil
	})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}
