package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"golang.org/x/term"
)

const (
	Banner   = "Scientific Paper Scout - Command Line Chat"
	Hint     = "Type 'exit' to quit."
	Rule     = "------------------------------------------"
	Prompt   = "\nYou: "
	Goodbye  = "Exiting chat. Goodbye!"
	ExitWord = "exit"
)

// TurnHandler consumes one line of user input
type TurnHandler interface {
	HandleUserTurn(ctx context.Context, input string) error
}

// Console is the interactive chat terminal
type Console struct {
	in  *bufio.Reader
	out io.Writer
	mu  sync.Mutex

	prompt  *color.Color
	notice  *color.Color
	warning *color.Color
	failure *color.Color
}

// IsTerminal reports whether f is attached to a terminal
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// New creates a console reading lines from in. Colors are only emitted when colorize is set.
func New(in io.Reader, out io.Writer, colorize bool) *Console {
	c := &Console{
		in:      bufio.NewReader(in),
		out:     out,
		prompt:  color.New(color.FgGreen, color.Bold),
		notice:  color.New(color.FgCyan),
		warning: color.New(color.FgYellow),
		failure: color.New(color.FgRed),
	}
	for _, col := range []*color.Color{c.prompt, c.notice, c.warning, c.failure} {
		if colorize {
			col.EnableColor()
		} else {
			col.DisableColor()
		}
	}
	return c
}

// Run prints the banner and feeds each input line to h until exit or EOF
func (c *Console) Run(ctx context.Context, h TurnHandler) error {
	c.println(Banner)
	c.println(Hint)
	c.println(Rule)

	for {
		line, err := c.ReadLine()
		if err == io.EOF {
			c.println("\n" + Goodbye)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		input := strings.TrimSpace(line)
		if strings.EqualFold(input, ExitWord) {
			c.println(Goodbye)
			return nil
		}
		if input == "" {
			continue
		}

		// Failures are already reported by the handler; the loop carries on.
		_ = h.HandleUserTurn(ctx, input)
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// ReadLine prompts and reads one line. It returns io.EOF once input is exhausted.
func (c *Console) ReadLine() (string, error) {
	c.mu.Lock()
	_, _ = c.prompt.Fprint(c.out, Prompt)
	c.mu.Unlock()

	line, err := c.in.ReadString('\n')
	if err == io.EOF && line != "" {
		return line, nil
	}
	return line, err
}

// Text echoes streamed assistant text
func (c *Console) Text(delta string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = io.WriteString(c.out, delta)
}

// ToolCall announces a tool invocation
func (c *Console) ToolCall(name, args string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = c.notice.Fprintf(c.out, "\n[AI requests tool call: %s with args: %s]", name, args)
}

// ProcessingToolOutput announces a follow-up stream
func (c *Console) ProcessingToolOutput() {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = c.notice.Fprint(c.out, "\n[AI processing tool output...]\n")
}

// Warning reports a recoverable problem in the middle of a stream
func (c *Console) Warning(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = c.warning.Fprintf(c.out, "\nWARNING: %s\n", msg)
}

// Error reports a failed turn
func (c *Console) Error(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = c.failure.Fprintf(c.out, "\nAn error occurred during the conversation: %v\n", err)
	_, _ = io.WriteString(c.out, "Please try again.\n")
}

func (c *Console) println(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintln(c.out, s)
}
