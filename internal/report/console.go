package report

import (
	"io"
	"os"
	"runtime/debug"
	"sync"

	"github.com/fatih/color"
)

// Console prints coloured, emoji-prefixed lines.
type Console struct {
	mu      sync.Mutex
	out     io.Writer
	info    *color.Color
	success *color.Color
	warning *color.Color
	failure *color.Color
	trace   *color.Color
}

// NewConsole creates a console sink. A nil writer means stdout.
func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{
		out:     w,
		info:    color.New(color.FgCyan),
		success: color.New(color.FgGreen),
		warning: color.New(color.FgYellow),
		failure: color.New(color.FgRed),
		trace:   color.New(color.FgYellow),
	}
}

func (c *Console) Info(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.info.Fprintf(c.out, "📌 INFO: %s\n", msg)
}

func (c *Console) Success(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.success.Fprintf(c.out, "✅ SUCCESS: %s\n", msg)
}

func (c *Console) Warning(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warning.Fprintf(c.out, "⚠️ WARNING: %s\n", msg)
}

// Error prints the message, the error details if any and the stack of the caller.
func (c *Console) Error(msg string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failure.Fprintf(c.out, "❌ ERROR: %s\n", msg)
	if err != nil {
		c.failure.Fprintf(c.out, "Details: %v\n", err)
	}
	c.trace.Fprintf(c.out, "📍 Stack: %s\n", debug.Stack())
}
