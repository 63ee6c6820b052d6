// Package console renders user-facing status lines for the CLI.
//
// These lines are the product surface of an update run (start messages,
// success and failure markers, streamed command output); structured logs are
// the logging package's concern. Colors degrade automatically when output is
// not a terminal or NO_COLOR is set.
package console

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen)
	warningColor = color.New(color.FgYellow)
	failureColor = color.New(color.FgRed)
	infoColor    = color.New(color.FgCyan)
	dimColor     = color.New(color.Faint)
	boldColor    = color.New(color.Bold)
)

// Console writes human-facing status lines. Methods are safe for concurrent
// use so streamed subprocess output cannot interleave mid-line.
type Console struct {
	mu  sync.Mutex
	out io.Writer
	err io.Writer
}

// New builds a Console over the provided writers. Failure lines go to errOut.
func New(out, errOut io.Writer) *Console {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	return &Console{out: out, err: errOut}
}

// Default returns a Console bound to stdout/stderr.
func Default() *Console {
	return New(os.Stdout, os.Stderr)
}

// NewNop returns a Console that discards everything.
func NewNop() *Console {
	return New(io.Discard, io.Discard)
}

// Success prints a ✓ line.
func (c *Console) Success(format string, args ...any) {
	c.line(c.out, successColor, "✓ ", format, args...)
}

// Warning prints a ⚠ line.
func (c *Console) Warning(format string, args ...any) {
	c.line(c.out, warningColor, "⚠ ", format, args...)
}

// Failure prints a ✗ line to the error stream.
func (c *Console) Failure(format string, args ...any) {
	c.line(c.err, failureColor, "✗ ", format, args...)
}

// Info prints a → line.
func (c *Console) Info(format string, args ...any) {
	c.line(c.out, infoColor, "→ ", format, args...)
}

// Detail prints a dimmed secondary line.
func (c *Console) Detail(format string, args ...any) {
	c.line(c.out, dimColor, "  ", format, args...)
}

// Section prints a bold heading preceded by a blank line, separating one
// manager's output from the next.
func (c *Console) Section(title string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out)
	boldColor.Fprintln(c.out, title)
}

// Raw prints a line verbatim, uncolored. Streamed subprocess output goes
// through here so tool output stays byte-faithful.
func (c *Console) Raw(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, line)
}

// Printf prints without decoration, uncolored.
func (c *Console) Printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

func (c *Console) line(w io.Writer, col *color.Color, prefix, format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	col.Fprintf(w, prefix+format+"\n", args...)
}
