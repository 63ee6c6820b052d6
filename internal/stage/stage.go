package stage

import (
	"errors"
	"fmt"
	"strings"
)

// Template describes one step of a manager's update pipeline: the command to
// run and the messaging and failure policy around it. Templates are immutable
// once registered in a Table; per-run adjustments happen on the Invocation
// handed to the runner.
type Template struct {
	// Name identifies the stage within its manager's table.
	Name string
	// Argv is the command as an argument vector. It is never interpreted by
	// a shell; compound commands become separate stages.
	Argv []string
	// Dir is an optional working directory for the command.
	Dir string
	// StartMessage is shown before the command runs.
	StartMessage string
	// EndMessage is shown after the command succeeds.
	EndMessage string
	// ErrorMessage formats the user-facing failure line. It must contain
	// exactly one %s, which receives the failure reason.
	ErrorMessage string
	// CaptureOutput buffers command output instead of streaming it.
	CaptureOutput bool
	// FilterOutput buffers output, drops known noise lines, and prints the
	// remainder once the command finishes.
	FilterOutput bool
	// RaiseError makes a non-zero exit fail the stage. When false the exit
	// is logged as a warning and execution continues.
	RaiseError bool
	// RequiresSudo prefixes the command with the configured sudo binary.
	RequiresSudo bool
}

// Validate reports whether the template is well formed.
func (t Template) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return errors.New("stage name required")
	}
	if len(t.Argv) == 0 {
		return fmt.Errorf("stage %q: empty command", t.Name)
	}
	for _, arg := range t.Argv {
		if arg == "" {
			return fmt.Errorf("stage %q: empty argv element", t.Name)
		}
	}
	if t.ErrorMessage != "" && strings.Count(t.ErrorMessage, "%s") != 1 {
		return fmt.Errorf("stage %q: error message must contain exactly one %%s", t.Name)
	}
	return nil
}

// Instantiate returns the mutable per-run copy consumed by the runner. The
// argv slice is copied so hook edits never alias the template.
func (t Template) Instantiate() *Invocation {
	inv := Invocation(t)
	inv.Argv = append([]string(nil), t.Argv...)
	return &inv
}

// Invocation is the per-run resolved copy of a Template. Hooks may rewrite
// Argv and the messages before the runner consumes it; the originating
// template never changes.
type Invocation Template

// Command renders the argv for logs.
func (inv *Invocation) Command() string {
	return strings.Join(inv.Argv, " ")
}

// Table is an insertion-ordered collection of uniquely named stage templates.
type Table struct {
	names []string
	items map[string]Template
}

// NewTable builds a table from templates, preserving their order.
func NewTable(templates ...Template) (*Table, error) {
	table := &Table{items: make(map[string]Template, len(templates))}
	for _, tpl := range templates {
		if err := table.Add(tpl); err != nil {
			return nil, err
		}
	}
	return table, nil
}

// MustTable is NewTable for static definitions; it panics on invalid input.
func MustTable(templates ...Template) *Table {
	table, err := NewTable(templates...)
	if err != nil {
		panic(err)
	}
	return table
}

// Add validates and appends a template. Duplicate names are rejected.
func (t *Table) Add(tpl Template) error {
	if err := tpl.Validate(); err != nil {
		return err
	}
	if t.items == nil {
		t.items = make(map[string]Template)
	}
	if _, exists := t.items[tpl.Name]; exists {
		return fmt.Errorf("stage %q: duplicate name", tpl.Name)
	}
	t.items[tpl.Name] = tpl
	t.names = append(t.names, tpl.Name)
	return nil
}

// Lookup returns the template registered under name.
func (t *Table) Lookup(name string) (Template, bool) {
	if t == nil {
		return Template{}, false
	}
	tpl, ok := t.items[name]
	return tpl, ok
}

// Names returns stage names in insertion order.
func (t *Table) Names() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Len reports the number of registered stages.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.names)
}
