package managers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"upkeep/internal/config"
	"upkeep/internal/console"
	"upkeep/internal/deps"
	"upkeep/internal/stage"
	"upkeep/internal/subproc"
	"upkeep/internal/versions"
)

// ErrSkipStage is returned by a pre-stage hook to skip the stage without
// failing the manager. The orchestrator logs the skip and moves on.
var ErrSkipStage = errors.New("skip stage")

// HookFunc runs immediately before or after a stage. Pre-stage hooks may
// rewrite the invocation's argv or messages; the registered template is
// untouched. A pre-stage hook returning ErrSkipStage suppresses the stage.
type HookFunc func(ctx context.Context, env *Env, inv *stage.Invocation) error

// Env carries the collaborators hooks and the orchestrator share for one
// manager's run. Values holds state a hook records for a later hook of the
// same manager, such as installed versions probed before an uninstall.
type Env struct {
	Exec    subproc.Executor
	Checker *versions.Checker
	Logger  *slog.Logger
	Console *console.Console
	Config  *config.Config
	Values  map[string]string
}

// SetValue records hook state under key for later hooks of the same run.
func (e *Env) SetValue(key, value string) {
	if e.Values == nil {
		e.Values = make(map[string]string)
	}
	e.Values[key] = value
}

// Value returns hook state recorded under key.
func (e *Env) Value(key string) (string, bool) {
	value, ok := e.Values[key]
	return value, ok
}

// Definition describes one package manager's update pipeline. Definitions are
// plain data: the orchestrator walks Stages in order, consults the hook maps
// around each stage, and applies WarnOnly to downgrade platform-specific
// failures.
type Definition struct {
	// Name is the registry key, used in config skip lists and CLI arguments.
	Name string
	// DisplayName overrides the derived human label.
	DisplayName string
	// Description is a one-line summary for listings.
	Description string
	// Prerequisite is a binary that must be on PATH for the manager to be
	// eligible. Empty means no gate.
	Prerequisite string
	// Platforms is a GOOS allowlist. Empty means every platform.
	Platforms []string
	// SortOrder positions the manager in a full run; lower runs earlier.
	SortOrder int
	// RequiresSudo marks managers whose stages escalate privileges.
	RequiresSudo bool
	// SystemUpdater marks managers that update the operating system itself.
	SystemUpdater bool
	// Stages is the ordered pipeline.
	Stages *stage.Table
	// PreStage and PostStage hold hooks keyed by stage name.
	PreStage  map[string]HookFunc
	PostStage map[string]HookFunc
	// WarnOnly lists, per stage name, the GOOS values on which that stage's
	// failure is reported as a warning instead of failing the manager.
	WarnOnly map[string][]string
}

// Validate reports whether the definition is internally consistent: stages
// present and every hook or warn-only entry referring to a registered stage.
func (d Definition) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return errors.New("manager name required")
	}
	if d.Stages.Len() == 0 {
		return fmt.Errorf("manager %q: no stages", d.Name)
	}
	for stageName := range d.PreStage {
		if _, ok := d.Stages.Lookup(stageName); !ok {
			return fmt.Errorf("manager %q: pre-stage hook for unknown stage %q", d.Name, stageName)
		}
	}
	for stageName := range d.PostStage {
		if _, ok := d.Stages.Lookup(stageName); !ok {
			return fmt.Errorf("manager %q: post-stage hook for unknown stage %q", d.Name, stageName)
		}
	}
	for stageName := range d.WarnOnly {
		if _, ok := d.Stages.Lookup(stageName); !ok {
			return fmt.Errorf("manager %q: warn-only entry for unknown stage %q", d.Name, stageName)
		}
	}
	return nil
}

// Label returns the human-facing name: DisplayName when set, otherwise the
// title-cased registry name.
func (d Definition) Label() string {
	if d.DisplayName != "" {
		return d.DisplayName
	}
	return cases.Title(language.Und).String(d.Name)
}

// SupportsPlatform reports whether the manager runs on goos.
func (d Definition) SupportsPlatform(goos string) bool {
	if len(d.Platforms) == 0 {
		return true
	}
	return slices.Contains(d.Platforms, goos)
}

// Eligible reports whether the manager can run here: the platform is allowed
// and the prerequisite binary resolves on PATH.
func (d Definition) Eligible(goos string) bool {
	return d.SupportsPlatform(goos) && deps.Available(d.Prerequisite)
}

// WarnOnlyOn reports whether a failure of the named stage is downgraded to a
// warning on goos.
func (d Definition) WarnOnlyOn(stageName, goos string) bool {
	return slices.Contains(d.WarnOnly[stageName], goos)
}

// Sorted returns the definitions ordered by SortOrder, with name as the
// tiebreak so listings stay stable.
func Sorted(defs []Definition) []Definition {
	out := slices.Clone(defs)
	slices.SortStableFunc(out, func(a, b Definition) int {
		if a.SortOrder != b.SortOrder {
			return a.SortOrder - b.SortOrder
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// ByName returns the definition registered under name.
func ByName(defs []Definition, name string) (Definition, bool) {
	for _, def := range defs {
		if def.Name == name {
			return def, true
		}
	}
	return Definition{}, false
}

// Names returns the manager names in the given order.
func Names(defs []Definition) []string {
	out := make([]string, 0, len(defs))
	for _, def := range defs {
		out = append(out, def.Name)
	}
	return out
}
