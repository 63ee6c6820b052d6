package stage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"upkeep/internal/console"
	"upkeep/internal/logging"
	"upkeep/internal/services"
	"upkeep/internal/subproc"
)

// Runner executes stage invocations and applies their messaging and failure
// policy. One Runner serves a whole run; per-stage state lives on the
// Invocation.
type Runner struct {
	logger  *slog.Logger
	exec    subproc.Executor
	console *console.Console
	sudo    string
	filter  *Filter
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec subproc.Executor) RunnerOption {
	return func(r *Runner) {
		if exec != nil {
			r.exec = exec
		}
	}
}

// WithConsole routes user-facing lines to the provided console.
func WithConsole(c *console.Console) RunnerOption {
	return func(r *Runner) {
		if c != nil {
			r.console = c
		}
	}
}

// WithSudoBinary sets the command prefixed to privileged stages.
func WithSudoBinary(binary string) RunnerOption {
	return func(r *Runner) {
		if trimmed := strings.TrimSpace(binary); trimmed != "" {
			r.sudo = trimmed
		}
	}
}

// WithFilter sets the output noise filter.
func WithFilter(f *Filter) RunnerOption {
	return func(r *Runner) {
		if f != nil {
			r.filter = f
		}
	}
}

// NewRunner constructs a Runner with production defaults.
func NewRunner(logger *slog.Logger, opts ...RunnerOption) *Runner {
	r := &Runner{
		logger:  logging.NewComponentLogger(logger, "stage"),
		exec:    subproc.NewExecutor(),
		console: console.Default(),
		sudo:    "sudo",
		filter:  NewFilter(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one invocation to completion.
//
// The returned error is tagged for classification: ErrSpawn when the command
// could not start, ErrInterrupted when the context was cancelled, and
// ErrStageFailed when the command exited non-zero with RaiseError set. A
// non-zero exit without RaiseError logs a warning and returns nil.
func (r *Runner) Run(ctx context.Context, inv *Invocation) error {
	if inv == nil {
		return errors.New("invocation required")
	}
	manager, _ := services.ManagerFromContext(ctx)
	if len(inv.Argv) == 0 {
		return services.Wrap(services.ErrConfiguration, manager, inv.Name, "empty command", nil)
	}

	stageCtx := services.WithStage(ctx, inv.Name)
	stageLogger := logging.WithContext(stageCtx, r.logger)

	if msg := strings.TrimSpace(inv.StartMessage); msg != "" {
		r.console.Info("%s", msg)
	}

	argv := inv.Argv
	if inv.RequiresSudo {
		argv = append([]string{r.sudo}, argv...)
	}

	stageLogger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("command", strings.Join(argv, " ")),
		logging.Bool("capture_output", inv.CaptureOutput),
		logging.Bool("filter_output", inv.FilterOutput),
	)

	capture := inv.CaptureOutput || inv.FilterOutput
	var lines []string
	onLine := func(line string) {
		if capture {
			lines = append(lines, line)
			return
		}
		r.console.Raw(line)
	}

	started := time.Now()
	exit, runErr := r.exec.Run(stageCtx, subproc.Request{Argv: argv, Dir: inv.Dir}, onLine)
	duration := time.Since(started)

	if runErr != nil {
		if services.Interrupted(runErr) {
			stageLogger.Warn("stage interrupted",
				logging.String(logging.FieldEventType, "stage_interrupted"),
				logging.Duration("duration", duration),
			)
			return services.Wrap(services.ErrInterrupted, manager, inv.Name, "update cancelled", runErr)
		}
		message := inv.failureMessage(runErr.Error())
		logging.ErrorWithContext(stageLogger, "stage spawn failed", "stage_spawn_failed",
			logging.Error(runErr),
			logging.String(logging.FieldErrorHint, "verify the command exists on PATH"),
		)
		r.console.Failure("%s", message)
		return services.Wrap(services.ErrSpawn, manager, inv.Name, message, runErr)
	}

	if inv.FilterOutput {
		for _, line := range r.filter.Apply(lines) {
			r.console.Raw(line)
		}
	}

	if exit != 0 {
		reason := fmt.Sprintf("exit status %d", exit)
		message := inv.failureMessage(reason)
		attrs := []logging.Attr{
			logging.Int("exit_code", exit),
			logging.Duration("duration", duration),
		}
		if capture {
			attrs = append(attrs, logging.String("output_tail", outputTail(lines, 5)))
		}
		if !inv.RaiseError {
			logging.WarnWithContext(stageLogger, "stage failed; continuing", "stage_warning",
				append(attrs, logging.String(logging.FieldImpact, "remaining stages still run"))...)
			r.console.Warning("%s", message)
			return nil
		}
		stageLogger.Error("stage failed",
			logging.Args(append(attrs,
				logging.String(logging.FieldEventType, "stage_failure"),
				logging.String("error_message", message),
			)...)...)
		r.console.Failure("%s", message)
		return services.Wrap(services.ErrStageFailed, manager, inv.Name, message, nil)
	}

	stageLogger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("duration", duration),
	)
	if msg := strings.TrimSpace(inv.EndMessage); msg != "" {
		r.console.Success("%s", msg)
	}
	return nil
}

func (inv *Invocation) failureMessage(reason string) string {
	if inv.ErrorMessage != "" {
		return fmt.Sprintf(inv.ErrorMessage, reason)
	}
	return fmt.Sprintf("%s failed: %s", inv.Name, reason)
}

func outputTail(lines []string, max int) string {
	if len(lines) > max {
		lines = lines[len(lines)-max:]
	}
	return strings.Join(lines, "\n")
}
