package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"upkeep/internal/config"
	"upkeep/internal/console"
	"upkeep/internal/logging"
	"upkeep/internal/managers"
	"upkeep/internal/services"
	"upkeep/internal/stage"
	"upkeep/internal/subproc"
	"upkeep/internal/versions"
)

// Runner drives one update run across the manager registry.
type Runner struct {
	cfg     *config.Config
	logger  *slog.Logger
	console *console.Console
	exec    subproc.Executor
	stages  *stage.Runner
	checker *versions.Checker
	goos    string
}

// Option configures a Runner.
type Option func(*Runner)

// WithExecutor injects a custom executor for stages and hooks.
func WithExecutor(exec subproc.Executor) Option {
	return func(r *Runner) {
		if exec != nil {
			r.exec = exec
		}
	}
}

// WithConsole routes user-facing lines to the provided console.
func WithConsole(c *console.Console) Option {
	return func(r *Runner) {
		if c != nil {
			r.console = c
		}
	}
}

// WithChecker supplies the version checker hooks consult.
func WithChecker(checker *versions.Checker) Option {
	return func(r *Runner) {
		r.checker = checker
	}
}

// WithGOOS overrides platform detection, for tests.
func WithGOOS(goos string) Option {
	return func(r *Runner) {
		if goos != "" {
			r.goos = goos
		}
	}
}

// NewRunner builds a Runner from configuration.
func NewRunner(cfg *config.Config, logger *slog.Logger, opts ...Option) *Runner {
	r := &Runner{
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "workflow"),
		console: console.Default(),
		exec:    subproc.NewExecutor(),
		goos:    runtime.GOOS,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.stages = stage.NewRunner(logger,
		stage.WithExecutor(r.exec),
		stage.WithConsole(r.console),
		stage.WithSudoBinary(cfg.Update.SudoBinary),
		stage.WithFilter(stage.NewFilter(cfg.Update.FilterPhrases...)),
	)
	return r
}

// Select resolves the requested manager names against the registry,
// preserving registry order. An unknown name is a configuration error
// naming the managers that do exist.
func Select(defs []managers.Definition, names []string) ([]managers.Definition, error) {
	if len(names) == 0 {
		return defs, nil
	}
	requested := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if _, ok := managers.ByName(defs, name); !ok {
			return nil, services.Wrap(services.ErrConfiguration, name, "",
				fmt.Sprintf("unknown manager %q (known: %s)", name, strings.Join(managers.Names(defs), ", ")), nil)
		}
		requested[name] = true
	}
	selected := make([]managers.Definition, 0, len(requested))
	for _, def := range defs {
		if requested[def.Name] {
			selected = append(selected, def)
		}
	}
	return selected, nil
}

// Run executes the given managers sequentially and aggregates their
// outcomes. Explicitly selected managers bypass the config skip list;
// ineligible managers are recorded as skipped, loudly when explicit.
func (r *Runner) Run(ctx context.Context, defs []managers.Definition, explicit bool) Summary {
	runID, ok := services.RunIDFromContext(ctx)
	if !ok {
		runID = uuid.NewString()
		ctx = services.WithRunID(ctx, runID)
	}
	logger := logging.WithContext(ctx, r.logger)

	started := time.Now()
	summary := Summary{RunID: runID}
	logger.Info("update run started",
		logging.String(logging.FieldEventType, "run_started"),
		logging.Int("managers", len(defs)),
		logging.Bool("explicit_selection", explicit),
	)

	cancelled := false
	for _, def := range defs {
		if cancelled || ctx.Err() != nil {
			summary.Results = append(summary.Results, Result{
				Manager: def.Name,
				Label:   def.Label(),
				Outcome: OutcomeSkipped,
				Reason:  "run cancelled",
			})
			continue
		}

		if result, skip := r.skipReason(def, explicit); skip {
			summary.Results = append(summary.Results, result)
			continue
		}

		result := r.runManager(ctx, def)
		summary.Results = append(summary.Results, result)
		if result.Outcome == OutcomeCancelled {
			cancelled = true
			r.console.Warning("update cancelled")
		}
	}

	summary.Duration = time.Since(started)
	logger.Info("update run finished",
		logging.String(logging.FieldEventType, "run_finished"),
		logging.Duration("duration", summary.Duration),
		logging.Int("completed", summary.Counts()[OutcomeCompleted]),
		logging.Int("failed", summary.Counts()[OutcomeFailed]),
		logging.Int("skipped", summary.Counts()[OutcomeSkipped]),
		logging.Bool("cancelled", summary.Cancelled()),
	)
	return summary
}

// skipReason decides whether def runs at all. Config skips apply only to
// full runs; naming a manager on the command line overrides its skip entry.
func (r *Runner) skipReason(def managers.Definition, explicit bool) (Result, bool) {
	result := Result{Manager: def.Name, Label: def.Label(), Outcome: OutcomeSkipped}

	if !explicit && slices.Contains(r.cfg.Update.Skip, def.Name) {
		result.Reason = "skipped by configuration"
		r.logger.Debug("manager skipped by configuration", logging.String("manager", def.Name))
		return result, true
	}
	if !def.SupportsPlatform(r.goos) {
		result.Reason = fmt.Sprintf("not supported on %s", r.goos)
		if explicit {
			r.console.Warning("%s: %s", def.Label(), result.Reason)
		}
		return result, true
	}
	if !def.Eligible(r.goos) {
		result.Reason = fmt.Sprintf("%s not found on PATH", def.Prerequisite)
		if explicit {
			r.console.Warning("%s: %s", def.Label(), result.Reason)
		} else {
			r.logger.Debug("manager prerequisite missing",
				logging.String("manager", def.Name),
				logging.String("prerequisite", def.Prerequisite),
			)
		}
		return result, true
	}
	return Result{}, false
}

// runManager executes one manager's stage table in order.
func (r *Runner) runManager(ctx context.Context, def managers.Definition) Result {
	ctx = services.WithManager(ctx, def.Name)
	logger := logging.WithContext(ctx, r.logger)
	result := Result{Manager: def.Name, Label: def.Label()}

	r.console.Section(def.Label())
	logger.Info("manager started",
		logging.String(logging.FieldEventType, "manager_started"),
		logging.Int("stages", def.Stages.Len()),
	)

	env := &managers.Env{
		Exec:    r.exec,
		Checker: r.checker,
		Logger:  logger,
		Console: r.console,
		Config:  r.cfg,
	}

	started := time.Now()
	var runErr error
	for _, name := range def.Stages.Names() {
		if err := r.RunStage(ctx, def, env, name); err != nil {
			runErr = err
			break
		}
	}
	result.Duration = time.Since(started)

	switch {
	case runErr == nil:
		result.Outcome = OutcomeCompleted
		logger.Info("manager completed",
			logging.String(logging.FieldEventType, "manager_completed"),
			logging.Duration("duration", result.Duration),
		)
	case services.Interrupted(runErr):
		result.Outcome = OutcomeCancelled
		result.Err = runErr
	default:
		result.Outcome = OutcomeFailed
		result.Err = runErr
		detail := services.Details(runErr)
		logging.ErrorWithContext(logger, "manager failed", "manager_failed",
			logging.String("stage", detail.Stage),
			logging.Error(runErr),
			logging.String(logging.FieldImpact, "remaining managers still run"),
		)
	}
	return result
}

// RunStage executes a single named stage of def, honoring hooks and the
// warn-only downgrade policy. An unknown stage name returns ErrStageLookup
// without spawning anything.
func (r *Runner) RunStage(ctx context.Context, def managers.Definition, env *managers.Env, name string) error {
	tpl, ok := def.Stages.Lookup(name)
	if !ok {
		return services.Wrap(services.ErrStageLookup, def.Name, name,
			fmt.Sprintf("manager %q has no stage %q (stages: %s)", def.Name, name, strings.Join(def.Stages.Names(), ", ")), nil)
	}
	if env == nil {
		env = &managers.Env{Exec: r.exec, Checker: r.checker, Logger: r.logger, Console: r.console, Config: r.cfg}
	}

	inv := tpl.Instantiate()
	if def.WarnOnlyOn(name, r.goos) {
		inv.RaiseError = false
	}

	logger := logging.WithContext(services.WithStage(ctx, name), r.logger)

	if hook := def.PreStage[name]; hook != nil {
		if err := hook(ctx, env, inv); err != nil {
			if errors.Is(err, managers.ErrSkipStage) {
				logger.Info("stage skipped",
					logging.String(logging.FieldEventType, "stage_skipped"),
				)
				return nil
			}
			if services.Interrupted(err) {
				return services.Wrap(services.ErrInterrupted, def.Name, name, "update cancelled", err)
			}
			return services.Wrap(services.ErrStageFailed, def.Name, name, "pre-stage hook failed", err)
		}
	}

	if err := r.stages.Run(ctx, inv); err != nil {
		return err
	}

	if hook := def.PostStage[name]; hook != nil {
		if err := hook(ctx, env, inv); err != nil {
			if services.Interrupted(err) {
				return services.Wrap(services.ErrInterrupted, def.Name, name, "update cancelled", err)
			}
			return services.Wrap(services.ErrStageFailed, def.Name, name, "post-stage hook failed", err)
		}
	}
	return nil
}
