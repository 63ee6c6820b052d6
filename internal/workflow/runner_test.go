package workflow_test

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"upkeep/internal/console"
	"upkeep/internal/logging"
	"upkeep/internal/managers"
	"upkeep/internal/services"
	"upkeep/internal/stage"
	"upkeep/internal/subproc"
	"upkeep/internal/testsupport"
	"upkeep/internal/workflow"
)

type harness struct {
	runner *workflow.Runner
	exec   *testsupport.FakeExecutor
	out    *bytes.Buffer
	errOut *bytes.Buffer
}

func newHarness(t *testing.T, opts ...workflow.Option) *harness {
	t.Helper()
	h := &harness{
		exec:   testsupport.NewFakeExecutor(),
		out:    &bytes.Buffer{},
		errOut: &bytes.Buffer{},
	}
	cfg := testsupport.NewConfig(t)
	base := []workflow.Option{
		workflow.WithExecutor(h.exec),
		workflow.WithConsole(console.New(h.out, h.errOut)),
		workflow.WithGOOS("linux"),
	}
	h.runner = workflow.NewRunner(cfg, logging.NewNop(), append(base, opts...)...)
	return h
}

func simpleDef(name string, order int, tpls ...stage.Template) managers.Definition {
	if len(tpls) == 0 {
		tpls = []stage.Template{{
			Name:       "update",
			Argv:       []string{name, "update"},
			RaiseError: true,
		}}
	}
	return managers.Definition{
		Name:      name,
		SortOrder: order,
		Stages:    stage.MustTable(tpls...),
	}
}

func outcomes(s workflow.Summary) map[string]workflow.Outcome {
	out := make(map[string]workflow.Outcome, len(s.Results))
	for _, res := range s.Results {
		out[res.Manager] = res.Outcome
	}
	return out
}

func TestRunExecutesManagersInOrder(t *testing.T) {
	h := newHarness(t)
	defs := []managers.Definition{
		simpleDef("alpha", 10),
		simpleDef("beta", 20),
	}

	summary := h.runner.Run(context.Background(), defs, false)

	if summary.RunID == "" {
		t.Error("summary missing run ID")
	}
	got := outcomes(summary)
	if got["alpha"] != workflow.OutcomeCompleted || got["beta"] != workflow.OutcomeCompleted {
		t.Fatalf("outcomes = %v", got)
	}

	calls := h.exec.Calls()
	if len(calls) != 2 {
		t.Fatalf("calls = %v", calls)
	}
	if calls[0][0] != "alpha" || calls[1][0] != "beta" {
		t.Errorf("managers ran out of order: %v", calls)
	}
	if summary.ExitCode() != 0 {
		t.Errorf("exit code = %d, want 0", summary.ExitCode())
	}
}

func TestRunFailedManagerStopsItsStagesOnly(t *testing.T) {
	h := newHarness(t)
	h.exec.Stub("alpha update", testsupport.FakeResult{Exit: 2})

	defs := []managers.Definition{
		simpleDef("alpha", 10,
			stage.Template{Name: "update", Argv: []string{"alpha", "update"}, RaiseError: true},
			stage.Template{Name: "cleanup", Argv: []string{"alpha", "cleanup"}, RaiseError: true},
		),
		simpleDef("beta", 20),
	}

	summary := h.runner.Run(context.Background(), defs, false)

	got := outcomes(summary)
	if got["alpha"] != workflow.OutcomeFailed {
		t.Errorf("alpha outcome = %v, want failed", got["alpha"])
	}
	if got["beta"] != workflow.OutcomeCompleted {
		t.Errorf("beta outcome = %v, want completed; a failed manager must not stop the run", got["beta"])
	}

	for _, call := range h.exec.Calls() {
		if call[0] == "alpha" && call[1] == "cleanup" {
			t.Error("alpha cleanup ran after its update stage failed")
		}
	}
	if summary.ExitCode() != 1 {
		t.Errorf("exit code = %d, want 1", summary.ExitCode())
	}

	alpha, _ := resultFor(summary, "alpha")
	if !errors.Is(alpha.Err, services.ErrStageFailed) {
		t.Errorf("alpha err = %v, want ErrStageFailed", alpha.Err)
	}
}

func TestRunWarnOnlyDowngrade(t *testing.T) {
	def := managers.Definition{
		Name:      "dotfiles",
		SortOrder: 10,
		Stages: stage.MustTable(stage.Template{
			Name:       "update",
			Argv:       []string{"dotfiles", "update"},
			RaiseError: true,
		}),
		WarnOnly: map[string][]string{"update": {"windows"}},
	}

	t.Run("listed platform warns and completes", func(t *testing.T) {
		h := newHarness(t, workflow.WithGOOS("windows"))
		h.exec.Stub("dotfiles update", testsupport.FakeResult{Exit: 1})

		summary := h.runner.Run(context.Background(), []managers.Definition{def}, false)
		if got := outcomes(summary)["dotfiles"]; got != workflow.OutcomeCompleted {
			t.Fatalf("outcome = %v, want completed", got)
		}
		if !strings.Contains(h.out.String(), "⚠") {
			t.Errorf("no warning line in %q", h.out.String())
		}
		if strings.Contains(h.errOut.String(), "✗") {
			t.Errorf("failure line despite warn-only downgrade: %q", h.errOut.String())
		}
	})

	t.Run("other platforms fail hard", func(t *testing.T) {
		h := newHarness(t, workflow.WithGOOS("linux"))
		h.exec.Stub("dotfiles update", testsupport.FakeResult{Exit: 1})

		summary := h.runner.Run(context.Background(), []managers.Definition{def}, false)
		if got := outcomes(summary)["dotfiles"]; got != workflow.OutcomeFailed {
			t.Fatalf("outcome = %v, want failed", got)
		}
	})
}

func TestRunStageUnknownName(t *testing.T) {
	h := newHarness(t)
	def := simpleDef("alpha", 10)

	err := h.runner.RunStage(context.Background(), def, nil, "bogus")
	if !errors.Is(err, services.ErrStageLookup) {
		t.Fatalf("err = %v, want ErrStageLookup", err)
	}
	if h.exec.CallCount() != 0 {
		t.Error("unknown stage spawned a process")
	}
	if !strings.Contains(err.Error(), "update") {
		t.Errorf("error %q does not list the stages that exist", err)
	}
}

func TestRunHonorsConfigSkip(t *testing.T) {
	h := newHarness(t)
	cfg := testsupport.NewConfig(t, testsupport.WithSkip("beta"))
	h.runner = workflow.NewRunner(cfg, logging.NewNop(),
		workflow.WithExecutor(h.exec),
		workflow.WithConsole(console.New(h.out, h.errOut)),
		workflow.WithGOOS("linux"),
	)
	defs := []managers.Definition{simpleDef("alpha", 10), simpleDef("beta", 20)}

	summary := h.runner.Run(context.Background(), defs, false)
	got := outcomes(summary)
	if got["beta"] != workflow.OutcomeSkipped {
		t.Fatalf("beta outcome = %v, want skipped", got["beta"])
	}
	beta, _ := resultFor(summary, "beta")
	if !strings.Contains(beta.Reason, "configuration") {
		t.Errorf("skip reason = %q", beta.Reason)
	}

	// Naming the manager explicitly overrides its skip entry.
	summary = h.runner.Run(context.Background(), defs[1:], true)
	if got := outcomes(summary)["beta"]; got != workflow.OutcomeCompleted {
		t.Errorf("explicit beta outcome = %v, want completed", got)
	}
}

func TestRunSkipsUnsupportedPlatformAndMissingPrerequisite(t *testing.T) {
	h := newHarness(t)
	defs := []managers.Definition{
		{
			Name:      "darwinly",
			SortOrder: 10,
			Platforms: []string{"darwin"},
			Stages:    stage.MustTable(stage.Template{Name: "update", Argv: []string{"darwinly"}}),
		},
		{
			Name:         "toolless",
			SortOrder:    20,
			Prerequisite: "upkeep-test-no-such-binary",
			Stages:       stage.MustTable(stage.Template{Name: "update", Argv: []string{"toolless"}}),
		},
	}

	summary := h.runner.Run(context.Background(), defs, false)
	got := outcomes(summary)
	if got["darwinly"] != workflow.OutcomeSkipped || got["toolless"] != workflow.OutcomeSkipped {
		t.Fatalf("outcomes = %v", got)
	}
	if h.exec.CallCount() != 0 {
		t.Error("skipped managers spawned processes")
	}

	toolless, _ := resultFor(summary, "toolless")
	if !strings.Contains(toolless.Reason, "not found on PATH") {
		t.Errorf("reason = %q", toolless.Reason)
	}

	// Quiet in a full run, loud when the user asked for it by name.
	if strings.Contains(h.out.String(), "⚠") {
		t.Errorf("full run warned about ineligible managers: %q", h.out.String())
	}
	h.runner.Run(context.Background(), defs[1:], true)
	if !strings.Contains(h.out.String(), "not found on PATH") {
		t.Errorf("explicit run stayed silent about missing prerequisite: %q", h.out.String())
	}
}

type executorFunc func(ctx context.Context, req subproc.Request, onLine func(string)) (int, error)

func (f executorFunc) Run(ctx context.Context, req subproc.Request, onLine func(string)) (int, error) {
	return f(ctx, req, onLine)
}

func TestRunCancellationExactlyOneLine(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var spawns int
	exec := executorFunc(func(ctx context.Context, req subproc.Request, onLine func(string)) (int, error) {
		spawns++
		cancel()
		return -1, ctx.Err()
	})

	cfg := testsupport.NewConfig(t)
	runner := workflow.NewRunner(cfg, logging.NewNop(),
		workflow.WithExecutor(exec),
		workflow.WithConsole(console.New(out, errOut)),
		workflow.WithGOOS("linux"),
	)

	defs := []managers.Definition{
		simpleDef("alpha", 10,
			stage.Template{Name: "update", Argv: []string{"alpha", "update"}, RaiseError: true},
			stage.Template{Name: "cleanup", Argv: []string{"alpha", "cleanup"}, RaiseError: true},
		),
		simpleDef("beta", 20),
	}

	summary := runner.Run(ctx, defs, false)

	got := outcomes(summary)
	if got["alpha"] != workflow.OutcomeCancelled {
		t.Errorf("alpha outcome = %v, want cancelled", got["alpha"])
	}
	if got["beta"] != workflow.OutcomeSkipped {
		t.Errorf("beta outcome = %v, want skipped", got["beta"])
	}
	if spawns != 1 {
		t.Errorf("spawns = %d, want 1 (nothing runs after cancellation)", spawns)
	}

	combined := out.String() + errOut.String()
	if n := strings.Count(combined, "update cancelled"); n != 1 {
		t.Errorf("cancellation lines = %d, want exactly 1 in %q", n, combined)
	}
	if strings.Contains(combined, "✗") {
		t.Errorf("cancellation rendered as failure: %q", combined)
	}
	if !summary.Cancelled() {
		t.Error("summary does not report cancellation")
	}
	if summary.ExitCode() != 130 {
		t.Errorf("exit code = %d, want 130", summary.ExitCode())
	}
}

func TestRunPreStageHookSkip(t *testing.T) {
	h := newHarness(t)
	def := simpleDef("alpha", 10)
	def.PreStage = map[string]managers.HookFunc{
		"update": func(context.Context, *managers.Env, *stage.Invocation) error {
			return managers.ErrSkipStage
		},
	}

	summary := h.runner.Run(context.Background(), []managers.Definition{def}, false)
	if got := outcomes(summary)["alpha"]; got != workflow.OutcomeCompleted {
		t.Fatalf("outcome = %v, want completed", got)
	}
	if h.exec.CallCount() != 0 {
		t.Error("skipped stage spawned a process")
	}
}

func TestRunPreStageHookFailureFailsManager(t *testing.T) {
	h := newHarness(t)
	def := simpleDef("alpha", 10)
	def.PreStage = map[string]managers.HookFunc{
		"update": func(context.Context, *managers.Env, *stage.Invocation) error {
			return errors.New("probe exploded")
		},
	}

	summary := h.runner.Run(context.Background(), []managers.Definition{def}, false)
	if got := outcomes(summary)["alpha"]; got != workflow.OutcomeFailed {
		t.Fatalf("outcome = %v, want failed", got)
	}
	if h.exec.CallCount() != 0 {
		t.Error("stage ran despite its pre-stage hook failing")
	}
}

func TestRunPostStageHookRunsAfterStage(t *testing.T) {
	h := newHarness(t)
	var order []string
	h.exec.StubPrefix("alpha", testsupport.FakeResult{})

	def := simpleDef("alpha", 10)
	def.PostStage = map[string]managers.HookFunc{
		"update": func(context.Context, *managers.Env, *stage.Invocation) error {
			if h.exec.CallCount() != 1 {
				t.Error("post-stage hook ran before its stage")
			}
			order = append(order, "post-hook")
			return nil
		},
	}

	summary := h.runner.Run(context.Background(), []managers.Definition{def}, false)
	if got := outcomes(summary)["alpha"]; got != workflow.OutcomeCompleted {
		t.Fatalf("outcome = %v, want completed", got)
	}
	if h.exec.CallCount() != 1 || len(order) != 1 {
		t.Errorf("stage/post-hook sequencing wrong: calls=%d hooks=%v", h.exec.CallCount(), order)
	}
}

func TestSelect(t *testing.T) {
	defs := []managers.Definition{
		simpleDef("alpha", 10),
		simpleDef("beta", 20),
		simpleDef("gamma", 30),
	}

	all, err := workflow.Select(defs, nil)
	if err != nil || len(all) != 3 {
		t.Fatalf("Select(nil) = %d defs, err %v", len(all), err)
	}

	subset, err := workflow.Select(defs, []string{"GAMMA", "alpha"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if got := managers.Names(subset); !slices.Equal(got, []string{"alpha", "gamma"}) {
		t.Errorf("selection order = %v, want registry order [alpha gamma]", got)
	}

	_, err = workflow.Select(defs, []string{"nope"})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
	if !strings.Contains(err.Error(), "alpha, beta, gamma") {
		t.Errorf("error %q does not list known managers", err)
	}
}

func TestSummaryAggregation(t *testing.T) {
	s := workflow.Summary{Results: []workflow.Result{
		{Manager: "a", Outcome: workflow.OutcomeCompleted},
		{Manager: "b", Outcome: workflow.OutcomeFailed},
		{Manager: "c", Outcome: workflow.OutcomeSkipped},
	}}
	if !s.Failed() || s.Cancelled() {
		t.Errorf("Failed=%v Cancelled=%v", s.Failed(), s.Cancelled())
	}
	counts := s.Counts()
	if counts[workflow.OutcomeCompleted] != 1 || counts[workflow.OutcomeFailed] != 1 || counts[workflow.OutcomeSkipped] != 1 {
		t.Errorf("counts = %v", counts)
	}
	if s.ExitCode() != 1 {
		t.Errorf("exit code = %d, want 1 (failure beats everything)", s.ExitCode())
	}
}

func resultFor(s workflow.Summary, manager string) (workflow.Result, bool) {
	for _, res := range s.Results {
		if res.Manager == manager {
			return res, true
		}
	}
	return workflow.Result{}, false
}
