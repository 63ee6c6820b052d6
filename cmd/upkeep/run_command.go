package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"upkeep/internal/console"
	"upkeep/internal/logging"
	"upkeep/internal/managers"
	"upkeep/internal/services"
	"upkeep/internal/verscache"
	"upkeep/internal/versions"
	"upkeep/internal/workflow"
)

func newRunCommand(cctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [manager...]",
		Short: "Run update stages for all eligible managers, or only the named ones",
		Long: `Run executes each manager's update pipeline sequentially, in sort order.
Without arguments every eligible manager runs; naming managers restricts the
run to those (and overrides their skip entries in the config).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}

			release, err := workflow.AcquireLock(cfg.Paths.LockFile)
			if err != nil {
				return err
			}
			defer release()

			runID := uuid.NewString()
			logger, err := logging.NewFromConfig(cfg, runID)
			if err != nil {
				return err
			}
			logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, logging.RetentionTarget{
				Dir:     cfg.Paths.LogDir,
				Pattern: "upkeep-*.log",
			})

			cons := console.New(cmd.OutOrStdout(), cmd.ErrOrStderr())
			cache := verscache.New(cfg.VersionsCachePath(), cacheTTL(cfg), logger)
			checker := versions.NewChecker(cfg, cache, logger)

			defs, err := managers.Builtin(cfg)
			if err != nil {
				return err
			}
			selected, err := workflow.Select(defs, args)
			if err != nil {
				return err
			}

			runner := workflow.NewRunner(cfg, logger,
				workflow.WithConsole(cons),
				workflow.WithChecker(checker),
			)

			ctx := services.WithRunID(cmd.Context(), runID)
			summary := runner.Run(ctx, selected, len(args) > 0)

			printSummary(cmd, cons, summary)
			if code := summary.ExitCode(); code != 0 {
				return &exitError{code: code}
			}
			return nil
		},
	}
	return cmd
}

// printSummary renders the per-manager outcome table and a closing line.
func printSummary(cmd *cobra.Command, cons *console.Console, summary workflow.Summary) {
	ran := make([][]string, 0, len(summary.Results))
	for _, res := range summary.Results {
		note := res.Reason
		if note == "" && res.Err != nil {
			note = services.Details(res.Err).Message
		}
		if note == "" {
			note = "-"
		}
		ran = append(ran, []string{
			res.Label,
			string(res.Outcome),
			formatDuration(res.Duration),
			note,
		})
	}
	if len(ran) == 0 {
		cons.Detail("Nothing to run: no managers selected.")
		return
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable(
		[]string{"MANAGER", "OUTCOME", "DURATION", "NOTES"},
		ran,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	))

	counts := summary.Counts()
	switch {
	case summary.Failed():
		cons.Failure("%d of %d managers failed", counts[workflow.OutcomeFailed], len(summary.Results))
	case summary.Cancelled():
		// The cancellation line was already printed mid-run.
	case counts[workflow.OutcomeCompleted] == 0:
		cons.Detail("Nothing to do: no eligible managers.")
	default:
		cons.Success("All updates completed in %s", formatDuration(summary.Duration))
	}
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}
