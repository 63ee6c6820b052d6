package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"upkeep/internal/managers"
)

type stageView struct {
	Name          string   `json:"name"`
	Command       string   `json:"command"`
	Dir           string   `json:"dir,omitempty"`
	CaptureOutput bool     `json:"capture_output"`
	FilterOutput  bool     `json:"filter_output"`
	RaiseError    bool     `json:"raise_error"`
	RequiresSudo  bool     `json:"requires_sudo"`
	WarnOnly      []string `json:"warn_only,omitempty"`
	PreHook       bool     `json:"pre_hook"`
	PostHook      bool     `json:"post_hook"`
}

func newShowCommand(cctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <manager>",
		Short: "Show one manager's stage pipeline and per-stage policy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}
			defs, err := managers.Builtin(cfg)
			if err != nil {
				return err
			}

			name := strings.ToLower(strings.TrimSpace(args[0]))
			def, ok := managers.ByName(defs, name)
			if !ok {
				return fmt.Errorf("unknown manager %q (known: %s)", name, strings.Join(managers.Names(defs), ", "))
			}

			views := stageViews(def)
			if jsonOutput {
				return writeJSON(cmd, map[string]any{
					"name":         def.Name,
					"display_name": def.Label(),
					"description":  def.Description,
					"stages":       views,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %s\n", def.Label(), def.Description)

			rows := make([][]string, 0, len(views))
			for i, view := range views {
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					view.Name,
					view.Command,
					policySummary(view),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "STAGE", "COMMAND", "POLICY"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}

func stageViews(def managers.Definition) []stageView {
	views := make([]stageView, 0, def.Stages.Len())
	for _, name := range def.Stages.Names() {
		tpl, _ := def.Stages.Lookup(name)
		views = append(views, stageView{
			Name:          tpl.Name,
			Command:       strings.Join(tpl.Argv, " "),
			Dir:           tpl.Dir,
			CaptureOutput: tpl.CaptureOutput,
			FilterOutput:  tpl.FilterOutput,
			RaiseError:    tpl.RaiseError,
			RequiresSudo:  tpl.RequiresSudo,
			WarnOnly:      def.WarnOnly[name],
			PreHook:       def.PreStage[name] != nil,
			PostHook:      def.PostStage[name] != nil,
		})
	}
	return views
}

// policySummary compresses a stage's flags into a short annotation column.
func policySummary(view stageView) string {
	var parts []string
	if view.RequiresSudo {
		parts = append(parts, "sudo")
	}
	if view.FilterOutput {
		parts = append(parts, "filtered")
	} else if view.CaptureOutput {
		parts = append(parts, "captured")
	}
	if !view.RaiseError {
		parts = append(parts, "warn-only")
	}
	if len(view.WarnOnly) > 0 {
		parts = append(parts, "warn on "+strings.Join(view.WarnOnly, ","))
	}
	if view.PreHook {
		parts = append(parts, "pre-hook")
	}
	if view.PostHook {
		parts = append(parts, "post-hook")
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}
