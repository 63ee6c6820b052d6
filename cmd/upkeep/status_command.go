package main

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"upkeep/internal/deps"
	"upkeep/internal/managers"
)

type managerStatus struct {
	Name          string   `json:"name"`
	DisplayName   string   `json:"display_name"`
	Description   string   `json:"description"`
	Eligible      bool     `json:"eligible"`
	Reason        string   `json:"reason,omitempty"`
	Prerequisite  string   `json:"prerequisite,omitempty"`
	Platforms     []string `json:"platforms,omitempty"`
	RequiresSudo  bool     `json:"requires_sudo"`
	SystemUpdater bool     `json:"system_updater"`
	Stages        []string `json:"stages"`
}

func newStatusCommand(cctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show every known manager and whether it can run here",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}
			defs, err := managers.Builtin(cfg)
			if err != nil {
				return err
			}

			reqs := make([]deps.Requirement, 0, len(defs))
			for _, def := range defs {
				reqs = append(reqs, deps.Requirement{
					Name:        def.Name,
					Command:     def.Prerequisite,
					Description: def.Description,
				})
			}
			checks := deps.CheckBinaries(reqs)

			statuses := make([]managerStatus, 0, len(defs))
			for i, def := range defs {
				statuses = append(statuses, statusFor(def, runtime.GOOS, checks[i]))
			}

			if jsonOutput {
				return writeJSON(cmd, map[string]any{"managers": statuses})
			}

			rows := make([][]string, 0, len(statuses))
			for _, st := range statuses {
				eligible := "yes"
				if !st.Eligible {
					eligible = "no (" + st.Reason + ")"
				}
				rows = append(rows, []string{
					st.Name,
					eligible,
					yesNo(st.RequiresSudo),
					yesNo(st.SystemUpdater),
					strconv.Itoa(len(st.Stages)),
					st.Description,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"MANAGER", "ELIGIBLE", "SUDO", "SYSTEM", "STAGES", "DESCRIPTION"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}

func statusFor(def managers.Definition, goos string, check deps.Status) managerStatus {
	st := managerStatus{
		Name:          def.Name,
		DisplayName:   def.Label(),
		Description:   def.Description,
		Prerequisite:  def.Prerequisite,
		Platforms:     def.Platforms,
		RequiresSudo:  def.RequiresSudo,
		SystemUpdater: def.SystemUpdater,
		Stages:        def.Stages.Names(),
	}
	switch {
	case !def.SupportsPlatform(goos):
		st.Reason = "requires " + strings.Join(def.Platforms, " or ")
	case def.Prerequisite != "" && !check.Available:
		st.Reason = def.Prerequisite + " not on PATH"
	default:
		st.Eligible = true
	}
	return st
}
