package main

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"upkeep/internal/console"
	"upkeep/internal/logging"
	"upkeep/internal/services"
	"upkeep/internal/verscache"
	"upkeep/internal/versions"
)

type checkView struct {
	Package   string `json:"package"`
	Installed string `json:"installed,omitempty"`
	Latest    string `json:"latest,omitempty"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

func newCheckCommand(cctx *commandContext) *cobra.Command {
	var refresh bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "check [package...]",
		Short: "Check tracked packages against their latest release tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}

			pkgs := args
			if len(pkgs) == 0 {
				pkgs = cfg.Versions.Packages
			}
			cons := console.New(cmd.OutOrStdout(), cmd.ErrOrStderr())
			if len(pkgs) == 0 {
				cons.Detail("No tracked packages configured; set versions.packages or name packages explicitly.")
				return nil
			}

			logger, err := logging.NewFromConfig(cfg, "")
			if err != nil {
				return err
			}
			cache := verscache.New(cfg.VersionsCachePath(), cacheTTL(cfg), logger)
			checker := versions.NewChecker(cfg, cache, logger, versions.WithRefresh(refresh))

			results, succeeded := checker.CheckAll(cmd.Context(), pkgs)

			views := make([]checkView, 0, len(results))
			for _, res := range results {
				views = append(views, viewFor(res))
			}

			if jsonOutput {
				if err := writeJSON(cmd, views); err != nil {
					return err
				}
			} else {
				for _, view := range views {
					printCheckLine(cons, view)
				}
				if !refresh {
					if age, ok := oldestCheck(cache, pkgs); ok {
						cons.Detail("Version data from %s; use --refresh to requery.", humanize.Time(age))
					}
				}
			}

			if succeeded < len(pkgs) {
				return &exitError{code: 1}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Bypass the version cache and query remotes")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}

func viewFor(res versions.Result) checkView {
	view := checkView{
		Package:   res.Info.Package,
		Installed: res.Info.Installed,
		Latest:    res.Info.Latest,
		Status:    res.Info.Status().String(),
	}
	if res.Err != nil {
		view.Status = "error"
		view.Error = services.Details(res.Err).Message
	}
	return view
}

func printCheckLine(cons *console.Console, view checkView) {
	switch {
	case view.Error != "":
		cons.Failure("%s: %s", view.Package, view.Error)
	case view.Status == versions.StatusUpToDate.String():
		cons.Success("%s %s (up to date)", view.Package, view.Installed)
	case view.Status == versions.StatusUpdateAvailable.String():
		cons.Warning("%s %s → %s update available", view.Package, view.Installed, view.Latest)
	case view.Status == versions.StatusNotInstalled.String() && view.Latest != "":
		cons.Failure("%s not installed (latest %s)", view.Package, view.Latest)
	case view.Status == versions.StatusNotInstalled.String():
		cons.Failure("%s not installed", view.Package)
	default:
		cons.Warning("%s %s (latest unknown)", view.Package, view.Installed)
	}
}

// oldestCheck returns the oldest cache timestamp among the named packages.
func oldestCheck(cache *verscache.Cache, pkgs []string) (time.Time, bool) {
	var oldest time.Time
	found := false
	for _, entry := range cache.List() {
		for _, pkg := range pkgs {
			if entry.Package != pkg {
				continue
			}
			if !found || entry.CheckedAt.Before(oldest) {
				oldest = entry.CheckedAt
				found = true
			}
		}
	}
	return oldest, found
}
