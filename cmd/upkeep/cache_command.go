package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"upkeep/internal/logging"
	"upkeep/internal/verscache"
)

func newCacheCommand(cctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the version-lookup cache",
	}
	cacheCmd.AddCommand(newCacheShowCommand(cctx))
	cacheCmd.AddCommand(newCacheClearCommand(cctx))
	return cacheCmd
}

func newCacheShowCommand(cctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "List cached version lookups",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := openCache(cctx)
			if err != nil {
				return err
			}

			entries := cache.List()
			if jsonOutput {
				return writeJSON(cmd, map[string]any{
					"path":    cache.Path(),
					"entries": entries,
				})
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(out, "Version cache is empty (%s)\n", cache.Path())
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{
					entry.Package,
					entry.Version,
					entry.Source,
					humanize.Time(entry.CheckedAt),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"PACKAGE", "VERSION", "SOURCE", "CHECKED"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			))
			fmt.Fprintf(out, "%d entries in %s\n", len(entries), cache.Path())
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}

func newCacheClearCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached version lookups",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := openCache(cctx)
			if err != nil {
				return err
			}
			count := cache.Count()
			if err := cache.Clear(); err != nil {
				return fmt.Errorf("clear version cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached entries\n", count)
			return nil
		},
	}
}

func openCache(cctx *commandContext) (*verscache.Cache, error) {
	cfg, err := cctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewFromConfig(cfg, "")
	if err != nil {
		return nil, err
	}
	return verscache.New(cfg.VersionsCachePath(), cacheTTL(cfg), logger), nil
}
