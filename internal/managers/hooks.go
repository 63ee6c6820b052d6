package managers

import (
	"context"
	"fmt"
	"strings"

	"upkeep/internal/logging"
	"upkeep/internal/services"
	"upkeep/internal/stage"
	"upkeep/internal/subproc"
)

// snapshotVersionsHook records the installed version of every tracked package
// before the clean-install uninstall wipes them. Later install hooks read the
// snapshot to phrase the upgrade message.
func snapshotVersionsHook(pkgs []string) HookFunc {
	return func(ctx context.Context, env *Env, _ *stage.Invocation) error {
		if env.Checker == nil {
			return nil
		}
		for _, pkg := range pkgs {
			installed, err := env.Checker.Installed(ctx, pkg)
			if err != nil {
				if services.Interrupted(err) {
					return err
				}
				env.Logger.Debug("installed version probe failed",
					logging.String("package", pkg),
					logging.Error(err))
				continue
			}
			if installed != "" {
				env.SetValue("installed:"+pkg, installed)
			}
		}
		return nil
	}
}

// installMessageHook rewrites the install stage's success message with the
// version transition, e.g. "tracker 1.2.0 → 1.3.0 installed successfully!".
// Lookup failures leave the template message in place.
func installMessageHook(pkg string) HookFunc {
	return func(ctx context.Context, env *Env, inv *stage.Invocation) error {
		if env.Checker == nil {
			return nil
		}
		latest, err := env.Checker.Latest(ctx, pkg)
		if err != nil {
			if services.Interrupted(err) {
				return err
			}
			env.Logger.Debug("latest version probe failed",
				logging.String("package", pkg),
				logging.Error(err))
			return nil
		}
		if latest == "" {
			return nil
		}
		previous, _ := env.Value("installed:" + pkg)
		switch {
		case previous == "":
			inv.EndMessage = fmt.Sprintf("%s %s installed successfully!", pkg, latest)
		case previous == latest:
			inv.EndMessage = fmt.Sprintf("%s %s reinstalled successfully!", pkg, latest)
		default:
			inv.EndMessage = fmt.Sprintf("%s %s → %s installed successfully!", pkg, previous, latest)
		}
		return nil
	}
}

// pipOutdatedHook expands the upgrade stage's argv with the packages pip
// reports as outdated. When nothing is outdated the stage is skipped.
func pipOutdatedHook() HookFunc {
	return func(ctx context.Context, env *Env, inv *stage.Invocation) error {
		pip := env.Config.Versions.PipBinary
		var lines []string
		exitCode, err := env.Exec.Run(ctx,
			subproc.Request{Argv: []string{pip, "list", "--outdated", "--format=freeze"}},
			func(line string) { lines = append(lines, line) })
		if err != nil {
			if services.Interrupted(err) {
				return services.Wrap(services.ErrInterrupted, "pip", inv.Name, "outdated package listing interrupted", err)
			}
			return services.Wrap(services.ErrSpawn, "pip", inv.Name, "list outdated packages", err)
		}
		if exitCode != 0 {
			return services.Wrap(services.ErrExternalTool, "pip", inv.Name,
				fmt.Sprintf("pip list --outdated exited with code %d", exitCode), nil)
		}
		outdated := parseFreezeList(lines)
		if len(outdated) == 0 {
			if env.Console != nil {
				env.Console.Detail("No outdated packages.")
			}
			return ErrSkipStage
		}
		inv.Argv = append(inv.Argv, outdated...)
		inv.EndMessage = fmt.Sprintf("%d outdated packages upgraded successfully!", len(outdated))
		return nil
	}
}

// parseFreezeList extracts package names from pip's freeze-format listing
// (name==version per line). Editable installs and malformed lines are ignored.
func parseFreezeList(lines []string) []string {
	var pkgs []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "-e ") || strings.HasPrefix(line, "#") {
			continue
		}
		name, _, found := strings.Cut(line, "==")
		if !found || name == "" {
			continue
		}
		pkgs = append(pkgs, name)
	}
	return pkgs
}
