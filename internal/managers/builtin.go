package managers

import (
	"fmt"
	"strings"

	"upkeep/internal/config"
	"upkeep/internal/stage"
)

// Sort bands for the builtin registry. Tracked packages go first so a broken
// self-update surfaces before an hour of system upgrades; system updaters run
// after userland; macOS last because softwareupdate may want a reboot.
const (
	sortSelf     = 5
	sortChezmoi  = 10
	sortPip      = 20
	sortHomebrew = 30
	sortApt      = 40
	sortDnf      = 41
	sortPacman   = 42
	sortCompose  = 50
	sortMacOS    = 60
)

// Builtin returns every known manager wired from configuration, sorted by run
// order. Managers whose configuration is absent (no tracked packages, no
// compose directory) are omitted entirely rather than left ineligible.
func Builtin(cfg *config.Config) ([]Definition, error) {
	defs := []Definition{
		chezmoiManager(),
		pipManager(cfg),
		homebrewManager(),
		aptManager(),
		dnfManager(),
		pacmanManager(),
		softwareUpdateManager(),
	}
	if def, ok := selfManager(cfg); ok {
		defs = append(defs, def)
	}
	if def, ok := composeManager(cfg); ok {
		defs = append(defs, def)
	}
	seen := make(map[string]bool, len(defs))
	for _, def := range defs {
		if err := def.Validate(); err != nil {
			return nil, err
		}
		if seen[def.Name] {
			return nil, fmt.Errorf("manager %q: duplicate name", def.Name)
		}
		seen[def.Name] = true
	}
	return Sorted(defs), nil
}

func chezmoiManager() Definition {
	return Definition{
		Name:         "chezmoi",
		DisplayName:  "chezmoi",
		Description:  "dotfile repository pull and apply",
		Prerequisite: "chezmoi",
		SortOrder:    sortChezmoi,
		Stages: stage.MustTable(
			stage.Template{
				Name:         "update",
				Argv:         []string{"chezmoi", "update"},
				StartMessage: "Updating dotfiles...",
				ErrorMessage: "Failed to update dotfiles: %s",
				FilterOutput: true,
				RaiseError:   true,
			},
		),
		// Dotfile sync failing on Windows hosts is chronic and harmless;
		// everywhere else it fails the manager.
		WarnOnly: map[string][]string{"update": {"windows"}},
	}
}

// selfManager reinstalls the tracked personal packages from their release
// tags. It exists only when packages are configured; config validation has
// already guaranteed a remote base by then.
func selfManager(cfg *config.Config) (Definition, bool) {
	pkgs := cfg.Versions.Packages
	if len(pkgs) == 0 {
		return Definition{}, false
	}
	pip := cfg.Versions.PipBinary
	base := cfg.Versions.RemoteBase

	uninstallArgv := append([]string{pip, "uninstall", "-y"}, pkgs...)
	templates := []stage.Template{{
		Name:          "uninstall",
		Argv:          uninstallArgv,
		StartMessage:  fmt.Sprintf("Uninstalling %s for a clean reinstall...", strings.Join(pkgs, ", ")),
		CaptureOutput: true,
		FilterOutput:  true,
	}}
	preStage := map[string]HookFunc{"uninstall": snapshotVersionsHook(pkgs)}

	for _, pkg := range pkgs {
		name := "install-" + pkg
		templates = append(templates, stage.Template{
			Name:         name,
			Argv:         []string{pip, "install", "--upgrade", fmt.Sprintf("git+%s/%s.git", base, pkg)},
			StartMessage: fmt.Sprintf("Installing %s...", pkg),
			EndMessage:   fmt.Sprintf("%s installed successfully!", pkg),
			ErrorMessage: fmt.Sprintf("Failed to install %s", pkg) + ": %s",
			FilterOutput: true,
			RaiseError:   true,
		})
		preStage[name] = installMessageHook(pkg)
	}

	return Definition{
		Name:         "self",
		DisplayName:  "tracked packages",
		Description:  "clean reinstall of tracked personal packages",
		Prerequisite: pip,
		SortOrder:    sortSelf,
		Stages:       stage.MustTable(templates...),
		PreStage:     preStage,
	}, true
}

func pipManager(cfg *config.Config) Definition {
	pip := cfg.Versions.PipBinary
	return Definition{
		Name:         "pip",
		DisplayName:  "pip",
		Description:  "pip itself and outdated global Python packages",
		Prerequisite: pip,
		SortOrder:    sortPip,
		Stages: stage.MustTable(
			stage.Template{
				Name:         "upgrade-pip",
				Argv:         []string{pip, "install", "--upgrade", "pip"},
				StartMessage: "Updating pip...",
				ErrorMessage: "Failed to update pip: %s",
				FilterOutput: true,
				RaiseError:   true,
			},
			stage.Template{
				Name:         "upgrade-packages",
				Argv:         []string{pip, "install", "--upgrade"},
				StartMessage: "Upgrading outdated packages...",
				ErrorMessage: "Failed to upgrade packages: %s",
				FilterOutput: true,
				RaiseError:   true,
			},
		),
		PreStage: map[string]HookFunc{"upgrade-packages": pipOutdatedHook()},
	}
}

func homebrewManager() Definition {
	return Definition{
		Name:         "homebrew",
		Description:  "Homebrew formulae and casks",
		Prerequisite: "brew",
		Platforms:    []string{"darwin", "linux"},
		SortOrder:    sortHomebrew,
		Stages: stage.MustTable(
			stage.Template{
				Name:         "update",
				Argv:         []string{"brew", "update"},
				StartMessage: "Updating Homebrew...",
				ErrorMessage: "Failed to update Homebrew: %s",
				FilterOutput: true,
				RaiseError:   true,
			},
			stage.Template{
				Name:         "upgrade",
				Argv:         []string{"brew", "upgrade"},
				StartMessage: "Upgrading Homebrew packages...",
				EndMessage:   "Homebrew packages upgraded successfully!",
				ErrorMessage: "Failed to upgrade Homebrew packages: %s",
				RaiseError:   true,
			},
			stage.Template{
				Name:          "cleanup",
				Argv:          []string{"brew", "cleanup"},
				StartMessage:  "Cleaning up old versions...",
				CaptureOutput: true,
				FilterOutput:  true,
			},
		),
	}
}

func aptManager() Definition {
	return Definition{
		Name:          "apt",
		DisplayName:   "APT",
		Description:   "Debian and Ubuntu system packages",
		Prerequisite:  "apt-get",
		Platforms:     []string{"linux"},
		SortOrder:     sortApt,
		RequiresSudo:  true,
		SystemUpdater: true,
		Stages: stage.MustTable(
			stage.Template{
				Name:         "update",
				Argv:         []string{"apt-get", "update"},
				StartMessage: "Updating package lists...",
				ErrorMessage: "Failed to update package lists: %s",
				FilterOutput: true,
				RaiseError:   true,
				RequiresSudo: true,
			},
			stage.Template{
				Name:         "upgrade",
				Argv:         []string{"apt-get", "upgrade", "-y"},
				StartMessage: "Upgrading packages...",
				EndMessage:   "Packages upgraded successfully!",
				ErrorMessage: "Failed to upgrade packages: %s",
				RaiseError:   true,
				RequiresSudo: true,
			},
			stage.Template{
				Name:         "autoremove",
				Argv:         []string{"apt-get", "autoremove", "-y"},
				StartMessage: "Removing unused packages...",
				FilterOutput: true,
				RequiresSudo: true,
			},
		),
	}
}

func dnfManager() Definition {
	return Definition{
		Name:          "dnf",
		DisplayName:   "DNF",
		Description:   "Fedora and RHEL system packages",
		Prerequisite:  "dnf",
		Platforms:     []string{"linux"},
		SortOrder:     sortDnf,
		RequiresSudo:  true,
		SystemUpdater: true,
		Stages: stage.MustTable(
			stage.Template{
				Name:         "upgrade",
				Argv:         []string{"dnf", "upgrade", "-y"},
				StartMessage: "Updating packages...",
				EndMessage:   "Packages upgraded successfully!",
				ErrorMessage: "Failed to upgrade packages: %s",
				FilterOutput: true,
				RaiseError:   true,
				RequiresSudo: true,
			},
		),
	}
}

func pacmanManager() Definition {
	return Definition{
		Name:          "pacman",
		DisplayName:   "pacman",
		Description:   "Arch Linux system packages",
		Prerequisite:  "pacman",
		Platforms:     []string{"linux"},
		SortOrder:     sortPacman,
		RequiresSudo:  true,
		SystemUpdater: true,
		Stages: stage.MustTable(
			stage.Template{
				Name:         "upgrade",
				Argv:         []string{"pacman", "-Syu", "--noconfirm"},
				StartMessage: "Updating packages...",
				ErrorMessage: "Failed to update packages: %s",
				RaiseError:   true,
				RequiresSudo: true,
			},
		),
	}
}

// composeManager refreshes the Docker Compose stack rooted at the configured
// directory. Without a directory there is nothing to manage.
func composeManager(cfg *config.Config) (Definition, bool) {
	dir := cfg.Compose.Dir
	if dir == "" {
		return Definition{}, false
	}
	templates := []stage.Template{
		{
			Name:         "pull",
			Argv:         []string{"docker", "compose", "pull"},
			Dir:          dir,
			StartMessage: "Pulling updated images...",
			ErrorMessage: "Failed to pull images: %s",
			FilterOutput: true,
			RaiseError:   true,
		},
		{
			Name:         "up",
			Argv:         []string{"docker", "compose", "up", "-d", "--remove-orphans"},
			Dir:          dir,
			StartMessage: "Recreating updated containers...",
			EndMessage:   "Compose stack updated successfully!",
			ErrorMessage: "Failed to update compose stack: %s",
			FilterOutput: true,
			RaiseError:   true,
		},
	}
	if cfg.Compose.Prune {
		templates = append(templates, stage.Template{
			Name:         "prune",
			Argv:         []string{"docker", "image", "prune", "-f"},
			StartMessage: "Pruning dangling images...",
			FilterOutput: true,
		})
	}
	return Definition{
		Name:         "compose",
		DisplayName:  "Docker Compose",
		Description:  "container stack image refresh",
		Prerequisite: "docker",
		SortOrder:    sortCompose,
		Stages:       stage.MustTable(templates...),
	}, true
}

func softwareUpdateManager() Definition {
	return Definition{
		Name:          "macos",
		DisplayName:   "macOS",
		Description:   "macOS system software updates",
		Prerequisite:  "softwareupdate",
		Platforms:     []string{"darwin"},
		SortOrder:     sortMacOS,
		RequiresSudo:  true,
		SystemUpdater: true,
		Stages: stage.MustTable(
			stage.Template{
				Name:         "install",
				Argv:         []string{"softwareupdate", "--install", "--all"},
				StartMessage: "Checking for macOS software updates...",
				ErrorMessage: "Failed to install macOS updates: %s",
				FilterOutput: true,
				RaiseError:   true,
				RequiresSudo: true,
			},
		),
	}
}
