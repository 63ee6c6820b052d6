package versions

import (
	"context"
	"fmt"
	"strings"

	"upkeep/internal/logging"
	"upkeep/internal/semver"
	"upkeep/internal/services"
	"upkeep/internal/subproc"
	"upkeep/internal/verscache"
)

const tagRefPrefix = "refs/tags/"

// Latest resolves the newest release tag of the package's git remote,
// consulting the cache first. An empty result means the remote has no
// parseable release tags; that is an answer, not an error.
func (c *Checker) Latest(ctx context.Context, pkg string) (string, error) {
	pkg = strings.TrimSpace(pkg)
	if pkg == "" {
		return "", fmt.Errorf("package name required")
	}

	if !c.refresh {
		if entry, ok := c.cache.Lookup(pkg); ok {
			return entry.Version, nil
		}
	}

	if c.remoteBase == "" {
		return "", services.Wrap(services.ErrConfiguration, "", "",
			fmt.Sprintf("no remote base configured for %s lookups", pkg), nil)
	}

	url := c.remoteBase + "/" + pkg + ".git"
	var lines []string
	exit, err := c.exec.Run(ctx, subproc.Request{
		Argv: []string{c.gitBinary, "ls-remote", "--tags", url},
	}, func(line string) {
		lines = append(lines, line)
	})
	if err != nil {
		if services.Interrupted(err) {
			return "", services.Wrap(services.ErrInterrupted, "", "", "version lookup cancelled", err)
		}
		return "", services.Wrap(services.ErrSpawn, "", "",
			fmt.Sprintf("run %s ls-remote", c.gitBinary), err)
	}
	if exit != 0 {
		return "", services.Wrap(services.ErrExternalTool, "", "",
			fmt.Sprintf("list remote tags for %s: exit status %d", pkg, exit), nil)
	}

	latest := latestFromTagLines(lines)
	if latest != "" {
		if err := c.cache.Store(verscache.Entry{Package: pkg, Version: latest, Source: "git"}); err != nil {
			c.logger.Warn("failed to cache version lookup",
				logging.String("package", pkg),
				logging.Error(err))
		}
	}
	return latest, nil
}

// latestFromTagLines extracts the highest release version from `git
// ls-remote --tags` output. Each line is `<sha>\t<ref>`; the ref must be a
// v-prefixed semantic version under refs/tags/, optionally carrying a ^{}
// peeled-tag marker. Lines that do not parse are skipped.
func latestFromTagLines(lines []string) string {
	var parsed []semver.Version
	for _, line := range lines {
		tag, ok := tagFromRefLine(line)
		if !ok {
			continue
		}
		version, err := semver.Parse(strings.TrimPrefix(tag, "v"))
		if err != nil {
			continue
		}
		parsed = append(parsed, version)
	}
	latest, ok := semver.Max(parsed)
	if !ok {
		return ""
	}
	return latest.String()
}

func tagFromRefLine(line string) (string, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return "", false
	}
	ref := fields[len(fields)-1]
	if !strings.HasPrefix(ref, tagRefPrefix) {
		return "", false
	}
	tag := strings.TrimPrefix(ref, tagRefPrefix)
	tag = strings.TrimSuffix(tag, "^{}")
	if !strings.HasPrefix(tag, "v") {
		return "", false
	}
	return tag, true
}
