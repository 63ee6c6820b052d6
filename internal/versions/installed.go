package versions

import (
	"context"
	"fmt"
	"strings"

	"upkeep/internal/services"
	"upkeep/internal/subproc"
)

// Installed probes the locally installed version of a package via `pip show`.
// A non-zero exit means the package is not installed; that returns an empty
// version and no error. Only a spawn failure or cancellation is an error.
func (c *Checker) Installed(ctx context.Context, pkg string) (string, error) {
	pkg = strings.TrimSpace(pkg)
	if pkg == "" {
		return "", fmt.Errorf("package name required")
	}

	var lines []string
	exit, err := c.exec.Run(ctx, subproc.Request{
		Argv: []string{c.pipBinary, "show", pkg},
	}, func(line string) {
		lines = append(lines, line)
	})
	if err != nil {
		if services.Interrupted(err) {
			return "", services.Wrap(services.ErrInterrupted, "", "", "version probe cancelled", err)
		}
		return "", services.Wrap(services.ErrSpawn, "", "",
			fmt.Sprintf("run %s show", c.pipBinary), err)
	}
	if exit != 0 {
		return "", nil
	}

	return versionFromPipShow(lines), nil
}

// versionFromPipShow extracts the Version: field from `pip show` output.
func versionFromPipShow(lines []string) string {
	for _, line := range lines {
		rest, ok := strings.CutPrefix(line, "Version:")
		if !ok {
			continue
		}
		return strings.TrimSpace(rest)
	}
	return ""
}
