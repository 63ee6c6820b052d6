package versions

import (
	"context"
	"log/slog"
	"sync"

	"upkeep/internal/config"
	"upkeep/internal/logging"
	"upkeep/internal/subproc"
	"upkeep/internal/verscache"
)

// Checker resolves installed and latest versions for tracked packages.
type Checker struct {
	exec        subproc.Executor
	cache       *verscache.Cache
	logger      *slog.Logger
	gitBinary   string
	pipBinary   string
	remoteBase  string
	concurrency int
	refresh     bool
}

// CheckerOption configures a Checker.
type CheckerOption func(*Checker)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec subproc.Executor) CheckerOption {
	return func(c *Checker) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithRefresh bypasses the cache for remote lookups. Fresh results are still
// stored.
func WithRefresh(refresh bool) CheckerOption {
	return func(c *Checker) {
		c.refresh = refresh
	}
}

// NewChecker builds a Checker from configuration. cache may be a disabled
// (empty-path) cache; lookups then always hit the remote.
func NewChecker(cfg *config.Config, cache *verscache.Cache, logger *slog.Logger, opts ...CheckerOption) *Checker {
	c := &Checker{
		exec:        subproc.NewExecutor(),
		cache:       cache,
		logger:      logging.NewComponentLogger(logger, "versions"),
		gitBinary:   cfg.Versions.GitBinary,
		pipBinary:   cfg.Versions.PipBinary,
		remoteBase:  cfg.Versions.RemoteBase,
		concurrency: cfg.Versions.Concurrency,
	}
	if c.concurrency <= 0 {
		c.concurrency = 1
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check resolves the version pair for one package.
func (c *Checker) Check(ctx context.Context, pkg string) (Info, error) {
	info := Info{Package: pkg}

	installed, err := c.Installed(ctx, pkg)
	if err != nil {
		return info, err
	}
	info.Installed = installed

	latest, err := c.Latest(ctx, pkg)
	if err != nil {
		return info, err
	}
	info.Latest = latest

	return info, nil
}

// Result pairs a package's version info with its lookup error, if any.
type Result struct {
	Info Info
	Err  error
}

// CheckAll resolves every package over a fixed-size worker pool. Lookups are
// independent and idempotent, so there is no ordering guarantee between them;
// the returned slice keeps the input order for stable display. succeeded
// counts lookups that completed without error.
func (c *Checker) CheckAll(ctx context.Context, pkgs []string) (results []Result, succeeded int) {
	results = make([]Result, len(pkgs))
	if len(pkgs) == 0 {
		return results, 0
	}

	workers := c.concurrency
	if workers > len(pkgs) {
		workers = len(pkgs)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for idx := range jobs {
				info, err := c.Check(ctx, pkgs[idx])
				results[idx] = Result{Info: info, Err: err}
			}
		}()
	}

	for i := range pkgs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for _, result := range results {
		if result.Err == nil {
			succeeded++
		}
	}
	return results, succeeded
}
