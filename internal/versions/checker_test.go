package versions_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"upkeep/internal/services"
	"upkeep/internal/testsupport"
	"upkeep/internal/verscache"
	"upkeep/internal/versions"
)

func newTestChecker(t *testing.T, exec *testsupport.FakeExecutor, opts ...versions.CheckerOption) (*versions.Checker, *verscache.Cache) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cache := verscache.New(filepath.Join(t.TempDir(), "versions.json"), time.Hour, nil)
	opts = append([]versions.CheckerOption{versions.WithExecutor(exec)}, opts...)
	return versions.NewChecker(cfg, cache, nil, opts...), cache
}

func stubRemoteTags(exec *testsupport.FakeExecutor, pkg string, lines ...string) {
	exec.Stub("git ls-remote --tags https://git.example.test/tracked/"+pkg+".git",
		testsupport.FakeResult{Lines: lines})
}

func stubInstalled(exec *testsupport.FakeExecutor, pkg, version string) {
	result := testsupport.FakeResult{Exit: 1}
	if version != "" {
		result = testsupport.FakeResult{Lines: []string{
			"Name: " + pkg,
			"Version: " + version,
			"Location: /somewhere/site-packages",
		}}
	}
	exec.Stub("pip show "+pkg, result)
}

func TestLatestPicksSemverMaximum(t *testing.T) {
	exec := testsupport.NewFakeExecutor()
	// The rc of 1.3.0 outranks every 1.2.x release; the peeled marker is
	// stripped and the garbage ref is skipped.
	stubRemoteTags(exec, "dsbin",
		"41d2ffe\trefs/tags/v1.2.0",
		"52e3aab\trefs/tags/v1.3.0-rc1",
		"63f4bbc\trefs/tags/garbage",
		"74a5ccd\trefs/tags/v1.2.9^{}",
	)
	checker, _ := newTestChecker(t, exec)

	latest, err := checker.Latest(context.Background(), "dsbin")
	if err != nil {
		t.Fatalf("Latest returned error: %v", err)
	}
	if latest != "1.3.0-rc1" {
		t.Fatalf("expected 1.3.0-rc1, got %q", latest)
	}
}

func TestLatestIgnoresNonTagRefsAndUnprefixedTags(t *testing.T) {
	exec := testsupport.NewFakeExecutor()
	stubRemoteTags(exec, "dsbin",
		"41d2ffe\trefs/heads/main",
		"52e3aab\trefs/tags/1.9.0", // no v prefix
		"63f4bbc\trefs/tags/v0.4.2",
		"",
	)
	checker, _ := newTestChecker(t, exec)

	latest, err := checker.Latest(context.Background(), "dsbin")
	if err != nil {
		t.Fatalf("Latest returned error: %v", err)
	}
	if latest != "0.4.2" {
		t.Fatalf("expected 0.4.2, got %q", latest)
	}
}

func TestLatestNoValidTagsIsAbsenceNotError(t *testing.T) {
	exec := testsupport.NewFakeExecutor()
	stubRemoteTags(exec, "dsbin", "41d2ffe\trefs/tags/garbage")
	checker, cache := newTestChecker(t, exec)

	latest, err := checker.Latest(context.Background(), "dsbin")
	if err != nil {
		t.Fatalf("Latest returned error: %v", err)
	}
	if latest != "" {
		t.Fatalf("expected empty latest, got %q", latest)
	}
	if cache.Count() != 0 {
		t.Fatal("absence must not be cached")
	}
}

func TestLatestRemoteFailureIsError(t *testing.T) {
	exec := testsupport.NewFakeExecutor()
	exec.StubPrefix("git ls-remote", testsupport.FakeResult{Exit: 128})
	checker, _ := newTestChecker(t, exec)

	_, err := checker.Latest(context.Background(), "dsbin")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
}

func TestLatestUsesCacheUntilRefresh(t *testing.T) {
	exec := testsupport.NewFakeExecutor()
	stubRemoteTags(exec, "dsbin", "41d2ffe\trefs/tags/v1.0.0")
	checker, cache := newTestChecker(t, exec)

	if _, err := checker.Latest(context.Background(), "dsbin"); err != nil {
		t.Fatalf("first Latest: %v", err)
	}
	if _, err := checker.Latest(context.Background(), "dsbin"); err != nil {
		t.Fatalf("second Latest: %v", err)
	}
	if got := exec.CallCount(); got != 1 {
		t.Fatalf("expected a single remote query, got %d", got)
	}

	// A refreshing checker bypasses the cache but shares its backing file.
	cfg := testsupport.NewConfig(t)
	fresh := versions.NewChecker(cfg, cache, nil,
		versions.WithExecutor(exec), versions.WithRefresh(true))
	if _, err := fresh.Latest(context.Background(), "dsbin"); err != nil {
		t.Fatalf("refresh Latest: %v", err)
	}
	if got := exec.CallCount(); got != 2 {
		t.Fatalf("expected refresh to re-query, got %d calls", got)
	}
}

func TestLatestExpiredCacheEntryRequeries(t *testing.T) {
	exec := testsupport.NewFakeExecutor()
	stubRemoteTags(exec, "dsbin", "41d2ffe\trefs/tags/v2.0.0")

	cfg := testsupport.NewConfig(t)
	cachePath := filepath.Join(t.TempDir(), "versions.json")
	shortLived := verscache.New(cachePath, time.Millisecond, nil)
	checker := versions.NewChecker(cfg, shortLived, nil, versions.WithExecutor(exec))

	if _, err := checker.Latest(context.Background(), "dsbin"); err != nil {
		t.Fatalf("first Latest: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := checker.Latest(context.Background(), "dsbin"); err != nil {
		t.Fatalf("second Latest: %v", err)
	}
	if got := exec.CallCount(); got != 2 {
		t.Fatalf("expected expired entry to re-query, got %d calls", got)
	}
}

func TestInstalledParsesPipShow(t *testing.T) {
	exec := testsupport.NewFakeExecutor()
	stubInstalled(exec, "dsbin", "2.1.0")
	checker, _ := newTestChecker(t, exec)

	installed, err := checker.Installed(context.Background(), "dsbin")
	if err != nil {
		t.Fatalf("Installed returned error: %v", err)
	}
	if installed != "2.1.0" {
		t.Fatalf("expected 2.1.0, got %q", installed)
	}
}

func TestInstalledMissingPackageIsNotError(t *testing.T) {
	exec := testsupport.NewFakeExecutor()
	stubInstalled(exec, "dsbin", "")
	checker, _ := newTestChecker(t, exec)

	installed, err := checker.Installed(context.Background(), "dsbin")
	if err != nil {
		t.Fatalf("Installed returned error: %v", err)
	}
	if installed != "" {
		t.Fatalf("expected empty version, got %q", installed)
	}
}

func TestCheckCombinesProbes(t *testing.T) {
	exec := testsupport.NewFakeExecutor()
	stubInstalled(exec, "dsbin", "1.2.0")
	stubRemoteTags(exec, "dsbin", "41d2ffe\trefs/tags/v1.3.0")
	checker, _ := newTestChecker(t, exec)

	info, err := checker.Check(context.Background(), "dsbin")
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if info.Installed != "1.2.0" || info.Latest != "1.3.0" {
		t.Fatalf("unexpected info: %+v", info)
	}
	if info.Status() != versions.StatusUpdateAvailable {
		t.Fatalf("expected update available, got %v", info.Status())
	}
}

func TestCheckAllCountsSuccessesDespiteFailures(t *testing.T) {
	exec := testsupport.NewFakeExecutor()
	stubInstalled(exec, "good", "1.0.0")
	stubRemoteTags(exec, "good", "41d2ffe\trefs/tags/v1.0.0")
	stubInstalled(exec, "bad", "1.0.0")
	exec.Stub("git ls-remote --tags https://git.example.test/tracked/bad.git",
		testsupport.FakeResult{Exit: 128})
	stubInstalled(exec, "alsogood", "")
	stubRemoteTags(exec, "alsogood", "41d2ffe\trefs/tags/v0.9.0")

	checker, _ := newTestChecker(t, exec)

	results, succeeded := checker.CheckAll(context.Background(), []string{"good", "bad", "alsogood"})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if succeeded != 2 {
		t.Fatalf("expected 2 successes, got %d", succeeded)
	}
	if results[0].Info.Package != "good" || results[1].Info.Package != "bad" || results[2].Info.Package != "alsogood" {
		t.Fatalf("results out of input order: %+v", results)
	}
	if results[1].Err == nil {
		t.Fatal("expected error recorded for failing package")
	}
	if results[2].Info.Status() != versions.StatusNotInstalled {
		t.Fatalf("expected not installed, got %v", results[2].Info.Status())
	}
}

func TestInfoStatusTable(t *testing.T) {
	cases := []struct {
		name string
		info versions.Info
		want versions.Status
	}{
		{"equal versions are up to date", versions.Info{Package: "p", Installed: "2.0.0", Latest: "2.0.0"}, versions.StatusUpToDate},
		{"newer remote is update available", versions.Info{Package: "p", Installed: "1.2.9", Latest: "1.3.0-rc1"}, versions.StatusUpdateAvailable},
		{"pre-release below own final release", versions.Info{Package: "p", Installed: "1.3.0-rc1", Latest: "1.3.0"}, versions.StatusUpdateAvailable},
		{"installed ahead of remote is up to date", versions.Info{Package: "p", Installed: "2.1.0", Latest: "2.0.0"}, versions.StatusUpToDate},
		{"missing install reported with latest", versions.Info{Package: "p", Latest: "1.0.0"}, versions.StatusNotInstalled},
		{"missing install without latest", versions.Info{Package: "p"}, versions.StatusNotInstalled},
		{"missing latest is unknown", versions.Info{Package: "p", Installed: "1.0.0"}, versions.StatusUnknown},
		{"unparseable equal strings are up to date", versions.Info{Package: "p", Installed: "1.2.3.post1", Latest: "1.2.3.post1"}, versions.StatusUpToDate},
		{"unparseable mismatch is unknown", versions.Info{Package: "p", Installed: "1.2.3.post1", Latest: "1.2.4"}, versions.StatusUnknown},
	}
	for _, tc := range cases {
		if got := tc.info.Status(); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}
