package main

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestShowRendersStagePipeline(t *testing.T) {
	cfgPath, _ := writeTestConfig(t)

	out, _, err := runCLI(t, cfgPath, "show", "apt")
	if err != nil {
		t.Fatalf("show apt: %v", err)
	}
	requireContains(t, out, "APT: Debian and Ubuntu system packages")
	requireContains(t, out, "apt-get update")
	requireContains(t, out, "apt-get upgrade -y")
	requireContains(t, out, "apt-get autoremove -y")
	// autoremove never fails the manager.
	requireContains(t, out, "sudo, filtered, warn-only")
}

func TestShowMarksWarnOnlyPlatforms(t *testing.T) {
	cfgPath, _ := writeTestConfig(t)

	out, _, err := runCLI(t, cfgPath, "show", "chezmoi")
	if err != nil {
		t.Fatalf("show chezmoi: %v", err)
	}
	requireContains(t, out, "chezmoi update")
	requireContains(t, out, "warn on windows")
}

func TestShowUnknownManager(t *testing.T) {
	cfgPath, _ := writeTestConfig(t)

	_, _, err := runCLI(t, cfgPath, "show", "nope")
	if err == nil {
		t.Fatal("expected error for unknown manager")
	}
	requireContains(t, err.Error(), `unknown manager "nope"`)
	requireContains(t, err.Error(), "chezmoi")
}

func TestShowJSONStagePolicy(t *testing.T) {
	cfgPath, _ := writeTestConfig(t, `[versions]
remote_base = "https://git.example.test/tracked"
packages = ["alpha"]`)

	out, _, err := runCLI(t, cfgPath, "show", "self", "--json")
	if err != nil {
		t.Fatalf("show self --json: %v", err)
	}
	var payload struct {
		Name        string      `json:"name"`
		DisplayName string      `json:"display_name"`
		Stages      []stageView `json:"stages"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode JSON: %v\noutput:\n%s", err, out)
	}
	if payload.Name != "self" || payload.DisplayName != "tracked packages" {
		t.Fatalf("unexpected header: %+v", payload)
	}
	if len(payload.Stages) != 2 {
		t.Fatalf("expected 2 stages, got %d", len(payload.Stages))
	}

	uninstall := payload.Stages[0]
	if uninstall.Name != "uninstall" || uninstall.RaiseError || !uninstall.CaptureOutput || !uninstall.PreHook {
		t.Fatalf("unexpected uninstall stage: %+v", uninstall)
	}
	install := payload.Stages[1]
	if install.Name != "install-alpha" || !install.RaiseError || !install.PreHook {
		t.Fatalf("unexpected install stage: %+v", install)
	}
	if !strings.Contains(install.Command, "git+https://git.example.test/tracked/alpha.git") {
		t.Fatalf("unexpected install command: %q", install.Command)
	}
}
