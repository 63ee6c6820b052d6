package semver_test

import (
	"testing"

	"upkeep/internal/semver"
)

func TestParseAcceptsTagForms(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1.2.3", "1.2.3"},
		{"v1.2.3", "1.2.3"},
		{"v1.3.0-rc1", "1.3.0-rc1"},
		{"2.0.0-rc.1", "2.0.0-rc.1"},
		{"1.0.0-alpha.beta.2", "1.0.0-alpha.beta.2"},
		{"1.2.3+build.77", "1.2.3"},
		{"v0.0.1-rc1+sha.5114f85", "0.0.1-rc1"},
	}
	for _, tc := range cases {
		v, err := semver.Parse(tc.in)
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", tc.in, err)
		}
		if got := v.String(); got != tc.want {
			t.Fatalf("Parse(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, in := range []string{
		"",
		"garbage",
		"1.2",
		"1.2.3.4",
		"1.2.x",
		"1.2.3-",
		"1.2.3-rc..1",
		"1.2.3+",
		"V1.2.3",
		"1.2.3-rc_1",
	} {
		if _, err := semver.Parse(in); err == nil {
			t.Fatalf("Parse(%q) succeeded, want error", in)
		}
	}
}

func TestComparePrecedence(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"1.2.3", "1.2.3", 0},
		{"1.2.3", "v1.2.3", 0},
		{"1.2.3", "1.2.4", -1},
		{"1.10.0", "1.9.9", 1},
		{"2.0.0", "1.99.99", 1},
		{"1.3.0-rc1", "1.3.0", -1},
		{"1.3.0-rc1", "1.2.9", 1},
		{"1.0.0-alpha", "1.0.0-alpha.1", -1},
		{"1.0.0-alpha.1", "1.0.0-alpha.beta", -1},
		{"1.0.0-beta.2", "1.0.0-beta.11", -1},
		{"1.0.0-rc.1", "1.0.0-beta.11", 1},
		{"1.2.3+build.1", "1.2.3+build.2", 0},
	}
	for _, tc := range cases {
		a := semver.MustParse(tc.a)
		b := semver.MustParse(tc.b)
		if got := a.Compare(b); got != tc.want {
			t.Fatalf("Compare(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
		if got := b.Compare(a); got != -tc.want {
			t.Fatalf("Compare(%q, %q) = %d, want %d", tc.b, tc.a, got, -tc.want)
		}
	}
}

func TestMax(t *testing.T) {
	if _, ok := semver.Max(nil); ok {
		t.Fatal("expected ok=false for empty slice")
	}

	versions := []semver.Version{
		semver.MustParse("1.2.0"),
		semver.MustParse("1.3.0-rc1"),
		semver.MustParse("1.2.9"),
	}
	max, ok := semver.Max(versions)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if max.String() != "1.3.0-rc1" {
		t.Fatalf("unexpected max %q", max.String())
	}
}
