// Package semver parses and orders semantic version strings of the
// MAJOR.MINOR.PATCH[-PRERELEASE][+BUILD] form used by release tags.
//
// Precedence follows Semantic Versioning 2.0.0: the numeric triple compares
// first, a pre-release ranks below its own release, and pre-release
// identifiers compare left to right with numeric identifiers ranking below
// alphanumeric ones. Build metadata never affects ordering.
package semver

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a parsed semantic version. Pre holds the dot-separated
// pre-release identifiers, empty for a final release.
type Version struct {
	Major int
	Minor int
	Patch int
	Pre   []string
}

// Parse converts a version string into a Version. A single leading "v" is
// tolerated because release tags conventionally carry one.
func Parse(s string) (Version, error) {
	raw := strings.TrimSpace(s)
	raw = strings.TrimPrefix(raw, "v")
	if raw == "" {
		return Version{}, fmt.Errorf("semver: empty version")
	}

	if plus := strings.IndexByte(raw, '+'); plus >= 0 {
		build := raw[plus+1:]
		if err := validateIdentifiers(build); err != nil {
			return Version{}, fmt.Errorf("semver: build metadata in %q: %w", s, err)
		}
		raw = raw[:plus]
	}

	var pre []string
	if dash := strings.IndexByte(raw, '-'); dash >= 0 {
		preRaw := raw[dash+1:]
		if err := validateIdentifiers(preRaw); err != nil {
			return Version{}, fmt.Errorf("semver: pre-release in %q: %w", s, err)
		}
		pre = strings.Split(preRaw, ".")
		raw = raw[:dash]
	}

	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("semver: %q is not MAJOR.MINOR.PATCH", s)
	}
	nums := make([]int, 3)
	for i, part := range parts {
		value, err := parseNumeric(part)
		if err != nil {
			return Version{}, fmt.Errorf("semver: %q: %w", s, err)
		}
		nums[i] = value
	}

	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2], Pre: pre}, nil
}

// MustParse is Parse for known-good literals; it panics on error.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String renders the canonical form without a "v" prefix.
func (v Version) String() string {
	core := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if len(v.Pre) == 0 {
		return core
	}
	return core + "-" + strings.Join(v.Pre, ".")
}

// Compare returns -1, 0, or 1 ordering v against o.
func (v Version) Compare(o Version) int {
	if c := compareInt(v.Major, o.Major); c != 0 {
		return c
	}
	if c := compareInt(v.Minor, o.Minor); c != 0 {
		return c
	}
	if c := compareInt(v.Patch, o.Patch); c != 0 {
		return c
	}
	switch {
	case len(v.Pre) == 0 && len(o.Pre) == 0:
		return 0
	case len(v.Pre) == 0:
		return 1
	case len(o.Pre) == 0:
		return -1
	}
	return comparePre(v.Pre, o.Pre)
}

// Max returns the highest version in the slice. ok is false for an empty
// slice.
func Max(versions []Version) (max Version, ok bool) {
	for i, candidate := range versions {
		if i == 0 || candidate.Compare(max) > 0 {
			max = candidate
		}
		ok = true
	}
	return max, ok
}

func comparePre(a, b []string) int {
	limit := len(a)
	if len(b) < limit {
		limit = len(b)
	}
	for i := 0; i < limit; i++ {
		av, aNum := numericIdentifier(a[i])
		bv, bNum := numericIdentifier(b[i])
		switch {
		case aNum && bNum:
			if c := compareInt(av, bv); c != 0 {
				return c
			}
		case aNum:
			return -1
		case bNum:
			return 1
		default:
			if c := strings.Compare(a[i], b[i]); c != 0 {
				return c
			}
		}
	}
	return compareInt(len(a), len(b))
}

func numericIdentifier(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	value, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return value, true
}

func parseNumeric(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("empty numeric component")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("non-numeric component %q", s)
		}
	}
	value, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("numeric component %q: %w", s, err)
	}
	return value, nil
}

func validateIdentifiers(s string) error {
	if s == "" {
		return fmt.Errorf("empty identifier list")
	}
	for _, ident := range strings.Split(s, ".") {
		if ident == "" {
			return fmt.Errorf("empty identifier")
		}
		for _, r := range ident {
			valid := r == '-' ||
				(r >= '0' && r <= '9') ||
				(r >= 'a' && r <= 'z') ||
				(r >= 'A' && r <= 'Z')
			if !valid {
				return fmt.Errorf("invalid character %q in identifier %q", r, ident)
			}
		}
	}
	return nil
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
