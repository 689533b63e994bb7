// Package version provides the version model for GenVM contract dependencies:
// ordered (major, minor, patch) triples, classification of raw dependency
// values, and resolution of a dependency declaration into a Context.
package version

import (
	"fmt"
	"regexp"
	"strconv"
)

// Version is a semantic version triple. The "unresolved" (latest) state is
// represented by a nil *Version, never by a zero triple.
type Version struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
	Patch int `json:"patch"`
}

var semverRe = regexp.MustCompile(`^v?(\d+)\.(\d+)\.(\d+)$`)

// Parse parses a dotted numeric triple, with an optional leading "v".
func Parse(raw string) (*Version, error) {
	m := semverRe.FindStringSubmatch(raw)
	if m == nil {
		return nil, fmt.Errorf("invalid version string: %s", raw)
	}

	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	patch, _ := strconv.Atoi(m[3])

	return &Version{Major: major, Minor: minor, Patch: patch}, nil
}

// String returns the canonical "major.minor.patch" form.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare compares two versions lexicographically over (major, minor, patch).
// Returns -1 if v < other, 0 if v == other, 1 if v > other.
func (v Version) Compare(other Version) int {
	if v.Major != other.Major {
		return compareInt(v.Major, other.Major)
	}
	if v.Minor != other.Minor {
		return compareInt(v.Minor, other.Minor)
	}
	return compareInt(v.Patch, other.Patch)
}

func compareInt(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// InWindow reports whether v lies in the half-open window [min, max).
// A nil bound means unbounded on that side.
func (v Version) InWindow(min, max *Version) bool {
	if min != nil && v.Compare(*min) < 0 {
		return false
	}
	if max != nil && v.Compare(*max) >= 0 {
		return false
	}
	return true
}

// MustParse parses a version string and panics on failure. For use in
// rule tables and tests where the input is a literal.
func MustParse(raw string) *Version {
	v, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return v
}
