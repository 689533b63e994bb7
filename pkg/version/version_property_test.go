//go:build property
// +build property

// Package version_test contains property-based tests for version ordering.
package version_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/genlayerlabs/genvm-lint/pkg/version"
)

func triple() gopter.Gen {
	return gopter.DeriveGen(
		func(major, minor, patch int) *version.Version {
			return &version.Version{Major: major, Minor: minor, Patch: patch}
		},
		func(v *version.Version) (int, int, int) {
			return v.Major, v.Minor, v.Patch
		},
		gen.IntRange(0, 1000),
		gen.IntRange(0, 1000),
		gen.IntRange(0, 1000),
	)
}

// TestCompareIsTotalOrder verifies the comparison is antisymmetric,
// reflexive, and transitive over arbitrary triples.
func TestCompareIsTotalOrder(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("Compare is antisymmetric", prop.ForAll(
		func(a, b *version.Version) bool {
			return a.Compare(*b) == -b.Compare(*a)
		},
		triple(), triple(),
	))

	properties.Property("Compare is reflexive", prop.ForAll(
		func(a *version.Version) bool {
			return a.Compare(*a) == 0
		},
		triple(),
	))

	properties.Property("Compare is transitive", prop.ForAll(
		func(a, b, c *version.Version) bool {
			if a.Compare(*b) <= 0 && b.Compare(*c) <= 0 {
				return a.Compare(*c) <= 0
			}
			return true
		},
		triple(), triple(), triple(),
	))

	properties.TestingRun(t)
}

// TestParseRoundTrip verifies String is a right inverse of Parse.
func TestParseRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("Parse(v.String()) == v", prop.ForAll(
		func(v *version.Version) bool {
			parsed, err := version.Parse(v.String())
			if err != nil {
				return false
			}
			return parsed.Compare(*v) == 0
		},
		triple(),
	))

	properties.TestingRun(t)
}

// TestWindowMembershipConsistent verifies window membership agrees with
// the comparison: v in [min, max) iff min <= v < max.
func TestWindowMembershipConsistent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("InWindow agrees with Compare", prop.ForAll(
		func(v, min, max *version.Version) bool {
			want := v.Compare(*min) >= 0 && v.Compare(*max) < 0
			return v.InWindow(min, max) == want
		},
		triple(), triple(), triple(),
	))

	properties.TestingRun(t)
}
