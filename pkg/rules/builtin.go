package rules

import (
	"fmt"
	"strings"

	"github.com/genlayerlabs/genvm-lint/pkg/version"
)

// DefaultRegistry builds the standard rule table. Definitions without a
// factory are activation gates for rules implemented in the external
// execution engine; only their ids travel across that boundary.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	// Structural rules, implemented here.
	r.MustRegister(Definition{
		ID:               "magic-comment",
		New:              func() Rule { return &magicCommentRule{} },
		EnabledByDefault: true,
	})
	r.MustRegister(Definition{
		ID:               "version-pin",
		New:              func() Rule { return &versionPinRule{} },
		EnabledByDefault: true,
	})

	// AST rules owned by the external execution engine: activation only.
	for _, id := range []string{
		"import",
		"contract-class",
		"decorator",
		"type-system",
		"genvm-api",
		"lazy-object",
		"storage-pattern",
		"python-types",
		"type-stub",
		"dataclass",
		"nondet-storage",
	} {
		r.MustRegister(Definition{ID: id, EnabledByDefault: true})
	}

	// Version-windowed rule: only active for the 9.9.x preview series.
	r.MustRegister(Definition{
		ID:               "future-feature",
		New:              func() Rule { return &futureFeatureRule{} },
		MinVersion:       version.MustParse("9.9.9"),
		MaxVersion:       version.MustParse("10.0.0"),
		EnabledByDefault: true,
	})

	// Hash-gated rules keyed on the experimental runner build.
	r.MustRegister(Definition{
		ID:               "experimental-hash",
		New:              func() Rule { return &experimentalHashRule{} },
		AllowedHashes:    []string{ExperimentalRunnerHash},
		EnabledByDefault: true,
	})
	r.MustRegister(Definition{
		ID:               "debug-mode",
		New:              func() Rule { return &debugModeRule{} },
		ExcludedHashes:   []string{ExperimentalRunnerHash},
		EnabledByDefault: true,
	})

	r.breakingChanges = map[string][]string{
		"0.2.0": {
			"star imports no longer required, specific imports allowed",
			"__init__ method now optional for contract classes",
			"lazy object support introduced",
		},
		"0.3.0": {
			"dataclass support added",
			"non-deterministic storage patterns introduced",
			"at least one public method required in contracts",
		},
	}

	return r
}

// magicCommentRule warns when a contract declares no dependencies at all.
type magicCommentRule struct{}

func (magicCommentRule) ID() string { return "magic-comment" }

func (magicCommentRule) Check(c *Contract) []Diagnostic {
	if len(c.Declaration) > 0 {
		return nil
	}
	return []Diagnostic{{
		RuleID:     "magic-comment",
		Message:    "contract declares no SDK dependency; latest SDK semantics assumed",
		Severity:   SeverityWarning,
		Line:       1,
		Suggestion: `add a header comment: # { "Seq": [{ "Depends": "py-genlayer:<version>" }] }`,
	}}
}

// versionPinRule suggests pinning when the declared dependency does not
// resolve to an explicit version or content hash.
type versionPinRule struct{}

func (versionPinRule) ID() string { return "version-pin" }

func (versionPinRule) Check(c *Contract) []Diagnostic {
	if len(c.Declaration) == 0 || c.Context.Resolved != nil {
		return nil
	}
	for _, dep := range c.Declaration {
		if version.Classify(dep.Value) == version.KindContentHash {
			return nil
		}
	}
	tags := make([]string, 0, len(c.Declaration))
	for _, dep := range c.Declaration {
		tags = append(tags, dep.Value)
	}
	return []Diagnostic{{
		RuleID:     "version-pin",
		Message:    fmt.Sprintf("dependency value %q pins neither a version nor a content hash", strings.Join(tags, ", ")),
		Severity:   SeverityInfo,
		Line:       1,
		Suggestion: "pin an explicit SDK version for reproducible validation",
	}}
}

// ExperimentalRunnerHash is the content hash of the experimental
// py-genlayer build. Contracts pinning it opt into pre-release checks
// and out of the debug-output check, which that build performs itself.
const ExperimentalRunnerHash = "9f2d0a4bde6c8e135b7a0c2d4e6f8a1b3c5d7e9f0a2b4c6d8e0f1a3b5c7d9e1f"

// experimentalHashRule flags contracts pinned to the experimental
// runner build.
type experimentalHashRule struct{}

func (experimentalHashRule) ID() string { return "experimental-hash" }

func (experimentalHashRule) Check(c *Contract) []Diagnostic {
	return []Diagnostic{{
		RuleID:   "experimental-hash",
		Message:  "contract pins the experimental runner build; behavior may change between releases",
		Severity: SeverityInfo,
		Line:     1,
	}}
}

// debugModeRule flags leftover debug output in contract source.
type debugModeRule struct{}

func (debugModeRule) ID() string { return "debug-mode" }

func (debugModeRule) Check(c *Contract) []Diagnostic {
	var out []Diagnostic
	for i, line := range strings.Split(c.Source, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			continue
		}
		col := strings.Index(line, "print(")
		if col < 0 {
			continue
		}
		out = append(out, Diagnostic{
			RuleID:     "debug-mode",
			Message:    "debug output in contract source",
			Severity:   SeverityWarning,
			Line:       i + 1,
			Column:     col + 1,
			Suggestion: "remove print calls before deployment",
		})
	}
	return out
}

// futureFeatureRule demonstrates a version-windowed rule; it reports the
// window it runs in.
type futureFeatureRule struct{}

func (futureFeatureRule) ID() string { return "future-feature" }

func (futureFeatureRule) Check(c *Contract) []Diagnostic {
	return []Diagnostic{{
		RuleID:   "future-feature",
		Message:  "preview-series contract: future-feature checks are in effect",
		Severity: SeverityInfo,
		Line:     1,
	}}
}
