package rules

import (
	"github.com/genlayerlabs/genvm-lint/pkg/header"
	"github.com/genlayerlabs/genvm-lint/pkg/version"
)

// Severity classifies a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Diagnostic is a single finding reported by a rule.
type Diagnostic struct {
	RuleID     string   `json:"rule_id"`
	Message    string   `json:"message"`
	Severity   Severity `json:"severity"`
	Line       int      `json:"line"`
	Column     int      `json:"column"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// Contract is a parsed contract handed to rules. The rule execution
// engine interprets the source; this package only routes it.
type Contract struct {
	Path        string
	Source      string
	Declaration header.Declaration
	Context     *version.Context
}

// Rule checks one aspect of a contract. Implementations carry no shared
// mutable state: a fresh instance is constructed per validation run via
// Definition.New.
type Rule interface {
	ID() string
	Check(c *Contract) []Diagnostic
}
