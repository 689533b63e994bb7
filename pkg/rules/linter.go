package rules

import (
	"fmt"

	"github.com/genlayerlabs/genvm-lint/pkg/header"
	"github.com/genlayerlabs/genvm-lint/pkg/version"
)

// Linter wires the header parser, version resolver, and rule registry
// into a single validation call per contract.
type Linter struct {
	registry *Registry
}

// NewLinter creates a linter over a built registry.
func NewLinter(registry *Registry) *Linter {
	return &Linter{registry: registry}
}

// Report is the outcome of linting one contract.
type Report struct {
	Path        string       `json:"path"`
	Version     string       `json:"version"`
	ActiveRules []string     `json:"active_rules"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// OK reports whether the contract produced no error-severity diagnostics.
func (r *Report) OK() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityError {
			return false
		}
	}
	return true
}

// LintSource validates a single contract source. A malformed magic header
// fails the call; everything else resolves to diagnostics in the report.
// Definitions without a local factory are activation-only: their ids are
// reported for the external rule execution engine to run.
func (l *Linter) LintSource(path, source string) (*Report, error) {
	decl, err := header.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse header of %s: %w", path, err)
	}

	vctx := version.Resolve(source, decl)
	active := l.registry.ActiveIDs(vctx)

	contract := &Contract{
		Path:        path,
		Source:      source,
		Declaration: decl,
		Context:     vctx,
	}

	diagnostics := []Diagnostic{}
	for _, id := range active {
		def, _ := l.registry.Get(id)
		if def.New == nil {
			continue
		}
		diagnostics = append(diagnostics, def.New().Check(contract)...)
	}

	return &Report{
		Path:        path,
		Version:     vctx.Raw,
		ActiveRules: active,
		Diagnostics: diagnostics,
	}, nil
}
