// Package rules provides the version-aware rule activation engine: rule
// definitions with version and hash constraints, a build-once registry,
// and the runner that feeds active rules a parsed contract.
package rules

import (
	"errors"
	"fmt"

	"github.com/genlayerlabs/genvm-lint/pkg/version"
)

// ErrDuplicateRule indicates a rule id registered twice. This is a
// programmer error at process start, never recovered at lint time.
var ErrDuplicateRule = errors.New("duplicate rule id")

// Definition describes a rule and the conditions under which it is active.
type Definition struct {
	// ID uniquely identifies the rule.
	ID string
	// New constructs a fresh rule instance for a validation run.
	New func() Rule
	// MinVersion is the inclusive lower bound of the activation window,
	// nil for unbounded.
	MinVersion *version.Version
	// MaxVersion is the exclusive upper bound of the activation window,
	// nil for unbounded.
	MaxVersion *version.Version
	// AllowedHashes, when non-empty, restricts the rule to contracts that
	// declare one of these content hashes.
	AllowedHashes []string
	// ExcludedHashes disables the rule for contracts declaring any of
	// these content hashes.
	ExcludedHashes []string
	// EnabledByDefault gates the rule independently of version and hash
	// constraints.
	EnabledByDefault bool
}

// Registry holds rule definitions. It is built once at process start and
// is read-only afterwards: Register must not be called concurrently with
// ActiveIDs, which in turn is safe for arbitrary concurrent use.
type Registry struct {
	defs            map[string]Definition
	order           []string
	breakingChanges map[string][]string // version string -> descriptions
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]Definition)}
}

// Register adds a definition. Registering an id twice returns
// ErrDuplicateRule.
func (r *Registry) Register(def Definition) error {
	if def.ID == "" {
		return errors.New("rule id must not be empty")
	}
	if _, exists := r.defs[def.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateRule, def.ID)
	}
	r.defs[def.ID] = def
	r.order = append(r.order, def.ID)
	return nil
}

// MustRegister registers a definition and panics on error. For use in
// rule tables built at process start.
func (r *Registry) MustRegister(def Definition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// Get returns the definition for an id.
func (r *Registry) Get(id string) (Definition, bool) {
	def, ok := r.defs[id]
	return def, ok
}

// IDs returns all registered rule ids in registration order.
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// ActiveIDs computes the set of rule ids active for a context, in
// registration order. It is a pure function of the definitions and the
// context, recomputed per call; contexts differ per contract so the
// result is never cached.
func (r *Registry) ActiveIDs(ctx *version.Context) []string {
	active := make([]string, 0, len(r.order))
	for _, id := range r.order {
		if r.defs[id].ActiveFor(ctx) {
			active = append(active, id)
		}
	}
	return active
}

// ActiveFor reports whether the definition is active for a context.
//
// A definition is active iff all of: the rule is enabled by default; the
// resolved version satisfies the half-open [MinVersion, MaxVersion)
// window (an unresolved version never satisfies a bound); some declared
// dependency value is in AllowedHashes when that list is non-empty; and
// no declared dependency value is in ExcludedHashes.
func (d Definition) ActiveFor(ctx *version.Context) bool {
	if !d.EnabledByDefault {
		return false
	}

	if d.MinVersion != nil {
		if ctx.Resolved == nil || ctx.Resolved.Compare(*d.MinVersion) < 0 {
			return false
		}
	}
	if d.MaxVersion != nil {
		if ctx.Resolved == nil || ctx.Resolved.Compare(*d.MaxVersion) >= 0 {
			return false
		}
	}

	if len(d.AllowedHashes) > 0 && !anyDeclared(ctx, d.AllowedHashes) {
		return false
	}
	if anyDeclared(ctx, d.ExcludedHashes) {
		return false
	}

	return true
}

func anyDeclared(ctx *version.Context, hashes []string) bool {
	for _, h := range hashes {
		if ctx.HasDependencyValue(h) {
			return true
		}
	}
	return false
}
