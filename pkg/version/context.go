package version

import (
	"github.com/genlayerlabs/genvm-lint/pkg/header"
)

// Latest is the version string of an unresolved ("latest") context.
const Latest = "latest"

// Context carries the version information for a single contract. It is
// built once per validation call and treated as immutable afterwards.
type Context struct {
	// Resolved is the declared semantic version, or nil when no declared
	// dependency value classifies as one.
	Resolved *Version
	// Raw is the version string, "latest" when Resolved is nil.
	Raw string
	// Dependencies maps package name to the verbatim declared value, for
	// every declared entry regardless of classification.
	Dependencies map[string]string
	// Order preserves the declaration encounter order of package names.
	Order []string
	// Source is the contract source text the declaration came from.
	Source string
}

// Resolve builds a Context from a dependency declaration. The first entry
// in declared order whose value classifies as a semantic version supplies
// the resolved version; hash- and tag-valued entries are retained verbatim
// so hash-based rule gates can still match.
func Resolve(source string, decl header.Declaration) *Context {
	ctx := &Context{
		Raw:          Latest,
		Dependencies: make(map[string]string, len(decl)),
		Order:        make([]string, 0, len(decl)),
		Source:       source,
	}

	for _, dep := range decl {
		if _, seen := ctx.Dependencies[dep.Package]; !seen {
			ctx.Order = append(ctx.Order, dep.Package)
		}
		ctx.Dependencies[dep.Package] = dep.Value

		if ctx.Resolved == nil && Classify(dep.Value) == KindSemanticVersion {
			v, err := Parse(dep.Value)
			if err == nil {
				ctx.Resolved = v
				ctx.Raw = v.String()
			}
		}
	}

	return ctx
}

// HasDependencyValue reports whether any declared dependency value equals v.
func (c *Context) HasDependencyValue(v string) bool {
	for _, value := range c.Dependencies {
		if value == v {
			return true
		}
	}
	return false
}
