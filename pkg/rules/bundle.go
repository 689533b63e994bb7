package rules

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/genlayerlabs/genvm-lint/pkg/version"
)

// Bundle is a YAML document adjusting rule gates without a code change.
// Bundles are applied while the registry is being built, never after it
// is in use.
type Bundle struct {
	Name            string              `yaml:"name"`
	Rules           []RuleGate          `yaml:"rules"`
	BreakingChanges map[string][]string `yaml:"breaking_changes"`
}

// RuleGate overrides the activation constraints of one registered rule.
type RuleGate struct {
	ID             string   `yaml:"id"`
	MinVersion     string   `yaml:"min_version"`
	MaxVersion     string   `yaml:"max_version"`
	AllowedHashes  []string `yaml:"allowed_hashes"`
	ExcludedHashes []string `yaml:"excluded_hashes"`
	Enabled        *bool    `yaml:"enabled"`
}

// LoadBundle reads a bundle from a YAML file.
func LoadBundle(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bundle: %w", err)
	}
	var b Bundle
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse bundle %s: %w", path, err)
	}
	return &b, nil
}

// ApplyBundle applies gate overrides to registered definitions. Like
// Register, this is a build-time operation: it must complete before the
// registry is shared.
func (r *Registry) ApplyBundle(b *Bundle) error {
	for _, gate := range b.Rules {
		def, ok := r.defs[gate.ID]
		if !ok {
			return fmt.Errorf("bundle %s: unknown rule id %q", b.Name, gate.ID)
		}

		if gate.MinVersion != "" {
			v, err := version.Parse(gate.MinVersion)
			if err != nil {
				return fmt.Errorf("bundle %s: rule %s min_version: %w", b.Name, gate.ID, err)
			}
			def.MinVersion = v
		}
		if gate.MaxVersion != "" {
			v, err := version.Parse(gate.MaxVersion)
			if err != nil {
				return fmt.Errorf("bundle %s: rule %s max_version: %w", b.Name, gate.ID, err)
			}
			def.MaxVersion = v
		}
		if gate.AllowedHashes != nil {
			def.AllowedHashes = gate.AllowedHashes
		}
		if gate.ExcludedHashes != nil {
			def.ExcludedHashes = gate.ExcludedHashes
		}
		if gate.Enabled != nil {
			def.EnabledByDefault = *gate.Enabled
		}

		r.defs[gate.ID] = def
	}

	for ver, changes := range b.BreakingChanges {
		if _, err := version.Parse(ver); err != nil {
			return fmt.Errorf("bundle %s: breaking_changes key %q: %w", b.Name, ver, err)
		}
		if r.breakingChanges == nil {
			r.breakingChanges = make(map[string][]string)
		}
		r.breakingChanges[ver] = changes
	}

	return nil
}

// BreakingChanges returns the recorded breaking-change descriptions for
// versions v with from < v <= to, in ascending version order.
func (r *Registry) BreakingChanges(from, to version.Version) []string {
	var matched []*version.Version
	keys := make(map[*version.Version]string, len(r.breakingChanges))
	for ver := range r.breakingChanges {
		v, err := version.Parse(ver)
		if err != nil {
			continue
		}
		if from.Compare(*v) < 0 && to.Compare(*v) >= 0 {
			matched = append(matched, v)
			keys[v] = ver
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Compare(*matched[j]) < 0
	})

	var out []string
	for _, v := range matched {
		out = append(out, r.breakingChanges[keys[v]]...)
	}
	return out
}
