package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/genlayerlabs/genvm-lint/pkg/version"
)

func writeBundle(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bundle.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestApplyBundle_Overrides(t *testing.T) {
	path := writeBundle(t, `
name: strict
rules:
  - id: import
    min_version: 0.2.0
  - id: magic-comment
    enabled: false
  - id: decorator
    excluded_hashes:
      - `+hashA+`
breaking_changes:
  0.4.0:
    - storage layout rework
`)

	bundle, err := LoadBundle(path)
	require.NoError(t, err)
	require.Equal(t, "strict", bundle.Name)

	r := DefaultRegistry()
	require.NoError(t, r.ApplyBundle(bundle))

	modern := r.ActiveIDs(ctxWithVersion("0.2.0"))
	require.Contains(t, modern, "import")
	require.NotContains(t, modern, "magic-comment")

	legacy := r.ActiveIDs(ctxWithVersion("0.1.0"))
	require.NotContains(t, legacy, "import")

	hashed := r.ActiveIDs(ctxWithVersion(hashA))
	require.NotContains(t, hashed, "decorator")

	changes := r.BreakingChanges(*version.MustParse("0.3.0"), *version.MustParse("0.4.0"))
	require.Equal(t, []string{"storage layout rework"}, changes)
}

func TestApplyBundle_UnknownRule(t *testing.T) {
	path := writeBundle(t, `
name: broken
rules:
  - id: no-such-rule
    enabled: false
`)
	bundle, err := LoadBundle(path)
	require.NoError(t, err)

	err = DefaultRegistry().ApplyBundle(bundle)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no-such-rule")
}

func TestApplyBundle_BadVersion(t *testing.T) {
	path := writeBundle(t, `
name: broken
rules:
  - id: import
    min_version: not-a-version
`)
	bundle, err := LoadBundle(path)
	require.NoError(t, err)
	require.Error(t, DefaultRegistry().ApplyBundle(bundle))
}

func TestLoadBundle_MissingFile(t *testing.T) {
	_, err := LoadBundle(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
