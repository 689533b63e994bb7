package artifacts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, manifestFile), []byte(content), 0o644))
	return dir
}

func TestReadManifest(t *testing.T) {
	dir := writeManifest(t, `{
	  "name": "py-genlayer",
	  "version": "0.2.0",
	  "depends": {"runner": "py-genlayer-std", "hash": "`+idxHashA+`"}
	}`)

	m, err := ReadManifest(dir)
	require.NoError(t, err)
	require.Equal(t, "py-genlayer", m.Name)
	require.Equal(t, "py-genlayer-std", m.Depends.Runner)
	require.Equal(t, idxHashA, m.Depends.Hash)
}

func TestReadManifest_Terminal(t *testing.T) {
	dir := writeManifest(t, `{"name": "py-genlayer-std"}`)

	m, err := ReadManifest(dir)
	require.NoError(t, err)
	require.Nil(t, m.Depends)
}

func TestReadManifest_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "not json", content: `{`},
		{name: "no name", content: `{"version": "0.2.0"}`},
		{name: "depends without runner", content: `{"name": "a", "depends": {"hash": "` + idxHashA + `"}}`},
		{name: "depends hash not a digest", content: `{"name": "a", "depends": {"runner": "b", "hash": "latest"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadManifest(writeManifest(t, tt.content))
			require.ErrorIs(t, err, ErrManifest)
		})
	}
}

func TestReadManifest_MissingFile(t *testing.T) {
	_, err := ReadManifest(t.TempDir())
	require.ErrorIs(t, err, ErrManifest)
}
