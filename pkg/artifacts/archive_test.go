package artifacts

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeReleaseArchive(t *testing.T, fixture *releaseFixture) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), archiveFile)
	require.NoError(t, os.WriteFile(path, fixture.archive(t), 0o644))
	return path
}

func TestExtractRunner(t *testing.T) {
	hash, data := buildRunner(t, Manifest{Name: "py-genlayer-std"}, map[string][]byte{
		"lib/std.py":       []byte("print('std')\n"),
		"lib/deep/util.py": []byte("pass\n"),
	})
	fixture := newReleaseFixture("v0.2.0")
	fixture.add("py-genlayer-std", hash, data)
	archivePath := writeReleaseArchive(t, fixture)

	dst := t.TempDir()
	require.NoError(t, extractRunner(archivePath, "py-genlayer-std", hash, dst))

	require.FileExists(t, filepath.Join(dst, manifestFile))
	require.FileExists(t, filepath.Join(dst, "lib", "std.py"))
	require.FileExists(t, filepath.Join(dst, "lib", "deep", "util.py"))
}

func TestExtractRunner_HashMismatch(t *testing.T) {
	_, data := buildRunner(t, Manifest{Name: "py-genlayer"}, nil)

	// lie about the hash in the index entry
	lied := idxHashA
	fixture := newReleaseFixture("v0.2.0")
	fixture.add("py-genlayer", lied, data)
	archivePath := writeReleaseArchive(t, fixture)

	err := extractRunner(archivePath, "py-genlayer", lied, t.TempDir())
	require.ErrorIs(t, err, ErrExtraction)
	require.Contains(t, err.Error(), "hash mismatch")
}

func TestExtractRunner_MissingEntry(t *testing.T) {
	hash, data := buildRunner(t, Manifest{Name: "py-genlayer"}, nil)
	fixture := newReleaseFixture("v0.2.0")
	fixture.add("py-genlayer", hash, data)
	archivePath := writeReleaseArchive(t, fixture)

	err := extractRunner(archivePath, "other-runner", hash, t.TempDir())
	require.ErrorIs(t, err, ErrExtraction)
}

func TestExtractRunner_CorruptOuterArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), archiveFile)
	require.NoError(t, os.WriteFile(path, []byte("definitely not gzip"), 0o644))

	err := extractRunner(path, "py-genlayer", idxHashA, t.TempDir())
	require.ErrorIs(t, err, ErrExtraction)
}

func TestUntar_RejectsTraversal(t *testing.T) {
	evil := tarGz(t, map[string][]byte{
		"../escape.txt": []byte("nope"),
	})

	dst := t.TempDir()
	err := untar(bytes.NewReader(evil), dst)
	require.Error(t, err)
	require.NoFileExists(t, filepath.Join(filepath.Dir(dst), "escape.txt"))
}

func TestUntar_RejectsAbsolutePath(t *testing.T) {
	evil := tarGz(t, map[string][]byte{
		"/etc/evil.txt": []byte("nope"),
	})
	require.Error(t, untar(bytes.NewReader(evil), t.TempDir()))
}
