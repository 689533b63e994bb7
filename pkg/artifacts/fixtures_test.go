package artifacts

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// tarGz builds a gzipped tar from a name -> content map.
func tarGz(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Typeflag: tar.TypeReg,
			Mode:     0o644,
			Size:     int64(len(content)),
		}))
		_, err := tw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
	return buf.Bytes()
}

// buildRunner produces a runner archive holding the given manifest and
// files, returning its content hash and bytes.
func buildRunner(t *testing.T, m Manifest, files map[string][]byte) (string, []byte) {
	t.Helper()
	manifest, err := json.Marshal(m)
	require.NoError(t, err)

	all := map[string][]byte{manifestFile: manifest}
	for name, content := range files {
		all[name] = content
	}
	data := tarGz(t, all)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), data
}

// releaseFixture bundles runner archives into a release archive plus the
// matching index entry.
type releaseFixture struct {
	tag     string
	runners map[string][]byte // entry name -> runner archive bytes
	refs    []RunnerRef
}

func newReleaseFixture(tag string) *releaseFixture {
	return &releaseFixture{tag: tag, runners: make(map[string][]byte)}
}

func (f *releaseFixture) add(name, hash string, data []byte) {
	f.runners[runnerEntryName(name, hash)] = data
	f.refs = append(f.refs, RunnerRef{Name: name, Hash: hash})
}

func (f *releaseFixture) archive(t *testing.T) []byte {
	t.Helper()
	return tarGz(t, f.runners)
}

func (f *releaseFixture) release() Release {
	return Release{Tag: f.tag, Runners: f.refs}
}
