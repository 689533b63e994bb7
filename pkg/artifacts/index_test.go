package artifacts

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	idxHashA = "1111111111111111111111111111111111111111111111111111111111111111"
	idxHashB = "2222222222222222222222222222222222222222222222222222222222222222"
	idxHashC = "3333333333333333333333333333333333333333333333333333333333333333"
)

func sampleIndex() *ReleaseIndex {
	return &ReleaseIndex{Releases: []Release{
		{Tag: "v0.2.0", Runners: []RunnerRef{
			{Name: "py-genlayer", Hash: idxHashB},
		}},
		{Tag: "v0.1.0", Runners: []RunnerRef{
			{Name: "py-genlayer", Hash: idxHashA},
		}},
		{Tag: "v0.3.0", Runners: []RunnerRef{
			{Name: "py-genlayer", Hash: idxHashC},
			// hash B carried over unchanged from v0.2.0
			{Name: "py-genlayer-std", Hash: idxHashB},
		}},
	}}
}

func TestParseIndex(t *testing.T) {
	data := []byte(`{
	  "releases": [
	    {"tag": "v0.2.0", "runners": [{"name": "py-genlayer", "hash": "` + idxHashA + `"}]}
	  ]
	}`)

	idx, err := ParseIndex(data)
	require.NoError(t, err)
	require.Len(t, idx.Releases, 1)
	require.Equal(t, "v0.2.0", idx.Releases[0].Tag)
	require.Equal(t, idxHashA, idx.Releases[0].Runners[0].Hash)
}

func TestParseIndex_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: `{releases`},
		{name: "missing releases", data: `{}`},
		{name: "tag not a string", data: `{"releases": [{"tag": 1, "runners": []}]}`},
		{name: "runner missing hash", data: `{"releases": [{"tag": "v1.0.0", "runners": [{"name": "a"}]}]}`},
		{name: "hash wrong shape", data: `{"releases": [{"tag": "v1.0.0", "runners": [{"name": "a", "hash": "XYZ"}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseIndex([]byte(tt.data))
			require.ErrorIs(t, err, ErrManifest)
		})
	}
}

func TestLatest(t *testing.T) {
	rel, err := sampleIndex().Latest()
	require.NoError(t, err)
	require.Equal(t, "v0.3.0", rel.Tag)

	_, err = (&ReleaseIndex{}).Latest()
	require.ErrorIs(t, err, ErrUnknownRelease)
}

func TestByVersion(t *testing.T) {
	idx := sampleIndex()

	rel, err := idx.ByVersion("0.2.0")
	require.NoError(t, err)
	require.Equal(t, "v0.2.0", rel.Tag, "leading v in the tag is ignored")

	_, err = idx.ByVersion("0.9.0")
	require.ErrorIs(t, err, ErrUnknownRelease)
}

func TestByHash(t *testing.T) {
	idx := sampleIndex()

	rel, ref, err := idx.ByHash(idxHashB)
	require.NoError(t, err)
	require.Equal(t, "v0.2.0", rel.Tag, "oldest release carrying the hash wins")
	require.Equal(t, "py-genlayer", ref.Name)

	_, _, err = idx.ByHash(idxHashA[:32] + idxHashB[:32])
	require.ErrorIs(t, err, ErrUnresolvedHash)
}

func TestRunner(t *testing.T) {
	idx := sampleIndex()
	rel, err := idx.ByVersion("0.3.0")
	require.NoError(t, err)

	ref, err := rel.Runner("py-genlayer-std")
	require.NoError(t, err)
	require.Equal(t, idxHashB, ref.Hash)

	_, err = rel.Runner("no-such-runner")
	require.ErrorIs(t, err, ErrUnknownRelease)
}
