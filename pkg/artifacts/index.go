package artifacts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ReleaseIndex lists every known SDK release and the runners each one
// contains. It is the lookup table for mapping a declared dependency
// value to a concrete release tag and runner hash.
type ReleaseIndex struct {
	Releases []Release `json:"releases"`
}

// Release is one published SDK release.
type Release struct {
	Tag     string      `json:"tag"`
	Runners []RunnerRef `json:"runners"`
}

// RunnerRef addresses one nested runner archive inside a release archive.
type RunnerRef struct {
	Name string `json:"name"`
	Hash string `json:"hash"`
}

// indexSchema validates a release index document before it is trusted.
const indexSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["releases"],
  "properties": {
    "releases": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["tag", "runners"],
        "properties": {
          "tag": {"type": "string", "minLength": 1},
          "runners": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["name", "hash"],
              "properties": {
                "name": {"type": "string", "minLength": 1},
                "hash": {"type": "string", "pattern": "^[0-9a-f]{64}$"}
              }
            }
          }
        }
      }
    }
  }
}`

var compiledIndexSchema = mustCompileSchema("https://genvm.schemas.local/release-index.schema.json", indexSchema)

func mustCompileSchema(url, schema string) *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(url, strings.NewReader(schema)); err != nil {
		panic(err)
	}
	return c.MustCompile(url)
}

// ParseIndex validates and decodes a release index document.
func ParseIndex(data []byte) (*ReleaseIndex, error) {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: release index: %v", ErrManifest, err)
	}
	if err := compiledIndexSchema.Validate(raw); err != nil {
		return nil, fmt.Errorf("%w: release index: %v", ErrManifest, err)
	}

	var idx ReleaseIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("%w: release index: %v", ErrManifest, err)
	}
	return &idx, nil
}

// Latest returns the most recent release by semantic version of its tag.
func (idx *ReleaseIndex) Latest() (*Release, error) {
	sorted := idx.sortedAscending()
	if len(sorted) == 0 {
		return nil, fmt.Errorf("%w: index lists no releases", ErrUnknownRelease)
	}
	return sorted[len(sorted)-1], nil
}

// ByVersion returns the release whose tag matches the given version
// string (leading "v" in tags is ignored).
func (idx *ReleaseIndex) ByVersion(versionStr string) (*Release, error) {
	want, err := semver.NewVersion(versionStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrUnknownRelease, versionStr, err)
	}
	for i := range idx.Releases {
		tag, err := semver.NewVersion(idx.Releases[i].Tag)
		if err != nil {
			continue
		}
		if tag.Equal(want) {
			return &idx.Releases[i], nil
		}
	}
	return nil, fmt.Errorf("%w: no release for version %s", ErrUnknownRelease, versionStr)
}

// ByHash returns the oldest release whose index lists the given runner
// hash, i.e. the release that first introduced it, along with the runner
// reference. Supports hash-only declarations with no decodable version.
func (idx *ReleaseIndex) ByHash(hash string) (*Release, *RunnerRef, error) {
	for _, rel := range idx.sortedAscending() {
		for i := range rel.Runners {
			if rel.Runners[i].Hash == hash {
				return rel, &rel.Runners[i], nil
			}
		}
	}
	return nil, nil, fmt.Errorf("%w: %s", ErrUnresolvedHash, hash)
}

// Runner returns the runner reference with the given name in a release.
func (rel *Release) Runner(name string) (*RunnerRef, error) {
	for i := range rel.Runners {
		if rel.Runners[i].Name == name {
			return &rel.Runners[i], nil
		}
	}
	return nil, fmt.Errorf("%w: release %s has no runner %q", ErrUnknownRelease, rel.Tag, name)
}

// sortedAscending orders releases by ascending semantic version of their
// tags. Tags that do not parse sort first, in index order.
func (idx *ReleaseIndex) sortedAscending() []*Release {
	sorted := make([]*Release, len(idx.Releases))
	for i := range idx.Releases {
		sorted[i] = &idx.Releases[i]
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		vi, erri := semver.NewVersion(sorted[i].Tag)
		vj, errj := semver.NewVersion(sorted[j].Tag)
		if erri != nil || errj != nil {
			return errj == nil
		}
		return vi.LessThan(vj)
	})
	return sorted
}
