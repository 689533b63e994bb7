package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/genlayerlabs/genvm-lint/pkg/version"
)

// manifestFile is the descriptor at the root of every extracted runner.
const manifestFile = "runner.json"

// Manifest describes a runner and, optionally, the further runner it
// depends on. A manifest without a Depends entry terminates the
// indirection chain: its directory is the resolved SDK source tree.
type Manifest struct {
	Name    string           `json:"name"`
	Version string           `json:"version,omitempty"`
	Depends *ManifestDepends `json:"depends,omitempty"`
}

// ManifestDepends names the next runner hop.
type ManifestDepends struct {
	Runner string `json:"runner"`
	Hash   string `json:"hash"`
}

// ReadManifest reads and validates the manifest of an extracted runner
// directory.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrManifest, manifestFile, err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrManifest, manifestFile, err)
	}
	if m.Name == "" {
		return nil, fmt.Errorf("%w: %s has no runner name", ErrManifest, manifestFile)
	}
	if m.Depends != nil {
		if m.Depends.Runner == "" {
			return nil, fmt.Errorf("%w: depends entry has no runner name", ErrManifest)
		}
		if version.Classify(m.Depends.Hash) != version.KindContentHash {
			return nil, fmt.Errorf("%w: depends hash %q is not a content hash", ErrManifest, m.Depends.Hash)
		}
	}
	return &m, nil
}
