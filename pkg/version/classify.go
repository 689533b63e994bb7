package version

import "regexp"

// Kind is the closed classification of a raw dependency value.
type Kind int

const (
	// KindSemanticVersion is a dotted numeric triple, e.g. "0.2.0".
	KindSemanticVersion Kind = iota
	// KindContentHash is a fixed-length lowercase hex digest pinning an
	// exact artifact.
	KindContentHash
	// KindSymbolicTag is any other value, e.g. "test" or "latest".
	KindSymbolicTag
)

func (k Kind) String() string {
	switch k {
	case KindSemanticVersion:
		return "semantic-version"
	case KindContentHash:
		return "content-hash"
	default:
		return "symbolic-tag"
	}
}

// HashLength is the length in hex characters of a content hash (SHA-256).
const HashLength = 64

var contentHashRe = regexp.MustCompile(`^[0-9a-f]{64}$`)

// Classify classifies a raw dependency value. It is a pure, total function
// of the string: fixed-length lowercase hex is a content hash, a dotted
// numeric triple is a semantic version, everything else is a symbolic tag.
func Classify(raw string) Kind {
	if contentHashRe.MatchString(raw) {
		return KindContentHash
	}
	if semverRe.MatchString(raw) {
		return KindSemanticVersion
	}
	return KindSymbolicTag
}
