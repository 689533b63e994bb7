package artifacts

import "errors"

// Resolution failure kinds. Callers classify with errors.Is; everything
// the resolver returns wraps exactly one of these.
var (
	// ErrDownload covers transport failures and non-success responses,
	// surfaced after bounded retries.
	ErrDownload = errors.New("artifact download failed")
	// ErrExtraction covers corrupt or partial archives; the affected
	// cache entry is purged before it is surfaced.
	ErrExtraction = errors.New("artifact extraction failed")
	// ErrUnresolvedHash means a declared content hash appears in no known
	// release index. Permanent, never retried.
	ErrUnresolvedHash = errors.New("content hash not found in any release index")
	// ErrUnknownRelease means a declared version or runner name matches
	// no known release. Permanent.
	ErrUnknownRelease = errors.New("release not found in index")
	// ErrManifest means a runner manifest or release index is malformed.
	// Permanent.
	ErrManifest = errors.New("malformed manifest")
	// ErrResolutionDepth means the runner indirection chain is too long
	// or cyclic. Permanent.
	ErrResolutionDepth = errors.New("runner resolution depth exceeded")
)
