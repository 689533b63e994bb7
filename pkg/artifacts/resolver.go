// Package artifacts resolves a declared SDK dependency — a version, a
// content hash, or a symbolic tag — to a concrete, locally cached SDK
// source tree, descending the chain of nested runner archives inside a
// release archive.
package artifacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/genlayerlabs/genvm-lint/pkg/cache"
	"github.com/genlayerlabs/genvm-lint/pkg/header"
	"github.com/genlayerlabs/genvm-lint/pkg/version"
)

// DefaultRunner is the runner resolved when a contract declares no
// dependencies at all.
const DefaultRunner = "py-genlayer"

// DefaultMaxDepth bounds the runner indirection chain.
const DefaultMaxDepth = 8

// Record is the outcome of one resolution: the release it came from, the
// resolved SDK source tree, and every indirection hop for diagnostics.
type Record struct {
	ID         string `json:"id"`
	ReleaseTag string `json:"release_tag"`
	RootPath   string `json:"root_path"`
	Chain      []Hop  `json:"chain"`
}

// Hop records one runner indirection.
type Hop struct {
	Runner string `json:"runner"`
	Hash   string `json:"hash"`
	Path   string `json:"path"`
}

// Resolver turns dependency declarations into cached SDK source trees.
// It is safe for concurrent use; the cache store serializes population
// per key.
type Resolver struct {
	fetcher       Fetcher
	store         *cache.Store
	defaultRunner string
	maxDepth      int
	log           *slog.Logger

	idx indexOnce
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithDefaultRunner overrides the runner used for empty declarations.
func WithDefaultRunner(name string) ResolverOption {
	return func(r *Resolver) { r.defaultRunner = name }
}

// WithMaxDepth overrides the indirection depth bound.
func WithMaxDepth(n int) ResolverOption {
	return func(r *Resolver) { r.maxDepth = n }
}

// WithResolverLogger sets the resolver's logger.
func WithResolverLogger(log *slog.Logger) ResolverOption {
	return func(r *Resolver) { r.log = log }
}

// NewResolver creates a resolver over a fetcher and cache store.
func NewResolver(fetcher Fetcher, store *cache.Store, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		fetcher:       fetcher,
		store:         store,
		defaultRunner: DefaultRunner,
		maxDepth:      DefaultMaxDepth,
		log:           slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve maps a dependency declaration to a concrete SDK source tree.
//
// The root dependency is the first declared entry (or the default runner
// at the latest release when the declaration is empty). Its value picks a
// release: an explicit version maps to the matching release tag; a
// content hash maps to the release that first introduced it; a symbolic
// tag maps to the most recent release. The release archive is cached,
// then the runner chain inside it is followed hop by hop until a
// terminal manifest, whose directory becomes RootPath.
func (r *Resolver) Resolve(ctx context.Context, decl header.Declaration) (*Record, error) {
	idx, err := r.releaseIndex(ctx)
	if err != nil {
		return nil, err
	}

	rel, start, err := r.selectRelease(idx, decl)
	if err != nil {
		return nil, err
	}

	archiveDir, err := r.store.GetOrCreate(ctx, releaseKey(rel.Tag), func(ctx context.Context, dir string) error {
		return r.downloadRelease(ctx, rel, dir)
	})
	if err != nil {
		return nil, err
	}
	archivePath := filepath.Join(archiveDir, archiveFile)

	record := &Record{
		ID:         uuid.New().String(),
		ReleaseTag: rel.Tag,
	}

	visited := make(map[string]bool)
	name, hash := start.Name, start.Hash
	for {
		if len(record.Chain) >= r.maxDepth {
			return nil, fmt.Errorf("%w: chain exceeds %d hops", ErrResolutionDepth, r.maxDepth)
		}
		if visited[hash] {
			return nil, fmt.Errorf("%w: runner hash %s already visited", ErrResolutionDepth, hash)
		}
		visited[hash] = true

		key := runnerKey(hash)
		dir, err := r.store.GetOrCreate(ctx, key, func(ctx context.Context, dst string) error {
			return extractRunner(archivePath, name, hash, dst)
		})
		if err != nil {
			if errors.Is(err, ErrExtraction) {
				// Never leave a corrupt entry behind.
				if ierr := r.store.Invalidate(key); ierr != nil {
					r.log.Warn("invalidating corrupt runner entry failed", "key", key, "err", ierr)
				}
			}
			return nil, err
		}
		record.Chain = append(record.Chain, Hop{Runner: name, Hash: hash, Path: dir})

		m, err := ReadManifest(dir)
		if err != nil {
			return nil, err
		}
		if m.Depends == nil {
			record.RootPath = dir
			break
		}
		name, hash = m.Depends.Runner, m.Depends.Hash
	}

	r.log.Debug("resolved SDK dependency",
		"release", rel.Tag, "root", record.RootPath, "hops", len(record.Chain))
	return record, nil
}

// selectRelease picks the release and the first runner hop for a
// declaration.
func (r *Resolver) selectRelease(idx *ReleaseIndex, decl header.Declaration) (*Release, *RunnerRef, error) {
	if len(decl) == 0 {
		rel, err := idx.Latest()
		if err != nil {
			return nil, nil, err
		}
		ref, err := rel.Runner(r.defaultRunner)
		if err != nil {
			return nil, nil, err
		}
		return rel, ref, nil
	}

	root := decl[0]
	switch version.Classify(root.Value) {
	case version.KindSemanticVersion:
		rel, err := idx.ByVersion(root.Value)
		if err != nil {
			return nil, nil, err
		}
		ref, err := rel.Runner(root.Package)
		if err != nil {
			return nil, nil, err
		}
		return rel, ref, nil

	case version.KindContentHash:
		return idx.ByHash(root.Value)

	default: // symbolic tag, e.g. "test" or "latest"
		rel, err := idx.Latest()
		if err != nil {
			return nil, nil, err
		}
		ref, err := rel.Runner(root.Package)
		if err != nil {
			return nil, nil, err
		}
		return rel, ref, nil
	}
}

// downloadRelease populates a release cache entry with the archive and
// the release's own index slice.
func (r *Resolver) downloadRelease(ctx context.Context, rel *Release, dir string) error {
	data, err := r.fetcher.FetchArchive(ctx, rel.Tag)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, archiveFile), data, 0o644); err != nil {
		return fmt.Errorf("write release archive: %w", err)
	}

	indexBytes, err := json.MarshalIndent(rel, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal release index: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "index.json"), indexBytes, 0o644); err != nil {
		return fmt.Errorf("write release index: %w", err)
	}
	return nil
}

// releaseIndex fetches the index once per resolver; a warm cache
// therefore resolves with zero network calls.
func (r *Resolver) releaseIndex(ctx context.Context) (*ReleaseIndex, error) {
	return r.idx.get(ctx, r.fetcher.FetchIndex)
}

func releaseKey(tag string) string { return "releases/" + tag }
func runnerKey(hash string) string { return "runners/" + hash }

// indexOnce memoizes a successful index fetch for the resolver's
// lifetime. Failures are not cached: the next caller retries.
type indexOnce struct {
	mu  sync.Mutex
	idx *ReleaseIndex
}

func (o *indexOnce) get(ctx context.Context, fetch func(context.Context) (*ReleaseIndex, error)) (*ReleaseIndex, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.idx != nil {
		return o.idx, nil
	}
	idx, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	o.idx = idx
	return idx, nil
}
