// Package cache provides a keyed, crash-safe, concurrency-safe on-disk
// store with at-most-one-population semantics per key.
//
// Population writes into a private temporary directory and is published
// with an atomic rename, so a reader either sees a complete entry or no
// entry at all; a process crash mid-population never exposes partial
// state. Concurrent requests for the same cold key share a single
// population and all receive its outcome.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

const tmpPrefix = ".populate-"

// DefaultOpTimeout bounds a single population (download plus extraction).
const DefaultOpTimeout = 5 * time.Minute

// PopulateFunc fills dir with the entry's content. It must treat dir as
// private scratch space: the store publishes it only on success.
type PopulateFunc func(ctx context.Context, dir string) error

// Store is a filesystem-backed cache keyed by slash-separated paths such
// as "releases/v0.2.12" or "runners/<hash>".
type Store struct {
	root      string
	opTimeout time.Duration
	group     singleflight.Group
	log       *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithOpTimeout bounds each population operation.
func WithOpTimeout(d time.Duration) Option {
	return func(s *Store) { s.opTimeout = d }
}

// WithLogger sets the store's logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// New opens a store rooted at dir, creating it if needed and sweeping
// temporary directories left behind by a crashed process.
func New(root string, opts ...Option) (*Store, error) {
	s := &Store{
		root:      root,
		opTimeout: DefaultOpTimeout,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create cache root: %w", err)
	}
	if err := s.sweep(); err != nil {
		return nil, err
	}
	return s, nil
}

// sweep removes leftover population scratch directories. Entries that
// were published before a crash are complete and stay.
func (s *Store) sweep() error {
	matches, err := filepath.Glob(filepath.Join(s.root, tmpPrefix+"*"))
	if err != nil {
		return fmt.Errorf("sweep cache root: %w", err)
	}
	for _, m := range matches {
		s.log.Debug("removing stale cache scratch dir", "path", m)
		if err := os.RemoveAll(m); err != nil {
			return fmt.Errorf("sweep %s: %w", m, err)
		}
	}
	return nil
}

var keySegmentRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// validateKey rejects keys that would escape the store root.
func validateKey(key string) error {
	if key == "" {
		return errors.New("empty cache key")
	}
	for _, seg := range strings.Split(key, "/") {
		if !keySegmentRe.MatchString(seg) {
			return fmt.Errorf("invalid cache key segment %q in %q", seg, key)
		}
	}
	return nil
}

// Path returns the on-disk location of a key, whether or not the entry
// exists. After population, resolution is a pure lookup on this path.
func (s *Store) Path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

// Has reports whether a complete entry exists for key.
func (s *Store) Has(key string) bool {
	info, err := os.Stat(s.Path(key))
	return err == nil && info.IsDir()
}

// GetOrCreate returns the path of the entry for key, running populate at
// most once per key if it is absent. Concurrent callers for the same cold
// key block on the first caller's in-flight population and share its
// outcome, success or failure.
//
// populate runs under the store's own timeout, detached from any single
// caller's context: a caller whose ctx is cancelled stops waiting, but
// the population keeps running for the remaining waiters.
func (s *Store) GetOrCreate(ctx context.Context, key string, populate PopulateFunc) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}

	final := s.Path(key)
	if s.Has(key) {
		return final, nil
	}

	ch := s.group.DoChan(key, func() (any, error) {
		// Re-check under the flight: another caller may have published
		// while this one was queued.
		if s.Has(key) {
			return final, nil
		}
		return final, s.populate(key, final, populate)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s *Store) populate(key, final string, populate PopulateFunc) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.opTimeout)
	defer cancel()

	tmp, err := os.MkdirTemp(s.root, tmpPrefix+"*")
	if err != nil {
		return fmt.Errorf("create cache scratch dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	start := time.Now()
	if err := populate(ctx, tmp); err != nil {
		s.log.Warn("cache population failed", "key", key, "err", err)
		return err
	}

	if err := os.MkdirAll(filepath.Dir(final), 0o755); err != nil {
		return fmt.Errorf("create cache entry parent: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		// Another process may have published the same key first; its
		// entry is complete, so losing the race is fine.
		if s.Has(key) {
			return nil
		}
		return fmt.Errorf("publish cache entry %s: %w", key, err)
	}

	s.log.Debug("cache entry populated", "key", key, "elapsed", time.Since(start))
	return nil
}

// Invalidate removes the entry for key, if present.
func (s *Store) Invalidate(key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	s.group.Forget(key)
	if err := os.RemoveAll(s.Path(key)); err != nil {
		return fmt.Errorf("invalidate cache entry %s: %w", key, err)
	}
	return nil
}

// Keys lists the populated entries under a top-level prefix such as
// "releases" or "runners".
func (s *Store) Keys(prefix string) ([]string, error) {
	if err := validateKey(prefix); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Join(s.root, prefix))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list cache entries: %w", err)
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			keys = append(keys, prefix+"/"+e.Name())
		}
	}
	return keys, nil
}
