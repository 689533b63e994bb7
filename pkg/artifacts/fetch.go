package artifacts

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Fetcher provides the two network queries of the release contract: the
// index of known releases, and a release's archive bytes. Both are
// idempotent, so retries are safe.
type Fetcher interface {
	FetchIndex(ctx context.Context) (*ReleaseIndex, error)
	FetchArchive(ctx context.Context, tag string) ([]byte, error)
}

// HTTPFetcher fetches release artifacts over HTTP with bounded retry and
// exponential backoff. Failures surface wrapping ErrDownload.
type HTTPFetcher struct {
	baseURL  string
	client   *http.Client
	maxTries uint
	log      *slog.Logger
}

// HTTPOption configures an HTTPFetcher.
type HTTPOption func(*HTTPFetcher)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(f *HTTPFetcher) { f.client = c }
}

// WithMaxTries bounds the attempts per request.
func WithMaxTries(n uint) HTTPOption {
	return func(f *HTTPFetcher) { f.maxTries = n }
}

// WithFetchLogger sets the fetcher's logger.
func WithFetchLogger(log *slog.Logger) HTTPOption {
	return func(f *HTTPFetcher) { f.log = log }
}

// NewHTTPFetcher creates a fetcher for the release endpoint at baseURL.
func NewHTTPFetcher(baseURL string, opts ...HTTPOption) *HTTPFetcher {
	f := &HTTPFetcher{
		baseURL:  baseURL,
		maxTries: 3,
		log:      slog.Default(),
		client: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchIndex downloads and validates the release index.
func (f *HTTPFetcher) FetchIndex(ctx context.Context) (*ReleaseIndex, error) {
	data, err := f.get(ctx, f.baseURL+"/index.json")
	if err != nil {
		return nil, err
	}
	return ParseIndex(data)
}

// FetchArchive downloads the release archive for a tag.
func (f *HTTPFetcher) FetchArchive(ctx context.Context, tag string) ([]byte, error) {
	return f.get(ctx, fmt.Sprintf("%s/archives/genvm-%s.tar.gz", f.baseURL, tag))
}

func (f *HTTPFetcher) get(ctx context.Context, url string) ([]byte, error) {
	attempt := 0
	op := func() ([]byte, error) {
		attempt++
		data, err := f.getOnce(ctx, url)
		if err != nil {
			f.log.Warn("artifact fetch failed", "url", url, "attempt", attempt, "err", err)
		}
		return data, err
	}

	data, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(f.maxTries),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDownload, url, err)
	}
	return data, nil
}

func (f *HTTPFetcher) getOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// MemoryFetcher serves a pre-supplied index and archives, for offline
// operation and deterministic tests. Call counters let tests assert that
// a warm cache performs zero network calls.
type MemoryFetcher struct {
	mu       sync.Mutex
	index    *ReleaseIndex
	archives map[string][]byte

	IndexCalls   int
	ArchiveCalls int
}

// NewMemoryFetcher creates a fetcher over fixed data. archives maps a
// release tag to its archive bytes.
func NewMemoryFetcher(index *ReleaseIndex, archives map[string][]byte) *MemoryFetcher {
	return &MemoryFetcher{index: index, archives: archives}
}

func (m *MemoryFetcher) FetchIndex(ctx context.Context) (*ReleaseIndex, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.IndexCalls++
	if m.index == nil {
		return nil, fmt.Errorf("%w: no index supplied", ErrDownload)
	}
	return m.index, nil
}

func (m *MemoryFetcher) FetchArchive(ctx context.Context, tag string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArchiveCalls++
	data, ok := m.archives[tag]
	if !ok {
		return nil, fmt.Errorf("%w: no archive for tag %s", ErrDownload, tag)
	}
	return data, nil
}

// Calls returns the total number of fetch calls performed.
func (m *MemoryFetcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.IndexCalls + m.ArchiveCalls
}
