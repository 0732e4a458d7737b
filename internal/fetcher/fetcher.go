package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Toomas633/Adlist-Parser/internal/models"
)

// maxConcurrency caps in-flight fetches. Some list hosts rate-limit, so
// this is a contract, not a tunable.
const maxConcurrency = 16

const userAgent = "Adlist-Parser/1.0 (+https://github.com/Toomas633/Adlist-Parser) Go"

// Progress receives (completed, total) after each source finishes,
// success or failure. Calls are serialized; completed never decreases.
type Progress func(completed, total int)

// Config contains fetcher settings.
type Config struct {
	Timeout time.Duration
}

// Fetcher retrieves raw source bytes with bounded parallelism.
type Fetcher struct {
	client *http.Client
}

// New creates a fetcher from config.
func New(cfg Config) *Fetcher {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Fetch retrieves every source exactly once. Successful results come back
// in source enumeration order; sources that fail are reported separately
// and never abort the rest. Transient errors are not retried here.
func (f *Fetcher) Fetch(ctx context.Context, srcs []models.Source, progress Progress) ([]models.FetchResult, []models.Source) {
	all := make([]models.FetchResult, len(srcs))

	var mu sync.Mutex
	completed := 0

	g := new(errgroup.Group)
	g.SetLimit(maxConcurrency)
	for i, src := range srcs {
		g.Go(func() error {
			body, err := f.fetchOne(ctx, src)
			all[i] = models.FetchResult{Source: src, Body: body, Err: err}

			mu.Lock()
			completed++
			if progress != nil {
				progress(completed, len(srcs))
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	results := make([]models.FetchResult, 0, len(srcs))
	var failed []models.Source
	for _, r := range all {
		if r.Err != nil {
			failed = append(failed, r.Source)
			continue
		}
		results = append(results, r)
	}
	return results, failed
}

func (f *Fetcher) fetchOne(ctx context.Context, src models.Source) ([]byte, error) {
	if src.IsRemote() {
		return f.httpFetch(ctx, src.Location)
	}
	return os.ReadFile(src.Location)
}

func (f *Fetcher) httpFetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	return io.ReadAll(resp.Body)
}
