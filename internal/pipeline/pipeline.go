package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Toomas633/Adlist-Parser/internal/fetcher"
	"github.com/Toomas633/Adlist-Parser/internal/models"
	"github.com/Toomas633/Adlist-Parser/internal/normalizer"
	"github.com/Toomas633/Adlist-Parser/internal/separator"
	"github.com/Toomas633/Adlist-Parser/internal/writer"
)

// Config wires the two pipelines: source lists, output paths, and optional
// progress callbacks.
type Config struct {
	BlockSources []models.Source
	AllowSources []models.Source

	BlockOutput string
	AllowOutput string

	BlockProgress fetcher.Progress
	AllowProgress fetcher.Progress

	// Timestamp overrides the header timestamp; zero means now.
	Timestamp time.Time
}

// Result summarizes one pipeline's run.
type Result struct {
	Sources  int
	Entries  int
	Domains  int
	ABPRules int
	Failed   []models.Source
	Fetched  []models.FetchResult
	Err      error
}

// Runner drives the two pipelines.
type Runner struct {
	fetcher *fetcher.Fetcher
}

// New creates a runner on top of the given fetcher.
func New(f *fetcher.Fetcher) *Runner {
	return &Runner{fetcher: f}
}

// Run executes the blocklist and allowlist pipelines concurrently, then
// separates the two in-memory streams and rewrites both files with fresh
// headers. The second write happens even when separation changed nothing,
// because the first write's header counts are stale after post-processing.
// A write failure is fatal only to its own pipeline.
func (r *Runner) Run(ctx context.Context, cfg Config) (block, allow Result) {
	var blockEntries, allowEntries []string

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		blockEntries, block = r.runOne(ctx, normalizer.ModeBlock, cfg.BlockSources, cfg.BlockProgress)
		blockEntries = writer.MergePrior(cfg.BlockOutput, blockEntries)
		block.Err = r.write(cfg.BlockOutput, "Adlist Parser Blocklist", blockEntries, block.Sources, cfg.Timestamp)
		return nil
	})
	g.Go(func() error {
		allowEntries, allow = r.runOne(ctx, normalizer.ModeAllow, cfg.AllowSources, cfg.AllowProgress)
		allow.Err = r.write(cfg.AllowOutput, "Adlist Parser Allowlist", allowEntries, allow.Sources, cfg.Timestamp)
		return nil
	})
	_ = g.Wait() // pipeline goroutines never return errors

	cleanBlock, cleanAllow := separator.Separate(blockEntries, allowEntries)

	if block.Err == nil {
		block.Err = r.write(cfg.BlockOutput, "Adlist Parser Blocklist", cleanBlock, block.Sources, cfg.Timestamp)
	}
	if allow.Err == nil {
		allow.Err = r.write(cfg.AllowOutput, "Adlist Parser Allowlist", cleanAllow, allow.Sources, cfg.Timestamp)
	}
	if block.Err != nil {
		slog.Warn("blocklist pipeline failed", "error", block.Err)
	}
	if allow.Err != nil {
		slog.Warn("allowlist pipeline failed", "error", allow.Err)
	}

	block.fillCounts(cleanBlock)
	allow.fillCounts(cleanAllow)
	return block, allow
}

func (r *Runner) runOne(ctx context.Context, mode normalizer.Mode, srcs []models.Source, progress fetcher.Progress) ([]string, Result) {
	results, failed := r.fetcher.Fetch(ctx, srcs, progress)

	n := normalizer.New(mode)
	n.ConsumeAll(results, failed)

	for _, src := range failed {
		slog.Warn("source unavailable", "source", src.Raw)
	}

	return n.Entries(), Result{
		Sources: len(srcs),
		Failed:  failed,
		Fetched: results,
	}
}

func (r *Runner) write(path, title string, entries []string, sources int, ts time.Time) error {
	return writer.Write(path, entries, writer.Header{
		Title:     title,
		Timestamp: ts,
		Sources:   sources,
	})
}

func (res *Result) fillCounts(entries []string) {
	prepared := writer.Prepare(entries)
	res.Entries = len(prepared)
	res.Domains = 0
	res.ABPRules = 0
	for _, e := range prepared {
		if len(e) >= 2 && (e[:2] == "||" || e[:2] == "@@") {
			res.ABPRules++
		} else {
			res.Domains++
		}
	}
}
