package writer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Toomas633/Adlist-Parser/internal/classifier"
	"github.com/Toomas633/Adlist-Parser/internal/models"
)

// Generator is the project URL embedded in every output header.
const Generator = "https://github.com/Toomas633/Adlist-Parser"

// Header describes the regenerated comment block written before the
// entries. Counts are derived from the entries at write time.
type Header struct {
	Title     string
	Timestamp time.Time // zero means time.Now
	Sources   int
}

// Write persists a stream with stable, reproducible contents: entries are
// deduplicated case-insensitively, sorted by case-folded comparison, and
// written LF-only behind a regenerated header. The file is staged in a
// temp file and renamed so readers never observe a partial write.
func Write(path string, entries []string, h Header) error {
	entries = Prepare(entries)

	ts := h.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	var b strings.Builder
	domains, rules := countKinds(entries)
	fmt.Fprintf(&b, "# Title: %s\n", h.Title)
	fmt.Fprintf(&b, "# Generator: %s\n", Generator)
	fmt.Fprintf(&b, "# Updated: %s\n", ts.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "# Total entries: %d\n", len(entries))
	fmt.Fprintf(&b, "# Domains: %d\n", domains)
	fmt.Fprintf(&b, "# ABP rules: %d\n", rules)
	fmt.Fprintf(&b, "# Sources: %d\n", h.Sources)
	b.WriteString("#\n")
	for _, e := range entries {
		b.WriteString(e)
		b.WriteByte('\n')
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	if _, err := tmp.WriteString(b.String()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Prepare deduplicates under case-insensitive whitespace-trimmed equality
// and sorts ascending by case-folded comparison.
func Prepare(entries []string) []string {
	seen := make(map[string]struct{}, len(entries))
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		key := strings.ToLower(e)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, e)
	}

	sort.Slice(out, func(i, j int) bool {
		li, lj := strings.ToLower(out[i]), strings.ToLower(out[j])
		if li != lj {
			return li < lj
		}
		return out[i] < out[j]
	})
	return out
}

// MergePrior unions the new entries with the previous output file so that
// a transient upstream failure never shrinks the published list. Header
// lines are skipped by the classifier; a missing file is an empty prior.
func MergePrior(path string, entries []string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return entries
	}

	merged := make([]string, len(entries), len(entries)+64)
	copy(merged, entries)
	for _, raw := range strings.Split(string(data), "\n") {
		line := classifier.Classify(strings.TrimSuffix(raw, "\r"))
		switch line.Kind {
		case models.LineDomain:
			merged = append(merged, strings.TrimPrefix(line.Host, "*."))
		case models.LineABPBlock:
			merged = append(merged, "||"+line.Host+"^")
		case models.LineABPAllow:
			merged = append(merged, "@@||"+line.Host+"^")
		}
	}
	return merged
}

// countKinds splits entry counts into plain domains and ABP rules.
func countKinds(entries []string) (domains, rules int) {
	for _, e := range entries {
		if strings.HasPrefix(e, "||") || strings.HasPrefix(e, "@@") {
			rules++
		} else {
			domains++
		}
	}
	return domains, rules
}
