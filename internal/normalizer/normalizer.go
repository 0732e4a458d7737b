package normalizer

import (
	"strings"

	"github.com/Toomas633/Adlist-Parser/internal/classifier"
	"github.com/Toomas633/Adlist-Parser/internal/models"
)

// Mode selects which line variants are productive: a blocklist run keeps
// exception rules as a shadow @@||host^ entry for the separator, an
// allowlist run folds every ABP variant into its plain ||host^ form.
type Mode int

const (
	ModeBlock Mode = iota
	ModeAllow
)

// Stats tracks accumulation counts across all consumed sources.
type Stats struct {
	Lines   int
	Domains int
	Rules   int
	Failed  int
}

// Normalizer accumulates classified lines across all sources of one
// pipeline. Duplicates are dropped on sight; first-seen order is preserved,
// though the writer re-sorts everything anyway.
type Normalizer struct {
	mode    Mode
	domains *orderedSet
	rules   *orderedSet
	failed  []models.Source
	stats   Stats
}

// New creates a normalizer for one pipeline run.
func New(mode Mode) *Normalizer {
	return &Normalizer{
		mode:    mode,
		domains: newOrderedSet(),
		rules:   newOrderedSet(),
	}
}

// Consume folds one fetch result into the accumulated sets. A result
// carrying an error marks its source failed and contributes no lines.
func (n *Normalizer) Consume(res models.FetchResult) {
	if res.Err != nil {
		n.failed = append(n.failed, res.Source)
		n.stats.Failed++
		return
	}

	body := strings.ToValidUTF8(string(res.Body), "�")
	for _, raw := range splitLines(body) {
		n.stats.Lines++
		line := classifier.Classify(raw)
		switch line.Kind {
		case models.LineDomain:
			// Wildcard prefixes carry no meaning for a plain domain entry.
			n.domains.add(strings.TrimPrefix(line.Host, "*."))
		case models.LineABPBlock:
			n.rules.add("||" + line.Host + "^")
		case models.LineABPAllow:
			if n.mode == ModeAllow {
				n.rules.add("||" + line.Host + "^")
			} else {
				n.rules.add("@@||" + line.Host + "^")
			}
		}
	}
}

// ConsumeAll folds a batch of fetch results plus the fetcher's failed
// sources.
func (n *Normalizer) ConsumeAll(results []models.FetchResult, failed []models.Source) {
	for _, res := range results {
		n.Consume(res)
	}
	n.failed = append(n.failed, failed...)
	n.stats.Failed += len(failed)
}

// Domains returns the accumulated plain domains in first-seen order.
func (n *Normalizer) Domains() []string {
	return n.domains.values()
}

// Rules returns the accumulated ABP rules in first-seen order.
func (n *Normalizer) Rules() []string {
	return n.rules.values()
}

// Entries returns domains followed by ABP rules as one stream.
func (n *Normalizer) Entries() []string {
	return append(n.Domains(), n.Rules()...)
}

// Failed returns the sources that contributed no lines.
func (n *Normalizer) Failed() []models.Source {
	return n.failed
}

// Stats returns accumulation statistics.
func (n *Normalizer) Stats() Stats {
	s := n.stats
	s.Domains = n.domains.len()
	s.Rules = n.rules.len()
	return s
}

func splitLines(body string) []string {
	lines := strings.Split(body, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// orderedSet is a string set that remembers insertion order.
type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{})}
}

func (s *orderedSet) add(v string) {
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
}

func (s *orderedSet) len() int {
	return len(s.items)
}

func (s *orderedSet) values() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}
