package redundancy

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/miekg/dns"

	"github.com/Toomas633/Adlist-Parser/internal/classifier"
	"github.com/Toomas633/Adlist-Parser/internal/models"
)

// Coverage describes how much of a local file's content is already served
// by remote sources.
type Coverage struct {
	Covered []string // entries that could be removed, sorted
	Total   int      // unique entries in the local file
}

// Analysis is the structured result of a redundancy pass over one
// pipeline's fetch results. Rendering is the caller's concern.
type Analysis struct {
	// DuplicateGroups lists sources with identical normalized content,
	// each group sorted by label.
	DuplicateGroups [][]string
	// LocalCoverage maps a local source label to the entries of it that
	// remote sources already provide.
	LocalCoverage map[string]Coverage
}

// Analyze inspects fetched sources for duplicated and redundant content.
// Sources pointing at one of the excluded paths (the pipeline's own output
// files) are ignored so a prior-output source never reports against itself.
func Analyze(results []models.FetchResult, exclude ...string) Analysis {
	excluded := make(map[string]struct{}, len(exclude))
	for _, p := range exclude {
		excluded[p] = struct{}{}
		if abs, err := filepath.Abs(p); err == nil {
			excluded[abs] = struct{}{}
		}
	}

	type sourceEntries struct {
		src     models.Source
		entries map[string]struct{}
	}
	var perSource []sourceEntries
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		if _, skip := excluded[res.Source.Raw]; skip {
			continue
		}
		if abs, err := filepath.Abs(res.Source.Location); err == nil {
			if _, skip := excluded[abs]; skip {
				continue
			}
		}
		perSource = append(perSource, sourceEntries{res.Source, entrySet(res.Body)})
	}

	a := Analysis{LocalCoverage: make(map[string]Coverage)}

	// Duplicate detection: bucket sources by content fingerprint.
	buckets := make(map[string][]string)
	for _, se := range perSource {
		fp := fingerprint(se.entries)
		buckets[fp] = append(buckets[fp], se.src.Raw)
	}
	for _, labels := range buckets {
		if len(labels) < 2 {
			continue
		}
		sort.Strings(labels)
		a.DuplicateGroups = append(a.DuplicateGroups, labels)
	}
	sort.Slice(a.DuplicateGroups, func(i, j int) bool {
		return a.DuplicateGroups[i][0] < a.DuplicateGroups[j][0]
	})

	// Local-file coverage against the union of all remote sources.
	remoteUnion := make(map[string]struct{})
	for _, se := range perSource {
		if !se.src.IsRemote() {
			continue
		}
		for e := range se.entries {
			remoteUnion[e] = struct{}{}
		}
	}
	remoteRuleHosts := ruleHosts(remoteUnion)

	for _, se := range perSource {
		if se.src.IsRemote() {
			continue
		}
		var covered []string
		for e := range se.entries {
			if _, exact := remoteUnion[e]; exact {
				covered = append(covered, e)
				continue
			}
			if coveredByRules(e, remoteRuleHosts) {
				covered = append(covered, e)
			}
		}
		if len(covered) == 0 {
			continue
		}
		sort.Strings(covered)
		a.LocalCoverage[se.src.Raw] = Coverage{Covered: covered, Total: len(se.entries)}
	}

	return a
}

// entrySet normalizes a source body into its unique output tokens.
func entrySet(body []byte) map[string]struct{} {
	set := make(map[string]struct{})
	for _, raw := range strings.Split(string(body), "\n") {
		line := classifier.Classify(strings.TrimSuffix(raw, "\r"))
		switch line.Kind {
		case models.LineDomain:
			set[strings.TrimPrefix(line.Host, "*.")] = struct{}{}
		case models.LineABPBlock:
			set["||"+line.Host+"^"] = struct{}{}
		case models.LineABPAllow:
			set["@@||"+line.Host+"^"] = struct{}{}
		}
	}
	return set
}

func fingerprint(entries map[string]struct{}) string {
	keys := make([]string, 0, len(entries))
	for e := range entries {
		keys = append(keys, e)
	}
	sort.Strings(keys)
	return strings.Join(keys, "\n")
}

// ruleHosts extracts the host keys of ABP rules in a set.
func ruleHosts(entries map[string]struct{}) map[string]struct{} {
	hosts := make(map[string]struct{})
	for e := range entries {
		if !strings.HasPrefix(e, "||") && !strings.HasPrefix(e, "@@||") {
			continue
		}
		if key, ok := classifier.HostKey(e); ok {
			hosts[key] = struct{}{}
		}
	}
	return hosts
}

// coveredByRules reports whether a broader remote ABP rule covers the
// entry. Rules are covered by rules on proper parent domains only; plain
// domains also by a rule on the exact host.
func coveredByRules(entry string, hosts map[string]struct{}) bool {
	key, ok := classifier.HostKey(entry)
	if !ok {
		return false
	}

	labels := dns.SplitDomainName(key)
	start := 0
	if strings.HasPrefix(entry, "||") || strings.HasPrefix(entry, "@@||") {
		start = 1
	}
	for i := start; i < len(labels); i++ {
		if _, hit := hosts[strings.Join(labels[i:], ".")]; hit {
			return true
		}
	}
	return false
}
