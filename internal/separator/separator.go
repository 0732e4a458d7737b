package separator

import (
	"strings"

	"github.com/miekg/dns"

	"github.com/Toomas633/Adlist-Parser/internal/classifier"
)

// Separate enforces the cross-stream invariant between the blocklist and
// allowlist streams:
//
//  1. Exception rules (@@||host^) remaining in the blocklist move to the
//     allowlist, where the exception marker is redundant and dropped.
//  2. Entries whose host is covered by a broader ABP rule in the same
//     stream are removed.
//  3. Entries with invalid hosts are removed from both streams.
//  4. Any blocklist entry sharing a host with an allowlist entry is
//     removed; the allowlist wins unconditionally.
func Separate(block, allow []string) (cleanBlock, cleanAllow []string) {
	blockSet := newEntrySet()
	allowSet := newEntrySet()

	for _, e := range block {
		e = strings.TrimSpace(e)
		if rest, ok := strings.CutPrefix(e, "@@"); ok {
			allowSet.add(rest)
			continue
		}
		blockSet.add(e)
	}
	for _, e := range allow {
		allowSet.add(strings.TrimPrefix(strings.TrimSpace(e), "@@"))
	}

	blockSet.dropCovered()
	allowSet.dropCovered()

	cleanBlock = make([]string, 0, len(blockSet.entries))
	for _, e := range blockSet.entries {
		if _, shadowed := allowSet.hosts[blockSet.keys[e]]; shadowed {
			continue
		}
		cleanBlock = append(cleanBlock, e)
	}

	return cleanBlock, allowSet.values()
}

// entrySet holds one stream's entries keyed by host, rejecting entries
// whose host fails validation.
type entrySet struct {
	entries []string
	keys    map[string]string   // entry -> host key
	hosts   map[string]struct{} // host keys present
}

func newEntrySet() *entrySet {
	return &entrySet{
		keys:  make(map[string]string),
		hosts: make(map[string]struct{}),
	}
}

func (s *entrySet) add(entry string) {
	if entry == "" || strings.HasPrefix(entry, "#") {
		return
	}
	key, ok := classifier.HostKey(entry)
	if !ok {
		return
	}
	if _, dup := s.keys[entry]; dup {
		return
	}
	s.entries = append(s.entries, entry)
	s.keys[entry] = key
	s.hosts[key] = struct{}{}
}

// dropCovered removes entries shadowed by a broader ABP rule in the same
// set: ||b.c^ covers a.b.c both as a plain domain and as ||a.b.c^. Plain
// domains are also covered by an ABP rule on the exact same host.
func (s *entrySet) dropCovered() {
	ruleHosts := make(map[string]struct{})
	for _, e := range s.entries {
		if isRule(e) {
			ruleHosts[s.keys[e]] = struct{}{}
		}
	}

	kept := s.entries[:0]
	for _, e := range s.entries {
		key := s.keys[e]
		chain := ancestors(key)
		if isRule(e) {
			chain = chain[1:] // a rule does not cover itself
		}
		covered := false
		for _, anc := range chain {
			if _, ok := ruleHosts[anc]; ok {
				covered = true
				break
			}
		}
		if covered {
			delete(s.keys, e)
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept

	s.hosts = make(map[string]struct{}, len(s.entries))
	for _, e := range s.entries {
		s.hosts[s.keys[e]] = struct{}{}
	}
}

func (s *entrySet) values() []string {
	out := make([]string, len(s.entries))
	copy(out, s.entries)
	return out
}

func isRule(entry string) bool {
	return strings.HasPrefix(entry, "||")
}

// ancestors returns the host and every parent domain up to the TLD:
// a.b.c -> [a.b.c, b.c, c].
func ancestors(host string) []string {
	labels := dns.SplitDomainName(host)
	out := make([]string, 0, len(labels))
	for i := range labels {
		out = append(out, strings.Join(labels[i:], "."))
	}
	return out
}
