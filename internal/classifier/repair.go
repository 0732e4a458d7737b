package classifier

import "strings"

// repairABP normalizes an ABP rule payload (after any @@ has been removed)
// into a bare host, applying the conservative repair rules in order:
//
//	||*cdn.site^        -> *.cdn.site   (missing dot after *)
//	||app.*.adjust.com^ -> *.adjust.com (wildcard-only inner label)
//	||domain.google.*^  -> domain.google (wildcard TLD dropped)
//	-host.com^          -> treated as || prefixed, then validated
//	|host.com^|         -> single-pipe anchors fixed
//	$opt1,opt2          -> options removed
//
// Repair is a single pass and idempotent. The second return is false when
// no valid host remains.
func repairABP(payload string) (string, bool) {
	s := abpOptionRE.ReplaceAllString(payload, "")
	s = strings.TrimRight(s, "|")

	if rest, ok := strings.CutPrefix(s, "||"); ok {
		s = rest
	} else if rest, ok := strings.CutPrefix(s, "|"); ok {
		s = rest
	}

	// Everything past the first separator (paths, further pattern text) is
	// not part of the host.
	if i := strings.IndexByte(s, '^'); i >= 0 {
		s = s[:i]
	}

	s = stripURLParts(s)
	s = normalizeWildcard(s)

	return normalizeABPHost(s)
}

// stripURLParts reduces scheme-qualified or URL-shaped rule bodies to the
// host component: ||https://user@host:8080/path -> host.
func stripURLParts(s string) string {
	if rest, ok := strings.CutPrefix(s, "://"); ok {
		s = rest
	}
	if _, rest, ok := strings.Cut(s, "://"); ok {
		s = rest
	}
	if host, _, ok := strings.Cut(s, "/"); ok {
		s = host
	}
	if i := strings.LastIndexByte(s, '@'); i >= 0 {
		s = s[i+1:]
	}
	if host, _, ok := strings.Cut(s, ":"); ok {
		s = host
	}
	return s
}

// normalizeWildcard repairs broken wildcard shapes in the domain part.
// Mid-label wildcards are left alone and fail validation later.
func normalizeWildcard(d string) string {
	if strings.HasPrefix(d, "*") && !strings.HasPrefix(d, "*.") && len(d) > 1 {
		switch c := d[1]; {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			d = "*." + d[1:]
		case c == '-' || c == '_':
			d = strings.TrimLeft(d[1:], "-_")
		}
	}

	d = strings.TrimSuffix(d, ".*")

	// A wildcard-only inner label widens the rule to everything below the
	// remaining suffix: app.*.adjust.com -> *.adjust.com.
	if strings.Contains(d, ".*.") || strings.HasPrefix(d, "*.") {
		parts := strings.Split(d, ".")
		for i, p := range parts {
			if p == "*" {
				d = "*." + strings.Join(parts[i+1:], ".")
				break
			}
		}
	}

	for strings.Contains(d, "..") {
		d = strings.ReplaceAll(d, "..", ".")
	}
	return strings.Trim(d, ".")
}
