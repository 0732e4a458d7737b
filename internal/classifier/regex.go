package classifier

import (
	"regexp"
	"strings"
)

// The only regex shapes converted to ABP rules are the canonical Pi-hole
// anchored forms; anything else is dropped. General regex translation is
// out of scope on purpose.
var (
	// (^|\.)host$ and (\.|^)host$
	piholeAnchorRE = regexp.MustCompile(`^\((?:\^\|\\\.|\\\.\|\^)\)((?:[A-Za-z0-9-]|\\?\.)+)\$$`)
	// ^host$
	plainAnchorRE = regexp.MustCompile(`^\^((?:[A-Za-z0-9-]|\\?\.)+)\$$`)
	// /pattern/flags
	delimitedRE = regexp.MustCompile(`^/(.+)/([a-zA-Z]*)$`)
)

// regexToHost converts a canonical Pi-hole anchored regex (optionally
// /…/-delimited) to a bare host with dots unescaped.
func regexToHost(line string) (string, bool) {
	if m := delimitedRE.FindStringSubmatch(line); m != nil {
		return canonicalHost(m[1])
	}
	return canonicalHost(line)
}

func canonicalHost(pattern string) (string, bool) {
	var hostPart string
	if m := piholeAnchorRE.FindStringSubmatch(pattern); m != nil {
		hostPart = m[1]
	} else if m := plainAnchorRE.FindStringSubmatch(pattern); m != nil {
		hostPart = m[1]
	} else {
		return "", false
	}

	host := strings.ReplaceAll(hostPart, `\.`, ".")
	return normalizeABPHost(host)
}
