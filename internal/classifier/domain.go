package classifier

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"
)

const (
	maxLabelLen  = 63
	maxDomainLen = 253
)

// NormalizeDomain validates and normalizes a plain domain token: lowercased,
// IDN labels punycoded, a leading *. preserved. Plain tokens must carry at
// least two labels so bare words like "localhost" never make it into a list.
func NormalizeDomain(token string) (string, bool) {
	host, ok := normalizeHost(token)
	if !ok || !strings.Contains(strings.TrimPrefix(host, "*."), ".") {
		return "", false
	}
	return host, true
}

// normalizeABPHost is the relaxed variant used for ABP rule payloads and
// converted regexes, where single-label hosts are legal.
func normalizeABPHost(token string) (string, bool) {
	return normalizeHost(token)
}

func normalizeHost(token string) (string, bool) {
	token = strings.Trim(strings.TrimSpace(token), ".,")
	if token == "" {
		return "", false
	}

	wildcard := false
	if rest, ok := strings.CutPrefix(token, "*."); ok {
		wildcard = true
		token = rest
	}

	token = strings.ToLower(token)

	if !isASCII(token) {
		puny, err := idna.Lookup.ToASCII(token)
		if err != nil {
			return "", false
		}
		token = strings.ToLower(puny)
	}

	if !validHost(token) {
		return "", false
	}

	if wildcard {
		token = "*." + token
	}
	return token, true
}

// validHost checks the punycoded, lowercased form against DNS syntax:
// labels of [a-z0-9-] up to 63 chars, no leading or trailing hyphen,
// 253 chars total.
func validHost(host string) bool {
	if host == "" || len(host) > maxDomainLen {
		return false
	}
	for _, label := range strings.Split(host, ".") {
		if label == "" || len(label) > maxLabelLen {
			return false
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for i := 0; i < len(label); i++ {
			c := label[i]
			if c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-' {
				continue
			}
			return false
		}
	}
	return true
}

// HostKey reduces any output-vocabulary entry (plain domain, ||host^,
// @@||host^, *.host) to the bare host used for cross-stream comparison.
// The second return is false when no valid host remains.
func HostKey(entry string) (string, bool) {
	s := strings.TrimSpace(entry)
	s = strings.TrimPrefix(s, "@@")
	s = strings.TrimPrefix(s, "||")
	s = strings.TrimSuffix(s, "^")
	s = strings.TrimPrefix(s, "*.")
	if !isASCII(s) {
		return normalizeHost(s)
	}
	s = strings.ToLower(s)
	if !validHost(s) {
		return "", false
	}
	return s, true
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
