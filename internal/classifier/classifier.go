package classifier

import (
	"net"
	"regexp"
	"strings"

	"github.com/Toomas633/Adlist-Parser/internal/models"
)

var (
	// Inline comments are introduced by whitespace followed by a marker.
	inlineCommentRE = regexp.MustCompile(`\s+(#|!|//|;).*$`)
	// Anything tag-shaped means the source served HTML, not a list.
	htmlTagRE = regexp.MustCompile(`<[a-zA-Z/!?][^>]*>`)
	// ABP cosmetic separators: ##, #@#, #?#, #@?#
	elementHidingRE = regexp.MustCompile(`#@?\??#`)
	// Trailing ABP option list ($third-party, $script,...)
	abpOptionRE = regexp.MustCompile(`\$.*$`)
)

// hostsIPs are the sinkhole addresses that mark a hosts-file line.
var hostsIPs = map[string]bool{
	"0.0.0.0":   true,
	"127.0.0.1": true,
	"::":        true,
	"::1":       true,
	"fe80::1":   true,
}

// Classify maps one raw input line to exactly one Line variant. Dispatch
// order is fixed; the first matching step wins. The function is pure: no
// I/O, no state.
func Classify(raw string) models.Line {
	line := strings.TrimSpace(raw)
	if line == "" || isCommentLine(line) || htmlTagRE.MatchString(line) {
		return models.Skip
	}

	line = strings.TrimSpace(inlineCommentRE.ReplaceAllString(line, ""))
	if line == "" {
		return models.Skip
	}

	if elementHidingRE.MatchString(line) {
		return models.Discard
	}

	if rest, ok := strings.CutPrefix(line, "@@"); ok {
		if host, ok := repairABP(rest); ok {
			return models.ABPAllow(host)
		}
		return models.Discard
	}

	if looksLikeABP(line) {
		if host, ok := repairABP(line); ok {
			return models.ABPBlock(host)
		}
		return models.Discard
	}

	if looksLikeRegex(line) {
		if host, ok := regexToHost(line); ok {
			return models.ABPBlock(host)
		}
		return models.Discard
	}

	if token, ok := hostsLineToken(line); ok {
		if host, ok := NormalizeDomain(token); ok {
			return models.Domain(host)
		}
		return models.Discard
	}

	if host, ok := NormalizeDomain(line); ok {
		return models.Domain(host)
	}
	return models.Discard
}

func isCommentLine(line string) bool {
	for _, p := range []string{"#", "!", "//", ";"} {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

// looksLikeABP reports whether a line is an ABP rule outright or can be
// repaired into one: it carries a pipe anchor, or ends with the ^ separator
// once options are stripped (missing || prefix).
func looksLikeABP(line string) bool {
	if strings.HasPrefix(line, "|") {
		return true
	}
	if strings.HasPrefix(line, "(") {
		return false
	}
	s := strings.TrimRight(abpOptionRE.ReplaceAllString(line, ""), "|")
	return strings.HasSuffix(s, "^")
}

func looksLikeRegex(line string) bool {
	if strings.HasPrefix(line, "/") && delimitedRE.MatchString(line) {
		return true
	}
	return strings.HasPrefix(line, "^") ||
		strings.HasPrefix(line, "(") ||
		strings.HasSuffix(line, "$")
}

// hostsLineToken recognizes hosts-file lines. When the first token is one
// of the sinkhole IPs, it strips that token and any further IP-looking
// tokens and returns the first remaining token. A hosts line with no
// hostname left returns ("", true) and is consumed.
func hostsLineToken(line string) (string, bool) {
	fields := strings.Fields(line)
	if len(fields) < 1 || !hostsIPs[fields[0]] {
		return "", false
	}
	i := 1
	for i < len(fields) && net.ParseIP(fields[i]) != nil {
		i++
	}
	if i >= len(fields) {
		return "", true
	}
	return fields[i], true
}
