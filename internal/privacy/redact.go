// Package privacy keeps Notion credentials out of diagnostics and logs.
package privacy

import (
	"regexp"
	"strings"
)

const (
	redactedPlaceholder = "[REDACTED]"
	missing             = "MISSING"
	maskEdge            = 4
)

// tokenPatterns match Notion integration tokens: legacy "secret_" and current "ntn_" prefixes.
var tokenPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bsecret_[A-Za-z0-9]{8,}\b`),
	regexp.MustCompile(`\bntn_[A-Za-z0-9]{8,}\b`),
}

// Mask shows the first and last four characters of token, or MISSING when it is empty.
// Tokens too short to mask safely are replaced entirely.
func Mask(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return missing
	}
	if len(token) <= 2*maskEdge {
		return redactedPlaceholder
	}
	return token[:maskEdge] + "..." + token[len(token)-maskEdge:]
}

// OrMissing returns v, or MISSING when it is empty.
func OrMissing(v string) string {
	if strings.TrimSpace(v) == "" {
		return missing
	}
	return v
}

// Scrub replaces every literal secret and anything shaped like a Notion token
// in text with [REDACTED].
func Scrub(text string, secrets ...string) string {
	for _, s := range secrets {
		if strings.TrimSpace(s) == "" {
			continue
		}
		text = strings.ReplaceAll(text, s, redactedPlaceholder)
	}
	for _, re := range tokenPatterns {
		text = re.ReplaceAllString(text, redactedPlaceholder)
	}
	return text
}
