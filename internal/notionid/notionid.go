// Package notionid validates and converts Notion object ids between the compact
// 32-character form and the hyphenated 8-4-4-4-12 form.
package notionid

import (
	"strings"

	"github.com/google/uuid"
)

const (
	compactLen   = 32
	canonicalLen = 36
)

// Compact removes every hyphen from id.
func Compact(id string) string {
	return strings.ReplaceAll(id, "-", "")
}

// Valid reports whether id is 32 hex characters once hyphens are removed.
func Valid(id string) bool {
	clean := Compact(id)
	if len(clean) != compactLen {
		return false
	}
	_, err := uuid.Parse(clean)
	return err == nil
}

// Canonical hyphenates a 32-character id as 8-4-4-4-12. Ids that are already
// 36 characters, or of any other length, are returned unchanged. Case is preserved.
func Canonical(id string) string {
	if len(id) != compactLen {
		return id
	}
	return id[0:8] + "-" + id[8:12] + "-" + id[12:16] + "-" + id[16:20] + "-" + id[20:]
}

// Normalize strips and re-hyphenates id so any accepted spelling maps to one form.
func Normalize(id string) string {
	return Canonical(Compact(id))
}
