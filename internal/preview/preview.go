// Package preview derives the short plain-text lede shown in post listings.
package preview

import (
	"strings"

	"github.com/ppiankov/notionblog/internal/notion"
)

const (
	// MaxChars is the number of characters kept before the ellipsis.
	MaxChars = 200
	// Ellipsis is appended whether or not the text was cut.
	Ellipsis = "..."
	// BlockCount is how many leading blocks a preview is built from.
	BlockCount = 3
)

// Extract joins the plain text of paragraph blocks with single spaces, keeps the
// first MaxChars characters and appends Ellipsis. Non-paragraph blocks contribute
// an empty string, so they still add a separator.
func Extract(blocks []notion.Object) string {
	parts := make([]string, len(blocks))
	for i, b := range blocks {
		parts[i] = paragraphText(b)
	}
	return firstNRunes(strings.Join(parts, " "), MaxChars) + Ellipsis
}

func paragraphText(b notion.Object) string {
	if b.Type() != "paragraph" {
		return ""
	}
	var sb strings.Builder
	for _, run := range notion.ListAt(b, "paragraph", "rich_text") {
		sb.WriteString(notion.StringOr(run, "", "plain_text"))
	}
	return sb.String()
}

func firstNRunes(s string, n int) string {
	if n <= 0 || s == "" {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
