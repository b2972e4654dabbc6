// Package listing renders post lists for the command line.
package listing

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ppiankov/notionblog/internal/posts"
)

const dateLayout = "2006-01-02"

// Input is everything a formatter needs to render one listing.
type Input struct {
	Posts    []posts.Post
	Origin   string    // "notion" or "snapshot"
	SyncedAt time.Time // when the snapshot was taken; zero for live reads
	SiteURL  string    // used to build post links; links are omitted when empty
	Now      time.Time // reference time for relative dates
}

// Formatter writes a formatted listing to w.
type Formatter interface {
	Format(w io.Writer, input Input) error
}

// New returns the formatter for name: terminal, json or markdown.
func New(name string, color bool) (Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "terminal":
		return NewTerminal(color), nil
	case "json":
		return NewJSON(), nil
	case "markdown", "md":
		return NewMarkdown(), nil
	default:
		return nil, fmt.Errorf("unknown format %q (want terminal, json or markdown)", name)
	}
}

// postURL joins the site URL and slug. Posts without a slug are not routable.
func postURL(siteURL string, p posts.Post) string {
	if siteURL == "" || p.Slug == "" {
		return ""
	}
	return strings.TrimRight(siteURL, "/") + "/" + p.Slug
}
