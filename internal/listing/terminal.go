package listing

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// TerminalFormatter formats a listing for terminal output.
type TerminalFormatter struct {
	color bool
}

// NewTerminal creates a terminal formatter. Set color=true for ANSI colors.
func NewTerminal(color bool) *TerminalFormatter {
	return &TerminalFormatter{color: color}
}

func (f *TerminalFormatter) Format(w io.Writer, input Input) error {
	now := input.Now
	if now.IsZero() {
		now = time.Now()
	}

	header := fmt.Sprintf("notionblog: %d %s from %s", len(input.Posts), plural(len(input.Posts), "post", "posts"), originName(input.Origin))
	if !input.SyncedAt.IsZero() {
		header += ", synced " + humanize.RelTime(input.SyncedAt, now, "ago", "from now")
	}
	fmt.Fprintln(w, f.bold(header))
	fmt.Fprintln(w)

	if len(input.Posts) == 0 {
		fmt.Fprintln(w, "No posts found.")
		return nil
	}

	for _, p := range input.Posts {
		date := p.Date
		if t, err := time.Parse(dateLayout, p.Date); err == nil {
			date = fmt.Sprintf("%s (%s)", p.Date, humanize.RelTime(t, now, "ago", "from now"))
		}

		fmt.Fprintf(w, "  %s  %s\n", f.bold(p.Title), f.dim(date))

		meta := []string{p.Lang}
		if p.Slug != "" {
			meta = append(meta, "/"+p.Slug)
		} else {
			meta = append(meta, f.yellow("no slug"))
		}
		if len(p.Tags) > 0 {
			meta = append(meta, strings.Join(p.Tags, ", "))
		}
		fmt.Fprintf(w, "      %s\n", f.dim(strings.Join(meta, " | ")))

		if u := postURL(input.SiteURL, p); u != "" {
			fmt.Fprintf(w, "      %s\n", f.green(u))
		}
		if p.Preview != "" {
			fmt.Fprintf(w, "      %s\n", p.Preview)
		}
		fmt.Fprintln(w)
	}

	return nil
}

func originName(origin string) string {
	if origin == "" {
		return "notion"
	}
	return origin
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// ANSI helpers, no-op when color=false.

func (f *TerminalFormatter) bold(s string) string {
	if !f.color {
		return s
	}
	return "\033[1m" + s + "\033[0m"
}

func (f *TerminalFormatter) green(s string) string {
	if !f.color {
		return s
	}
	return "\033[32m" + s + "\033[0m"
}

func (f *TerminalFormatter) yellow(s string) string {
	if !f.color {
		return s
	}
	return "\033[33m" + s + "\033[0m"
}

func (f *TerminalFormatter) dim(s string) string {
	if !f.color {
		return s
	}
	return "\033[2m" + s + "\033[0m"
}
