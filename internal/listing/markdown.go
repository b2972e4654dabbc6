package listing

import (
	"fmt"
	"io"
	"strings"
)

// MarkdownFormatter formats a listing as Markdown.
type MarkdownFormatter struct{}

// NewMarkdown creates a Markdown formatter.
func NewMarkdown() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

func (f *MarkdownFormatter) Format(w io.Writer, input Input) error {
	fmt.Fprintf(w, "# Posts\n\n")
	fmt.Fprintf(w, "%d posts from %s\n\n", len(input.Posts), originName(input.Origin))

	if len(input.Posts) == 0 {
		fmt.Fprintln(w, "No posts found.")
		return nil
	}

	for _, p := range input.Posts {
		title := p.Title
		if u := postURL(input.SiteURL, p); u != "" {
			title = fmt.Sprintf("[%s](%s)", p.Title, u)
		}
		fmt.Fprintf(w, "## %s\n\n", title)
		fmt.Fprintf(w, "%s · %s", p.Date, p.Lang)
		if len(p.Tags) > 0 {
			parts := make([]string, len(p.Tags))
			for i, t := range p.Tags {
				parts[i] = "`" + t + "`"
			}
			fmt.Fprintf(w, " · %s", strings.Join(parts, " "))
		}
		fmt.Fprint(w, "\n\n")

		if p.Preview != "" {
			fmt.Fprintf(w, "> %s\n\n", p.Preview)
		}
	}

	return nil
}
