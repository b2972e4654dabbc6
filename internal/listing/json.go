package listing

import (
	"encoding/json"
	"io"
	"time"
)

type jsonListing struct {
	Meta  jsonMeta   `json:"meta"`
	Posts []jsonPost `json:"posts"`
}

type jsonMeta struct {
	Origin   string `json:"origin"`
	Count    int    `json:"count"`
	SyncedAt string `json:"synced_at,omitempty"`
}

type jsonPost struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Date    string   `json:"date"`
	Slug    string   `json:"slug"`
	Tags    []string `json:"tags"`
	Lang    string   `json:"lang"`
	Preview string   `json:"preview"`
	URL     string   `json:"url,omitempty"`
}

// JSONFormatter formats a listing as JSON.
type JSONFormatter struct{}

// NewJSON creates a JSON formatter.
func NewJSON() *JSONFormatter {
	return &JSONFormatter{}
}

func (f *JSONFormatter) Format(w io.Writer, input Input) error {
	out := jsonListing{
		Meta: jsonMeta{
			Origin: originName(input.Origin),
			Count:  len(input.Posts),
		},
		Posts: make([]jsonPost, 0, len(input.Posts)),
	}
	if !input.SyncedAt.IsZero() {
		out.Meta.SyncedAt = input.SyncedAt.UTC().Format(time.RFC3339)
	}

	for _, p := range input.Posts {
		tags := p.Tags
		if tags == nil {
			tags = []string{}
		}
		out.Posts = append(out.Posts, jsonPost{
			ID:      p.ID,
			Title:   p.Title,
			Date:    p.Date,
			Slug:    p.Slug,
			Tags:    tags,
			Lang:    p.Lang,
			Preview: p.Preview,
			URL:     postURL(input.SiteURL, p),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
