// Package diag checks that the configured Notion credentials can reach the posts database.
package diag

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/ppiankov/notionblog/internal/notion"
	"github.com/ppiankov/notionblog/internal/notionid"
	"github.com/ppiankov/notionblog/internal/privacy"
)

const (
	StatusSuccess = "Success"
	StatusFailed  = "Failed"
)

// DatabaseRetriever fetches database metadata.
type DatabaseRetriever interface {
	RetrieveDatabase(ctx context.Context, databaseID string) (notion.Object, error)
}

// Report is the outcome of one connection test. It never contains the raw token.
type Report struct {
	Token         string         `json:"token"`
	DatabaseID    string         `json:"database_id"`
	DatabaseValid bool           `json:"database_id_valid"`
	Status        string         `json:"status"`
	Error         *ErrorDetail   `json:"error,omitempty"`
	Database      *DatabaseBrief `json:"database,omitempty"`
}

// ErrorDetail mirrors the Notion error object when one was returned.
type ErrorDetail struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Status  int    `json:"status,omitempty"`
}

// DatabaseBrief is the part of the database metadata worth showing.
type DatabaseBrief struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	URL        string   `json:"url,omitempty"`
	Properties []string `json:"properties"`
}

// OK reports whether the database could be retrieved.
func (r Report) OK() bool {
	return r.Status == StatusSuccess
}

// Run performs a single, unretried database retrieval so failures show up as they happen.
func Run(ctx context.Context, api DatabaseRetriever, token, databaseID string) Report {
	r := Report{
		Token:         privacy.Mask(token),
		DatabaseID:    privacy.OrMissing(databaseID),
		DatabaseValid: notionid.Valid(databaseID),
		Status:        StatusFailed,
	}

	switch {
	case strings.TrimSpace(token) == "":
		r.Error = &ErrorDetail{Message: "notion token is missing"}
		return r
	case strings.TrimSpace(databaseID) == "":
		r.Error = &ErrorDetail{Message: "notion database id is missing"}
		return r
	case api == nil:
		r.Error = &ErrorDetail{Message: "notion client is not configured"}
		return r
	}

	id := databaseID
	if r.DatabaseValid {
		id = notionid.Normalize(databaseID)
	}

	db, err := api.RetrieveDatabase(ctx, id)
	if err != nil {
		r.Error = errorDetail(err, token)
		return r
	}

	r.Status = StatusSuccess
	r.Database = brief(db)
	return r
}

func errorDetail(err error, token string) *ErrorDetail {
	d := &ErrorDetail{Message: privacy.Scrub(err.Error(), token)}
	var apiErr *notion.APIError
	if errors.As(err, &apiErr) {
		d.Code = apiErr.Code
		d.Status = apiErr.Status
		if apiErr.Message != "" {
			d.Message = privacy.Scrub(apiErr.Message, token)
		}
	}
	return d
}

func brief(db notion.Object) *DatabaseBrief {
	b := &DatabaseBrief{
		ID:         db.ID(),
		URL:        notion.StringOr(db, "", "url"),
		Properties: []string{},
	}

	var title strings.Builder
	for _, run := range notion.ListAt(db, "title") {
		title.WriteString(notion.StringOr(run, "", "plain_text"))
	}
	b.Title = title.String()

	if props, ok := notion.Lookup(db, "properties"); ok {
		if m, ok := props.(map[string]any); ok {
			for name := range m {
				b.Properties = append(b.Properties, name)
			}
		}
	}
	slices.Sort(b.Properties)
	return b
}
