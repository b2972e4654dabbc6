// Package posts maps published Notion database rows to blog posts.
package posts

import (
	"context"
	"sync"
	"time"

	"github.com/ppiankov/notionblog/internal/config"
	"github.com/ppiankov/notionblog/internal/logging"
	"github.com/ppiankov/notionblog/internal/notion"
	"github.com/ppiankov/notionblog/internal/notionid"
	"github.com/ppiankov/notionblog/internal/preview"
	"github.com/ppiankov/notionblog/internal/retry"
)

const (
	DefaultTitle = "Untitled"
	DefaultLang  = "en"
	dateLayout   = "2006-01-02"

	previewWorkers = 5
)

// Post is an immutable snapshot of one published database row.
type Post struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Date    string   `json:"date"`
	Slug    string   `json:"slug"`
	Tags    []string `json:"tags"`
	Lang    string   `json:"lang"`
	Preview string   `json:"preview"`
}

// API is the part of the Notion client the repository needs.
type API interface {
	HasToken() bool
	QueryDatabase(ctx context.Context, databaseID string, req notion.QueryRequest) (*notion.ListResponse, error)
	BlockChildren(ctx context.Context, blockID, cursor string, pageSize int) (*notion.ListResponse, error)
}

// Repository reads posts from one Notion database. It never returns errors:
// configuration problems and remote failures are logged and yield empty results.
type Repository struct {
	api           API
	databaseID    string
	props         config.PropertiesConfig
	queryPolicy   retry.Policy
	previewPolicy retry.Policy
	log           logging.Logger
	now           func() time.Time
}

// NewRepository creates a repository for databaseID. A nil logger discards output.
func NewRepository(api API, databaseID string, props config.PropertiesConfig, rc config.RetryConfig, log logging.Logger) *Repository {
	if log == nil {
		log = logging.Discard()
	}
	return &Repository{
		api:           api,
		databaseID:    databaseID,
		props:         props,
		queryPolicy:   rc.Policy(),
		previewPolicy: rc.PreviewPolicy(),
		log:           log,
		now:           time.Now,
	}
}

// ListPublished returns every published post, newest first.
func (r *Repository) ListPublished(ctx context.Context) []Post {
	dbID, ok := r.database()
	if !ok {
		return []Post{}
	}

	newestFirst := []notion.Sort{{Property: r.props.Date, Direction: notion.Descending}}
	rows, err := r.query(ctx, dbID, notion.CheckboxEquals(r.props.Published, true), newestFirst, 0)
	if err != nil {
		r.log.Errorf("list published posts: %v", err)
		return []Post{}
	}

	return r.mapAll(ctx, rows)
}

// FindBySlug returns the first published post whose slug equals slug exactly.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (Post, bool) {
	dbID, ok := r.database()
	if !ok {
		return Post{}, false
	}

	filter := notion.AndFilter{And: []notion.PropertyFilter{
		notion.CheckboxEquals(r.props.Published, true),
		notion.RichTextEquals(r.props.Slug, slug),
	}}
	// No sort: duplicates resolve to the first record in the database's own order.
	rows, err := r.query(ctx, dbID, filter, nil, 1)
	if err != nil {
		r.log.Errorf("find post %q: %v", slug, err)
		return Post{}, false
	}

	found := r.mapAll(ctx, rows)
	if len(found) == 0 {
		return Post{}, false
	}
	return found[0], true
}

// database returns the canonical database id, or false when the repository
// cannot query at all.
func (r *Repository) database() (string, bool) {
	if r.api == nil || !r.api.HasToken() {
		r.log.Warnf("notion token is not set; returning no posts")
		return "", false
	}
	if r.databaseID == "" {
		r.log.Warnf("notion database id is not set; returning no posts")
		return "", false
	}
	if !notionid.Valid(r.databaseID) {
		r.log.Warnf("notion database id %q is not a valid id; returning no posts", r.databaseID)
		return "", false
	}
	return notionid.Normalize(r.databaseID), true
}

// query follows pagination until the results are exhausted or limit rows were read.
// A limit of 0 reads everything. Nil sorts leave the database's native order.
func (r *Repository) query(ctx context.Context, dbID string, filter any, sorts []notion.Sort, limit int) ([]notion.Object, error) {
	var (
		rows   []notion.Object
		cursor string
	)
	for {
		req := notion.QueryRequest{
			Filter:      filter,
			Sorts:       sorts,
			StartCursor: cursor,
			PageSize:    notion.MaxPageSize,
		}
		resp, err := retry.Do(ctx, r.log, "notion database query", r.queryPolicy,
			func(ctx context.Context) (*notion.ListResponse, error) {
				return r.api.QueryDatabase(ctx, dbID, req)
			})
		if err != nil {
			return nil, err
		}

		rows = append(rows, resp.Results...)
		if limit > 0 && len(rows) >= limit {
			return rows[:limit], nil
		}
		if !resp.HasMore || resp.NextCursor == "" {
			return rows, nil
		}
		cursor = resp.NextCursor
	}
}

// mapAll maps rows to posts and fills in previews with a small worker pool,
// keeping the query order.
func (r *Repository) mapAll(ctx context.Context, rows []notion.Object) []Post {
	out := make([]Post, 0, len(rows))
	for _, row := range rows {
		if row.ID() == "" {
			r.log.Warnf("skipping database row without id")
			continue
		}
		out = append(out, r.mapPost(row))
	}
	if len(out) == 0 {
		return out
	}

	jobs := make(chan int, len(out))
	workers := previewWorkers
	if len(out) < workers {
		workers = len(out)
	}

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out[i].Preview = preview.Extract(r.previewBlocks(ctx, out[i].ID))
			}
		}()
	}

	for i := range out {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return out
}

// previewBlocks lists the first few blocks of a page. Failures yield no blocks.
func (r *Repository) previewBlocks(ctx context.Context, pageID string) []notion.Object {
	resp, err := retry.Do(ctx, r.log, "notion preview blocks", r.previewPolicy,
		func(ctx context.Context) (*notion.ListResponse, error) {
			return r.api.BlockChildren(ctx, pageID, "", preview.BlockCount)
		})
	if err != nil {
		r.log.Errorf("preview for %s: %v", pageID, err)
		return nil
	}
	if len(resp.Results) > preview.BlockCount {
		return resp.Results[:preview.BlockCount]
	}
	return resp.Results
}

func (r *Repository) mapPost(row notion.Object) Post {
	props, _ := notion.Lookup(row, "properties")

	tags := []string{}
	for _, opt := range notion.ListAt(props, r.props.Tags, "multi_select") {
		if name := notion.StringOr(opt, "", "name"); name != "" {
			tags = append(tags, name)
		}
	}

	return Post{
		ID:    row.ID(),
		Title: notion.StringOr(props, DefaultTitle, r.props.Title, "title", 0, "plain_text"),
		Date:  notion.StringOr(props, r.now().UTC().Format(dateLayout), r.props.Date, "date", "start"),
		Slug:  notion.StringOr(props, "", r.props.Slug, "rich_text", 0, "plain_text"),
		Tags:  tags,
		Lang:  notion.StringOr(props, DefaultLang, r.props.Lang, "select", "name"),
	}
}
