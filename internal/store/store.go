// Package store keeps a local sqlite snapshot of published posts so listings
// work without reaching Notion.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ppiankov/notionblog/internal/posts"
)

const lastSyncKey = "last_sync"

type Store struct {
	db *sql.DB
}

// SyncResult summarizes one snapshot refresh.
type SyncResult struct {
	Upserted int
	Pruned   int64
	At       time.Time
}

func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("path is required")
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := migrate(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// UpsertPost inserts p or replaces the stored copy with the same id.
func (s *Store) UpsertPost(ctx context.Context, p posts.Post, syncedAt time.Time) error {
	if s == nil || s.db == nil {
		return errors.New("store is not initialized")
	}
	return upsert(ctx, s.db, p, syncedAt)
}

// Sync makes the snapshot match list: every post is upserted and posts whose
// ids are absent from list are removed. An empty list leaves the snapshot
// untouched, since it usually means Notion could not be reached.
func (s *Store) Sync(ctx context.Context, list []posts.Post, at time.Time) (SyncResult, error) {
	if s == nil || s.db == nil {
		return SyncResult{}, errors.New("store is not initialized")
	}
	res := SyncResult{At: at}
	if len(list) == 0 {
		return res, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return SyncResult{}, fmt.Errorf("begin sync transaction: %w", err)
	}

	for _, p := range list {
		if err := upsert(ctx, tx, p, at); err != nil {
			_ = tx.Rollback()
			return SyncResult{}, err
		}
		res.Upserted++
	}

	// Everything still stamped with an older sync time was not in list.
	r, err := tx.ExecContext(ctx, "DELETE FROM posts WHERE synced_at <> ?", formatTime(at))
	if err != nil {
		_ = tx.Rollback()
		return SyncResult{}, fmt.Errorf("prune posts: %w", err)
	}
	res.Pruned, _ = r.RowsAffected()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO metadata(key, value) VALUES(?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, lastSyncKey, formatTime(at)); err != nil {
		_ = tx.Rollback()
		return SyncResult{}, fmt.Errorf("record sync time: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return SyncResult{}, fmt.Errorf("commit sync: %w", err)
	}
	return res, nil
}

// ListPosts returns the snapshot newest first.
func (s *Store) ListPosts(ctx context.Context) ([]posts.Post, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store is not initialized")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, date, slug, tags, lang, preview
		FROM posts
		ORDER BY date DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	out := []posts.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return out, nil
}

// PostBySlug returns the first stored post with slug, newest first.
func (s *Store) PostBySlug(ctx context.Context, slug string) (posts.Post, bool, error) {
	if s == nil || s.db == nil {
		return posts.Post{}, false, errors.New("store is not initialized")
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, date, slug, tags, lang, preview
		FROM posts
		WHERE slug = ?
		ORDER BY date DESC, id
		LIMIT 1
	`, slug)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return posts.Post{}, false, nil
	}
	if err != nil {
		return posts.Post{}, false, err
	}
	return p, true, nil
}

// LastSync returns when Sync last stored posts, or the zero time.
func (s *Store) LastSync(ctx context.Context) (time.Time, error) {
	if s == nil || s.db == nil {
		return time.Time{}, errors.New("store is not initialized")
	}
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", lastSyncKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("read last sync: %w", err)
	}
	return parseTime(value)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsert(ctx context.Context, db execer, p posts.Post, syncedAt time.Time) error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("post id is required")
	}
	if syncedAt.IsZero() {
		return errors.New("synced_at is required")
	}

	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO posts (id, slug, title, date, lang, tags, preview, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			slug = excluded.slug,
			title = excluded.title,
			date = excluded.date,
			lang = excluded.lang,
			tags = excluded.tags,
			preview = excluded.preview,
			synced_at = excluded.synced_at
	`,
		p.ID,
		p.Slug,
		p.Title,
		p.Date,
		p.Lang,
		string(tagsJSON),
		p.Preview,
		formatTime(syncedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert post %s: %w", p.ID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(scanner rowScanner) (posts.Post, error) {
	var (
		p        posts.Post
		tagsJSON string
	)
	if err := scanner.Scan(&p.ID, &p.Title, &p.Date, &p.Slug, &tagsJSON, &p.Lang, &p.Preview); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return posts.Post{}, err
		}
		return posts.Post{}, fmt.Errorf("scan post: %w", err)
	}

	p.Tags = []string{}
	if tagsJSON != "" {
		if err := json.Unmarshal([]byte(tagsJSON), &p.Tags); err != nil {
			return posts.Post{}, fmt.Errorf("decode tags: %w", err)
		}
	}
	return p, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts, nil
	}
	return time.Parse(time.RFC3339, value)
}
