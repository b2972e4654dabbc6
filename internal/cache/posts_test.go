package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/notionblog/internal/posts"
)

type fakeSource struct {
	list      []posts.Post
	bySlug    map[string]posts.Post
	listCalls atomic.Int32
	findCalls atomic.Int32
}

func (f *fakeSource) ListPublished(context.Context) []posts.Post {
	f.listCalls.Add(1)
	return f.list
}

func (f *fakeSource) FindBySlug(_ context.Context, slug string) (posts.Post, bool) {
	f.findCalls.Add(1)
	p, ok := f.bySlug[slug]
	return p, ok
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}

func (failingStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}

func (failingStore) Delete(context.Context, string) error {
	return errors.New("connection refused")
}

func samplePost(slug string) posts.Post {
	return posts.Post{ID: "id-" + slug, Title: "T " + slug, Date: "2026-01-01", Slug: slug, Tags: []string{"go"}, Lang: "en", Preview: "p..."}
}

func TestPosts_ListCached(t *testing.T) {
	src := &fakeSource{list: []posts.Post{samplePost("a"), samplePost("b")}}
	c := NewPosts(src, NewMemory(), time.Hour, time.Minute, nil)
	ctx := context.Background()

	first := c.ListPublished(ctx)
	second := c.ListPublished(ctx)

	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("lists = %d, %d", len(first), len(second))
	}
	if second[1].Slug != "b" || second[0].Tags[0] != "go" {
		t.Errorf("cached list = %+v", second)
	}
	if n := src.listCalls.Load(); n != 1 {
		t.Errorf("source calls = %d, want 1", n)
	}
}

func TestPosts_EmptyListNotCached(t *testing.T) {
	src := &fakeSource{}
	c := NewPosts(src, NewMemory(), time.Hour, time.Minute, nil)
	ctx := context.Background()

	c.ListPublished(ctx)
	c.ListPublished(ctx)

	if n := src.listCalls.Load(); n != 2 {
		t.Errorf("source calls = %d, want 2", n)
	}
}

func TestPosts_FindCachedAndMissesNot(t *testing.T) {
	src := &fakeSource{bySlug: map[string]posts.Post{"hello": samplePost("hello")}}
	c := NewPosts(src, NewMemory(), time.Hour, time.Minute, nil)
	ctx := context.Background()

	for range 3 {
		p, ok := c.FindBySlug(ctx, "hello")
		if !ok || p.ID != "id-hello" {
			t.Fatalf("find = %+v %v", p, ok)
		}
	}
	if n := src.findCalls.Load(); n != 1 {
		t.Errorf("find calls for hit = %d, want 1", n)
	}

	c.FindBySlug(ctx, "missing")
	c.FindBySlug(ctx, "missing")
	if n := src.findCalls.Load(); n != 3 {
		t.Errorf("find calls = %d, want misses to reach the source", n)
	}
}

func TestPosts_Invalidate(t *testing.T) {
	src := &fakeSource{
		list:   []posts.Post{samplePost("a")},
		bySlug: map[string]posts.Post{"a": samplePost("a")},
	}
	c := NewPosts(src, NewMemory(), time.Hour, time.Minute, nil)
	ctx := context.Background()

	c.ListPublished(ctx)
	c.FindBySlug(ctx, "a")
	c.Invalidate(ctx, "a")
	c.ListPublished(ctx)
	c.FindBySlug(ctx, "a")

	if src.listCalls.Load() != 2 || src.findCalls.Load() != 2 {
		t.Errorf("calls = %d list, %d find; want 2 each", src.listCalls.Load(), src.findCalls.Load())
	}
}

func TestPosts_StoreErrorsFallThrough(t *testing.T) {
	src := &fakeSource{list: []posts.Post{samplePost("a")}, bySlug: map[string]posts.Post{"a": samplePost("a")}}
	c := NewPosts(src, failingStore{}, time.Hour, time.Minute, nil)
	ctx := context.Background()

	if got := c.ListPublished(ctx); len(got) != 1 {
		t.Errorf("list = %+v", got)
	}
	if _, ok := c.FindBySlug(ctx, "a"); !ok {
		t.Error("expected post despite cache failure")
	}
	c.Invalidate(ctx, "a")
}

func TestPosts_CorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	_ = store.Set(ctx, listKey, []byte("{not json"), time.Hour)

	src := &fakeSource{list: []posts.Post{samplePost("a")}}
	c := NewPosts(src, store, time.Hour, time.Minute, nil)

	if got := c.ListPublished(ctx); len(got) != 1 {
		t.Fatalf("list = %+v", got)
	}
	if n := src.listCalls.Load(); n != 1 {
		t.Errorf("source calls = %d, want 1", n)
	}
}
