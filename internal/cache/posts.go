package cache

import (
	"context"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/ppiankov/notionblog/internal/logging"
	"github.com/ppiankov/notionblog/internal/posts"
)

const (
	listKey       = "posts:list"
	postKeyPrefix = "posts:slug:"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// PostSource is what the cache sits in front of, normally *posts.Repository.
type PostSource interface {
	ListPublished(ctx context.Context) []posts.Post
	FindBySlug(ctx context.Context, slug string) (posts.Post, bool)
}

// Posts serves post lists and single posts from a Store, falling back to the
// source on a miss. Empty lists and missing posts are never stored, so an
// outage or a not-yet-published page is retried on the next request.
type Posts struct {
	src     PostSource
	store   Store
	listTTL time.Duration
	postTTL time.Duration
	log     logging.Logger
}

func NewPosts(src PostSource, store Store, listTTL, postTTL time.Duration, log logging.Logger) *Posts {
	if store == nil {
		store = Nop{}
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Posts{src: src, store: store, listTTL: listTTL, postTTL: postTTL, log: log}
}

func (c *Posts) ListPublished(ctx context.Context) []posts.Post {
	var cached []posts.Post
	if c.read(ctx, listKey, &cached) {
		return cached
	}

	list := c.src.ListPublished(ctx)
	if len(list) > 0 {
		c.write(ctx, listKey, list, c.listTTL)
	}
	return list
}

func (c *Posts) FindBySlug(ctx context.Context, slug string) (posts.Post, bool) {
	key := postKeyPrefix + slug
	var cached posts.Post
	if c.read(ctx, key, &cached) {
		return cached, true
	}

	p, ok := c.src.FindBySlug(ctx, slug)
	if ok {
		c.write(ctx, key, p, c.postTTL)
	}
	return p, ok
}

// Invalidate drops the cached list and, when given, the cached posts for slugs.
func (c *Posts) Invalidate(ctx context.Context, slugs ...string) {
	keys := make([]string, 0, len(slugs)+1)
	keys = append(keys, listKey)
	for _, s := range slugs {
		keys = append(keys, postKeyPrefix+s)
	}
	for _, k := range keys {
		if err := c.store.Delete(ctx, k); err != nil {
			c.log.Warnf("cache delete %s: %v", k, err)
		}
	}
}

// read reports whether key was found and decoded into out. Cache errors are
// logged and treated as misses.
func (c *Posts) read(ctx context.Context, key string, out any) bool {
	data, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.log.Warnf("cache get %s: %v", key, err)
		return false
	}
	if !ok {
		return false
	}
	if err := jsonAPI.Unmarshal(data, out); err != nil {
		c.log.Warnf("cache decode %s: %v", key, err)
		return false
	}
	return true
}

func (c *Posts) write(ctx context.Context, key string, v any, ttl time.Duration) {
	data, err := jsonAPI.Marshal(v)
	if err != nil {
		c.log.Warnf("cache encode %s: %v", key, err)
		return
	}
	if err := c.store.Set(ctx, key, data, ttl); err != nil {
		c.log.Warnf("cache set %s: %v", key, err)
	}
}
