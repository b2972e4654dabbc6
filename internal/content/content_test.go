package content

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/notionblog/internal/notion"
	"github.com/ppiankov/notionblog/internal/retry"
)

func fastPolicy() retry.Policy {
	return retry.Policy{MaxRetries: 3, InitialDelay: time.Millisecond, Multiplier: 2}
}

func TestFetch_CanonicalizesAndNests(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		switch r.URL.Path {
		case "/v1/blocks/01234567-89ab-cdef-0123-456789abcdef/children":
			fmt.Fprint(w, `{"results":[
				{"id":"b1","type":"paragraph","has_children":false},
				{"id":"b2","type":"toggle","has_children":true}
			],"has_more":false}`)
		case "/v1/blocks/b2/children":
			fmt.Fprint(w, `{"results":[{"id":"b3","type":"paragraph","has_children":false}],"has_more":false}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	f := NewFetcher(notion.New("t", notion.WithBaseURL(ts.URL)), fastPolicy(), 0, nil)
	tree, err := f.Fetch(context.Background(), "0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if tree.PageID != "01234567-89ab-cdef-0123-456789abcdef" {
		t.Errorf("page id = %q", tree.PageID)
	}
	if len(tree.Blocks) != 2 {
		t.Fatalf("expected 2 top-level blocks, got %d", len(tree.Blocks))
	}
	if tree.Blocks[0].Block.ID() != "b1" || len(tree.Blocks[0].Children) != 0 {
		t.Errorf("block 0 = %+v", tree.Blocks[0])
	}
	kids := tree.Blocks[1].Children
	if len(kids) != 1 || kids[0].Block.ID() != "b3" {
		t.Errorf("children of b2 = %+v", kids)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("requests = %d, want 2", n)
	}
}

func TestFetch_Paginates(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page_size") != "100" {
			t.Errorf("page_size = %q", r.URL.Query().Get("page_size"))
		}
		if r.URL.Query().Get("start_cursor") == "" {
			fmt.Fprint(w, `{"results":[{"id":"a"}],"has_more":true,"next_cursor":"next"}`)
			return
		}
		fmt.Fprint(w, `{"results":[{"id":"b"}],"has_more":false,"next_cursor":null}`)
	}))
	defer ts.Close()

	f := NewFetcher(notion.New("t", notion.WithBaseURL(ts.URL)), fastPolicy(), 0, nil)
	tree, err := f.Fetch(context.Background(), "page")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(tree.Blocks) != 2 || tree.Blocks[1].Block.ID() != "b" {
		t.Fatalf("blocks = %+v", tree.Blocks)
	}
}

func TestFetch_DepthLimit(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		// Every block claims a child, forever.
		fmt.Fprintf(w, `{"results":[{"id":"level%d","has_children":true}],"has_more":false}`, n)
	}))
	defer ts.Close()

	f := NewFetcher(notion.New("t", notion.WithBaseURL(ts.URL)), fastPolicy(), 3, nil)
	tree, err := f.Fetch(context.Background(), "root")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("requests = %d, want 3", n)
	}
	deepest := tree.Blocks[0].Children[0].Children[0]
	if deepest.Block.ID() != "level3" || deepest.Children != nil {
		t.Errorf("deepest = %+v", deepest)
	}
}

func TestFetch_EmptyPage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[],"has_more":false}`)
	}))
	defer ts.Close()

	f := NewFetcher(notion.New("t", notion.WithBaseURL(ts.URL)), fastPolicy(), 0, nil)
	tree, err := f.Fetch(context.Background(), "page")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if tree.Blocks == nil || len(tree.Blocks) != 0 {
		t.Errorf("blocks = %#v, want empty non-nil", tree.Blocks)
	}
}

func TestFetch_PropagatesAfterRetries(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"object":"error","status":503,"code":"service_unavailable","message":"down"}`)
	}))
	defer ts.Close()

	f := NewFetcher(notion.New("t", notion.WithBaseURL(ts.URL)), fastPolicy(), 0, nil)
	_, err := f.Fetch(context.Background(), "page")
	if err == nil {
		t.Fatal("expected error")
	}
	if n := calls.Load(); n != 4 {
		t.Errorf("calls = %d, want 4", n)
	}
	var apiErr *notion.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusServiceUnavailable {
		t.Errorf("error = %v, want wrapped 503", err)
	}
	if IsNotFound(err) {
		t.Error("503 should not be not-found")
	}
}

func TestFetch_NotFound(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"object":"error","status":404,"code":"object_not_found","message":"Could not find block"}`)
	}))
	defer ts.Close()

	f := NewFetcher(notion.New("t", notion.WithBaseURL(ts.URL)), fastPolicy(), 0, nil)
	_, err := f.Fetch(context.Background(), "page")
	if !IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("calls = %d, want 1 (404 is not retried)", n)
	}
	if !strings.Contains(err.Error(), "fetch content page") {
		t.Errorf("error = %q", err)
	}
}

func TestFetch_NestedFailurePropagates(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/blocks/root/") {
			fmt.Fprint(w, `{"results":[{"id":"child","has_children":true}],"has_more":false}`)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"object":"error","status":400,"code":"validation_error","message":"bad"}`)
	}))
	defer ts.Close()

	f := NewFetcher(notion.New("t", notion.WithBaseURL(ts.URL)), fastPolicy(), 0, nil)
	if _, err := f.Fetch(context.Background(), "root"); err == nil {
		t.Fatal("expected nested error to propagate")
	}
}

func TestFetch_NilClient(t *testing.T) {
	f := NewFetcher(nil, fastPolicy(), 0, nil)
	if _, err := f.Fetch(context.Background(), "page"); err == nil {
		t.Fatal("expected error")
	}
}
