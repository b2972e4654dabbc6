package diag

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ppiankov/notionblog/internal/notion"
)

const testToken = "secret_abcdefghijklmnopqrstuvwxyz"

func TestRun_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/databases/01234567-89ab-cdef-0123-456789abcdef" {
			t.Errorf("path = %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"object":"database","id":"01234567-89ab-cdef-0123-456789abcdef",
			"title":[{"plain_text":"My "},{"plain_text":"Blog"}],
			"url":"https://www.notion.so/0123",
			"properties":{"Slug":{},"Name":{},"Published":{}}}`)
	}))
	defer ts.Close()

	r := Run(context.Background(), notion.New(testToken, notion.WithBaseURL(ts.URL)), testToken, "0123456789abcdef0123456789abcdef")

	if !r.OK() || r.Error != nil {
		t.Fatalf("report = %+v", r)
	}
	if r.Token != "secr...wxyz" {
		t.Errorf("token = %q", r.Token)
	}
	if !r.DatabaseValid || r.DatabaseID != "0123456789abcdef0123456789abcdef" {
		t.Errorf("database id = %q valid=%v", r.DatabaseID, r.DatabaseValid)
	}
	if r.Database.Title != "My Blog" || r.Database.URL == "" {
		t.Errorf("database = %+v", r.Database)
	}
	if strings.Join(r.Database.Properties, ",") != "Name,Published,Slug" {
		t.Errorf("properties = %v", r.Database.Properties)
	}
}

func TestRun_MissingConfiguration(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer ts.Close()
	client := notion.New("", notion.WithBaseURL(ts.URL))

	r := Run(context.Background(), client, "", "")
	if r.OK() {
		t.Fatal("expected failure")
	}
	if r.Token != "MISSING" || r.DatabaseID != "MISSING" {
		t.Errorf("report = %+v", r)
	}
	if !strings.Contains(r.Error.Message, "token is missing") {
		t.Errorf("error = %+v", r.Error)
	}

	r = Run(context.Background(), client, testToken, "")
	if !strings.Contains(r.Error.Message, "database id is missing") {
		t.Errorf("error = %+v", r.Error)
	}
	if calls.Load() != 0 {
		t.Errorf("no request should be made without credentials")
	}
}

func TestRun_NotionError(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"object":"error","status":503,"code":"service_unavailable","message":"Notion is unavailable"}`)
	}))
	defer ts.Close()

	r := Run(context.Background(), notion.New(testToken, notion.WithBaseURL(ts.URL)), testToken, "not-valid")
	if r.OK() {
		t.Fatal("expected failure")
	}
	if r.DatabaseValid {
		t.Error("database id should be reported invalid")
	}
	if r.Error.Status != 503 || r.Error.Code != "service_unavailable" || r.Error.Message != "Notion is unavailable" {
		t.Errorf("error = %+v", r.Error)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("calls = %d, diagnostics must not retry", n)
	}
}

func TestRun_ErrorMessageScrubbed(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprintf(w, `{"object":"error","status":401,"code":"unauthorized","message":"token %s is invalid"}`, testToken)
	}))
	defer ts.Close()

	r := Run(context.Background(), notion.New(testToken, notion.WithBaseURL(ts.URL)), testToken, "0123456789abcdef0123456789abcdef")
	if strings.Contains(r.Error.Message, testToken) {
		t.Errorf("token leaked: %q", r.Error.Message)
	}
	if !strings.Contains(r.Error.Message, "[REDACTED]") {
		t.Errorf("message = %q", r.Error.Message)
	}
}

func TestRun_TransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	r := Run(context.Background(), notion.New(testToken, notion.WithBaseURL(url)), testToken, "0123456789abcdef0123456789abcdef")
	if r.OK() || r.Error == nil || r.Error.Status != 0 {
		t.Errorf("report = %+v", r)
	}
}
