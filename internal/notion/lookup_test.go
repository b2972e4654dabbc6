package notion

import (
	"encoding/json"
	"testing"
)

func decodeObject(t *testing.T, raw string) Object {
	t.Helper()
	var o Object
	if err := json.Unmarshal([]byte(raw), &o); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return o
}

func TestLookup(t *testing.T) {
	page := decodeObject(t, `{
		"id": "p1",
		"properties": {
			"Name": {"title": [{"plain_text": "Hello"}]},
			"Date": {"date": null},
			"Tags": {"multi_select": [{"name": "go"}, {"name": "notion"}]},
			"Published": {"checkbox": true}
		}
	}`)

	if got := StringOr(page, "Untitled", "properties", "Name", "title", 0, "plain_text"); got != "Hello" {
		t.Errorf("title = %q", got)
	}
	if got := StringOr(page, "none", "properties", "Date", "date", "start"); got != "none" {
		t.Errorf("null date should default, got %q", got)
	}
	if got := StringOr(page, "none", "properties", "Name", "title", 5, "plain_text"); got != "none" {
		t.Errorf("out of range index should default, got %q", got)
	}
	if got := StringOr(page, "none", "properties", "Name", "title", -1); got != "none" {
		t.Errorf("negative index should default, got %q", got)
	}
	if got := StringOr(page, "none", "properties", "Tags", "multi_select"); got != "none" {
		t.Errorf("non-string should default, got %q", got)
	}
	if got := StringOr(page, "none", "id", "nested"); got != "none" {
		t.Errorf("key into string should default, got %q", got)
	}
	if got := StringOr(page, "none", 1.5); got != "none" {
		t.Errorf("unsupported step should default, got %q", got)
	}
	if !BoolOr(page, false, "properties", "Published", "checkbox") {
		t.Error("published should be true")
	}
	if BoolOr(page, false, "properties", "Missing", "checkbox") {
		t.Error("missing bool should default to false")
	}
	if got := ListAt(page, "properties", "Tags", "multi_select"); len(got) != 2 {
		t.Errorf("tags = %v", got)
	}
	if got := ListAt(page, "properties", "Name"); got != nil {
		t.Errorf("map should not be returned as list, got %v", got)
	}
}

func TestLookup_NilRoot(t *testing.T) {
	if _, ok := Lookup(nil, "a"); ok {
		t.Error("nil root should not resolve")
	}
	if _, ok := Lookup(nil); ok {
		t.Error("nil root with empty path should not resolve")
	}
	if StringOr(nil, "d", "x") != "d" {
		t.Error("nil root should default")
	}
}

func TestObjectAccessors(t *testing.T) {
	o := Object{"id": "b1", "type": "heading_1"}
	if o.ID() != "b1" || o.Type() != "heading_1" {
		t.Errorf("accessors = %q %q", o.ID(), o.Type())
	}
	var empty Object
	if empty.ID() != "" || empty.Type() != "" {
		t.Error("nil object should yield empty strings")
	}
}
