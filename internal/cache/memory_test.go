package cache

import (
	"context"
	"testing"
	"time"

	"github.com/ppiankov/notionblog/internal/config"
)

func TestMemory_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Fatal("expected miss on empty cache")
	}
	if err := m.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok, err := m.Get(ctx, "k")
	if err != nil || !ok || string(got) != "v" {
		t.Fatalf("get = %q %v %v", got, ok, err)
	}
	if err := m.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Error("expected miss after delete")
	}
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	_ = m.Set(ctx, "short", []byte("a"), time.Second)
	_ = m.Set(ctx, "forever", []byte("b"), 0)

	now = now.Add(999 * time.Millisecond)
	if _, ok, _ := m.Get(ctx, "short"); !ok {
		t.Error("entry expired early")
	}

	now = now.Add(time.Millisecond)
	if _, ok, _ := m.Get(ctx, "short"); ok {
		t.Error("entry should have expired at its ttl")
	}
	if m.Len() != 1 {
		t.Errorf("len = %d, want expired entry evicted", m.Len())
	}

	now = now.Add(24 * time.Hour)
	if _, ok, _ := m.Get(ctx, "forever"); !ok {
		t.Error("zero ttl should never expire")
	}
}

func TestMemory_CopiesValue(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	buf := []byte("abc")
	_ = m.Set(ctx, "k", buf, time.Minute)
	buf[0] = 'z'

	got, _, _ := m.Get(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("got %q, cache must not alias caller buffer", got)
	}
}

func TestNew_Backends(t *testing.T) {
	tests := []struct {
		backend string
		wantErr bool
	}{
		{"memory", false},
		{"", false},
		{"none", false},
		{"redis", false},
		{"memcached", true},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			st, err := New(config.CacheConfig{Backend: tt.backend, Redis: config.RedisConfig{Addr: "localhost:0"}})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if r, ok := st.(*Redis); ok {
				_ = r.Close()
			}
		})
	}
}

func TestNop(t *testing.T) {
	ctx := context.Background()
	var n Nop
	_ = n.Set(ctx, "k", []byte("v"), time.Minute)
	if _, ok, err := n.Get(ctx, "k"); ok || err != nil {
		t.Errorf("nop get = %v %v", ok, err)
	}
}
