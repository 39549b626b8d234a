package cache

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestCacheKey(t *testing.T) {
	a := CacheKey("openai|gpt-4o-mini|any tips?")
	b := CacheKey("openai|gpt-4o-mini|any tips?")
	c := CacheKey("openai|gpt-4o-mini|where am i?")

	if a != b {
		t.Error("Expected identical identities to produce identical keys")
	}
	if a == c {
		t.Error("Expected different identities to produce different keys")
	}
	if !strings.HasPrefix(a, "saferstep:v1:") {
		t.Errorf("Unexpected key prefix: %s", a)
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	if err := c.Set("k", []byte("v"), 20*time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if v, ok := c.Get("k"); !ok || string(v) != "v" {
		t.Fatalf("Expected hit, got %q %v", v, ok)
	}

	time.Sleep(40 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("Expected entry to expire")
	}
}

func TestLayeredCache_PromotesFromDisk(t *testing.T) {
	dir := t.TempDir()
	key := CacheKey("reply")

	first := NewLayeredCache(time.Minute, dir, time.Hour)
	if err := first.Set(key, []byte("stay on lit streets"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// A fresh process only has the disk layer populated
	second := NewLayeredCache(time.Minute, dir, time.Hour)
	v, ok := second.Get(key)
	if !ok || string(v) != "stay on lit streets" {
		t.Fatalf("Expected disk hit, got %q %v", v, ok)
	}
	if v, ok := second.memory.Get(key); !ok || string(v) != "stay on lit streets" {
		t.Error("Expected value to be promoted to memory")
	}

	if err := second.Delete(key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := second.Delete(key); err != nil {
		t.Errorf("Expected deleting a missing key to succeed, got %v", err)
	}
	if _, ok := second.Get(key); ok {
		t.Error("Expected miss after delete")
	}
}

func TestNew_SelectsLayers(t *testing.T) {
	if _, ok := New("", time.Minute, time.Hour).(*MemoryCache); !ok {
		t.Error("Expected memory cache without a directory")
	}
	if _, ok := New(t.TempDir(), time.Minute, time.Hour).(*LayeredCache); !ok {
		t.Error("Expected layered cache with a directory")
	}
}

func TestDiskCache_DropsCorruptEntries(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	key := CacheKey("corrupt")

	if err := c.Set(key, []byte("reply"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := os.WriteFile(c.path(key), []byte("{not json"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, ok := c.Get(key); ok {
		t.Fatal("Expected miss for a corrupt entry")
	}
	if _, err := os.Stat(c.path(key)); !os.IsNotExist(err) {
		t.Errorf("Expected corrupt entry to be removed, stat err = %v", err)
	}
}
