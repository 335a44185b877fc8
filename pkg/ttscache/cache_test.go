package ttscache

import (
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/fairgo/ai-ivr/pkg/metrics"
)

func newTestCache(t *testing.T, maxEntries int, maxBytes int64) *Cache {
	t.Helper()
	c, err := New(Options{Dir: t.TempDir(), MaxEntries: maxEntries, MaxBytes: maxBytes}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func age(t *testing.T, c *Cache, key string, d time.Duration) {
	t.Helper()
	ts := time.Now().Add(-d)
	if err := os.Chtimes(c.path(key), ts, ts); err != nil {
		t.Fatal(err)
	}
}

func TestKeyIsStable(t *testing.T) {
	a := Key("നന്ദി", "travancore", "v1", 0.9, -0.5, "mp3")
	b := Key("നന്ദി", "travancore", "v1", 0.9, -0.5, "mp3")
	if a != b || len(a) != 64 {
		t.Fatalf("unstable key %s / %s", a, b)
	}
	variants := []string{
		Key("നന്ദി", "malabar", "v1", 0.9, -0.5, "mp3"),
		Key("നന്ദി", "travancore", "v2", 0.9, -0.5, "mp3"),
		Key("നന്ദി", "travancore", "v1", 1.0, -0.5, "mp3"),
		Key("നന്ദി", "travancore", "v1", 0.9, 0, "mp3"),
		Key("നന്ദി", "travancore", "v1", 0.9, -0.5, "wav"),
	}
	for i, v := range variants {
		if v == a {
			t.Errorf("variant %d collides with base key", i)
		}
	}
}

func TestGetPut(t *testing.T) {
	metrics.Reset()
	c := newTestCache(t, 0, 0)
	key := Key("hello", "standard", "", 1, 0, "")

	if _, err := c.Get(key); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected miss, got %v", err)
	}
	if err := c.Put(key, &Entry{Data: []byte("ID3\x00audio\nwith newline"), ContentType: "audio/mpeg"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := c.Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ContentType != "audio/mpeg" || string(got.Data) != "ID3\x00audio\nwith newline" {
		t.Errorf("unexpected entry %+v", got)
	}

	cache := metrics.GetMetrics()["tts_cache"].(map[string]interface{})
	if cache["hits"].(int64) != 1 || cache["misses"].(int64) != 1 {
		t.Errorf("unexpected cache metrics %v", cache)
	}
}

func TestPutRejectsBadInput(t *testing.T) {
	c := newTestCache(t, 0, 0)
	if err := c.Put("../etc/passwd", &Entry{Data: []byte("x")}); err == nil {
		t.Error("expected invalid key error")
	}
	if err := c.Put(Key("a", "", "", 0, 0, ""), &Entry{}); err == nil {
		t.Error("expected empty audio error")
	}
	if err := c.Put(Key("a", "", "", 0, 0, ""), &Entry{Data: []byte("x"), ContentType: "a\nb"}); err == nil {
		t.Error("expected invalid content type error")
	}
}

func TestEvictsOldestByCount(t *testing.T) {
	metrics.Reset()
	c := newTestCache(t, 2, 0)
	k1, k2, k3 := Key("1", "", "", 0, 0, ""), Key("2", "", "", 0, 0, ""), Key("3", "", "", 0, 0, "")

	mustPut(t, c, k1, "one")
	age(t, c, k1, 3*time.Minute)
	mustPut(t, c, k2, "two")
	age(t, c, k2, 2*time.Minute)

	// A hit makes k1 the most recently used.
	if _, err := c.Get(k1); err != nil {
		t.Fatal(err)
	}
	mustPut(t, c, k3, "three")

	if _, err := c.Get(k2); !errors.Is(err, ErrMiss) {
		t.Errorf("k2 should have been evicted, got %v", err)
	}
	for _, k := range []string{k1, k3} {
		if _, err := c.Get(k); err != nil {
			t.Errorf("expected %s to survive: %v", k[:8], err)
		}
	}
	cache := metrics.GetMetrics()["tts_cache"].(map[string]interface{})
	if cache["evictions"].(int64) != 1 {
		t.Errorf("evictions = %v", cache["evictions"])
	}
}

func TestEvictsOldestByBytes(t *testing.T) {
	c := newTestCache(t, 0, 30)
	k1, k2 := Key("1", "", "", 0, 0, ""), Key("2", "", "", 0, 0, "")

	mustPut(t, c, k1, "0123456789")
	age(t, c, k1, time.Minute)
	mustPut(t, c, k2, "0123456789")

	stats, err := c.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Entries != 1 || stats.Bytes > 30 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if _, err := c.Get(k2); err != nil {
		t.Errorf("newest entry evicted: %v", err)
	}
}

func TestCorruptEntryIsMiss(t *testing.T) {
	c := newTestCache(t, 0, 0)
	key := Key("x", "", "", 0, 0, "")
	if err := os.WriteFile(c.path(key), []byte("no header"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(key); !errors.Is(err, ErrMiss) {
		t.Errorf("got %v", err)
	}
	if _, err := os.Stat(c.path(key)); !os.IsNotExist(err) {
		t.Error("corrupt entry not removed")
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := newTestCache(t, 5, 0)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := Key(string(rune('a'+i)), "", "", 0, 0, "")
			if err := c.Put(key, &Entry{Data: []byte("audio"), ContentType: "audio/wav"}); err != nil {
				t.Error(err)
			}
			_, _ = c.Get(key)
		}(i)
	}
	wg.Wait()

	stats, err := c.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Entries > 5 {
		t.Errorf("entries = %d, want <= 5", stats.Entries)
	}
}

func mustPut(t *testing.T, c *Cache, key, data string) {
	t.Helper()
	if err := c.Put(key, &Entry{Data: []byte(data), ContentType: "audio/wav"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
}
