package cli

import (
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/holly-cummins/extensions.io/pkg/cache"
	"github.com/holly-cummins/extensions.io/pkg/config"
	"github.com/holly-cummins/extensions.io/pkg/enrich"
)

func TestCacheDir(t *testing.T) {
	c := New(io.Discard, LogInfo)

	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	dir, err := c.cacheDir()
	if err != nil || dir != filepath.Join("/tmp/xdg", "enricher") {
		t.Errorf("cacheDir() = %q, %v", dir, err)
	}

	c.cfg = config.Default()
	c.cfg.Cache.Dir = "/srv/cache"
	if dir, _ := c.cacheDir(); dir != "/srv/cache" {
		t.Errorf("configured cacheDir() = %q", dir)
	}
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	c := New(io.Discard, LogInfo)
	c.cfg.Cache.Dir = t.TempDir()

	store, closeStore, err := c.openStore(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	defer closeStore()
	fs, ok := store.(*cache.FileStore)
	if !ok || fs.Dir() != filepath.Join(c.cfg.Cache.Dir, snapshotDir) {
		t.Errorf("store = %v", store)
	}

	store, _, _ = c.openStore(ctx, true)
	if _, ok := store.(cache.NullStore); !ok {
		t.Errorf("--no-cache store = %T", store)
	}
}

func TestCacheStats(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	store, err := cache.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	err = store.Save(ctx, enrich.IssuesCache, &cache.Snapshot{
		Version: cache.SnapshotVersion,
		Entries: map[string]cache.Entry{
			"a": {Value: json.RawMessage(`{}`), ExpiresAt: now.Add(time.Hour)},
			"b": {Value: json.RawMessage(`{}`), ExpiresAt: now.Add(-time.Hour)},
			"c": {Value: json.RawMessage(`{}`), ExpiresAt: now.Add(time.Minute)},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	rows, err := cacheStats(ctx, store, now)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != len(enrich.CacheNames) {
		t.Fatalf("got %d rows", len(rows))
	}
	for _, r := range rows {
		want := []string{r[0], "0", "0"}
		if r[0] == enrich.IssuesCache {
			want = []string{r[0], "2", "1"}
		}
		if r[1] != want[1] || r[2] != want[2] {
			t.Errorf("row %v, want %v", r, want)
		}
	}
}
