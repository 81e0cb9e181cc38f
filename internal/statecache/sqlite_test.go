package statecache

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestCache(t *testing.T) *SQLiteCache {
	t.Helper()
	cache, err := OpenSQLite(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestSQLiteSetGetDelete(t *testing.T) {
	ctx := context.Background()
	cache := openTestCache(t)

	key := Key("photo.3f9ac2d4e1b07a55.jpg")
	if err := cache.Set(ctx, key, `{"width":480}`); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	value, found, err := cache.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !found {
		t.Fatal("key should be present after Set")
	}
	if value != `{"width":480}` {
		t.Errorf("value = %q", value)
	}

	if err := cache.Delete(ctx, key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, found, _ := cache.Get(ctx, key); found {
		t.Error("key should be gone after Delete")
	}
}

func TestSQLiteSetOverwrites(t *testing.T) {
	ctx := context.Background()
	cache := openTestCache(t)

	if err := cache.Set(ctx, "k", "v1"); err != nil {
		t.Fatal(err)
	}
	if err := cache.Set(ctx, "k", "v2"); err != nil {
		t.Fatal(err)
	}

	value, _, err := cache.Get(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if value != "v2" {
		t.Errorf("value = %q, want v2", value)
	}

	count, err := cache.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestSQLiteDeleteMissingKey(t *testing.T) {
	cache := openTestCache(t)
	if err := cache.Delete(context.Background(), "absent"); err != nil {
		t.Errorf("Delete of absent key should be a no-op, got %v", err)
	}
}

func TestSQLitePersistsAcrossOpens(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	first, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := first.Set(ctx, "k", "v"); err != nil {
		t.Fatal(err)
	}
	if err := first.Close(); err != nil {
		t.Fatal(err)
	}

	second, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()

	value, found, err := second.Get(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if !found || value != "v" {
		t.Errorf("entry should survive reopen, got %q found=%v", value, found)
	}
}

func TestKeyDerivation(t *testing.T) {
	got := Key("photo.3f9ac2d4e1b07a55.jpg")
	want := "srcset:state:photo.3f9ac2d4e1b07a55.jpg"
	if got != want {
		t.Errorf("Key = %q, want %q", got, want)
	}
}
