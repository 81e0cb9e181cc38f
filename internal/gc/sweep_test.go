package gc

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"

	"srcset/internal/blobstore"
	"srcset/internal/logging"
	"srcset/internal/statecache"
	"srcset/internal/variantcache"
)

type memoryState struct {
	entries map[string]string
}

func newMemoryState() *memoryState {
	return &memoryState{entries: map[string]string{}}
}

func (m *memoryState) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *memoryState) Set(_ context.Context, key, value string) error {
	m.entries[key] = value
	return nil
}

func (m *memoryState) Delete(_ context.Context, key string) error {
	delete(m.entries, key)
	return nil
}

func (m *memoryState) Count(_ context.Context) (int64, error) {
	return int64(len(m.entries)), nil
}

func (m *memoryState) Close() error { return nil }

func variantName(stem, identity string, width int) string {
	return variantcache.FileName(stem, variantcache.Request{
		Identity:  identity,
		Operation: "resize-to-fit",
		Width:     width,
		Format:    "jpeg",
		Quality:   85,
	})
}

func newFixture(t *testing.T) (cache, media *blobstore.FileStore, state *memoryState, sweeper *Sweeper) {
	t.Helper()
	cache = blobstore.NewFileStore(t.TempDir(), "/media/cache/")
	media = blobstore.NewFileStore(t.TempDir(), "/media/")
	state = newMemoryState()
	sweeper = NewSweeper(cache, []blobstore.Store{media}, state, logging.NewNop())
	return cache, media, state, sweeper
}

func TestSweepDeletesOrphansKeepsLive(t *testing.T) {
	cache, media, state, sweeper := newFixture(t)
	ctx := context.Background()

	if err := media.Write("img/photo.jpg", []byte("src")); err != nil {
		t.Fatal(err)
	}

	live := variantName("photo", "img/photo.jpg", 640)
	orphan := variantName("gone", "img/gone.jpg", 640)
	for _, name := range []string{live, orphan} {
		if err := cache.Write("img/"+name, []byte("variant")); err != nil {
			t.Fatal(err)
		}
		if err := state.Set(ctx, statecache.Key(name), "{}"); err != nil {
			t.Fatal(err)
		}
	}

	report, err := sweeper.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}

	if report.Scanned != 2 || report.Deleted != 1 || report.Kept != 1 {
		t.Errorf("report = %+v, want scanned 2 deleted 1 kept 1", report)
	}
	if !cache.Exists("img/" + live) {
		t.Error("live variant was deleted")
	}
	if cache.Exists("img/" + orphan) {
		t.Error("orphaned variant survived")
	}
	if _, ok, _ := state.Get(ctx, statecache.Key(orphan)); ok {
		t.Error("orphan state entry survived")
	}
	if _, ok, _ := state.Get(ctx, statecache.Key(live)); !ok {
		t.Error("live state entry was deleted")
	}
}

func TestSweepKeepsVariantsAcrossReencode(t *testing.T) {
	// Re-encoding a source keeps its stem; variants from the old bytes
	// must survive because matching is by stem, any extension.
	cache, media, _, sweeper := newFixture(t)

	if err := media.Write("photo.png", []byte("re-encoded")); err != nil {
		t.Fatal(err)
	}
	old := variantName("photo", "photo.jpg", 640)
	if err := cache.Write(old, []byte("variant")); err != nil {
		t.Fatal(err)
	}

	report, err := sweeper.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if report.Kept != 1 || report.Deleted != 0 {
		t.Errorf("report = %+v, want kept 1 deleted 0", report)
	}
	if !cache.Exists(old) {
		t.Error("variant of a re-encoded source was deleted")
	}
}

func TestSweepSkipsUnparseableNames(t *testing.T) {
	cache, _, _, sweeper := newFixture(t)

	if err := cache.Write("stray.jpg", []byte("x")); err != nil {
		t.Fatal(err)
	}

	report, err := sweeper.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if report.Skipped != 1 || report.Deleted != 0 {
		t.Errorf("report = %+v, want skipped 1 deleted 0", report)
	}
	if !cache.Exists("stray.jpg") {
		t.Error("unparseable file must be kept")
	}
}

func TestSweepPrunesEmptyDirectories(t *testing.T) {
	cache, _, _, sweeper := newFixture(t)

	orphan := variantName("gone", "deep/gone.jpg", 320)
	if err := cache.Write("deep/nested/"+orphan, []byte("x")); err != nil {
		t.Fatal(err)
	}

	report, err := sweeper.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if report.Deleted != 1 {
		t.Fatalf("report = %+v, want deleted 1", report)
	}
	if report.PrunedDirs != 2 {
		t.Errorf("PrunedDirs = %d, want 2 (nested and deep)", report.PrunedDirs)
	}
}

func TestSweepDryRunDeletesNothing(t *testing.T) {
	cache, _, state, sweeper := newFixture(t)
	ctx := context.Background()
	sweeper.DryRun = true

	orphan := variantName("gone", "gone.jpg", 640)
	if err := cache.Write("sub/"+orphan, []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := state.Set(ctx, statecache.Key(orphan), "{}"); err != nil {
		t.Fatal(err)
	}

	report, err := sweeper.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if report.Deleted != 1 {
		t.Errorf("dry run should still count deletions, report = %+v", report)
	}
	if report.PrunedDirs != 0 {
		t.Errorf("dry run must not prune directories, report = %+v", report)
	}
	if !cache.Exists("sub/" + orphan) {
		t.Error("dry run deleted a file")
	}
	if _, ok, _ := state.Get(ctx, statecache.Key(orphan)); !ok {
		t.Error("dry run deleted a state entry")
	}
}

func TestSweepEmptyCacheRoot(t *testing.T) {
	dir := t.TempDir()
	cache := blobstore.NewFileStore(filepath.Join(dir, "missing"), "")
	sweeper := NewSweeper(cache, nil, newMemoryState(), logging.NewNop())

	report, err := sweeper.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep of a missing cache root should succeed, got %v", err)
	}
	if report != (Report{}) {
		t.Errorf("report = %+v, want zero", report)
	}
}

func TestSweepLockExcludesConcurrentSweeps(t *testing.T) {
	cache, _, state, _ := newFixture(t)
	lockPath := filepath.Join(t.TempDir(), "gc.lock")

	first := NewSweeper(cache, nil, state, logging.NewNop())
	first.LockPath = lockPath
	second := NewSweeper(cache, nil, state, logging.NewNop())
	second.LockPath = lockPath

	// Hold the lock the way a running sweep would.
	lock := flock.New(first.LockPath)
	locked, err := lock.TryLock()
	if err != nil || !locked {
		t.Fatalf("failed to take the lock for the test: locked=%v err=%v", locked, err)
	}
	defer lock.Unlock()

	_, err = second.Sweep(context.Background())
	if !errors.Is(err, ErrSweepInProgress) {
		t.Errorf("concurrent sweep: got %v, want ErrSweepInProgress", err)
	}
}
