package variantcache

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"

	"srcset/internal/blobstore"
	"srcset/internal/planner"
	"srcset/internal/resizer"
	"srcset/internal/sizespec"
	"srcset/internal/sources"
)

// memoryState is an in-process statecache.Cache for tests.
type memoryState struct {
	mu      sync.Mutex
	entries map[string]string
}

func newMemoryState() *memoryState {
	return &memoryState{entries: map[string]string{}}
}

func (m *memoryState) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.entries[key]
	return value, ok, nil
}

func (m *memoryState) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	return nil
}

func (m *memoryState) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *memoryState) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.entries)), nil
}

func (m *memoryState) Close() error { return nil }

// countingResizer wraps the real resizer and counts invocations, with an
// optional per-width failure injection.
type countingResizer struct {
	inner     resizer.ImagingResizer
	calls     int
	failWidth int
}

func (c *countingResizer) Resize(data []byte, width int, format string, quality int) (resizer.Result, error) {
	c.calls++
	if c.failWidth != 0 && width == c.failWidth {
		return resizer.Result{}, resizer.ErrResize
	}
	return c.inner.Resize(data, width, format, quality)
}

func testSource(t *testing.T, name string, width, height int) *sources.Image {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		img.Set(x, 0, color.RGBA{B: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	src, err := sources.FromReader(name, "/media/"+name, bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("build test source: %v", err)
	}
	return src
}

func testPlan(widths ...int) planner.Result {
	result := planner.Result{BaseWidth: widths[0]}
	for i, width := range widths {
		result.Widths = append(result.Widths, planner.Candidate{Width: width, Required: i == 0})
	}
	return result
}

func testConfig() sizespec.Resolved {
	return sizespec.Resolved{Operation: sizespec.DefaultOperation, Quality: 80}
}

func TestMaterializeGeneratesThenReuses(t *testing.T) {
	ctx := context.Background()
	cache := blobstore.NewFileStore(t.TempDir(), "/media/cache/")
	state := newMemoryState()
	counter := &countingResizer{}
	coordinator := New(cache, state, counter, nil)

	src := testSource(t, "img/photo.png", 400, 200)
	plan := testPlan(400, 200, 100)

	first, err := coordinator.Materialize(ctx, src, plan, testConfig())
	if err != nil {
		t.Fatalf("first Materialize failed: %v", err)
	}
	if len(first) != 3 {
		t.Fatalf("handles = %d, want 3", len(first))
	}
	if counter.calls != 3 {
		t.Errorf("resizer calls = %d, want 3", counter.calls)
	}
	if first[0].Width != 400 || first[0].Height != 200 {
		t.Errorf("base handle = %dx%d, want 400x200", first[0].Width, first[0].Height)
	}

	second, err := coordinator.Materialize(ctx, src, plan, testConfig())
	if err != nil {
		t.Fatalf("second Materialize failed: %v", err)
	}
	if counter.calls != 3 {
		t.Errorf("resizer calls after second run = %d, want 3 (zero new invocations)", counter.calls)
	}
	if len(second) != len(first) {
		t.Fatalf("second run handles = %d, want %d", len(second), len(first))
	}
	for i := range first {
		if second[i] != first[i] {
			t.Errorf("handle[%d] changed between runs: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestMaterializeAdoptsForeignVariant(t *testing.T) {
	ctx := context.Background()
	cache := blobstore.NewFileStore(t.TempDir(), "/cache/")
	state := newMemoryState()
	counter := &countingResizer{}
	coordinator := New(cache, state, counter, nil)

	src := testSource(t, "photo.png", 200, 100)
	req := Request{Identity: "photo.png", Operation: sizespec.DefaultOperation, Width: 200, Format: "png", Quality: 80}

	// Simulate another process having generated the variant already.
	pre := &countingResizer{}
	result, err := pre.Resize(src.Bytes(), 200, "png", 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := cache.Write(FilePath("", "photo", req), result.Data); err != nil {
		t.Fatal(err)
	}

	handles, err := coordinator.Materialize(ctx, src, testPlan(200), testConfig())
	if err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}
	if counter.calls != 0 {
		t.Errorf("resizer calls = %d, want 0 for an existing variant", counter.calls)
	}
	if handles[0].Width != 200 || handles[0].Height != 100 {
		t.Errorf("adopted handle = %dx%d, want 200x100", handles[0].Width, handles[0].Height)
	}
}

func TestMaterializeScopedGenerationFailure(t *testing.T) {
	ctx := context.Background()
	cache := blobstore.NewFileStore(t.TempDir(), "/cache/")
	coordinator := New(cache, newMemoryState(), &countingResizer{failWidth: 200}, nil)

	src := testSource(t, "photo.png", 400, 200)
	handles, err := coordinator.Materialize(ctx, src, testPlan(400, 200, 100), testConfig())

	if err == nil {
		t.Fatal("expected a scoped generation error")
	}
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("error type = %T, want *GenerationError", err)
	}
	if genErr.Width != 200 {
		t.Errorf("failed width = %d, want 200", genErr.Width)
	}
	if len(handles) != 2 {
		t.Errorf("handles = %d, want 2 surviving siblings", len(handles))
	}
}

func TestMaterializeDegradesOnVanishedVariant(t *testing.T) {
	ctx := context.Background()
	cache := blobstore.NewFileStore(t.TempDir(), "/cache/")
	state := newMemoryState()
	coordinator := New(cache, state, &countingResizer{}, nil)

	src := testSource(t, "photo.png", 300, 150)
	plan := testPlan(300)

	if _, err := coordinator.Materialize(ctx, src, plan, testConfig()); err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}

	// The garbage collector removes the file but the state flag survives
	// long enough for the next call to observe the gap.
	req := Request{Identity: "photo.png", Operation: sizespec.DefaultOperation, Width: 300, Format: "png", Quality: 80}
	if err := cache.Delete(FilePath("", "photo", req)); err != nil {
		t.Fatal(err)
	}

	if _, err := coordinator.Materialize(ctx, src, plan, testConfig()); !errors.Is(err, ErrVariantNotFound) {
		t.Errorf("got %v, want ErrVariantNotFound", err)
	}
}

func TestTokenDeterminism(t *testing.T) {
	req := Request{Identity: "img/photo.png", Operation: "resize-to-fit", Width: 480, Format: "jpeg", Quality: 91}

	first := Token(req)
	second := Token(req)
	if first != second {
		t.Errorf("token not deterministic: %q vs %q", first, second)
	}
	if len(first) != 16 {
		t.Errorf("token length = %d, want 16", len(first))
	}
	for _, r := range first {
		if !strings.ContainsRune("0123456789abcdef", r) {
			t.Errorf("token %q contains non-hex rune %q", first, r)
		}
	}
}

func TestTokenSensitivity(t *testing.T) {
	base := Request{Identity: "img/photo.png", Operation: "resize-to-fit", Width: 480, Format: "jpeg", Quality: 91}

	variants := []Request{
		{Identity: "img/other.png", Operation: base.Operation, Width: base.Width, Format: base.Format, Quality: base.Quality},
		{Identity: base.Identity, Operation: "crop", Width: base.Width, Format: base.Format, Quality: base.Quality},
		{Identity: base.Identity, Operation: base.Operation, Width: 481, Format: base.Format, Quality: base.Quality},
		{Identity: base.Identity, Operation: base.Operation, Width: base.Width, Format: "png", Quality: base.Quality},
		{Identity: base.Identity, Operation: base.Operation, Width: base.Width, Format: base.Format, Quality: 90},
	}
	for _, req := range variants {
		if Token(req) == Token(base) {
			t.Errorf("token collision for %+v", req)
		}
	}
}

func TestFilePathLayout(t *testing.T) {
	req := Request{Identity: "img/photo.png", Operation: "resize-to-fit", Width: 480, Format: "jpeg", Quality: 91}

	got := FilePath("img", "photo", req)
	want := "img/photo." + Token(req) + ".jpg"
	if got != want {
		t.Errorf("FilePath = %q, want %q", got, want)
	}

	if got := FilePath("", "photo", req); got != "photo."+Token(req)+".jpg" {
		t.Errorf("root FilePath = %q", got)
	}
}
