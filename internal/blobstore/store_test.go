package blobstore

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileStoreWriteReadRoundTrip(t *testing.T) {
	store := NewFileStore(t.TempDir(), "/media/cache/")

	data := []byte("jpeg bytes")
	if err := store.Write("img/photo.abc123.jpg", data); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if !store.Exists("img/photo.abc123.jpg") {
		t.Fatal("Exists should report the written blob")
	}

	got, err := store.Read("img/photo.abc123.jpg")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("Read = %q, want %q", got, data)
	}
}

func TestFileStoreReadMissing(t *testing.T) {
	store := NewFileStore(t.TempDir(), "")

	_, err := store.Read("nope.jpg")
	if !errors.Is(err, ErrNotExist) {
		t.Errorf("Read of missing blob: got %v, want ErrNotExist", err)
	}
	if store.Exists("nope.jpg") {
		t.Error("Exists should be false for a missing blob")
	}
}

func TestFileStoreWriteLeavesNoTempFiles(t *testing.T) {
	root := t.TempDir()
	store := NewFileStore(root, "")

	if err := store.Write("a/b.jpg", []byte("x")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(root, "a"))
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if strings.Contains(entry.Name(), ".tmp.") {
			t.Errorf("temp file left behind: %s", entry.Name())
		}
	}
}

func TestFileStoreDeleteIsIdempotent(t *testing.T) {
	store := NewFileStore(t.TempDir(), "")

	if err := store.Write("x.jpg", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete("x.jpg"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete("x.jpg"); err != nil {
		t.Errorf("second Delete should be a no-op, got %v", err)
	}
}

func TestFileStoreList(t *testing.T) {
	store := NewFileStore(t.TempDir(), "")

	files := []string{"z.jpg", "a.jpg", "sub/b.jpg"}
	for _, name := range files {
		if err := store.Write(name, []byte("x")); err != nil {
			t.Fatal(err)
		}
	}

	dirs, names, err := store.List(".")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(dirs) != 1 || dirs[0] != "sub" {
		t.Errorf("dirs = %v, want [sub]", dirs)
	}
	if len(names) != 2 || names[0] != "a.jpg" || names[1] != "z.jpg" {
		t.Errorf("files = %v, want sorted [a.jpg z.jpg]", names)
	}
}

func TestFileStoreDeleteDirOnlyWhenEmpty(t *testing.T) {
	root := t.TempDir()
	store := NewFileStore(root, "")

	if err := store.Write("sub/a.jpg", []byte("x")); err != nil {
		t.Fatal(err)
	}

	removed, err := store.DeleteDir("sub")
	if err != nil {
		t.Fatalf("DeleteDir failed: %v", err)
	}
	if removed {
		t.Error("non-empty directory must survive DeleteDir")
	}

	if err := store.Delete("sub/a.jpg"); err != nil {
		t.Fatal(err)
	}
	removed, err = store.DeleteDir("sub")
	if err != nil {
		t.Fatalf("DeleteDir failed: %v", err)
	}
	if !removed {
		t.Error("empty directory should be removed")
	}
	if _, err := os.Stat(filepath.Join(root, "sub")); !errors.Is(err, os.ErrNotExist) {
		t.Error("empty directory should be gone from disk")
	}
}

func TestFileStoreURL(t *testing.T) {
	store := NewFileStore(t.TempDir(), "/media/cache/")

	if got := store.URL("img/photo.jpg"); got != "/media/cache/img/photo.jpg" {
		t.Errorf("URL = %q", got)
	}

	bare := NewFileStore(t.TempDir(), "")
	if got := bare.URL("photo.jpg"); got != "/photo.jpg" {
		t.Errorf("URL without base = %q", got)
	}
}
