package blobstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// ErrNotExist reports a path with no stored bytes behind it.
var ErrNotExist = errors.New("blob does not exist")

// Store is the byte storage capability consumed by the cache coordinator
// and the garbage collector.
type Store interface {
	// Exists reports whether a blob is stored at the relative path.
	Exists(relPath string) bool
	// Read returns the blob bytes. Wraps ErrNotExist when absent.
	Read(relPath string) ([]byte, error)
	// Write stores the blob atomically, creating parent directories.
	Write(relPath string, data []byte) error
	// Delete removes the blob. Deleting an absent blob is not an error.
	Delete(relPath string) error
	// DeleteDir removes the directory if it is empty and reports whether
	// it did.
	DeleteDir(relPath string) (bool, error)
	// List returns the immediate subdirectories and files of a directory.
	List(relPath string) (dirs []string, files []string, err error)
	// URL maps a relative path to its public URL.
	URL(relPath string) string
}

// FileStore is a filesystem-backed Store rooted at a single directory.
type FileStore struct {
	root    string
	baseURL string
}

// NewFileStore creates a store rooted at root. baseURL is the public URL
// prefix variants are served under, e.g. "/media/cache/".
func NewFileStore(root, baseURL string) *FileStore {
	return &FileStore{root: filepath.Clean(root), baseURL: strings.TrimSuffix(baseURL, "/")}
}

// Root returns the absolute root directory of the store.
func (s *FileStore) Root() string {
	return s.root
}

func (s *FileStore) abs(relPath string) string {
	return filepath.Join(s.root, filepath.FromSlash(relPath))
}

func (s *FileStore) Exists(relPath string) bool {
	info, err := os.Stat(s.abs(relPath))
	return err == nil && !info.IsDir()
}

func (s *FileStore) Read(relPath string) ([]byte, error) {
	data, err := os.ReadFile(s.abs(relPath))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotExist, relPath)
		}
		return nil, fmt.Errorf("read blob %s: %w", relPath, err)
	}
	return data, nil
}

func (s *FileStore) Write(relPath string, data []byte) error {
	target := s.abs(relPath)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create blob directory: %w", err)
	}

	// Unique temp name keeps concurrent writers of the same key from
	// clobbering each other's in-flight bytes.
	tmpPath := target + ".tmp." + uuid.NewString()
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp blob: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp blob: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(relPath string) error {
	if err := os.Remove(s.abs(relPath)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete blob %s: %w", relPath, err)
	}
	return nil
}

func (s *FileStore) DeleteDir(relPath string) (bool, error) {
	target := s.abs(relPath)
	entries, err := os.ReadDir(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("list directory %s: %w", relPath, err)
	}
	if len(entries) > 0 {
		return false, nil
	}
	if err := os.Remove(target); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("remove directory %s: %w", relPath, err)
	}
	return true, nil
}

func (s *FileStore) List(relPath string) ([]string, []string, error) {
	entries, err := os.ReadDir(s.abs(relPath))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotExist, relPath)
		}
		return nil, nil, fmt.Errorf("list directory %s: %w", relPath, err)
	}

	var dirs, files []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, entry.Name())
		} else {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(dirs)
	sort.Strings(files)
	return dirs, files, nil
}

func (s *FileStore) URL(relPath string) string {
	cleaned := path.Clean("/" + strings.ReplaceAll(relPath, "\\", "/"))
	return s.baseURL + cleaned
}
