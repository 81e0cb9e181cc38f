package gc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/gofrs/flock"

	"srcset/internal/blobstore"
	"srcset/internal/logging"
	"srcset/internal/statecache"
	"srcset/internal/variantcache"
)

// ErrSweepInProgress reports that another process holds the sweep lock.
var ErrSweepInProgress = errors.New("another sweep is already running")

// Report summarizes one sweep.
type Report struct {
	Scanned    int
	Deleted    int
	Kept       int
	Skipped    int
	PrunedDirs int
	Errors     int
}

// Sweeper deletes orphaned variants from the cache store.
type Sweeper struct {
	cache   blobstore.Store
	sources []blobstore.Store
	state   statecache.Cache
	logger  *slog.Logger

	// LockPath guards against concurrent sweeps when non-empty.
	LockPath string
	// DryRun reports what a sweep would delete without deleting it.
	DryRun bool
}

func NewSweeper(cache blobstore.Store, sources []blobstore.Store, state statecache.Cache, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		cache:   cache,
		sources: sources,
		state:   state,
		logger:  logging.NewComponentLogger(logger, "gc"),
	}
}

// Sweep walks the whole cache tree once. Per-file errors are logged and
// counted, never fatal; only a failure to start the walk aborts.
func (s *Sweeper) Sweep(ctx context.Context) (Report, error) {
	if s.LockPath != "" {
		lock := flock.New(s.LockPath)
		locked, err := lock.TryLock()
		if err != nil {
			return Report{}, fmt.Errorf("acquire sweep lock: %w", err)
		}
		if !locked {
			return Report{}, ErrSweepInProgress
		}
		defer lock.Unlock()
	}

	var report Report
	if err := s.sweepDir(ctx, "", &report); err != nil {
		return report, err
	}

	s.logger.Info("sweep complete",
		logging.String(logging.FieldEventType, "gc_sweep_complete"),
		logging.Bool("dry_run", s.DryRun),
		logging.Int("scanned", report.Scanned),
		logging.Int("deleted", report.Deleted),
		logging.Int("kept", report.Kept),
		logging.Int("skipped", report.Skipped),
		logging.Int("pruned_dirs", report.PrunedDirs),
		logging.Int("errors", report.Errors))

	return report, nil
}

func (s *Sweeper) sweepDir(ctx context.Context, relDir string, report *Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dirs, files, err := s.cache.List(dirOrDot(relDir))
	if err != nil {
		if relDir == "" {
			if errors.Is(err, blobstore.ErrNotExist) {
				return nil // nothing cached yet
			}
			return fmt.Errorf("list cache root: %w", err)
		}
		s.fileError(relDir, err, report)
		return nil
	}

	for _, name := range files {
		s.sweepFile(ctx, relDir, name, report)
	}

	for _, dir := range dirs {
		child := path.Join(relDir, dir)
		if err := s.sweepDir(ctx, child, report); err != nil {
			return err
		}
		if s.DryRun {
			continue
		}
		removed, err := s.cache.DeleteDir(child)
		if err != nil {
			s.fileError(child, err, report)
			continue
		}
		if removed {
			report.PrunedDirs++
			s.logger.Debug("pruned empty directory", logging.String("dir", child))
		}
	}

	return nil
}

func (s *Sweeper) sweepFile(ctx context.Context, relDir, name string, report *Report) {
	report.Scanned++

	stem, ok := variantcache.SourceStem(name)
	if !ok {
		// Cannot determine the source: keep the file.
		report.Skipped++
		return
	}

	present, ambiguous := s.sourcePresent(relDir, stem)
	if ambiguous {
		report.Errors++
		report.Kept++
		return
	}
	if present {
		report.Kept++
		return
	}

	relPath := path.Join(relDir, name)
	if s.DryRun {
		report.Deleted++
		s.logger.Info("would delete orphaned variant", logging.String("path", relPath))
		return
	}

	if err := s.cache.Delete(relPath); err != nil {
		s.fileError(relPath, err, report)
		return
	}
	if err := s.state.Delete(ctx, statecache.Key(name)); err != nil {
		s.fileError(relPath, err, report)
	}
	report.Deleted++
	s.logger.Info("deleted orphaned variant", logging.String("path", relPath))
}

// sourcePresent reports whether any source store holds a file with the
// stem (any extension) in the matching relative directory. An I/O failure
// while checking makes the answer ambiguous, which callers treat as keep.
func (s *Sweeper) sourcePresent(relDir, stem string) (present, ambiguous bool) {
	for _, store := range s.sources {
		_, files, err := store.List(dirOrDot(relDir))
		if err != nil {
			if errors.Is(err, blobstore.ErrNotExist) {
				continue
			}
			return false, true
		}
		for _, file := range files {
			if strings.TrimSuffix(file, path.Ext(file)) == stem {
				return true, false
			}
		}
	}
	return false, false
}

func (s *Sweeper) fileError(relPath string, err error, report *Report) {
	report.Errors++
	s.logger.Warn("sweep error",
		logging.String(logging.FieldEventType, "gc_file_error"),
		logging.String("path", relPath),
		logging.Error(err),
		logging.String(logging.FieldImpact, "entry kept until the next sweep"))
}

func dirOrDot(relDir string) string {
	if relDir == "" {
		return "."
	}
	return relDir
}
