package variantcache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"srcset/internal/blobstore"
	"srcset/internal/logging"
	"srcset/internal/planner"
	"srcset/internal/resizer"
	"srcset/internal/sizespec"
	"srcset/internal/sources"
	"srcset/internal/statecache"
)

// ErrVariantNotFound reports a variant that vanished between planning and
// reading, i.e. a race with the garbage collector. Callers degrade to the
// source-only output; the error is never surfaced to a page.
var ErrVariantNotFound = errors.New("expected variant vanished")

// GenerationError scopes a resize failure to one width. Sibling widths are
// unaffected.
type GenerationError struct {
	Width int
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate variant width %d: %v", e.Width, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Handle describes one materialized variant.
type Handle struct {
	URL    string
	Width  int
	Height int
}

// Record is the persisted per-variant bookkeeping entry mirrored into the
// state cache. The variant file itself is the source of truth; the record
// only spares a header decode on repeat lookups.
type Record struct {
	Token     string    `json:"token"`
	Path      string    `json:"path"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	CreatedAt time.Time `json:"created_at"`
}

// Coordinator maps plans to cache files, generating bitmaps only when
// absent. Safe for concurrent use across goroutines and processes sharing
// one cache store: correctness rests on existence checks plus atomic file
// materialization, not in-process locks.
type Coordinator struct {
	cache  blobstore.Store
	state  statecache.Cache
	resize resizer.Resizer
	logger *slog.Logger
}

func New(cache blobstore.Store, state statecache.Cache, resize resizer.Resizer, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		cache:  cache,
		state:  state,
		resize: resize,
		logger: logging.NewComponentLogger(logger, "variantcache"),
	}
}

// Materialize returns handles for every width in the plan, in plan order.
// Widths whose generation fails are skipped and reported via a joined
// error; an ErrVariantNotFound return means the whole call should degrade.
func (c *Coordinator) Materialize(ctx context.Context, src *sources.Image, plan planner.Result, cfg sizespec.Resolved) ([]Handle, error) {
	format := cfg.Format
	if format == "" {
		format = src.Format
	}

	handles := make([]Handle, 0, len(plan.Widths))
	var failures []error

	for _, candidate := range plan.Widths {
		req := Request{
			Identity:  src.Name,
			Operation: cfg.Operation,
			Width:     candidate.Width,
			Format:    format,
			Quality:   cfg.Quality,
		}

		handle, err := c.materializeOne(ctx, src, req)
		if err != nil {
			if errors.Is(err, ErrVariantNotFound) {
				return nil, err
			}
			failures = append(failures, err)
			continue
		}
		handles = append(handles, handle)
	}

	return handles, errors.Join(failures...)
}

func (c *Coordinator) materializeOne(ctx context.Context, src *sources.Image, req Request) (Handle, error) {
	fileName := FileName(src.Stem(), req)
	relPath := FilePath(src.Dir(), src.Stem(), req)
	stateKey := statecache.Key(fileName)

	if record, ok := c.lookupRecord(ctx, stateKey); ok {
		if c.cache.Exists(relPath) {
			return Handle{URL: c.cache.URL(relPath), Width: record.Width, Height: record.Height}, nil
		}
		// Stale flag: the file is gone but the record survived.
		_ = c.state.Delete(ctx, stateKey)
		return Handle{}, fmt.Errorf("%w: %s", ErrVariantNotFound, relPath)
	}

	if c.cache.Exists(relPath) {
		return c.adoptExisting(ctx, relPath, fileName, req)
	}

	result, err := c.resize.Resize(src.Bytes(), req.Width, req.Format, req.Quality)
	if err != nil {
		return Handle{}, &GenerationError{Width: req.Width, Err: err}
	}

	if err := c.cache.Write(relPath, result.Data); err != nil {
		return Handle{}, &GenerationError{Width: req.Width, Err: err}
	}
	c.recordVariant(ctx, stateKey, relPath, req, result.Width, result.Height)

	c.logger.Debug("generated variant",
		logging.String("path", relPath),
		logging.Int("width", result.Width),
		logging.Int("height", result.Height))

	return Handle{URL: c.cache.URL(relPath), Width: result.Width, Height: result.Height}, nil
}

// adoptExisting serves a variant another process generated: read its
// header for dimensions and backfill the state record. Never re-encodes.
func (c *Coordinator) adoptExisting(ctx context.Context, relPath, fileName string, req Request) (Handle, error) {
	data, err := c.cache.Read(relPath)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotExist) {
			return Handle{}, fmt.Errorf("%w: %s", ErrVariantNotFound, relPath)
		}
		return Handle{}, &GenerationError{Width: req.Width, Err: err}
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Handle{}, &GenerationError{Width: req.Width, Err: err}
	}

	c.recordVariant(ctx, statecache.Key(fileName), relPath, req, cfg.Width, cfg.Height)
	return Handle{URL: c.cache.URL(relPath), Width: cfg.Width, Height: cfg.Height}, nil
}

func (c *Coordinator) lookupRecord(ctx context.Context, stateKey string) (Record, bool) {
	value, found, err := c.state.Get(ctx, stateKey)
	if err != nil {
		c.logger.Warn("state cache lookup failed",
			logging.String(logging.FieldEventType, "state_lookup_failed"),
			logging.Error(err),
			logging.String(logging.FieldImpact, "falling back to blob store check"))
		return Record{}, false
	}
	if !found {
		return Record{}, false
	}

	var record Record
	if err := json.Unmarshal([]byte(value), &record); err != nil {
		_ = c.state.Delete(ctx, stateKey)
		return Record{}, false
	}
	return record, true
}

func (c *Coordinator) recordVariant(ctx context.Context, stateKey, relPath string, req Request, width, height int) {
	record := Record{
		Token:     Token(req),
		Path:      relPath,
		Width:     width,
		Height:    height,
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return
	}
	if err := c.state.Set(ctx, stateKey, string(data)); err != nil {
		c.logger.Warn("state cache update failed",
			logging.String(logging.FieldEventType, "state_update_failed"),
			logging.Error(err),
			logging.String(logging.FieldImpact, "next lookup checks the blob store instead"))
	}
}
