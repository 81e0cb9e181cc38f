package sources

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"path"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"srcset/internal/blobstore"
)

// ErrMissingSource reports a reference no configured store can resolve.
var ErrMissingSource = errors.New("source image not found")

// Image is a resolved source image. Values are immutable per invocation
// and never cached across calls.
type Image struct {
	// Name is the store-relative path, forward slashes.
	Name   string
	URL    string
	Width  int
	Height int
	// Format is the decoded bitmap format; "svg" for vector sources.
	Format string

	data []byte
}

// Bytes returns the raw source bytes.
func (img *Image) Bytes() []byte {
	return img.data
}

// IsSVG reports whether the source is a vector image.
func (img *Image) IsSVG() bool {
	return img.Format == "svg"
}

// Stem returns the file name without its extension.
func (img *Image) Stem() string {
	base := path.Base(img.Name)
	return strings.TrimSuffix(base, path.Ext(base))
}

// Dir returns the store-relative directory of the source.
func (img *Image) Dir() string {
	dir := path.Dir(img.Name)
	if dir == "." {
		return ""
	}
	return dir
}

// Provider resolves references against the managed media store and the
// static-assets stores, in that order.
type Provider struct {
	media   blobstore.Store
	statics []blobstore.Store
}

func NewProvider(media blobstore.Store, statics []blobstore.Store) *Provider {
	return &Provider{media: media, statics: statics}
}

// Stores returns every store a source may live in, resolution order.
// The garbage collector checks variant stems against the same set.
func (p *Provider) Stores() []blobstore.Store {
	stores := make([]blobstore.Store, 0, len(p.statics)+1)
	if p.media != nil {
		stores = append(stores, p.media)
	}
	return append(stores, p.statics...)
}

// Resolve loads the image behind a path reference.
func (p *Provider) Resolve(ref string) (*Image, error) {
	ref = strings.TrimPrefix(path.Clean("/"+ref), "/")
	if ref == "" {
		return nil, fmt.Errorf("%w: empty reference", ErrMissingSource)
	}

	for _, store := range p.Stores() {
		if !store.Exists(ref) {
			continue
		}
		data, err := store.Read(ref)
		if err != nil {
			return nil, fmt.Errorf("read source %s: %w", ref, err)
		}
		return newImage(ref, store.URL(ref), data)
	}

	return nil, fmt.Errorf("%w: %s", ErrMissingSource, ref)
}

// FromReader wraps an already-open byte stream as an Image. name supplies
// the logical path and url the public location of the original.
func FromReader(name, url string, r io.Reader) (*Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read source %s: %w", name, err)
	}
	return newImage(name, url, data)
}

func newImage(name, url string, data []byte) (*Image, error) {
	img := &Image{Name: name, URL: url, data: data}

	if strings.EqualFold(path.Ext(name), ".svg") {
		img.Format = "svg"
		return img, nil
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode source %s: %w", name, err)
	}
	img.Width = cfg.Width
	img.Height = cfg.Height
	img.Format = format
	return img, nil
}
