package resizer

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
)

// ErrResize marks unsupported or corrupt input.
var ErrResize = errors.New("resize failed")

// Result carries the encoded variant and its actual dimensions.
type Result struct {
	Data   []byte
	Width  int
	Height int
	Format string
}

// Resizer is the bitmap decode/resize/encode capability.
type Resizer interface {
	// Resize scales data proportionally to the target width and encodes it.
	// An empty format keeps the source format; quality 0 uses the encoder
	// default and only applies to JPEG output.
	Resize(data []byte, targetWidth int, format string, quality int) (Result, error)
}

// ImagingResizer implements Resizer with Lanczos resampling.
type ImagingResizer struct{}

func New() ImagingResizer {
	return ImagingResizer{}
}

func (ImagingResizer) Resize(data []byte, targetWidth int, format string, quality int) (Result, error) {
	if targetWidth <= 0 {
		return Result{}, fmt.Errorf("%w: target width %d", ErrResize, targetWidth)
	}

	img, sourceFormat, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("%w: decode: %v", ErrResize, err)
	}

	if format == "" {
		format = sourceFormat
	}
	encFormat, err := parseFormat(format)
	if err != nil {
		return Result{}, err
	}

	resized := imaging.Resize(img, targetWidth, 0, imaging.Lanczos)
	bounds := resized.Bounds()

	var opts []imaging.EncodeOption
	if quality > 0 && encFormat == imaging.JPEG {
		opts = append(opts, imaging.JPEGQuality(quality))
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, encFormat, opts...); err != nil {
		return Result{}, fmt.Errorf("%w: encode %s: %v", ErrResize, format, err)
	}

	return Result{
		Data:   buf.Bytes(),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Format: normalizeFormat(format),
	}, nil
}

// SupportedFormat reports whether format names an encodable image format.
func SupportedFormat(format string) bool {
	_, err := parseFormat(format)
	return err == nil
}

// Extension returns the canonical file extension for a format name,
// without the leading dot.
func Extension(format string) string {
	normalized := normalizeFormat(format)
	if normalized == "jpeg" {
		return "jpg"
	}
	return normalized
}

func parseFormat(format string) (imaging.Format, error) {
	parsed, err := imaging.FormatFromExtension(normalizeFormat(format))
	if err != nil {
		return 0, fmt.Errorf("%w: unsupported format %q", ErrResize, format)
	}
	return parsed, nil
}

func normalizeFormat(format string) string {
	normalized := strings.ToLower(strings.TrimSpace(format))
	if normalized == "jpg" {
		return "jpeg"
	}
	return normalized
}
