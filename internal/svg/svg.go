// Package svg inspects vector images for their intrinsic dimensions so the
// degraded render path can emit width and height attributes without any
// variant generation.
package svg

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

type svgRoot struct {
	Width   string `xml:"width,attr"`
	Height  string `xml:"height,attr"`
	ViewBox string `xml:"viewBox,attr"`
}

// Dimensions extracts width and height from an SVG document. It prefers the
// root width/height attributes and falls back to the third and fourth
// viewBox values. ok is false when neither source yields both dimensions.
func Dimensions(r io.Reader) (width, height int, ok bool, err error) {
	var root svgRoot
	if decodeErr := xml.NewDecoder(r).Decode(&root); decodeErr != nil {
		return 0, 0, false, fmt.Errorf("parse svg: %w", decodeErr)
	}

	width, widthOK := parseLength(root.Width)
	height, heightOK := parseLength(root.Height)
	if widthOK && heightOK {
		return width, height, true, nil
	}

	fields := strings.Fields(root.ViewBox)
	if len(fields) == 4 {
		width, widthOK = parseLength(fields[2])
		height, heightOK = parseLength(fields[3])
		if widthOK && heightOK {
			return width, height, true, nil
		}
	}

	return 0, 0, false, nil
}

// parseLength reads a numeric SVG length, stripping a trailing unit suffix
// such as px, pt, or mm. Fractional values round toward zero.
func parseLength(raw string) (int, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, false
	}

	end := len(trimmed)
	for end > 0 {
		c := trimmed[end-1]
		if (c >= '0' && c <= '9') || c == '.' {
			break
		}
		end--
	}
	trimmed = trimmed[:end]
	if trimmed == "" {
		return 0, false
	}

	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || value <= 0 {
		return 0, false
	}
	return int(value), true
}
