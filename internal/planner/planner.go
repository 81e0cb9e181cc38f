package planner

import (
	"fmt"
	"math"
	"sort"

	"srcset/internal/sizespec"
)

// Candidate is one target width in a plan. Required candidates survive
// decimation unconditionally.
type Candidate struct {
	Width    int
	Required bool
}

// Result is the output of Plan.
type Result struct {
	// Widths holds the surviving candidates in descending width order.
	// The first entry is always the base width.
	Widths []Candidate
	// Sizes holds the sizes-hint strings in breakpoint-ascending order
	// followed by the trailing default entry.
	Sizes []string
	// BaseWidth is the largest width in the plan.
	BaseWidth int
}

// Plan computes the variant widths and sizes hints for a source image of
// the given intrinsic width.
func Plan(sourceWidth int, cfg sizespec.Resolved) Result {
	base := sourceWidth
	if cfg.MaxWidth > 0 && cfg.MaxWidth < base {
		base = cfg.MaxWidth
	}

	required := map[int]bool{base: true}
	sizes := make([]string, 0, len(cfg.Spec)+1)

	for _, entry := range cfg.Spec {
		sizes = append(sizes, fmt.Sprintf("(max-width: %dpx) %s", entry.Breakpoint, entry.Size))

		switch entry.Size.Unit {
		case sizespec.UnitPX:
			width := entry.Size.Value
			if width > base {
				// No upscaling: widths beyond the base collapse into it.
				width = base
			}
			required[width] = true
		default:
			width := int(math.Ceil(float64(entry.Breakpoint) * float64(entry.Size.Value) / 100))
			if width >= base {
				continue
			}
			if _, ok := required[width]; !ok {
				required[width] = false
			}
		}
	}

	sizes = append(sizes, cfg.DefaultSize.String())

	widths := make([]int, 0, len(required))
	for width := range required {
		widths = append(widths, width)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(widths)))

	kept := make([]Candidate, 0, len(widths))
	current := base
	for i, width := range widths {
		switch {
		case i == 0:
			kept = append(kept, Candidate{Width: width, Required: true})
		case required[width]:
			kept = append(kept, Candidate{Width: width, Required: true})
			current = width
		case current-width >= cfg.Threshold:
			kept = append(kept, Candidate{Width: width})
			current = width
		}
	}

	return Result{Widths: kept, Sizes: sizes, BaseWidth: base}
}
