package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"srcset/internal/logging"
	"srcset/internal/planner"
	"srcset/internal/sizespec"
	"srcset/internal/sources"
	"srcset/internal/svg"
	"srcset/internal/variantcache"
)

// Args carries the per-call size configuration.
type Args struct {
	// Profile names the configuration profile; empty means "default".
	Profile string
	// Positional size expressions, aligned to the profile's breakpoints
	// in ascending order.
	Positional []string
	// Explicit breakpoint to size mapping; replaces the profile's
	// breakpoints entirely when non-empty.
	Explicit map[string]string
	// Overrides for the profile's scalar settings.
	Overrides sizespec.Overrides
}

// NewArgs returns Args with the overrides marked unset.
func NewArgs() Args {
	return Args{Overrides: sizespec.NewOverrides()}
}

// RenderedImage is everything an <img> tag needs.
type RenderedImage struct {
	Src    string `json:"src"`
	Srcset string `json:"srcset,omitempty"`
	Sizes  string `json:"sizes,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Service is the rendering front door.
type Service struct {
	provider    *sources.Provider
	coordinator *variantcache.Coordinator
	profiles    map[string]sizespec.Profile
	threshold   int
	enabled     bool
	logger      *slog.Logger
}

func NewService(provider *sources.Provider, coordinator *variantcache.Coordinator, profiles map[string]sizespec.Profile, defaultThreshold int, enabled bool, logger *slog.Logger) *Service {
	return &Service{
		provider:    provider,
		coordinator: coordinator,
		profiles:    profiles,
		threshold:   defaultThreshold,
		enabled:     enabled,
		logger:      logging.NewComponentLogger(logger, "render"),
	}
}

// PlanAndRender resolves ref and returns the attributes for a responsive
// <img> tag. Configuration errors are returned; per-width generation
// failures degrade toward the source image instead.
func (s *Service) PlanAndRender(ctx context.Context, ref string, args Args) (RenderedImage, error) {
	src, err := s.provider.Resolve(ref)
	if err != nil {
		return RenderedImage{}, err
	}

	// Vector sources never get variants, enabled or not.
	if src.IsSVG() {
		return s.renderSVG(src)
	}
	if !s.enabled {
		return sourceOnly(src), nil
	}

	cfg, err := sizespec.Resolve(s.profiles, args.Profile, args.Positional, args.Explicit, args.Overrides, s.threshold)
	if err != nil {
		return RenderedImage{}, fmt.Errorf("resolve size configuration: %w", err)
	}

	plan := planner.Plan(src.Width, cfg)

	handles, err := s.coordinator.Materialize(ctx, src, plan, cfg)
	if err != nil {
		if errors.Is(err, variantcache.ErrVariantNotFound) {
			s.logger.Warn("variant vanished during render",
				logging.String(logging.FieldEventType, "variant_race"),
				logging.String("source", src.Name),
				logging.String(logging.FieldImpact, "serving the source image"))
			return sourceOnly(src), nil
		}
		s.logger.Warn("variant generation incomplete",
			logging.String(logging.FieldEventType, "variant_generation_failed"),
			logging.String("source", src.Name),
			logging.Error(err),
			logging.String(logging.FieldImpact, "srcset omits the failed widths"))
	}
	if len(handles) == 0 {
		return sourceOnly(src), nil
	}

	return assemble(src, plan, handles), nil
}

// PlanAndRenderDisabled returns the source-only rendering regardless of
// the enabled flag. Used to compare output and by callers that bypass
// variant generation for a single image.
func (s *Service) PlanAndRenderDisabled(ref string) (RenderedImage, error) {
	src, err := s.provider.Resolve(ref)
	if err != nil {
		return RenderedImage{}, err
	}
	if src.IsSVG() {
		return s.renderSVG(src)
	}
	return sourceOnly(src), nil
}

// SVGRender resolves ref and returns the degraded rendering for a vector
// image: the source URL plus intrinsic dimensions when the markup declares
// them. A non-vector ref is a caller mistake and fails loudly.
func (s *Service) SVGRender(ctx context.Context, ref string) (RenderedImage, error) {
	src, err := s.provider.Resolve(ref)
	if err != nil {
		return RenderedImage{}, err
	}
	if !src.IsSVG() {
		return RenderedImage{}, fmt.Errorf("%s is not an svg", src.Name)
	}
	return s.renderSVG(src)
}

// renderSVG emits the source URL with intrinsic dimensions when the markup
// declares them. Vector images never get variants.
func (s *Service) renderSVG(src *sources.Image) (RenderedImage, error) {
	width, height, ok, err := svg.Dimensions(bytes.NewReader(src.Bytes()))
	if err != nil || !ok {
		if err != nil {
			s.logger.Debug("unreadable svg dimensions",
				logging.String("source", src.Name),
				logging.Error(err))
		}
		return RenderedImage{Src: src.URL}, nil
	}
	return RenderedImage{Src: src.URL, Width: width, Height: height}, nil
}

func sourceOnly(src *sources.Image) RenderedImage {
	return RenderedImage{Src: src.URL, Width: src.Width, Height: src.Height}
}

// assemble formats the handle list into attribute strings. The base
// variant supplies src and the intrinsic dimensions.
func assemble(src *sources.Image, plan planner.Result, handles []variantcache.Handle) RenderedImage {
	base := handles[0]
	for _, handle := range handles {
		if handle.Width == plan.BaseWidth {
			base = handle
			break
		}
	}

	entries := make([]string, 0, len(handles))
	for _, handle := range handles {
		entries = append(entries, fmt.Sprintf("%s %dw", handle.URL, handle.Width))
	}

	img := RenderedImage{
		Src:    base.URL,
		Width:  base.Width,
		Height: base.Height,
		Srcset: strings.Join(entries, ", "),
	}
	if len(handles) > 1 {
		img.Sizes = strings.Join(plan.Sizes, ", ")
	}
	return img
}
