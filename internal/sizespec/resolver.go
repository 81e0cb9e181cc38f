package sizespec

import (
	"fmt"
	"sort"
)

// DefaultThreshold is the process-wide fallback for the minimum width delta
// between materialized variants when neither the overrides nor the profile
// set one.
const DefaultThreshold = 69

// DefaultOperation identifies the standard proportional-resize operation.
const DefaultOperation = "resize-to-fit"

// Profile is a named size-spec configuration.
type Profile struct {
	Breakpoints []int
	Sizes       []string // expressions aligned to ascending breakpoints
	MaxWidth    int      // 0 = use the source width
	Quality     int      // 0 = encoder default
	Format      string   // "" = keep the source format
	Threshold   int      // -1 = fall back to DefaultThreshold
	DefaultSize string   // trailing sizes-hint entry; "" = derive
	Operation   string
}

// Overrides carries per-call scalar overrides. Zero values mean "not set";
// Threshold uses -1 because 0 is a meaningful threshold.
type Overrides struct {
	MaxWidth    int
	Quality     int
	Format      string
	Threshold   int
	DefaultSize string
	Operation   string
}

// NewOverrides returns an Overrides with the threshold marked unset.
func NewOverrides() Overrides {
	return Overrides{Threshold: -1}
}

// Resolved is the merged configuration handed to the planner. Built once
// per invocation and never mutated afterwards.
type Resolved struct {
	Spec        Spec
	MaxWidth    int // 0 = clamp to the source width
	Quality     int
	Format      string
	Threshold   int // always >= 0
	DefaultSize Size
	Operation   string
}

// Resolve merges an optional explicit breakpoint→size mapping, positional
// size expressions, and scalar overrides with the named profile.
//
// A non-empty explicit mapping fully replaces the profile's breakpoints and
// ignores positional sizes. Otherwise positional sizes align to the
// profile's breakpoints in ascending order, with profile-level sizes as the
// fallback and 100vw padding any unmatched trailing breakpoints.
func Resolve(profiles map[string]Profile, profileKey string, positional []string, explicit map[string]string, ov Overrides, defaultThreshold int) (Resolved, error) {
	if profileKey == "" {
		profileKey = "default"
	}
	profile, ok := profiles[profileKey]
	if !ok {
		return Resolved{}, fmt.Errorf("unknown profile %q", profileKey)
	}

	var spec Spec
	var err error
	if len(explicit) > 0 {
		spec, err = specFromExplicit(explicit)
	} else {
		sizes := positional
		if len(sizes) == 0 {
			sizes = profile.Sizes
		}
		spec, err = specFromProfile(profile.Breakpoints, sizes)
	}
	if err != nil {
		return Resolved{}, err
	}

	resolved := Resolved{
		Spec:      spec,
		MaxWidth:  pickInt(ov.MaxWidth, profile.MaxWidth),
		Quality:   pickInt(ov.Quality, profile.Quality),
		Format:    pickString(ov.Format, profile.Format),
		Operation: pickString(ov.Operation, profile.Operation),
	}
	if resolved.Operation == "" {
		resolved.Operation = DefaultOperation
	}

	resolved.Threshold = defaultThreshold
	if resolved.Threshold < 0 {
		resolved.Threshold = DefaultThreshold
	}
	if profile.Threshold >= 0 {
		resolved.Threshold = profile.Threshold
	}
	if ov.Threshold >= 0 {
		resolved.Threshold = ov.Threshold
	}

	defaultSize := pickString(ov.DefaultSize, profile.DefaultSize)
	switch {
	case defaultSize != "":
		size, err := ParseSize(defaultSize)
		if err != nil {
			return Resolved{}, err
		}
		resolved.DefaultSize = size
	case len(spec) > 0:
		resolved.DefaultSize = spec[len(spec)-1].Size
	default:
		resolved.DefaultSize = Size{Value: 100, Unit: UnitVW}
	}

	return resolved, nil
}

func specFromExplicit(explicit map[string]string) (Spec, error) {
	spec := make(Spec, 0, len(explicit))
	for key, value := range explicit {
		breakpoint, err := ParseBreakpoint(key)
		if err != nil {
			return nil, err
		}
		size, err := ParseSize(value)
		if err != nil {
			return nil, err
		}
		spec = append(spec, Entry{Breakpoint: breakpoint, Size: size})
	}
	sort.Slice(spec, func(i, j int) bool { return spec[i].Breakpoint < spec[j].Breakpoint })
	if err := checkUnique(spec); err != nil {
		return nil, err
	}
	return spec, nil
}

func specFromProfile(breakpoints []int, sizes []string) (Spec, error) {
	ordered := append([]int{}, breakpoints...)
	sort.Ints(ordered)

	spec := make(Spec, 0, len(ordered))
	for i, breakpoint := range ordered {
		if breakpoint <= 0 {
			return nil, fmt.Errorf("%w: %d must be positive", ErrInvalidBreakpoint, breakpoint)
		}
		size := Size{Value: 100, Unit: UnitVW}
		if i < len(sizes) {
			parsed, err := ParseSize(sizes[i])
			if err != nil {
				return nil, err
			}
			size = parsed
		}
		spec = append(spec, Entry{Breakpoint: breakpoint, Size: size})
	}
	if err := checkUnique(spec); err != nil {
		return nil, err
	}
	return spec, nil
}

func checkUnique(spec Spec) error {
	for i := 1; i < len(spec); i++ {
		if spec[i].Breakpoint == spec[i-1].Breakpoint {
			return fmt.Errorf("%w: duplicate breakpoint %d", ErrInvalidBreakpoint, spec[i].Breakpoint)
		}
	}
	return nil
}

func pickInt(override, fallback int) int {
	if override > 0 {
		return override
	}
	return fallback
}

func pickString(override, fallback string) string {
	if override != "" {
		return override
	}
	return fallback
}
