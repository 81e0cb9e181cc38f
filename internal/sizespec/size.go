package sizespec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Unit is the measurement unit of a size expression.
type Unit string

const (
	// UnitVW sizes relative to the viewport width in percent.
	UnitVW Unit = "vw"
	// UnitPX sizes to an absolute pixel width.
	UnitPX Unit = "px"
)

var (
	// ErrInvalidSize marks size expressions that cannot be parsed.
	ErrInvalidSize = errors.New("invalid size")
	// ErrInvalidBreakpoint marks breakpoint keys that are not positive integers.
	ErrInvalidBreakpoint = errors.New("invalid breakpoint")
)

// Size is a parsed size expression.
type Size struct {
	Value int
	Unit  Unit
}

func (s Size) String() string {
	return strconv.Itoa(s.Value) + string(s.Unit)
}

// ParseSize parses a size expression. Bare integers are vw; otherwise a
// numeric prefix with a px or vw suffix is required.
func ParseSize(raw string) (Size, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Size{}, fmt.Errorf("%w: empty expression", ErrInvalidSize)
	}

	unit := UnitVW
	number := trimmed
	switch {
	case strings.HasSuffix(trimmed, string(UnitPX)):
		unit = UnitPX
		number = strings.TrimSpace(strings.TrimSuffix(trimmed, string(UnitPX)))
	case strings.HasSuffix(trimmed, string(UnitVW)):
		number = strings.TrimSpace(strings.TrimSuffix(trimmed, string(UnitVW)))
	}

	value, err := strconv.Atoi(number)
	if err != nil {
		return Size{}, fmt.Errorf("%w: %q", ErrInvalidSize, raw)
	}
	if value <= 0 {
		return Size{}, fmt.Errorf("%w: %q must be positive", ErrInvalidSize, raw)
	}
	return Size{Value: value, Unit: unit}, nil
}

// ParseBreakpoint parses a breakpoint key into a positive pixel width.
func ParseBreakpoint(raw string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidBreakpoint, raw)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%w: %q must be positive", ErrInvalidBreakpoint, raw)
	}
	return value, nil
}

// Entry pairs a breakpoint with its display size.
type Entry struct {
	Breakpoint int
	Size       Size
}

// Spec is an ordered breakpoint→size mapping, ascending by breakpoint.
type Spec []Entry
