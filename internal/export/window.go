package export

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidWindow is returned when a time window selects nothing.
var ErrInvalidWindow = errors.New("invalid time window")

// Window is a log-time range with both bounds inclusive, in nanoseconds.
type Window struct {
	Start uint64
	End   uint64
}

// Contains reports whether ts lies in the window.
func (w Window) Contains(ts uint64) bool {
	return w.Start <= ts && ts <= w.End
}

// Validate rejects inverted windows.
func (w Window) Validate() error {
	if w.Start > w.End {
		return fmt.Errorf("%w: start %d is after end %d", ErrInvalidWindow, w.Start, w.End)
	}
	return nil
}

// WindowPolicy converts instants shown to the user at a coarse granularity
// back into nanosecond bounds.
type WindowPolicy struct {
	// Granularity is the resolution instants were displayed and edited at.
	// Zero or one nanosecond means bounds are taken verbatim.
	Granularity time.Duration
	// EndInclusive keeps every message inside the displayed end unit. When
	// false, messages at or after the displayed end instant are dropped.
	EndInclusive bool
}

// DefaultWindowPolicy treats the displayed end instant as inclusive at
// millisecond granularity.
func DefaultWindowPolicy() WindowPolicy {
	return WindowPolicy{Granularity: time.Millisecond, EndInclusive: true}
}

// Resolve builds the filter window. A nil start or end keeps the container's
// own bound from full, untouched by the policy; with both nil the result is
// nil, meaning "no edit requested".
func (p WindowPolicy) Resolve(full Window, start, end *uint64) (*Window, error) {
	if start == nil && end == nil {
		return nil, nil
	}

	g := uint64(1)
	if p.Granularity > 1 {
		g = uint64(p.Granularity)
	}

	w := full
	if start != nil {
		w.Start = *start - *start%g
	}
	if end != nil {
		floor := *end - *end%g
		if p.EndInclusive {
			w.End = floor + (g - 1)
			if w.End < floor {
				w.End = math.MaxUint64
			}
		} else {
			if floor == 0 {
				return nil, fmt.Errorf("%w: exclusive end at 0 selects nothing", ErrInvalidWindow)
			}
			w.End = floor - 1
		}
	}

	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &w, nil
}

// ParseInstant accepts an RFC3339 timestamp, an integer count of nanoseconds
// since the epoch, or "+<duration>" relative to origin (for example "+1.5s").
func ParseInstant(value string, origin uint64) (uint64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, errors.New("empty timestamp")
	}

	if strings.HasPrefix(value, "+") {
		d, err := time.ParseDuration(value[1:])
		if err != nil {
			return 0, fmt.Errorf("parse offset %q: %w", value, err)
		}
		if d < 0 {
			return 0, fmt.Errorf("offset %q is negative", value)
		}
		return origin + uint64(d), nil
	}

	if n, err := strconv.ParseUint(value, 10, 64); err == nil {
		return n, nil
	}

	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return 0, fmt.Errorf("parse timestamp %q: expected RFC3339, nanoseconds, or +offset", value)
	}
	ns := t.UnixNano()
	if ns < 0 {
		return 0, fmt.Errorf("timestamp %q is before the epoch", value)
	}
	return uint64(ns), nil
}
