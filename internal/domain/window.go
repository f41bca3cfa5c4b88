package domain

import "time"

// TimeWindow is a half-open interval [Start, End): the end instant is not
// part of the window, so back-to-back bookings share an endpoint without
// overlapping.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// NewTimeWindow builds a validated window. Start must be strictly before End.
func NewTimeWindow(start, end time.Time) (TimeWindow, error) {
	if !start.Before(end) {
		return TimeWindow{}, ErrInvalidWindow
	}
	return TimeWindow{Start: start.UTC(), End: end.UTC()}, nil
}

// Overlaps reports whether two windows share any instant under half-open
// semantics: a.Start < b.End && b.Start < a.End.
func (w TimeWindow) Overlaps(other TimeWindow) bool {
	return w.Start.Before(other.End) && other.Start.Before(w.End)
}

// Duration returns the length of the window.
func (w TimeWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Contains reports whether the instant falls inside the window. The end
// instant itself is excluded.
func (w TimeWindow) Contains(instant time.Time) bool {
	return !instant.Before(w.Start) && instant.Before(w.End)
}

// Shift returns the window moved forward by d, preserving its length.
func (w TimeWindow) Shift(d time.Duration) TimeWindow {
	return TimeWindow{Start: w.Start.Add(d), End: w.End.Add(d)}
}
