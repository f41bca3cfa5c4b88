package domain

import "time"

type RecurrenceFrequency string

const (
	RecurrenceDaily  RecurrenceFrequency = "daily"
	RecurrenceWeekly RecurrenceFrequency = "weekly"
)

// MaxRecurrenceCount caps how many windows one recurring request may generate.
const MaxRecurrenceCount = 52

// Recurrence describes a recurring booking request. It is expanded into an
// explicit list of candidate windows before any admission is attempted.
type Recurrence struct {
	Frequency RecurrenceFrequency
	Count     int
}

func (r Recurrence) step() time.Duration {
	switch r.Frequency {
	case RecurrenceDaily:
		return 24 * time.Hour
	case RecurrenceWeekly:
		return 7 * 24 * time.Hour
	default:
		return 0
	}
}

// Expand generates the ordered candidate windows for the series, starting at
// base. Count includes the base occurrence.
func (r Recurrence) Expand(base TimeWindow) ([]TimeWindow, error) {
	if r.Count < 1 || r.Count > MaxRecurrenceCount {
		return nil, ErrInvalidRecurrence
	}
	step := r.step()
	if step == 0 {
		return nil, ErrInvalidRecurrence
	}

	windows := make([]TimeWindow, 0, r.Count)
	for i := 0; i < r.Count; i++ {
		windows = append(windows, base.Shift(time.Duration(i)*step))
	}
	return windows, nil
}
