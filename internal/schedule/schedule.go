// Package schedule expands a recurring service window into concrete trip instants.
package schedule

import (
	"time"

	"commute/internal/domain"
)

const (
	// AnchorHour is the local hour at which every occurrence is scheduled.
	AnchorHour = 8

	// DefaultWindow is used when a request has no end date.
	DefaultWindow = 30 * 24 * time.Hour
)

// Expander turns a service window into occurrence instants.
type Expander struct {
	loc    *time.Location
	window time.Duration
}

// NewExpander creates an Expander anchored in loc. A nil loc means UTC and a
// non-positive window means DefaultWindow.
func NewExpander(loc *time.Location, window time.Duration) *Expander {
	if loc == nil {
		loc = time.UTC
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Expander{loc: loc, window: window}
}

// Expand returns the ordered occurrence instants between start and end
// inclusive. A nil end defaults to start plus the configured window.
// start after end yields no occurrences.
func (e *Expander) Expand(start time.Time, end *time.Time, f domain.Frequency) []time.Time {
	first := anchor(start, e.loc)

	var last time.Time
	if end != nil {
		last = anchor(*end, e.loc)
	} else {
		last = anchor(start.Add(e.window), e.loc)
	}

	if first.After(last) {
		return nil
	}

	var out []time.Time
	for k := 0; ; k++ {
		t := step(first, f, k)
		if t.After(last) {
			break
		}
		out = append(out, t)
	}
	return out
}

// Expand uses the default UTC expander.
func Expand(start time.Time, end *time.Time, f domain.Frequency) []time.Time {
	return NewExpander(time.UTC, DefaultWindow).Expand(start, end, f)
}

// anchor places AnchorHour in loc on t's calendar day. Service dates are
// UTC midnights, so the day is read in UTC whatever zone t carries.
func anchor(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, AnchorHour, 0, 0, 0, loc)
}

// step returns the k-th occurrence after first. Unknown frequencies step daily.
func step(first time.Time, f domain.Frequency, k int) time.Time {
	switch f {
	case domain.FrequencyWeekly:
		return first.AddDate(0, 0, 7*k)
	case domain.FrequencyMonthly:
		return addMonthsClamped(first, k)
	default:
		return first.AddDate(0, 0, k)
	}
}

// addMonthsClamped adds n calendar months to t, pinning the day to the last
// day of the target month when t's day does not exist there.
func addMonthsClamped(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	target := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysIn(target.Year(), target.Month(), t.Location()); d > last {
		d = last
	}
	return time.Date(target.Year(), target.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
