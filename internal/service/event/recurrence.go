package event

import (
	"fmt"
	"time"

	"github.com/samber/lo"
)

type Unit string

const (
	UnitDays    Unit = "days"
	UnitWeeks   Unit = "weeks"
	UnitOffsets Unit = "offsets"
)

// DefaultMaxOccurrences bounds a single recurrence expansion.
const DefaultMaxOccurrences = 366

// MaxSpanDays bounds how far after the base any generated date may lie.
const MaxSpanDays = 100 * 366

// Recurrence describes how to repeat an event after its base date.
//
// For days and weeks the k-th occurrence (k = 1..Count) lies k*Interval
// days or weeks after the base; Until, when set, is the last calendar date
// that may be produced. Offsets lists day distances from the base instead.
type Recurrence struct {
	Unit     Unit       `json:"unit"`
	Interval int        `json:"interval"`
	Count    int        `json:"count"`
	Until    *time.Time `json:"until"`
	Offsets  []int      `json:"offsets"`
}

func (r Recurrence) Validate(max int) error {
	if max <= 0 {
		max = DefaultMaxOccurrences
	}
	switch r.Unit {
	case UnitDays, UnitWeeks:
		if r.Interval < 1 {
			return fmt.Errorf("%w: interval must be at least 1", ErrInvalidRecurrence)
		}
		if r.Count < 0 {
			return fmt.Errorf("%w: count must not be negative", ErrInvalidRecurrence)
		}
		if r.Count == 0 && r.Until == nil {
			return fmt.Errorf("%w: count or until is required", ErrInvalidRecurrence)
		}
		if r.Count > max {
			return fmt.Errorf("%w: at most %d", ErrTooManyOccurrences, max)
		}
		step := r.stepDays()
		if step > MaxSpanDays || (r.Count > 0 && step > MaxSpanDays/r.Count) {
			return fmt.Errorf("%w: dates must lie within %d days of the base", ErrInvalidRecurrence, MaxSpanDays)
		}
	case UnitOffsets:
		if len(r.Offsets) == 0 {
			return fmt.Errorf("%w: offsets are required", ErrInvalidRecurrence)
		}
		for _, o := range r.Offsets {
			if o <= 0 {
				return fmt.Errorf("%w: offsets must be positive", ErrInvalidRecurrence)
			}
			if o > MaxSpanDays {
				return fmt.Errorf("%w: offsets must not exceed %d days", ErrInvalidRecurrence, MaxSpanDays)
			}
		}
		if len(lo.Uniq(r.Offsets)) > max {
			return fmt.Errorf("%w: at most %d", ErrTooManyOccurrences, max)
		}
	default:
		return fmt.Errorf("%w: unknown unit %q", ErrInvalidRecurrence, r.Unit)
	}
	return nil
}

// stepDays is the distance between occurrences, saturating instead of
// overflowing for absurd intervals.
func (r Recurrence) stepDays() int {
	if r.Unit != UnitWeeks {
		return r.Interval
	}
	if r.Interval > MaxSpanDays/7 {
		return MaxSpanDays + 1
	}
	return r.Interval * 7
}

// GenerateDates expands r from base. The base itself is never included.
// Dates are computed on the wall clock of loc, so 09:00 stays 09:00 across
// daylight saving changes. Results are in generation order.
func GenerateDates(base time.Time, r Recurrence, loc *time.Location, max int) ([]time.Time, error) {
	if max <= 0 {
		max = DefaultMaxOccurrences
	}
	if err := r.Validate(max); err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.UTC
	}
	b := base.In(loc)

	if r.Unit == UnitOffsets {
		return lo.Map(lo.Uniq(r.Offsets), func(o int, _ int) time.Time {
			return b.AddDate(0, 0, o)
		}), nil
	}

	step := r.stepDays()

	var last time.Time
	if r.Until != nil {
		last = dateOf(*r.Until, loc)
	}

	var out []time.Time
	for k := 1; r.Count == 0 || k <= r.Count; k++ {
		d := b.AddDate(0, 0, k*step)
		if r.Until != nil && dateOf(d, loc).After(last) {
			break
		}
		if len(out) == max {
			return nil, fmt.Errorf("%w: at most %d", ErrTooManyOccurrences, max)
		}
		out = append(out, d)
	}
	return out, nil
}

// dateOf truncates t to midnight of its calendar date in loc.
func dateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
