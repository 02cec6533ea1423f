package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// TIME POINT - Calendar date used by every leave calculation
// =============================================================================

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

// TimePoint is a calendar date. Time-of-day and time zone are discarded on
// construction; all comparisons are by year, month and day.
type TimePoint struct {
	Time time.Time
}

// NewTimePoint returns the date at UTC midnight. Out-of-range components are
// normalized the way time.Date normalizes them (Feb 30 becomes Mar 2).
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// FromTime keeps the calendar date of t as seen in t's own location.
func FromTime(t time.Time) TimePoint {
	return NewTimePoint(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (TimePoint, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return TimePoint{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return FromTime(t), nil
}

func Today() TimePoint {
	return FromTime(time.Now())
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.normalize().Before(other.normalize()) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.normalize().Equal(other.normalize()) }
func (tp TimePoint) After(other TimePoint) bool         { return tp.normalize().After(other.normalize()) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return !tp.After(other) }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool  { return !tp.Before(other) }

func (tp TimePoint) normalize() time.Time {
	return time.Date(tp.Time.Year(), tp.Time.Month(), tp.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint   { return FromTime(tp.Time.AddDate(0, 0, n)) }
func (tp TimePoint) AddMonths(n int) TimePoint { return FromTime(tp.Time.AddDate(0, n, 0)) }
func (tp TimePoint) AddYears(n int) TimePoint  { return FromTime(tp.Time.AddDate(n, 0, 0)) }

// AddMonthsClamped adds n months, keeping the day within the target month
// (Jan 31 + 1 month = Feb 28, not Mar 3).
func (tp TimePoint) AddMonthsClamped(n int) TimePoint {
	first := NewTimePoint(tp.Year(), tp.Month(), 1).AddMonths(n)
	last := first.AddMonths(1).AddDays(-1)
	if tp.Day() > last.Day() {
		return last
	}
	return NewTimePoint(first.Year(), first.Month(), tp.Day())
}

// Properties
func (tp TimePoint) Year() int         { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month { return tp.Time.Month() }
func (tp TimePoint) Day() int          { return tp.Time.Day() }
func (tp TimePoint) IsZero() bool      { return tp.Time.IsZero() }

func (tp TimePoint) String() string {
	return tp.Time.Format(DateLayout)
}

// =============================================================================
// TIME UTILITIES
// =============================================================================

func DaysBetween(from, to TimePoint) int { return int(to.normalize().Sub(from.normalize()).Hours() / 24) }
func StartOfYear(year int) TimePoint     { return NewTimePoint(year, time.January, 1) }
func EndOfYear(year int) TimePoint       { return NewTimePoint(year, time.December, 31) }
func StartOfMonth(year int, month time.Month) TimePoint {
	return NewTimePoint(year, month, 1)
}

// Earliest returns the smallest of the given points, or the zero TimePoint
// when none are given.
func Earliest(points ...TimePoint) TimePoint {
	var out TimePoint
	for i, p := range points {
		if i == 0 || p.Before(out) {
			out = p
		}
	}
	return out
}
