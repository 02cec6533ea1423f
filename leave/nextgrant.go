package leave

import "github.com/warp/leave-engine/generic"

// NextLeaveGrantDate returns the next date, strictly after asOf, on which
// entitlement changes. The boolean is false only if no candidate lies in
// the future, which cannot happen for well-formed dates.
//
// First year: the 1st of the month (months+1) months after the hire month,
// pushed one month later when a mid-month hire day makes that date not yet
// future. Afterwards: the earliest future of this year's Jan 1, this year's
// hire-month 1st and next year's Jan 1.
func NextLeaveGrantDate(hire, asOf generic.TimePoint) (generic.TimePoint, bool) {
	wd := ComputeWorkDuration(hire, asOf)

	var candidates []generic.TimePoint
	if wd.Years < 1 {
		next := generic.StartOfMonth(hire.Year(), hire.Month()).AddMonths(wd.Months + 1)
		candidates = []generic.TimePoint{next, next.AddMonths(1)}
	} else {
		candidates = []generic.TimePoint{
			generic.StartOfYear(asOf.Year()),
			generic.StartOfMonth(asOf.Year(), hire.Month()),
			generic.StartOfYear(asOf.Year() + 1),
		}
	}

	var future []generic.TimePoint
	for _, c := range candidates {
		if c.After(asOf) {
			future = append(future, c)
		}
	}
	if len(future) == 0 {
		return generic.TimePoint{}, false
	}
	return generic.Earliest(future...), true
}
