package leave

import "github.com/warp/leave-engine/generic"

// Policy is the statutory schedule for one employee, exposed as a
// generic.AccrualSchedule so the grant history can be consumed like any
// other accrual stream.
type Policy struct {
	HireDate generic.TimePoint
}

// GenerateAccruals returns the grant events in [from, to], as reconstructed
// on the date to.
func (p Policy) GenerateAccruals(from, to generic.TimePoint) []generic.AccrualEvent {
	var events []generic.AccrualEvent
	for _, g := range GenerateLeaveGrantHistory(p.HireDate, to) {
		if g.Date.Before(from) {
			continue
		}
		events = append(events, generic.AccrualEvent{
			At:     g.Date,
			Amount: g.GrantedLeave,
			Reason: g.Reason,
		})
	}
	return events
}

// IsDeterministic returns true - grants depend on dates only.
func (p Policy) IsDeterministic() bool {
	return true
}

// EntitlementPeriod is the whole period that the entitlement in force on
// asOf covers. The anniversary-year figure still contains the twelve
// first-year monthly grants, so the first and anniversary years share one
// period running from hire to the end of the anniversary year. From then on
// entitlement resets each calendar year.
func EntitlementPeriod(hire, asOf generic.TimePoint) generic.Period {
	switch ClassifyRegime(hire, asOf).(type) {
	case FirstYear, AnniversaryYear:
		return generic.Period{Start: hire, End: generic.EndOfYear(AnniversaryDate(hire).Year())}
	default:
		return generic.CalendarYear(asOf.Year())
	}
}

// UsageWindow is the part of EntitlementPeriod up to asOf: the usage that
// counts against the entitlement in force on asOf.
func UsageWindow(hire, asOf generic.TimePoint) generic.Period {
	w := EntitlementPeriod(hire, asOf)
	w.End = asOf
	return w
}

var _ generic.AccrualSchedule = Policy{}
