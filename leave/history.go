package leave

import (
	"fmt"

	"github.com/warp/leave-engine/generic"
)

// GrantEvent is one historical accrual: a monthly grant, the
// first-anniversary grant or a yearly grant.
type GrantEvent struct {
	Date         generic.TimePoint
	GrantedLeave generic.Amount
	Reason       string
	Regime       RegimeKind
}

// GenerateLeaveGrantHistory replays the policy from hire to asOf. Events are
// chronological and all dated on or before asOf; the same inputs always
// produce the same list.
//
// During the first year there is one event per completed month, dated on
// the hire day-of-month (or the month's last day when shorter). From the
// first full year on, the monthly events are folded into the
// first-anniversary grant, followed by one grant each January 1st.
func GenerateLeaveGrantHistory(hire, asOf generic.TimePoint) []GrantEvent {
	wd := ComputeWorkDuration(hire, asOf)

	if wd.Years < 1 {
		events := make([]GrantEvent, 0, wd.Months)
		for m := 1; m <= wd.Months; m++ {
			events = append(events, GrantEvent{
				Date:         hire.AddMonthsClamped(m),
				GrantedLeave: days(MonthlyGrant),
				Reason:       fmt.Sprintf("month %d accrual", m),
				Regime:       KindFirstYear,
			})
		}
		return events
	}

	anniversary := AnniversaryDate(hire)
	first := AnniversaryYear{HireMonth: hire.Month()}
	events := []GrantEvent{{
		Date:         anniversary,
		GrantedLeave: first.Entitlement(),
		Reason:       "first anniversary grant",
		Regime:       KindAnniversaryYear,
	}}

	for year := anniversary.Year() + 1; year <= asOf.Year(); year++ {
		jan1 := generic.StartOfYear(year)
		if jan1.After(asOf) {
			break
		}
		regime := SteadyState{YearsSinceAnniversary: year - anniversary.Year()}
		events = append(events, GrantEvent{
			Date:         jan1,
			GrantedLeave: regime.Entitlement(),
			Reason:       fmt.Sprintf("%d annual grant", year),
			Regime:       KindSteadyState,
		})
	}
	return events
}
