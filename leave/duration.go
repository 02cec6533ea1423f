/*
Package leave implements statutory annual-leave accrual.

PURPOSE:
  A pure, date-driven rules engine. Given a hire date and a calculation
  date it answers: how much annual leave is the employee entitled to,
  how much remains after usage, when does entitlement next change, and
  which grants led here.

REGIMES:
  FirstYear:       less than one full year worked. One day per completed
                   month since hire.
  AnniversaryYear: the calendar year containing the first anniversary.
                   12 days for the monthly grants already earned plus 15
                   days prorated over the months left in that year.
  SteadyState:     every later calendar year. 15 days plus half a day for
                   each calendar year since the anniversary year.

  Regime selection keys on the calendar year, not on the exact
  anniversary day: the new figure applies from January 1st.

WORKED EXAMPLE (hired 2019-05-01):
  2020-06-01  AnniversaryYear  12 + 15*8/12   = 22
  2021-01-15  SteadyState      15 + 0.5*1     = 15.5
  2022-03-01  SteadyState      15 + 0.5*2     = 16
  2024-01-01  SteadyState      15 + 0.5*4     = 17

PURITY:
  Nothing in this package reads the wall clock or touches storage except
  service.go, which takes both as dependencies. Every function is safe
  for concurrent use.

SEE ALSO:
  - regime.go: The three regimes as a sum type
  - history.go: Replays the regimes to rebuild grant events
  - service.go: Ledger-backed balance and usage recording
*/
package leave

import "github.com/warp/leave-engine/generic"

// WorkDuration is the elapsed full years and remaining full months between
// a hire date and a calculation date. Months is always in [0, 11].
type WorkDuration struct {
	Years  int
	Months int
}

// ComputeWorkDuration counts completed years and months from hire to asOf.
// A month only completes once asOf reaches the hire day-of-month.
//
// A calculation date before the hire date yields the zero duration.
func ComputeWorkDuration(hire, asOf generic.TimePoint) WorkDuration {
	if asOf.Before(hire) {
		return WorkDuration{}
	}

	years := asOf.Year() - hire.Year()
	months := int(asOf.Month()) - int(hire.Month())
	if asOf.Day() < hire.Day() {
		months--
	}
	if months < 0 {
		years--
		months += 12
	}
	return WorkDuration{Years: years, Months: months}
}

// ValidateRange rejects calculation dates before the hire date. The
// calculation functions clamp instead of failing; callers at the edge use
// this to refuse reversed input outright.
func ValidateRange(hire, asOf generic.TimePoint) error {
	if asOf.Before(hire) {
		return generic.ErrAsOfBeforeHire
	}
	return nil
}
