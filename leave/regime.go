package leave

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/leave-engine/generic"
)

// =============================================================================
// POLICY CONSTANTS
// =============================================================================

var (
	// MonthlyGrant is earned per completed month during the first year.
	MonthlyGrant = decimal.NewFromInt(1)

	// LegacyMonthlyGrants is the first-year monthly total credited in the
	// anniversary year.
	LegacyMonthlyGrants = decimal.NewFromInt(12)

	// BaseAnnualGrant is the yearly grant from the anniversary onwards.
	BaseAnnualGrant = decimal.NewFromInt(15)

	// YearlyIncrement is added for each calendar year after the anniversary year.
	YearlyIncrement = decimal.RequireFromString("0.5")

	twelve = decimal.NewFromInt(12)
)

// =============================================================================
// REGIME - Sum type over the three accrual rules
// =============================================================================

// RegimeKind names a regime on the wire and in storage.
type RegimeKind string

// Regime kinds, one per variant of Regime.
const (
	KindFirstYear       RegimeKind = "first_year"
	KindAnniversaryYear RegimeKind = "anniversary_year"
	KindSteadyState     RegimeKind = "steady_state"
)

// Regime is one of FirstYear, AnniversaryYear or SteadyState. Each variant
// carries exactly the inputs its formula needs.
type Regime interface {
	Kind() RegimeKind
	Entitlement() generic.Amount
	isRegime()
}

// FirstYear: one day per completed month since hire.
type FirstYear struct {
	CompletedMonths int
}

func (FirstYear) Kind() RegimeKind { return KindFirstYear }
func (FirstYear) isRegime()        {}

func (r FirstYear) Entitlement() generic.Amount {
	return days(MonthlyGrant.Mul(decimal.NewFromInt(int64(r.CompletedMonths))))
}

// AnniversaryYear: the legacy monthly grants plus the base grant prorated
// over the months remaining in the calendar year from the hire month.
type AnniversaryYear struct {
	HireMonth time.Month
}

func (AnniversaryYear) Kind() RegimeKind { return KindAnniversaryYear }
func (AnniversaryYear) isRegime()        {}

// RemainingMonths counts the hire month through December (May -> 8).
func (r AnniversaryYear) RemainingMonths() int {
	return 12 - (int(r.HireMonth) - 1)
}

func (r AnniversaryYear) Entitlement() generic.Amount {
	prorated := BaseAnnualGrant.Mul(decimal.NewFromInt(int64(r.RemainingMonths()))).Div(twelve)
	return days(LegacyMonthlyGrants.Add(prorated))
}

// SteadyState: base grant plus the yearly increment per calendar year since
// the anniversary year. Not cumulative: the figure resets each year.
type SteadyState struct {
	YearsSinceAnniversary int
}

func (SteadyState) Kind() RegimeKind { return KindSteadyState }
func (SteadyState) isRegime()        {}

func (r SteadyState) Entitlement() generic.Amount {
	inc := YearlyIncrement.Mul(decimal.NewFromInt(int64(r.YearsSinceAnniversary)))
	return days(BaseAnnualGrant.Add(inc))
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// AnniversaryDate is the first of the hire month one year after hire.
func AnniversaryDate(hire generic.TimePoint) generic.TimePoint {
	return generic.StartOfMonth(hire.Year()+1, hire.Month())
}

// ClassifyRegime picks the regime in force on asOf.
func ClassifyRegime(hire, asOf generic.TimePoint) Regime {
	wd := ComputeWorkDuration(hire, asOf)
	if wd.Years < 1 {
		return FirstYear{CompletedMonths: wd.Months}
	}

	anniversaryYear := AnniversaryDate(hire).Year()
	if asOf.Year() == anniversaryYear {
		return AnniversaryYear{HireMonth: hire.Month()}
	}
	return SteadyState{YearsSinceAnniversary: asOf.Year() - anniversaryYear}
}

func days(d decimal.Decimal) generic.Amount {
	return generic.Amount{Value: d, Unit: generic.UnitDays}
}
