package leave

import "github.com/warp/leave-engine/generic"

// ComputeAnnualEntitlement returns the total leave days owed on asOf,
// independent of usage.
func ComputeAnnualEntitlement(hire, asOf generic.TimePoint) generic.Amount {
	return ClassifyRegime(hire, asOf).Entitlement()
}

// LeaveBalance is entitlement combined with caller-supplied usage.
type LeaveBalance struct {
	TotalAnnualLeave     generic.Amount
	UsedAnnualLeave      generic.Amount
	RemainingAnnualLeave generic.Amount
	CalculationDate      generic.TimePoint
	WorkYears            int
	WorkMonths           int
	Regime               RegimeKind
}

// ComputeLeaveBalance derives the balance on asOf. used is not checked
// against any ledger; a negative value simply raises the remainder.
// Remaining never drops below zero.
func ComputeLeaveBalance(hire generic.TimePoint, used generic.Amount, asOf generic.TimePoint) LeaveBalance {
	wd := ComputeWorkDuration(hire, asOf)
	regime := ClassifyRegime(hire, asOf)
	total := regime.Entitlement()
	used = generic.Amount{Value: used.Value, Unit: total.Unit}

	return LeaveBalance{
		TotalAnnualLeave:     total,
		UsedAnnualLeave:      used,
		RemainingAnnualLeave: total.Sub(used).Max(total.Zero()),
		CalculationDate:      asOf,
		WorkYears:            wd.Years,
		WorkMonths:           wd.Months,
		Regime:               regime.Kind(),
	}
}

// CanUseLeave reports whether requested days fit in the remaining balance.
func CanUseLeave(hire generic.TimePoint, used, requested generic.Amount, asOf generic.TimePoint) bool {
	remaining := ComputeLeaveBalance(hire, used, asOf).RemainingAnnualLeave
	return !remaining.LessThan(requested)
}
