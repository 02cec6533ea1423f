package leave_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(year int, month time.Month, day int) generic.TimePoint {
	return generic.NewTimePoint(year, month, day)
}

func days(n float64) generic.Amount {
	return generic.NewAmount(n, generic.UnitDays)
}

func assertDays(t *testing.T, want float64, got generic.Amount, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, got.Value.Equal(days(want).Value),
		append([]any{fmt.Sprintf("expected %v days, got %v", want, got.Value)}, msgAndArgs...)...)
}

var hiredMay2019 = date(2019, time.May, 1)

// =============================================================================
// WORK DURATION
// =============================================================================

func TestComputeWorkDuration(t *testing.T) {
	tests := []struct {
		name   string
		hire   generic.TimePoint
		asOf   generic.TimePoint
		years  int
		months int
	}{
		{"same day", date(2019, 5, 1), date(2019, 5, 1), 0, 0},
		{"one month exactly", date(2019, 5, 1), date(2019, 6, 1), 0, 1},
		{"day before month completes", date(2019, 5, 15), date(2019, 6, 14), 0, 0},
		{"month completes on hire day", date(2019, 5, 15), date(2019, 6, 15), 0, 1},
		{"eleven months", date(2019, 5, 1), date(2020, 4, 30), 0, 11},
		{"one year exactly", date(2019, 5, 1), date(2020, 5, 1), 1, 0},
		{"across year boundary", date(2019, 11, 20), date(2020, 2, 19), 0, 2},
		{"several years", date(2019, 5, 1), date(2024, 1, 1), 4, 8},
		{"month-end hire", date(2019, 1, 31), date(2019, 2, 28), 0, 0},
		{"reversed range clamps", date(2020, 5, 1), date(2019, 5, 1), 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wd := leave.ComputeWorkDuration(tt.hire, tt.asOf)
			assert.Equal(t, tt.years, wd.Years)
			assert.Equal(t, tt.months, wd.Months)
			assert.GreaterOrEqual(t, wd.Months, 0)
			assert.LessOrEqual(t, wd.Months, 11)
		})
	}
}

func TestValidateRange(t *testing.T) {
	assert.NoError(t, leave.ValidateRange(hiredMay2019, hiredMay2019))
	assert.NoError(t, leave.ValidateRange(hiredMay2019, date(2020, 1, 1)))
	assert.ErrorIs(t, leave.ValidateRange(hiredMay2019, date(2019, 4, 30)), generic.ErrAsOfBeforeHire)
}

// =============================================================================
// ANNUAL ENTITLEMENT
// =============================================================================

func TestComputeAnnualEntitlement_WorkedExample(t *testing.T) {
	// GIVEN: Employee hired 2019-05-01
	// WHEN: Computing entitlement on the documented dates
	// THEN: 22 in the anniversary year, then 15 + 0.5 per year after it

	tests := []struct {
		asOf generic.TimePoint
		want float64
	}{
		{date(2020, 6, 1), 22},
		{date(2021, 1, 15), 15.5},
		{date(2022, 3, 1), 16},
		{date(2024, 1, 1), 17},
	}

	for _, tt := range tests {
		t.Run(tt.asOf.String(), func(t *testing.T) {
			assertDays(t, tt.want, leave.ComputeAnnualEntitlement(hiredMay2019, tt.asOf))
		})
	}
}

func TestComputeAnnualEntitlement_FirstYearCountsCompletedMonths(t *testing.T) {
	assertDays(t, 0, leave.ComputeAnnualEntitlement(hiredMay2019, date(2019, 5, 31)))
	assertDays(t, 1, leave.ComputeAnnualEntitlement(hiredMay2019, date(2019, 6, 1)))
	assertDays(t, 7, leave.ComputeAnnualEntitlement(hiredMay2019, date(2019, 12, 31)))
	assertDays(t, 11, leave.ComputeAnnualEntitlement(hiredMay2019, date(2020, 4, 30)))
}

func TestComputeAnnualEntitlement_StepAtAnniversary(t *testing.T) {
	// GIVEN: Hire 2019-05-01, anniversary 2020-05-01
	// WHEN: Checking the day before and the day of the anniversary
	// THEN: FirstYear gives 11, AnniversaryYear jumps to 22

	anniversary := date(2020, 5, 1)
	before := anniversary.AddDays(-1)

	assert.Equal(t, leave.KindFirstYear, leave.ClassifyRegime(hiredMay2019, before).Kind())
	assert.Equal(t, leave.KindAnniversaryYear, leave.ClassifyRegime(hiredMay2019, anniversary).Kind())
	assertDays(t, 11, leave.ComputeAnnualEntitlement(hiredMay2019, before))
	assertDays(t, 22, leave.ComputeAnnualEntitlement(hiredMay2019, anniversary))
}

func TestComputeAnnualEntitlement_AnniversaryYearProration(t *testing.T) {
	tests := []struct {
		month time.Month
		want  float64
	}{
		{time.January, 27},     // 12 + 15*12/12
		{time.February, 25.75}, // 12 + 15*11/12
		{time.May, 22},
		{time.October, 15.75},  // 12 + 15*3/12
		{time.December, 13.25},
	}

	for _, tt := range tests {
		t.Run(tt.month.String(), func(t *testing.T) {
			hire := date(2019, tt.month, 1)
			asOf := date(2020, tt.month, 1)
			assertDays(t, tt.want, leave.ComputeAnnualEntitlement(hire, asOf))
		})
	}
}

func TestComputeAnnualEntitlement_NewRegimeAppliesFromJanuaryFirst(t *testing.T) {
	// GIVEN: Hire in November, so the anniversary year starts late
	// WHEN: Checking Jan 1 of the year after the anniversary year
	// THEN: SteadyState applies from Jan 1, regardless of the hire day

	hire := date(2019, time.November, 20)
	assertDays(t, 14.5, leave.ComputeAnnualEntitlement(hire, date(2020, 12, 31)))
	assertDays(t, 15.5, leave.ComputeAnnualEntitlement(hire, date(2021, 1, 1)))
}

func TestClassifyRegime_CarriesFormulaInputs(t *testing.T) {
	assert.Equal(t, leave.FirstYear{CompletedMonths: 3}, leave.ClassifyRegime(hiredMay2019, date(2019, 8, 1)))
	assert.Equal(t, leave.AnniversaryYear{HireMonth: time.May}, leave.ClassifyRegime(hiredMay2019, date(2020, 12, 1)))
	assert.Equal(t, leave.SteadyState{YearsSinceAnniversary: 3}, leave.ClassifyRegime(hiredMay2019, date(2023, 7, 1)))
	assert.Equal(t, 8, leave.AnniversaryYear{HireMonth: time.May}.RemainingMonths())
}

func TestComputeAnnualEntitlement_ReversedRangeIsZero(t *testing.T) {
	assertDays(t, 0, leave.ComputeAnnualEntitlement(hiredMay2019, date(2018, 1, 1)))
}

// =============================================================================
// BALANCE & USABILITY
// =============================================================================

func TestComputeLeaveBalance(t *testing.T) {
	b := leave.ComputeLeaveBalance(hiredMay2019, days(5), date(2020, 6, 1))

	assertDays(t, 22, b.TotalAnnualLeave)
	assertDays(t, 5, b.UsedAnnualLeave)
	assertDays(t, 17, b.RemainingAnnualLeave)
	assert.True(t, b.CalculationDate.Equal(date(2020, 6, 1)))
	assert.Equal(t, 1, b.WorkYears)
	assert.Equal(t, 1, b.WorkMonths)
	assert.Equal(t, leave.KindAnniversaryYear, b.Regime)
}

func TestComputeLeaveBalance_RemainingNeverNegative(t *testing.T) {
	// GIVEN: More used than entitled
	// THEN: Remaining is clamped to zero, total stays as computed

	b := leave.ComputeLeaveBalance(hiredMay2019, days(40), date(2021, 3, 1))
	assertDays(t, 15.5, b.TotalAnnualLeave)
	assertDays(t, 0, b.RemainingAnnualLeave)
	assert.False(t, b.RemainingAnnualLeave.IsNegative())
}

func TestComputeLeaveBalance_NegativeUsedRaisesRemaining(t *testing.T) {
	b := leave.ComputeLeaveBalance(hiredMay2019, days(-2), date(2021, 3, 1))
	assertDays(t, 17.5, b.RemainingAnnualLeave)
}

func TestCanUseLeave_Boundary(t *testing.T) {
	// GIVEN: 22 days total, 11 used, so 11 remain
	asOf := date(2020, 6, 1)
	used := days(11)
	remaining := leave.ComputeLeaveBalance(hiredMay2019, used, asOf).RemainingAnnualLeave
	assertDays(t, 11, remaining)

	// THEN: Exactly the remainder fits, anything above does not
	assert.True(t, leave.CanUseLeave(hiredMay2019, used, remaining, asOf))
	assert.False(t, leave.CanUseLeave(hiredMay2019, used, remaining.Add(days(0.1)), asOf))
}

func TestDeterminism(t *testing.T) {
	asOf := date(2023, 9, 17)
	for i := 0; i < 3; i++ {
		a := leave.ComputeLeaveBalance(hiredMay2019, days(3.5), asOf)
		b := leave.ComputeLeaveBalance(hiredMay2019, days(3.5), asOf)
		assert.True(t, a.TotalAnnualLeave.Equal(b.TotalAnnualLeave))
		assert.True(t, a.RemainingAnnualLeave.Equal(b.RemainingAnnualLeave))
		assert.Equal(t, a.WorkYears, b.WorkYears)
		assert.Equal(t, a.WorkMonths, b.WorkMonths)
	}
}
