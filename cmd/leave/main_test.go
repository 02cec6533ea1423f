package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-engine/api"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/leave"
)

// run executes the CLI with "today" pinned to 2022-03-01.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(&out, leave.FixedClock(generic.NewTimePoint(2022, 3, 1)))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestBalanceCmd(t *testing.T) {
	out, err := run(t, "balance", "--hire", "2019-05-01", "--as-of", "2020-06-01", "--used", "5", "--requested", "18")
	require.NoError(t, err)

	var got struct {
		api.BalanceDTO
		CanUse *bool `json:"can_use"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got), out)
	assert.Equal(t, 22.0, got.TotalAnnualLeave)
	assert.Equal(t, 17.0, got.RemainingAnnualLeave)
	require.NotNil(t, got.CanUse)
	assert.False(t, *got.CanUse)
}

func TestBalanceCmd_DefaultsToToday(t *testing.T) {
	out, err := run(t, "balance", "--hire", "2019-05-01")
	require.NoError(t, err)

	var got api.BalanceDTO
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "2022-03-01", got.CalculationDate)
	assert.Equal(t, 16.0, got.TotalAnnualLeave)
	assert.NotContains(t, out, "can_use", "can_use only appears with --requested")
}

func TestEntitlementCmd(t *testing.T) {
	out, err := run(t, "entitlement", "--hire", "2020-11-20", "--as-of", "2020-12-31")
	require.NoError(t, err)
	assert.JSONEq(t, `{"as_of":"2020-12-31","entitlement":1,"regime":"first_year"}`, out)
}

func TestNextGrantCmd(t *testing.T) {
	out, err := run(t, "next-grant", "--hire", "2019-05-01")
	require.NoError(t, err)
	assert.JSONEq(t, `{"as_of":"2022-03-01","next_grant_date":"2022-05-01","days_until":61}`, out)
}

func TestHistoryCmd(t *testing.T) {
	out, err := run(t, "history", "--hire", "2019-05-01", "--as-of", "2019-08-01")
	require.NoError(t, err)

	var events []api.GrantEventDTO
	require.NoError(t, json.Unmarshal([]byte(out), &events))
	require.Len(t, events, 3)
	assert.Equal(t, "2019-06-01", events[0].Date)
	assert.Equal(t, "month 3 accrual", events[2].Reason)
}

func TestCalcCmds_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		is   error
	}{
		{"missing hire", []string{"balance"}, nil},
		{"malformed hire", []string{"history", "--hire", "01/05/2019"}, nil},
		{"as-of before hire", []string{"entitlement", "--hire", "2019-05-01", "--as-of", "2019-01-01"}, generic.ErrAsOfBeforeHire},
		{"negative requested", []string{"balance", "--hire", "2019-05-01", "--requested", "-1"}, generic.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}
