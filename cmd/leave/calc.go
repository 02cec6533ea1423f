package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/warp/leave-engine/api"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/leave"
)

// dateFlags are shared by every stateless command.
type dateFlags struct {
	hire string
	asOf string
}

func (f *dateFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.hire, "hire", "", "hire date, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.asOf, "as-of", "", "calculation date, YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("hire")
}

// resolve parses the flags and rejects calculation dates before the hire date.
func (f *dateFlags) resolve(clock leave.Clock) (hire, asOf generic.TimePoint, err error) {
	if hire, err = generic.ParseDate(f.hire); err != nil {
		return hire, asOf, fmt.Errorf("--hire: %w", err)
	}
	asOf = clock()
	if f.asOf != "" {
		if asOf, err = generic.ParseDate(f.asOf); err != nil {
			return hire, asOf, fmt.Errorf("--as-of: %w", err)
		}
	}
	if err := leave.ValidateRange(hire, asOf); err != nil {
		return hire, asOf, fmt.Errorf("%w: hired %s, as of %s", err, hire, asOf)
	}
	return hire, asOf, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// =============================================================================
// COMMANDS
// =============================================================================

type balanceOutput struct {
	api.BalanceDTO
	Requested *float64 `json:"requested,omitempty"`
	CanUse    *bool    `json:"can_use,omitempty"`
}

func newBalanceCmd(clock leave.Clock) *cobra.Command {
	var (
		dates     dateFlags
		used      float64
		requested float64
	)

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Total, used and remaining leave on a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			hire, asOf, err := dates.resolve(clock)
			if err != nil {
				return err
			}
			if requested < 0 {
				return fmt.Errorf("%w: --requested must not be negative", generic.ErrInvalidAmount)
			}

			out := balanceOutput{
				BalanceDTO: api.NewBalanceDTO(leave.ComputeLeaveBalance(hire, generic.Days(used), asOf)),
			}
			if cmd.Flags().Changed("requested") {
				ok := leave.CanUseLeave(hire, generic.Days(used), generic.Days(requested), asOf)
				out.Requested = &requested
				out.CanUse = &ok
			}
			return printJSON(cmd, out)
		},
	}

	dates.register(cmd)
	cmd.Flags().Float64Var(&used, "used", 0, "days already used")
	cmd.Flags().Float64Var(&requested, "requested", 0, "days to check against the remaining balance")
	return cmd
}

func newEntitlementCmd(clock leave.Clock) *cobra.Command {
	var dates dateFlags

	cmd := &cobra.Command{
		Use:   "entitlement",
		Short: "Annual entitlement on a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			hire, asOf, err := dates.resolve(clock)
			if err != nil {
				return err
			}
			regime := leave.ClassifyRegime(hire, asOf)
			return printJSON(cmd, map[string]any{
				"as_of":       asOf.String(),
				"entitlement": regime.Entitlement().Float64(),
				"regime":      regime.Kind(),
			})
		},
	}
	dates.register(cmd)
	return cmd
}

func newNextGrantCmd(clock leave.Clock) *cobra.Command {
	var dates dateFlags

	cmd := &cobra.Command{
		Use:   "next-grant",
		Short: "Date of the next entitlement change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			hire, asOf, err := dates.resolve(clock)
			if err != nil {
				return err
			}
			next, ok := leave.NextLeaveGrantDate(hire, asOf)
			return printJSON(cmd, api.NewNextGrantDTO(asOf, next, ok))
		},
	}
	dates.register(cmd)
	return cmd
}

func newHistoryCmd(clock leave.Clock) *cobra.Command {
	var dates dateFlags

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Every grant from the hire date up to a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			hire, asOf, err := dates.resolve(clock)
			if err != nil {
				return err
			}
			return printJSON(cmd, api.NewGrantEventDTOs(leave.GenerateLeaveGrantHistory(hire, asOf)))
		},
	}
	dates.register(cmd)
	return cmd
}
