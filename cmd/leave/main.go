/*
main.go - Command-line entry point for the leave engine

PURPOSE:
  One binary for both faces of the engine:
  - serve: HTTP API plus the grant notice scheduler
  - balance, entitlement, next-grant, history: evaluate the policy for a
    single hire date without any database

COMMANDS:
  leave serve       [--port 8080] [--db leave.db] [--no-scheduler]
  leave balance     --hire 2019-05-01 [--as-of 2022-03-01] [--used 3] [--requested 5]
  leave entitlement --hire 2019-05-01 [--as-of ...]
  leave next-grant  --hire 2019-05-01 [--as-of ...]
  leave history     --hire 2019-05-01 [--as-of ...]

GLOBAL FLAGS:
  --config   YAML config file (default: $LEAVE_CONFIG)

EXIT CODES:
  0 success, 1 any error (message on stderr)

SEE ALSO:
  - serve.go: Server startup and graceful shutdown
  - calc.go: Stateless calculation commands
  - internal/config: Config file format
*/
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/warp/leave-engine/leave"
)

func main() {
	if err := newRootCmd(os.Stdout, leave.SystemClock).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Output and "today" are injected so
// tests can pin both.
func newRootCmd(out io.Writer, clock leave.Clock) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "leave",
		Short: "Annual leave accrual engine",
		Long: `Computes statutory annual leave from a hire date.

First year:      1 day per completed month of service.
Following year:  12 days plus 15 days prorated by the months left after the hire month.
Afterwards:      15 days plus half a day per year since the first anniversary, granted each January 1st.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (default $LEAVE_CONFIG)")

	root.AddCommand(
		newServeCmd(&configPath, clock),
		newBalanceCmd(clock),
		newEntitlementCmd(clock),
		newNextGrantCmd(clock),
		newHistoryCmd(clock),
	)
	return root
}
