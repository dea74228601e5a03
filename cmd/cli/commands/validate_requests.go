package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/hut-allocator/pkg/core/services"
)

// ValidateRequestsCmd creates the validateRequests command
func ValidateRequestsCmd(app *AppContext) *cobra.Command {
	var source sourceFlags

	cmd := &cobra.Command{
		Use:   "validateRequests",
		Short: "Check a request set against the configuration without allocating",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := requestSource(app, source)
			if err != nil {
				return err
			}

			report, err := services.ValidateRequests(app.Ctx, src, app.Cfg, app.Logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\n%d requests from %d requesters\n", report.Requests, report.Requesters)
			if len(report.Warnings) == 0 {
				fmt.Fprintln(out, "Every request can be considered")
				return nil
			}

			fmt.Fprintf(out, "%d requests will be excluded:\n", len(report.Warnings))
			for _, w := range report.Warnings {
				fmt.Fprintf(out, "  %s (P%d, %s): %s\n", w.Request.RequesterID, w.Request.Rank, w.Request.HutID, w.Reason)
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	source.register(cmd)
	return cmd
}
