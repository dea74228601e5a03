package commands

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jakechorley/hut-allocator/pkg/core/services"
	"github.com/jakechorley/hut-allocator/pkg/db"
)

// ListRunsCmd creates the listRuns command
func ListRunsCmd(app *AppContext) *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "listRuns [limit]",
		Short: "List recent allocation runs, or show one run with --run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit := 10
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return fmt.Errorf("limit must be a positive integer, got: %s", args[0])
				}
				limit = n
			}

			store, err := runStore(app)
			if err != nil {
				return err
			}
			if store == nil {
				return fmt.Errorf("no database configured (database.url)")
			}

			if runID != "" {
				detail, err := services.GetRun(app.Ctx, store, app.Logger, runID)
				if err != nil {
					return err
				}
				printRunDetail(cmd.OutOrStdout(), detail)
				return nil
			}

			runs, err := services.ListRuns(app.Ctx, store, app.Logger, limit)
			if err != nil {
				return err
			}
			printRuns(cmd.OutOrStdout(), runs)
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Show the assignments and suggestions of one run")
	return cmd
}

func printRuns(w io.Writer, runs []db.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tENV\tSEASON\tSCORE\tASSIGNED\tTIMED OUT")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s..%s\t%d\t%d/%d\t%t\n",
			r.ID, r.CreatedAt, r.Env, r.SeasonStart, r.SeasonEnd, r.Score, r.Assigned, r.Requesters, r.TimedOut)
	}
	tw.Flush()
}

func printRunDetail(w io.Writer, detail *services.RunDetail) {
	printRuns(w, []db.Run{detail.Run})

	fmt.Fprintf(w, "\nAssignments (%d)\n", len(detail.Assignments))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, a := range detail.Assignments {
		fmt.Fprintf(tw, "  %s\tP%d\t%s\t%s..%s\t%d\t%s\n", a.RequesterID, a.Rank, a.HutID, a.StartDate, a.EndDate, a.PartySize, a.TraverseGroup)
	}
	tw.Flush()

	fmt.Fprintf(w, "\nSuggestions (%d)\n", len(detail.Suggestions))
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, s := range detail.Suggestions {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", s.RequesterID, s.Huts, s.Dates, s.Note)
	}
	tw.Flush()
}
