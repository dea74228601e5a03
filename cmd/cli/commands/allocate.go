package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/hut-allocator/pkg/core/allocator"
	"github.com/jakechorley/hut-allocator/pkg/core/services"
)

// AllocateCmd creates the allocate command
func AllocateCmd(app *AppContext) *cobra.Command {
	var (
		source  sourceFlags
		outDir  string
		dryRun  bool
		publish bool
		notify  bool
		label   string
		seed    int64
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Allocate hut reservations and suggest alternatives for unassigned requesters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("seed") {
				app.Cfg.Optimizer.Seed = seed
			}
			if cmd.Flags().Changed("timeout") {
				app.Cfg.Optimizer.Timeout = timeout
			}

			src, err := requestSource(app, source)
			if err != nil {
				return err
			}
			store, err := runStore(app)
			if err != nil {
				return err
			}

			result, err := services.AllocateHuts(app.Ctx, src, store, app.Cfg, app.Logger, services.AllocateOptions{
				Env:       app.Env,
				OutputDir: outDir,
				DryRun:    dryRun,
			})
			if err != nil {
				return err
			}

			printOutcome(cmd.OutOrStdout(), result)

			if publish {
				sheets, err := app.Sheets()
				if err != nil {
					return err
				}
				if label == "" {
					label = time.Now().Format("2006-01-02 15:04")
				}
				tabs, err := services.PublishAllocation(app.Ctx, sheets, app.Cfg, app.Logger, result.Outcome, label)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Published tabs: %s, %s, %s\n", tabs.Allocation, tabs.Alternatives, tabs.Occupancy)
			}

			if notify {
				mailer, err := app.Gmail()
				if err != nil {
					return err
				}
				sent, err := services.NotifyUnassigned(app.Ctx, mailer, result.Contacts, app.Logger, result.Outcome, app.Cfg.Gmail.Subject)
				if sent != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "Emails sent: %d (no contact: %d)\n", len(sent.Sent), len(sent.NoContact))
				}
				if err != nil {
					app.Logger.Error("Some notifications failed", zap.Error(err))
					return err
				}
			}

			return nil
		},
	}

	source.register(cmd)
	cmd.Flags().StringVarP(&outDir, "out", "o", "results", "Directory for the CSV outputs (empty to skip)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Do not save the run to the database")
	cmd.Flags().BoolVar(&publish, "publish", false, "Publish the allocation to the results spreadsheet")
	cmd.Flags().BoolVar(&notify, "notify", false, "Email unassigned requesters their alternatives")
	cmd.Flags().StringVar(&label, "label", "", "Tab name prefix when publishing (default: current time)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Override the configured random seed")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Override the configured time budget")

	return cmd
}

// printOutcome writes a human summary of an allocation run
func printOutcome(w io.Writer, result *services.AllocationResult) {
	outcome := result.Outcome
	requesters := len(outcome.Problem.Requesters())

	fmt.Fprintf(w, "\nAllocation complete in %s\n\n", outcome.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "Score:      %d\n", outcome.Best.Score())
	fmt.Fprintf(w, "Assigned:   %d of %d requesters\n", outcome.Best.AssignedCount(), requesters)

	counts := outcome.Best.RankCounts()
	for rank := 1; rank <= allocator.MaxRank; rank++ {
		if counts[rank] > 0 {
			fmt.Fprintf(w, "  Preference %d: %d\n", rank, counts[rank])
		}
	}

	fmt.Fprintf(w, "Trials:     %d completed, %d abandoned\n", outcome.TrialsCompleted, outcome.TrialsAbandoned)
	if outcome.TimedOut {
		fmt.Fprintln(w, "WARNING: time budget reached before every trial completed")
	}
	if outcome.NoFeasibleAssignment {
		fmt.Fprintln(w, "WARNING: no requester could be assigned")
	}
	if len(outcome.Warnings) > 0 {
		fmt.Fprintf(w, "Excluded:   %d requests (see log)\n", len(outcome.Warnings))
	}

	if len(outcome.TopK) > 1 {
		fmt.Fprint(w, "Top scores:")
		for _, sol := range outcome.TopK {
			fmt.Fprintf(w, " %d", sol.Score())
		}
		fmt.Fprintln(w)
	}

	if len(outcome.Alternatives) > 0 {
		fmt.Fprintf(w, "Unassigned: %d requesters, alternatives suggested\n", len(outcome.Alternatives))
	}
	for _, f := range result.Files {
		fmt.Fprintf(w, "Wrote %s\n", f)
	}
	if result.RunID != "" {
		fmt.Fprintf(w, "Run ID:     %s\n", result.RunID)
	}
	fmt.Fprintln(w)
}
