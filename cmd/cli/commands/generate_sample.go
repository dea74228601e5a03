package commands

import (
	"fmt"
	"math/rand"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/hut-allocator/pkg/core/allocator"
	"github.com/jakechorley/hut-allocator/pkg/records"
)

// GenerateSampleCmd creates the generateSample command
func GenerateSampleCmd(app *AppContext) *cobra.Command {
	var (
		users     int
		seed      int64
		maxNights int
		output    string
	)

	cmd := &cobra.Command{
		Use:   "generateSample",
		Short: "Write a random request CSV for the configured huts and season",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if users < 1 {
				return fmt.Errorf("users must be positive, got %d", users)
			}

			season, err := allocator.ParseSeason(app.Cfg.Season.Start, app.Cfg.Season.End)
			if err != nil {
				return err
			}
			huts := make([]allocator.Hut, len(app.Cfg.Huts))
			for i, hut := range app.Cfg.Huts {
				huts[i] = allocator.Hut{ID: hut.Name, Capacity: hut.Capacity}
			}

			requests := records.GenerateSample(rand.New(rand.NewSource(seed)), records.SampleOptions{
				Users:     users,
				Huts:      huts,
				Season:    season,
				MaxNights: maxNights,
			})

			if err := records.WriteCSVFile(output, records.RequestRows(requests)); err != nil {
				return err
			}

			app.Logger.Info("Generated sample requests",
				zap.String("path", output),
				zap.Int("users", users),
				zap.Int("requests", len(requests)))
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d requests from %d users to %s\n", len(requests), users, output)
			return nil
		},
	}

	cmd.Flags().IntVarP(&users, "users", "u", 50, "Number of requesters")
	cmd.Flags().Int64Var(&seed, "seed", 1, "Random seed")
	cmd.Flags().IntVar(&maxNights, "max-nights", 4, "Longest stay generated")
	cmd.Flags().StringVarP(&output, "out", "o", "sample_requests.csv", "Output CSV path")
	return cmd
}
