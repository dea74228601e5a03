package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/hut-allocator/pkg/core/services"
	"github.com/jakechorley/hut-allocator/pkg/db"
)

// sourceFlags selects where requests are read from
type sourceFlags struct {
	input     string
	fromSheet bool
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "Request CSV file")
	cmd.Flags().BoolVar(&f.fromSheet, "from-sheet", false, "Read requests from the configured Google Sheet")
	cmd.MarkFlagsMutuallyExclusive("input", "from-sheet")
	cmd.MarkFlagsOneRequired("input", "from-sheet")
}

// requestSource builds the source chosen by the flags
func requestSource(app *AppContext, f sourceFlags) (services.RequestSource, error) {
	if !f.fromSheet {
		return services.CSVSource{Path: f.input}, nil
	}

	if app.Cfg.Sheets.RequestsSheetID == "" {
		return nil, fmt.Errorf("no requests spreadsheet configured (sheets.requestsSheetID)")
	}
	sheets, err := app.Sheets()
	if err != nil {
		return nil, err
	}
	return services.SheetSource{
		Reader:        sheets,
		SpreadsheetID: app.Cfg.Sheets.RequestsSheetID,
		Tab:           app.Cfg.Sheets.RequestsTab,
	}, nil
}

// runStore returns the configured store, or a nil interface when there is none
func runStore(app *AppContext) (db.RunStore, error) {
	database, err := app.Database()
	if err != nil || database == nil {
		return nil, err
	}
	return database, nil
}
