package sheetsclient

import (
	"context"
	"fmt"
)

// ReadRows reads every row of a tab as strings
func (c *Client) ReadRows(ctx context.Context, spreadsheetID, tab string) ([][]string, error) {
	values, err := c.GetValues(ctx, spreadsheetID, tab)
	if err != nil {
		return nil, fmt.Errorf("failed to read tab %s: %w", tab, err)
	}
	return toStrings(values), nil
}

// WriteTab writes rows into a tab starting at A1, creating the tab if it does not exist
func (c *Client) WriteTab(ctx context.Context, spreadsheetID, tab string, rows [][]string) error {
	exists, err := c.HasSheet(ctx, spreadsheetID, tab)
	if err != nil {
		return err
	}
	if !exists {
		if _, err := c.CreateSheet(ctx, spreadsheetID, tab); err != nil {
			return err
		}
	}

	if err := c.UpdateValues(ctx, spreadsheetID, tab+"!A1", toValues(rows)); err != nil {
		return fmt.Errorf("failed to write tab %s: %w", tab, err)
	}
	return nil
}

// toStrings converts API cell values to strings; empty cells become ""
func toStrings(values [][]interface{}) [][]string {
	rows := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, cell := range row {
			if cell != nil {
				cells[j] = fmt.Sprint(cell)
			}
		}
		rows[i] = cells
	}
	return rows
}

func toValues(rows [][]string) [][]interface{} {
	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, cell := range row {
			cells[j] = cell
		}
		values[i] = cells
	}
	return values
}
