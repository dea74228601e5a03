package records

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jakechorley/hut-allocator/pkg/core/allocator"
)

// Output file names written by WriteOutcome
const (
	BestAllocationFile = "allocation_best.csv"
	AlternativesFile   = "alternative_suggestions.csv"
	OccupancyFile      = "occupancy.csv"
)

// TopAllocationFile returns the file name of the i-th top solution (1-based)
func TopAllocationFile(i int) string {
	return fmt.Sprintf("allocation_top%d.csv", i)
}

// ReadRequestsCSV reads and parses a request file
func ReadRequestsCSV(path string, capacities map[string]int) ([]allocator.Request, Contacts, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open requests file: %w", err)
	}
	defer f.Close()

	raw, err := ReadCSV(f)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read requests file: %w", err)
	}

	return ParseRequests(raw, capacities)
}

// ReadCSV reads every record of a CSV stream; rows may have differing lengths
func ReadCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	return reader.ReadAll()
}

// WriteCSV writes rows to w
func WriteCSV(w io.Writer, rows [][]string) error {
	writer := csv.NewWriter(w)
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// WriteCSVFile creates (or truncates) path and writes rows to it
func WriteCSVFile(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteCSV(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteOutcome writes the best and top-K allocations, the alternatives and the occupancy
// summary into dir, returning the paths written
func WriteOutcome(dir string, outcome *allocator.AllocationOutcome) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	files := map[string][][]string{
		BestAllocationFile: AllocationRows(outcome.Best),
		OccupancyFile:      OccupancyRows(outcome.Best),
	}
	order := []string{BestAllocationFile}
	for i, sol := range outcome.TopK {
		name := TopAllocationFile(i + 1)
		files[name] = AllocationRows(sol)
		order = append(order, name)
	}
	if len(outcome.Alternatives) > 0 {
		files[AlternativesFile] = AlternativesRows(outcome.Alternatives)
		order = append(order, AlternativesFile)
	}
	order = append(order, OccupancyFile)

	paths := make([]string, 0, len(order))
	for _, name := range order {
		path := filepath.Join(dir, name)
		if err := WriteCSVFile(path, files[name]); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
