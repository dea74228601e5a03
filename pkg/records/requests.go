package records

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/jakechorley/hut-allocator/pkg/core/allocator"
)

// Column names shared by request inputs (CSV files and sheet tabs)
const (
	ColUserName       = "UserName"
	ColPreferenceRank = "PreferenceRank"
	ColHut            = "Hut"
	ColStartDate      = "StartDate"
	ColEndDate        = "EndDate"
	ColPartySize      = "PartySize"
	ColTraverseGroup  = "TraverseGroup"
	ColSanctioned     = "Sanctioned"
	ColEmail          = "Email"
	ColStatus         = "Status"
)

// EntireParty books every place of the requested hut
const EntireParty = "ENTIRE"

// Required columns in a request header row; the others are optional
var requestFields = []string{
	ColUserName,
	ColPreferenceRank,
	ColHut,
	ColStartDate,
	ColEndDate,
	ColPartySize,
}

var optionalRequestFields = []string{
	ColTraverseGroup,
	ColSanctioned,
	ColEmail,
}

// Contacts maps a requester to the email address given with their requests
type Contacts map[string]string

// ParseRequests converts a header row plus data rows into requests.
// capacities resolves the ENTIRE party size. Every malformed row is reported, not just the first.
func ParseRequests(raw [][]string, capacities map[string]int) ([]allocator.Request, Contacts, error) {
	if len(raw) < 1 {
		return nil, nil, fmt.Errorf("no header row found")
	}

	// Build field index map from header row
	fieldIndexes := make(map[string]int)
	for _, field := range append(append([]string{}, requestFields...), optionalRequestFields...) {
		for i, cell := range raw[0] {
			if strings.TrimSpace(cell) == field {
				fieldIndexes[field] = i
				break
			}
		}
	}
	for _, field := range requestFields {
		if _, ok := fieldIndexes[field]; !ok {
			return nil, nil, fmt.Errorf("missing required field in header: %s", field)
		}
	}

	getField := func(field string, row []string) string {
		index, ok := fieldIndexes[field]
		if !ok || index >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[index])
	}

	requests := make([]allocator.Request, 0, len(raw)-1)
	contacts := make(Contacts)
	var errs error
	for i := 1; i < len(raw); i++ {
		row := raw[i]

		// Skip empty rows (rows with no user name)
		user := getField(ColUserName, row)
		if user == "" {
			continue
		}

		req, err := parseRequest(user, func(field string) string { return getField(field, row) }, capacities)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("row %d: %w", i+1, err))
			continue
		}
		requests = append(requests, req)

		if email := getField(ColEmail, row); email != "" {
			contacts[user] = email
		}
	}
	if errs != nil {
		return nil, nil, errs
	}

	return requests, contacts, nil
}

func parseRequest(user string, field func(string) string, capacities map[string]int) (allocator.Request, error) {
	rank, err := strconv.Atoi(field(ColPreferenceRank))
	if err != nil {
		return allocator.Request{}, fmt.Errorf("invalid preference rank %q", field(ColPreferenceRank))
	}

	start, err := time.Parse(allocator.DateLayout, field(ColStartDate))
	if err != nil {
		return allocator.Request{}, fmt.Errorf("invalid start date %q", field(ColStartDate))
	}
	end, err := time.Parse(allocator.DateLayout, field(ColEndDate))
	if err != nil {
		return allocator.Request{}, fmt.Errorf("invalid end date %q", field(ColEndDate))
	}

	hut := field(ColHut)
	party, err := parsePartySize(field(ColPartySize), hut, capacities)
	if err != nil {
		return allocator.Request{}, err
	}

	return allocator.Request{
		RequesterID:   user,
		Rank:          rank,
		HutID:         hut,
		Start:         start,
		End:           end,
		PartySize:     party,
		TraverseGroup: field(ColTraverseGroup),
		Sanctioned:    parseSanctioned(field(ColSanctioned)),
	}, nil
}

// parsePartySize reads a head count or ENTIRE, which takes the hut's full capacity
func parsePartySize(value, hut string, capacities map[string]int) (int, error) {
	if strings.EqualFold(value, EntireParty) {
		capacity, ok := capacities[hut]
		if !ok {
			return 0, fmt.Errorf("party size %s used for unknown hut %q", EntireParty, hut)
		}
		return capacity, nil
	}
	party, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid party size %q", value)
	}
	return party, nil
}

func parseSanctioned(value string) bool {
	switch strings.ToUpper(value) {
	case "YES", "TRUE", "1":
		return true
	default:
		return false
	}
}

// RequestRows renders requests back into input rows, header first
func RequestRows(requests []allocator.Request) [][]string {
	rows := [][]string{{ColUserName, ColPreferenceRank, ColHut, ColStartDate, ColEndDate, ColPartySize, ColTraverseGroup, ColSanctioned}}
	for _, req := range requests {
		rows = append(rows, []string{
			req.RequesterID,
			strconv.Itoa(req.Rank),
			req.HutID,
			req.Start.Format(allocator.DateLayout),
			req.End.Format(allocator.DateLayout),
			strconv.Itoa(req.PartySize),
			req.TraverseGroup,
			sanctionedCell(req.Sanctioned),
		})
	}
	return rows
}

func sanctionedCell(sanctioned bool) string {
	if sanctioned {
		return "YES"
	}
	return ""
}
