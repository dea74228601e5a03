package records

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/jakechorley/hut-allocator/pkg/core/allocator"
)

// Column names of the alternatives and occupancy outputs
const (
	ColAlternativeHut = "AlternativeHut"
	ColDates          = "Dates"
	ColNote           = "Note"
	ColNight          = "Night"
	ColCommitted      = "Committed"
	ColCapacity       = "Capacity"
)

const (
	StatusUnassigned = "UNASSIGNED"
	noAlternatives   = "No alternatives available"
	notApplicable    = "N/A"
)

// AssignedStatus renders the status cell of an assigned request
func AssignedStatus(rank int, sanctioned bool) string {
	status := fmt.Sprintf("ASSIGNED (Preference %d)", rank)
	if sanctioned {
		status += " [SANCTIONED]"
	}
	return status
}

// AllocationRows renders a solution, header first, one row per assigned leg or, for
// unassigned requesters, one row per submitted request. Requesters are sorted by name.
func AllocationRows(sol *allocator.Solution) [][]string {
	rows := [][]string{{ColUserName, ColPreferenceRank, ColHut, ColStartDate, ColEndDate, ColPartySize, ColTraverseGroup, ColSanctioned, ColStatus}}

	statuses := sol.Statuses()
	slices.SortStableFunc(statuses, func(a, b allocator.RequesterStatus) int {
		return cmp.Compare(a.RequesterID, b.RequesterID)
	})

	for _, status := range statuses {
		requests := slices.Clone(status.Requests)
		if status.Assigned {
			// Keep traverse legs together in travel order
			slices.SortStableFunc(requests, func(a, b allocator.Request) int {
				return cmp.Or(cmp.Compare(a.TraverseGroup, b.TraverseGroup), a.Start.Compare(b.Start))
			})
		} else {
			slices.SortStableFunc(requests, func(a, b allocator.Request) int {
				return cmp.Or(cmp.Compare(a.Rank, b.Rank), a.Start.Compare(b.Start))
			})
		}

		for _, req := range requests {
			state := StatusUnassigned
			if status.Assigned {
				state = AssignedStatus(req.Rank, req.Sanctioned)
			}
			rows = append(rows, []string{
				req.RequesterID,
				strconv.Itoa(req.Rank),
				req.HutID,
				req.Start.Format(allocator.DateLayout),
				req.End.Format(allocator.DateLayout),
				strconv.Itoa(req.PartySize),
				req.TraverseGroup,
				sanctionedCell(req.Sanctioned),
				state,
			})
		}
	}
	return rows
}

// AlternativesRows renders suggestions, header first, sorted by requester.
// A requester with no suggestion still gets a row saying so.
func AlternativesRows(alternatives []allocator.Alternatives) [][]string {
	rows := [][]string{{ColUserName, ColAlternativeHut, ColDates, ColPartySize, ColNote}}

	sorted := slices.Clone(alternatives)
	slices.SortStableFunc(sorted, func(a, b allocator.Alternatives) int {
		return cmp.Compare(a.RequesterID, b.RequesterID)
	})

	for _, alt := range sorted {
		if len(alt.Suggestions) == 0 {
			rows = append(rows, []string{alt.RequesterID, notApplicable, notApplicable, notApplicable, noAlternatives})
			continue
		}
		for _, s := range alt.Suggestions {
			huts, dates := FormatStays(s.Stays)
			rows = append(rows, []string{alt.RequesterID, huts, dates, strconv.Itoa(s.PartySize), s.Note})
		}
	}
	return rows
}

// FormatStays renders the huts and date ranges of an itinerary as two cells
func FormatStays(stays []allocator.Stay) (string, string) {
	huts := make([]string, len(stays))
	dates := make([]string, len(stays))
	for i, stay := range stays {
		huts[i] = stay.HutID
		dates[i] = stay.Start.Format(allocator.DateLayout) + " to " + stay.End.Format(allocator.DateLayout)
	}
	return strings.Join(huts, " -> "), strings.Join(dates, "; ")
}

// OccupancyRows renders the committed load of every occupied hut night, header first
func OccupancyRows(sol *allocator.Solution) [][]string {
	rows := [][]string{{ColHut, ColNight, ColCommitted, ColCapacity}}
	for _, o := range sol.Ledger().Occupancy() {
		rows = append(rows, []string{o.HutID, o.Night, strconv.Itoa(o.Committed), strconv.Itoa(o.Capacity)})
	}
	return rows
}
