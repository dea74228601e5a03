package allocator

import (
	"fmt"
	"time"
)

// Request is one ranked, dated, sized reservation ask submitted by a requester
type Request struct {
	// RequesterID identifies the user or group that submitted the request
	RequesterID string

	// Rank is the preference rank, 1 being the most preferred
	Rank int

	// HutID names the hut being requested
	HutID string

	// Start is the first night of the stay
	Start time.Time

	// End is the departure date (exclusive)
	End time.Time

	// PartySize is the number of places needed on every night of the stay
	PartySize int

	// TraverseGroup links several legs of the same rank into one atomic choice.
	// Empty for ordinary single-hut requests.
	TraverseGroup string

	// Sanctioned marks an officially sanctioned trip; it is reported but never scored
	Sanctioned bool
}

// NightCount returns the number of nights the request occupies
func (r Request) NightCount() int {
	return NightCount(r.Start, r.End)
}

// IsTraverse returns true if the request is one leg of a traverse
func (r Request) IsTraverse() bool {
	return r.TraverseGroup != ""
}

func (r Request) String() string {
	return fmt.Sprintf("%s (P%d): %s, %s to %s, %d people",
		r.RequesterID, r.Rank, r.HutID, r.Start.Format(DateLayout), r.End.Format(DateLayout), r.PartySize)
}

// Hut is a capacity-bounded shared resource
type Hut struct {
	ID       string
	Capacity int
}

// CapacityOverride replaces a hut's capacity on one night (closures, reduced service)
type CapacityOverride struct {
	HutID    string
	Night    time.Time
	Capacity int
}

// leg is the compiled form of a request: a hut index and a half-open night range
// expressed as offsets from the season start
type leg struct {
	hut   int
	first int
	last  int
}

// overlaps reports whether two legs share at least one night key
func (l leg) overlaps(other leg) bool {
	return l.hut == other.hut && l.first < other.last && other.first < l.last
}

// Choice is one option a requester can be assigned: a single request, or all legs of a traverse
type Choice struct {
	// Requester is the index of the owning requester in the problem
	Requester int

	// Rank is the preference rank shared by all requests of the choice
	Rank int

	// Points is the score awarded when this choice is assigned (bonus excluded)
	Points int

	// PartySize is the number of places taken on every night of every leg
	PartySize int

	// Requests are the submitted requests this choice was compiled from
	Requests []Request

	legs []leg
}

// overlaps reports whether the two choices compete for at least one night key
func (c *Choice) overlaps(other *Choice) bool {
	for _, a := range c.legs {
		for _, b := range other.legs {
			if a.overlaps(b) {
				return true
			}
		}
	}
	return false
}

// NightCount returns the total nights across all legs
func (c *Choice) NightCount() int {
	total := 0
	for _, l := range c.legs {
		total += l.last - l.first
	}
	return total
}

// Requester groups a requester's valid choices ordered by ascending rank
type Requester struct {
	ID      string
	Choices []*Choice

	// Submitted holds every request the requester sent, valid or not, in rank order
	Submitted []Request
}
