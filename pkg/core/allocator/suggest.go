package allocator

import (
	"fmt"
	"time"
)

// Stay is one hut over a half-open date range
type Stay struct {
	HutID string
	Start time.Time
	End   time.Time
}

// Suggestion is an alternative itinerary that fits the remaining capacity of a solution
type Suggestion struct {
	RequesterID string
	PartySize   int
	Stays       []Stay
	Note        string
}

// Alternatives groups the suggestions for one unassigned requester.
// Suggestions is empty when nothing fits.
type Alternatives struct {
	RequesterID string
	PartySize   int
	Suggestions []Suggestion
}

// shape is the itinerary searched for: legs relative to the requested start
type shape struct {
	legs      []leg
	partySize int
	traverse  bool
}

// SuggestAlternatives proposes, for every unassigned requester, stays that would fit the
// solution's remaining capacity. It never changes the solution. Candidates are ordered by
// distance from the requested start, then hut configuration order, and capped at limit per
// requester (limit <= 0 means no cap).
func SuggestAlternatives(s *Solution, limit int) []Alternatives {
	p := s.problem
	var out []Alternatives
	for r, requester := range p.requesters {
		if s.IsAssigned(r) {
			continue
		}
		alt := Alternatives{RequesterID: requester.ID}
		sh, ok := p.shapeFor(requester)
		if ok {
			alt.PartySize = sh.partySize
			if sh.traverse {
				alt.Suggestions = p.suggestTraverse(s.ledger, requester.ID, sh, limit)
			} else {
				alt.Suggestions = p.suggestStay(s.ledger, requester.ID, sh, limit)
			}
		} else if len(requester.Submitted) > 0 {
			alt.PartySize = requester.Submitted[0].PartySize
		}
		out = append(out, alt)
	}
	return out
}

// shapeFor derives the itinerary to search from the requester's best valid choice, falling
// back to its first submitted request when every choice was excluded
func (p *Problem) shapeFor(requester *Requester) (shape, bool) {
	if len(requester.Choices) > 0 {
		c := requester.Choices[0]
		return shape{legs: c.legs, partySize: c.PartySize, traverse: len(c.legs) > 1}, true
	}

	for _, req := range requester.Submitted {
		nights := req.NightCount()
		if nights <= 0 || nights > p.season.Nights() || req.PartySize <= 0 {
			continue
		}
		hut, ok := p.hutIndex[req.HutID]
		if !ok {
			hut = -1
		}
		first := min(max(p.season.NightIndex(req.Start), 0), p.season.Nights()-nights)
		return shape{
			legs:      []leg{{hut: hut, first: first, last: first + nights}},
			partySize: req.PartySize,
		}, true
	}
	return shape{}, false
}

// offsets yields start shifts ordered by distance: 0, -1, +1, -2, +2, ...
func offsets(limit int) []int {
	out := []int{0}
	for d := 1; d <= limit; d++ {
		out = append(out, -d, d)
	}
	return out
}

func (p *Problem) suggestStay(l *Ledger, requesterID string, sh shape, limit int) []Suggestion {
	requested := sh.legs[0]
	nights := requested.last - requested.first

	var out []Suggestion
	for _, shift := range offsets(p.season.Nights()) {
		first := requested.first + shift
		if first < 0 || first+nights > p.season.Nights() {
			continue
		}
		for hut := range p.huts {
			if !l.fits(hut, first, first+nights, sh.partySize) {
				continue
			}
			out = append(out, Suggestion{
				RequesterID: requesterID,
				PartySize:   sh.partySize,
				Stays: []Stay{{
					HutID: p.huts[hut].ID,
					Start: p.season.Date(first),
					End:   p.season.Date(first + nights),
				}},
				Note: stayNote(hut == requested.hut, shift),
			})
			if limit > 0 && len(out) >= limit {
				return out
			}
		}
	}
	return out
}

// suggestTraverse moves the whole itinerary in time. On the requested dates it also tries
// rerouting each full leg to another hut.
func (p *Problem) suggestTraverse(l *Ledger, requesterID string, sh shape, limit int) []Suggestion {
	var out []Suggestion
	add := func(stays []Stay, note string) bool {
		out = append(out, Suggestion{RequesterID: requesterID, PartySize: sh.partySize, Stays: stays, Note: note})
		return limit > 0 && len(out) >= limit
	}

	for _, shift := range offsets(p.season.Nights()) {
		if stays := p.placeTraverse(l, sh, shift, false); stays != nil {
			note := "requested traverse"
			if shift != 0 {
				note = fmt.Sprintf("traverse moved %s", dayShift(shift))
			}
			if add(stays, note) {
				break
			}
			continue
		}
		if shift != 0 {
			continue
		}
		if stays := p.placeTraverse(l, sh, 0, true); stays != nil {
			if add(stays, "same dates, traverse rerouted") {
				break
			}
		}
	}
	return out
}

// placeTraverse returns the legs shifted by shift days, or nil when a leg has no room. With
// reroute set, a leg whose hut is full takes the first other hut that fits.
func (p *Problem) placeTraverse(l *Ledger, sh shape, shift int, reroute bool) []Stay {
	stays := make([]Stay, 0, len(sh.legs))
	for _, lg := range sh.legs {
		first, last := lg.first+shift, lg.last+shift
		hut := -1
		if l.fits(lg.hut, first, last, sh.partySize) {
			hut = lg.hut
		} else if reroute {
			for other := range p.huts {
				if other != lg.hut && l.fits(other, first, last, sh.partySize) {
					hut = other
					break
				}
			}
		}
		if hut < 0 {
			return nil
		}
		stays = append(stays, Stay{
			HutID: p.huts[hut].ID,
			Start: p.season.Date(first),
			End:   p.season.Date(last),
		})
	}
	return stays
}

func stayNote(sameHut bool, shift int) string {
	switch {
	case sameHut && shift == 0:
		return "requested hut and dates"
	case shift == 0:
		return "same dates, different hut"
	case sameHut:
		return fmt.Sprintf("same hut, %s", dayShift(shift))
	default:
		return fmt.Sprintf("different hut, %s", dayShift(shift))
	}
}

func dayShift(shift int) string {
	days := shift
	direction := "later"
	if shift < 0 {
		days = -shift
		direction = "earlier"
	}
	if days == 1 {
		return "1 day " + direction
	}
	return fmt.Sprintf("%d days %s", days, direction)
}
