package allocator

import (
	"fmt"
	"time"
)

// DateLayout is the layout used for every date crossing the allocator boundary
const DateLayout = "2006-01-02"

// Season is the half-open window [Start, End) of bookable nights
type Season struct {
	Start time.Time
	End   time.Time
}

// NewSeason normalises both bounds to midnight UTC and checks that the window is non-empty
func NewSeason(start, end time.Time) (Season, error) {
	s := Season{Start: truncateDay(start), End: truncateDay(end)}
	if !s.End.After(s.Start) {
		return Season{}, fmt.Errorf("season end %s must be after start %s",
			s.End.Format(DateLayout), s.Start.Format(DateLayout))
	}
	return s, nil
}

// ParseSeason parses two YYYY-MM-DD dates into a Season
func ParseSeason(start, end string) (Season, error) {
	startDate, err := time.Parse(DateLayout, start)
	if err != nil {
		return Season{}, fmt.Errorf("invalid season start: %w", err)
	}
	endDate, err := time.Parse(DateLayout, end)
	if err != nil {
		return Season{}, fmt.Errorf("invalid season end: %w", err)
	}
	return NewSeason(startDate, endDate)
}

// Nights returns the number of bookable nights in the season
func (s Season) Nights() int {
	return NightCount(s.Start, s.End)
}

// NightIndex returns the offset of date from the season start in nights.
// Dates before the start yield negative offsets.
func (s Season) NightIndex(date time.Time) int {
	return NightCount(s.Start, date)
}

// Date returns the calendar date of the night at the given offset
func (s Season) Date(night int) time.Time {
	return s.Start.AddDate(0, 0, night)
}

// Contains reports whether every night of [start, end) falls inside the season
func (s Season) Contains(start, end time.Time) bool {
	first := s.NightIndex(start)
	last := s.NightIndex(end)
	return first >= 0 && last <= s.Nights() && last > first
}

// NightCount returns the number of nights between two dates (end exclusive)
func NightCount(start, end time.Time) int {
	return int(truncateDay(end).Sub(truncateDay(start)).Hours() / 24)
}

// Nights expands a half-open date range into the dates of the nights it occupies
func Nights(start, end time.Time) []time.Time {
	n := NightCount(start, end)
	if n <= 0 {
		return nil
	}
	nights := make([]time.Time, n)
	first := truncateDay(start)
	for i := range nights {
		nights[i] = first.AddDate(0, 0, i)
	}
	return nights
}

// truncateDay drops the time of day, keeping the calendar date in UTC
func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
