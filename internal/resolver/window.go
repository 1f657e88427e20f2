package resolver

import (
	"time"

	"github.com/wolfman30/hospital-booking-mcp/internal/directory"
)

// DefaultWindowDays is how far ahead day availability is offered.
const DefaultWindowDays = 14

// FilterDays keeps days from today through today+windowDays inclusive,
// comparing calendar dates in now's location. Time of day is ignored. Days
// whose date could not be parsed are dropped.
func FilterDays(days []directory.Day, now time.Time, windowDays int) []directory.Day {
	if windowDays < 0 {
		windowDays = DefaultWindowDays
	}
	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	last := today.AddDate(0, 0, windowDays)

	out := make([]directory.Day, 0, len(days))
	for _, d := range days {
		if d.Date.IsZero() {
			continue
		}
		day := time.Date(d.Date.Year(), d.Date.Month(), d.Date.Day(), 0, 0, 0, 0, loc)
		if day.Before(today) || day.After(last) {
			continue
		}
		out = append(out, d)
	}
	return out
}
