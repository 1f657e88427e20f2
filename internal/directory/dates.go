package directory

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	upstreamDateLayout     = "02/01/2006"
	upstreamDateTimeLayout = "02/01/2006 15:04:05"
	defaultDurationMinutes = 30
)

// ParseUpstreamDate parses "DD/MM/YYYY" with an optional time part and returns
// local midnight of that calendar day in loc.
func ParseUpstreamDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	fields := strings.Fields(strings.TrimSpace(value))
	if len(fields) == 0 {
		return time.Time{}, errors.New("empty date")
	}
	t, err := time.ParseInLocation(upstreamDateLayout, fields[0], loc)
	if err != nil {
		// Some rows zero-pad inconsistently (1/9/2025).
		t, err = time.ParseInLocation("2/1/2006", fields[0], loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse date %q: %w", value, err)
		}
	}
	return t, nil
}

// FormatUpstreamDate renders Web_FromDate (DD/MM/YYYY).
func FormatUpstreamDate(t time.Time) string {
	return t.Format(upstreamDateLayout)
}

// AppointmentWindow is the pair of timestamps submit_appointment expects.
type AppointmentWindow struct {
	DateDone        string `json:"dateDone"`
	ExpectedEndDate string `json:"expectedEndDate"`
	OriginalDate    string `json:"originalDate"`
	OriginalTime    string `json:"originalTime"`
	Duration        int    `json:"duration"`
}

// FormatAppointmentWindow converts a YYYY-MM-DD date and HH:mm time into the
// DD/MM/YYYY HH:mm:ss start/end pair. Duration defaults to 30 minutes.
func FormatAppointmentWindow(date, clock string, durationMinutes int) (AppointmentWindow, error) {
	if durationMinutes <= 0 {
		durationMinutes = defaultDurationMinutes
	}
	start, err := time.ParseInLocation("2006-01-02 15:04", strings.TrimSpace(date)+" "+strings.TrimSpace(clock), time.Local)
	if err != nil {
		return AppointmentWindow{}, fmt.Errorf("format appointment date: %w", err)
	}
	end := start.Add(time.Duration(durationMinutes) * time.Minute)
	return AppointmentWindow{
		DateDone:        start.Format(upstreamDateTimeLayout),
		ExpectedEndDate: end.Format(upstreamDateTimeLayout),
		OriginalDate:    date,
		OriginalTime:    clock,
		Duration:        durationMinutes,
	}, nil
}
