package stats

import (
	"strings"
	"time"
)

// DateKeyLayout is the calendar-day format shared with the record store
const DateKeyLayout = "2006-01-02"

// Filter restricts an aggregation to one calendar day and, optionally,
// one recruiter.
type Filter struct {
	// RecruiterID restricts matching to records created by this
	// recruiter; empty means no restriction
	RecruiterID string

	// Day is midnight of the target calendar day in the reference timezone
	Day time.Time
}

// Window returns the half-open interval [midnight, next midnight) covering
// the filter's day
func (f Filter) Window() (time.Time, time.Time) {
	return f.Day, f.Day.AddDate(0, 0, 1)
}

// DateKey returns the store partition key for the filter's day
func (f Filter) DateKey() string {
	return f.Day.Format(DateKeyLayout)
}

// ResolveFilter normalizes raw query inputs into a Filter. An empty
// recruiter ID means no recruiter restriction. An empty or unparseable
// date falls back to the current day rather than failing; the second
// return value reports whether that fallback happened for a non-empty
// input.
func ResolveFilter(rawRecruiterID, rawDate string, loc *time.Location) (Filter, bool) {
	return resolveFilterAt(rawRecruiterID, rawDate, loc, time.Now())
}

func resolveFilterAt(rawRecruiterID, rawDate string, loc *time.Location, now time.Time) (Filter, bool) {
	filter := Filter{RecruiterID: strings.TrimSpace(rawRecruiterID)}

	coerced := false
	rawDate = strings.TrimSpace(rawDate)
	if rawDate != "" {
		if day, err := time.ParseInLocation(DateKeyLayout, rawDate, loc); err == nil {
			filter.Day = day
			return filter, false
		}
		coerced = true
	}

	// Default to the current calendar day in the reference timezone
	year, month, day := now.In(loc).Date()
	filter.Day = time.Date(year, month, day, 0, 0, 0, 0, loc)
	return filter, coerced
}
