package timeparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Now is swapped out in tests to pin the reference date.
var Now = time.Now

var (
	clockMeridiem = regexp.MustCompile(`(\d{1,2}):(\d{2})\s*(am|pm)`)
	hourMeridiem  = regexp.MustCompile(`(\d{1,2})\s*(am|pm)`)
	clock24       = regexp.MustCompile(`(\d{1,2}):(\d{2})`)
	isoDate       = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
)

var weekdayNames = []string{
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
}

// Resolver turns spoken date/time phrases into UTC instants. The zero value
// is ready to use and is lenient: anything it cannot recognize falls back to
// today at noon. With Strict set, a phrase containing no recognizable day or
// time token is reported as unparseable instead.
type Resolver struct {
	Strict bool
}

// ResolveInstant parses phrases like "tomorrow at 4pm" or "Monday at 9:30am"
// into a start/end pair. End is start plus defaultDurationHours. Callers must
// treat ok=false as "could not parse" and fall back to any explicit timestamp
// they were given.
func (r *Resolver) ResolveInstant(phrase string, defaultDurationHours int) (time.Time, time.Time, bool) {
	text := strings.ToLower(strings.TrimSpace(phrase))
	now := Now().UTC()

	target, dayFound := resolveDay(text, now, false)

	// Default to noon when no time of day is spoken.
	hour, minute := 12, 0
	timeFound := false

	if m := clockMeridiem.FindStringSubmatch(text); m != nil {
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
		hour = to24Hour(hour, m[3])
		timeFound = true
	} else if m := hourMeridiem.FindStringSubmatch(text); m != nil {
		hour, _ = strconv.Atoi(m[1])
		minute = 0
		hour = to24Hour(hour, m[2])
		timeFound = true
	} else if m := clock24.FindStringSubmatch(text); m != nil {
		// Bare HH:MM is already 24-hour, never reinterpreted as 12-hour.
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
		timeFound = true
	}

	if r != nil && r.Strict && !dayFound && !timeFound {
		return time.Time{}, time.Time{}, false
	}

	if hour > 23 || minute > 59 {
		return time.Time{}, time.Time{}, false
	}

	start := time.Date(target.Year(), target.Month(), target.Day(), hour, minute, 0, 0, time.UTC)
	end := start.Add(time.Duration(defaultDurationHours) * time.Hour)

	return start, end, true
}

// ResolveDate parses a spoken date phrase into YYYY-MM-DD. A phrase that
// already leads with a canonical YYYY-MM-DD literal passes through unchanged.
// Unrecognized input defaults to today's date.
func (r *Resolver) ResolveDate(phrase string) string {
	text := strings.ToLower(strings.TrimSpace(phrase))
	now := Now().UTC()

	if target, ok := resolveDay(text, now, true); ok {
		return target.Format("2006-01-02")
	}

	if m := isoDate.FindString(text); m != "" {
		return m
	}

	return now.Format("2006-01-02")
}

// resolveDay finds the target calendar day spoken in text. withYesterday is
// set for date-only resolution, where "yesterday" is meaningful.
func resolveDay(text string, now time.Time, withYesterday bool) (time.Time, bool) {
	switch {
	case strings.Contains(text, "tomorrow"):
		return now.AddDate(0, 0, 1), true
	case strings.Contains(text, "today"):
		return now, true
	case withYesterday && strings.Contains(text, "yesterday"):
		return now.AddDate(0, 0, -1), true
	}

	for i, name := range weekdayNames {
		if !strings.Contains(text, name) {
			continue
		}
		daysAhead := i - mondayIndexed(now.Weekday())
		// A weekday that already happened this week (or is today) means the
		// next occurrence: "Monday" said on a Monday is next Monday.
		if daysAhead <= 0 {
			daysAhead += 7
		}
		return now.AddDate(0, 0, daysAhead), true
	}

	return now, false
}

// mondayIndexed maps time.Weekday (Sunday=0) to Monday=0 arithmetic.
func mondayIndexed(d time.Weekday) int {
	return (int(d) + 6) % 7
}

func to24Hour(hour int, meridiem string) int {
	if meridiem == "pm" && hour != 12 {
		return hour + 12
	}
	if meridiem == "am" && hour == 12 {
		return 0
	}
	return hour
}
