package webcal

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/outcal/internal/core/domain"
)

// The Outlook web month view annotates each rendered event with an
// aria-label of the form:
//
//	"Standup, 10:00 AM to 10:15 AM, Tuesday, February 3, 2026, Room 1"
//
// or, for all-day events:
//
//	"Offsite, all day event, Tuesday, February 3, 2026"
//
// ParseAriaLabel turns one such label into a normalised event. Times have
// no zone information in the page, so they are taken as UTC wall-clock
// values, consistently for every event in a batch.

var (
	timeRangeRe = regexp.MustCompile(`^(\d{1,2}):(\d{2})\s*(AM|PM)\s+to\s+(\d{1,2}):(\d{2})\s*(AM|PM)$`)
	weekdayRe   = regexp.MustCompile(`^(Monday|Tuesday|Wednesday|Thursday|Friday|Saturday|Sunday)$`)
	monthDayRe  = regexp.MustCompile(`^(January|February|March|April|May|June|July|August|September|October|November|December)\s+(\d{1,2})$`)
	yearRe      = regexp.MustCompile(`^\d{4}$`)
)

// ParseAriaLabel parses a single event label. The second return value is
// false for labels that are not events (view chrome, the current-time
// marker) or that cannot be parsed.
func ParseAriaLabel(raw string) (domain.CalendarEvent, bool) {
	parts := splitLabel(raw)
	if len(parts) < 3 {
		return domain.CalendarEvent{}, false
	}

	subject := parts[0]
	if subject == "" ||
		strings.HasPrefix(subject, "calendar view") ||
		strings.HasPrefix(subject, "current time") {
		return domain.CalendarEvent{}, false
	}

	var (
		timePart string
		allDay   bool
		dayIdx   = -1
	)
	for i := 1; i < len(parts); i++ {
		switch {
		case timeRangeRe.MatchString(parts[i]):
			timePart = parts[i]
		case strings.Contains(strings.ToLower(parts[i]), "all day"):
			allDay = true
		case weekdayRe.MatchString(parts[i]):
			dayIdx = i
		}
		if dayIdx >= 0 {
			break
		}
	}

	// The date spans the weekday part and the two following parts:
	// "Tuesday", "February 3", "2026".
	if dayIdx < 0 || dayIdx+2 >= len(parts) {
		return domain.CalendarEvent{}, false
	}
	mdMatch := monthDayRe.FindStringSubmatch(parts[dayIdx+1])
	if mdMatch == nil || !yearRe.MatchString(parts[dayIdx+2]) {
		return domain.CalendarEvent{}, false
	}

	date, err := time.ParseInLocation("January 2 2006", mdMatch[1]+" "+mdMatch[2]+" "+parts[dayIdx+2], time.UTC)
	if err != nil {
		return domain.CalendarEvent{}, false
	}

	ev := domain.CalendarEvent{Subject: subject, IsAllDay: allDay}

	switch {
	case allDay:
		ev.Start = date
		ev.End = date.Add(23*time.Hour + 59*time.Minute)
	case timePart != "":
		start, end, ok := parseTimeRange(date, timePart)
		if !ok {
			return domain.CalendarEvent{}, false
		}
		ev.Start = start
		ev.End = end
	default:
		return domain.CalendarEvent{}, false
	}

	if loc, ok := locationPart(parts, dayIdx+3); ok {
		ev.Location = loc
	}

	return ev, true
}

// ParseAriaLabels parses and deduplicates a scraped label set.
func ParseAriaLabels(labels []string) domain.EventBatch {
	seen := make(map[string]struct{}, len(labels))
	batch := make(domain.EventBatch, 0, len(labels))

	for _, raw := range labels {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if _, dup := seen[raw]; dup {
			continue
		}
		seen[raw] = struct{}{}

		if ev, ok := ParseAriaLabel(raw); ok {
			batch = append(batch, ev)
		}
	}

	return batch
}

func splitLabel(raw string) []string {
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func parseTimeRange(date time.Time, s string) (start, end time.Time, ok bool) {
	m := timeRangeRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, time.Time{}, false
	}

	startHour := clockHour(m[1], m[3])
	endHour := clockHour(m[4], m[6])
	startMin, _ := strconv.Atoi(m[2])
	endMin, _ := strconv.Atoi(m[5])

	start = date.Add(time.Duration(startHour)*time.Hour + time.Duration(startMin)*time.Minute)
	end = date.Add(time.Duration(endHour)*time.Hour + time.Duration(endMin)*time.Minute)
	return start, end, true
}

// clockHour converts a 12-hour clock reading to 24-hour form.
func clockHour(hourStr, ampm string) int {
	hour, _ := strconv.Atoi(hourStr)
	if ampm == "PM" && hour != 12 {
		hour += 12
	} else if ampm == "AM" && hour == 12 {
		hour = 0
	}
	return hour
}

// locationPart returns the trailing label component that names the event
// location, when one is present after the date.
func locationPart(parts []string, idx int) (string, bool) {
	if idx >= len(parts) {
		return "", false
	}
	loc := parts[idx]
	if loc == "" {
		return "", false
	}
	// Trailing chrome like "recurring event" or "event shown as busy" is
	// not a location.
	lower := strings.ToLower(loc)
	if strings.Contains(lower, "event") || strings.Contains(lower, "recurring") ||
		strings.Contains(lower, "shown as") || strings.Contains(lower, "organizer") {
		return "", false
	}
	return loc, true
}
