package ical

import (
	"sort"
	"strings"
	"time"
)

// Assignment is one calendar event extracted from an imported feed.
type Assignment struct {
	UID         string
	Title       string
	Start       time.Time
	End         *time.Time
	Description string
	Location    string
	AllDay      bool
}

// Result carries the parsed assignments plus a count of VEVENT blocks that
// were discarded because a required field was missing or unparsable. Dropped
// blocks are not errors; messy feeds are expected to produce partial results.
type Result struct {
	Assignments []Assignment
	Dropped     int
}

// UnfoldLines normalizes line endings and rejoins folded property lines.
//
// A physical line starting with a single space or tab continues the previous
// logical line; exactly the first character is stripped and the remainder is
// appended with no separator. A continuation with no preceding logical line
// is dropped.
func UnfoldLines(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")

	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		if line == "" {
			continue
		}
		if line[0] == ' ' || line[0] == '\t' {
			if len(lines) > 0 {
				lines[len(lines)-1] += line[1:]
			}
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// ParseFeed scans unfolded iCalendar text for VEVENT blocks and returns the
// assignments it could materialize, sorted ascending by start time. It never
// fails: garbage input yields an empty result.
func ParseFeed(raw string) Result {
	var result Result
	var current *Assignment
	startValid := false

	for _, line := range UnfoldLines(raw) {
		switch {
		case line == "BEGIN:VEVENT":
			current = &Assignment{}
			startValid = false
		case line == "END:VEVENT":
			if current == nil {
				continue
			}
			if current.Title != "" && startValid {
				result.Assignments = append(result.Assignments, *current)
			} else {
				result.Dropped++
			}
			current = nil
		case current != nil:
			applyProperty(current, &startValid, line)
		}
		// Lines outside VEVENT blocks (VERSION, PRODID, VTIMEZONE contents,
		// etc.) are ignored.
	}

	sort.SliceStable(result.Assignments, func(i, j int) bool {
		return result.Assignments[i].Start.Before(result.Assignments[j].Start)
	})
	return result
}

// applyProperty parses a single PROPERTY[;PARAM=VALUE...]:VALUE line into the
// current accumulator. Only the first colon delimits; later colons (URLs and
// the like) stay part of the value.
func applyProperty(a *Assignment, startValid *bool, line string) {
	colon := strings.Index(line, ":")
	if colon == -1 {
		return
	}
	propPart := line[:colon]
	value := line[colon+1:]

	params := strings.Split(propPart, ";")
	name := params[0]

	var tzid string
	for _, param := range params[1:] {
		if strings.HasPrefix(param, "TZID=") {
			tzid = strings.TrimSpace(param[len("TZID="):])
		}
	}

	switch name {
	case "SUMMARY":
		a.Title = unescapeText(value)
	case "DESCRIPTION":
		a.Description = unescapeText(value)
	case "LOCATION":
		a.Location = unescapeText(value)
	case "UID":
		a.UID = unescapeText(value)
	case "DTSTART":
		if t, allDay, ok := parseDateTime(value, tzid); ok {
			a.Start = t
			a.AllDay = allDay
			*startValid = true
		}
	case "DTEND":
		if t, allDay, ok := parseDateTime(value, tzid); ok {
			end := t
			a.End = &end
			if allDay && !a.AllDay {
				a.AllDay = true
			}
		}
	}
}

// unescapeText reverses the iCalendar TEXT escaping rules and trims trailing
// whitespace.
func unescapeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		switch s[i+1] {
		case '\\':
			b.WriteByte('\\')
			i++
		case 'n', 'N':
			b.WriteByte('\n')
			i++
		case ',':
			b.WriteByte(',')
			i++
		case ';':
			b.WriteByte(';')
			i++
		default:
			b.WriteByte(s[i])
		}
	}
	return strings.TrimRight(b.String(), " \t\r\n")
}

// fallbackFormats cover Z-suffixed UTC instants and explicit numeric offsets
// for values that are neither bare dates nor floating local date-times.
var fallbackFormats = []string{
	"20060102T150405Z",
	"20060102T150405-0700",
	"20060102T150405-07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05-0700",
	time.RFC3339,
}

// parseDateTime resolves an iCalendar date or date-time value into an absolute
// instant. The bool results are (allDay, ok); a false ok means "no date" and
// never an error.
//
// Recognized encodings, in priority order: a bare 8-digit date (all-day), a
// floating YYYYMMDDTHHMMSS wall-clock time resolved against the TZID zone
// when one loads (host-local otherwise), and finally any of the fallback
// formats above.
func parseDateTime(value, tzid string) (time.Time, bool, bool) {
	value = strings.TrimSpace(value)

	if len(value) == 8 && isDigits(value) {
		t, err := time.ParseInLocation("20060102", value, time.Local)
		if err != nil {
			return time.Time{}, false, false
		}
		return t, true, true
	}

	if len(value) == 15 && value[8] == 'T' {
		loc := time.Local
		if tzid != "" {
			// A TZID the host cannot resolve falls back to the local zone
			// rather than dropping the record.
			if l, err := time.LoadLocation(tzid); err == nil {
				loc = l
			}
		}
		if t, err := time.ParseInLocation("20060102T150405", value, loc); err == nil {
			return t, false, true
		}
	}

	for _, format := range fallbackFormats {
		if t, err := time.Parse(format, value); err == nil {
			return t, false, true
		}
	}
	return time.Time{}, false, false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
