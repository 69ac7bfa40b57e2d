package ical

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestUnfoldLines(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "crlf endings",
			raw:  "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nEND:VCALENDAR\r\n",
			want: []string{"BEGIN:VCALENDAR", "VERSION:2.0", "END:VCALENDAR"},
		},
		{
			name: "space continuation",
			raw:  "SUMMARY:Long ti\n tle",
			want: []string{"SUMMARY:Long title"},
		},
		{
			name: "tab continuation",
			raw:  "DESCRIPTION:part one\n\tpart two",
			want: []string{"DESCRIPTION:part onepart two"},
		},
		{
			name: "only first character stripped",
			raw:  "SUMMARY:Chemistry\n  Lab Report",
			want: []string{"SUMMARY:Chemistry Lab Report"},
		},
		{
			name: "mixed line endings",
			raw:  "A:1\rB:2\r\nC:3\nD:4",
			want: []string{"A:1", "B:2", "C:3", "D:4"},
		},
		{
			name: "empty lines skipped",
			raw:  "A:1\n\n\nB:2",
			want: []string{"A:1", "B:2"},
		},
		{
			name: "orphan continuation dropped",
			raw:  " stray\nA:1",
			want: []string{"A:1"},
		},
		{
			name: "empty input",
			raw:  "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UnfoldLines(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("UnfoldLines() = %q, want %q", got, tt.want)
			}
		})
	}
}

const twoEventFeed = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//Canvas//EN
BEGIN:VEVENT
UID:abc123
SUMMARY:Math Homework
DTSTART:20240301T140000
DTEND:20240301T150000
END:VEVENT
BEGIN:VEVENT
SUMMARY:Project Due
DTSTART;VALUE=DATE:20240215
END:VEVENT
END:VCALENDAR
`

func TestParseFeedTwoEvents(t *testing.T) {
	result := ParseFeed(twoEventFeed)
	if len(result.Assignments) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(result.Assignments))
	}
	if result.Dropped != 0 {
		t.Errorf("expected 0 dropped, got %d", result.Dropped)
	}

	first, second := result.Assignments[0], result.Assignments[1]
	if first.Title != "Project Due" {
		t.Errorf("expected Project Due first (earlier start), got %q", first.Title)
	}
	if !first.AllDay {
		t.Error("Project Due should be all-day")
	}
	if first.UID != "" || first.End != nil || first.Description != "" || first.Location != "" {
		t.Errorf("Project Due should have no uid/end/description/location: %+v", first)
	}

	if second.Title != "Math Homework" {
		t.Errorf("expected Math Homework second, got %q", second.Title)
	}
	if second.AllDay {
		t.Error("Math Homework should not be all-day")
	}
	if second.UID != "abc123" {
		t.Errorf("uid = %q, want abc123", second.UID)
	}
	if second.End == nil {
		t.Fatal("Math Homework should have an end time")
	}
	if !second.End.After(second.Start) {
		t.Errorf("end %v should be after start %v", second.End, second.Start)
	}
}

func TestParseFeedIdempotent(t *testing.T) {
	a := ParseFeed(twoEventFeed)
	b := ParseFeed(twoEventFeed)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("parsing twice differed:\n%+v\n%+v", a, b)
	}
}

func TestParseFeedOrdering(t *testing.T) {
	feed := `BEGIN:VEVENT
SUMMARY:Third
DTSTART:20240910T120000
END:VEVENT
BEGIN:VEVENT
SUMMARY:First
DTSTART:20240110T120000
END:VEVENT
BEGIN:VEVENT
SUMMARY:Second
DTSTART:20240510T120000
END:VEVENT
`
	result := ParseFeed(feed)
	if len(result.Assignments) != 3 {
		t.Fatalf("expected 3 assignments, got %d", len(result.Assignments))
	}
	for i := 1; i < len(result.Assignments); i++ {
		prev, cur := result.Assignments[i-1], result.Assignments[i]
		if cur.Start.Before(prev.Start) {
			t.Errorf("assignments out of order: %q before %q", prev.Title, cur.Title)
		}
	}
	if result.Assignments[0].Title != "First" || result.Assignments[2].Title != "Third" {
		t.Errorf("unexpected order: %v", result.Assignments)
	}
}

func TestParseFeedStableTieBreak(t *testing.T) {
	feed := `BEGIN:VEVENT
SUMMARY:Alpha
DTSTART:20240301T090000
END:VEVENT
BEGIN:VEVENT
SUMMARY:Beta
DTSTART:20240301T090000
END:VEVENT
`
	result := ParseFeed(feed)
	if len(result.Assignments) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(result.Assignments))
	}
	if result.Assignments[0].Title != "Alpha" || result.Assignments[1].Title != "Beta" {
		t.Errorf("equal starts should preserve feed order, got %q then %q",
			result.Assignments[0].Title, result.Assignments[1].Title)
	}
}

func TestParseFeedFoldedSummary(t *testing.T) {
	feed := "BEGIN:VEVENT\nSUMMARY:Chemistry\n  Lab Report\nDTSTART:20240401T100000\nEND:VEVENT\n"
	result := ParseFeed(feed)
	if len(result.Assignments) != 1 {
		t.Fatalf("expected 1 assignment, got %d", len(result.Assignments))
	}
	if got := result.Assignments[0].Title; got != "Chemistry Lab Report" {
		t.Errorf("title = %q, want %q", got, "Chemistry Lab Report")
	}
}

func TestParseFeedDropsIncompleteBlocks(t *testing.T) {
	tests := []struct {
		name string
		feed string
	}{
		{
			name: "missing DTSTART",
			feed: "BEGIN:VEVENT\nSUMMARY:No Start\nEND:VEVENT\n",
		},
		{
			name: "missing SUMMARY",
			feed: "BEGIN:VEVENT\nDTSTART:20240301T140000\nEND:VEVENT\n",
		},
		{
			name: "unparsable DTSTART",
			feed: "BEGIN:VEVENT\nSUMMARY:Bad Date\nDTSTART:not-a-date\nEND:VEVENT\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseFeed(tt.feed)
			if len(result.Assignments) != 0 {
				t.Errorf("expected no assignments, got %+v", result.Assignments)
			}
			if result.Dropped != 1 {
				t.Errorf("dropped = %d, want 1", result.Dropped)
			}
		})
	}
}

func TestParseFeedPartialFeedKeepsValidEvents(t *testing.T) {
	feed := `BEGIN:VEVENT
SUMMARY:Good
DTSTART:20240301T140000
END:VEVENT
BEGIN:VEVENT
SUMMARY:Bad
DTSTART:garbage
END:VEVENT
`
	result := ParseFeed(feed)
	if len(result.Assignments) != 1 || result.Assignments[0].Title != "Good" {
		t.Errorf("expected only the valid event, got %+v", result.Assignments)
	}
	if result.Dropped != 1 {
		t.Errorf("dropped = %d, want 1", result.Dropped)
	}
}

func TestParseFeedEmptyAndGarbageInput(t *testing.T) {
	for _, raw := range []string{"", "not an ics feed at all", "BEGIN:VEVENT\nSUMMARY:Truncated"} {
		result := ParseFeed(raw)
		if len(result.Assignments) != 0 {
			t.Errorf("ParseFeed(%q) returned assignments: %+v", raw, result.Assignments)
		}
	}
}

func TestParseFeedValuePreservesColons(t *testing.T) {
	feed := "BEGIN:VEVENT\nSUMMARY:Read https://example.com/a:b\nDTSTART:20240301T140000\nEND:VEVENT\n"
	result := ParseFeed(feed)
	if len(result.Assignments) != 1 {
		t.Fatalf("expected 1 assignment, got %d", len(result.Assignments))
	}
	if got := result.Assignments[0].Title; got != "Read https://example.com/a:b" {
		t.Errorf("title = %q", got)
	}
}

func TestParseFeedAllDayDetection(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		allDay bool
	}{
		{"bare date", "DTSTART;VALUE=DATE:20240115", true},
		{"floating date-time", "DTSTART:20240115T090000", false},
		{"utc date-time", "DTSTART:20240115T090000Z", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feed := "BEGIN:VEVENT\nSUMMARY:X\n" + tt.line + "\nEND:VEVENT\n"
			result := ParseFeed(feed)
			if len(result.Assignments) != 1 {
				t.Fatalf("expected 1 assignment, got %d", len(result.Assignments))
			}
			if got := result.Assignments[0].AllDay; got != tt.allDay {
				t.Errorf("allDay = %v, want %v", got, tt.allDay)
			}
		})
	}
}

func TestParseFeedAllDayEndDoesNotClearFlag(t *testing.T) {
	feed := "BEGIN:VEVENT\nSUMMARY:X\nDTSTART;VALUE=DATE:20240115\nDTEND:20240116T000000\nEND:VEVENT\n"
	result := ParseFeed(feed)
	if len(result.Assignments) != 1 {
		t.Fatalf("expected 1 assignment, got %d", len(result.Assignments))
	}
	if !result.Assignments[0].AllDay {
		t.Error("timed DTEND should not clear the all-day flag set by DTSTART")
	}
}

func TestUnescapeText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`Line1\nLine2\, comma`, "Line1\nLine2, comma"},
		{`a\\b`, `a\b`},
		{`semi\;colon`, "semi;colon"},
		{"trailing   ", "trailing"},
		{`plain`, "plain"},
	}

	for _, tt := range tests {
		if got := unescapeText(tt.in); got != tt.want {
			t.Errorf("unescapeText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseFeedEscapedDescription(t *testing.T) {
	feed := "BEGIN:VEVENT\nSUMMARY:X\nDTSTART:20240301T140000\nDESCRIPTION:Line1\\nLine2\\, comma\nEND:VEVENT\n"
	result := ParseFeed(feed)
	if len(result.Assignments) != 1 {
		t.Fatalf("expected 1 assignment, got %d", len(result.Assignments))
	}
	if got := result.Assignments[0].Description; got != "Line1\nLine2, comma" {
		t.Errorf("description = %q", got)
	}
}

func TestParseDateTimeTZID(t *testing.T) {
	if _, err := time.LoadLocation("America/New_York"); err != nil {
		t.Skip("tzdata unavailable on this host")
	}

	// A January date: Eastern time is UTC-5, so 09:00 wall clock is 14:00 UTC.
	got, allDay, ok := parseDateTime("20240115T090000", "America/New_York")
	if !ok {
		t.Fatal("expected a valid instant")
	}
	if allDay {
		t.Error("timed value should not be all-day")
	}
	want := time.Date(2024, 1, 15, 14, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("instant = %v, want %v", got.UTC(), want)
	}
}

func TestParseDateTimeUnknownTZIDFallsBackToLocal(t *testing.T) {
	got, _, ok := parseDateTime("20240115T090000", "Not/AZone")
	if !ok {
		t.Fatal("unresolvable TZID should fall back, not fail")
	}
	want := time.Date(2024, 1, 15, 9, 0, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("instant = %v, want host-local %v", got, want)
	}
}

func TestParseDateTimeEncodings(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		allDay bool
		ok     bool
	}{
		{"bare date", "20240115", true, true},
		{"floating", "20240115T090000", false, true},
		{"utc suffix", "20240115T090000Z", false, true},
		{"numeric offset", "20240115T090000-0500", false, true},
		{"rfc3339", "2024-01-15T09:00:00Z", false, true},
		{"far future year", "99990115T090000Z", false, true},
		{"empty", "", false, false},
		{"garbage", "tomorrowish", false, false},
		{"eight letters", "abcdefgh", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, allDay, ok := parseDateTime(tt.value, "")
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if allDay != tt.allDay {
				t.Errorf("allDay = %v, want %v", allDay, tt.allDay)
			}
		})
	}
}

func TestParseDateTimeUTCValueWithZSuffix(t *testing.T) {
	got, _, ok := parseDateTime("20240301T140000Z", "")
	if !ok {
		t.Fatal("expected valid instant")
	}
	want := time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("instant = %v, want %v", got.UTC(), want)
	}
}

func TestParseFeedEndBeforeStartPassesThrough(t *testing.T) {
	feed := "BEGIN:VEVENT\nSUMMARY:Backwards\nDTSTART:20240301T150000Z\nDTEND:20240301T140000Z\nEND:VEVENT\n"
	result := ParseFeed(feed)
	if len(result.Assignments) != 1 {
		t.Fatalf("expected 1 assignment, got %d", len(result.Assignments))
	}
	a := result.Assignments[0]
	if a.End == nil || !a.End.Before(a.Start) {
		t.Errorf("end-before-start record should pass through unchanged: %+v", a)
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	end := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)
	a := Assignment{
		UID:    "abc123",
		Title:  "Math Homework",
		Start:  time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC),
		End:    &end,
		AllDay: false,
	}

	p := Payload(a)
	start, err := time.Parse(time.RFC3339, p.Start)
	if err != nil {
		t.Fatalf("start did not round-trip: %v", err)
	}
	if !start.Equal(a.Start) {
		t.Errorf("start = %v, want %v", start, a.Start)
	}
	parsedEnd, err := time.Parse(time.RFC3339, p.End)
	if err != nil {
		t.Fatalf("end did not round-trip: %v", err)
	}
	if !parsedEnd.Equal(*a.End) {
		t.Errorf("end = %v, want %v", parsedEnd, *a.End)
	}
}

func TestPayloadOmitsAbsentEnd(t *testing.T) {
	p := Payload(Assignment{Title: "X", Start: time.Now()})
	if p.End != "" {
		t.Errorf("end should be empty for open-ended events, got %q", p.End)
	}
}

func TestPayloadsPreserveOrder(t *testing.T) {
	result := ParseFeed(twoEventFeed)
	payloads := Payloads(result.Assignments)
	if len(payloads) != len(result.Assignments) {
		t.Fatalf("payload count %d != assignment count %d", len(payloads), len(result.Assignments))
	}
	for i := range payloads {
		if payloads[i].Title != result.Assignments[i].Title {
			t.Errorf("payload %d reordered: %q vs %q", i, payloads[i].Title, result.Assignments[i].Title)
		}
	}
}

func TestParseFeedIgnoresUnknownProperties(t *testing.T) {
	feed := strings.Join([]string{
		"BEGIN:VEVENT",
		"SUMMARY:With extras",
		"DTSTART:20240301T140000",
		"RRULE:FREQ=WEEKLY;BYDAY=MO",
		"SEQUENCE:3",
		"X-CUSTOM:whatever",
		"END:VEVENT",
	}, "\n")
	result := ParseFeed(feed)
	if len(result.Assignments) != 1 {
		t.Fatalf("expected 1 assignment, got %d", len(result.Assignments))
	}
}
