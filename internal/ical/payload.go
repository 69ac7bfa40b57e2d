package ical

import "time"

// AssignmentPayload is the wire form of Assignment: instants rendered as
// ISO-8601 UTC strings.
type AssignmentPayload struct {
	UID         string `json:"uid,omitempty"`
	Title       string `json:"title"`
	Start       string `json:"start"`
	End         string `json:"end,omitempty"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	AllDay      bool   `json:"allDay"`
}

// Payload projects a single assignment into its wire form.
func Payload(a Assignment) AssignmentPayload {
	p := AssignmentPayload{
		UID:         a.UID,
		Title:       a.Title,
		Start:       a.Start.UTC().Format(time.RFC3339),
		Description: a.Description,
		Location:    a.Location,
		AllDay:      a.AllDay,
	}
	if a.End != nil {
		p.End = a.End.UTC().Format(time.RFC3339)
	}
	return p
}

// Payloads converts a parsed assignment list without filtering or reordering.
func Payloads(assignments []Assignment) []AssignmentPayload {
	out := make([]AssignmentPayload, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, Payload(a))
	}
	return out
}
