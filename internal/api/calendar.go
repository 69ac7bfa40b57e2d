package api

import (
	"errors"
	"net/http"

	httperrors "github.com/unwindhq/unwind/internal/http/errors"
	"github.com/unwindhq/unwind/internal/ical"
	"github.com/unwindhq/unwind/internal/metrics"
	"github.com/unwindhq/unwind/internal/store"
)

type calendarRequest struct {
	URL string `json:"url"`
}

type calendarAssignment struct {
	ical.AssignmentPayload
	Completed bool `json:"completed"`
}

// ImportCalendar validates and stores a feed URL, then fetches and parses it.
// The parsed assignments are returned but never persisted; every later read
// re-fetches the feed.
func (a *API) ImportCalendar(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req calendarRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := ical.ValidateFeedURL(req.URL); err != nil {
		metrics.ObserveFeedImport("invalid_url", 0)
		httperrors.BadRequestError(w, r, err, "feed url must be an absolute http or https URL")
		return
	}

	result, ok := a.fetchAndParse(w, r, req.URL)
	if !ok {
		return
	}

	if err := a.store.CalendarFeeds.Upsert(r.Context(), user.ID, req.URL); err != nil {
		httperrors.InternalError(w, r, err, "store feed url")
		return
	}

	a.respondCalendar(w, r, user, result)
}

// GetCalendar re-fetches and re-parses the user's stored feed. There is no
// cached copy to fall back on; an unreachable upstream is a 502.
func (a *API) GetCalendar(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	feed, err := a.store.CalendarFeeds.Get(r.Context(), user.ID)
	if err != nil {
		httperrors.InternalError(w, r, err, "load feed url")
		return
	}
	if feed == nil {
		httperrors.JSONError(w, http.StatusNotFound, "no calendar feed configured")
		return
	}

	result, ok := a.fetchAndParse(w, r, feed.URL)
	if !ok {
		return
	}

	a.respondCalendar(w, r, user, result)
}

func (a *API) fetchAndParse(w http.ResponseWriter, r *http.Request, url string) (ical.Result, bool) {
	raw, err := a.fetcher.Fetch(r.Context(), url)
	if err != nil {
		if errors.Is(err, ical.ErrInvalidFeedURL) {
			metrics.ObserveFeedImport("invalid_url", 0)
			httperrors.BadRequestError(w, r, err, "feed url must be an absolute http or https URL")
			return ical.Result{}, false
		}
		metrics.ObserveFeedImport("fetch_error", 0)
		httperrors.LogError(r, "fetch calendar feed", err)
		httperrors.JSONError(w, http.StatusBadGateway, "failed to fetch calendar feed")
		return ical.Result{}, false
	}

	result := ical.ParseFeed(raw)
	metrics.ObserveFeedImport("ok", result.Dropped)
	return result, true
}

// respondCalendar merges stored completion flags into the parsed assignments.
// Assignments are matched by UID; events without a UID cannot be toggled.
func (a *API) respondCalendar(w http.ResponseWriter, r *http.Request, user *store.User, result ical.Result) {
	completions, err := a.store.AssignmentCompletions.ListByUser(r.Context(), user.ID)
	if err != nil {
		httperrors.InternalError(w, r, err, "load assignment completions")
		return
	}

	completed := make(map[string]bool, len(completions))
	for _, c := range completions {
		completed[c.AssignmentID] = c.Completed
	}

	assignments := make([]calendarAssignment, 0, len(result.Assignments))
	for _, payload := range ical.Payloads(result.Assignments) {
		assignments = append(assignments, calendarAssignment{
			AssignmentPayload: payload,
			Completed:         payload.UID != "" && completed[payload.UID],
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"assignments": assignments,
		"dropped":     result.Dropped,
	})
}
