package api

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/unwindhq/unwind/internal/challenge"
	httperrors "github.com/unwindhq/unwind/internal/http/errors"
	"github.com/unwindhq/unwind/internal/store"
)

// challengeBonusPoints is awarded on top of the activity's own points when it
// is completed as the daily challenge.
const challengeBonusPoints = 10

// TodayChallenge serves the current date's challenge activity and whether the
// user has completed it yet.
func (a *API) TodayChallenge(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	activity, err := a.challenges.EnsureToday(r.Context())
	if err != nil {
		if errors.Is(err, challenge.ErrEmptyCatalog) {
			httperrors.JSONError(w, http.StatusNotFound, "no challenge available")
			return
		}
		httperrors.InternalError(w, r, err, "resolve daily challenge")
		return
	}

	done, err := a.store.Completions.HasCompletedOn(r.Context(), user.ID, activity.ID, today())
	if err != nil {
		httperrors.InternalError(w, r, err, "check challenge completion")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"activity":    activityToPayload(*activity),
		"completed":   done,
		"bonusPoints": challengeBonusPoints,
	})
}

// CompleteTodayChallenge records the daily challenge as done, awarding the
// activity's points plus the challenge bonus. Repeat attempts get a 409.
func (a *API) CompleteTodayChallenge(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	activity, err := a.challenges.EnsureToday(r.Context())
	if err != nil {
		if errors.Is(err, challenge.ErrEmptyCatalog) {
			httperrors.JSONError(w, http.StatusNotFound, "no challenge available")
			return
		}
		httperrors.InternalError(w, r, err, "resolve daily challenge")
		return
	}

	day := today()
	done, err := a.store.Completions.HasCompletedOn(r.Context(), user.ID, activity.ID, day)
	if err != nil {
		httperrors.InternalError(w, r, err, "check challenge completion")
		return
	}
	if done {
		httperrors.JSONError(w, http.StatusConflict, "challenge already completed today")
		return
	}

	completion, err := a.store.Completions.Create(r.Context(), store.Completion{
		UserID:      user.ID,
		ActivityID:  activity.ID,
		CompletedOn: day,
		Points:      activity.Points + challengeBonusPoints,
		Challenge:   true,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			httperrors.JSONError(w, http.StatusConflict, "challenge already completed today")
			return
		}
		httperrors.InternalError(w, r, err, "record challenge completion")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"activityId":  activity.ID,
		"points":      completion.Points,
		"completedOn": completion.CompletedOn.Format("2006-01-02"),
		"challenge":   true,
	})
}
