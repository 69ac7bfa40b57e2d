package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"

	httperrors "github.com/unwindhq/unwind/internal/http/errors"
	"github.com/unwindhq/unwind/internal/store"
)

type activityPayload struct {
	ID              int64   `json:"id"`
	Slug            string  `json:"slug"`
	Title           string  `json:"title"`
	Category        string  `json:"category"`
	Description     string  `json:"description"`
	DurationMinutes int     `json:"durationMinutes"`
	MediaURL        *string `json:"mediaUrl,omitempty"`
	Points          int     `json:"points"`
}

func activityToPayload(a store.Activity) activityPayload {
	return activityPayload{
		ID:              a.ID,
		Slug:            a.Slug,
		Title:           a.Title,
		Category:        a.Category,
		Description:     a.Description,
		DurationMinutes: a.DurationMinutes,
		MediaURL:        a.MediaURL,
		Points:          a.Points,
	}
}

func knownCategory(category string) bool {
	switch category {
	case store.CategoryMeditation, store.CategoryBreathing, store.CategoryJournaling,
		store.CategorySleep, store.CategoryMovement:
		return true
	default:
		return false
	}
}

// ListActivities serves the catalog, optionally filtered by category.
func (a *API) ListActivities(w http.ResponseWriter, r *http.Request) {
	var (
		activities []store.Activity
		err        error
	)

	if category := r.URL.Query().Get("category"); category != "" {
		if !knownCategory(category) {
			httperrors.BadRequestError(w, r, errors.New("unknown category "+category), "unknown category")
			return
		}
		activities, err = a.store.Activities.ListByCategory(r.Context(), category)
	} else {
		activities, err = a.store.Activities.List(r.Context())
	}
	if err != nil {
		httperrors.InternalError(w, r, err, "list activities")
		return
	}

	payloads := make([]activityPayload, 0, len(activities))
	for _, activity := range activities {
		payloads = append(payloads, activityToPayload(activity))
	}

	respondJSON(w, http.StatusOK, map[string]any{"activities": payloads})
}

// GetActivity serves one catalog entry by ID.
func (a *API) GetActivity(w http.ResponseWriter, r *http.Request) {
	activity, ok := a.activityFromPath(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, activityToPayload(*activity))
}

// CompleteActivity records that the current user finished an activity today
// and awards its points. Each activity counts once per day.
func (a *API) CompleteActivity(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	activity, ok := a.activityFromPath(w, r)
	if !ok {
		return
	}

	day := today()
	done, err := a.store.Completions.HasCompletedOn(r.Context(), user.ID, activity.ID, day)
	if err != nil {
		httperrors.InternalError(w, r, err, "check existing completion")
		return
	}
	if done {
		httperrors.JSONError(w, http.StatusConflict, "activity already completed today")
		return
	}

	completion, err := a.store.Completions.Create(r.Context(), store.Completion{
		UserID:      user.ID,
		ActivityID:  activity.ID,
		CompletedOn: day,
		Points:      activity.Points,
	})
	if err != nil {
		// The unique constraint closes the check-then-create race
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			httperrors.JSONError(w, http.StatusConflict, "activity already completed today")
			return
		}
		httperrors.InternalError(w, r, err, "record completion")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"activityId":  activity.ID,
		"points":      completion.Points,
		"completedOn": completion.CompletedOn.Format("2006-01-02"),
	})
}

func (a *API) activityFromPath(w http.ResponseWriter, r *http.Request) (*store.Activity, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httperrors.BadRequestError(w, r, err, "invalid activity id")
		return nil, false
	}

	activity, err := a.store.Activities.GetByID(r.Context(), id)
	if err != nil {
		httperrors.InternalError(w, r, err, "load activity")
		return nil, false
	}
	if activity == nil {
		httperrors.JSONError(w, http.StatusNotFound, "activity not found")
		return nil, false
	}
	return activity, true
}
