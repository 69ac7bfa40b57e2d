package api

import (
	"net/http"
	"time"

	httperrors "github.com/unwindhq/unwind/internal/http/errors"
)

// streakLookbackDays bounds how far back the streak computation reads.
const streakLookbackDays = 366

// Progress serves the user's points total, current daily streak, and the
// number of activities completed today.
func (a *API) Progress(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	total, err := a.store.Completions.SumPoints(r.Context(), user.ID)
	if err != nil {
		httperrors.InternalError(w, r, err, "sum points")
		return
	}

	days, err := a.store.Completions.CompletionDays(r.Context(), user.ID, streakLookbackDays)
	if err != nil {
		httperrors.InternalError(w, r, err, "load completion days")
		return
	}

	todayCount, err := a.store.Completions.CountOnDay(r.Context(), user.ID, today())
	if err != nil {
		httperrors.InternalError(w, r, err, "count completions today")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"totalPoints":    total,
		"streakDays":     streakLength(days, today()),
		"completedToday": todayCount,
	})
}

// streakLength counts consecutive days with at least one completion, ending
// today or yesterday. days must be sorted descending, as CompletionDays
// returns them. A user who completed something every day through yesterday
// still has a live streak they can extend today.
func streakLength(days []time.Time, today time.Time) int {
	if len(days) == 0 {
		return 0
	}

	cursor := today
	if !sameDay(days[0], today) {
		cursor = today.AddDate(0, 0, -1)
		if !sameDay(days[0], cursor) {
			return 0
		}
	}

	streak := 0
	for _, day := range days {
		if !sameDay(day, cursor) {
			break
		}
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return streak
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
