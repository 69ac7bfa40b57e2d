package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	httperrors "github.com/unwindhq/unwind/internal/http/errors"
	"github.com/unwindhq/unwind/internal/store"
)

type assignmentRequest struct {
	Completed *bool `json:"completed"`
}

// SetAssignmentCompletion toggles an imported assignment done or not done.
// The assignment ID is the feed UID; the row is a key-value upsert, so
// toggling state for an assignment that later vanishes from the feed is
// harmless.
func (a *API) SetAssignmentCompletion(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	assignmentID := chi.URLParam(r, "assignmentId")
	if assignmentID == "" {
		httperrors.BadRequestError(w, r, errors.New("empty assignment id"), "invalid assignment id")
		return
	}

	var req assignmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Completed == nil {
		httperrors.BadRequestError(w, r, errors.New("missing completed field"), "completed is required")
		return
	}

	record := store.AssignmentCompletion{
		UserID:       user.ID,
		AssignmentID: assignmentID,
		Completed:    *req.Completed,
	}

	saved, err := a.store.AssignmentCompletions.Upsert(r.Context(), record)
	if err != nil {
		httperrors.InternalError(w, r, err, "save assignment completion")
		return
	}

	body := map[string]any{
		"assignmentId": saved.AssignmentID,
		"completed":    saved.Completed,
	}
	if saved.CompletedAt != nil {
		body["completedAt"] = saved.CompletedAt.UTC().Format(time.RFC3339)
	}
	respondJSON(w, http.StatusOK, body)
}
