package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/unwindhq/unwind/internal/auth"
	"github.com/unwindhq/unwind/internal/challenge"
	httperrors "github.com/unwindhq/unwind/internal/http/errors"
	"github.com/unwindhq/unwind/internal/ical"
	"github.com/unwindhq/unwind/internal/store"
)

const maxBodyBytes = 1 << 20

// TokenMinter issues bearer API tokens. Satisfied by the auth service.
type TokenMinter interface {
	CreateAPIToken(ctx context.Context, userID int64, label string, expiresAt *time.Time) (string, *store.APIToken, error)
}

// API holds the JSON handlers for the application endpoints.
type API struct {
	store      *store.Store
	tokens     TokenMinter
	challenges *challenge.Service
	fetcher    *ical.Fetcher
}

func New(st *store.Store, tokens TokenMinter, challenges *challenge.Service, fetcher *ical.Fetcher) *API {
	return &API{
		store:      st,
		tokens:     tokens,
		challenges: challenges,
		fetcher:    fetcher,
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already out; nothing left to do but log
		log.Printf("[ERROR] encode response: %v", err)
	}
}

// decodeJSON reads a request body into dst. On failure it writes a 400 and
// returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		httperrors.BadRequestError(w, r, err, "unable to read request body")
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		httperrors.BadRequestError(w, r, err, "invalid JSON body")
		return false
	}
	return true
}

// currentUser pulls the authenticated user set by the auth middleware. Routes
// behind RequireAuth always have one; a missing user is a wiring bug.
func currentUser(w http.ResponseWriter, r *http.Request) (*store.User, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		httperrors.InternalError(w, r, errors.New("no user on authenticated request"), "resolve current user")
		return nil, false
	}
	return user, true
}

func today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
