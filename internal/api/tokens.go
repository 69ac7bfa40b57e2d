package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	httperrors "github.com/unwindhq/unwind/internal/http/errors"
	"github.com/unwindhq/unwind/internal/store"
)

type tokenRequest struct {
	Label     string     `json:"label"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

type tokenPayload struct {
	ID         int64      `json:"id"`
	Label      string     `json:"label"`
	CreatedAt  time.Time  `json:"createdAt"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
	RevokedAt  *time.Time `json:"revokedAt,omitempty"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
}

func tokenToPayload(t store.APIToken) tokenPayload {
	return tokenPayload{
		ID:         t.ID,
		Label:      t.Label,
		CreatedAt:  t.CreatedAt,
		ExpiresAt:  t.ExpiresAt,
		RevokedAt:  t.RevokedAt,
		LastUsedAt: t.LastUsedAt,
	}
}

// ListTokens returns the user's API tokens. Hashes never leave the store.
func (a *API) ListTokens(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	tokens, err := a.store.APITokens.ListByUser(r.Context(), user.ID)
	if err != nil {
		httperrors.InternalError(w, r, err, "list api tokens")
		return
	}

	payloads := make([]tokenPayload, 0, len(tokens))
	for _, t := range tokens {
		payloads = append(payloads, tokenToPayload(t))
	}
	respondJSON(w, http.StatusOK, map[string]any{"tokens": payloads})
}

// CreateToken mints a bearer token. The plaintext appears in this response
// only; afterwards just the metadata is retrievable.
func (a *API) CreateToken(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req tokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Label == "" {
		httperrors.BadRequestError(w, r, errors.New("missing label"), "label is required")
		return
	}
	if req.ExpiresAt != nil && req.ExpiresAt.Before(time.Now()) {
		httperrors.BadRequestError(w, r, errors.New("expiry in the past"), "expiresAt must be in the future")
		return
	}

	plaintext, token, err := a.tokens.CreateAPIToken(r.Context(), user.ID, req.Label, req.ExpiresAt)
	if err != nil {
		httperrors.InternalError(w, r, err, "create api token")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"token":    plaintext,
		"metadata": tokenToPayload(*token),
	})
}

// RevokeToken marks one of the user's tokens revoked. Tokens belonging to
// other users are reported as not found.
func (a *API) RevokeToken(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httperrors.BadRequestError(w, r, err, "invalid token id")
		return
	}

	token, err := a.store.APITokens.GetByID(r.Context(), id)
	if err != nil {
		httperrors.InternalError(w, r, err, "load api token")
		return
	}
	if token == nil || token.UserID != user.ID {
		httperrors.JSONError(w, http.StatusNotFound, "token not found")
		return
	}

	if err := a.store.APITokens.Revoke(r.Context(), id); err != nil {
		httperrors.InternalError(w, r, err, "revoke api token")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
