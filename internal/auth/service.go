package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/unwindhq/unwind/internal/config"
	httperrors "github.com/unwindhq/unwind/internal/http/errors"
	"github.com/unwindhq/unwind/internal/store"
)

const stateCookieName = "unwind_oauth_state"

// Service encapsulates authentication flows for OIDC login and API tokens.
type Service struct {
	cfg      *config.Config
	store    *store.Store
	sessions *SessionManager
	verifier *oidc.IDTokenVerifier
	oauth    *oauth2.Config
	secure   bool
}

func NewService(ctx context.Context, cfg *config.Config, st *store.Store, sessions *SessionManager) (*Service, error) {
	issuer := cfg.OAuth.IssuerURL
	if issuer == "" {
		issuer = strings.TrimSuffix(cfg.OAuth.DiscoveryURL, "/.well-known/openid-configuration")
	}

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("discover oidc provider: %w", err)
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.OAuth.ClientID,
		ClientSecret: cfg.OAuth.ClientSecret,
		Endpoint:     provider.Endpoint(),
		RedirectURL:  strings.TrimRight(cfg.BaseURL, "/") + cfg.OAuth.RedirectPath,
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}

	secure := true
	if base, err := url.Parse(cfg.BaseURL); err == nil && base.Scheme != "https" {
		secure = false
	}

	return &Service{
		cfg:      cfg,
		store:    st,
		sessions: sessions,
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.OAuth.ClientID}),
		oauth:    oauthCfg,
		secure:   secure,
	}, nil
}

// BeginOAuth starts the OIDC authorization flow.
func (s *Service) BeginOAuth(w http.ResponseWriter, r *http.Request) {
	state, err := randomToken(24)
	if err != nil {
		httperrors.InternalError(w, r, err, "generate oauth state")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, s.oauth.AuthCodeURL(state), http.StatusFound)
}

// HandleOAuthCallback completes the OIDC flow and creates a session.
func (s *Service) HandleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		httperrors.BadRequestError(w, r, errors.New("oauth state mismatch"), "invalid oauth state")
		return
	}

	// State is single use
	http.SetCookie(w, &http.Cookie{
		Name:   stateCookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
		Secure: s.secure,
	})

	code := r.URL.Query().Get("code")
	if code == "" {
		httperrors.BadRequestError(w, r, errors.New("missing authorization code"), "missing authorization code")
		return
	}

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		httperrors.InternalError(w, r, err, "exchange authorization code")
		return
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		httperrors.InternalError(w, r, errors.New("token response has no id_token"), "complete oidc login")
		return
	}

	idToken, err := s.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		httperrors.InternalError(w, r, err, "verify id token")
		return
	}

	var claims struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		httperrors.InternalError(w, r, err, "parse id token claims")
		return
	}

	var displayName *string
	if claims.Name != "" {
		displayName = &claims.Name
	}

	user, err := s.store.Users.UpsertOAuthUser(ctx, idToken.Subject, claims.Email, displayName)
	if err != nil {
		httperrors.InternalError(w, r, err, "persist user")
		return
	}

	if err := s.sessions.Issue(w, user.ID); err != nil {
		httperrors.InternalError(w, r, err, "issue session")
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

// Logout clears the session cookie.
func (s *Service) Logout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Clear(w)
	http.Redirect(w, r, "/", http.StatusFound)
}

// RequireAuth resolves the current user from a session cookie or a bearer
// token and stores it on the request context. Requests with neither get a 401.
func (s *Service) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
			plaintext := strings.TrimPrefix(header, "Bearer ")
			user, tokenID, err := s.ValidateAPIToken(ctx, plaintext)
			if err != nil {
				httperrors.JSONError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			ctx = WithTokenID(WithUser(ctx, user), tokenID)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		if userID, ok := s.sessions.CurrentUserID(r); ok {
			user, err := s.store.Users.GetByID(ctx, userID)
			if err != nil {
				httperrors.InternalError(w, r, err, "load session user")
				return
			}
			if user != nil {
				next.ServeHTTP(w, r.WithContext(WithUser(ctx, user)))
				return
			}
		}

		httperrors.JSONError(w, http.StatusUnauthorized, "authentication required")
	})
}

func randomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
