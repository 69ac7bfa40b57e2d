package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/unwindhq/unwind/internal/store"
)

// tokenPrefix identifies Unwind bearer tokens. The plaintext form is
// "unw_<id>_<secret>" so validation can look up the row by ID instead of
// scanning every stored hash.
const tokenPrefix = "unw_"

var ErrInvalidToken = errors.New("invalid api token")

// CreateAPIToken mints a bearer token for a user. The returned plaintext is
// shown to the caller exactly once; only its bcrypt hash is stored.
func (s *Service) CreateAPIToken(ctx context.Context, userID int64, label string, expiresAt *time.Time) (string, *store.APIToken, error) {
	secret, err := randomToken(32)
	if err != nil {
		return "", nil, fmt.Errorf("generate token secret: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, fmt.Errorf("hash token secret: %w", err)
	}

	token, err := s.store.APITokens.Create(ctx, store.APIToken{
		UserID:    userID,
		Label:     label,
		TokenHash: string(hash),
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return "", nil, err
	}

	plaintext := fmt.Sprintf("%s%d_%s", tokenPrefix, token.ID, secret)
	return plaintext, token, nil
}

// ValidateAPIToken checks a plaintext bearer token and returns its owner.
func (s *Service) ValidateAPIToken(ctx context.Context, plaintext string) (*store.User, int64, error) {
	id, secret, err := splitToken(plaintext)
	if err != nil {
		return nil, 0, err
	}

	token, err := s.store.APITokens.GetByID(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	if token == nil || token.RevokedAt != nil {
		return nil, 0, ErrInvalidToken
	}
	if token.ExpiresAt != nil && token.ExpiresAt.Before(time.Now()) {
		return nil, 0, ErrInvalidToken
	}

	if err := bcrypt.CompareHashAndPassword([]byte(token.TokenHash), []byte(secret)); err != nil {
		return nil, 0, ErrInvalidToken
	}

	user, err := s.store.Users.GetByID(ctx, token.UserID)
	if err != nil {
		return nil, 0, err
	}
	if user == nil {
		return nil, 0, ErrInvalidToken
	}

	// Best effort; a stale last_used_at must not fail the request
	_ = s.store.APITokens.TouchLastUsed(ctx, token.ID)

	return user, token.ID, nil
}

func splitToken(plaintext string) (int64, string, error) {
	rest, ok := strings.CutPrefix(plaintext, tokenPrefix)
	if !ok {
		return 0, "", ErrInvalidToken
	}

	idPart, secret, ok := strings.Cut(rest, "_")
	if !ok || secret == "" {
		return 0, "", ErrInvalidToken
	}

	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || id <= 0 {
		return 0, "", ErrInvalidToken
	}

	return id, secret, nil
}
