package auth

import (
	"context"

	"github.com/unwindhq/unwind/internal/store"
)

type contextKey string

const (
	contextKeyUser    contextKey = "user"
	contextKeyTokenID contextKey = "token_id"
)

func WithUser(ctx context.Context, user *store.User) context.Context {
	return context.WithValue(ctx, contextKeyUser, user)
}

func UserFromContext(ctx context.Context) (*store.User, bool) {
	u, ok := ctx.Value(contextKeyUser).(*store.User)
	return u, ok
}

// WithTokenID tags a request context with the API token that authenticated it.
// Session-authenticated requests carry no token ID.
func WithTokenID(ctx context.Context, tokenID int64) context.Context {
	return context.WithValue(ctx, contextKeyTokenID, tokenID)
}

func TokenIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(contextKeyTokenID).(int64)
	return id, ok
}
