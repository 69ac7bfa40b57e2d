package store

import (
	"context"
	"time"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	UpsertOAuthUser(ctx context.Context, subject, email string, displayName *string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
}

// ActivityRepository serves the self-care activity catalog.
type ActivityRepository interface {
	List(ctx context.Context) ([]Activity, error)
	ListByCategory(ctx context.Context, category string) ([]Activity, error)
	GetByID(ctx context.Context, id int64) (*Activity, error)
}

// CompletionRepository tracks finished activities and the derived
// points/streak figures.
type CompletionRepository interface {
	Create(ctx context.Context, c Completion) (*Completion, error)
	HasCompletedOn(ctx context.Context, userID, activityID int64, day time.Time) (bool, error)
	SumPoints(ctx context.Context, userID int64) (int, error)
	CompletionDays(ctx context.Context, userID int64, limit int) ([]time.Time, error)
	CountOnDay(ctx context.Context, userID int64, day time.Time) (int, error)
}

// ChallengeRepository stores the per-date daily challenge assignment.
type ChallengeRepository interface {
	GetForDate(ctx context.Context, day time.Time) (*DailyChallenge, error)
	SetForDate(ctx context.Context, day time.Time, activityID int64) error
	CountActivities(ctx context.Context) (int, error)
	ActivityAtOffset(ctx context.Context, offset int) (*Activity, error)
}

// QuizResultRepository persists reflection quiz submissions.
type QuizResultRepository interface {
	Create(ctx context.Context, result QuizResult) (*QuizResult, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]QuizResult, error)
}

// CalendarFeedRepository stores each user's feed URL. Concurrent refreshes
// are last-write-wins; the stored value is only a URL.
type CalendarFeedRepository interface {
	Upsert(ctx context.Context, userID int64, url string) error
	Get(ctx context.Context, userID int64) (*CalendarFeed, error)
}

// AssignmentCompletionRepository is a key-value upsert of per-assignment
// completion state.
type AssignmentCompletionRepository interface {
	Upsert(ctx context.Context, c AssignmentCompletion) (*AssignmentCompletion, error)
	ListByUser(ctx context.Context, userID int64) ([]AssignmentCompletion, error)
}

// APITokenRepository handles bearer token storage.
type APITokenRepository interface {
	Create(ctx context.Context, token APIToken) (*APIToken, error)
	GetByID(ctx context.Context, id int64) (*APIToken, error)
	ListByUser(ctx context.Context, userID int64) ([]APIToken, error)
	Revoke(ctx context.Context, id int64) error
	TouchLastUsed(ctx context.Context, id int64) error
}
