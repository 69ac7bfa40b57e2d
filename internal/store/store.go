package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store aggregates repositories backed by PostgreSQL.
type Store struct {
	pool *pgxpool.Pool

	Users                 UserRepository
	Activities            ActivityRepository
	Completions           CompletionRepository
	Challenges            ChallengeRepository
	QuizResults           QuizResultRepository
	CalendarFeeds         CalendarFeedRepository
	AssignmentCompletions AssignmentCompletionRepository
	APITokens             APITokenRepository
}

// New wires concrete repository implementations with a shared connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:                  pool,
		Users:                 &userRepo{pool: pool},
		Activities:            &activityRepo{pool: pool},
		Completions:           &completionRepo{pool: pool},
		Challenges:            &challengeRepo{pool: pool},
		QuizResults:           &quizResultRepo{pool: pool},
		CalendarFeeds:         &calendarFeedRepo{pool: pool},
		AssignmentCompletions: &assignmentCompletionRepo{pool: pool},
		APITokens:             &apiTokenRepo{pool: pool},
	}
}

// HealthCheck verifies that the underlying database is reachable.
func (s *Store) HealthCheck(ctx context.Context) error {
	defer observeDB(ctx, "db.healthcheck")()
	return s.pool.Ping(ctx)
}
