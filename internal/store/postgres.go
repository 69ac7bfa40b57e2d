package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// userRepo implements UserRepository.
type userRepo struct {
	pool *pgxpool.Pool
}

func (r *userRepo) UpsertOAuthUser(ctx context.Context, subject, email string, displayName *string) (*User, error) {
	defer observeDB(ctx, "users.upsert_oauth")()
	const q = `INSERT INTO users (oauth_subject, email, display_name, last_login_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (oauth_subject)
DO UPDATE SET email = EXCLUDED.email,
              display_name = COALESCE(EXCLUDED.display_name, users.display_name),
              last_login_at = NOW()
RETURNING id, oauth_subject, email, display_name, created_at, last_login_at`

	var u User
	err := r.pool.QueryRow(ctx, q, subject, email, displayName).
		Scan(&u.ID, &u.OAuthSubject, &u.Email, &u.DisplayName, &u.CreatedAt, &u.LastLoginAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*User, error) {
	defer observeDB(ctx, "users.get_by_id")()
	const q = `SELECT id, oauth_subject, email, display_name, created_at, last_login_at
FROM users WHERE id = $1`

	var u User
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&u.ID, &u.OAuthSubject, &u.Email, &u.DisplayName, &u.CreatedAt, &u.LastLoginAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// activityRepo implements ActivityRepository.
type activityRepo struct {
	pool *pgxpool.Pool
}

const activityColumns = `id, slug, title, category, description, duration_minutes, media_url, points, created_at`

func scanActivity(row pgx.Row) (*Activity, error) {
	var a Activity
	err := row.Scan(&a.ID, &a.Slug, &a.Title, &a.Category, &a.Description,
		&a.DurationMinutes, &a.MediaURL, &a.Points, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *activityRepo) List(ctx context.Context) ([]Activity, error) {
	defer observeDB(ctx, "activities.list")()
	rows, err := r.pool.Query(ctx, `SELECT `+activityColumns+` FROM activities ORDER BY category, title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectActivities(rows)
}

func (r *activityRepo) ListByCategory(ctx context.Context, category string) ([]Activity, error) {
	defer observeDB(ctx, "activities.list_by_category")()
	rows, err := r.pool.Query(ctx,
		`SELECT `+activityColumns+` FROM activities WHERE category = $1 ORDER BY title`, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectActivities(rows)
}

func (r *activityRepo) GetByID(ctx context.Context, id int64) (*Activity, error) {
	defer observeDB(ctx, "activities.get_by_id")()
	a, err := scanActivity(r.pool.QueryRow(ctx,
		`SELECT `+activityColumns+` FROM activities WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func collectActivities(rows pgx.Rows) ([]Activity, error) {
	var out []Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// completionRepo implements CompletionRepository.
type completionRepo struct {
	pool *pgxpool.Pool
}

func (r *completionRepo) Create(ctx context.Context, c Completion) (*Completion, error) {
	defer observeDB(ctx, "completions.create")()
	const q = `INSERT INTO activity_completions (user_id, activity_id, completed_on, points, challenge)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, user_id, activity_id, completed_on, points, challenge, created_at`

	var out Completion
	err := r.pool.QueryRow(ctx, q, c.UserID, c.ActivityID, c.CompletedOn, c.Points, c.Challenge).
		Scan(&out.ID, &out.UserID, &out.ActivityID, &out.CompletedOn, &out.Points, &out.Challenge, &out.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *completionRepo) HasCompletedOn(ctx context.Context, userID, activityID int64, day time.Time) (bool, error) {
	defer observeDB(ctx, "completions.has_completed_on")()
	const q = `SELECT EXISTS (
        SELECT 1 FROM activity_completions
        WHERE user_id = $1 AND activity_id = $2 AND completed_on = $3
)`
	var exists bool
	if err := r.pool.QueryRow(ctx, q, userID, activityID, day).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *completionRepo) SumPoints(ctx context.Context, userID int64) (int, error) {
	defer observeDB(ctx, "completions.sum_points")()
	const q = `SELECT COALESCE(SUM(points), 0) FROM activity_completions WHERE user_id = $1`
	var total int
	if err := r.pool.QueryRow(ctx, q, userID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *completionRepo) CompletionDays(ctx context.Context, userID int64, limit int) ([]time.Time, error) {
	defer observeDB(ctx, "completions.days")()
	const q = `SELECT DISTINCT completed_on FROM activity_completions
WHERE user_id = $1 ORDER BY completed_on DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

func (r *completionRepo) CountOnDay(ctx context.Context, userID int64, day time.Time) (int, error) {
	defer observeDB(ctx, "completions.count_on_day")()
	const q = `SELECT COUNT(*) FROM activity_completions WHERE user_id = $1 AND completed_on = $2`
	var count int
	if err := r.pool.QueryRow(ctx, q, userID, day).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// challengeRepo implements ChallengeRepository.
type challengeRepo struct {
	pool *pgxpool.Pool
}

func (r *challengeRepo) GetForDate(ctx context.Context, day time.Time) (*DailyChallenge, error) {
	defer observeDB(ctx, "challenges.get_for_date")()
	const q = `SELECT challenge_date, activity_id FROM daily_challenges WHERE challenge_date = $1`

	var c DailyChallenge
	err := r.pool.QueryRow(ctx, q, day).Scan(&c.ChallengeDate, &c.ActivityID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *challengeRepo) SetForDate(ctx context.Context, day time.Time, activityID int64) error {
	defer observeDB(ctx, "challenges.set_for_date")()
	const q = `INSERT INTO daily_challenges (challenge_date, activity_id)
VALUES ($1, $2)
ON CONFLICT (challenge_date) DO NOTHING`
	_, err := r.pool.Exec(ctx, q, day, activityID)
	return err
}

func (r *challengeRepo) CountActivities(ctx context.Context) (int, error) {
	defer observeDB(ctx, "challenges.count_activities")()
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM activities`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *challengeRepo) ActivityAtOffset(ctx context.Context, offset int) (*Activity, error) {
	defer observeDB(ctx, "challenges.activity_at_offset")()
	a, err := scanActivity(r.pool.QueryRow(ctx,
		`SELECT `+activityColumns+` FROM activities ORDER BY id OFFSET $1 LIMIT 1`, offset))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

// quizResultRepo implements QuizResultRepository.
type quizResultRepo struct {
	pool *pgxpool.Pool
}

func (r *quizResultRepo) Create(ctx context.Context, result QuizResult) (*QuizResult, error) {
	defer observeDB(ctx, "quiz_results.create")()
	const q = `INSERT INTO quiz_results (user_id, answers, recommended_category, recommended_activity)
VALUES ($1, $2, $3, $4)
RETURNING id, user_id, answers, recommended_category, recommended_activity, created_at`

	var out QuizResult
	err := r.pool.QueryRow(ctx, q, result.UserID, result.Answers, result.RecommendedCategory, result.RecommendedActivity).
		Scan(&out.ID, &out.UserID, &out.Answers, &out.RecommendedCategory, &out.RecommendedActivity, &out.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *quizResultRepo) ListByUser(ctx context.Context, userID int64, limit int) ([]QuizResult, error) {
	defer observeDB(ctx, "quiz_results.list_by_user")()
	const q = `SELECT id, user_id, answers, recommended_category, recommended_activity, created_at
FROM quiz_results WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []QuizResult
	for rows.Next() {
		var qr QuizResult
		if err := rows.Scan(&qr.ID, &qr.UserID, &qr.Answers, &qr.RecommendedCategory, &qr.RecommendedActivity, &qr.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, qr)
	}
	return out, rows.Err()
}

// calendarFeedRepo implements CalendarFeedRepository.
type calendarFeedRepo struct {
	pool *pgxpool.Pool
}

func (r *calendarFeedRepo) Upsert(ctx context.Context, userID int64, url string) error {
	defer observeDB(ctx, "calendar_feeds.upsert")()
	const q = `INSERT INTO calendar_feeds (user_id, url, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (user_id) DO UPDATE SET url = EXCLUDED.url, updated_at = NOW()`
	_, err := r.pool.Exec(ctx, q, userID, url)
	return err
}

func (r *calendarFeedRepo) Get(ctx context.Context, userID int64) (*CalendarFeed, error) {
	defer observeDB(ctx, "calendar_feeds.get")()
	const q = `SELECT user_id, url, updated_at FROM calendar_feeds WHERE user_id = $1`

	var f CalendarFeed
	err := r.pool.QueryRow(ctx, q, userID).Scan(&f.UserID, &f.URL, &f.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// assignmentCompletionRepo implements AssignmentCompletionRepository.
type assignmentCompletionRepo struct {
	pool *pgxpool.Pool
}

func (r *assignmentCompletionRepo) Upsert(ctx context.Context, c AssignmentCompletion) (*AssignmentCompletion, error) {
	defer observeDB(ctx, "assignment_completions.upsert")()
	const q = `INSERT INTO assignment_completions (user_id, assignment_id, completed, completed_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id, assignment_id)
DO UPDATE SET completed = EXCLUDED.completed, completed_at = EXCLUDED.completed_at
RETURNING user_id, assignment_id, completed, completed_at`

	var completedAt *time.Time
	if c.Completed {
		now := time.Now().UTC()
		completedAt = &now
	}

	var out AssignmentCompletion
	err := r.pool.QueryRow(ctx, q, c.UserID, c.AssignmentID, c.Completed, completedAt).
		Scan(&out.UserID, &out.AssignmentID, &out.Completed, &out.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *assignmentCompletionRepo) ListByUser(ctx context.Context, userID int64) ([]AssignmentCompletion, error) {
	defer observeDB(ctx, "assignment_completions.list_by_user")()
	const q = `SELECT user_id, assignment_id, completed, completed_at
FROM assignment_completions WHERE user_id = $1`

	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AssignmentCompletion
	for rows.Next() {
		var c AssignmentCompletion
		if err := rows.Scan(&c.UserID, &c.AssignmentID, &c.Completed, &c.CompletedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// apiTokenRepo implements APITokenRepository.
type apiTokenRepo struct {
	pool *pgxpool.Pool
}

const apiTokenColumns = `id, user_id, label, token_hash, created_at, expires_at, revoked_at, last_used_at`

func scanAPIToken(row pgx.Row) (*APIToken, error) {
	var t APIToken
	err := row.Scan(&t.ID, &t.UserID, &t.Label, &t.TokenHash, &t.CreatedAt, &t.ExpiresAt, &t.RevokedAt, &t.LastUsedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *apiTokenRepo) Create(ctx context.Context, token APIToken) (*APIToken, error) {
	defer observeDB(ctx, "api_tokens.create")()
	const q = `INSERT INTO api_tokens (user_id, label, token_hash, expires_at)
VALUES ($1, $2, $3, $4)
RETURNING ` + apiTokenColumns
	return scanAPIToken(r.pool.QueryRow(ctx, q, token.UserID, token.Label, token.TokenHash, token.ExpiresAt))
}

func (r *apiTokenRepo) GetByID(ctx context.Context, id int64) (*APIToken, error) {
	defer observeDB(ctx, "api_tokens.get_by_id")()
	t, err := scanAPIToken(r.pool.QueryRow(ctx,
		`SELECT `+apiTokenColumns+` FROM api_tokens WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

func (r *apiTokenRepo) ListByUser(ctx context.Context, userID int64) ([]APIToken, error) {
	defer observeDB(ctx, "api_tokens.list_by_user")()
	rows, err := r.pool.Query(ctx,
		`SELECT `+apiTokenColumns+` FROM api_tokens WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []APIToken
	for rows.Next() {
		t, err := scanAPIToken(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (r *apiTokenRepo) Revoke(ctx context.Context, id int64) error {
	defer observeDB(ctx, "api_tokens.revoke")()
	_, err := r.pool.Exec(ctx,
		`UPDATE api_tokens SET revoked_at = NOW() WHERE id = $1 AND revoked_at IS NULL`, id)
	return err
}

func (r *apiTokenRepo) TouchLastUsed(ctx context.Context, id int64) error {
	defer observeDB(ctx, "api_tokens.touch_last_used")()
	_, err := r.pool.Exec(ctx, `UPDATE api_tokens SET last_used_at = NOW() WHERE id = $1`, id)
	return err
}
