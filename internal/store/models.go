package store

import "time"

// User represents a student authenticated via OIDC.
type User struct {
	ID           int64
	OAuthSubject string
	Email        string
	DisplayName  *string
	CreatedAt    time.Time
	LastLoginAt  time.Time
}

// Activity is one guided self-care activity from the catalog.
type Activity struct {
	ID              int64
	Slug            string
	Title           string
	Category        string
	Description     string
	DurationMinutes int
	MediaURL        *string
	Points          int
	CreatedAt       time.Time
}

// Activity categories. The quiz recommender and the seeded catalog agree on
// this set.
const (
	CategoryMeditation = "meditation"
	CategoryBreathing  = "breathing"
	CategoryJournaling = "journaling"
	CategorySleep      = "sleep"
	CategoryMovement   = "movement"
)

// Completion records that a user finished an activity on a given day.
type Completion struct {
	ID          int64
	UserID      int64
	ActivityID  int64
	CompletedOn time.Time // date only
	Points      int
	Challenge   bool
	CreatedAt   time.Time
}

// DailyChallenge pins one activity as the challenge for a calendar date.
type DailyChallenge struct {
	ChallengeDate time.Time
	ActivityID    int64
}

// QuizResult stores a submitted reflection quiz and its recommendation.
type QuizResult struct {
	ID                  int64
	UserID              int64
	Answers             []byte // raw JSON as submitted
	RecommendedCategory string
	RecommendedActivity *int64
	CreatedAt           time.Time
}

// CalendarFeed is a user's stored ICS feed URL. Only the URL persists; parsed
// assignments are recomputed on every fetch.
type CalendarFeed struct {
	UserID    int64
	URL       string
	UpdatedAt time.Time
}

// AssignmentCompletion marks an imported assignment done or not done.
type AssignmentCompletion struct {
	UserID       int64
	AssignmentID string
	Completed    bool
	CompletedAt  *time.Time
}

// APIToken is a locally issued bearer credential. Only a bcrypt hash of the
// secret is stored.
type APIToken struct {
	ID         int64
	UserID     int64
	Label      string
	TokenHash  string
	CreatedAt  time.Time
	ExpiresAt  *time.Time
	RevokedAt  *time.Time
	LastUsedAt *time.Time
}
