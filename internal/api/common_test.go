package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/unwindhq/unwind/internal/auth"
	"github.com/unwindhq/unwind/internal/challenge"
	"github.com/unwindhq/unwind/internal/ical"
	"github.com/unwindhq/unwind/internal/store"
)

type fakeActivityRepo struct {
	activities []store.Activity
}

func (f *fakeActivityRepo) List(context.Context) ([]store.Activity, error) {
	return f.activities, nil
}

func (f *fakeActivityRepo) ListByCategory(_ context.Context, category string) ([]store.Activity, error) {
	var out []store.Activity
	for _, a := range f.activities {
		if a.Category == category {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeActivityRepo) GetByID(_ context.Context, id int64) (*store.Activity, error) {
	for _, a := range f.activities {
		if a.ID == id {
			found := a
			return &found, nil
		}
	}
	return nil, nil
}

type fakeCompletionRepo struct {
	completions []store.Completion
	nextID      int64
}

func (f *fakeCompletionRepo) Create(_ context.Context, c store.Completion) (*store.Completion, error) {
	f.nextID++
	c.ID = f.nextID
	c.CreatedAt = time.Now()
	f.completions = append(f.completions, c)
	return &c, nil
}

func (f *fakeCompletionRepo) HasCompletedOn(_ context.Context, userID, activityID int64, day time.Time) (bool, error) {
	for _, c := range f.completions {
		if c.UserID == userID && c.ActivityID == activityID && sameDay(c.CompletedOn, day) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCompletionRepo) SumPoints(_ context.Context, userID int64) (int, error) {
	total := 0
	for _, c := range f.completions {
		if c.UserID == userID {
			total += c.Points
		}
	}
	return total, nil
}

func (f *fakeCompletionRepo) CompletionDays(_ context.Context, userID int64, limit int) ([]time.Time, error) {
	var days []time.Time
	for _, c := range f.completions {
		if c.UserID != userID {
			continue
		}
		dup := false
		for _, d := range days {
			if sameDay(d, c.CompletedOn) {
				dup = true
				break
			}
		}
		if !dup {
			days = append(days, c.CompletedOn)
		}
	}
	// Newest first, as the real repository returns them
	for i := 0; i < len(days); i++ {
		for j := i + 1; j < len(days); j++ {
			if days[j].After(days[i]) {
				days[i], days[j] = days[j], days[i]
			}
		}
	}
	if len(days) > limit {
		days = days[:limit]
	}
	return days, nil
}

func (f *fakeCompletionRepo) CountOnDay(_ context.Context, userID int64, day time.Time) (int, error) {
	count := 0
	for _, c := range f.completions {
		if c.UserID == userID && sameDay(c.CompletedOn, day) {
			count++
		}
	}
	return count, nil
}

type fakeChallengeRepo struct {
	byDate     map[string]int64
	activities []store.Activity
}

func (f *fakeChallengeRepo) GetForDate(_ context.Context, day time.Time) (*store.DailyChallenge, error) {
	id, ok := f.byDate[day.Format("2006-01-02")]
	if !ok {
		return nil, nil
	}
	return &store.DailyChallenge{ChallengeDate: day, ActivityID: id}, nil
}

func (f *fakeChallengeRepo) SetForDate(_ context.Context, day time.Time, activityID int64) error {
	key := day.Format("2006-01-02")
	if _, exists := f.byDate[key]; !exists {
		f.byDate[key] = activityID
	}
	return nil
}

func (f *fakeChallengeRepo) CountActivities(context.Context) (int, error) {
	return len(f.activities), nil
}

func (f *fakeChallengeRepo) ActivityAtOffset(_ context.Context, offset int) (*store.Activity, error) {
	if offset < 0 || offset >= len(f.activities) {
		return nil, nil
	}
	a := f.activities[offset]
	return &a, nil
}

type fakeQuizResultRepo struct {
	results []store.QuizResult
}

func (f *fakeQuizResultRepo) Create(_ context.Context, result store.QuizResult) (*store.QuizResult, error) {
	result.ID = int64(len(f.results) + 1)
	result.CreatedAt = time.Now()
	f.results = append(f.results, result)
	return &result, nil
}

func (f *fakeQuizResultRepo) ListByUser(_ context.Context, userID int64, limit int) ([]store.QuizResult, error) {
	var out []store.QuizResult
	for _, r := range f.results {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeCalendarFeedRepo struct {
	feeds map[int64]string
}

func (f *fakeCalendarFeedRepo) Upsert(_ context.Context, userID int64, url string) error {
	f.feeds[userID] = url
	return nil
}

func (f *fakeCalendarFeedRepo) Get(_ context.Context, userID int64) (*store.CalendarFeed, error) {
	url, ok := f.feeds[userID]
	if !ok {
		return nil, nil
	}
	return &store.CalendarFeed{UserID: userID, URL: url, UpdatedAt: time.Now()}, nil
}

type fakeAssignmentCompletionRepo struct {
	records map[string]store.AssignmentCompletion
}

func assignmentKey(userID int64, assignmentID string) string {
	return fmt.Sprintf("%d/%s", userID, assignmentID)
}

func (f *fakeAssignmentCompletionRepo) Upsert(_ context.Context, c store.AssignmentCompletion) (*store.AssignmentCompletion, error) {
	if c.Completed {
		now := time.Now()
		c.CompletedAt = &now
	} else {
		c.CompletedAt = nil
	}
	f.records[assignmentKey(c.UserID, c.AssignmentID)] = c
	return &c, nil
}

func (f *fakeAssignmentCompletionRepo) ListByUser(_ context.Context, userID int64) ([]store.AssignmentCompletion, error) {
	var out []store.AssignmentCompletion
	for _, c := range f.records {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeAPITokenRepo struct {
	tokens map[int64]store.APIToken
	nextID int64
}

func (f *fakeAPITokenRepo) Create(_ context.Context, token store.APIToken) (*store.APIToken, error) {
	f.nextID++
	token.ID = f.nextID
	token.CreatedAt = time.Now()
	f.tokens[token.ID] = token
	return &token, nil
}

func (f *fakeAPITokenRepo) GetByID(_ context.Context, id int64) (*store.APIToken, error) {
	token, ok := f.tokens[id]
	if !ok {
		return nil, nil
	}
	return &token, nil
}

func (f *fakeAPITokenRepo) ListByUser(_ context.Context, userID int64) ([]store.APIToken, error) {
	var out []store.APIToken
	for _, t := range f.tokens {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeAPITokenRepo) Revoke(_ context.Context, id int64) error {
	token, ok := f.tokens[id]
	if !ok {
		return nil
	}
	now := time.Now()
	token.RevokedAt = &now
	f.tokens[id] = token
	return nil
}

func (f *fakeAPITokenRepo) TouchLastUsed(_ context.Context, id int64) error {
	token, ok := f.tokens[id]
	if !ok {
		return nil
	}
	now := time.Now()
	token.LastUsedAt = &now
	f.tokens[id] = token
	return nil
}

type fakeMinter struct {
	lastLabel string
}

func (f *fakeMinter) CreateAPIToken(_ context.Context, userID int64, label string, expiresAt *time.Time) (string, *store.APIToken, error) {
	f.lastLabel = label
	token := &store.APIToken{
		ID:        1,
		UserID:    userID,
		Label:     label,
		CreatedAt: time.Now(),
		ExpiresAt: expiresAt,
	}
	return "unw_1_testsecret", token, nil
}

func testCatalog() []store.Activity {
	media := "https://cdn.example.com/videos/stretch.mp4"
	return []store.Activity{
		{ID: 1, Slug: "box-breathing", Title: "Box Breathing", Category: store.CategoryBreathing, Description: "Four counts in, four out.", DurationMinutes: 5, Points: 10},
		{ID: 2, Slug: "body-scan", Title: "Body Scan", Category: store.CategoryMeditation, Description: "Guided body scan.", DurationMinutes: 10, Points: 15},
		{ID: 3, Slug: "gratitude-list", Title: "Gratitude List", Category: store.CategoryJournaling, Description: "Write three things.", DurationMinutes: 5, Points: 10},
		{ID: 4, Slug: "evening-stretch", Title: "Evening Stretch", Category: store.CategoryMovement, Description: "Wind-down stretching.", DurationMinutes: 15, MediaURL: &media, Points: 20},
	}
}

type testEnv struct {
	api         *API
	store       *store.Store
	completions *fakeCompletionRepo
	challenges  *fakeChallengeRepo
	quiz        *fakeQuizResultRepo
	feeds       *fakeCalendarFeedRepo
	assignments *fakeAssignmentCompletionRepo
	apiTokens   *fakeAPITokenRepo
	minter      *fakeMinter
	user        *store.User
}

func newTestEnv() *testEnv {
	catalog := testCatalog()

	env := &testEnv{
		completions: &fakeCompletionRepo{},
		challenges:  &fakeChallengeRepo{byDate: make(map[string]int64), activities: catalog},
		quiz:        &fakeQuizResultRepo{},
		feeds:       &fakeCalendarFeedRepo{feeds: make(map[int64]string)},
		assignments: &fakeAssignmentCompletionRepo{records: make(map[string]store.AssignmentCompletion)},
		apiTokens:   &fakeAPITokenRepo{tokens: make(map[int64]store.APIToken)},
		minter:      &fakeMinter{},
		user:        &store.User{ID: 7, Email: "sam@example.edu"},
	}

	env.store = &store.Store{
		Activities:            &fakeActivityRepo{activities: catalog},
		Completions:           env.completions,
		Challenges:            env.challenges,
		QuizResults:           env.quiz,
		CalendarFeeds:         env.feeds,
		AssignmentCompletions: env.assignments,
		APITokens:             env.apiTokens,
	}

	env.api = New(env.store, env.minter, challenge.NewService(env.store), ical.NewFetcher(5*time.Second))
	return env
}

// router mirrors the real route table with the authenticated user injected
// directly, bypassing session and CSRF middleware.
func (env *testEnv) router() http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.WithUser(req.Context(), env.user)))
		})
	})

	r.Get("/api/activities", env.api.ListActivities)
	r.Get("/api/activities/{id}", env.api.GetActivity)
	r.Post("/api/activities/{id}/complete", env.api.CompleteActivity)
	r.Get("/api/challenges/today", env.api.TodayChallenge)
	r.Post("/api/challenges/today/complete", env.api.CompleteTodayChallenge)
	r.Post("/api/quiz", env.api.SubmitQuiz)
	r.Get("/api/progress", env.api.Progress)
	r.Post("/api/calendar", env.api.ImportCalendar)
	r.Get("/api/calendar", env.api.GetCalendar)
	r.Patch("/api/assignments/{assignmentId}", env.api.SetAssignmentCompletion)
	r.Get("/api/tokens", env.api.ListTokens)
	r.Post("/api/tokens", env.api.CreateToken)
	r.Delete("/api/tokens/{id}", env.api.RevokeToken)

	return r
}
