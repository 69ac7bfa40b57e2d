package challenge

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/unwindhq/unwind/internal/store"
)

// ErrEmptyCatalog is returned when no activities exist to pick from.
var ErrEmptyCatalog = errors.New("activity catalog is empty")

// Service assigns one catalog activity as the challenge for each calendar
// date. The pick is a deterministic hash of the date so every instance of the
// server lands on the same activity without coordination.
type Service struct {
	store *store.Store
	cron  *cron.Cron
}

func NewService(st *store.Store) *Service {
	return &Service{
		store: st,
		cron:  cron.New(),
	}
}

// EnsureToday returns today's challenge activity, assigning one first if no
// row exists yet for the date.
func (s *Service) EnsureToday(ctx context.Context) (*store.Activity, error) {
	return s.EnsureForDate(ctx, time.Now())
}

// EnsureForDate resolves the challenge for an arbitrary date.
func (s *Service) EnsureForDate(ctx context.Context, t time.Time) (*store.Activity, error) {
	day := dateOnly(t)

	ch, err := s.store.Challenges.GetForDate(ctx, day)
	if err != nil {
		return nil, err
	}

	if ch == nil {
		count, err := s.store.Challenges.CountActivities(ctx)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, ErrEmptyCatalog
		}

		picked, err := s.store.Challenges.ActivityAtOffset(ctx, dateHash(day)%count)
		if err != nil {
			return nil, err
		}
		if picked == nil {
			return nil, ErrEmptyCatalog
		}

		// Insert is ON CONFLICT DO NOTHING, so a concurrent instance may win.
		// Re-read to make every caller agree on the stored row.
		if err := s.store.Challenges.SetForDate(ctx, day, picked.ID); err != nil {
			return nil, err
		}
		ch, err = s.store.Challenges.GetForDate(ctx, day)
		if err != nil {
			return nil, err
		}
		if ch == nil {
			return nil, fmt.Errorf("challenge for %s missing after insert", day.Format("2006-01-02"))
		}
	}

	activity, err := s.store.Activities.GetByID(ctx, ch.ActivityID)
	if err != nil {
		return nil, err
	}
	if activity == nil {
		return nil, fmt.Errorf("challenge activity %d not found", ch.ActivityID)
	}

	return activity, nil
}

// Start schedules the midnight rotation so the new day's challenge is
// assigned before the first request asks for it.
func (s *Service) Start() {
	s.cron.AddFunc("0 0 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if _, err := s.EnsureToday(ctx); err != nil {
			log.Printf("[ERROR] rotate daily challenge: %v", err)
		}
	})
	s.cron.Start()
}

// Stop halts the rotation scheduler and waits for a running job to finish.
func (s *Service) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func dateHash(day time.Time) int {
	h := fnv.New32a()
	h.Write([]byte(day.Format("2006-01-02")))
	return int(h.Sum32() & 0x7fffffff)
}
