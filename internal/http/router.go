package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/unwindhq/unwind/internal/api"
	"github.com/unwindhq/unwind/internal/auth"
	"github.com/unwindhq/unwind/internal/challenge"
	"github.com/unwindhq/unwind/internal/config"
	"github.com/unwindhq/unwind/internal/http/csrf"
	"github.com/unwindhq/unwind/internal/http/ratelimit"
	"github.com/unwindhq/unwind/internal/ical"
	"github.com/unwindhq/unwind/internal/metrics"
	"github.com/unwindhq/unwind/internal/store"
)

// NewRouter wires all HTTP routes.
func NewRouter(cfg *config.Config, st *store.Store, authService *auth.Service, challenges *challenge.Service) http.Handler {
	r := chi.NewRouter()

	// Auth endpoints: 5 requests per second, burst of 10
	authRateLimiter := ratelimit.NewIPRateLimiter(rate.Limit(5), 10, 5*time.Minute, cfg.TrustedProxies)
	// API endpoints: 20 requests per second, burst of 50
	apiRateLimiter := ratelimit.NewIPRateLimiter(rate.Limit(20), 50, 5*time.Minute, cfg.TrustedProxies)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware())

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := st.HealthCheck(ctx); err != nil {
			http.Error(w, "unready", http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if cfg.PrometheusEnabled {
		r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			metrics.Handler().ServeHTTP(w, r)
		})
	}

	r.Route("/auth", func(r chi.Router) {
		r.Use(authRateLimiter.Middleware())
		r.Get("/login", authService.BeginOAuth)
		r.Get("/callback", authService.HandleOAuthCallback)
	})

	r.With(authService.RequireAuth, csrf.Middleware(cfg)).Post("/auth/logout", authService.Logout)

	apiHandler := api.New(st, authService, challenges, ical.NewFetcher(cfg.Feed.FetchTimeout))

	r.Route("/api", func(r chi.Router) {
		r.Use(apiRateLimiter.Middleware())
		r.Use(authService.RequireAuth)
		r.Use(csrf.Middleware(cfg))

		r.Get("/activities", apiHandler.ListActivities)
		r.Get("/activities/{id}", apiHandler.GetActivity)
		r.Post("/activities/{id}/complete", apiHandler.CompleteActivity)

		r.Get("/challenges/today", apiHandler.TodayChallenge)
		r.Post("/challenges/today/complete", apiHandler.CompleteTodayChallenge)

		r.Post("/quiz", apiHandler.SubmitQuiz)
		r.Get("/progress", apiHandler.Progress)

		r.Post("/calendar", apiHandler.ImportCalendar)
		r.Get("/calendar", apiHandler.GetCalendar)
		r.Patch("/assignments/{assignmentId}", apiHandler.SetAssignmentCompletion)

		r.Get("/tokens", apiHandler.ListTokens)
		r.Post("/tokens", apiHandler.CreateToken)
		r.Delete("/tokens/{id}", apiHandler.RevokeToken)
	})

	return r
}
