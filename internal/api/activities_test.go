package api

import (
	"net/http"
	"testing"
)

type activitiesResponse struct {
	Activities []activityPayload `json:"activities"`
}

func TestListActivities(t *testing.T) {
	env := newTestEnv()

	rec := doJSON(t, env.router(), http.MethodGet, "/api/activities", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	resp := decodeBody[activitiesResponse](t, rec)
	if len(resp.Activities) != len(testCatalog()) {
		t.Errorf("got %d activities, want %d", len(resp.Activities), len(testCatalog()))
	}
}

func TestListActivitiesByCategory(t *testing.T) {
	env := newTestEnv()

	rec := doJSON(t, env.router(), http.MethodGet, "/api/activities?category=breathing", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	resp := decodeBody[activitiesResponse](t, rec)
	if len(resp.Activities) != 1 {
		t.Fatalf("got %d breathing activities, want 1", len(resp.Activities))
	}
	if resp.Activities[0].Slug != "box-breathing" {
		t.Errorf("slug = %q, want box-breathing", resp.Activities[0].Slug)
	}
}

func TestListActivitiesUnknownCategory(t *testing.T) {
	env := newTestEnv()

	rec := doJSON(t, env.router(), http.MethodGet, "/api/activities?category=doomscrolling", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGetActivity(t *testing.T) {
	env := newTestEnv()

	rec := doJSON(t, env.router(), http.MethodGet, "/api/activities/2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	payload := decodeBody[activityPayload](t, rec)
	if payload.Slug != "body-scan" {
		t.Errorf("slug = %q, want body-scan", payload.Slug)
	}
}

func TestGetActivityNotFound(t *testing.T) {
	env := newTestEnv()

	rec := doJSON(t, env.router(), http.MethodGet, "/api/activities/999", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}

	rec = doJSON(t, env.router(), http.MethodGet, "/api/activities/zen", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("non-numeric id: status = %d, want 400", rec.Code)
	}
}

func TestCompleteActivity(t *testing.T) {
	env := newTestEnv()
	router := env.router()

	rec := doJSON(t, router, http.MethodPost, "/api/activities/1/complete", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	body := decodeBody[map[string]any](t, rec)
	if points, _ := body["points"].(float64); int(points) != 10 {
		t.Errorf("points = %v, want 10", body["points"])
	}

	// Same activity, same day: conflict
	rec = doJSON(t, router, http.MethodPost, "/api/activities/1/complete", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("repeat status = %d, want 409", rec.Code)
	}

	// A different activity still works
	rec = doJSON(t, router, http.MethodPost, "/api/activities/2/complete", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("second activity status = %d, want 201", rec.Code)
	}
}
