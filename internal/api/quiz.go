package api

import (
	"encoding/json"
	"errors"
	"net/http"

	httperrors "github.com/unwindhq/unwind/internal/http/errors"
	"github.com/unwindhq/unwind/internal/store"
)

type quizAnswer struct {
	Question string `json:"question"`
	Category string `json:"category"`
	Weight   int    `json:"weight"`
}

type quizRequest struct {
	Answers []quizAnswer `json:"answers"`
}

// categoryOrder fixes tie-breaking for the weighted tally so equal scores
// always resolve to the same recommendation.
var categoryOrder = []string{
	store.CategoryMeditation,
	store.CategoryBreathing,
	store.CategoryJournaling,
	store.CategorySleep,
	store.CategoryMovement,
}

// SubmitQuiz tallies the weighted answers, recommends the highest scoring
// category and one activity from it, and persists the result.
func (a *API) SubmitQuiz(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req quizRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Answers) == 0 {
		httperrors.BadRequestError(w, r, errors.New("empty answers"), "at least one answer is required")
		return
	}

	scores := make(map[string]int)
	for _, answer := range req.Answers {
		if !knownCategory(answer.Category) {
			httperrors.BadRequestError(w, r, errors.New("unknown category "+answer.Category), "unknown category in answers")
			return
		}
		weight := answer.Weight
		if weight == 0 {
			weight = 1
		}
		scores[answer.Category] += weight
	}

	recommended := tallyWinner(scores)

	candidates, err := a.store.Activities.ListByCategory(r.Context(), recommended)
	if err != nil {
		httperrors.InternalError(w, r, err, "load recommended activities")
		return
	}

	var recommendedActivity *store.Activity
	if len(candidates) > 0 {
		recommendedActivity = &candidates[0]
	}

	rawAnswers, err := json.Marshal(req.Answers)
	if err != nil {
		httperrors.InternalError(w, r, err, "serialize quiz answers")
		return
	}

	result := store.QuizResult{
		UserID:              user.ID,
		Answers:             rawAnswers,
		RecommendedCategory: recommended,
	}
	if recommendedActivity != nil {
		result.RecommendedActivity = &recommendedActivity.ID
	}

	if _, err := a.store.QuizResults.Create(r.Context(), result); err != nil {
		httperrors.InternalError(w, r, err, "persist quiz result")
		return
	}

	body := map[string]any{"recommendedCategory": recommended}
	if recommendedActivity != nil {
		body["recommendedActivity"] = activityToPayload(*recommendedActivity)
	}
	respondJSON(w, http.StatusOK, body)
}

func tallyWinner(scores map[string]int) string {
	winner := categoryOrder[0]
	best := -1
	for _, category := range categoryOrder {
		if score := scores[category]; score > best {
			winner = category
			best = score
		}
	}
	return winner
}
