package leaderboard

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/burnmate/burnmate/internal/telemetry/tracing"
	"github.com/burnmate/burnmate/internal/workouts"
	"github.com/burnmate/burnmate/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// recentWorkoutsLimit caps the public per-user detail view.
const recentWorkoutsLimit = 50

type leaderboardRepo interface {
	Global(ctx context.Context) ([]Entry, error)
}

type workoutsRepo interface {
	ListRecentForUser(ctx context.Context, userID, limit int) ([]workouts.Workout, error)
}

// WorkoutSummary is the trimmed view of a workout shown on the public
// leaderboard detail page. Owner-only fields stay out of it.
type WorkoutSummary struct {
	Type           string    `json:"type"`
	Duration       int       `json:"duration"`
	CaloriesBurned int       `json:"caloriesBurned"`
	Date           time.Time `json:"date"`
}

type Handler struct {
	repo         leaderboardRepo
	workoutsRepo workoutsRepo
}

func NewHandler(repo leaderboardRepo, workoutsRepo workoutsRepo) *Handler {
	return &Handler{
		repo:         repo,
		workoutsRepo: workoutsRepo,
	}
}

func (handler *Handler) SetupRoutes(apiRouter *mux.Router) {
	apiRouter.HandleFunc("/leaderboard", handler.HandleGlobal).Methods("GET", "OPTIONS").Name("leaderboard")
	apiRouter.HandleFunc("/leaderboard/{userId}/workouts", handler.HandleUserWorkouts).Methods("GET", "OPTIONS").Name("leaderboard-user-workouts")
}

func (handler *Handler) HandleGlobal(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.leaderboard.global")
	defer span.End()

	entries, err := handler.repo.Global(ctx)
	if err != nil {
		log.Errorf("get leaderboard: %s", err)
		pkg.WriteJSONError(w, "server error", http.StatusInternalServerError)
		return
	}

	entriesJson, err := json.Marshal(entries)
	if err != nil {
		log.Errorf("marshal leaderboard error: %s", err)
		pkg.WriteJSONError(w, "server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, entriesJson, http.StatusOK)
}

func (handler *Handler) HandleUserWorkouts(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.leaderboard.userworkouts")
	defer span.End()

	vars := mux.Vars(r)
	userIDStr := vars["userId"]
	if userIDStr == "" {
		pkg.WriteJSONError(w, "error, user id empty", http.StatusBadRequest)
		return
	}
	userID, err := strconv.Atoi(userIDStr)
	if err != nil {
		pkg.WriteJSONError(w, "error, user id NaN", http.StatusBadRequest)
		return
	}

	userWorkouts, err := handler.workoutsRepo.ListRecentForUser(ctx, userID, recentWorkoutsLimit)
	if err != nil {
		log.Errorf("get leaderboard workouts for user %d: %s", userID, err)
		pkg.WriteJSONError(w, "server error", http.StatusInternalServerError)
		return
	}

	summaries := make([]WorkoutSummary, 0, len(userWorkouts))
	for _, workout := range userWorkouts {
		summaries = append(summaries, WorkoutSummary{
			Type:           workout.Type,
			Duration:       workout.DurationMinutes,
			CaloriesBurned: workout.CaloriesBurned,
			Date:           workout.Date,
		})
	}

	summariesJson, err := json.Marshal(summaries)
	if err != nil {
		log.Errorf("marshal leaderboard workouts error: %s", err)
		pkg.WriteJSONError(w, "server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, summariesJson, http.StatusOK)
}
