package workouts

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/burnmate/burnmate/internal/auth"
	"github.com/burnmate/burnmate/internal/telemetry/metrics"
	"github.com/burnmate/burnmate/internal/telemetry/tracing"
	"github.com/burnmate/burnmate/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type workoutsRepo interface {
	Add(ctx context.Context, workout Workout) (*Workout, error)
	ListForUser(ctx context.Context, userID int) ([]Workout, error)
	ListRecentForUser(ctx context.Context, userID, limit int) ([]Workout, error)
}

type AddWorkoutRequest struct {
	Type           string     `json:"type"`
	Duration       int        `json:"duration"`
	CaloriesBurned int        `json:"caloriesBurned"`
	Date           *time.Time `json:"date,omitempty"`
}

type Handler struct {
	repo           workoutsRepo
	metricsManager *metrics.Manager
}

func NewHandler(repo workoutsRepo, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:           repo,
		metricsManager: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(apiRouter *mux.Router) {
	apiRouter.HandleFunc("/workout", handler.HandleAdd).Methods("POST", "OPTIONS").Name("new-workout")
	apiRouter.HandleFunc("/workouts/{userId}", handler.HandleListForUser).Methods("GET", "OPTIONS").Name("list-workouts")
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.new")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		pkg.WriteJSONError(w, "invalid content type", http.StatusBadRequest)
		return
	}

	authUserID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, "no can do", http.StatusUnauthorized)
		return
	}

	var req AddWorkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("new workout, unmarshal json params: %s", err)
		pkg.WriteJSONError(w, "add workout failed", http.StatusBadRequest)
		return
	}

	if req.Type == "" {
		pkg.WriteJSONError(w, "error, workout type empty", http.StatusBadRequest)
		return
	}
	if req.Duration < 0 || req.CaloriesBurned < 0 {
		pkg.WriteJSONError(w, "error, negative duration or calories", http.StatusBadRequest)
		return
	}

	date := time.Now()
	if req.Date != nil && !req.Date.IsZero() {
		date = *req.Date
	}

	addedWorkout, err := handler.repo.Add(ctx, Workout{
		UserID:          authUserID,
		Type:            req.Type,
		DurationMinutes: req.Duration,
		CaloriesBurned:  req.CaloriesBurned,
		Date:            date,
	})
	if err != nil {
		log.Errorf("failed to add new workout [%s] for user %d: %s", req.Type, authUserID, err)
		pkg.WriteJSONError(w, "server error", http.StatusInternalServerError)
		return
	}

	addedWorkoutJson, err := json.Marshal(addedWorkout)
	if err != nil {
		log.Errorf("failed to marshal new workout: %s", err)
		pkg.WriteJSONError(w, "server error", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterWorkoutsLogged.Inc()
	log.Debugf("new workout added: %s", addedWorkoutJson)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedWorkoutJson, http.StatusCreated)
}

func (handler *Handler) HandleListForUser(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.listforuser")
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

	authUserID, ok := auth.UserIDFromContext(ctx)
	if !ok || authUserID != userID {
		pkg.WriteJSONError(w, "forbidden", http.StatusForbidden)
		return
	}

	workouts, err := handler.repo.ListForUser(ctx, userID)
	if err != nil {
		log.Errorf("list workouts for user %d: %s", userID, err)
		pkg.WriteJSONError(w, "server error", http.StatusInternalServerError)
		return
	}

	workoutsJson, err := json.Marshal(workouts)
	if err != nil {
		log.Errorf("marshal workouts error: %s", err)
		pkg.WriteJSONError(w, "server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, workoutsJson, http.StatusOK)
}
