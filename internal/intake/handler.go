package intake

import (
	"context"
	"encoding/json"
	"errors"
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

type intakeRepo interface {
	Add(ctx context.Context, entry Intake) (*Intake, error)
	ListForUser(ctx context.Context, userID int, params ListParams) ([]Intake, error)
	Get(ctx context.Context, id int) (*Intake, error)
	Delete(ctx context.Context, id int) error
}

type AddIntakeRequest struct {
	Name      string     `json:"name"`
	Calories  int        `json:"calories"`
	Protein   int        `json:"protein"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

type Handler struct {
	repo           intakeRepo
	metricsManager *metrics.Manager
}

func NewHandler(repo intakeRepo, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:           repo,
		metricsManager: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(apiRouter *mux.Router) {
	apiRouter.HandleFunc("/intake", handler.HandleAdd).Methods("POST", "OPTIONS").Name("new-intake")
	apiRouter.HandleFunc("/intake/{userId}", handler.HandleListForUser).Methods("GET", "OPTIONS").Name("list-intake")
	apiRouter.HandleFunc("/intake/{id}", handler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-intake")
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.intake.new")
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

	var req AddIntakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("new intake, unmarshal json params: %s", err)
		pkg.WriteJSONError(w, "add intake failed", http.StatusBadRequest)
		return
	}

	if req.Name == "" {
		pkg.WriteJSONError(w, "error, food name empty", http.StatusBadRequest)
		return
	}
	if req.Calories < 0 || req.Protein < 0 {
		pkg.WriteJSONError(w, "error, negative calories or protein", http.StatusBadRequest)
		return
	}

	timestamp := time.Now()
	if req.Timestamp != nil && !req.Timestamp.IsZero() {
		timestamp = *req.Timestamp
	}

	addedEntry, err := handler.repo.Add(ctx, Intake{
		UserID:    authUserID,
		Name:      req.Name,
		Calories:  req.Calories,
		Protein:   req.Protein,
		Timestamp: timestamp,
	})
	if err != nil {
		log.Errorf("failed to add intake [%s] for user %d: %s", req.Name, authUserID, err)
		pkg.WriteJSONError(w, "server error", http.StatusInternalServerError)
		return
	}

	addedEntryJson, err := json.Marshal(addedEntry)
	if err != nil {
		log.Errorf("failed to marshal new intake: %s", err)
		pkg.WriteJSONError(w, "server error", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterIntakeEntries.Inc()
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedEntryJson, http.StatusCreated)
}

func (handler *Handler) HandleListForUser(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.intake.listforuser")
	defer span.End()

	vars := mux.Vars(r)
	userID, err := strconv.Atoi(vars["userId"])
	if err != nil {
		pkg.WriteJSONError(w, "error, user id NaN", http.StatusBadRequest)
		return
	}

	authUserID, ok := auth.UserIDFromContext(ctx)
	if !ok || authUserID != userID {
		pkg.WriteJSONError(w, "forbidden", http.StatusForbidden)
		return
	}

	params, err := listParamsFromQuery(r)
	if err != nil {
		pkg.WriteJSONError(w, "invalid time range", http.StatusBadRequest)
		return
	}

	entries, err := handler.repo.ListForUser(ctx, userID, params)
	if err != nil {
		log.Errorf("list intake for user %d: %s", userID, err)
		pkg.WriteJSONError(w, "server error", http.StatusInternalServerError)
		return
	}

	entriesJson, err := json.Marshal(entries)
	if err != nil {
		log.Errorf("marshal intake entries error: %s", err)
		pkg.WriteJSONError(w, "server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, entriesJson, http.StatusOK)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.intake.delete")
	defer span.End()

	vars := mux.Vars(r)
	id, err := strconv.Atoi(vars["id"])
	if err != nil {
		pkg.WriteJSONError(w, "error, intake id NaN", http.StatusBadRequest)
		return
	}

	authUserID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, "no can do", http.StatusUnauthorized)
		return
	}

	entry, err := handler.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrIntakeNotFound) {
			pkg.WriteJSONError(w, "not found", http.StatusNotFound)
			return
		}
		log.Errorf("get intake %d: %s", id, err)
		pkg.WriteJSONError(w, "server error", http.StatusInternalServerError)
		return
	}

	if entry.UserID != authUserID {
		pkg.WriteJSONError(w, "forbidden", http.StatusForbidden)
		return
	}

	if err := handler.repo.Delete(ctx, id); err != nil {
		log.Errorf("delete intake %d: %s", id, err)
		pkg.WriteJSONError(w, "server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, `{"ok":true}`)
}

func listParamsFromQuery(r *http.Request) (ListParams, error) {
	var params ListParams
	if fromStr := r.URL.Query().Get("from"); fromStr != "" {
		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			return ListParams{}, err
		}
		params.From = &from
	}
	if toStr := r.URL.Query().Get("to"); toStr != "" {
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			return ListParams{}, err
		}
		params.To = &to
	}
	return params, nil
}
