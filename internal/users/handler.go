package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/burnmate/burnmate/internal/auth"
	"github.com/burnmate/burnmate/internal/middleware"
	"github.com/burnmate/burnmate/internal/telemetry/metrics"
	"github.com/burnmate/burnmate/internal/telemetry/tracing"
	"github.com/burnmate/burnmate/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type usersRepo interface {
	Create(ctx context.Context, params CreateUserParams) (*User, error)
	GetByID(ctx context.Context, id int) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdateProfile(ctx context.Context, id int, params UpdateProfileParams) (*User, error)
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Age      int    `json:"age,omitempty"`
	Gender   string `json:"gender,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type UpdateProfileRequest struct {
	Name      string `json:"name"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatarUrl"`
	Age       int    `json:"age,omitempty"`
	Gender    string `json:"gender,omitempty"`
}

type Handler struct {
	repo           usersRepo
	authService    *auth.Service
	metricsManager *metrics.Manager
}

func NewHandler(
	repo usersRepo,
	authService *auth.Service,
	metricsManager *metrics.Manager,
) *Handler {
	return &Handler{
		repo:           repo,
		authService:    authService,
		metricsManager: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(
	apiRouter *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	allowedPerMin int,
) {
	authRouter := apiRouter.NewRoute().Subrouter()
	authRouter.HandleFunc("/register", handler.HandleRegister).Methods("POST", "OPTIONS").Name("register")
	authRouter.HandleFunc("/login", handler.HandleLogin).Methods("POST", "OPTIONS").Name("login")
	authRouter.HandleFunc("/logout", handler.HandleLogout).Methods("POST", "OPTIONS").Name("logout")

	// rate limit registration and login to prevent abuse
	authRouter.Use(middleware.RateLimit(rateLimiter, "auth", allowedPerMin, handler.metricsManager))

	apiRouter.HandleFunc("/profile/{id}", handler.HandleGetProfile).Methods("GET", "OPTIONS").Name("get-profile")
	apiRouter.HandleFunc("/profile/{id}", handler.HandleUpdateProfile).Methods("PUT", "OPTIONS").Name("update-profile")
}

func (handler *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.register")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		pkg.WriteJSONError(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("register, unmarshal json params: %s", err)
		pkg.WriteJSONError(w, "register failed", http.StatusBadRequest)
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || req.Password == "" {
		pkg.WriteJSONError(w, "name, email and password are required", http.StatusBadRequest)
		return
	}
	if req.Gender == "" {
		req.Gender = GenderOther
	}
	if !ValidGender(req.Gender) {
		pkg.WriteJSONError(w, "invalid gender", http.StatusBadRequest)
		return
	}

	passwordHash, err := pkg.HashPassword(req.Password)
	if err != nil {
		log.Errorf("register, hash password: %s", err)
		pkg.WriteJSONError(w, "server error", http.StatusInternalServerError)
		return
	}

	user, err := handler.repo.Create(ctx, CreateUserParams{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Age:          req.Age,
		Gender:       req.Gender,
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			pkg.WriteJSONError(w, "email already in use", http.StatusConflict)
			return
		}
		log.Errorf("register, create user [%s]: %s", req.Email, err)
		pkg.WriteJSONError(w, "server error", http.StatusInternalServerError)
		return
	}

	token, err := handler.authService.StartSession(ctx, user.ID, time.Now())
	if err != nil {
		log.Errorf("register, start session for user %d: %s", user.ID, err)
		pkg.WriteJSONError(w, "server error", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterRegistrations.Inc()
	log.Debugf("new user registered: %d", user.ID)

	handler.writeAuthResponse(w, token, *user, http.StatusCreated)
}

func (handler *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.login")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		pkg.WriteJSONError(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("login, unmarshal json params: %s", err)
		pkg.WriteJSONError(w, "login failed", http.StatusBadRequest)
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		pkg.WriteJSONError(w, "email and password are required", http.StatusBadRequest)
		return
	}

	user, err := handler.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			reqIp, _ := pkg.ReadUserIP(r)
			log.Tracef("[email] failed login attempt for %s from %s", req.Email, reqIp)
			pkg.WriteJSONError(w, "wrong credentials", http.StatusUnauthorized)
			return
		}
		log.Errorf("login, get user [%s]: %s", req.Email, err)
		pkg.WriteJSONError(w, "server error", http.StatusInternalServerError)
		return
	}

	if !pkg.CheckPasswordHash(req.Password, user.PasswordHash) {
		reqIp, _ := pkg.ReadUserIP(r)
		log.Tracef("[password] failed login attempt for %s from %s", req.Email, reqIp)
		pkg.WriteJSONError(w, "wrong credentials", http.StatusUnauthorized)
		return
	}

	token, err := handler.authService.StartSession(ctx, user.ID, time.Now())
	if err != nil {
		log.Errorf("login, start session for user %d: %s", user.ID, err)
		pkg.WriteJSONError(w, "server error", http.StatusInternalServerError)
		return
	}

	log.Tracef("user %d logged in", user.ID)
	handler.writeAuthResponse(w, token, *user, http.StatusOK)
}

func (handler *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.logout")
	defer span.End()

	token := auth.TokenFromRequest(r)
	if token == "" {
		pkg.WriteJSONError(w, "no can do", http.StatusUnauthorized)
		return
	}

	loggedOut, err := handler.authService.EndSession(ctx, token)
	if err != nil || !loggedOut {
		log.Tracef("logout failed: %v", err)
		pkg.WriteJSONError(w, "no can do", http.StatusUnauthorized)
		return
	}

	pkg.WriteJSONResponseOK(w, `{"ok":true}`)
}

func (handler *Handler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.getprofile")
	defer span.End()

	id, ok := sameUserOrForbidden(w, r)
	if !ok {
		return
	}

	user, err := handler.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			pkg.WriteJSONError(w, "user not found", http.StatusNotFound)
			return
		}
		log.Errorf("get profile %d: %s", id, err)
		pkg.WriteJSONError(w, "server error", http.StatusInternalServerError)
		return
	}

	userJson, err := json.Marshal(user)
	if err != nil {
		log.Errorf("marshal profile %d: %s", id, err)
		pkg.WriteJSONError(w, "server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, userJson, http.StatusOK)
}

func (handler *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.updateprofile")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		pkg.WriteJSONError(w, "invalid content type", http.StatusBadRequest)
		return
	}

	id, ok := sameUserOrForbidden(w, r)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("update profile, unmarshal json params: %s", err)
		pkg.WriteJSONError(w, "update profile failed", http.StatusBadRequest)
		return
	}

	if req.Name == "" {
		pkg.WriteJSONError(w, "name must not be empty", http.StatusBadRequest)
		return
	}
	if req.Gender == "" {
		req.Gender = GenderOther
	}
	if !ValidGender(req.Gender) {
		pkg.WriteJSONError(w, "invalid gender", http.StatusBadRequest)
		return
	}

	user, err := handler.repo.UpdateProfile(ctx, id, UpdateProfileParams{
		Name:      req.Name,
		Bio:       req.Bio,
		AvatarURL: req.AvatarURL,
		Age:       req.Age,
		Gender:    req.Gender,
	})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			pkg.WriteJSONError(w, "user not found", http.StatusNotFound)
			return
		}
		log.Errorf("update profile %d: %s", id, err)
		pkg.WriteJSONError(w, "server error", http.StatusInternalServerError)
		return
	}

	userJson, err := json.Marshal(user)
	if err != nil {
		log.Errorf("marshal updated profile %d: %s", id, err)
		pkg.WriteJSONError(w, "server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, userJson, http.StatusOK)
}

func (handler *Handler) writeAuthResponse(w http.ResponseWriter, token string, user User, statusCode int) {
	respJson, err := json.Marshal(AuthResponse{
		Token: token,
		User:  user,
	})
	if err != nil {
		log.Errorf("marshal auth response: %s", err)
		pkg.WriteJSONError(w, "server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, statusCode)
}

// sameUserOrForbidden parses the {id} path param and rejects the request
// when it does not match the authenticated user.
func sameUserOrForbidden(w http.ResponseWriter, r *http.Request) (int, bool) {
	vars := mux.Vars(r)
	idStr := vars["id"]
	if idStr == "" {
		pkg.WriteJSONError(w, "error, id empty", http.StatusBadRequest)
		return 0, false
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		pkg.WriteJSONError(w, "error, id NaN", http.StatusBadRequest)
		return 0, false
	}

	authUserID, ok := auth.UserIDFromContext(r.Context())
	if !ok || authUserID != id {
		pkg.WriteJSONError(w, "forbidden", http.StatusForbidden)
		return 0, false
	}

	return id, true
}
