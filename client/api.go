package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const leaderboardCacheExpireSeconds = 60

// Workout mirrors the backend workout resource.
type Workout struct {
	ID             int       `json:"id"`
	UserID         int       `json:"userId"`
	Type           string    `json:"type"`
	Duration       int       `json:"duration"`
	CaloriesBurned int       `json:"caloriesBurned"`
	Date           time.Time `json:"date"`
}

type AddWorkoutRequest struct {
	Type           string    `json:"type"`
	Duration       int       `json:"duration"`
	CaloriesBurned int       `json:"caloriesBurned"`
	Date           time.Time `json:"date"`
}

type LeaderboardEntry struct {
	UserID        int    `json:"userId"`
	Name          string `json:"name"`
	AvatarURL     string `json:"avatarUrl"`
	TotalCalories int    `json:"totalCalories"`
	WorkoutsCount int    `json:"workoutsCount"`
	Rank          int    `json:"rank"`
}

type User struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Age       int    `json:"age,omitempty"`
	Gender    string `json:"gender"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatarUrl"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Api is a typed client for the backend HTTP API.
type Api struct {
	baseURL    string
	token      string
	cache      *freecache.Cache
	httpClient *http.Client
}

func NewApi(baseURL string, httpClient *http.Client) *Api {
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   10 * time.Second,
		}
	}

	megabyte := 1024 * 1024
	return &Api{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		cache:      freecache.NewCache(1 * megabyte),
		httpClient: httpClient,
	}
}

func (api *Api) SetToken(token string) {
	api.token = token
}

func (api *Api) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var authResp AuthResponse
	err := api.doJSON(ctx, http.MethodPost, "/api/login",
		map[string]string{"email": email, "password": password},
		&authResp,
	)
	if err != nil {
		return nil, err
	}
	api.token = authResp.Token
	return &authResp, nil
}

func (api *Api) Logout(ctx context.Context) error {
	if err := api.doJSON(ctx, http.MethodPost, "/api/logout", nil, nil); err != nil {
		return err
	}
	api.token = ""
	return nil
}

func (api *Api) AddWorkout(ctx context.Context, req AddWorkoutRequest) (*Workout, error) {
	var workout Workout
	if err := api.doJSON(ctx, http.MethodPost, "/api/workout", req, &workout); err != nil {
		return nil, err
	}
	return &workout, nil
}

func (api *Api) ListWorkouts(ctx context.Context, userID int) ([]Workout, error) {
	var workouts []Workout
	err := api.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/workouts/%d", userID), nil, &workouts)
	if err != nil {
		return nil, err
	}
	return workouts, nil
}

// GetLeaderboard returns the global leaderboard, caching the response
// for a minute. The rollup changes with every logged workout, fresher
// data than that is not worth a round trip per render.
func (api *Api) GetLeaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	cacheKey := []byte("leaderboard")
	if cached, err := api.cache.Get(cacheKey); err == nil {
		var entries []LeaderboardEntry
		unmarshalErr := json.Unmarshal(cached, &entries)
		if unmarshalErr == nil {
			return entries, nil
		}
		log.Tracef("unmarshal cached leaderboard: %s", unmarshalErr)
	}

	var entries []LeaderboardEntry
	if err := api.doJSON(ctx, http.MethodGet, "/api/leaderboard", nil, &entries); err != nil {
		return nil, err
	}

	if entriesJson, err := json.Marshal(entries); err == nil {
		if err := api.cache.Set(cacheKey, entriesJson, leaderboardCacheExpireSeconds); err != nil {
			log.Tracef("cache leaderboard: %s", err)
		}
	}

	return entries, nil
}

func (api *Api) doJSON(ctx context.Context, method, path string, reqBody, respBody any) error {
	var bodyReader io.Reader
	if reqBody != nil {
		reqJson, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(reqJson)
	}

	req, err := http.NewRequestWithContext(ctx, method, api.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if api.token != "" {
		req.Header.Set("Authorization", "Bearer "+api.token)
	}

	resp, err := api.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Tracef("close response body: %s", err)
		}
	}()

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("api error [%s %s]: status %d: %s", method, path, resp.StatusCode, respData)
	}

	if respBody == nil {
		return nil
	}
	if err := json.Unmarshal(respData, respBody); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
