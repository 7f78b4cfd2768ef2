package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApi_AddWorkout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/workout", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var req AddWorkoutRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Running", req.Type)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		require.NoError(t, json.NewEncoder(w).Encode(Workout{
			ID: 7, UserID: 1, Type: req.Type,
			Duration: req.Duration, CaloriesBurned: req.CaloriesBurned,
			Date: req.Date,
		}))
	}))
	defer server.Close()

	api := NewApi(server.URL, server.Client())
	api.SetToken("test-token")

	workout, err := api.AddWorkout(context.Background(), AddWorkoutRequest{
		Type: "Running", Duration: 30, CaloriesBurned: 300, Date: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, 7, workout.ID)
	assert.Equal(t, "Running", workout.Type)
}

func TestApi_Login(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/login", r.URL.Path)
		var creds map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "mila@burnmate.app", creds["email"])

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(AuthResponse{
			Token: "session-token",
			User:  User{ID: 1, Name: "Mila", Email: creds["email"]},
		}))
	}))
	defer server.Close()

	api := NewApi(server.URL, server.Client())
	authResp, err := api.Login(context.Background(), "mila@burnmate.app", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "session-token", authResp.Token)
	assert.Equal(t, "session-token", api.token)
}

func TestApi_GetLeaderboard_Cached(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.Equal(t, "/api/leaderboard", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode([]LeaderboardEntry{
			{UserID: 1, Name: "Mila", TotalCalories: 1200, WorkoutsCount: 5, Rank: 1},
		}))
	}))
	defer server.Close()

	api := NewApi(server.URL, server.Client())

	for i := 0; i < 3; i++ {
		entries, err := api.GetLeaderboard(context.Background())
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, 1, entries[0].Rank)
	}

	// second and third read come from the cache
	assert.Equal(t, 1, calls)
}

func TestApi_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"wrong credentials"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	api := NewApi(server.URL, server.Client())
	_, err := api.Login(context.Background(), "mila@burnmate.app", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.Empty(t, api.token)
}
