package middleware_test

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/burnmate/burnmate/internal/auth"
	"github.com/burnmate/burnmate/internal/middleware"

	"github.com/go-redis/redismock/v8"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthMiddlewareHandler_AuthCheck(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer func() {
		require.NoError(t, db.Close())
	}()

	authMiddleware := middleware.NewAuthMiddlewareHandler(
		auth.NewLoginChecker(time.Hour, db),
	)

	testCases := []struct {
		name               string
		path               string
		method             string
		token              string
		sessionValue       string
		sessionMissing     bool
		expectedStatusCode int
		expectedUserID     int
	}{
		{
			name:               "AllowedPathWithoutToken",
			path:               "/api/leaderboard",
			method:             "GET",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "HealthWithoutToken",
			path:               "/api/health",
			method:             "GET",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "Options",
			path:               "/api/workout",
			method:             "OPTIONS",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "ProtectedPathWithoutToken",
			path:               "/api/workout",
			method:             "POST",
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "LeaderboardDetailNeedsToken",
			path:               "/api/leaderboard/1/workouts",
			method:             "GET",
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "ValidToken",
			path:               "/api/workout",
			method:             "POST",
			token:              "valid-token",
			sessionValue:       fmt.Sprintf("42|%d", time.Now().Unix()),
			expectedStatusCode: http.StatusOK,
			expectedUserID:     42,
		},
		{
			name:               "UnknownToken",
			path:               "/api/workout",
			method:             "POST",
			token:              "unknown-token",
			sessionMissing:     true,
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "ExpiredSession",
			path:               "/api/workout",
			method:             "POST",
			token:              "expired-token",
			sessionValue:       fmt.Sprintf("42|%d", time.Now().Add(-2*time.Hour).Unix()),
			expectedStatusCode: http.StatusUnauthorized,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest(tc.method, tc.path, nil)
			require.NoError(t, err)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
				sessionKey := "burnmate-session||" + tc.token
				if tc.sessionMissing {
					mock.ExpectGet(sessionKey).RedisNil()
				} else {
					mock.ExpectGet(sessionKey).SetVal(tc.sessionValue)
				}
			}

			var gotUserID int
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUserID, _ = auth.UserIDFromContext(r.Context())
			})

			rr := httptest.NewRecorder()
			authMiddleware.AuthCheck()(handler).ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatusCode, rr.Code)
			if tc.expectedUserID != 0 {
				assert.Equal(t, tc.expectedUserID, gotUserID)
			}
		})
	}
}

func TestAuthMiddlewareHandler_AuthCheck_LogsRequestIP(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer func() {
		require.NoError(t, db.Close())
	}()

	authMiddleware := middleware.NewAuthMiddlewareHandler(
		auth.NewLoginChecker(time.Hour, db),
	)

	var logBuf bytes.Buffer
	prevOut := log.StandardLogger().Out
	prevLevel := log.GetLevel()
	log.SetOutput(&logBuf)
	log.SetLevel(log.TraceLevel)
	defer func() {
		log.SetOutput(prevOut)
		log.SetLevel(prevLevel)
	}()

	mock.ExpectGet("burnmate-session||unknown-token").RedisNil()

	req, err := http.NewRequest("POST", "/api/workout", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer unknown-token")
	req.Header.Set("X-Real-Ip", "203.0.113.7")

	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	rr := httptest.NewRecorder()
	authMiddleware.AuthCheck()(next).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, logBuf.String(), "203.0.113.7")
}
