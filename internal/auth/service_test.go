package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// INFO: https://github.com/go-redis/redis/issues/1029
		goleak.IgnoreTopFunction(
			"github.com/go-redis/redis/v8/internal/pool.(*ConnPool).reaper",
		),
	)
}

func TestService_StartSession(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	authService := NewService(time.Hour, db)
	require.NotNil(t, authService)
	assert.NotNil(t, authService.redisClient)
	assert.Equal(t, time.Hour, authService.ttl)

	testToken := "test_token"
	authService.RandStringFunc = func(s int) (string, error) {
		return testToken, nil
	}

	now := time.Now()
	userID := 42
	sessionKey := sessionKeyPrefix + testToken
	mock.ExpectSet(sessionKey, sessionValue(userID, now), 0).SetVal("OK")
	mock.ExpectSAdd(tokensSetKey, testToken).SetVal(1)

	token, err := authService.StartSession(context.Background(), userID, now)
	require.NoError(t, err)
	assert.Equal(t, testToken, token)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestService_EndSession(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	authService := NewService(time.Hour, db)

	now := time.Now()
	token := "test_token"
	sessionKey := sessionKeyPrefix + token
	mock.ExpectGet(sessionKey).SetVal(sessionValue(42, now))
	mock.ExpectDel(sessionKey).SetVal(1)
	mock.ExpectSRem(tokensSetKey, token).SetVal(1)

	endedSession, err := authService.EndSession(context.Background(), token)
	require.NoError(t, err)
	assert.True(t, endedSession)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestService_EndSession_UnknownToken(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	authService := NewService(time.Hour, db)

	mock.ExpectGet(sessionKeyPrefix + "unknown").RedisNil()

	endedSession, err := authService.EndSession(context.Background(), "unknown")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.False(t, endedSession)
}

func TestService_ScanAndClean(t *testing.T) {
	ttl := time.Hour
	now := time.Now()
	then := now.Add(-2 * time.Hour)

	db, mock := redismock.NewClientMock()
	defer db.Close()

	authService := NewService(ttl, db)
	require.NotNil(t, authService)

	t1, t2 := "token1", "token2"
	mock.ExpectSMembers(tokensSetKey).SetVal([]string{t1, t2})
	mock.ExpectGet(sessionKeyPrefix + t1).SetVal(sessionValue(1, now))
	mock.ExpectGet(sessionKeyPrefix + t2).SetVal(sessionValue(2, then))
	// only t2 outlived the TTL
	mock.ExpectDel(sessionKeyPrefix + t2).SetVal(1)
	mock.ExpectSRem(tokensSetKey, t2).SetVal(1)

	authService.ScanAndClean(context.Background())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestParseSessionValue(t *testing.T) {
	now := time.Now()

	userID, createdAt, err := parseSessionValue(fmt.Sprintf("42|%d", now.Unix()))
	require.NoError(t, err)
	assert.Equal(t, 42, userID)
	assert.Equal(t, now.Unix(), createdAt.Unix())

	_, _, err = parseSessionValue("no-separator")
	assert.Error(t, err)
	_, _, err = parseSessionValue("abc|123")
	assert.Error(t, err)
	_, _, err = parseSessionValue("42|abc")
	assert.Error(t, err)
}
