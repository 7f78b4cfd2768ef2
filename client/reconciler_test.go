package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiMock struct {
	workouts []Workout
	addErr   error
	addCalls int
	nextID   int
	mutex    sync.Mutex
}

func newApiMock() *apiMock {
	return &apiMock{nextID: 1}
}

func (a *apiMock) AddWorkout(_ context.Context, req AddWorkoutRequest) (*Workout, error) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	a.addCalls++
	if a.addErr != nil {
		return nil, a.addErr
	}

	workout := Workout{
		ID:             a.nextID,
		Type:           req.Type,
		Duration:       req.Duration,
		CaloriesBurned: req.CaloriesBurned,
		Date:           req.Date,
	}
	a.nextID++
	a.workouts = append(a.workouts, workout)
	return &workout, nil
}

func (a *apiMock) ListWorkouts(_ context.Context, _ int) ([]Workout, error) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	workouts := make([]Workout, len(a.workouts))
	copy(workouts, a.workouts)
	return workouts, nil
}

func newTestReconciler(api *apiMock) (*Reconciler, *MemoryStore) {
	store := NewMemoryStore()
	r := NewReconciler(api, store)
	return r, store
}

func TestReconciler_AddActivity(t *testing.T) {
	ctx := context.Background()
	api := newApiMock()
	r, store := newTestReconciler(api)

	added, err := r.AddActivity(ctx, 1, AddActivityParams{
		Name:            "Running",
		Calories:        300,
		DurationMinutes: 30,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, added.ID)
	assert.Equal(t, SyncStateSynced, added.SyncState)
	assert.Equal(t, 1, api.addCalls)

	stored, err := store.Load(ctx, 1)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, SyncStateSynced, stored[0].SyncState)
}

func TestReconciler_AddActivity_PersistFails(t *testing.T) {
	ctx := context.Background()
	api := newApiMock()
	api.addErr = errors.New("backend down")
	r, store := newTestReconciler(api)

	added, err := r.AddActivity(ctx, 1, AddActivityParams{
		Name:            "Running",
		Calories:        300,
		DurationMinutes: 30,
	})
	require.NoError(t, err)
	assert.Equal(t, SyncStateSyncFailed, added.SyncState)

	// one attempt, no retries
	assert.Equal(t, 1, api.addCalls)

	// the activity stays local
	stored, err := store.Load(ctx, 1)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, SyncStateSyncFailed, stored[0].SyncState)
}

func TestReconciler_Reconcile_NoDoubleCount(t *testing.T) {
	ctx := context.Background()
	api := newApiMock()
	r, store := newTestReconciler(api)
	now := time.Now()

	// backend knows this workout
	_, err := api.AddWorkout(ctx, AddWorkoutRequest{
		Type: "Running", Duration: 30, CaloriesBurned: 300, Date: now,
	})
	require.NoError(t, err)

	// local copy of the same session plus one the backend never saw
	require.NoError(t, store.Save(ctx, 1, []Activity{
		{ID: "a1", UserID: 1, Name: "Running", DurationMinutes: 30, Calories: 300, Timestamp: now, SyncState: SyncStateLocalOnly},
		{ID: "a2", UserID: 1, Name: "Cycling", DurationMinutes: 60, Calories: 500, Timestamp: now, SyncState: SyncStateLocalOnly},
	}))

	summary, err := r.Reconcile(ctx, 1)
	require.NoError(t, err)

	require.Len(t, summary.Unsynced, 1)
	assert.Equal(t, "Cycling", summary.Unsynced[0].Name)
	assert.Equal(t, 800, summary.TotalCalories)
	assert.Equal(t, 90, summary.TotalDuration)
	assert.Equal(t, 2, summary.TotalWorkouts)
	assert.Equal(t, 800, summary.DailyTotal)

	// the matched activity got marked synced in the store
	stored, err := store.Load(ctx, 1)
	require.NoError(t, err)
	for _, a := range stored {
		if a.ID == "a1" {
			assert.Equal(t, SyncStateSynced, a.SyncState)
		}
	}
}

func TestReconciler_Reconcile_Streak(t *testing.T) {
	ctx := context.Background()
	api := newApiMock()
	r, store := newTestReconciler(api)
	now := time.Now()

	// today, yesterday and the day before, then a gap
	for _, daysAgo := range []int{0, 1, 2, 4} {
		_, err := api.AddWorkout(ctx, AddWorkoutRequest{
			Type: "Running", Duration: 30, CaloriesBurned: 300,
			Date: now.AddDate(0, 0, -daysAgo),
		})
		require.NoError(t, err)
	}
	require.NoError(t, store.Save(ctx, 1, []Activity{}))

	summary, err := r.Reconcile(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Streak)
}

func TestReconciler_Reconcile_NoActivityToday(t *testing.T) {
	ctx := context.Background()
	api := newApiMock()
	r, _ := newTestReconciler(api)
	now := time.Now()

	_, err := api.AddWorkout(ctx, AddWorkoutRequest{
		Type: "Running", Duration: 30, CaloriesBurned: 300,
		Date: now.AddDate(0, 0, -1),
	})
	require.NoError(t, err)

	summary, err := r.Reconcile(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Streak)
	assert.Equal(t, 0, summary.DailyTotal)
	assert.Equal(t, 300, summary.TotalCalories)
}

func TestReconciler_Reconcile_FailedStaysFailed(t *testing.T) {
	ctx := context.Background()
	api := newApiMock()
	r, store := newTestReconciler(api)

	require.NoError(t, store.Save(ctx, 1, []Activity{
		{ID: "a1", UserID: 1, Name: "Yoga", Calories: 100, Timestamp: time.Now(), SyncState: SyncStateSyncFailed},
	}))

	summary, err := r.Reconcile(ctx, 1)
	require.NoError(t, err)
	require.Len(t, summary.Unsynced, 1)
	assert.Equal(t, SyncStateSyncFailed, summary.Unsynced[0].SyncState)
}

func TestActivityKey_SameCalendarDay(t *testing.T) {
	morning := time.Date(2024, 3, 12, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2024, 3, 12, 20, 30, 0, 0, time.UTC)
	nextDay := time.Date(2024, 3, 13, 8, 0, 0, 0, time.UTC)

	a := Activity{Name: "Running", DurationMinutes: 30, Calories: 300, Timestamp: morning}
	b := Activity{Name: "Running", DurationMinutes: 30, Calories: 300, Timestamp: evening}
	c := Activity{Name: "Running", DurationMinutes: 30, Calories: 300, Timestamp: nextDay}

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
}
