package client

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type workoutsApi interface {
	AddWorkout(ctx context.Context, req AddWorkoutRequest) (*Workout, error)
	ListWorkouts(ctx context.Context, userID int) ([]Workout, error)
}

// Summary is the merged view of backend workouts and local activities.
// Totals count every backend workout plus the local activities the
// backend does not know about, so nothing is counted twice.
type Summary struct {
	Activities    []Activity
	Unsynced      []Activity
	TotalCalories int
	TotalDuration int
	TotalWorkouts int
	DailyTotal    int
	Streak        int
}

type AddActivityParams struct {
	Name            string
	Calories        int
	DurationMinutes int
}

// Reconciler merges locally logged activities with backend workouts.
// Adds are optimistic: the activity lands in the local store first, then
// a single persist attempt is made. A failed attempt leaves the activity
// local, it still shows up in totals and streaks.
type Reconciler struct {
	api     workoutsApi
	store   Store
	nowFunc func() time.Time
}

func NewReconciler(api workoutsApi, store Store) *Reconciler {
	return &Reconciler{
		api:     api,
		store:   store,
		nowFunc: time.Now,
	}
}

func (r *Reconciler) AddActivity(ctx context.Context, userID int, params AddActivityParams) (*Activity, error) {
	if params.Name == "" {
		return nil, fmt.Errorf("activity name empty")
	}

	activity := Activity{
		ID:              uuid.NewString(),
		UserID:          userID,
		Name:            params.Name,
		Calories:        params.Calories,
		DurationMinutes: params.DurationMinutes,
		Timestamp:       r.nowFunc(),
		SyncState:       SyncStatePendingSync,
	}

	activities, err := r.store.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load activities: %w", err)
	}
	activities = append([]Activity{activity}, activities...)
	if err := r.store.Save(ctx, userID, activities); err != nil {
		return nil, fmt.Errorf("save activities: %w", err)
	}

	// single persist attempt, the failure is logged and swallowed
	if _, err := r.api.AddWorkout(ctx, AddWorkoutRequest{
		Type:           activity.Name,
		Duration:       activity.DurationMinutes,
		CaloriesBurned: activity.Calories,
		Date:           activity.Timestamp,
	}); err != nil {
		log.Errorf("failed to persist activity [%s] to backend: %s", activity.Name, err)
		activity.SyncState = SyncStateSyncFailed
	} else {
		activity.SyncState = SyncStateSynced
	}

	activities[0] = activity
	if err := r.store.Save(ctx, userID, activities); err != nil {
		return nil, fmt.Errorf("save activities: %w", err)
	}

	return &activity, nil
}

// Reconcile fetches backend workouts, marks which local activities the
// backend already has, and computes the merged totals and streak.
func (r *Reconciler) Reconcile(ctx context.Context, userID int) (*Summary, error) {
	activities, err := r.store.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load activities: %w", err)
	}

	workouts, err := r.api.ListWorkouts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}

	workoutKeys := make(map[string]struct{}, len(workouts))
	for _, w := range workouts {
		workoutKeys[activityKey(w.Type, w.Duration, w.CaloriesBurned, w.Date)] = struct{}{}
	}

	var unsynced []Activity
	for i := range activities {
		if _, ok := workoutKeys[activities[i].Key()]; ok {
			activities[i].SyncState = SyncStateSynced
			continue
		}
		if activities[i].SyncState != SyncStateSyncFailed {
			activities[i].SyncState = SyncStateLocalOnly
		}
		unsynced = append(unsynced, activities[i])
	}

	if err := r.store.Save(ctx, userID, activities); err != nil {
		return nil, fmt.Errorf("save activities: %w", err)
	}

	SortByTimestampDesc(activities)
	summary := &Summary{
		Activities:    activities,
		Unsynced:      unsynced,
		TotalWorkouts: len(workouts) + len(unsynced),
	}

	today := dayOf(r.nowFunc())
	activityDays := make(map[string]struct{})
	for _, w := range workouts {
		summary.TotalCalories += w.CaloriesBurned
		summary.TotalDuration += w.Duration
		activityDays[dayOf(w.Date)] = struct{}{}
		if dayOf(w.Date) == today {
			summary.DailyTotal += w.CaloriesBurned
		}
	}
	for _, a := range unsynced {
		summary.TotalCalories += a.Calories
		summary.TotalDuration += a.DurationMinutes
		activityDays[dayOf(a.Timestamp)] = struct{}{}
		if dayOf(a.Timestamp) == today {
			summary.DailyTotal += a.Calories
		}
	}

	summary.Streak = streakFrom(r.nowFunc(), activityDays)

	return summary, nil
}

// streakFrom walks back one day at a time starting from today, counting
// consecutive days with at least one activity. A day with no activity
// stops the count, so no activity today means a streak of zero.
func streakFrom(now time.Time, activityDays map[string]struct{}) int {
	streak := 0
	day := now
	for {
		if _, ok := activityDays[dayOf(day)]; !ok {
			return streak
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
}

func activityKey(name string, duration, calories int, t time.Time) string {
	return fmt.Sprintf("%s|%d|%d|%s", name, duration, calories, dayOf(t))
}

func dayOf(t time.Time) string {
	return t.Format("2006-01-02")
}

// SortByTimestampDesc orders activities newest first, in place.
func SortByTimestampDesc(activities []Activity) {
	sort.Slice(activities, func(i, j int) bool {
		return activities[i].Timestamp.After(activities[j].Timestamp)
	})
}
