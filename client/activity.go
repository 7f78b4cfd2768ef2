package client

import "time"

type SyncState string

const (
	// SyncStateLocalOnly - logged locally, no persist attempt made yet
	SyncStateLocalOnly SyncState = "local-only"
	// SyncStatePendingSync - persist attempt in flight
	SyncStatePendingSync SyncState = "pending-sync"
	// SyncStateSynced - confirmed by the backend
	SyncStateSynced SyncState = "synced"
	// SyncStateSyncFailed - the single persist attempt failed, the
	// activity stays local, there are no retries
	SyncStateSyncFailed SyncState = "sync-failed"
)

// Activity is a locally tracked exercise session. It mirrors a backend
// workout, but lives in the local store until (and even if) the backend
// confirms it.
type Activity struct {
	ID              string    `json:"id"`
	UserID          int       `json:"userId"`
	Name            string    `json:"name"`
	Calories        int       `json:"calories"`
	DurationMinutes int       `json:"duration"`
	Timestamp       time.Time `json:"timestamp"`
	SyncState       SyncState `json:"syncState"`
}

// Key identifies an activity for reconciliation against backend
// workouts. Two records logged with the same name, duration and
// calories on the same calendar day count as one.
func (a Activity) Key() string {
	return activityKey(a.Name, a.DurationMinutes, a.Calories, a.Timestamp)
}
