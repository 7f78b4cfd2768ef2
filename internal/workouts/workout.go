package workouts

import "time"

// Workout is a completed exercise session. Workouts are immutable once
// logged, there is no update endpoint.
type Workout struct {
	ID              int       `json:"id"`
	UserID          int       `json:"userId"`
	Type            string    `json:"type"`
	DurationMinutes int       `json:"duration"`
	CaloriesBurned  int       `json:"caloriesBurned"`
	Date            time.Time `json:"date"`
}
