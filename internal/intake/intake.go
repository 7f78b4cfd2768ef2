package intake

import (
	"errors"
	"time"
)

var ErrIntakeNotFound = errors.New("intake entry not found")

// Intake is one logged food entry.
type Intake struct {
	ID        int       `json:"id"`
	UserID    int       `json:"userId"`
	Name      string    `json:"name"`
	Calories  int       `json:"calories"`
	Protein   int       `json:"protein"`
	Timestamp time.Time `json:"timestamp"`
}
