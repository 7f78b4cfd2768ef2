package leaderboard

// Entry is a per-user rollup of logged workouts. Entries are computed on
// every read from the workout and user tables, nothing is persisted.
type Entry struct {
	UserID        int    `json:"userId"`
	Name          string `json:"name"`
	AvatarURL     string `json:"avatarUrl"`
	TotalCalories int    `json:"totalCalories"`
	WorkoutsCount int    `json:"workoutsCount"`
	Rank          int    `json:"rank"`
}

// AssignRanks sets 1-based ranks on entries already sorted by total
// calories descending. Ties keep their sort order, so ranks stay a
// strictly increasing sequence.
func AssignRanks(entries []Entry) []Entry {
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
