package workouts

import (
	"context"
	"sort"
	"sync"
)

var _ workoutsRepo = (*repoMock)(nil)

type repoMock struct {
	Workouts map[int]Workout
	nextID   int
	mutex    sync.Mutex
}

func NewRepoMock() *repoMock {
	return &repoMock{
		Workouts: map[int]Workout{},
		nextID:   1,
	}
}

func (r *repoMock) Add(_ context.Context, workout Workout) (*Workout, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	workout.ID = r.nextID
	r.nextID++
	r.Workouts[workout.ID] = workout
	return &workout, nil
}

func (r *repoMock) ListForUser(_ context.Context, userID int) ([]Workout, error) {
	return r.listForUser(userID, -1), nil
}

func (r *repoMock) ListRecentForUser(_ context.Context, userID, limit int) ([]Workout, error) {
	return r.listForUser(userID, limit), nil
}

func (r *repoMock) listForUser(userID, limit int) []Workout {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	workouts := make([]Workout, 0)
	for _, w := range r.Workouts {
		if w.UserID == userID {
			workouts = append(workouts, w)
		}
	}

	sort.Slice(workouts, func(i, j int) bool {
		return workouts[i].Date.After(workouts[j].Date)
	})

	if limit >= 0 && len(workouts) > limit {
		workouts = workouts[:limit]
	}

	return workouts
}
