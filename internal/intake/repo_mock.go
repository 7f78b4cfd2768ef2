package intake

import (
	"context"
	"sort"
	"sync"
)

var _ intakeRepo = (*repoMock)(nil)

type repoMock struct {
	Entries map[int]Intake
	nextID  int
	mutex   sync.Mutex
}

func NewRepoMock() *repoMock {
	return &repoMock{
		Entries: map[int]Intake{},
		nextID:  1,
	}
}

func (r *repoMock) Add(_ context.Context, entry Intake) (*Intake, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	entry.ID = r.nextID
	r.nextID++
	r.Entries[entry.ID] = entry
	return &entry, nil
}

func (r *repoMock) ListForUser(_ context.Context, userID int, params ListParams) ([]Intake, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	entries := make([]Intake, 0)
	for _, e := range r.Entries {
		if e.UserID != userID {
			continue
		}
		if params.From != nil && e.Timestamp.Before(*params.From) {
			continue
		}
		if params.To != nil && e.Timestamp.After(*params.To) {
			continue
		}
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})

	return entries, nil
}

func (r *repoMock) Get(_ context.Context, id int) (*Intake, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	entry, ok := r.Entries[id]
	if !ok {
		return nil, ErrIntakeNotFound
	}
	return &entry, nil
}

func (r *repoMock) Delete(_ context.Context, id int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.Entries[id]; !ok {
		return ErrIntakeNotFound
	}
	delete(r.Entries, id)
	return nil
}
