package leaderboard

import (
	"context"
	"sync"
)

var _ leaderboardRepo = (*repoMock)(nil)

type repoMock struct {
	Entries []Entry
	Err     error
	mutex   sync.Mutex
}

func NewRepoMock() *repoMock {
	return &repoMock{}
}

func (r *repoMock) Global(_ context.Context) ([]Entry, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.Err != nil {
		return nil, r.Err
	}

	entries := make([]Entry, len(r.Entries))
	copy(entries, r.Entries)
	return AssignRanks(entries), nil
}
