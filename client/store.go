package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store keeps activities per user between app runs.
type Store interface {
	Load(ctx context.Context, userID int) ([]Activity, error)
	Save(ctx context.Context, userID int, activities []Activity) error
	Clear(ctx context.Context, userID int) error
}

type FileStore struct {
	dir   string
	mutex sync.Mutex
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(userID int) string {
	return filepath.Join(s.dir, fmt.Sprintf("burnmate-activities-%d.json", userID))
}

func (s *FileStore) Load(_ context.Context, userID int) ([]Activity, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	data, err := os.ReadFile(s.path(userID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Activity{}, nil
		}
		return nil, fmt.Errorf("read activities file: %w", err)
	}

	var activities []Activity
	if err := json.Unmarshal(data, &activities); err != nil {
		return nil, fmt.Errorf("unmarshal activities: %w", err)
	}
	return activities, nil
}

func (s *FileStore) Save(_ context.Context, userID int, activities []Activity) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	data, err := json.Marshal(activities)
	if err != nil {
		return fmt.Errorf("marshal activities: %w", err)
	}
	if err := os.WriteFile(s.path(userID), data, 0o644); err != nil {
		return fmt.Errorf("write activities file: %w", err)
	}
	return nil
}

func (s *FileStore) Clear(_ context.Context, userID int) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := os.Remove(s.path(userID)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove activities file: %w", err)
	}
	return nil
}

type MemoryStore struct {
	activities map[int][]Activity
	mutex      sync.Mutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		activities: map[int][]Activity{},
	}
}

func (s *MemoryStore) Load(_ context.Context, userID int) ([]Activity, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	activities := make([]Activity, len(s.activities[userID]))
	copy(activities, s.activities[userID])
	return activities, nil
}

func (s *MemoryStore) Save(_ context.Context, userID int, activities []Activity) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	stored := make([]Activity, len(activities))
	copy(stored, activities)
	s.activities[userID] = stored
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, userID int) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.activities, userID)
	return nil
}
