package adaptation

import (
	"context"
	"errors"
	"sync"

	"sense-adaptive-core/internal/models"
)

// ErrProfileNotFound is returned by a ProfileStore for unknown users.
var ErrProfileNotFound = errors.New("profile not found")

// ProfileStore persists neurodiversity profiles per user.
type ProfileStore interface {
	Get(ctx context.Context, userID string) (models.NeurodiversityProfile, error)
	Put(ctx context.Context, userID string, p models.NeurodiversityProfile) error
}

// MemoryProfileStore is an in-process ProfileStore.
type MemoryProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]models.NeurodiversityProfile
}

// NewMemoryProfileStore creates an empty store.
func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{profiles: make(map[string]models.NeurodiversityProfile)}
}

func (s *MemoryProfileStore) Get(_ context.Context, userID string) (models.NeurodiversityProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return models.NeurodiversityProfile{}, ErrProfileNotFound
	}
	return p, nil
}

func (s *MemoryProfileStore) Put(_ context.Context, userID string, p models.NeurodiversityProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[userID] = p
	return nil
}
