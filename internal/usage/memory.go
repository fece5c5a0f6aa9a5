package usage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"anychat-backend/internal/models"
)

// MemoryStore keeps aggregates in process memory. It is the default local
// store when no database is configured.
type MemoryStore struct {
	mu     sync.RWMutex
	global models.UsageSnapshot
	byUser map[string]*models.UsageSnapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byUser: make(map[string]*models.UsageSnapshot)}
}

func (s *MemoryStore) Record(ctx context.Context, row *models.UsageRow) error {
	row.ID = uuid.New()
	row.CreatedAt = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byUser[row.UserID]
	if !ok {
		user = &models.UsageSnapshot{}
		s.byUser[row.UserID] = user
	}
	for _, snap := range []*models.UsageSnapshot{&s.global, user} {
		snap.TotalPromptTokens += row.PromptTokens
		snap.TotalCompletionTokens += row.CompletionTokens
		snap.TotalTokens += row.TotalTokens
		snap.RequestCount++
		snap.TotalCost += row.Cost
	}
	return nil
}

func (s *MemoryStore) Fetch(ctx context.Context, userID string) (*models.UsageSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if user, ok := s.byUser[userID]; ok {
		snap := *user
		return &snap, nil
	}
	return &models.UsageSnapshot{}, nil
}

func (s *MemoryStore) Global(ctx context.Context) (*models.UsageSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.global
	return &snap, nil
}

func (s *MemoryStore) PerUser(ctx context.Context) ([]models.UserUsage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]models.UserUsage, 0, len(s.byUser))
	for id, snap := range s.byUser {
		users = append(users, models.UserUsage{UserID: id, UsageSnapshot: *snap})
	}
	sort.Slice(users, func(i, j int) bool { return users[i].UserID < users[j].UserID })
	return users, nil
}
