package usage

import (
	"context"

	"anychat-backend/internal/models"
	"anychat-backend/internal/repository"
)

// PostgresStore persists usage rows through the pgx repository so aggregates
// survive restarts.
type PostgresStore struct {
	repo *repository.UsageRepo
}

func NewPostgresStore(repo *repository.UsageRepo) *PostgresStore {
	return &PostgresStore{repo: repo}
}

func (s *PostgresStore) Record(ctx context.Context, row *models.UsageRow) error {
	return s.repo.Insert(ctx, row)
}

func (s *PostgresStore) Fetch(ctx context.Context, userID string) (*models.UsageSnapshot, error) {
	return s.repo.SumByUser(ctx, userID)
}

func (s *PostgresStore) Global(ctx context.Context) (*models.UsageSnapshot, error) {
	return s.repo.SumAll(ctx)
}

func (s *PostgresStore) PerUser(ctx context.Context) ([]models.UserUsage, error) {
	return s.repo.SumPerUser(ctx)
}
