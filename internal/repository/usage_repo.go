package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"anychat-backend/internal/models"
)

type UsageRepo struct {
	pool *pgxpool.Pool
}

func NewUsageRepo(pool *pgxpool.Pool) *UsageRepo {
	return &UsageRepo{pool: pool}
}

func (r *UsageRepo) Insert(ctx context.Context, row *models.UsageRow) error {
	row.ID = uuid.New()

	query := `INSERT INTO usage_records (id, user_id, provider, model, prompt_tokens, completion_tokens, total_tokens, cost)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		row.ID, row.UserID, row.Provider, row.Model,
		row.PromptTokens, row.CompletionTokens, row.TotalTokens, row.Cost,
	).Scan(&row.CreatedAt)
}

func (r *UsageRepo) SumByUser(ctx context.Context, userID string) (*models.UsageSnapshot, error) {
	s := &models.UsageSnapshot{}
	query := `SELECT COALESCE(SUM(prompt_tokens), 0), COALESCE(SUM(completion_tokens), 0),
			COALESCE(SUM(total_tokens), 0), COUNT(*), COALESCE(SUM(cost), 0)
		FROM usage_records WHERE user_id = $1`

	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&s.TotalPromptTokens, &s.TotalCompletionTokens, &s.TotalTokens,
		&s.RequestCount, &s.TotalCost,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *UsageRepo) SumAll(ctx context.Context) (*models.UsageSnapshot, error) {
	s := &models.UsageSnapshot{}
	query := `SELECT COALESCE(SUM(prompt_tokens), 0), COALESCE(SUM(completion_tokens), 0),
			COALESCE(SUM(total_tokens), 0), COUNT(*), COALESCE(SUM(cost), 0)
		FROM usage_records`

	err := r.pool.QueryRow(ctx, query).Scan(
		&s.TotalPromptTokens, &s.TotalCompletionTokens, &s.TotalTokens,
		&s.RequestCount, &s.TotalCost,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *UsageRepo) SumPerUser(ctx context.Context) ([]models.UserUsage, error) {
	query := `SELECT user_id, COALESCE(SUM(prompt_tokens), 0), COALESCE(SUM(completion_tokens), 0),
			COALESCE(SUM(total_tokens), 0), COUNT(*), COALESCE(SUM(cost), 0)
		FROM usage_records GROUP BY user_id ORDER BY user_id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.UserUsage{}
	for rows.Next() {
		var u models.UserUsage
		err := rows.Scan(
			&u.UserID, &u.TotalPromptTokens, &u.TotalCompletionTokens,
			&u.TotalTokens, &u.RequestCount, &u.TotalCost,
		)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
