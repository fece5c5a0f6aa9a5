package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"anychat-backend/internal/models"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Create(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (user_id, alias) VALUES ($1, $2) RETURNING created_at`

	return r.pool.QueryRow(ctx, query, user.UserID, user.Alias).Scan(&user.CreatedAt)
}

func (r *UserRepo) GetByID(ctx context.Context, userID string) (*models.User, error) {
	user := &models.User{}
	query := `SELECT user_id, alias, created_at FROM users WHERE user_id = $1`

	err := r.pool.QueryRow(ctx, query, userID).Scan(&user.UserID, &user.Alias, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func (r *UserRepo) List(ctx context.Context) ([]models.User, error) {
	query := `SELECT user_id, alias, created_at FROM users ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.UserID, &u.Alias, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
