package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gebeya/marketplace-api/internal/model"
)

type FavoriteRepository interface {
	Create(ctx context.Context, favorite *model.Favorite) error
	Exists(ctx context.Context, userID, productID uuid.UUID) (bool, error)
	Delete(ctx context.Context, userID, productID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Favorite, error)
}

type pgFavoriteRepo struct{ pool *pgxpool.Pool }

func NewFavoriteRepository(pool *pgxpool.Pool) FavoriteRepository {
	return &pgFavoriteRepo{pool: pool}
}

func (r *pgFavoriteRepo) Create(ctx context.Context, favorite *model.Favorite) error {
	favorite.ID = uuid.New()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO favorites (id, user_id, product_id, created_at) VALUES ($1, $2, $3, NOW()) RETURNING created_at`,
		favorite.ID, favorite.UserID, favorite.ProductID,
	).Scan(&favorite.CreatedAt)
	if err != nil {
		return fmt.Errorf("create favorite: %w", err)
	}
	return nil
}

func (r *pgFavoriteRepo) Exists(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM favorites WHERE user_id = $1 AND product_id = $2)`,
		userID, productID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check favorite: %w", err)
	}
	return exists, nil
}

func (r *pgFavoriteRepo) Delete(ctx context.Context, userID, productID uuid.UUID) error {
	ct, err := r.pool.Exec(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND product_id = $2`, userID, productID,
	)
	if err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgFavoriteRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Favorite, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, product_id, created_at FROM favorites WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	var favorites []model.Favorite
	for rows.Next() {
		var f model.Favorite
		if err := rows.Scan(&f.ID, &f.UserID, &f.ProductID, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		favorites = append(favorites, f)
	}
	return favorites, nil
}
