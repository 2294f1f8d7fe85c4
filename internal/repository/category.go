package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gebeya/marketplace-api/internal/model"
)

type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Category, error)
	List(ctx context.Context) ([]model.Category, error)
	Update(ctx context.Context, category *model.Category) error
	BulkRename(ctx context.Context, ids []uuid.UUID, name string) (int64, error)
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error)
}

type pgCategoryRepo struct{ pool *pgxpool.Pool }

func NewCategoryRepository(pool *pgxpool.Pool) CategoryRepository {
	return &pgCategoryRepo{pool: pool}
}

func (r *pgCategoryRepo) Create(ctx context.Context, category *model.Category) error {
	category.ID = uuid.New()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO categories (id, name, parent_id, created_at) VALUES ($1, $2, $3, NOW()) RETURNING created_at`,
		category.ID, category.Name, category.ParentID,
	).Scan(&category.CreatedAt)
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (r *pgCategoryRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	category := &model.Category{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, parent_id, created_at FROM categories WHERE id = $1`, id,
	).Scan(&category.ID, &category.Name, &category.ParentID, &category.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return category, nil
}

func (r *pgCategoryRepo) List(ctx context.Context) ([]model.Category, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, parent_id, created_at FROM categories ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.ParentID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, nil
}

func (r *pgCategoryRepo) Update(ctx context.Context, category *model.Category) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE categories SET name = $2, parent_id = $3 WHERE id = $1`,
		category.ID, category.Name, category.ParentID,
	)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgCategoryRepo) BulkRename(ctx context.Context, ids []uuid.UUID, name string) (int64, error) {
	ct, err := r.pool.Exec(ctx,
		`UPDATE categories SET name = $2 WHERE id = ANY($1)`, ids, name,
	)
	if err != nil {
		return 0, fmt.Errorf("bulk rename categories: %w", err)
	}
	return ct.RowsAffected(), nil
}

func (r *pgCategoryRepo) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	ct, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("delete categories: %w", err)
	}
	return ct.RowsAffected(), nil
}
