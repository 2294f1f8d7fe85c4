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

type CityRepository interface {
	Create(ctx context.Context, city *model.City) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.City, error)
	List(ctx context.Context, name, region string) ([]model.City, error)
	Update(ctx context.Context, city *model.City) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type pgCityRepo struct{ pool *pgxpool.Pool }

func NewCityRepository(pool *pgxpool.Pool) CityRepository {
	return &pgCityRepo{pool: pool}
}

func (r *pgCityRepo) Create(ctx context.Context, city *model.City) error {
	city.ID = uuid.New()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO cities (id, name, region) VALUES ($1, $2, $3)`,
		city.ID, city.Name, city.Region,
	)
	if err != nil {
		return fmt.Errorf("create city: %w", err)
	}
	return nil
}

func (r *pgCityRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.City, error) {
	city := &model.City{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, region FROM cities WHERE id = $1`, id,
	).Scan(&city.ID, &city.Name, &city.Region)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get city: %w", err)
	}
	return city, nil
}

func (r *pgCityRepo) List(ctx context.Context, name, region string) ([]model.City, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, region FROM cities
		 WHERE ($1 = '' OR name ILIKE $1) AND ($2 = '' OR region ILIKE $2)
		 ORDER BY name`,
		name, region,
	)
	if err != nil {
		return nil, fmt.Errorf("list cities: %w", err)
	}
	defer rows.Close()

	var cities []model.City
	for rows.Next() {
		var c model.City
		if err := rows.Scan(&c.ID, &c.Name, &c.Region); err != nil {
			return nil, fmt.Errorf("scan city: %w", err)
		}
		cities = append(cities, c)
	}
	return cities, nil
}

func (r *pgCityRepo) Update(ctx context.Context, city *model.City) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE cities SET name = $2, region = $3 WHERE id = $1`,
		city.ID, city.Name, city.Region,
	)
	if err != nil {
		return fmt.Errorf("update city: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgCityRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM cities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete city: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
