package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/gebeya/marketplace-api/internal/model"
)

type ProductFilter struct {
	Limit    int
	Offset   int
	Search   string
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     string
	Order    string
	SellerID *uuid.UUID
}

type ProductRepository interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context, f ProductFilter) ([]model.Product, int, error)
	Update(ctx context.Context, tx pgx.Tx, product *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error

	ListImages(ctx context.Context, tx pgx.Tx, productID uuid.UUID) ([]model.ProductImage, error)
	UpdateImage(ctx context.Context, tx pgx.Tx, image *model.ProductImage) error
	CreateImages(ctx context.Context, tx pgx.Tx, productID uuid.UUID, images []model.ProductImage) error
	DeleteImages(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) error

	ListVariants(ctx context.Context, tx pgx.Tx, productID uuid.UUID) ([]model.ProductVariant, error)
	UpdateVariant(ctx context.Context, tx pgx.Tx, variant *model.ProductVariant) error
	CreateVariants(ctx context.Context, tx pgx.Tx, productID uuid.UUID, variants []model.ProductVariant) error
	DeleteVariants(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) error
}

type pgProductRepo struct{ pool *pgxpool.Pool }

func NewProductRepository(pool *pgxpool.Pool) ProductRepository {
	return &pgProductRepo{pool: pool}
}

func (r *pgProductRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func (r *pgProductRepo) Create(ctx context.Context, product *model.Product) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	product.ID = uuid.New()
	err = tx.QueryRow(ctx,
		`INSERT INTO products (id, title, description, price, currency, category_id, city_id, owner_id, seller_id, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		 RETURNING created_at, updated_at`,
		product.ID, product.Title, product.Description, product.Price, product.Currency,
		product.CategoryID, product.CityID, product.OwnerID, product.SellerID, product.Status,
	).Scan(&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	if err := r.CreateImages(ctx, tx, product.ID, product.Images); err != nil {
		return err
	}
	if err := r.CreateVariants(ctx, tx, product.ID, product.Variants); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *pgProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p := &model.Product{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, description, price, currency, category_id, city_id, owner_id, seller_id, status, created_at, updated_at
		 FROM products WHERE id = $1`, id,
	).Scan(
		&p.ID, &p.Title, &p.Description, &p.Price, &p.Currency,
		&p.CategoryID, &p.CityID, &p.OwnerID, &p.SellerID, &p.Status,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	if p.Images, err = r.ListImages(ctx, nil, id); err != nil {
		return nil, err
	}
	if p.Variants, err = r.ListVariants(ctx, nil, id); err != nil {
		return nil, err
	}
	return p, nil
}

// GetForUpdate loads a product row under a row-level lock so that a
// reconciliation's read-modify-delete sequence is serialized per product.
func (r *pgProductRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Product, error) {
	p := &model.Product{}
	err := tx.QueryRow(ctx,
		`SELECT id, title, description, price, currency, category_id, city_id, owner_id, seller_id, status, created_at, updated_at
		 FROM products WHERE id = $1 FOR UPDATE`, id,
	).Scan(
		&p.ID, &p.Title, &p.Description, &p.Price, &p.Currency,
		&p.CategoryID, &p.CityID, &p.OwnerID, &p.SellerID, &p.Status,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock product: %w", err)
	}
	return p, nil
}

func (r *pgProductRepo) List(ctx context.Context, f ProductFilter) ([]model.Product, int, error) {
	allowedSorts := map[string]bool{"title": true, "price": true, "created_at": true}
	if !allowedSorts[f.Sort] {
		f.Sort = "created_at"
	}
	if f.Order != "asc" && f.Order != "desc" {
		f.Order = "desc"
	}

	where := `WHERE ($1 = '' OR p.title ILIKE '%' || $1 || '%' OR p.description ILIKE '%' || $1 || '%')
		AND ($2 = '' OR c.name ILIKE $2)
		AND ($3::numeric IS NULL OR p.price >= $3)
		AND ($4::numeric IS NULL OR p.price <= $4)
		AND ($5::uuid IS NULL OR p.seller_id = $5)`
	args := []any{f.Search, f.Category, f.MinPrice, f.MaxPrice, f.SellerID}

	var total int
	countQ := `SELECT COUNT(*) FROM products p LEFT JOIN categories c ON p.category_id = c.id ` + where
	if err := r.pool.QueryRow(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := fmt.Sprintf(`SELECT p.id, p.title, p.description, p.price, p.currency, p.category_id, p.city_id, p.owner_id, p.seller_id, p.status, p.created_at, p.updated_at
		FROM products p LEFT JOIN categories c ON p.category_id = c.id
		%s ORDER BY p.%s %s LIMIT $6 OFFSET $7`, where, f.Sort, f.Order)

	rows, err := r.pool.Query(ctx, query, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(
			&p.ID, &p.Title, &p.Description, &p.Price, &p.Currency,
			&p.CategoryID, &p.CityID, &p.OwnerID, &p.SellerID, &p.Status,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, total, nil
}

func (r *pgProductRepo) Update(ctx context.Context, tx pgx.Tx, product *model.Product) error {
	err := tx.QueryRow(ctx,
		`UPDATE products SET title=$2, description=$3, price=$4, currency=$5, category_id=$6, city_id=$7, status=$8, updated_at=NOW()
		 WHERE id=$1 RETURNING updated_at`,
		product.ID, product.Title, product.Description, product.Price, product.Currency,
		product.CategoryID, product.CityID, product.Status,
	).Scan(&product.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

func (r *pgProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgProductRepo) ListImages(ctx context.Context, tx pgx.Tx, productID uuid.UUID) ([]model.ProductImage, error) {
	q := `SELECT id, product_id, url, created_at FROM product_images WHERE product_id = $1 ORDER BY created_at`
	var rows pgx.Rows
	var err error
	if tx != nil {
		rows, err = tx.Query(ctx, q, productID)
	} else {
		rows, err = r.pool.Query(ctx, q, productID)
	}
	if err != nil {
		return nil, fmt.Errorf("list product images: %w", err)
	}
	defer rows.Close()

	var images []model.ProductImage
	for rows.Next() {
		var img model.ProductImage
		if err := rows.Scan(&img.ID, &img.ProductID, &img.URL, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product image: %w", err)
		}
		images = append(images, img)
	}
	return images, nil
}

func (r *pgProductRepo) UpdateImage(ctx context.Context, tx pgx.Tx, image *model.ProductImage) error {
	_, err := tx.Exec(ctx,
		`UPDATE product_images SET url = $2 WHERE id = $1`,
		image.ID, image.URL,
	)
	if err != nil {
		return fmt.Errorf("update product image: %w", err)
	}
	return nil
}

func (r *pgProductRepo) CreateImages(ctx context.Context, tx pgx.Tx, productID uuid.UUID, images []model.ProductImage) error {
	for i := range images {
		images[i].ID = uuid.New()
		images[i].ProductID = productID
		_, err := tx.Exec(ctx,
			`INSERT INTO product_images (id, product_id, url, created_at) VALUES ($1, $2, $3, NOW())`,
			images[i].ID, productID, images[i].URL,
		)
		if err != nil {
			return fmt.Errorf("insert product image: %w", err)
		}
	}
	return nil
}

func (r *pgProductRepo) DeleteImages(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `DELETE FROM product_images WHERE id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("delete product images: %w", err)
	}
	return nil
}

func (r *pgProductRepo) ListVariants(ctx context.Context, tx pgx.Tx, productID uuid.UUID) ([]model.ProductVariant, error) {
	q := `SELECT id, product_id, size, color, material, stock FROM product_variants WHERE product_id = $1 ORDER BY id`
	var rows pgx.Rows
	var err error
	if tx != nil {
		rows, err = tx.Query(ctx, q, productID)
	} else {
		rows, err = r.pool.Query(ctx, q, productID)
	}
	if err != nil {
		return nil, fmt.Errorf("list product variants: %w", err)
	}
	defer rows.Close()

	var variants []model.ProductVariant
	for rows.Next() {
		var v model.ProductVariant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Size, &v.Color, &v.Material, &v.Stock); err != nil {
			return nil, fmt.Errorf("scan product variant: %w", err)
		}
		variants = append(variants, v)
	}
	return variants, nil
}

func (r *pgProductRepo) UpdateVariant(ctx context.Context, tx pgx.Tx, variant *model.ProductVariant) error {
	_, err := tx.Exec(ctx,
		`UPDATE product_variants SET size = $2, color = $3, material = $4, stock = $5 WHERE id = $1`,
		variant.ID, variant.Size, variant.Color, variant.Material, variant.Stock,
	)
	if err != nil {
		return fmt.Errorf("update product variant: %w", err)
	}
	return nil
}

func (r *pgProductRepo) CreateVariants(ctx context.Context, tx pgx.Tx, productID uuid.UUID, variants []model.ProductVariant) error {
	for i := range variants {
		variants[i].ID = uuid.New()
		variants[i].ProductID = productID
		_, err := tx.Exec(ctx,
			`INSERT INTO product_variants (id, product_id, size, color, material, stock) VALUES ($1, $2, $3, $4, $5, $6)`,
			variants[i].ID, productID, variants[i].Size, variants[i].Color, variants[i].Material, variants[i].Stock,
		)
		if err != nil {
			return fmt.Errorf("insert product variant: %w", err)
		}
	}
	return nil
}

func (r *pgProductRepo) DeleteVariants(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `DELETE FROM product_variants WHERE id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("delete product variants: %w", err)
	}
	return nil
}
