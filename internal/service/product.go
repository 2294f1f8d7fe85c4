package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/gebeya/marketplace-api/internal/dto"
	"github.com/gebeya/marketplace-api/internal/exchange"
	"github.com/gebeya/marketplace-api/internal/model"
	"github.com/gebeya/marketplace-api/internal/repository"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrNotProductOwner  = errors.New("not the product owner")
	ErrInvalidCurrency  = errors.New("unsupported currency")
	ErrCategoryNotFound = errors.New("category not found")
	ErrCityNotFound     = errors.New("city not found")
)

const productCacheTTL = 60 * time.Second

// RateSource supplies exchange rates from the base currency. A rate of
// exactly 1.0 means "unavailable" and callers skip conversion.
type RateSource interface {
	FetchRate(ctx context.Context, target string) decimal.Decimal
}

type ProductService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	cityRepo     repository.CityRepository
	rates        RateSource
	redisClient  *redis.Client
}

func NewProductService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	cityRepo repository.CityRepository,
	rates RateSource,
	redisClient *redis.Client,
) *ProductService {
	return &ProductService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		cityRepo:     cityRepo,
		rates:        rates,
		redisClient:  redisClient,
	}
}

func (s *ProductService) Create(ctx context.Context, sellerID uuid.UUID, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	currency := req.Currency
	if currency == "" {
		currency = model.CurrencyETB
	}
	if !model.ValidCurrency(currency) {
		return nil, ErrInvalidCurrency
	}

	if req.CategoryID != nil {
		category, err := s.categoryRepo.GetByID(ctx, *req.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("get category: %w", err)
		}
		if category == nil {
			return nil, ErrCategoryNotFound
		}
	}
	if req.CityID != nil {
		city, err := s.cityRepo.GetByID(ctx, *req.CityID)
		if err != nil {
			return nil, fmt.Errorf("get city: %w", err)
		}
		if city == nil {
			return nil, ErrCityNotFound
		}
	}

	product := &model.Product{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Currency:    currency,
		CategoryID:  req.CategoryID,
		CityID:      req.CityID,
		OwnerID:     sellerID,
		SellerID:    sellerID,
		Status:      model.ProductStatusActive,
	}
	for _, img := range req.Images {
		product.Images = append(product.Images, model.ProductImage{URL: img.URL})
	}
	for _, v := range req.Variants {
		product.Variants = append(product.Variants, model.ProductVariant{
			Size: v.Size, Color: v.Color, Material: v.Material, Stock: v.Stock,
		})
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	resp := toProductResponse(product)
	return &resp, nil
}

func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID, targetCurrency string) (*dto.ProductResponse, error) {
	cacheKey := "product:" + id.String()

	if s.redisClient != nil {
		if cached, err := s.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			var resp dto.ProductResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				s.attachConvertedPrice(ctx, &resp, targetCurrency)
				return &resp, nil
			}
		}
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	resp := toProductResponse(product)

	if s.redisClient != nil {
		if data, err := json.Marshal(resp); err == nil {
			s.redisClient.Set(ctx, cacheKey, data, productCacheTTL)
		}
	}

	s.attachConvertedPrice(ctx, &resp, targetCurrency)
	return &resp, nil
}

func (s *ProductService) List(ctx context.Context, req dto.ListProductsRequest) (*dto.ProductListResponse, error) {
	f := repository.ProductFilter{
		Limit:    req.Limit,
		Offset:   (req.Page - 1) * req.Limit,
		Search:   req.Search,
		Category: req.Category,
		Sort:     req.Sort,
		Order:    req.Order,
	}
	if req.MinPrice != "" {
		min, err := decimal.NewFromString(req.MinPrice)
		if err != nil {
			return nil, fmt.Errorf("parse min_price: %w", err)
		}
		f.MinPrice = &min
	}
	if req.MaxPrice != "" {
		max, err := decimal.NewFromString(req.MaxPrice)
		if err != nil {
			return nil, fmt.Errorf("parse max_price: %w", err)
		}
		f.MaxPrice = &max
	}

	products, total, err := s.productRepo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	var items []dto.ProductResponse
	for i := range products {
		resp := toProductResponse(&products[i])
		s.attachConvertedPrice(ctx, &resp, req.Currency)
		items = append(items, resp)
	}
	return &dto.ProductListResponse{Products: items, Total: total, Page: req.Page, Limit: req.Limit}, nil
}

// ListMine returns the caller's listings: everything for admins, own
// listings for vendors, nothing for customers.
func (s *ProductService) ListMine(ctx context.Context, userID uuid.UUID, role string, page, limit int) (*dto.ProductListResponse, error) {
	f := repository.ProductFilter{Limit: limit, Offset: (page - 1) * limit}
	switch role {
	case model.RoleAdmin:
	case model.RoleVendor:
		f.SellerID = &userID
	default:
		return &dto.ProductListResponse{Products: nil, Total: 0, Page: page, Limit: limit}, nil
	}

	products, total, err := s.productRepo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	var items []dto.ProductResponse
	for i := range products {
		items = append(items, toProductResponse(&products[i]))
	}
	return &dto.ProductListResponse{Products: items, Total: total, Page: page, Limit: limit}, nil
}

// Update applies scalar changes and reconciles the image and variant
// collections against the submitted lists, all inside one transaction
// holding a row lock on the product.
func (s *ProductService) Update(ctx context.Context, id, callerID uuid.UUID, callerRole string, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	tx, err := s.productRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	product, err := s.productRepo.GetForUpdate(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("lock product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if product.OwnerID != callerID && callerRole != model.RoleAdmin {
		return nil, ErrNotProductOwner
	}

	if req.Title != nil {
		product.Title = *req.Title
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Currency != nil {
		if !model.ValidCurrency(*req.Currency) {
			return nil, ErrInvalidCurrency
		}
		product.Currency = *req.Currency
	}
	if req.CategoryID != nil {
		product.CategoryID = req.CategoryID
	}
	if req.CityID != nil {
		product.CityID = req.CityID
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, fmt.Errorf("invalid product status %q", *req.Status)
		}
		product.Status = *req.Status
	}

	if err := s.productRepo.Update(ctx, tx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	if req.Images != nil {
		if err := s.reconcileImages(ctx, tx, id, *req.Images); err != nil {
			return nil, err
		}
	}
	if req.Variants != nil {
		if err := s.reconcileVariants(ctx, tx, id, *req.Variants); err != nil {
			return nil, err
		}
	}

	if product.Images, err = s.productRepo.ListImages(ctx, tx, id); err != nil {
		return nil, err
	}
	if product.Variants, err = s.productRepo.ListVariants(ctx, tx, id); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	s.invalidateCache(ctx, id)
	resp := toProductResponse(product)
	return &resp, nil
}

// reconcileImages makes the persisted image set match the submitted list:
// submitted entries with a known id update that row, entries without one (or
// with an unknown id) become new rows, and persisted rows absent from the
// submission are deleted.
func (s *ProductService) reconcileImages(ctx context.Context, tx pgx.Tx, productID uuid.UUID, submitted []dto.ImageRequest) error {
	existing, err := s.productRepo.ListImages(ctx, tx, productID)
	if err != nil {
		return err
	}
	byID := make(map[uuid.UUID]model.ProductImage, len(existing))
	for _, img := range existing {
		byID[img.ID] = img
	}

	retained := make(map[uuid.UUID]bool, len(submitted))
	var created []model.ProductImage
	for _, sub := range submitted {
		if sub.ID != nil {
			if img, ok := byID[*sub.ID]; ok {
				img.URL = sub.URL
				if err := s.productRepo.UpdateImage(ctx, tx, &img); err != nil {
					return err
				}
				retained[img.ID] = true
				continue
			}
		}
		created = append(created, model.ProductImage{URL: sub.URL})
	}

	var stale []uuid.UUID
	for _, img := range existing {
		if !retained[img.ID] {
			stale = append(stale, img.ID)
		}
	}

	if err := s.productRepo.CreateImages(ctx, tx, productID, created); err != nil {
		return err
	}
	return s.productRepo.DeleteImages(ctx, tx, stale)
}

// reconcileVariants applies the same create-or-update-or-delete pass for
// product variants.
func (s *ProductService) reconcileVariants(ctx context.Context, tx pgx.Tx, productID uuid.UUID, submitted []dto.VariantRequest) error {
	existing, err := s.productRepo.ListVariants(ctx, tx, productID)
	if err != nil {
		return err
	}
	byID := make(map[uuid.UUID]model.ProductVariant, len(existing))
	for _, v := range existing {
		byID[v.ID] = v
	}

	retained := make(map[uuid.UUID]bool, len(submitted))
	var created []model.ProductVariant
	for _, sub := range submitted {
		if sub.ID != nil {
			if v, ok := byID[*sub.ID]; ok {
				v.Size = sub.Size
				v.Color = sub.Color
				v.Material = sub.Material
				v.Stock = sub.Stock
				if err := s.productRepo.UpdateVariant(ctx, tx, &v); err != nil {
					return err
				}
				retained[v.ID] = true
				continue
			}
		}
		created = append(created, model.ProductVariant{
			Size: sub.Size, Color: sub.Color, Material: sub.Material, Stock: sub.Stock,
		})
	}

	var stale []uuid.UUID
	for _, v := range existing {
		if !retained[v.ID] {
			stale = append(stale, v.ID)
		}
	}

	if err := s.productRepo.CreateVariants(ctx, tx, productID, created); err != nil {
		return err
	}
	return s.productRepo.DeleteVariants(ctx, tx, stale)
}

func (s *ProductService) Delete(ctx context.Context, id, callerID uuid.UUID, callerRole string) error {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return ErrProductNotFound
	}
	if product.OwnerID != callerID && callerRole != model.RoleAdmin {
		return ErrNotProductOwner
	}
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	s.invalidateCache(ctx, id)
	return nil
}

// ConvertPrice returns the product price expressed in the target currency.
// A sentinel rate of 1.0 means the rate source is unavailable, in which case
// the stored price is returned unchanged.
func (s *ProductService) ConvertPrice(ctx context.Context, product *model.Product, target string) decimal.Decimal {
	if target == "" || target == product.Currency {
		return product.Price
	}
	rate := s.rates.FetchRate(ctx, target)
	if exchange.Unavailable(rate) {
		return product.Price
	}
	return product.Price.Mul(rate).RoundBank(2)
}

// attachConvertedPrice adds the price expressed in the target currency.
// When the rate source is down it attaches nothing rather than relabel
// the stored amount with a currency it is not in.
func (s *ProductService) attachConvertedPrice(ctx context.Context, resp *dto.ProductResponse, target string) {
	if target == "" || target == resp.Currency || s.rates == nil {
		return
	}
	rate := s.rates.FetchRate(ctx, target)
	if exchange.Unavailable(rate) {
		return
	}
	resp.ConvertedPrice = &dto.ConvertedPrice{
		Amount:   resp.Price.Mul(rate).RoundBank(2),
		Currency: target,
	}
}

func (s *ProductService) invalidateCache(ctx context.Context, id uuid.UUID) {
	if s.redisClient != nil {
		s.redisClient.Del(ctx, "product:"+id.String())
	}
}

func toProductResponse(p *model.Product) dto.ProductResponse {
	images := make([]dto.ImageResponse, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, dto.ImageResponse{ID: img.ID, URL: img.URL})
	}
	variants := make([]dto.VariantResponse, 0, len(p.Variants))
	for _, v := range p.Variants {
		variants = append(variants, dto.VariantResponse{
			ID: v.ID, Size: v.Size, Color: v.Color, Material: v.Material, Stock: v.Stock,
		})
	}
	return dto.ProductResponse{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price,
		Currency:    p.Currency,
		CategoryID:  p.CategoryID,
		CityID:      p.CityID,
		SellerID:    p.SellerID,
		Status:      p.Status,
		Images:      images,
		Variants:    variants,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
