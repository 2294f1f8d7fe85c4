package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/gebeya/marketplace-api/internal/dto"
	"github.com/gebeya/marketplace-api/internal/model"
	"github.com/gebeya/marketplace-api/internal/repository"
)

var ErrNoCategoriesMatched = errors.New("no matching categories")

const categoryCacheKey = "categories"
const categoryCacheTTL = 5 * time.Minute

// CatalogService manages the category tree and the city list.
type CatalogService struct {
	categoryRepo repository.CategoryRepository
	cityRepo     repository.CityRepository
	redisClient  *redis.Client
}

func NewCatalogService(categoryRepo repository.CategoryRepository, cityRepo repository.CityRepository, redisClient *redis.Client) *CatalogService {
	return &CatalogService{categoryRepo: categoryRepo, cityRepo: cityRepo, redisClient: redisClient}
}

func (s *CatalogService) CreateCategory(ctx context.Context, req dto.CreateCategoryRequest) (*model.Category, error) {
	if req.ParentID != nil {
		parent, err := s.categoryRepo.GetByID(ctx, *req.ParentID)
		if err != nil {
			return nil, fmt.Errorf("get parent category: %w", err)
		}
		if parent == nil {
			return nil, ErrCategoryNotFound
		}
	}

	category := &model.Category{Name: req.Name, ParentID: req.ParentID}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	s.invalidateCategoryCache(ctx)
	return category, nil
}

// CategoryTree returns all categories assembled into their parent/child
// hierarchy, cached as a whole.
func (s *CatalogService) CategoryTree(ctx context.Context) ([]dto.CategoryResponse, error) {
	if s.redisClient != nil {
		if cached, err := s.redisClient.Get(ctx, categoryCacheKey).Result(); err == nil {
			var tree []dto.CategoryResponse
			if json.Unmarshal([]byte(cached), &tree) == nil {
				return tree, nil
			}
		}
	}

	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	tree := buildCategoryTree(categories)

	if s.redisClient != nil {
		if data, err := json.Marshal(tree); err == nil {
			s.redisClient.Set(ctx, categoryCacheKey, data, categoryCacheTTL)
		}
	}
	return tree, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id uuid.UUID, req dto.UpdateCategoryRequest) (*model.Category, error) {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}

	if req.Name != nil {
		category.Name = *req.Name
	}
	if req.ParentID != nil {
		category.ParentID = req.ParentID
	}

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	s.invalidateCategoryCache(ctx)
	return category, nil
}

func (s *CatalogService) BulkRenameCategories(ctx context.Context, req dto.BulkRenameCategoriesRequest) (int64, error) {
	n, err := s.categoryRepo.BulkRename(ctx, req.IDs, req.Name)
	if err != nil {
		return 0, fmt.Errorf("bulk rename: %w", err)
	}
	if n == 0 {
		return 0, ErrNoCategoriesMatched
	}
	s.invalidateCategoryCache(ctx)
	return n, nil
}

func (s *CatalogService) BulkDeleteCategories(ctx context.Context, req dto.BulkDeleteCategoriesRequest) (int64, error) {
	n, err := s.categoryRepo.DeleteByIDs(ctx, req.IDs)
	if err != nil {
		return 0, fmt.Errorf("bulk delete: %w", err)
	}
	s.invalidateCategoryCache(ctx)
	return n, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	n, err := s.categoryRepo.DeleteByIDs(ctx, []uuid.UUID{id})
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n == 0 {
		return ErrCategoryNotFound
	}
	s.invalidateCategoryCache(ctx)
	return nil
}

func (s *CatalogService) CreateCity(ctx context.Context, req dto.CityRequest) (*model.City, error) {
	city := &model.City{Name: req.Name, Region: req.Region}
	if err := s.cityRepo.Create(ctx, city); err != nil {
		return nil, fmt.Errorf("create city: %w", err)
	}
	return city, nil
}

func (s *CatalogService) ListCities(ctx context.Context, req dto.ListCitiesRequest) ([]model.City, error) {
	return s.cityRepo.List(ctx, req.Name, req.Region)
}

func (s *CatalogService) UpdateCity(ctx context.Context, id uuid.UUID, req dto.CityRequest) (*model.City, error) {
	city, err := s.cityRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get city: %w", err)
	}
	if city == nil {
		return nil, ErrCityNotFound
	}
	city.Name = req.Name
	city.Region = req.Region
	if err := s.cityRepo.Update(ctx, city); err != nil {
		return nil, fmt.Errorf("update city: %w", err)
	}
	return city, nil
}

func (s *CatalogService) DeleteCity(ctx context.Context, id uuid.UUID) error {
	return s.cityRepo.Delete(ctx, id)
}

func (s *CatalogService) invalidateCategoryCache(ctx context.Context) {
	if s.redisClient != nil {
		s.redisClient.Del(ctx, categoryCacheKey)
	}
}

func buildCategoryTree(categories []model.Category) []dto.CategoryResponse {
	children := make(map[uuid.UUID][]model.Category)
	var roots []model.Category
	for _, c := range categories {
		if c.ParentID == nil {
			roots = append(roots, c)
			continue
		}
		children[*c.ParentID] = append(children[*c.ParentID], c)
	}

	var build func(c model.Category) dto.CategoryResponse
	build = func(c model.Category) dto.CategoryResponse {
		node := dto.CategoryResponse{
			ID: c.ID, Name: c.Name, ParentID: c.ParentID, CreatedAt: c.CreatedAt,
			Subcategories: []dto.CategoryResponse{},
		}
		for _, child := range children[c.ID] {
			node.Subcategories = append(node.Subcategories, build(child))
		}
		return node
	}

	tree := make([]dto.CategoryResponse, 0, len(roots))
	for _, root := range roots {
		tree = append(tree, build(root))
	}
	return tree
}
