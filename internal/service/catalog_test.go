package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gebeya/marketplace-api/internal/dto"
)

func newTestCatalogService() (*CatalogService, *mockCategoryRepo, *mockCityRepo) {
	categoryRepo := newMockCategoryRepo()
	cityRepo := newMockCityRepo()
	return NewCatalogService(categoryRepo, cityRepo, nil), categoryRepo, cityRepo
}

func TestCatalogService_CategoryTree(t *testing.T) {
	svc, _, _ := newTestCatalogService()
	ctx := context.Background()

	clothing, err := svc.CreateCategory(ctx, dto.CreateCategoryRequest{Name: "Clothing"})
	require.NoError(t, err)
	jackets, err := svc.CreateCategory(ctx, dto.CreateCategoryRequest{Name: "Jackets", ParentID: &clothing.ID})
	require.NoError(t, err)
	_, err = svc.CreateCategory(ctx, dto.CreateCategoryRequest{Name: "Leather", ParentID: &jackets.ID})
	require.NoError(t, err)
	_, err = svc.CreateCategory(ctx, dto.CreateCategoryRequest{Name: "Electronics"})
	require.NoError(t, err)

	tree, err := svc.CategoryTree(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 2)

	byName := map[string]dto.CategoryResponse{}
	for _, node := range tree {
		byName[node.Name] = node
	}
	require.Contains(t, byName, "Clothing")
	require.Contains(t, byName, "Electronics")
	require.Len(t, byName["Clothing"].Subcategories, 1)
	assert.Equal(t, "Jackets", byName["Clothing"].Subcategories[0].Name)
	require.Len(t, byName["Clothing"].Subcategories[0].Subcategories, 1)
	assert.Equal(t, "Leather", byName["Clothing"].Subcategories[0].Subcategories[0].Name)
	assert.Empty(t, byName["Electronics"].Subcategories)
}

func TestCatalogService_CreateCategory_UnknownParent(t *testing.T) {
	svc, _, _ := newTestCatalogService()

	ghost := uuid.New()
	_, err := svc.CreateCategory(context.Background(), dto.CreateCategoryRequest{
		Name: "Orphaned", ParentID: &ghost,
	})
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestCatalogService_BulkRenameCategories(t *testing.T) {
	svc, _, _ := newTestCatalogService()
	ctx := context.Background()

	a, err := svc.CreateCategory(ctx, dto.CreateCategoryRequest{Name: "Shoos"})
	require.NoError(t, err)
	b, err := svc.CreateCategory(ctx, dto.CreateCategoryRequest{Name: "Shose"})
	require.NoError(t, err)

	n, err := svc.BulkRenameCategories(ctx, dto.BulkRenameCategoriesRequest{
		IDs: []uuid.UUID{a.ID, b.ID}, Name: "Shoes",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestCatalogService_BulkRenameCategories_NoneMatched(t *testing.T) {
	svc, _, _ := newTestCatalogService()

	_, err := svc.BulkRenameCategories(context.Background(), dto.BulkRenameCategoriesRequest{
		IDs: []uuid.UUID{uuid.New()}, Name: "anything",
	})
	assert.ErrorIs(t, err, ErrNoCategoriesMatched)
}

func TestCatalogService_BulkDeleteCategories(t *testing.T) {
	svc, categoryRepo, _ := newTestCatalogService()
	ctx := context.Background()

	a, err := svc.CreateCategory(ctx, dto.CreateCategoryRequest{Name: "Stale"})
	require.NoError(t, err)

	n, err := svc.BulkDeleteCategories(ctx, dto.BulkDeleteCategoriesRequest{
		IDs: []uuid.UUID{a.ID, uuid.New()},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Empty(t, categoryRepo.categories)
}

func TestCatalogService_Cities(t *testing.T) {
	svc, _, _ := newTestCatalogService()
	ctx := context.Background()

	city, err := svc.CreateCity(ctx, dto.CityRequest{Name: "Hawassa", Region: "Sidama"})
	require.NoError(t, err)

	updated, err := svc.UpdateCity(ctx, city.ID, dto.CityRequest{Name: "Hawassa", Region: "Sidama Region"})
	require.NoError(t, err)
	assert.Equal(t, "Sidama Region", updated.Region)

	_, err = svc.UpdateCity(ctx, uuid.New(), dto.CityRequest{Name: "Nowhere"})
	assert.ErrorIs(t, err, ErrCityNotFound)
}

func TestCatalogService_DeleteCategory(t *testing.T) {
	svc, categoryRepo, _ := newTestCatalogService()
	ctx := context.Background()

	a, err := svc.CreateCategory(ctx, dto.CreateCategoryRequest{Name: "Stale"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteCategory(ctx, a.ID))
	assert.Empty(t, categoryRepo.categories)

	assert.ErrorIs(t, svc.DeleteCategory(ctx, uuid.New()), ErrCategoryNotFound)
}
