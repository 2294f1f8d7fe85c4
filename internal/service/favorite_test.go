package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gebeya/marketplace-api/internal/model"
)

type mockFavoriteRepo struct {
	favorites map[uuid.UUID]*model.Favorite
}

func newMockFavoriteRepo() *mockFavoriteRepo {
	return &mockFavoriteRepo{favorites: make(map[uuid.UUID]*model.Favorite)}
}

func (m *mockFavoriteRepo) Create(_ context.Context, favorite *model.Favorite) error {
	favorite.ID = uuid.New()
	m.favorites[favorite.ID] = favorite
	return nil
}

func (m *mockFavoriteRepo) Exists(_ context.Context, userID, productID uuid.UUID) (bool, error) {
	for _, f := range m.favorites {
		if f.UserID == userID && f.ProductID == productID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockFavoriteRepo) Delete(_ context.Context, userID, productID uuid.UUID) error {
	for id, f := range m.favorites {
		if f.UserID == userID && f.ProductID == productID {
			delete(m.favorites, id)
		}
	}
	return nil
}

func (m *mockFavoriteRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]model.Favorite, error) {
	var out []model.Favorite
	for _, f := range m.favorites {
		if f.UserID == userID {
			out = append(out, *f)
		}
	}
	return out, nil
}

func TestFavoriteService_AddAndRemove(t *testing.T) {
	productRepo := newMockProductRepo()
	svc := NewFavoriteService(newMockFavoriteRepo(), productRepo)
	product := seedProduct(t, productRepo, uuid.New())
	user := uuid.New()

	fav, err := svc.Add(context.Background(), user, product.ID)
	require.NoError(t, err)
	assert.Equal(t, product.ID, fav.ProductID)

	_, err = svc.Add(context.Background(), user, product.ID)
	assert.ErrorIs(t, err, ErrAlreadyFavorited)

	mine, err := svc.ListMine(context.Background(), user)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	require.NoError(t, svc.Remove(context.Background(), user, product.ID))
	assert.ErrorIs(t, svc.Remove(context.Background(), user, product.ID), ErrNotFavorited)
}

func TestFavoriteService_Add_UnknownProduct(t *testing.T) {
	svc := NewFavoriteService(newMockFavoriteRepo(), newMockProductRepo())

	_, err := svc.Add(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrProductNotFound)
}
