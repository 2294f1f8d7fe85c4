package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gebeya/marketplace-api/internal/model"
	"github.com/gebeya/marketplace-api/internal/repository"
)

var (
	ErrAlreadyFavorited = errors.New("product already favorited")
	ErrNotFavorited     = errors.New("product not in favorites")
)

type FavoriteService struct {
	favoriteRepo repository.FavoriteRepository
	productRepo  repository.ProductRepository
}

func NewFavoriteService(favoriteRepo repository.FavoriteRepository, productRepo repository.ProductRepository) *FavoriteService {
	return &FavoriteService{favoriteRepo: favoriteRepo, productRepo: productRepo}
}

func (s *FavoriteService) Add(ctx context.Context, userID, productID uuid.UUID) (*model.Favorite, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	exists, err := s.favoriteRepo.Exists(ctx, userID, productID)
	if err != nil {
		return nil, fmt.Errorf("check favorite: %w", err)
	}
	if exists {
		return nil, ErrAlreadyFavorited
	}

	favorite := &model.Favorite{UserID: userID, ProductID: productID}
	if err := s.favoriteRepo.Create(ctx, favorite); err != nil {
		return nil, fmt.Errorf("create favorite: %w", err)
	}
	return favorite, nil
}

func (s *FavoriteService) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	exists, err := s.favoriteRepo.Exists(ctx, userID, productID)
	if err != nil {
		return fmt.Errorf("check favorite: %w", err)
	}
	if !exists {
		return ErrNotFavorited
	}
	return s.favoriteRepo.Delete(ctx, userID, productID)
}

func (s *FavoriteService) ListMine(ctx context.Context, userID uuid.UUID) ([]model.Favorite, error) {
	return s.favoriteRepo.ListByUser(ctx, userID)
}
