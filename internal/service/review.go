package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/gebeya/marketplace-api/internal/dto"
	"github.com/gebeya/marketplace-api/internal/model"
	"github.com/gebeya/marketplace-api/internal/repository"
)

var (
	ErrReviewNotFound   = errors.New("review not found")
	ErrAlreadyReviewed  = errors.New("product already reviewed by this user")
	ErrNotReviewAuthor  = errors.New("not the review author")
	ErrRatingOutOfRange = errors.New("rating must be between 1 and 5")
)

type ReviewService struct {
	reviewRepo  repository.ReviewRepository
	productRepo repository.ProductRepository
	amqpCh      *amqp.Channel
}

func NewReviewService(reviewRepo repository.ReviewRepository, productRepo repository.ProductRepository, amqpCh *amqp.Channel) *ReviewService {
	return &ReviewService{reviewRepo: reviewRepo, productRepo: productRepo, amqpCh: amqpCh}
}

func (s *ReviewService) Create(ctx context.Context, userID uuid.UUID, req dto.CreateReviewRequest) (*model.Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, ErrRatingOutOfRange
	}

	product, err := s.productRepo.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	exists, err := s.reviewRepo.Exists(ctx, userID, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("check review: %w", err)
	}
	if exists {
		return nil, ErrAlreadyReviewed
	}

	review := &model.Review{
		ProductID: req.ProductID,
		UserID:    userID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	// Notify the product owner asynchronously.
	if s.amqpCh != nil {
		msg, _ := json.Marshal(model.NotificationMessage{
			Kind:      model.NotificationReviewCreated,
			ReviewID:  review.ID,
			ProductID: product.ID,
			UserID:    product.OwnerID,
		})
		_ = s.amqpCh.PublishWithContext(ctx, "", "notifications", false, false, amqp.Publishing{
			ContentType:  "application/json",
			Body:         msg,
			DeliveryMode: amqp.Persistent,
		})
	}
	return review, nil
}

func (s *ReviewService) ListByProduct(ctx context.Context, productID uuid.UUID, page, limit int) (*dto.ReviewListResponse, error) {
	reviews, total, err := s.reviewRepo.ListByProduct(ctx, productID, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	avg, err := s.reviewRepo.AverageRating(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("average rating: %w", err)
	}

	items := make([]dto.ReviewResponse, 0, len(reviews))
	for _, r := range reviews {
		items = append(items, toReviewResponse(&r))
	}
	return &dto.ReviewListResponse{Reviews: items, Total: total, AverageRating: avg}, nil
}

func (s *ReviewService) Update(ctx context.Context, id, callerID uuid.UUID, callerRole string, req dto.UpdateReviewRequest) (*model.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	if review == nil {
		return nil, ErrReviewNotFound
	}
	if review.UserID != callerID && callerRole != model.RoleAdmin {
		return nil, ErrNotReviewAuthor
	}

	if req.Rating != nil {
		if *req.Rating < 1 || *req.Rating > 5 {
			return nil, ErrRatingOutOfRange
		}
		review.Rating = *req.Rating
	}
	if req.Comment != nil {
		review.Comment = *req.Comment
	}

	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}
	return review, nil
}

// Flag marks a review for moderation. The route guard restricts this
// to admins. Flagging an already-flagged review is a no-op.
func (s *ReviewService) Flag(ctx context.Context, id uuid.UUID) (*model.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	if review == nil {
		return nil, ErrReviewNotFound
	}
	if review.IsFlagged {
		return review, nil
	}

	review.IsFlagged = true
	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("flag review: %w", err)
	}
	return review, nil
}

func (s *ReviewService) Delete(ctx context.Context, id, callerID uuid.UUID, callerRole string) error {
	review, err := s.reviewRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get review: %w", err)
	}
	if review == nil {
		return ErrReviewNotFound
	}
	if review.UserID != callerID && callerRole != model.RoleAdmin {
		return ErrNotReviewAuthor
	}
	return s.reviewRepo.Delete(ctx, id)
}

func toReviewResponse(r *model.Review) dto.ReviewResponse {
	return dto.ReviewResponse{
		ID:        r.ID,
		ProductID: r.ProductID,
		UserID:    r.UserID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		IsFlagged: r.IsFlagged,
		CreatedAt: r.CreatedAt,
	}
}
