package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/marketplace-backend/internal/models"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
	"github.com/ignatzorin/marketplace-backend/internal/validation"
)

// ReviewRepository описывает хранилище отзывов.
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	ListByReviewed(ctx context.Context, reviewedID uuid.UUID, limit, offset int) ([]models.Review, error)
	AverageRating(ctx context.Context, reviewedID uuid.UUID) (float64, int, error)
}

// RatingWriter сохраняет пересчитанный рейтинг фрилансера.
type RatingWriter interface {
	UpdateFreelancerRating(ctx context.Context, userID uuid.UUID, rating float64, reviewCount int) error
}

// OrderReader даёт доступ к заказу для проверки участия.
type OrderReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// ReviewService — отзывы сторон по завершённым заказам.
type ReviewService struct {
	reviews ReviewRepository
	orders  OrderReader
	ratings RatingWriter
}

func NewReviewService(reviews ReviewRepository, orders OrderReader, ratings RatingWriter) *ReviewService {
	return &ReviewService{reviews: reviews, orders: orders, ratings: ratings}
}

// Submit оставляет отзыв о второй стороне завершённого заказа.
func (s *ReviewService) Submit(ctx context.Context, actor models.Actor, orderID uuid.UUID, rating int, comment *string) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, apperror.New(apperror.ErrCodeValidation, "оценка должна быть от 1 до 5")
	}
	if comment != nil {
		if err := validation.ValidateLength("комментарий", *comment, 0, validation.MaxCommentLength); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusCompleted {
		return nil, apperror.StatusConflict(string(models.OrderStatusCompleted), string(order.Status))
	}

	var reviewedID uuid.UUID
	switch actor.ID {
	case order.ClientID:
		reviewedID = order.FreelancerID
	case order.FreelancerID:
		reviewedID = order.ClientID
	default:
		return nil, apperror.ErrForbidden
	}

	review := &models.Review{
		OrderID:    orderID,
		ReviewerID: actor.ID,
		ReviewedID: reviewedID,
		Rating:     rating,
		Comment:    comment,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, err
	}

	// Рейтинг в профиле обновляем только для фрилансеров.
	if reviewedID == order.FreelancerID {
		average, count, err := s.reviews.AverageRating(ctx, reviewedID)
		if err != nil {
			return nil, err
		}
		if err := s.ratings.UpdateFreelancerRating(ctx, reviewedID, average, count); err != nil {
			return nil, err
		}
	}

	return review, nil
}

// ListFor возвращает отзывы о пользователе.
func (s *ReviewService) ListFor(ctx context.Context, reviewedID uuid.UUID, limit, offset int) ([]models.Review, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.reviews.ListByReviewed(ctx, reviewedID, limit, offset)
}
