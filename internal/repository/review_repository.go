package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/marketplace-backend/internal/models"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
)

// ReviewRepository отвечает за отзывы по завершённым заказам.
type ReviewRepository struct {
	db *sqlx.DB
}

func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create сохраняет отзыв. Каждая сторона заказа может оставить только один.
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	err := r.db.GetContext(ctx, review, `
		INSERT INTO reviews (order_id, reviewer_id, reviewed_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, order_id, reviewer_id, reviewed_id, rating, comment, created_at
	`, review.OrderID, review.ReviewerID, review.ReviewedID, review.Rating, review.Comment)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return apperror.New(apperror.ErrCodeConflict, "отзыв по этому заказу уже оставлен")
		}
		return fmt.Errorf("review repository: create %w", err)
	}
	return nil
}

// ListByReviewed возвращает отзывы о пользователе, новые сверху.
func (r *ReviewRepository) ListByReviewed(ctx context.Context, reviewedID uuid.UUID, limit, offset int) ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.SelectContext(ctx, &reviews, `
		SELECT id, order_id, reviewer_id, reviewed_id, rating, comment, created_at
		FROM reviews WHERE reviewed_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, reviewedID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("review repository: list by reviewed %w", err)
	}
	return reviews, nil
}

// AverageRating возвращает средний рейтинг и число отзывов о пользователе.
func (r *ReviewRepository) AverageRating(ctx context.Context, reviewedID uuid.UUID) (float64, int, error) {
	var row struct {
		Average float64 `db:"average"`
		Count   int     `db:"count"`
	}
	err := r.db.GetContext(ctx, &row, `
		SELECT COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count
		FROM reviews WHERE reviewed_id = $1
	`, reviewedID)
	if err != nil {
		return 0, 0, fmt.Errorf("review repository: average rating %w", err)
	}
	return row.Average, row.Count, nil
}
