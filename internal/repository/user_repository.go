package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/marketplace-backend/internal/models"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
)

const userColumns = `id, email, username, password_hash, role, is_active, last_login_at, created_at, updated_at`

const profileColumns = `user_id, display_name, title, bio, skills, hourly_rate, verified, visibility,
	available, rating, review_count, last_active_at, total_orders, completion_rate, success_score,
	dispute_count, proposal_acceptance_rate, proposals_sent_count, last_order_completed_at, updated_at`

// UserRepository отвечает за пользователей и профили фрилансеров.
type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create сохраняет нового пользователя.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	err := r.db.GetContext(ctx, user, `
		INSERT INTO users (email, username, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns+`
	`, user.Email, user.Username, user.PasswordHash, user.Role)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return apperror.New(apperror.ErrCodeConflict, "пользователь с таким email или именем уже существует")
		}
		return fmt.Errorf("user repository: create %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get by id %w", err)
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get by email %w", err)
	}
	return &user, nil
}

func (r *UserRepository) UpdateLastLoginAt(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("user repository: update last login %w", err)
	}
	return nil
}

// GetFreelancerProfile возвращает профиль фрилансера.
func (r *UserRepository) GetFreelancerProfile(ctx context.Context, userID uuid.UUID) (*models.FreelancerProfile, error) {
	var profile models.FreelancerProfile
	err := r.db.GetContext(ctx, &profile,
		`SELECT `+profileColumns+` FROM freelancer_profiles WHERE user_id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get freelancer profile %w", err)
	}
	return &profile, nil
}

// UpsertFreelancerProfile создаёт или обновляет редактируемую часть профиля.
// Производные метрики этим запросом не затрагиваются.
func (r *UserRepository) UpsertFreelancerProfile(ctx context.Context, profile *models.FreelancerProfile) error {
	err := r.db.GetContext(ctx, profile, `
		INSERT INTO freelancer_profiles (user_id, display_name, title, bio, skills, hourly_rate, available, last_active_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			title = EXCLUDED.title,
			bio = EXCLUDED.bio,
			skills = EXCLUDED.skills,
			hourly_rate = EXCLUDED.hourly_rate,
			available = EXCLUDED.available,
			last_active_at = NOW(),
			updated_at = NOW()
		RETURNING `+profileColumns+`
	`, profile.UserID, profile.DisplayName, profile.Title, profile.Bio, profile.Skills, profile.HourlyRate, profile.Available)
	if err != nil {
		return fmt.Errorf("user repository: upsert freelancer profile %w", err)
	}
	return nil
}

// ListVisibleFreelancers возвращает профили, допущенные к подбору:
// верифицированные, видимые и доступные для новых заказов.
func (r *UserRepository) ListVisibleFreelancers(ctx context.Context) ([]models.FreelancerProfile, error) {
	var profiles []models.FreelancerProfile
	err := r.db.SelectContext(ctx, &profiles, `
		SELECT `+profileColumns+` FROM freelancer_profiles
		WHERE verified = TRUE AND visibility IN ('normal', 'limited') AND available = TRUE
	`)
	if err != nil {
		return nil, fmt.Errorf("user repository: list visible freelancers %w", err)
	}
	return profiles, nil
}

// UpdateFreelancerMetrics полностью перезаписывает производные метрики фрилансера.
func (r *UserRepository) UpdateFreelancerMetrics(ctx context.Context, userID uuid.UUID, m models.FreelancerMetrics, lastCompletedAt *time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE freelancer_profiles SET
			total_orders = $2,
			completion_rate = $3,
			success_score = $4,
			dispute_count = $5,
			proposal_acceptance_rate = $6,
			proposals_sent_count = $7,
			last_order_completed_at = COALESCE($8, last_order_completed_at),
			updated_at = NOW()
		WHERE user_id = $1
	`, userID, m.TotalOrders, m.CompletionRate, m.SuccessScore, m.DisputeCount,
		m.ProposalAcceptanceRate, m.ProposalsSentCount, lastCompletedAt)
	if err != nil {
		return fmt.Errorf("user repository: update freelancer metrics %w", err)
	}
	return nil
}

// UpdateClientMetrics полностью перезаписывает производные метрики заказчика.
func (r *UserRepository) UpdateClientMetrics(ctx context.Context, userID uuid.UUID, m models.ClientMetrics) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET
			trust_score = $2,
			total_spent = $3,
			cancelled_by_client = $4,
			dispute_count = $5,
			updated_at = NOW()
		WHERE id = $1
	`, userID, m.TrustScore, m.TotalSpent, m.CancelledByClient, m.DisputeCount)
	if err != nil {
		return fmt.Errorf("user repository: update client metrics %w", err)
	}
	return nil
}

// SetFreelancerVerified включает или выключает верификацию фрилансера.
func (r *UserRepository) SetFreelancerVerified(ctx context.Context, userID uuid.UUID, verified bool) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE freelancer_profiles SET verified = $2, updated_at = NOW() WHERE user_id = $1
	`, userID, verified)
	if err != nil {
		return fmt.Errorf("user repository: set verified %w", err)
	}
	return nil
}

// UpdateFreelancerRating пересчитывает средний рейтинг по отзывам.
func (r *UserRepository) UpdateFreelancerRating(ctx context.Context, userID uuid.UUID, rating float64, reviewCount int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE freelancer_profiles SET rating = $2, review_count = $3, updated_at = NOW()
		WHERE user_id = $1
	`, userID, rating, reviewCount)
	if err != nil {
		return fmt.Errorf("user repository: update freelancer rating %w", err)
	}
	return nil
}

// TouchLastActive отмечает активность фрилансера.
func (r *UserRepository) TouchLastActive(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE freelancer_profiles SET last_active_at = NOW(), updated_at = NOW() WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("user repository: touch last active %w", err)
	}
	return nil
}
