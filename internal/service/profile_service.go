package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/marketplace-backend/internal/models"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
	"github.com/ignatzorin/marketplace-backend/internal/validation"
)

// ProfileRepository описывает хранилище профилей фрилансеров.
type ProfileRepository interface {
	GetFreelancerProfile(ctx context.Context, userID uuid.UUID) (*models.FreelancerProfile, error)
	UpsertFreelancerProfile(ctx context.Context, profile *models.FreelancerProfile) error
	TouchLastActive(ctx context.Context, userID uuid.UUID) error
	SetFreelancerVerified(ctx context.Context, userID uuid.UUID, verified bool) error
}

// ProfileService — публичные профили фрилансеров.
type ProfileService struct {
	repo ProfileRepository
}

func NewProfileService(repo ProfileRepository) *ProfileService {
	return &ProfileService{repo: repo}
}

// UpdateProfileInput содержит редактируемые поля профиля.
type UpdateProfileInput struct {
	DisplayName string
	Title       string
	Bio         *string
	Skills      []string
	HourlyRate  *float64
	Available   bool
}

// Get возвращает профиль фрилансера.
func (s *ProfileService) Get(ctx context.Context, userID uuid.UUID) (*models.FreelancerProfile, error) {
	return s.repo.GetFreelancerProfile(ctx, userID)
}

// Update сохраняет редактируемую часть собственного профиля.
// Производные метрики и статус верификации этим путём не меняются.
func (s *ProfileService) Update(ctx context.Context, actor models.Actor, in UpdateProfileInput) (*models.FreelancerProfile, error) {
	if actor.Role != models.RoleFreelancer {
		return nil, apperror.ErrForbidden
	}
	if in.Bio != nil {
		if err := validation.ValidateLength("о себе", *in.Bio, 0, validation.MaxBioLength); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}
	if err := validation.ValidateSkills(in.Skills); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	profile := &models.FreelancerProfile{
		UserID:      actor.ID,
		DisplayName: in.DisplayName,
		Title:       in.Title,
		Bio:         in.Bio,
		Skills:      in.Skills,
		HourlyRate:  in.HourlyRate,
		Available:   in.Available,
	}
	if err := s.repo.UpsertFreelancerProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// MarkVerified включает верификацию фрилансера после успешного онбординга
// в платёжном шлюзе или решением администратора.
func (s *ProfileService) MarkVerified(ctx context.Context, actor models.Actor, userID uuid.UUID) error {
	if actor.Role != models.RoleGateway && !actor.IsAdmin() {
		return apperror.ErrForbidden
	}
	return s.repo.SetFreelancerVerified(ctx, userID, true)
}

// TouchActivity отмечает активность фрилансера для бонуса свежести в подборе.
func (s *ProfileService) TouchActivity(ctx context.Context, actor models.Actor) error {
	if actor.Role != models.RoleFreelancer {
		return nil
	}
	return s.repo.TouchLastActive(ctx, actor.ID)
}
