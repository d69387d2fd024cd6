package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/marketplace-backend/internal/models"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
	"github.com/ignatzorin/marketplace-backend/internal/validation"
)

// JobRepository описывает зависимости JobService от хранилища.
type JobRepository interface {
	CreateJob(ctx context.Context, job *models.Job) error
	GetJobByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	ListOpenJobs(ctx context.Context, limit, offset int) ([]models.Job, error)
	ListJobsByClient(ctx context.Context, clientID uuid.UUID) ([]models.Job, error)
	CreateProposal(ctx context.Context, proposal *models.Proposal) error
	ListProposalsByJob(ctx context.Context, jobID uuid.UUID) ([]models.Proposal, error)
	ListProposalsByFreelancer(ctx context.Context, freelancerID uuid.UUID) ([]models.Proposal, error)
}

// JobService — публикация заданий и отклики на них.
type JobService struct {
	repo JobRepository
}

func NewJobService(repo JobRepository) *JobService {
	return &JobService{repo: repo}
}

// CreateJobInput содержит данные нового задания.
type CreateJobInput struct {
	Title       string
	Description string
	Category    string
	Budget      float64
	Skills      []string
}

// CreateJob публикует задание. Доступно только заказчикам.
func (s *JobService) CreateJob(ctx context.Context, actor models.Actor, in CreateJobInput) (*models.Job, error) {
	if actor.Role != models.RoleClient && !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	if err := validation.ValidateLength("заголовок", in.Title,
		validation.MinJobTitleLength, validation.MaxJobTitleLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateLength("описание", in.Description,
		validation.MinJobDescription, validation.MaxJobDescription); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidatePrice("бюджет", in.Budget); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateSkills(in.Skills); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	job := &models.Job{
		ClientID:    actor.ID,
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Budget:      in.Budget,
		Skills:      in.Skills,
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// GetJob возвращает задание по идентификатору.
func (s *JobService) GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	return s.repo.GetJobByID(ctx, id)
}

// ListOpenJobs возвращает ленту открытых заданий.
func (s *JobService) ListOpenJobs(ctx context.Context, limit, offset int) ([]models.Job, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListOpenJobs(ctx, limit, offset)
}

// ListMyJobs возвращает задания заказчика.
func (s *JobService) ListMyJobs(ctx context.Context, actor models.Actor) ([]models.Job, error) {
	return s.repo.ListJobsByClient(ctx, actor.ID)
}

// SubmitProposalInput содержит данные отклика.
type SubmitProposalInput struct {
	JobID         uuid.UUID
	CoverLetter   string
	Quote         float64
	EstimatedDays int
}

// SubmitProposal отправляет отклик фрилансера на открытое задание.
func (s *JobService) SubmitProposal(ctx context.Context, actor models.Actor, in SubmitProposalInput) (*models.Proposal, error) {
	if actor.Role != models.RoleFreelancer {
		return nil, apperror.ErrForbidden
	}
	if err := validation.ValidateLength("сопроводительное письмо", in.CoverLetter,
		validation.MinCoverLetterLength, validation.MaxCoverLetterLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidatePrice("ставка", in.Quote); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	job, err := s.repo.GetJobByID(ctx, in.JobID)
	if err != nil {
		return nil, err
	}
	if job.Status != models.JobStatusOpen {
		return nil, apperror.StatusConflict(string(models.JobStatusOpen), string(job.Status))
	}
	if job.ClientID == actor.ID {
		return nil, apperror.New(apperror.ErrCodeValidation, "нельзя откликнуться на собственное задание")
	}

	proposal := &models.Proposal{
		JobID:         in.JobID,
		FreelancerID:  actor.ID,
		CoverLetter:   in.CoverLetter,
		Quote:         in.Quote,
		EstimatedDays: in.EstimatedDays,
	}
	if err := s.repo.CreateProposal(ctx, proposal); err != nil {
		return nil, err
	}
	return proposal, nil
}

// ListProposals возвращает отклики на задание. Доступно владельцу задания.
func (s *JobService) ListProposals(ctx context.Context, actor models.Actor, jobID uuid.UUID) ([]models.Proposal, error) {
	job, err := s.repo.GetJobByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.ClientID != actor.ID && !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	return s.repo.ListProposalsByJob(ctx, jobID)
}

// ListMyProposals возвращает отклики фрилансера.
func (s *JobService) ListMyProposals(ctx context.Context, actor models.Actor) ([]models.Proposal, error) {
	return s.repo.ListProposalsByFreelancer(ctx, actor.ID)
}
