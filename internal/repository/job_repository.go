package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/marketplace-backend/internal/models"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
)

const jobColumns = `id, client_id, title, description, category, budget, skills, status, deadline_at, created_at, updated_at`

const proposalColumns = `id, job_id, freelancer_id, cover_letter, quote, estimated_days, status, created_at, updated_at`

// JobRepository отвечает за задания и отклики на них.
type JobRepository struct {
	db *sqlx.DB
}

func NewJobRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) CreateJob(ctx context.Context, job *models.Job) error {
	err := r.db.GetContext(ctx, job, `
		INSERT INTO jobs (client_id, title, description, category, budget, skills, deadline_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+jobColumns+`
	`, job.ClientID, job.Title, job.Description, job.Category, job.Budget, job.Skills, job.DeadlineAt)
	if err != nil {
		return fmt.Errorf("job repository: create %w", err)
	}
	return nil
}

func (r *JobRepository) GetJobByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	var job models.Job
	err := r.db.GetContext(ctx, &job, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrJobNotFound
		}
		return nil, fmt.Errorf("job repository: get by id %w", err)
	}
	return &job, nil
}

// ListOpenJobs возвращает открытые задания, новые сверху.
func (r *JobRepository) ListOpenJobs(ctx context.Context, limit, offset int) ([]models.Job, error) {
	var jobs []models.Job
	err := r.db.SelectContext(ctx, &jobs, `
		SELECT `+jobColumns+` FROM jobs WHERE status = 'open'
		ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("job repository: list open %w", err)
	}
	return jobs, nil
}

func (r *JobRepository) ListJobsByClient(ctx context.Context, clientID uuid.UUID) ([]models.Job, error) {
	var jobs []models.Job
	err := r.db.SelectContext(ctx, &jobs,
		`SELECT `+jobColumns+` FROM jobs WHERE client_id = $1 ORDER BY created_at DESC`, clientID)
	if err != nil {
		return nil, fmt.Errorf("job repository: list by client %w", err)
	}
	return jobs, nil
}

// CreateProposal сохраняет отклик. Повторный отклик на то же задание отклоняется.
func (r *JobRepository) CreateProposal(ctx context.Context, proposal *models.Proposal) error {
	err := r.db.GetContext(ctx, proposal, `
		INSERT INTO proposals (job_id, freelancer_id, cover_letter, quote, estimated_days)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+proposalColumns+`
	`, proposal.JobID, proposal.FreelancerID, proposal.CoverLetter, proposal.Quote, proposal.EstimatedDays)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return apperror.New(apperror.ErrCodeConflict, "отклик на это задание уже отправлен")
		}
		return fmt.Errorf("job repository: create proposal %w", err)
	}
	return nil
}

func (r *JobRepository) GetProposalByID(ctx context.Context, id uuid.UUID) (*models.Proposal, error) {
	var proposal models.Proposal
	err := r.db.GetContext(ctx, &proposal, `SELECT `+proposalColumns+` FROM proposals WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrProposalNotFound
		}
		return nil, fmt.Errorf("job repository: get proposal %w", err)
	}
	return &proposal, nil
}

func (r *JobRepository) ListProposalsByJob(ctx context.Context, jobID uuid.UUID) ([]models.Proposal, error) {
	var proposals []models.Proposal
	err := r.db.SelectContext(ctx, &proposals,
		`SELECT `+proposalColumns+` FROM proposals WHERE job_id = $1 ORDER BY created_at`, jobID)
	if err != nil {
		return nil, fmt.Errorf("job repository: list proposals by job %w", err)
	}
	return proposals, nil
}

func (r *JobRepository) ListProposalsByFreelancer(ctx context.Context, freelancerID uuid.UUID) ([]models.Proposal, error) {
	var proposals []models.Proposal
	err := r.db.SelectContext(ctx, &proposals,
		`SELECT `+proposalColumns+` FROM proposals WHERE freelancer_id = $1 ORDER BY created_at DESC`, freelancerID)
	if err != nil {
		return nil, fmt.Errorf("job repository: list proposals by freelancer %w", err)
	}
	return proposals, nil
}
