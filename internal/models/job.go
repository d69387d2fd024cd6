package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// JobStatus константы статусов вакансий.
type JobStatus string

const (
	JobStatusOpen       JobStatus = "open"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusExpired    JobStatus = "expired"
)

// Job описывает опубликованное заказчиком задание.
type Job struct {
	ID          uuid.UUID      `db:"id" json:"id"`
	ClientID    uuid.UUID      `db:"client_id" json:"client_id"`
	Title       string         `db:"title" json:"title"`
	Description string         `db:"description" json:"description"`
	Category    string         `db:"category" json:"category"`
	Budget      float64        `db:"budget" json:"budget"`
	Skills      pq.StringArray `db:"skills" json:"skills"`
	Status      JobStatus      `db:"status" json:"status"`
	DeadlineAt  *time.Time     `db:"deadline_at" json:"deadline_at,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// ProposalStatus константы статусов откликов.
type ProposalStatus string

const (
	ProposalStatusPending  ProposalStatus = "pending"
	ProposalStatusAccepted ProposalStatus = "accepted"
	ProposalStatusRejected ProposalStatus = "rejected"
)

// Proposal представляет отклик фрилансера на задание.
type Proposal struct {
	ID            uuid.UUID      `db:"id" json:"id"`
	JobID         uuid.UUID      `db:"job_id" json:"job_id"`
	FreelancerID  uuid.UUID      `db:"freelancer_id" json:"freelancer_id"`
	CoverLetter   string         `db:"cover_letter" json:"cover_letter"`
	Quote         float64        `db:"quote" json:"quote"`
	EstimatedDays int            `db:"estimated_days" json:"estimated_days"`
	Status        ProposalStatus `db:"status" json:"status"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}
