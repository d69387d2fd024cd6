package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/marketplace-backend/internal/models"
)

// ReputationRepository описывает зависимости пересчёта метрик.
type ReputationRepository interface {
	ListByFreelancer(ctx context.Context, freelancerID uuid.UUID) ([]models.Order, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]models.Order, error)
	ListProposalsByFreelancer(ctx context.Context, freelancerID uuid.UUID) ([]models.Proposal, error)
	UpdateFreelancerMetrics(ctx context.Context, userID uuid.UUID, m models.FreelancerMetrics, lastCompletedAt *time.Time) error
	UpdateClientMetrics(ctx context.Context, userID uuid.UUID, m models.ClientMetrics) error
}

// ReputationService пересчитывает производные метрики участников.
// Метрики всегда считаются заново по полной истории, поэтому повторный
// пересчёт даёт тот же результат.
type ReputationService struct {
	repo ReputationRepository
}

func NewReputationService(repo ReputationRepository) *ReputationService {
	return &ReputationService{repo: repo}
}

// RecalculateFreelancer пересчитывает и сохраняет метрики фрилансера.
func (s *ReputationService) RecalculateFreelancer(ctx context.Context, freelancerID uuid.UUID) error {
	orders, err := s.repo.ListByFreelancer(ctx, freelancerID)
	if err != nil {
		return err
	}
	proposals, err := s.repo.ListProposalsByFreelancer(ctx, freelancerID)
	if err != nil {
		return err
	}

	metrics := ComputeFreelancerMetrics(orders, proposals)
	return s.repo.UpdateFreelancerMetrics(ctx, freelancerID, metrics, lastCompletedAt(orders))
}

// RecalculateClient пересчитывает и сохраняет метрики заказчика.
func (s *ReputationService) RecalculateClient(ctx context.Context, clientID uuid.UUID) error {
	orders, err := s.repo.ListByClient(ctx, clientID)
	if err != nil {
		return err
	}

	return s.repo.UpdateClientMetrics(ctx, clientID, ComputeClientMetrics(orders))
}

// ComputeFreelancerMetrics считает метрики фрилансера по полной истории
// заказов и откликов. Спором считается только заказ, находящийся в споре
// сейчас: после медиации он перестаёт давить на метрики.
func ComputeFreelancerMetrics(orders []models.Order, proposals []models.Proposal) models.FreelancerMetrics {
	var cancelledByFreelancer, disputed int

	total := len(orders)
	for _, order := range orders {
		if order.Status == models.OrderStatusDisputed {
			disputed++
		}
		if order.Status == models.OrderStatusCancelled && order.CancelledBy != nil &&
			*order.CancelledBy == models.CancelledByFreelancer {
			cancelledByFreelancer++
		}
	}

	completionRate := 100.0
	nonDisputedRate := 100.0
	if total > 0 {
		completionRate = float64(total-(cancelledByFreelancer+disputed)) / float64(total) * 100
		if completionRate < 0 {
			completionRate = 0
		}
		nonDisputedRate = float64(total-disputed) / float64(total) * 100
	}

	var accepted int
	for _, proposal := range proposals {
		if proposal.Status == models.ProposalStatusAccepted {
			accepted++
		}
	}
	acceptanceRate := 0.0
	if len(proposals) > 0 {
		acceptanceRate = float64(accepted) / float64(len(proposals)) * 100
	}

	return models.FreelancerMetrics{
		TotalOrders:            total,
		CompletionRate:         completionRate,
		SuccessScore:           0.5*completionRate + 0.3*nonDisputedRate + 0.2*acceptanceRate,
		DisputeCount:           disputed,
		ProposalAcceptanceRate: acceptanceRate,
		ProposalsSentCount:     len(proposals),
	}
}

// ComputeClientMetrics считает метрики доверия заказчика по истории заказов.
// Как и у фрилансера, спором считается только текущий статус disputed.
func ComputeClientMetrics(orders []models.Order) models.ClientMetrics {
	var m models.ClientMetrics

	for _, order := range orders {
		if order.Status == models.OrderStatusCompleted {
			m.TotalSpent += order.Price
		}
		if order.Status == models.OrderStatusCancelled && order.CancelledBy != nil &&
			*order.CancelledBy == models.CancelledByClient {
			m.CancelledByClient++
		}
		if order.Status == models.OrderStatusDisputed {
			m.DisputeCount++
		}
	}

	m.TrustScore = 100 - 5*float64(m.CancelledByClient) - 10*float64(m.DisputeCount)
	if m.TrustScore < 0 {
		m.TrustScore = 0
	}

	return m
}

func lastCompletedAt(orders []models.Order) *time.Time {
	var last *time.Time
	for i := range orders {
		if orders[i].Status != models.OrderStatusCompleted {
			continue
		}
		if last == nil || orders[i].UpdatedAt.After(*last) {
			last = &orders[i].UpdatedAt
		}
	}
	return last
}
