package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ignatzorin/marketplace-backend/internal/models"
)

func cancelledBy(by models.CancelledBy) *models.CancelledBy {
	return &by
}

func TestComputeFreelancerMetrics_EmptyHistory(t *testing.T) {
	m := ComputeFreelancerMetrics(nil, nil)

	assert.Equal(t, 0, m.TotalOrders)
	assert.Equal(t, 100.0, m.CompletionRate)
	// 0.5*100 + 0.3*100 + 0.2*0
	assert.Equal(t, 80.0, m.SuccessScore)
	assert.Equal(t, 0.0, m.ProposalAcceptanceRate)
}

func TestComputeFreelancerMetrics_CountsAllOrders(t *testing.T) {
	orders := []models.Order{
		{Status: models.OrderStatusAwaitingPayment},
		{Status: models.OrderStatusActive, EscrowStatus: models.EscrowStatusHeld},
		{Status: models.OrderStatusCompleted, EscrowStatus: models.EscrowStatusReleased},
	}

	m := ComputeFreelancerMetrics(orders, nil)

	assert.Equal(t, 3, m.TotalOrders)
	assert.Equal(t, 100.0, m.CompletionRate)
}

// Спор, решённый медиатором в пользу фрилансера, перестаёт считаться спором:
// метрики смотрят на текущий статус, а не на историю поля disputed_by.
func TestComputeFreelancerMetrics_ResolvedDisputeStopsCounting(t *testing.T) {
	disputer := uuidMust()
	orders := []models.Order{
		{Status: models.OrderStatusCompleted, EscrowStatus: models.EscrowStatusReleased, DisputedBy: &disputer},
	}

	m := ComputeFreelancerMetrics(orders, nil)

	assert.Equal(t, 0, m.DisputeCount)
	assert.Equal(t, 100.0, m.CompletionRate)
}

func TestComputeFreelancerMetrics_CountsCancellationsAndDisputes(t *testing.T) {
	disputer := uuidMust()
	reason := "работа не принята"
	orders := []models.Order{
		{Status: models.OrderStatusCompleted, EscrowStatus: models.EscrowStatusReleased},
		{Status: models.OrderStatusCompleted, EscrowStatus: models.EscrowStatusReleased},
		{Status: models.OrderStatusCancelled, EscrowStatus: models.EscrowStatusRefunded, CancelledBy: cancelledBy(models.CancelledByFreelancer)},
		{Status: models.OrderStatusDisputed, EscrowStatus: models.EscrowStatusHeld, DisputedBy: &disputer, DisputeReason: &reason},
	}
	proposals := []models.Proposal{
		{Status: models.ProposalStatusAccepted},
		{Status: models.ProposalStatusRejected},
	}

	m := ComputeFreelancerMetrics(orders, proposals)

	assert.Equal(t, 4, m.TotalOrders)
	// (4 - (1 + 1)) / 4 * 100
	assert.Equal(t, 50.0, m.CompletionRate)
	assert.Equal(t, 1, m.DisputeCount)
	assert.Equal(t, 50.0, m.ProposalAcceptanceRate)
	assert.Equal(t, 2, m.ProposalsSentCount)
	// 0.5*50 + 0.3*75 + 0.2*50
	assert.InDelta(t, 57.5, m.SuccessScore, 0.001)
}

// Пересчёт по одной и той же истории даёт одинаковый результат.
func TestComputeFreelancerMetrics_Idempotent(t *testing.T) {
	orders := []models.Order{
		{Status: models.OrderStatusCompleted, EscrowStatus: models.EscrowStatusReleased},
		{Status: models.OrderStatusCancelled, EscrowStatus: models.EscrowStatusRefunded, CancelledBy: cancelledBy(models.CancelledByFreelancer)},
	}

	first := ComputeFreelancerMetrics(orders, nil)
	second := ComputeFreelancerMetrics(orders, nil)

	assert.Equal(t, first, second)
}

func TestComputeClientMetrics(t *testing.T) {
	disputer := uuidMust()
	orders := []models.Order{
		{Status: models.OrderStatusCompleted, Price: 1000},
		{Status: models.OrderStatusCompleted, Price: 500},
		{Status: models.OrderStatusCancelled, CancelledBy: cancelledBy(models.CancelledByClient)},
		{Status: models.OrderStatusDisputed, EscrowStatus: models.EscrowStatusHeld, DisputedBy: &disputer},
	}

	m := ComputeClientMetrics(orders)

	assert.Equal(t, 1500.0, m.TotalSpent)
	assert.Equal(t, 1, m.CancelledByClient)
	assert.Equal(t, 1, m.DisputeCount)
	// 100 - 5*1 - 10*1
	assert.Equal(t, 85.0, m.TrustScore)
}

func TestComputeClientMetrics_TrustScoreFloorsAtZero(t *testing.T) {
	var orders []models.Order
	for i := 0; i < 25; i++ {
		orders = append(orders, models.Order{
			Status:      models.OrderStatusCancelled,
			CancelledBy: cancelledBy(models.CancelledByClient),
		})
	}

	m := ComputeClientMetrics(orders)

	assert.Equal(t, 0.0, m.TrustScore)
}
