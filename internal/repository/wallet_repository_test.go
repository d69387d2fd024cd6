package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ignatzorin/marketplace-backend/internal/models"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
)

func TestEnsureEscrowHoldable(t *testing.T) {
	err := ensureEscrowHoldable(&models.Order{
		Status:       models.OrderStatusAwaitingPayment,
		EscrowStatus: models.EscrowStatusNone,
	})

	assert.NoError(t, err)
}

// Повторное подтверждение уже оплаченного заказа — отдельная ошибка,
// которую сервис трактует как успех.
func TestEnsureEscrowHoldable_AlreadyHeld(t *testing.T) {
	err := ensureEscrowHoldable(&models.Order{
		Status:       models.OrderStatusActive,
		EscrowStatus: models.EscrowStatusHeld,
	})

	assert.ErrorIs(t, err, ErrEscrowAlreadyHeld)
}

func TestEnsureEscrowHoldable_CancelledOrder(t *testing.T) {
	err := ensureEscrowHoldable(&models.Order{
		Status:       models.OrderStatusCancelled,
		EscrowStatus: models.EscrowStatusNone,
	})

	assert.True(t, apperror.IsPreconditionFailed(err))
}

func TestEnsureEscrowHeld_Delivered(t *testing.T) {
	err := ensureEscrowHeld(&models.Order{
		Status:       models.OrderStatusDelivered,
		EscrowStatus: models.EscrowStatusHeld,
	}, models.OrderStatusDelivered)

	assert.NoError(t, err)
}

// Повторное одобрение завершённого заказа отклоняется до движения средств.
func TestEnsureEscrowHeld_AlreadyCompleted(t *testing.T) {
	err := ensureEscrowHeld(&models.Order{
		Status:       models.OrderStatusCompleted,
		EscrowStatus: models.EscrowStatusReleased,
	}, models.OrderStatusDelivered)

	assert.True(t, apperror.IsPreconditionFailed(err))
}

func TestEnsureEscrowHeld_WrongSourceStatus(t *testing.T) {
	err := ensureEscrowHeld(&models.Order{
		Status:       models.OrderStatusActive,
		EscrowStatus: models.EscrowStatusHeld,
	}, models.OrderStatusDisputed)

	assert.True(t, apperror.IsPreconditionFailed(err))
}

// Даже при совпавшем статусе уже разведённый эскроу не трогается повторно.
func TestEnsureEscrowHeld_EscrowAlreadyMoved(t *testing.T) {
	err := ensureEscrowHeld(&models.Order{
		Status:       models.OrderStatusDisputed,
		EscrowStatus: models.EscrowStatusRefunded,
	}, models.OrderStatusDisputed)

	assert.True(t, apperror.IsPreconditionFailed(err))
}
