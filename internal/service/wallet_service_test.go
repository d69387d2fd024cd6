package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/marketplace-backend/internal/models"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
)

type mockWalletLedger struct {
	mock.Mock
}

func (m *mockWalletLedger) GetWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *mockWalletLedger) Apply(ctx context.Context, userID uuid.UUID, orderID *uuid.UUID, amount float64, t models.TransactionType, gateway models.Gateway, reference *string) (*models.Transaction, error) {
	args := m.Called(ctx, userID, orderID, amount, t, gateway, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *mockWalletLedger) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func TestWalletService_Deposit_ForbiddenForStranger(t *testing.T) {
	svc := NewWalletService(new(mockWalletLedger))
	actor := models.Actor{ID: uuidMust(), Role: models.RoleClient}

	_, err := svc.Deposit(context.Background(), actor, uuidMust(), 500, models.GatewayManual, nil)

	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestWalletService_Deposit_RejectsNonPositiveAmount(t *testing.T) {
	svc := NewWalletService(new(mockWalletLedger))
	actor := models.Actor{ID: uuidMust(), Role: models.RoleClient}

	_, err := svc.Deposit(context.Background(), actor, actor.ID, 0, models.GatewayManual, nil)

	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrCodeValidation, appErr.Code)
}

func TestWalletService_Deposit_SelfTopUp(t *testing.T) {
	ledger := new(mockWalletLedger)
	actor := models.Actor{ID: uuidMust(), Role: models.RoleClient}
	tx := &models.Transaction{ID: uuidMust(), Amount: 500}

	ledger.On("Apply", mock.Anything, actor.ID, (*uuid.UUID)(nil), 500.0,
		models.TransactionTypeDeposit, models.GatewayManual, (*string)(nil)).Return(tx, nil)

	svc := NewWalletService(ledger)

	got, err := svc.Deposit(context.Background(), actor, actor.ID, 500, models.GatewayManual, nil)

	assert.NoError(t, err)
	assert.Equal(t, tx.ID, got.ID)
	ledger.AssertExpectations(t)
}

func TestWalletService_Withdraw_BelowMinimum(t *testing.T) {
	svc := NewWalletService(new(mockWalletLedger))
	actor := models.Actor{ID: uuidMust(), Role: models.RoleFreelancer}

	_, err := svc.Withdraw(context.Background(), actor, MinWithdrawalAmount-1)

	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrCodeValidation, appErr.Code)
}

func TestWalletService_Withdraw(t *testing.T) {
	ledger := new(mockWalletLedger)
	actor := models.Actor{ID: uuidMust(), Role: models.RoleFreelancer}
	tx := &models.Transaction{ID: uuidMust(), Amount: 250}

	ledger.On("Apply", mock.Anything, actor.ID, (*uuid.UUID)(nil), 250.0,
		models.TransactionTypeWithdrawal, models.GatewayManual, mock.Anything).Return(tx, nil)

	svc := NewWalletService(ledger)

	got, err := svc.Withdraw(context.Background(), actor, 250)

	assert.NoError(t, err)
	assert.Equal(t, tx.ID, got.ID)
	ledger.AssertExpectations(t)
}

// Некорректные limit и offset приводятся к безопасным значениям.
func TestWalletService_Transactions_NormalizesPaging(t *testing.T) {
	ledger := new(mockWalletLedger)
	actor := models.Actor{ID: uuidMust(), Role: models.RoleFreelancer}

	ledger.On("ListTransactions", mock.Anything, actor.ID, 50, 0).Return([]models.Transaction{}, nil)

	svc := NewWalletService(ledger)

	_, err := svc.Transactions(context.Background(), actor, -5, -10)

	assert.NoError(t, err)
	ledger.AssertExpectations(t)
}
