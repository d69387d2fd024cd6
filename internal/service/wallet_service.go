package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/marketplace-backend/internal/models"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
)

// MinWithdrawalAmount — минимальная сумма вывода средств.
const MinWithdrawalAmount = 100.0

// WalletLedger описывает операции леджера для сервиса кошелька.
type WalletLedger interface {
	GetWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	Apply(ctx context.Context, userID uuid.UUID, orderID *uuid.UUID, amount float64, t models.TransactionType, gateway models.Gateway, reference *string) (*models.Transaction, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error)
}

// WalletService — операции пользователя со своим кошельком.
type WalletService struct {
	ledger WalletLedger
}

func NewWalletService(ledger WalletLedger) *WalletService {
	return &WalletService{ledger: ledger}
}

// Balance возвращает кошелёк инициатора.
func (s *WalletService) Balance(ctx context.Context, actor models.Actor) (*models.Wallet, error) {
	return s.ledger.GetWallet(ctx, actor.ID)
}

// Deposit пополняет доступный баланс. Источник — подтверждённый платёж
// шлюза или ручная операция администратора.
func (s *WalletService) Deposit(ctx context.Context, actor models.Actor, userID uuid.UUID, amount float64, gateway models.Gateway, reference *string) (*models.Transaction, error) {
	if actor.Role != models.RoleGateway && !actor.IsAdmin() && actor.ID != userID {
		return nil, apperror.ErrForbidden
	}
	if amount <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "сумма пополнения должна быть положительной")
	}
	return s.ledger.Apply(ctx, userID, nil, amount, models.TransactionTypeDeposit, gateway, reference)
}

// Withdraw списывает средства с доступного баланса инициатора.
func (s *WalletService) Withdraw(ctx context.Context, actor models.Actor, amount float64) (*models.Transaction, error) {
	if amount < MinWithdrawalAmount {
		return nil, apperror.Newf(apperror.ErrCodeValidation,
			"минимальная сумма вывода — %.0f", MinWithdrawalAmount)
	}
	reference := "Вывод средств"
	return s.ledger.Apply(ctx, actor.ID, nil, amount, models.TransactionTypeWithdrawal, models.GatewayManual, &reference)
}

// Transactions возвращает журнал операций инициатора, новые сверху.
func (s *WalletService) Transactions(ctx context.Context, actor models.Actor, limit, offset int) ([]models.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.ledger.ListTransactions(ctx, actor.ID, limit, offset)
}
