package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/marketplace-backend/internal/models"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
)

// ErrEscrowAlreadyHeld возвращается при повторном подтверждении оплаты.
// Вызывающая сторона обязана трактовать его как успех (идемпотентность вебхуков).
var ErrEscrowAlreadyHeld = errors.New("escrow already held")

// WalletRepository — леджер: балансы кошельков и журнал транзакций.
// Каждая операция выполняется в одной транзакции БД с блокировкой строки
// кошелька; частичные эффекты не наблюдаемы другими читателями.
type WalletRepository struct {
	db *sqlx.DB
}

func NewWalletRepository(db *sqlx.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// GetWallet возвращает кошелёк пользователя, создаёт если не существует.
func (r *WalletRepository) GetWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	query := `
		INSERT INTO wallets (user_id, available, locked)
		VALUES ($1, 0, 0)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = NOW()
		RETURNING user_id, available, locked, currency, updated_at
	`
	if err := r.db.GetContext(ctx, &wallet, query, userID); err != nil {
		return nil, fmt.Errorf("wallet repository: get wallet %w", err)
	}
	return &wallet, nil
}

// Apply применяет одну операцию леджера к кошельку пользователя: читает
// текущие балансы под блокировкой, применяет балансовое правило типа,
// сохраняет новые балансы и добавляет запись в журнал. Либо всё, либо ничего.
func (r *WalletRepository) Apply(ctx context.Context, userID uuid.UUID, orderID *uuid.UUID, amount float64, t models.TransactionType, gateway models.Gateway, reference *string) (*models.Transaction, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	wallet, err := lockWallet(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	if err := wallet.Apply(amount, t); err != nil {
		if errors.Is(err, models.ErrInsufficientFunds) {
			return nil, apperror.ErrInsufficientFunds
		}
		return nil, fmt.Errorf("wallet repository: apply %s %w", t, err)
	}

	if err := saveBalances(ctx, tx, wallet); err != nil {
		return nil, err
	}

	transaction, err := appendTransaction(ctx, tx, userID, orderID, amount, t, gateway, reference)
	if err != nil {
		return nil, err
	}

	return transaction, tx.Commit()
}

// HoldEscrow подтверждает оплату заказа: замораживает цену на кошельке
// заказчика и переводит заказ awaiting_payment -> active в одной транзакции.
// Повторное подтверждение возвращает ErrEscrowAlreadyHeld без эффектов.
func (r *WalletRepository) HoldEscrow(ctx context.Context, orderID uuid.UUID, gateway models.Gateway, gatewayPaymentID *string) (*models.Order, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	order, err := lockOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	if err := ensureEscrowHoldable(order); err != nil {
		return nil, err
	}

	wallet, err := lockWallet(ctx, tx, order.ClientID)
	if err != nil {
		return nil, err
	}
	if err := wallet.Apply(order.Price, models.TransactionTypeEscrowHold); err != nil {
		if errors.Is(err, models.ErrInsufficientFunds) {
			return nil, apperror.ErrInsufficientFunds
		}
		return nil, err
	}
	if err := saveBalances(ctx, tx, wallet); err != nil {
		return nil, err
	}

	reference := fmt.Sprintf("Заморозка средств по заказу %s", orderID)
	if _, err := appendTransaction(ctx, tx, order.ClientID, &orderID, order.Price, models.TransactionTypeEscrowHold, gateway, &reference); err != nil {
		return nil, err
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $2, escrow_status = $3, paid_at = $4, gateway_payment_id = COALESCE($5, gateway_payment_id), updated_at = NOW()
		WHERE id = $1
	`, orderID, models.OrderStatusActive, models.EscrowStatusHeld, now, gatewayPaymentID)
	if err != nil {
		return nil, fmt.Errorf("wallet repository: hold escrow update order %w", err)
	}

	order.Status = models.OrderStatusActive
	order.EscrowStatus = models.EscrowStatusHeld
	order.PaidAt = &now
	if gatewayPaymentID != nil {
		order.GatewayPaymentID = gatewayPaymentID
	}

	return order, tx.Commit()
}

// ReleaseEscrow освобождает средства в пользу фрилансера и завершает заказ.
// from задаёт ожидаемый исходный статус (delivered при одобрении,
// disputed при медиации); несовпадение отклоняется без эффектов.
func (r *WalletRepository) ReleaseEscrow(ctx context.Context, orderID uuid.UUID, from models.OrderStatus, mediatedBy *uuid.UUID, mediationResult *string) (*models.Order, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	order, err := lockOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	if err := ensureEscrowHeld(order, from); err != nil {
		return nil, err
	}

	// Снимаем заморозку у заказчика.
	clientWallet, err := lockWallet(ctx, tx, order.ClientID)
	if err != nil {
		return nil, err
	}
	if err := clientWallet.Apply(order.Price, models.TransactionTypeEscrowRelease); err != nil {
		return nil, fmt.Errorf("wallet repository: release escrow %w", err)
	}
	if err := saveBalances(ctx, tx, clientWallet); err != nil {
		return nil, err
	}

	// Начисляем фрилансеру.
	if err := creditAvailable(ctx, tx, order.FreelancerID, order.Price); err != nil {
		return nil, err
	}

	reference := fmt.Sprintf("Оплата за заказ %s", orderID)
	if _, err := appendTransaction(ctx, tx, order.FreelancerID, &orderID, order.Price, models.TransactionTypeEscrowRelease, models.GatewayManual, &reference); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $2, escrow_status = $3, mediation_result = COALESCE($4, mediation_result),
		    mediated_by = COALESCE($5, mediated_by), updated_at = NOW()
		WHERE id = $1
	`, orderID, models.OrderStatusCompleted, models.EscrowStatusReleased, mediationResult, mediatedBy)
	if err != nil {
		return nil, fmt.Errorf("wallet repository: release escrow update order %w", err)
	}

	order.Status = models.OrderStatusCompleted
	order.EscrowStatus = models.EscrowStatusReleased
	if mediationResult != nil {
		order.MediationResult = mediationResult
		order.MediatedBy = mediatedBy
	}

	return order, tx.Commit()
}

// RefundEscrow возвращает средства заказчику и отменяет заказ.
func (r *WalletRepository) RefundEscrow(ctx context.Context, orderID uuid.UUID, from models.OrderStatus, cancelledBy models.CancelledBy, mediatedBy *uuid.UUID, mediationResult *string) (*models.Order, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	order, err := lockOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	if err := ensureEscrowHeld(order, from); err != nil {
		return nil, err
	}

	wallet, err := lockWallet(ctx, tx, order.ClientID)
	if err != nil {
		return nil, err
	}
	if err := wallet.Apply(order.Price, models.TransactionTypeRefund); err != nil {
		return nil, fmt.Errorf("wallet repository: refund escrow %w", err)
	}
	if err := saveBalances(ctx, tx, wallet); err != nil {
		return nil, err
	}

	reference := fmt.Sprintf("Возврат средств за отменённый заказ %s", orderID)
	if _, err := appendTransaction(ctx, tx, order.ClientID, &orderID, order.Price, models.TransactionTypeRefund, models.GatewayManual, &reference); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $2, escrow_status = $3, cancelled_by = $4, mediation_result = COALESCE($5, mediation_result),
		    mediated_by = COALESCE($6, mediated_by), updated_at = NOW()
		WHERE id = $1
	`, orderID, models.OrderStatusCancelled, models.EscrowStatusRefunded, cancelledBy, mediationResult, mediatedBy)
	if err != nil {
		return nil, fmt.Errorf("wallet repository: refund escrow update order %w", err)
	}

	order.Status = models.OrderStatusCancelled
	order.EscrowStatus = models.EscrowStatusRefunded
	order.CancelledBy = &cancelledBy
	if mediationResult != nil {
		order.MediationResult = mediationResult
		order.MediatedBy = mediatedBy
	}

	return order, tx.Commit()
}

// ListTransactions возвращает журнал операций пользователя.
func (r *WalletRepository) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	var transactions []models.Transaction
	err := r.db.SelectContext(ctx, &transactions, `
		SELECT id, user_id, order_id, amount, type, status, gateway, reference, created_at
		FROM transactions WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return transactions, err
}

// ensureEscrowHoldable проверяет, что заказ готов к заморозке средств:
// оплата ещё не подтверждена и средства не двигались. Повторная заморозка
// различается отдельно ради идемпотентности вебхуков.
func ensureEscrowHoldable(order *models.Order) error {
	if order.Status != models.OrderStatusAwaitingPayment {
		if order.EscrowStatus == models.EscrowStatusHeld {
			return ErrEscrowAlreadyHeld
		}
		return apperror.StatusConflict(string(models.OrderStatusAwaitingPayment), string(order.Status))
	}
	if order.EscrowStatus != models.EscrowStatusNone {
		return apperror.StatusConflict(string(models.EscrowStatusNone), string(order.EscrowStatus))
	}
	return nil
}

// ensureEscrowHeld проверяет, что заказ в ожидаемом исходном статусе и его
// средства всё ещё заморожены. Любое несовпадение отклоняет операцию до
// каких-либо движений по кошелькам.
func ensureEscrowHeld(order *models.Order, from models.OrderStatus) error {
	if order.Status != from {
		return apperror.StatusConflict(string(from), string(order.Status))
	}
	if order.EscrowStatus != models.EscrowStatusHeld {
		return apperror.StatusConflict(string(models.EscrowStatusHeld), string(order.EscrowStatus))
	}
	return nil
}

// lockWallet берёт строку кошелька под блокировку до конца транзакции,
// создавая кошелёк при первом обращении.
func lockWallet(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	query := `
		INSERT INTO wallets (user_id, available, locked)
		VALUES ($1, 0, 0)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = NOW()
		RETURNING user_id, available, locked, currency, updated_at
	`
	if err := tx.GetContext(ctx, &wallet, query, userID); err != nil {
		return nil, fmt.Errorf("wallet repository: lock wallet %w", err)
	}
	return &wallet, nil
}

func saveBalances(ctx context.Context, tx *sqlx.Tx, wallet *models.Wallet) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE wallets SET available = $2, locked = $3, updated_at = NOW()
		WHERE user_id = $1
	`, wallet.UserID, wallet.Available, wallet.Locked)
	if err != nil {
		return fmt.Errorf("wallet repository: save balances %w", err)
	}
	return nil
}

func creditAvailable(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount float64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO wallets (user_id, available, locked)
		VALUES ($1, $2, 0)
		ON CONFLICT (user_id) DO UPDATE SET available = wallets.available + $2, updated_at = NOW()
	`, userID, amount)
	if err != nil {
		return fmt.Errorf("wallet repository: credit available %w", err)
	}
	return nil
}

func appendTransaction(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, orderID *uuid.UUID, amount float64, t models.TransactionType, gateway models.Gateway, reference *string) (*models.Transaction, error) {
	var transaction models.Transaction
	err := tx.GetContext(ctx, &transaction, `
		INSERT INTO transactions (user_id, order_id, amount, type, status, gateway, reference)
		VALUES ($1, $2, $3, $4, 'completed', $5, $6)
		RETURNING id, user_id, order_id, amount, type, status, gateway, reference, created_at
	`, userID, orderID, amount, t, gateway, reference)
	if err != nil {
		return nil, fmt.Errorf("wallet repository: append transaction %w", err)
	}
	return &transaction, nil
}

func lockOrder(ctx context.Context, tx *sqlx.Tx, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := tx.GetContext(ctx, &order, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrOrderNotFound
		}
		return nil, fmt.Errorf("wallet repository: lock order %w", err)
	}
	return &order, nil
}
