package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Типы транзакций кошелька.
type TransactionType string

const (
	TransactionTypeDeposit       TransactionType = "deposit"
	TransactionTypeWithdrawal    TransactionType = "withdrawal"
	TransactionTypeEscrowHold    TransactionType = "escrow_hold"
	TransactionTypeEscrowRelease TransactionType = "escrow_release"
	TransactionTypeRefund        TransactionType = "refund"
)

// Статусы транзакций.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// Gateway — источник платежа.
type Gateway string

const (
	GatewayPayHere Gateway = "payhere"
	GatewayStripe  Gateway = "stripe"
	GatewayManual  Gateway = "manual"
)

// Ошибки применения балансовых правил.
var (
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrUnknownTransactionType = errors.New("unknown transaction type")
)

// Wallet — кошелёк пользователя. Изменяется только через леджер,
// инварианты Available >= 0 и Locked >= 0 сохраняются всегда.
type Wallet struct {
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Available float64   `db:"available" json:"available"`
	Locked    float64   `db:"locked" json:"locked"`
	Currency  string    `db:"currency" json:"currency"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Apply применяет балансовое правило типа транзакции к кошельку.
// Операция либо выполняется целиком, либо не меняет балансы вовсе.
func (w *Wallet) Apply(amount float64, t TransactionType) error {
	switch t {
	case TransactionTypeDeposit:
		w.Available += amount
	case TransactionTypeWithdrawal:
		if w.Available < amount {
			return ErrInsufficientFunds
		}
		w.Available -= amount
	case TransactionTypeEscrowHold:
		if w.Available < amount {
			return ErrInsufficientFunds
		}
		w.Available -= amount
		w.Locked += amount
	case TransactionTypeEscrowRelease:
		// Разблокировка средств заказчика в пользу исполнителя: на стороне
		// владельца эскроу уменьшается только замороженный остаток.
		if w.Locked < amount {
			return ErrInsufficientFunds
		}
		w.Locked -= amount
	case TransactionTypeRefund:
		if w.Locked < amount {
			return ErrInsufficientFunds
		}
		w.Locked -= amount
		w.Available += amount
	default:
		return ErrUnknownTransactionType
	}
	return nil
}

// Transaction — неизменяемая запись одной операции леджера.
// После создания никогда не изменяется и не удаляется.
type Transaction struct {
	ID        uuid.UUID         `db:"id" json:"id"`
	UserID    uuid.UUID         `db:"user_id" json:"user_id"`
	OrderID   *uuid.UUID        `db:"order_id" json:"order_id,omitempty"`
	Amount    float64           `db:"amount" json:"amount"`
	Type      TransactionType   `db:"type" json:"type"`
	Status    TransactionStatus `db:"status" json:"status"`
	Gateway   Gateway           `db:"gateway" json:"gateway"`
	Reference *string           `db:"reference" json:"reference,omitempty"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`
}
