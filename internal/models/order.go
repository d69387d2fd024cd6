package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus константы статусов заказа.
type OrderStatus string

const (
	OrderStatusAwaitingPayment   OrderStatus = "awaiting_payment"
	OrderStatusActive            OrderStatus = "active"
	OrderStatusDelivered         OrderStatus = "delivered"
	OrderStatusRevisionRequested OrderStatus = "revision_requested"
	OrderStatusDisputed          OrderStatus = "disputed"
	OrderStatusCompleted         OrderStatus = "completed"
	OrderStatusCancelled         OrderStatus = "cancelled"
)

// Terminal сообщает, является ли статус конечным.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// EscrowStatus отражает, где сейчас находится сумма заказа.
type EscrowStatus string

const (
	EscrowStatusNone     EscrowStatus = "none"
	EscrowStatusHeld     EscrowStatus = "held"
	EscrowStatusReleased EscrowStatus = "released"
	EscrowStatusRefunded EscrowStatus = "refunded"
)

// CancelledBy фиксирует, кто отменил заказ.
type CancelledBy string

const (
	CancelledByClient     CancelledBy = "client"
	CancelledByFreelancer CancelledBy = "freelancer"
	CancelledByAdmin      CancelledBy = "admin"
)

// DefaultMaxRevisions — лимит правок, если при создании заказа не задан свой.
const DefaultMaxRevisions = 3

// Order описывает оплачиваемую сделку между заказчиком и фрилансером.
// Заказы никогда не удаляются: конечные статусы — completed и cancelled.
type Order struct {
	ID               uuid.UUID    `db:"id" json:"id"`
	JobID            uuid.UUID    `db:"job_id" json:"job_id"`
	ClientID         uuid.UUID    `db:"client_id" json:"client_id"`
	FreelancerID     uuid.UUID    `db:"freelancer_id" json:"freelancer_id"`
	Price            float64      `db:"price" json:"price"`
	Status           OrderStatus  `db:"status" json:"status"`
	EscrowStatus     EscrowStatus `db:"escrow_status" json:"escrow_status"`
	CurrentRevision  int          `db:"current_revision" json:"current_revision"`
	MaxRevisions     int          `db:"max_revisions" json:"max_revisions"`
	RevisionComment  *string      `db:"revision_comment" json:"revision_comment,omitempty"`
	PaymentProofURL  *string      `db:"payment_proof_url" json:"payment_proof_url,omitempty"`
	GatewayPaymentID *string      `db:"gateway_payment_id" json:"gateway_payment_id,omitempty"`
	PaidAt           *time.Time   `db:"paid_at" json:"paid_at,omitempty"`
	CancelledBy      *CancelledBy `db:"cancelled_by" json:"cancelled_by,omitempty"`
	DisputeReason    *string      `db:"dispute_reason" json:"dispute_reason,omitempty"`
	DisputedBy       *uuid.UUID   `db:"disputed_by" json:"disputed_by,omitempty"`
	MediationResult  *string      `db:"mediation_result" json:"mediation_result,omitempty"`
	MediatedBy       *uuid.UUID   `db:"mediated_by" json:"mediated_by,omitempty"`
	CreatedAt        time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time    `db:"updated_at" json:"updated_at"`

	Deliverables []Deliverable `json:"deliverables,omitempty"`
}

// Deliverable — одна сдача работы по заказу. Записи только добавляются,
// версии строго возрастают начиная с 1.
type Deliverable struct {
	ID          uuid.UUID `db:"id" json:"id"`
	OrderID     uuid.UUID `db:"order_id" json:"order_id"`
	Version     int       `db:"version" json:"version"`
	URL         string    `db:"url" json:"url"`
	Comment     *string   `db:"comment" json:"comment,omitempty"`
	SubmittedAt time.Time `db:"submitted_at" json:"submitted_at"`
}
