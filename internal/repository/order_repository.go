package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/marketplace-backend/internal/models"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
)

const orderColumns = `id, job_id, client_id, freelancer_id, price, status, escrow_status,
	current_revision, max_revisions, revision_comment, payment_proof_url, gateway_payment_id,
	paid_at, cancelled_by, dispute_reason, disputed_by, mediation_result, mediated_by,
	created_at, updated_at`

// OrderRepository отвечает за заказы и их переходы. Каждый переход
// выполняется в транзакции с блокировкой строки заказа и проверкой
// исходного статуса, поэтому конкурирующие переходы не теряются.
type OrderRepository struct {
	db *sqlx.DB
}

func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// GetByID возвращает заказ вместе со списком сдач.
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.GetContext(ctx, &order, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrOrderNotFound
		}
		return nil, fmt.Errorf("order repository: get by id %w", err)
	}

	deliverables, err := r.ListDeliverables(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Deliverables = deliverables

	return &order, nil
}

// ListByClient возвращает заказы заказчика, новые сверху.
func (r *OrderRepository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.SelectContext(ctx, &orders,
		`SELECT `+orderColumns+` FROM orders WHERE client_id = $1 ORDER BY created_at DESC`, clientID)
	if err != nil {
		return nil, fmt.Errorf("order repository: list by client %w", err)
	}
	return orders, nil
}

// ListByFreelancer возвращает заказы фрилансера, новые сверху.
func (r *OrderRepository) ListByFreelancer(ctx context.Context, freelancerID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.SelectContext(ctx, &orders,
		`SELECT `+orderColumns+` FROM orders WHERE freelancer_id = $1 ORDER BY created_at DESC`, freelancerID)
	if err != nil {
		return nil, fmt.Errorf("order repository: list by freelancer %w", err)
	}
	return orders, nil
}

// ListDeliverables возвращает сдачи заказа по возрастанию версии.
func (r *OrderRepository) ListDeliverables(ctx context.Context, orderID uuid.UUID) ([]models.Deliverable, error) {
	var deliverables []models.Deliverable
	err := r.db.SelectContext(ctx, &deliverables, `
		SELECT id, order_id, version, url, comment, submitted_at
		FROM order_deliverables WHERE order_id = $1 ORDER BY version
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("order repository: list deliverables %w", err)
	}
	return deliverables, nil
}

// AcceptProposal принимает отклик: создаёт заказ в awaiting_payment,
// помечает отклик принятым, остальные отклики задания отклонёнными,
// а задание переводит в in_progress. Всё в одной транзакции.
func (r *OrderRepository) AcceptProposal(ctx context.Context, proposalID uuid.UUID, maxRevisions int) (*models.Order, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var proposal models.Proposal
	err = tx.GetContext(ctx, &proposal, `
		SELECT id, job_id, freelancer_id, cover_letter, quote, estimated_days, status, created_at, updated_at
		FROM proposals WHERE id = $1 FOR UPDATE
	`, proposalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrProposalNotFound
		}
		return nil, fmt.Errorf("order repository: accept proposal %w", err)
	}
	if proposal.Status != models.ProposalStatusPending {
		return nil, apperror.StatusConflict(string(models.ProposalStatusPending), string(proposal.Status))
	}

	var job models.Job
	err = tx.GetContext(ctx, &job, `
		SELECT id, client_id, title, description, category, budget, skills, status, deadline_at, created_at, updated_at
		FROM jobs WHERE id = $1 FOR UPDATE
	`, proposal.JobID)
	if err != nil {
		return nil, fmt.Errorf("order repository: accept proposal job %w", err)
	}
	if job.Status != models.JobStatusOpen {
		return nil, apperror.StatusConflict(string(models.JobStatusOpen), string(job.Status))
	}

	var order models.Order
	err = tx.GetContext(ctx, &order, `
		INSERT INTO orders (job_id, client_id, freelancer_id, price, max_revisions)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+orderColumns+`
	`, job.ID, job.ClientID, proposal.FreelancerID, proposal.Quote, maxRevisions)
	if err != nil {
		return nil, fmt.Errorf("order repository: accept proposal insert order %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE proposals SET status = $2, updated_at = NOW() WHERE id = $1`,
		proposal.ID, models.ProposalStatusAccepted); err != nil {
		return nil, fmt.Errorf("order repository: accept proposal update proposal %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE proposals SET status = $2, updated_at = NOW() WHERE job_id = $1 AND status = 'pending'`,
		job.ID, models.ProposalStatusRejected); err != nil {
		return nil, fmt.Errorf("order repository: accept proposal reject rest %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE jobs SET status = $2, updated_at = NOW() WHERE id = $1`,
		job.ID, models.JobStatusInProgress); err != nil {
		return nil, fmt.Errorf("order repository: accept proposal update job %w", err)
	}

	return &order, tx.Commit()
}

// DirectHire создаёт заказ без отклика: заказчик нанимает фрилансера напрямую.
func (r *OrderRepository) DirectHire(ctx context.Context, jobID, freelancerID uuid.UUID, price float64, maxRevisions int) (*models.Order, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var jobStatus models.JobStatus
	err = tx.GetContext(ctx, &jobStatus, `SELECT status FROM jobs WHERE id = $1 FOR UPDATE`, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrJobNotFound
		}
		return nil, fmt.Errorf("order repository: direct hire %w", err)
	}
	if jobStatus != models.JobStatusOpen {
		return nil, apperror.StatusConflict(string(models.JobStatusOpen), string(jobStatus))
	}

	var clientID uuid.UUID
	if err := tx.GetContext(ctx, &clientID, `SELECT client_id FROM jobs WHERE id = $1`, jobID); err != nil {
		return nil, fmt.Errorf("order repository: direct hire client %w", err)
	}

	var order models.Order
	err = tx.GetContext(ctx, &order, `
		INSERT INTO orders (job_id, client_id, freelancer_id, price, max_revisions)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+orderColumns+`
	`, jobID, clientID, freelancerID, price, maxRevisions)
	if err != nil {
		return nil, fmt.Errorf("order repository: direct hire insert order %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE jobs SET status = $2, updated_at = NOW() WHERE id = $1`,
		jobID, models.JobStatusInProgress); err != nil {
		return nil, fmt.Errorf("order repository: direct hire update job %w", err)
	}

	return &order, tx.Commit()
}

// AppendDeliverable добавляет новую версию сдачи и переводит заказ в delivered.
// Разрешено из active и revision_requested.
func (r *OrderRepository) AppendDeliverable(ctx context.Context, orderID uuid.UUID, url string, comment *string) (*models.Order, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	order, err := lockOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusActive && order.Status != models.OrderStatusRevisionRequested {
		return nil, apperror.StatusConflict(string(models.OrderStatusActive), string(order.Status))
	}

	var deliverable models.Deliverable
	err = tx.GetContext(ctx, &deliverable, `
		INSERT INTO order_deliverables (order_id, version, url, comment)
		VALUES ($1, (SELECT COALESCE(MAX(version), 0) + 1 FROM order_deliverables WHERE order_id = $1), $2, $3)
		RETURNING id, order_id, version, url, comment, submitted_at
	`, orderID, url, comment)
	if err != nil {
		return nil, fmt.Errorf("order repository: append deliverable %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`,
		orderID, models.OrderStatusDelivered); err != nil {
		return nil, fmt.Errorf("order repository: append deliverable update order %w", err)
	}

	order.Status = models.OrderStatusDelivered
	order.Deliverables = append(order.Deliverables, deliverable)

	return order, tx.Commit()
}

// RequestRevision возвращает заказ в работу с комментарием заказчика.
// Лимит правок контролируется здесь же, под блокировкой строки.
func (r *OrderRepository) RequestRevision(ctx context.Context, orderID uuid.UUID, comment string) (*models.Order, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	order, err := lockOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusDelivered {
		return nil, apperror.StatusConflict(string(models.OrderStatusDelivered), string(order.Status))
	}
	if order.CurrentRevision >= order.MaxRevisions {
		return nil, apperror.Newf(apperror.ErrCodeRevisionLimitReached,
			"лимит правок исчерпан: %d из %d", order.CurrentRevision, order.MaxRevisions)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $2, current_revision = current_revision + 1, revision_comment = $3, updated_at = NOW()
		WHERE id = $1
	`, orderID, models.OrderStatusRevisionRequested, comment); err != nil {
		return nil, fmt.Errorf("order repository: request revision %w", err)
	}

	order.Status = models.OrderStatusRevisionRequested
	order.CurrentRevision++
	order.RevisionComment = &comment

	return order, tx.Commit()
}

// RaiseDispute открывает спор по заказу. Разрешено из active, delivered
// и revision_requested.
func (r *OrderRepository) RaiseDispute(ctx context.Context, orderID, raisedBy uuid.UUID, reason string) (*models.Order, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	order, err := lockOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	switch order.Status {
	case models.OrderStatusActive, models.OrderStatusDelivered, models.OrderStatusRevisionRequested:
	default:
		return nil, apperror.StatusConflict(string(models.OrderStatusActive), string(order.Status))
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE orders SET status = $2, dispute_reason = $3, disputed_by = $4, updated_at = NOW()
		WHERE id = $1
	`, orderID, models.OrderStatusDisputed, reason, raisedBy); err != nil {
		return nil, fmt.Errorf("order repository: raise dispute %w", err)
	}

	order.Status = models.OrderStatusDisputed
	order.DisputeReason = &reason
	order.DisputedBy = &raisedBy

	return order, tx.Commit()
}

// CancelUnpaid отменяет неоплаченный заказ. Эскроу ещё не создан, поэтому
// возврат средств не требуется; оплаченные заказы отменяются только через
// возврат эскроу.
func (r *OrderRepository) CancelUnpaid(ctx context.Context, orderID uuid.UUID, by models.CancelledBy) (*models.Order, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	order, err := lockOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusAwaitingPayment {
		return nil, apperror.StatusConflict(string(models.OrderStatusAwaitingPayment), string(order.Status))
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE orders SET status = $2, cancelled_by = $3, updated_at = NOW() WHERE id = $1
	`, orderID, models.OrderStatusCancelled, by); err != nil {
		return nil, fmt.Errorf("order repository: cancel unpaid %w", err)
	}

	order.Status = models.OrderStatusCancelled
	order.CancelledBy = &by

	return order, tx.Commit()
}

// SetPaymentProof сохраняет ссылку на загруженное подтверждение оплаты.
func (r *OrderRepository) SetPaymentProof(ctx context.Context, orderID uuid.UUID, url string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET payment_proof_url = $2, updated_at = NOW() WHERE id = $1`, orderID, url)
	if err != nil {
		return fmt.Errorf("order repository: set payment proof %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return apperror.ErrOrderNotFound
	}
	return nil
}

// ListDisputed возвращает все заказы в споре для очереди медиации.
func (r *OrderRepository) ListDisputed(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.SelectContext(ctx, &orders,
		`SELECT `+orderColumns+` FROM orders WHERE status = $1 ORDER BY updated_at`, models.OrderStatusDisputed)
	if err != nil {
		return nil, fmt.Errorf("order repository: list disputed %w", err)
	}
	return orders, nil
}
