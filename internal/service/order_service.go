package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignatzorin/marketplace-backend/internal/goroutine"
	"github.com/ignatzorin/marketplace-backend/internal/logger"
	"github.com/ignatzorin/marketplace-backend/internal/models"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
	"github.com/ignatzorin/marketplace-backend/internal/repository"
	"github.com/ignatzorin/marketplace-backend/internal/validation"
)

// OrderRepository описывает зависимости OrderService от хранилища заказов.
type OrderRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]models.Order, error)
	ListByFreelancer(ctx context.Context, freelancerID uuid.UUID) ([]models.Order, error)
	ListDisputed(ctx context.Context) ([]models.Order, error)
	AcceptProposal(ctx context.Context, proposalID uuid.UUID, maxRevisions int) (*models.Order, error)
	DirectHire(ctx context.Context, jobID, freelancerID uuid.UUID, price float64, maxRevisions int) (*models.Order, error)
	AppendDeliverable(ctx context.Context, orderID uuid.UUID, url string, comment *string) (*models.Order, error)
	RequestRevision(ctx context.Context, orderID uuid.UUID, comment string) (*models.Order, error)
	RaiseDispute(ctx context.Context, orderID, raisedBy uuid.UUID, reason string) (*models.Order, error)
	CancelUnpaid(ctx context.Context, orderID uuid.UUID, by models.CancelledBy) (*models.Order, error)
	SetPaymentProof(ctx context.Context, orderID uuid.UUID, url string) error
}

// EscrowLedger описывает эскроу-операции леджера. Переход заказа и движение
// средств в этих операциях атомарны.
type EscrowLedger interface {
	HoldEscrow(ctx context.Context, orderID uuid.UUID, gateway models.Gateway, gatewayPaymentID *string) (*models.Order, error)
	ReleaseEscrow(ctx context.Context, orderID uuid.UUID, from models.OrderStatus, mediatedBy *uuid.UUID, mediationResult *string) (*models.Order, error)
	RefundEscrow(ctx context.Context, orderID uuid.UUID, from models.OrderStatus, cancelledBy models.CancelledBy, mediatedBy *uuid.UUID, mediationResult *string) (*models.Order, error)
}

// ProposalReader даёт доступ к откликам и заданиям для проверок владения.
type ProposalReader interface {
	GetProposalByID(ctx context.Context, id uuid.UUID) (*models.Proposal, error)
	GetJobByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
}

// Notifier отправляет уведомление пользователю.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, title, message string, severity models.Severity, link *string)
}

// ReputationUpdater пересчитывает производные метрики участников.
type ReputationUpdater interface {
	RecalculateFreelancer(ctx context.Context, freelancerID uuid.UUID) error
	RecalculateClient(ctx context.Context, clientID uuid.UUID) error
}

// MediationOutcome — решение медиатора по спору.
type MediationOutcome string

const (
	// MediationOutcomeRelease — решение в пользу фрилансера, средства выплачиваются.
	MediationOutcomeRelease MediationOutcome = "release"
	// MediationOutcomeRefund — решение в пользу заказчика, средства возвращаются.
	MediationOutcomeRefund MediationOutcome = "refund"
)

// OrderService управляет жизненным циклом заказа. Все методы принимают
// инициатора явно и проверяют его права до обращения к хранилищу.
type OrderService struct {
	orders     OrderRepository
	ledger     EscrowLedger
	proposals  ProposalReader
	notifier   Notifier
	reputation ReputationUpdater
}

// NewOrderService создаёт сервис заказов. notifier и reputation могут быть nil.
func NewOrderService(orders OrderRepository, ledger EscrowLedger, proposals ProposalReader, notifier Notifier, reputation ReputationUpdater) *OrderService {
	return &OrderService{
		orders:     orders,
		ledger:     ledger,
		proposals:  proposals,
		notifier:   notifier,
		reputation: reputation,
	}
}

// Get возвращает заказ. Доступен только сторонам заказа и администратору.
func (s *OrderService) Get(ctx context.Context, actor models.Actor, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := requireParty(actor, order); err != nil {
		return nil, err
	}
	return order, nil
}

// ListMine возвращает заказы инициатора в зависимости от его роли.
func (s *OrderService) ListMine(ctx context.Context, actor models.Actor) ([]models.Order, error) {
	switch actor.Role {
	case models.RoleClient:
		return s.orders.ListByClient(ctx, actor.ID)
	case models.RoleFreelancer:
		return s.orders.ListByFreelancer(ctx, actor.ID)
	default:
		return nil, apperror.ErrForbidden
	}
}

// ListDisputed возвращает очередь споров. Только для администратора.
func (s *OrderService) ListDisputed(ctx context.Context, actor models.Actor) ([]models.Order, error) {
	if !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	return s.orders.ListDisputed(ctx)
}

// AcceptProposal принимает отклик и создаёт заказ в awaiting_payment.
// Доступно только владельцу задания.
func (s *OrderService) AcceptProposal(ctx context.Context, actor models.Actor, proposalID uuid.UUID) (*models.Order, error) {
	proposal, err := s.proposals.GetProposalByID(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	job, err := s.proposals.GetJobByID(ctx, proposal.JobID)
	if err != nil {
		return nil, err
	}
	if job.ClientID != actor.ID && !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}

	order, err := s.orders.AcceptProposal(ctx, proposalID, models.DefaultMaxRevisions)
	if err != nil {
		return nil, err
	}

	s.notify(order.FreelancerID, "Отклик принят",
		fmt.Sprintf("Ваш отклик на задание %q принят, заказ ожидает оплаты", job.Title),
		models.SeveritySuccess, orderLink(order.ID))

	return order, nil
}

// DirectHire создаёт заказ без отклика: заказчик нанимает фрилансера напрямую.
func (s *OrderService) DirectHire(ctx context.Context, actor models.Actor, jobID, freelancerID uuid.UUID, price float64) (*models.Order, error) {
	if err := validation.ValidatePrice("цена заказа", price); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	job, err := s.proposals.GetJobByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.ClientID != actor.ID && !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}

	order, err := s.orders.DirectHire(ctx, jobID, freelancerID, price, models.DefaultMaxRevisions)
	if err != nil {
		return nil, err
	}

	s.notify(order.FreelancerID, "Новый заказ",
		fmt.Sprintf("Вас наняли напрямую по заданию %q, заказ ожидает оплаты", job.Title),
		models.SeveritySuccess, orderLink(order.ID))

	return order, nil
}

// ConfirmPayment подтверждает оплату и замораживает средства в эскроу.
// Вызывается шлюзом после проверки подписи или администратором вручную.
// Повторные подтверждения того же заказа идемпотентны.
func (s *OrderService) ConfirmPayment(ctx context.Context, actor models.Actor, orderID uuid.UUID, gateway models.Gateway, gatewayPaymentID *string) (*models.Order, error) {
	if actor.Role != models.RoleGateway && !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}

	order, err := s.ledger.HoldEscrow(ctx, orderID, gateway, gatewayPaymentID)
	if err != nil {
		if errors.Is(err, repository.ErrEscrowAlreadyHeld) {
			logger.Log.Infof("order service: повторное подтверждение оплаты заказа %s, пропускаем", orderID)
			return s.orders.GetByID(ctx, orderID)
		}
		return nil, err
	}

	s.notify(order.ClientID, "Оплата получена",
		"Средства заморожены, заказ переведён в работу", models.SeveritySuccess, orderLink(order.ID))
	s.notify(order.FreelancerID, "Заказ оплачен",
		"Заказчик оплатил заказ, можно приступать к работе", models.SeveritySuccess, orderLink(order.ID))

	return order, nil
}

// AttachPaymentProof сохраняет ссылку на загруженное подтверждение оплаты.
// Доступно заказчику, пока заказ ожидает оплаты.
func (s *OrderService) AttachPaymentProof(ctx context.Context, actor models.Actor, orderID uuid.UUID, url string) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.ClientID != actor.ID && !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	if order.Status != models.OrderStatusAwaitingPayment {
		return nil, apperror.StatusConflict(string(models.OrderStatusAwaitingPayment), string(order.Status))
	}

	if err := s.orders.SetPaymentProof(ctx, orderID, url); err != nil {
		return nil, err
	}
	order.PaymentProofURL = &url

	return order, nil
}

// Deliver сдаёт работу: добавляет новую версию и переводит заказ в delivered.
// Доступно только исполнителю заказа.
func (s *OrderService) Deliver(ctx context.Context, actor models.Actor, orderID uuid.UUID, url string, comment *string) (*models.Order, error) {
	if err := validation.ValidateURL("ссылка на результат", url); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.FreelancerID != actor.ID {
		return nil, apperror.ErrForbidden
	}

	order, err = s.orders.AppendDeliverable(ctx, orderID, url, comment)
	if err != nil {
		return nil, err
	}

	s.notify(order.ClientID, "Работа сдана",
		fmt.Sprintf("Фрилансер сдал версию %d, проверьте результат", len(order.Deliverables)),
		models.SeverityInfo, orderLink(order.ID))

	return order, nil
}

// ApproveDelivery принимает работу: освобождает эскроу в пользу фрилансера
// и завершает заказ. Доступно только заказчику.
func (s *OrderService) ApproveDelivery(ctx context.Context, actor models.Actor, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.ClientID != actor.ID {
		return nil, apperror.ErrForbidden
	}

	order, err = s.ledger.ReleaseEscrow(ctx, orderID, models.OrderStatusDelivered, nil, nil)
	if err != nil {
		return nil, err
	}

	s.notify(order.FreelancerID, "Заказ завершён",
		"Заказчик принял работу, средства зачислены на ваш баланс", models.SeveritySuccess, orderLink(order.ID))

	s.recalculate(order)

	return order, nil
}

// RequestRevision возвращает сданную работу на доработку. Доступно только
// заказчику и только пока не исчерпан лимит правок.
func (s *OrderService) RequestRevision(ctx context.Context, actor models.Actor, orderID uuid.UUID, comment string) (*models.Order, error) {
	if err := validation.ValidateLength("комментарий к правкам", comment, 1, validation.MaxCommentLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.ClientID != actor.ID {
		return nil, apperror.ErrForbidden
	}

	order, err = s.orders.RequestRevision(ctx, orderID, comment)
	if err != nil {
		return nil, err
	}

	s.notify(order.FreelancerID, "Запрошены правки",
		fmt.Sprintf("Заказчик запросил правки (%d из %d): %s", order.CurrentRevision, order.MaxRevisions, comment),
		models.SeverityWarning, orderLink(order.ID))

	return order, nil
}

// RaiseDispute открывает спор по заказу. Доступно обеим сторонам.
func (s *OrderService) RaiseDispute(ctx context.Context, actor models.Actor, orderID uuid.UUID, reason string) (*models.Order, error) {
	if err := validation.ValidateLength("причина спора", reason, 1, validation.MaxDisputeReason); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.ClientID != actor.ID && order.FreelancerID != actor.ID {
		return nil, apperror.ErrForbidden
	}

	order, err = s.orders.RaiseDispute(ctx, orderID, actor.ID, reason)
	if err != nil {
		return nil, err
	}

	other := order.ClientID
	if actor.ID == order.ClientID {
		other = order.FreelancerID
	}
	s.notify(other, "Открыт спор",
		fmt.Sprintf("По заказу открыт спор: %s", reason), models.SeverityError, orderLink(order.ID))

	s.recalculate(order)

	return order, nil
}

// Mediate разрешает спор решением администратора: release выплачивает
// средства фрилансеру, refund возвращает их заказчику.
func (s *OrderService) Mediate(ctx context.Context, actor models.Actor, orderID uuid.UUID, outcome MediationOutcome, result string) (*models.Order, error) {
	if !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	if err := validation.ValidateLength("решение медиатора", result, 1, validation.MaxCommentLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	var (
		order *models.Order
		err   error
	)
	switch outcome {
	case MediationOutcomeRelease:
		order, err = s.ledger.ReleaseEscrow(ctx, orderID, models.OrderStatusDisputed, &actor.ID, &result)
	case MediationOutcomeRefund:
		order, err = s.ledger.RefundEscrow(ctx, orderID, models.OrderStatusDisputed, models.CancelledByAdmin, &actor.ID, &result)
	default:
		return nil, apperror.New(apperror.ErrCodeValidation, "недопустимое решение медиатора")
	}
	if err != nil {
		return nil, err
	}

	s.notify(order.ClientID, "Спор разрешён", result, models.SeverityInfo, orderLink(order.ID))
	s.notify(order.FreelancerID, "Спор разрешён", result, models.SeverityInfo, orderLink(order.ID))

	s.recalculate(order)

	return order, nil
}

// Cancel отменяет неоплаченный заказ без движения средств. Доступно заказчику
// и администратору; отмена оплаченного заказа возможна только через спор.
func (s *OrderService) Cancel(ctx context.Context, actor models.Actor, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.ClientID != actor.ID && !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	if order.Status != models.OrderStatusAwaitingPayment {
		return nil, apperror.StatusConflict(string(models.OrderStatusAwaitingPayment), string(order.Status))
	}

	by := models.CancelledByClient
	if actor.IsAdmin() {
		by = models.CancelledByAdmin
	}

	order, err = s.orders.CancelUnpaid(ctx, orderID, by)
	if err != nil {
		return nil, err
	}

	s.notify(order.FreelancerID, "Заказ отменён", "Заказчик отменил неоплаченный заказ",
		models.SeverityWarning, orderLink(order.ID))

	s.recalculate(order)

	return order, nil
}

// notify отправляет уведомление в отдельной горутине, чтобы сбой доставки
// не влиял на завершившийся переход.
func (s *OrderService) notify(userID uuid.UUID, title, message string, severity models.Severity, link *string) {
	if s.notifier == nil {
		return
	}
	goroutine.SafeGo(func() {
		s.notifier.Notify(context.Background(), userID, title, message, severity, link)
	})
}

// recalculate запускает пересчёт метрик обеих сторон в фоне.
func (s *OrderService) recalculate(order *models.Order) {
	if s.reputation == nil {
		return
	}
	freelancerID, clientID := order.FreelancerID, order.ClientID
	goroutine.SafeGo(func() {
		if err := s.reputation.RecalculateFreelancer(context.Background(), freelancerID); err != nil {
			logger.Log.Errorf("order service: пересчёт метрик фрилансера %s: %v", freelancerID, err)
		}
		if err := s.reputation.RecalculateClient(context.Background(), clientID); err != nil {
			logger.Log.Errorf("order service: пересчёт метрик заказчика %s: %v", clientID, err)
		}
	})
}

func requireParty(actor models.Actor, order *models.Order) error {
	if actor.IsAdmin() || actor.ID == order.ClientID || actor.ID == order.FreelancerID {
		return nil
	}
	return apperror.ErrForbidden
}

func orderLink(orderID uuid.UUID) *string {
	link := "/orders/" + orderID.String()
	return &link
}
