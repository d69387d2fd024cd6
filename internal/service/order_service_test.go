package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/marketplace-backend/internal/models"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
	"github.com/ignatzorin/marketplace-backend/internal/repository"
)

func uuidMust() uuid.UUID {
	return uuid.New()
}

type mockOrderRepo struct {
	mock.Mock
}

func (m *mockOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockOrderRepo) ListByClient(ctx context.Context, clientID uuid.UUID) ([]models.Order, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *mockOrderRepo) ListByFreelancer(ctx context.Context, freelancerID uuid.UUID) ([]models.Order, error) {
	args := m.Called(ctx, freelancerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *mockOrderRepo) ListDisputed(ctx context.Context) ([]models.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *mockOrderRepo) AcceptProposal(ctx context.Context, proposalID uuid.UUID, maxRevisions int) (*models.Order, error) {
	args := m.Called(ctx, proposalID, maxRevisions)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockOrderRepo) DirectHire(ctx context.Context, jobID, freelancerID uuid.UUID, price float64, maxRevisions int) (*models.Order, error) {
	args := m.Called(ctx, jobID, freelancerID, price, maxRevisions)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockOrderRepo) AppendDeliverable(ctx context.Context, orderID uuid.UUID, url string, comment *string) (*models.Order, error) {
	args := m.Called(ctx, orderID, url, comment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockOrderRepo) RequestRevision(ctx context.Context, orderID uuid.UUID, comment string) (*models.Order, error) {
	args := m.Called(ctx, orderID, comment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockOrderRepo) RaiseDispute(ctx context.Context, orderID, raisedBy uuid.UUID, reason string) (*models.Order, error) {
	args := m.Called(ctx, orderID, raisedBy, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockOrderRepo) CancelUnpaid(ctx context.Context, orderID uuid.UUID, by models.CancelledBy) (*models.Order, error) {
	args := m.Called(ctx, orderID, by)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockOrderRepo) SetPaymentProof(ctx context.Context, orderID uuid.UUID, url string) error {
	args := m.Called(ctx, orderID, url)
	return args.Error(0)
}

type mockEscrowLedger struct {
	mock.Mock
}

func (m *mockEscrowLedger) HoldEscrow(ctx context.Context, orderID uuid.UUID, gateway models.Gateway, gatewayPaymentID *string) (*models.Order, error) {
	args := m.Called(ctx, orderID, gateway, gatewayPaymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockEscrowLedger) ReleaseEscrow(ctx context.Context, orderID uuid.UUID, from models.OrderStatus, mediatedBy *uuid.UUID, mediationResult *string) (*models.Order, error) {
	args := m.Called(ctx, orderID, from, mediatedBy, mediationResult)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockEscrowLedger) RefundEscrow(ctx context.Context, orderID uuid.UUID, from models.OrderStatus, cancelledBy models.CancelledBy, mediatedBy *uuid.UUID, mediationResult *string) (*models.Order, error) {
	args := m.Called(ctx, orderID, from, cancelledBy, mediatedBy, mediationResult)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

type mockProposalReader struct {
	mock.Mock
}

func (m *mockProposalReader) GetProposalByID(ctx context.Context, id uuid.UUID) (*models.Proposal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Proposal), args.Error(1)
}

func (m *mockProposalReader) GetJobByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Job), args.Error(1)
}

func newOrderFixture() *models.Order {
	return &models.Order{
		ID:           uuidMust(),
		JobID:        uuidMust(),
		ClientID:     uuidMust(),
		FreelancerID: uuidMust(),
		Price:        5000,
		Status:       models.OrderStatusActive,
		EscrowStatus: models.EscrowStatusHeld,
		MaxRevisions: models.DefaultMaxRevisions,
	}
}

func TestOrderService_Get_ForbiddenForStranger(t *testing.T) {
	repo := new(mockOrderRepo)
	order := newOrderFixture()
	repo.On("GetByID", mock.Anything, order.ID).Return(order, nil)

	svc := NewOrderService(repo, nil, nil, nil, nil)
	stranger := models.Actor{ID: uuidMust(), Role: models.RoleClient}

	_, err := svc.Get(context.Background(), stranger, order.ID)

	assert.ErrorIs(t, err, apperror.ErrForbidden)
	repo.AssertExpectations(t)
}

func TestOrderService_Get_AllowedForParties(t *testing.T) {
	repo := new(mockOrderRepo)
	order := newOrderFixture()
	repo.On("GetByID", mock.Anything, order.ID).Return(order, nil)

	svc := NewOrderService(repo, nil, nil, nil, nil)

	got, err := svc.Get(context.Background(), models.Actor{ID: order.FreelancerID, Role: models.RoleFreelancer}, order.ID)

	assert.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
}

func TestOrderService_ConfirmPayment_ForbiddenForClient(t *testing.T) {
	svc := NewOrderService(new(mockOrderRepo), new(mockEscrowLedger), nil, nil, nil)
	client := models.Actor{ID: uuidMust(), Role: models.RoleClient}

	_, err := svc.ConfirmPayment(context.Background(), client, uuidMust(), models.GatewayPayHere, nil)

	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestOrderService_ConfirmPayment_HoldsEscrow(t *testing.T) {
	ledger := new(mockEscrowLedger)
	order := newOrderFixture()
	paymentID := "ph-123"
	ledger.On("HoldEscrow", mock.Anything, order.ID, models.GatewayPayHere, &paymentID).Return(order, nil)

	svc := NewOrderService(new(mockOrderRepo), ledger, nil, nil, nil)

	got, err := svc.ConfirmPayment(context.Background(), models.GatewayActor, order.ID, models.GatewayPayHere, &paymentID)

	assert.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
	ledger.AssertExpectations(t)
}

// Повторное уведомление шлюза о той же оплате не ошибка: возвращаем заказ как есть.
func TestOrderService_ConfirmPayment_Idempotent(t *testing.T) {
	repo := new(mockOrderRepo)
	ledger := new(mockEscrowLedger)
	order := newOrderFixture()

	ledger.On("HoldEscrow", mock.Anything, order.ID, models.GatewayStripe, (*string)(nil)).
		Return(nil, repository.ErrEscrowAlreadyHeld)
	repo.On("GetByID", mock.Anything, order.ID).Return(order, nil)

	svc := NewOrderService(repo, ledger, nil, nil, nil)

	got, err := svc.ConfirmPayment(context.Background(), models.GatewayActor, order.ID, models.GatewayStripe, nil)

	assert.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
	repo.AssertExpectations(t)
	ledger.AssertExpectations(t)
}

func TestOrderService_Deliver_ForbiddenForClient(t *testing.T) {
	repo := new(mockOrderRepo)
	order := newOrderFixture()
	repo.On("GetByID", mock.Anything, order.ID).Return(order, nil)

	svc := NewOrderService(repo, nil, nil, nil, nil)
	client := models.Actor{ID: order.ClientID, Role: models.RoleClient}

	_, err := svc.Deliver(context.Background(), client, order.ID, "https://example.com/result.zip", nil)

	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestOrderService_Deliver_RejectsInvalidURL(t *testing.T) {
	svc := NewOrderService(new(mockOrderRepo), nil, nil, nil, nil)
	freelancer := models.Actor{ID: uuidMust(), Role: models.RoleFreelancer}

	_, err := svc.Deliver(context.Background(), freelancer, uuidMust(), "not-a-url", nil)

	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrCodeValidation, appErr.Code)
}

func TestOrderService_ApproveDelivery_ReleasesFromDelivered(t *testing.T) {
	repo := new(mockOrderRepo)
	ledger := new(mockEscrowLedger)
	order := newOrderFixture()
	order.Status = models.OrderStatusDelivered

	completed := *order
	completed.Status = models.OrderStatusCompleted
	completed.EscrowStatus = models.EscrowStatusReleased

	repo.On("GetByID", mock.Anything, order.ID).Return(order, nil)
	ledger.On("ReleaseEscrow", mock.Anything, order.ID, models.OrderStatusDelivered, (*uuid.UUID)(nil), (*string)(nil)).
		Return(&completed, nil)

	svc := NewOrderService(repo, ledger, nil, nil, nil)
	client := models.Actor{ID: order.ClientID, Role: models.RoleClient}

	got, err := svc.ApproveDelivery(context.Background(), client, order.ID)

	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, got.Status)
	assert.Equal(t, models.EscrowStatusReleased, got.EscrowStatus)
	ledger.AssertExpectations(t)
}

func TestOrderService_ApproveDelivery_ForbiddenForFreelancer(t *testing.T) {
	repo := new(mockOrderRepo)
	order := newOrderFixture()
	order.Status = models.OrderStatusDelivered
	repo.On("GetByID", mock.Anything, order.ID).Return(order, nil)

	svc := NewOrderService(repo, new(mockEscrowLedger), nil, nil, nil)
	freelancer := models.Actor{ID: order.FreelancerID, Role: models.RoleFreelancer}

	_, err := svc.ApproveDelivery(context.Background(), freelancer, order.ID)

	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestOrderService_RequestRevision_ForbiddenForFreelancer(t *testing.T) {
	repo := new(mockOrderRepo)
	order := newOrderFixture()
	order.Status = models.OrderStatusDelivered
	repo.On("GetByID", mock.Anything, order.ID).Return(order, nil)

	svc := NewOrderService(repo, nil, nil, nil, nil)
	freelancer := models.Actor{ID: order.FreelancerID, Role: models.RoleFreelancer}

	_, err := svc.RequestRevision(context.Background(), freelancer, order.ID, "поправьте шрифты")

	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestOrderService_RaiseDispute_ForbiddenForStranger(t *testing.T) {
	repo := new(mockOrderRepo)
	order := newOrderFixture()
	repo.On("GetByID", mock.Anything, order.ID).Return(order, nil)

	svc := NewOrderService(repo, nil, nil, nil, nil)
	stranger := models.Actor{ID: uuidMust(), Role: models.RoleFreelancer}

	_, err := svc.RaiseDispute(context.Background(), stranger, order.ID, "работа не соответствует заданию")

	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestOrderService_Mediate_ForbiddenForParties(t *testing.T) {
	svc := NewOrderService(new(mockOrderRepo), new(mockEscrowLedger), nil, nil, nil)
	client := models.Actor{ID: uuidMust(), Role: models.RoleClient}

	_, err := svc.Mediate(context.Background(), client, uuidMust(), MediationOutcomeRelease, "в пользу фрилансера")

	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestOrderService_Mediate_ReleaseRoutesToLedger(t *testing.T) {
	ledger := new(mockEscrowLedger)
	order := newOrderFixture()
	order.Status = models.OrderStatusCompleted
	order.EscrowStatus = models.EscrowStatusReleased

	admin := models.Actor{ID: uuidMust(), Role: models.RoleAdmin}
	result := "работа выполнена, выплата фрилансеру"
	ledger.On("ReleaseEscrow", mock.Anything, order.ID, models.OrderStatusDisputed, &admin.ID, &result).
		Return(order, nil)

	svc := NewOrderService(new(mockOrderRepo), ledger, nil, nil, nil)

	got, err := svc.Mediate(context.Background(), admin, order.ID, MediationOutcomeRelease, result)

	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, got.Status)
	ledger.AssertExpectations(t)
}

func TestOrderService_Mediate_RefundRoutesToLedger(t *testing.T) {
	ledger := new(mockEscrowLedger)
	order := newOrderFixture()
	order.Status = models.OrderStatusCancelled
	order.EscrowStatus = models.EscrowStatusRefunded

	admin := models.Actor{ID: uuidMust(), Role: models.RoleAdmin}
	result := "работа не выполнена, возврат заказчику"
	ledger.On("RefundEscrow", mock.Anything, order.ID, models.OrderStatusDisputed, models.CancelledByAdmin, &admin.ID, &result).
		Return(order, nil)

	svc := NewOrderService(new(mockOrderRepo), ledger, nil, nil, nil)

	got, err := svc.Mediate(context.Background(), admin, order.ID, MediationOutcomeRefund, result)

	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, got.Status)
	ledger.AssertExpectations(t)
}

func TestOrderService_Mediate_RejectsUnknownOutcome(t *testing.T) {
	svc := NewOrderService(new(mockOrderRepo), new(mockEscrowLedger), nil, nil, nil)
	admin := models.Actor{ID: uuidMust(), Role: models.RoleAdmin}

	_, err := svc.Mediate(context.Background(), admin, uuidMust(), MediationOutcome("split"), "пополам")

	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrCodeValidation, appErr.Code)
}

// Неоплаченный заказ отменяется без движения средств.
func TestOrderService_Cancel_UnpaidSkipsLedger(t *testing.T) {
	repo := new(mockOrderRepo)
	order := newOrderFixture()
	order.Status = models.OrderStatusAwaitingPayment
	order.EscrowStatus = models.EscrowStatusNone

	cancelled := *order
	cancelled.Status = models.OrderStatusCancelled

	repo.On("GetByID", mock.Anything, order.ID).Return(order, nil)
	repo.On("CancelUnpaid", mock.Anything, order.ID, models.CancelledByClient).Return(&cancelled, nil)

	svc := NewOrderService(repo, new(mockEscrowLedger), nil, nil, nil)
	client := models.Actor{ID: order.ClientID, Role: models.RoleClient}

	got, err := svc.Cancel(context.Background(), client, order.ID)

	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, got.Status)
	assert.Equal(t, models.EscrowStatusNone, got.EscrowStatus)
	repo.AssertExpectations(t)
}

// Оплаченный заказ отменить нельзя, только через спор.
func TestOrderService_Cancel_ActiveConflicts(t *testing.T) {
	repo := new(mockOrderRepo)
	order := newOrderFixture()
	repo.On("GetByID", mock.Anything, order.ID).Return(order, nil)

	svc := NewOrderService(repo, new(mockEscrowLedger), nil, nil, nil)
	client := models.Actor{ID: order.ClientID, Role: models.RoleClient}

	_, err := svc.Cancel(context.Background(), client, order.ID)

	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrCodePreconditionFailed, appErr.Code)
}

func TestOrderService_Cancel_ForbiddenForFreelancer(t *testing.T) {
	repo := new(mockOrderRepo)
	order := newOrderFixture()
	order.Status = models.OrderStatusAwaitingPayment
	repo.On("GetByID", mock.Anything, order.ID).Return(order, nil)

	svc := NewOrderService(repo, nil, nil, nil, nil)
	freelancer := models.Actor{ID: order.FreelancerID, Role: models.RoleFreelancer}

	_, err := svc.Cancel(context.Background(), freelancer, order.ID)

	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestOrderService_AcceptProposal_ForbiddenForOtherClient(t *testing.T) {
	proposals := new(mockProposalReader)
	proposal := &models.Proposal{ID: uuidMust(), JobID: uuidMust(), FreelancerID: uuidMust()}
	job := &models.Job{ID: proposal.JobID, ClientID: uuidMust()}

	proposals.On("GetProposalByID", mock.Anything, proposal.ID).Return(proposal, nil)
	proposals.On("GetJobByID", mock.Anything, proposal.JobID).Return(job, nil)

	svc := NewOrderService(new(mockOrderRepo), nil, proposals, nil, nil)
	other := models.Actor{ID: uuidMust(), Role: models.RoleClient}

	_, err := svc.AcceptProposal(context.Background(), other, proposal.ID)

	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestOrderService_DirectHire_RejectsZeroPrice(t *testing.T) {
	svc := NewOrderService(new(mockOrderRepo), nil, new(mockProposalReader), nil, nil)
	client := models.Actor{ID: uuidMust(), Role: models.RoleClient}

	_, err := svc.DirectHire(context.Background(), client, uuidMust(), uuidMust(), 0)

	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrCodeValidation, appErr.Code)
}
