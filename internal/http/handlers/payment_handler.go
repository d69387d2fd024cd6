package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/marketplace-backend/internal/logger"
	"github.com/ignatzorin/marketplace-backend/internal/models"
	"github.com/ignatzorin/marketplace-backend/internal/payments"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
	"github.com/ignatzorin/marketplace-backend/internal/service"
)

// PaymentHandler принимает уведомления платёжных шлюзов. Аутентификация
// здесь — подпись уведомления, а не JWT.
type PaymentHandler struct {
	orders   *service.OrderService
	profiles *service.ProfileService
	payhere  *payments.PayHereVerifier
	stripe   *payments.StripeVerifier
}

func NewPaymentHandler(orders *service.OrderService, profiles *service.ProfileService, payhere *payments.PayHereVerifier, stripe *payments.StripeVerifier) *PaymentHandler {
	return &PaymentHandler{orders: orders, profiles: profiles, payhere: payhere, stripe: stripe}
}

// PayHereNotify POST /payments/payhere/notify — IPN-уведомление PayHere.
// Приходит как form-data; при неуспешном статусе платежа отвечаем 200,
// чтобы шлюз не ретраил бесконечно.
func (h *PaymentHandler) PayHereNotify(c *gin.Context) {
	if h.payhere == nil || !h.payhere.Enabled() {
		fail(c, apperror.New(apperror.ErrCodeBadRequest, "шлюз PayHere не настроен"))
		return
	}

	notification := payments.PayHereNotification{
		MerchantID: c.PostForm("merchant_id"),
		OrderID:    c.PostForm("order_id"),
		PaymentID:  c.PostForm("payment_id"),
		Amount:     c.PostForm("payhere_amount"),
		Currency:   c.PostForm("payhere_currency"),
		StatusCode: c.PostForm("status_code"),
		MD5Sig:     c.PostForm("md5sig"),
	}

	if !h.payhere.Verify(notification) {
		fail(c, apperror.ErrSignatureInvalid)
		return
	}

	if notification.StatusCode != payments.PayHereStatusSuccess {
		logger.Log.Infof("payhere: платёж по заказу %s не завершён, статус %s",
			notification.OrderID, notification.StatusCode)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	orderID, err := uuid.Parse(notification.OrderID)
	if err != nil {
		fail(c, apperror.New(apperror.ErrCodeBadRequest, "order_id должен быть валидным UUID"))
		return
	}

	paymentID := notification.PaymentID
	if _, err := h.orders.ConfirmPayment(c.Request.Context(), models.GatewayActor, orderID,
		models.GatewayPayHere, &paymentID); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// StripeWebhook POST /payments/stripe/webhook — вебхук Stripe.
// Подпись проверяется по сырому телу запроса до разбора JSON.
func (h *PaymentHandler) StripeWebhook(c *gin.Context) {
	if h.stripe == nil || !h.stripe.Enabled() {
		fail(c, apperror.New(apperror.ErrCodeBadRequest, "шлюз Stripe не настроен"))
		return
	}

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		fail(c, badRequest(err))
		return
	}

	event, err := h.stripe.ParseEvent(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		fail(c, apperror.Wrap(err, apperror.ErrCodeSignatureInvalid, "подпись платёжного уведомления невалидна"))
		return
	}

	switch event.Type {
	case payments.StripeEventCheckoutCompleted:
		rawOrderID := event.Data.Object.Metadata["orderId"]
		orderID, err := uuid.Parse(rawOrderID)
		if err != nil {
			logger.Log.Warnf("stripe: событие %s без валидного orderId в metadata", event.ID)
			break
		}
		sessionID := event.Data.Object.ID
		if _, err := h.orders.ConfirmPayment(c.Request.Context(), models.GatewayActor, orderID,
			models.GatewayStripe, &sessionID); err != nil {
			fail(c, err)
			return
		}
	case payments.StripeEventAccountUpdated:
		// Успешный онбординг в Stripe автоматически верифицирует фрилансера.
		rawUserID := event.Data.Object.Metadata["userId"]
		userID, err := uuid.Parse(rawUserID)
		if err != nil || !event.Data.Object.DetailsSubmitted {
			break
		}
		if err := h.profiles.MarkVerified(c.Request.Context(), models.GatewayActor, userID); err != nil {
			fail(c, err)
			return
		}
	default:
		logger.Log.Debugf("stripe: событие %s типа %s пропущено", event.ID, event.Type)
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// ConfirmManual POST /admin/orders/:id/confirm-payment — ручное подтверждение
// банковского перевода администратором по загруженной квитанции.
func (h *PaymentHandler) ConfirmManual(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		fail(c, err)
		return
	}
	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		fail(c, err)
		return
	}

	order, err := h.orders.ConfirmPayment(c.Request.Context(), actor, orderID, models.GatewayManual, nil)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}
