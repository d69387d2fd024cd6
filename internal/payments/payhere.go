package payments

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
)

// Коды статусов платежа PayHere в IPN-уведомлениях.
const (
	PayHereStatusSuccess   = "2"
	PayHereStatusPending   = "0"
	PayHereStatusCancelled = "-1"
	PayHereStatusFailed    = "-2"
)

// PayHereNotification — поля IPN-уведомления, участвующие в подписи.
type PayHereNotification struct {
	MerchantID string
	OrderID    string
	PaymentID  string
	Amount     string
	Currency   string
	StatusCode string
	MD5Sig     string
}

// PayHereVerifier проверяет подписи IPN-уведомлений PayHere.
type PayHereVerifier struct {
	merchantID   string
	hashedSecret string
	enabled      bool
}

// NewPayHereVerifier создаёт верификатор. Секрет хэшируется один раз.
func NewPayHereVerifier(merchantID, merchantSecret string) *PayHereVerifier {
	return &PayHereVerifier{
		merchantID:   merchantID,
		hashedSecret: upperMD5(merchantSecret),
		enabled:      merchantID != "" && merchantSecret != "",
	}
}

// Enabled сообщает, настроен ли шлюз.
func (v *PayHereVerifier) Enabled() bool {
	return v.enabled
}

// Verify проверяет md5sig уведомления. Подпись считается как
// UpperCase(MD5(merchant_id + order_id + amount + currency + status_code + UpperCase(MD5(secret)))).
func (v *PayHereVerifier) Verify(n PayHereNotification) bool {
	if n.MerchantID != v.merchantID {
		return false
	}
	expected := upperMD5(n.MerchantID + n.OrderID + n.Amount + n.Currency + n.StatusCode + v.hashedSecret)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToUpper(n.MD5Sig))) == 1
}

// CheckoutHash формирует хэш для инициализации оплаты на стороне клиента.
// Сумма форматируется с двумя знаками после запятой.
func (v *PayHereVerifier) CheckoutHash(orderID string, amount float64, currency string) string {
	return upperMD5(v.merchantID + orderID + fmt.Sprintf("%.2f", amount) + currency + v.hashedSecret)
}

func upperMD5(s string) string {
	sum := md5.Sum([]byte(s))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}
