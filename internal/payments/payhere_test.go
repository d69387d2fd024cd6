package payments

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func payhereNotification(merchantID, secret string) PayHereNotification {
	n := PayHereNotification{
		MerchantID: merchantID,
		OrderID:    "9c2f0c1e-8a52-4d7e-9f41-3a4f2a6c1b55",
		PaymentID:  "320025471",
		Amount:     "5000.00",
		Currency:   "LKR",
		StatusCode: PayHereStatusSuccess,
	}
	n.MD5Sig = upperMD5(n.MerchantID + n.OrderID + n.Amount + n.Currency + n.StatusCode + upperMD5(secret))
	return n
}

func TestPayHereVerify_ValidSignature(t *testing.T) {
	v := NewPayHereVerifier("1221149", "secret-key")

	assert.True(t, v.Verify(payhereNotification("1221149", "secret-key")))
}

func TestPayHereVerify_LowercaseSignatureAccepted(t *testing.T) {
	v := NewPayHereVerifier("1221149", "secret-key")

	n := payhereNotification("1221149", "secret-key")
	n.MD5Sig = strings.ToLower(n.MD5Sig)

	assert.True(t, v.Verify(n))
}

func TestPayHereVerify_TamperedAmount(t *testing.T) {
	v := NewPayHereVerifier("1221149", "secret-key")

	n := payhereNotification("1221149", "secret-key")
	n.Amount = "1.00"

	assert.False(t, v.Verify(n))
}

func TestPayHereVerify_TamperedStatus(t *testing.T) {
	v := NewPayHereVerifier("1221149", "secret-key")

	n := payhereNotification("1221149", "secret-key")
	n.StatusCode = PayHereStatusSuccess
	n.MD5Sig = upperMD5(n.MerchantID + n.OrderID + n.Amount + n.Currency + PayHereStatusFailed + upperMD5("secret-key"))

	assert.False(t, v.Verify(n))
}

func TestPayHereVerify_WrongMerchant(t *testing.T) {
	v := NewPayHereVerifier("1221149", "secret-key")

	assert.False(t, v.Verify(payhereNotification("9999999", "secret-key")))
}

func TestPayHereVerify_WrongSecret(t *testing.T) {
	v := NewPayHereVerifier("1221149", "secret-key")

	assert.False(t, v.Verify(payhereNotification("1221149", "other-secret")))
}

func TestPayHereEnabled(t *testing.T) {
	assert.True(t, NewPayHereVerifier("1221149", "secret-key").Enabled())
	assert.False(t, NewPayHereVerifier("", "").Enabled())
	assert.False(t, NewPayHereVerifier("1221149", "").Enabled())
}

// Хэш для checkout не включает статус и форматирует сумму с двумя знаками.
func TestPayHereCheckoutHash(t *testing.T) {
	v := NewPayHereVerifier("1221149", "secret-key")

	expected := upperMD5("1221149" + "order-1" + "5000.00" + "LKR" + upperMD5("secret-key"))

	assert.Equal(t, expected, v.CheckoutHash("order-1", 5000, "LKR"))
}
