package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const stripeTestSecret = "whsec_test"

func stripeTestNow() time.Time {
	return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
}

func signStripePayload(secret string, timestamp int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

func newStripeTestVerifier() *StripeVerifier {
	v := NewStripeVerifier(stripeTestSecret, 5*time.Minute)
	v.now = stripeTestNow
	return v
}

func TestStripeParseEvent_ValidSignature(t *testing.T) {
	v := newStripeTestVerifier()

	payload := []byte(`{
		"id": "evt_1",
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_test_1", "metadata": {"orderId": "abc"}}}
	}`)
	header := signStripePayload(stripeTestSecret, stripeTestNow().Unix(), payload)

	event, err := v.ParseEvent(payload, header)

	assert.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, StripeEventCheckoutCompleted, event.Type)
	assert.Equal(t, "cs_test_1", event.Data.Object.ID)
	assert.Equal(t, "abc", event.Data.Object.Metadata["orderId"])
}

func TestStripeParseEvent_WrongSecret(t *testing.T) {
	v := newStripeTestVerifier()

	payload := []byte(`{"id": "evt_1", "type": "checkout.session.completed"}`)
	header := signStripePayload("whsec_other", stripeTestNow().Unix(), payload)

	_, err := v.ParseEvent(payload, header)

	assert.Error(t, err)
}

func TestStripeParseEvent_TamperedPayload(t *testing.T) {
	v := newStripeTestVerifier()

	payload := []byte(`{"id": "evt_1", "type": "checkout.session.completed"}`)
	header := signStripePayload(stripeTestSecret, stripeTestNow().Unix(), payload)

	_, err := v.ParseEvent([]byte(`{"id": "evt_2", "type": "checkout.session.completed"}`), header)

	assert.Error(t, err)
}

func TestStripeParseEvent_StaleTimestamp(t *testing.T) {
	v := newStripeTestVerifier()

	payload := []byte(`{"id": "evt_1", "type": "checkout.session.completed"}`)
	stale := stripeTestNow().Add(-10 * time.Minute).Unix()
	header := signStripePayload(stripeTestSecret, stale, payload)

	_, err := v.ParseEvent(payload, header)

	assert.Error(t, err)
}

func TestStripeParseEvent_MalformedHeader(t *testing.T) {
	v := newStripeTestVerifier()
	payload := []byte(`{"id": "evt_1"}`)

	for _, header := range []string{"", "t=abc,v1=00", "v1=00", "t=1756641600"} {
		_, err := v.ParseEvent(payload, header)
		assert.Error(t, err, "заголовок %q должен отклоняться", header)
	}
}

// Stripe может прислать несколько v1-подписей при ротации секрета.
func TestStripeParseEvent_MultipleSignatures(t *testing.T) {
	v := newStripeTestVerifier()

	payload := []byte(`{"id": "evt_1", "type": "account.updated"}`)
	timestamp := stripeTestNow().Unix()

	mac := hmac.New(sha256.New, []byte(stripeTestSecret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	header := fmt.Sprintf("t=%d,v1=deadbeef,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))

	event, err := v.ParseEvent(payload, header)

	assert.NoError(t, err)
	assert.Equal(t, StripeEventAccountUpdated, event.Type)
}

func TestStripeEnabled(t *testing.T) {
	assert.True(t, NewStripeVerifier("whsec_test", 0).Enabled())
	assert.False(t, NewStripeVerifier("", 0).Enabled())
}
