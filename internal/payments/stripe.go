package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Типы событий Stripe, которые обрабатывает платформа.
const (
	StripeEventCheckoutCompleted = "checkout.session.completed"
	StripeEventAccountUpdated    = "account.updated"
)

// StripeEvent — минимальное тело вебхука Stripe.
type StripeEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object StripeObject `json:"object"`
	} `json:"data"`
}

// StripeObject — объект события: сессия оплаты или аккаунт.
type StripeObject struct {
	ID               string            `json:"id"`
	Metadata         map[string]string `json:"metadata"`
	DetailsSubmitted bool              `json:"details_submitted"`
}

// StripeVerifier проверяет подпись Stripe-Signature и разбирает событие.
type StripeVerifier struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

// NewStripeVerifier создаёт верификатор вебхуков Stripe.
func NewStripeVerifier(secret string, tolerance time.Duration) *StripeVerifier {
	return &StripeVerifier{
		secret:    []byte(secret),
		tolerance: tolerance,
		now:       time.Now,
	}
}

// Enabled сообщает, настроен ли шлюз.
func (v *StripeVerifier) Enabled() bool {
	return len(v.secret) > 0
}

// ParseEvent проверяет заголовок Stripe-Signature и возвращает событие.
// Заголовок имеет вид "t=<unix>,v1=<hex hmac>"; подпись считается как
// HMAC-SHA256 от строки "<t>.<payload>". Старые метки времени отклоняются.
func (v *StripeVerifier) ParseEvent(payload []byte, header string) (*StripeEvent, error) {
	timestamp, signatures, err := parseSignatureHeader(header)
	if err != nil {
		return nil, err
	}

	if v.tolerance > 0 && v.now().Sub(time.Unix(timestamp, 0)) > v.tolerance {
		return nil, fmt.Errorf("stripe: метка времени подписи устарела")
	}

	mac := hmac.New(sha256.New, v.secret)
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	expected := mac.Sum(nil)

	valid := false
	for _, signature := range signatures {
		decoded, err := hex.DecodeString(signature)
		if err != nil {
			continue
		}
		if hmac.Equal(decoded, expected) {
			valid = true
			break
		}
	}
	if !valid {
		return nil, fmt.Errorf("stripe: подпись не совпала")
	}

	var event StripeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("stripe: не удалось разобрать событие: %w", err)
	}
	return &event, nil
}

func parseSignatureHeader(header string) (int64, []string, error) {
	var (
		timestamp  int64
		signatures []string
	)

	for _, part := range strings.Split(header, ",") {
		pair := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(pair) != 2 {
			continue
		}
		switch pair[0] {
		case "t":
			parsed, err := strconv.ParseInt(pair[1], 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("stripe: неверная метка времени в подписи")
			}
			timestamp = parsed
		case "v1":
			signatures = append(signatures, pair[1])
		}
	}

	if timestamp == 0 || len(signatures) == 0 {
		return 0, nil, fmt.Errorf("stripe: заголовок подписи неполон")
	}
	return timestamp, signatures, nil
}
