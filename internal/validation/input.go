package validation

import (
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"unicode/utf8"
)

// Константы валидации
const (
	MinUsernameLength     = 3
	MaxUsernameLength     = 30
	MinJobTitleLength     = 3
	MaxJobTitleLength     = 200
	MinJobDescription     = 10
	MaxJobDescription     = 5000
	MinCoverLetterLength  = 10
	MaxCoverLetterLength  = 2000
	MaxBioLength          = 1000
	MaxSkillLength        = 50
	MaxSkillsCount        = 50
	MinPrice              = 1.0
	MaxPrice              = 100000000.0 // 100 миллионов
	MaxCommentLength      = 2000
	MaxDisputeReason      = 2000
	MaxDeliverableComment = 2000
)

// ValidateLength проверяет длину строки в рунах.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email обязателен")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(email)); err != nil {
		return fmt.Errorf("email имеет неверный формат")
	}
	return nil
}

// ValidatePrice проверяет сумму заказа или транзакции.
func ValidatePrice(fieldName string, value float64) error {
	if value < MinPrice {
		return fmt.Errorf("%s должен быть не менее %.0f", fieldName, MinPrice)
	}
	if value > MaxPrice {
		return fmt.Errorf("%s слишком велик", fieldName)
	}
	return nil
}

// ValidateSkills проверяет список навыков.
func ValidateSkills(skills []string) error {
	if len(skills) > MaxSkillsCount {
		return fmt.Errorf("навыков должно быть не более %d", MaxSkillsCount)
	}
	for _, skill := range skills {
		if err := ValidateLength("навык", skill, 1, MaxSkillLength); err != nil {
			return err
		}
	}
	return nil
}

// ValidateURL проверяет, что ссылка абсолютная и использует http(s).
func ValidateURL(fieldName, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s обязателен", fieldName)
	}
	parsed, err := url.Parse(raw)
	if err != nil || !parsed.IsAbs() || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("%s должен быть абсолютной http(s) ссылкой", fieldName)
	}
	return nil
}
