package model

import (
	"fmt"
	"strings"
	"time"
)

// SubscriptionStatus — статус назначенной подписки.
type SubscriptionStatus string

const (
	StatusActive    SubscriptionStatus = "active"
	StatusCancelled SubscriptionStatus = "cancelled"
	StatusExpired   SubscriptionStatus = "expired"
)

// Statuses — допустимые статусы в порядке отображения.
var Statuses = []SubscriptionStatus{StatusActive, StatusCancelled, StatusExpired}

// ParseStatus проверяет строку статуса.
func ParseStatus(s string) (SubscriptionStatus, error) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("недопустимый статус подписки %q", s)
}

// Форматы дат, которыми обменивается backend.
const (
	// EndDateLayout — формат end_date
	EndDateLayout = "2006-01-02"
	// DisplayDateLayout — формат даты в таблицах
	DisplayDateLayout = "02/01/2006"
	// DisplayDateTimeLayout — отображение начала подписки
	DisplayDateTimeLayout = "02/01/2006 15:04"
	// LocalInputLayout — значение поля формы datetime-local
	LocalInputLayout = "2006-01-02T15:04"
	// isoLayout — дата-время в UTC с миллисекундами, как ожидает backend
	isoLayout = "2006-01-02T15:04:05.000Z"
)

// UserSubscription — назначение плана подписчику.
type UserSubscription struct {
	ID             int64  `json:"id"`
	UserID         int64  `json:"user_id"`
	SubscriptionID int64  `json:"subscription_id"`
	// StartDatetime — начало в формате ISO 8601
	StartDatetime string `json:"start_datetime"`
	// EndDate — окончание в формате YYYY-MM-DD
	EndDate       string             `json:"end_date"`
	PaymentMethod string             `json:"payment_method"`
	Status        SubscriptionStatus `json:"subscription_status"`
	IsDeleted     bool               `json:"is_deleted"`
	AddedBy       int64              `json:"added_by"`
	CreatedAt     string             `json:"created_at,omitempty"`
	UpdatedAt     string             `json:"updated_at,omitempty"`
}

// UserSubscriptionInput — тело запроса создания/обновления назначения.
// Пустые даты передаются как null.
type UserSubscriptionInput struct {
	UserID         int64              `json:"user_id"`
	SubscriptionID int64              `json:"subscription_id"`
	StartDatetime  *string            `json:"start_datetime"`
	EndDate        *string            `json:"end_date"`
	PaymentMethod  string             `json:"payment_method"`
	Status         SubscriptionStatus `json:"subscription_status"`
}

// FormatDisplayDate приводит ISO-дату или дату-время к виду DD/MM/YYYY.
// Нераспознанное значение возвращается как есть, пустое — как "-".
func FormatDisplayDate(s string) string {
	if s == "" {
		return "-"
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", EndDateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(DisplayDateLayout)
		}
	}
	return s
}

// parseTimestamp разбирает дату-время backend в одном из известных форматов.
func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", LocalInputLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDisplayDateTime приводит дату-время к виду DD/MM/YYYY HH:MM в loc.
func FormatDisplayDateTime(s string, loc *time.Location) string {
	if s == "" {
		return "-"
	}
	t, ok := parseTimestamp(s)
	if !ok {
		return FormatDisplayDate(s)
	}
	return t.In(loc).Format(DisplayDateTimeLayout)
}

// FormatLocalInput переводит дату-время backend в значение поля
// datetime-local в loc. Нераспознанное значение возвращается как есть.
func FormatLocalInput(s string, loc *time.Location) string {
	if s == "" {
		return ""
	}
	t, ok := parseTimestamp(s)
	if !ok {
		return s
	}
	return t.In(loc).Format(LocalInputLayout)
}

// ParseLocalInput переводит значение datetime-local (время в loc) в ISO UTC.
// Пустое значение даёт nil: backend получает null.
func ParseLocalInput(s string, loc *time.Location) (*string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(LocalInputLayout, s, loc)
	if err != nil {
		return nil, fmt.Errorf("некорректная дата начала %q: %w", s, err)
	}
	iso := t.UTC().Format(isoLayout)
	return &iso, nil
}

// DateInput приводит дату окончания к виду YYYY-MM-DD для поля date.
func DateInput(s string) string {
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		return s[:i]
	}
	return s
}

// ParseEndDate проверяет дату окончания; пустое значение даёт nil.
func ParseEndDate(s string) (*string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if _, err := time.Parse(EndDateLayout, s); err != nil {
		return nil, fmt.Errorf("некорректная дата окончания %q: %w", s, err)
	}
	return &s, nil
}
