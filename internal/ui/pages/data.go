package pages

import (
	"github.com/gurpreetgarry91/pbs-frontend/internal/domain/model"
)

// Разделы навигации.
const (
	NavDashboard         = "dashboard"
	NavUsers             = "users"
	NavSubscriptions     = "subscriptions"
	NavUserSubscriptions = "user_subscriptions"
	NavCalendar          = "calendar"
	NavAdvertisements    = "advertisements"
)

// Layout — общие данные страниц внутри навигации.
type Layout struct {
	// Title — ключ i18n заголовка страницы
	Title string
	// Nav — активный раздел навигации
	Nav      string
	UserName string
	// Notice и Alert — ключи i18n сообщений об успехе и ошибке
	Notice string
	Alert  string
	// CurrentURL — адрес страницы для возврата после смены языка
	CurrentURL string
}

// SignInData — данные страницы входа.
type SignInData struct {
	UserName string
	From     string
	// Error — сообщение backend о неудачном входе (не ключ i18n)
	Error string
}

// Count — счётчик карточки; OK=false означает ошибку загрузки.
type Count struct {
	N  int
	OK bool
}

// DashboardData — данные главной страницы.
type DashboardData struct {
	Layout
	Users             Count
	Subscriptions     Count
	UserSubscriptions Count
	Advertisements    Count
}

// UsersData — данные списка пользователей.
type UsersData struct {
	Layout
	Query     string
	Users     []model.User
	ListError bool
}

// UserFormData — данные формы пользователя. ID=0 — создание.
type UserFormData struct {
	Layout
	ID    int64
	Input model.UserInput
	Roles []string
	// FormError — ключ i18n ошибки сохранения
	FormError string
}

// SubscriptionsData — данные списка тарифов.
type SubscriptionsData struct {
	Layout
	Query         string
	Subscriptions []model.Subscription
	ListError     bool
}

// SubscriptionFormData — данные формы тарифа.
type SubscriptionFormData struct {
	Layout
	ID        int64
	Input     model.SubscriptionInput
	FormError string
}

// UserSubscriptionRow — строка списка подписок с именами пользователя и тарифа.
type UserSubscriptionRow struct {
	model.UserSubscription
	UserName string
	PlanName string
	// Start и End — даты в формате отображения
	Start string
	End   string
}

// UserSubscriptionsData — данные списка подписок пользователей.
type UserSubscriptionsData struct {
	Layout
	Query     string
	Rows      []UserSubscriptionRow
	ListError bool
}

// UserSubscriptionFormValues — значения полей формы подписки.
type UserSubscriptionFormValues struct {
	UserID         int64
	SubscriptionID int64
	// StartLocal — значение поля datetime-local (2006-01-02T15:04)
	StartLocal    string
	EndDate       string
	PaymentMethod string
	Status        model.SubscriptionStatus
}

// UserSubscriptionFormData — данные формы подписки пользователя.
type UserSubscriptionFormData struct {
	Layout
	ID           int64
	Form         UserSubscriptionFormValues
	Subscribers  []model.User
	Plans        []model.Subscription
	Statuses     []model.SubscriptionStatus
	OptionsError bool
	FormError    string
}

// CalendarCell — ячейка сетки календаря.
type CalendarCell struct {
	// Date — день в формате 2006-01-02
	Date    string
	Label   int
	InMonth bool
	Today   bool
	Count   int
}

// CalendarData — данные страницы календаря медиа.
type CalendarData struct {
	Layout
	Subscribers    []model.User
	SubscribersErr bool
	SelectedID     int64
	SelectedName   string
	View           string
	Views          []string
	// Heading — заголовок отображаемого интервала
	Heading string
	// Weekdays — ключи i18n дней недели в порядке колонок
	Weekdays []string
	Weeks    [][]CalendarCell
	Loading  bool
	Total    int
}

// StagedFile — файл, подготовленный к загрузке.
type StagedFile struct {
	Index int
	Name  string
	Size  int64
	Image bool
}

// MediaSessionData — данные страницы медиа выбранного дня.
type MediaSessionData struct {
	Layout
	SubscriberName string
	Date           string
	DateLabel      string
	Items          []model.MediaItem
	LoadError      bool
	Staged         []StagedFile
	StagedBytes    int64
	MaxBytes       int64
}

// AdvertisementsData — данные страницы рекламных материалов.
type AdvertisementsData struct {
	Layout
	Items     []model.Advertisement
	ListError bool
}

// ConfirmData — данные страницы подтверждения удаления.
type ConfirmData struct {
	Layout
	// Message — ключ i18n вопроса
	Message   string
	Subject   string
	Action    string
	CancelURL string
}

// ErrorData — данные страницы ошибки.
type ErrorData struct {
	Layout
	// Message — ключ i18n описания ошибки
	Message string
}
