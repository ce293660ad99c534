package model

// Subscription — тарифный план подписки.
type Subscription struct {
	ID          int64   `json:"id"`
	Name        string  `json:"subscription_name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	// Duration — длительность в днях
	Duration  int    `json:"duration"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// SubscriptionInput — тело запроса создания/обновления плана.
type SubscriptionInput struct {
	Name        string  `json:"subscription_name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Duration    int     `json:"duration"`
	Active      bool    `json:"active"`
}

// DefaultSubscriptionInput — значения формы нового плана.
func DefaultSubscriptionInput() SubscriptionInput {
	return SubscriptionInput{Duration: 30, Active: true}
}
