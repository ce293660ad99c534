// Пакет model — доменные модели PBS Admin Dashboard.
//
// Модели повторяют JSON-представление REST backend. Временные метки
// хранятся строками в том виде, в котором их вернул backend: формат
// created_at/updated_at сервером не фиксирован.
package model

import "strings"

// Роли пользователей backend.
const (
	RoleAdmin      = "admin"
	RoleUser       = "user"
	RoleSubscriber = "subscriber"
)

// Roles — роли, доступные для выбора в форме пользователя.
var Roles = []string{RoleUser, RoleSubscriber, RoleAdmin}

// User — пользователь backend.
// Только пользователи с ролью subscriber участвуют в работе с медиа.
type User struct {
	// ID — числовой идентификатор пользователя
	ID int64 `json:"user_id"`
	// UserName — отображаемое имя (логин)
	UserName string `json:"user_name"`
	// Email — адрес электронной почты
	Email string `json:"email"`
	// Phone — телефон (опционально)
	Phone string `json:"phone,omitempty"`
	// Role — роль (user, subscriber, admin)
	Role string `json:"role"`
	// Active — активна ли учётная запись
	Active bool `json:"active"`
	// CreatedAt — время создания
	CreatedAt string `json:"created_at,omitempty"`
	// UpdatedAt — время последнего обновления
	UpdatedAt string `json:"updated_at,omitempty"`
}

// IsSubscriber возвращает true, если пользователь имеет роль subscriber.
func (u User) IsSubscriber() bool {
	return u.Role == RoleSubscriber
}

// UserInput — тело запроса создания/обновления пользователя.
// Password передаётся только если задан.
type UserInput struct {
	UserName string `json:"user_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role"`
	Active   bool   `json:"active"`
	Password string `json:"password,omitempty"`
}

// Normalize убирает пробелы по краям и подставляет роль по умолчанию.
func (in UserInput) Normalize() UserInput {
	in.UserName = strings.TrimSpace(in.UserName)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	if in.Role == "" {
		in.Role = RoleUser
	}
	return in
}

// FilterSubscribers возвращает пользователей с ролью subscriber в исходном порядке.
func FilterSubscribers(users []User) []User {
	out := make([]User, 0, len(users))
	for _, u := range users {
		if u.IsSubscriber() {
			out = append(out, u)
		}
	}
	return out
}
