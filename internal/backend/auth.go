package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
)

const loginPath = "/auth/login"

// defaultLoginMessage — сообщение, если backend не вернул detail/message.
const defaultLoginMessage = "Login failed"

// ErrInvalidLoginResponse — успешный ответ без токена.
var ErrInvalidLoginResponse = errors.New("invalid login response")

// LoginError — отказ backend во входе. Message показывается на форме входа.
type LoginError struct {
	StatusCode int
	Message    string
}

func (e *LoginError) Error() string {
	return e.Message
}

// LoginResult — ответ POST /auth/login.
type LoginResult struct {
	Token  string
	UserID string
}

// Login выполняет вход по имени пользователя и паролю.
// Токен из context не передаётся.
func (c *Client) Login(ctx context.Context, userName, password string) (*LoginResult, error) {
	body, err := jsonBody(map[string]string{"user_name": userName, "password": password})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Token  string          `json:"token"`
		UserID json.RawMessage `json:"user_id"`
	}
	err = c.do(ctx, request{
		op:          "login",
		method:      http.MethodPost,
		path:        loginPath,
		body:        body,
		contentType: "application/json",
		anonymous:   true,
	}, &resp)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return nil, &LoginError{StatusCode: apiErr.StatusCode, Message: loginMessage(apiErr.Body)}
		}
		return nil, err
	}

	if resp.Token == "" {
		return nil, ErrInvalidLoginResponse
	}
	return &LoginResult{Token: resp.Token, UserID: rawID(resp.UserID)}, nil
}

// loginMessage извлекает текст ошибки из поля detail, затем message.
// Нестроковые значения (например, список ошибок валидации) кодируются в JSON.
func loginMessage(body []byte) string {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return defaultLoginMessage
	}
	for _, key := range []string{"detail", "message"} {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 || bytes.Equal(raw, []byte("null")) || bytes.Equal(raw, []byte(`""`)) {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
		var compact bytes.Buffer
		if err := json.Compact(&compact, raw); err == nil {
			return compact.String()
		}
		return string(raw)
	}
	return defaultLoginMessage
}

// rawID приводит user_id (строка или число) к строке.
func rawID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return string(raw)
}
