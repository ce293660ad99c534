package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/gurpreetgarry91/pbs-frontend/internal/backend"
)

// Store — постоянное хранилище сессии между запросами.
// В production — CookieStore (cookie), в тестах — подмена.
type Store interface {
	Load(r *http.Request) (*SessionData, error)
	Save(w http.ResponseWriter, data *SessionData) error
	Clear(w http.ResponseWriter)
}

// LoginClient — вход через backend.
type LoginClient interface {
	Login(ctx context.Context, userName, password string) (*backend.LoginResult, error)
}

// Authenticator — единая точка работы с состоянием аутентификации:
// Init восстанавливает сессию из хранилища, Login записывает её,
// Logout очищает.
type Authenticator struct {
	store  Store
	client LoginClient
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewAuthenticator создаёт Authenticator.
// ttl — время жизни сессии, если токен не содержит exp (или exp позже).
func NewAuthenticator(store Store, client LoginClient, ttl time.Duration, logger *slog.Logger) *Authenticator {
	return &Authenticator{
		store:  store,
		client: client,
		ttl:    ttl,
		now:    time.Now,
		logger: logger.With(slog.String("component", "authenticator")),
	}
}

// Init восстанавливает сессию из хранилища.
// nil, nil — сессии нет или она истекла.
// Ошибка — хранилище повреждено (cookie не расшифровывается).
func (a *Authenticator) Init(r *http.Request) (*SessionData, error) {
	session, err := a.store.Load(r)
	if err != nil {
		return nil, err
	}
	if session == nil || session.Token == "" || session.IsExpired(a.now()) {
		return nil, nil
	}
	return session, nil
}

// Login выполняет вход через backend и сохраняет сессию.
// Ошибка входа (*backend.LoginError) содержит текст для формы.
func (a *Authenticator) Login(ctx context.Context, w http.ResponseWriter, userName, password string) (*SessionData, error) {
	userName = strings.TrimSpace(userName)
	res, err := a.client.Login(ctx, userName, password)
	if err != nil {
		return nil, err
	}

	now := a.now()
	session := &SessionData{
		Token:     res.Token,
		UserID:    res.UserID,
		UserName:  userName,
		SessionID: uuid.NewString(),
		ExpiresAt: tokenExpiry(res.Token, now, a.ttl).Unix(),
	}
	if err := a.store.Save(w, session); err != nil {
		return nil, err
	}

	a.logger.Info("Пользователь вошёл",
		slog.String("user_name", userName),
		slog.String("user_id", res.UserID),
	)
	return session, nil
}

// Logout очищает хранилище и возвращает завершённую сессию (nil, если её не было).
func (a *Authenticator) Logout(w http.ResponseWriter, r *http.Request) *SessionData {
	session, _ := a.store.Load(r)
	a.store.Clear(w)
	if session != nil {
		a.logger.Info("Пользователь вышел", slog.String("user_name", session.UserName))
	}
	return session
}

// Clear очищает хранилище без чтения сессии (истёкший или отозванный токен).
func (a *Authenticator) Clear(w http.ResponseWriter) {
	a.store.Clear(w)
}

// tokenExpiry возвращает момент истечения сессии: exp токена, если он есть
// и наступает раньше now+ttl, иначе now+ttl. Подпись не проверяется,
// токен проверяет backend.
func tokenExpiry(token string, now time.Time, ttl time.Duration) time.Time {
	limit := now.Add(ttl)

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return limit
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return limit
	}
	if exp.Time.After(now) && exp.Time.Before(limit) {
		return exp.Time
	}
	return limit
}

// SafeRedirect возвращает from, если это локальный путь, иначе fallback.
func SafeRedirect(from, fallback string) string {
	if from == "" || !strings.HasPrefix(from, "/") ||
		strings.HasPrefix(from, "//") || strings.HasPrefix(from, "/\\") {
		return fallback
	}
	return from
}
