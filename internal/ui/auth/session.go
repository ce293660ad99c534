// Пакет auth — аутентификация и управление сессиями дашборда.
// Сессия (токен backend, пользователь) хранится в cookie, зашифрованном AES-256-GCM.
package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// SessionCookieName — имя cookie с зашифрованной сессией UI.
const SessionCookieName = "pbs_session"

// sessionVersion — версия формата payload. Cookie другой версии не читается.
const sessionVersion = 1

// maxCookieBytes — предел значения cookie, который принимают браузеры.
const maxCookieBytes = 4000

var (
	// ErrCookieTooLarge — зашифрованная сессия не помещается в cookie
	// (слишком длинный токен backend).
	ErrCookieTooLarge = errors.New("сессия не помещается в cookie")
	// ErrSessionExpired — попытка сохранить уже истёкшую сессию.
	ErrSessionExpired = errors.New("сессия уже истекла")
)

// SessionData — данные сессии, хранящиеся в зашифрованном cookie.
type SessionData struct {
	// Token — токен backend, передаётся как Bearer.
	Token string `json:"token"`
	// UserID — идентификатор пользователя из ответа логина.
	UserID string `json:"user_id"`
	// UserName — имя, под которым выполнен вход.
	UserName string `json:"user_name"`
	// SessionID — идентификатор UI-сессии (ключ состояния календаря).
	SessionID string `json:"sid"`
	// ExpiresAt — время истечения сессии (Unix timestamp).
	ExpiresAt int64 `json:"expires_at"`
}

// IsExpired проверяет, истекла ли сессия на момент now.
func (s *SessionData) IsExpired(now time.Time) bool {
	return now.Unix() >= s.ExpiresAt
}

type sealedSession struct {
	V int `json:"v"`
	SessionData
}

// CookieStore — хранилище сессии в cookie. Реализует Store.
// Имя cookie участвует в AEAD как additional data: значение, вырезанное
// из другого cookie, не расшифруется.
type CookieStore struct {
	aead   cipher.AEAD
	secure bool
	now    func() time.Time
}

// NewCookieStore создаёт хранилище. key — base64 от 32 байт либо
// произвольная строка (ключ выводится через SHA-256). Пустой key даёт
// случайный ключ: сессии не переживают рестарт.
func NewCookieStore(key string, secure bool) (*CookieStore, error) {
	keyBytes, err := deriveKey(key)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания GCM: %w", err)
	}
	return &CookieStore{aead: aead, secure: secure, now: time.Now}, nil
}

func deriveKey(key string) ([]byte, error) {
	if key == "" {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return nil, fmt.Errorf("ошибка генерации ключа сессии: %w", err)
		}
		return b, nil
	}
	if b, err := base64.StdEncoding.DecodeString(key); err == nil && len(b) == 32 {
		return b, nil
	}
	sum := sha256.Sum256([]byte(key))
	return sum[:], nil
}

// Seal шифрует сессию в значение cookie (base64url, nonce в начале).
func (cs *CookieStore) Seal(data *SessionData) (string, error) {
	plaintext, err := json.Marshal(sealedSession{V: sessionVersion, SessionData: *data})
	if err != nil {
		return "", fmt.Errorf("ошибка сериализации сессии: %w", err)
	}
	nonce := make([]byte, cs.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("ошибка генерации nonce: %w", err)
	}
	sealed := cs.aead.Seal(nonce, nonce, plaintext, []byte(SessionCookieName))
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open расшифровывает значение cookie.
func (cs *CookieStore) Open(value string) (*SessionData, error) {
	sealed, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("ошибка декодирования cookie: %w", err)
	}
	n := cs.aead.NonceSize()
	if len(sealed) <= n {
		return nil, errors.New("зашифрованные данные слишком короткие")
	}
	plaintext, err := cs.aead.Open(nil, sealed[:n], sealed[n:], []byte(SessionCookieName))
	if err != nil {
		return nil, fmt.Errorf("ошибка дешифрования сессии: %w", err)
	}

	var s sealedSession
	if err := json.Unmarshal(plaintext, &s); err != nil {
		return nil, fmt.Errorf("ошибка десериализации сессии: %w", err)
	}
	if s.V != sessionVersion {
		return nil, fmt.Errorf("неподдерживаемая версия сессии: %d", s.V)
	}
	return &s.SessionData, nil
}

// Save записывает сессию в cookie. MaxAge равен оставшемуся времени жизни.
func (cs *CookieStore) Save(w http.ResponseWriter, data *SessionData) error {
	maxAge := int(data.ExpiresAt - cs.now().Unix())
	if maxAge <= 0 {
		return ErrSessionExpired
	}
	value, err := cs.Seal(data)
	if err != nil {
		return err
	}
	if len(value) > maxCookieBytes {
		return ErrCookieTooLarge
	}
	http.SetCookie(w, cs.cookie(value, maxAge))
	return nil
}

// Load читает сессию из cookie запроса. Без cookie возвращает nil, nil.
func (cs *CookieStore) Load(r *http.Request) (*SessionData, error) {
	c, err := r.Cookie(SessionCookieName)
	if errors.Is(err, http.ErrNoCookie) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return cs.Open(c.Value)
}

// Clear удаляет cookie сессии.
func (cs *CookieStore) Clear(w http.ResponseWriter) {
	http.SetCookie(w, cs.cookie("", -1))
}

func (cs *CookieStore) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   cs.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
