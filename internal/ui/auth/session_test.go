package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testSession() *SessionData {
	return &SessionData{
		Token:     "tok-12345",
		UserID:    "17",
		UserName:  "admin",
		SessionID: "3f0a7c1e-0000-4000-8000-000000000001",
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}
}

func TestCookieStore_SealOpen(t *testing.T) {
	cs, err := NewCookieStore("", false)
	if err != nil {
		t.Fatalf("Ошибка создания CookieStore: %v", err)
	}

	original := testSession()
	value, err := cs.Seal(original)
	if err != nil {
		t.Fatalf("Ошибка шифрования: %v", err)
	}
	if strings.Contains(value, original.Token) {
		t.Fatal("токен не должен присутствовать в открытом виде")
	}

	opened, err := cs.Open(value)
	if err != nil {
		t.Fatalf("Ошибка дешифрования: %v", err)
	}
	if *opened != *original {
		t.Errorf("после расшифровки: %+v, ожидается %+v", opened, original)
	}
}

func TestCookieStore_OpenRejects(t *testing.T) {
	cs1, _ := NewCookieStore("key-one", false)
	cs2, _ := NewCookieStore("key-two", false)

	value, err := cs1.Seal(testSession())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		store *CookieStore
		value string
	}{
		{"чужой ключ", cs2, value},
		{"не base64", cs1, "not-base64!!"},
		{"слишком коротко", cs1, "AAAA"},
		{"изменён байт", cs1, tamper(value)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.store.Open(tt.value); err == nil {
				t.Error("ожидалась ошибка дешифрования")
			}
		})
	}
}

// tamper заменяет один символ в середине значения.
func tamper(value string) string {
	b := []byte(value)
	i := len(b) / 2
	if b[i] == 'A' {
		b[i] = 'B'
	} else {
		b[i] = 'A'
	}
	return string(b)
}

func TestNewCookieStore_Base64Key(t *testing.T) {
	// base64 от 32 байт используется как ключ напрямую, одинаковые ключи
	// совместимы между экземплярами.
	key := "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY="
	cs1, _ := NewCookieStore(key, false)
	cs2, _ := NewCookieStore(key, false)

	value, _ := cs1.Seal(testSession())
	if _, err := cs2.Open(value); err != nil {
		t.Errorf("одинаковый ключ должен расшифровывать: %v", err)
	}
}

func TestCookieStore_SaveLoad(t *testing.T) {
	cs, _ := NewCookieStore("cookie-key", true)
	original := testSession()

	rec := httptest.NewRecorder()
	if err := cs.Save(rec, original); err != nil {
		t.Fatalf("Save вернул ошибку: %v", err)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("ожидался 1 cookie, получено %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != SessionCookieName || !c.HttpOnly || !c.Secure || c.Path != "/" {
		t.Errorf("неожиданные атрибуты cookie: %+v", c)
	}
	if c.MaxAge <= 0 || c.MaxAge > 3600 {
		t.Errorf("MaxAge = %d, ожидается (0, 3600]", c.MaxAge)
	}

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(c)
	loaded, err := cs.Load(req)
	if err != nil {
		t.Fatalf("Load вернул ошибку: %v", err)
	}
	if loaded == nil || loaded.Token != original.Token {
		t.Errorf("Load = %+v", loaded)
	}
}

func TestCookieStore_LoadWithoutCookie(t *testing.T) {
	cs, _ := NewCookieStore("", false)
	s, err := cs.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil || s != nil {
		t.Errorf("ожидалось nil, nil; получено %v, %v", s, err)
	}
}

func TestCookieStore_SaveErrors(t *testing.T) {
	cs, _ := NewCookieStore("", false)

	expired := testSession()
	expired.ExpiresAt = time.Now().Add(-time.Minute).Unix()
	if err := cs.Save(httptest.NewRecorder(), expired); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("ожидалась ErrSessionExpired, получено %v", err)
	}

	huge := testSession()
	huge.Token = strings.Repeat("x", 5000)
	rec := httptest.NewRecorder()
	if err := cs.Save(rec, huge); !errors.Is(err, ErrCookieTooLarge) {
		t.Errorf("ожидалась ErrCookieTooLarge, получено %v", err)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("слишком большой cookie не должен устанавливаться")
	}
}

func TestCookieStore_Clear(t *testing.T) {
	cs, _ := NewCookieStore("", false)
	rec := httptest.NewRecorder()
	cs.Clear(rec)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Errorf("ожидался удаляющий cookie: %+v", cookies)
	}
}
