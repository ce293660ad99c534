// auth.go — вход по имени и паролю через backend и выход.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gurpreetgarry91/pbs-frontend/internal/backend"
	"github.com/gurpreetgarry91/pbs-frontend/internal/ui/auth"
	"github.com/gurpreetgarry91/pbs-frontend/internal/ui/pages"
)

// DashboardPath — страница после входа по умолчанию.
const DashboardPath = "/dashboard"

// loginFallbackMessage — сообщение при ошибке без ответа backend.
const loginFallbackMessage = "Login failed"

// SessionEnder освобождает состояние, привязанное к UI-сессии.
type SessionEnder interface {
	Remove(key string)
}

// AuthHandler — страница входа и выход.
type AuthHandler struct {
	auth   *auth.Authenticator
	states SessionEnder
	logger *slog.Logger
}

// NewAuthHandler создаёт AuthHandler. states — кэш состояния календаря
// по ID сессии; очищается при выходе.
func NewAuthHandler(a *auth.Authenticator, states SessionEnder, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   a,
		states: states,
		logger: logger.With(slog.String("component", "ui_auth")),
	}
}

// HandleSignIn — GET /. С действующей сессией сразу переходит в дашборд.
func (h *AuthHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	if session, err := h.auth.Init(r); err == nil && session != nil {
		http.Redirect(w, r, afterLogin(from), http.StatusFound)
		return
	}
	h.render(w, r, http.StatusOK, pages.SignInData{From: from})
}

// HandleLogin — POST /. Ошибка входа показывается на той же странице.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Некорректная форма", http.StatusBadRequest)
		return
	}
	userName := r.PostFormValue("user_name")
	from := r.PostFormValue("from")

	session, err := h.auth.Login(r.Context(), w, userName, r.PostFormValue("password"))
	if err != nil {
		data := pages.SignInData{UserName: userName, From: from, Error: loginFallbackMessage}
		status := http.StatusUnauthorized

		var loginErr *backend.LoginError
		switch {
		case errors.As(err, &loginErr):
			data.Error = loginErr.Message
		case errors.Is(err, backend.ErrUnavailable):
			status = http.StatusServiceUnavailable
			h.logger.Warn("Вход невозможен: backend недоступен")
		default:
			h.logger.Error("Ошибка входа",
				slog.String("user_name", userName),
				slog.String("error", err.Error()),
			)
		}
		h.render(w, r, status, data)
		return
	}

	h.logger.Debug("Redirect после входа",
		slog.String("session_id", session.SessionID),
		slog.String("to", afterLogin(from)),
	)
	http.Redirect(w, r, afterLogin(from), http.StatusSeeOther)
}

// HandleLogout — POST /logout.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if session := h.auth.Logout(w, r); session != nil {
		h.states.Remove(session.SessionID)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) render(w http.ResponseWriter, r *http.Request, status int, data pages.SignInData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	rw := &statusWriter{ResponseWriter: w, status: status}
	if err := pages.SignIn(data).Render(r.Context(), rw); err != nil {
		h.logger.Error("Ошибка рендеринга страницы входа", slog.String("error", err.Error()))
		http.Error(w, "Ошибка рендеринга страницы", http.StatusInternalServerError)
	}
}

// afterLogin — адрес после входа: локальный from, кроме самой страницы входа.
func afterLogin(from string) string {
	to := auth.SafeRedirect(from, DashboardPath)
	if to == "/" || strings.HasPrefix(to, "/?") {
		return DashboardPath
	}
	return to
}
