// Пакет middleware — HTTP middleware для UI дашборда.
// auth.go — защита маршрутов /dashboard: проверка cookie-сессии.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gurpreetgarry91/pbs-frontend/internal/backend"
	"github.com/gurpreetgarry91/pbs-frontend/internal/ui/auth"
)

// contextKey — тип для ключей контекста UI (избегаем коллизий с API middleware).
type contextKey string

const (
	// ContextKeyUISession — данные UI-сессии в контексте запроса.
	ContextKeyUISession contextKey = "ui_session"
)

// SignInPath — страница входа.
const SignInPath = "/"

// RequireAuth — middleware для проверки аутентификации UI-пользователей.
// Без действующей сессии перенаправляет на страницу входа с параметром from.
type RequireAuth struct {
	auth   *auth.Authenticator
	logger *slog.Logger
}

// NewRequireAuth создаёт middleware.
func NewRequireAuth(a *auth.Authenticator, logger *slog.Logger) *RequireAuth {
	return &RequireAuth{
		auth:   a,
		logger: logger.With(slog.String("component", "ui_auth_middleware")),
	}
}

// Middleware возвращает HTTP middleware. Сессия помещается в context,
// токен — в context клиента backend.
func (ra *RequireAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := ra.auth.Init(r)
			if err != nil {
				ra.logger.Debug("Ошибка чтения UI-сессии",
					slog.String("error", err.Error()),
					slog.String("remote_addr", r.RemoteAddr),
				)
				// Повреждённый cookie — очищаем и redirect на вход
				ra.auth.Clear(w)
				RedirectToSignIn(w, r)
				return
			}
			if session == nil {
				RedirectToSignIn(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUISession, session)
			ctx = backend.WithToken(ctx, session.Token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SignInURL возвращает адрес страницы входа с возвратом на from.
func SignInURL(from string) string {
	if from == "" || from == SignInPath {
		return SignInPath
	}
	return SignInPath + "?from=" + url.QueryEscape(from)
}

// RedirectToSignIn перенаправляет на вход, сохраняя запрошенный адрес.
// Для запросов, кроме GET, возвращается на страницу, с которой пришла форма.
func RedirectToSignIn(w http.ResponseWriter, r *http.Request) {
	from := r.URL.RequestURI()
	if r.Method != http.MethodGet {
		from = refererPath(r)
	}
	http.Redirect(w, r, SignInURL(from), http.StatusFound)
}

// refererPath возвращает путь Referer текущего хоста.
func refererPath(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Host != r.Host {
		return ""
	}
	return ref.RequestURI()
}

// SessionFromContext извлекает SessionData из контекста запроса.
// Возвращает nil если сессия не найдена (не прошёл через RequireAuth).
func SessionFromContext(ctx context.Context) *auth.SessionData {
	session, ok := ctx.Value(ContextKeyUISession).(*auth.SessionData)
	if !ok {
		return nil
	}
	return session
}
