// Пакет handlers — HTTP-обработчики UI дашборда PBS.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/gurpreetgarry91/pbs-frontend/internal/backend"
	"github.com/gurpreetgarry91/pbs-frontend/internal/ui/i18n"
	uimiddleware "github.com/gurpreetgarry91/pbs-frontend/internal/ui/middleware"
	"github.com/gurpreetgarry91/pbs-frontend/internal/ui/pages"
)

// SessionClearer удаляет UI-сессию (backend вернул 401).
type SessionClearer interface {
	Clear(w http.ResponseWriter)
}

// base — общие зависимости и помощники обработчиков страниц.
type base struct {
	sessions SessionClearer
	logger   *slog.Logger
}

func newBase(sessions SessionClearer, logger *slog.Logger, component string) base {
	return base{
		sessions: sessions,
		logger:   logger.With(slog.String("component", component)),
	}
}

// layout собирает общие данные страницы. Сообщения notice и error
// принимаются из query только как известные ключи каталога.
func (b base) layout(r *http.Request, title, nav string) pages.Layout {
	ctx := r.Context()
	l := pages.Layout{
		Title:      title,
		Nav:        nav,
		CurrentURL: currentURL(r),
	}
	if session := uimiddleware.SessionFromContext(ctx); session != nil {
		l.UserName = session.UserName
	}

	q := r.URL.Query()
	if key := q.Get("notice"); strings.HasPrefix(key, "notice.") && i18n.Has(ctx, key) {
		l.Notice = key
	}
	if key := q.Get("error"); key != "" && i18n.Has(ctx, key) {
		l.Alert = key
	}
	return l
}

// render отдаёт страницу с кодом status.
func (b base) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	rw := &statusWriter{ResponseWriter: w, status: status}
	if err := c.Render(r.Context(), rw); err != nil {
		b.logger.Error("Ошибка рендеринга страницы",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		if !rw.wrote {
			http.Error(w, "Ошибка рендеринга страницы", http.StatusInternalServerError)
		}
	}
}

// renderError отдаёт страницу ошибки.
func (b base) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	b.render(w, r, status, pages.Error(pages.ErrorData{
		Layout:  b.layout(r, "title.error", ""),
		Message: message,
	}))
}

// unauthorized обрабатывает 401 от backend: сессия удаляется, выполняется
// redirect на вход. Возвращает true, если ответ уже записан.
func (b base) unauthorized(w http.ResponseWriter, r *http.Request, err error) bool {
	if !errors.Is(err, backend.ErrUnauthorized) {
		return false
	}
	b.logger.Info("Backend отклонил токен, сессия завершена",
		slog.String("path", r.URL.Path),
	)
	b.sessions.Clear(w)
	uimiddleware.RedirectToSignIn(w, r)
	return true
}

// logBackendError пишет в лог ошибку вызова backend.
func (b base) logBackendError(r *http.Request, msg string, err error) {
	level := slog.LevelWarn
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode >= 500 {
		level = slog.LevelError
	}
	b.logger.Log(r.Context(), level, msg,
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
}

// failure возвращает ключ сообщения об ошибке backend.
func failure(err error, fallback string) string {
	if errors.Is(err, backend.ErrUnavailable) {
		return "error.backend_unavailable"
	}
	return fallback
}

// isNotFound сообщает, что backend ответил 404.
func isNotFound(err error) bool {
	var apiErr *backend.APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// redirectNotice выполняет redirect (303) с сообщением об успехе.
func redirectNotice(w http.ResponseWriter, r *http.Request, path, key string) {
	http.Redirect(w, r, path+"?notice="+url.QueryEscape(key), http.StatusSeeOther)
}

// redirectAlert выполняет redirect (303) с сообщением об ошибке.
func redirectAlert(w http.ResponseWriter, r *http.Request, path, key string) {
	http.Redirect(w, r, path+"?error="+url.QueryEscape(key), http.StatusSeeOther)
}

// confirmed проверяет подтверждение удаления. Без confirm=true отдаёт
// страницу подтверждения и возвращает false.
func (b base) confirmed(w http.ResponseWriter, r *http.Request, nav, message, cancelURL string) bool {
	if r.FormValue("confirm") == "true" {
		return true
	}
	b.render(w, r, http.StatusOK, pages.Confirm(pages.ConfirmData{
		Layout:    b.layout(r, "title.confirm", nav),
		Message:   message,
		Action:    r.URL.Path,
		CancelURL: cancelURL,
	}))
	return false
}

// pathID извлекает числовой параметр маршрута.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// currentURL — адрес страницы без служебных параметров сообщений.
func currentURL(r *http.Request) string {
	q := r.URL.Query()
	q.Del("notice")
	q.Del("error")
	if len(q) == 0 {
		return r.URL.Path
	}
	return r.URL.Path + "?" + q.Encode()
}

// statusWriter откладывает WriteHeader до первой записи тела.
type statusWriter struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (w *statusWriter) Write(p []byte) (int, error) {
	if !w.wrote {
		w.wrote = true
		w.ResponseWriter.WriteHeader(w.status)
	}
	return w.ResponseWriter.Write(p)
}
