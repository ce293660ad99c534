// language.go — переключение языка UI.
package handlers

import (
	"net/http"

	"github.com/gurpreetgarry91/pbs-frontend/internal/ui/auth"
	"github.com/gurpreetgarry91/pbs-frontend/internal/ui/i18n"
)

// langCookieMaxAge — срок хранения выбранного языка (1 год).
const langCookieMaxAge = 365 * 24 * 60 * 60

// HandleSetLanguage — POST /set-language (lang, from).
// Сохраняет язык в cookie и возвращает на локальный адрес from.
func HandleSetLanguage(w http.ResponseWriter, r *http.Request) {
	lang := r.FormValue("lang")
	if !i18n.IsSupported(lang) {
		lang = i18n.DefaultLang
	}

	http.SetCookie(w, &http.Cookie{
		Name:     i18n.LangCookieName,
		Value:    lang,
		Path:     "/",
		MaxAge:   langCookieMaxAge,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, auth.SafeRedirect(r.FormValue("from"), "/"), http.StatusSeeOther)
}
