// Пакет pages — страницы дашборда PBS.
//
// Страницы описаны html/template-шаблонами, встроенными в бинарник, и
// отдаются как templ.Component: обработчики вызывают
// pages.Users(data).Render(ctx, w). Функции t и tf шаблонов переводят
// ключи на язык из контекста рендеринга.
package pages

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/gurpreetgarry91/pbs-frontend/internal/ui/i18n"
)

//go:embed templates/*.html
var templateFS embed.FS

// layoutPages — страницы внутри общего layout с навигацией.
var layoutPages = []string{
	"dashboard",
	"users",
	"user_form",
	"subscriptions",
	"subscription_form",
	"user_subscriptions",
	"user_subscription_form",
	"calendar",
	"media_session",
	"advertisements",
	"confirm",
	"error",
}

// sets — шаблоны страниц по имени; каждая страница парсится отдельно,
// чтобы блоки "content" не пересекались.
var sets = mustParse()

func mustParse() map[string]*template.Template {
	out := make(map[string]*template.Template, len(layoutPages)+1)
	for _, name := range layoutPages {
		out[name] = template.Must(template.New(name).Funcs(funcs(context.Background())).
			ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html"))
	}
	out["signin"] = template.Must(template.New("signin").Funcs(funcs(context.Background())).
		ParseFS(templateFS, "templates/signin.html"))
	return out
}

// funcs возвращает функции шаблонов, привязанные к языку ctx.
func funcs(ctx context.Context) template.FuncMap {
	return template.FuncMap{
		"t": func(key string) string { return i18n.T(ctx, key) },
		"tf": func(key string, args ...any) string {
			return i18n.Tf(ctx, key, args...)
		},
		// label переводит значение перечисления; неизвестное выводится как есть
		"label": func(prefix, value string) string {
			key := prefix + "." + value
			if i18n.Has(ctx, key) {
				return i18n.T(ctx, key)
			}
			return value
		},
		"dict":  dict,
		"lang":  func() string { return i18n.LangFromContext(ctx) },
		"langs": func() []string { return i18n.Languages },
		"price": func(p float64) string { return fmt.Sprintf("%.2f", p) },
		"size":  FormatSize,
		"upper": strings.ToUpper,
	}
}

// render возвращает компонент, исполняющий шаблон страницы name.
// Вывод буферизуется: при ошибке шаблона ответ не пишется частично.
func render(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		set, ok := sets[name]
		if !ok {
			return fmt.Errorf("pages: неизвестная страница %q", name)
		}
		t, err := set.Clone()
		if err != nil {
			return fmt.Errorf("pages: клонирование шаблона %s: %w", name, err)
		}
		t.Funcs(funcs(ctx))

		var buf bytes.Buffer
		if err := t.ExecuteTemplate(&buf, "page", data); err != nil {
			return fmt.Errorf("pages: рендеринг %s: %w", name, err)
		}
		_, err = buf.WriteTo(w)
		return err
	})
}

// dict собирает map из пар ключ-значение для вложенных шаблонов.
func dict(kv ...any) (map[string]any, error) {
	if len(kv)%2 != 0 {
		return nil, fmt.Errorf("dict: нечётное число аргументов")
	}
	m := make(map[string]any, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: ключ %v не строка", kv[i])
		}
		m[key] = kv[i+1]
	}
	return m, nil
}

// FormatSize форматирует размер в байтах.
func FormatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGT"[exp])
}

// SignIn — страница входа.
func SignIn(data SignInData) templ.Component { return render("signin", data) }

// Dashboard — главная страница.
func Dashboard(data DashboardData) templ.Component { return render("dashboard", data) }

// Users — список пользователей.
func Users(data UsersData) templ.Component { return render("users", data) }

// UserForm — форма создания и редактирования пользователя.
func UserForm(data UserFormData) templ.Component { return render("user_form", data) }

// Subscriptions — список тарифов.
func Subscriptions(data SubscriptionsData) templ.Component { return render("subscriptions", data) }

// SubscriptionForm — форма тарифа.
func SubscriptionForm(data SubscriptionFormData) templ.Component {
	return render("subscription_form", data)
}

// UserSubscriptions — список подписок пользователей.
func UserSubscriptions(data UserSubscriptionsData) templ.Component {
	return render("user_subscriptions", data)
}

// UserSubscriptionForm — форма подписки пользователя.
func UserSubscriptionForm(data UserSubscriptionFormData) templ.Component {
	return render("user_subscription_form", data)
}

// Calendar — календарь медиа подписчика.
func Calendar(data CalendarData) templ.Component { return render("calendar", data) }

// MediaSession — медиа выбранного дня.
func MediaSession(data MediaSessionData) templ.Component { return render("media_session", data) }

// Advertisements — рекламные материалы.
func Advertisements(data AdvertisementsData) templ.Component {
	return render("advertisements", data)
}

// Confirm — подтверждение удаления без JavaScript.
func Confirm(data ConfirmData) templ.Component { return render("confirm", data) }

// Error — страница ошибки.
func Error(data ErrorData) templ.Component { return render("error", data) }
