// Пакет i18n — интернационализация дашборда PBS.
// T(ctx, key) и Tf(ctx, key, args...) возвращают строки каталога языка,
// сохранённого в контексте запроса. Языки: English (en), Русский (ru).
package i18n

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"

	"golang.org/x/text/language"
)

// DefaultLang — язык по умолчанию и fallback для отсутствующих ключей.
const DefaultLang = "en"

// Languages — коды поддерживаемых языков. Порядок совпадает с tags.
var Languages = []string{"en", "ru"}

var (
	tags    = []language.Tag{language.English, language.Russian}
	matcher = language.NewMatcher(tags)
)

type contextKey struct{}

// Bundle — каталоги переводов всех языков.
type Bundle struct {
	mu       sync.RWMutex
	catalogs map[string]map[string]string
	logger   *slog.Logger
}

// NewBundle создаёт пустой Bundle.
func NewBundle(logger *slog.Logger) *Bundle {
	return &Bundle{
		catalogs: make(map[string]map[string]string),
		logger:   logger,
	}
}

// LoadMessages загружает плоский JSON-каталог {"key": "text"} для языка.
func (b *Bundle) LoadMessages(lang string, data []byte) error {
	if !IsSupported(lang) {
		return fmt.Errorf("i18n: язык %q не поддерживается", lang)
	}
	var messages map[string]string
	if err := json.Unmarshal(data, &messages); err != nil {
		return fmt.Errorf("i18n: ошибка парсинга каталога %s: %w", lang, err)
	}

	b.mu.Lock()
	b.catalogs[lang] = messages
	b.mu.Unlock()

	if b.logger != nil {
		b.logger.Debug("i18n каталог загружен",
			slog.String("lang", lang),
			slog.Int("keys", len(messages)),
		)
	}
	return nil
}

// Translate ищет ключ в каталоге языка, затем в английском.
// Отсутствующий ключ возвращается как есть.
func (b *Bundle) Translate(lang, key string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if msg, ok := b.catalogs[lang][key]; ok {
		return msg
	}
	if msg, ok := b.catalogs[DefaultLang][key]; ok {
		return msg
	}
	return key
}

// Translatef — Translate с подстановкой аргументов.
func (b *Bundle) Translatef(lang, key string, args ...any) string {
	format := b.Translate(lang, key)
	if len(args) == 0 {
		return format
	}
	return sprintf(format, args...)
}

// Has сообщает, есть ли ключ в каталоге языка или в английском.
func (b *Bundle) Has(lang, key string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if _, ok := b.catalogs[lang][key]; ok {
		return true
	}
	_, ok := b.catalogs[DefaultLang][key]
	return ok
}

// MissingKeys возвращает ключи английского каталога, которых нет в lang.
func (b *Bundle) MissingKeys(lang string) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var missing []string
	for key := range b.catalogs[DefaultLang] {
		if _, ok := b.catalogs[lang][key]; !ok {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	return missing
}

// --- Глобальный Bundle ---

var (
	globalMu     sync.RWMutex
	globalBundle *Bundle
)

// SetDefault делает bundle глобальным для T и Tf.
func SetDefault(b *Bundle) {
	globalMu.Lock()
	globalBundle = b
	globalMu.Unlock()
}

func defaultBundle() *Bundle {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalBundle
}

// WithLang помещает язык в контекст.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, contextKey{}, lang)
}

// LangFromContext извлекает язык из контекста. Default: "en".
func LangFromContext(ctx context.Context) string {
	if lang, ok := ctx.Value(contextKey{}).(string); ok && lang != "" {
		return lang
	}
	return DefaultLang
}

// T возвращает перевод ключа на язык из контекста.
func T(ctx context.Context, key string) string {
	b := defaultBundle()
	if b == nil {
		return key
	}
	return b.Translate(LangFromContext(ctx), key)
}

// Has сообщает, есть ли перевод ключа в глобальном Bundle.
func Has(ctx context.Context, key string) bool {
	b := defaultBundle()
	return b != nil && b.Has(LangFromContext(ctx), key)
}

// Tf возвращает перевод ключа с подстановкой аргументов.
func Tf(ctx context.Context, key string, args ...any) string {
	b := defaultBundle()
	if b == nil {
		if len(args) == 0 {
			return key
		}
		return sprintf(key, args...)
	}
	return b.Translatef(LangFromContext(ctx), key, args...)
}

// sprintf вызывается через переменную: формат берётся из каталога
// во время выполнения, и printf-анализатор go vet его не проверяет.
var sprintf = fmt.Sprintf

// IsSupported сообщает, поддерживается ли язык.
func IsSupported(lang string) bool {
	return slices.Contains(Languages, lang)
}

// MatchLanguage выбирает поддерживаемый язык по заголовку Accept-Language.
func MatchLanguage(acceptLanguage string) string {
	_, idx := language.MatchStrings(matcher, acceptLanguage)
	if idx < 0 || idx >= len(Languages) {
		return DefaultLang
	}
	return Languages[idx]
}
