// loader.go — загрузка каталогов переводов из embed.FS.
package i18n

import (
	"embed"
	"fmt"
	"log/slog"
)

//go:embed locales/*.json
var localeFS embed.FS

// Load создаёт Bundle из встроенных каталогов locales/<lang>.json
// и делает его глобальным.
func Load(logger *slog.Logger) (*Bundle, error) {
	bundle := NewBundle(logger)
	for _, lang := range Languages {
		path := "locales/" + lang + ".json"
		data, err := localeFS.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("i18n: не удалось прочитать %s: %w", path, err)
		}
		if err := bundle.LoadMessages(lang, data); err != nil {
			return nil, err
		}
	}

	for _, lang := range Languages {
		if missing := bundle.MissingKeys(lang); len(missing) > 0 {
			logger.Warn("В каталоге отсутствуют переводы",
				slog.String("lang", lang),
				slog.Any("keys", missing),
			)
		}
	}

	SetDefault(bundle)
	logger.Info("i18n каталоги загружены", slog.Int("languages", len(Languages)))
	return bundle, nil
}
