// Пакет static — встроенные статические ресурсы дашборда (CSS, JS).
package static

import (
	"embed"
	"net/http"
)

//go:embed css/*.css js/*.js
var content embed.FS

// FileSystem возвращает http.FileSystem для раздачи /static/*.
func FileSystem() http.FileSystem {
	return http.FS(content)
}
