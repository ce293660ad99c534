// Пакет config — загрузка и валидация конфигурации PBS Admin Dashboard
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации дашборда.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- Backend API ---

	// Базовый URL REST backend (без завершающего слэша)
	APIURL string
	// Префикс для относительных URL медиафайлов и рекламы
	MediaBaseURL string
	// Таймаут одного запроса к backend
	APITimeout time.Duration
	// Путь к CA-сертификату для TLS-соединений с backend (опционально)
	APICACertPath string

	// --- Circuit breaker ---

	// Число подряд неудачных запросов, после которого breaker размыкается
	BreakerMaxFailures int
	// Время в разомкнутом состоянии до пробного запроса
	BreakerTimeout time.Duration

	// --- UI-сессия ---

	// Ключ шифрования cookie сессии (пустой — случайный при старте)
	SessionSecret string
	// Время жизни сессии, если токен не содержит exp
	SessionTTL time.Duration
	// Флаг Secure для cookie
	SecureCookie bool

	// --- Календарь медиа ---

	// Максимум одновременных запросов при агрегации по дням
	AggregateConcurrency int
	// Максимум кэшированных контроллеров календаря
	CalendarStateSize int
	// Время простоя, после которого контроллер календаря вытесняется
	CalendarStateTTL time.Duration
	// Максимальный суммарный размер файлов, подготовленных к загрузке
	UploadMaxBytes int64
	// Общий лимит подготовленных файлов всех сессий
	StagingMaxBytes int64
	// Часовой пояс календарных дней и полей datetime-local
	Location *time.Location

	// --- Мониторинг зависимостей ---

	// Имя группы в метриках topologymetrics
	DephealthGroup string
	// Интервал проверки backend
	DephealthCheckInterval time.Duration
	// Путь health endpoint backend
	DephealthHealthPath string

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// PBS_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("PBS_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("PBS_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("PBS_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// PBS_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("PBS_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("PBS_LOG_LEVEL: %w", err)
	}

	// PBS_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("PBS_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("PBS_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- Backend API ---

	// PBS_API_URL — обязательный
	cfg.APIURL, err = getEnvRequired("PBS_API_URL")
	if err != nil {
		return nil, err
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	apiURL, err := url.Parse(cfg.APIURL)
	if err != nil || apiURL.Scheme == "" || apiURL.Host == "" {
		return nil, fmt.Errorf("PBS_API_URL: некорректный URL %q", cfg.APIURL)
	}

	// PBS_MEDIA_BASE_URL — по умолчанию совпадает с PBS_API_URL
	cfg.MediaBaseURL = strings.TrimRight(getEnvDefault("PBS_MEDIA_BASE_URL", cfg.APIURL), "/")

	// PBS_API_TIMEOUT — таймаут запроса к backend (по умолчанию 15s)
	cfg.APITimeout, err = getEnvDuration("PBS_API_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("PBS_API_TIMEOUT: %w", err)
	}
	if cfg.APITimeout <= 0 {
		return nil, fmt.Errorf("PBS_API_TIMEOUT: значение должно быть больше нуля")
	}

	// PBS_API_CA_CERT_PATH — путь к CA-сертификату (опционально)
	cfg.APICACertPath = getEnvDefault("PBS_API_CA_CERT_PATH", "")

	// --- Circuit breaker ---

	// PBS_BREAKER_MAX_FAILURES — порог размыкания (по умолчанию 5)
	cfg.BreakerMaxFailures, err = getEnvInt("PBS_BREAKER_MAX_FAILURES", 5)
	if err != nil {
		return nil, fmt.Errorf("PBS_BREAKER_MAX_FAILURES: %w", err)
	}
	if cfg.BreakerMaxFailures < 1 {
		return nil, fmt.Errorf("PBS_BREAKER_MAX_FAILURES: значение %d должно быть не меньше 1", cfg.BreakerMaxFailures)
	}

	// PBS_BREAKER_TIMEOUT — время до half-open (по умолчанию 30s)
	cfg.BreakerTimeout, err = getEnvDuration("PBS_BREAKER_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("PBS_BREAKER_TIMEOUT: %w", err)
	}

	// --- UI-сессия ---

	cfg.SessionSecret = getEnvDefault("PBS_SESSION_SECRET", "")

	// PBS_SESSION_TTL — время жизни сессии (по умолчанию 24h)
	cfg.SessionTTL, err = getEnvDuration("PBS_SESSION_TTL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("PBS_SESSION_TTL: %w", err)
	}

	// PBS_SECURE_COOKIE — по умолчанию true, если backend доступен по https
	cfg.SecureCookie, err = getEnvBool("PBS_SECURE_COOKIE", apiURL.Scheme == "https")
	if err != nil {
		return nil, fmt.Errorf("PBS_SECURE_COOKIE: %w", err)
	}

	// --- Календарь медиа ---

	// PBS_AGGREGATE_CONCURRENCY — параллелизм агрегации (по умолчанию 8)
	cfg.AggregateConcurrency, err = getEnvInt("PBS_AGGREGATE_CONCURRENCY", 8)
	if err != nil {
		return nil, fmt.Errorf("PBS_AGGREGATE_CONCURRENCY: %w", err)
	}
	if cfg.AggregateConcurrency < 1 || cfg.AggregateConcurrency > 64 {
		return nil, fmt.Errorf("PBS_AGGREGATE_CONCURRENCY: значение %d вне допустимого диапазона 1-64", cfg.AggregateConcurrency)
	}

	// PBS_CALENDAR_STATE_SIZE — размер кэша контроллеров (по умолчанию 1000)
	cfg.CalendarStateSize, err = getEnvInt("PBS_CALENDAR_STATE_SIZE", 1000)
	if err != nil {
		return nil, fmt.Errorf("PBS_CALENDAR_STATE_SIZE: %w", err)
	}
	if cfg.CalendarStateSize < 1 {
		return nil, fmt.Errorf("PBS_CALENDAR_STATE_SIZE: значение %d должно быть не меньше 1", cfg.CalendarStateSize)
	}

	// PBS_CALENDAR_STATE_TTL — время простоя контроллера (по умолчанию 30m)
	cfg.CalendarStateTTL, err = getEnvDuration("PBS_CALENDAR_STATE_TTL", 30*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("PBS_CALENDAR_STATE_TTL: %w", err)
	}

	// PBS_UPLOAD_MAX_BYTES — лимит подготовленных файлов (по умолчанию 64 MiB)
	maxBytes, err := getEnvInt("PBS_UPLOAD_MAX_BYTES", 64<<20)
	if err != nil {
		return nil, fmt.Errorf("PBS_UPLOAD_MAX_BYTES: %w", err)
	}
	if maxBytes < 1 {
		return nil, fmt.Errorf("PBS_UPLOAD_MAX_BYTES: значение %d должно быть больше нуля", maxBytes)
	}
	cfg.UploadMaxBytes = int64(maxBytes)

	// PBS_STAGING_MAX_BYTES — общий лимит подготовленных файлов (по умолчанию 256 MiB)
	stagingBytes, err := getEnvInt("PBS_STAGING_MAX_BYTES", 256<<20)
	if err != nil {
		return nil, fmt.Errorf("PBS_STAGING_MAX_BYTES: %w", err)
	}
	if int64(stagingBytes) < cfg.UploadMaxBytes {
		return nil, fmt.Errorf("PBS_STAGING_MAX_BYTES: значение %d меньше PBS_UPLOAD_MAX_BYTES (%d)", stagingBytes, cfg.UploadMaxBytes)
	}
	cfg.StagingMaxBytes = int64(stagingBytes)

	// --- Мониторинг зависимостей ---

	cfg.DephealthGroup = getEnvDefault("PBS_DEPHEALTH_GROUP", "pbs")

	// PBS_DEPHEALTH_CHECK_INTERVAL — интервал проверки (по умолчанию 15s)
	cfg.DephealthCheckInterval, err = getEnvDuration("PBS_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("PBS_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	cfg.DephealthHealthPath = getEnvDefault("PBS_DEPHEALTH_HEALTH_PATH", "/health")
	if !strings.HasPrefix(cfg.DephealthHealthPath, "/") {
		return nil, fmt.Errorf("PBS_DEPHEALTH_HEALTH_PATH: путь %q должен начинаться с /", cfg.DephealthHealthPath)
	}

	// PBS_TIMEZONE — часовой пояс дашборда (по умолчанию Local)
	tz := getEnvDefault("PBS_TIMEZONE", "Local")
	cfg.Location, err = time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("PBS_TIMEZONE: %w", err)
	}

	// --- Graceful shutdown ---

	// PBS_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("PBS_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("PBS_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvBool возвращает логическое значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное логическое значение: %q", val)
	}
	return b, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
