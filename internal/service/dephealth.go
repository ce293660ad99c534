// dephealth.go — мониторинг доступности REST backend через topologymetrics SDK.
//
// Дашборд не хранит данных сам и зависит только от backend: HTTP checker
// периодически опрашивает его health endpoint. Метрики app_dependency_*
// публикуются на /metrics вместе с остальными.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/BigKAA/topologymetrics/sdk-go/dephealth"
	_ "github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/httpcheck" // HTTP checker
	"github.com/prometheus/client_golang/prometheus"
)

// BackendDependency — имя зависимости backend в метриках и ответе readiness.
const BackendDependency = "pbs-backend"

// DephealthOptions — параметры мониторинга.
type DephealthOptions struct {
	// ServiceID — имя вершины графа текущего приложения
	ServiceID string
	// Group — группа в метриках (PBS_DEPHEALTH_GROUP)
	Group string
	// BackendURL — базовый URL backend
	BackendURL string
	// HealthPath — путь проверки на backend (PBS_DEPHEALTH_HEALTH_PATH)
	HealthPath    string
	CheckInterval time.Duration
	// Registerer — registry метрик (nil — глобальный)
	Registerer prometheus.Registerer
}

// DephealthService — периодическая проверка backend.
type DephealthService struct {
	dh     *dephealth.DepHealth
	logger *slog.Logger
}

// NewDephealthService создаёт сервис мониторинга backend.
func NewDephealthService(opts DephealthOptions, logger *slog.Logger) (*DephealthService, error) {
	dhOpts := []dephealth.Option{
		dephealth.WithLogger(logger),
		dephealth.HTTP(BackendDependency,
			dephealth.FromURL(opts.BackendURL),
			dephealth.WithHTTPHealthPath(opts.HealthPath),
			dephealth.CheckInterval(opts.CheckInterval),
			dephealth.Critical(true),
		),
	}
	if opts.Registerer != nil {
		dhOpts = append(dhOpts, dephealth.WithRegisterer(opts.Registerer))
	}

	dh, err := dephealth.New(opts.ServiceID, opts.Group, dhOpts...)
	if err != nil {
		return nil, err
	}

	return &DephealthService{
		dh:     dh,
		logger: logger.With(slog.String("component", "dephealth")),
	}, nil
}

// Start запускает периодическую проверку.
func (ds *DephealthService) Start(ctx context.Context) error {
	ds.logger.Info("Мониторинг backend запущен")
	return ds.dh.Start(ctx)
}

// Stop останавливает мониторинг.
func (ds *DephealthService) Stop() {
	ds.dh.Stop()
	ds.logger.Info("Мониторинг backend остановлен")
}

// Health возвращает состояние зависимостей: имя → true, если проверка успешна.
// До первой проверки карта может быть пустой.
func (ds *DephealthService) Health() map[string]bool {
	return ds.dh.Health()
}

// BackendChecker — проверка готовности backend для /health/ready:
// результат dephealth и состояние circuit breaker клиента.
type BackendChecker struct {
	health  interface{ Health() map[string]bool }
	breaker interface{ BreakerState() string }
}

// NewBackendChecker создаёт BackendChecker. Любой из аргументов может быть nil.
func NewBackendChecker(health interface{ Health() map[string]bool }, breaker interface{ BreakerState() string }) *BackendChecker {
	return &BackendChecker{health: health, breaker: breaker}
}

// CheckReady возвращает статус ("ok", "degraded", "fail") и сообщение.
// Разомкнутый breaker — fail; неудачная проверка dephealth или breaker
// в half-open — degraded; нет данных проверки — ok по состоянию breaker.
func (c *BackendChecker) CheckReady() (string, string) {
	state := "closed"
	if c.breaker != nil {
		state = c.breaker.BreakerState()
	}
	if state == "open" {
		return "fail", "circuit breaker разомкнут"
	}

	if c.health != nil {
		if ok, known := c.health.Health()[BackendDependency]; known && !ok {
			return "degraded", "health check backend не проходит"
		}
	}
	if state == "half-open" {
		return "degraded", "circuit breaker в состоянии half-open"
	}
	return "ok", ""
}
