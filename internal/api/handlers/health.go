// health.go — служебные endpoints дашборда.
// /health/live — liveness probe (процесс жив)
// /health/ready — readiness probe (backend доступен)
// /metrics — Prometheus метрики
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gurpreetgarry91/pbs-frontend/internal/config"
)

const serviceName = "pbs-admin"

// ReadinessChecker — проверка готовности зависимости.
type ReadinessChecker interface {
	// CheckReady возвращает статус ("ok", "degraded", "fail") и сообщение.
	CheckReady() (status string, message string)
}

// HealthHandler — health и metrics endpoints.
type HealthHandler struct {
	backend     ReadinessChecker
	promHandler http.Handler
	now         func() time.Time
}

// NewHealthHandler создаёт HealthHandler. backend может быть nil —
// тогда readiness возвращает fail.
func NewHealthHandler(backend ReadinessChecker) *HealthHandler {
	return &HealthHandler{
		backend:     backend,
		promHandler: promhttp.Handler(),
		now:         time.Now,
	}
}

type healthCheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type healthLiveResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Service   string `json:"service"`
}

type healthReadyResponse struct {
	healthLiveResponse
	Checks struct {
		Backend healthCheckResult `json:"backend"`
	} `json:"checks"`
}

// HealthLive — GET /health/live.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.live("ok"))
}

// HealthReady — GET /health/ready. 503, если backend в состоянии fail.
func (h *HealthHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	check := healthCheckResult{Status: "fail", Message: "не инициализирован"}
	if h.backend != nil {
		status, msg := h.backend.CheckReady()
		check = healthCheckResult{Status: status, Message: msg}
	}

	resp := healthReadyResponse{healthLiveResponse: h.live(check.Status)}
	resp.Checks.Backend = check

	status := http.StatusOK
	if check.Status == "fail" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// GetMetrics — GET /metrics.
func (h *HealthHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.promHandler.ServeHTTP(w, r)
}

func (h *HealthHandler) live(status string) healthLiveResponse {
	return healthLiveResponse{
		Status:    status,
		Timestamp: h.now().UTC().Format(time.RFC3339),
		Version:   config.Version,
		Service:   serviceName,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
