// Пакет backend — HTTP-клиент REST API медиа-сервиса PBS.
//
// Все запросы проходят через circuit breaker (sony/gobreaker): ошибки
// транспорта и ответы 5xx размыкают его, ответы 4xx считаются
// нормальной работой backend. Токен пользователя передаётся через
// context (WithToken) и отправляется как Bearer, если он задан.
package backend

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

// maxResponseBytes ограничивает размер читаемого тела ответа.
const maxResponseBytes = 32 << 20

var (
	// ErrUnauthorized — backend отклонил токен (401).
	ErrUnauthorized = errors.New("backend: требуется авторизация")
	// ErrUnavailable — circuit breaker разомкнут, запрос не отправлялся.
	ErrUnavailable = errors.New("backend: сервис временно недоступен")
)

// APIError — ответ backend со статусом вне диапазона 2xx.
type APIError struct {
	// Op — операция в форме "list users", "delete media"
	Op string
	// StatusCode — HTTP-статус ответа
	StatusCode int
	// Body — тело ответа (для извлечения detail/message)
	Body []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: backend вернул статус %d", e.Op, e.StatusCode)
}

// Unwrap позволяет проверять 401 через errors.Is(err, ErrUnauthorized).
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// Options — параметры клиента.
type Options struct {
	// BaseURL — базовый URL REST API
	BaseURL string
	// MediaBaseURL — префикс для относительных URL медиафайлов
	MediaBaseURL string
	// Timeout — таймаут одного запроса
	Timeout time.Duration
	// CACertPath — путь к CA-сертификату (пустая строка — системный пул)
	CACertPath string
	// BreakerMaxFailures — число подряд неудачных запросов до размыкания
	BreakerMaxFailures int
	// BreakerTimeout — время в разомкнутом состоянии
	BreakerTimeout time.Duration
}

// Client — HTTP-клиент REST API.
type Client struct {
	baseURL      string
	mediaBaseURL string
	httpClient   *http.Client
	cb           *gobreaker.CircuitBreaker
	logger       *slog.Logger
}

// New создаёт клиент backend.
func New(opts Options, logger *slog.Logger) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("не задан базовый URL backend")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.BreakerMaxFailures < 1 {
		opts.BreakerMaxFailures = 5
	}
	if opts.MediaBaseURL == "" {
		opts.MediaBaseURL = opts.BaseURL
	}

	logger = logger.With(slog.String("component", "backend_client"))

	httpClient := &http.Client{Timeout: opts.Timeout}
	if opts.CACertPath != "" {
		tlsConfig, err := buildTLSConfig(opts.CACertPath)
		if err != nil {
			return nil, fmt.Errorf("загрузка CA-сертификата backend: %w", err)
		}
		httpClient.Transport = &http.Transport{
			TLSClientConfig: tlsConfig,
		}
		logger.Info("CA-сертификат backend добавлен в пул доверия",
			slog.String("ca_cert", opts.CACertPath),
		)
	}

	maxFailures := uint32(opts.BreakerMaxFailures)
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "pbs-backend",
		MaxRequests: 1,
		Timeout:     opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// Отмена запроса пользователем не говорит о состоянии backend.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Состояние circuit breaker изменилось",
				slog.String("name", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			breakerState.Set(float64(to))
		},
	})

	return &Client{
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		mediaBaseURL: strings.TrimRight(opts.MediaBaseURL, "/"),
		httpClient:   httpClient,
		cb:           cb,
		logger:       logger,
	}, nil
}

// BreakerState возвращает состояние circuit breaker: closed, half-open, open.
func (c *Client) BreakerState() string {
	return c.cb.State().String()
}

// buildTLSConfig создаёт TLS-конфигурацию с кастомным CA.
func buildTLSConfig(caCertPath string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("чтение CA-сертификата: %w", err)
	}

	caCertPool, err := x509.SystemCertPool()
	if err != nil {
		caCertPool = x509.NewCertPool()
	}
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("файл %s не содержит PEM-сертификатов", caCertPath)
	}

	return &tls.Config{
		RootCAs: caCertPool,
	}, nil
}

// request — описание одного вызова backend.
type request struct {
	// op — операция для сообщений об ошибках и метрик
	op          string
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	// anonymous — не передавать токен (логин)
	anonymous bool
}

// rawResponse — прочитанный ответ backend.
type rawResponse struct {
	status int
	body   []byte
}

// jsonBody кодирует v в JSON для тела запроса.
func jsonBody(v any) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("кодирование тела запроса: %w", err)
	}
	return bytes.NewReader(data), nil
}

// do выполняет запрос через circuit breaker и декодирует JSON-ответ в out
// (если out != nil и тело не пустое).
func (c *Client) do(ctx context.Context, r request, out any) error {
	reqURL := c.baseURL + r.path
	if len(r.query) > 0 {
		reqURL += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, reqURL, r.body)
	if err != nil {
		return fmt.Errorf("создание запроса %s: %w", r.op, err)
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	req.Header.Set("Accept", "application/json")
	if !r.anonymous {
		if token := TokenFromContext(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	result, err := c.cb.Execute(func() (interface{}, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, fmt.Errorf("чтение ответа: %w", err)
		}
		raw := &rawResponse{status: resp.StatusCode, body: body}
		if resp.StatusCode >= http.StatusInternalServerError {
			return raw, &APIError{Op: r.op, StatusCode: resp.StatusCode, Body: body}
		}
		return raw, nil
	})
	elapsed := time.Since(start)

	if err != nil {
		label := "error"
		var apiErr *APIError
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			label = "breaker_open"
			err = fmt.Errorf("%s: %w", r.op, ErrUnavailable)
		case errors.As(err, &apiErr):
			label = strconv.Itoa(apiErr.StatusCode)
		default:
			err = fmt.Errorf("%s: %w", r.op, err)
		}
		observeRequest(r.op, label, elapsed)
		return err
	}

	raw := result.(*rawResponse)
	observeRequest(r.op, strconv.Itoa(raw.status), elapsed)

	if raw.status < 200 || raw.status > 299 {
		return &APIError{Op: r.op, StatusCode: raw.status, Body: raw.body}
	}

	if out == nil || len(bytes.TrimSpace(raw.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw.body, out); err != nil {
		return fmt.Errorf("декодирование ответа %s: %w", r.op, err)
	}
	return nil
}

// idPath собирает путь вида /users/42.
func idPath(prefix string, id int64) string {
	return prefix + "/" + strconv.FormatInt(id, 10)
}

// searchQuery возвращает параметр q, если поисковая строка не пуста.
func searchQuery(q string) url.Values {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil
	}
	return url.Values{"q": []string{q}}
}
