// Пакет server — HTTP-сервер дашборда PBS с graceful shutdown.
// Без TLS: HTTP внутри кластера, TLS termination на ingress.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	apihandlers "github.com/gurpreetgarry91/pbs-frontend/internal/api/handlers"
	"github.com/gurpreetgarry91/pbs-frontend/internal/api/middleware"
	"github.com/gurpreetgarry91/pbs-frontend/internal/config"
	uihandlers "github.com/gurpreetgarry91/pbs-frontend/internal/ui/handlers"
	"github.com/gurpreetgarry91/pbs-frontend/internal/ui/i18n"
	uimiddleware "github.com/gurpreetgarry91/pbs-frontend/internal/ui/middleware"
	"github.com/gurpreetgarry91/pbs-frontend/internal/ui/static"
)

// Handlers — обработчики, из которых собирается router.
type Handlers struct {
	Health            *apihandlers.HealthHandler
	Events            *apihandlers.CalendarHandler
	RequireAuth       *uimiddleware.RequireAuth
	Auth              *uihandlers.AuthHandler
	Dashboard         *uihandlers.DashboardHandler
	Users             *uihandlers.UsersHandler
	Subscriptions     *uihandlers.SubscriptionsHandler
	UserSubscriptions *uihandlers.UserSubscriptionsHandler
	Calendar          *uihandlers.CalendarHandler
	Advertisements    *uihandlers.AdvertisementsHandler
}

// Server — HTTP-сервер дашборда.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт HTTP-сервер с настроенными маршрутами и middleware.
func New(cfg *config.Config, logger *slog.Logger, h Handlers) *Server {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      NewRouter(logger, h),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// NewRouter собирает chi router: служебные endpoints без аутентификации,
// страницы входа и выхода, всё под /dashboard за RequireAuth.
func NewRouter(logger *slog.Logger, h Handlers) chi.Router {
	router := chi.NewRouter()

	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))

	router.Get("/health/live", h.Health.HealthLive)
	router.Get("/health/ready", h.Health.HealthReady)
	router.Get("/metrics", h.Health.GetMetrics)
	router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(static.FileSystem())))

	router.Group(func(r chi.Router) {
		r.Use(i18n.Middleware)

		r.Get("/", h.Auth.HandleSignIn)
		r.Post("/", h.Auth.HandleLogin)
		r.Post("/logout", h.Auth.HandleLogout)
		r.Post("/set-language", uihandlers.HandleSetLanguage)

		r.Route("/dashboard", func(r chi.Router) {
			r.Use(h.RequireAuth.Middleware())

			r.Get("/", h.Dashboard.HandleDashboard)

			r.Route("/users", func(r chi.Router) {
				r.Get("/", h.Users.HandleList)
				r.Post("/", h.Users.HandleCreate)
				r.Get("/new", h.Users.HandleNew)
				r.Get("/{id}/edit", h.Users.HandleEdit)
				r.Post("/{id}", h.Users.HandleUpdate)
				r.Post("/{id}/delete", h.Users.HandleDelete)
			})

			r.Route("/subscriptions", func(r chi.Router) {
				r.Get("/", h.Subscriptions.HandleList)
				r.Post("/", h.Subscriptions.HandleCreate)
				r.Get("/new", h.Subscriptions.HandleNew)
				r.Get("/{id}/edit", h.Subscriptions.HandleEdit)
				r.Post("/{id}", h.Subscriptions.HandleUpdate)
				r.Post("/{id}/delete", h.Subscriptions.HandleDelete)
			})

			r.Route("/user-subscriptions", func(r chi.Router) {
				r.Get("/", h.UserSubscriptions.HandleList)
				r.Post("/", h.UserSubscriptions.HandleCreate)
				r.Get("/new", h.UserSubscriptions.HandleNew)
				r.Get("/{id}/edit", h.UserSubscriptions.HandleEdit)
				r.Post("/{id}", h.UserSubscriptions.HandleUpdate)
				r.Post("/{id}/delete", h.UserSubscriptions.HandleDelete)
			})

			r.Route("/calendar-media", func(r chi.Router) {
				r.Get("/", h.Calendar.HandleCalendar)
				r.Post("/navigate", h.Calendar.HandleNavigate)
				r.Post("/refresh", h.Calendar.HandleRefresh)
				r.Get("/session", h.Calendar.HandleSession)
				r.Post("/session", h.Calendar.HandleOpenSession)
				r.Post("/session/files", h.Calendar.HandleAddFiles)
				r.Post("/session/files/clear", h.Calendar.HandleClearFiles)
				r.Post("/session/files/{index}/remove", h.Calendar.HandleRemoveFile)
				r.Post("/session/upload", h.Calendar.HandleUpload)
				r.Post("/session/media/{id}/delete", h.Calendar.HandleDeleteMedia)
				r.Post("/session/close", h.Calendar.HandleCloseSession)
			})

			r.Route("/advertisements", func(r chi.Router) {
				r.Get("/", h.Advertisements.HandleList)
				r.Post("/", h.Advertisements.HandleUpload)
				r.Post("/{id}/delete", h.Advertisements.HandleDelete)
			})

			r.Get("/api/calendar/events", h.Events.HandleEvents)
		})
	})

	return router
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен", slog.String("addr", s.httpServer.Addr))

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
