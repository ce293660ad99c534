// Точка входа PBS Admin Dashboard — веб-интерфейс администратора сервиса
// медиаподписок. Загружает конфигурацию, создаёт клиент REST backend,
// календарь медиа, UI-сессии и обработчики, запускает мониторинг backend
// и HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/gurpreetgarry91/pbs-frontend/internal/api/handlers"
	"github.com/gurpreetgarry91/pbs-frontend/internal/backend"
	"github.com/gurpreetgarry91/pbs-frontend/internal/calendar"
	"github.com/gurpreetgarry91/pbs-frontend/internal/config"
	"github.com/gurpreetgarry91/pbs-frontend/internal/server"
	"github.com/gurpreetgarry91/pbs-frontend/internal/service"
	"github.com/gurpreetgarry91/pbs-frontend/internal/ui/auth"
	uihandlers "github.com/gurpreetgarry91/pbs-frontend/internal/ui/handlers"
	"github.com/gurpreetgarry91/pbs-frontend/internal/ui/i18n"
	uimiddleware "github.com/gurpreetgarry91/pbs-frontend/internal/ui/middleware"
)

const serviceID = "pbs-admin"

func main() {
	// 1. Конфигурация из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Логирование
	logger := config.SetupLogger(cfg)
	logger.Info("PBS Admin Dashboard запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("api_url", cfg.APIURL),
		slog.String("timezone", cfg.Location.String()),
	)

	// 3. Каталоги переводов
	if _, err := i18n.Load(logger); err != nil {
		logger.Error("Ошибка загрузки переводов", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Клиент REST backend
	api, err := backend.New(backend.Options{
		BaseURL:            cfg.APIURL,
		MediaBaseURL:       cfg.MediaBaseURL,
		Timeout:            cfg.APITimeout,
		CACertPath:         cfg.APICACertPath,
		BreakerMaxFailures: cfg.BreakerMaxFailures,
		BreakerTimeout:     cfg.BreakerTimeout,
	}, logger)
	if err != nil {
		logger.Error("Ошибка создания клиента backend", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 5. Календарь медиа: агрегатор общий, контроллер на каждую UI-сессию
	aggregator := calendar.NewAggregator(api, cfg.AggregateConcurrency, logger)
	staging := calendar.NewStagingBudget(cfg.StagingMaxBytes)
	controllers := calendar.NewStore(cfg.CalendarStateSize, cfg.CalendarStateTTL, func() *calendar.Controller {
		return calendar.NewController(calendar.ControllerOptions{
			Subscribers:    api,
			Media:          api,
			Aggregator:     aggregator,
			MaxStagedBytes: cfg.UploadMaxBytes,
			Staging:        staging,
			Location:       cfg.Location,
			Logger:         logger,
		})
	})

	// 6. UI-сессии (AES-256-GCM cookie)
	sessionStore, err := auth.NewCookieStore(cfg.SessionSecret, cfg.SecureCookie)
	if err != nil {
		logger.Error("Ошибка создания хранилища сессий", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.SessionSecret == "" {
		logger.Warn("PBS_SESSION_SECRET не задан, UI-сессии не сохраняются между рестартами")
	}
	authenticator := auth.NewAuthenticator(sessionStore, api, cfg.SessionTTL, logger)

	// 7. Мониторинг backend (topologymetrics)
	ctx := context.Background()
	var health interface{ Health() map[string]bool }
	dephealthSvc, err := service.NewDephealthService(service.DephealthOptions{
		ServiceID:     serviceID,
		Group:         cfg.DephealthGroup,
		BackendURL:    cfg.APIURL,
		HealthPath:    cfg.DephealthHealthPath,
		CheckInterval: cfg.DephealthCheckInterval,
	}, logger)
	if err != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга backend",
			slog.String("error", err.Error()),
		)
		dephealthSvc = nil
	} else if err := dephealthSvc.Start(ctx); err != nil {
		logger.Warn("Ошибка запуска topologymetrics", slog.String("error", err.Error()))
		dephealthSvc = nil
	} else {
		health = dephealthSvc
		logger.Info("topologymetrics запущен",
			slog.String("group", cfg.DephealthGroup),
			slog.String("check_interval", cfg.DephealthCheckInterval.String()),
		)
	}

	// 8. Обработчики
	h := server.Handlers{
		Health:            handlers.NewHealthHandler(service.NewBackendChecker(health, api)),
		Events:            handlers.NewCalendarHandler(controllers, logger),
		RequireAuth:       uimiddleware.NewRequireAuth(authenticator, logger),
		Auth:              uihandlers.NewAuthHandler(authenticator, controllers, logger),
		Dashboard:         uihandlers.NewDashboardHandler(api, authenticator, logger),
		Users:             uihandlers.NewUsersHandler(api, authenticator, logger),
		Subscriptions:     uihandlers.NewSubscriptionsHandler(api, authenticator, logger),
		UserSubscriptions: uihandlers.NewUserSubscriptionsHandler(api, cfg.Location, authenticator, logger),
		Calendar:          uihandlers.NewCalendarHandler(controllers, cfg.UploadMaxBytes, authenticator, logger),
		Advertisements:    uihandlers.NewAdvertisementsHandler(api, cfg.UploadMaxBytes, authenticator, logger),
	}

	// 9. HTTP-сервер
	srv := server.New(cfg, logger, h)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 10. Остановка фоновых задач
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}
	logger.Info("PBS Admin Dashboard остановлен",
		slog.Int("calendar_states", controllers.Len()),
	)
}
