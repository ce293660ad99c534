package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/gurpreetgarry91/pbs-frontend/internal/domain/model"
	"github.com/gurpreetgarry91/pbs-frontend/internal/ui/pages"
)

// DashboardBackend — списки для счётчиков главной страницы.
type DashboardBackend interface {
	ListUsers(ctx context.Context, q string) ([]model.User, error)
	ListSubscriptions(ctx context.Context, q string) ([]model.Subscription, error)
	ListUserSubscriptions(ctx context.Context, q string) ([]model.UserSubscription, error)
	ListAdvertisements(ctx context.Context) ([]model.Advertisement, error)
}

// DashboardHandler — главная страница.
type DashboardHandler struct {
	base
	api DashboardBackend
}

// NewDashboardHandler создаёт DashboardHandler.
func NewDashboardHandler(api DashboardBackend, sessions SessionClearer, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		base: newBase(sessions, logger, "ui.dashboard"),
		api:  api,
	}
}

// HandleDashboard — GET /dashboard. Счётчики загружаются параллельно;
// неудачный запрос показывается прочерком.
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := pages.DashboardData{Layout: h.layout(r, "title.dashboard", pages.NavDashboard)}

	counted := func(c *pages.Count, n int, err error) {
		if err != nil {
			h.logBackendError(r, "Ошибка загрузки счётчика", err)
			return
		}
		*c = pages.Count{N: n, OK: true}
	}

	var g errgroup.Group
	errs := make([]error, 4)
	g.Go(func() error {
		users, err := h.api.ListUsers(ctx, "")
		errs[0] = err
		counted(&data.Users, len(users), err)
		return nil
	})
	g.Go(func() error {
		subs, err := h.api.ListSubscriptions(ctx, "")
		errs[1] = err
		counted(&data.Subscriptions, len(subs), err)
		return nil
	})
	g.Go(func() error {
		us, err := h.api.ListUserSubscriptions(ctx, "")
		errs[2] = err
		counted(&data.UserSubscriptions, len(us), err)
		return nil
	})
	g.Go(func() error {
		ads, err := h.api.ListAdvertisements(ctx)
		errs[3] = err
		counted(&data.Advertisements, len(ads), err)
		return nil
	})
	_ = g.Wait()

	for _, err := range errs {
		if err != nil && h.unauthorized(w, r, err) {
			return
		}
	}
	h.render(w, r, http.StatusOK, pages.Dashboard(data))
}
