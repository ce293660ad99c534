// subscriptions.go — тарифы подписки.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gurpreetgarry91/pbs-frontend/internal/domain/model"
	"github.com/gurpreetgarry91/pbs-frontend/internal/ui/pages"
)

const subscriptionsPath = "/dashboard/subscriptions"

// SubscriptionBackend — операции backend над тарифами.
type SubscriptionBackend interface {
	ListSubscriptions(ctx context.Context, q string) ([]model.Subscription, error)
	GetSubscription(ctx context.Context, id int64) (*model.Subscription, error)
	CreateSubscription(ctx context.Context, in model.SubscriptionInput) error
	UpdateSubscription(ctx context.Context, id int64, in model.SubscriptionInput) error
	DeleteSubscription(ctx context.Context, id int64) error
}

// SubscriptionsHandler — страницы тарифов.
type SubscriptionsHandler struct {
	base
	api SubscriptionBackend
}

// NewSubscriptionsHandler создаёт SubscriptionsHandler.
func NewSubscriptionsHandler(api SubscriptionBackend, sessions SessionClearer, logger *slog.Logger) *SubscriptionsHandler {
	return &SubscriptionsHandler{
		base: newBase(sessions, logger, "ui.subscriptions"),
		api:  api,
	}
}

// HandleList — GET /dashboard/subscriptions?q=.
func (h *SubscriptionsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	data := pages.SubscriptionsData{
		Layout: h.layout(r, "title.subscriptions", pages.NavSubscriptions),
		Query:  q,
	}

	subs, err := h.api.ListSubscriptions(r.Context(), q)
	if err != nil {
		if h.unauthorized(w, r, err) {
			return
		}
		h.logBackendError(r, "Ошибка получения списка тарифов", err)
		data.ListError = true
		data.Alert = failure(err, "")
	}
	data.Subscriptions = subs
	h.render(w, r, http.StatusOK, pages.Subscriptions(data))
}

// HandleNew — GET /dashboard/subscriptions/new.
func (h *SubscriptionsHandler) HandleNew(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, 0, model.DefaultSubscriptionInput(), "")
}

// HandleEdit — GET /dashboard/subscriptions/{id}/edit.
func (h *SubscriptionsHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.renderError(w, r, http.StatusNotFound, "error.not_found")
		return
	}
	s, err := h.api.GetSubscription(r.Context(), id)
	if err != nil {
		if h.unauthorized(w, r, err) {
			return
		}
		if isNotFound(err) {
			h.renderError(w, r, http.StatusNotFound, "error.not_found")
			return
		}
		h.logBackendError(r, "Ошибка загрузки тарифа", err)
		h.renderError(w, r, http.StatusBadGateway, failure(err, "error.load_failed"))
		return
	}
	in := model.SubscriptionInput{
		Name:        s.Name,
		Description: s.Description,
		Price:       s.Price,
		Duration:    s.Duration,
		Active:      s.Active,
	}
	h.renderForm(w, r, http.StatusOK, id, in, "")
}

// HandleCreate — POST /dashboard/subscriptions.
func (h *SubscriptionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, 0)
}

// HandleUpdate — POST /dashboard/subscriptions/{id}.
func (h *SubscriptionsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.renderError(w, r, http.StatusNotFound, "error.not_found")
		return
	}
	h.save(w, r, id)
}

func (h *SubscriptionsHandler) save(w http.ResponseWriter, r *http.Request, id int64) {
	in, ok := subscriptionInputFromForm(r)
	if !ok {
		h.renderForm(w, r, http.StatusBadRequest, id, in, "error.invalid_form")
		return
	}

	var err error
	if id == 0 {
		err = h.api.CreateSubscription(r.Context(), in)
	} else {
		err = h.api.UpdateSubscription(r.Context(), id, in)
	}
	if err != nil {
		if h.unauthorized(w, r, err) {
			return
		}
		h.logBackendError(r, "Ошибка сохранения тарифа", err)
		h.renderForm(w, r, http.StatusBadGateway, id, in, failure(err, "error.save_failed"))
		return
	}
	h.logger.Info("Тариф сохранён",
		slog.Int64("id", id),
		slog.String("name", in.Name),
	)
	redirectNotice(w, r, subscriptionsPath, "notice.saved")
}

// HandleDelete — POST /dashboard/subscriptions/{id}/delete (confirm=true).
func (h *SubscriptionsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.renderError(w, r, http.StatusNotFound, "error.not_found")
		return
	}
	if !h.confirmed(w, r, pages.NavSubscriptions, "subscriptions.confirm_delete", subscriptionsPath) {
		return
	}
	if err := h.api.DeleteSubscription(r.Context(), id); err != nil {
		if h.unauthorized(w, r, err) {
			return
		}
		h.logBackendError(r, "Ошибка удаления тарифа", err)
		redirectAlert(w, r, subscriptionsPath, failure(err, "error.delete_failed"))
		return
	}
	h.logger.Info("Тариф удалён", slog.Int64("id", id))
	redirectNotice(w, r, subscriptionsPath, "notice.deleted")
}

func (h *SubscriptionsHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, id int64, in model.SubscriptionInput, formErr string) {
	title := "title.subscription_new"
	if id != 0 {
		title = "title.subscription_edit"
	}
	h.render(w, r, status, pages.SubscriptionForm(pages.SubscriptionFormData{
		Layout:    h.layout(r, title, pages.NavSubscriptions),
		ID:        id,
		Input:     in,
		FormError: formErr,
	}))
}

// subscriptionInputFromForm читает форму тарифа. Цена неотрицательная,
// длительность от одного дня.
func subscriptionInputFromForm(r *http.Request) (model.SubscriptionInput, bool) {
	active, _ := strconv.ParseBool(r.PostFormValue("active"))
	in := model.SubscriptionInput{
		Name:        strings.TrimSpace(r.PostFormValue("subscription_name")),
		Description: strings.TrimSpace(r.PostFormValue("description")),
		Active:      active,
	}
	ok := in.Name != ""

	price, err := strconv.ParseFloat(strings.TrimSpace(r.PostFormValue("price")), 64)
	if err != nil || price < 0 {
		ok = false
	} else {
		in.Price = price
	}
	duration, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue("duration")))
	if err != nil || duration < 1 {
		ok = false
	} else {
		in.Duration = duration
	}
	return in, ok
}
