// user_subscriptions.go — назначение тарифов подписчикам.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gurpreetgarry91/pbs-frontend/internal/domain/model"
	"github.com/gurpreetgarry91/pbs-frontend/internal/ui/pages"
)

const userSubscriptionsPath = "/dashboard/user-subscriptions"

// UserSubscriptionBackend — операции backend над подписками пользователей
// и справочники формы.
type UserSubscriptionBackend interface {
	ListUserSubscriptions(ctx context.Context, q string) ([]model.UserSubscription, error)
	GetUserSubscription(ctx context.Context, id int64) (*model.UserSubscription, error)
	CreateUserSubscription(ctx context.Context, in model.UserSubscriptionInput) error
	UpdateUserSubscription(ctx context.Context, id int64, in model.UserSubscriptionInput) error
	DeleteUserSubscription(ctx context.Context, id int64) error
	ListUsers(ctx context.Context, q string) ([]model.User, error)
	ListSubscriptions(ctx context.Context, q string) ([]model.Subscription, error)
}

// UserSubscriptionsHandler — страницы подписок пользователей.
type UserSubscriptionsHandler struct {
	base
	api UserSubscriptionBackend
	loc *time.Location
}

// NewUserSubscriptionsHandler создаёт UserSubscriptionsHandler. loc — часовой
// пояс полей datetime-local.
func NewUserSubscriptionsHandler(api UserSubscriptionBackend, loc *time.Location, sessions SessionClearer, logger *slog.Logger) *UserSubscriptionsHandler {
	if loc == nil {
		loc = time.Local
	}
	return &UserSubscriptionsHandler{
		base: newBase(sessions, logger, "ui.user_subscriptions"),
		api:  api,
		loc:  loc,
	}
}

// options — справочники пользователей и тарифов.
type options struct {
	users []model.User
	plans []model.Subscription
	err   error
}

// loadOptions загружает пользователей и тарифы параллельно.
func (h *UserSubscriptionsHandler) loadOptions(ctx context.Context) options {
	var (
		opts    options
		g       errgroup.Group
		userErr error
		planErr error
	)
	g.Go(func() error {
		opts.users, userErr = h.api.ListUsers(ctx, "")
		return nil
	})
	g.Go(func() error {
		opts.plans, planErr = h.api.ListSubscriptions(ctx, "")
		return nil
	})
	_ = g.Wait()

	if userErr != nil {
		opts.err = userErr
	} else if planErr != nil {
		opts.err = planErr
	}
	return opts
}

// HandleList — GET /dashboard/user-subscriptions?q=. Имена пользователей
// и тарифов подставляются из справочников; без них выводится ID.
func (h *UserSubscriptionsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query().Get("q")
	data := pages.UserSubscriptionsData{
		Layout: h.layout(r, "title.user_subscriptions", pages.NavUserSubscriptions),
		Query:  q,
	}

	var (
		list    []model.UserSubscription
		listErr error
		opts    options
		g       errgroup.Group
	)
	g.Go(func() error {
		list, listErr = h.api.ListUserSubscriptions(ctx, q)
		return nil
	})
	g.Go(func() error {
		opts = h.loadOptions(ctx)
		return nil
	})
	_ = g.Wait()

	for _, err := range []error{listErr, opts.err} {
		if err != nil && h.unauthorized(w, r, err) {
			return
		}
	}
	if listErr != nil {
		h.logBackendError(r, "Ошибка получения списка подписок", listErr)
		data.ListError = true
		data.Alert = failure(listErr, "")
	}
	if opts.err != nil {
		h.logBackendError(r, "Ошибка загрузки справочников подписок", opts.err)
	}

	users := make(map[int64]model.User, len(opts.users))
	for _, u := range opts.users {
		users[u.ID] = u
	}
	plans := make(map[int64]model.Subscription, len(opts.plans))
	for _, p := range opts.plans {
		plans[p.ID] = p
	}

	data.Rows = make([]pages.UserSubscriptionRow, 0, len(list))
	for _, us := range list {
		row := pages.UserSubscriptionRow{
			UserSubscription: us,
			UserName:         strconv.FormatInt(us.UserID, 10),
			PlanName:         strconv.FormatInt(us.SubscriptionID, 10),
			Start:            model.FormatDisplayDateTime(us.StartDatetime, h.loc),
			End:              model.FormatDisplayDate(us.EndDate),
		}
		if u, ok := users[us.UserID]; ok {
			row.UserName = u.UserName + " (" + u.Email + ")"
		}
		if p, ok := plans[us.SubscriptionID]; ok {
			row.PlanName = p.Name
		}
		data.Rows = append(data.Rows, row)
	}
	h.render(w, r, http.StatusOK, pages.UserSubscriptions(data))
}

// HandleNew — GET /dashboard/user-subscriptions/new.
func (h *UserSubscriptionsHandler) HandleNew(w http.ResponseWriter, r *http.Request) {
	opts := h.loadOptions(r.Context())
	if opts.err != nil && h.unauthorized(w, r, opts.err) {
		return
	}
	h.renderForm(w, r, http.StatusOK, 0, pages.UserSubscriptionFormValues{Status: model.StatusActive}, opts, "")
}

// HandleEdit — GET /dashboard/user-subscriptions/{id}/edit.
func (h *UserSubscriptionsHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathID(r, "id")
	if !ok {
		h.renderError(w, r, http.StatusNotFound, "error.not_found")
		return
	}

	var (
		us   *model.UserSubscription
		err  error
		opts options
		g    errgroup.Group
	)
	g.Go(func() error {
		us, err = h.api.GetUserSubscription(ctx, id)
		return nil
	})
	g.Go(func() error {
		opts = h.loadOptions(ctx)
		return nil
	})
	_ = g.Wait()

	if err != nil {
		if h.unauthorized(w, r, err) {
			return
		}
		if isNotFound(err) {
			h.renderError(w, r, http.StatusNotFound, "error.not_found")
			return
		}
		h.logBackendError(r, "Ошибка загрузки подписки", err)
		h.renderError(w, r, http.StatusBadGateway, failure(err, "error.load_failed"))
		return
	}
	if opts.err != nil && h.unauthorized(w, r, opts.err) {
		return
	}

	form := pages.UserSubscriptionFormValues{
		UserID:         us.UserID,
		SubscriptionID: us.SubscriptionID,
		StartLocal:     model.FormatLocalInput(us.StartDatetime, h.loc),
		EndDate:        model.DateInput(us.EndDate),
		PaymentMethod:  us.PaymentMethod,
		Status:         us.Status,
	}
	if form.Status == "" {
		form.Status = model.StatusActive
	}
	h.renderForm(w, r, http.StatusOK, id, form, opts, "")
}

// HandleCreate — POST /dashboard/user-subscriptions.
func (h *UserSubscriptionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, 0)
}

// HandleUpdate — POST /dashboard/user-subscriptions/{id}.
func (h *UserSubscriptionsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.renderError(w, r, http.StatusNotFound, "error.not_found")
		return
	}
	h.save(w, r, id)
}

func (h *UserSubscriptionsHandler) save(w http.ResponseWriter, r *http.Request, id int64) {
	ctx := r.Context()
	form, in, ok := h.inputFromForm(r)
	if !ok {
		h.renderForm(w, r, http.StatusBadRequest, id, form, h.loadOptions(ctx), "error.invalid_form")
		return
	}

	var err error
	if id == 0 {
		err = h.api.CreateUserSubscription(ctx, in)
	} else {
		err = h.api.UpdateUserSubscription(ctx, id, in)
	}
	if err != nil {
		if h.unauthorized(w, r, err) {
			return
		}
		h.logBackendError(r, "Ошибка сохранения подписки", err)
		h.renderForm(w, r, http.StatusBadGateway, id, form, h.loadOptions(ctx), failure(err, "error.save_failed"))
		return
	}
	h.logger.Info("Подписка пользователя сохранена",
		slog.Int64("id", id),
		slog.Int64("user_id", in.UserID),
		slog.Int64("subscription_id", in.SubscriptionID),
	)
	redirectNotice(w, r, userSubscriptionsPath, "notice.saved")
}

// HandleDelete — POST /dashboard/user-subscriptions/{id}/delete (confirm=true).
func (h *UserSubscriptionsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.renderError(w, r, http.StatusNotFound, "error.not_found")
		return
	}
	if !h.confirmed(w, r, pages.NavUserSubscriptions, "user_subscriptions.confirm_delete", userSubscriptionsPath) {
		return
	}
	if err := h.api.DeleteUserSubscription(r.Context(), id); err != nil {
		if h.unauthorized(w, r, err) {
			return
		}
		h.logBackendError(r, "Ошибка удаления подписки", err)
		redirectAlert(w, r, userSubscriptionsPath, failure(err, "error.delete_failed"))
		return
	}
	h.logger.Info("Подписка пользователя удалена", slog.Int64("id", id))
	redirectNotice(w, r, userSubscriptionsPath, "notice.deleted")
}

func (h *UserSubscriptionsHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, id int64, form pages.UserSubscriptionFormValues, opts options, formErr string) {
	title := "title.user_subscription_new"
	if id != 0 {
		title = "title.user_subscription_edit"
	}
	if opts.err != nil {
		h.logBackendError(r, "Ошибка загрузки справочников подписок", opts.err)
	}

	subscribers := model.FilterSubscribers(opts.users)
	if form.UserID != 0 && !containsUserID(subscribers, form.UserID) {
		// Назначенный пользователь мог сменить роль: оставляем его в списке.
		for _, u := range opts.users {
			if u.ID == form.UserID {
				subscribers = append(subscribers, u)
			}
		}
	}

	h.render(w, r, status, pages.UserSubscriptionForm(pages.UserSubscriptionFormData{
		Layout:       h.layout(r, title, pages.NavUserSubscriptions),
		ID:           id,
		Form:         form,
		Subscribers:  subscribers,
		Plans:        opts.plans,
		Statuses:     model.Statuses,
		OptionsError: opts.err != nil,
		FormError:    formErr,
	}))
}

// inputFromForm читает форму подписки: начало из datetime-local переводится
// в ISO UTC, пустые даты передаются как null.
func (h *UserSubscriptionsHandler) inputFromForm(r *http.Request) (pages.UserSubscriptionFormValues, model.UserSubscriptionInput, bool) {
	form := pages.UserSubscriptionFormValues{
		StartLocal:    strings.TrimSpace(r.PostFormValue("start_datetime")),
		EndDate:       strings.TrimSpace(r.PostFormValue("end_date")),
		PaymentMethod: strings.TrimSpace(r.PostFormValue("payment_method")),
		Status:        model.SubscriptionStatus(r.PostFormValue("subscription_status")),
	}
	ok := true

	var err error
	if form.UserID, err = strconv.ParseInt(r.PostFormValue("user_id"), 10, 64); err != nil || form.UserID <= 0 {
		ok = false
	}
	if form.SubscriptionID, err = strconv.ParseInt(r.PostFormValue("subscription_id"), 10, 64); err != nil || form.SubscriptionID <= 0 {
		ok = false
	}
	status, err := model.ParseStatus(string(form.Status))
	if err != nil {
		ok = false
		status = model.StatusActive
	}

	start, err := model.ParseLocalInput(form.StartLocal, h.loc)
	if err != nil {
		ok = false
	}
	end, err := model.ParseEndDate(form.EndDate)
	if err != nil {
		ok = false
	}

	in := model.UserSubscriptionInput{
		UserID:         form.UserID,
		SubscriptionID: form.SubscriptionID,
		StartDatetime:  start,
		EndDate:        end,
		PaymentMethod:  form.PaymentMethod,
		Status:         status,
	}
	return form, in, ok
}

func containsUserID(users []model.User, id int64) bool {
	for _, u := range users {
		if u.ID == id {
			return true
		}
	}
	return false
}
