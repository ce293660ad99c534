// users.go — список, создание, редактирование и удаление пользователей.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strconv"

	"github.com/gurpreetgarry91/pbs-frontend/internal/domain/model"
	"github.com/gurpreetgarry91/pbs-frontend/internal/ui/pages"
)

const usersPath = "/dashboard/users"

// UserBackend — операции backend над пользователями.
type UserBackend interface {
	ListUsers(ctx context.Context, q string) ([]model.User, error)
	GetUser(ctx context.Context, id int64) (*model.User, error)
	CreateUser(ctx context.Context, in model.UserInput) error
	UpdateUser(ctx context.Context, id int64, in model.UserInput) error
	DeleteUser(ctx context.Context, id int64) error
}

// UsersHandler — страницы пользователей.
type UsersHandler struct {
	base
	api UserBackend
}

// NewUsersHandler создаёт UsersHandler.
func NewUsersHandler(api UserBackend, sessions SessionClearer, logger *slog.Logger) *UsersHandler {
	return &UsersHandler{
		base: newBase(sessions, logger, "ui.users"),
		api:  api,
	}
}

// HandleList — GET /dashboard/users?q=.
func (h *UsersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	data := pages.UsersData{
		Layout: h.layout(r, "title.users", pages.NavUsers),
		Query:  q,
	}

	users, err := h.api.ListUsers(r.Context(), q)
	if err != nil {
		if h.unauthorized(w, r, err) {
			return
		}
		h.logBackendError(r, "Ошибка получения списка пользователей", err)
		data.ListError = true
		data.Alert = failure(err, "")
	}
	data.Users = users
	h.render(w, r, http.StatusOK, pages.Users(data))
}

// HandleNew — GET /dashboard/users/new.
func (h *UsersHandler) HandleNew(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, 0, model.UserInput{Role: model.RoleUser, Active: true}, "")
}

// HandleEdit — GET /dashboard/users/{id}/edit.
func (h *UsersHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.renderError(w, r, http.StatusNotFound, "error.not_found")
		return
	}
	u, err := h.api.GetUser(r.Context(), id)
	if err != nil {
		h.loadFailed(w, r, err)
		return
	}
	in := model.UserInput{
		UserName: u.UserName,
		Email:    u.Email,
		Phone:    u.Phone,
		Role:     u.Role,
		Active:   u.Active,
	}
	h.renderForm(w, r, http.StatusOK, id, in, "")
}

// HandleCreate — POST /dashboard/users.
func (h *UsersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	in, ok := userInputFromForm(r)
	if !ok || in.Password == "" {
		h.renderForm(w, r, http.StatusBadRequest, 0, in, "error.invalid_form")
		return
	}
	if err := h.api.CreateUser(r.Context(), in); err != nil {
		h.saveFailed(w, r, 0, in, err)
		return
	}
	h.logger.Info("Пользователь создан", slog.String("user_name", in.UserName))
	redirectNotice(w, r, usersPath, "notice.saved")
}

// HandleUpdate — POST /dashboard/users/{id}. Пустой пароль не меняется.
func (h *UsersHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.renderError(w, r, http.StatusNotFound, "error.not_found")
		return
	}
	in, ok := userInputFromForm(r)
	if !ok {
		h.renderForm(w, r, http.StatusBadRequest, id, in, "error.invalid_form")
		return
	}
	if err := h.api.UpdateUser(r.Context(), id, in); err != nil {
		h.saveFailed(w, r, id, in, err)
		return
	}
	h.logger.Info("Пользователь обновлён", slog.Int64("user_id", id))
	redirectNotice(w, r, usersPath, "notice.saved")
}

// HandleDelete — POST /dashboard/users/{id}/delete (confirm=true).
func (h *UsersHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.renderError(w, r, http.StatusNotFound, "error.not_found")
		return
	}
	if !h.confirmed(w, r, pages.NavUsers, "users.confirm_delete", usersPath) {
		return
	}
	if err := h.api.DeleteUser(r.Context(), id); err != nil {
		if h.unauthorized(w, r, err) {
			return
		}
		h.logBackendError(r, "Ошибка удаления пользователя", err)
		redirectAlert(w, r, usersPath, failure(err, "error.delete_failed"))
		return
	}
	h.logger.Info("Пользователь удалён", slog.Int64("user_id", id))
	redirectNotice(w, r, usersPath, "notice.deleted")
}

func (h *UsersHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, id int64, in model.UserInput, formErr string) {
	title := "title.user_new"
	if id != 0 {
		title = "title.user_edit"
	}
	roles := model.Roles
	if in.Role != "" && !slices.Contains(roles, in.Role) {
		roles = append(slices.Clone(roles), in.Role)
	}
	in.Password = ""
	h.render(w, r, status, pages.UserForm(pages.UserFormData{
		Layout:    h.layout(r, title, pages.NavUsers),
		ID:        id,
		Input:     in,
		Roles:     roles,
		FormError: formErr,
	}))
}

func (h *UsersHandler) saveFailed(w http.ResponseWriter, r *http.Request, id int64, in model.UserInput, err error) {
	if h.unauthorized(w, r, err) {
		return
	}
	h.logBackendError(r, "Ошибка сохранения пользователя", err)
	h.renderForm(w, r, http.StatusBadGateway, id, in, failure(err, "error.save_failed"))
}

func (h *UsersHandler) loadFailed(w http.ResponseWriter, r *http.Request, err error) {
	if h.unauthorized(w, r, err) {
		return
	}
	if isNotFound(err) {
		h.renderError(w, r, http.StatusNotFound, "error.not_found")
		return
	}
	h.logBackendError(r, "Ошибка загрузки пользователя", err)
	h.renderError(w, r, http.StatusBadGateway, failure(err, "error.load_failed"))
}

// userInputFromForm читает форму пользователя; ok=false — не заполнены
// обязательные поля.
func userInputFromForm(r *http.Request) (model.UserInput, bool) {
	active, _ := strconv.ParseBool(r.PostFormValue("active"))
	in := model.UserInput{
		UserName: r.PostFormValue("user_name"),
		Email:    r.PostFormValue("email"),
		Phone:    r.PostFormValue("phone"),
		Role:     r.PostFormValue("role"),
		Active:   active,
		Password: r.PostFormValue("password"),
	}.Normalize()
	return in, in.UserName != "" && in.Email != ""
}
