// calendar_media.go — календарь медиа подписчика и работа с медиа дня.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gurpreetgarry91/pbs-frontend/internal/calendar"
	"github.com/gurpreetgarry91/pbs-frontend/internal/domain/model"
	"github.com/gurpreetgarry91/pbs-frontend/internal/ui/i18n"
	uimiddleware "github.com/gurpreetgarry91/pbs-frontend/internal/ui/middleware"
	"github.com/gurpreetgarry91/pbs-frontend/internal/ui/pages"
)

const (
	calendarPath = "/dashboard/calendar-media"
	sessionPath  = calendarPath + "/session"
)

// ControllerSource выдаёт контроллер календаря UI-сессии.
type ControllerSource interface {
	Get(key string) *calendar.Controller
}

// CalendarHandler — страницы календаря медиа.
type CalendarHandler struct {
	base
	controllers ControllerSource
	maxBytes    int64
	now         func() time.Time
}

// NewCalendarHandler создаёт CalendarHandler. maxBytes — лимит тела запроса
// добавления файлов.
func NewCalendarHandler(controllers ControllerSource, maxBytes int64, sessions SessionClearer, logger *slog.Logger) *CalendarHandler {
	return &CalendarHandler{
		base:        newBase(sessions, logger, "ui.calendar"),
		controllers: controllers,
		maxBytes:    maxBytes,
		now:         time.Now,
	}
}

// controller возвращает контроллер текущей UI-сессии.
func (h *CalendarHandler) controller(w http.ResponseWriter, r *http.Request) (*calendar.Controller, bool) {
	session := uimiddleware.SessionFromContext(r.Context())
	if session == nil {
		uimiddleware.RedirectToSignIn(w, r)
		return nil, false
	}
	return h.controllers.Get(session.SessionID), true
}

// preconditionKey возвращает ключ сообщения для отказа по предусловию.
func preconditionKey(err error) string {
	switch {
	case errors.Is(err, calendar.ErrNoSubscriber):
		return "calendar.no_subscriber"
	case errors.Is(err, calendar.ErrUnknownSubscriber):
		return "calendar.unknown_subscriber"
	case errors.Is(err, calendar.ErrDateOutOfRange):
		return "calendar.date_out_of_range"
	case errors.Is(err, calendar.ErrNothingStaged):
		return "media.nothing_staged"
	case errors.Is(err, calendar.ErrStagedTooLarge):
		return "media.too_large"
	case errors.Is(err, calendar.ErrStagingBusy):
		return "media.staging_busy"
	case errors.Is(err, calendar.ErrNoSuchStagedFile):
		return "media.no_such_file"
	case errors.Is(err, calendar.ErrUnknownMedia):
		return "media.unknown"
	case errors.Is(err, calendar.ErrUploadInProgress):
		return "media.upload_in_progress"
	case errors.Is(err, calendar.ErrSessionClosed):
		return "media.session_closed"
	}
	return ""
}

// HandleCalendar — GET /dashboard/calendar-media?user_id=&view=&date=.
// Параметры меняют выбор подписчика и интервал; без них показывается
// текущее состояние.
func (h *CalendarHandler) HandleCalendar(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	layout := h.layout(r, "title.calendar", pages.NavCalendar)
	snap := ctrl.EnsureLoaded(ctx)
	if snap.SubscribersErr != nil && h.unauthorized(w, r, snap.SubscribersErr) {
		return
	}

	q := r.URL.Query()
	if v := q.Get("user_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err == nil && id != snap.SelectedID {
			if snap, err = ctrl.SelectSubscriber(ctx, id); err != nil {
				h.logger.Debug("Выбор подписчика отклонён",
					slog.Int64("user_id", id),
					slog.String("error", err.Error()),
				)
				layout.Alert = preconditionKey(err)
			}
		}
	}
	if q.Has("view") || q.Has("date") {
		view := snap.View
		if q.Has("view") {
			view = calendar.ParseView(q.Get("view"))
		}
		anchor := snap.Anchor
		if v := q.Get("date"); v != "" {
			if day, err := calendar.ParseDay(v, ctrl.Location()); err == nil {
				anchor = day
			} else {
				layout.Alert = "calendar.invalid_date"
			}
		}
		if view != snap.View || !anchor.Equal(snap.Anchor) {
			snap = ctrl.SetView(ctx, view, anchor)
		}
	}

	h.render(w, r, http.StatusOK, pages.Calendar(h.calendarData(r, layout, snap, ctrl.Location())))
}

// calendarData раскладывает интервал снимка в сетку недель.
func (h *CalendarHandler) calendarData(r *http.Request, layout pages.Layout, snap calendar.Snapshot, loc *time.Location) pages.CalendarData {
	ctx := r.Context()
	data := pages.CalendarData{
		Layout:         layout,
		Subscribers:    snap.Subscribers,
		SubscribersErr: snap.SubscribersErr != nil,
		SelectedID:     snap.SelectedID,
		View:           string(snap.View),
		Views:          []string{string(calendar.ViewMonth), string(calendar.ViewWeek), string(calendar.ViewDay)},
		Loading:        snap.State == calendar.StateLoading,
	}
	if u, ok := snap.Selected(); ok {
		data.SelectedName = u.UserName
	}
	for _, e := range snap.Events {
		data.Total += e.Count
	}

	today := calendar.Midnight(h.now().In(loc))
	days := snap.Range.Days()
	width := 7
	if len(days) < width {
		width = len(days)
	}
	for i := 0; i < width; i++ {
		data.Weekdays = append(data.Weekdays, "weekday."+strconv.Itoa(int(days[i].Weekday())))
	}
	for i := 0; i < len(days); i += width {
		end := min(i+width, len(days))
		week := make([]pages.CalendarCell, 0, width)
		for _, d := range days[i:end] {
			week = append(week, pages.CalendarCell{
				Date:    calendar.FormatDay(d),
				Label:   d.Day(),
				InMonth: snap.View != calendar.ViewMonth || d.Month() == snap.Anchor.Month(),
				Today:   d.Equal(today),
				Count:   snap.CountOn(d),
			})
		}
		data.Weeks = append(data.Weeks, week)
	}

	switch {
	case snap.View == calendar.ViewMonth:
		data.Heading = i18n.T(ctx, "month."+strconv.Itoa(int(snap.Anchor.Month()))) + " " + strconv.Itoa(snap.Anchor.Year())
	case len(days) > 1:
		data.Heading = days[0].Format(model.DisplayDateLayout) + " – " + days[len(days)-1].Format(model.DisplayDateLayout)
	case len(days) == 1:
		data.Heading = days[0].Format(model.DisplayDateLayout)
	}
	return data
}

// HandleNavigate — POST /dashboard/calendar-media/navigate (dir=-1|0|1).
func (h *CalendarHandler) HandleNavigate(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	ctrl.EnsureLoaded(r.Context())
	switch dir, _ := strconv.Atoi(r.FormValue("dir")); {
	case dir < 0:
		ctrl.Navigate(r.Context(), -1)
	case dir > 0:
		ctrl.Navigate(r.Context(), 1)
	default:
		ctrl.Today(r.Context())
	}
	http.Redirect(w, r, calendarPath, http.StatusSeeOther)
}

// HandleRefresh — POST /dashboard/calendar-media/refresh. Перечитывает
// подписчиков и пересчитывает события.
func (h *CalendarHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	before := ctrl.Snapshot()
	snap, err := ctrl.LoadSubscribers(r.Context())
	if err != nil {
		if h.unauthorized(w, r, err) {
			return
		}
		redirectAlert(w, r, calendarPath, failure(err, "calendar.subscribers_failed"))
		return
	}
	if snap.Generation == before.Generation {
		ctrl.Refresh(r.Context())
	}
	http.Redirect(w, r, calendarPath, http.StatusSeeOther)
}

// HandleOpenSession — POST /dashboard/calendar-media/session (date=YYYY-MM-DD).
func (h *CalendarHandler) HandleOpenSession(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	day, err := calendar.ParseDay(r.FormValue("date"), ctrl.Location())
	if err != nil {
		redirectAlert(w, r, calendarPath, "calendar.invalid_date")
		return
	}
	s, err := ctrl.OpenSession(r.Context(), day)
	if err != nil {
		h.logger.Debug("Открытие медиа дня отклонено",
			slog.String("date", calendar.FormatDay(day)),
			slog.String("error", err.Error()),
		)
		redirectAlert(w, r, calendarPath, preconditionKey(err))
		return
	}
	if lerr := s.LoadErr(); lerr != nil && h.unauthorized(w, r, lerr) {
		return
	}
	http.Redirect(w, r, sessionPath, http.StatusSeeOther)
}

// session возвращает открытую сессию медиа или перенаправляет в календарь.
func (h *CalendarHandler) session(w http.ResponseWriter, r *http.Request) (*calendar.Controller, *calendar.MediaSession, bool) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return nil, nil, false
	}
	s := ctrl.Session()
	if s == nil || s.Closed() {
		redirectAlert(w, r, calendarPath, "media.no_session")
		return nil, nil, false
	}
	return ctrl, s, true
}

// HandleSession — GET /dashboard/calendar-media/session.
func (h *CalendarHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	ctrl, s, ok := h.session(w, r)
	if !ok {
		return
	}

	data := pages.MediaSessionData{
		Layout:      h.layout(r, "title.media_session", pages.NavCalendar),
		Date:        calendar.FormatDay(s.Day()),
		DateLabel:   s.Day().Format(model.DisplayDateLayout),
		Items:       s.Items(),
		LoadError:   s.LoadErr() != nil,
		StagedBytes: s.StagedBytes(),
		MaxBytes:    h.maxBytes,
	}
	if data.LoadError {
		data.Alert = failure(s.LoadErr(), data.Alert)
	}
	data.SubscriberName = strconv.FormatInt(s.SubscriberID(), 10)
	for _, u := range ctrl.Snapshot().Subscribers {
		if u.ID == s.SubscriberID() {
			data.SubscriberName = u.UserName
		}
	}
	for i, f := range s.Staged() {
		data.Staged = append(data.Staged, pages.StagedFile{
			Index: i,
			Name:  f.Name,
			Size:  f.Size(),
			Image: f.IsImage(),
		})
	}
	h.render(w, r, http.StatusOK, pages.MediaSession(data))
}

// HandleAddFiles — POST /dashboard/calendar-media/session/files (multipart).
func (h *CalendarHandler) HandleAddFiles(w http.ResponseWriter, r *http.Request) {
	_, s, ok := h.session(w, r)
	if !ok {
		return
	}
	files, err := readUploads(w, r, "files", h.maxBytes)
	if err != nil {
		h.logger.Debug("Файлы не приняты", slog.String("error", err.Error()))
		key := "error.upload_failed"
		if errors.Is(err, errUploadTooLarge) {
			key = "media.too_large"
		}
		redirectAlert(w, r, sessionPath, key)
		return
	}
	if len(files) == 0 {
		redirectAlert(w, r, sessionPath, "error.no_files")
		return
	}
	if err := s.AddFiles(files...); err != nil {
		redirectAlert(w, r, sessionPath, preconditionKey(err))
		return
	}
	redirectNotice(w, r, sessionPath, "notice.files_added")
}

// HandleRemoveFile — POST /dashboard/calendar-media/session/files/{index}/remove.
func (h *CalendarHandler) HandleRemoveFile(w http.ResponseWriter, r *http.Request) {
	_, s, ok := h.session(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		redirectAlert(w, r, sessionPath, "media.no_such_file")
		return
	}
	if err := s.RemoveFile(index); err != nil {
		redirectAlert(w, r, sessionPath, preconditionKey(err))
		return
	}
	redirectNotice(w, r, sessionPath, "notice.file_removed")
}

// HandleClearFiles — POST /dashboard/calendar-media/session/files/clear.
func (h *CalendarHandler) HandleClearFiles(w http.ResponseWriter, r *http.Request) {
	_, s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.ClearFiles()
	redirectNotice(w, r, sessionPath, "notice.files_cleared")
}

// HandleUpload — POST /dashboard/calendar-media/session/upload.
// Все подготовленные файлы уходят одним запросом.
func (h *CalendarHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	_, s, ok := h.session(w, r)
	if !ok {
		return
	}
	staged := len(s.Staged())
	if err := s.Upload(r.Context()); err != nil {
		if key := preconditionKey(err); key != "" {
			redirectAlert(w, r, sessionPath, key)
			return
		}
		if h.unauthorized(w, r, err) {
			return
		}
		h.logBackendError(r, "Ошибка загрузки медиа", err)
		redirectAlert(w, r, sessionPath, failure(err, "error.upload_failed"))
		return
	}
	h.logger.Info("Медиа загружены",
		slog.Int64("user_id", s.SubscriberID()),
		slog.String("date", calendar.FormatDay(s.Day())),
		slog.Int("files", staged),
	)
	redirectNotice(w, r, sessionPath, "notice.uploaded")
}

// HandleDeleteMedia — POST /dashboard/calendar-media/session/media/{id}/delete.
// Без confirm=true показывается страница подтверждения.
func (h *CalendarHandler) HandleDeleteMedia(w http.ResponseWriter, r *http.Request) {
	_, s, ok := h.session(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		redirectAlert(w, r, sessionPath, "media.unknown")
		return
	}

	err := s.Delete(r.Context(), id, r.FormValue("confirm") == "true")
	switch {
	case err == nil:
		h.logger.Info("Медиафайл удалён", slog.Int64("id", id))
		redirectNotice(w, r, sessionPath, "notice.deleted")
	case errors.Is(err, calendar.ErrNotConfirmed):
		h.confirmed(w, r, pages.NavCalendar, "media.confirm_delete", sessionPath)
	case preconditionKey(err) != "":
		redirectAlert(w, r, sessionPath, preconditionKey(err))
	case h.unauthorized(w, r, err):
	default:
		h.logBackendError(r, "Ошибка удаления медиа", err)
		redirectAlert(w, r, sessionPath, failure(err, "error.delete_failed"))
	}
}

// HandleCloseSession — POST /dashboard/calendar-media/session/close.
// После изменений события интервала пересчитываются.
func (h *CalendarHandler) HandleCloseSession(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	ctrl.CloseSession(r.Context())
	http.Redirect(w, r, calendarPath, http.StatusSeeOther)
}
