// calendar.go — JSON API событий календаря медиа.
// Используется скриптами страницы и внешними инструментами с cookie сессии.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	apierrors "github.com/gurpreetgarry91/pbs-frontend/internal/api/errors"
	"github.com/gurpreetgarry91/pbs-frontend/internal/backend"
	"github.com/gurpreetgarry91/pbs-frontend/internal/calendar"
	uimiddleware "github.com/gurpreetgarry91/pbs-frontend/internal/ui/middleware"
)

// maxRangeDays — наибольший интервал одного запроса событий.
const maxRangeDays = 92

// ControllerSource выдаёт контроллер календаря UI-сессии.
type ControllerSource interface {
	Get(key string) *calendar.Controller
}

// CalendarHandler — GET /dashboard/api/calendar/events.
type CalendarHandler struct {
	controllers ControllerSource
	logger      *slog.Logger
}

// NewCalendarHandler создаёт CalendarHandler.
func NewCalendarHandler(controllers ControllerSource, logger *slog.Logger) *CalendarHandler {
	return &CalendarHandler{
		controllers: controllers,
		logger:      logger.With(slog.String("component", "api.calendar")),
	}
}

type eventResponse struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type eventsResponse struct {
	UserID     int64           `json:"user_id"`
	Start      string          `json:"start"`
	End        string          `json:"end"`
	State      string          `json:"state"`
	Generation uint64          `json:"generation"`
	Total      int             `json:"total"`
	Events     []eventResponse `json:"events"`
}

// HandleEvents — GET /dashboard/api/calendar/events?user_id=&start=&end=.
// start и end — дни YYYY-MM-DD, end не включается. Без параметров
// возвращаются события текущего выбора сессии.
func (h *CalendarHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	session := uimiddleware.SessionFromContext(r.Context())
	if session == nil {
		apierrors.Unauthorized(w, "требуется вход")
		return
	}
	ctx := r.Context()
	ctrl := h.controllers.Get(session.SessionID)
	loc := ctrl.Location()

	snap := ctrl.EnsureLoaded(ctx)
	if snap.SubscribersErr != nil {
		h.backendFailed(w, snap.SubscribersErr)
		return
	}

	q := r.URL.Query()
	if v := q.Get("user_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			apierrors.ValidationError(w, "user_id должен быть положительным числом")
			return
		}
		if id != snap.SelectedID {
			if snap, err = ctrl.SelectSubscriber(ctx, id); err != nil {
				apierrors.ValidationError(w, err.Error())
				return
			}
		}
	}

	if q.Has("start") || q.Has("end") {
		rng, err := parseRange(q.Get("start"), q.Get("end"), loc)
		if err != nil {
			apierrors.ValidationError(w, err.Error())
			return
		}
		if !rng.Equal(snap.Range) {
			snap = ctrl.SetRange(ctx, rng)
		}
	}

	if snap.State == calendar.StateLoading {
		// Проход отменён или заменён более поздним запросом той же сессии.
		apierrors.Conflict(w, "выбор календаря изменился, повторите запрос")
		return
	}

	resp := eventsResponse{
		UserID:     snap.SelectedID,
		Start:      calendar.FormatDay(snap.Range.Start),
		End:        calendar.FormatDay(snap.Range.End),
		State:      snap.State.String(),
		Generation: snap.Generation,
		Events:     make([]eventResponse, 0, len(snap.Events)),
	}
	for _, e := range snap.Events {
		resp.Total += e.Count
		resp.Events = append(resp.Events, eventResponse{
			Date:  e.Day(),
			Count: e.Count,
			Start: e.Start.Format(time.RFC3339),
			End:   e.End.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *CalendarHandler) backendFailed(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, backend.ErrUnauthorized):
		apierrors.Unauthorized(w, "backend отклонил токен")
	case errors.Is(err, backend.ErrUnavailable):
		apierrors.BackendUnavailable(w, "backend временно недоступен")
	default:
		h.logger.Warn("Ошибка загрузки подписчиков", slog.String("error", err.Error()))
		apierrors.BackendError(w, "не удалось загрузить подписчиков")
	}
}

// parseRange разбирает интервал [start, end).
func parseRange(start, end string, loc *time.Location) (calendar.DateRange, error) {
	s, err := calendar.ParseDay(start, loc)
	if err != nil {
		return calendar.DateRange{}, err
	}
	e, err := calendar.ParseDay(end, loc)
	if err != nil {
		return calendar.DateRange{}, err
	}
	if !e.After(s) {
		return calendar.DateRange{}, errors.New("end должен быть позже start")
	}
	if e.After(calendar.AddDays(s, maxRangeDays)) {
		return calendar.DateRange{}, errors.New("интервал длиннее " + strconv.Itoa(maxRangeDays) + " дней")
	}
	return calendar.NewRange(s, e), nil
}
