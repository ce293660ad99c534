package calendar

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/gurpreetgarry91/pbs-frontend/internal/domain/model"
)

// State — состояние представления календаря.
type State int

const (
	// StateIdle — подписчик не выбран
	StateIdle State = iota
	// StateLoading — идёт агрегация для (подписчик, интервал)
	StateLoading
	// StateLoaded — события текущего подписчика и интервала готовы
	StateLoaded
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	default:
		return "idle"
	}
}

// SubscriberLister — справочник подписчиков.
type SubscriberLister interface {
	ListSubscribers(ctx context.Context) ([]model.User, error)
}

// ControllerOptions — зависимости контроллера.
type ControllerOptions struct {
	Subscribers SubscriberLister
	Media       MediaClient
	Aggregator  *Aggregator
	// MaxStagedBytes — лимит подготовленных файлов для сессий
	MaxStagedBytes int64
	// Staging — общий лимит подготовленных файлов (nil — без лимита)
	Staging *StagingBudget
	// Location — часовой пояс календарных дней (nil — time.Local)
	Location *time.Location
	// Now — источник текущего времени (nil — time.Now)
	Now    func() time.Time
	Logger *slog.Logger
}

// Snapshot — согласованный снимок состояния контроллера.
type Snapshot struct {
	State          State
	Generation     uint64
	Subscribers    []model.User
	SubscribersErr error
	SelectedID     int64
	View           View
	Anchor         time.Time
	Range          DateRange
	Events         []model.CalendarEvent
	UpdatedAt      time.Time
}

// Selected возвращает выбранного подписчика.
func (s Snapshot) Selected() (model.User, bool) {
	for _, u := range s.Subscribers {
		if u.ID == s.SelectedID {
			return u, true
		}
	}
	return model.User{}, false
}

// CountOn возвращает число медиафайлов за день (0, если события нет).
func (s Snapshot) CountOn(day time.Time) int {
	d := Midnight(day)
	for _, e := range s.Events {
		if e.Date.Equal(d) {
			return e.Count
		}
	}
	return 0
}

// Controller — конечный автомат представления календаря одной UI-сессии.
//
// Любое изменение подписчика или интервала увеличивает generation,
// отменяет context предыдущего прохода и очищает события. Результат
// прохода применяется, только если его generation всё ещё текущий:
// побеждает последний запущенный пересчёт.
type Controller struct {
	subscribers SubscriberLister
	media       MediaClient
	agg         *Aggregator
	maxStaged   int64
	staging     *StagingBudget
	loc         *time.Location
	now         func() time.Time
	logger      *slog.Logger

	mu         sync.Mutex
	state      State
	generation uint64
	cancel     context.CancelFunc
	subs       []model.User
	subsErr    error
	subsLoaded bool
	selected   int64
	view       View
	anchor     time.Time
	rng        DateRange
	events     []model.CalendarEvent
	updatedAt  time.Time
	session    *MediaSession
}

// NewController создаёт контроллер в состоянии Idle с месячным видом на текущую дату.
func NewController(opts ControllerOptions) *Controller {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	anchor := Midnight(now().In(loc))
	return &Controller{
		subscribers: opts.Subscribers,
		media:       opts.Media,
		agg:         opts.Aggregator,
		maxStaged:   opts.MaxStagedBytes,
		staging:     opts.Staging,
		loc:         loc,
		now:         now,
		logger:      logger.With(slog.String("component", "calendar_controller")),
		state:       StateIdle,
		view:        ViewMonth,
		anchor:      anchor,
		rng:         VisibleRange(ViewMonth, anchor),
	}
}

// Location возвращает часовой пояс календаря.
func (c *Controller) Location() *time.Location {
	return c.loc
}

// Snapshot возвращает копию текущего состояния.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		State:          c.state,
		Generation:     c.generation,
		Subscribers:    slices.Clone(c.subs),
		SubscribersErr: c.subsErr,
		SelectedID:     c.selected,
		View:           c.view,
		Anchor:         c.anchor,
		Range:          c.rng,
		Events:         slices.Clone(c.events),
		UpdatedAt:      c.updatedAt,
	}
}

// LoadSubscribers загружает справочник подписчиков. Если подписчик ещё не
// выбран (или исчез из списка), выбирается первый и запускается агрегация.
// При ошибке список пуст, ошибка доступна в Snapshot.
func (c *Controller) LoadSubscribers(ctx context.Context) (Snapshot, error) {
	subs, err := c.subscribers.ListSubscribers(ctx)

	c.mu.Lock()
	c.subsLoaded = true
	if err != nil {
		c.subs = nil
		c.subsErr = err
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.logger.Warn("Не удалось загрузить подписчиков", slog.String("error", err.Error()))
		return snap, err
	}
	c.subs = subs
	c.subsErr = nil

	next := c.selected
	if !containsUser(subs, next) {
		next = 0
		if len(subs) > 0 {
			next = subs[0].ID
		}
	}
	changed := next != c.selected
	c.mu.Unlock()

	if !changed {
		return c.Snapshot(), nil
	}
	return c.reload(ctx, func() { c.selected = next }), nil
}

// EnsureLoaded загружает подписчиков при первом обращении и повторяет
// агрегацию, если предыдущий проход был прерван без замены.
func (c *Controller) EnsureLoaded(ctx context.Context) Snapshot {
	c.mu.Lock()
	loaded := c.subsLoaded
	stalled := c.state == StateLoading && c.cancel == nil
	c.mu.Unlock()

	if !loaded {
		snap, _ := c.LoadSubscribers(ctx)
		return snap
	}
	if stalled {
		return c.Refresh(ctx)
	}
	return c.Snapshot()
}

// SelectSubscriber меняет выбранного подписчика. id == 0 — сброс выбора (Idle).
func (c *Controller) SelectSubscriber(ctx context.Context, id int64) (Snapshot, error) {
	c.mu.Lock()
	if id != 0 && !containsUser(c.subs, id) {
		c.mu.Unlock()
		return c.Snapshot(), ErrUnknownSubscriber
	}
	c.mu.Unlock()

	return c.reload(ctx, func() { c.selected = id }), nil
}

// SetView меняет режим отображения и опорный день.
func (c *Controller) SetView(ctx context.Context, view View, anchor time.Time) Snapshot {
	anchor = Midnight(anchor.In(c.loc))
	return c.reload(ctx, func() {
		c.view = view
		c.anchor = anchor
		c.rng = VisibleRange(view, anchor)
	})
}

// Navigate переходит к соседнему периоду: dir < 0 — назад, dir > 0 — вперёд.
func (c *Controller) Navigate(ctx context.Context, dir int) Snapshot {
	c.mu.Lock()
	view, anchor := c.view, c.anchor
	c.mu.Unlock()
	return c.SetView(ctx, view, Shift(view, anchor, dir))
}

// Today переходит к текущему дню в текущем режиме.
func (c *Controller) Today(ctx context.Context) Snapshot {
	c.mu.Lock()
	view := c.view
	c.mu.Unlock()
	return c.SetView(ctx, view, c.now())
}

// SetRange задаёт произвольный отображаемый интервал.
func (c *Controller) SetRange(ctx context.Context, r DateRange) Snapshot {
	return c.reload(ctx, func() {
		c.rng = r
		c.anchor = r.Start
	})
}

// Refresh пересчитывает события для текущих подписчика и интервала.
func (c *Controller) Refresh(ctx context.Context) Snapshot {
	return c.reload(ctx, func() {})
}

// reload применяет изменение выбора и выполняет агрегацию.
// mutate вызывается под блокировкой.
func (c *Controller) reload(ctx context.Context, mutate func()) Snapshot {
	c.mu.Lock()
	mutate()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.generation++
	gen := c.generation
	c.events = nil

	if c.selected == 0 {
		c.state = StateIdle
		c.updatedAt = c.now()
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap
	}

	c.state = StateLoading
	passCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	subscriber, rng := c.selected, c.rng
	c.mu.Unlock()

	events := c.agg.Aggregate(passCtx, subscriber, rng)
	cancelled := passCtx.Err() != nil
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		aggregationsTotal.WithLabelValues("discarded").Inc()
		c.logger.Debug("Результат устаревшей агрегации отброшен",
			slog.Uint64("generation", gen),
			slog.Uint64("current", c.generation),
		)
		return c.snapshotLocked()
	}
	c.cancel = nil
	if cancelled {
		// Прерванный проход не даёт достоверных событий: остаёмся в Loading,
		// EnsureLoaded повторит агрегацию.
		aggregationsTotal.WithLabelValues("cancelled").Inc()
		return c.snapshotLocked()
	}
	aggregationsTotal.WithLabelValues("applied").Inc()
	c.events = events
	c.state = StateLoaded
	c.updatedAt = c.now()
	return c.snapshotLocked()
}

// OpenSession открывает сессию работы с медиа для выбранного подписчика
// и дня day. Без выбранного подписчика возвращает ErrNoSubscriber,
// состояние не меняется. Предыдущая сессия закрывается.
func (c *Controller) OpenSession(ctx context.Context, day time.Time) (*MediaSession, error) {
	day = Midnight(day.In(c.loc))

	c.mu.Lock()
	if c.selected == 0 {
		c.mu.Unlock()
		return nil, ErrNoSubscriber
	}
	if !c.rng.Contains(day) {
		c.mu.Unlock()
		return nil, ErrDateOutOfRange
	}
	prev := c.session
	c.session = nil
	subscriber := c.selected
	c.mu.Unlock()

	if prev != nil {
		prev.Close(ctx)
	}

	s := NewMediaSession(c.media, subscriber, day, c.maxStaged, c.sessionClosed, c.logger)
	s.budget = c.staging
	_ = s.Load(ctx)

	// Пока шла загрузка, параллельный вызов мог открыть свою сессию:
	// она закрывается, чтобы её изменения дошли до календаря.
	c.mu.Lock()
	replaced := c.session
	c.session = s
	c.mu.Unlock()

	if replaced != nil {
		replaced.Close(ctx)
	}
	return s, nil
}

// Session возвращает открытую сессию или nil.
func (c *Controller) Session() *MediaSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// CloseSession закрывает открытую сессию. Если в ней были изменения,
// события текущего интервала пересчитываются полностью.
func (c *Controller) CloseSession(ctx context.Context) Snapshot {
	c.mu.Lock()
	s := c.session
	c.session = nil
	c.mu.Unlock()

	if s != nil {
		s.Close(ctx)
	}
	return c.Snapshot()
}

// sessionClosed — уведомление от MediaSession.
func (c *Controller) sessionClosed(ctx context.Context, mutated bool) {
	if !mutated {
		return
	}
	c.Refresh(ctx)
}

// Close отменяет выполняющуюся агрегацию и закрывает сессию без пересчёта.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.generation++
	s := c.session
	c.session = nil
	c.mu.Unlock()

	if s != nil {
		s.detach()
		s.Close(context.Background())
	}
}

func containsUser(users []model.User, id int64) bool {
	if id == 0 {
		return false
	}
	return slices.ContainsFunc(users, func(u model.User) bool { return u.ID == id })
}
