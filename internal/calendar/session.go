package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/gurpreetgarry91/pbs-frontend/internal/domain/model"
)

// Ошибки предусловий: проверяются локально, до обращения к backend.
var (
	ErrNoSubscriber      = errors.New("подписчик не выбран")
	ErrNothingStaged     = errors.New("нет файлов для загрузки")
	ErrNotConfirmed      = errors.New("удаление не подтверждено")
	ErrDateOutOfRange    = errors.New("дата вне отображаемого интервала")
	ErrStagedTooLarge    = errors.New("превышен допустимый размер файлов для загрузки")
	ErrStagingBusy       = errors.New("исчерпан общий лимит файлов, ожидающих загрузки")
	ErrNoSuchStagedFile  = errors.New("файл не найден среди подготовленных")
	ErrUnknownMedia      = errors.New("медиафайл не относится к этому дню")
	ErrSessionClosed     = errors.New("сессия работы с медиа закрыта")
	ErrUploadInProgress  = errors.New("загрузка уже выполняется")
	ErrUnknownSubscriber = errors.New("подписчик не найден")
)

// IsPrecondition сообщает, что ошибка — отклонённое предусловие,
// а не сбой backend. Такие ошибки не логируются как ошибки.
func IsPrecondition(err error) bool {
	for _, target := range []error{
		ErrNoSubscriber, ErrNothingStaged, ErrNotConfirmed, ErrDateOutOfRange,
		ErrStagedTooLarge, ErrStagingBusy, ErrNoSuchStagedFile, ErrUnknownMedia, ErrSessionClosed,
		ErrUploadInProgress, ErrUnknownSubscriber,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// MediaClient — операции backend, которые нужны сессии.
type MediaClient interface {
	MediaLister
	UploadMedia(ctx context.Context, userID int64, day time.Time, files []model.UploadFile) error
	DeleteMedia(ctx context.Context, id int64) error
}

// CloseFunc получает уведомление о закрытии сессии.
// mutated — за время сессии была успешная загрузка или удаление.
type CloseFunc func(ctx context.Context, mutated bool)

// MediaSession — работа с медиафайлами одного подписчика за один день.
// Сессия ничего не знает о событиях календаря: при закрытии она только
// уведомляет владельца через CloseFunc.
type MediaSession struct {
	media        MediaClient
	subscriberID int64
	day          time.Time
	maxStaged    int64
	budget       *StagingBudget
	onClose      CloseFunc
	logger       *slog.Logger

	mu          sync.Mutex
	items       []model.MediaItem
	loadErr     error
	loaded      bool
	staged      []model.UploadFile
	stagedBytes int64
	uploading   bool
	mutated     bool
	closed      bool
}

// NewMediaSession создаёт сессию для (subscriberID, day).
// maxStaged — лимит суммарного размера подготовленных файлов (0 — без лимита).
func NewMediaSession(media MediaClient, subscriberID int64, day time.Time, maxStaged int64, onClose CloseFunc, logger *slog.Logger) *MediaSession {
	return &MediaSession{
		media:        media,
		subscriberID: subscriberID,
		day:          Midnight(day),
		maxStaged:    maxStaged,
		onClose:      onClose,
		logger: logger.With(
			slog.String("component", "media_session"),
			slog.Int64("user_id", subscriberID),
			slog.String("date", FormatDay(day)),
		),
	}
}

// SubscriberID возвращает подписчика сессии.
func (s *MediaSession) SubscriberID() int64 { return s.subscriberID }

// Day возвращает день сессии.
func (s *MediaSession) Day() time.Time { return s.day }

// Load загружает список медиафайлов. При ошибке список становится пустым,
// ошибка сохраняется и доступна через LoadErr; сессия остаётся открытой.
func (s *MediaSession) Load(ctx context.Context) error {
	items, err := s.media.ListMedia(ctx, s.subscriberID, s.day)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = true
	if err != nil {
		s.items = nil
		s.loadErr = err
		s.logger.Warn("Не удалось загрузить медиафайлы", slog.String("error", err.Error()))
		return err
	}
	s.items = items
	s.loadErr = nil
	return nil
}

// Items возвращает копию текущего списка медиафайлов.
func (s *MediaSession) Items() []model.MediaItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

// LoadErr возвращает ошибку последней загрузки списка.
func (s *MediaSession) LoadErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadErr
}

// Loaded — список хотя бы раз запрашивался.
func (s *MediaSession) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// AddFiles добавляет файлы к подготовленным. Backend не вызывается.
// При превышении лимита размера не добавляется ни один файл.
func (s *MediaSession) AddFiles(files ...model.UploadFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkMutableLocked(); err != nil {
		return err
	}

	var total int64
	for _, f := range files {
		total += f.Size()
	}
	if s.maxStaged > 0 && s.stagedBytes+total > s.maxStaged {
		return fmt.Errorf("%w: %d из %d байт", ErrStagedTooLarge, s.stagedBytes+total, s.maxStaged)
	}
	if !s.budget.reserve(total) {
		return ErrStagingBusy
	}
	s.staged = append(s.staged, files...)
	s.stagedBytes += total
	return nil
}

// RemoveFile убирает подготовленный файл по индексу.
func (s *MediaSession) RemoveFile(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkMutableLocked(); err != nil {
		return err
	}
	if index < 0 || index >= len(s.staged) {
		return ErrNoSuchStagedFile
	}
	size := s.staged[index].Size()
	s.budget.release(size)
	s.stagedBytes -= size
	s.staged = slices.Delete(s.staged, index, index+1)
	return nil
}

// ClearFiles очищает подготовленные файлы.
func (s *MediaSession) ClearFiles() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploading {
		return
	}
	s.budget.release(s.stagedBytes)
	s.staged = nil
	s.stagedBytes = 0
}

// Staged возвращает копию подготовленных файлов.
func (s *MediaSession) Staged() []model.UploadFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.staged)
}

// StagedBytes возвращает суммарный размер подготовленных файлов.
func (s *MediaSession) StagedBytes() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stagedBytes
}

// Upload отправляет все подготовленные файлы одним запросом.
// Пустой набор или невыбранный подписчик отклоняются без запроса.
// После успеха набор очищается и список перезагружается;
// при ошибке подготовленные файлы сохраняются.
func (s *MediaSession) Upload(ctx context.Context) error {
	s.mu.Lock()
	if err := s.checkMutableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if len(s.staged) == 0 {
		s.mu.Unlock()
		return ErrNothingStaged
	}
	if s.subscriberID == 0 {
		s.mu.Unlock()
		return ErrNoSubscriber
	}
	files := slices.Clone(s.staged)
	s.uploading = true
	s.mu.Unlock()

	err := s.media.UploadMedia(ctx, s.subscriberID, s.day, files)

	s.mu.Lock()
	s.uploading = false
	if err != nil {
		s.mu.Unlock()
		s.logger.Warn("Не удалось загрузить файлы",
			slog.Int("files", len(files)),
			slog.String("error", err.Error()),
		)
		return err
	}
	s.budget.release(s.stagedBytes)
	s.staged = nil
	s.stagedBytes = 0
	s.mutated = true
	s.mu.Unlock()

	s.logger.Info("Файлы загружены", slog.Int("files", len(files)))
	// Ошибка перезагрузки отражается в LoadErr, сама загрузка успешна.
	_ = s.Load(ctx)
	return nil
}

// Delete удаляет медиафайл после явного подтверждения.
// Без подтверждения backend не вызывается. После успеха список
// перезагружается; при ошибке прежний список сохраняется.
func (s *MediaSession) Delete(ctx context.Context, id int64, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	known := slices.ContainsFunc(s.items, func(m model.MediaItem) bool { return m.ID == id })
	s.mu.Unlock()
	if !known {
		return ErrUnknownMedia
	}

	if err := s.media.DeleteMedia(ctx, id); err != nil {
		s.logger.Warn("Не удалось удалить медиафайл",
			slog.Int64("media_id", id),
			slog.String("error", err.Error()),
		)
		return err
	}

	s.mu.Lock()
	s.mutated = true
	s.mu.Unlock()

	s.logger.Info("Медиафайл удалён", slog.Int64("media_id", id))
	_ = s.Load(ctx)
	return nil
}

// Mutated — за время сессии было успешное изменение.
func (s *MediaSession) Mutated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutated
}

// Close закрывает сессию и один раз уведомляет владельца.
// Повторный вызов ничего не делает.
func (s *MediaSession) Close(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	mutated := s.mutated
	notify := s.onClose
	s.budget.release(s.stagedBytes)
	s.staged = nil
	s.stagedBytes = 0
	s.mu.Unlock()

	if notify != nil {
		notify(ctx, mutated)
	}
}

// detach отключает уведомление владельца.
func (s *MediaSession) detach() {
	s.mu.Lock()
	s.onClose = nil
	s.mu.Unlock()
}

// Closed — сессия закрыта.
func (s *MediaSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *MediaSession) checkMutableLocked() error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.uploading {
		return ErrUploadInProgress
	}
	return nil
}
