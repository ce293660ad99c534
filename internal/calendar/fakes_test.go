package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gurpreetgarry91/pbs-frontend/internal/domain/model"
)

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

var errBackend = errors.New("backend недоступен")

// day создаёт локальную полночь.
func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

// fakeMedia — in-memory backend медиафайлов.
type fakeMedia struct {
	mu     sync.Mutex
	items  map[string][]model.MediaItem
	nextID int64

	failDays  map[string]bool
	listErr   error
	uploadErr error
	deleteErr error

	// gate блокирует ListMedia для дней из gatedDays до закрытия канала,
	// не реагируя на отмену context (эмуляция запоздавшего ответа).
	gate      chan struct{}
	gatedDays map[string]bool
	started   chan struct{}

	listCalls   atomic.Int32
	uploadCalls atomic.Int32
	deleteCalls atomic.Int32
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{
		items:    make(map[string][]model.MediaItem),
		failDays: make(map[string]bool),
		nextID:   1,
	}
}

func mediaKey(userID int64, d time.Time) string {
	return fmt.Sprintf("%d|%s", userID, FormatDay(d))
}

// seed добавляет n медиафайлов подписчику за день.
func (f *fakeMedia) seed(userID int64, d time.Time, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := 0; i < n; i++ {
		key := mediaKey(userID, d)
		f.items[key] = append(f.items[key], model.MediaItem{
			ID:           f.nextID,
			UserID:       userID,
			OriginalName: fmt.Sprintf("file-%d.png", f.nextID),
			MediaType:    "image/png",
			Kind:         model.MediaImage,
		})
		f.nextID++
	}
}

func (f *fakeMedia) ListMedia(ctx context.Context, userID int64, d time.Time) ([]model.MediaItem, error) {
	f.listCalls.Add(1)
	dayKey := FormatDay(d)

	f.mu.Lock()
	gate, gated, started := f.gate, f.gatedDays[dayKey], f.started
	f.mu.Unlock()
	if gate != nil && gated {
		if started != nil {
			select {
			case started <- struct{}{}:
			default:
			}
		}
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	if f.failDays[dayKey] {
		return nil, errBackend
	}
	items := f.items[mediaKey(userID, d)]
	out := make([]model.MediaItem, len(items))
	copy(out, items)
	return out, nil
}

func (f *fakeMedia) UploadMedia(ctx context.Context, userID int64, d time.Time, files []model.UploadFile) error {
	f.uploadCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return f.uploadErr
	}
	key := mediaKey(userID, d)
	for _, file := range files {
		f.items[key] = append(f.items[key], model.MediaItem{
			ID:           f.nextID,
			UserID:       userID,
			OriginalName: file.Name,
			MediaType:    file.ContentType,
			Kind:         model.KindFromType(file.ContentType),
		})
		f.nextID++
	}
	return nil
}

func (f *fakeMedia) DeleteMedia(ctx context.Context, id int64) error {
	f.deleteCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for key, items := range f.items {
		for i, it := range items {
			if it.ID == id {
				f.items[key] = append(items[:i], items[i+1:]...)
				return nil
			}
		}
	}
	return errors.New("not found")
}

// fakeSubscribers — справочник подписчиков.
type fakeSubscribers struct {
	users []model.User
	err   error
	calls atomic.Int32
}

func (f *fakeSubscribers) ListSubscribers(ctx context.Context) ([]model.User, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.users, nil
}

// newTestController создаёт контроллер с фиксированной датой 2024-03-15.
func newTestController(media *fakeMedia, subs *fakeSubscribers) *Controller {
	return NewController(ControllerOptions{
		Subscribers:    subs,
		Media:          media,
		Aggregator:     NewAggregator(media, 4, testLogger()),
		MaxStagedBytes: 1 << 20,
		Location:       time.Local,
		Now:            func() time.Time { return time.Date(2024, time.March, 15, 12, 0, 0, 0, time.Local) },
		Logger:         testLogger(),
	})
}
