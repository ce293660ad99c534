package calendar

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gurpreetgarry91/pbs-frontend/internal/domain/model"
)

// MediaLister — источник медиафайлов подписчика за день.
type MediaLister interface {
	ListMedia(ctx context.Context, userID int64, day time.Time) ([]model.MediaItem, error)
}

// Aggregator — подсчёт медиафайлов по дням интервала.
type Aggregator struct {
	media       MediaLister
	concurrency int
	logger      *slog.Logger
}

// NewAggregator создаёт агрегатор.
// concurrency — максимум одновременных запросов к backend.
func NewAggregator(media MediaLister, concurrency int, logger *slog.Logger) *Aggregator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Aggregator{
		media:       media,
		concurrency: concurrency,
		logger:      logger.With(slog.String("component", "calendar_aggregator")),
	}
}

// Aggregate возвращает события календаря для подписчика в интервале r.
//
// subscriberID == 0 — подписчик не выбран: пустой результат без обращения к backend.
// Запросы по дням выполняются параллельно и все завершаются до возврата.
// Ошибка по одному дню даёт 0 для этого дня и не влияет на остальные.
// События упорядочены по дате, дни без медиа опущены.
func (a *Aggregator) Aggregate(ctx context.Context, subscriberID int64, r DateRange) []model.CalendarEvent {
	if subscriberID == 0 {
		return nil
	}
	days := r.Days()
	if len(days) == 0 {
		return nil
	}

	start := time.Now()
	counts := make([]int, len(days))

	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for i, day := range days {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			items, err := a.media.ListMedia(ctx, subscriberID, day)
			if err != nil {
				dayQueriesFailedTotal.Inc()
				a.logger.Debug("Не удалось получить медиа за день, учтено как 0",
					slog.Int64("user_id", subscriberID),
					slog.String("date", FormatDay(day)),
					slog.String("error", err.Error()),
				)
				return nil
			}
			counts[i] = len(items)
			return nil
		})
	}
	_ = g.Wait()
	aggregationDuration.Observe(time.Since(start).Seconds())

	var events []model.CalendarEvent
	for i, day := range days {
		if counts[i] == 0 {
			continue
		}
		events = append(events, model.CalendarEvent{
			Date:  day,
			Count: counts[i],
			Start: day,
			End:   AddDays(day, 1),
		})
	}
	return events
}
