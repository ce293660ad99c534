package calendar

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gurpreetgarry91/pbs-frontend/internal/domain/model"
)

func march2024() DateRange {
	return NewRange(day(2024, time.March, 1), day(2024, time.April, 1))
}

func TestAggregate_NoSubscriber(t *testing.T) {
	media := newFakeMedia()
	agg := NewAggregator(media, 4, testLogger())

	events := agg.Aggregate(context.Background(), 0, march2024())
	if len(events) != 0 {
		t.Errorf("ожидался пустой результат, получено %d событий", len(events))
	}
	if media.listCalls.Load() != 0 {
		t.Errorf("backend не должен вызываться, вызовов: %d", media.listCalls.Load())
	}
}

func TestAggregate_Scenario(t *testing.T) {
	media := newFakeMedia()
	media.seed(7, day(2024, time.March, 5), 3)
	media.seed(7, day(2024, time.March, 12), 1)
	media.seed(8, day(2024, time.March, 20), 2) // другой подписчик

	agg := NewAggregator(media, 4, testLogger())
	events := agg.Aggregate(context.Background(), 7, march2024())

	if len(events) != 2 {
		t.Fatalf("ожидалось 2 события, получено %d: %+v", len(events), events)
	}
	want := []struct {
		day   string
		count int
	}{
		{"2024-03-05", 3},
		{"2024-03-12", 1},
	}
	for i, w := range want {
		if events[i].Day() != w.day || events[i].Count != w.count {
			t.Errorf("events[%d] = {%s, %d}, ожидается {%s, %d}", i, events[i].Day(), events[i].Count, w.day, w.count)
		}
		if !events[i].Start.Equal(events[i].Date) || !events[i].End.Equal(AddDays(events[i].Date, 1)) {
			t.Errorf("events[%d]: интервал [%v, %v) не однодневный", i, events[i].Start, events[i].End)
		}
	}
	if got := media.listCalls.Load(); got != 31 {
		t.Errorf("ожидался 31 запрос, выполнено %d", got)
	}
}

func TestAggregate_PartialFailure(t *testing.T) {
	media := newFakeMedia()
	media.seed(7, day(2024, time.March, 5), 3)
	media.seed(7, day(2024, time.March, 12), 1)
	media.seed(7, day(2024, time.March, 20), 4)
	media.failDays["2024-03-12"] = true

	agg := NewAggregator(media, 4, testLogger())
	events := agg.Aggregate(context.Background(), 7, march2024())

	if len(events) != 2 {
		t.Fatalf("ожидалось 2 события, получено %d", len(events))
	}
	if events[0].Day() != "2024-03-05" || events[0].Count != 3 {
		t.Errorf("events[0] = %+v", events[0])
	}
	if events[1].Day() != "2024-03-20" || events[1].Count != 4 {
		t.Errorf("events[1] = %+v", events[1])
	}
}

func TestAggregate_Idempotent(t *testing.T) {
	media := newFakeMedia()
	media.seed(7, day(2024, time.March, 5), 3)
	media.seed(7, day(2024, time.March, 31), 2)

	agg := NewAggregator(media, 8, testLogger())
	first := agg.Aggregate(context.Background(), 7, march2024())
	second := agg.Aggregate(context.Background(), 7, march2024())

	if len(first) != len(second) {
		t.Fatalf("разное число событий: %d и %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].Date.Equal(second[i].Date) || first[i].Count != second[i].Count {
			t.Errorf("событие %d различается: %+v и %+v", i, first[i], second[i])
		}
	}
}

func TestAggregate_EmptyRange(t *testing.T) {
	media := newFakeMedia()
	agg := NewAggregator(media, 4, testLogger())
	r := NewRange(day(2024, time.March, 5), day(2024, time.March, 5))

	if events := agg.Aggregate(context.Background(), 7, r); len(events) != 0 {
		t.Errorf("ожидался пустой результат для пустого интервала")
	}
	if media.listCalls.Load() != 0 {
		t.Errorf("backend не должен вызываться для пустого интервала")
	}
}

// barrierLister отвечает, только когда в полёте одновременно want запросов.
type barrierLister struct {
	want     int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	timedOut atomic.Bool
}

func (b *barrierLister) ListMedia(ctx context.Context, userID int64, d time.Time) ([]model.MediaItem, error) {
	n := b.inFlight.Add(1)
	for {
		m := b.maxSeen.Load()
		if n <= m || b.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	defer b.inFlight.Add(-1)

	deadline := time.Now().Add(2 * time.Second)
	for b.maxSeen.Load() < b.want {
		if time.Now().After(deadline) {
			b.timedOut.Store(true)
			break
		}
		time.Sleep(time.Millisecond)
	}
	return []model.MediaItem{{ID: 1}}, nil
}

func TestAggregate_Concurrent(t *testing.T) {
	lister := &barrierLister{want: 3}
	agg := NewAggregator(lister, 3, testLogger())
	r := NewRange(day(2024, time.March, 1), day(2024, time.March, 4))

	events := agg.Aggregate(context.Background(), 7, r)

	if lister.timedOut.Load() {
		t.Fatal("запросы по дням выполнялись не параллельно")
	}
	if len(events) != 3 {
		t.Errorf("ожидалось 3 события, получено %d", len(events))
	}
}

func TestAggregate_ConcurrencyLimit(t *testing.T) {
	lister := &barrierLister{want: 0}
	agg := NewAggregator(lister, 2, testLogger())

	agg.Aggregate(context.Background(), 7, march2024())

	if got := lister.maxSeen.Load(); got > 2 {
		t.Errorf("одновременно выполнялось %d запросов, лимит 2", got)
	}
}
