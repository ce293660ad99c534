// Пакет calendar — календарь медиафайлов подписчика.
//
// Состав:
//   - Expand и DateRange — разворачивание полуоткрытого интервала дат в дни
//   - Aggregator — параллельный подсчёт медиафайлов по дням интервала
//   - Controller — конечный автомат представления календаря
//     (Idle → Loading → Loaded), последний запущенный пересчёт побеждает
//   - MediaSession — работа с медиафайлами одного (подписчик, день)
//   - Store — LRU-кэш контроллеров по идентификатору UI-сессии
package calendar

import (
	"fmt"
	"time"
)

// DayLayout — формат дня в URL и запросах к backend.
const DayLayout = "2006-01-02"

// View — режим отображения календаря.
type View string

const (
	ViewMonth View = "month"
	ViewWeek  View = "week"
	ViewDay   View = "day"
)

// monthGridDays — сетка месяца: 6 недель, начиная с воскресенья.
const monthGridDays = 42

// ParseView разбирает режим отображения. Неизвестное значение — месяц.
func ParseView(s string) View {
	switch View(s) {
	case ViewWeek:
		return ViewWeek
	case ViewDay:
		return ViewDay
	default:
		return ViewMonth
	}
}

// DateRange — полуоткрытый интервал дней [Start, End).
// Start и End — полночь локального дня.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewRange создаёт интервал, приводя границы к полуночи.
func NewRange(start, end time.Time) DateRange {
	return DateRange{Start: Midnight(start), End: Midnight(end)}
}

// Days возвращает дни интервала по возрастанию.
func (r DateRange) Days() []time.Time {
	return Expand(r.Start, r.End)
}

// Contains проверяет, что день попадает в интервал.
func (r DateRange) Contains(day time.Time) bool {
	d := Midnight(day)
	return !d.Before(r.Start) && d.Before(r.End)
}

// Equal сравнивает интервалы по моментам времени.
func (r DateRange) Equal(o DateRange) bool {
	return r.Start.Equal(o.Start) && r.End.Equal(o.End)
}

// IsZero — интервал не задан.
func (r DateRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

func (r DateRange) String() string {
	return fmt.Sprintf("[%s, %s)", r.Start.Format(DayLayout), r.End.Format(DayLayout))
}

// Midnight возвращает полночь календарного дня t в его часовом поясе.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// AddDays сдвигает день на n календарных дней.
// Сдвиг через time.Date, а не Add(24h): переходы на летнее время
// не дублируют и не пропускают дни.
func AddDays(day time.Time, n int) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d+n, 0, 0, 0, 0, day.Location())
}

// Expand разворачивает [start, end) в упорядоченную последовательность
// дней start, start+1, ..., end-1. Пусто, если start >= end.
func Expand(start, end time.Time) []time.Time {
	start, end = Midnight(start), Midnight(end.In(start.Location()))
	if !start.Before(end) {
		return nil
	}

	days := make([]time.Time, 0, 31)
	for i := 0; ; i++ {
		day := AddDays(start, i)
		if !day.Before(end) {
			break
		}
		days = append(days, day)
	}
	return days
}

// VisibleRange возвращает интервал, отображаемый в режиме view вокруг дня anchor.
//   - month: 6 недель, начиная с воскресенья недели первого числа
//   - week: неделя с воскресенья
//   - day: один день
func VisibleRange(view View, anchor time.Time) DateRange {
	anchor = Midnight(anchor)
	switch view {
	case ViewDay:
		return DateRange{Start: anchor, End: AddDays(anchor, 1)}
	case ViewWeek:
		start := AddDays(anchor, -int(anchor.Weekday()))
		return DateRange{Start: start, End: AddDays(start, 7)}
	default:
		first := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, anchor.Location())
		start := AddDays(first, -int(first.Weekday()))
		return DateRange{Start: start, End: AddDays(start, monthGridDays)}
	}
}

// Shift сдвигает опорный день на dir периодов режима view (prev = -1, next = +1).
// Для месяца результат — первое число соседнего месяца.
func Shift(view View, anchor time.Time, dir int) time.Time {
	anchor = Midnight(anchor)
	switch view {
	case ViewDay:
		return AddDays(anchor, dir)
	case ViewWeek:
		return AddDays(anchor, 7*dir)
	default:
		return time.Date(anchor.Year(), anchor.Month()+time.Month(dir), 1, 0, 0, 0, 0, anchor.Location())
	}
}

// ParseDay разбирает день YYYY-MM-DD в часовом поясе loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DayLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("некорректная дата %q, ожидается YYYY-MM-DD", s)
	}
	return t, nil
}

// FormatDay форматирует день как YYYY-MM-DD.
func FormatDay(t time.Time) string {
	return t.Format(DayLayout)
}
