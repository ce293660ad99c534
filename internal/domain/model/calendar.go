package model

import "time"

// CalendarEvent — производная запись календаря: число медиафайлов за день.
// Не хранится, полностью пересчитывается при каждой агрегации.
type CalendarEvent struct {
	// Date — полночь локального дня
	Date time.Time `json:"-"`
	// Count — число медиафайлов, всегда > 0
	Count int `json:"count"`
	// Start и End задают однодневный интервал [Date, Date+1d)
	Start time.Time `json:"-"`
	End   time.Time `json:"-"`
}

// Day возвращает дату события в формате YYYY-MM-DD.
func (e CalendarEvent) Day() string {
	return e.Date.Format(EndDateLayout)
}
