package calendar

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// aggregationsTotal — завершённые проходы агрегации: applied или discarded
	aggregationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pbs_calendar_aggregations_total",
			Help: "Количество проходов агрегации календаря по результату",
		},
		[]string{"result"},
	)

	// aggregationDuration — длительность прохода агрегации
	aggregationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pbs_calendar_aggregation_duration_seconds",
			Help:    "Длительность агрегации календаря в секундах",
			Buckets: prometheus.DefBuckets,
		},
	)

	// dayQueriesFailedTotal — запросы по дню, завершившиеся ошибкой (учтены как 0)
	dayQueriesFailedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pbs_calendar_day_queries_failed_total",
			Help: "Количество неудачных запросов медиа за день при агрегации",
		},
	)

	// stagedBytes — байты подготовленных к загрузке файлов во всех сессиях
	stagedBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pbs_calendar_staged_bytes",
			Help: "Суммарный размер подготовленных к загрузке файлов",
		},
	)

	// storeControllers — число контроллеров в кэше
	storeControllers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pbs_calendar_controllers",
			Help: "Количество активных контроллеров календаря",
		},
	)
)
