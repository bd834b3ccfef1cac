// Package metrics содержит Prometheus-метрики бота.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpdatesTotal - входящие обновления Telegram по типу и результату обработки
	UpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorbot_updates_total",
			Help: "Telegram updates received",
		},
		[]string{"type", "result"},
	)

	// UpdateDuration - время обработки одного обновления
	UpdateDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tutorbot_update_duration_seconds",
			Help:    "Telegram update handling duration",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"type"},
	)

	// BookingOutcomes - результаты подтверждения записи учеником
	BookingOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorbot_booking_outcomes_total",
			Help: "Outcomes of booking confirmations",
		},
		[]string{"outcome"},
	)

	// StateMismatches - действия, не совпавшие с шагом диалога
	StateMismatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorbot_state_mismatches_total",
			Help: "Conversation actions rejected because of state mismatch",
		},
		[]string{"action"},
	)

	// LessonTransitions - смены статусов уроков
	LessonTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorbot_lesson_transitions_total",
			Help: "Lesson status transitions",
		},
		[]string{"to"},
	)

	// NotificationsTotal - исходящие уведомления по типу и результату
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorbot_notifications_total",
			Help: "Outbound notifications",
		},
		[]string{"kind", "result"},
	)

	// StaleSessionsReset - диалоги, сброшенные по таймауту
	StaleSessionsReset = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tutorbot_stale_sessions_reset_total",
			Help: "Conversations reset to idle by the sweeper",
		},
	)
)

// RecordBooking учитывает результат подтверждения записи
func RecordBooking(outcome string) {
	BookingOutcomes.WithLabelValues(outcome).Inc()
}

// RecordMismatch учитывает отклонённое действие диалога
func RecordMismatch(action string) {
	StateMismatches.WithLabelValues(action).Inc()
}

// RecordTransition учитывает смену статуса урока
func RecordTransition(to string) {
	LessonTransitions.WithLabelValues(to).Inc()
}

// RecordNotification учитывает отправку уведомления
func RecordNotification(kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	NotificationsTotal.WithLabelValues(kind, result).Inc()
}

// RecordUpdate учитывает обработанное обновление
func RecordUpdate(kind, result string, seconds float64) {
	UpdatesTotal.WithLabelValues(kind, result).Inc()
	UpdateDuration.WithLabelValues(kind).Observe(seconds)
}
