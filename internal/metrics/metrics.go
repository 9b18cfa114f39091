package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courtside_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "courtside_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	BookingTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courtside_booking_transitions_total",
			Help: "Booking status changes, including creation",
		},
		[]string{"status"},
	)

	BookingConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "courtside_booking_conflicts_total",
			Help: "Booking requests rejected because the court was taken",
		},
	)

	ParticipantPaymentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courtside_participant_payments_total",
			Help: "Participant payment status changes",
		},
		[]string{"status"},
	)

	BonusTransactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courtside_bonus_transactions_total",
			Help: "Bonus ledger rows written",
		},
		[]string{"type"},
	)

	BonusInsufficientTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "courtside_bonus_insufficient_balance_total",
			Help: "Bonus spends refused for insufficient balance",
		},
	)

	BonusVersionConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "courtside_bonus_version_conflicts_total",
			Help: "Ledger writes that lost an optimistic version race and retried",
		},
	)

	SessionsSweptTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "courtside_sessions_swept_total",
			Help: "Game sessions cancelled by the overdue sweep",
		},
	)

	SessionAwardFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "courtside_session_award_failures_total",
			Help: "Completion bonus credits that could not be written",
		},
	)

	SessionTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courtside_session_transitions_total",
			Help: "Game session status changes",
		},
		[]string{"status"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordBookingTransition(status string) {
	BookingTransitionsTotal.WithLabelValues(status).Inc()
}

func RecordBookingConflict() {
	BookingConflictsTotal.Inc()
}

func RecordParticipantPayment(status string) {
	ParticipantPaymentsTotal.WithLabelValues(status).Inc()
}

func RecordBonusTransaction(txType string) {
	BonusTransactionsTotal.WithLabelValues(txType).Inc()
}

func RecordBonusInsufficient() {
	BonusInsufficientTotal.Inc()
}

func RecordBonusVersionConflict() {
	BonusVersionConflictsTotal.Inc()
}

func RecordSessionsSwept(n int) {
	SessionsSweptTotal.Add(float64(n))
}

func RecordSessionTransition(status string) {
	SessionTransitionsTotal.WithLabelValues(status).Inc()
}

func RecordSessionAwardFailure() {
	SessionAwardFailuresTotal.Inc()
}
