package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ConfirmationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skipbot_confirmations_total",
			Help: "Payment confirmations that created a new allocation",
		},
		[]string{"venue"},
	)

	DuplicateConfirmationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skipbot_duplicate_confirmations_total",
			Help: "Idempotent replays of already-recorded confirmations",
		},
		[]string{"venue"},
	)

	SoldOutRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skipbot_sold_out_rejections_total",
			Help: "Confirmations rejected because the venue was at capacity",
		},
		[]string{"venue"},
	)

	WebhookRejectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skipbot_webhook_rejects_total",
			Help: "Webhook deliveries rejected before reaching the ledger",
		},
		[]string{"reason"},
	)

	AdminMutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skipbot_admin_mutations_total",
			Help: "Administrative ledger mutations by operation",
		},
		[]string{"op"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skipbot_request_duration_seconds",
			Help:    "HTTP request duration by path",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)
)

// Register registers all collectors with the default registry.
func Register() {
	prometheus.MustRegister(
		ConfirmationsTotal,
		DuplicateConfirmationsTotal,
		SoldOutRejectionsTotal,
		WebhookRejectsTotal,
		AdminMutationsTotal,
		RequestDuration,
	)
}
