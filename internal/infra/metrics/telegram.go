package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		usersSeenTotal,
		telegramUpdatesTotal,
		rateLimitTriggeredTotal,
	)
}

var (
	usersSeenTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "users_seen_total",
			Help: "Users created on first contact.",
		},
	)

	telegramUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_updates_total",
			Help: "Handled Telegram updates by route.",
		},
		[]string{"route"},
	)

	rateLimitTriggeredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_rate_limit_triggered_total",
			Help: "Requests rejected by the per-user rate limiter.",
		},
		[]string{"action"},
	)
)

func IncUserSeen() { usersSeenTotal.Inc() }

func IncTelegramUpdate(route string) {
	telegramUpdatesTotal.WithLabelValues(norm(route)).Inc()
}

func IncRateLimitTriggered(action string) {
	rateLimitTriggeredTotal.WithLabelValues(norm(action)).Inc()
}
