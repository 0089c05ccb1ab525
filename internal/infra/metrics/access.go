package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(accessGrantsTotal, expiryNotificationsTotal) }

var (
	accessGrantsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_grants_total",
			Help: "Per-video access extensions by purchased duration in days.",
		},
		[]string{"days"},
	)

	expiryNotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expiry_notifications_total",
			Help: "Expiry warnings by outcome.",
		},
		[]string{"status"}, // 'sent', 'failed'
	)
)

func AddAccessGrants(days, n int) {
	accessGrantsTotal.WithLabelValues(strconv.Itoa(days)).Add(float64(n))
}

func IncExpiryNotification(status string) {
	expiryNotificationsTotal.WithLabelValues(norm(status)).Inc()
}
