package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(videosDeliveredTotal, messagesReapedTotal) }

var (
	videosDeliveredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "videos_delivered_total",
			Help: "Video delivery attempts by outcome.",
		},
		[]string{"status"}, // 'sent', 'denied', 'failed'
	)

	messagesReapedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_reaped_total",
			Help: "Scheduled deletions processed by the reaper, by transport outcome.",
		},
		[]string{"status"}, // 'deleted', 'failed'
	)
)

func IncVideoDelivered(status string) {
	videosDeliveredTotal.WithLabelValues(norm(status)).Inc()
}

func IncMessageReaped(status string) {
	messagesReapedTotal.WithLabelValues(norm(status)).Inc()
}
