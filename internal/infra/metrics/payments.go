package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentsTotal,
		paymentsRevenueTotal,
		gatewayCheckDuration,
	)
}

var (
	// status: created|reused|confirmed|not_paid|already_processed
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payment lifecycle events by status.",
		},
		[]string{"status"},
	)

	paymentsRevenueTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payments_revenue_rubles_total",
			Help: "Total value of confirmed payments in rubles.",
		},
	)

	gatewayCheckDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payment_gateway_check_duration_seconds",
			Help:    "Latency of payment gateway status checks.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"gateway", "result"}, // result: paid|unpaid
	)
)

func IncPayment(status string) {
	paymentsTotal.WithLabelValues(norm(status)).Inc()
}

func AddPaymentRevenue(amount int64) {
	paymentsRevenueTotal.Add(float64(amount))
}

func ObserveGatewayCheck(gateway string, paid bool, seconds float64) {
	result := "unpaid"
	if paid {
		result = "paid"
	}
	gatewayCheckDuration.WithLabelValues(norm(gateway), result).Observe(seconds)
}
