package adapter

import "context"

// PaymentGateway is the hex port for the external payment provider.
type PaymentGateway interface {
	Name() string
	// Enabled is false when credentials are missing; CheckPayment then always reports false.
	Enabled() bool
	// BuildPaymentURL returns the link the user follows to pay amount tagged with label.
	BuildPaymentURL(amount int64, label, targets string) string
	// CheckPayment reports whether an operation with label completed successfully.
	// Transport failures, non-200 responses and malformed payloads all yield false.
	CheckPayment(ctx context.Context, label string) bool
}
