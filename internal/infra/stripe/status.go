package stripe

import (
	"strings"

	"studio-app/internal/domain/billing"
)

// NormalizeIntentStatus maps a Stripe payment intent status onto the
// payment ledger statuses.
func NormalizeIntentStatus(s string) string {
	switch strings.TrimSpace(s) {
	case "succeeded":
		return billing.PaymentSucceeded
	case "canceled":
		return billing.PaymentFailed
	default:
		// requires_payment_method, requires_confirmation, requires_action,
		// processing and requires_capture all still wait on the customer.
		return billing.PaymentPending
	}
}
