package stripe

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"studio-app/internal/service/payments"

	stripeapi "github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/webhook"
)

var (
	ErrSignature  = errors.New("signature verification failed")
	ErrBadPayload = errors.New("malformed event payload")
)

// Verifier checks Stripe-Signature headers and decodes the event objects
// the payment ledger reacts to.
type Verifier struct {
	secret string
}

func NewVerifier(secret string) (*Verifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("STRIPE_WEBHOOK_SECRET not configured")
	}
	return &Verifier{secret: secret}, nil
}

func (v *Verifier) Parse(payload []byte, signature string) (payments.Event, error) {
	event, err := webhook.ConstructEventWithOptions(
		payload,
		signature,
		v.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		return payments.Event{}, fmt.Errorf("%w: %v", ErrSignature, err)
	}

	out := payments.Event{ID: event.ID, Type: string(event.Type)}
	if !payments.IsHandled(out.Type) {
		return out, nil
	}
	if event.Data == nil {
		return out, ErrBadPayload
	}

	switch {
	case strings.HasPrefix(out.Type, "payment_intent."):
		var pi stripeapi.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return out, fmt.Errorf("%w: %v", ErrBadPayload, err)
		}
		out.PaymentIntentID = pi.ID
		out.Metadata = pi.Metadata
		if pi.LatestCharge != nil {
			out.ChargeID = pi.LatestCharge.ID
		}
		if pi.LastPaymentError != nil {
			out.FailureMessage = pi.LastPaymentError.Msg
			out.FailureCode = string(pi.LastPaymentError.Code)
		}

	case strings.HasPrefix(out.Type, "invoice."):
		var inv stripeapi.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return out, fmt.Errorf("%w: %v", ErrBadPayload, err)
		}
		out.InvoiceID = inv.ID
		out.AmountPaid = FromMinorUnits(inv.AmountPaid)
		out.Metadata = inv.Metadata
		if inv.Subscription != nil {
			out.SubscriptionID = inv.Subscription.ID
		}
		if inv.Charge != nil {
			out.ChargeID = inv.Charge.ID
		}
		if inv.PaymentIntent != nil {
			out.PaymentIntentID = inv.PaymentIntent.ID
		}

	case strings.HasPrefix(out.Type, "customer.subscription."):
		var sub stripeapi.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return out, fmt.Errorf("%w: %v", ErrBadPayload, err)
		}
		out.SubscriptionID = sub.ID
		out.Metadata = sub.Metadata
	}
	return out, nil
}
