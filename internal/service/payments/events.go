package payments

import (
	"context"
	"errors"
	"time"

	"studio-app/internal/domain/billing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	EventIntentSucceeded     = "payment_intent.succeeded"
	EventIntentFailed        = "payment_intent.payment_failed"
	EventInvoiceSucceeded    = "invoice.payment_succeeded"
	EventInvoiceFailed       = "invoice.payment_failed"
	EventSubscriptionCreated = "customer.subscription.created"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

// Subscription metadata keys that may carry the plan id.
var planIDMetadataKeys = []string{"paymentPlanId", "payment_plan_id"}

// Event is a verified provider event reduced to the fields the ledger reads.
type Event struct {
	ID   string
	Type string

	PaymentIntentID string
	ChargeID        string
	FailureMessage  string
	FailureCode     string

	InvoiceID      string
	SubscriptionID string
	AmountPaid     decimal.Decimal

	Metadata map[string]string
}

type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeUnmatched Outcome = "unmatched"
	OutcomeLogged    Outcome = "logged"
	OutcomeIgnored   Outcome = "ignored"
)

func IsHandled(eventType string) bool {
	switch eventType {
	case EventIntentSucceeded, EventIntentFailed,
		EventInvoiceSucceeded, EventInvoiceFailed,
		EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted:
		return true
	}
	return false
}

// errUnmatched ends a handler whose target rows do not exist. The event is
// still marked processed.
var errUnmatched = errors.New("event does not match any payment")

// HandleEvent applies a provider event at most once per event id. The
// processed marker and the ledger changes commit together, so an error
// leaves nothing behind and the provider may safely retry.
func (s *Service) HandleEvent(ctx context.Context, ev Event) (Outcome, error) {
	log := s.log.With(zap.String("event_id", ev.ID), zap.String("event_type", ev.Type))

	if !IsHandled(ev.Type) {
		log.Info("unhandled payment event")
		s.metrics.WebhookEvent(ev.Type, string(OutcomeIgnored))
		return OutcomeIgnored, nil
	}

	now := s.now()
	var outcome Outcome
	err := s.store.Transaction(ctx, func(tx Store) error {
		fresh, err := tx.MarkEventProcessed(ctx, ev.ID, ev.Type, now)
		if err != nil {
			return err
		}
		if !fresh {
			outcome = OutcomeDuplicate
			return nil
		}

		err = s.apply(ctx, tx, ev, now, log)
		switch {
		case errors.Is(err, errUnmatched):
			outcome = OutcomeUnmatched
			return nil
		case err != nil:
			return err
		}
		outcome = OutcomeApplied
		if ev.Type == EventSubscriptionUpdated {
			outcome = OutcomeLogged
		}
		return nil
	})
	if err != nil {
		log.Error("payment event failed", zap.Error(err))
		s.metrics.WebhookEvent(ev.Type, "error")
		return "", err
	}

	log.Info("payment event handled", zap.String("outcome", string(outcome)))
	s.metrics.WebhookEvent(ev.Type, string(outcome))
	return outcome, nil
}

func (s *Service) apply(ctx context.Context, tx Store, ev Event, now time.Time, log *zap.Logger) error {
	switch ev.Type {
	case EventIntentSucceeded:
		return intentSucceeded(ctx, tx, ev, now, log)
	case EventIntentFailed:
		return intentFailed(ctx, tx, ev, now, log)
	case EventInvoiceSucceeded:
		return invoiceSucceeded(ctx, tx, ev, now, log)
	case EventInvoiceFailed:
		return invoiceFailed(ctx, tx, ev, log)
	case EventSubscriptionCreated:
		return subscriptionCreated(ctx, tx, ev, log)
	case EventSubscriptionUpdated:
		log.Info("subscription updated", zap.String("subscription_id", ev.SubscriptionID))
		return nil
	case EventSubscriptionDeleted:
		return subscriptionDeleted(ctx, tx, ev, log)
	}
	return nil
}

func intentSucceeded(ctx context.Context, tx Store, ev Event, now time.Time, log *zap.Logger) error {
	payment, err := tx.FindPaymentByIntent(ctx, ev.PaymentIntentID)
	if errors.Is(err, ErrPaymentNotFound) {
		log.Warn("no payment for intent", zap.String("intent_id", ev.PaymentIntentID))
		return errUnmatched
	}
	if err != nil {
		return err
	}
	if payment.Status == billing.PaymentSucceeded {
		log.Info("payment already settled", zap.String("payment_id", payment.ID))
		return errUnmatched
	}

	payment.Status = billing.PaymentSucceeded
	payment.ProcessedAt = &now
	if ev.ChargeID != "" {
		charge := ev.ChargeID
		payment.StripeChargeID = &charge
	}
	if err := tx.SavePayment(ctx, payment); err != nil {
		return err
	}
	return settleInstallment(ctx, tx, payment.PaymentPlanID, now, log)
}

func intentFailed(ctx context.Context, tx Store, ev Event, now time.Time, log *zap.Logger) error {
	payment, err := tx.FindPaymentByIntent(ctx, ev.PaymentIntentID)
	if errors.Is(err, ErrPaymentNotFound) {
		log.Warn("no payment for intent", zap.String("intent_id", ev.PaymentIntentID))
		return errUnmatched
	}
	if err != nil {
		return err
	}
	if payment.Status == billing.PaymentSucceeded {
		log.Warn("failure reported for settled payment", zap.String("payment_id", payment.ID))
		return errUnmatched
	}

	payment.Status = billing.PaymentFailed
	payment.ProcessedAt = &now
	if ev.FailureMessage != "" {
		reason := ev.FailureMessage
		payment.FailureReason = &reason
	}
	if ev.FailureCode != "" {
		code := ev.FailureCode
		payment.FailureCode = &code
	}
	if err := tx.SavePayment(ctx, payment); err != nil {
		return err
	}

	plan, err := tx.FindPlan(ctx, payment.PaymentPlanID)
	if err != nil {
		return unmatchedIfMissing(err, log)
	}
	plan.ApplyFailure()
	return tx.SavePlan(ctx, plan)
}

func invoiceSucceeded(ctx context.Context, tx Store, ev Event, now time.Time, log *zap.Logger) error {
	plan, err := tx.FindPlanBySubscription(ctx, ev.SubscriptionID)
	if err != nil {
		return unmatchedIfMissing(err, log)
	}
	if ev.InvoiceID != "" {
		_, err := tx.FindPaymentByInvoice(ctx, ev.InvoiceID)
		if err == nil {
			log.Info("invoice already recorded", zap.String("invoice_id", ev.InvoiceID))
			return errUnmatched
		}
		if !errors.Is(err, ErrPaymentNotFound) {
			return err
		}
	}

	payment := billing.Payment{
		PaymentPlanID:     plan.ID,
		Amount:            ev.AmountPaid,
		PaymentType:       billing.PaymentTypePlan,
		Status:            billing.PaymentSucceeded,
		InstallmentNumber: plan.PaymentsCompleted + 1,
		ProcessedAt:       &now,
	}
	if ev.InvoiceID != "" {
		invoice := ev.InvoiceID
		payment.StripeInvoiceID = &invoice
	}
	if ev.ChargeID != "" {
		charge := ev.ChargeID
		payment.StripeChargeID = &charge
	}
	if ev.PaymentIntentID != "" {
		intent := ev.PaymentIntentID
		payment.StripePaymentIntentID = &intent
	}
	if err := tx.CreatePayment(ctx, &payment); err != nil {
		return err
	}
	return settleInstallment(ctx, tx, plan.ID, now, log)
}

func invoiceFailed(ctx context.Context, tx Store, ev Event, log *zap.Logger) error {
	plan, err := tx.FindPlanBySubscription(ctx, ev.SubscriptionID)
	if err != nil {
		return unmatchedIfMissing(err, log)
	}
	plan.ApplyFailure()
	return tx.SavePlan(ctx, plan)
}

func subscriptionCreated(ctx context.Context, tx Store, ev Event, log *zap.Logger) error {
	var planID string
	for _, key := range planIDMetadataKeys {
		if planID = ev.Metadata[key]; planID != "" {
			break
		}
	}
	if planID == "" {
		log.Warn("subscription without payment plan metadata", zap.String("subscription_id", ev.SubscriptionID))
		return errUnmatched
	}
	plan, err := tx.FindPlan(ctx, planID)
	if err != nil {
		return unmatchedIfMissing(err, log)
	}
	sub := ev.SubscriptionID
	plan.StripeSubscriptionID = &sub
	return tx.SavePlan(ctx, plan)
}

func subscriptionDeleted(ctx context.Context, tx Store, ev Event, log *zap.Logger) error {
	plan, err := tx.FindPlanBySubscription(ctx, ev.SubscriptionID)
	if err != nil {
		return unmatchedIfMissing(err, log)
	}
	if err := plan.Cancel(); err != nil {
		log.Info("plan already closed", zap.String("plan_id", plan.ID), zap.String("status", plan.Status))
		return errUnmatched
	}
	return tx.SavePlan(ctx, plan)
}

// settleInstallment advances the plan and mirrors the result on the session.
func settleInstallment(ctx context.Context, tx Store, planID string, now time.Time, log *zap.Logger) error {
	plan, err := tx.FindPlan(ctx, planID)
	if err != nil {
		return unmatchedIfMissing(err, log)
	}
	progress, err := plan.ApplySuccess(now)
	if errors.Is(err, billing.ErrPlanClosed) {
		log.Warn("payment for closed plan", zap.String("plan_id", plan.ID), zap.String("status", plan.Status))
		return nil
	}
	if err != nil {
		return err
	}
	if err := tx.SavePlan(ctx, plan); err != nil {
		return err
	}
	err = tx.UpdateSessionBalance(ctx, plan.SessionID, progress.BalanceDue, progress.PlanCompleted)
	return unmatchedIfMissing(err, log)
}

func unmatchedIfMissing(err error, log *zap.Logger) error {
	switch {
	case errors.Is(err, ErrPlanNotFound):
		log.Warn("no payment plan for event")
		return errUnmatched
	case errors.Is(err, ErrSessionNotFound):
		log.Warn("payment plan points at a missing session")
		return errUnmatched
	}
	return err
}
