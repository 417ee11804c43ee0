package payments

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"studio-app/internal/domain/billing"
	"studio-app/internal/domain/booking"
	"studio-app/internal/domain/users"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStore struct {
	sessions map[string]*booking.Session
	plans    map[string]*billing.PaymentPlan
	payments map[string]*billing.Payment
	events   map[string]bool
	failOn   string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions: map[string]*booking.Session{},
		plans:    map[string]*billing.PaymentPlan{},
		payments: map[string]*billing.Payment{},
		events:   map[string]bool{},
	}
}

// Transaction works on a copy and only publishes it when fn succeeds.
func (f *fakeStore) Transaction(_ context.Context, fn func(tx Store) error) error {
	tx := f.clone()
	if err := fn(tx); err != nil {
		return err
	}
	*f = *tx
	return nil
}

func (f *fakeStore) clone() *fakeStore {
	c := newFakeStore()
	c.failOn = f.failOn
	for k, v := range f.sessions {
		s := *v
		c.sessions[k] = &s
	}
	for k, v := range f.plans {
		p := *v
		c.plans[k] = &p
	}
	for k, v := range f.payments {
		p := *v
		c.payments[k] = &p
	}
	for k, v := range f.events {
		c.events[k] = v
	}
	return c
}

func (f *fakeStore) FindSession(_ context.Context, id string) (*booking.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) HasOpenPlan(_ context.Context, sessionID string) (bool, error) {
	for _, p := range f.plans {
		if p.SessionID == sessionID && p.Status != billing.PlanStatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ListPlansForSession(_ context.Context, sessionID string) ([]billing.PaymentPlan, error) {
	var out []billing.PaymentPlan
	for _, p := range f.plans {
		if p.SessionID == sessionID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeStore) CreatePlan(_ context.Context, p *billing.PaymentPlan) error {
	cp := *p
	f.plans[p.ID] = &cp
	return nil
}

func (f *fakeStore) CreatePayment(_ context.Context, p *billing.Payment) error {
	if p.ID == "" {
		p.ID = fmt.Sprintf("pay-%d", len(f.payments)+1)
	}
	cp := *p
	f.payments[p.ID] = &cp
	return nil
}

func (f *fakeStore) MarkEventProcessed(_ context.Context, id, _ string, _ time.Time) (bool, error) {
	if f.events[id] {
		return false, nil
	}
	f.events[id] = true
	return true, nil
}

func (f *fakeStore) FindPaymentByIntent(_ context.Context, intentID string) (*billing.Payment, error) {
	for _, p := range f.payments {
		if p.StripePaymentIntentID != nil && *p.StripePaymentIntentID == intentID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrPaymentNotFound
}

func (f *fakeStore) FindPaymentByInvoice(_ context.Context, invoiceID string) (*billing.Payment, error) {
	for _, p := range f.payments {
		if p.StripeInvoiceID != nil && *p.StripeInvoiceID == invoiceID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrPaymentNotFound
}

func (f *fakeStore) SavePayment(_ context.Context, p *billing.Payment) error {
	cp := *p
	f.payments[p.ID] = &cp
	return nil
}

func (f *fakeStore) FindPlan(_ context.Context, id string) (*billing.PaymentPlan, error) {
	p, ok := f.plans[id]
	if !ok {
		return nil, ErrPlanNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) FindPlanBySubscription(_ context.Context, sub string) (*billing.PaymentPlan, error) {
	for _, p := range f.plans {
		if p.StripeSubscriptionID != nil && *p.StripeSubscriptionID == sub {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrPlanNotFound
}

func (f *fakeStore) SavePlan(_ context.Context, p *billing.PaymentPlan) error {
	cp := *p
	f.plans[p.ID] = &cp
	return nil
}

func (f *fakeStore) UpdateSessionBalance(_ context.Context, id string, balance decimal.Decimal, confirm bool) error {
	if f.failOn == "session" {
		return errors.New("connection reset")
	}
	s, ok := f.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	s.BalanceDue = balance
	if confirm {
		s.Status = booking.StatusConfirmed
	}
	return nil
}

type fakeProvider struct {
	requests []IntentRequest
	err      error
}

func (p *fakeProvider) CreatePaymentIntent(_ context.Context, req IntentRequest) (*Intent, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.requests = append(p.requests, req)
	return &Intent{ID: "pi_123", ClientSecret: "pi_123_secret", Status: billing.PaymentPending}, nil
}

var payNow = time.Date(2026, 4, 10, 15, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*Service, *fakeStore, *fakeProvider) {
	t.Helper()
	store := newFakeStore()
	store.sessions["s1"] = &booking.Session{
		ID:            "s1",
		SessionNumber: "EM20260001",
		UserID:        7,
		Status:        booking.StatusBooked,
		TotalAmount:   decimal.NewFromInt(400),
		BalanceDue:    decimal.NewFromInt(280),
	}
	provider := &fakeProvider{}
	svc := NewService(store, provider, zap.NewNop(), WithClock(func() time.Time { return payNow }))
	return svc, store, provider
}

var owner = users.Actor{ID: 7, Role: users.RoleCustomer}

func TestCreateIntentOpensPlan(t *testing.T) {
	svc, store, provider := setup(t)

	res, err := svc.CreateIntent(context.Background(), owner, IntentInput{
		SessionID: "s1", Plan: billing.PlanThreePay, Amount: decimal.NewFromInt(400),
	})
	require.NoError(t, err)

	assert.Equal(t, "pi_123_secret", res.ClientSecret)
	assert.Equal(t, "133.33", res.Amount.StringFixed(2))
	assert.True(t, res.Savings.IsZero())

	plan := store.plans[res.PaymentPlanID]
	require.NotNil(t, plan)
	assert.Equal(t, 3, plan.PaymentsRemaining)
	assert.Equal(t, billing.PlanStatusActive, plan.Status)
	assert.Equal(t, payNow, *plan.NextPaymentDate)

	payment, err := store.FindPaymentByIntent(context.Background(), "pi_123")
	require.NoError(t, err)
	assert.Equal(t, billing.PaymentPending, payment.Status)
	assert.Equal(t, 1, payment.InstallmentNumber)

	require.Len(t, provider.requests, 1)
	md := provider.requests[0].Metadata
	assert.Equal(t, "s1", md["sessionId"])
	assert.Equal(t, "three_pay", md["paymentPlan"])
	assert.Equal(t, res.PaymentPlanID, md["paymentPlanId"])
	assert.Equal(t, "7", md["userId"])
}

func TestCreateIntentGuards(t *testing.T) {
	svc, store, provider := setup(t)
	ctx := context.Background()

	_, err := svc.CreateIntent(ctx, users.Actor{ID: 99}, IntentInput{SessionID: "s1", Plan: billing.PlanFull, Amount: decimal.NewFromInt(400)})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = svc.CreateIntent(ctx, owner, IntentInput{SessionID: "s1", Plan: billing.PlanFull, Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, ErrAmountMismatch)

	_, err = svc.CreateIntent(ctx, owner, IntentInput{SessionID: "s1", Plan: "weekly", Amount: decimal.NewFromInt(400)})
	assert.ErrorIs(t, err, billing.ErrUnknownPlan)

	_, err = svc.CreateIntent(ctx, owner, IntentInput{SessionID: "s1", Plan: billing.PlanFull, Amount: decimal.NewFromInt(400)})
	require.NoError(t, err)
	_, err = svc.CreateIntent(ctx, owner, IntentInput{SessionID: "s1", Plan: billing.PlanFull, Amount: decimal.NewFromInt(400)})
	assert.ErrorIs(t, err, ErrPlanExists)

	store.sessions["s1"].Status = booking.StatusCancelled
	_, err = svc.CreateIntent(ctx, owner, IntentInput{SessionID: "s1", Plan: billing.PlanFull, Amount: decimal.NewFromInt(400)})
	assert.ErrorIs(t, err, ErrSessionClosed)

	assert.Len(t, provider.requests, 1)
}

func TestCreateIntentProviderFailureStoresNothing(t *testing.T) {
	svc, store, provider := setup(t)
	provider.err = errors.New("card_declined")

	_, err := svc.CreateIntent(context.Background(), owner, IntentInput{SessionID: "s1", Plan: billing.PlanFull, Amount: decimal.NewFromInt(400)})
	require.Error(t, err)
	assert.Empty(t, store.plans)
	assert.Empty(t, store.payments)
}

func TestCreateIntentWithoutProvider(t *testing.T) {
	_, store, _ := setup(t)
	svc := NewService(store, nil, zap.NewNop())

	_, err := svc.CreateIntent(context.Background(), owner, IntentInput{SessionID: "s1", Plan: billing.PlanFull, Amount: decimal.NewFromInt(400)})
	assert.ErrorIs(t, err, ErrNoProvider)
	assert.Empty(t, store.plans)
}

func openPlan(t *testing.T, svc *Service, plan billing.PlanType) string {
	t.Helper()
	res, err := svc.CreateIntent(context.Background(), owner, IntentInput{SessionID: "s1", Plan: plan, Amount: decimal.NewFromInt(400)})
	require.NoError(t, err)
	return res.PaymentPlanID
}

func TestIntentSucceededReplayDoesNotDoubleCount(t *testing.T) {
	svc, store, _ := setup(t)
	planID := openPlan(t, svc, billing.PlanThreePay)
	ctx := context.Background()
	ev := Event{ID: "evt_1", Type: EventIntentSucceeded, PaymentIntentID: "pi_123", ChargeID: "ch_1"}

	outcome, err := svc.HandleEvent(ctx, ev)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)

	outcome, err = svc.HandleEvent(ctx, ev)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)

	plan := store.plans[planID]
	assert.Equal(t, 1, plan.PaymentsCompleted)
	assert.Equal(t, 2, plan.PaymentsRemaining)
	assert.Equal(t, "266.66", store.sessions["s1"].BalanceDue.StringFixed(2))
	assert.Equal(t, booking.StatusBooked, store.sessions["s1"].Status)

	payment, err := store.FindPaymentByIntent(ctx, "pi_123")
	require.NoError(t, err)
	assert.Equal(t, billing.PaymentSucceeded, payment.Status)
	assert.Equal(t, "ch_1", *payment.StripeChargeID)
}

func TestIntentSucceededWithNewEventIDForSettledPayment(t *testing.T) {
	svc, store, _ := setup(t)
	planID := openPlan(t, svc, billing.PlanThreePay)
	ctx := context.Background()

	_, err := svc.HandleEvent(ctx, Event{ID: "evt_1", Type: EventIntentSucceeded, PaymentIntentID: "pi_123"})
	require.NoError(t, err)
	outcome, err := svc.HandleEvent(ctx, Event{ID: "evt_2", Type: EventIntentSucceeded, PaymentIntentID: "pi_123"})
	require.NoError(t, err)

	assert.Equal(t, OutcomeUnmatched, outcome)
	assert.Equal(t, 1, store.plans[planID].PaymentsCompleted)
}

func TestFullPlanConfirmsSession(t *testing.T) {
	svc, store, _ := setup(t)
	planID := openPlan(t, svc, billing.PlanFull)

	_, err := svc.HandleEvent(context.Background(), Event{ID: "evt_1", Type: EventIntentSucceeded, PaymentIntentID: "pi_123"})
	require.NoError(t, err)

	plan := store.plans[planID]
	assert.Equal(t, billing.PlanStatusCompleted, plan.Status)
	assert.Nil(t, plan.NextPaymentDate)
	assert.Equal(t, booking.StatusConfirmed, store.sessions["s1"].Status)
	assert.True(t, store.sessions["s1"].BalanceDue.IsZero())
}

func TestIntentFailedCountsFailure(t *testing.T) {
	svc, store, _ := setup(t)
	planID := openPlan(t, svc, billing.PlanTwoPay)
	ctx := context.Background()

	outcome, err := svc.HandleEvent(ctx, Event{
		ID: "evt_f", Type: EventIntentFailed, PaymentIntentID: "pi_123",
		FailureMessage: "Your card was declined.", FailureCode: "card_declined",
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)

	plan := store.plans[planID]
	assert.Equal(t, 1, plan.FailureCount)
	assert.Equal(t, billing.PlanStatusActive, plan.Status)
	assert.Zero(t, plan.PaymentsCompleted)

	payment, err := store.FindPaymentByIntent(ctx, "pi_123")
	require.NoError(t, err)
	assert.Equal(t, billing.PaymentFailed, payment.Status)
	assert.Equal(t, "card_declined", *payment.FailureCode)
	assert.Equal(t, "280", store.sessions["s1"].BalanceDue.String())
}

func TestSubscriptionLifecycle(t *testing.T) {
	svc, store, _ := setup(t)
	planID := openPlan(t, svc, billing.PlanFourPay)
	ctx := context.Background()

	outcome, err := svc.HandleEvent(ctx, Event{
		ID: "evt_sc", Type: EventSubscriptionCreated, SubscriptionID: "sub_1",
		Metadata: map[string]string{"payment_plan_id": planID},
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.Equal(t, "sub_1", *store.plans[planID].StripeSubscriptionID)

	invoice := Event{ID: "evt_inv", Type: EventInvoiceSucceeded, SubscriptionID: "sub_1", InvoiceID: "in_1", AmountPaid: decimal.NewFromInt(100)}
	_, err = svc.HandleEvent(ctx, invoice)
	require.NoError(t, err)
	invoice.ID = "evt_inv_retry"
	outcome, err = svc.HandleEvent(ctx, invoice)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnmatched, outcome)
	assert.Equal(t, 1, store.plans[planID].PaymentsCompleted)
	assert.Equal(t, "300.00", store.sessions["s1"].BalanceDue.StringFixed(2))

	_, err = svc.HandleEvent(ctx, Event{ID: "evt_if", Type: EventInvoiceFailed, SubscriptionID: "sub_1"})
	require.NoError(t, err)
	assert.Equal(t, 1, store.plans[planID].FailureCount)

	outcome, err = svc.HandleEvent(ctx, Event{ID: "evt_su", Type: EventSubscriptionUpdated, SubscriptionID: "sub_1"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeLogged, outcome)

	_, err = svc.HandleEvent(ctx, Event{ID: "evt_sd", Type: EventSubscriptionDeleted, SubscriptionID: "sub_1"})
	require.NoError(t, err)
	assert.Equal(t, billing.PlanStatusCancelled, store.plans[planID].Status)

	outcome, err = svc.HandleEvent(ctx, Event{ID: "evt_inv2", Type: EventInvoiceSucceeded, SubscriptionID: "sub_1", InvoiceID: "in_2", AmountPaid: decimal.NewFromInt(100)})
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.Equal(t, 1, store.plans[planID].PaymentsCompleted)
}

func TestUnknownAndUnmatchedEvents(t *testing.T) {
	svc, store, _ := setup(t)
	ctx := context.Background()

	outcome, err := svc.HandleEvent(ctx, Event{ID: "evt_x", Type: "charge.refunded"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, outcome)
	assert.False(t, store.events["evt_x"])

	outcome, err = svc.HandleEvent(ctx, Event{ID: "evt_y", Type: EventIntentSucceeded, PaymentIntentID: "pi_unknown"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnmatched, outcome)
	assert.True(t, store.events["evt_y"])
}

func TestIntentSucceededForDeletedSession(t *testing.T) {
	svc, store, _ := setup(t)
	planID := openPlan(t, svc, billing.PlanThreePay)
	delete(store.sessions, "s1")

	outcome, err := svc.HandleEvent(context.Background(), Event{ID: "evt_1", Type: EventIntentSucceeded, PaymentIntentID: "pi_123"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnmatched, outcome)
	assert.True(t, store.events["evt_1"])
	assert.Equal(t, 1, store.plans[planID].PaymentsCompleted)
}

func TestHandleEventRollsBackOnStoreFailure(t *testing.T) {
	svc, store, _ := setup(t)
	planID := openPlan(t, svc, billing.PlanThreePay)
	store.failOn = "session"
	ev := Event{ID: "evt_1", Type: EventIntentSucceeded, PaymentIntentID: "pi_123"}

	_, err := svc.HandleEvent(context.Background(), ev)
	require.Error(t, err)
	assert.False(t, store.events["evt_1"])
	assert.Zero(t, store.plans[planID].PaymentsCompleted)

	store.failOn = ""
	outcome, err := svc.HandleEvent(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.Equal(t, 1, store.plans[planID].PaymentsCompleted)
}

func TestHistoryChecksOwnership(t *testing.T) {
	svc, _, _ := setup(t)
	openPlan(t, svc, billing.PlanFull)

	_, err := svc.History(context.Background(), users.Actor{ID: 3}, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	plans, err := svc.History(context.Background(), owner, "s1")
	require.NoError(t, err)
	assert.Len(t, plans, 1)
}
