package stripewebhooks

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"studio-app/internal/service/payments"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeParser struct {
	err           error
	lastSignature string
}

func (p *fakeParser) Parse(payload []byte, signature string) (payments.Event, error) {
	p.lastSignature = signature
	if p.err != nil {
		return payments.Event{}, p.err
	}
	return payments.Event{ID: "evt_1", Type: string(payload)}, nil
}

type fakeEvents struct {
	outcome payments.Outcome
	err     error
	seen    []payments.Event
}

func (e *fakeEvents) HandleEvent(_ context.Context, ev payments.Event) (payments.Outcome, error) {
	e.seen = append(e.seen, ev)
	return e.outcome, e.err
}

func send(h *Handler, body string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/webhooks/stripe", h.Receive)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(body))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	r.ServeHTTP(w, req)
	return w
}

func TestReceiveAcknowledgesHandledEvent(t *testing.T) {
	parser := &fakeParser{}
	events := &fakeEvents{outcome: payments.OutcomeApplied}

	w := send(NewHandler(parser, events, zap.NewNop()), "payment_intent.succeeded")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received":true,"outcome":"applied"}`, w.Body.String())
	assert.Equal(t, "t=1,v1=abc", parser.lastSignature)
	require.Len(t, events.seen, 1)
	assert.Equal(t, "payment_intent.succeeded", events.seen[0].Type)
}

func TestReceiveAcknowledgesUnmatchedAndDuplicates(t *testing.T) {
	for _, outcome := range []payments.Outcome{payments.OutcomeUnmatched, payments.OutcomeDuplicate, payments.OutcomeIgnored} {
		w := send(NewHandler(&fakeParser{}, &fakeEvents{outcome: outcome}, zap.NewNop()), "invoice.payment_failed")
		assert.Equal(t, http.StatusOK, w.Code, outcome)
	}
}

func TestReceiveRejectsBadSignature(t *testing.T) {
	events := &fakeEvents{}
	w := send(NewHandler(&fakeParser{err: errors.New("signature verification failed")}, events, zap.NewNop()), "x")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, events.seen)
}

func TestReceiveAsksForRetryOnFailure(t *testing.T) {
	w := send(NewHandler(&fakeParser{}, &fakeEvents{err: errors.New("db down")}, zap.NewNop()), "payment_intent.succeeded")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestReceiveRejectsOversizedBody(t *testing.T) {
	events := &fakeEvents{}
	w := send(NewHandler(&fakeParser{}, events, zap.NewNop()), strings.Repeat("a", maxPayloadBytes+1))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Empty(t, events.seen)
}
