package booking

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPriceSession(t *testing.T) {
	addons := []Addon{
		{Price: decimal.RequireFromString("49.99")},
		{Price: decimal.RequireFromString("25")},
	}

	q := PriceSession(decimal.RequireFromString("299"), addons, decimal.RequireFromString("0.30"))

	assert.Equal(t, "373.99", q.Total.StringFixed(2))
	assert.Equal(t, "112.20", q.Deposit.StringFixed(2))
	assert.Equal(t, "261.79", q.Balance.StringFixed(2))
	assert.True(t, q.Deposit.Add(q.Balance).Equal(q.Total))
}

func TestSessionNumber(t *testing.T) {
	assert.Equal(t, "EM20260001", SessionNumber(2026, 0))
	assert.Equal(t, "EM20260124", SessionNumber(2026, 123))
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusBooked, StatusConfirmed))
	assert.True(t, CanTransition(StatusConfirmed, StatusCompleted))
	assert.True(t, CanTransition(StatusInProgress, StatusCancelled))
	assert.False(t, CanTransition(StatusCompleted, StatusBooked))
	assert.False(t, CanTransition(StatusCancelled, StatusConfirmed))
	assert.False(t, CanTransition(StatusConfirmed, StatusBooked))
}
