package stripe

import (
	"context"
	"errors"
	"strings"

	"studio-app/internal/service/payments"

	"github.com/shopspring/decimal"
	stripeapi "github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/client"
)

// Client creates payment intents through the Stripe API.
type Client struct {
	api      *client.API
	currency string
}

func NewClient(secretKey, currency string) (*Client, error) {
	if strings.TrimSpace(secretKey) == "" {
		return nil, errors.New("STRIPE_SECRET_KEY not configured")
	}
	if currency == "" {
		currency = string(stripeapi.CurrencyUSD)
	}
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Client{api: api, currency: strings.ToLower(currency)}, nil
}

func (c *Client) CreatePaymentIntent(ctx context.Context, req payments.IntentRequest) (*payments.Intent, error) {
	params := &stripeapi.PaymentIntentParams{
		Amount:      stripeapi.Int64(ToMinorUnits(req.Amount)),
		Currency:    stripeapi.String(c.currency),
		Description: stripeapi.String(req.Description),
		AutomaticPaymentMethods: &stripeapi.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripeapi.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := c.api.PaymentIntents.New(params)
	if err != nil {
		return nil, err
	}
	return &payments.Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       NormalizeIntentStatus(string(pi.Status)),
	}, nil
}

// ToMinorUnits converts a dollar amount to cents.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func FromMinorUnits(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
