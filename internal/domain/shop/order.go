package shop

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyOrder     = errors.New("order has no items")
	ErrBadQuantity    = errors.New("quantity must be at least 1")
	ErrUnknownVariant = errors.New("product variant not available")
)

const orderSuffixAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewOrderNumber builds e.g. EM-1767225600000-K7Q2.
func NewOrderNumber(now time.Time) (string, error) {
	suffix := make([]byte, 4)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(orderSuffixAlphabet))))
		if err != nil {
			return "", err
		}
		suffix[i] = orderSuffixAlphabet[n.Int64()]
	}
	return fmt.Sprintf("EM-%d-%s", now.UnixMilli(), suffix), nil
}

type LineRequest struct {
	VariantID string
	Quantity  int
}

type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

// PriceLines fills unit and line totals from the catalog prices. Client
// supplied prices are never trusted.
func PriceLines(lines []LineRequest, variants map[string]ProductVariant) ([]OrderItem, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyOrder
	}
	items := make([]OrderItem, 0, len(lines))
	for _, l := range lines {
		if l.Quantity < 1 {
			return nil, ErrBadQuantity
		}
		v, ok := variants[l.VariantID]
		if !ok || !v.Active {
			return nil, fmt.Errorf("%w: %s", ErrUnknownVariant, l.VariantID)
		}
		items = append(items, OrderItem{
			ProductVariantID: v.ID,
			Quantity:         l.Quantity,
			UnitPrice:        v.Price,
			TotalPrice:       v.Price.Mul(decimal.NewFromInt(int64(l.Quantity))).Round(2),
		})
	}
	return items, nil
}

// ComputeTotals applies a tax rate to the subtotal and adds flat shipping.
func ComputeTotals(items []OrderItem, taxRate, shipping decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.TotalPrice)
	}
	tax := subtotal.Mul(taxRate).Round(2)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal.Add(tax).Add(shipping),
	}
}
