package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartHandle is the local identity of the active cart. The zero value
// means no cart exists yet.
type CartHandle struct {
	CartID    string    `json:"cart_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsZero reports whether no cart identity is held.
func (h CartHandle) IsZero() bool {
	return h.CartID == ""
}

// Expired reports whether the handle references a cart past its expiry.
func (h CartHandle) Expired(now time.Time) bool {
	if h.IsZero() || h.ExpiresAt.IsZero() {
		return false
	}
	return h.ExpiresAt.Before(now)
}

// CartItem is a single line in a remote cart snapshot. Prices are
// reported by the remote service and never recomputed locally.
type CartItem struct {
	ProductID string          `json:"product_id"`
	VariantID string          `json:"variant_id,omitempty"`
	Title     string          `json:"title,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// AppliedCoupon describes a coupon the remote service has accepted.
type AppliedCoupon struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
}

// CartSnapshot is the authoritative cart state returned by the remote
// service after any read or mutation. AmountPayable already reflects
// every deduction and is the only value safe to present as amount due.
type CartSnapshot struct {
	ID               string          `json:"id"`
	Items            []CartItem      `json:"items"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	GrandTotal       decimal.Decimal `json:"grand_total"`
	AmountPayable    decimal.Decimal `json:"amount_payable"`
	Coupon           *AppliedCoupon  `json:"coupon,omitempty"`
	LoyaltyDeduction decimal.Decimal `json:"loyalty_deduction"`
	CreditDeduction  decimal.Decimal `json:"credit_deduction"`
	ExpiresAt        time.Time       `json:"expires_at"`
}

// Handle extracts the cart identity carried by the snapshot.
func (s *CartSnapshot) Handle() CartHandle {
	if s == nil {
		return CartHandle{}
	}
	return CartHandle{CartID: s.ID, ExpiresAt: s.ExpiresAt}
}

// Expired reports whether the snapshot's cart is past its expiry.
func (s *CartSnapshot) Expired(now time.Time) bool {
	if s == nil {
		return false
	}
	return !s.ExpiresAt.IsZero() && s.ExpiresAt.Before(now)
}

// Item returns the line matching the product/variant pair, if present.
func (s *CartSnapshot) Item(productID, variantID string) (CartItem, bool) {
	if s == nil {
		return CartItem{}, false
	}
	for _, item := range s.Items {
		if item.ProductID == productID && item.VariantID == variantID {
			return item, true
		}
	}
	return CartItem{}, false
}

// ItemInput is the caller-side shape for add/update/remove. Quantity 0
// means removal; add, update and delete share one endpoint keyed by
// (product_id, variant_id).
type ItemInput struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	Quantity  int    `json:"quantity"`
}
