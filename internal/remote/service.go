package remote

import (
	"context"

	"github.com/angelmondragon/cartflow/pkg/enums"
	"github.com/angelmondragon/cartflow/pkg/types"
)

// Service is the remote cart service surface the SDK talks to. Every
// operation is request/response; mutating calls return the full cart
// snapshot, which is the sole source of truth for totals.
type Service interface {
	// CreateCart creates a cart from a non-empty initial item set. The
	// backend forbids empty carts, so this is only reachable through a
	// bootstrapping item mutation.
	CreateCart(ctx context.Context, items []types.ItemInput) (*types.CartSnapshot, error)
	GetCart(ctx context.Context, cartID string) (*types.CartSnapshot, error)
	GetCartByUser(ctx context.Context, userID string) (*types.CartSnapshot, error)

	// SetItem adds, updates or removes a line keyed by (product, variant).
	// Quantity 0 removes; removing an absent line is a no-op success.
	SetItem(ctx context.Context, cartID string, item types.ItemInput) (*types.CartSnapshot, error)
	ApplyCoupon(ctx context.Context, cartID, code string) (*types.CartSnapshot, error)
	RemoveCoupon(ctx context.Context, cartID, code string) (*types.CartSnapshot, error)

	UpdateAddress(ctx context.Context, cartID string, input types.AddressInput) (*types.CartSnapshot, error)
	CheckDeliverability(ctx context.Context, cartID, postalCode string) (*types.DeliverabilityResult, error)
	FulfillmentOptions(ctx context.Context, cartID string) (*types.FulfillmentOptionSet, error)
	SetFulfillmentPreference(ctx context.Context, cartID string, pref types.FulfillmentPreference) (*types.CartSnapshot, error)

	CreateOrder(ctx context.Context, cartID string, method types.PaymentMethod) (*types.Order, error)
	PaymentStatus(ctx context.Context, orderID string) (enums.PaymentStatus, error)
	RetryPayment(ctx context.Context, orderID string, method types.PaymentMethod) (*types.PaymentInfo, error)
}
