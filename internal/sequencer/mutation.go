package sequencer

import (
	"fmt"

	"github.com/angelmondragon/cartflow/pkg/enums"
	"github.com/angelmondragon/cartflow/pkg/types"
)

// Mutation is a single intended change to cart state. Mutations are
// executed strictly in submission order, one at a time.
type Mutation interface {
	Kind() enums.MutationKind

	// canBootstrap reports whether the mutation may create a cart when
	// none exists. Only item mutations can, since the remote service
	// forbids empty carts.
	canBootstrap() bool
}

// SetItem adds, updates or removes a line keyed by (product, variant).
// Quantity 0 removes the line.
type SetItem struct {
	ProductID string
	VariantID string
	Quantity  int
}

func (m SetItem) Kind() enums.MutationKind { return enums.MutationKindSetItem }
func (m SetItem) canBootstrap() bool       { return m.Quantity > 0 }

func (m SetItem) item() types.ItemInput {
	return types.ItemInput{ProductID: m.ProductID, VariantID: m.VariantID, Quantity: m.Quantity}
}

func (m SetItem) String() string {
	return fmt.Sprintf("set_item(%s/%s qty=%d)", m.ProductID, m.VariantID, m.Quantity)
}

// ApplyCoupon applies a coupon code to the active cart.
type ApplyCoupon struct {
	Code string
}

func (m ApplyCoupon) Kind() enums.MutationKind { return enums.MutationKindApplyCoupon }
func (m ApplyCoupon) canBootstrap() bool       { return false }

func (m ApplyCoupon) String() string {
	return fmt.Sprintf("apply_coupon(%s)", m.Code)
}

// RemoveCoupon removes the applied coupon; an empty code removes
// whichever coupon is active.
type RemoveCoupon struct {
	Code string
}

func (m RemoveCoupon) Kind() enums.MutationKind { return enums.MutationKindRemoveCoupon }
func (m RemoveCoupon) canBootstrap() bool       { return false }

func (m RemoveCoupon) String() string {
	return fmt.Sprintf("remove_coupon(%s)", m.Code)
}
