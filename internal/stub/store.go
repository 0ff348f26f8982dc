package stub

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/cartflow/pkg/enums"
	pkgerrors "github.com/angelmondragon/cartflow/pkg/errors"
	"github.com/angelmondragon/cartflow/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Options tunes the in-memory backend.
type Options struct {
	CartTTL time.Duration
	// Coupons maps code to a flat discount amount.
	Coupons map[string]decimal.Decimal
	// Prices maps product id to unit price; unknown products fall back
	// to DefaultPrice.
	Prices       map[string]decimal.Decimal
	DefaultPrice decimal.Decimal
	// UnserviceablePostcodes always fail deliverability checks.
	UnserviceablePostcodes map[string]bool
	Now                    func() time.Time
}

type line struct {
	productID string
	variantID string
	quantity  int
}

type cartState struct {
	id         string
	userID     string
	lines      []line
	couponCode string
	fee        decimal.Decimal
	expiresAt  time.Time
}

type orderState struct {
	id     string
	cartID string
	status enums.PaymentStatus
	total  decimal.Decimal
}

// Store is the in-memory cart table behind the stub server. It plays
// the remote service's role: it is the sole owner of totals.
type Store struct {
	mu     sync.Mutex
	carts  map[string]*cartState
	orders map[string]*orderState
	opts   Options
}

func NewStore(opts Options) *Store {
	if opts.CartTTL <= 0 {
		opts.CartTTL = 30 * time.Minute
	}
	if opts.DefaultPrice.IsZero() {
		opts.DefaultPrice = decimal.NewFromInt(10)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		carts:  map[string]*cartState{},
		orders: map[string]*orderState{},
		opts:   opts,
	}
}

func (s *Store) CreateCart(userID string, items []types.ItemInput) (*types.CartSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var lines []line
	for _, item := range items {
		if strings.TrimSpace(item.ProductID) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
		}
		if item.Quantity > 0 {
			lines = append(lines, line{productID: item.ProductID, variantID: item.VariantID, quantity: item.Quantity})
		}
	}
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot create a cart with no items")
	}

	cart := &cartState{
		id:        uuid.NewString(),
		userID:    userID,
		lines:     lines,
		expiresAt: s.opts.Now().Add(s.opts.CartTTL),
	}
	s.carts[cart.id] = cart
	return s.snapshot(cart), nil
}

func (s *Store) GetCart(cartID string) (*types.CartSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, err := s.liveCart(cartID)
	if err != nil {
		return nil, err
	}
	return s.snapshot(cart), nil
}

func (s *Store) GetCartByUser(userID string) (*types.CartSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, cart := range s.carts {
		if cart.userID != "" && cart.userID == userID && !s.expired(cart) {
			return s.snapshot(cart), nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active cart for user")
}

func (s *Store) SetItem(cartID string, item types.ItemInput) (*types.CartSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, err := s.liveCart(cartID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(item.ProductID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if item.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}

	idx := -1
	for i, l := range cart.lines {
		if l.productID == item.ProductID && l.variantID == item.VariantID {
			idx = i
			break
		}
	}

	switch {
	case item.Quantity == 0 && idx >= 0:
		cart.lines = append(cart.lines[:idx], cart.lines[idx+1:]...)
	case item.Quantity == 0:
		// Removing an absent line is a no-op.
	case idx >= 0:
		cart.lines[idx].quantity = item.Quantity
	default:
		cart.lines = append(cart.lines, line{productID: item.ProductID, variantID: item.VariantID, quantity: item.Quantity})
	}

	if len(cart.lines) == 0 {
		// The last line was removed; the cart ceases to exist and the
		// response carries no cart identity.
		delete(s.carts, cart.id)
		return &types.CartSnapshot{}, nil
	}
	return s.snapshot(cart), nil
}

func (s *Store) ApplyCoupon(cartID, code string) (*types.CartSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, err := s.liveCart(cartID)
	if err != nil {
		return nil, err
	}
	if _, ok := s.opts.Coupons[code]; !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown coupon code %q", code))
	}
	cart.couponCode = code
	return s.snapshot(cart), nil
}

func (s *Store) RemoveCoupon(cartID, code string) (*types.CartSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, err := s.liveCart(cartID)
	if err != nil {
		return nil, err
	}
	if code != "" && cart.couponCode != code {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("coupon %q is not applied", code))
	}
	cart.couponCode = ""
	return s.snapshot(cart), nil
}

func (s *Store) UpdateAddress(cartID string, input types.AddressInput) (*types.CartSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, err := s.liveCart(cartID)
	if err != nil {
		return nil, err
	}
	if input.ShippingAddressID == "" && input.Shipping == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is required")
	}
	return s.snapshot(cart), nil
}

func (s *Store) CheckDeliverability(cartID, postalCode string) (*types.DeliverabilityResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, err := s.liveCart(cartID)
	if err != nil {
		return nil, err
	}
	if s.opts.UnserviceablePostcodes[postalCode] {
		items := make([]string, 0, len(cart.lines))
		for _, l := range cart.lines {
			items = append(items, l.productID)
		}
		return &types.DeliverabilityResult{Serviceable: false, PostalCode: postalCode, UnserviceableItems: items}, nil
	}
	return &types.DeliverabilityResult{Serviceable: true, PostalCode: postalCode}, nil
}

func (s *Store) FulfillmentOptions(cartID string) (*types.FulfillmentOptionSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.liveCart(cartID); err != nil {
		return nil, err
	}
	return &types.FulfillmentOptionSet{
		Delivery: []types.FulfillmentOption{
			{ID: "std-delivery", Kind: enums.FulfillmentKindDelivery, Label: "Standard delivery", Fee: decimal.NewFromInt(5)},
			{ID: "express-delivery", Kind: enums.FulfillmentKindDelivery, Label: "Express delivery", Fee: decimal.NewFromInt(12)},
		},
		Collect: []types.FulfillmentOption{
			{ID: "store-pickup", Kind: enums.FulfillmentKindCollect, Label: "Collect in store", Fee: decimal.Zero},
		},
	}, nil
}

func (s *Store) SetFulfillmentPreference(cartID string, pref types.FulfillmentPreference) (*types.CartSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, err := s.liveCart(cartID)
	if err != nil {
		return nil, err
	}
	if len(pref.OptionIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one fulfillment option is required")
	}
	fee := decimal.Zero
	for _, id := range pref.OptionIDs {
		switch id {
		case "std-delivery":
			fee = fee.Add(decimal.NewFromInt(5))
		case "express-delivery":
			fee = fee.Add(decimal.NewFromInt(12))
		case "store-pickup":
		default:
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown fulfillment option %q", id))
		}
	}
	cart.fee = fee
	return s.snapshot(cart), nil
}

func (s *Store) CreateOrder(cartID string, method types.PaymentMethod) (*types.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, err := s.liveCart(cartID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(method.Kind) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method kind is required")
	}

	snap := s.snapshot(cart)
	order := &orderState{
		id:     uuid.NewString(),
		cartID: cart.id,
		status: enums.PaymentStatusPending,
		total:  snap.AmountPayable,
	}
	s.orders[order.id] = order
	delete(s.carts, cart.id)

	return &types.Order{
		ID:     order.id,
		CartID: order.cartID,
		Status: order.status,
		Total:  order.total,
		Payment: &types.PaymentInfo{
			PaymentID: uuid.NewString(),
			Status:    order.status,
			Amount:    order.total,
		},
	}, nil
}

func (s *Store) PaymentStatus(orderID string) (enums.PaymentStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID]
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order.status, nil
}

func (s *Store) RetryPayment(orderID string, method types.PaymentMethod) (*types.PaymentInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if strings.TrimSpace(method.Kind) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method kind is required")
	}
	order.status = enums.PaymentStatusPending
	return &types.PaymentInfo{
		PaymentID: uuid.NewString(),
		Status:    order.status,
		Amount:    order.total,
	}, nil
}

// SetPaymentStatus flips an order's status, for tests and demos.
func (s *Store) SetPaymentStatus(orderID string, status enums.PaymentStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if order, ok := s.orders[orderID]; ok {
		order.status = status
	}
}

// ExpireCart force-expires a cart, for tests and demos.
func (s *Store) ExpireCart(cartID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cart, ok := s.carts[cartID]; ok {
		cart.expiresAt = s.opts.Now().Add(-time.Minute)
	}
}

func (s *Store) liveCart(cartID string) (*cartState, error) {
	cart, ok := s.carts[cartID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}
	if s.expired(cart) {
		delete(s.carts, cartID)
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart expired")
	}
	return cart, nil
}

func (s *Store) expired(cart *cartState) bool {
	return cart.expiresAt.Before(s.opts.Now())
}

func (s *Store) price(productID string) decimal.Decimal {
	if price, ok := s.opts.Prices[productID]; ok {
		return price
	}
	return s.opts.DefaultPrice
}

func (s *Store) snapshot(cart *cartState) *types.CartSnapshot {
	items := make([]types.CartItem, 0, len(cart.lines))
	subtotal := decimal.Zero
	for _, l := range cart.lines {
		unit := s.price(l.productID)
		lineTotal := unit.Mul(decimal.NewFromInt(int64(l.quantity)))
		subtotal = subtotal.Add(lineTotal)
		items = append(items, types.CartItem{
			ProductID: l.productID,
			VariantID: l.variantID,
			Quantity:  l.quantity,
			UnitPrice: unit,
			LineTotal: lineTotal,
		})
	}

	grand := subtotal.Add(cart.fee)
	payable := grand

	var coupon *types.AppliedCoupon
	if cart.couponCode != "" {
		discount := s.opts.Coupons[cart.couponCode]
		if discount.GreaterThan(payable) {
			discount = payable
		}
		payable = payable.Sub(discount)
		coupon = &types.AppliedCoupon{Code: cart.couponCode, Discount: discount}
	}

	return &types.CartSnapshot{
		ID:            cart.id,
		Items:         items,
		Subtotal:      subtotal,
		GrandTotal:    grand,
		AmountPayable: payable,
		Coupon:        coupon,
		ExpiresAt:     cart.expiresAt,
	}
}
