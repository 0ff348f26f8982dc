package checkout

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/cartflow/internal/remote"
	"github.com/angelmondragon/cartflow/internal/session"
	"github.com/angelmondragon/cartflow/internal/stub"
	"github.com/angelmondragon/cartflow/pkg/config"
	"github.com/angelmondragon/cartflow/pkg/enums"
	pkgerrors "github.com/angelmondragon/cartflow/pkg/errors"
	"github.com/angelmondragon/cartflow/pkg/logger"
	"github.com/angelmondragon/cartflow/pkg/types"
	"github.com/shopspring/decimal"
)

// staticCart pins the checkout service to one cart id.
type staticCart struct {
	handle types.CartHandle
}

func (c *staticCart) Handle() types.CartHandle { return c.handle }

type checkoutFixture struct {
	service Service
	session *session.Manager
	cart    *staticCart
	store   *stub.Store
	client  *remote.Client
}

func newFixture(t *testing.T) *checkoutFixture {
	t.Helper()

	store := stub.NewStore(stub.Options{
		Coupons: map[string]decimal.Decimal{"SAVE5": decimal.NewFromInt(5)},
	})
	server := httptest.NewServer(stub.NewRouter(store))
	t.Cleanup(server.Close)

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	client, err := remote.NewClient(config.RemoteConfig{BaseURL: server.URL}, logg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	manager, err := session.NewManager(session.NewMemoryStore(), "test", "sess-1", logg)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	cart := &staticCart{}
	svc, err := NewService(ServiceParams{
		Remote:  client,
		Session: manager,
		Cart:    cart,
		Logger:  logg,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return &checkoutFixture{service: svc, session: manager, cart: cart, store: store, client: client}
}

func (f *checkoutFixture) createCart(t *testing.T) {
	t.Helper()
	snap, err := f.client.CreateCart(context.Background(), []types.ItemInput{{ProductID: "sku-espresso", Quantity: 1}})
	if err != nil {
		t.Fatalf("CreateCart: %v", err)
	}
	f.cart.handle = snap.Handle()
}

func TestCheckoutRequiresActiveCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.service.FulfillmentOptions(ctx); !pkgerrors.Is(err, pkgerrors.CodeNoCartAvailable) {
		t.Fatalf("FulfillmentOptions with no cart = %v, want no-cart-available", err)
	}
	if _, err := f.service.CreateOrder(ctx, types.PaymentMethod{Kind: "card"}); !pkgerrors.Is(err, pkgerrors.CodeNoCartAvailable) {
		t.Fatalf("CreateOrder with no cart = %v, want no-cart-available", err)
	}
}

func TestUpdateAddressValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createCart(t)

	if _, err := f.service.UpdateAddress(ctx, types.AddressInput{}); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("empty address input = %v, want validation", err)
	}

	// Missing city on the inline payload.
	_, err := f.service.UpdateAddress(ctx, types.AddressInput{
		Shipping: &types.Address{Line1: "100 Main St", State: "OR", PostalCode: "97201"},
	})
	if !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("incomplete shipping address = %v, want validation", err)
	}

	if _, err := f.service.UpdateAddress(ctx, types.AddressInput{
		Shipping: &types.Address{Line1: "100 Main St", City: "Portland", State: "OR", PostalCode: "97201"},
	}); err != nil {
		t.Fatalf("UpdateAddress: %v", err)
	}

	if _, err := f.service.UpdateAddress(ctx, types.AddressInput{ShippingAddressID: "addr-1"}); err != nil {
		t.Fatalf("UpdateAddress by id: %v", err)
	}
}

func TestCheckDeliverabilityValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createCart(t)

	if _, err := f.service.CheckDeliverability(ctx, "  "); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("blank postal code = %v, want validation", err)
	}
	result, err := f.service.CheckDeliverability(ctx, "97201")
	if err != nil || !result.Serviceable {
		t.Fatalf("CheckDeliverability = %+v, %v", result, err)
	}
}

func TestSetFulfillmentPreferenceValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createCart(t)

	if _, err := f.service.SetFulfillmentPreference(ctx, types.FulfillmentPreference{}); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("empty preference = %v, want validation", err)
	}

	options, err := f.service.FulfillmentOptions(ctx)
	if err != nil {
		t.Fatalf("FulfillmentOptions: %v", err)
	}
	snap, err := f.service.SetFulfillmentPreference(ctx, types.FulfillmentPreference{OptionIDs: []string{options.Delivery[0].ID}})
	if err != nil {
		t.Fatalf("SetFulfillmentPreference: %v", err)
	}
	if snap.GrandTotal.LessThanOrEqual(snap.Subtotal) {
		t.Fatalf("GrandTotal %s does not include the delivery fee over subtotal %s", snap.GrandTotal, snap.Subtotal)
	}
}

func TestCreateOrderPersistsLastOrderID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createCart(t)

	if _, err := f.service.CreateOrder(ctx, types.PaymentMethod{}); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("empty payment method = %v, want validation", err)
	}

	order, err := f.service.CreateOrder(ctx, types.PaymentMethod{Kind: "card", Token: "tok_test"})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if order.ID == "" {
		t.Fatal("order has no id")
	}

	lastID, err := f.service.LastOrderID(ctx)
	if err != nil || lastID != order.ID {
		t.Fatalf("LastOrderID = %q, %v; want %q", lastID, err, order.ID)
	}

	// The order id outlives the cart; the payment view stays reachable.
	status, err := f.service.PaymentStatus(ctx, lastID)
	if err != nil || status != enums.PaymentStatusPending {
		t.Fatalf("PaymentStatus = %s, %v; want pending", status, err)
	}

	f.store.SetPaymentStatus(order.ID, enums.PaymentStatusFailed)
	info, err := f.service.RetryPayment(ctx, order.ID, types.PaymentMethod{Kind: "card", Token: "tok_retry"})
	if err != nil {
		t.Fatalf("RetryPayment: %v", err)
	}
	if info.Status != enums.PaymentStatusPending {
		t.Fatalf("retry status = %s, want pending", info.Status)
	}
}

func TestPaymentStatusRequiresOrderID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.service.PaymentStatus(ctx, ""); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("blank order id = %v, want validation", err)
	}
	if _, err := f.service.RetryPayment(ctx, "", types.PaymentMethod{Kind: "card"}); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("blank order id = %v, want validation", err)
	}
}
