package checkout

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/cartflow/internal/remote"
	"github.com/angelmondragon/cartflow/internal/session"
	"github.com/angelmondragon/cartflow/pkg/enums"
	pkgerrors "github.com/angelmondragon/cartflow/pkg/errors"
	"github.com/angelmondragon/cartflow/pkg/logger"
	"github.com/angelmondragon/cartflow/pkg/types"
	"github.com/go-playground/validator/v10"
)

// cartIdentity is the read-only view of the active cart the checkout
// path needs; the sequencer satisfies it.
type cartIdentity interface {
	Handle() types.CartHandle
}

// Service drives the checkout path: address, deliverability,
// fulfillment and order/payment operations. These are direct remote
// calls, not queued mutations, and never write the sequencer's cache.
type Service interface {
	UpdateAddress(ctx context.Context, input types.AddressInput) (*types.CartSnapshot, error)
	CheckDeliverability(ctx context.Context, postalCode string) (*types.DeliverabilityResult, error)
	FulfillmentOptions(ctx context.Context) (*types.FulfillmentOptionSet, error)
	SetFulfillmentPreference(ctx context.Context, pref types.FulfillmentPreference) (*types.CartSnapshot, error)
	CreateOrder(ctx context.Context, method types.PaymentMethod) (*types.Order, error)
	PaymentStatus(ctx context.Context, orderID string) (enums.PaymentStatus, error)
	RetryPayment(ctx context.Context, orderID string, method types.PaymentMethod) (*types.PaymentInfo, error)
	LastOrderID(ctx context.Context) (string, error)
}

// ServiceParams wires the checkout service's collaborators.
type ServiceParams struct {
	Remote  remote.Service
	Session *session.Manager
	Cart    cartIdentity
	Logger  *logger.Logger
}

type service struct {
	remote   remote.Service
	session  *session.Manager
	cart     cartIdentity
	logg     *logger.Logger
	validate *validator.Validate
}

// NewService builds a checkout service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Remote == nil {
		return nil, errors.New("remote service is required")
	}
	if params.Session == nil {
		return nil, errors.New("session manager is required")
	}
	if params.Cart == nil {
		return nil, errors.New("cart identity source is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	return &service{
		remote:   params.Remote,
		session:  params.Session,
		cart:     params.Cart,
		logg:     params.Logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}, nil
}

func (s *service) activeCartID() (string, error) {
	handle := s.cart.Handle()
	if handle.IsZero() {
		return "", pkgerrors.New(pkgerrors.CodeNoCartAvailable, "checkout requires an active cart")
	}
	return handle.CartID, nil
}

func (s *service) UpdateAddress(ctx context.Context, input types.AddressInput) (*types.CartSnapshot, error) {
	cartID, err := s.activeCartID()
	if err != nil {
		return nil, err
	}
	if input.ShippingAddressID == "" && input.Shipping == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address id or inline payload is required")
	}
	if input.Shipping != nil {
		if err := s.validate.Struct(input.Shipping); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping address")
		}
	}
	if input.Billing != nil {
		if err := s.validate.Struct(input.Billing); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid billing address")
		}
	}
	return s.remote.UpdateAddress(ctx, cartID, input)
}

func (s *service) CheckDeliverability(ctx context.Context, postalCode string) (*types.DeliverabilityResult, error) {
	cartID, err := s.activeCartID()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(postalCode) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "postal code is required")
	}
	return s.remote.CheckDeliverability(ctx, cartID, postalCode)
}

func (s *service) FulfillmentOptions(ctx context.Context) (*types.FulfillmentOptionSet, error) {
	cartID, err := s.activeCartID()
	if err != nil {
		return nil, err
	}
	return s.remote.FulfillmentOptions(ctx, cartID)
}

func (s *service) SetFulfillmentPreference(ctx context.Context, pref types.FulfillmentPreference) (*types.CartSnapshot, error) {
	cartID, err := s.activeCartID()
	if err != nil {
		return nil, err
	}
	if err := s.validate.Struct(pref); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid fulfillment preference")
	}
	return s.remote.SetFulfillmentPreference(ctx, cartID, pref)
}

// CreateOrder converts the active cart into an order and records the
// order id so the caller can return to a confirmation view later.
func (s *service) CreateOrder(ctx context.Context, method types.PaymentMethod) (*types.Order, error) {
	cartID, err := s.activeCartID()
	if err != nil {
		return nil, err
	}
	if err := s.validate.Struct(method); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
	}

	order, err := s.remote.CreateOrder(ctx, cartID, method)
	if err != nil {
		return nil, err
	}

	if err := s.session.PersistLastOrderID(ctx, order.ID); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "failed to persist last order id")
	}
	return order, nil
}

func (s *service) PaymentStatus(ctx context.Context, orderID string) (enums.PaymentStatus, error) {
	if strings.TrimSpace(orderID) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	return s.remote.PaymentStatus(ctx, orderID)
}

func (s *service) RetryPayment(ctx context.Context, orderID string, method types.PaymentMethod) (*types.PaymentInfo, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if err := s.validate.Struct(method); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
	}
	return s.remote.RetryPayment(ctx, orderID, method)
}

func (s *service) LastOrderID(ctx context.Context) (string, error) {
	return s.session.LastOrderID(ctx)
}
