package types

import (
	"github.com/angelmondragon/cartflow/pkg/enums"
	"github.com/shopspring/decimal"
)

// AddressInput carries either stored address ids or an inline payload.
type AddressInput struct {
	ShippingAddressID string   `json:"shipping_address_id,omitempty"`
	BillingAddressID  string   `json:"billing_address_id,omitempty"`
	Shipping          *Address `json:"shipping,omitempty"`
	Billing           *Address `json:"billing,omitempty"`
}

// Address is an inline postal address payload.
type Address struct {
	Line1      string `json:"line1" validate:"required"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country,omitempty"`
}

// DeliverabilityResult reports serviceability for a destination.
type DeliverabilityResult struct {
	Serviceable        bool     `json:"serviceable"`
	PostalCode         string   `json:"postal_code"`
	UnserviceableItems []string `json:"unserviceable_items,omitempty"`
}

// FulfillmentOption is one delivery or collection choice for the cart.
type FulfillmentOption struct {
	ID    string                `json:"id"`
	Kind  enums.FulfillmentKind `json:"kind"`
	Label string                `json:"label"`
	Fee   decimal.Decimal       `json:"fee"`
}

// FulfillmentOptionSet groups the available options by kind.
type FulfillmentOptionSet struct {
	Delivery []FulfillmentOption `json:"delivery"`
	Collect  []FulfillmentOption `json:"collect"`
}

// FulfillmentPreference names the option(s) the buyer picked.
type FulfillmentPreference struct {
	OptionIDs []string `json:"option_ids" validate:"required,min=1"`
}

// PaymentMethod describes how an order should be paid.
type PaymentMethod struct {
	Kind  string `json:"kind" validate:"required"`
	Token string `json:"token,omitempty"`
}

// PaymentInfo is what the remote service hands back for a payment attempt.
type PaymentInfo struct {
	PaymentID   string              `json:"payment_id"`
	Status      enums.PaymentStatus `json:"status"`
	RedirectURL string              `json:"redirect_url,omitempty"`
	Amount      decimal.Decimal     `json:"amount"`
}

// Order is the result of converting a cart.
type Order struct {
	ID      string              `json:"id"`
	CartID  string              `json:"cart_id"`
	Status  enums.PaymentStatus `json:"status"`
	Payment *PaymentInfo        `json:"payment,omitempty"`
	Total   decimal.Decimal     `json:"total"`
}
