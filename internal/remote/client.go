package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/angelmondragon/cartflow/pkg/config"
	"github.com/angelmondragon/cartflow/pkg/enums"
	pkgerrors "github.com/angelmondragon/cartflow/pkg/errors"
	"github.com/angelmondragon/cartflow/pkg/logger"
	"github.com/angelmondragon/cartflow/pkg/types"
)

const defaultRequestTimeout = 10 * time.Second

// Client is the HTTP implementation of Service.
type Client struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	http    *http.Client
	logg    *logger.Logger
}

// NewClient builds a remote cart service client from configuration.
func NewClient(cfg config.RemoteConfig, logg *logger.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("remote base url is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parsing remote base url: %w", err)
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{
		baseURL: base,
		apiKey:  strings.TrimSpace(cfg.APIKey),
		timeout: timeout,
		http:    &http.Client{},
		logg:    logg,
	}, nil
}

// WithHTTPClient swaps the underlying transport, mainly for tests.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	if h != nil {
		c.http = h
	}
	return c
}

type createCartRequest struct {
	Items []types.ItemInput `json:"items"`
}

type couponRequest struct {
	Code string `json:"code,omitempty"`
}

type orderRequest struct {
	PaymentMethod types.PaymentMethod `json:"payment_method"`
}

type paymentStatusResponse struct {
	Status enums.PaymentStatus `json:"status"`
}

func (c *Client) CreateCart(ctx context.Context, items []types.ItemInput) (*types.CartSnapshot, error) {
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot create a cart with no items")
	}
	var snap types.CartSnapshot
	if err := c.do(ctx, http.MethodPost, "/carts", createCartRequest{Items: items}, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *Client) GetCart(ctx context.Context, cartID string) (*types.CartSnapshot, error) {
	if err := requireID("cart id", cartID); err != nil {
		return nil, err
	}
	var snap types.CartSnapshot
	if err := c.do(ctx, http.MethodGet, "/carts/"+url.PathEscape(cartID), nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *Client) GetCartByUser(ctx context.Context, userID string) (*types.CartSnapshot, error) {
	if err := requireID("user id", userID); err != nil {
		return nil, err
	}
	var snap types.CartSnapshot
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID)+"/cart", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *Client) SetItem(ctx context.Context, cartID string, item types.ItemInput) (*types.CartSnapshot, error) {
	if err := requireID("cart id", cartID); err != nil {
		return nil, err
	}
	var snap types.CartSnapshot
	if err := c.do(ctx, http.MethodPut, "/carts/"+url.PathEscape(cartID)+"/items", item, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *Client) ApplyCoupon(ctx context.Context, cartID, code string) (*types.CartSnapshot, error) {
	if err := requireID("cart id", cartID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(code) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	var snap types.CartSnapshot
	if err := c.do(ctx, http.MethodPost, "/carts/"+url.PathEscape(cartID)+"/coupon", couponRequest{Code: code}, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *Client) RemoveCoupon(ctx context.Context, cartID, code string) (*types.CartSnapshot, error) {
	if err := requireID("cart id", cartID); err != nil {
		return nil, err
	}
	path := "/carts/" + url.PathEscape(cartID) + "/coupon"
	if trimmed := strings.TrimSpace(code); trimmed != "" {
		path += "?code=" + url.QueryEscape(trimmed)
	}
	var snap types.CartSnapshot
	if err := c.do(ctx, http.MethodDelete, path, nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *Client) UpdateAddress(ctx context.Context, cartID string, input types.AddressInput) (*types.CartSnapshot, error) {
	if err := requireID("cart id", cartID); err != nil {
		return nil, err
	}
	var snap types.CartSnapshot
	if err := c.do(ctx, http.MethodPut, "/carts/"+url.PathEscape(cartID)+"/address", input, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *Client) CheckDeliverability(ctx context.Context, cartID, postalCode string) (*types.DeliverabilityResult, error) {
	if err := requireID("cart id", cartID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(postalCode) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "postal code is required")
	}
	path := "/carts/" + url.PathEscape(cartID) + "/deliverability?postal_code=" + url.QueryEscape(postalCode)
	var result types.DeliverabilityResult
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) FulfillmentOptions(ctx context.Context, cartID string) (*types.FulfillmentOptionSet, error) {
	if err := requireID("cart id", cartID); err != nil {
		return nil, err
	}
	var options types.FulfillmentOptionSet
	if err := c.do(ctx, http.MethodGet, "/carts/"+url.PathEscape(cartID)+"/fulfillment-options", nil, &options); err != nil {
		return nil, err
	}
	return &options, nil
}

func (c *Client) SetFulfillmentPreference(ctx context.Context, cartID string, pref types.FulfillmentPreference) (*types.CartSnapshot, error) {
	if err := requireID("cart id", cartID); err != nil {
		return nil, err
	}
	var snap types.CartSnapshot
	if err := c.do(ctx, http.MethodPut, "/carts/"+url.PathEscape(cartID)+"/fulfillment", pref, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *Client) CreateOrder(ctx context.Context, cartID string, method types.PaymentMethod) (*types.Order, error) {
	if err := requireID("cart id", cartID); err != nil {
		return nil, err
	}
	var order types.Order
	if err := c.do(ctx, http.MethodPost, "/carts/"+url.PathEscape(cartID)+"/order", orderRequest{PaymentMethod: method}, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) PaymentStatus(ctx context.Context, orderID string) (enums.PaymentStatus, error) {
	if err := requireID("order id", orderID); err != nil {
		return "", err
	}
	var resp paymentStatusResponse
	if err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID)+"/payment-status", nil, &resp); err != nil {
		return "", err
	}
	if !resp.Status.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("unknown payment status %q", resp.Status))
	}
	return resp.Status, nil
}

func (c *Client) RetryPayment(ctx context.Context, orderID string, method types.PaymentMethod) (*types.PaymentInfo, error) {
	if err := requireID("order id", orderID); err != nil {
		return nil, err
	}
	var info types.PaymentInfo
	if err := c.do(ctx, http.MethodPost, "/orders/"+url.PathEscape(orderID)+"/payment/retry", orderRequest{PaymentMethod: method}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("%s %s", method, path))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading response")
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp.StatusCode, raw)
	}

	if out == nil {
		return nil
	}
	var envelope types.SuccessEnvelope
	envelope.Data = out
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding response")
	}
	return nil
}

func decodeError(status int, raw []byte) error {
	var envelope types.ErrorEnvelope
	message := http.StatusText(status)
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Message != "" {
		message = envelope.Error.Message
	}

	switch {
	case status == http.StatusNotFound:
		return pkgerrors.New(pkgerrors.CodeNotFound, message)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return pkgerrors.New(pkgerrors.CodeValidation, message).WithDetails(envelope.Error.Details)
	case status == http.StatusConflict:
		return pkgerrors.New(pkgerrors.CodeConflict, message)
	case status >= http.StatusInternalServerError:
		return pkgerrors.New(pkgerrors.CodeDependency, message)
	default:
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("unexpected status %d: %s", status, message))
	}
}

func requireID(label, value string) error {
	if strings.TrimSpace(value) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, label+" is required")
	}
	return nil
}
