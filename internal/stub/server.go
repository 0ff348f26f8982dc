package stub

import (
	"encoding/json"
	"net/http"

	pkgerrors "github.com/angelmondragon/cartflow/pkg/errors"
	"github.com/angelmondragon/cartflow/pkg/types"
	"github.com/go-chi/chi/v5"
)

// NewRouter serves the remote cart service API over the in-memory
// store. It exists for local development and tests; the real backend
// lives elsewhere.
func NewRouter(store *Store) http.Handler {
	r := chi.NewRouter()

	r.Route("/carts", func(r chi.Router) {
		r.Post("/", createCart(store))
		r.Route("/{cartID}", func(r chi.Router) {
			r.Get("/", getCart(store))
			r.Put("/items", setItem(store))
			r.Post("/coupon", applyCoupon(store))
			r.Delete("/coupon", removeCoupon(store))
			r.Put("/address", updateAddress(store))
			r.Get("/deliverability", checkDeliverability(store))
			r.Get("/fulfillment-options", fulfillmentOptions(store))
			r.Put("/fulfillment", setFulfillment(store))
			r.Post("/order", createOrder(store))
		})
	})

	r.Get("/users/{userID}/cart", getCartByUser(store))
	r.Get("/orders/{orderID}/payment-status", paymentStatus(store))
	r.Post("/orders/{orderID}/payment/retry", retryPayment(store))

	return r
}

type createCartRequest struct {
	Items []types.ItemInput `json:"items"`
}

type couponRequest struct {
	Code string `json:"code"`
}

type orderRequest struct {
	PaymentMethod types.PaymentMethod `json:"payment_method"`
}

func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body")
	}
	return nil
}

func createCart(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createCartRequest
		if err := decode(r, &req); err != nil {
			writeError(w, err)
			return
		}
		snap, err := store.CreateCart(r.Header.Get("X-User-ID"), req.Items)
		if err != nil {
			writeError(w, err)
			return
		}
		writeSuccess(w, snap)
	}
}

func getCart(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := store.GetCart(chi.URLParam(r, "cartID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeSuccess(w, snap)
	}
}

func getCartByUser(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := store.GetCartByUser(chi.URLParam(r, "userID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeSuccess(w, snap)
	}
}

func setItem(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var item types.ItemInput
		if err := decode(r, &item); err != nil {
			writeError(w, err)
			return
		}
		snap, err := store.SetItem(chi.URLParam(r, "cartID"), item)
		if err != nil {
			writeError(w, err)
			return
		}
		writeSuccess(w, snap)
	}
}

func applyCoupon(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req couponRequest
		if err := decode(r, &req); err != nil {
			writeError(w, err)
			return
		}
		snap, err := store.ApplyCoupon(chi.URLParam(r, "cartID"), req.Code)
		if err != nil {
			writeError(w, err)
			return
		}
		writeSuccess(w, snap)
	}
}

func removeCoupon(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := store.RemoveCoupon(chi.URLParam(r, "cartID"), r.URL.Query().Get("code"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeSuccess(w, snap)
	}
}

func updateAddress(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input types.AddressInput
		if err := decode(r, &input); err != nil {
			writeError(w, err)
			return
		}
		snap, err := store.UpdateAddress(chi.URLParam(r, "cartID"), input)
		if err != nil {
			writeError(w, err)
			return
		}
		writeSuccess(w, snap)
	}
}

func checkDeliverability(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := store.CheckDeliverability(chi.URLParam(r, "cartID"), r.URL.Query().Get("postal_code"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeSuccess(w, result)
	}
}

func fulfillmentOptions(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		options, err := store.FulfillmentOptions(chi.URLParam(r, "cartID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeSuccess(w, options)
	}
}

func setFulfillment(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var pref types.FulfillmentPreference
		if err := decode(r, &pref); err != nil {
			writeError(w, err)
			return
		}
		snap, err := store.SetFulfillmentPreference(chi.URLParam(r, "cartID"), pref)
		if err != nil {
			writeError(w, err)
			return
		}
		writeSuccess(w, snap)
	}
}

func createOrder(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req orderRequest
		if err := decode(r, &req); err != nil {
			writeError(w, err)
			return
		}
		order, err := store.CreateOrder(chi.URLParam(r, "cartID"), req.PaymentMethod)
		if err != nil {
			writeError(w, err)
			return
		}
		writeSuccess(w, order)
	}
}

func paymentStatus(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := store.PaymentStatus(chi.URLParam(r, "orderID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeSuccess(w, map[string]string{"status": status.String()})
	}
}

func retryPayment(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req orderRequest
		if err := decode(r, &req); err != nil {
			writeError(w, err)
			return
		}
		info, err := store.RetryPayment(chi.URLParam(r, "orderID"), req.PaymentMethod)
		if err != nil {
			writeError(w, err)
			return
		}
		writeSuccess(w, info)
	}
}
