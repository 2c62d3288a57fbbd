// Package handler exposes the catalog and the order lifecycle over HTTP with
// JSON bodies.
package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/kart-orders/internal/checkout"
	"github.com/xenking/kart-orders/internal/domain/errs"
	"github.com/xenking/kart-orders/internal/domain/order"
	"github.com/xenking/kart-orders/internal/domain/payment"
	"github.com/xenking/kart-orders/internal/domain/product"
)

// Orders is the order workflow the handler drives. *checkout.Service
// implements it.
type Orders interface {
	Checkout(ctx context.Context, req checkout.Request) (*checkout.Result, error)
	Get(ctx context.Context, id string) (*order.Order, error)
	Fulfill(ctx context.Context, id string) (*order.Order, error)
	Complete(ctx context.Context, id string) (*order.Order, error)
	Invoice(ctx context.Context, id string) (order.Invoice, error)
}

var _ Orders = (*checkout.Service)(nil)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Handler serves the JSON API.
type Handler struct {
	products product.Repository
	orders   Orders
}

// NewHandler constructs a Handler.
func NewHandler(products product.Repository, orders Orders) *Handler {
	return &Handler{products: products, orders: orders}
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("POST /api/checkout", h.Checkout)
	mux.HandleFunc("GET /api/orders/{id}", h.GetOrder)
	mux.HandleFunc("POST /api/orders/{id}/fulfill", h.FulfillOrder)
	mux.HandleFunc("POST /api/orders/{id}/complete", h.CompleteOrder)
	mux.HandleFunc("GET /api/orders/{id}/invoice", h.GetInvoice)
}

// ListProducts returns the whole catalog.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		h.fail(w, r, errors.Wrap(err, "list products"))
		return
	}
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	e.Arr(func(e *jx.Encoder) {
		for _, p := range products {
			writeProduct(e, p)
		}
	})
	writeJSON(w, http.StatusOK, e.Bytes())
}

// Checkout places and pays the orders for a cart.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCheckout(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.orders.Checkout(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	e.Obj(func(e *jx.Encoder) {
		e.Field("orders", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, o := range res.Orders {
					writeOrder(e, o)
				}
			})
		})
	})
	writeJSON(w, http.StatusCreated, e.Bytes())
}

// GetOrder returns one order.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	h.orderStep(w, r, h.orders.Get)
}

// FulfillOrder ships, sends or activates an order.
func (h *Handler) FulfillOrder(w http.ResponseWriter, r *http.Request) {
	h.orderStep(w, r, h.orders.Fulfill)
}

// CompleteOrder confirms an order was received.
func (h *Handler) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	h.orderStep(w, r, h.orders.Complete)
}

// GetInvoice returns the invoice of a paid order.
func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.orders.Invoice(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	writeInvoice(e, inv)
	writeJSON(w, http.StatusOK, e.Bytes())
}

func (h *Handler) orderStep(
	w http.ResponseWriter,
	r *http.Request,
	step func(ctx context.Context, id string) (*order.Order, error),
) {
	o, err := step(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	writeOrder(e, o)
	writeJSON(w, http.StatusOK, e.Bytes())
}

// fail maps err to a status code and writes it. Unexpected errors are
// logged and hidden from the client.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		notFound *checkout.ProductNotFoundError
		payErr   *checkout.PaymentError
	)
	switch {
	case errors.Is(err, checkout.ErrEmptyItems):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrNotFound):
		writeError(w, http.StatusNotFound, "order not found")
	case errors.As(err, &notFound):
		writeError(w, http.StatusUnprocessableEntity, notFound.Error())
	case errs.IsInvariant(err):
		writeError(w, http.StatusUnprocessableEntity, domainMessage(err))
	case errs.IsState(err):
		writeError(w, http.StatusConflict, domainMessage(err))
	case errors.As(err, &payErr):
		writePaymentError(w, payErr)
	default:
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// domainMessage returns the contract message of the domain error in err's
// chain, without any wrapping context.
func domainMessage(err error) string {
	var inv *errs.InvariantError
	if errors.As(err, &inv) {
		return inv.Message
	}
	var st *errs.StateError
	if errors.As(err, &st) {
		return st.Message
	}
	return err.Error()
}

func writePaymentError(w http.ResponseWriter, pe *checkout.PaymentError) {
	var code int
	var msg string
	switch {
	case errors.Is(pe, payment.ErrDeclined):
		code, msg = http.StatusPaymentRequired, "payment declined"
	case errors.Is(pe, payment.ErrInvalidAmount):
		code, msg = http.StatusUnprocessableEntity, "invalid charge amount"
	default:
		code, msg = http.StatusServiceUnavailable, "payment gateway unavailable"
	}
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	e.Obj(func(e *jx.Encoder) {
		e.Field("code", func(e *jx.Encoder) { e.Int(code) })
		e.Field("message", func(e *jx.Encoder) { e.Str(msg) })
		e.Field("orderId", func(e *jx.Encoder) { e.Str(pe.OrderID) })
	})
	writeJSON(w, code, e.Bytes())
}

func writeError(w http.ResponseWriter, code int, msg string) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	e.Obj(func(e *jx.Encoder) {
		e.Field("code", func(e *jx.Encoder) { e.Int(code) })
		e.Field("message", func(e *jx.Encoder) { e.Str(msg) })
	})
	writeJSON(w, code, e.Bytes())
}

func writeJSON(w http.ResponseWriter, code int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}
