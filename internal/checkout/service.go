// Package checkout turns a checkout request into placed and paid orders and
// drives them through the rest of their lifecycle.
package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/kart-orders/internal/domain/account"
	"github.com/xenking/kart-orders/internal/domain/cart"
	"github.com/xenking/kart-orders/internal/domain/order"
	"github.com/xenking/kart-orders/internal/domain/payment"
	"github.com/xenking/kart-orders/internal/domain/product"
)

const instrumentationName = "github.com/xenking/kart-orders/internal/checkout"

// ErrEmptyItems is returned for a checkout request without items.
var ErrEmptyItems = errors.New("items required")

// ProductNotFoundError indicates a requested product does not exist.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// PaymentError reports an order whose charge failed. The order stays
// pending and can be looked up by ID.
type PaymentError struct {
	OrderID string
	Err     error
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("pay order %s: %v", e.OrderID, e.Err)
}

func (e *PaymentError) Unwrap() error { return e.Err }

// LineItem is a product and quantity as requested by the customer.
type LineItem struct {
	ProductID string
	Quantity  int
}

// Address holds raw address fields. They are trimmed and validated when the
// request is processed.
type Address struct {
	Country       string
	StreetAddress string
	ZipCode       string
	City          string
	State         string
}

func (a Address) build() (account.Address, error) {
	return account.NewAddressBuilder().
		WithCountry(a.Country).
		WithStreetAddress(a.StreetAddress).
		WithZipCode(a.ZipCode).
		WithCity(a.City).
		WithState(a.State).
		Build()
}

// Card holds raw credit card fields.
type Card struct {
	NameOnCard   string
	Number       string
	SecurityCode int
	ExpiresYear  int
	ExpiresMonth time.Month
	Billing      Address
}

// Request is a checkout request: who is buying, what, and how it is paid and
// delivered. Shipping is required only when physical items are bought.
type Request struct {
	Name     string
	Email    string
	Items    []LineItem
	Card     Card
	Shipping *Address
}

// Result lists the orders created by a checkout, in cart order: physical,
// digital, then one per subscription.
type Result struct {
	Orders []*order.Order
}

// Service coordinates the catalog, order storage, payment gateway and
// notifier around the order domain model.
type Service struct {
	products product.Repository
	orders   order.Repository
	gateway  payment.Gateway
	rates    order.FeeCalculator
	notifier order.Notifier

	tracer         trace.Tracer
	ordersPlaced   metric.Int64Counter
	paymentsFailed metric.Int64Counter
}

// Option configures a Service.
type Option func(*options)

type options struct {
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
}

// WithMeterProvider sets the meter provider. Defaults to the global one.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meterProvider = mp }
}

// WithTracerProvider sets the tracer provider. Defaults to the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = tp }
}

// NewService creates a checkout Service. A nil rates uses
// order.DefaultRates.
func NewService(
	products product.Repository,
	orders order.Repository,
	gateway payment.Gateway,
	rates order.FeeCalculator,
	notifier order.Notifier,
	opts ...Option,
) (*Service, error) {
	o := options{
		meterProvider:  otel.GetMeterProvider(),
		tracerProvider: otel.GetTracerProvider(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if rates == nil {
		rates = order.DefaultRates
	}

	meter := o.meterProvider.Meter(instrumentationName)
	placed, err := meter.Int64Counter("kart.orders.placed",
		metric.WithDescription("Orders placed, by kind"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "orders placed counter")
	}
	failed, err := meter.Int64Counter("kart.payments.failed",
		metric.WithDescription("Order payments rejected by the gateway"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "payments failed counter")
	}

	return &Service{
		products:       products,
		orders:         orders,
		gateway:        gateway,
		rates:          rates,
		notifier:       notifier,
		tracer:         o.tracerProvider.Tracer(instrumentationName),
		ordersPlaced:   placed,
		paymentsFailed: failed,
	}, nil
}

// Checkout builds a cart from the request, splits it into orders, places
// every order and then pays them one by one.
//
// Nothing is stored unless every order can be placed. Orders are stored as
// they are placed and updated once paid; if a payment fails, the orders paid
// before it stay paid and a *PaymentError is returned.
func (s *Service) Checkout(ctx context.Context, req Request) (_ *Result, rerr error) {
	ctx, span := s.tracer.Start(ctx, "checkout.Checkout")
	defer func() { endSpan(span, rerr) }()

	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	acc, err := account.New(req.Name, req.Email)
	if err != nil {
		return nil, err
	}
	c, err := s.fillCart(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	card, err := s.card(req.Card)
	if err != nil {
		return nil, err
	}
	var shipping account.Address
	if req.Shipping != nil {
		if shipping, err = req.Shipping.build(); err != nil {
			return nil, err
		}
	}

	orders, err := c.Checkout(acc)
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		if err := s.place(o, card, shipping); err != nil {
			return nil, err
		}
	}

	lg := zctx.From(ctx)
	for _, o := range orders {
		if err := s.orders.Create(ctx, o); err != nil {
			return nil, errors.Wrapf(err, "create order %s", o.ID())
		}
		s.ordersPlaced.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", o.Kind().String())))
		s.notify(ctx, order.NewEvent(order.EventPlaced, o))
	}
	for _, o := range orders {
		placed := o.Status()
		if err := o.Pay(ctx, s.gateway); err != nil {
			s.paymentsFailed.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", o.Kind().String())))
			lg.Warn("Payment failed", zap.String("order_id", o.ID()), zap.Error(err))
			return nil, &PaymentError{OrderID: o.ID(), Err: err}
		}
		if err := s.orders.Update(ctx, o, placed); err != nil {
			return nil, errors.Wrapf(err, "update order %s", o.ID())
		}
		s.notify(ctx, order.NewEvent(order.EventPaid, o))
	}

	span.SetAttributes(attribute.Int("orders", len(orders)))
	lg.Info("Checkout completed", zap.String("email", acc.Email()), zap.Int("orders", len(orders)))
	return &Result{Orders: orders}, nil
}

func (s *Service) fillCart(ctx context.Context, items []LineItem) (*cart.Cart, error) {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ProductID
	}

	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	byID := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	c := cart.New()
	for _, it := range items {
		p, ok := byID[it.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: it.ProductID}
		}
		if err := c.Add(p, it.Quantity); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (s *Service) card(in Card) (payment.CreditCard, error) {
	billing, err := in.Billing.build()
	if err != nil {
		return payment.CreditCard{}, err
	}
	return payment.NewCreditCard(in.NameOnCard, in.Number, in.SecurityCode, in.ExpiresYear, in.ExpiresMonth, billing)
}

func (s *Service) place(o *order.Order, pm payment.Method, shipping account.Address) error {
	if err := o.SetPaymentMethod(pm); err != nil {
		return err
	}
	if o.Kind() == order.KindPhysical && !shipping.IsZero() {
		if err := o.SetShippingAddress(shipping); err != nil {
			return err
		}
	}
	return o.Place(s.rates)
}

// Get returns the order with the given ID.
func (s *Service) Get(ctx context.Context, id string) (*order.Order, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %s", id)
	}
	return o, nil
}

// Fulfill marks the order as shipped, sent or activated.
func (s *Service) Fulfill(ctx context.Context, id string) (*order.Order, error) {
	return s.transition(ctx, "checkout.Fulfill", id, order.EventFulfilled, (*order.Order).Fulfill)
}

// Complete marks the order as received by the customer.
func (s *Service) Complete(ctx context.Context, id string) (*order.Order, error) {
	return s.transition(ctx, "checkout.Complete", id, order.EventCompleted, (*order.Order).Complete)
}

// Invoice issues the invoice of a paid order.
func (s *Service) Invoice(ctx context.Context, id string) (order.Invoice, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return order.Invoice{}, err
	}
	return o.Invoice()
}

func (s *Service) transition(
	ctx context.Context,
	name, id string,
	event order.EventType,
	step func(*order.Order) error,
) (_ *order.Order, rerr error) {
	ctx, span := s.tracer.Start(ctx, name, trace.WithAttributes(attribute.String("order.id", id)))
	defer func() { endSpan(span, rerr) }()

	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	before := o.Status()
	if err := step(o); err != nil {
		return nil, err
	}
	if o.Status() == before {
		return o, nil
	}
	if err := s.orders.Update(ctx, o, before); err != nil {
		return nil, errors.Wrapf(err, "update order %s", id)
	}
	s.notify(ctx, order.NewEvent(event, o))
	return o, nil
}

// notify dispatches ev. A failed notification does not undo the transition
// it reports, so the error is only logged.
func (s *Service) notify(ctx context.Context, ev order.Event) {
	if err := s.notifier.Notify(ctx, ev); err != nil {
		zctx.From(ctx).Warn("Notify order event",
			zap.String("event", string(ev.Type)),
			zap.String("order_id", ev.OrderID),
			zap.Error(err),
		)
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
