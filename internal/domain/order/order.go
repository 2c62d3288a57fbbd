// Package order implements the order lifecycle: construction from cart items,
// placement with fee computation, payment, fulfillment and completion, and
// the invoice issued once an order is paid.
//
// An Order is one of three kinds (physical, digital, subscription). The kinds
// share a single state machine; what differs between them (allowed product
// types, fee rules, status labels) is described by a per-kind table.
package order

import (
	"context"
	"slices"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-orders/internal/domain/account"
	"github.com/xenking/kart-orders/internal/domain/errs"
	"github.com/xenking/kart-orders/internal/domain/payment"
	"github.com/xenking/kart-orders/internal/domain/product"
)

var (
	// ErrNotFound is returned when a requested order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrConcurrentUpdate is returned by Repository.Update when the stored
	// order no longer has the status the caller loaded.
	ErrConcurrentUpdate = errs.State("Order was changed by another request")
)

// Order is a customer order moving through its lifecycle. Build one with
// New, NewPhysical, NewDigital or NewSubscription; the zero value is not
// usable.
//
// Items, payment method and shipping address can only be set while the order
// is a draft. Place freezes them.
type Order struct {
	id       string
	kind     Kind
	items    []product.Item
	account  account.Account
	payment  payment.Method
	shipping account.Address
	status   Status
	fees     Fees
	parcels  []Parcel
	receipt  *payment.Receipt

	createdAt time.Time
	updatedAt time.Time
}

// New builds a draft order of the given kind, checking that every item fits
// that kind.
func New(kind Kind, items []product.Item, acc account.Account) (*Order, error) {
	v, ok := variants[kind]
	if !ok {
		return nil, errs.Invariant("Order kind is not supported")
	}
	if err := v.check(items); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Order{
		id:        uuid.NewString(),
		kind:      kind,
		items:     slices.Clone(items),
		account:   acc,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// NewPhysical builds a draft order for goods shipped in parcels.
func NewPhysical(items []product.Item, acc account.Account) (*Order, error) {
	return New(KindPhysical, items, acc)
}

// NewDigital builds a draft order for downloadable goods.
func NewDigital(items []product.Item, acc account.Account) (*Order, error) {
	return New(KindDigital, items, acc)
}

// NewSubscription builds a draft order for exactly one membership.
func NewSubscription(items []product.Item, acc account.Account) (*Order, error) {
	return New(KindSubscription, items, acc)
}

// ID returns the order's UUID, assigned at creation.
func (o *Order) ID() string { return o.id }

// Kind returns the delivery kind, which selects the order's status names.
func (o *Order) Kind() Kind { return o.kind }

// Account returns the customer who checked out.
func (o *Order) Account() account.Account { return o.account }

// PaymentMethod returns the method set before placement, or nil.
func (o *Order) PaymentMethod() payment.Method { return o.payment }

// ShippingAddress returns the delivery address. It is the zero Address for
// orders that were never given one.
func (o *Order) ShippingAddress() account.Address { return o.shipping }

// Status returns the current lifecycle status. Its Tier gives the position
// in the lifecycle regardless of Kind.
func (o *Order) Status() Status { return o.status }

// CreatedAt returns when the order was built.
func (o *Order) CreatedAt() time.Time { return o.createdAt }

// UpdatedAt returns when the status last changed.
func (o *Order) UpdatedAt() time.Time { return o.updatedAt }

// Items returns a copy of the order's line items.
func (o *Order) Items() []product.Item { return slices.Clone(o.items) }

// Fees returns a copy of the fees and discounts computed at placement.
func (o *Order) Fees() Fees { return o.fees.clone() }

// Parcels returns the parcels of a placed physical order, nil otherwise.
func (o *Order) Parcels() []Parcel { return slices.Clone(o.parcels) }

// Receipt returns the payment receipt, if the order has been paid.
func (o *Order) Receipt() (payment.Receipt, bool) {
	if o.receipt == nil {
		return payment.Receipt{}, false
	}
	return *o.receipt, true
}

// Subtotal is the sum of item subtotals, rounded to cents.
func (o *Order) Subtotal() decimal.Decimal {
	return product.Subtotal(o.items)
}

// FeesAndDiscounts is the sum of all fee entries, rounded to cents.
func (o *Order) FeesAndDiscounts() decimal.Decimal {
	return o.fees.Total()
}

// GrandTotal is Subtotal plus FeesAndDiscounts.
func (o *Order) GrandTotal() decimal.Decimal {
	return o.Subtotal().Add(o.FeesAndDiscounts())
}

// SetPaymentMethod attaches the method used to pay for the order.
func (o *Order) SetPaymentMethod(m payment.Method) error {
	if o.status.Tier() >= TierPending {
		return errs.State(msgAlreadyPlaced)
	}
	o.payment = m
	return nil
}

// SetShippingAddress attaches the delivery address of a physical order.
func (o *Order) SetShippingAddress(addr account.Address) error {
	if o.kind != KindPhysical {
		return errs.Invariant("Shipping Address is only accepted for Orders with physical delivery")
	}
	if o.status.Tier() >= TierPending {
		return errs.State(msgAlreadyPlaced)
	}
	o.shipping = addr
	return nil
}

const (
	msgAlreadyPlaced    = "Order has been placed already"
	msgNotPlaced        = "Order must be placed before it can be payed"
	msgAlreadyPaid      = "Order Payment has been processed already"
	msgNotPaid          = "Order must be placed and payed before it can be fulfilled"
	msgAlreadyFulfilled = "Order has been fulfilled already"
	msgNotFulfilled     = "Order must have been shipped/sent and confirmed, before it can be completed"
	msgAlreadyCompleted = "Order has been completed already"
	msgNoInvoice        = "Order must be payed before an Invoice can be issued"
)

// Place validates the order, computes its fees with rates and moves it to
// PENDING. A nil rates uses DefaultRates. Placing an order twice is a state
// conflict.
func (o *Order) Place(rates FeeCalculator) error {
	if o.status.Tier() >= TierPending {
		return errs.State(msgAlreadyPlaced)
	}
	if len(o.items) == 0 {
		return errs.Invariant("There must be at least one item to place the Order")
	}
	if o.kind == KindPhysical && o.shipping.IsZero() {
		return errs.Invariant("Shipping Address must be informed for Orders with physical delivery")
	}
	if o.payment == nil {
		return errs.Invariant("A Payment method must be informed to place the Order")
	}
	if rates == nil {
		rates = DefaultRates
	}

	v := o.variant()
	if o.kind == KindPhysical {
		o.parcels = BreakDown(o.items, o.shipping)
	}
	o.fees = v.fees(o, rates)
	o.setStatus(v.labels[TierPending])
	return nil
}

// Pay charges the grand total through gw and moves the order to its
// awaiting-fulfillment status. The order is left unchanged if the charge
// fails.
func (o *Order) Pay(ctx context.Context, gw payment.Gateway) error {
	if err := o.guard(TierPending, msgNotPlaced, msgAlreadyPaid); err != nil {
		return err
	}
	total := o.GrandTotal()
	if !total.IsPositive() {
		// Nothing to charge, e.g. a digital order below the voucher.
		o.receipt = &payment.Receipt{Amount: decimal.Zero, ChargedAt: time.Now().UTC()}
		o.setStatus(o.variant().next(TierPending))
		return nil
	}
	receipt, err := gw.Charge(ctx, o.payment, total)
	if err != nil {
		return errors.Wrap(err, "charge payment")
	}
	o.receipt = &receipt
	o.setStatus(o.variant().next(TierPending))
	return nil
}

// Fulfill marks a paid order as shipped or sent. A subscription is activated,
// which completes it.
func (o *Order) Fulfill() error {
	if err := o.guard(TierAwaitingFulfillment, msgNotPaid, msgAlreadyFulfilled); err != nil {
		return err
	}
	o.setStatus(o.variant().next(TierAwaitingFulfillment))
	return nil
}

// Complete marks a shipped or sent order as received. Completing an
// activated subscription is a no-op.
func (o *Order) Complete() error {
	if o.kind == KindSubscription && o.status.Tier() == TierCompleted {
		return nil
	}
	if err := o.guard(TierFulfilled, msgNotFulfilled, msgAlreadyCompleted); err != nil {
		return err
	}
	o.setStatus(o.variant().next(TierFulfilled))
	return nil
}

// guard checks that the order sits exactly at tier from. Earlier tiers fail
// with early, later ones with late.
func (o *Order) guard(from Tier, early, late string) error {
	switch tier := o.status.Tier(); {
	case tier < from:
		return errs.State(early)
	case tier >= from+100:
		return errs.State(late)
	default:
		return nil
	}
}

func (o *Order) setStatus(s Status) {
	o.status = s
	o.updatedAt = time.Now().UTC()
}

func (o *Order) variant() variant {
	return variants[o.kind]
}
