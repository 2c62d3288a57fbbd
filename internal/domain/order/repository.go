package order

import (
	"context"
	"slices"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/kart-orders/internal/domain/account"
	"github.com/xenking/kart-orders/internal/domain/payment"
	"github.com/xenking/kart-orders/internal/domain/product"
)

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	// Update stores o only if the stored order still has status prev.
	// Otherwise it returns ErrConcurrentUpdate, or ErrNotFound if there is
	// no such order.
	Update(ctx context.Context, o *Order, prev Status) error
	Get(ctx context.Context, id string) (*Order, error)
}

// Snapshot is the storable state of an order.
type Snapshot struct {
	ID        string
	Kind      Kind
	Items     []product.Item
	Account   account.Account
	Payment   *payment.Stored
	Shipping  account.Address
	Status    Status
	Fees      Fees
	Receipt   *payment.Receipt
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Snapshot captures o for storage. Payment methods are reduced to their
// storable form.
func (o *Order) Snapshot() Snapshot {
	s := Snapshot{
		ID:        o.id,
		Kind:      o.kind,
		Items:     o.Items(),
		Account:   o.account,
		Shipping:  o.shipping,
		Status:    o.status,
		Fees:      o.Fees(),
		CreatedAt: o.createdAt,
		UpdatedAt: o.updatedAt,
	}
	if o.payment != nil {
		stored := payment.Store(o.payment)
		s.Payment = &stored
	}
	if o.receipt != nil {
		rc := *o.receipt
		s.Receipt = &rc
	}
	return s
}

// Restore rebuilds an order from a snapshot, rechecking the item and status
// rules of its kind.
func Restore(s Snapshot) (*Order, error) {
	v, ok := variants[s.Kind]
	if !ok {
		return nil, errors.Errorf("order %s: unknown kind %q", s.ID, s.Kind)
	}
	if err := v.check(s.Items); err != nil {
		return nil, errors.Wrapf(err, "order %s", s.ID)
	}
	if !v.knows(s.Status) {
		return nil, errors.Errorf("order %s: status %q is not valid for %s", s.ID, s.Status, s.Kind)
	}

	o := &Order{
		id:        s.ID,
		kind:      s.Kind,
		items:     slices.Clone(s.Items),
		account:   s.Account,
		shipping:  s.Shipping,
		status:    s.Status,
		fees:      s.Fees.clone(),
		createdAt: s.CreatedAt,
		updatedAt: s.UpdatedAt,
	}
	if s.Payment != nil {
		o.payment = *s.Payment
	}
	if s.Receipt != nil {
		rc := *s.Receipt
		o.receipt = &rc
	}
	if o.kind == KindPhysical && o.status.Tier() >= TierPending {
		o.parcels = BreakDown(o.items, o.shipping)
	}
	return o, nil
}
