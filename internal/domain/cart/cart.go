// Package cart implements the shopping cart a customer fills before checkout.
package cart

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/xenking/kart-orders/internal/domain/account"
	"github.com/xenking/kart-orders/internal/domain/errs"
	"github.com/xenking/kart-orders/internal/domain/order"
	"github.com/xenking/kart-orders/internal/domain/product"
)

const (
	msgNotInCart        = "Product specified is not in the Cart"
	msgNegativeQuantity = "Quantity must be equalTo or greaterThan 0"
	msgAddNotPositive   = "Quantity must be greaterThan 0"
)

// Cart holds one Item per distinct product, keyed by product identity.
// Items keep the order their product was first added in.
//
// A Cart is not safe for concurrent use.
type Cart struct {
	items map[product.Key]product.Item
	keys  []product.Key
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{items: make(map[product.Key]product.Item)}
}

// Add puts quantity units of p in the cart. If p is already there, its
// quantity grows by quantity. quantity must be positive; use UpdateQuantity
// to lower or remove an entry.
func (c *Cart) Add(p product.Product, quantity int) error {
	if quantity <= 0 {
		return errs.Invariant(msgAddNotPositive)
	}
	key := p.Key()
	if it, ok := c.items[key]; ok {
		updated, err := it.UpdateBy(quantity)
		if err != nil {
			return err
		}
		c.items[key] = updated
		return nil
	}

	it, err := product.NewItem(p, quantity)
	if err != nil {
		return err
	}
	c.items[key] = it
	c.keys = append(c.keys, key)
	return nil
}

// UpdateQuantity overwrites the quantity of p. A zero quantity removes p.
func (c *Cart) UpdateQuantity(p product.Product, quantity int) error {
	switch {
	case quantity == 0:
		return c.Delete(p)
	case quantity < 0:
		return errs.Invariant(msgNegativeQuantity)
	}

	key := p.Key()
	it, ok := c.items[key]
	if !ok {
		return errs.Invariant(msgNotInCart)
	}
	updated, err := it.UpdateTo(quantity)
	if err != nil {
		return err
	}
	c.items[key] = updated
	return nil
}

// Delete removes p from the cart.
func (c *Cart) Delete(p product.Product) error {
	key := p.Key()
	if _, ok := c.items[key]; !ok {
		return errs.Invariant(msgNotInCart)
	}
	delete(c.items, key)
	c.keys = slices.DeleteFunc(c.keys, func(k product.Key) bool { return k == key })
	return nil
}

// Item returns the cart entry for p.
func (c *Cart) Item(p product.Product) (product.Item, bool) {
	it, ok := c.items[p.Key()]
	return it, ok
}

// Items returns the cart entries in insertion order.
func (c *Cart) Items() []product.Item {
	out := make([]product.Item, 0, len(c.keys))
	for _, k := range c.keys {
		out = append(out, c.items[k])
	}
	return out
}

// Len returns the number of distinct products in the cart.
func (c *Cart) Len() int { return len(c.keys) }

// Subtotal sums every entry, rounded to cents. An empty cart is 0.00.
func (c *Cart) Subtotal() decimal.Decimal {
	return product.Subtotal(c.Items())
}

// Checkout splits the cart into unplaced orders for acc: one physical order
// for every shippable item, one digital order, and one subscription order per
// membership. Groups with no items produce no order. The cart is left as is.
func (c *Cart) Checkout(acc account.Account) ([]*order.Order, error) {
	var physical, digital, memberships []product.Item
	for _, it := range c.Items() {
		switch t := it.Product().Type(); {
		case t.IsPhysical():
			physical = append(physical, it)
		case t == product.Digital:
			digital = append(digital, it)
		case t == product.Subscription:
			memberships = append(memberships, it)
		}
	}

	orders := make([]*order.Order, 0, 2+len(memberships))
	if len(physical) > 0 {
		o, err := order.NewPhysical(physical, acc)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if len(digital) > 0 {
		o, err := order.NewDigital(digital, acc)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	for _, it := range memberships {
		o, err := order.NewSubscription([]product.Item{it}, acc)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}
