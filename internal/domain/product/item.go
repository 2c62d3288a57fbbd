package product

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-orders/internal/domain/errs"
)

const msgQuantityNotPositive = "Quantity must be greaterThan 0"

// Item is a line item: a product and a strictly positive quantity. Items are
// values; the update methods return a new Item.
type Item struct {
	product  Product
	quantity int
}

// NewItem returns an Item for quantity units of p.
func NewItem(p Product, quantity int) (Item, error) {
	if quantity <= 0 {
		return Item{}, errs.Invariant(msgQuantityNotPositive)
	}
	return Item{product: p, quantity: quantity}, nil
}

// MustNewItem is like NewItem but panics on invalid input. Intended for fixtures.
func MustNewItem(p Product, quantity int) Item {
	it, err := NewItem(p, quantity)
	if err != nil {
		panic(err)
	}
	return it
}

func (i Item) Product() Product { return i.product }
func (i Item) Quantity() int    { return i.quantity }

// Subtotal returns price × quantity.
func (i Item) Subtotal() decimal.Decimal {
	return i.product.price.Mul(decimal.NewFromInt(int64(i.quantity)))
}

// UpdateBy adds delta to the quantity. Negative deltas decrease it, but the
// result must stay above zero.
func (i Item) UpdateBy(delta int) (Item, error) {
	return NewItem(i.product, i.quantity+delta)
}

// UpdateTo overwrites the quantity.
func (i Item) UpdateTo(quantity int) (Item, error) {
	return NewItem(i.product, quantity)
}

// Subtotal sums the subtotals of items and rounds to cents, half up.
func Subtotal(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Subtotal())
	}
	return sum.Round(2)
}
