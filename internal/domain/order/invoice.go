package order

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-orders/internal/domain/account"
	"github.com/xenking/kart-orders/internal/domain/errs"
	"github.com/xenking/kart-orders/internal/domain/product"
)

// Invoice is the bill for a paid order.
type Invoice struct {
	OrderID          string
	Kind             Kind
	Status           Status
	Items            []product.Item
	Subtotal         decimal.Decimal
	Fees             Fees
	FeesAndDiscounts decimal.Decimal
	GrandTotal       decimal.Decimal
	BillingAddress   account.Address
	// Parcels is empty for orders without physical delivery.
	Parcels       []Parcel
	TransactionID string
}

// Invoice issues the bill for the order. The order must have been paid.
func (o *Order) Invoice() (Invoice, error) {
	if o.status.Tier() < TierAwaitingFulfillment {
		return Invoice{}, errs.State(msgNoInvoice)
	}
	inv := Invoice{
		OrderID:          o.id,
		Kind:             o.kind,
		Status:           o.status,
		Items:            o.Items(),
		Subtotal:         o.Subtotal(),
		Fees:             o.Fees(),
		FeesAndDiscounts: o.FeesAndDiscounts(),
		GrandTotal:       o.GrandTotal(),
		BillingAddress:   o.payment.BillingAddress(),
		Parcels:          o.Parcels(),
	}
	if o.receipt != nil {
		inv.TransactionID = o.receipt.TransactionID
	}
	return inv, nil
}
