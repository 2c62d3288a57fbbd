package order

import (
	"fmt"

	"github.com/xenking/kart-orders/internal/domain/account"
	"github.com/xenking/kart-orders/internal/domain/product"
)

// ShippingLabel marks how a parcel is treated at customs.
type ShippingLabel string

const (
	LabelDefault ShippingLabel = "DEFAULT"
	LabelTaxFree ShippingLabel = "TAX_FREE"
)

// Parcel is a shippable group of items sharing a shipping label.
type Parcel struct {
	Items           []product.Item
	ShippingAddress account.Address
	ShippingLabel   ShippingLabel
}

// labelOrder fixes the order parcels are returned in.
var labelOrder = []ShippingLabel{LabelDefault, LabelTaxFree}

// BreakDown groups the items of a physical order into parcels, one per
// shipping label. It panics if an item cannot be shipped: order construction
// already rejects such items, so reaching one here is a programming error.
func BreakDown(items []product.Item, shippingAddress account.Address) []Parcel {
	groups := make(map[ShippingLabel][]product.Item, len(labelOrder))
	for _, it := range items {
		label := labelFor(it.Product().Type())
		groups[label] = append(groups[label], it)
	}

	parcels := make([]Parcel, 0, len(groups))
	for _, label := range labelOrder {
		if group, ok := groups[label]; ok {
			parcels = append(parcels, Parcel{
				Items:           group,
				ShippingAddress: shippingAddress,
				ShippingLabel:   label,
			})
		}
	}
	return parcels
}

func labelFor(t product.Type) ShippingLabel {
	switch t {
	case product.Physical:
		return LabelDefault
	case product.PhysicalTaxFree:
		return LabelTaxFree
	default:
		panic(fmt.Sprintf("order: product type %s cannot be shipped in a parcel", t))
	}
}
