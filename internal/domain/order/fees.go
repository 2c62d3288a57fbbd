package order

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Fee entry names.
const (
	FeeShippingAndHandling = "shippingAndHandling"
	FeeImportationTaxes    = "importationTaxes"
	FeeVoucher             = "Voucher"
)

// DigitalVoucher is the flat discount applied to every digital order.
var DigitalVoucher = decimal.NewFromInt(-10)

// Fees maps a fee or discount name to its amount. Discounts are negative.
type Fees map[string]decimal.Decimal

// Total sums every entry and rounds to cents, half up.
func (f Fees) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, v := range f {
		sum = sum.Add(v)
	}
	return sum.Round(2)
}

// Names returns the entry names in lexical order.
func (f Fees) Names() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (f Fees) clone() Fees {
	out := make(Fees, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// FeeCalculator prices the delivery of a parcel.
type FeeCalculator interface {
	ShippingCost(p Parcel) decimal.Decimal
	ImportFees(p Parcel) decimal.Decimal
}

// FlatRate charges the same shipping cost for every parcel and the same
// import fees for every parcel that is not tax free.
type FlatRate struct {
	Shipping decimal.Decimal
	Import   decimal.Decimal
}

var _ FeeCalculator = FlatRate{}

// DefaultRates is the FlatRate used when no calculator is configured.
var DefaultRates = FlatRate{
	Shipping: decimal.NewFromInt(10),
	Import:   decimal.Zero,
}

func (r FlatRate) ShippingCost(Parcel) decimal.Decimal {
	return r.Shipping
}

func (r FlatRate) ImportFees(p Parcel) decimal.Decimal {
	if p.ShippingLabel == LabelTaxFree {
		return decimal.Zero
	}
	return r.Import
}

func physicalFees(o *Order, rates FeeCalculator) Fees {
	shipping, imports := decimal.Zero, decimal.Zero
	for _, p := range o.parcels {
		shipping = shipping.Add(rates.ShippingCost(p))
		imports = imports.Add(rates.ImportFees(p))
	}
	return Fees{
		FeeShippingAndHandling: shipping.Round(2),
		FeeImportationTaxes:    imports.Round(2),
	}
}

func digitalFees(*Order, FeeCalculator) Fees {
	return Fees{FeeVoucher: DigitalVoucher}
}
