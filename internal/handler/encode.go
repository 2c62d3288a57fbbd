package handler

import (
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-orders/internal/domain/account"
	"github.com/xenking/kart-orders/internal/domain/order"
	"github.com/xenking/kart-orders/internal/domain/product"
)

// Money is encoded as a string with two decimals to keep it exact.
func writeMoney(e *jx.Encoder, d decimal.Decimal) {
	e.Str(d.StringFixed(2))
}

func writeProduct(e *jx.Encoder, p product.Product) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(p.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(p.Name()) })
		e.Field("type", func(e *jx.Encoder) { e.Str(p.Type().String()) })
		e.Field("price", func(e *jx.Encoder) { writeMoney(e, p.Price()) })
	})
}

func writeItems(e *jx.Encoder, items []product.Item) {
	e.Arr(func(e *jx.Encoder) {
		for _, it := range items {
			p := it.Product()
			e.Obj(func(e *jx.Encoder) {
				e.Field("productId", func(e *jx.Encoder) { e.Str(p.ID) })
				e.Field("name", func(e *jx.Encoder) { e.Str(p.Name()) })
				e.Field("type", func(e *jx.Encoder) { e.Str(p.Type().String()) })
				e.Field("price", func(e *jx.Encoder) { writeMoney(e, p.Price()) })
				e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity()) })
				e.Field("subtotal", func(e *jx.Encoder) { writeMoney(e, it.Subtotal()) })
			})
		}
	})
}

func writeFees(e *jx.Encoder, fees order.Fees) {
	e.Obj(func(e *jx.Encoder) {
		for _, name := range fees.Names() {
			e.Field(name, func(e *jx.Encoder) { writeMoney(e, fees[name]) })
		}
	})
}

func writeAddress(e *jx.Encoder, a account.Address) {
	if a.IsZero() {
		e.Null()
		return
	}
	e.Obj(func(e *jx.Encoder) {
		e.Field("country", func(e *jx.Encoder) { e.Str(a.Country()) })
		e.Field("streetAddress", func(e *jx.Encoder) { e.Str(a.StreetAddress()) })
		e.Field("zipCode", func(e *jx.Encoder) { e.Str(a.ZipCode()) })
		e.Field("city", func(e *jx.Encoder) { e.Str(a.City()) })
		e.Field("state", func(e *jx.Encoder) { e.Str(a.State()) })
	})
}

func writeParcels(e *jx.Encoder, parcels []order.Parcel) {
	e.Arr(func(e *jx.Encoder) {
		for _, p := range parcels {
			e.Obj(func(e *jx.Encoder) {
				e.Field("shippingLabel", func(e *jx.Encoder) { e.Str(string(p.ShippingLabel)) })
				e.Field("items", func(e *jx.Encoder) { writeItems(e, p.Items) })
			})
		}
	})
}

func writeOrder(e *jx.Encoder, o *order.Order) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(o.ID()) })
		e.Field("kind", func(e *jx.Encoder) { e.Str(o.Kind().String()) })
		e.Field("status", func(e *jx.Encoder) { e.Str(o.Status().String()) })
		e.Field("statusCode", func(e *jx.Encoder) { e.Int(o.Status().Code()) })
		e.Field("email", func(e *jx.Encoder) { e.Str(o.Account().Email()) })
		e.Field("items", func(e *jx.Encoder) { writeItems(e, o.Items()) })
		e.Field("subtotal", func(e *jx.Encoder) { writeMoney(e, o.Subtotal()) })
		e.Field("fees", func(e *jx.Encoder) { writeFees(e, o.Fees()) })
		e.Field("feesAndDiscounts", func(e *jx.Encoder) { writeMoney(e, o.FeesAndDiscounts()) })
		e.Field("grandTotal", func(e *jx.Encoder) { writeMoney(e, o.GrandTotal()) })
		if o.Kind() == order.KindPhysical {
			e.Field("shippingAddress", func(e *jx.Encoder) { writeAddress(e, o.ShippingAddress()) })
			e.Field("parcels", func(e *jx.Encoder) { writeParcels(e, o.Parcels()) })
		}
		if rc, ok := o.Receipt(); ok {
			e.Field("transactionId", func(e *jx.Encoder) { e.Str(rc.TransactionID) })
		}
		e.Field("createdAt", func(e *jx.Encoder) { e.Str(o.CreatedAt().Format(time.RFC3339)) })
		e.Field("updatedAt", func(e *jx.Encoder) { e.Str(o.UpdatedAt().Format(time.RFC3339)) })
	})
}

func writeInvoice(e *jx.Encoder, inv order.Invoice) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("orderId", func(e *jx.Encoder) { e.Str(inv.OrderID) })
		e.Field("kind", func(e *jx.Encoder) { e.Str(inv.Kind.String()) })
		e.Field("status", func(e *jx.Encoder) { e.Str(inv.Status.String()) })
		e.Field("items", func(e *jx.Encoder) { writeItems(e, inv.Items) })
		e.Field("subtotal", func(e *jx.Encoder) { writeMoney(e, inv.Subtotal) })
		e.Field("fees", func(e *jx.Encoder) { writeFees(e, inv.Fees) })
		e.Field("feesAndDiscounts", func(e *jx.Encoder) { writeMoney(e, inv.FeesAndDiscounts) })
		e.Field("grandTotal", func(e *jx.Encoder) { writeMoney(e, inv.GrandTotal) })
		e.Field("billingAddress", func(e *jx.Encoder) { writeAddress(e, inv.BillingAddress) })
		e.Field("parcels", func(e *jx.Encoder) { writeParcels(e, inv.Parcels) })
		e.Field("transactionId", func(e *jx.Encoder) { e.Str(inv.TransactionID) })
	})
}
