package postgres

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-orders/internal/domain/account"
	"github.com/xenking/kart-orders/internal/domain/order"
	"github.com/xenking/kart-orders/internal/domain/payment"
	"github.com/xenking/kart-orders/internal/domain/product"
)

// JSONB column codecs. Amounts are written as decimal strings.

func encodeItems(items []product.Item) []byte {
	var e jx.Encoder
	e.Arr(func(e *jx.Encoder) {
		for _, it := range items {
			p := it.Product()
			e.Obj(func(e *jx.Encoder) {
				e.Field("product_id", func(e *jx.Encoder) { e.Str(p.ID) })
				e.Field("name", func(e *jx.Encoder) { e.Str(p.Name()) })
				e.Field("type", func(e *jx.Encoder) { e.Str(string(p.Type())) })
				e.Field("price", func(e *jx.Encoder) { e.Str(p.Price().StringFixed(2)) })
				e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity()) })
			})
		}
	})
	return e.Bytes()
}

func decodeItems(data []byte) ([]product.Item, error) {
	var items []product.Item
	err := jx.DecodeBytes(data).Arr(func(d *jx.Decoder) error {
		var (
			id, name, typ string
			price         decimal.Decimal
			qty           int
		)
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "product_id":
				id, err = d.Str()
			case "name":
				name, err = d.Str()
			case "type":
				typ, err = d.Str()
			case "price":
				price, err = decodeDecimal(d)
			case "quantity":
				qty, err = d.Int()
			default:
				err = d.Skip()
			}
			return err
		}); err != nil {
			return err
		}

		p, err := product.New(name, product.Type(typ), price)
		if err != nil {
			return errors.Wrapf(err, "item product %q", name)
		}
		it, err := product.NewItem(p.WithID(id), qty)
		if err != nil {
			return errors.Wrapf(err, "item product %q", name)
		}
		items = append(items, it)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode items")
	}
	return items, nil
}

func encodeFees(fees order.Fees) []byte {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		for _, name := range fees.Names() {
			e.Field(name, func(e *jx.Encoder) { e.Str(fees[name].String()) })
		}
	})
	return e.Bytes()
}

func decodeFees(data []byte) (order.Fees, error) {
	fees := order.Fees{}
	err := jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		v, err := decodeDecimal(d)
		if err != nil {
			return err
		}
		fees[key] = v
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode fees")
	}
	return fees, nil
}

// encodeAddress returns nil for the zero Address so it is stored as NULL.
func encodeAddress(a account.Address) []byte {
	if a.IsZero() {
		return nil
	}
	var e jx.Encoder
	writeAddress(&e, a)
	return e.Bytes()
}

func writeAddress(e *jx.Encoder, a account.Address) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("country", func(e *jx.Encoder) { e.Str(a.Country()) })
		e.Field("street_address", func(e *jx.Encoder) { e.Str(a.StreetAddress()) })
		e.Field("zip_code", func(e *jx.Encoder) { e.Str(a.ZipCode()) })
		e.Field("city", func(e *jx.Encoder) { e.Str(a.City()) })
		e.Field("state", func(e *jx.Encoder) { e.Str(a.State()) })
	})
}

func decodeAddress(data []byte) (account.Address, error) {
	if data == nil {
		return account.Address{}, nil
	}
	a, err := readAddress(jx.DecodeBytes(data))
	if err != nil {
		return account.Address{}, errors.Wrap(err, "decode address")
	}
	return a, nil
}

func readAddress(d *jx.Decoder) (account.Address, error) {
	var country, street, zip, city, state string
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "country":
			country, err = d.Str()
		case "street_address":
			street, err = d.Str()
		case "zip_code":
			zip, err = d.Str()
		case "city":
			city, err = d.Str()
		case "state":
			state, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		return account.Address{}, err
	}
	return account.NewAddress(country, street, zip, city, state)
}

func encodePayment(p *payment.Stored) []byte {
	if p == nil {
		return nil
	}
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("kind", func(e *jx.Encoder) { e.Str(p.MethodKind) })
		e.Field("reference", func(e *jx.Encoder) { e.Str(p.Reference) })
		e.Field("billing_address", func(e *jx.Encoder) { writeAddress(e, p.Billing) })
	})
	return e.Bytes()
}

func decodePayment(data []byte) (*payment.Stored, error) {
	if data == nil {
		return nil, nil
	}
	var p payment.Stored
	err := jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "kind":
			p.MethodKind, err = d.Str()
		case "reference":
			p.Reference, err = d.Str()
		case "billing_address":
			p.Billing, err = readAddress(d)
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode payment")
	}
	return &p, nil
}

func encodeReceipt(rc *payment.Receipt) []byte {
	if rc == nil {
		return nil
	}
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("transaction_id", func(e *jx.Encoder) { e.Str(rc.TransactionID) })
		e.Field("amount", func(e *jx.Encoder) { e.Str(rc.Amount.String()) })
		e.Field("charged_at", func(e *jx.Encoder) { e.Str(rc.ChargedAt.UTC().Format(time.RFC3339Nano)) })
	})
	return e.Bytes()
}

func decodeReceipt(data []byte) (*payment.Receipt, error) {
	if data == nil {
		return nil, nil
	}
	var rc payment.Receipt
	err := jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "transaction_id":
			rc.TransactionID, err = d.Str()
		case "amount":
			rc.Amount, err = decodeDecimal(d)
		case "charged_at":
			var s string
			if s, err = d.Str(); err == nil {
				rc.ChargedAt, err = time.Parse(time.RFC3339Nano, s)
			}
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode receipt")
	}
	return &rc, nil
}

// decodeDecimal reads an amount written as a JSON string or number.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	if d.Next() == jx.Number {
		n, err := d.Num()
		if err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.NewFromString(n.String())
	}
	s, err := d.Str()
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromString(s)
}
