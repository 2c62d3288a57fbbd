package handler

import (
	"io"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/kart-orders/internal/checkout"
)

// decodeCheckout reads a checkout request body:
//
//	{
//	  "name": "...", "email": "...",
//	  "items": [{"productId": "console", "quantity": 2}],
//	  "card": {"nameOnCard": "...", "number": "...", "securityCode": 123,
//	           "expiresYear": 2030, "expiresMonth": 12, "billingAddress": {...}},
//	  "shippingAddress": {...}
//	}
//
// Unknown fields are ignored. Field values are validated by the domain.
func decodeCheckout(r io.Reader) (checkout.Request, error) {
	var req checkout.Request
	d := jx.Decode(r, 4096)
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "name":
			req.Name, err = d.Str()
		case "email":
			req.Email, err = d.Str()
		case "items":
			req.Items, err = decodeLineItems(d)
		case "card":
			req.Card, err = decodeCard(d)
		case "shippingAddress":
			if d.Next() == jx.Null {
				return d.Null()
			}
			var addr checkout.Address
			if addr, err = decodeAddress(d); err == nil {
				req.Shipping = &addr
			}
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "decode %q", key)
		}
		return nil
	})
	if err != nil {
		return checkout.Request{}, errors.Wrap(err, "invalid request body")
	}
	return req, nil
}

func decodeLineItems(d *jx.Decoder) ([]checkout.LineItem, error) {
	var items []checkout.LineItem
	err := d.Arr(func(d *jx.Decoder) error {
		var it checkout.LineItem
		if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
			var err error
			switch string(key) {
			case "productId":
				it.ProductID, err = d.Str()
			case "quantity":
				it.Quantity, err = d.Int()
			default:
				err = d.Skip()
			}
			return err
		}); err != nil {
			return err
		}
		items = append(items, it)
		return nil
	})
	return items, err
}

func decodeCard(d *jx.Decoder) (checkout.Card, error) {
	var c checkout.Card
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "nameOnCard":
			c.NameOnCard, err = d.Str()
		case "number":
			c.Number, err = d.Str()
		case "securityCode":
			c.SecurityCode, err = d.Int()
		case "expiresYear":
			c.ExpiresYear, err = d.Int()
		case "expiresMonth":
			var m int
			m, err = d.Int()
			c.ExpiresMonth = time.Month(m)
		case "billingAddress":
			c.Billing, err = decodeAddress(d)
		default:
			err = d.Skip()
		}
		return err
	})
	return c, err
}

func decodeAddress(d *jx.Decoder) (checkout.Address, error) {
	var a checkout.Address
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "country":
			a.Country, err = d.Str()
		case "streetAddress":
			a.StreetAddress, err = d.Str()
		case "zipCode":
			a.ZipCode, err = d.Str()
		case "city":
			a.City, err = d.Str()
		case "state":
			a.State, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	return a, err
}
