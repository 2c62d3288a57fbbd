package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-orders/internal/domain/product"
)

// DecodeCatalog parses a JSON array of products:
//
//	[{"id": "console", "name": "PS4 Slim 1TB", "type": "PHYSICAL", "price": "1899.00"}]
//
// Prices may be JSON strings or numbers. Every entry must carry an id.
func DecodeCatalog(data []byte) ([]product.Product, error) {
	var products []product.Product
	err := jx.DecodeBytes(data).Arr(func(d *jx.Decoder) error {
		var (
			id, name, typ string
			price         decimal.Decimal
		)
		if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
			var err error
			switch string(key) {
			case "id":
				id, err = d.Str()
			case "name":
				name, err = d.Str()
			case "type":
				typ, err = d.Str()
			case "price":
				price, err = decodeDecimal(d)
			default:
				err = d.Skip()
			}
			return err
		}); err != nil {
			return err
		}
		if id == "" {
			return errors.Errorf("product %q has no id", name)
		}
		p, err := product.New(name, product.Type(typ), price)
		if err != nil {
			return errors.Wrapf(err, "product %q", id)
		}
		products = append(products, p.WithID(id))
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode catalog")
	}
	return products, nil
}

// SeedCatalog upserts every product into repo.
func SeedCatalog(ctx context.Context, repo *ProductRepository, products []product.Product) error {
	for _, p := range products {
		if err := repo.Upsert(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
