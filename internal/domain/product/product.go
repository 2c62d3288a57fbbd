package product

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-orders/internal/domain/errs"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Type classifies a product by how it is delivered and taxed.
type Type string

const (
	// Physical goods ship in a parcel and pay importation taxes.
	Physical Type = "PHYSICAL"
	// PhysicalTaxFree goods ship in a parcel labelled tax free.
	PhysicalTaxFree Type = "PHYSICAL_TAX_FREE"
	// Digital goods are delivered as a download or a redeemable code.
	Digital Type = "DIGITAL"
	// Subscription goods are memberships activated after payment.
	Subscription Type = "SUBSCRIPTION"
)

// Valid reports whether t is one of the known product types.
func (t Type) Valid() bool {
	switch t {
	case Physical, PhysicalTaxFree, Digital, Subscription:
		return true
	default:
		return false
	}
}

// IsPhysical reports whether t ships in a parcel.
func (t Type) IsPhysical() bool {
	return t == Physical || t == PhysicalTaxFree
}

func (t Type) String() string { return string(t) }

// Key is the identity of a Product. Two products with the same name and type
// are the same product, whatever their quoted price.
type Key struct {
	Name string
	Type Type
}

// Product represents a catalog entry available for purchase.
type Product struct {
	// ID is the catalog identifier. It is not part of product identity.
	ID    string
	name  string
	typ   Type
	price decimal.Decimal
}

// New validates the product fields and rounds price to cents, half up.
func New(name string, typ Type, price decimal.Decimal) (Product, error) {
	if strings.TrimSpace(name) == "" {
		return Product{}, errs.Invariant("Product name must not be blank")
	}
	if !typ.Valid() {
		return Product{}, errs.Invariant("Product type is not supported")
	}
	if !price.IsPositive() {
		return Product{}, errs.Invariant("Product price must be greaterThan 0")
	}
	return Product{
		name:  name,
		typ:   typ,
		price: price.Round(2),
	}, nil
}

// MustNew is like New but panics on invalid input. Intended for fixtures.
func MustNew(name string, typ Type, price string) Product {
	p, err := New(name, typ, decimal.RequireFromString(price))
	if err != nil {
		panic(err)
	}
	return p
}

// WithID returns a copy of p carrying the catalog identifier id.
func (p Product) WithID(id string) Product {
	p.ID = id
	return p
}

func (p Product) Name() string           { return p.name }
func (p Product) Type() Type             { return p.typ }
func (p Product) Price() decimal.Decimal { return p.price }

// Key returns the identity of p.
func (p Product) Key() Key {
	return Key{Name: p.name, Type: p.typ}
}

// Equal reports whether p and other are the same product. Price is ignored.
func (p Product) Equal(other Product) bool {
	return p.Key() == other.Key()
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
}
