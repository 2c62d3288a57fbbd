package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-orders/internal/domain/product"
)

const (
	listProductsSQL = `SELECT id, name, type, price FROM products ORDER BY id`

	getProductByIDSQL = `SELECT id, name, type, price FROM products WHERE id = $1`

	getProductsByIDsSQL = `SELECT id, name, type, price FROM products WHERE id = ANY($1)`

	upsertProductSQL = `INSERT INTO products (id, name, type, price)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, type = EXCLUDED.type, price = EXCLUDED.price`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns all products from the catalog ordered by ID.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get product %q", id)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get product %q", id)
	}
	return &p, nil
}

// GetByIDs returns products matching any of the given IDs. Unknown IDs are
// skipped.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products by ids")
	}
	return pgx.CollectRows(rows, scanProduct)
}

// Upsert inserts p or overwrites the product stored under the same ID.
func (r *ProductRepository) Upsert(ctx context.Context, p product.Product) error {
	if p.ID == "" {
		return errors.Errorf("product %q has no id", p.Name())
	}
	if _, err := r.pool.Exec(ctx, upsertProductSQL, p.ID, p.Name(), string(p.Type()), p.Price()); err != nil {
		return errors.Wrapf(err, "upsert product %q", p.ID)
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		id, name, typ string
		price         decimal.Decimal
	)
	if err := row.Scan(&id, &name, &typ, &price); err != nil {
		return product.Product{}, err
	}
	p, err := product.New(name, product.Type(typ), price)
	if err != nil {
		return product.Product{}, errors.Wrapf(err, "product %q", id)
	}
	return p.WithID(id), nil
}
