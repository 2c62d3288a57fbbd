package postgres

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/kart-orders/internal/domain/account"
	"github.com/xenking/kart-orders/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (
		id, kind, status, account_name, account_email,
		items, fees, payment, shipping, receipt,
		grand_total, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	updateOrderSQL = `UPDATE orders SET
		status = $2, fees = $3, payment = $4, shipping = $5, receipt = $6,
		grand_total = $7, updated_at = $8
	WHERE id = $1 AND status = $9`

	orderExistsSQL = `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`

	getOrderSQL = `SELECT
		id, kind, status, account_name, account_email,
		items, fees, payment, shipping, receipt,
		created_at, updated_at
	FROM orders WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. Line
// items, fees, payment, shipping address and receipt are stored as JSONB.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	s := o.Snapshot()
	_, err := r.pool.Exec(ctx, createOrderSQL,
		s.ID, string(s.Kind), string(s.Status), s.Account.Name(), s.Account.Email(),
		encodeItems(s.Items), encodeFees(s.Fees), encodePayment(s.Payment),
		encodeAddress(s.Shipping), encodeReceipt(s.Receipt),
		o.GrandTotal(), s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "create order %q", s.ID)
	}
	return nil
}

// Update overwrites the mutable state of a stored order whose status is
// still prev. Items, kind and account never change after creation.
func (r *OrderRepository) Update(ctx context.Context, o *order.Order, prev order.Status) error {
	s := o.Snapshot()
	tag, err := r.pool.Exec(ctx, updateOrderSQL,
		s.ID, string(s.Status), encodeFees(s.Fees), encodePayment(s.Payment),
		encodeAddress(s.Shipping), encodeReceipt(s.Receipt),
		o.GrandTotal(), s.UpdatedAt, string(prev),
	)
	if err != nil {
		return errors.Wrapf(err, "update order %q", s.ID)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	var exists bool
	if err := r.pool.QueryRow(ctx, orderExistsSQL, s.ID).Scan(&exists); err != nil {
		return errors.Wrapf(err, "update order %q", s.ID)
	}
	if !exists {
		return order.ErrNotFound
	}
	return order.ErrConcurrentUpdate
}

// Get loads the order with the given ID.
func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %q", id)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get order %q", id)
	}
	return o, nil
}

func scanOrder(row pgx.CollectableRow) (*order.Order, error) {
	var (
		id, kind, status, name, email       string
		items, fees, pay, shipping, receipt []byte
		createdAt, updatedAt                time.Time
	)
	if err := row.Scan(
		&id, &kind, &status, &name, &email,
		&items, &fees, &pay, &shipping, &receipt,
		&createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	s := order.Snapshot{
		ID:        id,
		Kind:      order.Kind(kind),
		Status:    order.Status(status),
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
	var err error
	if s.Account, err = account.New(name, email); err != nil {
		return nil, errors.Wrapf(err, "order %q account", id)
	}
	if s.Items, err = decodeItems(items); err != nil {
		return nil, err
	}
	if s.Fees, err = decodeFees(fees); err != nil {
		return nil, err
	}
	if s.Payment, err = decodePayment(pay); err != nil {
		return nil, err
	}
	if s.Shipping, err = decodeAddress(shipping); err != nil {
		return nil, err
	}
	if s.Receipt, err = decodeReceipt(receipt); err != nil {
		return nil, err
	}
	return order.Restore(s)
}
