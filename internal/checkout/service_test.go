package checkout

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/xenking/kart-orders/internal/domain/errs"
	"github.com/xenking/kart-orders/internal/domain/order"
	"github.com/xenking/kart-orders/internal/domain/payment"
	"github.com/xenking/kart-orders/internal/domain/product"
)

// --- Mock implementations ---

type mockProductRepo struct {
	byID   map[string]product.Product
	getErr error
}

func (m *mockProductRepo) List(_ context.Context) ([]product.Product, error) {
	out := make([]product.Product, 0, len(m.byID))
	for _, p := range m.byID {
		out = append(out, p)
	}
	return out, nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	var out []product.Product
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type mockOrderRepo struct {
	mu        sync.Mutex
	snapshots map[string]order.Snapshot
	creates   int
	updates   int
	createErr error
}

func newOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{snapshots: make(map[string]order.Snapshot)}
}

func (m *mockOrderRepo) Create(_ context.Context, o *order.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.creates++
	m.snapshots[o.ID()] = o.Snapshot()
	return nil
}

func (m *mockOrderRepo) Update(_ context.Context, o *order.Order, prev order.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.snapshots[o.ID()]
	if !ok {
		return order.ErrNotFound
	}
	if stored.Status != prev {
		return order.ErrConcurrentUpdate
	}
	m.updates++
	m.snapshots[o.ID()] = o.Snapshot()
	return nil
}

func (m *mockOrderRepo) Get(_ context.Context, id string) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.snapshots[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return order.Restore(s)
}

type mockNotifier struct {
	events []order.Event
	err    error
}

func (m *mockNotifier) Notify(_ context.Context, events ...order.Event) error {
	m.events = append(m.events, events...)
	return m.err
}

func (m *mockNotifier) types() []order.EventType {
	out := make([]order.EventType, len(m.events))
	for i, ev := range m.events {
		out[i] = ev.Type
	}
	return out
}

// --- Helpers ---

func catalog() *mockProductRepo {
	products := map[string]product.Product{
		"console": product.MustNew("PS4 Slim 1TB", product.Physical, "1899.00"),
		"chair":   product.MustNew("PDP Chair", product.Physical, "399.00"),
		"book":    product.MustNew("Cracking the Code Interview", product.PhysicalTaxFree, "219.57"),
		"book2":   product.MustNew("The Hitchhiker's Guide", product.PhysicalTaxFree, "120.00"),
		"album":   product.MustNew("Stairway to Heaven", product.Digital, "5.00"),
		"game":    product.MustNew("Nier:Automata", product.Digital, "129.90"),
		"netflix": product.MustNew("Netflix Familiar Plan", product.Subscription, "29.90"),
		"spotify": product.MustNew("Spotify Premium", product.Subscription, "14.90"),
	}
	for id, p := range products {
		products[id] = p.WithID(id)
	}
	return &mockProductRepo{byID: products}
}

func testAddress() Address {
	return Address{
		Country:       "Brazil",
		StreetAddress: "Av Paulista, 1000",
		ZipCode:       "01000-000",
		City:          "Sao Paulo",
		State:         "SP",
	}
}

func testRequest(items ...LineItem) Request {
	shipping := testAddress()
	return Request{
		Name:  "John",
		Email: "john.doe@domain.suffix",
		Items: items,
		Card: Card{
			NameOnCard:   "JOHN DOE",
			Number:       "4111 1111 1111 1111",
			SecurityCode: 123,
			ExpiresYear:  2099,
			ExpiresMonth: time.November,
			Billing:      testAddress(),
		},
		Shipping: &shipping,
	}
}

func fullRequest() Request {
	return testRequest(
		LineItem{ProductID: "console", Quantity: 1},
		LineItem{ProductID: "chair", Quantity: 2},
		LineItem{ProductID: "book", Quantity: 2},
		LineItem{ProductID: "book2", Quantity: 1},
		LineItem{ProductID: "album", Quantity: 1},
		LineItem{ProductID: "game", Quantity: 4},
		LineItem{ProductID: "netflix", Quantity: 1},
		LineItem{ProductID: "spotify", Quantity: 1},
	)
}

type fixture struct {
	svc      *Service
	products *mockProductRepo
	orders   *mockOrderRepo
	notifier *mockNotifier
}

func newFixture(t *testing.T, gw payment.Gateway) *fixture {
	t.Helper()
	f := &fixture{
		products: catalog(),
		orders:   newOrderRepo(),
		notifier: &mockNotifier{},
	}
	svc, err := NewService(f.products, f.orders, gw, nil, f.notifier,
		WithMeterProvider(metricnoop.NewMeterProvider()),
		WithTracerProvider(tracenoop.NewTracerProvider()),
	)
	require.NoError(t, err)
	f.svc = svc
	return f
}

type failingGateway struct {
	failOn decimal.Decimal
}

func (g failingGateway) Charge(_ context.Context, _ payment.Method, amount decimal.Decimal) (payment.Receipt, error) {
	if amount.Equal(g.failOn) {
		return payment.Receipt{}, errors.Wrap(payment.ErrDeclined, "insufficient funds")
	}
	return payment.Receipt{TransactionID: "tx", Amount: amount}, nil
}

// --- Tests ---

func TestCheckout_FullCart(t *testing.T) {
	f := newFixture(t, payment.NewSandbox())

	res, err := f.svc.Checkout(context.Background(), fullRequest())
	require.NoError(t, err)
	require.Len(t, res.Orders, 4)

	physical, digital := res.Orders[0], res.Orders[1]
	assert.Equal(t, order.StatusNotShipped, physical.Status())
	assert.Equal(t, "3276.14", physical.GrandTotal().StringFixed(2))
	assert.Equal(t, order.StatusUnsent, digital.Status())
	assert.Equal(t, "514.60", digital.GrandTotal().StringFixed(2))
	for _, o := range res.Orders[2:] {
		assert.Equal(t, order.StatusPendingActivation, o.Status())
	}

	assert.Equal(t, 4, f.orders.creates)
	assert.Equal(t, 4, f.orders.updates)
	assert.Equal(t, []order.EventType{
		order.EventPlaced, order.EventPlaced, order.EventPlaced, order.EventPlaced,
		order.EventPaid, order.EventPaid, order.EventPaid, order.EventPaid,
	}, f.notifier.types())
}

func TestCheckout_MergesRepeatedProducts(t *testing.T) {
	f := newFixture(t, payment.NewSandbox())

	res, err := f.svc.Checkout(context.Background(), testRequest(
		LineItem{ProductID: "game", Quantity: 1},
		LineItem{ProductID: "game", Quantity: 3},
	))
	require.NoError(t, err)
	require.Len(t, res.Orders, 1)
	items := res.Orders[0].Items()
	require.Len(t, items, 1)
	assert.Equal(t, 4, items[0].Quantity())
}

func TestCheckout_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Request)
		check  func(t *testing.T, err error)
	}{
		{
			name:   "no items",
			mutate: func(r *Request) { r.Items = nil },
			check:  func(t *testing.T, err error) { require.ErrorIs(t, err, ErrEmptyItems) },
		},
		{
			name:   "unknown product",
			mutate: func(r *Request) { r.Items = append(r.Items, LineItem{ProductID: "missing", Quantity: 1}) },
			check: func(t *testing.T, err error) {
				var pnf *ProductNotFoundError
				require.ErrorAs(t, err, &pnf)
				assert.Equal(t, "missing", pnf.ProductID)
			},
		},
		{
			name:   "bad email",
			mutate: func(r *Request) { r.Email = "john" },
			check:  func(t *testing.T, err error) { require.EqualError(t, err, "Invalid email address") },
		},
		{
			name:   "zero quantity",
			mutate: func(r *Request) { r.Items[0].Quantity = 0 },
			check:  func(t *testing.T, err error) { require.EqualError(t, err, "Quantity must be greaterThan 0") },
		},
		{
			name: "non-positive quantity for a repeated product",
			mutate: func(r *Request) {
				r.Items = append(r.Items,
					LineItem{ProductID: "game", Quantity: -3},
					LineItem{ProductID: "game", Quantity: 0},
				)
			},
			check: func(t *testing.T, err error) { require.EqualError(t, err, "Quantity must be greaterThan 0") },
		},
		{
			name:   "physical without shipping",
			mutate: func(r *Request) { r.Shipping = nil },
			check: func(t *testing.T, err error) {
				require.EqualError(t, err, "Shipping Address must be informed for Orders with physical delivery")
			},
		},
		{
			name:   "blank billing city",
			mutate: func(r *Request) { r.Card.Billing.City = "  " },
			check:  func(t *testing.T, err error) { require.EqualError(t, err, "City cannot be empty") },
		},
		{
			name:   "blank card number",
			mutate: func(r *Request) { r.Card.Number = "" },
			check:  func(t *testing.T, err error) { require.EqualError(t, err, "Card number cannot be blank") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, payment.NewSandbox())
			req := fullRequest()
			tt.mutate(&req)

			_, err := f.svc.Checkout(context.Background(), req)

			require.Error(t, err)
			tt.check(t, err)
			assert.Zero(t, f.orders.creates, "nothing stored on a rejected checkout")
			assert.Empty(t, f.notifier.events)
		})
	}
}

func TestCheckout_ProductLookupError(t *testing.T) {
	f := newFixture(t, payment.NewSandbox())
	f.products.getErr = errors.New("db down")

	_, err := f.svc.Checkout(context.Background(), fullRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get products")
}

func TestCheckout_CreateError(t *testing.T) {
	f := newFixture(t, payment.NewSandbox())
	f.orders.createErr = errors.New("db write failed")

	_, err := f.svc.Checkout(context.Background(), fullRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create order")
}

func TestCheckout_PaymentFailure(t *testing.T) {
	// The digital order is the second one paid.
	f := newFixture(t, failingGateway{failOn: decimal.RequireFromString("514.60")})

	_, err := f.svc.Checkout(context.Background(), fullRequest())

	var pe *PaymentError
	require.ErrorAs(t, err, &pe)
	require.ErrorIs(t, err, payment.ErrDeclined)
	assert.False(t, errs.IsState(err))

	stored, err := f.orders.Get(context.Background(), pe.OrderID)
	require.NoError(t, err)
	assert.Equal(t, order.KindDigital, stored.Kind())
	assert.Equal(t, order.StatusPending, stored.Status())
	assert.Equal(t, 1, f.orders.updates, "only the physical order was paid")
}

func TestCheckout_NotifierErrorIgnored(t *testing.T) {
	f := newFixture(t, payment.NewSandbox())
	f.notifier.err = errors.New("broker down")

	res, err := f.svc.Checkout(context.Background(), testRequest(LineItem{ProductID: "album", Quantity: 1}))
	require.NoError(t, err)
	assert.Len(t, res.Orders, 1)
}

func TestCheckout_DigitalBelowVoucher(t *testing.T) {
	gw := payment.NewRetrying(payment.NewSandbox(), payment.RetryConfig{
		MaxRetries:      3,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
	})
	f := newFixture(t, gw)

	res, err := f.svc.Checkout(context.Background(), testRequest(LineItem{ProductID: "album", Quantity: 1}))
	require.NoError(t, err)
	require.Len(t, res.Orders, 1)

	o := res.Orders[0]
	assert.Equal(t, order.StatusUnsent, o.Status())
	assert.Equal(t, "-5.00", o.GrandTotal().StringFixed(2))
	rc, ok := o.Receipt()
	require.True(t, ok)
	assert.True(t, rc.Amount.IsZero())
	assert.Equal(t, 1, f.orders.updates)
	assert.Equal(t, []order.EventType{order.EventPlaced, order.EventPaid}, f.notifier.types())
}

func TestCheckout_SingleDigitalItem(t *testing.T) {
	f := newFixture(t, payment.NewSandbox())

	res, err := f.svc.Checkout(context.Background(), testRequest(LineItem{ProductID: "game", Quantity: 1}))
	require.NoError(t, err)
	require.Len(t, res.Orders, 1)

	o := res.Orders[0]
	assert.Equal(t, order.StatusUnsent, o.Status())
	assert.Equal(t, "119.90", o.GrandTotal().StringFixed(2))
	rc, ok := o.Receipt()
	require.True(t, ok)
	assert.Equal(t, "119.90", rc.Amount.StringFixed(2))
	assert.NotEmpty(t, rc.TransactionID)
}

// staleOrderRepo serves a fixed snapshot from Get, as a request that loaded
// the order before another one changed it would see.
type staleOrderRepo struct {
	*mockOrderRepo
	stale order.Snapshot
}

func (r *staleOrderRepo) Get(context.Context, string) (*order.Order, error) {
	return order.Restore(r.stale)
}

func TestService_ConcurrentTransition(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, payment.NewSandbox())

	res, err := f.svc.Checkout(ctx, fullRequest())
	require.NoError(t, err)
	id := res.Orders[0].ID()
	_, err = f.svc.Fulfill(ctx, id)
	require.NoError(t, err)

	f.orders.mu.Lock()
	shipped := f.orders.snapshots[id]
	f.orders.mu.Unlock()

	// The first request completes the order.
	o, err := f.svc.Complete(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, order.StatusDelivered, o.Status())

	// The second one still holds the shipped order.
	notifier := &mockNotifier{}
	racing, err := NewService(f.products, &staleOrderRepo{mockOrderRepo: f.orders, stale: shipped},
		payment.NewSandbox(), nil, notifier,
		WithMeterProvider(metricnoop.NewMeterProvider()),
		WithTracerProvider(tracenoop.NewTracerProvider()),
	)
	require.NoError(t, err)

	_, err = racing.Complete(ctx, id)
	require.ErrorIs(t, err, order.ErrConcurrentUpdate)
	assert.True(t, errs.IsState(err))
	assert.Empty(t, notifier.events)

	stored, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, order.StatusDelivered, stored.Status())

	var completed int
	for _, typ := range f.notifier.types() {
		if typ == order.EventCompleted {
			completed++
		}
	}
	assert.Equal(t, 1, completed)
}

func TestService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, payment.NewSandbox())

	res, err := f.svc.Checkout(ctx, fullRequest())
	require.NoError(t, err)
	physicalID := res.Orders[0].ID()
	subscriptionID := res.Orders[2].ID()

	t.Run("complete before fulfill", func(t *testing.T) {
		_, err := f.svc.Complete(ctx, physicalID)
		require.EqualError(t, err, "Order must have been shipped/sent and confirmed, before it can be completed")
		assert.True(t, errs.IsState(err))
	})

	t.Run("fulfill then complete", func(t *testing.T) {
		o, err := f.svc.Fulfill(ctx, physicalID)
		require.NoError(t, err)
		assert.Equal(t, order.StatusShipped, o.Status())

		o, err = f.svc.Complete(ctx, physicalID)
		require.NoError(t, err)
		assert.Equal(t, order.StatusDelivered, o.Status())

		stored, err := f.svc.Get(ctx, physicalID)
		require.NoError(t, err)
		assert.Equal(t, order.StatusDelivered, stored.Status())
	})

	t.Run("subscription complete is a no-op once activated", func(t *testing.T) {
		o, err := f.svc.Fulfill(ctx, subscriptionID)
		require.NoError(t, err)
		assert.Equal(t, order.StatusActivated, o.Status())

		before := len(f.notifier.events)
		o, err = f.svc.Complete(ctx, subscriptionID)
		require.NoError(t, err)
		assert.Equal(t, order.StatusActivated, o.Status())
		assert.Len(t, f.notifier.events, before, "no event for a no-op")
	})

	t.Run("invoice", func(t *testing.T) {
		inv, err := f.svc.Invoice(ctx, physicalID)
		require.NoError(t, err)
		assert.Equal(t, "3276.14", inv.GrandTotal.StringFixed(2))
		assert.Len(t, inv.Parcels, 2)
		assert.NotEmpty(t, inv.TransactionID)
	})

	t.Run("unknown order", func(t *testing.T) {
		_, err := f.svc.Fulfill(ctx, "missing")
		require.ErrorIs(t, err, order.ErrNotFound)

		_, err = f.svc.Invoice(ctx, "missing")
		require.ErrorIs(t, err, order.ErrNotFound)
	})
}
