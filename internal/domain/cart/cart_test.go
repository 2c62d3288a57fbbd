package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/kart-orders/internal/domain/account"
	"github.com/xenking/kart-orders/internal/domain/errs"
	"github.com/xenking/kart-orders/internal/domain/order"
	"github.com/xenking/kart-orders/internal/domain/product"
)

var (
	console     = product.MustNew("PS4 Slim 1TB", product.Physical, "1899.00")
	chair       = product.MustNew("PDP Chair", product.Physical, "399.00")
	book        = product.MustNew("Cracking the Code Interview", product.PhysicalTaxFree, "219.57")
	anotherBook = product.MustNew("The Hitchhiker's Guide", product.PhysicalTaxFree, "120.00")
	album       = product.MustNew("Stairway to Heaven", product.Digital, "5.00")
	game        = product.MustNew("Nier:Automata", product.Digital, "129.90")
	netflix     = product.MustNew("Netflix Familiar Plan", product.Subscription, "29.90")
	spotify     = product.MustNew("Spotify Premium", product.Subscription, "14.90")
	amazon      = product.MustNew("Amazon Prime", product.Subscription, "12.90")
	notInCart   = product.MustNew("lorem ipsum", product.Physical, "19.90")
)

func fullCart(t *testing.T) *Cart {
	t.Helper()
	c := New()
	for _, e := range []struct {
		p   product.Product
		qty int
	}{
		{console, 1}, {chair, 2}, {book, 2}, {anotherBook, 1},
		{album, 1}, {game, 4},
		{netflix, 1}, {spotify, 1}, {amazon, 1},
	} {
		require.NoError(t, c.Add(e.p, e.qty))
	}
	return c
}

func quantityOf(t *testing.T, c *Cart, p product.Product) int {
	t.Helper()
	it, ok := c.Item(p)
	require.True(t, ok, "%s not in cart", p.Name())
	return it.Quantity()
}

func TestCart_Add(t *testing.T) {
	t.Run("rejects non-positive quantity", func(t *testing.T) {
		c := New()
		err := c.Add(product.MustNew("product", product.Physical, "1.90"), 0)
		require.EqualError(t, err, "Quantity must be greaterThan 0")
		assert.True(t, errs.IsInvariant(err))
		assert.Zero(t, c.Len())
	})

	t.Run("adds up an existing product", func(t *testing.T) {
		c := fullCart(t)
		require.NoError(t, c.Add(product.MustNew("Nier:Automata", product.Digital, "129.90"), 10))
		assert.Equal(t, 14, quantityOf(t, c, game))
		assert.Equal(t, 9, c.Len())
	})

	t.Run("same product at another price is the same entry", func(t *testing.T) {
		c := New()
		require.NoError(t, c.Add(album, 1))
		require.NoError(t, c.Add(product.MustNew("Stairway to Heaven", product.Digital, "7.00"), 10))
		assert.Equal(t, 1, c.Len())
		assert.Equal(t, 11, quantityOf(t, c, album))
	})

	t.Run("non-positive quantity on an existing product is rejected", func(t *testing.T) {
		c := New()
		require.NoError(t, c.Add(album, 5))
		for _, qty := range []int{0, -3, -5} {
			require.EqualError(t, c.Add(album, qty), "Quantity must be greaterThan 0", "qty %d", qty)
		}
		assert.Equal(t, 5, quantityOf(t, c, album))
	})
}

func TestCart_UpdateQuantity(t *testing.T) {
	tests := []struct {
		name    string
		p       product.Product
		qty     int
		wantQty int
		gone    bool
		wantErr string
	}{
		{name: "overwrites", p: game, qty: 2, wantQty: 2},
		{name: "zero deletes", p: game, qty: 0, gone: true},
		{name: "negative", p: game, qty: -1, wantQty: 4, wantErr: "Quantity must be equalTo or greaterThan 0"},
		{name: "not in cart", p: notInCart, qty: 4, gone: true, wantErr: "Product specified is not in the Cart"},
		{name: "zero on a missing product", p: notInCart, qty: 0, gone: true, wantErr: "Product specified is not in the Cart"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := fullCart(t)

			err := c.UpdateQuantity(tt.p, tt.qty)

			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				assert.True(t, errs.IsInvariant(err))
			} else {
				require.NoError(t, err)
			}
			it, ok := c.Item(tt.p)
			if tt.gone {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.wantQty, it.Quantity())
		})
	}
}

func TestCart_Delete(t *testing.T) {
	c := fullCart(t)

	require.NoError(t, c.Delete(game))
	_, ok := c.Item(game)
	assert.False(t, ok)
	assert.Equal(t, 8, c.Len())
	assert.NotContains(t, c.Items(), product.MustNewItem(game, 4))

	require.EqualError(t, c.Delete(notInCart), "Product specified is not in the Cart")
}

func TestCart_Items(t *testing.T) {
	c := New()
	require.NoError(t, c.Add(netflix, 1))
	require.NoError(t, c.Add(console, 1))
	require.NoError(t, c.Add(album, 1))
	require.NoError(t, c.Delete(console))
	require.NoError(t, c.Add(console, 3))

	items := c.Items()
	require.Len(t, items, 3)
	assert.Equal(t, netflix, items[0].Product())
	assert.Equal(t, album, items[1].Product())
	assert.Equal(t, console, items[2].Product())
}

func TestCart_Subtotal(t *testing.T) {
	assert.Equal(t, "3838.44", fullCart(t).Subtotal().StringFixed(2))
	assert.Equal(t, "0.00", New().Subtotal().StringFixed(2))
}

func TestCart_Checkout(t *testing.T) {
	acc, err := account.New("John", "john.doe@domain.suffix")
	require.NoError(t, err)

	t.Run("splits by kind", func(t *testing.T) {
		c := fullCart(t)

		orders, err := c.Checkout(acc)
		require.NoError(t, err)
		require.Len(t, orders, 5)

		assert.Equal(t, order.KindPhysical, orders[0].Kind())
		assert.Len(t, orders[0].Items(), 4)
		assert.Equal(t, "3256.14", orders[0].Subtotal().StringFixed(2))

		assert.Equal(t, order.KindDigital, orders[1].Kind())
		assert.Equal(t, "524.60", orders[1].Subtotal().StringFixed(2))

		for i, want := range []product.Product{netflix, spotify, amazon} {
			o := orders[2+i]
			assert.Equal(t, order.KindSubscription, o.Kind())
			require.Len(t, o.Items(), 1)
			assert.Equal(t, want, o.Items()[0].Product())
		}
		for _, o := range orders {
			assert.Equal(t, acc, o.Account())
			assert.Equal(t, order.TierDraft, o.Status().Tier())
		}
	})

	t.Run("leaves the cart untouched", func(t *testing.T) {
		c := fullCart(t)
		before := c.Items()

		_, err := c.Checkout(acc)
		require.NoError(t, err)

		assert.Equal(t, before, c.Items())
		assert.Equal(t, "3838.44", c.Subtotal().StringFixed(2))
	})

	t.Run("skips empty groups", func(t *testing.T) {
		c := New()
		require.NoError(t, c.Add(album, 1))

		orders, err := c.Checkout(acc)
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, order.KindDigital, orders[0].Kind())
	})

	t.Run("empty cart", func(t *testing.T) {
		orders, err := New().Checkout(acc)
		require.NoError(t, err)
		assert.Empty(t, orders)
	})
}
