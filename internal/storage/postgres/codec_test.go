package postgres

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/kart-orders/internal/domain/account"
	"github.com/xenking/kart-orders/internal/domain/errs"
	"github.com/xenking/kart-orders/internal/domain/order"
	"github.com/xenking/kart-orders/internal/domain/payment"
	"github.com/xenking/kart-orders/internal/domain/product"
)

func TestItemsCodec(t *testing.T) {
	items := []product.Item{
		product.MustNewItem(product.MustNew("Nier:Automata", product.Digital, "129.90").WithID("game"), 4),
		product.MustNewItem(product.MustNew("Stairway to Heaven", product.Digital, "5.00").WithID("album"), 1),
	}

	data := encodeItems(items)
	assert.JSONEq(t, `[
		{"product_id":"game","name":"Nier:Automata","type":"DIGITAL","price":"129.90","quantity":4},
		{"product_id":"album","name":"Stairway to Heaven","type":"DIGITAL","price":"5.00","quantity":1}
	]`, string(data))

	got, err := decodeItems(data)
	require.NoError(t, err)
	assert.Equal(t, items, got)
}

func TestDecodeItems_Invalid(t *testing.T) {
	_, err := decodeItems([]byte(`[{"product_id":"x","name":"x","type":"DIGITAL","price":"1.00","quantity":0}]`))
	require.Error(t, err)
	assert.True(t, errs.IsInvariant(err))

	_, err = decodeItems([]byte(`{"not":"an array"}`))
	require.Error(t, err)
}

func TestFeesCodec(t *testing.T) {
	fees := order.Fees{
		order.FeeShippingAndHandling: decimal.RequireFromString("20.00"),
		order.FeeImportationTaxes:    decimal.Zero,
	}

	got, err := decodeFees(encodeFees(fees))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "20.00", got[order.FeeShippingAndHandling].StringFixed(2))
	assert.True(t, got[order.FeeImportationTaxes].IsZero())

	empty, err := decodeFees(encodeFees(nil))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestAddressCodec(t *testing.T) {
	assert.Nil(t, encodeAddress(account.Address{}))

	zero, err := decodeAddress(nil)
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	addr, err := account.NewAddress("Brazil", "Av Paulista, 1000", "01000-000", "Sao Paulo", "SP")
	require.NoError(t, err)

	got, err := decodeAddress(encodeAddress(addr))
	require.NoError(t, err)
	assert.Equal(t, addr, got)

	_, err = decodeAddress([]byte(`{"country":"Brazil"}`))
	require.EqualError(t, err, "decode address: Street address cannot be empty")
}

func TestPaymentAndReceiptCodec(t *testing.T) {
	assert.Nil(t, encodePayment(nil))
	assert.Nil(t, encodeReceipt(nil))

	addr, err := account.NewAddress("Brazil", "Av Paulista, 1000", "01000-000", "Sao Paulo", "SP")
	require.NoError(t, err)
	stored := &payment.Stored{MethodKind: "credit_card", Reference: "************1111", Billing: addr}

	gotPay, err := decodePayment(encodePayment(stored))
	require.NoError(t, err)
	assert.Equal(t, stored, gotPay)

	rc := &payment.Receipt{
		TransactionID: "tx-1",
		Amount:        decimal.RequireFromString("514.60"),
		ChargedAt:     time.Date(2026, time.March, 1, 10, 30, 0, 123, time.UTC),
	}
	gotRc, err := decodeReceipt(encodeReceipt(rc))
	require.NoError(t, err)
	assert.Equal(t, rc.TransactionID, gotRc.TransactionID)
	assert.True(t, rc.Amount.Equal(gotRc.Amount))
	assert.True(t, rc.ChargedAt.Equal(gotRc.ChargedAt))
}
