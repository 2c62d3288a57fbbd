// Package payment describes how an order is paid for: the customer's payment
// method and the gateway that charges it.
package payment

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-orders/internal/domain/account"
	"github.com/xenking/kart-orders/internal/domain/errs"
)

var (
	// ErrDeclined is returned by a gateway that refused the charge.
	ErrDeclined = errors.New("payment declined")
	// ErrGatewayUnavailable is returned when no payment broker is configured.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	// ErrInvalidAmount is returned for a negative charge amount.
	ErrInvalidAmount = errors.New("invalid charge amount")
)

// Method is a way of paying for an order.
type Method interface {
	// BillingAddress is the address printed on the invoice.
	BillingAddress() account.Address
	// Kind names the method, e.g. "credit_card".
	Kind() string
}

// Receipt is the gateway's confirmation of a successful charge.
type Receipt struct {
	TransactionID string
	Amount        decimal.Decimal
	ChargedAt     time.Time
}

// Gateway charges a payment method.
type Gateway interface {
	Charge(ctx context.Context, m Method, amount decimal.Decimal) (Receipt, error)
}

// CreditCard is a card payment method.
type CreditCard struct {
	nameOnCard     string
	number         string
	securityCode   int
	expiresAt      time.Time
	billingAddress account.Address
}

var _ Method = CreditCard{}

// NewCreditCard validates the card fields. expiresYear and expiresMonth give
// the last month the card can be used.
func NewCreditCard(
	nameOnCard, number string,
	securityCode, expiresYear int,
	expiresMonth time.Month,
	billingAddress account.Address,
) (CreditCard, error) {
	switch {
	case strings.TrimSpace(nameOnCard) == "":
		return CreditCard{}, errs.Invariant("Name on card cannot be blank")
	case strings.TrimSpace(number) == "":
		return CreditCard{}, errs.Invariant("Card number cannot be blank")
	case securityCode < 0 || securityCode > 9999:
		return CreditCard{}, errs.Invariant("Security code is invalid")
	case expiresMonth < time.January || expiresMonth > time.December:
		return CreditCard{}, errs.Invariant("Expiration month is invalid")
	case billingAddress.IsZero():
		return CreditCard{}, errs.Invariant("Billing address must be informed")
	}
	return CreditCard{
		nameOnCard:     nameOnCard,
		number:         number,
		securityCode:   securityCode,
		expiresAt:      time.Date(expiresYear, expiresMonth, 1, 0, 0, 0, 0, time.UTC),
		billingAddress: billingAddress,
	}, nil
}

func (c CreditCard) Kind() string                    { return "credit_card" }
func (c CreditCard) BillingAddress() account.Address { return c.billingAddress }
func (c CreditCard) NameOnCard() string              { return c.nameOnCard }
func (c CreditCard) Number() string                  { return c.number }
func (c CreditCard) SecurityCode() int               { return c.securityCode }

// ExpiresAt returns the first day of the expiry month, in UTC.
func (c CreditCard) ExpiresAt() time.Time { return c.expiresAt }

// Expired reports whether the card can no longer be used at now.
func (c CreditCard) Expired(now time.Time) bool {
	return !now.UTC().Before(c.expiresAt.AddDate(0, 1, 0))
}

// MaskedNumber returns the card number with all but the last four digits
// hidden.
func (c CreditCard) MaskedNumber() string {
	digits := make([]byte, 0, len(c.number))
	for i := range len(c.number) {
		if ch := c.number[i]; ch >= '0' && ch <= '9' {
			digits = append(digits, ch)
		}
	}
	if len(digits) <= 4 {
		return string(digits)
	}
	return strings.Repeat("*", len(digits)-4) + string(digits[len(digits)-4:])
}

// Stored is a payment method read back from storage. It keeps what an invoice
// needs and nothing that could be charged again.
type Stored struct {
	MethodKind string
	Reference  string
	Billing    account.Address
}

var _ Method = Stored{}

func (s Stored) Kind() string                    { return s.MethodKind }
func (s Stored) BillingAddress() account.Address { return s.Billing }

// Store reduces m to its storable form. Card numbers are masked.
func Store(m Method) Stored {
	s := Stored{MethodKind: m.Kind(), Billing: m.BillingAddress()}
	switch v := m.(type) {
	case CreditCard:
		s.Reference = v.MaskedNumber()
	case Stored:
		s.Reference = v.Reference
	}
	return s
}
