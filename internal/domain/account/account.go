// Package account holds the customer-facing value objects: the Account that
// places orders and the Address used for shipping and billing.
package account

import (
	"regexp"

	"github.com/xenking/kart-orders/internal/domain/errs"
)

var emailPattern = regexp.MustCompile(
	`^[a-zA-Z0-9+._%\-]{1,256}@[a-zA-Z0-9][a-zA-Z0-9\-]{0,64}(\.[a-zA-Z0-9][a-zA-Z0-9\-]{0,25})+$`,
)

// Account identifies the customer placing an order.
type Account struct {
	name  string
	email string
}

// New validates name and email and returns an Account.
func New(name, email string) (Account, error) {
	if name == "" {
		return Account{}, errs.Invariant("Name cannot be blank")
	}
	if !emailPattern.MatchString(email) {
		return Account{}, errs.Invariant("Invalid email address")
	}
	return Account{name: name, email: email}, nil
}

// Name returns the account holder's name.
func (a Account) Name() string { return a.name }

// Email returns the account holder's email address.
func (a Account) Email() string { return a.email }
