package account

import (
	"strings"

	"github.com/xenking/kart-orders/internal/domain/errs"
)

// Address is an immutable postal address. Build one with NewAddressBuilder.
type Address struct {
	country       string
	streetAddress string
	zipCode       string
	city          string
	state         string
}

// NewAddress validates every field and returns an Address. Fields are used
// as given; AddressBuilder trims them first.
func NewAddress(country, streetAddress, zipCode, city, state string) (Address, error) {
	switch {
	case country == "":
		return Address{}, errs.Invariant("Country cannot be empty")
	case streetAddress == "":
		return Address{}, errs.Invariant("Street address cannot be empty")
	case zipCode == "":
		return Address{}, errs.Invariant("Postal code cannot be empty")
	case city == "":
		return Address{}, errs.Invariant("City cannot be empty")
	case state == "":
		return Address{}, errs.Invariant("State cannot be empty")
	}
	return Address{
		country:       country,
		streetAddress: streetAddress,
		zipCode:       zipCode,
		city:          city,
		state:         state,
	}, nil
}

func (a Address) Country() string       { return a.country }
func (a Address) StreetAddress() string { return a.streetAddress }
func (a Address) ZipCode() string       { return a.zipCode }
func (a Address) City() string          { return a.city }
func (a Address) State() string         { return a.state }

// IsZero reports whether a is the zero Address, i.e. was never built.
func (a Address) IsZero() bool {
	return a == Address{}
}

// AddressBuilder collects address fields, trimming each one, and validates
// them all in Build.
type AddressBuilder struct {
	country       string
	streetAddress string
	zipCode       string
	city          string
	state         string
}

// NewAddressBuilder returns an empty AddressBuilder.
func NewAddressBuilder() *AddressBuilder {
	return &AddressBuilder{}
}

func (b *AddressBuilder) WithCountry(country string) *AddressBuilder {
	b.country = strings.TrimSpace(country)
	return b
}

func (b *AddressBuilder) WithStreetAddress(streetAddress string) *AddressBuilder {
	b.streetAddress = strings.TrimSpace(streetAddress)
	return b
}

func (b *AddressBuilder) WithZipCode(zipCode string) *AddressBuilder {
	b.zipCode = strings.TrimSpace(zipCode)
	return b
}

func (b *AddressBuilder) WithCity(city string) *AddressBuilder {
	b.city = strings.TrimSpace(city)
	return b
}

func (b *AddressBuilder) WithState(state string) *AddressBuilder {
	b.state = strings.TrimSpace(state)
	return b
}

// Build validates the collected fields and returns the Address.
func (b *AddressBuilder) Build() (Address, error) {
	return NewAddress(b.country, b.streetAddress, b.zipCode, b.city, b.state)
}
