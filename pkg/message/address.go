package message

import (
	"net/mail"

	"github.com/inbucket/outbox/pkg/policy"
)

// ParseAddress parses a single RFC 5322 address, with or without a display name, and checks
// the addr-spec against the outbound address policy.
func ParseAddress(address string) (mail.Address, error) {
	a, err := mail.ParseAddress(address)
	if err != nil {
		return mail.Address{}, &AddressError{Address: address, Err: err}
	}
	if err := validateAddress(*a); err != nil {
		return mail.Address{}, err
	}
	return *a, nil
}

// NewAddress parses email and attaches name as the display name when name is not empty.
func NewAddress(email, name string) (mail.Address, error) {
	a, err := ParseAddress(email)
	if err != nil {
		return mail.Address{}, err
	}
	if name != "" {
		a.Name = name
	}
	return a, nil
}

func validateAddress(a mail.Address) error {
	if _, _, err := policy.ParseEmailAddress(a.Address); err != nil {
		return &AddressError{Address: a.Address, Err: err}
	}
	return nil
}

// AddressList is an append-only, ordered list of validated addresses.
type AddressList struct {
	addrs []mail.Address
}

// Add parses and appends addresses. Either every address is appended or none is.
func (l *AddressList) Add(addresses ...string) error {
	if len(addresses) == 0 {
		return ErrInvalidAddressList
	}
	parsed := make([]mail.Address, len(addresses))
	for i, s := range addresses {
		a, err := ParseAddress(s)
		if err != nil {
			return err
		}
		parsed[i] = a
	}
	l.addrs = append(l.addrs, parsed...)
	return nil
}

// AddAddress validates and appends already structured addresses, all or none.
func (l *AddressList) AddAddress(addresses ...mail.Address) error {
	if len(addresses) == 0 {
		return ErrInvalidAddressList
	}
	for _, a := range addresses {
		if err := validateAddress(a); err != nil {
			return err
		}
	}
	l.addrs = append(l.addrs, addresses...)
	return nil
}

// Len returns the number of addresses.
func (l *AddressList) Len() int {
	return len(l.addrs)
}

// Addresses returns a copy of the list.
func (l *AddressList) Addresses() []mail.Address {
	if len(l.addrs) == 0 {
		return nil
	}
	return append([]mail.Address(nil), l.addrs...)
}
