package message

import (
	"errors"
	"fmt"
)

// Validation failures with fixed messages. ErrAlreadyBuilt is a panic value, the others are
// returned.
var (
	ErrInvalidAddress     = errors.New("invalid address")
	ErrInvalidAddressList = errors.New("Address List provided was invalid")
	ErrInvalidHeaderName  = errors.New("name can not be null or empty")
	ErrInvalidHeaderValue = errors.New("value can not be null or empty")
	ErrInvalidPort        = errors.New("Cannot connect to a port number that is less than 1")
	ErrInvalidCharset     = errors.New("unsupported charset")
	ErrNoMailSession      = errors.New("no mail session supplied")
	ErrMissingFrom        = errors.New("From address required")
	ErrMissingRecipient   = errors.New("At least one receiver address required")
	ErrAlreadyBuilt       = errors.New("The MimeMessage is already built.")
)

// AddressError reports an address that failed to parse or validate.
type AddressError struct {
	Address string
	Err     error
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("Illegal address %q: %v", e.Address, e.Err)
}

func (e *AddressError) Unwrap() error {
	return e.Err
}

// Is matches ErrInvalidAddress.
func (e *AddressError) Is(target error) bool {
	return target == ErrInvalidAddress
}
