package smtp

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoSession is returned for messages built without a transport session.
	ErrNoSession = errors.New("message has no mail session")
	// ErrStartTLSRequired is returned when STARTTLS is required but not offered.
	ErrStartTLSRequired = errors.New("STARTTLS is required but not supported by the server")
	// ErrAllRecipientsRejected is returned when no recipient was accepted.
	ErrAllRecipientsRejected = errors.New("all recipients were rejected")
)

// RecipientError is one recipient refused by the server.
type RecipientError struct {
	Address string
	Err     error
}

func (e *RecipientError) Error() string {
	return fmt.Sprintf("recipient %s rejected: %v", e.Address, e.Err)
}

func (e *RecipientError) Unwrap() error {
	return e.Err
}

// PartialSendError reports a message delivered to only some of its recipients.
type PartialSendError struct {
	Sent     []string
	Rejected []*RecipientError
}

func (e *PartialSendError) Error() string {
	addrs := make([]string, len(e.Rejected))
	for i, r := range e.Rejected {
		addrs[i] = r.Address
	}
	return fmt.Sprintf("message sent to %d of %d recipients, rejected: %s",
		len(e.Sent), len(e.Sent)+len(e.Rejected), strings.Join(addrs, ", "))
}
