// Package stringutil renders address lists into the string forms used by headers, logs and
// JSON responses.
package stringutil

import (
	"net/mail"
	"strings"
)

// StringAddressList converts a list of addresses to a list of strings
func StringAddressList(addrs []mail.Address) []string {
	s := make([]string, len(addrs))
	for i := range addrs {
		s[i] = addrs[i].String()
	}
	return s
}

// JoinAddresses formats addresses as a single comma separated header value.
func JoinAddresses(addrs []mail.Address) string {
	return strings.Join(StringAddressList(addrs), ", ")
}

// AddressEmails returns the bare addr-spec of each address, suitable for an SMTP envelope.
func AddressEmails(addrs ...[]mail.Address) []string {
	n := 0
	for _, l := range addrs {
		n += len(l)
	}
	s := make([]string, 0, n)
	for _, l := range addrs {
		for _, a := range l {
			s = append(s, a.Address)
		}
	}
	return s
}
