// Package policy holds the rules outbound addresses must satisfy before they are accepted
// into a message.
package policy

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"strings"

	"golang.org/x/net/idna"
)

const (
	maxAddressLen = 320
	maxLocalLen   = 128
	maxDomainLen  = 255
	maxLabelLen   = 63

	// Characters RFC3696 permits in an unquoted local-part, in addition to letters and digits.
	atextSpecials = "!#$%&'*+-/=?^_`{|}~"
)

// ErrMissingDomain is returned for an address without a domain part; outbound mail cannot be
// routed to a bare mailbox name.
var ErrMissingDomain = errors.New("address has no domain part")

// ParseEmailAddress unescapes an email address, and splits the local part from the domain part.
// An error is returned if the local or domain parts fail validation following the guidelines
// in RFC3696. Internationalized domains are checked in their ASCII form, and bracketed IP
// address literals are accepted.
func ParseEmailAddress(address string) (local string, domain string, err error) {
	local, domain, err = splitAddress(address)
	if err != nil {
		return "", "", err
	}
	if domain == "" {
		return "", "", ErrMissingDomain
	}
	if !ValidateDomain(domain) {
		return "", "", fmt.Errorf("Domain part %q failed validation", domain)
	}
	return local, domain, nil
}

// ValidateDomain accepts a hostname (converted with IDNA when it contains non-ASCII
// characters) or an address literal such as [192.0.2.1] or [IPv6:2001:db8::1].
func ValidateDomain(domain string) bool {
	if strings.HasPrefix(domain, "[") {
		return validateDomainLiteral(domain)
	}
	if !isASCII(domain) {
		ascii, err := idna.Lookup.ToASCII(domain)
		if err != nil {
			return false
		}
		domain = ascii
	}
	return ValidateDomainPart(domain)
}

// ValidateDomainPart returns true if the domain part complies to RFC3696, RFC1035.
func ValidateDomainPart(domain string) bool {
	if len(domain) == 0 || len(domain) > maxDomainLen {
		return false
	}
	for _, label := range strings.Split(strings.TrimSuffix(domain, "."), ".") {
		if !validLabel(label) {
			return false
		}
	}
	return true
}

// validLabel checks a single dot-separated domain label.
func validLabel(label string) bool {
	if label == "" || len(label) > maxLabelLen {
		return false
	}
	if label[0] == '-' || label[len(label)-1] == '-' {
		return false
	}
	alnum := false
	for i := 0; i < len(label); i++ {
		c := label[i]
		switch {
		case isAlpha(c) || isDigit(c) || c == '_':
			alnum = true
		case c == '-':
		default:
			return false
		}
	}
	return alnum
}

func validateDomainLiteral(domain string) bool {
	if !strings.HasSuffix(domain, "]") {
		return false
	}
	inner := domain[1 : len(domain)-1]
	if v6, ok := strings.CutPrefix(inner, "IPv6:"); ok {
		ip := net.ParseIP(v6)
		return ip != nil && ip.To4() == nil
	}
	ip := net.ParseIP(inner)
	return ip != nil && ip.To4() != nil
}

// splitAddress unescapes the local part and separates it from the (unvalidated) domain.
func splitAddress(address string) (local string, domain string, err error) {
	switch {
	case address == "":
		return "", "", errors.New("empty address")
	case len(address) > maxAddressLen:
		return "", "", fmt.Errorf("address exceeds %d characters", maxAddressLen)
	case address[0] == '@':
		return "", "", errors.New("address cannot start with @ symbol")
	case address[0] == '.':
		return "", "", errors.New("address cannot start with a period")
	}
	s := &localScanner{prev: '.'}
	for i := 0; i < len(address); i++ {
		done, err := s.next(address[i], i)
		if err != nil {
			return "", "", err
		}
		if done {
			domain = address[i+1:]
			break
		}
	}
	if s.charQuote {
		return "", "", errors.New("Cannot end address with unterminated quoted-pair")
	}
	if s.stringQuote {
		return "", "", errors.New("Cannot end address with unterminated string quote")
	}
	return s.buf.String(), domain, nil
}

// localScanner walks the local-part one byte at a time, tracking quoting state.
type localScanner struct {
	buf         bytes.Buffer
	prev        byte
	charQuote   bool // Previous byte was a backslash.
	stringQuote bool // Inside a "quoted string".
}

// next consumes c at offset i, returning true once the unquoted @ separator is reached.
func (s *localScanner) next(c byte, i int) (bool, error) {
	quoted := s.charQuote || s.stringQuote
	switch {
	case isAlpha(c) || isDigit(c) || strings.IndexByte(atextSpecials, c) >= 0:
		s.buf.WriteByte(c)
		s.charQuote = false
	case c == '.':
		if s.prev == '.' && !quoted {
			return false, errors.New("Sequence of periods is not permitted")
		}
		s.buf.WriteByte(c)
		s.charQuote = false
	case c == '\\' && !s.charQuote:
		s.charQuote = true
	case c == '"':
		switch {
		case s.charQuote:
			s.buf.WriteByte(c)
			s.charQuote = false
		case s.stringQuote:
			s.stringQuote = false
		case i == 0:
			s.stringQuote = true
		default:
			return false, errors.New("Quoted string can only begin at start of address")
		}
	case c == '@' && !quoted:
		if i > maxLocalLen {
			return false, fmt.Errorf("Local part must not exceed %d characters", maxLocalLen)
		}
		if s.prev == '.' {
			return false, errors.New("Local part cannot end with a period")
		}
		return true, nil
	case c > 127:
		return false, errors.New("Characters outside of US-ASCII range not permitted")
	default:
		if !quoted {
			return false, fmt.Errorf("Character %q must be quoted", c)
		}
		s.buf.WriteByte(c)
		s.charQuote = false
	}
	s.prev = c
	return false, nil
}

func isAlpha(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			return false
		}
	}
	return true
}
