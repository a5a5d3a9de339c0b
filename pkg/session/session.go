// Package session turns flat transport options into the property map that configures SMTP
// delivery, and caches the resulting Session for the lifetime of a message builder.
package session

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Property keys understood by the transport.
const (
	Host                   = "mail.smtp.host"
	Port                   = "mail.smtp.port"
	SocketFactoryPort      = "mail.smtp.socketFactory.port"
	SocketFactoryClass     = "mail.smtp.socketFactory.class"
	SocketFactoryFallback  = "mail.smtp.socketFactory.fallback"
	StartTLSEnable         = "mail.smtp.starttls.enable"
	StartTLSRequired       = "mail.smtp.starttls.required"
	SendPartial            = "mail.smtp.sendpartial"
	SMTPSSendPartial       = "mail.smtps.sendpartial"
	SSLCheckServerIdentity = "mail.smtp.ssl.checkserveridentity"
	BounceFrom             = "mail.smtp.from"
	Timeout                = "mail.smtp.timeout"
	ConnectionTimeout      = "mail.smtp.connectiontimeout"
	Auth                   = "mail.smtp.auth"
	TransportProtocol      = "mail.transport.protocol"
	Debug                  = "mail.debug"

	// SSLSocketFactory is the socket factory class name that marks SSL-on-connect.
	SSLSocketFactory = "javax.net.ssl.SSLSocketFactory"
)

// ErrMissingHostName is returned when a session must be configured but no host was set.
var ErrMissingHostName = errors.New("Cannot find valid hostname for mail session")

// Credentials authenticate the SMTP connection.
type Credentials struct {
	Username string
	Password string
}

// Session is a read-only bundle of transport properties. It is shared between a builder and
// the messages it produces, and is never modified after construction.
type Session struct {
	props       map[string]string
	credentials *Credentials
}

// New creates a Session from caller supplied properties. The map is copied.
func New(props map[string]string) *Session {
	return NewWithCredentials(props, nil)
}

// NewWithCredentials creates a Session carrying SMTP credentials.
func NewWithCredentials(props map[string]string, creds *Credentials) *Session {
	s := &Session{props: make(map[string]string, len(props))}
	for k, v := range props {
		s.props[k] = v
	}
	if creds != nil {
		c := *creds
		s.credentials = &c
	}
	return s
}

// Property returns the value of key, and whether it was present.
func (s *Session) Property(key string) (string, bool) {
	v, ok := s.props[key]
	return v, ok
}

// Bool returns true when key is present and set to "true".
func (s *Session) Bool(key string) bool {
	return strings.EqualFold(s.props[key], "true")
}

// Properties returns a copy of all properties.
func (s *Session) Properties() map[string]string {
	m := make(map[string]string, len(s.props))
	for k, v := range s.props {
		m[k] = v
	}
	return m
}

// Keys returns the property keys in sorted order.
func (s *Session) Keys() []string {
	keys := make([]string, 0, len(s.props))
	for k := range s.props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Credentials returns a copy of the SMTP credentials, or nil.
func (s *Session) Credentials() *Credentials {
	if s.credentials == nil {
		return nil
	}
	c := *s.credentials
	return &c
}

// String renders the properties as sorted key=value lines.
func (s *Session) String() string {
	b := &strings.Builder{}
	for _, k := range s.Keys() {
		fmt.Fprintf(b, "%s=%s\n", k, s.props[k])
	}
	return b.String()
}
