package session

import "strconv"

// Defaults applied by DefaultOptions.
const (
	DefaultSMTPPort = 25
	DefaultSSLPort  = 465
	DefaultTimeout  = 60000 // milliseconds
)

// Options is the flat set of transport settings a message builder accumulates. Numeric
// options that are zero or negative are treated as unset.
type Options struct {
	Host                    string
	SMTPPort                int
	SSLPort                 int
	SSLOnConnect            bool
	StartTLSEnabled         bool
	StartTLSRequired        bool
	SendPartial             bool
	SSLCheckServerIdentity  bool
	BounceAddress           string
	SocketTimeout           int // milliseconds
	SocketConnectionTimeout int // milliseconds
	Debug                   bool
	Credentials             *Credentials
	POPBeforeSMTP           POPBeforeSMTP
}

// POPBeforeSMTP holds the mailbox login performed before SMTP relay is attempted.
type POPBeforeSMTP struct {
	Enabled  bool
	Host     string
	Username string
	Password string
}

// DefaultOptions returns the options a new builder starts with.
func DefaultOptions() Options {
	return Options{
		SMTPPort:                DefaultSMTPPort,
		SSLPort:                 DefaultSSLPort,
		SocketTimeout:           DefaultTimeout,
		SocketConnectionTimeout: DefaultTimeout,
	}
}

// Properties maps the options onto transport property keys.
func (o Options) Properties() (map[string]string, error) {
	if o.Host == "" {
		return nil, ErrMissingHostName
	}
	props := map[string]string{
		Host:              o.Host,
		TransportProtocol: "smtp",
		Debug:             strconv.FormatBool(o.Debug),
		StartTLSEnable:    strconv.FormatBool(o.StartTLSEnabled),
		StartTLSRequired:  strconv.FormatBool(o.StartTLSRequired),
		SendPartial:       strconv.FormatBool(o.SendPartial),
		SMTPSSendPartial:  strconv.FormatBool(o.SendPartial),
	}
	setPositive(props, Port, o.SMTPPort)
	if o.Credentials != nil {
		props[Auth] = "true"
	}
	if o.SSLOnConnect {
		setPositive(props, Port, o.SSLPort)
		setPositive(props, SocketFactoryPort, o.SSLPort)
		props[SocketFactoryClass] = SSLSocketFactory
		props[SocketFactoryFallback] = "false"
	}
	if o.SSLOnConnect || o.StartTLSEnabled {
		props[SSLCheckServerIdentity] = strconv.FormatBool(o.SSLCheckServerIdentity)
	}
	if o.BounceAddress != "" {
		props[BounceFrom] = o.BounceAddress
	}
	setPositive(props, Timeout, o.SocketTimeout)
	setPositive(props, ConnectionTimeout, o.SocketConnectionTimeout)
	return props, nil
}

// setPositive writes n under key only when it is greater than zero.
func setPositive(props map[string]string, key string, n int) {
	if n > 0 {
		props[key] = strconv.Itoa(n)
	}
}
