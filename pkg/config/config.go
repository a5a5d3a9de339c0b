// Package config loads outbox settings from the environment.
package config

import (
	"io"
	"text/tabwriter"
	"time"

	"github.com/inbucket/outbox/pkg/session"
	"github.com/kelseyhightower/envconfig"
)

const (
	prefix      = "outbox"
	tableFormat = `Outbox is configured via the environment. The following environment
variables can be used:

KEY	DEFAULT	REQUIRED	DESCRIPTION
{{range .}}{{usage_key .}}	{{usage_default .}}	{{usage_required .}}	{{usage_description .}}
{{end}}`
)

var (
	// Version of this build, set by main
	Version = ""

	// BuildDate for this build, set by main
	BuildDate = ""
)

// Root wraps all other configurations.
type Root struct {
	LogLevel string `required:"true" default:"INFO" desc:"DEBUG, INFO, WARN, or ERROR"`
	SMTP     SMTP
	POP3     POP3
	Web      Web
}

// SMTP contains the outbound transport configuration.
type SMTP struct {
	Host                string        `desc:"Relay host name"`
	Port                int           `required:"true" default:"25" desc:"Plain SMTP port"`
	SSLPort             int           `required:"true" default:"465" desc:"SMTPS port"`
	SSLOnConnect        bool          `default:"false" desc:"Use TLS from connect (SMTPS)"`
	StartTLS            bool          `default:"false" desc:"Use STARTTLS when offered"`
	StartTLSRequired    bool          `default:"false" desc:"Fail unless STARTTLS is offered"`
	CheckServerIdentity bool          `default:"true" desc:"Verify the relay certificate"`
	SendPartial         bool          `default:"false" desc:"Deliver despite rejected recipients"`
	BounceAddress       string        `desc:"Envelope sender for bounces"`
	Username            string        `desc:"SMTP AUTH user name"`
	Password            string        `desc:"SMTP AUTH password"`
	Timeout             time.Duration `required:"true" default:"60s" desc:"Socket read/write timeout"`
	ConnectTimeout      time.Duration `required:"true" default:"60s" desc:"Socket connect timeout"`
	Debug               bool          `default:"false" desc:"Log the SMTP conversation"`
	LocalName           string        `desc:"EHLO name, defaults to localhost"`
}

// POP3 contains the POP-before-SMTP configuration.
type POP3 struct {
	Enabled  bool   `default:"false" desc:"Log into POP3 before sending"`
	Host     string `desc:"POP3 host[:port]"`
	Username string `desc:"POP3 user name"`
	Password string `desc:"POP3 password"`
}

// Web contains the HTTP server configuration.
type Web struct {
	Addr string `required:"true" default:"127.0.0.1:9025" desc:"REST server IP4 host:port"`
}

// Process loads and parses configuration from the environment.
func Process() (*Root, error) {
	c := &Root{}
	err := envconfig.Process(prefix, c)
	return c, err
}

// Usage writes the envconfig usage table to w.
func Usage(w io.Writer) error {
	tabs := tabwriter.NewWriter(w, 1, 0, 4, ' ', 0)
	if err := envconfig.Usagef(prefix, &Root{}, tabs, tableFormat); err != nil {
		return err
	}
	return tabs.Flush()
}

// Options converts the SMTP and POP3 sections into builder transport options.
func (c *Root) Options() session.Options {
	s := c.SMTP
	opts := session.Options{
		Host:                    s.Host,
		SMTPPort:                s.Port,
		SSLPort:                 s.SSLPort,
		SSLOnConnect:            s.SSLOnConnect,
		StartTLSEnabled:         s.StartTLS,
		StartTLSRequired:        s.StartTLSRequired,
		SendPartial:             s.SendPartial,
		SSLCheckServerIdentity:  s.CheckServerIdentity,
		BounceAddress:           s.BounceAddress,
		SocketTimeout:           int(s.Timeout / time.Millisecond),
		SocketConnectionTimeout: int(s.ConnectTimeout / time.Millisecond),
		Debug:                   s.Debug,
		POPBeforeSMTP: session.POPBeforeSMTP{
			Enabled:  c.POP3.Enabled,
			Host:     c.POP3.Host,
			Username: c.POP3.Username,
			Password: c.POP3.Password,
		},
	}
	if s.Username != "" {
		opts.Credentials = &session.Credentials{Username: s.Username, Password: s.Password}
	}
	return opts
}
