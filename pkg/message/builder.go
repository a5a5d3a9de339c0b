package message

import (
	"context"
	"mime"
	"net/mail"
	"time"

	"github.com/inbucket/outbox/pkg/session"
	"github.com/inbucket/outbox/pkg/transport/pop3"
	"github.com/rs/zerolog/log"
)

// State of a Builder.
type State int

const (
	// Open builders accept setters and may be built.
	Open State = iota
	// Built builders hold their message and reject further changes.
	Built
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case Built:
		return "built"
	}
	return "unknown"
}

// Builder accumulates addressing, headers, content and transport options, then produces a
// single immutable Message. A Builder is not safe for concurrent use.
type Builder struct {
	state       State
	from        *mail.Address
	to          AddressList
	cc          AddressList
	bcc         AddressList
	replyTo     AddressList
	headers     HeaderTable
	subject     string
	charset     string
	content     string
	contentType string
	sentDate    time.Time
	opts        session.Options
	sessions    session.Configurator
	injected    *session.Session
	popAuth     pop3.Authenticator
	message     *Message
}

// NewBuilder returns an open builder with default transport options.
func NewBuilder() *Builder {
	return &Builder{opts: session.DefaultOptions()}
}

// mustBeOpen panics when the builder has already produced its message.
func (b *Builder) mustBeOpen() {
	if b.state == Built {
		panic(ErrAlreadyBuilt)
	}
}

// SetFrom sets the author address.
func (b *Builder) SetFrom(address string) error {
	return b.SetFromName(address, "")
}

// SetFromName sets the author address with a display name.
func (b *Builder) SetFromName(address, name string) error {
	b.mustBeOpen()
	a, err := NewAddress(address, name)
	if err != nil {
		return err
	}
	b.from = &a
	return nil
}

// AddTo appends To recipients, all or none.
func (b *Builder) AddTo(addresses ...string) error {
	b.mustBeOpen()
	return b.to.Add(addresses...)
}

// AddToName appends a To recipient with a display name.
func (b *Builder) AddToName(address, name string) error {
	return b.addNamed(&b.to, address, name)
}

// AddCc appends Cc recipients, all or none.
func (b *Builder) AddCc(addresses ...string) error {
	b.mustBeOpen()
	return b.cc.Add(addresses...)
}

// AddCcName appends a Cc recipient with a display name.
func (b *Builder) AddCcName(address, name string) error {
	return b.addNamed(&b.cc, address, name)
}

// AddBcc appends Bcc recipients, all or none.
func (b *Builder) AddBcc(addresses ...string) error {
	b.mustBeOpen()
	return b.bcc.Add(addresses...)
}

// AddBccName appends a Bcc recipient with a display name.
func (b *Builder) AddBccName(address, name string) error {
	return b.addNamed(&b.bcc, address, name)
}

// AddReplyTo appends Reply-To addresses, all or none.
func (b *Builder) AddReplyTo(addresses ...string) error {
	b.mustBeOpen()
	return b.replyTo.Add(addresses...)
}

// AddReplyToName appends a Reply-To address with a display name.
func (b *Builder) AddReplyToName(address, name string) error {
	return b.addNamed(&b.replyTo, address, name)
}

func (b *Builder) addNamed(list *AddressList, address, name string) error {
	b.mustBeOpen()
	a, err := NewAddress(address, name)
	if err != nil {
		return err
	}
	return list.AddAddress(a)
}

// AddHeader sets a custom header. Adding an existing name replaces its value. Headers the
// builder writes itself, such as From, Date or Bcc, are kept in Headers but not rendered.
func (b *Builder) AddHeader(name, value string) error {
	b.mustBeOpen()
	return b.headers.Put(name, value)
}

// SetSubject sets the subject.
func (b *Builder) SetSubject(subject string) {
	b.mustBeOpen()
	b.subject = subject
}

// SetCharset sets the body charset. An empty name restores the default.
func (b *Builder) SetCharset(charset string) error {
	b.mustBeOpen()
	if charset != "" {
		if _, err := lookupCharset(charset); err != nil {
			return err
		}
	}
	b.charset = charset
	return nil
}

// SetContent sets the body and its media type. An empty contentType means text/plain.
func (b *Builder) SetContent(content, contentType string) error {
	b.mustBeOpen()
	if contentType != "" {
		if _, _, err := mime.ParseMediaType(contentType); err != nil {
			return err
		}
	}
	b.content = content
	b.contentType = contentType
	return nil
}

// SetMsg sets a text/plain body.
func (b *Builder) SetMsg(text string) {
	b.mustBeOpen()
	b.content = text
	b.contentType = defaultContentType
}

// SetSentDate sets the Date header. The zero time means the time of Build.
func (b *Builder) SetSentDate(date time.Time) {
	b.mustBeOpen()
	b.sentDate = date
}

// SetHostName sets the SMTP host.
func (b *Builder) SetHostName(host string) {
	b.mustBeOpen()
	b.opts.Host = host
}

// SetSMTPPort sets the plain SMTP port.
func (b *Builder) SetSMTPPort(port int) error {
	b.mustBeOpen()
	if port < 1 {
		return ErrInvalidPort
	}
	b.opts.SMTPPort = port
	return nil
}

// SetSSLSMTPPort sets the port used when SSL is negotiated on connect.
func (b *Builder) SetSSLSMTPPort(port int) error {
	b.mustBeOpen()
	if port < 1 {
		return ErrInvalidPort
	}
	b.opts.SSLPort = port
	return nil
}

// SetSSLOnConnect enables implicit TLS.
func (b *Builder) SetSSLOnConnect(enabled bool) {
	b.mustBeOpen()
	b.opts.SSLOnConnect = enabled
}

// SetStartTLSEnabled enables STARTTLS when the server offers it.
func (b *Builder) SetStartTLSEnabled(enabled bool) {
	b.mustBeOpen()
	b.opts.StartTLSEnabled = enabled
}

// SetStartTLSRequired fails delivery when the server does not offer STARTTLS.
func (b *Builder) SetStartTLSRequired(required bool) {
	b.mustBeOpen()
	b.opts.StartTLSRequired = required
}

// SetSendPartial allows delivery to continue past rejected recipients.
func (b *Builder) SetSendPartial(partial bool) {
	b.mustBeOpen()
	b.opts.SendPartial = partial
}

// SetSSLCheckServerIdentity verifies the server certificate against the host name.
func (b *Builder) SetSSLCheckServerIdentity(check bool) {
	b.mustBeOpen()
	b.opts.SSLCheckServerIdentity = check
}

// SetBounceAddress sets the envelope sender used in place of From.
func (b *Builder) SetBounceAddress(address string) {
	b.mustBeOpen()
	b.opts.BounceAddress = address
}

// SetSocketTimeout sets the per read/write timeout. Values under a millisecond unset it.
func (b *Builder) SetSocketTimeout(timeout time.Duration) {
	b.mustBeOpen()
	b.opts.SocketTimeout = int(timeout / time.Millisecond)
}

// SetSocketConnectionTimeout sets the connect timeout. Values under a millisecond unset it.
func (b *Builder) SetSocketConnectionTimeout(timeout time.Duration) {
	b.mustBeOpen()
	b.opts.SocketConnectionTimeout = int(timeout / time.Millisecond)
}

// SetDebug turns on protocol debugging in the session.
func (b *Builder) SetDebug(debug bool) {
	b.mustBeOpen()
	b.opts.Debug = debug
}

// SetAuthentication sets the SMTP AUTH credentials.
func (b *Builder) SetAuthentication(username, password string) {
	b.mustBeOpen()
	b.opts.Credentials = &session.Credentials{Username: username, Password: password}
}

// SetPopBeforeSMTP configures a POP3 login performed during Build.
func (b *Builder) SetPopBeforeSMTP(enabled bool, host, username, password string) {
	b.mustBeOpen()
	b.opts.POPBeforeSMTP = session.POPBeforeSMTP{
		Enabled:  enabled,
		Host:     host,
		Username: username,
		Password: password,
	}
}

// SetPOPAuthenticator replaces the POP3 client used for POP-before-SMTP.
func (b *Builder) SetPOPAuthenticator(auth pop3.Authenticator) {
	b.mustBeOpen()
	b.popAuth = auth
}

// SetMailSession supplies an existing session. Host and port settings are ignored afterward.
func (b *Builder) SetMailSession(s *session.Session) error {
	b.mustBeOpen()
	if s == nil {
		return ErrNoMailSession
	}
	b.injected = s
	return nil
}

// ApplyOptions replaces all transport options.
func (b *Builder) ApplyOptions(opts session.Options) {
	b.mustBeOpen()
	if opts.Credentials != nil {
		creds := *opts.Credentials
		opts.Credentials = &creds
	}
	b.opts = opts
}

// HostName reports the SMTP host. Once a session exists the host comes from it, so an
// injected session without a host property reads back absent.
func (b *Builder) HostName() (string, bool) {
	if s := b.currentSession(); s != nil {
		return s.Property(session.Host)
	}
	return b.opts.Host, b.opts.Host != ""
}

func (b *Builder) currentSession() *session.Session {
	if b.sessions.Resolved() {
		return b.sessions.Session()
	}
	return b.injected
}

// MailSession returns the transport session, configuring and caching it on first use.
func (b *Builder) MailSession() (*session.Session, error) {
	return b.sessions.Resolve(b.opts, b.injected)
}

// SentDate returns the set date, the date of the built message, or the current time.
func (b *Builder) SentDate() time.Time {
	if !b.sentDate.IsZero() {
		return b.sentDate
	}
	if b.message != nil {
		return b.message.date
	}
	return time.Now()
}

// SocketTimeout returns the configured read/write timeout.
func (b *Builder) SocketTimeout() time.Duration {
	return time.Duration(b.opts.SocketTimeout) * time.Millisecond
}

// SocketConnectionTimeout returns the configured connect timeout.
func (b *Builder) SocketConnectionTimeout() time.Duration {
	return time.Duration(b.opts.SocketConnectionTimeout) * time.Millisecond
}

// From returns the author address, if set.
func (b *Builder) From() (mail.Address, bool) {
	if b.from == nil {
		return mail.Address{}, false
	}
	return *b.from, true
}

// To returns a copy of the To recipients in insertion order.
func (b *Builder) To() []mail.Address { return b.to.Addresses() }

// Cc returns a copy of the Cc recipients in insertion order.
func (b *Builder) Cc() []mail.Address { return b.cc.Addresses() }

// Bcc returns a copy of the Bcc recipients in insertion order.
func (b *Builder) Bcc() []mail.Address { return b.bcc.Addresses() }

// ReplyTo returns a copy of the Reply-To addresses in insertion order.
func (b *Builder) ReplyTo() []mail.Address { return b.replyTo.Addresses() }

// Headers returns a copy of the custom headers keyed by name.
func (b *Builder) Headers() map[string]string { return b.headers.Map() }

// Subject returns the subject, empty when unset.
func (b *Builder) Subject() string { return b.subject }

// State returns Open until Build succeeds, then Built.
func (b *Builder) State() State { return b.state }

// Message returns the built message, or nil while the builder is open.
func (b *Builder) Message() *Message { return b.message }

// Build validates the accumulated state and produces the message. Calling Build on a built
// builder panics with ErrAlreadyBuilt. A failed Build leaves the builder open.
func (b *Builder) Build(ctx context.Context) (*Message, error) {
	b.mustBeOpen()
	sess, err := b.MailSession()
	if err != nil {
		return nil, err
	}
	if b.from == nil {
		return nil, ErrMissingFrom
	}
	if b.to.Len()+b.cc.Len()+b.bcc.Len() == 0 {
		return nil, ErrMissingRecipient
	}
	if pop := b.opts.POPBeforeSMTP; pop.Enabled {
		auth := b.popAuth
		if auth == nil {
			auth = &pop3.Client{Timeout: b.SocketConnectionTimeout()}
		}
		if err := auth.Authenticate(ctx, pop.Host, pop.Username, pop.Password); err != nil {
			log.Warn().Str("module", "message").Str("host", pop.Host).Err(err).
				Msg("POP before SMTP failed")
			return nil, err
		}
	}

	date := b.sentDate
	if date.IsZero() {
		date = time.Now()
	}
	contentType := b.contentType
	if contentType == "" {
		contentType = defaultContentType
	}
	msg := &Message{
		id:          newMessageID(b.from.Address),
		subject:     b.subject,
		content:     b.content,
		contentType: contentType,
		charset:     effectiveCharset(b.charset, contentType),
		from:        *b.from,
		to:          b.to.Addresses(),
		cc:          b.cc.Addresses(),
		bcc:         b.bcc.Addresses(),
		replyTo:     b.replyTo.Addresses(),
		headers:     b.headers.Entries(),
		date:        date,
		session:     sess,
	}
	if msg.source, err = render(msg); err != nil {
		return nil, err
	}

	b.message = msg
	b.state = Built
	log.Debug().Str("module", "message").Str("id", msg.id).Str("from", msg.from.Address).
		Int("recipients", len(msg.Recipients())).Int("size", len(msg.source)).
		Msg("Built message")
	return msg, nil
}
