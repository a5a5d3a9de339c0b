// Package message builds immutable MIME messages from validated addressing, headers, content
// and transport options.
package message

import (
	"bytes"
	"io"
	"net/mail"
	"time"

	"github.com/inbucket/outbox/pkg/session"
	"github.com/inbucket/outbox/pkg/stringutil"
)

// Message is the immutable result of Builder.Build. Accessors return copies; the transport
// session is shared with the builder that produced it.
type Message struct {
	id          string
	subject     string
	charset     string
	content     string
	contentType string
	from        mail.Address
	to          []mail.Address
	cc          []mail.Address
	bcc         []mail.Address
	replyTo     []mail.Address
	headers     []Header
	date        time.Time
	session     *session.Session
	source      []byte
}

// ID returns the Message-ID header value, including angle brackets.
func (m *Message) ID() string { return m.id }

// Subject returns the subject.
func (m *Message) Subject() string { return m.subject }

// Charset returns the body charset.
func (m *Message) Charset() string { return m.charset }

// Content returns the body text as supplied to the builder.
func (m *Message) Content() string { return m.content }

// ContentType returns the body media type.
func (m *Message) ContentType() string { return m.contentType }

// From returns the author address.
func (m *Message) From() mail.Address { return m.from }

// To returns the To recipients.
func (m *Message) To() []mail.Address { return copyAddrs(m.to) }

// Cc returns the Cc recipients.
func (m *Message) Cc() []mail.Address { return copyAddrs(m.cc) }

// Bcc returns the Bcc recipients. They are part of the envelope but not the rendered headers.
func (m *Message) Bcc() []mail.Address { return copyAddrs(m.bcc) }

// ReplyTo returns the Reply-To addresses.
func (m *Message) ReplyTo() []mail.Address { return copyAddrs(m.replyTo) }

// Date returns the sent date.
func (m *Message) Date() time.Time { return m.date }

// Session returns the transport session the message was built with.
func (m *Message) Session() *session.Session { return m.session }

// Headers returns the custom headers in the order they were added.
func (m *Message) Headers() []Header {
	return append([]Header(nil), m.headers...)
}

// Header returns the value of a custom header.
func (m *Message) Header(name string) (string, bool) {
	for _, h := range m.headers {
		if h.Name == name {
			return h.Value, true
		}
	}
	return "", false
}

// Recipients returns the envelope recipients: To, then Cc, then Bcc.
func (m *Message) Recipients() []string {
	return stringutil.AddressEmails(m.to, m.cc, m.bcc)
}

// ReversePath returns the envelope sender: the session bounce address when present,
// otherwise the From address.
func (m *Message) ReversePath() string {
	if m.session != nil {
		if bounce, ok := m.session.Property(session.BounceFrom); ok && bounce != "" {
			return bounce
		}
	}
	return m.from.Address
}

// Source returns a copy of the rendered RFC 5322 message.
func (m *Message) Source() []byte {
	return append([]byte(nil), m.source...)
}

// Size returns the length of the rendered message in bytes.
func (m *Message) Size() int64 {
	return int64(len(m.source))
}

// WriteTo writes the rendered message to w.
func (m *Message) WriteTo(w io.Writer) (int64, error) {
	return bytes.NewReader(m.source).WriteTo(w)
}

func copyAddrs(addrs []mail.Address) []mail.Address {
	if len(addrs) == 0 {
		return nil
	}
	return append([]mail.Address(nil), addrs...)
}
