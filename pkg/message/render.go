package message

import (
	"bytes"
	"fmt"
	"mime"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/inbucket/outbox/pkg/stringutil"
	"github.com/jhillyerd/enmime/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

const (
	defaultCharset     = "utf-8"
	defaultContentType = "text/plain"
)

// lookupCharset finds the encoder for a MIME charset name.
func lookupCharset(name string) (encoding.Encoding, error) {
	enc, err := ianaindex.MIME.Encoding(name)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCharset, name)
	}
	return enc, nil
}

// effectiveCharset picks the explicit charset, then a charset parameter of contentType, then
// the default.
func effectiveCharset(charset, contentType string) string {
	if charset != "" {
		return charset
	}
	if _, params, err := mime.ParseMediaType(contentType); err == nil && params["charset"] != "" {
		return params["charset"]
	}
	return defaultCharset
}

// newMessageID returns a unique Message-ID in the domain of the author address.
func newMessageID(from string) string {
	domain := "localhost"
	if at := strings.LastIndex(from, "@"); at >= 0 && at < len(from)-1 {
		domain = from[at+1:]
	}
	return "<" + uuid.NewString() + "@" + domain + ">"
}

// reservedHeaders are written from builder fields and never taken from custom headers.
var reservedHeaders = map[string]bool{
	"Mime-Version":              true,
	"Message-Id":                true,
	"Date":                      true,
	"From":                      true,
	"Subject":                   true,
	"To":                        true,
	"Cc":                        true,
	"Bcc":                       true,
	"Reply-To":                  true,
	"Content-Type":              true,
	"Content-Transfer-Encoding": true,
}

// isReservedHeader reports whether name is managed by the builder.
func isReservedHeader(name string) bool {
	return reservedHeaders[textproto.CanonicalMIMEHeaderKey(name)]
}

// writeHeader writes a single header field, Q-encoding values that are not plain ASCII.
func writeHeader(buf *bytes.Buffer, name, value string) {
	buf.WriteString(name)
	buf.WriteString(": ")
	buf.WriteString(mime.QEncoding.Encode(defaultCharset, value))
	buf.WriteString("\r\n")
}

// render produces the RFC 5322 source of m as a single part MIME message. The message
// headers are written in a fixed order followed by custom headers in insertion order, enmime
// supplies the content headers and the encoded body.
func render(m *Message) ([]byte, error) {
	mediaType, _, err := mime.ParseMediaType(m.contentType)
	if err != nil {
		return nil, fmt.Errorf("invalid content type %q: %w", m.contentType, err)
	}
	charset := effectiveCharset(m.charset, m.contentType)
	enc, err := lookupCharset(charset)
	if err != nil {
		return nil, err
	}
	body, err := enc.NewEncoder().String(m.content)
	if err != nil {
		return nil, fmt.Errorf("%w: content not representable in %s: %v", ErrInvalidCharset,
			charset, err)
	}

	buf := &bytes.Buffer{}
	writeHeader(buf, "MIME-Version", "1.0")
	writeHeader(buf, "Message-ID", m.id)
	writeHeader(buf, "Date", m.date.Format(time.RFC1123Z))
	buf.WriteString("From: " + m.from.String() + "\r\n")
	if m.subject != "" {
		writeHeader(buf, "Subject", m.subject)
	}
	if len(m.to) > 0 {
		buf.WriteString("To: " + stringutil.JoinAddresses(m.to) + "\r\n")
	}
	if len(m.cc) > 0 {
		buf.WriteString("Cc: " + stringutil.JoinAddresses(m.cc) + "\r\n")
	}
	if len(m.replyTo) > 0 {
		buf.WriteString("Reply-To: " + stringutil.JoinAddresses(m.replyTo) + "\r\n")
	}
	for _, hdr := range m.headers {
		if isReservedHeader(hdr.Name) {
			continue
		}
		writeHeader(buf, hdr.Name, hdr.Value)
	}

	root := enmime.NewPart(mediaType)
	root.Header = make(textproto.MIMEHeader)
	root.Charset = charset
	root.Content = []byte(body)
	if err := root.Encode(buf); err != nil {
		return nil, fmt.Errorf("encoding MIME message: %w", err)
	}
	if len(body) == 0 {
		// enmime omits the header terminator for an empty body.
		buf.WriteString("\r\n")
	}
	return buf.Bytes(), nil
}
