// Package draft reads message drafts from YAML or JSON and applies them to a builder.
package draft

import (
	"errors"
	"fmt"
	"io"
	"net/mail"
	"time"

	"github.com/inbucket/outbox/pkg/message"
	"gopkg.in/yaml.v3"
)

// ErrEmptyDraft is returned when the input holds no document.
var ErrEmptyDraft = errors.New("draft is empty")

// Draft is the serialized form of a message. JSON input is accepted since JSON is YAML.
type Draft struct {
	From        string   `yaml:"from" json:"from"`
	To          []string `yaml:"to,omitempty" json:"to,omitempty"`
	Cc          []string `yaml:"cc,omitempty" json:"cc,omitempty"`
	Bcc         []string `yaml:"bcc,omitempty" json:"bcc,omitempty"`
	ReplyTo     []string `yaml:"replyTo,omitempty" json:"replyTo,omitempty"`
	Subject     string   `yaml:"subject,omitempty" json:"subject,omitempty"`
	Charset     string   `yaml:"charset,omitempty" json:"charset,omitempty"`
	ContentType string   `yaml:"contentType,omitempty" json:"contentType,omitempty"`
	Content     string   `yaml:"content,omitempty" json:"content,omitempty"`
	Headers     []Header `yaml:"headers,omitempty" json:"headers,omitempty"`
	// Date in RFC 3339 or RFC 5322 form; empty means the time of build.
	Date string `yaml:"date,omitempty" json:"date,omitempty"`
}

// Header is one custom header, kept in a list to preserve order.
type Header struct {
	Name  string `yaml:"name" json:"name"`
	Value string `yaml:"value" json:"value"`
}

// Decode reads a single draft document from r.
func Decode(r io.Reader) (*Draft, error) {
	d := &Draft{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(d); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyDraft
		}
		return nil, fmt.Errorf("can't read the draft as YAML: %w", err)
	}
	return d, nil
}

// SentDate parses Date. The zero time is returned for an empty Date.
func (d *Draft) SentDate() (time.Time, error) {
	if d.Date == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, d.Date); err == nil {
		return t, nil
	}
	t, err := mail.ParseDate(d.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", d.Date, err)
	}
	return t, nil
}

// Apply copies the draft into b. Empty lists are skipped so that the builder reports the
// missing recipient at build time.
func (d *Draft) Apply(b *message.Builder) error {
	if d.From != "" {
		if err := b.SetFrom(d.From); err != nil {
			return fmt.Errorf("from: %w", err)
		}
	}
	lists := []struct {
		name  string
		addrs []string
		add   func(...string) error
	}{
		{"to", d.To, b.AddTo},
		{"cc", d.Cc, b.AddCc},
		{"bcc", d.Bcc, b.AddBcc},
		{"replyTo", d.ReplyTo, b.AddReplyTo},
	}
	for _, l := range lists {
		if len(l.addrs) == 0 {
			continue
		}
		if err := l.add(l.addrs...); err != nil {
			return fmt.Errorf("%s: %w", l.name, err)
		}
	}
	for _, h := range d.Headers {
		if err := b.AddHeader(h.Name, h.Value); err != nil {
			return fmt.Errorf("header %q: %w", h.Name, err)
		}
	}
	b.SetSubject(d.Subject)
	if err := b.SetCharset(d.Charset); err != nil {
		return err
	}
	if err := b.SetContent(d.Content, d.ContentType); err != nil {
		return fmt.Errorf("contentType: %w", err)
	}
	date, err := d.SentDate()
	if err != nil {
		return err
	}
	b.SetSentDate(date)
	return nil
}
