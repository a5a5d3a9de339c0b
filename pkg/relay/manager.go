// Package relay composes drafts into messages and hands them to the SMTP transport.
package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/inbucket/outbox/pkg/draft"
	"github.com/inbucket/outbox/pkg/message"
	"github.com/inbucket/outbox/pkg/session"
	"github.com/inbucket/outbox/pkg/transport/pop3"
	"github.com/rs/zerolog/log"
)

// ErrInvalidDraft wraps errors applying a draft to a builder.
var ErrInvalidDraft = errors.New("invalid draft")

// Manager is the interface controllers use to compose and send messages.
type Manager interface {
	Compose(ctx context.Context, d *draft.Draft) (*message.Message, error)
	Send(ctx context.Context, d *draft.Draft) (*message.Message, error)
	Session() (*session.Session, error)
}

// Deliverer transmits a built message.
type Deliverer interface {
	Send(ctx context.Context, msg *message.Message) error
}

// TransportManager is a Manager using fixed transport options and a Deliverer.
type TransportManager struct {
	Options session.Options
	Sender  Deliverer
	POP     pop3.Authenticator // Optional, replaces the default POP3 client.
}

var _ Manager = &TransportManager{}

// Compose builds d without any network I/O; POP-before-SMTP is skipped.
func (m *TransportManager) Compose(ctx context.Context, d *draft.Draft) (*message.Message, error) {
	opts := m.Options
	opts.POPBeforeSMTP.Enabled = false
	return m.build(ctx, d, opts)
}

// Send builds d, performing POP-before-SMTP when configured, and delivers it. The message is
// returned along with a *smtp.PartialSendError when some recipients were rejected.
func (m *TransportManager) Send(ctx context.Context, d *draft.Draft) (*message.Message, error) {
	msg, err := m.build(ctx, d, m.Options)
	if err != nil {
		return nil, err
	}
	slog := log.With().Str("module", "relay").Str("id", msg.ID()).Logger()
	if err := m.Sender.Send(ctx, msg); err != nil {
		slog.Warn().Err(err).Msg("Delivery failed")
		return msg, err
	}
	slog.Info().Str("from", msg.ReversePath()).Strs("recipients", msg.Recipients()).
		Msg("Delivered message")
	return msg, nil
}

// Session resolves the configured transport session.
func (m *TransportManager) Session() (*session.Session, error) {
	var c session.Configurator
	return c.Resolve(m.Options, nil)
}

func (m *TransportManager) build(
	ctx context.Context,
	d *draft.Draft,
	opts session.Options,
) (*message.Message, error) {
	b := message.NewBuilder()
	b.ApplyOptions(opts)
	if m.POP != nil {
		b.SetPOPAuthenticator(m.POP)
	}
	if err := d.Apply(b); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDraft, err)
	}
	return b.Build(ctx)
}

var validationErrors = []error{
	ErrInvalidDraft,
	draft.ErrEmptyDraft,
	message.ErrInvalidAddress,
	message.ErrInvalidAddressList,
	message.ErrInvalidHeaderName,
	message.ErrInvalidHeaderValue,
	message.ErrInvalidCharset,
	message.ErrMissingFrom,
	message.ErrMissingRecipient,
}

// IsValidation is true for errors caused by the draft rather than the transport.
func IsValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
