package test

import (
	"context"
	"fmt"
	"sync"

	"github.com/inbucket/outbox/pkg/draft"
	"github.com/inbucket/outbox/pkg/message"
	"github.com/inbucket/outbox/pkg/relay"
	"github.com/inbucket/outbox/pkg/session"
)

// ManagerStub is a test stub for relay.Manager. It builds real messages against a fixed
// session and records every draft it is given.
type ManagerStub struct {
	Options    session.Options
	SendErr    error // Returned by Send along with the built message.
	SessionErr error // Returned by Session.

	mu     sync.Mutex
	drafts []*draft.Draft
	sent   []*message.Message
}

var _ relay.Manager = &ManagerStub{}

// NewManager creates a new ManagerStub with the host set to localhost.
func NewManager() *ManagerStub {
	opts := session.DefaultOptions()
	opts.Host = "localhost"
	return &ManagerStub{Options: opts}
}

// Compose builds the draft.
func (m *ManagerStub) Compose(ctx context.Context, d *draft.Draft) (*message.Message, error) {
	m.mu.Lock()
	m.drafts = append(m.drafts, d)
	m.mu.Unlock()
	b := message.NewBuilder()
	b.ApplyOptions(m.Options)
	if err := d.Apply(b); err != nil {
		return nil, fmt.Errorf("%w: %w", relay.ErrInvalidDraft, err)
	}
	return b.Build(ctx)
}

// Send builds the draft and records it as sent unless SendErr is set.
func (m *ManagerStub) Send(ctx context.Context, d *draft.Draft) (*message.Message, error) {
	msg, err := m.Compose(ctx, d)
	if err != nil {
		return nil, err
	}
	if m.SendErr != nil {
		return msg, m.SendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return msg, nil
}

// Session resolves a session from Options.
func (m *ManagerStub) Session() (*session.Session, error) {
	if m.SessionErr != nil {
		return nil, m.SessionErr
	}
	var c session.Configurator
	return c.Resolve(m.Options, nil)
}

// Drafts returns every draft received so far.
func (m *ManagerStub) Drafts() []*draft.Draft {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*draft.Draft(nil), m.drafts...)
}

// Sent returns the messages Send accepted.
func (m *ManagerStub) Sent() []*message.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*message.Message(nil), m.sent...)
}
