package session

import "github.com/rs/zerolog/log"

// resolveState records where the cached session came from.
type resolveState int

const (
	unresolved resolveState = iota
	injected                // Supplied by the caller.
	configured              // Built from Options.
)

// Configurator lazily produces the Session for one message builder. The first successful
// Resolve wins; later calls return the cached handle.
type Configurator struct {
	state   resolveState
	session *Session
}

// Resolve returns existing when it is non-nil, replacing any cached session. Otherwise it
// returns the cached session, building one from opts on first use.
func (c *Configurator) Resolve(opts Options, existing *Session) (*Session, error) {
	if existing != nil {
		c.state = injected
		c.session = existing
		return existing, nil
	}
	if c.state != unresolved {
		return c.session, nil
	}
	props, err := opts.Properties()
	if err != nil {
		return nil, err
	}
	c.session = NewWithCredentials(props, opts.Credentials)
	c.state = configured
	log.Debug().Str("module", "session").Str("host", opts.Host).Int("properties", len(props)).
		Msg("Configured mail session")
	return c.session, nil
}

// Resolved is true once a session has been cached.
func (c *Configurator) Resolved() bool {
	return c.state != unresolved
}

// Injected is true when the cached session was supplied by the caller.
func (c *Configurator) Injected() bool {
	return c.state == injected
}

// Session returns the cached session, or nil when unresolved.
func (c *Configurator) Session() *Session {
	return c.session
}
