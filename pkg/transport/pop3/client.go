// Package pop3 performs the mailbox login required by POP-before-SMTP relays.
package pop3

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/textproto"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultPort is used when the host does not name a port.
const DefaultPort = "110"

// ErrAuthentication is wrapped by every error Authenticate returns.
var ErrAuthentication = errors.New("POP before SMTP authentication failed")

// Authenticator logs into a POP3 mailbox.
type Authenticator interface {
	Authenticate(ctx context.Context, host, username, password string) error
}

// Client is a minimal POP3 client supporting USER/PASS login.
type Client struct {
	Timeout time.Duration // Dial and I/O timeout, zero for none.
}

var _ Authenticator = &Client{}

// Authenticate connects to host, logs in with USER/PASS, then ends the session with QUIT.
func (c *Client) Authenticate(ctx context.Context, host, username, password string) error {
	addr := host
	if _, _, err := net.SplitHostPort(host); err != nil {
		addr = net.JoinHostPort(host, DefaultPort)
	}
	slog := log.With().Str("module", "pop3").Str("addr", addr).Logger()
	dialer := &net.Dialer{Timeout: c.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAuthentication, err)
	}
	if deadline, ok := c.deadline(ctx); ok {
		_ = conn.SetDeadline(deadline)
	}
	tp := textproto.NewConn(conn)
	defer tp.Close()

	slog.Debug().Msg("Connected to POP3 server")
	if _, err := readStatus(tp); err != nil {
		return fmt.Errorf("%w: greeting: %w", ErrAuthentication, err)
	}
	if _, err := command(tp, "USER %s", username); err != nil {
		return fmt.Errorf("%w: USER: %w", ErrAuthentication, err)
	}
	if _, err := command(tp, "PASS %s", password); err != nil {
		return fmt.Errorf("%w: PASS: %w", ErrAuthentication, err)
	}
	if _, err := command(tp, "QUIT"); err != nil {
		// The login succeeded, which is all the relay cares about.
		slog.Warn().Err(err).Msg("POP3 QUIT failed")
	}
	slog.Debug().Str("user", username).Msg("POP3 login succeeded")
	return nil
}

// deadline picks the earlier of the configured timeout and the context deadline.
func (c *Client) deadline(ctx context.Context) (time.Time, bool) {
	d, ok := ctx.Deadline()
	if c.Timeout > 0 {
		if t := time.Now().Add(c.Timeout); !ok || t.Before(d) {
			return t, true
		}
	}
	return d, ok
}

// command sends a line and reads the status response.
func command(tp *textproto.Conn, format string, args ...any) (string, error) {
	if err := tp.PrintfLine(format, args...); err != nil {
		return "", err
	}
	return readStatus(tp)
}

// readStatus reads one response line, returning an error for -ERR.
func readStatus(tp *textproto.Conn) (string, error) {
	line, err := tp.ReadLine()
	if err != nil {
		return "", err
	}
	switch {
	case strings.HasPrefix(line, "+OK"):
		return strings.TrimSpace(strings.TrimPrefix(line, "+OK")), nil
	case strings.HasPrefix(line, "-ERR"):
		return "", &ResponseError{Msg: strings.TrimSpace(strings.TrimPrefix(line, "-ERR"))}
	}
	return "", fmt.Errorf("malformed POP3 response %q", line)
}

// ResponseError is a -ERR reply from the server.
type ResponseError struct {
	Msg string
}

func (e *ResponseError) Error() string {
	return "server replied -ERR " + e.Msg
}
