package pop3_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/inbucket/outbox/pkg/test"
	"github.com/inbucket/outbox/pkg/transport/pop3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startStub(t *testing.T) *test.POP3Server {
	t.Helper()
	srv, err := test.NewPOP3Server(map[string]string{"alice": "wonderland"})
	require.NoError(t, err)
	t.Cleanup(srv.Close)
	return srv
}

func TestAuthenticateSuccess(t *testing.T) {
	srv := startStub(t)
	c := &pop3.Client{Timeout: 5 * time.Second}

	err := c.Authenticate(context.Background(), srv.Addr(), "alice", "wonderland")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, srv.Logins())
}

func TestAuthenticateBadPassword(t *testing.T) {
	srv := startStub(t)
	c := &pop3.Client{Timeout: 5 * time.Second}

	err := c.Authenticate(context.Background(), srv.Addr(), "alice", "guess")
	require.Error(t, err)
	assert.ErrorIs(t, err, pop3.ErrAuthentication)
	var rerr *pop3.ResponseError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "Invalid username or password", rerr.Msg)
	assert.Empty(t, srv.Logins())
}

func TestAuthenticateUnreachable(t *testing.T) {
	// Grab a free port, then close it so nothing is listening.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	c := &pop3.Client{Timeout: 2 * time.Second}
	err = c.Authenticate(context.Background(), addr, "alice", "wonderland")
	assert.ErrorIs(t, err, pop3.ErrAuthentication)
}

func TestAuthenticateSilentServerTimesOut(t *testing.T) {
	// Server accepts but never sends a greeting.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		time.Sleep(2 * time.Second)
	}()

	c := &pop3.Client{Timeout: 200 * time.Millisecond}
	start := time.Now()
	err = c.Authenticate(context.Background(), l.Addr().String(), "alice", "wonderland")
	assert.ErrorIs(t, err, pop3.ErrAuthentication)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestAuthenticateMalformedGreeting(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = conn.Write([]byte("220 this is an SMTP server\r\n"))
	}()

	c := &pop3.Client{Timeout: 2 * time.Second}
	err = c.Authenticate(context.Background(), l.Addr().String(), "alice", "wonderland")
	assert.ErrorIs(t, err, pop3.ErrAuthentication)
	assert.ErrorContains(t, err, "malformed POP3 response")
}
