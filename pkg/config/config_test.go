package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/inbucket/outbox/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessDefaults(t *testing.T) {
	c, err := Process()
	require.NoError(t, err)
	assert.Equal(t, "INFO", c.LogLevel)
	assert.Equal(t, 25, c.SMTP.Port)
	assert.Equal(t, 465, c.SMTP.SSLPort)
	assert.Equal(t, 60*time.Second, c.SMTP.Timeout)
	assert.True(t, c.SMTP.CheckServerIdentity)
	assert.Equal(t, "127.0.0.1:9025", c.Web.Addr)

	opts := c.Options()
	want := session.DefaultOptions()
	want.SSLCheckServerIdentity = true
	assert.Equal(t, want, opts)
}

func TestProcessEnvironment(t *testing.T) {
	t.Setenv("OUTBOX_SMTP_HOST", "mail.example.com")
	t.Setenv("OUTBOX_SMTP_PORT", "2525")
	t.Setenv("OUTBOX_SMTP_STARTTLS", "true")
	t.Setenv("OUTBOX_SMTP_USERNAME", "user")
	t.Setenv("OUTBOX_SMTP_PASSWORD", "secret")
	t.Setenv("OUTBOX_SMTP_TIMEOUT", "1500ms")
	t.Setenv("OUTBOX_SMTP_CONNECTTIMEOUT", "0s")
	t.Setenv("OUTBOX_POP3_ENABLED", "true")
	t.Setenv("OUTBOX_POP3_HOST", "pop.example.com:1100")

	c, err := Process()
	require.NoError(t, err)
	opts := c.Options()
	assert.Equal(t, "mail.example.com", opts.Host)
	assert.Equal(t, 2525, opts.SMTPPort)
	assert.True(t, opts.StartTLSEnabled)
	assert.Equal(t, 1500, opts.SocketTimeout)
	assert.Equal(t, 0, opts.SocketConnectionTimeout)
	assert.Equal(t, &session.Credentials{Username: "user", Password: "secret"}, opts.Credentials)
	assert.Equal(t, session.POPBeforeSMTP{Enabled: true, Host: "pop.example.com:1100"}, opts.POPBeforeSMTP)

	props, err := opts.Properties()
	require.NoError(t, err)
	assert.Equal(t, "1500", props[session.Timeout])
	assert.NotContains(t, props, session.ConnectionTimeout)
}

func TestProcessInvalid(t *testing.T) {
	t.Setenv("OUTBOX_SMTP_PORT", "twenty-five")
	_, err := Process()
	assert.Error(t, err)
}

func TestUsage(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, Usage(buf))
	out := buf.String()
	assert.Contains(t, out, "Outbox is configured via the environment")
	assert.Contains(t, out, "OUTBOX_SMTP_HOST")
	assert.Contains(t, out, "OUTBOX_POP3_ENABLED")
	assert.Contains(t, out, "OUTBOX_WEB_ADDR")
}
