// Package smtp delivers built messages using the settings carried by their mail session.
package smtp

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/inbucket/outbox/pkg/message"
	"github.com/inbucket/outbox/pkg/session"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Sender delivers messages over SMTP or SMTPS.
type Sender struct {
	TLSConfig *tls.Config // Cloned for each connection; ServerName defaults to the session host.
	LocalName string      // Name sent with EHLO, go-smtp's default when empty.
}

// Send delivers msg to its envelope recipients. When the session allows partial sends, a
// message accepted for some recipients returns a *PartialSendError.
func (s *Sender) Send(ctx context.Context, msg *message.Message) error {
	sess := msg.Session()
	if sess == nil {
		return ErrNoSession
	}
	host, ok := sess.Property(session.Host)
	if !ok || host == "" {
		return session.ErrMissingHostName
	}
	implicitTLS := hasProperty(sess, session.SocketFactoryClass)
	port, ok := sess.Property(session.Port)
	if !ok {
		port = strconv.Itoa(session.DefaultSMTPPort)
		if implicitTLS {
			port = strconv.Itoa(session.DefaultSSLPort)
		}
	}
	addr := net.JoinHostPort(host, port)

	level := zerolog.DebugLevel
	if sess.Bool(session.Debug) {
		level = zerolog.InfoLevel
	}
	slog := log.With().Str("module", "smtp").Str("addr", addr).Str("id", msg.ID()).Logger().
		Hook(logHook{})

	tlsConfig := s.tlsConfig(host, sess)
	conn, err := s.dial(ctx, addr, implicitTLS, tlsConfig, millis(sess, session.ConnectionTimeout))
	if err != nil {
		slog.Warn().Err(err).Msg("Connect failed")
		return err
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	conn = &timeoutConn{Conn: conn, timeout: millis(sess, session.Timeout)}

	c, err := smtp.NewClient(conn, host)
	if err != nil {
		_ = conn.Close()
		slog.Warn().Err(err).Msg("Greeting failed")
		return err
	}
	defer c.Close()
	slog.WithLevel(level).Bool("tls", implicitTLS).Msg("Connected")
	if s.LocalName != "" {
		if err := c.Hello(s.LocalName); err != nil {
			return err
		}
	}

	if !implicitTLS && (sess.Bool(session.StartTLSEnable) || sess.Bool(session.StartTLSRequired)) {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(tlsConfig); err != nil {
				slog.Warn().Err(err).Msg("STARTTLS failed")
				return err
			}
			slog.WithLevel(level).Msg("STARTTLS negotiated")
		} else if sess.Bool(session.StartTLSRequired) {
			slog.Warn().Msg("Server does not offer STARTTLS")
			return ErrStartTLSRequired
		}
	}

	if creds := sess.Credentials(); creds != nil && sess.Bool(session.Auth) {
		if err := c.Auth(sasl.NewPlainClient("", creds.Username, creds.Password)); err != nil {
			slog.Warn().Str("username", creds.Username).Err(err).Msg("Authentication failed")
			return err
		}
		slog.WithLevel(level).Str("username", creds.Username).Msg("Authenticated")
	}

	if err := c.Mail(msg.ReversePath(), nil); err != nil {
		slog.Warn().Str("from", msg.ReversePath()).Err(err).Msg("Sender rejected")
		return err
	}
	partial := sess.Bool(session.SendPartial) || sess.Bool(session.SMTPSSendPartial)
	var sent []string
	var rejected []*RecipientError
	for _, rcpt := range msg.Recipients() {
		if err := c.Rcpt(rcpt); err != nil {
			slog.Warn().Str("recipient", rcpt).Err(err).Msg("Recipient rejected")
			expRejectedTotal.Add(1)
			rerr := &RecipientError{Address: rcpt, Err: err}
			if !partial {
				return rerr
			}
			rejected = append(rejected, rerr)
			continue
		}
		sent = append(sent, rcpt)
	}
	if len(sent) == 0 {
		return fmt.Errorf("%w: %w", ErrAllRecipientsRejected, &PartialSendError{Rejected: rejected})
	}

	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := msg.WriteTo(w); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		slog.Warn().Err(err).Msg("Message rejected")
		return err
	}
	expSentTotal.Add(1)
	expRecipientsTotal.Add(int64(len(sent)))
	slog.WithLevel(level).Int("recipients", len(sent)).Int64("size", msg.Size()).Msg("Message sent")
	if err := c.Quit(); err != nil {
		slog.Debug().Err(err).Msg("QUIT failed after delivery")
	}

	if len(rejected) > 0 {
		return &PartialSendError{Sent: sent, Rejected: rejected}
	}
	return nil
}

func (s *Sender) dial(
	ctx context.Context,
	addr string,
	implicitTLS bool,
	tlsConfig *tls.Config,
	timeout time.Duration,
) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: timeout}
	if implicitTLS {
		td := &tls.Dialer{NetDialer: dialer, Config: tlsConfig}
		return td.DialContext(ctx, "tcp", addr)
	}
	return dialer.DialContext(ctx, "tcp", addr)
}

// tlsConfig clones the caller's config, naming the host and honoring the identity check flag.
func (s *Sender) tlsConfig(host string, sess *session.Session) *tls.Config {
	var cfg *tls.Config
	if s.TLSConfig != nil {
		cfg = s.TLSConfig.Clone()
	} else {
		cfg = &tls.Config{}
	}
	if cfg.ServerName == "" {
		cfg.ServerName = host
	}
	if !cfg.InsecureSkipVerify && !sess.Bool(session.SSLCheckServerIdentity) {
		// crypto/tls can only skip all verification, so the chain is checked here instead.
		cfg.InsecureSkipVerify = true
		cfg.VerifyConnection = verifyChain(cfg.RootCAs)
	}
	return cfg
}

// verifyChain validates the peer certificate chain against roots without matching the host
// name. Nil roots selects the system pool.
func verifyChain(roots *x509.CertPool) func(tls.ConnectionState) error {
	return func(cs tls.ConnectionState) error {
		if len(cs.PeerCertificates) == 0 {
			return errors.New("server presented no certificate")
		}
		opts := x509.VerifyOptions{
			Roots:         roots,
			Intermediates: x509.NewCertPool(),
		}
		for _, cert := range cs.PeerCertificates[1:] {
			opts.Intermediates.AddCert(cert)
		}
		_, err := cs.PeerCertificates[0].Verify(opts)
		return err
	}
}

func hasProperty(sess *session.Session, key string) bool {
	v, ok := sess.Property(key)
	return ok && v != ""
}

// millis reads a millisecond property, zero when absent or invalid.
func millis(sess *session.Session, key string) time.Duration {
	v, ok := sess.Property(key)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return time.Duration(n) * time.Millisecond
}
