package test

import (
	"crypto/tls"
	"errors"
	"io"
	"net"
	"strconv"
	"sync"
	"testing"

	"github.com/emersion/go-smtp"
)

// SMTPServerConfig adjusts the behavior of an in-process SMTP server.
type SMTPServerConfig struct {
	TLS         *tls.Config            // Enables STARTTLS, or implicit TLS with ImplicitTLS.
	ImplicitTLS bool                   // Wrap the listener in TLS (SMTPS).
	Users       map[string]string      // When non-empty, AUTH is required.
	Reject      func(rcpt string) bool // Recipients to refuse with 550.
}

// ReceivedMessage is one message accepted by the in-process server.
type ReceivedMessage struct {
	From     string
	To       []string
	Username string
	Data     []byte
}

// SMTPServer is an in-process SMTP server built on go-smtp that keeps every accepted message
// in memory.
type SMTPServer struct {
	server   *smtp.Server
	listener net.Listener
	backend  *smtpBackend
	done     chan struct{}
}

// StartSMTPServer starts a server on a random loopback port, stopped by t.Cleanup.
func StartSMTPServer(t testing.TB, cfg SMTPServerConfig) *SMTPServer {
	t.Helper()
	be := &smtpBackend{cfg: cfg}
	srv := smtp.NewServer(be)
	srv.Domain = "localhost"
	srv.AllowInsecureAuth = true
	srv.AuthDisabled = len(cfg.Users) == 0
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	if cfg.TLS != nil {
		if cfg.ImplicitTLS {
			l = tls.NewListener(l, cfg.TLS)
		} else {
			srv.TLSConfig = cfg.TLS
		}
	}
	s := &SMTPServer{server: srv, listener: l, backend: be, done: make(chan struct{})}
	go func() {
		defer close(s.done)
		_ = srv.Serve(l)
	}()
	t.Cleanup(s.Close)
	return s
}

// Host returns the listening IP address.
func (s *SMTPServer) Host() string {
	host, _, _ := net.SplitHostPort(s.listener.Addr().String())
	return host
}

// Port returns the listening TCP port.
func (s *SMTPServer) Port() int {
	_, port, _ := net.SplitHostPort(s.listener.Addr().String())
	n, _ := strconv.Atoi(port)
	return n
}

// Messages returns the messages received so far.
func (s *SMTPServer) Messages() []ReceivedMessage {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	return append([]ReceivedMessage(nil), s.backend.messages...)
}

// Close shuts the server down.
func (s *SMTPServer) Close() {
	_ = s.server.Close()
	<-s.done
}

// smtpBackend implements smtp.Backend.
type smtpBackend struct {
	cfg      SMTPServerConfig
	mu       sync.Mutex
	messages []ReceivedMessage
}

var errBadCredentials = &smtp.SMTPError{
	Code:         535,
	EnhancedCode: smtp.EnhancedCode{5, 7, 8},
	Message:      "Authentication credentials invalid",
}

var errAuthRequired = &smtp.SMTPError{
	Code:         530,
	EnhancedCode: smtp.EnhancedCode{5, 7, 0},
	Message:      "Authentication required",
}

// Login implements smtp.Backend.
func (be *smtpBackend) Login(_ *smtp.ConnectionState, username, password string) (smtp.Session, error) {
	if want, ok := be.cfg.Users[username]; ok && want == password {
		return &smtpSession{backend: be, username: username}, nil
	}
	return nil, errBadCredentials
}

// AnonymousLogin implements smtp.Backend.
func (be *smtpBackend) AnonymousLogin(_ *smtp.ConnectionState) (smtp.Session, error) {
	if len(be.cfg.Users) > 0 {
		return nil, errAuthRequired
	}
	return &smtpSession{backend: be}, nil
}

// smtpSession implements smtp.Session for a single connection.
type smtpSession struct {
	backend  *smtpBackend
	username string
	from     string
	to       []string
}

// Reset implements smtp.Session.
func (s *smtpSession) Reset() {
	s.from = ""
	s.to = nil
}

// Logout implements smtp.Session.
func (s *smtpSession) Logout() error { return nil }

// Mail implements smtp.Session.
func (s *smtpSession) Mail(from string, _ smtp.MailOptions) error {
	s.from = from
	return nil
}

// Rcpt implements smtp.Session.
func (s *smtpSession) Rcpt(to string) error {
	if s.backend.cfg.Reject != nil && s.backend.cfg.Reject(to) {
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 1, 1},
			Message:      "No such user here",
		}
	}
	s.to = append(s.to, to)
	return nil
}

// Data implements smtp.Session.
func (s *smtpSession) Data(r io.Reader) error {
	if s.from == "" || len(s.to) == 0 {
		return errors.New("DATA without envelope")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	s.backend.messages = append(s.backend.messages, ReceivedMessage{
		From:     s.from,
		To:       append([]string(nil), s.to...),
		Username: s.username,
		Data:     data,
	})
	return nil
}
