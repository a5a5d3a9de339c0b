package test

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// pop3State tracks the mode of a POP3 stub session.
type pop3State int

const (
	authorization pop3State = iota // Client must identify and authenticate.
	transaction                    // Mailbox open.
	quit                           // Client requested the session end.
)

func (s pop3State) String() string {
	switch s {
	case authorization:
		return "AUTHORIZATION"
	case transaction:
		return "TRANSACTION"
	case quit:
		return "QUIT"
	}
	return "Unknown"
}

var pop3Commands = map[string]bool{
	"QUIT": true,
	"STAT": true,
	"NOOP": true,
	"USER": true,
	"PASS": true,
	"CAPA": true,
}

// POP3Server is an in-process POP3 server implementing just enough of RFC 1939 to accept
// or reject USER/PASS logins against a fixed set of users.
type POP3Server struct {
	listener net.Listener
	users    map[string]string
	wg       sync.WaitGroup
	mu       sync.Mutex
	logins   []string
}

// NewPOP3Server starts a stub POP3 server on a random loopback port.
func NewPOP3Server(users map[string]string) (*POP3Server, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	s := &POP3Server{listener: l, users: users}
	s.wg.Add(1)
	go s.serve()
	return s, nil
}

// Addr returns the host:port the server listens on.
func (s *POP3Server) Addr() string {
	return s.listener.Addr().String()
}

// Logins returns the usernames that authenticated successfully, in order.
func (s *POP3Server) Logins() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.logins...)
}

// Close stops accepting connections and waits for open sessions to finish.
func (s *POP3Server) Close() {
	_ = s.listener.Close()
	s.wg.Wait()
}

func (s *POP3Server) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go s.startSession(conn)
	}
}

// startSession runs the command loop for one connection.
func (s *POP3Server) startSession(conn net.Conn) {
	defer func() {
		_ = conn.Close()
		s.wg.Done()
	}()
	slog := log.With().Str("module", "pop3stub").Str("remote", conn.RemoteAddr().String()).
		Logger()
	r := bufio.NewReader(conn)
	send := func(line string) {
		_, _ = fmt.Fprintf(conn, "%s\r\n", line)
	}
	send("+OK Outbox POP3 stub ready")
	state := authorization
	user := ""
	for state != quit {
		line, err := r.ReadString('\n')
		if err != nil {
			slog.Debug().Err(err).Str("state", state.String()).Msg("Client closed connection")
			return
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			send("-ERR Speak up")
			continue
		}
		cmd := strings.ToUpper(fields[0])
		args := fields[1:]
		if !pop3Commands[cmd] {
			send(fmt.Sprintf("-ERR Syntax error, %v command unrecognized", cmd))
			continue
		}
		switch {
		case cmd == "QUIT":
			send("+OK Goodnight and good luck")
			state = quit
		case cmd == "CAPA":
			send("+OK Capability list follows")
			send("USER")
			send(".")
		case state == authorization && cmd == "USER":
			if len(args) == 0 {
				send("-ERR Missing username argument")
				continue
			}
			user = args[0]
			send(fmt.Sprintf("+OK Hello %v", user))
		case state == authorization && cmd == "PASS":
			if user == "" {
				send("-ERR Command PASS is out of sequence")
				continue
			}
			want, ok := s.users[user]
			if !ok || len(args) == 0 || args[0] != want {
				slog.Debug().Str("user", user).Msg("Rejected login")
				send("-ERR Invalid username or password")
				continue
			}
			s.mu.Lock()
			s.logins = append(s.logins, user)
			s.mu.Unlock()
			send("+OK Mailbox locked")
			state = transaction
		case state == transaction && cmd == "STAT":
			send("+OK 0 0")
		case state == transaction && cmd == "NOOP":
			send("+OK I have successfully done nothing")
		default:
			send(fmt.Sprintf("-ERR Command %v is out of sequence", cmd))
		}
	}
}
