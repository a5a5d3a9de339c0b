// Package web provides the plumbing for the Outbox REST API.
package web

import (
	"context"
	"errors"
	"expvar"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/inbucket/outbox/pkg/config"
	"github.com/inbucket/outbox/pkg/relay"
	"github.com/rs/zerolog/log"
)

var expRequestsTotal = new(expvar.Int)

func init() {
	m := expvar.NewMap("http")
	m.Set("RequestsTotal", expRequestsTotal)
}

// Server serves the REST API for one relay manager.
type Server struct {
	// Router sends incoming requests to the correct handler function.
	Router *mux.Router

	base     *Context
	addr     string
	server   *http.Server
	listener net.Listener
	notify   chan error
}

// NewServer creates an unstarted server. Routes are added to Router by the caller.
func NewServer(conf *config.Root, mm relay.Manager) *Server {
	s := &Server{
		Router: mux.NewRouter(),
		base:   &Context{Manager: mm, RootConfig: conf},
		addr:   conf.Web.Addr,
		notify: make(chan error, 1),
	}
	s.Router.Use(s.bindContext)
	s.Router.NotFoundHandler = noMatchHandler(http.StatusNotFound, "No route matches URI path")
	s.Router.MethodNotAllowedHandler = noMatchHandler(http.StatusMethodNotAllowed,
		"No route matches request method")
	s.server = &http.Server{
		Handler:      requestLoggingWrapper(s.Router),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	return s
}

// bindContext makes the server context available to Handlers.
func (s *Server) bindContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		expRequestsTotal.Add(1)
		next.ServeHTTP(w, withContext(req, s.base))
	})
}

// Start begins listening for HTTP requests, returning once ctx is canceled.
func (s *Server) Start(ctx context.Context, readyFunc func()) {
	slog := log.With().Str("module", "web").Str("phase", "startup").Logger()
	var err error
	s.listener, err = net.Listen("tcp", s.addr)
	if err != nil {
		slog.Error().Err(err).Msg("HTTP failed to start TCP listener")
		s.notify <- err
		return
	}
	slog.Info().Str("addr", s.listener.Addr().String()).Msg("HTTP listening on tcp")
	readyFunc()

	// Listener go routine.
	go s.serve(ctx)

	// Wait for shutdown.
	<-ctx.Done()
	slog = log.With().Str("module", "web").Str("phase", "shutdown").Logger()
	slog.Debug().Msg("HTTP server shutting down on request")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		slog.Error().Err(err).Msg("HTTP server shutdown failed")
	}
}

// serve begins serving HTTP requests.
func (s *Server) serve(ctx context.Context) {
	// server.Serve blocks until the server shuts down.
	err := s.server.Serve(s.listener)

	select {
	case <-ctx.Done():
		// Nop
	default:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error().Str("module", "web").Err(err).Msg("HTTP server failed")
			s.notify <- err
		}
	}
}

// Addr returns the listening address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Notify allows the running server to report a fatal error.
func (s *Server) Notify() <-chan error {
	return s.notify
}
