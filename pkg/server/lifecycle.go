package server

import (
	"context"

	"github.com/inbucket/outbox/pkg/config"
	"github.com/inbucket/outbox/pkg/relay"
	"github.com/inbucket/outbox/pkg/rest"
	"github.com/inbucket/outbox/pkg/server/web"
	"github.com/inbucket/outbox/pkg/transport/smtp"
)

// Services holds the configured services.
type Services struct {
	Sender    *smtp.Sender
	Manager   *relay.TransportManager
	WebServer *web.Server
}

// NewManager wires a relay manager delivering over SMTP from configuration.
func NewManager(conf *config.Root) *relay.TransportManager {
	return &relay.TransportManager{
		Options: conf.Options(),
		Sender:  &smtp.Sender{LocalName: conf.SMTP.LocalName},
	}
}

// Prod wires up the production Outbox environment. Nothing listens until Start is called.
func Prod(conf *config.Root) *Services {
	mm := NewManager(conf)
	webServer := web.NewServer(conf, mm)
	rest.SetupRoutes(webServer.Router.PathPrefix("/api/").Subrouter())
	return &Services{
		Sender:    mm.Sender.(*smtp.Sender),
		Manager:   mm,
		WebServer: webServer,
	}
}

// Start runs the HTTP server until ctx is canceled. readyFunc is called once the listener is
// bound.
func (s *Services) Start(ctx context.Context, readyFunc func()) {
	s.WebServer.Start(ctx, readyFunc)
}

// Notify merges error notification channels from all services.
func (s *Services) Notify() <-chan error {
	return s.WebServer.Notify()
}
