package web

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/inbucket/outbox/pkg/config"
	"github.com/inbucket/outbox/pkg/relay"
)

// Context is passed into every request handler function.
type Context struct {
	Vars       map[string]string
	Manager    relay.Manager
	RootConfig *config.Root
	IsJSON     bool
}

type contextKey struct{}

var errNoContext = errors.New("request was not routed through a web server")

// Close the Context (currently does nothing)
func (c *Context) Close() {
	// Do nothing
}

// headerMatch returns true if the request header specified by name contains
// the specified value.  Case is ignored.
func headerMatch(req *http.Request, name string, value string) bool {
	name = http.CanonicalHeaderKey(name)
	value = strings.ToLower(value)

	if header := req.Header[name]; header != nil {
		for _, hv := range header {
			if value == strings.ToLower(hv) {
				return true
			}
		}
	}

	return false
}

// withContext stores the server-wide context in the request.
func withContext(req *http.Request, base *Context) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), contextKey{}, base))
}

// NewContext returns a Context for the given HTTP Request.
func NewContext(req *http.Request) (*Context, error) {
	base, ok := req.Context().Value(contextKey{}).(*Context)
	if !ok {
		return nil, errNoContext
	}
	ctx := &Context{
		Vars:       mux.Vars(req),
		Manager:    base.Manager,
		RootConfig: base.RootConfig,
		IsJSON:     headerMatch(req, "Accept", "application/json"),
	}
	return ctx, nil
}
