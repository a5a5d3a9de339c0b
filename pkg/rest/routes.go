package rest

import (
	"github.com/gorilla/mux"
	"github.com/inbucket/outbox/pkg/server/web"
)

// SetupRoutes populates the routes for the REST interface
func SetupRoutes(r *mux.Router) {
	// API v1
	r.Path("/v1/render").Handler(
		web.Handler(RenderV1)).Name("RenderV1").Methods("POST")
	r.Path("/v1/send").Handler(
		web.Handler(SendV1)).Name("SendV1").Methods("POST")
	r.Path("/v1/session").Handler(
		web.Handler(SessionV1)).Name("SessionV1").Methods("GET")
}
