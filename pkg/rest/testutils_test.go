package rest

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/inbucket/outbox/pkg/config"
	"github.com/inbucket/outbox/pkg/relay"
	"github.com/inbucket/outbox/pkg/server/web"
)

func setupWebServer(t *testing.T, mm relay.Manager) *web.Server {
	t.Helper()
	cfg := &config.Root{Web: config.Web{Addr: "127.0.0.1:0"}}
	s := web.NewServer(cfg, mm)
	SetupRoutes(s.Router.PathPrefix("/api/").Subrouter())
	return s
}

func testRestGet(s *web.Server, url string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", url, nil)
	req.Header.Add("Accept", "application/json")
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func testRestPost(s *web.Server, url string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", url, strings.NewReader(body))
	req.Header.Add("Accept", "application/json")
	req.Header.Add("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("Expected status %v, got %v: %s", want, w.Code, w.Body.String())
	}
}
