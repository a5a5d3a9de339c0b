package rest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/inbucket/outbox/pkg/rest/model"
	"github.com/inbucket/outbox/pkg/session"
	"github.com/inbucket/outbox/pkg/test"
	"github.com/inbucket/outbox/pkg/transport/smtp"
	"github.com/jhillyerd/enmime/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const draftJSON = `{
	"from": "Sender <a@b.com>",
	"to": ["c@d.com"],
	"cc": ["e@f.com"],
	"subject": "REST draft",
	"content": "Hello from REST",
	"headers": [{"name": "X-Source", "value": "api"}]
}`

func TestRenderV1(t *testing.T) {
	mm := test.NewManager()
	s := setupWebServer(t, mm)

	w := testRestPost(s, "/api/v1/render", draftJSON)
	expectStatus(t, w, http.StatusOK)
	assert.Equal(t, "message/rfc822", w.Header().Get("Content-Type"))

	env, err := enmime.ReadEnvelope(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "REST draft", env.GetHeader("Subject"))
	assert.Equal(t, "api", env.GetHeader("X-Source"))
	assert.Equal(t, "Hello from REST", strings.TrimSpace(env.Text))
	assert.Len(t, mm.Drafts(), 1)
	assert.Empty(t, mm.Sent())
}

func TestRenderV1BadRequest(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"malformed", "{"},
		{"unknown field", `{"from": "a@b.com", "too": ["c@d.com"]}`},
		{"bad address", `{"from": "a@b.com", "to": ["not an address"]}`},
		{"no recipients", `{"from": "a@b.com"}`},
		{"no from", `{"to": ["c@d.com"]}`},
		{"bad charset", `{"from": "a@b.com", "to": ["c@d.com"], "charset": "klingon"}`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := setupWebServer(t, test.NewManager())
			w := testRestPost(s, "/api/v1/render", tc.body)
			expectStatus(t, w, http.StatusBadRequest)
		})
	}
}

func TestRenderV1MissingHost(t *testing.T) {
	mm := test.NewManager()
	mm.Options.Host = ""
	s := setupWebServer(t, mm)

	w := testRestPost(s, "/api/v1/render", draftJSON)
	expectStatus(t, w, http.StatusInternalServerError)
}

func TestSendV1(t *testing.T) {
	mm := test.NewManager()
	s := setupWebServer(t, mm)

	w := testRestPost(s, "/api/v1/send", draftJSON)
	expectStatus(t, w, http.StatusOK)

	var got model.JSONSentV1
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, mm.Sent(), 1)
	msg := mm.Sent()[0]
	assert.Equal(t, msg.ID(), got.ID)
	assert.Equal(t, `"Sender" <a@b.com>`, got.From)
	assert.Equal(t, []string{"c@d.com", "e@f.com"}, got.Recipients)
	assert.Empty(t, got.Rejected)
	assert.Equal(t, "REST draft", got.Subject)
	assert.Equal(t, msg.Size(), got.Size)
}

func TestSendV1Partial(t *testing.T) {
	mm := test.NewManager()
	mm.SendErr = &smtp.PartialSendError{
		Sent:     []string{"c@d.com"},
		Rejected: []*smtp.RecipientError{{Address: "e@f.com", Err: errors.New("550")}},
	}
	s := setupWebServer(t, mm)

	w := testRestPost(s, "/api/v1/send", draftJSON)
	expectStatus(t, w, http.StatusOK)
	var got model.JSONSentV1
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, []string{"c@d.com"}, got.Recipients)
	assert.Equal(t, []string{"e@f.com"}, got.Rejected)
}

func TestSendV1AllRejected(t *testing.T) {
	mm := test.NewManager()
	mm.SendErr = fmt.Errorf("%w: %w", smtp.ErrAllRecipientsRejected, &smtp.PartialSendError{
		Rejected: []*smtp.RecipientError{
			{Address: "c@d.com", Err: errors.New("550")},
			{Address: "e@f.com", Err: errors.New("550")},
		},
	})
	s := setupWebServer(t, mm)

	w := testRestPost(s, "/api/v1/send", draftJSON)
	expectStatus(t, w, http.StatusInternalServerError)
	assert.Contains(t, w.Body.String(), smtp.ErrAllRecipientsRejected.Error())
	assert.NotContains(t, w.Body.String(), `"recipients"`)
}

func TestSendV1Unrepresentable(t *testing.T) {
	mm := test.NewManager()
	s := setupWebServer(t, mm)

	w := testRestPost(s, "/api/v1/send",
		`{"from": "a@b.com", "to": ["c@d.com"], "charset": "ISO-8859-1", "content": "日本語"}`)
	expectStatus(t, w, http.StatusBadRequest)
	assert.Empty(t, mm.Sent())
}

func TestSendV1Failure(t *testing.T) {
	mm := test.NewManager()
	mm.SendErr = errors.New("connection refused")
	s := setupWebServer(t, mm)

	w := testRestPost(s, "/api/v1/send", draftJSON)
	expectStatus(t, w, http.StatusInternalServerError)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestSessionV1(t *testing.T) {
	mm := test.NewManager()
	mm.Options.StartTLSEnabled = true
	s := setupWebServer(t, mm)

	w := testRestGet(s, "/api/v1/session")
	expectStatus(t, w, http.StatusOK)
	var got map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "localhost", got[session.Host])
	assert.Equal(t, "true", got[session.StartTLSEnable])
	assert.Equal(t, "25", got[session.Port])
}

func TestSessionV1Error(t *testing.T) {
	mm := test.NewManager()
	mm.SessionErr = session.ErrMissingHostName
	s := setupWebServer(t, mm)

	w := testRestGet(s, "/api/v1/session")
	expectStatus(t, w, http.StatusInternalServerError)
}

func TestWrongMethod(t *testing.T) {
	s := setupWebServer(t, test.NewManager())
	w := testRestGet(s, "/api/v1/send")
	expectStatus(t, w, http.StatusMethodNotAllowed)
}
