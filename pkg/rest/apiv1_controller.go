// Package rest implements the HTTP API for composing and sending messages.
package rest

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/inbucket/outbox/pkg/draft"
	"github.com/inbucket/outbox/pkg/relay"
	"github.com/inbucket/outbox/pkg/rest/model"
	"github.com/inbucket/outbox/pkg/server/web"
	"github.com/inbucket/outbox/pkg/transport/smtp"
	"github.com/rs/zerolog/log"
)

// maxDraftBytes bounds the request body.
const maxDraftBytes = 10 << 20

func readDraft(w http.ResponseWriter, req *http.Request) (*draft.Draft, error) {
	d, err := draft.Decode(http.MaxBytesReader(w, req.Body, maxDraftBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", relay.ErrInvalidDraft, err)
	}
	return d, nil
}

// RenderV1 builds the posted draft and returns the RFC 5322 source.
func RenderV1(w http.ResponseWriter, req *http.Request, ctx *web.Context) error {
	d, err := readDraft(w, req)
	if err != nil {
		return err
	}
	msg, err := ctx.Manager.Compose(req.Context(), d)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "message/rfc822")
	w.Header().Set("Content-Length", strconv.FormatInt(msg.Size(), 10))
	if _, err := msg.WriteTo(w); err != nil {
		// Status has been sent, only log.
		log.Warn().Str("module", "rest").Str("id", msg.ID()).Err(err).Msg("Failed writing source")
	}
	return nil
}

// SendV1 builds and delivers the posted draft. A partial delivery still answers 200 and
// lists the rejected recipients, a delivery nobody accepted is an error.
func SendV1(w http.ResponseWriter, req *http.Request, ctx *web.Context) error {
	d, err := readDraft(w, req)
	if err != nil {
		return err
	}
	msg, err := ctx.Manager.Send(req.Context(), d)
	if errors.Is(err, smtp.ErrAllRecipientsRejected) {
		return err
	}
	var partial *smtp.PartialSendError
	if err != nil && !errors.As(err, &partial) {
		return err
	}
	from := msg.From()
	sent := &model.JSONSentV1{
		ID:         msg.ID(),
		From:       from.String(),
		Recipients: msg.Recipients(),
		Subject:    msg.Subject(),
		Date:       msg.Date(),
		Size:       msg.Size(),
	}
	if partial != nil {
		sent.Recipients = partial.Sent
		for _, r := range partial.Rejected {
			sent.Rejected = append(sent.Rejected, r.Address)
		}
	}
	return web.RenderJSON(w, sent)
}

// SessionV1 renders the configured transport session properties.
func SessionV1(w http.ResponseWriter, req *http.Request, ctx *web.Context) error {
	s, err := ctx.Manager.Session()
	if err != nil {
		return err
	}
	return web.RenderJSON(w, s.Properties())
}
