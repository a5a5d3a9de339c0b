package smtp

import (
	"expvar"

	"github.com/inbucket/outbox/pkg/metric"
	"github.com/rs/zerolog"
)

var (
	// Raw stat collectors
	expSentTotal       = new(expvar.Int)
	expRecipientsTotal = new(expvar.Int)
	expRejectedTotal   = new(expvar.Int)
	expErrorsTotal     = new(expvar.Int)
	expWarnsTotal      = new(expvar.Int)
)

func init() {
	hist := metric.Track(expSentTotal, expRejectedTotal, expErrorsTotal, expWarnsTotal)
	m := expvar.NewMap("outbound")
	m.Set("SentTotal", expSentTotal)
	m.Set("SentHist", hist[0].Rendered)
	m.Set("RecipientsTotal", expRecipientsTotal)
	m.Set("RejectedTotal", expRejectedTotal)
	m.Set("RejectedHist", hist[1].Rendered)
	m.Set("ErrorsTotal", expErrorsTotal)
	m.Set("ErrorsHist", hist[2].Rendered)
	m.Set("WarnsTotal", expWarnsTotal)
	m.Set("WarnsHist", hist[3].Rendered)
}

type logHook struct{}

// Run implements a zerolog hook that updates the outbound warning/error expvars.
func (h logHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	switch level {
	case zerolog.WarnLevel:
		expWarnsTotal.Add(1)
	case zerolog.ErrorLevel:
		expErrorsTotal.Add(1)
	}
}
