// Package metric keeps short rolling histories of expvar counters for display.
package metric

import (
	"container/list"
	"expvar"
	"strings"
	"sync"
	"time"
)

// HistorySize is one hour of per-minute samples, plus one so the first delta has a base.
const HistorySize = 61

// TickerFunc is called once per minute once registered with AddTickerFunc.
type TickerFunc func()

var tickerFuncChan = make(chan TickerFunc)

func init() {
	go metricsTicker()
}

// AddTickerFunc registers f with the per-minute ticker.
func AddTickerFunc(f TickerFunc) {
	tickerFuncChan <- f
}

// History samples a counter and publishes the recent samples as a comma separated string.
type History struct {
	mu       sync.Mutex
	source   expvar.Var
	samples  *list.List
	size     int
	Rendered *expvar.String // Comma separated samples, oldest first.
}

// NewHistory tracks up to size samples of source.
func NewHistory(source expvar.Var, size int) *History {
	return &History{
		source:   source,
		samples:  list.New(),
		size:     size,
		Rendered: new(expvar.String),
	}
}

// Sample records the current value of the source and refreshes Rendered.
func (h *History) Sample() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.samples.PushBack(h.source.String())
	if h.samples.Len() > h.size {
		h.samples.Remove(h.samples.Front())
	}
	s := joinStringList(h.samples)
	h.Rendered.Set(s)
	return s
}

// Track creates histories for each source and samples them all every minute.
func Track(sources ...expvar.Var) []*History {
	hists := make([]*History, len(sources))
	for i, src := range sources {
		hists[i] = NewHistory(src, HistorySize)
	}
	AddTickerFunc(func() {
		for _, h := range hists {
			h.Sample()
		}
	})
	return hists
}

// metricsTicker calls the current list of TickerFuncs once per minute.
func metricsTicker() {
	funcs := make([]TickerFunc, 0)
	ticker := time.NewTicker(time.Minute)

	for {
		select {
		case <-ticker.C:
			for _, f := range funcs {
				f()
			}
		case f := <-tickerFuncChan:
			funcs = append(funcs, f)
		}
	}
}

// joinStringList joins a List containing strings by commas.
func joinStringList(listOfStrings *list.List) string {
	if listOfStrings.Len() == 0 {
		return ""
	}
	s := make([]string, 0, listOfStrings.Len())
	for e := listOfStrings.Front(); e != nil; e = e.Next() {
		s = append(s, e.Value.(string))
	}
	return strings.Join(s, ",")
}
