package metric

import (
	"expvar"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistorySample(t *testing.T) {
	counter := new(expvar.Int)
	h := NewHistory(counter, 3)
	assert.Equal(t, "0", h.Sample())

	counter.Add(2)
	h.Sample()
	counter.Add(1)
	h.Sample()
	counter.Add(4)
	got := h.Sample()

	assert.Equal(t, "2,3,7", got)
	assert.Equal(t, "\"2,3,7\"", h.Rendered.String())
}

func TestJoinStringListEmpty(t *testing.T) {
	h := NewHistory(new(expvar.Int), 2)
	assert.Equal(t, "", joinStringList(h.samples))
}
