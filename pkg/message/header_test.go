package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderTablePutValidation(t *testing.T) {
	var h HeaderTable
	err := h.Put("", "value")
	assert.ErrorIs(t, err, ErrInvalidHeaderName)
	assert.EqualError(t, err, "name can not be null or empty")

	err = h.Put("X-Name", "")
	assert.ErrorIs(t, err, ErrInvalidHeaderValue)
	assert.EqualError(t, err, "value can not be null or empty")

	assert.Equal(t, 0, h.Len())
}

func TestHeaderTablePutGet(t *testing.T) {
	var h HeaderTable
	require.NoError(t, h.Put("1", "1"))
	v, ok := h.Get("1")
	assert.True(t, ok)
	assert.Equal(t, "1", v)
	assert.Equal(t, map[string]string{"1": "1"}, h.Map())

	_, ok = h.Get("2")
	assert.False(t, ok)
}

func TestHeaderTableOverwriteKeepsPosition(t *testing.T) {
	var h HeaderTable
	require.NoError(t, h.Put("X-A", "1"))
	require.NoError(t, h.Put("X-B", "2"))
	require.NoError(t, h.Put("X-A", "3"))

	assert.Equal(t, 2, h.Len())
	assert.Equal(t, []Header{{"X-A", "3"}, {"X-B", "2"}}, h.Entries())
}

func TestHeaderTableMapIsCopy(t *testing.T) {
	var h HeaderTable
	require.NoError(t, h.Put("X-A", "1"))
	m := h.Map()
	m["X-A"] = "changed"
	v, _ := h.Get("X-A")
	assert.Equal(t, "1", v)
}
