package draft

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/inbucket/outbox/pkg/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readDraft(t *testing.T, name string) *Draft {
	t.Helper()
	f, err := os.Open(name)
	require.NoError(t, err)
	defer f.Close()
	d, err := Decode(f)
	require.NoError(t, err)
	return d
}

func TestDecodeYAML(t *testing.T) {
	d := readDraft(t, "testdata/welcome.yaml")
	assert.Equal(t, "Outbox <noreply@example.com>", d.From)
	assert.Equal(t, []string{"alice@example.com", "Bob <bob@example.com>"}, d.To)
	assert.Equal(t, []Header{{"X-Campaign", "welcome"}, {"X-Priority", "3"}}, d.Headers)
	assert.Equal(t, "Hello and welcome.\n", d.Content)
}

func TestDecodeJSON(t *testing.T) {
	input := `{"from": "a@b.com", "to": ["c@d.com"], "subject": "json",
		"headers": [{"name": "X-A", "value": "1"}]}`
	d, err := Decode(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", d.From)
	assert.Equal(t, []string{"c@d.com"}, d.To)
	assert.Equal(t, "json", d.Subject)
	assert.Equal(t, []Header{{"X-A", "1"}}, d.Headers)
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyDraft)

	_, err = Decode(strings.NewReader("from: a@b.com\nsubjekt: typo\n"))
	assert.Error(t, err)

	_, err = Decode(strings.NewReader("to: not-a-list\n"))
	assert.Error(t, err)
}

func TestSentDate(t *testing.T) {
	testCases := []struct {
		input string
		want  time.Time
		err   bool
	}{
		{"", time.Time{}, false},
		{"2024-03-01T10:00:00Z", time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), false},
		{"Fri, 01 Mar 2024 10:00:00 +0000", time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), false},
		{"yesterday", time.Time{}, true},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := (&Draft{Date: tc.input}).SentDate()
			if tc.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(got), "got %v", got)
		})
	}
}

func TestApply(t *testing.T) {
	d := readDraft(t, "testdata/welcome.yaml")
	b := message.NewBuilder()
	b.SetHostName("localhost")
	require.NoError(t, d.Apply(b))

	msg, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Welcome aboard", msg.Subject())
	assert.Equal(t, "ISO-8859-1", msg.Charset())
	assert.Equal(t, "Outbox", msg.From().Name)
	assert.Equal(t, []string{"alice@example.com", "bob@example.com", "carol@example.com",
		"audit@example.com"}, msg.Recipients())
	assert.Equal(t, "support@example.com", msg.ReplyTo()[0].Address)
	v, _ := msg.Header("X-Campaign")
	assert.Equal(t, "welcome", v)
	assert.True(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC).Equal(msg.Date()))
}

func TestApplyInvalidAddress(t *testing.T) {
	d := &Draft{From: "a@b.com", Cc: []string{"ok@example.com", "broken"}}
	err := d.Apply(message.NewBuilder())
	assert.ErrorIs(t, err, message.ErrInvalidAddress)
	assert.True(t, strings.HasPrefix(err.Error(), "cc: "))
}

func TestApplyInvalidHeader(t *testing.T) {
	d := &Draft{Headers: []Header{{Name: "X-Empty"}}}
	err := d.Apply(message.NewBuilder())
	assert.True(t, errors.Is(err, message.ErrInvalidHeaderValue))
}

func TestApplyWithoutRecipients(t *testing.T) {
	d := &Draft{From: "a@b.com", Subject: "nobody"}
	b := message.NewBuilder()
	b.SetHostName("localhost")
	require.NoError(t, d.Apply(b))
	_, err := b.Build(context.Background())
	assert.ErrorIs(t, err, message.ErrMissingRecipient)
}
