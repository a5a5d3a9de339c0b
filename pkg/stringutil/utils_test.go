package stringutil_test

import (
	"net/mail"
	"testing"

	"github.com/inbucket/outbox/pkg/stringutil"
)

func TestStringAddressList(t *testing.T) {
	input := []mail.Address{
		{Name: "Fred B. Fish", Address: "fred@fish.org"},
		{Name: "User", Address: "user@domain.org"},
		{Address: "bare@domain.org"},
	}
	want := []string{`"Fred B. Fish" <fred@fish.org>`, `"User" <user@domain.org>`,
		"<bare@domain.org>"}
	output := stringutil.StringAddressList(input)
	if len(output) != len(want) {
		t.Fatalf("Got %v strings, want: %v", len(output), len(want))
	}
	for i, got := range output {
		if got != want[i] {
			t.Errorf("Got %q, want: %q", got, want[i])
		}
	}
}

func TestJoinAddresses(t *testing.T) {
	input := []mail.Address{
		{Name: "User", Address: "user@domain.org"},
		{Address: "bare@domain.org"},
	}
	want := `"User" <user@domain.org>, <bare@domain.org>`
	if got := stringutil.JoinAddresses(input); got != want {
		t.Errorf("Got %q, want: %q", got, want)
	}
	if got := stringutil.JoinAddresses(nil); got != "" {
		t.Errorf("Got %q for nil list, want empty string", got)
	}
}

func TestAddressEmails(t *testing.T) {
	to := []mail.Address{{Name: "A", Address: "a@x.org"}}
	cc := []mail.Address{{Address: "b@x.org"}, {Address: "c@x.org"}}
	got := stringutil.AddressEmails(to, nil, cc)
	want := []string{"a@x.org", "b@x.org", "c@x.org"}
	if len(got) != len(want) {
		t.Fatalf("Got %v, want: %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Got %q at %v, want: %q", got[i], i, want[i])
		}
	}
}
