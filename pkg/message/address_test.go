package message

import (
	"errors"
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressListAddGrowsInOrder(t *testing.T) {
	var l AddressList
	require.NoError(t, l.Add("a@example.com", "b@example.com"))
	require.NoError(t, l.Add("Carol <c@example.com>"))

	got := l.Addresses()
	assert.Equal(t, 3, l.Len())
	assert.Equal(t, []mail.Address{
		{Address: "a@example.com"},
		{Address: "b@example.com"},
		{Name: "Carol", Address: "c@example.com"},
	}, got)
}

func TestAddressListKeepsDuplicates(t *testing.T) {
	var l AddressList
	require.NoError(t, l.Add("a@example.com", "a@example.com"))
	assert.Equal(t, 2, l.Len())
}

func TestAddressListRejectsEmptyInput(t *testing.T) {
	var l AddressList
	err := l.Add()
	assert.ErrorIs(t, err, ErrInvalidAddressList)
	assert.EqualError(t, err, "Address List provided was invalid")

	err = l.Add(nil...)
	assert.ErrorIs(t, err, ErrInvalidAddressList)

	err = l.AddAddress()
	assert.ErrorIs(t, err, ErrInvalidAddressList)
	assert.Equal(t, 0, l.Len())
}

func TestAddressListAllOrNone(t *testing.T) {
	var l AddressList
	require.NoError(t, l.Add("first@example.com"))

	err := l.Add("ok@example.com", "not an address", "also-ok@example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidAddress)
	var addrErr *AddressError
	require.True(t, errors.As(err, &addrErr))
	assert.Equal(t, "not an address", addrErr.Address)

	assert.Equal(t, []mail.Address{{Address: "first@example.com"}}, l.Addresses())
}

func TestAddressListPolicy(t *testing.T) {
	testCases := []struct {
		input string
		ok    bool
	}{
		{"user@example.com", true},
		{"John Doe <john@example.com>", true},
		{"user@bücher.example", true},
		{"user@-example.com", false},
		{"user@exa mple.com", false},
		{"no-domain", false},
		{"", false},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			var l AddressList
			err := l.Add(tc.input)
			if tc.ok {
				assert.NoError(t, err)
				assert.Equal(t, 1, l.Len())
			} else {
				assert.ErrorIs(t, err, ErrInvalidAddress)
				assert.Equal(t, 0, l.Len())
			}
		})
	}
}

func TestAddressListAddAddressValidates(t *testing.T) {
	var l AddressList
	err := l.AddAddress(mail.Address{Address: "good@example.com"}, mail.Address{Address: "bad"})
	assert.ErrorIs(t, err, ErrInvalidAddress)
	assert.Equal(t, 0, l.Len())

	require.NoError(t, l.AddAddress(mail.Address{Name: "john", Address: "abc@gmail.com"}))
	assert.Equal(t, []mail.Address{{Name: "john", Address: "abc@gmail.com"}}, l.Addresses())
}

func TestAddressesReturnsCopy(t *testing.T) {
	var l AddressList
	require.NoError(t, l.Add("a@example.com"))
	got := l.Addresses()
	got[0].Address = "changed@example.com"
	assert.Equal(t, "a@example.com", l.Addresses()[0].Address)
}

func TestNewAddressName(t *testing.T) {
	a, err := NewAddress("abc@gmail.com", "john")
	require.NoError(t, err)
	assert.Equal(t, mail.Address{Name: "john", Address: "abc@gmail.com"}, a)

	a, err = NewAddress("Jim <jim@example.com>", "")
	require.NoError(t, err)
	assert.Equal(t, "Jim", a.Name)
}
