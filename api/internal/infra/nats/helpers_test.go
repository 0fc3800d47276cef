package nats

import (
	"testing"

	"github.com/brianvoe/gofakeit/v7"
)

func TestHelpersIsError(t *testing.T) {
	tests := []struct {
		data    []byte
		isValid bool
	}{
		{
			data:    []byte(""), // null string
			isValid: false,
		},
		{
			data:    []byte("error"), // != 'error:'
			isValid: false,
		},
		{
			data:    []byte("error:\t\t"),
			isValid: true,
		}, {
			data:    []byte("error:"),
			isValid: true,
		}, {
			data:    []byte("error: "),
			isValid: true,
		},
		{
			data:    []byte("error: " + gofakeit.LetterN(100)),
			isValid: true,
		},
		{
			data:    []byte("error: " + gofakeit.LetterN(1000<<1)),
			isValid: true,
		},
	}

	for _, i := range tests {
		is, errmsg := HelpersIsError(i.data)
		if i.isValid != is {
			t.Fatalf("i.isValid != is: %s", string(i.data))
		}

		t.Log("ERROR_MSG:", errmsg)
	}
}
