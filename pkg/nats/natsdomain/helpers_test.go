package natsdomain

import (
	"testing"

	"github.com/brianvoe/gofakeit/v7"
)

func TestNewEventMsgId(t *testing.T) {
	txRef := gofakeit.UUID()

	a := NewEventMsgId("eth", txRef, "confirmed", 1)
	b := NewEventMsgId("eth", txRef, "confirmed", 1)

	if a != b {
		t.Fatal("same observation must produce the same msg id")
	}

	// a confidence raise has to pass stream dedup
	c := NewEventMsgId("eth", txRef, "settled", 1)
	if a == c {
		t.Fatal("confidence raise collapsed into the same msg id")
	}

	// a depth raise inside the duplicate window has to get through too,
	// otherwise the confirmed transition waits out the window
	d := NewEventMsgId("eth", txRef, "confirmed", 2)
	if a == d {
		t.Fatal("depth raise collapsed into the same msg id")
	}

	// same tx ref on another network is another payment
	e := NewEventMsgId("erc20", txRef, "confirmed", 1)
	if a == e {
		t.Fatal("networks share a msg id namespace")
	}
}
