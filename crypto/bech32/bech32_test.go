package bech32

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/michaelwinczuk/agent-contracts/errors"
)

func TestBech32EncodeDecode(t *testing.T) {
	const enc = `tiov1w3jhxapdwpshjmr0v9jqymqq4y`

	want, err := hex.DecodeString("746573742d7061796c6f6164")
	if err != nil {
		t.Fatal(err)
	}

	hrp, payload, err := Decode(enc)
	if err != nil {
		t.Fatal(err)
	}
	if hrp != "tiov" {
		t.Fatalf("unexpected hrp %q", hrp)
	}
	if !bytes.Equal(want, payload) {
		t.Fatalf("invalid decode: %X", payload)
	}

	raw, err := Encode(hrp, payload)
	if err != nil {
		t.Fatalf("cannot encode: %s", err)
	}
	if raw != enc {
		t.Fatalf("invalid encoding: %q", raw)
	}
}

func TestBech32RoundTripAddress(t *testing.T) {
	addr := bytes.Repeat([]byte{0xab}, 20)
	raw, err := Encode("deal", addr)
	if err != nil {
		t.Fatal(err)
	}
	hrp, payload, err := Decode(raw)
	if err != nil {
		t.Fatal(err)
	}
	if hrp != "deal" || !bytes.Equal(addr, payload) {
		t.Fatalf("got %q %X", hrp, payload)
	}
}

func TestBech32InvalidChecksum(t *testing.T) {
	_, _, err := Decode(`tiov1w3jhxapdwpshjmr0v9jqymqq4z`)
	if !errors.ErrInput.Is(err) {
		t.Fatalf("want input error, got %v", err)
	}
}
