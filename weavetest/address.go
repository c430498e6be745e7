package weavetest

import (
	"crypto/rand"
	"testing"

	weave "github.com/michaelwinczuk/agent-contracts"
)

// ParseAddress takes a weave address in a human readable format and returns
// its binary representation.
func ParseAddress(t testing.TB, encodedAddress string) weave.Address {
	t.Helper()

	addr, err := weave.ParseAddress(encodedAddress)
	if err != nil {
		t.Fatalf("cannot parse %q address: %s", encodedAddress, err)
	}
	return addr
}

// RandomAddr returns a valid random weave address.
func RandomAddr(t testing.TB) weave.Address {
	t.Helper()
	raw := make([]byte, weave.AddressLength)
	if _, err := rand.Read(raw); err != nil {
		t.Fatalf("cannot generate a random address: %s", err)
	}
	return weave.Address(raw)
}
