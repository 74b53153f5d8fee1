package testutil

import (
	"testing"

	"github.com/NotCoffee418/dsmr_telegram/pkg/cipher"
)

// Keys used to seal fixture telegrams.
const (
	EncryptionKey     = "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
	AuthenticationKey = "BBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB"
)

// SealTelegram wraps plaintext in a general global cipher envelope the way
// Sagemcom meters send it on the P1 port.
func SealTelegram(t testing.TB, plaintext string) []byte {
	t.Helper()
	encKey, err := cipher.ParseKeyHex(EncryptionKey)
	if err != nil {
		t.Fatal(err)
	}
	authKey, err := cipher.ParseKeyHex(AuthenticationKey)
	if err != nil {
		t.Fatal(err)
	}
	envelope, err := cipher.Encrypt([]byte("SAGMETER"), 1, []byte(plaintext), encKey, authKey)
	if err != nil {
		t.Fatal(err)
	}
	return envelope
}
