// Package cipher unwraps DLMS general-global-ciphering envelopes
// (AES-128-GCM) as sent by Luxembourg and Austrian meters.
package cipher

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDecryption          = errors.New("cipher: decryption failed")
	ErrUnsupportedSecurity = errors.New("cipher: unsupported security control")
	ErrMalformedEnvelope   = errors.New("cipher: malformed envelope")
	ErrInvalidKey          = errors.New("cipher: invalid key")
)

const (
	TagGeneralGlobalCipher byte = 0xDB

	// SecurityAuthenticatedEncrypted is security suite 0 with both
	// authentication and encryption, the only mode meters use on P1.
	SecurityAuthenticatedEncrypted byte = 0x30

	securityAuthenticated byte = 0x10
	securityEncrypted     byte = 0x20
	securitySuiteMask     byte = 0x0F

	systemTitleLength = 8
	counterLength     = 4
	tagSize           = 12
	keyLength         = 16
)

// Envelope is a decoded general-global-cipher APDU.
type Envelope struct {
	SystemTitle       []byte
	SecurityControl   byte
	InvocationCounter uint32
	// Ciphertext includes the trailing authentication tag.
	Ciphertext []byte
}

// IsEnvelope reports whether data starts with the general-global-cipher tag.
func IsEnvelope(data []byte) bool {
	return len(data) > 0 && data[0] == TagGeneralGlobalCipher
}

// ParseEnvelope decodes the framing of a general-global-cipher APDU.
func ParseEnvelope(data []byte) (*Envelope, error) {
	if !IsEnvelope(data) {
		return nil, fmt.Errorf("%w: missing tag 0x%02X", ErrMalformedEnvelope, TagGeneralGlobalCipher)
	}
	pos := 1
	if len(data) < pos+1 {
		return nil, fmt.Errorf("%w: truncated system title", ErrMalformedEnvelope)
	}
	titleLen := int(data[pos])
	pos++
	if titleLen != systemTitleLength || len(data) < pos+titleLen {
		return nil, fmt.Errorf("%w: system title length %d", ErrMalformedEnvelope, titleLen)
	}
	title := data[pos : pos+titleLen]
	pos += titleLen

	length, n, err := readLength(data[pos:])
	if err != nil {
		return nil, err
	}
	pos += n
	if length < 1+counterLength+tagSize || len(data) < pos+length {
		return nil, fmt.Errorf("%w: content length %d with %d bytes left", ErrMalformedEnvelope, length, len(data)-pos)
	}
	content := data[pos : pos+length]

	return &Envelope{
		SystemTitle:       append([]byte(nil), title...),
		SecurityControl:   content[0],
		InvocationCounter: binary.BigEndian.Uint32(content[1 : 1+counterLength]),
		Ciphertext:        append([]byte(nil), content[1+counterLength:]...),
	}, nil
}

// readLength decodes a BER length and returns it with the bytes consumed.
func readLength(data []byte) (int, int, error) {
	if len(data) == 0 {
		return 0, 0, fmt.Errorf("%w: missing length", ErrMalformedEnvelope)
	}
	first := data[0]
	if first < 0x80 {
		return int(first), 1, nil
	}
	size := int(first & 0x7F)
	if size == 0 || size > 2 || len(data) < 1+size {
		return 0, 0, fmt.Errorf("%w: bad length encoding 0x%02X", ErrMalformedEnvelope, first)
	}
	length := 0
	for _, b := range data[1 : 1+size] {
		length = length<<8 | int(b)
	}
	return length, 1 + size, nil
}

// FrameLength returns the size of the envelope at the start of a byte
// stream, or 0 when more bytes are needed to tell.
func FrameLength(data []byte) (int, error) {
	if !IsEnvelope(data) {
		return 0, fmt.Errorf("%w: missing tag 0x%02X", ErrMalformedEnvelope, TagGeneralGlobalCipher)
	}
	if len(data) < 2 {
		return 0, nil
	}
	if titleLen := int(data[1]); titleLen != systemTitleLength {
		return 0, fmt.Errorf("%w: system title length %d", ErrMalformedEnvelope, titleLen)
	}
	pos := 2 + systemTitleLength
	if len(data) <= pos {
		return 0, nil
	}
	if first := data[pos]; first >= 0x80 && len(data) < pos+1+int(first&0x7F) {
		return 0, nil
	}
	length, n, err := readLength(data[pos:])
	if err != nil {
		return 0, err
	}
	if length < 1+counterLength+tagSize {
		return 0, fmt.Errorf("%w: content length %d", ErrMalformedEnvelope, length)
	}
	return pos + n + length, nil
}

func (e *Envelope) iv() []byte {
	iv := make([]byte, 0, systemTitleLength+counterLength)
	iv = append(iv, e.SystemTitle...)
	return binary.BigEndian.AppendUint32(iv, e.InvocationCounter)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != keyLength {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidKey, keyLength, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return cipher.NewGCMWithTagSize(block, tagSize)
}

// Decrypt authenticates and decrypts the envelope content.
func (e *Envelope) Decrypt(encryptionKey, authenticationKey []byte) ([]byte, error) {
	sc := e.SecurityControl
	if sc&securitySuiteMask != 0 || sc&securityAuthenticated == 0 || sc&securityEncrypted == 0 {
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnsupportedSecurity, sc)
	}
	gcm, err := newGCM(encryptionKey)
	if err != nil {
		return nil, err
	}

	aad := append([]byte{sc}, authenticationKey...)
	plaintext, err := gcm.Open(nil, e.iv(), e.Ciphertext, aad)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	return plaintext, nil
}

// Decrypt parses envelope and returns its plaintext.
func Decrypt(envelope, encryptionKey, authenticationKey []byte) ([]byte, error) {
	env, err := ParseEnvelope(envelope)
	if err != nil {
		return nil, err
	}
	return env.Decrypt(encryptionKey, authenticationKey)
}

// Encrypt builds an authenticated and encrypted envelope around plaintext.
// Meter simulators use it to produce frames the parser accepts.
func Encrypt(systemTitle []byte, counter uint32, plaintext, encryptionKey, authenticationKey []byte) ([]byte, error) {
	if len(systemTitle) != systemTitleLength {
		return nil, fmt.Errorf("%w: system title must be %d bytes", ErrMalformedEnvelope, systemTitleLength)
	}
	gcm, err := newGCM(encryptionKey)
	if err != nil {
		return nil, err
	}
	env := Envelope{
		SystemTitle:       systemTitle,
		SecurityControl:   SecurityAuthenticatedEncrypted,
		InvocationCounter: counter,
	}
	aad := append([]byte{env.SecurityControl}, authenticationKey...)
	sealed := gcm.Seal(nil, env.iv(), plaintext, aad)

	length := 1 + counterLength + len(sealed)
	out := []byte{TagGeneralGlobalCipher, systemTitleLength}
	out = append(out, systemTitle...)
	switch {
	case length < 0x80:
		out = append(out, byte(length))
	case length <= 0xFF:
		out = append(out, 0x81, byte(length))
	default:
		out = append(out, 0x82, byte(length>>8), byte(length))
	}
	out = append(out, env.SecurityControl)
	out = binary.BigEndian.AppendUint32(out, counter)
	return append(out, sealed...), nil
}

// ParseKeyHex decodes a 128 bit key written as 32 hex digits.
func ParseKeyHex(s string) ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(key) != keyLength {
		return nil, fmt.Errorf("%w: want %d hex digits, got %d", ErrInvalidKey, keyLength*2, len(s))
	}
	return key, nil
}
