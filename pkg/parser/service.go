// Package parser turns complete telegrams into objects.Telegram records.
package parser

import (
	"encoding/hex"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/NotCoffee418/dsmr_telegram/pkg/cipher"
	"github.com/NotCoffee418/dsmr_telegram/pkg/obis"
	"github.com/NotCoffee418/dsmr_telegram/pkg/objects"
)

type TelegramParser struct {
	spec          Specification
	strict        bool
	applyChecksum bool
	logger        logrus.FieldLogger
}

type Option func(*TelegramParser)

// WithStrict makes a malformed line fail the whole telegram.
// By default such lines are logged and skipped.
func WithStrict(strict bool) Option {
	return func(p *TelegramParser) {
		p.strict = strict
	}
}

// ApplyChecksumValidation turns CRC validation off for specifications that
// declare checksum support.
func ApplyChecksumValidation(apply bool) Option {
	return func(p *TelegramParser) {
		p.applyChecksum = apply
	}
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(p *TelegramParser) {
		p.logger = logger
	}
}

// Initialize a new TelegramParser for spec.
func New(spec Specification, opts ...Option) *TelegramParser {
	p := &TelegramParser{
		spec:          spec,
		applyChecksum: true,
		logger:        logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *TelegramParser) Specification() Specification {
	return p.spec
}

// Parse parses a plaintext telegram.
// Specifications with general global cipher need ParseEncrypted.
func (p *TelegramParser) Parse(telegram string) (*objects.Telegram, error) {
	return p.ParseEncrypted(telegram, "", "")
}

// ParseEncrypted parses a telegram, decrypting it first when the
// specification declares general global cipher. The envelope is expected
// as hex or raw bytes, the keys as 32 hex digits each. For other
// specifications the keys are ignored.
func (p *TelegramParser) ParseEncrypted(telegram, encryptionKey, authenticationKey string) (*objects.Telegram, error) {
	if !p.spec.GeneralGlobalCipher {
		if _, enveloped := decodeEnvelope(telegram); enveloped {
			return nil, &ParseError{Msg: "encrypted envelope received but " + p.spec.Name + " has no general global cipher"}
		}
		return p.parsePlain(telegram)
	}

	plaintext, err := p.Decrypt(telegram, encryptionKey, authenticationKey)
	if err != nil {
		return nil, err
	}
	return p.parsePlain(plaintext)
}

// Decrypt returns the plaintext telegram carried by an encrypted envelope.
func (p *TelegramParser) Decrypt(telegram, encryptionKey, authenticationKey string) (string, error) {
	envelope, enveloped := decodeEnvelope(telegram)
	if !enveloped {
		return "", &ParseError{Msg: "expected an encrypted envelope for " + p.spec.Name}
	}
	encKey, err := cipher.ParseKeyHex(encryptionKey)
	if err != nil {
		return "", err
	}
	authKey, err := cipher.ParseKeyHex(authenticationKey)
	if err != nil {
		return "", err
	}
	plaintext, err := cipher.Decrypt(envelope, encKey, authKey)
	if err != nil {
		if errors.Is(err, cipher.ErrMalformedEnvelope) {
			return "", &ParseError{Msg: "invalid encrypted envelope", Err: err}
		}
		return "", err
	}
	return string(plaintext), nil
}

// ParsePlaintext parses a telegram that was already decrypted, whether or
// not the specification uses general global cipher.
func (p *TelegramParser) ParsePlaintext(telegram string) (*objects.Telegram, error) {
	return p.parsePlain(telegram)
}

// decodeEnvelope recognizes a general global cipher APDU, sent either as
// hex or as raw bytes.
func decodeEnvelope(telegram string) ([]byte, bool) {
	trimmed := strings.TrimSpace(telegram)
	if decoded, err := hex.DecodeString(trimmed); err == nil && cipher.IsEnvelope(decoded) {
		return decoded, true
	}
	if cipher.IsEnvelope([]byte(telegram)) {
		return []byte(telegram), true
	}
	return nil, false
}

func (p *TelegramParser) parsePlain(telegram string) (*objects.Telegram, error) {
	if p.spec.ChecksumSupport && p.applyChecksum {
		if err := ValidateChecksum(telegram); err != nil {
			return nil, err
		}
	}

	result := objects.NewTelegram()
	for _, line := range SplitLines(telegram) {
		entry, obj, matched, err := p.parseLine(line)
		if err != nil {
			if p.strict {
				return nil, err
			}
			p.logger.WithError(err).WithField("line", line).Warn("Skipping malformed telegram line")
			continue
		}
		if !matched {
			p.logger.WithField("line", line).Debug("No specification entry for line")
			continue
		}
		result.Add(entry.Field, obj, entry.Repeatable)
	}
	return result, nil
}

// ParseLine parses a single telegram line. matched is false when no entry of
// the specification applies.
func (p *TelegramParser) ParseLine(line string) (field obis.Field, obj objects.Object, matched bool, err error) {
	entry, obj, matched, err := p.parseLine(strings.TrimRight(line, "\r\n"))
	return entry.Field, obj, matched, err
}

func (p *TelegramParser) parseLine(line string) (Entry, objects.Object, bool, error) {
	entry, ok := p.spec.Match(line)
	if !ok {
		return Entry{}, nil, false, nil
	}
	obj, err := entry.Parser.Parse(line)
	if err != nil {
		return entry, nil, true, err
	}
	return entry, obj, true, nil
}

// SplitLines returns the data lines of a telegram. The identification and
// checksum lines are dropped and continuation lines starting with '(' are
// joined to the line before them.
func SplitLines(telegram string) []string {
	var lines []string
	for _, line := range strings.Split(telegram, "\n") {
		line = strings.TrimRight(line, "\r\x00")
		switch {
		case strings.TrimSpace(line) == "":
			continue
		case strings.HasPrefix(line, "/"), strings.HasPrefix(line, "!"):
			continue
		case strings.HasPrefix(line, "(") && len(lines) > 0:
			lines[len(lines)-1] += line
		default:
			lines = append(lines, line)
		}
	}
	return lines
}
