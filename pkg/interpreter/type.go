package interpreter

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/NotCoffee418/dsmr_telegram/pkg/objects"
	"github.com/NotCoffee418/dsmr_telegram/pkg/parser"
	"github.com/NotCoffee418/dsmr_telegram/pkg/specifications"
)

// TelegramMessage is broadcast for every telegram the interpreter API reads.
// Raw is kept so receivers can parse with their own specification.
type TelegramMessage struct {
	ReceivedAt    time.Time       `json:"received_at"`
	Specification string          `json:"specification"`
	Raw           string          `json:"raw"`
	Telegram      json.RawMessage `json:"telegram"`
}

func NewTelegramMessage(specification string, telegram *objects.Telegram, raw string, receivedAt time.Time) (*TelegramMessage, error) {
	payload, err := telegram.ToJSON()
	if err != nil {
		return nil, err
	}
	return &TelegramMessage{
		ReceivedAt:    receivedAt.UTC(),
		Specification: specification,
		Raw:           raw,
		Telegram:      payload,
	}, nil
}

func (m *TelegramMessage) ToJsonBytes() []byte {
	data, err := json.Marshal(m)
	if err != nil {
		// Only RawMessage can fail and it came from json.Marshal.
		return nil
	}
	return data
}

// FromJSONBytes decodes a broadcast message.
func FromJSONBytes(data []byte) (*TelegramMessage, error) {
	var m TelegramMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m.Raw == "" {
		return nil, errors.New("message has no raw telegram")
	}
	return &m, nil
}

// Parse parses Raw again with the specification the sender used. Telegrams
// from a specification unknown here are matched against the built-in ones.
// Raw is always plaintext, encrypted telegrams are sent decrypted.
func (m *TelegramMessage) Parse(opts ...parser.Option) (*objects.Telegram, parser.Specification, error) {
	spec, err := specifications.ByName(m.Specification)
	if err != nil {
		spec, err = specifications.Match(m.Raw)
		if err != nil {
			return nil, parser.Specification{}, fmt.Errorf("specification %q: %w", m.Specification, err)
		}
	}
	telegram, err := parser.New(spec, opts...).ParsePlaintext(m.Raw)
	if err != nil {
		return nil, spec, err
	}
	return telegram, spec, nil
}
