package meterdb

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/NotCoffee418/dsmr_telegram/pkg/obis"
)

var ErrNoTelegrams = errors.New("no telegrams stored")

// StoredTelegram is one row of the telegrams table.
type StoredTelegram struct {
	ID            uuid.UUID `db:"id"`
	ReceivedAt    time.Time `db:"received_at"`
	Specification string    `db:"specification"`
	Raw           string    `db:"raw"`
	JSON          []byte    `db:"json"`
}

// FieldReading is one value of a stored telegram.
// Channel is 0 for objects that are not M-Bus readings.
type FieldReading struct {
	TelegramID uuid.UUID  `db:"telegram_id"`
	ReceivedAt time.Time  `db:"received_at"`
	Channel    int        `db:"channel"`
	Field      obis.Field `db:"field"`
	Value      string     `db:"value"`
	Unit       string     `db:"unit"`
	// Normalized is nil for non numeric values, see units.Normalize.
	Normalized     *float64   `db:"normalized"`
	NormalizedUnit string     `db:"normalized_unit"`
	DateTime       *time.Time `db:"datetime"`
}
