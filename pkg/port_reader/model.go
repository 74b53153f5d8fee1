package port_reader

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/jacobsa/go-serial/serial"
	"github.com/sirupsen/logrus"

	"github.com/NotCoffee418/dsmr_telegram/pkg/objects"
	"github.com/NotCoffee418/dsmr_telegram/pkg/parser"
)

var ErrTooManyErrors = errors.New("too many consecutive telegram errors")

// SerialSettings are the line settings of a P1 port.
type SerialSettings struct {
	BaudRate uint
	DataBits uint
	Parity   serial.ParityMode
	StopBits uint
}

var (
	// DSMR 2.2 and 3 meters talk 9600 7E1.
	SerialSettingsV2_2 = SerialSettings{BaudRate: 9600, DataBits: 7, Parity: serial.PARITY_EVEN, StopBits: 1}
	SerialSettingsV4   = SerialSettings{BaudRate: 115200, DataBits: 7, Parity: serial.PARITY_EVEN, StopBits: 1}
	SerialSettingsV5   = SerialSettingsV4
)

// Opener connects to a telegram source.
type Opener func(ctx context.Context) (io.ReadCloser, error)

// TelegramHandler receives every telegram that parsed, with its raw frame.
// Frames of encrypted meters are handed over decrypted.
type TelegramHandler func(telegram *objects.Telegram, raw string)

type P1Reader struct {
	source    string
	open      Opener
	parser    *parser.TelegramParser
	logger    logrus.FieldLogger
	chunkSize int
	maxErrors int

	encryptionKey     string
	authenticationKey string
	rfxtrx            bool

	latestTelegram *objects.Telegram
	latestRaw      string
	readingMutex   sync.RWMutex
}

type Option func(*P1Reader)

func WithLogger(logger logrus.FieldLogger) Option {
	return func(r *P1Reader) {
		r.logger = logger
	}
}

// WithMaxErrors sets how many telegrams in a row may fail before Read gives up.
// Zero or less means never.
func WithMaxErrors(n int) Option {
	return func(r *P1Reader) {
		r.maxErrors = n
	}
}

func WithChunkSize(n int) Option {
	return func(r *P1Reader) {
		if n > 0 {
			r.chunkSize = n
		}
	}
}

// WithKeys sets the keys of meters that encrypt their telegrams.
func WithKeys(encryptionKey, authenticationKey string) Option {
	return func(r *P1Reader) {
		r.encryptionKey = encryptionKey
		r.authenticationKey = authenticationKey
	}
}

// WithRFXtrx reads telegrams that arrive wrapped in RFXtrx receiver packets.
func WithRFXtrx() Option {
	return func(r *P1Reader) {
		r.rfxtrx = true
	}
}
