// Package port_reader reads telegrams from serial ports, TCP sockets and files.
package port_reader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/jacobsa/go-serial/serial"
	"github.com/sirupsen/logrus"

	"github.com/NotCoffee418/dsmr_telegram/pkg/objects"
	"github.com/NotCoffee418/dsmr_telegram/pkg/parser"
	"github.com/NotCoffee418/dsmr_telegram/pkg/telegrambuffer"
)

const (
	defaultChunkSize = 1024
	defaultMaxErrors = 10
	dialTimeout      = 10 * time.Second
)

// Initialize a new P1Reader client.
func NewP1Reader(source string, open Opener, p *parser.TelegramParser, opts ...Option) *P1Reader {
	r := &P1Reader{
		source:    source,
		open:      open,
		parser:    p,
		logger:    logrus.StandardLogger(),
		chunkSize: defaultChunkSize,
		maxErrors: defaultMaxErrors,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewSerialReader reads from a P1 serial device.
func NewSerialReader(device string, settings SerialSettings, p *parser.TelegramParser, opts ...Option) *P1Reader {
	open := func(context.Context) (io.ReadCloser, error) {
		port, err := serial.Open(serial.OpenOptions{
			PortName:        device,
			BaudRate:        settings.BaudRate,
			DataBits:        settings.DataBits,
			StopBits:        settings.StopBits,
			ParityMode:      settings.Parity,
			MinimumReadSize: 1,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open serial port: %w", err)
		}
		return port, nil
	}
	return NewP1Reader(device, open, p, opts...)
}

// NewSocketReader reads from a serial-to-network bridge.
func NewSocketReader(host string, port int, p *parser.TelegramParser, opts ...Option) *P1Reader {
	address := net.JoinHostPort(host, strconv.Itoa(port))
	open := func(ctx context.Context) (io.ReadCloser, error) {
		dialer := net.Dialer{Timeout: dialTimeout}
		conn, err := dialer.DialContext(ctx, "tcp", address)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to %s: %w", address, err)
		}
		return conn, nil
	}
	return NewP1Reader(address, open, p, opts...)
}

// NewFileReader reads telegrams recorded in a file.
func NewFileReader(path string, p *parser.TelegramParser, opts ...Option) *P1Reader {
	open := func(context.Context) (io.ReadCloser, error) {
		return os.Open(path)
	}
	return NewP1Reader(path, open, p, opts...)
}

// NewStreamReader reads from an already open stream. It is not closed by the reader.
func NewStreamReader(stream io.Reader, p *parser.TelegramParser, opts ...Option) *P1Reader {
	open := func(context.Context) (io.ReadCloser, error) {
		return io.NopCloser(stream), nil
	}
	return NewP1Reader("stream", open, p, opts...)
}

// Read connects to the source and hands every parsed telegram to handle
// until the source ends, ctx is done, or too many telegrams in a row fail.
// The end of a file or stream is not an error.
func (r *P1Reader) Read(ctx context.Context, handle TelegramHandler) error {
	src, err := r.open(ctx)
	if err != nil {
		return err
	}
	log := r.logger.WithField("source", r.source)
	log.Info("Connected to telegram source")

	stop := context.AfterFunc(ctx, func() {
		src.Close()
	})
	defer func() {
		if stop() {
			src.Close()
		}
		log.Info("Disconnected from telegram source")
	}()

	frames := r.newFramer()
	chunk := make([]byte, r.chunkSize)
	consecutiveErrors := 0
	var lastError error

	handleFrame := func(frame string) {
		telegram, raw, err := r.parse(frame)
		if err != nil {
			consecutiveErrors++
			lastError = err
			log.WithError(err).Warnf("Error parsing telegram (%d/%d)", consecutiveErrors, r.maxErrors)
			return
		}
		consecutiveErrors = 0
		r.store(telegram, raw)
		handle(telegram, raw)
	}

	for {
		n, readErr := src.Read(chunk)
		if n > 0 {
			frames.Feed(chunk[:n], handleFrame)
			if r.maxErrors > 0 && consecutiveErrors >= r.maxErrors {
				return fmt.Errorf("%w (%d): %w", ErrTooManyErrors, consecutiveErrors, lastError)
			}
		}

		if readErr != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(readErr, io.EOF) {
				if pending := frames.Len(); pending > 0 {
					log.WithField("pending", pending).Debug("Source ended inside a telegram")
				}
				return nil
			}
			return fmt.Errorf("reading %s: %w", r.source, readErr)
		}
	}
}

func (r *P1Reader) encrypted() bool {
	return r.parser.Specification().GeneralGlobalCipher
}

func (r *P1Reader) newFramer() framer {
	var f framer = textFramer{telegrambuffer.New()}
	if r.encrypted() {
		f = &envelopeFramer{logger: r.logger}
	}
	if r.rfxtrx {
		f = &rfxtrxFramer{inner: f}
	}
	return f
}

// parse returns the telegram and the plaintext it was parsed from.
func (r *P1Reader) parse(frame string) (*objects.Telegram, string, error) {
	if !r.encrypted() {
		telegram, err := r.parser.Parse(frame)
		return telegram, frame, err
	}
	plaintext, err := r.parser.Decrypt(frame, r.encryptionKey, r.authenticationKey)
	if err != nil {
		return nil, "", err
	}
	telegram, err := r.parser.ParsePlaintext(plaintext)
	return telegram, plaintext, err
}

// StartReading runs Read in a goroutine. handleError receives the error
// that ended it, unless ctx was cancelled.
func (r *P1Reader) StartReading(ctx context.Context, handleTelegram TelegramHandler, handleError func(error)) {
	go func() {
		err := r.Read(ctx, handleTelegram)
		if err != nil && !errors.Is(err, context.Canceled) {
			handleError(err)
		}
	}()
}

func (r *P1Reader) store(telegram *objects.Telegram, raw string) {
	r.readingMutex.Lock()
	r.latestTelegram = telegram
	r.latestRaw = raw
	r.readingMutex.Unlock()
}

// LatestTelegram returns the last telegram that parsed, or nil.
func (r *P1Reader) LatestTelegram() (*objects.Telegram, string) {
	r.readingMutex.RLock()
	defer r.readingMutex.RUnlock()
	return r.latestTelegram, r.latestRaw
}

// SerialSettingsFor returns the line settings meters of spec use.
func SerialSettingsFor(spec parser.Specification) SerialSettings {
	switch spec.Name {
	case "V2_2", "V3":
		return SerialSettingsV2_2
	case "V4":
		return SerialSettingsV4
	}
	return SerialSettingsV5
}
