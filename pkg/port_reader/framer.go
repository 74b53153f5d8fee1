package port_reader

import (
	"bytes"

	"github.com/sirupsen/logrus"

	"github.com/NotCoffee418/dsmr_telegram/pkg/cipher"
	"github.com/NotCoffee418/dsmr_telegram/pkg/telegrambuffer"
)

// framer cuts a byte stream into frames for the parser.
type framer interface {
	Feed(chunk []byte, handle func(frame string))
	Len() int
}

// textFramer finds plaintext telegrams, from '/' up to the checksum line.
type textFramer struct {
	buffer *telegrambuffer.Buffer
}

func (f textFramer) Feed(chunk []byte, handle func(frame string)) {
	f.buffer.Feed(string(chunk), handle)
}

func (f textFramer) Len() int {
	return f.buffer.Len()
}

// envelopeFramer finds general global cipher envelopes in binary streams.
// Bytes before an envelope tag are dropped.
type envelopeFramer struct {
	pending []byte
	logger  logrus.FieldLogger
}

func (f *envelopeFramer) Feed(chunk []byte, handle func(frame string)) {
	f.pending = append(f.pending, chunk...)
	for {
		start := bytes.IndexByte(f.pending, cipher.TagGeneralGlobalCipher)
		if start < 0 {
			f.pending = f.pending[:0]
			return
		}
		f.pending = f.pending[start:]

		n, err := cipher.FrameLength(f.pending)
		if err != nil {
			f.logger.WithError(err).Debug("Skipping byte that does not start an envelope")
			f.pending = f.pending[1:]
			continue
		}
		if n == 0 || len(f.pending) < n {
			return
		}
		frame := string(f.pending[:n])
		f.pending = f.pending[n:]
		handle(frame)
	}
}

func (f *envelopeFramer) Len() int {
	return len(f.pending)
}

const (
	rfxtrxPacketTypeDSMR = 0x62
	rfxtrxSubtypeP1      = 0x01
	rfxtrxHeaderLength   = 4
)

// rfxtrxFramer unwraps the packets of an RFXtrx receiver. Each packet is a
// length byte (not counting itself), packet type, subtype and sequence number
// followed by the data. Only DSMR P1 packets reach the inner framer.
type rfxtrxFramer struct {
	inner   framer
	pending []byte
}

func (f *rfxtrxFramer) Feed(chunk []byte, handle func(frame string)) {
	f.pending = append(f.pending, chunk...)
	for len(f.pending) > 0 {
		packetLength := int(f.pending[0]) + 1
		if len(f.pending) < packetLength {
			return
		}
		packet := f.pending[:packetLength]
		f.pending = f.pending[packetLength:]

		if packetLength < rfxtrxHeaderLength {
			continue
		}
		if packet[1] == rfxtrxPacketTypeDSMR && packet[2] == rfxtrxSubtypeP1 {
			f.inner.Feed(packet[rfxtrxHeaderLength:], handle)
		}
	}
}

func (f *rfxtrxFramer) Len() int {
	return len(f.pending) + f.inner.Len()
}
