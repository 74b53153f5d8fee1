// Package telegrambuffer reassembles complete telegrams from a stream of
// arbitrarily chunked data.
package telegrambuffer

import (
	"regexp"
	"strings"
)

// A telegram runs from '/' to the first '!' followed by an optional checksum,
// an optional NUL and CRLF. Excluding '/' from the body drops an unterminated
// predecessor when a new telegram starts.
var telegramPattern = regexp.MustCompile(`(?s)/[^/]+?![A-F0-9]{0,4}\x00?\r\n`)

// Buffer accumulates received data. It is not safe for concurrent use.
type Buffer struct {
	data strings.Builder
}

func New() *Buffer {
	return &Buffer{}
}

// Append adds chars, lines or whole telegrams to the buffer.
func (b *Buffer) Append(fragment string) {
	b.data.WriteString(fragment)
}

// Drain removes and returns every complete telegram, oldest first.
// Data preceding a telegram is discarded with it.
func (b *Buffer) Drain() []string {
	buffered := b.data.String()
	matches := telegramPattern.FindAllStringIndex(buffered, -1)
	if len(matches) == 0 {
		return nil
	}

	telegrams := make([]string, 0, len(matches))
	for _, m := range matches {
		telegrams = append(telegrams, buffered[m[0]:m[1]])
	}

	rest := buffered[matches[len(matches)-1][1]:]
	b.data.Reset()
	b.data.WriteString(rest)
	return telegrams
}

// Feed appends fragment and calls handle for every telegram it completes.
func (b *Buffer) Feed(fragment string, handle func(telegram string)) {
	b.Append(fragment)
	for _, telegram := range b.Drain() {
		handle(telegram)
	}
}

// Len is the number of buffered bytes not yet part of a complete telegram.
func (b *Buffer) Len() int {
	return b.data.Len()
}

func (b *Buffer) Reset() {
	b.data.Reset()
}
