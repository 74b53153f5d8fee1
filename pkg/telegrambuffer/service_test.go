package telegrambuffer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = "/KFM5KAIFA-METER\r\n" +
	"\r\n" +
	"1-3:0.2.8(42)\r\n" +
	"0-0:1.0.0(161113205757W)\r\n" +
	"1-0:1.8.1(001581.123*kWh)\r\n" +
	"!6796\r\n"

func TestDrainWholeTelegram(t *testing.T) {
	b := New()
	b.Append(sample)

	assert.Equal(t, []string{sample}, b.Drain())
	assert.Equal(t, 0, b.Len())
	assert.Nil(t, b.Drain())
}

func TestDrainByteByByte(t *testing.T) {
	b := New()
	var got []string
	for _, c := range sample {
		b.Append(string(c))
		got = append(got, b.Drain()...)
	}
	assert.Equal(t, []string{sample}, got)
}

func TestDrainLineByLine(t *testing.T) {
	b := New()
	var got []string
	for _, line := range strings.SplitAfter(sample, "\r\n") {
		b.Append(line)
		got = append(got, b.Drain()...)
	}
	assert.Equal(t, []string{sample}, got)
}

func TestDrainIncompleteTelegram(t *testing.T) {
	b := New()
	b.Append(sample[:len(sample)-4])

	assert.Nil(t, b.Drain())
	assert.Equal(t, len(sample)-4, b.Len())

	b.Append(sample[len(sample)-4:])
	assert.Equal(t, []string{sample}, b.Drain())
}

func TestDrainMultipleTelegramsOldestFirst(t *testing.T) {
	second := strings.Replace(sample, "001581.123", "001581.124", 1)
	b := New()
	b.Append(sample + second + "/KFM5")

	assert.Equal(t, []string{sample, second}, b.Drain())
	assert.Equal(t, len("/KFM5"), b.Len())
}

func TestDrainDiscardsLeadingGarbage(t *testing.T) {
	b := New()
	b.Append("\x00\x01garbage\r\n1-0:1.8.1(000001.000*kWh)\r\n!1234\r\n" + sample)

	assert.Equal(t, []string{sample}, b.Drain())
}

func TestDrainDropsUnterminatedPredecessor(t *testing.T) {
	b := New()
	b.Append("/ISK5\r\n1-0:1.8.1(000001.000*kWh)\r\n")
	b.Append(sample)

	telegrams := b.Drain()
	require.Len(t, telegrams, 1)
	assert.Equal(t, sample, telegrams[0])
	assert.NotContains(t, telegrams[0], "ISK5")
}

func TestDrainWithoutChecksum(t *testing.T) {
	v22 := "/ISk5\\2MT382-1004\r\n\r\n0-0:96.1.1(00000000000000)\r\n!\r\n"
	b := New()
	b.Append(v22)

	assert.Equal(t, []string{v22}, b.Drain())
}

func TestDrainTrailingNul(t *testing.T) {
	withNul := strings.Replace(sample, "!6796\r\n", "!6796\x00\r\n", 1)
	b := New()
	b.Append(withNul)

	assert.Equal(t, []string{withNul}, b.Drain())
}

func TestFeed(t *testing.T) {
	b := New()
	var got []string
	handle := func(telegram string) {
		got = append(got, telegram)
	}

	b.Feed(sample[:10], handle)
	assert.Empty(t, got)

	b.Feed(sample[10:]+sample, handle)
	assert.Equal(t, []string{sample, sample}, got)
}

func TestReset(t *testing.T) {
	b := New()
	b.Append(sample[:20])
	require.Equal(t, 20, b.Len())

	b.Reset()
	assert.Equal(t, 0, b.Len())

	b.Append(sample)
	assert.Equal(t, []string{sample}, b.Drain())
}
