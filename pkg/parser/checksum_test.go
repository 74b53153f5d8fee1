package parser_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NotCoffee418/dsmr_telegram/internal/testutil"
	"github.com/NotCoffee418/dsmr_telegram/pkg/parser"
)

func TestValidateChecksumValid(t *testing.T) {
	for _, name := range []string{
		testutil.TelegramV4_2,
		testutil.TelegramV5,
		testutil.TelegramFluvius,
		testutil.TelegramEONHungary,
		testutil.TelegramIskraIE,
		testutil.TelegramSagemcomT210DR,
	} {
		assert.NoError(t, parser.ValidateChecksum(testutil.LoadTelegram(t, name)), name)
	}
}

func TestValidateChecksumInvalid(t *testing.T) {
	telegram := testutil.LoadTelegram(t, testutil.TelegramV4_2)
	corrupted := strings.Replace(telegram, "1-0:1.8.1(001581.123*kWh)\r\n", "", 1)
	require.NotEqual(t, telegram, corrupted)

	err := parser.ValidateChecksum(corrupted)
	var checksumErr *parser.InvalidChecksumError
	require.True(t, errors.As(err, &checksumErr))
	assert.Equal(t, uint16(0x6796), checksumErr.Expected)
	assert.NotEqual(t, checksumErr.Expected, checksumErr.Calculated)

	var pe *parser.ParseError
	assert.True(t, errors.As(err, &pe), "checksum errors are parse errors")
}

func TestValidateChecksumSingleCharacterChange(t *testing.T) {
	telegram := testutil.LoadTelegram(t, testutil.TelegramV5)
	corrupted := strings.Replace(telegram, "000004.426", "000004.427", 1)

	var checksumErr *parser.InvalidChecksumError
	assert.True(t, errors.As(parser.ValidateChecksum(corrupted), &checksumErr))
}

func TestValidateChecksumMissing(t *testing.T) {
	telegram := testutil.LoadTelegram(t, testutil.TelegramV4_2)
	for name, corrupted := range map[string]string{
		"no digits":   strings.Replace(telegram, "!6796\r\n", "!\r\n", 1),
		"no trailer":  strings.Replace(telegram, "!6796\r\n", "", 1),
		"short token": strings.Replace(telegram, "!6796\r\n", "!67\r\n", 1),
	} {
		err := parser.ValidateChecksum(corrupted)
		var pe *parser.ParseError
		require.True(t, errors.As(err, &pe), name)

		var checksumErr *parser.InvalidChecksumError
		assert.False(t, errors.As(err, &checksumErr), name)
	}
}

func TestValidateChecksumLowercaseHex(t *testing.T) {
	telegram := testutil.LoadTelegram(t, testutil.TelegramV5)
	assert.NoError(t, parser.ValidateChecksum(strings.Replace(telegram, "!6EEE", "!6eee", 1)))
}
