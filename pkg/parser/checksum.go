package parser

import (
	"regexp"
	"strconv"

	"github.com/sigurn/crc16"
)

var (
	crcTable = crc16.MakeTable(crc16.CRC16_ARC)

	// The CRC covers everything from '/' up to and including the last '!'.
	checksumContentPattern = regexp.MustCompile(`(?s)/.+!`)
	checksumValuePattern   = regexp.MustCompile(`^([0-9A-Fa-f]{4})`)
)

// ValidateChecksum checks the CRC16 at the end of telegram.
// A telegram without checksum digits yields a *ParseError, a mismatch an
// *InvalidChecksumError.
func ValidateChecksum(telegram string) error {
	loc := checksumContentPattern.FindStringIndex(telegram)
	if loc == nil {
		return &ParseError{Msg: "failed to perform CRC validation: telegram content not found"}
	}
	m := checksumValuePattern.FindStringSubmatch(telegram[loc[1]:])
	if m == nil {
		return &ParseError{Msg: "failed to perform CRC validation: checksum not found"}
	}

	expected, err := strconv.ParseUint(m[1], 16, 16)
	if err != nil {
		return &ParseError{Msg: "failed to perform CRC validation", Err: err}
	}
	calculated := crc16.Checksum([]byte(telegram[loc[0]:loc[1]]), crcTable)
	if calculated != uint16(expected) {
		return &InvalidChecksumError{Calculated: calculated, Expected: uint16(expected)}
	}
	return nil
}
