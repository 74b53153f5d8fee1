package obis

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIDCode(t *testing.T) {
	tests := []struct {
		line   string
		want   IDCode
		isMBus bool
	}{
		{"1-0:1.8.1(001581.123*kWh)", IDCode{Group: 1, Channel: 0}, false},
		{"0-1:24.2.1(200426223001S)(00246.138*m3)", IDCode{Group: 0, Channel: 1}, true},
		{"0-2:96.1.0()", IDCode{Group: 0, Channel: 2}, true},
		{"1-3:0.2.8(50)", IDCode{Group: 1, Channel: 3}, false},
		{"0-0:96.1.1(4B384547303034303436333935353037)", IDCode{Group: 0, Channel: 0}, false},
	}
	for _, tc := range tests {
		got, ok := ParseIDCode(tc.line)
		require.True(t, ok, tc.line)
		assert.Equal(t, tc.want, got, tc.line)
		assert.Equal(t, tc.isMBus, got.IsMBus(), tc.line)
	}
}

func TestParseIDCodeWithoutPrefix(t *testing.T) {
	_, ok := ParseIDCode("(00001.001)")
	assert.False(t, ok)
}

func TestPatternsCompile(t *testing.T) {
	for field, p := range patterns {
		_, err := regexp.Compile(p)
		assert.NoError(t, err, field.String())
	}
}

func TestMbusPatternsSkipMainChannel(t *testing.T) {
	re := regexp.MustCompile(MbusMeterReading.Pattern())
	assert.True(t, re.MatchString("0-1:24.2.1(170102161005W)(00000.107*m3)"))
	assert.True(t, re.MatchString("0-2:24.2.3(200512134558S)(00872.234*m3)"))
	assert.False(t, re.MatchString("0-0:24.2.1(170102161005W)(00000.107*m3)"))

	re = regexp.MustCompile(LongPowerFailureCount.Pattern())
	assert.False(t, re.MatchString("0-0:96.7.21(00013)"))
	assert.True(t, Known(LongPowerFailureCount))
	assert.False(t, Known(Field("NOT_A_FIELD")))
}
