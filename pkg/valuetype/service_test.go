package valuetype

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSplitsUnit(t *testing.T) {
	v, err := Decimal.Parse("001581.123*kWh")
	require.NoError(t, err)

	d, ok := v.Decimal()
	require.True(t, ok)
	assert.True(t, d.Equal(decimal.RequireFromString("1581.123")))
	assert.Equal(t, "kWh", v.Unit)
	assert.Equal(t, "1581.123", v.Display())
}

func TestParseEmptyValue(t *testing.T) {
	for _, f := range []Format{String, Int, Decimal, Timestamp} {
		v, err := f.Parse("")
		require.NoError(t, err, f.Kind().String())
		assert.True(t, v.IsNil())
		assert.Equal(t, "None", v.Display())
		assert.Equal(t, "None", v.DisplayUnit())
		assert.Nil(t, v.JSONUnit())
	}
}

func TestParseInt(t *testing.T) {
	v, err := Int.Parse("00013")
	require.NoError(t, err)
	i, ok := v.Int()
	require.True(t, ok)
	assert.Equal(t, int64(13), i)

	v, err = Int.Parse("0000000237126*s")
	require.NoError(t, err)
	i, _ = v.Int()
	assert.Equal(t, int64(237126), i)
	assert.Equal(t, "s", v.Unit)

	_, err = Int.Parse("12a")
	assert.Error(t, err)
}

func TestParseStringKeepsLeadingZeros(t *testing.T) {
	v, err := String.Parse("0002")
	require.NoError(t, err)
	s, ok := v.Text()
	require.True(t, ok)
	assert.Equal(t, "0002", s)
}

func TestDecimalKeepsFractionDigits(t *testing.T) {
	cases := map[string]string{
		"00.070":     "0.070",
		"000000.000": "0.000",
		"0230.0":     "230.0",
		"00999":      "999",
		"00.244":     "0.244",
	}
	for raw, want := range cases {
		v, err := Decimal.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, want, v.Display(), raw)
	}
}

func TestDecimalJSONIsFloat(t *testing.T) {
	v, err := Decimal.Parse("00.070*kW")
	require.NoError(t, err)
	assert.Equal(t, 0.07, v.JSONValue())
	assert.Equal(t, "kW", v.JSONUnit())
}

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Time
	}{
		{"200426223001S", time.Date(2020, 4, 26, 20, 30, 1, 0, time.UTC)},
		{"161113205757W", time.Date(2016, 11, 13, 19, 57, 57, 0, time.UTC)},
		{"170102192002W", time.Date(2017, 1, 2, 18, 20, 2, 0, time.UTC)},
		{"230801000000S", time.Date(2023, 7, 31, 22, 0, 0, 0, time.UTC)},
		{"161113205757", time.Date(2016, 11, 13, 19, 57, 57, 0, time.UTC)},
	}
	for _, tc := range cases {
		got, ok := ParseTimestamp(tc.raw, nil)
		require.True(t, ok, tc.raw)
		assert.True(t, tc.want.Equal(got), "%s: got %s", tc.raw, got)
	}
}

func TestParseTimestampHonoursFlagOverZoneRules(t *testing.T) {
	// Winter date flagged as summer time still gets the +2h offset.
	got, ok := ParseTimestamp("170102192002S", nil)
	require.True(t, ok)
	assert.Equal(t, time.Date(2017, 1, 2, 17, 20, 2, 0, time.UTC), got)
}

func TestParseTimestampInvalid(t *testing.T) {
	for _, raw := range []string{"632525252525W", "171302192002W", "1701021920", "170102192002X"} {
		v, err := Timestamp.Parse(raw)
		require.NoError(t, err, raw)
		assert.True(t, v.IsNil(), raw)
	}
}

func TestTimestampDisplay(t *testing.T) {
	v, err := Timestamp.Parse("170102192002W")
	require.NoError(t, err)
	assert.Equal(t, "2017-01-02T18:20:02+00:00", v.Display())
	assert.Equal(t, "2017-01-02T18:20:02+00:00", v.JSONValue())
}

func TestLoadTimestampFormat(t *testing.T) {
	f, err := LoadTimestampFormat("Europe/Stockholm")
	require.NoError(t, err)
	assert.Equal(t, KindTimestamp, f.Kind())

	_, err = LoadTimestampFormat("Mars/Olympus")
	assert.Error(t, err)
}
