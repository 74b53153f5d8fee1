package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NotCoffee418/dsmr_telegram/pkg/obis"
	"github.com/NotCoffee418/dsmr_telegram/pkg/valuetype"
)

func baseSpec() Specification {
	return Specification{
		Name:            "BASE",
		ChecksumSupport: true,
		Entries: []Entry{
			NewEntry(obis.ElectricityUsedTariff1, NewCosemParser(valuetype.Decimal)),
			NewEntry(obis.TextMessage, NewCosemParser(valuetype.String)),
		},
	}
}

func TestWithReplacesInPlace(t *testing.T) {
	base := baseSpec()
	derived := base.With("DERIVED", NewEntry(obis.ElectricityUsedTariff1, NewCosemParser(valuetype.String)))

	assert.Equal(t, "DERIVED", derived.Name)
	assert.True(t, derived.ChecksumSupport)
	require.Len(t, derived.Entries, 2)
	assert.Equal(t, obis.ElectricityUsedTariff1, derived.Entries[0].Field)
	assert.Equal(t, valuetype.String, derived.Entries[0].Parser.(CosemParser).Format)

	// The base table is left alone.
	assert.Equal(t, "BASE", base.Name)
	assert.Equal(t, valuetype.Decimal, base.Entries[0].Parser.(CosemParser).Format)
}

func TestWithAppends(t *testing.T) {
	base := baseSpec()
	derived := base.With("DERIVED", NewEntry(obis.Frequency, NewCosemParser(valuetype.Decimal)))

	require.Len(t, derived.Entries, 3)
	assert.Equal(t, obis.Frequency, derived.Entries[2].Field)
	assert.Len(t, base.Entries, 2)
}

func TestWithout(t *testing.T) {
	base := baseSpec()
	derived := base.Without("DERIVED", obis.ElectricityUsedTariff1)

	require.Len(t, derived.Entries, 1)
	assert.Equal(t, obis.TextMessage, derived.Entries[0].Field)
	require.Len(t, base.Entries, 2)
	assert.Equal(t, obis.ElectricityUsedTariff1, base.Entries[0].Field)

	_, ok := derived.Match("1-0:1.8.1(000001.000*kWh)")
	assert.False(t, ok)
}

func TestMatchFirstEntryWins(t *testing.T) {
	spec := Specification{
		Name: "OVERLAP",
		Entries: []Entry{
			NewEntry(obis.MbusEquipmentIdentifier, NewCosemParser(valuetype.String)),
			NewEntry(obis.EquipmentIdentifier, NewCosemParser(valuetype.String)),
		},
	}

	e, ok := spec.Match("0-1:96.1.1(1234)")
	require.True(t, ok)
	assert.Equal(t, obis.MbusEquipmentIdentifier, e.Field)

	e, ok = spec.Match("0-0:96.1.1(1234)")
	require.True(t, ok)
	assert.Equal(t, obis.EquipmentIdentifier, e.Field)
}

func TestMatchRequiresOpeningParenthesis(t *testing.T) {
	spec := baseSpec()
	_, ok := spec.Match("1-0:1.8.10(000001.000*kWh)")
	assert.False(t, ok)
}

func TestNewEntryPanicsForUnknownField(t *testing.T) {
	assert.Panics(t, func() {
		NewEntry(obis.Field("NOT_A_FIELD"), NewCosemParser(valuetype.String))
	})
}

func TestNewEntryWithPattern(t *testing.T) {
	e, err := NewEntryWithPattern(obis.Field("CUSTOM"), `^\d-\d:96\.99\.0\(`, NewCosemParser(valuetype.String))
	require.NoError(t, err)
	assert.True(t, e.Pattern.MatchString("0-0:96.99.0(x)"))

	_, err = NewEntryWithPattern(obis.Field("CUSTOM"), `(`, NewCosemParser(valuetype.String))
	assert.Error(t, err)
}

func TestRepeatableEntryCollects(t *testing.T) {
	spec := Specification{
		Name: "REPEAT",
		Entries: []Entry{
			NewEntry(obis.TextMessage, NewCosemParser(valuetype.String)).AsRepeatable(),
		},
	}
	p := New(spec, ApplyChecksumValidation(false))
	telegram, err := p.Parse("/X\r\n\r\n0-0:96.13.0(A1)\r\n0-0:96.13.0(B2)\r\n!\r\n")
	require.NoError(t, err)

	obj, err := telegram.Get(obis.TextMessage)
	require.NoError(t, err)
	assert.Len(t, obj.Values(), 2)
}
