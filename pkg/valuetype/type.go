package valuetype

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the coercion applied to the raw text of one value group.
type Kind uint8

const (
	KindString Kind = iota
	KindInt
	KindDecimal
	KindTimestamp
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "str"
	case KindInt:
		return "int"
	case KindDecimal:
		return "decimal"
	case KindTimestamp:
		return "timestamp"
	}
	return "unknown"
}

// Format declares how a value group is coerced.
// Timestamps are interpreted as wall time in location.
type Format struct {
	kind     Kind
	location *time.Location
}

var (
	String    = Format{kind: KindString}
	Int       = Format{kind: KindInt}
	Decimal   = Format{kind: KindDecimal}
	Timestamp = Format{kind: KindTimestamp}
)

func (f Format) Kind() Kind {
	return f.kind
}

// Value is one coerced value group.
// Data holds nil, string, int64, decimal.Decimal or a UTC time.Time.
// An empty Unit means the group carried no unit.
type Value struct {
	Data any
	Unit string
}

func (v Value) IsNil() bool {
	return v.Data == nil
}

func (v Value) Text() (string, bool) {
	s, ok := v.Data.(string)
	return s, ok
}

func (v Value) Int() (int64, bool) {
	i, ok := v.Data.(int64)
	return i, ok
}

func (v Value) Decimal() (decimal.Decimal, bool) {
	d, ok := v.Data.(decimal.Decimal)
	return d, ok
}

func (v Value) Time() (time.Time, bool) {
	t, ok := v.Data.(time.Time)
	return t, ok
}
