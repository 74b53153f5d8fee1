// Package objects holds the typed result of parsing one telegram.
package objects

import (
	"fmt"
	"strings"

	"github.com/NotCoffee418/dsmr_telegram/pkg/obis"
	"github.com/NotCoffee418/dsmr_telegram/pkg/valuetype"
)

// Object is the parsed value of one matched telegram line.
type Object interface {
	IDCode() obis.IDCode
	Values() []valuetype.Value
	// IsMBusReading reports whether the object belongs to an M-Bus channel.
	IsMBusReading() bool
	String() string
	JSONValue() any
}

type base struct {
	idCode obis.IDCode
	values []valuetype.Value
}

func (b base) IDCode() obis.IDCode {
	return b.idCode
}

func (b base) Values() []valuetype.Value {
	return b.values
}

func (b base) IsMBusReading() bool {
	return b.idCode.IsMBus()
}

func (b base) value(i int) valuetype.Value {
	if i < 0 || i >= len(b.values) {
		return valuetype.Value{}
	}
	return b.values[i]
}

// CosemObject is a single scalar reading with an optional unit.
type CosemObject struct {
	base
}

func NewCosemObject(id obis.IDCode, values []valuetype.Value) *CosemObject {
	return &CosemObject{base{idCode: id, values: values}}
}

func (o *CosemObject) Raw() valuetype.Value {
	return o.value(0)
}

func (o *CosemObject) Value() any {
	return o.value(0).Data
}

func (o *CosemObject) Unit() string {
	return o.value(0).Unit
}

func (o *CosemObject) String() string {
	v := o.Raw()
	return fmt.Sprintf("%s\t[%s]", v.Display(), v.DisplayUnit())
}

type cosemJSON struct {
	Value any `json:"value"`
	Unit  any `json:"unit"`
}

func (o *CosemObject) JSONValue() any {
	v := o.Raw()
	return cosemJSON{Value: v.JSONValue(), Unit: v.JSONUnit()}
}

// MBusLayout selects where an MBusObject finds its value and unit.
type MBusLayout uint8

const (
	// LayoutTimestamped is (timestamp)(value*unit).
	LayoutTimestamped MBusLayout = iota
	// LayoutV2_2 is the DSMR 2.2 gas reading:
	// (timestamp)(status)(period)(count)(obis)(unit)(value).
	LayoutV2_2
)

// MBusObject is a timestamped reading, usually from a gas, water or heat meter.
type MBusObject struct {
	base
	layout MBusLayout
}

func NewMBusObject(id obis.IDCode, layout MBusLayout, values []valuetype.Value) *MBusObject {
	return &MBusObject{base: base{idCode: id, values: values}, layout: layout}
}

func (o *MBusObject) Layout() MBusLayout {
	return o.layout
}

func (o *MBusObject) RawDateTime() valuetype.Value {
	return o.value(0)
}

func (o *MBusObject) RawValue() valuetype.Value {
	if o.layout == LayoutV2_2 {
		return valuetype.Value{Data: o.value(6).Data, Unit: o.Unit()}
	}
	return o.value(1)
}

func (o *MBusObject) DateTime() any {
	return o.RawDateTime().Data
}

func (o *MBusObject) Value() any {
	return o.RawValue().Data
}

func (o *MBusObject) Unit() string {
	if o.layout == LayoutV2_2 {
		unit, _ := o.value(5).Text()
		return unit
	}
	return o.value(1).Unit
}

func (o *MBusObject) String() string {
	v := o.RawValue()
	return fmt.Sprintf("%s\t[%s] at %s", v.Display(), v.DisplayUnit(), o.RawDateTime().Display())
}

type mbusJSON struct {
	DateTime any `json:"datetime"`
	Value    any `json:"value"`
	Unit     any `json:"unit"`
}

func (o *MBusObject) JSONValue() any {
	v := o.RawValue()
	return mbusJSON{DateTime: o.RawDateTime().JSONValue(), Value: v.JSONValue(), Unit: v.JSONUnit()}
}

// MBusObjectPeak is one entry of a peak demand history:
// the period it covers, when the peak occurred and the peak itself.
type MBusObjectPeak struct {
	base
}

func NewMBusObjectPeak(id obis.IDCode, values []valuetype.Value) *MBusObjectPeak {
	return &MBusObjectPeak{base{idCode: id, values: values}}
}

func (o *MBusObjectPeak) RawDateTime() valuetype.Value {
	return o.value(0)
}

func (o *MBusObjectPeak) RawOccurred() valuetype.Value {
	return o.value(1)
}

func (o *MBusObjectPeak) RawValue() valuetype.Value {
	return o.value(2)
}

func (o *MBusObjectPeak) DateTime() any {
	return o.RawDateTime().Data
}

func (o *MBusObjectPeak) Occurred() any {
	return o.RawOccurred().Data
}

func (o *MBusObjectPeak) Value() any {
	return o.RawValue().Data
}

func (o *MBusObjectPeak) Unit() string {
	return o.RawValue().Unit
}

func (o *MBusObjectPeak) String() string {
	v := o.RawValue()
	return fmt.Sprintf("%s\t[%s] at %s occurred %s",
		v.Display(), v.DisplayUnit(), o.RawDateTime().Display(), o.RawOccurred().Display())
}

type peakJSON struct {
	DateTime any `json:"datetime"`
	Occurred any `json:"occurred"`
	Value    any `json:"value"`
	Unit     any `json:"unit"`
}

func (o *MBusObjectPeak) JSONValue() any {
	v := o.RawValue()
	return peakJSON{
		DateTime: o.RawDateTime().JSONValue(),
		Occurred: o.RawOccurred().JSONValue(),
		Value:    v.JSONValue(),
		Unit:     v.JSONUnit(),
	}
}

// ProfileGenericObject is a self-describing buffer such as the power failure log.
type ProfileGenericObject struct {
	base
	bufferLength int
	bufferType   valuetype.Value
	buffer       []*MBusObject
}

func NewProfileGenericObject(
	id obis.IDCode,
	values []valuetype.Value,
	bufferLength int,
	bufferType valuetype.Value,
	buffer []*MBusObject,
) *ProfileGenericObject {
	if buffer == nil {
		buffer = []*MBusObject{}
	}
	return &ProfileGenericObject{
		base:         base{idCode: id, values: values},
		bufferLength: bufferLength,
		bufferType:   bufferType,
		buffer:       buffer,
	}
}

func (o *ProfileGenericObject) BufferLength() int {
	return o.bufferLength
}

// BufferType is the OBIS code describing the buffer values, or nil.
func (o *ProfileGenericObject) BufferType() any {
	return o.bufferType.Data
}

func (o *ProfileGenericObject) Buffer() []*MBusObject {
	return o.buffer
}

func (o *ProfileGenericObject) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "\t buffer length: %d\n", o.bufferLength)
	fmt.Fprintf(&sb, "\t buffer type: %s", o.bufferType.Display())
	for _, item := range o.buffer {
		v := item.RawValue()
		fmt.Fprintf(&sb, "\n\t event occured at: %s \t for: %s [%s]",
			item.RawDateTime().Display(), v.Display(), v.DisplayUnit())
	}
	return sb.String()
}

type profileGenericJSON struct {
	BufferLength int   `json:"buffer_length"`
	BufferType   any   `json:"buffer_type"`
	Buffer       []any `json:"buffer"`
}

func (o *ProfileGenericObject) JSONValue() any {
	buffer := make([]any, 0, len(o.buffer))
	for _, item := range o.buffer {
		buffer = append(buffer, item.JSONValue())
	}
	return profileGenericJSON{
		BufferLength: o.bufferLength,
		BufferType:   o.bufferType.JSONValue(),
		Buffer:       buffer,
	}
}

// ObjectList is the value of a repeatable field.
type ObjectList struct {
	items []Object
}

func NewObjectList(items ...Object) *ObjectList {
	return &ObjectList{items: append([]Object{}, items...)}
}

func (l *ObjectList) Items() []Object {
	return l.items
}

func (l *ObjectList) Len() int {
	return len(l.items)
}

func (l *ObjectList) Append(obj Object) {
	if other, ok := obj.(*ObjectList); ok {
		l.items = append(l.items, other.items...)
		return
	}
	l.items = append(l.items, obj)
}

// IDCode is the id code of the first item.
func (l *ObjectList) IDCode() obis.IDCode {
	if len(l.items) == 0 {
		return obis.IDCode{}
	}
	return l.items[0].IDCode()
}

func (l *ObjectList) Values() []valuetype.Value {
	var values []valuetype.Value
	for _, item := range l.items {
		values = append(values, item.Values()...)
	}
	return values
}

func (l *ObjectList) IsMBusReading() bool {
	return l.IDCode().IsMBus()
}

func (l *ObjectList) String() string {
	parts := make([]string, 0, len(l.items))
	for _, item := range l.items {
		parts = append(parts, item.String())
	}
	return strings.Join(parts, "\n\t ")
}

func (l *ObjectList) JSONValue() any {
	out := make([]any, 0, len(l.items))
	for _, item := range l.items {
		out = append(out, item.JSONValue())
	}
	return out
}
