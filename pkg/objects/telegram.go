package objects

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/NotCoffee418/dsmr_telegram/pkg/obis"
)

var ErrFieldNotPresent = errors.New("field not present in telegram")

// FieldObject pairs a field name with its parsed object.
type FieldObject struct {
	Field  obis.Field
	Object Object
}

// fieldSet keeps fields in the order they were first seen.
type fieldSet struct {
	items []FieldObject
	index map[obis.Field]int
}

func (s *fieldSet) add(field obis.Field, obj Object, repeatable bool) {
	if s.index == nil {
		s.index = make(map[obis.Field]int)
	}

	i, exists := s.index[field]
	if repeatable {
		if exists {
			if list, ok := s.items[i].Object.(*ObjectList); ok {
				list.Append(obj)
				return
			}
		}
		list := NewObjectList()
		list.Append(obj)
		obj = list
	}

	if exists {
		s.items[i].Object = obj
		return
	}
	s.index[field] = len(s.items)
	s.items = append(s.items, FieldObject{Field: field, Object: obj})
}

func (s *fieldSet) lookup(field obis.Field) (Object, bool) {
	i, ok := s.index[field]
	if !ok {
		return nil, false
	}
	return s.items[i].Object, true
}

func (s *fieldSet) get(field obis.Field) (Object, error) {
	obj, ok := s.lookup(field)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFieldNotPresent, field)
	}
	return obj, nil
}

func (s *fieldSet) fields() []FieldObject {
	out := make([]FieldObject, len(s.items))
	copy(out, s.items)
	return out
}

// MbusDevice groups the objects of one M-Bus channel.
type MbusDevice struct {
	ChannelID int
	set       fieldSet
}

func NewMbusDevice(channelID int) *MbusDevice {
	return &MbusDevice{ChannelID: channelID}
}

func (d *MbusDevice) Add(field obis.Field, obj Object, repeatable bool) {
	d.set.add(field, obj, repeatable)
}

func (d *MbusDevice) Get(field obis.Field) (Object, error) {
	return d.set.get(field)
}

func (d *MbusDevice) Lookup(field obis.Field) (Object, bool) {
	return d.set.lookup(field)
}

func (d *MbusDevice) Fields() []FieldObject {
	return d.set.fields()
}

func (d *MbusDevice) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "MBUS DEVICE (channel %d)\n", d.ChannelID)
	for _, fo := range d.set.items {
		fmt.Fprintf(&sb, "\t%s: \t %s\n", fo.Field, fo.Object)
	}
	return sb.String()
}

// Telegram is the parsed content of one frame.
// Fields are kept in frame order. Objects of M-Bus channels are also grouped
// per channel in an MbusDevice.
type Telegram struct {
	set     fieldSet
	devices map[int]*MbusDevice
}

func NewTelegram() *Telegram {
	return &Telegram{devices: make(map[int]*MbusDevice)}
}

// Add stores obj under field. Singular fields keep the last value written,
// repeatable fields collect every value in an ObjectList.
func (t *Telegram) Add(field obis.Field, obj Object, repeatable bool) {
	t.set.add(field, obj, repeatable)

	if !obj.IsMBusReading() {
		return
	}
	channel := obj.IDCode().Channel
	device, ok := t.devices[channel]
	if !ok {
		device = NewMbusDevice(channel)
		t.devices[channel] = device
	}
	device.Add(field, obj, repeatable)
}

// Get returns the object for field or an error wrapping ErrFieldNotPresent.
func (t *Telegram) Get(field obis.Field) (Object, error) {
	return t.set.get(field)
}

func (t *Telegram) Lookup(field obis.Field) (Object, bool) {
	return t.set.lookup(field)
}

func (t *Telegram) Has(field obis.Field) bool {
	_, ok := t.set.lookup(field)
	return ok
}

func (t *Telegram) Len() int {
	return len(t.set.items)
}

// Fields returns all fields in the order they were first encountered.
func (t *Telegram) Fields() []FieldObject {
	return t.set.fields()
}

// MbusDevices returns the devices ordered by channel.
func (t *Telegram) MbusDevices() []*MbusDevice {
	devices := make([]*MbusDevice, 0, len(t.devices))
	for _, d := range t.devices {
		devices = append(devices, d)
	}
	sort.Slice(devices, func(i, j int) bool {
		return devices[i].ChannelID < devices[j].ChannelID
	})
	return devices
}

func (t *Telegram) MbusDeviceByChannel(channel int) (*MbusDevice, bool) {
	d, ok := t.devices[channel]
	return d, ok
}

func (t *Telegram) String() string {
	var sb strings.Builder
	for _, fo := range t.set.items {
		fmt.Fprintf(&sb, "%s: \t %s\n", fo.Field, fo.Object)
	}
	for _, d := range t.MbusDevices() {
		sb.WriteString(d.String())
	}
	return sb.String()
}

// Find returns the object stored under field when it has type T.
func Find[T Object](t *Telegram, field obis.Field) (T, bool) {
	var zero T
	obj, ok := t.Lookup(field)
	if !ok {
		return zero, false
	}
	typed, ok := obj.(T)
	return typed, ok
}
