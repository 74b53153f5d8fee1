package objects

import (
	"bytes"
	"encoding/json"

	"github.com/fxamacker/cbor/v2"
)

const (
	mbusDevicesKey = "MBUS_DEVICES"
	channelIDKey   = "CHANNEL_ID"
)

// orderedObject writes JSON object members in insertion order.
type orderedObject struct {
	buf   bytes.Buffer
	count int
	err   error
}

func (o *orderedObject) put(key string, value any) {
	if o.err != nil {
		return
	}
	if o.count == 0 {
		o.buf.WriteByte('{')
	} else {
		o.buf.WriteByte(',')
	}
	o.count++

	k, err := json.Marshal(key)
	if err != nil {
		o.err = err
		return
	}
	v, err := json.Marshal(value)
	if err != nil {
		o.err = err
		return
	}
	o.buf.Write(k)
	o.buf.WriteByte(':')
	o.buf.Write(v)
}

func (o *orderedObject) bytes() ([]byte, error) {
	if o.err != nil {
		return nil, o.err
	}
	if o.count == 0 {
		return []byte("{}"), nil
	}
	o.buf.WriteByte('}')
	return o.buf.Bytes(), nil
}

func (d *MbusDevice) MarshalJSON() ([]byte, error) {
	var o orderedObject
	for _, fo := range d.set.items {
		o.put(string(fo.Field), fo.Object.JSONValue())
	}
	o.put(channelIDKey, d.ChannelID)
	return o.bytes()
}

// JSONValue returns the device as a plain map, used for CBOR export.
func (d *MbusDevice) JSONValue() map[string]any {
	out := make(map[string]any, len(d.set.items)+1)
	for _, fo := range d.set.items {
		out[string(fo.Field)] = fo.Object.JSONValue()
	}
	out[channelIDKey] = d.ChannelID
	return out
}

// MarshalJSON renders every field in frame order, M-Bus readings included,
// and the M-Bus devices again under MBUS_DEVICES.
func (t *Telegram) MarshalJSON() ([]byte, error) {
	var o orderedObject
	for _, fo := range t.set.items {
		o.put(string(fo.Field), fo.Object.JSONValue())
	}
	o.put(mbusDevicesKey, t.MbusDevices())
	return o.bytes()
}

func (t *Telegram) ToJSON() ([]byte, error) {
	return json.Marshal(t)
}

// JSONValue returns the structured export as plain maps and slices.
func (t *Telegram) JSONValue() map[string]any {
	out := make(map[string]any, len(t.set.items)+1)
	for _, fo := range t.set.items {
		out[string(fo.Field)] = fo.Object.JSONValue()
	}
	devices := make([]map[string]any, 0, len(t.devices))
	for _, d := range t.MbusDevices() {
		devices = append(devices, d.JSONValue())
	}
	out[mbusDevicesKey] = devices
	return out
}

var cborEncMode, _ = cbor.CoreDetEncOptions().EncMode()

// MarshalCBOR encodes the same structure as MarshalJSON in deterministic CBOR.
func (t *Telegram) MarshalCBOR() ([]byte, error) {
	return cborEncMode.Marshal(t.JSONValue())
}
