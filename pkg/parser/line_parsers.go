package parser

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/NotCoffee418/dsmr_telegram/pkg/obis"
	"github.com/NotCoffee418/dsmr_telegram/pkg/objects"
	"github.com/NotCoffee418/dsmr_telegram/pkg/valuetype"
)

// Values are alphanumeric with '.', '*', '-' and ':' so OBIS codes used as
// buffer types are captured too.
var groupPattern = regexp.MustCompile(`\(([0-9a-zA-Z.*\-:]*)\)`)

// LineParser turns one matched telegram line into an object.
type LineParser interface {
	Parse(line string) (objects.Object, error)
}

func groups(line string) []string {
	matches := groupPattern.FindAllStringSubmatch(line, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

func parseValues(line string, raw []string, formats []valuetype.Format) ([]valuetype.Value, error) {
	values := make([]valuetype.Value, 0, len(raw))
	for i, r := range raw {
		v, err := formats[i].Parse(r)
		if err != nil {
			return nil, &ParseError{Msg: fmt.Sprintf("invalid value in group %d", i), Line: line, Err: err}
		}
		values = append(values, v)
	}
	return values, nil
}

func parseFixed(line string, formats []valuetype.Format) ([]valuetype.Value, error) {
	raw := groups(line)
	if len(raw) != len(formats) {
		return nil, &ParseError{
			Msg:  fmt.Sprintf("expected %d value groups, got %d", len(formats), len(raw)),
			Line: line,
		}
	}
	return parseValues(line, raw, formats)
}

func idCode(line string) obis.IDCode {
	id, _ := obis.ParseIDCode(line)
	return id
}

// CosemParser parses a line with a single value, e.g. 1-0:1.8.1(001581.123*kWh).
type CosemParser struct {
	Format valuetype.Format
}

func NewCosemParser(format valuetype.Format) CosemParser {
	return CosemParser{Format: format}
}

func (p CosemParser) Parse(line string) (objects.Object, error) {
	values, err := parseFixed(line, []valuetype.Format{p.Format})
	if err != nil {
		return nil, err
	}
	return objects.NewCosemObject(idCode(line), values), nil
}

// MBusParser parses a timestamped reading with a fixed number of groups.
type MBusParser struct {
	Layout  objects.MBusLayout
	Formats []valuetype.Format
}

func NewMBusParser(layout objects.MBusLayout, formats ...valuetype.Format) MBusParser {
	return MBusParser{Layout: layout, Formats: formats}
}

func (p MBusParser) Parse(line string) (objects.Object, error) {
	values, err := parseFixed(line, p.Formats)
	if err != nil {
		return nil, err
	}
	return objects.NewMBusObject(idCode(line), p.Layout, values), nil
}

// MaxDemandParser parses the Belgian peak history:
// (count)(obis)(obis) followed by count times (period)(occurred)(value*unit).
// The result is an ObjectList of MBusObjectPeak.
type MaxDemandParser struct {
	Timestamp valuetype.Format
}

func NewMaxDemandParser(timestamp valuetype.Format) MaxDemandParser {
	return MaxDemandParser{Timestamp: timestamp}
}

func (p MaxDemandParser) Parse(line string) (objects.Object, error) {
	raw := groups(line)
	if len(raw) == 0 {
		return nil, &ParseError{Msg: "missing peak count", Line: line}
	}
	count, err := strconv.Atoi(raw[0])
	if err != nil || count < 0 {
		return nil, &ParseError{Msg: "invalid peak count", Line: line, Err: err}
	}

	list := objects.NewObjectList()
	if count == 0 {
		return list, nil
	}
	if len(raw) != 3+3*count {
		return nil, &ParseError{
			Msg:  fmt.Sprintf("expected %d value groups for %d peaks, got %d", 3+3*count, count, len(raw)),
			Line: line,
		}
	}

	id := idCode(line)
	formats := []valuetype.Format{p.Timestamp, p.Timestamp, valuetype.Decimal}
	for i := 0; i < count; i++ {
		offset := 3 + 3*i
		values, err := parseValues(line, raw[offset:offset+3], formats)
		if err != nil {
			return nil, err
		}
		list.Append(objects.NewMBusObjectPeak(id, values))
	}
	return list, nil
}

// ProfileGenericParser parses a self-describing buffer such as the power
// failure event log: (count)(buffer type) followed by count pairs.
type ProfileGenericParser struct {
	// BufferTypes maps a buffer type OBIS code to the formats of one pair.
	BufferTypes map[string][]valuetype.Format
	// Unidentified is used for buffer types missing from BufferTypes.
	Unidentified []valuetype.Format
}

func NewProfileGenericParser(bufferTypes map[string][]valuetype.Format, unidentified []valuetype.Format) ProfileGenericParser {
	return ProfileGenericParser{BufferTypes: bufferTypes, Unidentified: unidentified}
}

func (p ProfileGenericParser) Parse(line string) (objects.Object, error) {
	id := idCode(line)
	raw := groups(line)

	// No groups or a single empty group is an empty profile.
	if len(raw) == 0 || (len(raw) == 1 && raw[0] == "") {
		return objects.NewProfileGenericObject(id, nil, 0, valuetype.Value{}, nil), nil
	}

	length, err := strconv.Atoi(raw[0])
	if err != nil || length < 0 {
		return nil, &ParseError{Msg: "invalid buffer length", Line: line, Err: err}
	}
	if length == 0 && len(raw) <= 2 {
		bufferType, _ := valuetype.String.Parse(groupAt(raw, 1))
		return objects.NewProfileGenericObject(id, nil, 0, bufferType, nil), nil
	}
	if len(raw) != 2+2*length {
		return nil, &ParseError{
			Msg:  fmt.Sprintf("expected %d value groups for buffer length %d, got %d", 2+2*length, length, len(raw)),
			Line: line,
		}
	}

	head, err := parseValues(line, raw[:2], []valuetype.Format{valuetype.Int, valuetype.String})
	if err != nil {
		return nil, err
	}
	formats, ok := p.BufferTypes[raw[1]]
	if !ok {
		formats = p.Unidentified
	}
	if len(formats) != 2 {
		return nil, &ParseError{Msg: fmt.Sprintf("no value formats for buffer type %q", raw[1]), Line: line}
	}

	values := head
	buffer := make([]*objects.MBusObject, 0, length)
	for i := 0; i < length; i++ {
		offset := 2 + 2*i
		pair, err := parseValues(line, raw[offset:offset+2], formats)
		if err != nil {
			return nil, err
		}
		values = append(values, pair...)
		buffer = append(buffer, objects.NewMBusObject(id, objects.LayoutTimestamped, pair))
	}
	return objects.NewProfileGenericObject(id, values, length, head[1], buffer), nil
}

func groupAt(raw []string, i int) string {
	if i < len(raw) {
		return raw[i]
	}
	return ""
}
