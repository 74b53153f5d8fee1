package valuetype

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"
)

// IsoLayout renders timestamps the way telegrams are exported.
const IsoLayout = "2006-01-02T15:04:05-07:00"

const timestampLayout = "060102150405"

var defaultLocation = mustLoadLocation("Europe/Amsterdam")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("load location %s: %v", name, err))
	}
	return loc
}

// TimestampIn returns a timestamp format using loc as the meter's reference zone.
func TimestampIn(loc *time.Location) Format {
	return Format{kind: KindTimestamp, location: loc}
}

// LoadTimestampFormat resolves an IANA zone name into a timestamp format.
func LoadTimestampFormat(zone string) (Format, error) {
	if zone == "" {
		return Timestamp, nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return Format{}, fmt.Errorf("unknown timezone %q: %w", zone, err)
	}
	return TimestampIn(loc), nil
}

// Parse coerces the raw text of one parenthesised group.
// Empty values yield a nil Data without error.
func (f Format) Parse(raw string) (Value, error) {
	value, unit, _ := strings.Cut(raw, "*")
	out := Value{Unit: unit}
	if value == "" {
		return out, nil
	}

	switch f.kind {
	case KindString:
		out.Data = value
	case KindInt:
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("invalid integer %q: %w", value, err)
		}
		out.Data = i
	case KindDecimal:
		d, err := decimal.NewFromString(value)
		if err != nil {
			return Value{}, fmt.Errorf("invalid decimal %q: %w", value, err)
		}
		out.Data = d
	case KindTimestamp:
		if t, ok := ParseTimestamp(value, f.location); ok {
			out.Data = t
		}
	default:
		return Value{}, fmt.Errorf("unsupported value kind %d", f.kind)
	}
	return out, nil
}

// ParseTimestamp converts YYMMDDhhmmss[S|W] into UTC.
// The trailing flag decides the offset instead of the zone's own DST rules.
// A missing flag means standard time. Invalid dates return false.
func ParseTimestamp(value string, loc *time.Location) (time.Time, bool) {
	if len(value) != 12 && len(value) != 13 {
		return time.Time{}, false
	}
	if loc == nil {
		loc = defaultLocation
	}

	wall, err := time.Parse(timestampLayout, value[:12])
	if err != nil {
		return time.Time{}, false
	}

	summer := false
	if len(value) == 13 {
		switch value[12] {
		case 'S':
			summer = true
		case 'W':
		default:
			return time.Time{}, false
		}
	}

	local := time.Date(wall.Year(), wall.Month(), wall.Day(), wall.Hour(), wall.Minute(), wall.Second(), 0, loc)
	_, offset := local.Zone()
	if local.IsDST() {
		offset -= 3600
	}
	if summer {
		offset += 3600
	}
	return wall.Add(-time.Duration(offset) * time.Second).UTC(), true
}

// Display renders the value the way the telegram text export shows it.
func (v Value) Display() string {
	switch d := v.Data.(type) {
	case nil:
		return "None"
	case string:
		return d
	case int64:
		return strconv.FormatInt(d, 10)
	case decimal.Decimal:
		return FormatDecimal(d)
	case time.Time:
		return d.UTC().Format(IsoLayout)
	}
	return fmt.Sprint(v.Data)
}

// DisplayUnit renders a missing unit as None.
func (v Value) DisplayUnit() string {
	if v.Unit == "" {
		return "None"
	}
	return v.Unit
}

// JSONValue converts the value for structured export.
// Decimals become float64 here and nowhere else.
func (v Value) JSONValue() any {
	switch d := v.Data.(type) {
	case decimal.Decimal:
		return d.InexactFloat64()
	case time.Time:
		return d.UTC().Format(IsoLayout)
	}
	return v.Data
}

// JSONUnit is nil when no unit was present.
func (v Value) JSONUnit() any {
	if v.Unit == "" {
		return nil
	}
	return v.Unit
}

// FormatDecimal keeps the fractional digits the meter sent ("0.070", not "0.07").
func FormatDecimal(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.String()
}
