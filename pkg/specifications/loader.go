package specifications

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/NotCoffee418/dsmr_telegram/pkg/obis"
	"github.com/NotCoffee418/dsmr_telegram/pkg/objects"
	"github.com/NotCoffee418/dsmr_telegram/pkg/parser"
	"github.com/NotCoffee418/dsmr_telegram/pkg/valuetype"
)

// RawSpecification is a specification table as written in YAML.
//
//	name: MY_METER
//	base: V5
//	timezone: Europe/Brussels
//	entries:
//	  - field: ELECTRICITY_USED_TARIFF_1
//	    parser: cosem
//	    values: [decimal]
type RawSpecification struct {
	Name                string     `yaml:"name"`
	Base                string     `yaml:"base"`
	ChecksumSupport     *bool      `yaml:"checksum_support"`
	GeneralGlobalCipher *bool      `yaml:"general_global_cipher"`
	Timezone            string     `yaml:"timezone"`
	Entries             []RawEntry `yaml:"entries"`
}

// RawEntry is one line binding. Pattern defaults to the field's pattern.
type RawEntry struct {
	Field      string   `yaml:"field"`
	Pattern    string   `yaml:"pattern"`
	Parser     string   `yaml:"parser"`
	Values     []string `yaml:"values"`
	Repeatable bool     `yaml:"repeatable"`
}

// Parse builds a specification from YAML bytes.
func Parse(data []byte) (parser.Specification, error) {
	var raw RawSpecification
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return parser.Specification{}, fmt.Errorf("parsing specification: %w", err)
	}
	return raw.Build()
}

func Load(r io.Reader) (parser.Specification, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return parser.Specification{}, fmt.Errorf("reading specification: %w", err)
	}
	return Parse(data)
}

// LoadFile loads and parses a specification from a file.
func LoadFile(path string) (parser.Specification, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return parser.Specification{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(data)
}

// Build resolves the raw table. Entries extend or replace those of Base.
func (r RawSpecification) Build() (parser.Specification, error) {
	if r.Name == "" {
		return parser.Specification{}, fmt.Errorf("specification has no name")
	}
	ts, err := valuetype.LoadTimestampFormat(r.Timezone)
	if err != nil {
		return parser.Specification{}, err
	}

	spec := parser.Specification{Name: r.Name, ChecksumSupport: true}
	if r.Base != "" {
		base, err := ByName(r.Base)
		if err != nil {
			return parser.Specification{}, fmt.Errorf("base of %s: %w", r.Name, err)
		}
		spec = base.With(r.Name)
	}
	if r.ChecksumSupport != nil {
		spec.ChecksumSupport = *r.ChecksumSupport
	}
	if r.GeneralGlobalCipher != nil {
		spec.GeneralGlobalCipher = *r.GeneralGlobalCipher
	}

	entries := make([]parser.Entry, 0, len(r.Entries))
	for i, re := range r.Entries {
		e, err := re.build(ts)
		if err != nil {
			return parser.Specification{}, fmt.Errorf("entry %d of %s: %w", i, r.Name, err)
		}
		entries = append(entries, e)
	}
	return spec.With(r.Name, entries...), nil
}

func (re RawEntry) build(ts valuetype.Format) (parser.Entry, error) {
	field := obis.Field(strings.TrimSpace(re.Field))
	if field == "" {
		return parser.Entry{}, fmt.Errorf("missing field")
	}
	formats, err := parseFormats(re.Values, ts)
	if err != nil {
		return parser.Entry{}, err
	}
	lp, err := buildLineParser(re.Parser, formats, ts)
	if err != nil {
		return parser.Entry{}, err
	}

	pattern := re.Pattern
	if pattern == "" {
		if !obis.Known(field) {
			return parser.Entry{}, fmt.Errorf("field %s has no default pattern, set one", field)
		}
		pattern = field.Pattern()
	}
	e, err := parser.NewEntryWithPattern(field, pattern, lp)
	if err != nil {
		return parser.Entry{}, err
	}
	e.Repeatable = re.Repeatable
	return e, nil
}

func buildLineParser(kind string, formats []valuetype.Format, ts valuetype.Format) (parser.LineParser, error) {
	switch strings.ToLower(kind) {
	case "", "cosem":
		if len(formats) == 0 {
			formats = []valuetype.Format{valuetype.String}
		}
		if len(formats) != 1 {
			return nil, fmt.Errorf("cosem takes one value, got %d", len(formats))
		}
		return parser.NewCosemParser(formats[0]), nil
	case "mbus":
		if len(formats) == 0 {
			formats = []valuetype.Format{ts, valuetype.Decimal}
		}
		return parser.NewMBusParser(objects.LayoutTimestamped, formats...), nil
	case "mbus_v2_2":
		return parser.NewMBusParser(objects.LayoutV2_2,
			ts, valuetype.Int, valuetype.Int, valuetype.Int, valuetype.String, valuetype.String, valuetype.Decimal,
		), nil
	case "max_demand":
		return parser.NewMaxDemandParser(ts), nil
	case "profile_generic":
		return parser.NewProfileGenericParser(
			map[string][]valuetype.Format{obis.FailureEventBufferType: {ts, valuetype.Int}},
			[]valuetype.Format{ts, valuetype.Decimal},
		), nil
	}
	return nil, fmt.Errorf("unknown parser %q", kind)
}

func parseFormats(names []string, ts valuetype.Format) ([]valuetype.Format, error) {
	formats := make([]valuetype.Format, 0, len(names))
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "str", "string":
			formats = append(formats, valuetype.String)
		case "int", "integer":
			formats = append(formats, valuetype.Int)
		case "decimal":
			formats = append(formats, valuetype.Decimal)
		case "timestamp":
			formats = append(formats, ts)
		default:
			return nil, fmt.Errorf("unknown value kind %q", name)
		}
	}
	return formats, nil
}
