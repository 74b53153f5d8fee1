package specifications

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/NotCoffee418/dsmr_telegram/pkg/parser"
)

var ErrSpecificationMatch = errors.New("no specification matches the telegram")

var ErrUnknownSpecification = errors.New("unknown specification")

// All returns the built-in specifications in the order Match tries them.
func All() []parser.Specification {
	return []parser.Specification{
		V2_2,
		V3,
		V4,
		V5,
		BelgiumFluvius,
		LuxembourgSmarty,
		Sweden,
		Q3D,
		EONHungary,
		IskraIE,
		SagemcomT210DR,
	}
}

// Names accepted by ByName, matching the --version flag of the console.
var aliases = map[string]parser.Specification{
	"2.2":               V2_2,
	"V2_2":              V2_2,
	"3":                 V3,
	"V3":                V3,
	"4":                 V4,
	"V4":                V4,
	"5":                 V5,
	"V5":                V5,
	"5B":                BelgiumFluvius,
	"BELGIUM_FLUVIUS":   BelgiumFluvius,
	"5L":                LuxembourgSmarty,
	"LUXEMBOURG_SMARTY": LuxembourgSmarty,
	"5S":                Sweden,
	"SWEDEN":            Sweden,
	"Q3D":               Q3D,
	"5EONHU":            EONHungary,
	"EON_HUNGARY":       EONHungary,
	"ISKRA_IE":          IskraIE,
	"SAGEMCOM":          SagemcomT210DR,
	"SAGEMCOM_T210_D_R": SagemcomT210DR,
}

// ByName looks up a built-in specification by name or version alias.
// Lookup is case insensitive.
func ByName(name string) (parser.Specification, error) {
	spec, ok := aliases[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return parser.Specification{}, fmt.Errorf("%w: %q", ErrUnknownSpecification, name)
	}
	return spec, nil
}

// Match returns the first built-in specification that parses telegram
// strictly and has an entry for every data line in it. Encrypted
// specifications are skipped.
func Match(telegram string) (parser.Specification, error) {
	return MatchFrom(All(), telegram)
}

// MatchFrom is Match over candidates.
func MatchFrom(candidates []parser.Specification, telegram string) (parser.Specification, error) {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	lines := parser.SplitLines(telegram)
	for _, spec := range candidates {
		if spec.GeneralGlobalCipher {
			continue
		}
		p := parser.New(spec, parser.WithStrict(true), parser.WithLogger(quiet))
		if _, err := p.Parse(telegram); err != nil {
			continue
		}
		if coversAll(spec, lines) {
			return spec, nil
		}
	}
	return parser.Specification{}, ErrSpecificationMatch
}

func coversAll(spec parser.Specification, lines []string) bool {
	for _, line := range lines {
		if _, ok := spec.Match(line); !ok {
			return false
		}
	}
	return true
}
