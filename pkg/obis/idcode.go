package obis

import (
	"regexp"
	"strconv"
)

var idCodePattern = regexp.MustCompile(`^\s*(\d+)-(\d+):`)

// IDCode is the A-B prefix of an OBIS reduced id code.
// Channel (B) distinguishes sub-meters attached over M-Bus from the main meter.
type IDCode struct {
	Group   int
	Channel int
}

// ParseIDCode reads the A-B prefix of a telegram line.
func ParseIDCode(line string) (IDCode, bool) {
	m := idCodePattern.FindStringSubmatch(line)
	if m == nil {
		return IDCode{}, false
	}
	group, err := strconv.Atoi(m[1])
	if err != nil {
		return IDCode{}, false
	}
	channel, err := strconv.Atoi(m[2])
	if err != nil {
		return IDCode{}, false
	}
	return IDCode{Group: group, Channel: channel}, true
}

// IsMBus reports whether the line belongs to an M-Bus channel.
// 1-3:0.2.8 has a non-zero channel but is an electricity line.
func (c IDCode) IsMBus() bool {
	return c.Group == 0 && c.Channel != 0
}
