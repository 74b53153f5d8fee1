package aggregator

import (
	"time"

	"github.com/NotCoffee418/dsmr_telegram/pkg/obis"
)

// HourlyAggregate summarises the normalized values of one field and
// channel received within an hour.
type HourlyAggregate struct {
	HourStart   time.Time  `db:"hour_start"`
	Channel     int        `db:"channel"`
	Field       obis.Field `db:"field"`
	Unit        string     `db:"unit"`
	Average     float64    `db:"average"`
	Minimum     float64    `db:"minimum"`
	Maximum     float64    `db:"maximum"`
	SampleCount int        `db:"sample_count"`
}
