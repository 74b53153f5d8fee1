package aggregator

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NotCoffee418/dsmr_telegram/pkg/meterdb"
	"github.com/NotCoffee418/dsmr_telegram/pkg/obis"
	"github.com/NotCoffee418/dsmr_telegram/pkg/objects"
	"github.com/NotCoffee418/dsmr_telegram/pkg/valuetype"
)

var hour = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *meterdb.MeterDB {
	t.Helper()
	db, err := meterdb.Open(filepath.Join(t.TempDir(), "meter.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func usageTelegram(kw string, gasM3 string) *objects.Telegram {
	telegram := objects.NewTelegram()
	telegram.Add(obis.CurrentElectricityUsage, objects.NewCosemObject(
		obis.IDCode{Group: 1, Channel: 0},
		[]valuetype.Value{{Data: decimal.RequireFromString(kw), Unit: "kW"}},
	), false)
	telegram.Add(obis.EquipmentIdentifier, objects.NewCosemObject(
		obis.IDCode{Group: 0, Channel: 0},
		[]valuetype.Value{{Data: "4530303336303000000000000000000000"}},
	), false)
	telegram.Add(obis.MbusMeterReading, objects.NewMBusObject(
		obis.IDCode{Group: 0, Channel: 1},
		objects.LayoutTimestamped,
		[]valuetype.Value{{Data: hour}, {Data: decimal.RequireFromString(gasM3), Unit: "m3"}},
	), false)
	return telegram
}

func insert(t *testing.T, db *meterdb.MeterDB, telegram *objects.Telegram, at time.Time) {
	t.Helper()
	_, err := db.InsertTelegram(context.Background(), "V5", telegram, "/TEST\r\n\r\n!\r\n", at)
	require.NoError(t, err)
}

func TestRoundToHourStart(t *testing.T) {
	at := time.Date(2024, 5, 1, 14, 59, 59, 999, time.FixedZone("CEST", 2*3600))
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), roundToHourStart(at))
	assert.Equal(t, hour.Unix()+3599, getHourEnd(hour))
}

func TestAggregateHour(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	insert(t, db, usageTelegram("0.500", "100.000"), hour.Add(10*time.Minute))
	insert(t, db, usageTelegram("1.500", "100.250"), hour.Add(50*time.Minute))
	// Outside the hour.
	insert(t, db, usageTelegram("9.000", "101.000"), hour.Add(time.Hour))

	written, err := AggregateHour(ctx, db, hour.Add(25*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(2), written)

	aggregates, err := HourlyAggregates(ctx, db, obis.CurrentElectricityUsage, hour, hour.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, aggregates, 1)
	a := aggregates[0]
	assert.Equal(t, hour, a.HourStart)
	assert.Equal(t, 0, a.Channel)
	assert.Equal(t, "W", a.Unit)
	assert.InDelta(t, 1000.0, a.Average, 1e-9)
	assert.InDelta(t, 500.0, a.Minimum, 1e-9)
	assert.InDelta(t, 1500.0, a.Maximum, 1e-9)
	assert.Equal(t, 2, a.SampleCount)

	aggregates, err = HourlyAggregates(ctx, db, obis.MbusMeterReading, hour, hour.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, aggregates, 1)
	assert.Equal(t, 1, aggregates[0].Channel)
	assert.Equal(t, "dm3", aggregates[0].Unit)
	assert.InDelta(t, 100250.0, aggregates[0].Maximum, 1e-9)

	// Strings are not aggregated.
	aggregates, err = HourlyAggregates(ctx, db, obis.EquipmentIdentifier, hour, hour.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, aggregates)
}

func TestAggregateHourReplaces(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	insert(t, db, usageTelegram("0.500", "100.000"), hour.Add(10*time.Minute))

	_, err := AggregateHour(ctx, db, hour)
	require.NoError(t, err)
	insert(t, db, usageTelegram("1.500", "100.000"), hour.Add(20*time.Minute))
	_, err = AggregateHour(ctx, db, hour)
	require.NoError(t, err)

	aggregates, err := HourlyAggregates(ctx, db, obis.CurrentElectricityUsage, hour, hour.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, aggregates, 1)
	assert.Equal(t, 2, aggregates[0].SampleCount)
}

func TestCleanupWaitsForAggregates(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	insert(t, db, usageTelegram("0.500", "100.000"), hour.Add(-48*time.Hour))

	deleted, err := cleanupOldData(ctx, db, hour, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestAggregateAndCleanup(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	logger, _ := test.NewNullLogger()
	insert(t, db, usageTelegram("0.200", "99.000"), hour.Add(-2*time.Hour))
	insert(t, db, usageTelegram("0.500", "100.000"), hour.Add(10*time.Minute))
	insert(t, db, usageTelegram("1.500", "100.250"), hour.Add(40*time.Minute))

	now := hour.Add(time.Hour + 5*time.Minute)
	require.NoError(t, AggregateAndCleanup(ctx, db, now, 2*time.Hour, logger))

	aggregates, err := HourlyAggregates(ctx, db, obis.CurrentElectricityUsage, hour, now)
	require.NoError(t, err)
	require.Len(t, aggregates, 1)

	count, err := db.CountTelegrams(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
