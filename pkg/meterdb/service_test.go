package meterdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NotCoffee418/dsmr_telegram/internal/testutil"
	"github.com/NotCoffee418/dsmr_telegram/pkg/obis"
	"github.com/NotCoffee418/dsmr_telegram/pkg/objects"
	"github.com/NotCoffee418/dsmr_telegram/pkg/parser"
	"github.com/NotCoffee418/dsmr_telegram/pkg/specifications"
)

func openTestDB(t *testing.T) *MeterDB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "meter.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func parseV5(t *testing.T) (*objects.Telegram, string) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	raw := testutil.LoadTelegram(t, testutil.TelegramV5)
	telegram, err := parser.New(specifications.V5, parser.WithLogger(logger)).Parse(raw)
	require.NoError(t, err)
	return telegram, raw
}

func TestOpenIsRepeatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meter.db")
	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()
	count, err := db.CountTelegrams(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestLatestTelegramEmpty(t *testing.T) {
	db := openTestDB(t)
	_, err := db.LatestTelegram(context.Background())
	assert.ErrorIs(t, err, ErrNoTelegrams)
	_, err = db.LatestTelegramJSON(context.Background())
	assert.ErrorIs(t, err, ErrNoTelegrams)
}

func TestInsertTelegram(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	telegram, raw := parseV5(t)
	receivedAt := time.Date(2017, 1, 2, 18, 20, 3, 0, time.UTC)

	id, err := db.InsertTelegram(ctx, "V5", telegram, raw, receivedAt)
	require.NoError(t, err)

	stored, err := db.LatestTelegram(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, stored.ID)
	assert.Equal(t, "V5", stored.Specification)
	assert.Equal(t, raw, stored.Raw)
	assert.True(t, receivedAt.Equal(stored.ReceivedAt))

	want, err := telegram.ToJSON()
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(stored.JSON))

	payload, err := db.LatestTelegramJSON(ctx)
	require.NoError(t, err)
	assert.Equal(t, stored.JSON, payload)
}

func TestFieldHistoryValues(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	telegram, raw := parseV5(t)
	id, err := db.InsertTelegram(ctx, "V5", telegram, raw, time.Now())
	require.NoError(t, err)

	readings, err := db.FieldHistory(ctx, obis.ElectricityUsedTariff1, 10)
	require.NoError(t, err)
	require.Len(t, readings, 1)
	r := readings[0]
	assert.Equal(t, id, r.TelegramID)
	assert.Equal(t, 0, r.Channel)
	assert.Equal(t, "4.426", r.Value)
	assert.Equal(t, "kWh", r.Unit)
	require.NotNil(t, r.Normalized)
	assert.InDelta(t, 4426.0, *r.Normalized, 1e-9)
	assert.Equal(t, "Wh", r.NormalizedUnit)
	assert.Nil(t, r.DateTime)

	readings, err = db.FieldHistory(ctx, obis.MbusMeterReading, 10)
	require.NoError(t, err)
	require.Len(t, readings, 1)
	r = readings[0]
	assert.Equal(t, 1, r.Channel)
	assert.Equal(t, "0.107", r.Value)
	require.NotNil(t, r.Normalized)
	assert.InDelta(t, 107.0, *r.Normalized, 1e-9)
	assert.Equal(t, "dm3", r.NormalizedUnit)
	require.NotNil(t, r.DateTime)
	assert.Equal(t, time.Date(2017, 1, 2, 15, 10, 5, 0, time.UTC), *r.DateTime)
}

func TestFieldHistoryKeepsEveryChannel(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	telegram, raw := parseV5(t)
	_, err := db.InsertTelegram(ctx, "V5", telegram, raw, time.Now())
	require.NoError(t, err)

	readings, err := db.FieldHistory(ctx, obis.MbusDeviceType, 10)
	require.NoError(t, err)
	require.Len(t, readings, 2)
	assert.Equal(t, 1, readings[0].Channel)
	assert.Equal(t, 2, readings[1].Channel)
	assert.Equal(t, "3", readings[0].Value)

	// 0-2:96.1.0() carries no value.
	readings, err = db.FieldHistory(ctx, obis.MbusEquipmentIdentifier, 10)
	require.NoError(t, err)
	require.Len(t, readings, 2)
	assert.Equal(t, "3232323241424344313233343536373839", readings[0].Value)
	assert.Empty(t, readings[1].Value)
	assert.Nil(t, readings[1].Normalized)
}

func TestFieldHistoryNewestFirst(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	telegram, raw := parseV5(t)
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := db.InsertTelegram(ctx, "V5", telegram, raw, start.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		ids = append(ids, id.String())
	}

	readings, err := db.FieldHistory(ctx, obis.CurrentElectricityUsage, 2)
	require.NoError(t, err)
	require.Len(t, readings, 2)
	assert.Equal(t, ids[2], readings[0].TelegramID.String())
	assert.Equal(t, ids[1], readings[1].TelegramID.String())

	stored, err := db.LatestTelegram(ctx)
	require.NoError(t, err)
	assert.Equal(t, ids[2], stored.ID.String())
}

func TestDeleteTelegramsBefore(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	telegram, raw := parseV5(t)
	old := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := old.AddDate(0, 4, 0)

	_, err := db.InsertTelegram(ctx, "V5", telegram, raw, old)
	require.NoError(t, err)
	_, err = db.InsertTelegram(ctx, "V5", telegram, raw, recent)
	require.NoError(t, err)

	deleted, err := db.DeleteTelegramsBefore(ctx, old.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	count, err := db.CountTelegrams(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Values go with their telegram.
	readings, err := db.FieldHistory(ctx, obis.ElectricityUsedTariff1, 10)
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.True(t, recent.Equal(readings[0].ReceivedAt))
}
