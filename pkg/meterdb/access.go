package meterdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/NotCoffee418/dsmr_telegram/pkg/obis"
	"github.com/NotCoffee418/dsmr_telegram/pkg/objects"
	"github.com/NotCoffee418/dsmr_telegram/pkg/units"
	"github.com/NotCoffee418/dsmr_telegram/pkg/valuetype"
)

// InsertTelegram stores the telegram, its JSON export and one row per value.
func (m *MeterDB) InsertTelegram(
	ctx context.Context,
	specification string,
	telegram *objects.Telegram,
	raw string,
	receivedAt time.Time,
) (uuid.UUID, error) {
	payload, err := telegram.ToJSON()
	if err != nil {
		return uuid.Nil, fmt.Errorf("exporting telegram: %w", err)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback()

	id := uuid.New()
	_, err = tx.ExecContext(ctx,
		"INSERT INTO telegrams (id, received_at, specification, raw, json) "+
			"VALUES (?, ?, ?, ?, ?)",
		id.String(),
		receivedAt.Unix(),
		specification,
		raw,
		string(payload),
	)
	if err != nil {
		return uuid.Nil, err
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO telegram_fields "+
			"(telegram_id, position, channel, field, value, unit, normalized, normalized_unit, datetime) "+
			"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
	)
	if err != nil {
		return uuid.Nil, err
	}
	defer stmt.Close()

	for i, row := range collectRows(telegram) {
		var value sql.NullString
		if !row.value.IsNil() {
			value = sql.NullString{String: row.value.Display(), Valid: true}
		}
		var normalized sql.NullFloat64
		normalizedUnit := ""
		if n, unit, ok := units.Numeric(row.value); ok {
			normalized = sql.NullFloat64{Float64: n.InexactFloat64(), Valid: true}
			normalizedUnit = unit
		}
		var datetime sql.NullInt64
		if ts, ok := row.datetime.Time(); ok {
			datetime = sql.NullInt64{Int64: ts.Unix(), Valid: true}
		}

		_, err = stmt.ExecContext(ctx,
			id.String(),
			i,
			row.channel,
			string(row.field),
			value,
			row.value.Unit,
			normalized,
			normalizedUnit,
			datetime,
		)
		if err != nil {
			return uuid.Nil, fmt.Errorf("storing %s: %w", row.field, err)
		}
	}

	return id, tx.Commit()
}

// LatestTelegram returns the most recently received telegram or ErrNoTelegrams.
func (m *MeterDB) LatestTelegram(ctx context.Context) (*StoredTelegram, error) {
	row := m.db.QueryRowContext(ctx,
		"SELECT id, received_at, specification, raw, json FROM telegrams "+
			"ORDER BY received_at DESC, rowid DESC LIMIT 1",
	)

	var (
		stored     StoredTelegram
		id         string
		receivedAt int64
		payload    string
	)
	err := row.Scan(&id, &receivedAt, &stored.Specification, &stored.Raw, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoTelegrams
	}
	if err != nil {
		return nil, err
	}
	if stored.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	stored.ReceivedAt = time.Unix(receivedAt, 0).UTC()
	stored.JSON = []byte(payload)
	return &stored, nil
}

func (m *MeterDB) LatestTelegramJSON(ctx context.Context) ([]byte, error) {
	stored, err := m.LatestTelegram(ctx)
	if err != nil {
		return nil, err
	}
	return stored.JSON, nil
}

// FieldHistory returns up to limit values of field, newest telegram first.
func (m *MeterDB) FieldHistory(ctx context.Context, field obis.Field, limit int) ([]FieldReading, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT
			f.telegram_id, t.received_at, f.channel, f.field, f.value,
			f.unit, f.normalized, f.normalized_unit, f.datetime
		FROM telegram_fields f
		JOIN telegrams t ON t.id = f.telegram_id
		WHERE f.field = ?
		ORDER BY t.received_at DESC, t.rowid DESC, f.position ASC
		LIMIT ?
	`, string(field), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readings []FieldReading
	for rows.Next() {
		var (
			reading    FieldReading
			telegramID string
			receivedAt int64
			fieldName  string
			value      sql.NullString
			normalized sql.NullFloat64
			datetime   sql.NullInt64
		)
		err := rows.Scan(
			&telegramID, &receivedAt, &reading.Channel, &fieldName, &value,
			&reading.Unit, &normalized, &reading.NormalizedUnit, &datetime,
		)
		if err != nil {
			return nil, err
		}
		if reading.TelegramID, err = uuid.Parse(telegramID); err != nil {
			return nil, err
		}
		reading.ReceivedAt = time.Unix(receivedAt, 0).UTC()
		reading.Field = obis.Field(fieldName)
		reading.Value = value.String
		if normalized.Valid {
			n := normalized.Float64
			reading.Normalized = &n
		}
		if datetime.Valid {
			ts := time.Unix(datetime.Int64, 0).UTC()
			reading.DateTime = &ts
		}
		readings = append(readings, reading)
	}
	return readings, rows.Err()
}

func (m *MeterDB) CountTelegrams(ctx context.Context) (int, error) {
	var count int
	err := m.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM telegrams").Scan(&count)
	return count, err
}

// DeleteTelegramsBefore removes telegrams received before cutoff with their values.
func (m *MeterDB) DeleteTelegramsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := m.db.ExecContext(ctx, "DELETE FROM telegrams WHERE received_at < ?", cutoff.Unix())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type fieldRow struct {
	channel  int
	field    obis.Field
	value    valuetype.Value
	datetime valuetype.Value
}

func collectRows(telegram *objects.Telegram) []fieldRow {
	var rows []fieldRow
	for _, fo := range telegram.Fields() {
		if fo.Object.IsMBusReading() {
			continue
		}
		rows = appendObject(rows, fo.Field, fo.Object)
	}
	// Singular M-Bus fields only keep the last channel at telegram level.
	for _, device := range telegram.MbusDevices() {
		for _, fo := range device.Fields() {
			rows = appendObject(rows, fo.Field, fo.Object)
		}
	}
	return rows
}

func appendObject(rows []fieldRow, field obis.Field, obj objects.Object) []fieldRow {
	channel := 0
	if obj.IsMBusReading() {
		channel = obj.IDCode().Channel
	}

	switch o := obj.(type) {
	case *objects.CosemObject:
		return append(rows, fieldRow{channel: channel, field: field, value: o.Raw()})
	case *objects.MBusObject:
		return append(rows, fieldRow{channel: channel, field: field, value: o.RawValue(), datetime: o.RawDateTime()})
	case *objects.MBusObjectPeak:
		return append(rows, fieldRow{channel: channel, field: field, value: o.RawValue(), datetime: o.RawDateTime()})
	case *objects.ProfileGenericObject:
		for _, entry := range o.Buffer() {
			rows = appendObject(rows, field, entry)
		}
	case *objects.ObjectList:
		for _, item := range o.Items() {
			rows = appendObject(rows, field, item)
		}
	}
	return rows
}
