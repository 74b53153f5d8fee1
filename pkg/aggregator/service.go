// Package aggregator condenses stored telegram values into hourly aggregates
// and removes raw telegrams once they are aggregated.
package aggregator

import (
	"context"
	"database/sql"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/NotCoffee418/dsmr_telegram/pkg/meterdb"
	"github.com/NotCoffee418/dsmr_telegram/pkg/obis"
)

// Raw telegrams older than this are removed once aggregated.
const DefaultRetention = 90 * 24 * time.Hour

// roundToHourStart returns the start of the hour for the given time
func roundToHourStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC)
}

// getHourEnd returns the Unix timestamp of the last second of the hour (next hour start - 1)
func getHourEnd(hourStart time.Time) int64 {
	return hourStart.Add(time.Hour).Unix() - 1
}

// AggregateHour writes the hourly aggregates of every numeric field received
// in the hour starting at hourStart. Running it again replaces them.
func AggregateHour(ctx context.Context, db *meterdb.MeterDB, hourStart time.Time) (int64, error) {
	hourStart = roundToHourStart(hourStart)

	insertQuery := `
		INSERT OR REPLACE INTO aggregate_fields_hourly
		(hour_start, channel, field, unit, average, minimum, maximum, sample_count)
		SELECT
			?,
			f.channel,
			f.field,
			f.normalized_unit,
			AVG(f.normalized),
			MIN(f.normalized),
			MAX(f.normalized),
			COUNT(*)
		FROM telegram_fields f
		JOIN telegrams t ON t.id = f.telegram_id
		WHERE t.received_at >= ? AND t.received_at <= ? AND f.normalized IS NOT NULL
		GROUP BY f.channel, f.field, f.normalized_unit
	`

	result, err := db.SQL().ExecContext(ctx, insertQuery, hourStart.Unix(), hourStart.Unix(), getHourEnd(hourStart))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// HourlyAggregates returns the aggregates of field from the hours starting
// in [from, to), oldest first.
func HourlyAggregates(ctx context.Context, db *meterdb.MeterDB, field obis.Field, from, to time.Time) ([]HourlyAggregate, error) {
	query := `
		SELECT hour_start, channel, field, unit, average, minimum, maximum, sample_count
		FROM aggregate_fields_hourly
		WHERE field = ? AND hour_start >= ? AND hour_start < ?
		ORDER BY hour_start, channel, unit
	`

	rows, err := db.SQL().QueryContext(ctx, query, string(field), from.Unix(), to.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var aggregates []HourlyAggregate
	for rows.Next() {
		var (
			aggregate HourlyAggregate
			hourStart int64
			fieldName string
		)
		err := rows.Scan(
			&hourStart,
			&aggregate.Channel,
			&fieldName,
			&aggregate.Unit,
			&aggregate.Average,
			&aggregate.Minimum,
			&aggregate.Maximum,
			&aggregate.SampleCount,
		)
		if err != nil {
			return nil, err
		}
		aggregate.HourStart = time.Unix(hourStart, 0).UTC()
		aggregate.Field = obis.Field(fieldName)
		aggregates = append(aggregates, aggregate)
	}
	return aggregates, rows.Err()
}

// cleanupOldData removes raw telegrams older than retention if we have aggregated them
func cleanupOldData(ctx context.Context, db *meterdb.MeterDB, now time.Time, retention time.Duration) (int64, error) {
	cutoff := now.Add(-retention)

	// Only clean up if we have aggregated data up to the cutoff point
	var lastAggregateHour sql.NullInt64
	err := db.SQL().QueryRowContext(ctx, "SELECT MAX(hour_start) FROM aggregate_fields_hourly").Scan(&lastAggregateHour)
	if err != nil {
		return 0, err
	}
	if !lastAggregateHour.Valid || lastAggregateHour.Int64 < cutoff.Unix() {
		return 0, nil
	}

	return db.DeleteTelegramsBefore(ctx, cutoff)
}

// AggregateAndCleanup aggregates the hour before now and removes raw
// telegrams older than retention.
// This is the main function to call for data aggregation
func AggregateAndCleanup(ctx context.Context, db *meterdb.MeterDB, now time.Time, retention time.Duration, logger logrus.FieldLogger) error {
	// Aggregate the previous hour (current hour is still ongoing)
	hourStart := roundToHourStart(now.Add(-time.Hour))
	log := logger.WithField("hour", hourStart.Format(time.RFC3339))

	written, err := AggregateHour(ctx, db, hourStart)
	if err != nil {
		log.WithError(err).Error("Error aggregating hourly values")
		return err
	}
	log.WithField("aggregates", written).Debug("Aggregated hourly values")

	deleted, err := cleanupOldData(ctx, db, now, retention)
	if err != nil {
		log.WithError(err).Error("Error cleaning up old telegrams")
		return err
	}
	if deleted > 0 {
		log.WithField("deleted", deleted).Info("Cleaned up old telegrams")
	}
	return nil
}

// Run calls AggregateAndCleanup a minute after every full hour until ctx is done.
func Run(ctx context.Context, db *meterdb.MeterDB, retention time.Duration, logger logrus.FieldLogger) {
	for {
		now := time.Now()
		next := roundToHourStart(now).Add(time.Minute)
		if !next.After(now) {
			next = next.Add(time.Hour)
		}
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case now := <-timer.C:
			// Errors are logged, the next hour tries again.
			_ = AggregateAndCleanup(ctx, db, now, retention, logger)
		}
	}
}
