// MeterDB stores received telegrams and the readings in them.
// Due to cross-service communication on SQLite,
// any user data or anything else should use a seperate database.
// This database should only be written to by one service
// but can be read by any service.
package meterdb

import (
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/NotCoffee418/dbmigrator"
	"github.com/sirupsen/logrus"

	"github.com/NotCoffee418/dsmr_telegram/pkg/pathing"

	_ "modernc.org/sqlite"
)

var (
	defaultDB *MeterDB
	once      sync.Once
	onceErr   error
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Concurrent readers and a writer in another process wait instead of failing.
const dsnOptions = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

type MeterDB struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies migrations.
func Open(path string) (*MeterDB, error) {
	db, err := sql.Open("sqlite", path+dsnOptions)
	if err != nil {
		return nil, err
	}
	// Verify connection, this also creates the file before migrating
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	dbmigrator.SetDatabaseType(dbmigrator.SQLite)
	<-dbmigrator.MigrateUpCh(
		db,
		migrationFS,
		"migrations",
	)

	var tables int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'telegrams'").Scan(&tables)
	if err != nil {
		db.Close()
		return nil, err
	}
	if tables == 0 {
		db.Close()
		return nil, fmt.Errorf("migrating %s: telegrams table missing", path)
	}
	return &MeterDB{db: db}, nil
}

// InitializeDatabase must be called manually on startup.
// It opens the database in the data directory.
func InitializeDatabase() (*MeterDB, error) {
	once.Do(func() {
		if onceErr = pathing.EnsureDirs(); onceErr != nil {
			return
		}
		defaultDB, onceErr = Open(pathing.GetMeterDbPath())
		if onceErr == nil {
			logrus.WithField("path", pathing.GetMeterDbPath()).Info("Meter database ready")
		}
	})
	return defaultDB, onceErr
}

// GetDB returns the database opened by InitializeDatabase, or nil.
func GetDB() *MeterDB {
	return defaultDB
}

// SQL exposes the underlying handle for read-only queries.
func (m *MeterDB) SQL() *sql.DB {
	return m.db
}

func (m *MeterDB) Close() error {
	return m.db.Close()
}
