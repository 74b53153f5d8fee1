// Responsible for storing the telegrams collected from the smart meter.
// Depends on the interpreter API being online.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/NotCoffee418/dsmr_telegram/pkg/aggregator"
	"github.com/NotCoffee418/dsmr_telegram/pkg/config"
	"github.com/NotCoffee418/dsmr_telegram/pkg/interpreter"
	"github.com/NotCoffee418/dsmr_telegram/pkg/meterdb"
	"github.com/NotCoffee418/dsmr_telegram/pkg/parser"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.LoadEnv(); err != nil {
		logrus.WithError(err).Fatal("Failed to load .env file")
	}
	if err := config.LoadMeterCollectorConfig(); err != nil {
		logrus.WithError(err).Fatal("Failed to load meter collector config")
	}
	cfg := config.ActiveMeterCollectorConfig

	db, err := openDatabase(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to open database")
	}
	defer db.Close()

	go aggregator.Run(ctx, db, aggregator.DefaultRetention, logrus.StandardLogger())

	// Subscribe to websocket with revive
	u := interpreter.ListenerURL(cfg.InterpreterAPIHost, cfg.TLSEnabled)
	err = interpreter.StartListener(ctx, u, func(msg *interpreter.TelegramMessage) {
		handleTelegramMessage(ctx, db, msg)
	}, logrus.StandardLogger())
	if err != nil && !errors.Is(err, context.Canceled) {
		logrus.WithError(err).Error("Listener stopped")
		db.Close()
		os.Exit(1)
	}
}

func openDatabase(cfg *config.MeterCollectorConfig) (*meterdb.MeterDB, error) {
	if cfg.DatabasePath != "" {
		return meterdb.Open(cfg.DatabasePath)
	}
	return meterdb.InitializeDatabase()
}

// Parse and store a telegram broadcast by the interpreter API
func handleTelegramMessage(ctx context.Context, db *meterdb.MeterDB, msg *interpreter.TelegramMessage) {
	log := logrus.WithField("specification", msg.Specification)
	telegram, spec, err := msg.Parse(parser.WithLogger(log))
	if err != nil {
		log.WithError(err).Warn("Failed to parse telegram")
		return
	}
	id, err := db.InsertTelegram(ctx, spec.Name, telegram, msg.Raw, msg.ReceivedAt)
	if err != nil {
		log.WithError(err).Error("Failed to store telegram")
		return
	}
	log.WithField("id", id).Debug("Stored telegram")
}
