// Interpreter API is responsible for reading the P1 port and broadcasting the telegrams.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/NotCoffee418/dsmr_telegram/pkg/aggregator"
	"github.com/NotCoffee418/dsmr_telegram/pkg/config"
	"github.com/NotCoffee418/dsmr_telegram/pkg/interpreter"
	"github.com/NotCoffee418/dsmr_telegram/pkg/meterdb"
	"github.com/NotCoffee418/dsmr_telegram/pkg/objects"
	"github.com/NotCoffee418/dsmr_telegram/pkg/parser"
	"github.com/NotCoffee418/dsmr_telegram/pkg/port_reader"
	"github.com/NotCoffee418/dsmr_telegram/pkg/publisher"
)

const (
	reconnectDelay  = 5 * time.Second
	publishTimeout  = 5 * time.Second
	shutdownTimeout = 5 * time.Second
)

// Last telegram read, served by /latest and sent to new websocket clients.
var latest atomic.Pointer[interpreter.TelegramMessage]

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.LoadEnv(); err != nil {
		logrus.WithError(err).Fatal("Failed to load .env file")
	}
	if err := config.LoadInterpreterAPIConfig(); err != nil {
		logrus.WithError(err).Fatal("Failed to load interpreter API config")
	}
	cfg := config.ActiveInterpreterAPIConfig

	spec, err := cfg.Specification()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load specification")
	}
	log := logrus.WithField("specification", spec.Name)

	var db *meterdb.MeterDB
	if cfg.StoreTelegrams {
		if db, err = meterdb.InitializeDatabase(); err != nil {
			log.WithError(err).Fatal("Failed to open database")
		}
		defer db.Close()
		seedLatest(ctx, db, log)
		go aggregator.Run(ctx, db, aggregator.DefaultRetention, log)
	}

	var pub *publisher.Publisher
	if cfg.MQTT.Enabled {
		pub = publisher.NewPublisher(cfg.MQTT, publisher.OptsFromConfig(cfg.MQTT), log)
		if err := pub.Connect(ctx); err != nil {
			log.WithError(err).Fatal("Failed to connect to MQTT broker")
		}
		defer pub.Disconnect(publishTimeout)
	}

	hub := interpreter.NewHub(log)
	handleTelegram := func(telegram *objects.Telegram, raw string) {
		receivedAt := time.Now()
		msg, err := interpreter.NewTelegramMessage(spec.Name, telegram, raw, receivedAt)
		if err != nil {
			log.WithError(err).Error("Failed to export telegram")
			return
		}
		latest.Store(msg)
		hub.Broadcast(msg.ToJsonBytes())

		if db != nil {
			if _, err := db.InsertTelegram(ctx, spec.Name, telegram, raw, receivedAt); err != nil {
				log.WithError(err).Error("Failed to store telegram")
			}
		}
		if pub != nil {
			publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
			defer cancel()
			if err := pub.Publish(publishCtx, telegram); err != nil {
				log.WithError(err).Warn("Failed to publish telegram")
			}
		}
	}

	reader := newReader(cfg, spec, log)
	go readForever(ctx, reader, cfg.SerialDevice == "", handleTelegram, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"message":       "DSMR Telegram Interpreter API",
			"status":        "running",
			"specification": spec.Name,
		})
	})
	mux.HandleFunc("/latest", func(w http.ResponseWriter, r *http.Request) {
		msg := latest.Load()
		if msg == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "No telegrams available yet",
			})
			return
		}
		writeJSON(w, http.StatusOK, msg)
	})
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		var initial []byte
		if msg := latest.Load(); msg != nil {
			initial = msg.ToJsonBytes()
		}
		hub.ServeWS(w, r, initial)
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ListenAddress, cfg.ListenPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Infof("Starting DSMR Telegram Interpreter API on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("HTTP server failed")
	}
}

func newReader(cfg *config.InterpreterAPIConfig, spec parser.Specification, log logrus.FieldLogger) *port_reader.P1Reader {
	p := parser.New(spec, parser.WithStrict(cfg.StrictParsing), parser.WithLogger(log))
	opts := []port_reader.Option{
		port_reader.WithLogger(log),
		port_reader.WithKeys(cfg.EncryptionKey, cfg.AuthenticationKey),
	}
	if cfg.RFXtrx {
		opts = append(opts, port_reader.WithRFXtrx())
	}
	if cfg.SerialDevice == "" {
		return port_reader.NewSocketReader(cfg.TCPHost, cfg.TCPPort, p, opts...)
	}
	settings := port_reader.SerialSettingsFor(spec)
	if cfg.Baudrate != 0 {
		settings.BaudRate = cfg.Baudrate
	}
	return port_reader.NewSerialReader(cfg.SerialDevice, settings, p, opts...)
}

// readForever restarts the reader after network failures. A failing serial
// port stops the API, the service manager restarts it.
func readForever(ctx context.Context, reader *port_reader.P1Reader, reconnect bool, handle port_reader.TelegramHandler, log logrus.FieldLogger) {
	for {
		err := reader.Read(ctx, handle)
		if ctx.Err() != nil {
			return
		}
		if !reconnect {
			log.WithError(err).Fatal("Error reading P1 port")
		}
		log.WithError(err).Warnf("Telegram source failed, reconnecting in %v", reconnectDelay)
		select {
		case <-time.After(reconnectDelay):
		case <-ctx.Done():
			return
		}
	}
}

// seedLatest serves the last stored telegram until the meter sends a new one.
func seedLatest(ctx context.Context, db *meterdb.MeterDB, log logrus.FieldLogger) {
	stored, err := db.LatestTelegram(ctx)
	if err != nil {
		if !errors.Is(err, meterdb.ErrNoTelegrams) {
			log.WithError(err).Warn("Failed to load latest stored telegram")
		}
		return
	}
	latest.Store(&interpreter.TelegramMessage{
		ReceivedAt:    stored.ReceivedAt,
		Specification: stored.Specification,
		Raw:           stored.Raw,
		Telegram:      json.RawMessage(stored.JSON),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
