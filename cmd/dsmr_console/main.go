// dsmr_console prints the telegrams of a smart meter.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/NotCoffee418/dsmr_telegram/pkg/objects"
	"github.com/NotCoffee418/dsmr_telegram/pkg/parser"
	"github.com/NotCoffee418/dsmr_telegram/pkg/port_reader"
	"github.com/NotCoffee418/dsmr_telegram/pkg/specifications"
)

const reconnectDelay = 5 * time.Second

var (
	rootCmd = &cobra.Command{
		Use:   "dsmr_console",
		Short: "Print DSMR smart meter telegrams",
		Long: "dsmr_console reads telegrams from a P1 serial port, a serial-to-network bridge " +
			"or a capture file and prints every telegram it parses.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}

	versionsCmd = &cobra.Command{
		Use:   "versions",
		Short: "List the built-in specifications",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, spec := range specifications.All() {
				fmt.Fprintln(cmd.OutOrStdout(), spec.Name)
			}
		},
	}

	device            string
	host              string
	port              int
	version           string
	specFile          string
	file              string
	verbose           bool
	strict            bool
	jsonOutput        bool
	rfxtrx            bool
	encryptionKey     string
	authenticationKey string
)

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&device, "device", "", "serial device of the P1 port, e.g. /dev/ttyUSB0")
	flags.StringVar(&host, "host", "", "host of a serial-to-network bridge")
	flags.IntVar(&port, "port", 0, "port of the serial-to-network bridge")
	flags.StringVar(&file, "file", "", "read telegrams from a capture file")
	flags.StringVar(&version, "version", "2.2", "DSMR version or meter: 2.2, 4, 5, 5B, 5L, 5S, Q3D, 5EONHU, ISKRA_IE, SAGEMCOM")
	flags.StringVar(&specFile, "spec-file", "", "YAML specification to use instead of --version")
	flags.BoolVar(&strict, "strict", false, "fail telegrams with malformed lines instead of skipping the line")
	flags.BoolVar(&jsonOutput, "json", false, "print telegrams as JSON")
	flags.BoolVar(&rfxtrx, "rfxtrx", false, "telegrams arrive through an RFXtrx receiver")
	flags.StringVar(&encryptionKey, "encryption-key", "", "hex encryption key of meters that encrypt telegrams")
	flags.StringVar(&authenticationKey, "authentication-key", "", "hex authentication key of meters that encrypt telegrams")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.MarkFlagsMutuallyExclusive("device", "host", "file")

	rootCmd.AddCommand(versionsCmd)
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logrus.Fatal(err)
	}
}

func run(ctx context.Context) error {
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	spec, err := loadSpecification()
	if err != nil {
		return err
	}
	p := parser.New(spec, parser.WithStrict(strict))
	opts := []port_reader.Option{port_reader.WithKeys(encryptionKey, authenticationKey)}
	if rfxtrx {
		opts = append(opts, port_reader.WithRFXtrx())
	}

	var reader *port_reader.P1Reader
	switch {
	case file != "":
		reader = port_reader.NewFileReader(file, p, opts...)
	case host != "":
		if port == 0 {
			return errors.New("--port is required with --host")
		}
		return readWithReconnect(ctx, port_reader.NewSocketReader(host, port, p, opts...))
	case device != "":
		reader = port_reader.NewSerialReader(device, port_reader.SerialSettingsFor(spec), p, opts...)
	default:
		return errors.New("one of --device, --host or --file is required")
	}

	return ignoreCanceled(reader.Read(ctx, printTelegram))
}

func loadSpecification() (parser.Specification, error) {
	if specFile != "" {
		return specifications.LoadFile(specFile)
	}
	return specifications.ByName(version)
}

// readWithReconnect keeps reading from a network bridge, reconnecting after errors.
func readWithReconnect(ctx context.Context, reader *port_reader.P1Reader) error {
	for {
		err := reader.Read(ctx, printTelegram)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			logrus.WithError(err).Warn("Telegram source failed")
		}
		logrus.Infof("Reconnecting in %v", reconnectDelay)
		select {
		case <-time.After(reconnectDelay):
		case <-ctx.Done():
			return nil
		}
	}
}

func printTelegram(telegram *objects.Telegram, raw string) {
	if !jsonOutput {
		fmt.Println(telegram.String())
		return
	}
	data, err := telegram.ToJSON()
	if err != nil {
		logrus.WithError(err).Error("Failed to export telegram")
		return
	}
	fmt.Println(string(data))
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
