package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/NotCoffee418/dsmr_telegram/pkg/cipher"
	"github.com/NotCoffee418/dsmr_telegram/pkg/parser"
	"github.com/NotCoffee418/dsmr_telegram/pkg/pathing"
	"github.com/NotCoffee418/dsmr_telegram/pkg/specifications"
)

var (
	ActiveInterpreterAPIConfig *InterpreterAPIConfig
	ActiveMeterCollectorConfig *MeterCollectorConfig
)

const (
	interpreterAPIFile = "interpreter_api.toml"
	meterCollectorFile = "meter_collector.toml"
)

var baseTopicPattern = regexp.MustCompile(`^[a-z0-9_/]+$`)

// LoadEnv reads a .env file from the working directory if there is one.
// Variables already set in the environment win.
func LoadEnv() error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func DefaultInterpreterAPIConfig() *InterpreterAPIConfig {
	return &InterpreterAPIConfig{
		SerialDevice:  "/dev/ttyUSB0",
		DSMRVersion:   "5",
		ListenAddress: "0.0.0.0",
		ListenPort:    9039,
		MQTT: MQTTConfig{
			Host:          "localhost",
			Port:          1883,
			ClientID:      "dsmr_telegram",
			BaseTopic:     "dsmr",
			PayloadFormat: "json",
		},
	}
}

func DefaultMeterCollectorConfig() *MeterCollectorConfig {
	return &MeterCollectorConfig{
		InterpreterAPIHost: "localhost:9039",
		TLSEnabled:         false,
	}
}

func LoadInterpreterAPIConfig() error {
	cfg, err := loadOrCreate(filepath.Join(pathing.GetConfigDir(), interpreterAPIFile), DefaultInterpreterAPIConfig())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid %s: %w", interpreterAPIFile, err)
	}
	ActiveInterpreterAPIConfig = cfg
	return nil
}

func LoadMeterCollectorConfig() error {
	cfg, err := loadOrCreate(filepath.Join(pathing.GetConfigDir(), meterCollectorFile), DefaultMeterCollectorConfig())
	if err != nil {
		return err
	}
	if cfg.InterpreterAPIHost == "" {
		return fmt.Errorf("invalid %s: interpreter_api_host is empty", meterCollectorFile)
	}
	ActiveMeterCollectorConfig = cfg
	return nil
}

// loadOrCreate decodes path into defaults. A missing file is created from defaults.
func loadOrCreate[T any](path string, defaults *T) (*T, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, err
		}
		cfgFile, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		defer cfgFile.Close()
		if err := toml.NewEncoder(cfgFile).Encode(defaults); err != nil {
			return nil, fmt.Errorf("writing %s: %w", path, err)
		}
		return defaults, nil
	}

	if _, err := toml.DecodeFile(path, defaults); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return defaults, nil
}

// Specification resolves the configured telegram layout.
func (c *InterpreterAPIConfig) Specification() (parser.Specification, error) {
	if c.SpecificationFile != "" {
		return specifications.LoadFile(c.SpecificationFile)
	}
	return specifications.ByName(c.DSMRVersion)
}

func (c *InterpreterAPIConfig) Validate() error {
	var errs []error

	spec, err := c.Specification()
	if err != nil {
		errs = append(errs, err)
	} else if spec.GeneralGlobalCipher {
		if _, err := cipher.ParseKeyHex(c.EncryptionKey); err != nil {
			errs = append(errs, fmt.Errorf("encryption_key: %w", err))
		}
		if _, err := cipher.ParseKeyHex(c.AuthenticationKey); err != nil {
			errs = append(errs, fmt.Errorf("authentication_key: %w", err))
		}
	}

	if c.SerialDevice == "" {
		if c.TCPHost == "" {
			errs = append(errs, errors.New("either serial_device or tcp_host is required"))
		}
		if !validPort(c.TCPPort) {
			errs = append(errs, fmt.Errorf("tcp_port %d out of range", c.TCPPort))
		}
	}
	if !validPort(c.ListenPort) {
		errs = append(errs, fmt.Errorf("listen_port %d out of range", c.ListenPort))
	}

	if c.MQTT.Enabled {
		if c.MQTT.Host == "" {
			errs = append(errs, errors.New("mqtt.host is empty"))
		}
		if !validPort(c.MQTT.Port) {
			errs = append(errs, fmt.Errorf("mqtt.port %d out of range", c.MQTT.Port))
		}
		if topic, err := CheckMQTTTopic(c.MQTT.BaseTopic); err != nil {
			errs = append(errs, err)
		} else {
			c.MQTT.BaseTopic = topic
		}
		switch c.MQTT.PayloadFormat {
		case "", "json", "cbor":
		default:
			errs = append(errs, fmt.Errorf("mqtt.payload_format %q is not json or cbor", c.MQTT.PayloadFormat))
		}
	}

	return errors.Join(errs...)
}

// CheckMQTTTopic lower-cases baseTopic and checks it only holds letters,
// digits, underscores and slashes.
func CheckMQTTTopic(baseTopic string) (string, error) {
	topic := strings.Trim(strings.ToLower(baseTopic), "/")
	if !baseTopicPattern.MatchString(topic) {
		return "", fmt.Errorf("invalid mqtt base topic %q", baseTopic)
	}
	return topic, nil
}

func validPort(port int) bool {
	return port > 0 && port <= 65535
}
