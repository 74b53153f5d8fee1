package pathing

import (
	"os"
	"path/filepath"
)

const (
	dataDirEnv   = "DSMR_DATA_DIR"
	configDirEnv = "DSMR_CONFIG_DIR"
)

// EnsureDirs creates the data and config directories when missing.
func EnsureDirs() error {
	for _, dir := range []string{GetDataDir(), GetConfigDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

func GetMeterDbPath() string {
	return filepath.Join(GetDataDir(), "dsmr-telegrams.db")
}

func GetDataDir() string {
	if dir := os.Getenv(dataDirEnv); dir != "" {
		return dir
	}
	return "/var/lib/dsmr_telegram"
}

func GetConfigDir() string {
	if dir := os.Getenv(configDirEnv); dir != "" {
		return dir
	}
	return "/etc/dsmr_telegram"
}
