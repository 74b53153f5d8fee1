package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// Telegram fixtures under testdata/telegrams.
const (
	TelegramV2_2           = "v2_2.txt"
	TelegramV4_2           = "v4_2.txt"
	TelegramV5             = "v5.txt"
	TelegramFluvius        = "fluvius.txt"
	TelegramEONHungary     = "eon_hu.txt"
	TelegramIskraIE        = "iskra_ie.txt"
	TelegramSagemcomT210DR = "sagemcom_t210dr.txt"
)

// LoadTelegram returns a fixture telegram with its CRLF line endings intact.
func LoadTelegram(t testing.TB, name string) string {
	t.Helper()
	return string(readTestdata(t, filepath.Join("telegrams", name)))
}

func readTestdata(t testing.TB, rel string) []byte {
	t.Helper()
	candidates := []string{
		filepath.Join("testdata", rel),
		filepath.Join("..", "testdata", rel),
		filepath.Join("..", "..", "testdata", rel),
	}
	for _, path := range candidates {
		if data, err := os.ReadFile(path); err == nil {
			return data
		}
	}
	t.Fatalf("unable to locate testdata file %s", rel)
	return nil
}
