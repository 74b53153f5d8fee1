package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

func TestLoadInterpreterAPIConfigCreatesDefault(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DSMR_CONFIG_DIR", dir)

	require.NoError(t, LoadInterpreterAPIConfig())
	assert.Equal(t, DefaultInterpreterAPIConfig(), ActiveInterpreterAPIConfig)

	var written InterpreterAPIConfig
	_, err := toml.DecodeFile(filepath.Join(dir, interpreterAPIFile), &written)
	require.NoError(t, err)
	assert.Equal(t, "5", written.DSMRVersion)
	assert.Equal(t, 9039, written.ListenPort)
	assert.Equal(t, "dsmr", written.MQTT.BaseTopic)
}

func TestLoadInterpreterAPIConfigReadsFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DSMR_CONFIG_DIR", dir)
	doc := `
serial_device = ""
tcp_host = "192.168.1.20"
tcp_port = 8088
dsmr_version = "sagemcom_t210_d_r"
encryption_key = "` + testKey + `"
authentication_key = "` + testKey + `"

[mqtt]
enabled = true
base_topic = "/Home/Meter/"
payload_format = "cbor"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, interpreterAPIFile), []byte(doc), 0644))

	require.NoError(t, LoadInterpreterAPIConfig())
	cfg := ActiveInterpreterAPIConfig
	assert.Equal(t, "192.168.1.20", cfg.TCPHost)
	assert.Equal(t, 8088, cfg.TCPPort)
	// Unset keys keep their defaults.
	assert.Equal(t, 9039, cfg.ListenPort)
	assert.Equal(t, 1883, cfg.MQTT.Port)
	assert.Equal(t, "home/meter", cfg.MQTT.BaseTopic)
	assert.Equal(t, "cbor", cfg.MQTT.PayloadFormat)

	spec, err := cfg.Specification()
	require.NoError(t, err)
	assert.True(t, spec.GeneralGlobalCipher)
}

func TestLoadInterpreterAPIConfigRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DSMR_CONFIG_DIR", dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, interpreterAPIFile), []byte(`dsmr_version = "9"`), 0644))

	err := LoadInterpreterAPIConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), interpreterAPIFile)
}

func TestLoadInterpreterAPIConfigBadToml(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DSMR_CONFIG_DIR", dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, interpreterAPIFile), []byte(`listen_port = "x`), 0644))

	assert.Error(t, LoadInterpreterAPIConfig())
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := DefaultInterpreterAPIConfig()
	cfg.SerialDevice = ""
	cfg.DSMRVersion = "sagemcom"
	cfg.EncryptionKey = "ABC"
	cfg.ListenPort = 70000
	cfg.MQTT.Enabled = true
	cfg.MQTT.BaseTopic = "dsmr meter"
	cfg.MQTT.PayloadFormat = "xml"

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	for _, want := range []string{
		"encryption_key",
		"authentication_key",
		"serial_device or tcp_host",
		"tcp_port",
		"listen_port",
		"mqtt base topic",
		"payload_format",
	} {
		assert.Contains(t, msg, want)
	}
	assert.Len(t, strings.Split(msg, "\n"), 7)
}

func TestValidateSkipsKeysForPlainSpecifications(t *testing.T) {
	cfg := DefaultInterpreterAPIConfig()
	cfg.DSMRVersion = "4"
	assert.NoError(t, cfg.Validate())
}

func TestSpecificationFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meter.yaml")
	doc := "name: HOME\nbase: V4\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	cfg := DefaultInterpreterAPIConfig()
	cfg.DSMRVersion = "does not matter"
	cfg.SpecificationFile = path
	spec, err := cfg.Specification()
	require.NoError(t, err)
	assert.Equal(t, "HOME", spec.Name)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMeterCollectorConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DSMR_CONFIG_DIR", dir)

	require.NoError(t, LoadMeterCollectorConfig())
	assert.Equal(t, "localhost:9039", ActiveMeterCollectorConfig.InterpreterAPIHost)

	require.NoError(t, os.WriteFile(filepath.Join(dir, meterCollectorFile), []byte(`interpreter_api_host = ""`), 0644))
	assert.Error(t, LoadMeterCollectorConfig())
}

func TestCheckMQTTTopic(t *testing.T) {
	assert := assert.New(t)

	topic, err := CheckMQTTTopic("dsmr")
	assert.NoError(err)
	assert.Equal("dsmr", topic)

	topic, err = CheckMQTTTopic("/Home/P1/")
	assert.NoError(err)
	assert.Equal("home/p1", topic)

	_, err = CheckMQTTTopic("")
	assert.Error(err)
	_, err = CheckMQTTTopic("meter#")
	assert.Error(err)
	_, err = CheckMQTTTopic("meter+1")
	assert.Error(err)
}

func TestLoadEnvWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())
	assert.NoError(t, LoadEnv())
}

func TestLoadEnvKeepsExistingVariables(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile(".env", []byte("DSMR_TEST_A=from_file\nDSMR_TEST_B=from_file\n"), 0644))
	t.Setenv("DSMR_TEST_A", "from_env")
	t.Setenv("DSMR_TEST_B", "")
	os.Unsetenv("DSMR_TEST_B")

	require.NoError(t, LoadEnv())
	assert.Equal(t, "from_env", os.Getenv("DSMR_TEST_A"))
	assert.Equal(t, "from_file", os.Getenv("DSMR_TEST_B"))
	os.Unsetenv("DSMR_TEST_B")
}
