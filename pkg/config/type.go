package config

type MeterCollectorConfig struct {
	InterpreterAPIHost string `toml:"interpreter_api_host"`
	TLSEnabled         bool   `toml:"tls_enabled"`
	// Empty means the default database under the data directory.
	DatabasePath string `toml:"database_path"`
}

type InterpreterAPIConfig struct {
	// Telegram source: a serial device, or a TCP bridge when SerialDevice is empty.
	SerialDevice string `toml:"serial_device"`
	// Zero uses the rate of the DSMR version.
	Baudrate uint   `toml:"baudrate"`
	TCPHost  string `toml:"tcp_host"`
	TCPPort  int    `toml:"tcp_port"`
	// Telegrams arrive wrapped in RFXtrx receiver packets.
	RFXtrx bool `toml:"rfxtrx"`

	// Name or alias of a built-in specification, see specifications.ByName.
	DSMRVersion string `toml:"dsmr_version"`
	// Optional YAML specification file. Overrides DSMRVersion.
	SpecificationFile string `toml:"specification_file"`
	StrictParsing     bool   `toml:"strict_parsing"`
	EncryptionKey     string `toml:"encryption_key"`
	AuthenticationKey string `toml:"authentication_key"`

	ListenAddress string `toml:"listen_address"`
	ListenPort    int    `toml:"listen_port"`

	StoreTelegrams bool `toml:"store_telegrams"`

	MQTT MQTTConfig `toml:"mqtt"`
}

type MQTTConfig struct {
	Enabled   bool   `toml:"enabled"`
	Host      string `toml:"host"`
	Port      int    `toml:"port"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
	ClientID  string `toml:"client_id"`
	BaseTopic string `toml:"base_topic"`
	// json or cbor
	PayloadFormat string `toml:"payload_format"`
}
