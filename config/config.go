// Package config loads bridge settings from the environment and an
// optional config file.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Keys double as environment variable names
const (
	KeyServerAddress        = "SERVER_ADDRESS"
	KeyAPIAddress           = "API_ADDRESS"
	KeyAPIAllowedOrigins    = "API_ALLOWED_ORIGINS"
	KeyLogLevel             = "LOG_LEVEL"
	KeyLogFormat            = "LOG_FORMAT"
	KeyBluetoothChannel     = "BLUETOOTH_CHANNEL"
	KeyBluetoothBaudRate    = "BLUETOOTH_BAUD_RATE"
	KeyBluetoothSerialPorts = "BLUETOOTH_SERIAL_PORTS"
)

// Config holds the bridge settings
type Config struct {
	// ServerAddress is the raw ESC/POS passthrough listener
	ServerAddress string
	// APIAddress is the HTTP listener used by the host application
	APIAddress     string
	AllowedOrigins []string
	LogLevel       string
	LogFormat      string

	BluetoothChannel  int
	BluetoothBaudRate int
	// BluetoothSerialPorts maps printer MACs to pre-bound serial ports
	BluetoothSerialPorts map[string]string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyServerAddress, "localhost:9100")
	v.SetDefault(KeyAPIAddress, "localhost:8765")
	v.SetDefault(KeyAPIAllowedOrigins, "*")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
	v.SetDefault(KeyBluetoothChannel, 1)
	v.SetDefault(KeyBluetoothBaudRate, 115200)
}

// Load reads settings from the environment and, when path is not empty,
// from the config file at path. Environment values win.
func Load(path string) (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		ServerAddress:     strings.TrimSpace(v.GetString(KeyServerAddress)),
		APIAddress:        strings.TrimSpace(v.GetString(KeyAPIAddress)),
		AllowedOrigins:    stringList(v.Get(KeyAPIAllowedOrigins)),
		LogLevel:          v.GetString(KeyLogLevel),
		LogFormat:         v.GetString(KeyLogFormat),
		BluetoothChannel:  v.GetInt(KeyBluetoothChannel),
		BluetoothBaudRate: v.GetInt(KeyBluetoothBaudRate),
	}

	ports, err := serialPorts(v)
	if err != nil {
		return Config{}, err
	}
	cfg.BluetoothSerialPorts = ports

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges that would otherwise fail at connect time
func (c Config) Validate() error {
	if c.ServerAddress == "" && c.APIAddress == "" {
		return fmt.Errorf("%s and %s are both empty", KeyServerAddress, KeyAPIAddress)
	}
	if c.BluetoothChannel < 1 || c.BluetoothChannel > 30 {
		return fmt.Errorf("%s must be between 1 and 30, got %d", KeyBluetoothChannel, c.BluetoothChannel)
	}
	if c.BluetoothBaudRate <= 0 {
		return fmt.Errorf("%s must be positive, got %d", KeyBluetoothBaudRate, c.BluetoothBaudRate)
	}
	return nil
}

// serialPorts accepts a "MAC=port,MAC=port" string (environment) or a
// map (config file).
func serialPorts(v *viper.Viper) (map[string]string, error) {
	ports := make(map[string]string)

	raw := v.Get(KeyBluetoothSerialPorts)
	s, isString := raw.(string)
	if raw == nil || (isString && strings.TrimSpace(s) == "") {
		return ports, nil
	}

	if !isString {
		for mac, port := range v.GetStringMapString(KeyBluetoothSerialPorts) {
			ports[strings.ToUpper(mac)] = port
		}
		return ports, nil
	}

	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		mac, port, ok := strings.Cut(entry, "=")
		if !ok || strings.TrimSpace(mac) == "" || strings.TrimSpace(port) == "" {
			return nil, fmt.Errorf("%s: invalid entry %q, want MAC=port", KeyBluetoothSerialPorts, entry)
		}
		ports[strings.ToUpper(strings.TrimSpace(mac))] = strings.TrimSpace(port)
	}
	return ports, nil
}

// stringList accepts a comma separated string or a list
func stringList(raw any) []string {
	var items []string
	switch val := raw.(type) {
	case string:
		items = strings.Split(val, ",")
	case []string:
		items = val
	case []any:
		for _, item := range val {
			items = append(items, fmt.Sprint(item))
		}
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
