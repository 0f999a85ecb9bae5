package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	KeyServerAddress,
	KeyAPIAddress,
	KeyAPIAllowedOrigins,
	KeyLogLevel,
	KeyLogFormat,
	KeyBluetoothChannel,
	KeyBluetoothBaudRate,
	KeyBluetoothSerialPorts,
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "localhost:9100", cfg.ServerAddress)
	assert.Equal(t, "localhost:8765", cfg.APIAddress)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, 1, cfg.BluetoothChannel)
	assert.Equal(t, 115200, cfg.BluetoothBaudRate)
	assert.Empty(t, cfg.BluetoothSerialPorts)
}

func TestLoadEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(KeyServerAddress, "0.0.0.0:9100")
	t.Setenv(KeyAPIAllowedOrigins, "http://localhost:5173, https://pos.example.com")
	t.Setenv(KeyLogLevel, "debug")
	t.Setenv(KeyBluetoothChannel, "2")
	t.Setenv(KeyBluetoothSerialPorts, "AA:BB:CC:DD:EE:FF=/dev/rfcomm0, 00:11:22:33:44:55=COM4")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9100", cfg.ServerAddress)
	assert.Equal(t, []string{"http://localhost:5173", "https://pos.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 2, cfg.BluetoothChannel)
	assert.Equal(t, map[string]string{
		"AA:BB:CC:DD:EE:FF": "/dev/rfcomm0",
		"00:11:22:33:44:55": "COM4",
	}, cfg.BluetoothSerialPorts)
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "bridge.yaml")
	content := `
api_address: 127.0.0.1:9000
api_allowed_origins:
  - http://localhost:5173
log_format: json
bluetooth_baud_rate: 9600
bluetooth_serial_ports:
  "aa:bb:cc:dd:ee:ff": /dev/rfcomm1
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.APIAddress)
	assert.Equal(t, "localhost:9100", cfg.ServerAddress)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.AllowedOrigins)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 9600, cfg.BluetoothBaudRate)
	assert.Equal(t, map[string]string{"AA:BB:CC:DD:EE:FF": "/dev/rfcomm1"}, cfg.BluetoothSerialPorts)

	// environment wins over the file
	t.Setenv(KeyLogFormat, "console")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "console", cfg.LogFormat)
}

func TestLoadErrors(t *testing.T) {
	t.Run("MissingFile", func(t *testing.T) {
		clearEnv(t)
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("BadChannel", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(KeyBluetoothChannel, "31")
		_, err := Load("")
		assert.ErrorContains(t, err, KeyBluetoothChannel)
	})

	t.Run("BadSerialPorts", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(KeyBluetoothSerialPorts, "AA:BB:CC:DD:EE:FF")
		_, err := Load("")
		assert.ErrorContains(t, err, "MAC=port")
	})
}
