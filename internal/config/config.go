// Package config loads the two JSON configuration files this daemon
// takes on the command line, using viper the way the pack's device-plugin
// config loader does: one viper instance per file, unmarshaled into a
// typed struct via mapstructure tags.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// HeartbeatConfig mirrors ConfigLoader.hpp's HeartbeatConfig.
type HeartbeatConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	IntervalSeconds int    `mapstructure:"interval_seconds"`
	Topic           string `mapstructure:"topic"`
	Payload         string `mapstructure:"payload"`
}

// TopicSet mirrors the {topics:[...]} shape used by json_added_pubs/subs.
type TopicSet struct {
	Topics []string `mapstructure:"topics"`
}

// Package is the package-config file (device scanning parameters).
type Package struct {
	DevicePathFilters []string `mapstructure:"devicePathFilters"`
	Baudrates         []int    `mapstructure:"baudrates"`
	ReadTimeoutMs     int      `mapstructure:"readTimeoutMs"`
	PacketTimeoutMs   int      `mapstructure:"packetTimeoutMs"`
	MaxPacketSize     int      `mapstructure:"maxPacketSize"`
	LogFile           string   `mapstructure:"logFile"`
	LogLevel          string   `mapstructure:"logLevel"`
	RuntimeDeviceFile string   `mapstructure:"runtimeDeviceFile"`
}

// RPC is the rpc-config file (broker connection parameters).
type RPC struct {
	ClientID           string          `mapstructure:"client_id"`
	BrokerHost         string          `mapstructure:"broker_host"`
	BrokerPort         int             `mapstructure:"broker_port"`
	Keepalive          int             `mapstructure:"keepalive"`
	QoS                int             `mapstructure:"qos"`
	AutoReconnect      bool            `mapstructure:"auto_reconnect"`
	ReconnectDelayMin  int             `mapstructure:"reconnect_delay_min"`
	ReconnectDelayMax  int             `mapstructure:"reconnect_delay_max"`
	UseTLS             bool            `mapstructure:"use_tls"`
	ConnectTimeout     int             `mapstructure:"connect_timeout"`
	MessageTimeout     int             `mapstructure:"message_timeout"`
	Heartbeat          HeartbeatConfig `mapstructure:"heartbeat"`
	JSONAddedPubs      TopicSet        `mapstructure:"json_added_pubs"`
	JSONAddedSubs      TopicSet        `mapstructure:"json_added_subs"`
}

func defaultPackage() Package {
	return Package{
		DevicePathFilters: []string{"/dev/ttyUSB", "/dev/ttyACM", "/dev/ttyS"},
		Baudrates:         []int{57600, 115200, 921600, 500000, 1500000, 9600, 19200, 38400},
		ReadTimeoutMs:     100,
		PacketTimeoutMs:   1000,
		MaxPacketSize:     280,
	}
}

// LoadPackage reads the package-config JSON file at path and fills in
// spec §6 defaults for any key left unset.
func LoadPackage(path string) (Package, error) {
	cfg := defaultPackage()
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("reading package config: %w", err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding package config: %w", err)
	}
	return cfg, nil
}

// LoadRPC reads the rpc-config JSON file at path.
func LoadRPC(path string) (RPC, error) {
	var cfg RPC
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("reading rpc config: %w", err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding rpc config: %w", err)
	}
	return cfg, nil
}
