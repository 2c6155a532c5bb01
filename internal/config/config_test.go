package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadPackageAppliesDefaults(t *testing.T) {
	path := writeTemp(t, "package.json", `{"readTimeoutMs": 250}`)
	cfg, err := LoadPackage(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ReadTimeoutMs != 250 {
		t.Fatalf("expected overridden readTimeoutMs, got %d", cfg.ReadTimeoutMs)
	}
	if len(cfg.Baudrates) == 0 {
		t.Fatal("expected default baudrate list to survive a partial config")
	}
	if len(cfg.DevicePathFilters) != 3 {
		t.Fatalf("expected default device path filters, got %v", cfg.DevicePathFilters)
	}
}

func TestLoadRPCParsesNestedHeartbeat(t *testing.T) {
	path := writeTemp(t, "rpc.json", `{
		"client_id": "mavdiscover",
		"broker_host": "localhost",
		"broker_port": 1883,
		"heartbeat": {"enabled": true, "interval_seconds": 5, "topic": "hb", "payload": "ping"},
		"json_added_pubs": {"topics": ["direct_messaging/ur-mavrouter/requests"]}
	}`)
	cfg, err := LoadRPC(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ClientID != "mavdiscover" || cfg.BrokerPort != 1883 {
		t.Fatalf("unexpected rpc config: %+v", cfg)
	}
	if !cfg.Heartbeat.Enabled || cfg.Heartbeat.IntervalSeconds != 5 {
		t.Fatalf("unexpected heartbeat config: %+v", cfg.Heartbeat)
	}
	if len(cfg.JSONAddedPubs.Topics) != 1 {
		t.Fatalf("unexpected pub topics: %+v", cfg.JSONAddedPubs)
	}
}

func TestLoadPackageMissingFile(t *testing.T) {
	if _, err := LoadPackage(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}
