package runtimefile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/qai-labs/mavdiscovery/internal/record"
)

func TestWriteAtomicProducesReadableCanonicalJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "device.json")

	rec := record.DeviceRecord{Path: "/dev/ttyACM0", State: record.StateVerified, Baudrate: 57600}
	if err := WriteAtomic(path, rec); err != nil {
		t.Fatalf("WriteAtomic failed: %v", err)
	}

	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected file at %s, got error: %v", path, err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("runtime file is not valid JSON: %v", err)
	}
	if decoded["devicePath"] != "/dev/ttyACM0" {
		t.Fatalf("unexpected devicePath in runtime file: %v", decoded["devicePath"])
	}
}

func TestWriteAtomicLeavesNoTempFileBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "device.json")

	if err := WriteAtomic(path, record.DeviceRecord{Path: "/dev/ttyACM0"}); err != nil {
		t.Fatalf("WriteAtomic failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "device.json" {
		t.Fatalf("expected only device.json in %s, found %v", dir, entries)
	}
}

func TestWriteAtomicIsNoOpForEmptyPath(t *testing.T) {
	if err := WriteAtomic("", record.DeviceRecord{}); err != nil {
		t.Fatalf("expected no error for an unconfigured runtime file path, got %v", err)
	}
}
