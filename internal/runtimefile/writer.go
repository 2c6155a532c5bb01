// Package runtimefile implements the rolling, last-writer-wins JSON
// snapshot described in spec §6.
package runtimefile

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/qai-labs/mavdiscovery/internal/record"
)

// WriteAtomic pretty-prints rec's canonical JSON and atomically replaces
// path's contents via a write-then-rename, so concurrent readers never
// observe a partial write.
func WriteAtomic(path string, rec record.DeviceRecord) error {
	if path == "" {
		return nil
	}

	body, err := json.MarshalIndent(rec.CanonicalJSON(), "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".runtime-device-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
