//go:build !linux

package usbprobe

import (
	"context"
	"path/filepath"

	"github.com/qai-labs/mavdiscovery/internal/record"
)

// Probe on non-Linux platforms has no sysfs to walk; it returns a
// best-effort record carrying only the device name, matching the
// source tree's per-OS discover_*.go split (Linux does the real work).
func Probe(_ context.Context, devicePath string) record.UsbMetadata {
	m := record.UsbMetadata{DeviceName: filepath.Base(devicePath)}
	m.BoardClass, m.BoardName, m.AutopilotType = Identify(m.VendorID, m.ProductID, m.Manufacturer, m.DeviceName)
	return m
}
