//go:build linux

package usbprobe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/qai-labs/mavdiscovery/internal/record"
)

const (
	maxAttempts  = 3
	retrySpacing = 200 * time.Millisecond
)

// Probe walks the kernel device tree for the enclosing USB node of a
// /dev/tty* path and returns its UsbMetadata. It makes up to maxAttempts
// attempts, spaced retrySpacing apart, because USB attributes populate
// asynchronously right after hot-plug; if no attempt is complete it
// returns the last, partial, result. It returns early if ctx is canceled,
// releasing any held file handles on every return path.
func Probe(ctx context.Context, devicePath string) record.UsbMetadata {
	name := filepath.Base(devicePath)

	var last record.UsbMetadata
	for attempt := 0; attempt < maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return last
		default:
		}

		last = readOnce(name)
		if last.Complete() {
			break
		}

		if attempt < maxAttempts-1 {
			select {
			case <-ctx.Done():
				return last
			case <-time.After(retrySpacing):
			}
		}
	}

	// physical.Tracker synthesizes a "serial:<sn>" fallback key itself when
	// busNumber/vendorId/productId are incomplete; this just reports what
	// the sysfs walk actually found.
	last.PhysicalDeviceID = record.PhysicalDeviceID(last)
	last.BoardClass, last.BoardName, last.AutopilotType = Identify(last.VendorID, last.ProductID, last.Manufacturer, last.DeviceName)
	return last
}

func readOnce(name string) record.UsbMetadata {
	m := record.UsbMetadata{DeviceName: name}

	sysPath := filepath.Join("/sys/class/tty", name, "device")
	resolved, err := filepath.EvalSymlinks(sysPath)
	if err != nil {
		return m
	}
	if !strings.Contains(resolved, "usb") {
		return m
	}

	dir := resolved
	for i := 0; i < 8; i++ {
		if _, err := os.Stat(filepath.Join(dir, "idVendor")); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return m
		}
		dir = parent
	}

	m.VendorID = readHexFile(filepath.Join(dir, "idVendor"))
	m.ProductID = readHexFile(filepath.Join(dir, "idProduct"))
	m.Manufacturer = readStringFile(filepath.Join(dir, "manufacturer"))
	m.SerialNumber = readStringFile(filepath.Join(dir, "serial"))
	m.BusNumber = readStringFile(filepath.Join(dir, "busnum"))
	m.DeviceAddress = readStringFile(filepath.Join(dir, "devnum"))

	if product := readStringFile(filepath.Join(dir, "product")); product != "" {
		m.DeviceName = product
	}

	return m
}

func readStringFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// readHexFile returns a lowercase 4-digit hex string without "0x", per
// the canonical device-record wire format (spec §6).
func readHexFile(path string) string {
	s := readStringFile(path)
	if s == "" {
		return ""
	}
	var val uint64
	if _, err := fmt.Sscanf(s, "%x", &val); err != nil {
		return ""
	}
	return fmt.Sprintf("%04x", val)
}
