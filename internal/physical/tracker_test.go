package physical

import (
	"testing"

	"github.com/qai-labs/mavdiscovery/internal/record"
)

func recordFor(path, physicalID, serial string) record.DeviceRecord {
	return record.DeviceRecord{
		Path: path,
		USB:  record.UsbMetadata{PhysicalDeviceID: physicalID, SerialNumber: serial},
	}
}

func TestRegisterFirstPathBecomesPrimary(t *testing.T) {
	tr := New(nil)
	tr.Register("/dev/ttyUSB0", recordFor("/dev/ttyUSB0", "001:26ac:0011:ABC", "ABC"))

	primary, ok := tr.PrimaryOf("001:26ac:0011:ABC")
	if !ok || primary != "/dev/ttyUSB0" {
		t.Fatalf("expected /dev/ttyUSB0 primary, got %q ok=%v", primary, ok)
	}
}

func TestDualPathCollapseACMTieBreak(t *testing.T) {
	tr := New(nil)
	id := "001:26ac:0011:ABC"
	tr.Register("/dev/ttyACM1", recordFor("/dev/ttyACM1", id, "ABC"))
	tr.Register("/dev/ttyACM0", recordFor("/dev/ttyACM0", id, "ABC"))

	primary, _ := tr.PrimaryOf(id)
	if primary != "/dev/ttyACM0" {
		t.Fatalf("expected lower ACM number to win primary election, got %s", primary)
	}
	if !tr.IsPrimary("/dev/ttyACM0") || tr.IsPrimary("/dev/ttyACM1") {
		t.Fatal("IsPrimary disagrees with PrimaryOf")
	}
}

func TestRegisterDuplicatePathIsNoOp(t *testing.T) {
	tr := New(nil)
	tr.Register("/dev/ttyACM0", recordFor("/dev/ttyACM0", "id1", "ABC"))
	tr.Register("/dev/ttyACM0", recordFor("/dev/ttyACM0", "id2", "XYZ"))

	if id, _ := tr.PhysicalIDOf("/dev/ttyACM0"); id != "id1" {
		t.Fatalf("second registration of a known path must be ignored, got physicalId %s", id)
	}
}

func TestEmptyPhysicalDeviceIDFallsBackToSerial(t *testing.T) {
	tr := New(nil)
	tr.Register("/dev/ttyACM0", recordFor("/dev/ttyACM0", "", "SN123"))
	if id, ok := tr.PhysicalIDOf("/dev/ttyACM0"); !ok || id != "serial:SN123" {
		t.Fatalf("expected serial-keyed fallback id, got %q", id)
	}
}

func TestRemoveReElectsPrimary(t *testing.T) {
	tr := New(nil)
	id := "001:26ac:0011:ABC"
	tr.Register("/dev/ttyACM0", recordFor("/dev/ttyACM0", id, "ABC"))
	tr.Register("/dev/ttyACM1", recordFor("/dev/ttyACM1", id, "ABC"))

	tr.Remove("/dev/ttyACM0")

	primary, ok := tr.PrimaryOf(id)
	if !ok || primary != "/dev/ttyACM1" {
		t.Fatalf("expected re-election to pick remaining path, got %q ok=%v", primary, ok)
	}
}

func TestRemoveLastPathDeletesEntity(t *testing.T) {
	tr := New(nil)
	id := "001:26ac:0011:ABC"
	tr.Register("/dev/ttyACM0", recordFor("/dev/ttyACM0", id, "ABC"))
	tr.Remove("/dev/ttyACM0")

	if paths := tr.PathsOf(id); len(paths) != 0 {
		t.Fatalf("expected no paths after removing the only path, got %v", paths)
	}
	if _, ok := tr.PrimaryOf(id); ok {
		t.Fatal("expected entity to be deleted once its paths become empty")
	}
}

func TestRemoveDoesNotRefreshSnapshot(t *testing.T) {
	tr := New(nil)
	id := "001:26ac:0011:ABC"
	tr.Register("/dev/ttyACM0", recordFor("/dev/ttyACM0", id, "ABC"))
	tr.Register("/dev/ttyACM1", recordFor("/dev/ttyACM1", id, "ABC"))

	all := tr.AllPhysical()
	var before record.PhysicalDevice
	for _, d := range all {
		if d.PhysicalID == id {
			before = d
		}
	}

	tr.Remove("/dev/ttyACM0")

	all = tr.AllPhysical()
	for _, d := range all {
		if d.PhysicalID == id && d.Snapshot.Path != before.Snapshot.Path {
			t.Fatal("snapshot must not change on removal, only on registration")
		}
	}
}
