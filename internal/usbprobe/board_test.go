package usbprobe

import "testing"

func TestIdentifyKnownBoard(t *testing.T) {
	class, name, autopilot := Identify("26AC", "0011", "3D Robotics", "ttyACM0")
	if class != "FMU" || name != "PX4 FMU V2" || autopilot != "PX4" {
		t.Fatalf("unexpected identification: %s %s %s", class, name, autopilot)
	}
}

func TestIdentifyManufacturerFallback(t *testing.T) {
	class, name, autopilot := Identify("dead", "beef", "ArduPilot Community", "ttyACM3")
	if class != "Generic" || name != "ttyACM3" || autopilot != "ArduPilot" {
		t.Fatalf("unexpected fallback identification: %s %s %s", class, name, autopilot)
	}
}

func TestIdentifyUnknownEverything(t *testing.T) {
	class, name, autopilot := Identify("0000", "0000", "Acme Corp", "ttyACM5")
	if class != "Generic" || name != "ttyACM5" || autopilot != "Generic" {
		t.Fatalf("unexpected generic identification: %s %s %s", class, name, autopilot)
	}
}

func TestIdentifyArduPilotChibiOS(t *testing.T) {
	class, _, autopilot := Identify("1209", "5740", "", "")
	if class != "ChibiOS" || autopilot != "ArduPilot" {
		t.Fatalf("expected ArduPilot ChibiOS match, got %s/%s", class, autopilot)
	}
}
