package usbprobe

import "strings"

type boardInfo struct {
	class, name, autopilot string
}

// boardTable maps lowercase hex (vendorId, productId) pairs to board
// identity. Entries mirror the vendor/product set in the glossary:
// 3D Robotics/PX4, ArduPilot ChibiOS, CubePilot, Holybro, CUAV, U-blox.
var boardTable = map[[2]string]boardInfo{
	{"26ac", "0010"}: {"FMU", "PX4 FMU V1", "PX4"},
	{"26ac", "0011"}: {"FMU", "PX4 FMU V2", "PX4"},
	{"26ac", "0012"}: {"FMU", "PX4 FMU V3", "PX4"},
	{"26ac", "0013"}: {"FMU", "PX4 FMU V4", "PX4"},
	{"26ac", "0014"}: {"FMU", "PX4 FMU V4 PRO", "PX4"},
	{"26ac", "0016"}: {"FMU", "PX4 FMU V5", "PX4"},
	{"26ac", "0017"}: {"FMU", "PX4 FMU V5X", "PX4"},
	{"26ac", "001a"}: {"FMU", "PX4 FMU V6", "PX4"},
	{"26ac", "001b"}: {"FMU", "PX4 FMU V6X", "PX4"},
	{"26ac", "001c"}: {"FMU", "PX4 FMU V6C", "PX4"},

	{"1209", "5740"}: {"ChibiOS", "ArduPilot ChibiOS", "ArduPilot"},
	{"1209", "5741"}: {"ChibiOS", "ArduPilot ChibiOS Bootloader", "ArduPilot"},

	{"2dae", "1001"}: {"Cube", "Cube Black", "PX4"},
	{"2dae", "1016"}: {"Cube", "Cube Orange", "PX4"},
	{"2dae", "1101"}: {"Cube", "Cube Yellow", "PX4"},
	{"2dae", "1058"}: {"Cube", "Cube Purple", "PX4"},

	{"3162", "0047"}: {"Pixhawk", "Pixhawk 4", "PX4"},
	{"3162", "0049"}: {"Pixhawk", "Pixhawk 4 Mini", "PX4"},
	{"3162", "004b"}: {"Pixhawk", "Durandal", "PX4"},

	{"3163", "1101"}: {"CUAV", "CUAV Nora", "PX4"},
	{"3163", "1102"}: {"CUAV", "CUAV X7 Pro", "PX4"},

	{"1546", "01a5"}: {"GPS", "U-blox 5", "GPS"},
	{"1546", "01a6"}: {"GPS", "U-blox 6", "GPS"},
	{"1546", "01a7"}: {"GPS", "U-blox 7", "GPS"},
	{"1546", "01a8"}: {"GPS", "U-blox 8", "GPS"},
	{"1546", "01a9"}: {"GPS", "U-blox 9", "GPS"},
}

// manufacturerHints is the fallback substring match used when the
// (vendorId, productId) pair is unknown.
var manufacturerHints = []struct {
	substr, autopilot string
}{
	{"3d robotics", "PX4"},
	{"3dr", "PX4"},
	{"ardupilot", "ArduPilot"},
	{"mro", "ArduPilot"},
	{"holybro", "PX4"},
}

// Identify resolves (vendorId, productId, manufacturer, deviceName) to
// (boardClass, boardName, autopilotType). Unknown (vid,pid) falls back to
// a manufacturer substring match; unknown everything yields "Generic"
// with boardName equal to deviceName.
func Identify(vendorID, productID, manufacturer, deviceName string) (class, name, autopilot string) {
	key := [2]string{strings.ToLower(vendorID), strings.ToLower(productID)}
	if info, ok := boardTable[key]; ok {
		return info.class, info.name, info.autopilot
	}

	lowerMfr := strings.ToLower(manufacturer)
	for _, hint := range manufacturerHints {
		if strings.Contains(lowerMfr, hint.substr) {
			return "Generic", deviceName, hint.autopilot
		}
	}

	return "Generic", deviceName, "Generic"
}
