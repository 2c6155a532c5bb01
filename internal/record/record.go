// Package record holds the data types shared by every discovery
// subsystem: device state, USB metadata, parsed MAVLink frame headers,
// and the device/physical-unit records built from them.
package record

import (
	"encoding/json"
	"fmt"
	"sort"
)

// DeviceState is the lifecycle of a discovered path. It is monotonic
// except for Verified/NonMavlink -> Removed on unplug.
type DeviceState int32

const (
	StateUnknown DeviceState = iota
	StateVerifying
	StateVerified
	StateNonMavlink
	StateRemoved
)

func (s DeviceState) String() string {
	switch s {
	case StateUnknown:
		return "Unknown"
	case StateVerifying:
		return "Verifying"
	case StateVerified:
		return "Verified"
	case StateNonMavlink:
		return "NonMavlink"
	case StateRemoved:
		return "Removed"
	default:
		return "Unknown"
	}
}

func (s DeviceState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UsbMetadata is a record of string fields describing the USB device
// backing a tty path. All fields are strings, including the numeric
// ones, because they are read verbatim from sysfs attribute files.
type UsbMetadata struct {
	DeviceName       string `json:"deviceName"`
	Manufacturer     string `json:"manufacturer"`
	SerialNumber     string `json:"serialNumber"`
	VendorID         string `json:"vendorId"`
	ProductID        string `json:"productId"`
	BusNumber        string `json:"busNumber"`
	DeviceAddress    string `json:"deviceAddress"`
	PhysicalDeviceID string `json:"physicalDeviceId"`
	BoardClass       string `json:"boardClass"`
	BoardName        string `json:"boardName"`
	AutopilotType    string `json:"autopilotType"`
}

// Complete reports whether the six sysfs-sourced fields required by the
// probe's accept-or-retry rule are all non-empty.
func (m UsbMetadata) Complete() bool {
	return m.Manufacturer != "" && m.SerialNumber != "" && m.VendorID != "" &&
		m.ProductID != "" && m.DeviceName != "" && m.BusNumber != ""
}

// MavlinkFrameInfo is the header of the first successfully recognized frame.
type MavlinkFrameInfo struct {
	SysID          uint8 `json:"sysid"`
	CompID         uint8 `json:"compid"`
	MsgID          uint32 `json:"msgid"`
	MavlinkVersion uint8 `json:"mavlinkVersion"`
}

// DeviceRecord is the full in-memory record for one path.
type DeviceRecord struct {
	Path      string
	State     DeviceState
	Baudrate  uint32
	Frame     *MavlinkFrameInfo
	Messages  map[uint32]string // msgid -> "MSG_<id>" name
	USB       UsbMetadata
	Timestamp string
}

// Clone returns a deep-enough value copy safe to hand to a reader: the
// store never hands out live references (spec §4.4).
func (r DeviceRecord) Clone() DeviceRecord {
	cp := r
	if r.Frame != nil {
		f := *r.Frame
		cp.Frame = &f
	}
	if r.Messages != nil {
		cp.Messages = make(map[uint32]string, len(r.Messages))
		for k, v := range r.Messages {
			cp.Messages[k] = v
		}
	}
	return cp
}

type messageEntry struct {
	MsgID uint32 `json:"msgid"`
	Name  string `json:"name"`
}

// CanonicalJSON renders the flat device-record shape defined in the
// external interface contract: componentId/systemId/devicePath etc,
// hex ids as lowercase 4-digit strings. This is the shape written to
// the runtime device file and returned by device-list/device_info.
func (r DeviceRecord) CanonicalJSON() map[string]interface{} {
	var sysid, compid, mavlinkVersion, msgid interface{} = 0, 0, 0, 0
	if r.Frame != nil {
		sysid = r.Frame.SysID
		compid = r.Frame.CompID
		mavlinkVersion = r.Frame.MavlinkVersion
		msgid = r.Frame.MsgID
	}

	msgs := make([]messageEntry, 0, len(r.Messages))
	for id, name := range r.Messages {
		msgs = append(msgs, messageEntry{MsgID: id, Name: name})
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].MsgID < msgs[j].MsgID })

	return map[string]interface{}{
		"autopilotType":  r.USB.AutopilotType,
		"baudrate":       r.Baudrate,
		"boardClass":     r.USB.BoardClass,
		"boardName":      r.USB.BoardName,
		"componentId":    compid,
		"deviceName":     r.USB.DeviceName,
		"devicePath":     r.Path,
		"manufacturer":   r.USB.Manufacturer,
		"mavlinkVersion": mavlinkVersion,
		"productId":      r.USB.ProductID,
		"serialNumber":   r.USB.SerialNumber,
		"systemId":       sysid,
		"timestamp":      r.Timestamp,
		"vendorId":       r.USB.VendorID,
		"state":          r.State.String(),
		"messages":       msgs,
		"msgidLatest":    msgid,
	}
}

// PhysicalDevice collapses the OS paths that belong to one hardware unit.
type PhysicalDevice struct {
	PhysicalID  string
	PrimaryPath string
	Paths       []string // ordered, first-registered first
	Snapshot    DeviceRecord
}

// PhysicalDeviceID synthesizes the composite key described in §3:
// busNumber:vendorId:productId:serialNumber. Returns "" if any component
// is missing, signaling the caller should fall back to a serial-only key.
func PhysicalDeviceID(m UsbMetadata) string {
	if m.BusNumber == "" || m.VendorID == "" || m.ProductID == "" || m.SerialNumber == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s:%s:%s", m.BusNumber, m.VendorID, m.ProductID, m.SerialNumber)
}
