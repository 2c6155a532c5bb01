package rpc

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/qai-labs/mavdiscovery/internal/devicestate"
	"github.com/qai-labs/mavdiscovery/internal/physical"
	"github.com/qai-labs/mavdiscovery/internal/record"
)

// ServiceInfo is the static identity reported by system_info.
type ServiceInfo struct {
	Name    string
	Version string
}

// RegisterMethods wires device-list/device_info/device_verify/
// device_status/system_info against the real store, tracker and
// supervisor. device_verify hands the path to reverify (the supervisor's
// OnAdd in the daemon), which starts a verifier only for a path that has
// none tracked; for a path that already has one it does nothing, and the
// reply still reads "verification scheduled".
func RegisterMethods(d *Dispatcher, store *devicestate.Store, tracker *physical.Tracker, reverify func(path string), info ServiceInfo, startedAt time.Time) {
	d.Register("device-list", func(params map[string]interface{}) (string, error) {
		devices := verifiedPrimaryRecords(store, tracker)
		payload := map[string]interface{}{"devices": devices, "count": len(devices)}
		body, err := json.Marshal(payload)
		return string(body), err
	})

	d.Register("device_info", func(params map[string]interface{}) (string, error) {
		path, err := requirePath(params)
		if err != nil {
			return "", err
		}
		rec, ok := store.Get(path)
		if !ok {
			return "", fmt.Errorf("unknown device path: %s", path)
		}
		body, err := json.Marshal(rec.CanonicalJSON())
		return string(body), err
	})

	d.Register("device_verify", func(params map[string]interface{}) (string, error) {
		path, err := requirePath(params)
		if err != nil {
			return "", err
		}
		reverify(path)
		body, _ := json.Marshal(map[string]interface{}{"devicePath": path, "status": "verification scheduled"})
		return string(body), nil
	})

	d.Register("device_status", func(params map[string]interface{}) (string, error) {
		path, err := requirePath(params)
		if err != nil {
			return "", err
		}
		rec, ok := store.Get(path)
		if !ok {
			return "", fmt.Errorf("unknown device path: %s", path)
		}
		physicalID, _ := tracker.PhysicalIDOf(path)
		body, err := json.Marshal(map[string]interface{}{
			"devicePath": path,
			"state":      rec.State.String(),
			"baudrate":   rec.Baudrate,
			"physicalId": physicalID,
			"isPrimary":  tracker.IsPrimary(path),
		})
		return string(body), err
	})

	d.Register("system_info", func(params map[string]interface{}) (string, error) {
		body, err := json.Marshal(map[string]interface{}{
			"serviceName": info.Name,
			"version":     info.Version,
			"uptimeSeconds": int(time.Since(startedAt).Seconds()),
			"supportedMethods": []string{
				"device-list", "device_info", "device_verify", "device_status", "system_info",
			},
		})
		return string(body), err
	})
}

func requirePath(params map[string]interface{}) (string, error) {
	if params == nil {
		return "", fmt.Errorf("missing params")
	}
	path, ok := params["device_path"].(string)
	if !ok || path == "" {
		return "", fmt.Errorf("missing device_path")
	}
	return path, nil
}

// verifiedPrimaryRecords collects the canonical JSON of every Verified
// device whose path is its physical unit's primary path.
func verifiedPrimaryRecords(store *devicestate.Store, tracker *physical.Tracker) []map[string]interface{} {
	out := make([]map[string]interface{}, 0)
	for _, rec := range store.All() {
		if rec.State != record.StateVerified {
			continue
		}
		if !tracker.IsPrimary(rec.Path) {
			continue
		}
		out = append(out, rec.CanonicalJSON())
	}
	return out
}
