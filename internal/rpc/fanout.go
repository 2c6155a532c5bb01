package rpc

import (
	"encoding/json"
	"time"

	"github.com/qai-labs/mavdiscovery/internal/record"
)

type fanoutEnvelope struct {
	Method string      `json:"method"`
	Params interface{} `json:"params"`
	ID     int64       `json:"id"`
}

// PublishDeviceAdded fans the DeviceAdded event out to both downstream
// consumers, per spec §4.10.
func PublishDeviceAdded(client Publisher, rec record.DeviceRecord) {
	env := fanoutEnvelope{Method: "mavlink_added", Params: rec.CanonicalJSON(), ID: time.Now().UnixMilli()}
	body, err := json.Marshal(env)
	if err != nil {
		return
	}
	for _, topic := range FanOutTopics {
		client.Publish(topic, body)
	}
}

// PublishDeviceRemoved fans the DeviceRemoved event out identically.
func PublishDeviceRemoved(client Publisher, path, timestamp string) {
	env := map[string]interface{}{
		"method": "device_removed",
		"params": map[string]interface{}{"devicePath": path, "timestamp": timestamp},
	}
	body, err := json.Marshal(env)
	if err != nil {
		return
	}
	for _, topic := range FanOutTopics {
		client.Publish(topic, body)
	}
}
