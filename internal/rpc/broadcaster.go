package rpc

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/qai-labs/mavdiscovery/internal/devicestate"
	"github.com/qai-labs/mavdiscovery/internal/physical"
)

const broadcastInterval = time.Second

// ConnectedPublisher is what the broadcaster needs from the RPC client.
type ConnectedPublisher interface {
	Publisher
	Connected() bool
}

// Broadcaster is the Periodic Broadcaster of spec §4.10.
type Broadcaster struct {
	client  ConnectedPublisher
	store   *devicestate.Store
	tracker *physical.Tracker
	source  string
	logger  *slog.Logger
}

func NewBroadcaster(client ConnectedPublisher, store *devicestate.Store, tracker *physical.Tracker, source string, logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{client: client, store: store, tracker: tracker, source: source, logger: logger.With("module", "broadcaster")}
}

// Run ticks every second until stop fires. It skips silently while the
// RPC client is disconnected and resumes within one cadence on reconnect.
func (b *Broadcaster) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(broadcastInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			b.tick()
		}
	}
}

func (b *Broadcaster) tick() {
	if !b.client.Connected() {
		return
	}

	devices := verifiedPrimaryRecords(b.store, b.tracker)
	msg := map[string]interface{}{
		"eventType":   "DEVICE_LIST_UPDATE",
		"source":      b.source,
		"timestamp":   time.Now().UTC().Format("2006-01-02T15:04:05Z"),
		"payload":     devices,
		"deviceCount": len(devices),
		"targetTopic": NotificationTopic,
	}

	body, err := json.Marshal(msg)
	if err != nil {
		b.logger.Warn("failed to marshal broadcast", "err", err)
		return
	}
	b.client.Publish(NotificationTopic, body)
}
