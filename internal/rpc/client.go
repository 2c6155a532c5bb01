// Package rpc implements the broker-backed RPC bridge: the long-lived
// connection, the JSON-RPC request dispatcher, and the periodic
// broadcaster.
package rpc

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/qai-labs/mavdiscovery/internal/config"
)

const requestTopicSuffix = "/requests"
const responseTopicSuffix = "/responses"

// FanOutTopics are the two downstream consumers DeviceAdded/DeviceRemoved
// fan out to, per spec §6/§4.10.
var FanOutTopics = []string{
	"direct_messaging/ur-mavrouter/requests",
	"direct_messaging/ur-mavcollector/requests",
}

const NotificationTopic = "ur-shared-bus/ur-mavlink-stack/notifications"

// Client owns the single broker connection described in spec §4.8.
type Client struct {
	cfg    config.RPC
	logger *slog.Logger

	mqtt      mqtt.Client
	connected atomic.Bool
}

// NewClient constructs a Client from rpc-config. It does not connect.
func NewClient(cfg config.RPC, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{cfg: cfg, logger: logger.With("module", "rpc")}

	scheme := "tcp"
	if cfg.UseTLS {
		scheme = "ssl"
	}
	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.BrokerHost, cfg.BrokerPort)).
		SetClientID(cfg.ClientID).
		SetKeepAlive(time.Duration(cfg.Keepalive) * time.Second).
		SetAutoReconnect(cfg.AutoReconnect).
		SetConnectTimeout(time.Duration(cfg.ConnectTimeout) * time.Second).
		SetMaxReconnectInterval(time.Duration(cfg.ReconnectDelayMax) * time.Second).
		SetOnConnectHandler(func(mqtt.Client) {
			c.connected.Store(true)
			c.logger.Info("broker connection established")
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			c.connected.Store(false)
			c.logger.Warn("broker connection lost", "err", err)
		})
	// paho only exposes a reconnect ceiling; reconnectDelayMin is accepted
	// in rpc-config for compatibility but has no paho equivalent to bind.

	c.mqtt = mqtt.NewClient(opts)
	return c
}

// Start connects and subscribes to this client's request topic. It does
// not return success until either the connection is established or 3s
// have elapsed (spec §4.8).
func (c *Client) Start(onRequest func(payload []byte)) error {
	token := c.mqtt.Connect()
	if !token.WaitTimeout(3 * time.Second) {
		return fmt.Errorf("rpc: connect timed out after 3s")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("rpc: connect failed: %w", err)
	}

	requestTopic := "direct_messaging/" + c.cfg.ClientID + requestTopicSuffix
	subToken := c.mqtt.Subscribe(requestTopic, byte(c.cfg.QoS), func(_ mqtt.Client, msg mqtt.Message) {
		// Messages on any other topic are never delivered here: the broker
		// filters by subscription, so no further topic check is needed.
		onRequest(msg.Payload())
	})
	if !subToken.WaitTimeout(time.Duration(c.cfg.ConnectTimeout) * time.Second) {
		return fmt.Errorf("rpc: subscribe timed out")
	}
	return subToken.Error()
}

// Stop disconnects from the broker, waiting up to 250ms to flush.
func (c *Client) Stop() {
	c.mqtt.Disconnect(250)
}

// Connected reports the last known connection status.
func (c *Client) Connected() bool {
	return c.connected.Load()
}

// ResponseTopic is this client's direct_messaging/<clientId>/responses topic.
func (c *Client) ResponseTopic() string {
	return "direct_messaging/" + c.cfg.ClientID + responseTopicSuffix
}

// Publish drops the publish with a log line if the broker is disconnected,
// per the error-handling policy in spec §7.
func (c *Client) Publish(topic string, payload []byte) {
	if !c.connected.Load() {
		c.logger.Warn("dropping publish while disconnected", "topic", topic)
		return
	}
	token := c.mqtt.Publish(topic, byte(c.cfg.QoS), false, payload)
	go func() {
		if !token.WaitTimeout(time.Duration(c.cfg.MessageTimeout) * time.Second) {
			c.logger.Warn("publish timed out", "topic", topic)
			return
		}
		if err := token.Error(); err != nil {
			c.logger.Warn("publish failed", "topic", topic, "err", err)
		}
	}()
}

// StartHeartbeat, when the heartbeat config is enabled, runs a
// fire-and-forget publish loop until stop is closed. It never blocks on
// delivery (spec §9 open-question resolution).
func (c *Client) StartHeartbeat(stop <-chan struct{}) {
	if !c.cfg.Heartbeat.Enabled {
		return
	}
	interval := time.Duration(c.cfg.Heartbeat.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				c.Publish(c.cfg.Heartbeat.Topic, []byte(c.cfg.Heartbeat.Payload))
			}
		}
	}()
}
