package runtime

import (
	"testing"
	"time"

	"github.com/qai-labs/mavdiscovery/internal/config"
)

func TestNewWiresEveryComponent(t *testing.T) {
	pkgCfg := config.Package{
		DevicePathFilters: []string{"/dev/ttyACM"},
		ReadTimeoutMs:     100,
		PacketTimeoutMs:   1000,
		MaxPacketSize:     280,
	}
	rpcCfg := config.RPC{ClientID: "mavdiscovery-test", BrokerHost: "localhost", BrokerPort: 1883}

	d := New(pkgCfg, rpcCfg, nil)

	if d.store == nil || d.tracker == nil || d.supervisor == nil || d.client == nil || d.dispatcher == nil || d.broadcaster == nil {
		t.Fatal("New must fully wire every subsystem")
	}
}

func TestOnAddWithUnconfiguredRuntimeFileDoesNotBlock(t *testing.T) {
	// An empty RuntimeDeviceFile reaches the verifier via vcfg. With no
	// baud rates configured the verifier ends NonMavlink without calling
	// WriteAtomic; this checks only that OnAdd returns promptly.
	pkgCfg := config.Package{RuntimeDeviceFile: ""}
	rpcCfg := config.RPC{ClientID: "mavdiscovery-test", BrokerHost: "localhost", BrokerPort: 1883}

	d := New(pkgCfg, rpcCfg, nil)

	done := make(chan struct{})
	go func() {
		d.supervisor.OnAdd("/dev/ttyACM0")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("OnAdd did not return promptly")
	}
}
