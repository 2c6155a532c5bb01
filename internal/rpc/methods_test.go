package rpc

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/qai-labs/mavdiscovery/internal/devicestate"
	"github.com/qai-labs/mavdiscovery/internal/physical"
	"github.com/qai-labs/mavdiscovery/internal/record"
)

func setupMethods(t *testing.T) (*Dispatcher, *devicestate.Store, *physical.Tracker, chan string) {
	t.Helper()
	pub := &fakePublisher{}
	d := NewDispatcher(pub, nil)
	t.Cleanup(func() { d.Shutdown(time.Second) })

	store := devicestate.New()
	tracker := physical.New(nil)
	reverified := make(chan string, 1)
	RegisterMethods(d, store, tracker, func(path string) { reverified <- path }, ServiceInfo{Name: "mavdiscovery", Version: "dev"}, time.Now())
	return d, store, tracker, reverified
}

func registerVerifiedPrimary(store *devicestate.Store, tracker *physical.Tracker, path string) {
	store.Add(path)
	store.Update(path, func(r *record.DeviceRecord) {
		r.State = record.StateVerified
		r.Baudrate = 57600
	})
	rec, _ := store.Get(path)
	tracker.Register(path, rec)
}

func TestDeviceListOnlyReturnsVerifiedPrimaries(t *testing.T) {
	_, store, tracker, _ := setupMethods(t)
	registerVerifiedPrimary(store, tracker, "/dev/ttyACM0")

	store.Add("/dev/ttyACM9")
	store.SetState("/dev/ttyACM9", record.StateNonMavlink)

	devices := verifiedPrimaryRecords(store, tracker)
	if len(devices) != 1 {
		t.Fatalf("expected exactly one verified primary, got %d", len(devices))
	}
	if devices[0]["devicePath"] != "/dev/ttyACM0" {
		t.Fatalf("unexpected device in list: %v", devices[0])
	}
}

func TestDeviceVerifyInvokesReverify(t *testing.T) {
	d, _, _, reverified := setupMethods(t)
	d.HandleRaw([]byte(`{"jsonrpc":"2.0","id":"1","method":"device_verify","params":{"device_path":"/dev/ttyACM0"}}`))

	select {
	case path := <-reverified:
		if path != "/dev/ttyACM0" {
			t.Fatalf("expected reverify for /dev/ttyACM0, got %s", path)
		}
	case <-time.After(time.Second):
		t.Fatal("device_verify never invoked the reverify callback")
	}
}

func TestDeviceInfoReturnsErrorForUnknownPath(t *testing.T) {
	d, _, _, _ := setupMethods(t)
	pub := d.client.(*fakePublisher)

	d.HandleRaw([]byte(`{"jsonrpc":"2.0","id":"1","method":"device_info","params":{"device_path":"/dev/ttyNONE"}}`))
	waitForPublish(t, pub)

	var resp rpcResponse
	json.Unmarshal(pub.published[len(pub.published)-1], &resp)
	if resp.Error == nil {
		t.Fatal("expected an error for an unknown device path")
	}
}

func TestSystemInfoReportsSupportedMethods(t *testing.T) {
	d, _, _, _ := setupMethods(t)
	pub := d.client.(*fakePublisher)

	d.HandleRaw([]byte(`{"jsonrpc":"2.0","id":"1","method":"system_info"}`))
	waitForPublish(t, pub)

	resp := pub.last()
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatalf("expected an embedded result object, got %#v", resp.Result)
	}
	if result["serviceName"] != "mavdiscovery" {
		t.Fatalf("unexpected serviceName: %v", result["serviceName"])
	}
}
