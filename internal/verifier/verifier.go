// Package verifier implements the one-shot per-path baud-scan worker.
package verifier

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/qai-labs/mavdiscovery/internal/devicestate"
	"github.com/qai-labs/mavdiscovery/internal/mavlink"
	"github.com/qai-labs/mavdiscovery/internal/record"
	"github.com/qai-labs/mavdiscovery/internal/runtimefile"
	"github.com/qai-labs/mavdiscovery/internal/usbprobe"
)

// Config carries the package-config fields a verifier needs.
type Config struct {
	Baudrates         []int
	ReadTimeoutMs     int
	PacketTimeoutMs   int
	MaxPacketSize     int
	RuntimeDeviceFile string
}

// StopGrace and ForceJoinTimeout implement the stop contract of spec
// §4.5/§5: a stop request must cause exit within 5s; the supervisor
// then allows 2s more before giving up on the join.
const (
	StopGrace        = 5 * time.Second
	ForceJoinTimeout = 2 * time.Second
)

// Verifier runs the baud-scan for exactly one device path, exactly once.
type Verifier struct {
	path   string
	cfg    Config
	store  *devicestate.Store
	onDone func(record.DeviceRecord)
	logger *slog.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// New constructs a Verifier for path. onDone is invoked at most once,
// after the store has been updated, with the final Verified or
// NonMavlink record (spec §5 ordering guarantee); it is not invoked when
// path's record is no longer in the store at completion.
func New(path string, cfg Config, store *devicestate.Store, onDone func(record.DeviceRecord), logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{
		path:   path,
		cfg:    cfg,
		store:  store,
		onDone: onDone,
		logger: logger.With("module", path),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start runs the verifier's single pass on its own goroutine.
func (v *Verifier) Start() {
	go v.run()
}

// Stop requests the verifier exit. It is safe to call more than once.
func (v *Verifier) Stop() {
	v.stopOnce.Do(func() { close(v.stopCh) })
}

// Wait blocks until the verifier's pass has completed or timeout elapses,
// returning whether it completed in time.
func (v *Verifier) Wait(timeout time.Duration) bool {
	select {
	case <-v.doneCh:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (v *Verifier) run() {
	defer close(v.doneCh)

	v.store.SetState(v.path, record.StateVerifying)
	v.logger.Info("verification started")

	for _, baud := range v.cfg.Baudrates {
		select {
		case <-v.stopCh:
			v.finish(false, 0, nil)
			return
		default:
		}

		if frame, ok := v.tryBaud(baud); ok {
			v.finish(true, uint32(baud), frame)
			return
		}
	}

	v.finish(false, 0, nil)
}

func (v *Verifier) tryBaud(baud int) (*mavlink.FrameInfo, bool) {
	mode := &serial.Mode{BaudRate: baud}
	port, err := serial.Open(v.path, mode)
	if err != nil {
		v.logger.Debug("open failed, trying next baud", "baud", baud, "err", err)
		return nil, false
	}
	defer port.Close()

	readTimeout := time.Duration(v.cfg.ReadTimeoutMs) * time.Millisecond
	_ = port.SetReadTimeout(readTimeout)

	buf := make([]byte, v.cfg.MaxPacketSize)
	recognizer := mavlink.NewRecognizer()
	deadline := time.Now().Add(time.Duration(v.cfg.PacketTimeoutMs) * time.Millisecond)

	for time.Now().Before(deadline) {
		select {
		case <-v.stopCh:
			return nil, false
		default:
		}

		n, err := port.Read(buf)
		if err != nil {
			continue
		}
		if n == 0 {
			continue
		}
		if frame := recognizer.Feed(buf[:n]); frame != nil {
			return frame, true
		}
	}
	return nil, false
}

func (v *Verifier) finish(verified bool, baud uint32, frame *mavlink.FrameInfo) {
	var usb record.UsbMetadata
	if verified {
		probeCtx, cancel := context.WithTimeout(context.Background(), StopGrace)
		usb = usbprobe.Probe(probeCtx, v.path)
		cancel()
	}

	var snapshot record.DeviceRecord
	v.store.Update(v.path, func(r *record.DeviceRecord) {
		r.Timestamp = time.Now().UTC().Format(time.RFC3339)
		if verified {
			r.USB = usb
			r.State = record.StateVerified
			r.Baudrate = baud
			r.Frame = &record.MavlinkFrameInfo{
				SysID:          frame.SysID,
				CompID:         frame.CompID,
				MsgID:          frame.MsgID,
				MavlinkVersion: frame.MavlinkVersion,
			}
			r.Messages = map[uint32]string{frame.MsgID: mavlink.MessageName(frame.MsgID)}
		} else {
			r.State = record.StateNonMavlink
		}
		snapshot = r.Clone()
	})

	if verified {
		v.logger.Info("device verified", "baud", baud, "board", usb.BoardName)
		if snapshot.Path != "" {
			if err := runtimefile.WriteAtomic(v.cfg.RuntimeDeviceFile, snapshot); err != nil {
				v.logger.Warn("failed to write runtime device file", "err", err)
			}
		}
	} else {
		v.logger.Info("exhausted baud list, non-mavlink")
	}

	if v.onDone != nil && snapshot.Path != "" {
		v.onDone(snapshot)
	}
}
