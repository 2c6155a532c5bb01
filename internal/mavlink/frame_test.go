package mavlink

import "testing"

func TestIsStartByte(t *testing.T) {
	if !IsStartByte(0xFE) || !IsStartByte(0xFD) {
		t.Fatal("expected both v1 and v2 start bytes to be recognized")
	}
	if IsStartByte(0x00) {
		t.Fatal("0x00 must not be a start byte")
	}
}

func TestMessageName(t *testing.T) {
	if got := MessageName(254); got != "MSG_254" {
		t.Fatalf("unexpected message name: %s", got)
	}
}

func TestRecognizerV2EmptyPayload(t *testing.T) {
	// STX(v2) LEN INCOMPAT COMPAT SEQ SYSID COMPID MSGID(3) CRC(2)
	data := []byte{0xFD, 0x00, 0x00, 0x00, 0x2A, 0x01, 0x01, 0xFE, 0x00, 0x00, 0x00, 0x00}
	r := NewRecognizer()
	frame := r.Feed(data)
	if frame == nil {
		t.Fatal("expected a frame to be emitted")
	}
	if frame.MavlinkVersion != 2 {
		t.Fatalf("expected v2, got %d", frame.MavlinkVersion)
	}
	if frame.SysID != 0x01 || frame.CompID != 0x01 {
		t.Fatalf("unexpected sysid/compid: %x/%x", frame.SysID, frame.CompID)
	}
	if frame.MsgID != 0xFE {
		t.Fatalf("unexpected msgid: %x", frame.MsgID)
	}
}

func TestRecognizerV1WithPayload(t *testing.T) {
	// STX(v1) LEN=3 SEQ SYSID COMPID MSGID(1) PAYLOAD(3) CRC(2)
	data := []byte{0xFE, 0x03, 0x00, 0x2A, 0x01, 0x4C, 0x01, 0x02, 0x03, 0x00, 0x00}
	r := NewRecognizer()
	frame := r.Feed(data)
	if frame == nil {
		t.Fatal("expected a frame to be emitted")
	}
	if frame.MavlinkVersion != 1 {
		t.Fatalf("expected v1, got %d", frame.MavlinkVersion)
	}
	if frame.MsgID != 0x4C {
		t.Fatalf("unexpected msgid: %x", frame.MsgID)
	}
}

func TestRecognizerSplitAcrossFeeds(t *testing.T) {
	data := []byte{0xFD, 0x00, 0x00, 0x00, 0x2A, 0x01, 0x01, 0xFE, 0x00, 0x00, 0x00, 0x00}
	r := NewRecognizer()
	if frame := r.Feed(data[:5]); frame != nil {
		t.Fatal("did not expect a frame from a partial header")
	}
	frame := r.Feed(data[5:])
	if frame == nil {
		t.Fatal("expected a frame once the remaining bytes arrive")
	}
}

func TestRecognizerResyncsOnGarbage(t *testing.T) {
	data := []byte{0x00, 0x11, 0x22}
	data = append(data, 0xFD, 0x00, 0x00, 0x00, 0x2A, 0x01, 0x01, 0xFE, 0x00, 0x00, 0x00, 0x00)
	r := NewRecognizer()
	if r.Feed(data) == nil {
		t.Fatal("expected recognizer to find the frame after leading garbage")
	}
}

func TestRecognizerResetClearsState(t *testing.T) {
	data := []byte{0xFD, 0x00, 0x00, 0x00, 0x2A, 0x01, 0x01}
	r := NewRecognizer()
	r.Feed(data) // partial, mid-header
	r.Reset()
	if r.state != seekStx {
		t.Fatal("expected Reset to return to SEEK_STX")
	}
}
