package core

import (
	"testing"

	"thyristor/protocol"
)

func TestDrainTraceFrames(t *testing.T) {
	ResetTrace()
	defer ResetTrace()
	SetTime(123456)

	const events = 20
	for i := 0; i < events; i++ {
		RecordTrace(TraceFire, GPIOPin(i%4), i%8, uint32(i))
	}

	var enc protocol.FrameEncoder
	var frames [][]byte
	n := DrainTraceFrames(&enc, func(frame []byte) {
		frames = append(frames, append([]byte(nil), frame...))
	})
	if n != events {
		t.Fatalf("Expected %d events drained, got %d", events, n)
	}
	if len(frames) < 2 {
		t.Fatalf("Expected the events to span several frames, got %d", len(frames))
	}

	var got []protocol.TraceRecord
	for i, f := range frames {
		if len(f) > protocol.MessageLengthMax {
			t.Errorf("Frame %d is %d bytes", i, len(f))
		}
		payload, err := protocol.CheckFrame(f)
		if err != nil {
			t.Fatalf("Frame %d: %v", i, err)
		}
		recs, err := protocol.DecodeTraceRecords(payload)
		if err != nil {
			t.Fatalf("Frame %d: %v", i, err)
		}
		got = append(got, recs...)
	}

	if len(got) != events {
		t.Fatalf("Expected %d records, got %d", events, len(got))
	}
	for i, r := range got {
		if r.Kind != uint8(TraceFire) || r.Value != uint32(i) || r.Clock != 123456 {
			t.Errorf("Record %d out of order or corrupt: %+v", i, r)
		}
	}
	if enc.Pending() != 0 {
		t.Error("Expected the last frame to be sealed")
	}
}

func TestDrainTraceFramesEmpty(t *testing.T) {
	ResetTrace()
	var enc protocol.FrameEncoder
	calls := 0
	if n := DrainTraceFrames(&enc, func([]byte) { calls++ }); n != 0 || calls != 0 {
		t.Errorf("Expected no frames from an empty ring, got %d events, %d frames", n, calls)
	}
}
