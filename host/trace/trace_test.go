package trace

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"thyristor/core"
	"thyristor/protocol"
)

func rec(kind core.TraceKind, pin core.GPIOPin, cursor uint8, value uint32) protocol.TraceRecord {
	return protocol.TraceRecord{Kind: uint8(kind), Pin: uint32(pin), Cursor: cursor, Value: value}
}

// frames encodes each group of records as one frame
func frames(t *testing.T, e *protocol.FrameEncoder, groups ...[]protocol.TraceRecord) [][]byte {
	t.Helper()
	var out [][]byte
	for _, g := range groups {
		for _, r := range g {
			if !e.AppendRecord(r) {
				t.Fatalf("Record %+v did not fit", r)
			}
		}
		out = append(out, append([]byte(nil), e.Finish()...))
	}
	return out
}

func collect(t *testing.T, m *Monitor) []Event {
	t.Helper()
	var events []Event
	if err := m.Run(context.Background(), func(e Event) {
		events = append(events, e)
	}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return events
}

func TestMonitorDecodesEvents(t *testing.T) {
	var e protocol.FrameEncoder
	fs := frames(t, &e,
		[]protocol.TraceRecord{
			rec(core.TraceZeroCross, 7, 0, 2),
			rec(core.TraceArm, 3, 0, 500),
		},
		[]protocol.TraceRecord{
			rec(core.TraceFire, 3, 0, 500),
			rec(core.TraceDisarm, 7, 1, 0),
		},
	)

	m := NewMonitor(bytes.NewReader(bytes.Join(fs, nil)))
	events := collect(t, m)

	if len(events) != 4 {
		t.Fatalf("Expected 4 events, got %d", len(events))
	}
	if events[2].Kind != core.TraceFire || events[2].Pin != 3 || events[2].Value != 500 {
		t.Errorf("Unexpected third event %+v", events[2])
	}

	s := m.Summary()
	if s.Frames != 2 || s.Events != 4 {
		t.Errorf("Expected 2 frames and 4 events, got %+v", s)
	}
	if s.Corrupt != 0 || s.LostFrames != 0 || s.DecodeErrors != 0 {
		t.Errorf("Expected a clean stream, got %+v", s)
	}
}

func TestMonitorStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewMonitor(strings.NewReader(""))
	m.Follow = true
	if err := m.Run(ctx, nil); err != nil {
		t.Errorf("Expected nil on cancel, got %v", err)
	}
}

// idleReader never has data, like a serial port with nothing to send.
// It cancels the run after a few reads.
type idleReader struct {
	reads  int
	cancel context.CancelFunc
}

func (r *idleReader) Read([]byte) (int, error) {
	r.reads++
	if r.reads == 3 {
		r.cancel()
	}
	return 0, nil
}

func TestMonitorFollowStopsOnCancelWhileIdle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &idleReader{cancel: cancel}
	m := NewMonitor(r)
	m.Follow = true
	if err := m.Run(ctx, nil); err != nil {
		t.Errorf("Expected nil on cancel, got %v", err)
	}
	if r.reads != 3 {
		t.Errorf("Expected the run to stop after 3 reads, got %d", r.reads)
	}
}

func TestEventString(t *testing.T) {
	ev := Event{Kind: core.TraceFire, Pin: 4, Cursor: 2, Clock: 1234, Value: 2500}
	want := "FIRE pin=4 cursor=2 clock=1234 value=2500"
	if ev.String() != want {
		t.Errorf("Expected %q, got %q", want, ev.String())
	}
}

func TestCheckerAcceptsOrderedCycle(t *testing.T) {
	c := NewChecker()
	for _, ev := range []Event{
		{Kind: core.TraceZeroCross, Pin: 7},
		{Kind: core.TraceFireImmediate, Pin: 6, Value: 10},
		{Kind: core.TraceFire, Pin: 2, Value: 500},
		{Kind: core.TraceCoalesce, Pin: 1, Value: 500},
		{Kind: core.TraceFire, Pin: 4, Value: 3900},
		{Kind: core.TraceDisarm, Pin: 7},
		{Kind: core.TraceZeroCross, Pin: 7},
		{Kind: core.TraceFire, Pin: 2, Value: 500},
	} {
		c.Observe(ev)
	}

	if v := c.Violations(); len(v) != 0 {
		t.Errorf("Expected no violations, got %v", v)
	}
	if c.HalfCycles() != 2 {
		t.Errorf("Expected 2 half-cycles, got %d", c.HalfCycles())
	}
	if c.Fires() != 5 {
		t.Errorf("Expected 5 fires, got %d", c.Fires())
	}
}

func TestCheckerReportsViolations(t *testing.T) {
	c := NewChecker()
	for _, ev := range []Event{
		{Kind: core.TraceZeroCross, Pin: 7},
		{Kind: core.TraceFire, Pin: 2, Value: 2500},
		{Kind: core.TraceFire, Pin: 3, Value: 500},
		{Kind: core.TraceFire, Pin: 2, Value: 2600},
		{Kind: core.TraceSpurious, Pin: 7},
	} {
		c.Observe(ev)
	}

	v := c.Violations()
	if len(v) != 3 {
		t.Fatalf("Expected 3 violations, got %d: %v", len(v), v)
	}
	if !strings.Contains(v[0].Reason, "500") {
		t.Errorf("Expected out-of-order report, got %q", v[0].Reason)
	}
	if v[1].Reason != "pin fired twice" {
		t.Errorf("Expected double fire report, got %q", v[1].Reason)
	}
	if v[2].Reason != "spurious timer expiry" {
		t.Errorf("Expected spurious report, got %q", v[2].Reason)
	}
	if v[0].HalfCycle != 1 {
		t.Errorf("Expected half-cycle 1, got %d", v[0].HalfCycle)
	}
}

func TestCheckerIgnoresPartialCycle(t *testing.T) {
	c := NewChecker()
	// Capture started mid-cycle
	c.Observe(Event{Kind: core.TraceFire, Pin: 2, Value: 4000})
	c.Observe(Event{Kind: core.TraceFire, Pin: 2, Value: 100})

	if v := c.Violations(); len(v) != 0 {
		t.Errorf("Expected no violations before the first zero-cross, got %v", v)
	}
}

func TestMonitorResyncsCheckerOnLostFrame(t *testing.T) {
	var e protocol.FrameEncoder
	fs := frames(t, &e,
		[]protocol.TraceRecord{
			rec(core.TraceZeroCross, 7, 0, 1),
			rec(core.TraceFire, 2, 0, 5000),
		},
		[]protocol.TraceRecord{
			rec(core.TraceZeroCross, 7, 0, 1),
		},
		[]protocol.TraceRecord{
			rec(core.TraceFire, 2, 0, 1000),
		},
	)

	// Drop the frame carrying the second zero-cross
	stream := append(append([]byte(nil), fs[0]...), fs[2]...)

	c := NewChecker()
	m := NewMonitor(bytes.NewReader(stream))
	m.SetChecker(c)
	collect(t, m)

	if s := m.Summary(); s.LostFrames != 1 {
		t.Errorf("Expected 1 lost frame, got %+v", s)
	}
	if v := c.Violations(); len(v) != 0 {
		t.Errorf("Expected no violations across a gap, got %v", v)
	}
}
