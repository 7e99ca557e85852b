package core

import "sync/atomic"

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TraceKind identifies a scheduler event captured in the trace ring
type TraceKind uint8

// Trace event kinds
const (
	TraceZeroCross     TraceKind = 1 // zero-cross edge handled, Value = published load count
	TracePublish       TraceKind = 2 // fresh snapshot copied, Value = count
	TraceStale         TraceKind = 3 // snapshot reused because a mutation was in flight
	TraceFireImmediate TraceKind = 4 // fired inside the zero-cross handler, Value = delay
	TraceArm           TraceKind = 5 // timer armed, Value = interval
	TraceFire          TraceKind = 6 // fired on timer expiry, Value = delay
	TraceCoalesce      TraceKind = 7 // fired in the same timer step as the previous load, Value = delay
	TraceDisarm        TraceKind = 8 // callback removed, nothing left this half-cycle
	TraceSpurious      TraceKind = 9 // timer expired with nothing left to fire
)

// String returns the short name used in dumps
func (k TraceKind) String() string {
	switch k {
	case TraceZeroCross:
		return "ZERO_CROSS"
	case TracePublish:
		return "PUBLISH"
	case TraceStale:
		return "STALE"
	case TraceFireImmediate:
		return "FIRE_NOW"
	case TraceArm:
		return "ARM"
	case TraceFire:
		return "FIRE"
	case TraceCoalesce:
		return "COALESCE"
	case TraceDisarm:
		return "DISARM"
	case TraceSpurious:
		return "SPURIOUS!"
	default:
		return "UNKNOWN"
	}
}

// IsFiring reports whether the event drove a load high
func (k TraceKind) IsFiring() bool {
	return k == TraceFireImmediate || k == TraceFire || k == TraceCoalesce
}

// TraceEvent captures one scheduler decision for post-mortem analysis
type TraceEvent struct {
	Kind   TraceKind
	Pin    GPIOPin
	Cursor uint8  // schedule index at the time of the event
	Clock  uint32 // microseconds, from the target clock
	Value  uint32 // kind-dependent, see Trace* constants
}

const (
	TraceRingSize = 64 // must be a power of two
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled gates DebugPrintln
	debugEnabled bool = false

	// Trace ring: the interrupt domain produces, the mutator domain consumes.
	// head and tail are free-running; head-tail is the fill level.
	traceRing    [TraceRingSize]TraceEvent
	traceHead    uint32
	traceTail    uint32
	traceDropped uint32
	traceEnabled uint32 = 1
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes a debug message using the platform-specific writer.
// Mutator domain only; never call it from a handler.
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// SetTraceEnabled turns event capture on or off
func SetTraceEnabled(enabled bool) {
	if enabled {
		atomic.StoreUint32(&traceEnabled, 1)
	} else {
		atomic.StoreUint32(&traceEnabled, 0)
	}
}

// RecordTrace captures an event in the ring.
// Safe in interrupt context: no allocation, no blocking. When the ring is
// full the event is dropped and counted.
func RecordTrace(kind TraceKind, pin GPIOPin, cursor int, value uint32) {
	if atomic.LoadUint32(&traceEnabled) == 0 {
		return
	}
	head := atomic.LoadUint32(&traceHead)
	if head-atomic.LoadUint32(&traceTail) >= TraceRingSize {
		atomic.AddUint32(&traceDropped, 1)
		return
	}
	traceRing[head&(TraceRingSize-1)] = TraceEvent{
		Kind:   kind,
		Pin:    pin,
		Cursor: uint8(cursor),
		Clock:  Now(),
		Value:  value,
	}
	atomic.StoreUint32(&traceHead, head+1)
}

// DrainTrace hands every pending event to fn, oldest first, and returns how
// many were consumed. Mutator domain only.
func DrainTrace(fn func(TraceEvent)) int {
	n := 0
	tail := atomic.LoadUint32(&traceTail)
	for tail != atomic.LoadUint32(&traceHead) {
		ev := traceRing[tail&(TraceRingSize-1)]
		tail++
		atomic.StoreUint32(&traceTail, tail)
		fn(ev)
		n++
	}
	return n
}

// TracePending returns the number of events waiting to be drained
func TracePending() int {
	return int(atomic.LoadUint32(&traceHead) - atomic.LoadUint32(&traceTail))
}

// TraceDropped returns the number of events lost to a full ring
func TraceDropped() uint32 {
	return atomic.LoadUint32(&traceDropped)
}

// ResetTrace discards pending events and the drop counter.
// Only call it while no handler can run (before Begin, or in tests).
func ResetTrace() {
	for i := range traceRing {
		traceRing[i] = TraceEvent{}
	}
	atomic.StoreUint32(&traceHead, 0)
	atomic.StoreUint32(&traceTail, 0)
	atomic.StoreUint32(&traceDropped, 0)
}

// DumpTrace drains the ring through the debug writer
func DumpTrace() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[TRACE] === Trace Dump ===")
	DrainTrace(func(evt TraceEvent) {
		debugPrintln("[TRACE] " + evt.Kind.String() +
			" pin=" + utoa(uint32(evt.Pin)) +
			" cursor=" + itoa(int(evt.Cursor)) +
			" clock=" + utoa(evt.Clock) +
			" value=" + utoa(evt.Value))
	})
	if dropped := TraceDropped(); dropped > 0 {
		debugPrintln("[TRACE] dropped=" + utoa(dropped))
	}
	debugPrintln("[TRACE] === End Dump ===")
}
