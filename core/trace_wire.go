package core

import "thyristor/protocol"

// Record converts the event to its wire form
func (e TraceEvent) Record() protocol.TraceRecord {
	return protocol.TraceRecord{
		Kind:   uint8(e.Kind),
		Pin:    uint32(e.Pin),
		Cursor: e.Cursor,
		Clock:  e.Clock,
		Value:  e.Value,
	}
}

// DrainTraceFrames drains the trace ring into frames and hands each sealed
// frame to emit. A partly filled last frame is sealed too. The frame slice
// is only valid during the call. Mutator domain only.
func DrainTraceFrames(enc *protocol.FrameEncoder, emit func([]byte)) int {
	n := DrainTrace(func(ev TraceEvent) {
		r := ev.Record()
		if !enc.AppendRecord(r) {
			emit(enc.Finish())
			enc.AppendRecord(r)
		}
	})
	if enc.Pending() > 0 {
		emit(enc.Finish())
	}
	return n
}
