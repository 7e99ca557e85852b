package protocol

// TraceRecord is one scheduler event on the wire.
// Field meanings follow the firmware's trace kinds.
type TraceRecord struct {
	Kind   uint8
	Pin    uint32
	Cursor uint8
	Clock  uint32
	Value  uint32
}

// TraceRecordMaxLen is the longest encoding of a TraceRecord
const TraceRecordMaxLen = 5 * VLQMaxLen

// AppendTraceRecord appends the encoding of r to dst
func AppendTraceRecord(dst []byte, r TraceRecord) []byte {
	dst = AppendVLQUint(dst, uint32(r.Kind))
	dst = AppendVLQUint(dst, r.Pin)
	dst = AppendVLQUint(dst, uint32(r.Cursor))
	dst = AppendVLQUint(dst, r.Clock)
	return AppendVLQUint(dst, r.Value)
}

// AppendRecord encodes r into the current frame. It returns false when the
// frame is too full; Finish it and try again.
func (e *FrameEncoder) AppendRecord(r TraceRecord) bool {
	var tmp [TraceRecordMaxLen]byte
	return e.Append(AppendTraceRecord(tmp[:0], r))
}

// DecodeTraceRecords parses every record in a frame payload
func DecodeTraceRecords(payload []byte) ([]TraceRecord, error) {
	var records []TraceRecord
	data := payload
	for len(data) > 0 {
		var f [5]uint32
		for i := range f {
			v, err := DecodeVLQUint(&data)
			if err != nil {
				return records, err
			}
			f[i] = v
		}
		if f[0] > 0xFF || f[2] > 0xFF {
			return records, ErrInvalidVLQ
		}
		records = append(records, TraceRecord{
			Kind:   uint8(f[0]),
			Pin:    f[1],
			Cursor: uint8(f[2]),
			Clock:  f[3],
			Value:  f[4],
		})
	}
	return records, nil
}
