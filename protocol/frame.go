package protocol

// FrameEncoder packs payload bytes into message blocks in a fixed buffer.
// It never allocates, so the firmware can use it from its main loop.
type FrameEncoder struct {
	buf [MessageLengthMax]byte
	n   int // bytes used, header included
	seq uint8
}

func (e *FrameEncoder) ensureHeader() {
	if e.n < MessageHeaderSize {
		e.n = MessageHeaderSize
	}
}

// Room returns how many payload bytes still fit in the current frame
func (e *FrameEncoder) Room() int {
	e.ensureHeader()
	return MessageLengthMax - MessageTrailerSize - e.n
}

// Pending returns the number of payload bytes in the current frame
func (e *FrameEncoder) Pending() int {
	if e.n < MessageHeaderSize {
		return 0
	}
	return e.n - MessageHeaderSize
}

// Append adds payload to the current frame. It returns false, and adds
// nothing, if the payload does not fit.
func (e *FrameEncoder) Append(payload []byte) bool {
	if len(payload) > e.Room() {
		return false
	}
	e.n += copy(e.buf[e.n:], payload)
	return true
}

// Finish seals the current frame and returns it. The slice aliases the
// encoder's buffer and is only valid until the next Append.
func (e *FrameEncoder) Finish() []byte {
	e.ensureHeader()
	length := e.n + MessageTrailerSize
	e.buf[MessagePositionLen] = byte(length)
	e.buf[MessagePositionSeq] = MessageDest | (e.seq & MessageSeqMask)

	crc := CRC16(e.buf[:e.n])
	e.buf[e.n] = byte(crc >> 8)
	e.buf[e.n+1] = byte(crc)
	e.buf[e.n+2] = MessageValueSync

	e.seq = (e.seq + 1) & MessageSeqMask
	e.n = MessageHeaderSize
	return e.buf[:length]
}
