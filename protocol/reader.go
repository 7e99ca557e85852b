package protocol

import (
	"errors"
	"io"
)

// ErrFrameCorrupt is returned by CheckFrame. FrameReader skips and counts
// corrupt frames instead.
var ErrFrameCorrupt = errors.New("corrupt trace frame")

// FrameReader extracts verified frame payloads from a byte stream,
// resynchronising on the sync byte after garbage or a bad CRC.
type FrameReader struct {
	r   io.Reader
	buf []byte
	tmp [256]byte

	synchronized bool
	haveSeq      bool
	nextSeq      uint8

	// Counters for the monitor summary
	Frames     int
	Corrupt    int
	Discarded  int // bytes thrown away while resynchronising
	LostFrames int // gaps in the sequence numbers
}

// NewFrameReader creates a reader over r
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: r, synchronized: true}
}

// Next returns the payload of the next valid frame. The returned slice is
// owned by the caller. It returns the underlying reader's error (io.EOF at
// the end of a capture) once no complete frame is left, and
// io.ErrNoProgress for a read that returns no data and no error, so the
// caller gets a chance to stop. Next may be called again after either.
func (f *FrameReader) Next() ([]byte, error) {
	for {
		if payload, ok := f.extract(); ok {
			return payload, nil
		}
		n, err := f.r.Read(f.tmp[:])
		f.buf = append(f.buf, f.tmp[:n]...)
		if n == 0 {
			if err == nil {
				err = io.ErrNoProgress
			}
			return nil, err
		}
	}
}

// CheckFrame verifies a single complete frame and returns its payload
func CheckFrame(frame []byte) ([]byte, error) {
	if len(frame) < MessageLengthMin || int(frame[MessagePositionLen]) != len(frame) {
		return nil, ErrFrameCorrupt
	}
	if frame[MessagePositionSeq]&^MessageSeqMask != MessageDest {
		return nil, ErrFrameCorrupt
	}
	if frame[len(frame)-MessageTrailerSync] != MessageValueSync {
		return nil, ErrFrameCorrupt
	}
	frameCRC := uint16(frame[len(frame)-MessageTrailerCRC])<<8 |
		uint16(frame[len(frame)-MessageTrailerCRC+1])
	if frameCRC != CRC16(frame[:len(frame)-MessageTrailerSize]) {
		return nil, ErrFrameCorrupt
	}
	return frame[MessageHeaderSize : len(frame)-MessageTrailerSize], nil
}

// extract pulls one frame out of buf, if a complete one is there
func (f *FrameReader) extract() ([]byte, bool) {
	for len(f.buf) > 0 {
		if !f.synchronized {
			// Discard up to and including the next sync byte
			i := 0
			for i < len(f.buf) && f.buf[i] != MessageValueSync {
				i++
			}
			if i == len(f.buf) {
				f.Discarded += len(f.buf)
				f.buf = f.buf[:0]
				return nil, false
			}
			f.Discarded += i
			f.buf = f.buf[i+1:]
			f.synchronized = true
			continue
		}

		// Skip leading sync bytes
		if f.buf[0] == MessageValueSync {
			f.buf = f.buf[1:]
			continue
		}

		msgLen := int(f.buf[MessagePositionLen])
		if msgLen < MessageLengthMin || msgLen > MessageLengthMax {
			f.desync()
			continue
		}
		if len(f.buf) < msgLen {
			return nil, false
		}

		payload, err := CheckFrame(f.buf[:msgLen])
		if err != nil {
			f.desync()
			continue
		}

		seq := f.buf[MessagePositionSeq] & MessageSeqMask
		if f.haveSeq && seq != f.nextSeq {
			f.LostFrames += int((seq - f.nextSeq) & MessageSeqMask)
		}
		f.haveSeq = true
		f.nextSeq = (seq + 1) & MessageSeqMask

		out := append([]byte(nil), payload...)
		f.buf = f.buf[msgLen:]
		f.Frames++
		return out, true
	}
	return nil, false
}

func (f *FrameReader) desync() {
	f.Corrupt++
	f.synchronized = false
	// Drop the bad length byte so the scan makes progress
	f.buf = f.buf[1:]
	f.Discarded++
}
