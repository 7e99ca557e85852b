package protocol

import "errors"

var (
	ErrInvalidVLQ     = errors.New("invalid VLQ encoding")
	ErrBufferTooSmall = errors.New("buffer too small for VLQ")
)

// VLQMaxLen is the longest encoding of a 32-bit value
const VLQMaxLen = 5

// AppendVLQInt appends the VLQ encoding of v to dst.
// Same encoding as the MCU command stream: 7 bits per byte, most
// significant first, high bit set on every byte but the last.
func AppendVLQInt(dst []byte, v int32) []byte {
	if !(-(1<<26) <= v && v < (3<<26)) {
		dst = append(dst, byte((v>>28)&0x7F)|0x80)
	}
	if !(-(1<<19) <= v && v < (3<<19)) {
		dst = append(dst, byte((v>>21)&0x7F)|0x80)
	}
	if !(-(1<<12) <= v && v < (3<<12)) {
		dst = append(dst, byte((v>>14)&0x7F)|0x80)
	}
	if !(-(1<<5) <= v && v < (3<<5)) {
		dst = append(dst, byte((v>>7)&0x7F)|0x80)
	}
	return append(dst, byte(v&0x7F))
}

// AppendVLQUint appends an unsigned value; the full 32-bit range round-trips
func AppendVLQUint(dst []byte, v uint32) []byte {
	return AppendVLQInt(dst, int32(v))
}

// DecodeVLQInt decodes a VLQ signed integer and advances data past it
func DecodeVLQInt(data *[]byte) (int32, error) {
	if len(*data) == 0 {
		return 0, ErrBufferTooSmall
	}

	c := uint32((*data)[0])
	*data = (*data)[1:]

	v := c & 0x7F
	if (c & 0x60) == 0x60 {
		// Sign extension for negative numbers
		v |= ^uint32(0x1F)
	}

	for n := 1; c&0x80 != 0; n++ {
		if n >= VLQMaxLen {
			return 0, ErrInvalidVLQ
		}
		if len(*data) == 0 {
			return 0, ErrBufferTooSmall
		}
		c = uint32((*data)[0])
		*data = (*data)[1:]
		v = (v << 7) | (c & 0x7F)
	}

	return int32(v), nil
}

// DecodeVLQUint decodes a VLQ unsigned integer and advances data past it
func DecodeVLQUint(data *[]byte) (uint32, error) {
	val, err := DecodeVLQInt(data)
	return uint32(val), err
}
