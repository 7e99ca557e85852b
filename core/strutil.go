package core

// itoa converts an integer to a string without using fmt package
// This is a lightweight alternative for embedded systems
func itoa(n int) string {
	if n < 0 {
		return "-" + utoa(uint32(-n))
	}
	return utoa(uint32(n))
}

// utoa converts an unsigned integer to a string
func utoa(n uint32) string {
	var buf [10]byte
	return string(appendUint(buf[:0], n))
}

// appendUint appends the decimal form of n to dst.
// It does not allocate when dst has room for 10 more bytes.
func appendUint(dst []byte, n uint32) []byte {
	var tmp [10]byte
	pos := len(tmp)
	for {
		pos--
		tmp[pos] = byte('0' + n%10)
		n /= 10
		if n == 0 {
			break
		}
	}
	return append(dst, tmp[pos:]...)
}
