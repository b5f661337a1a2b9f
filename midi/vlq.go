package midi

import (
	"fmt"

	"github.com/bodgit/siedler2/errkind"
)

// A quantity never spans more than four bytes.
const maxVLQBytes = 4

// ReadVLQ decodes the variable length quantity at the start of b and returns
// it with the number of bytes consumed.
func ReadVLQ(b []byte) (uint32, int, error) {
	var v uint32
	for i := 0; i < maxVLQBytes; i++ {
		if i >= len(b) {
			return 0, 0, fmt.Errorf("midi: variable length quantity: %w", errkind.ErrUnexpectedEOF)
		}
		v = v<<7 | uint32(b[i]&0x7f)
		if b[i]&0x80 == 0 {
			return v, i + 1, nil
		}
	}
	return 0, 0, fmt.Errorf("midi: variable length quantity longer than %d bytes: %w", maxVLQBytes, errkind.ErrWrongFormat)
}

// AppendVLQ appends v to b as a variable length quantity. Values above
// 0x0fffffff are truncated to 28 bits.
func AppendVLQ(b []byte, v uint32) []byte {
	v &= 0x0fffffff

	var buf [maxVLQBytes]byte
	i := len(buf) - 1
	buf[i] = byte(v & 0x7f)
	for v >>= 7; v > 0; v >>= 7 {
		i--
		buf[i] = byte(v&0x7f) | 0x80
	}
	return append(b, buf[i:]...)
}
