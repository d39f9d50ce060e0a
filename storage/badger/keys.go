package badger

import (
	"encoding/binary"
)

// Key prefixes for different data types
const (
	turnPrefix = "turn:"
	turnSeq    = "turnseq"
)

// makeTurnKey generates a key for a turn by sequence number.
// Format: prefix + big-endian seq, so lexicographic order is append order.
func makeTurnKey(seq uint64) []byte {
	buf := make([]byte, len(turnPrefix)+8)
	offset := copy(buf, turnPrefix)
	binary.BigEndian.PutUint64(buf[offset:], seq)
	return buf
}
