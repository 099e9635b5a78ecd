package universe

import (
	crand "crypto/rand"
	"encoding/binary"
	"time"
)

// cryptoSeed derives an unseeded-run seed from the system CSPRNG, falling
// back to the clock if the entropy source is unavailable.
func cryptoSeed() int64 {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(buf[:]))
}
