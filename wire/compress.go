package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/klauspost/compress/s2"
)

// compressThreshold is the payload size below which compression is
// skipped: s2's frame overhead dominates the savings on small
// computations. 4KiB mirrors the threshold style ion's chunked writer
// uses before it bothers invoking a codec at all.
const compressThreshold = 4096

// CompressComputation wraps an EncodeComputation payload for network
// transport. The wire format is a one-byte flag (0 = raw, 1 = s2)
// followed by a little-endian uncompressed length (only present when
// compressed) and the payload.
func CompressComputation(raw []byte) []byte {
	if len(raw) < compressThreshold {
		out := make([]byte, 1+len(raw))
		out[0] = 0
		copy(out[1:], raw)
		return out
	}
	var lenPrefix [8]byte
	binary.LittleEndian.PutUint64(lenPrefix[:], uint64(len(raw)))
	encoded := s2.Encode(make([]byte, s2.MaxEncodedLen(len(raw))), raw)
	out := make([]byte, 0, 9+len(encoded))
	out = append(out, 1)
	out = append(out, lenPrefix[:]...)
	out = append(out, encoded...)
	return out
}

// DecompressComputation reverses CompressComputation.
func DecompressComputation(framed []byte) ([]byte, error) {
	if len(framed) == 0 {
		return nil, fmt.Errorf("wire: empty compressed payload")
	}
	switch framed[0] {
	case 0:
		return framed[1:], nil
	case 1:
		if len(framed) < 9 {
			return nil, fmt.Errorf("wire: truncated compressed payload")
		}
		n := binary.LittleEndian.Uint64(framed[1:9])
		dst := make([]byte, 0, n)
		out, err := s2.Decode(dst, framed[9:])
		if err != nil {
			return nil, fmt.Errorf("wire: s2 decode: %w", err)
		}
		return out, nil
	}
	return nil, fmt.Errorf("wire: unknown compression flag %d", framed[0])
}
