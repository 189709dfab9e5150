package kernel

import (
	"encoding/binary"

	"github.com/dchest/siphash"
)

// expandSeed derives a deterministic stream of n uint64 ring elements
// from seed, used by RingSample and by the replicated Mul kernel
// to agree on masking values without further communication. Grounded on
// the teacher's siphash-based block hashing (vm/siphash_generic.go,
// vm/interphash.go): the same 128-bit SipHash primitive, applied here
// as a counter-mode stream expander instead of a hash-table probe.
func expandSeed(seed []byte, n int) []uint64 {
	k0, k1 := seedKeys(seed)
	out := make([]uint64, n)
	var counter [8]byte
	for i := range out {
		binary.LittleEndian.PutUint64(counter[:], uint64(i))
		lo, _ := siphash.Hash128(k0, k1, append(append([]byte(nil), seed...), counter[:]...))
		out[i] = lo
	}
	return out
}

func seedKeys(seed []byte) (uint64, uint64) {
	padded := make([]byte, 16)
	copy(padded, seed)
	return binary.LittleEndian.Uint64(padded[:8]), binary.LittleEndian.Uint64(padded[8:16])
}
