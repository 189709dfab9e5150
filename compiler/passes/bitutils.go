// Package passes holds the concrete lowering passes moose's compiler
// pipeline runs in order: host encoding, replicated encoding,
// replicated lowering, ring lowering, bit lowering, and network
// materialization (spec.md §4.3).
package passes

// Precision defaults, carried over from
// original_source/moose/compiler/replicated/encoding_pass.py: 16
// fractional bits for the canonical pipeline, 27 for the deprecated
// one, and 0 (exact) for any integer dtype regardless of pipeline.
const (
	DefaultPrecision    = 16
	DeprecatedPrecision = 27
	IntegerPrecision    = 0
)

// RotateLeft returns a copy of items shifted toward higher indices by
// n positions, with the low end filled with zero rather than wrapping,
// matching the carry/borrow chain's need for a defined boundary value
// (original_source's bit_utils.py rotate_left: the first n entries of
// the result are the null tensor, and result[i] for i >= n is
// items[i-n]).
func RotateLeft(items []string, n int, zero string) []string {
	if len(items) == 0 {
		return nil
	}
	out := make([]string, len(items))
	for i := range items {
		src := i - n
		if src >= 0 && src < len(items) {
			out[i] = items[src]
		} else {
			out[i] = zero
		}
	}
	return out
}
