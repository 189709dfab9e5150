// Package primitive holds the small set of ops that produce key
// material: a per-party sample of randomness, and a deterministic
// derivation from a key plus a nonce. These are used by the
// replicated-lowering pass to generate the per-pair PRF keys a
// replicated Mul's re-sharing step consumes (spec.md §4.3).
package primitive

import (
	"github.com/mooselang/moose/ir"
	"github.com/mooselang/moose/types"
)

// SampleKey draws a fresh PRFKey from the party's local randomness
// source. It has no inputs.
type SampleKey struct {
	ir.Base
}

func (s *SampleKey) OutputType() types.ValueType { return types.PRFKey{} }
func (s *SampleKey) Kind() string                { return "primitive.SampleKeyOperation" }
func (s *SampleKey) Clone() ir.Op {
	s2 := *s
	s2.Base = s.Base.CloneBase()
	return &s2
}

// DeriveSeed deterministically derives a Seed from its single PRFKey
// input and a fixed Nonce, so that two parties holding the same key can
// derive the same seed without communicating.
type DeriveSeed struct {
	ir.Base
	Nonce []byte
}

func (d *DeriveSeed) OutputType() types.ValueType { return types.Seed{} }
func (d *DeriveSeed) Kind() string                { return "primitive.DeriveSeedOperation" }
func (d *DeriveSeed) Clone() ir.Op {
	d2 := *d
	d2.Base = d.Base.CloneBase()
	d2.Nonce = append([]byte(nil), d.Nonce...)
	return &d2
}
