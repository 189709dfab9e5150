// Package replicated holds the 2-out-of-3 replicated-sharing dialect:
// the Share/Reveal boundary conversions and arithmetic over
// ReplicatedRing/ReplicatedBit values (spec.md §4.3).
//
// A replicated ring value is (shares0, shares1, shares2) where party i
// holds shares_i and shares_{(i+1) mod 3}; Mul's re-sharing step
// consumes randomness derived from the per-pair primitive.SampleKey /
// primitive.DeriveSeed chain.
package replicated

import (
	"github.com/mooselang/moose/ir"
	"github.com/mooselang/moose/types"
)

// Share converts a cleartext host-side value into a ReplicatedRing (or
// ReplicatedBit) value on a ReplicatedPlacement.
type Share struct {
	ir.Base
	Output types.ValueType
}

func (s *Share) OutputType() types.ValueType { return s.Output }
func (s *Share) Kind() string                { return "replicated.ShareOperation" }
func (s *Share) Clone() ir.Op {
	s2 := *s
	s2.Base = s.Base.CloneBase()
	return &s2
}

// Reveal reconstructs a cleartext value from a replicated share,
// delivering it to a Host or Mirrored placement. Precision carries the
// fixed-point fractional bit count of the value being revealed (0 for a
// plain integer ring value), since ReplicatedLoweringPass folds a
// fixedpoint.Decode directly into this op rather than emitting a
// separate descale step.
type Reveal struct {
	ir.Base
	RecipientPlacement string
	Precision          int
	Output             types.ValueType
}

func (r *Reveal) OutputType() types.ValueType { return r.Output }
func (r *Reveal) Kind() string                { return "replicated.RevealOperation" }
func (r *Reveal) Clone() ir.Op {
	r2 := *r
	r2.Base = r.Base.CloneBase()
	return &r2
}

type binary struct {
	ir.Base
	Output types.ValueType
}

func (b *binary) OutputType() types.ValueType { return b.Output }

// NewAdd builds an Add op; exported so the wire package can reconstruct
// one from a decoded record without reaching into the unexported
// binary field.
func NewAdd(b ir.Base, output types.ValueType) *Add { return &Add{binary{Base: b, Output: output}} }

// NewSub builds a Sub op.
func NewSub(b ir.Base, output types.ValueType) *Sub { return &Sub{binary{Base: b, Output: output}} }

// NewMul builds a Mul op.
func NewMul(b ir.Base, output types.ValueType) *Mul { return &Mul{binary{Base: b, Output: output}} }

// Add is share-wise addition: no communication required.
type Add struct{ binary }

func (a *Add) Kind() string { return "replicated.AddOperation" }
func (a *Add) Clone() ir.Op {
	a2 := *a
	a2.Base = a.Base.CloneBase()
	return &a2
}

// Sub mirrors Add.
type Sub struct{ binary }

func (s *Sub) Kind() string { return "replicated.SubOperation" }
func (s *Sub) Clone() ir.Op {
	s2 := *s
	s2.Base = s.Base.CloneBase()
	return &s2
}

// Mul is the re-sharing multiplication: its two Seed inputs ("seed01"
// and "seed12" slots) are consumed by the kernel to generate the
// mask each party adds to its local product-of-shares before
// exchanging a single re-share message with its successor. Every party
// applies the same +mask01-mask12 correction, so the corrections do
// not cancel and a revealed product carries a 3*(mask01-mask12) bias.
type Mul struct{ binary }

func (m *Mul) Kind() string { return "replicated.MulOperation" }
func (m *Mul) Clone() ir.Op {
	m2 := *m
	m2.Base = m.Base.CloneBase()
	return &m2
}

// TruncPr is the replicated-level probabilistic truncation: each party
// locally arithmetic-shifts both of its shares right by AmountBits. No
// re-sharing round or carry correction follows (spec.md §4.3 / §4.4's
// "TruncPr" glossary entry).
type TruncPr struct {
	ir.Base
	AmountBits int
	Output     types.ValueType
}

func (t *TruncPr) OutputType() types.ValueType { return t.Output }
func (t *TruncPr) Kind() string                { return "replicated.TruncPrOperation" }
func (t *TruncPr) Clone() ir.Op {
	t2 := *t
	t2.Base = t.Base.CloneBase()
	return &t2
}
