// Package ring holds the concrete ring-arithmetic dialect that
// replicated-lowering targets: plain Z/2^64Z tensor arithmetic, plus
// the sampling and bit-decomposition primitives the truncation and
// carry-chain protocols need (spec.md §4.3).
package ring

import (
	"github.com/mooselang/moose/ir"
	"github.com/mooselang/moose/types"
)

type binary struct {
	ir.Base
}

func (binary) OutputType() types.ValueType { return types.Ring{} }

// NewRingAdd builds a RingAdd op; exported so the wire package can
// reconstruct one from a decoded record without reaching into the
// unexported binary field.
func NewRingAdd(b ir.Base) *RingAdd { return &RingAdd{binary{Base: b}} }

// NewRingSub builds a RingSub op.
func NewRingSub(b ir.Base) *RingSub { return &RingSub{binary{Base: b}} }

// NewRingMul builds a RingMul op.
func NewRingMul(b ir.Base) *RingMul { return &RingMul{binary{Base: b}} }

// NewRingDot builds a RingDot op.
func NewRingDot(b ir.Base) *RingDot { return &RingDot{binary{Base: b}} }

// RingAdd is elementwise addition modulo 2^64.
type RingAdd struct{ binary }

func (a *RingAdd) Kind() string { return "ring.RingAddOperation" }
func (a *RingAdd) Clone() ir.Op {
	a2 := *a
	a2.Base = a.Base.CloneBase()
	return &a2
}

// RingSub is elementwise subtraction modulo 2^64.
type RingSub struct{ binary }

func (s *RingSub) Kind() string { return "ring.RingSubOperation" }
func (s *RingSub) Clone() ir.Op {
	s2 := *s
	s2.Base = s.Base.CloneBase()
	return &s2
}

// RingMul is elementwise multiplication modulo 2^64.
type RingMul struct{ binary }

func (m *RingMul) Kind() string { return "ring.RingMulOperation" }
func (m *RingMul) Clone() ir.Op {
	m2 := *m
	m2.Base = m.Base.CloneBase()
	return &m2
}

// RingDot is a ring-valued tensor contraction.
type RingDot struct{ binary }

func (d *RingDot) Kind() string { return "ring.RingDotOperation" }
func (d *RingDot) Clone() ir.Op {
	d2 := *d
	d2.Base = d.Base.CloneBase()
	return &d2
}

// RingSample expands its single Seed input into a pseudorandom ring
// tensor of Shape, used to generate the zero-sharing mask in a
// replicated Mul's re-sharing step.
type RingSample struct {
	ir.Base
	Shape []int
}

func (r *RingSample) OutputType() types.ValueType { return types.Ring{} }
func (r *RingSample) Kind() string                { return "ring.RingSampleOperation" }
func (r *RingSample) Clone() ir.Op {
	r2 := *r
	r2.Base = r.Base.CloneBase()
	r2.Shape = append([]int(nil), r.Shape...)
	return &r2
}

// RingShl left-shifts every element of its single ring input by Amount
// bits. No lowering pass in compiler/passes emits it.
type RingShl struct {
	ir.Base
	Amount int
}

func (r *RingShl) OutputType() types.ValueType { return types.Ring{} }
func (r *RingShl) Kind() string                { return "ring.RingShlOperation" }
func (r *RingShl) Clone() ir.Op {
	r2 := *r
	r2.Base = r.Base.CloneBase()
	return &r2
}

// RingShr arithmetic-right-shifts every element of its single ring
// input by Amount bits: the local half of a probabilistic truncation.
type RingShr struct {
	ir.Base
	Amount int
}

func (r *RingShr) OutputType() types.ValueType { return types.Ring{} }
func (r *RingShr) Kind() string                { return "ring.RingShrOperation" }
func (r *RingShr) Clone() ir.Op {
	r2 := *r
	r2.Base = r.Base.CloneBase()
	return &r2
}

// BitExtract pulls bit number Index out of its single ring input,
// producing a Bit tensor. ring_bit_decompose (spec.md §4.3) expands a
// 64-bit ring tensor into 64 of these.
type BitExtract struct {
	ir.Base
	Index int
}

func (b *BitExtract) OutputType() types.ValueType { return types.Bit{} }
func (b *BitExtract) Kind() string                { return "ring.BitExtractOperation" }
func (b *BitExtract) Clone() ir.Op {
	b2 := *b
	b2.Base = b.Base.CloneBase()
	return &b2
}

// RingInject lifts a single Bit input back into a ring tensor, shifted
// left by Shift bits (spec.md §4.3).
type RingInject struct {
	ir.Base
	Shift int
}

func (r *RingInject) OutputType() types.ValueType { return types.Ring{} }
func (r *RingInject) Kind() string                { return "ring.RingInjectOperation" }
func (r *RingInject) Clone() ir.Op {
	r2 := *r
	r2.Base = r.Base.CloneBase()
	return &r2
}
