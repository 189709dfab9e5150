// Package bit holds elementwise boolean arithmetic over Bit tensors,
// used by the carry/borrow chains the ring-lowering pass builds out of
// ring.BitExtract / ring.RingInject (spec.md §4.3).
package bit

import (
	"github.com/mooselang/moose/ir"
	"github.com/mooselang/moose/types"
)

type binary struct {
	ir.Base
}

func (binary) OutputType() types.ValueType { return types.Bit{} }

// NewBitXor builds a BitXor op; exported so the wire package can
// reconstruct one from a decoded record without reaching into the
// unexported binary field.
func NewBitXor(b ir.Base) *BitXor { return &BitXor{binary{Base: b}} }

// NewBitAnd builds a BitAnd op.
func NewBitAnd(b ir.Base) *BitAnd { return &BitAnd{binary{Base: b}} }

// BitXor is elementwise XOR.
type BitXor struct{ binary }

func (b *BitXor) Kind() string { return "bit.BitXorOperation" }
func (b *BitXor) Clone() ir.Op {
	b2 := *b
	b2.Base = b.Base.CloneBase()
	return &b2
}

// BitAnd is elementwise AND.
type BitAnd struct{ binary }

func (b *BitAnd) Kind() string { return "bit.BitAndOperation" }
func (b *BitAnd) Clone() ir.Op {
	b2 := *b
	b2.Base = b.Base.CloneBase()
	return &b2
}

// BitNot is elementwise negation of a single input.
type BitNot struct {
	ir.Base
}

func (b *BitNot) OutputType() types.ValueType { return types.Bit{} }
func (b *BitNot) Kind() string                { return "bit.BitNotOperation" }
func (b *BitNot) Clone() ir.Op {
	b2 := *b
	b2.Base = b.Base.CloneBase()
	return &b2
}
