// Package standard holds the plaintext arithmetic dialect: the ops a
// frontend emits before any lowering pass has run. Every op here that
// sits on a replicated placement is rewritten away by compiler/passes,
// so a fully lowered computation contains no standard-dialect op on a
// replicated placement (spec.md §4.3).
package standard

import (
	"github.com/mooselang/moose/ir"
	"github.com/mooselang/moose/types"
)

// Constant produces a literal value, interpreted according to its
// declared output type.
type Constant struct {
	ir.Base
	Value  any
	Output types.ValueType
}

func (c *Constant) OutputType() types.ValueType { return c.Output }
func (c *Constant) Kind() string                { return "standard.ConstantOperation" }
func (c *Constant) Clone() ir.Op {
	c2 := *c
	c2.Base = c.Base.CloneBase()
	return &c2
}

// binary is embedded by the four arithmetic ops; they differ only in
// Kind() and in the precision-algebra rule the ReplicatedEncoding pass
// applies to them (spec.md §4.3).
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

// NewDot builds a Dot op.
func NewDot(b ir.Base, output types.ValueType) *Dot { return &Dot{binary{Base: b, Output: output}} }

// Add is elementwise addition.
type Add struct{ binary }

func (a *Add) Kind() string { return "standard.AddOperation" }
func (a *Add) Clone() ir.Op {
	a2 := *a
	a2.Base = a.Base.CloneBase()
	return &a2
}

// Sub is elementwise subtraction.
type Sub struct{ binary }

func (s *Sub) Kind() string { return "standard.SubOperation" }
func (s *Sub) Clone() ir.Op {
	s2 := *s
	s2.Base = s.Base.CloneBase()
	return &s2
}

// Mul is elementwise multiplication.
type Mul struct{ binary }

func (m *Mul) Kind() string { return "standard.MulOperation" }
func (m *Mul) Clone() ir.Op {
	m2 := *m
	m2.Base = m.Base.CloneBase()
	return &m2
}

// Dot is matrix/tensor contraction (dot product).
type Dot struct{ binary }

func (d *Dot) Kind() string { return "standard.DotOperation" }
func (d *Dot) Clone() ir.Op {
	d2 := *d
	d2.Base = d.Base.CloneBase()
	return &d2
}

// Cast converts a single input between dtypes, including between a
// float dtype and a fixed(i,f) dtype — the latter form is what the
// HostEncoding pass rewrites into fixedpoint Encode/Decode (spec.md
// §4.3).
type Cast struct {
	ir.Base
	Output types.ValueType
}

func (c *Cast) OutputType() types.ValueType { return c.Output }
func (c *Cast) Kind() string                { return "standard.CastOperation" }
func (c *Cast) Clone() ir.Op {
	c2 := *c
	c2.Base = c.Base.CloneBase()
	return &c2
}

// Output marks a value as a visible result of the computation; it is
// never itself lowered away, but the HostEncoding/ReplicatedEncoding
// passes rewire it through a decode boundary when its input ends up on
// a non-host placement (spec.md §4.2's boundary-out conversion).
type Output struct {
	ir.Base
	Output types.ValueType
}

func (o *Output) OutputType() types.ValueType { return o.Output }
func (o *Output) Kind() string                { return "standard.OutputOperation" }
func (o *Output) Clone() ir.Op {
	o2 := *o
	o2.Base = o.Base.CloneBase()
	return &o2
}
