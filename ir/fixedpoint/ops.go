// Package fixedpoint holds the fixed-point encoding dialect: conversion
// between cleartext tensors and their fixed-point encodings, and
// arithmetic over already-encoded values with explicit precision
// bookkeeping (spec.md §4.3).
package fixedpoint

import (
	"github.com/mooselang/moose/ir"
	"github.com/mooselang/moose/types"
)

// Encode converts a plaintext Tensor input into an EncodedTensor at the
// given fractional Precision. Emitted by the HostEncoding pass (for
// Cast rewriting) and by the ReplicatedEncoding pass (for lifting
// standard arithmetic inputs).
type Encode struct {
	ir.Base
	Precision int
	Output    types.ValueType
}

func (e *Encode) OutputType() types.ValueType { return e.Output }
func (e *Encode) Kind() string                { return "fixedpoint.EncodeOperation" }
func (e *Encode) Clone() ir.Op {
	e2 := *e
	e2.Base = e.Base.CloneBase()
	return &e2
}

// Decode converts an EncodedTensor back to a plaintext Tensor. Targets
// a float dtype when Precision > 0, otherwise int64 (spec.md §4.3).
type Decode struct {
	ir.Base
	Precision int
	Output    types.ValueType
}

func (d *Decode) OutputType() types.ValueType { return d.Output }
func (d *Decode) Kind() string                { return "fixedpoint.DecodeOperation" }
func (d *Decode) Clone() ir.Op {
	d2 := *d
	d2.Base = d.Base.CloneBase()
	return &d2
}

type binary struct {
	ir.Base
	Precision int
	Output    types.ValueType
}

func (b *binary) OutputType() types.ValueType { return b.Output }

// NewAdd builds an Add op; exported so the wire package can reconstruct
// one from a decoded record without reaching into the unexported
// binary field.
func NewAdd(b ir.Base, precision int, output types.ValueType) *Add {
	return &Add{binary{Base: b, Precision: precision, Output: output}}
}

// NewSub builds a Sub op.
func NewSub(b ir.Base, precision int, output types.ValueType) *Sub {
	return &Sub{binary{Base: b, Precision: precision, Output: output}}
}

// NewMul builds a Mul op.
func NewMul(b ir.Base, precision int, output types.ValueType) *Mul {
	return &Mul{binary{Base: b, Precision: precision, Output: output}}
}

// NewDot builds a Dot op.
func NewDot(b ir.Base, precision int, output types.ValueType) *Dot {
	return &Dot{binary{Base: b, Precision: precision, Output: output}}
}

// Add is additive; the ReplicatedEncoding pass requires both inputs to
// share (dtype, precision) and carries that precision to the output
// unchanged (spec.md §4.3).
type Add struct{ binary }

func (a *Add) Kind() string { return "fixedpoint.AddOperation" }
func (a *Add) Clone() ir.Op {
	a2 := *a
	a2.Base = a.Base.CloneBase()
	return &a2
}

// Sub mirrors Add's precision rule.
type Sub struct{ binary }

func (s *Sub) Kind() string { return "fixedpoint.SubOperation" }
func (s *Sub) Clone() ir.Op {
	s2 := *s
	s2.Base = s.Base.CloneBase()
	return &s2
}

// Mul is multiplicative: output precision is the sum of the input
// precisions (spec.md §4.3, §8 property 4).
type Mul struct{ binary }

func (m *Mul) Kind() string { return "fixedpoint.MulOperation" }
func (m *Mul) Clone() ir.Op {
	m2 := *m
	m2.Base = m.Base.CloneBase()
	return &m2
}

// Dot mirrors Mul's precision rule.
type Dot struct{ binary }

func (d *Dot) Kind() string { return "fixedpoint.DotOperation" }
func (d *Dot) Clone() ir.Op {
	d2 := *d
	d2.Base = d.Base.CloneBase()
	return &d2
}

// TruncPr probabilistically truncates its input by AmountBits,
// bringing a multiplicative product's doubled precision back down to a
// single operand's precision (spec.md §4.3, §4.4's "TruncPr" entry).
type TruncPr struct {
	ir.Base
	AmountBits int
	Output     types.ValueType
}

func (t *TruncPr) OutputType() types.ValueType { return t.Output }
func (t *TruncPr) Kind() string                { return "fixedpoint.TruncPrOperation" }
func (t *TruncPr) Clone() ir.Op {
	t2 := *t
	t2.Base = t.Base.CloneBase()
	return &t2
}
