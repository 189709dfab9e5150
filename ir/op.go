// Package ir defines the operation algebra and computation graph shared
// by every dialect (standard, host, fixedpoint, replicated, ring, bit,
// primitive). Concrete operation variants live in the dialect
// subpackages; this package only fixes the shape every variant must
// have, the graph that holds them, and the pass-local naming context.
//
// The design is grounded on the teacher's plan.Op interface
// (plan/plan.go in the SnellerInc/sneller pack): a small interface
// implemented by a closed set of structs, dispatched on a Kind()
// string that doubles as the wire discriminator, rather than an open
// class hierarchy (spec.md §9's re-architecture guidance).
package ir

import "github.com/mooselang/moose/types"

// Slot is one named input of an operation: a label (e.g. "lhs", "rhs",
// "x") paired with the name of the producing operation. Slots are kept
// in a slice, not a map, so that insertion order (spec.md §3's "ordered
// map") is preserved without relying on Go map iteration order.
type Slot struct {
	Label    string
	Producer string
}

// Op is the tagged-union interface every dialect operation implements.
type Op interface {
	// Name is the operation's unique name within its computation.
	Name() string
	// SetName overwrites the operation's name; used only by passes that
	// mint fresh names for rewritten copies.
	SetName(name string)
	// Placement is the key into the computation's placement table this
	// operation is bound to.
	Placement() string
	// SetPlacement overwrites the placement binding.
	SetPlacement(name string)
	// Inputs returns the ordered input slots.
	Inputs() []Slot
	// SetInputs overwrites the ordered input slots.
	SetInputs(slots []Slot)
	// OutputType is the type this operation's single output carries.
	OutputType() types.ValueType
	// Kind is the dialect-qualified discriminator, e.g.
	// "standard.AddOperation", "ring.RingMulOperation". It must match
	// the string used by the wire package's decode registry.
	Kind() string
	// Clone returns a deep copy sharing no mutable state with the
	// original, used when a pass rewrites an op in place elsewhere in
	// the graph (e.g. replacing only its placement).
	Clone() Op
}

// Base is embedded by every concrete Op implementation; it supplies the
// name/placement/inputs bookkeeping so dialect structs only need to add
// their own attributes and an OutputType/Kind/Clone method.
type Base struct {
	OpName      string
	OpPlacement string
	OpInputs    []Slot
}

func (b *Base) Name() string             { return b.OpName }
func (b *Base) SetName(name string)      { b.OpName = name }
func (b *Base) Placement() string        { return b.OpPlacement }
func (b *Base) SetPlacement(name string) { b.OpPlacement = name }
func (b *Base) Inputs() []Slot           { return b.OpInputs }
func (b *Base) SetInputs(s []Slot)       { b.OpInputs = s }

// CloneBase returns a copy of b with its own backing slice for inputs.
func (b Base) CloneBase() Base {
	b2 := b
	b2.OpInputs = append([]Slot(nil), b.OpInputs...)
	return b2
}

// Input looks up the producer name bound to the given slot label. The
// second return value is false if no such slot exists.
func Input(op Op, label string) (string, bool) {
	for _, s := range op.Inputs() {
		if s.Label == label {
			return s.Producer, true
		}
	}
	return "", false
}
