package types

import "fmt"

// ValueType is the closed tagged union of value types that can flow
// through a computation graph edge: Tensor, EncodedTensor, Ring, Bit,
// ReplicatedRing, ReplicatedBit, Shape, Seed, PRFKey, Unit.
//
// Kind returns the wire discriminator string; it must stay in sync with
// the switch in wire/valuetype.go's decodeValueType, which reads the
// binary form back.
type ValueType interface {
	Kind() string
	fmt.Stringer
	valueType()
}

// Tensor is a plaintext, host-visible tensor of some scalar dtype.
type Tensor struct {
	DType DType
}

func (Tensor) valueType()    {}
func (Tensor) Kind() string  { return "standard.TensorType" }
func (t Tensor) String() string {
	return fmt.Sprintf("Tensor<%s>", t.DType)
}

// EncodedTensor is a fixed-point encoding of a tensor, parametrized by
// the fractional bit count ("precision").
type EncodedTensor struct {
	DType     DType
	Precision int
}

func (EncodedTensor) valueType()   {}
func (EncodedTensor) Kind() string { return "fixedpoint.EncodedTensorType" }
func (t EncodedTensor) String() string {
	return fmt.Sprintf("EncodedTensor<%s,precision=%d>", t.DType, t.Precision)
}

// Ring is a tensor of 64-bit ring elements (Z/2^64Z), held in cleartext
// by a single party (e.g. as an intermediate of a replicated protocol
// step that party happens to be allowed to see, or in test fixtures).
type Ring struct{}

func (Ring) valueType()     {}
func (Ring) Kind() string   { return "ring.RingTensorType" }
func (Ring) String() string { return "Ring" }

// Bit is a tensor of single-bit ring elements.
type Bit struct{}

func (Bit) valueType()     {}
func (Bit) Kind() string   { return "bit.BitTensorType" }
func (Bit) String() string { return "Bit" }

// ReplicatedRing is a 2-out-of-3 replicated secret sharing of a ring
// tensor across the three parties of a ReplicatedPlacement.
type ReplicatedRing struct{}

func (ReplicatedRing) valueType()     {}
func (ReplicatedRing) Kind() string   { return "replicated.ReplicatedRingType" }
func (ReplicatedRing) String() string { return "ReplicatedRing{3}" }

// ReplicatedBit is a 2-out-of-3 replicated secret sharing of a bit tensor.
type ReplicatedBit struct{}

func (ReplicatedBit) valueType()     {}
func (ReplicatedBit) Kind() string   { return "replicated.ReplicatedBitType" }
func (ReplicatedBit) String() string { return "ReplicatedBit{3}" }

// Shape is the shape (dimensions) of a tensor, passed as a first-class
// value between shape-producing and shape-consuming ops.
type Shape struct{}

func (Shape) valueType()     {}
func (Shape) Kind() string   { return "standard.ShapeType" }
func (Shape) String() string { return "Shape" }

// Seed is an opaque PRG seed value.
type Seed struct{}

func (Seed) valueType()     {}
func (Seed) Kind() string   { return "primitive.SeedType" }
func (Seed) String() string { return "Seed" }

// PRFKey is an opaque pseudo-random-function key.
type PRFKey struct{}

func (PRFKey) valueType()     {}
func (PRFKey) Kind() string   { return "primitive.PRFKeyType" }
func (PRFKey) String() string { return "PRFKey" }

// Unit is the type of an operation with no meaningful output (e.g. Save).
type Unit struct{}

func (Unit) valueType()     {}
func (Unit) Kind() string   { return "standard.UnitType" }
func (Unit) String() string { return "Unit" }

// Satisfies reports whether a value of type 'actual' may be used where
// 'expected' is required. Value types currently require exact structural
// equality; dtype/precision widening is never implicit (spec.md §3's
// global invariant: output_type must structurally satisfy input_type).
func Satisfies(expected, actual ValueType) bool {
	if expected.Kind() != actual.Kind() {
		return false
	}
	switch e := expected.(type) {
	case Tensor:
		return e.DType.Equal(actual.(Tensor).DType)
	case EncodedTensor:
		a := actual.(EncodedTensor)
		return e.DType.Equal(a.DType) && e.Precision == a.Precision
	default:
		return true
	}
}
