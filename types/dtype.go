// Package types defines the value-type lattice and placement variants
// that annotate every operation in a computation graph.
package types

import "fmt"

// DType is the scalar element type carried by a Tensor or EncodedTensor.
// It is a closed set; Kind switches over it exhaustively so that an
// unrecognized value is always a programmer error, not a data error.
type DType struct {
	kind     dtypeKind
	intPrec  int // only meaningful for Fixed
	fracPrec int // only meaningful for Fixed
}

type dtypeKind uint8

const (
	dtypeInvalid dtypeKind = iota
	Float32Kind
	Float64Kind
	Int32Kind
	Int64Kind
	Uint32Kind
	Uint64Kind
	FixedKind
	BoolKind
)

var (
	Float32 = DType{kind: Float32Kind}
	Float64 = DType{kind: Float64Kind}
	Int32   = DType{kind: Int32Kind}
	Int64   = DType{kind: Int64Kind}
	Uint32  = DType{kind: Uint32Kind}
	Uint64  = DType{kind: Uint64Kind}
	Bool    = DType{kind: BoolKind}
)

// Fixed returns the fixed-point dtype with the given integer and
// fractional bit widths.
func Fixed(intPrec, fracPrec int) DType {
	return DType{kind: FixedKind, intPrec: intPrec, fracPrec: fracPrec}
}

func (d DType) Kind() dtypeKind { return d.kind }
func (d DType) IsFloat() bool   { return d.kind == Float32Kind || d.kind == Float64Kind }
func (d DType) IsFixed() bool   { return d.kind == FixedKind }
func (d DType) IsInteger() bool {
	switch d.kind {
	case Int32Kind, Int64Kind, Uint32Kind, Uint64Kind:
		return true
	}
	return false
}

// FracPrec returns the fractional bit count for a Fixed dtype.
func (d DType) FracPrec() int {
	if d.kind != FixedKind {
		panic("types: FracPrec of non-fixed dtype")
	}
	return d.fracPrec
}

// IntPrec returns the integer bit count for a Fixed dtype.
func (d DType) IntPrec() int {
	if d.kind != FixedKind {
		panic("types: IntPrec of non-fixed dtype")
	}
	return d.intPrec
}

func (d DType) String() string {
	switch d.kind {
	case Float32Kind:
		return "float32"
	case Float64Kind:
		return "float64"
	case Int32Kind:
		return "int32"
	case Int64Kind:
		return "int64"
	case Uint32Kind:
		return "uint32"
	case Uint64Kind:
		return "uint64"
	case BoolKind:
		return "bool"
	case FixedKind:
		return fmt.Sprintf("fixed(%d,%d)", d.intPrec, d.fracPrec)
	}
	return "invalid"
}

func (d DType) Equal(o DType) bool {
	return d.kind == o.kind && d.intPrec == o.intPrec && d.fracPrec == o.fracPrec
}

// DTypeFromString parses the wire representation produced by String,
// which is also the representation persisted by the wire package.
func DTypeFromString(s string) (DType, error) {
	switch s {
	case "float32":
		return Float32, nil
	case "float64":
		return Float64, nil
	case "int32":
		return Int32, nil
	case "int64":
		return Int64, nil
	case "uint32":
		return Uint32, nil
	case "uint64":
		return Uint64, nil
	case "bool":
		return Bool, nil
	}
	var ip, fp int
	if n, err := fmt.Sscanf(s, "fixed(%d,%d)", &ip, &fp); err == nil && n == 2 {
		return Fixed(ip, fp), nil
	}
	return DType{}, fmt.Errorf("types: unknown dtype %q", s)
}
