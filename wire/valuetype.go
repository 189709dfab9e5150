// Package wire is the binary serializer for computations (spec.md §6).
// It is built directly on the teacher's ion package: a self-describing,
// symbol-table-backed binary format, the same one plan.Encode/
// plan.Decode in the SnellerInc/sneller pack use for query plans. Every
// record begins with a "type" field carrying a discriminator string; an
// unrecognized discriminator on decode is a hard UnknownOperationType or
// UnknownPlacementType error (spec.md §6, §7).
package wire

import (
	"fmt"

	"github.com/SnellerInc/sneller/ion"
	"github.com/mooselang/moose/ir"
	"github.com/mooselang/moose/types"
)

func encodeValueType(dst *ion.Buffer, st *ion.Symtab, vt types.ValueType) {
	dst.BeginStruct(-1)
	dst.BeginField(st.Intern("type"))
	dst.WriteString(vt.Kind())
	switch v := vt.(type) {
	case types.Tensor:
		dst.BeginField(st.Intern("dtype"))
		dst.WriteString(v.DType.String())
	case types.EncodedTensor:
		dst.BeginField(st.Intern("dtype"))
		dst.WriteString(v.DType.String())
		dst.BeginField(st.Intern("precision"))
		dst.WriteInt(int64(v.Precision))
	}
	dst.EndStruct()
}

func decodeValueType(d ion.Datum) (types.ValueType, error) {
	kindDatum := d.Field("type")
	kind, ok := kindDatum.String()
	if !ok {
		return nil, fmt.Errorf("wire: value type record missing \"type\" field")
	}
	switch kind {
	case (types.Tensor{}).Kind():
		s, ok := d.Field("dtype").String()
		if !ok {
			return nil, fmt.Errorf("wire: Tensor missing dtype")
		}
		dt, err := types.DTypeFromString(s)
		if err != nil {
			return nil, err
		}
		return types.Tensor{DType: dt}, nil
	case (types.EncodedTensor{}).Kind():
		s, ok := d.Field("dtype").String()
		if !ok {
			return nil, fmt.Errorf("wire: EncodedTensor missing dtype")
		}
		dt, err := types.DTypeFromString(s)
		if err != nil {
			return nil, err
		}
		prec, ok := d.Field("precision").Int()
		if !ok {
			return nil, fmt.Errorf("wire: EncodedTensor missing precision")
		}
		return types.EncodedTensor{DType: dt, Precision: int(prec)}, nil
	case (types.Ring{}).Kind():
		return types.Ring{}, nil
	case (types.Bit{}).Kind():
		return types.Bit{}, nil
	case (types.ReplicatedRing{}).Kind():
		return types.ReplicatedRing{}, nil
	case (types.ReplicatedBit{}).Kind():
		return types.ReplicatedBit{}, nil
	case (types.Shape{}).Kind():
		return types.Shape{}, nil
	case (types.Seed{}).Kind():
		return types.Seed{}, nil
	case (types.PRFKey{}).Kind():
		return types.PRFKey{}, nil
	case (types.Unit{}).Kind():
		return types.Unit{}, nil
	}
	return nil, &ir.UnknownOperationType{TypeName: "valuetype:" + kind}
}
