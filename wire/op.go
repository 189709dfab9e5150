package wire

import (
	"fmt"

	"github.com/SnellerInc/sneller/ion"
	"github.com/mooselang/moose/ir"
	"github.com/mooselang/moose/ir/bit"
	"github.com/mooselang/moose/ir/fixedpoint"
	"github.com/mooselang/moose/ir/host"
	"github.com/mooselang/moose/ir/primitive"
	"github.com/mooselang/moose/ir/replicated"
	"github.com/mooselang/moose/ir/ring"
	"github.com/mooselang/moose/ir/standard"
)

func encodeSlots(dst *ion.Buffer, st *ion.Symtab, slots []ir.Slot) {
	dst.BeginList(-1)
	for _, s := range slots {
		dst.BeginStruct(-1)
		dst.BeginField(st.Intern("slot"))
		dst.WriteString(s.Label)
		dst.BeginField(st.Intern("producer"))
		dst.WriteString(s.Producer)
		dst.EndStruct()
	}
	dst.EndList()
}

func decodeSlots(d ion.Datum) ([]ir.Slot, error) {
	lst, ok := d.List()
	if !ok {
		return nil, fmt.Errorf("wire: expected inputs list")
	}
	var out []ir.Slot
	var ferr error
	lst.Each(func(item ion.Datum) bool {
		label, ok1 := item.Field("slot").String()
		producer, ok2 := item.Field("producer").String()
		if !ok1 || !ok2 {
			ferr = fmt.Errorf("wire: malformed input slot record")
			return false
		}
		out = append(out, ir.Slot{Label: label, Producer: producer})
		return true
	})
	return out, ferr
}

// encodeOpCommon writes the fields every Op shares: type, name,
// placement, inputs, output_type. Callers open the struct, call this,
// append their own dialect-specific fields, then close the struct.
func encodeOpCommon(dst *ion.Buffer, st *ion.Symtab, op ir.Op) {
	dst.BeginField(st.Intern("type"))
	dst.WriteString(op.Kind())
	dst.BeginField(st.Intern("name"))
	dst.WriteString(op.Name())
	dst.BeginField(st.Intern("placement"))
	dst.WriteString(op.Placement())
	dst.BeginField(st.Intern("inputs"))
	encodeSlots(dst, st, op.Inputs())
	dst.BeginField(st.Intern("output_type"))
	encodeValueType(dst, st, op.OutputType())
}

type commonFields struct {
	name      string
	placement string
	inputs    []ir.Slot
}

func decodeOpCommon(d ion.Datum) (commonFields, error) {
	var c commonFields
	var ok bool
	c.name, ok = d.Field("name").String()
	if !ok {
		return c, fmt.Errorf("wire: op record missing \"name\"")
	}
	c.placement, ok = d.Field("placement").String()
	if !ok {
		return c, fmt.Errorf("wire: op %q missing \"placement\"", c.name)
	}
	slots, err := decodeSlots(d.Field("inputs"))
	if err != nil {
		return c, fmt.Errorf("wire: op %q: %w", c.name, err)
	}
	c.inputs = slots
	return c, nil
}

func base(c commonFields) ir.Base {
	return ir.Base{OpName: c.name, OpPlacement: c.placement, OpInputs: c.inputs}
}

// EncodeOp writes a single operation record to dst.
func EncodeOp(dst *ion.Buffer, st *ion.Symtab, op ir.Op) error {
	dst.BeginStruct(-1)
	encodeOpCommon(dst, st, op)
	switch v := op.(type) {
	case *standard.Constant:
		if err := encodeAny(dst, st, v.Value); err != nil {
			return err
		}
	case *standard.Add, *standard.Sub, *standard.Mul, *standard.Dot, *standard.Output:
		// no extra fields
	case *standard.Cast:
		// no extra fields beyond output_type
	case *host.Load:
		dst.BeginField(st.Intern("key"))
		dst.WriteString(v.Key)
	case *host.Save:
		dst.BeginField(st.Intern("key"))
		dst.WriteString(v.Key)
	case *host.RunProgram:
		dst.BeginField(st.Intern("path"))
		dst.WriteString(v.Path)
		dst.BeginField(st.Intern("args"))
		encodeStringList(dst, st, v.Args)
	case *host.CallPythonFn:
		dst.BeginField(st.Intern("pickled_fn"))
		dst.WriteBlob(v.PickledFn)
	case *host.Send:
		dst.BeginField(st.Intern("sender"))
		dst.WriteString(v.Sender)
		dst.BeginField(st.Intern("receiver"))
		dst.WriteString(v.Receiver)
		dst.BeginField(st.Intern("rendezvous_key"))
		dst.WriteString(v.RendezvousKey)
	case *host.Receive:
		dst.BeginField(st.Intern("sender"))
		dst.WriteString(v.Sender)
		dst.BeginField(st.Intern("receiver"))
		dst.WriteString(v.Receiver)
		dst.BeginField(st.Intern("rendezvous_key"))
		dst.WriteString(v.RendezvousKey)
	case *fixedpoint.Encode:
		dst.BeginField(st.Intern("precision"))
		dst.WriteInt(int64(v.Precision))
	case *fixedpoint.Decode:
		dst.BeginField(st.Intern("precision"))
		dst.WriteInt(int64(v.Precision))
	case *fixedpoint.Add:
		dst.BeginField(st.Intern("precision"))
		dst.WriteInt(int64(v.Precision))
	case *fixedpoint.Sub:
		dst.BeginField(st.Intern("precision"))
		dst.WriteInt(int64(v.Precision))
	case *fixedpoint.Mul:
		dst.BeginField(st.Intern("precision"))
		dst.WriteInt(int64(v.Precision))
	case *fixedpoint.Dot:
		dst.BeginField(st.Intern("precision"))
		dst.WriteInt(int64(v.Precision))
	case *fixedpoint.TruncPr:
		dst.BeginField(st.Intern("amount_bits"))
		dst.WriteInt(int64(v.AmountBits))
	case *replicated.Share, *replicated.Add, *replicated.Sub, *replicated.Mul:
		// no extra fields
	case *replicated.Reveal:
		dst.BeginField(st.Intern("recipient_placement"))
		dst.WriteString(v.RecipientPlacement)
		dst.BeginField(st.Intern("precision"))
		dst.WriteInt(int64(v.Precision))
	case *replicated.TruncPr:
		dst.BeginField(st.Intern("amount_bits"))
		dst.WriteInt(int64(v.AmountBits))
	case *primitive.SampleKey:
		// no extra fields
	case *primitive.DeriveSeed:
		dst.BeginField(st.Intern("nonce"))
		dst.WriteBlob(v.Nonce)
	case *ring.RingAdd, *ring.RingSub, *ring.RingMul, *ring.RingDot:
		// no extra fields
	case *ring.RingSample:
		dst.BeginField(st.Intern("shape"))
		dst.BeginList(-1)
		for _, n := range v.Shape {
			dst.WriteInt(int64(n))
		}
		dst.EndList()
	case *ring.RingShl:
		dst.BeginField(st.Intern("amount"))
		dst.WriteInt(int64(v.Amount))
	case *ring.RingShr:
		dst.BeginField(st.Intern("amount"))
		dst.WriteInt(int64(v.Amount))
	case *ring.BitExtract:
		dst.BeginField(st.Intern("index"))
		dst.WriteInt(int64(v.Index))
	case *ring.RingInject:
		dst.BeginField(st.Intern("shift"))
		dst.WriteInt(int64(v.Shift))
	case *bit.BitXor, *bit.BitAnd, *bit.BitNot:
		// no extra fields
	default:
		return &ir.UnknownOperationType{TypeName: op.Kind()}
	}
	dst.EndStruct()
	return nil
}

// DecodeOp reads a single operation record from d.
func DecodeOp(d ion.Datum) (ir.Op, error) {
	kind, ok := d.Field("type").String()
	if !ok {
		return nil, fmt.Errorf("wire: op record missing \"type\" field")
	}
	c, err := decodeOpCommon(d)
	if err != nil {
		return nil, err
	}
	outType, err := decodeValueType(d.Field("output_type"))
	if err != nil {
		return nil, fmt.Errorf("wire: op %q: output_type: %w", c.name, err)
	}
	b := base(c)

	switch kind {
	case (&standard.Constant{}).Kind():
		v, err := decodeAny(d)
		if err != nil {
			return nil, err
		}
		return &standard.Constant{Base: b, Value: v, Output: outType}, nil
	case (&standard.Add{}).Kind():
		return standard.NewAdd(b, outType), nil
	case (&standard.Sub{}).Kind():
		return standard.NewSub(b, outType), nil
	case (&standard.Mul{}).Kind():
		return standard.NewMul(b, outType), nil
	case (&standard.Dot{}).Kind():
		return standard.NewDot(b, outType), nil
	case (&standard.Cast{}).Kind():
		return &standard.Cast{Base: b, Output: outType}, nil
	case (&standard.Output{}).Kind():
		return &standard.Output{Base: b, Output: outType}, nil
	case (&host.Load{}).Kind():
		key, _ := d.Field("key").String()
		return &host.Load{Base: b, Key: key, Output: outType}, nil
	case (&host.Save{}).Kind():
		key, _ := d.Field("key").String()
		return &host.Save{Base: b, Key: key}, nil
	case (&host.RunProgram{}).Kind():
		path, _ := d.Field("path").String()
		args, err := decodeStringList(d.Field("args"))
		if err != nil {
			return nil, err
		}
		return &host.RunProgram{Base: b, Path: path, Args: args, Output: outType}, nil
	case (&host.CallPythonFn{}).Kind():
		fn, _ := d.Field("pickled_fn").Blob()
		return &host.CallPythonFn{Base: b, PickledFn: fn, Output: outType}, nil
	case (&host.Send{}).Kind():
		sender, _ := d.Field("sender").String()
		receiver, _ := d.Field("receiver").String()
		rk, _ := d.Field("rendezvous_key").String()
		return &host.Send{Base: b, Sender: sender, Receiver: receiver, RendezvousKey: rk}, nil
	case (&host.Receive{}).Kind():
		sender, _ := d.Field("sender").String()
		receiver, _ := d.Field("receiver").String()
		rk, _ := d.Field("rendezvous_key").String()
		return &host.Receive{Base: b, Sender: sender, Receiver: receiver, RendezvousKey: rk, Output: outType}, nil
	case (&fixedpoint.Encode{}).Kind():
		prec, _ := d.Field("precision").Int()
		return &fixedpoint.Encode{Base: b, Precision: int(prec), Output: outType}, nil
	case (&fixedpoint.Decode{}).Kind():
		prec, _ := d.Field("precision").Int()
		return &fixedpoint.Decode{Base: b, Precision: int(prec), Output: outType}, nil
	case (&fixedpoint.Add{}).Kind():
		prec, _ := d.Field("precision").Int()
		return fixedpoint.NewAdd(b, int(prec), outType), nil
	case (&fixedpoint.Sub{}).Kind():
		prec, _ := d.Field("precision").Int()
		return fixedpoint.NewSub(b, int(prec), outType), nil
	case (&fixedpoint.Mul{}).Kind():
		prec, _ := d.Field("precision").Int()
		return fixedpoint.NewMul(b, int(prec), outType), nil
	case (&fixedpoint.Dot{}).Kind():
		prec, _ := d.Field("precision").Int()
		return fixedpoint.NewDot(b, int(prec), outType), nil
	case (&fixedpoint.TruncPr{}).Kind():
		amt, _ := d.Field("amount_bits").Int()
		return &fixedpoint.TruncPr{Base: b, AmountBits: int(amt), Output: outType}, nil
	case (&replicated.Share{}).Kind():
		return &replicated.Share{Base: b, Output: outType}, nil
	case (&replicated.Reveal{}).Kind():
		rp, _ := d.Field("recipient_placement").String()
		prec, _ := d.Field("precision").Int()
		return &replicated.Reveal{Base: b, RecipientPlacement: rp, Precision: int(prec), Output: outType}, nil
	case (&replicated.Add{}).Kind():
		return replicated.NewAdd(b, outType), nil
	case (&replicated.Sub{}).Kind():
		return replicated.NewSub(b, outType), nil
	case (&replicated.Mul{}).Kind():
		return replicated.NewMul(b, outType), nil
	case (&replicated.TruncPr{}).Kind():
		amt, _ := d.Field("amount_bits").Int()
		return &replicated.TruncPr{Base: b, AmountBits: int(amt), Output: outType}, nil
	case (&primitive.SampleKey{}).Kind():
		return &primitive.SampleKey{Base: b}, nil
	case (&primitive.DeriveSeed{}).Kind():
		nonce, _ := d.Field("nonce").Blob()
		return &primitive.DeriveSeed{Base: b, Nonce: nonce}, nil
	case (&ring.RingAdd{}).Kind():
		return ring.NewRingAdd(b), nil
	case (&ring.RingSub{}).Kind():
		return ring.NewRingSub(b), nil
	case (&ring.RingMul{}).Kind():
		return ring.NewRingMul(b), nil
	case (&ring.RingDot{}).Kind():
		return ring.NewRingDot(b), nil
	case (&ring.RingSample{}).Kind():
		shape, err := decodeIntList(d.Field("shape"))
		if err != nil {
			return nil, err
		}
		return &ring.RingSample{Base: b, Shape: shape}, nil
	case (&ring.RingShl{}).Kind():
		amt, _ := d.Field("amount").Int()
		return &ring.RingShl{Base: b, Amount: int(amt)}, nil
	case (&ring.RingShr{}).Kind():
		amt, _ := d.Field("amount").Int()
		return &ring.RingShr{Base: b, Amount: int(amt)}, nil
	case (&ring.BitExtract{}).Kind():
		idx, _ := d.Field("index").Int()
		return &ring.BitExtract{Base: b, Index: int(idx)}, nil
	case (&ring.RingInject{}).Kind():
		shift, _ := d.Field("shift").Int()
		return &ring.RingInject{Base: b, Shift: int(shift)}, nil
	case (&bit.BitXor{}).Kind():
		return bit.NewBitXor(b), nil
	case (&bit.BitAnd{}).Kind():
		return bit.NewBitAnd(b), nil
	case (&bit.BitNot{}).Kind():
		return &bit.BitNot{Base: b}, nil
	}
	return nil, &ir.UnknownOperationType{TypeName: kind}
}

func decodeIntList(d ion.Datum) ([]int, error) {
	lst, ok := d.List()
	if !ok {
		return nil, nil
	}
	var out []int
	var ferr error
	lst.Each(func(item ion.Datum) bool {
		i, ok := item.Int()
		if !ok {
			ferr = fmt.Errorf("wire: expected int in shape list")
			return false
		}
		out = append(out, int(i))
		return true
	})
	return out, ferr
}
