package value

import (
	"fmt"

	"github.com/SnellerInc/sneller/ion"
)

// Marshal serializes v into a self-contained ion byte stream (version
// marker, symbol table, single top-level struct), the same framing
// wire.EncodeComputation uses for a *ir.Computation. It is what the
// host.Save/host.Load and host.Send/host.Receive kernels put on the
// wire and on party-local storage (spec.md §4.4, §4.6).
func Marshal(v any) ([]byte, error) {
	var body, framed ion.Buffer
	var st ion.Symtab

	if err := encode(&body, &st, v); err != nil {
		return nil, err
	}
	st.Marshal(&framed, true)
	framed.UnsafeAppend(body.Bytes())
	return framed.Bytes(), nil
}

// Unmarshal parses a byte stream produced by Marshal.
func Unmarshal(buf []byte) (any, error) {
	var st ion.Symtab
	rest, err := st.Unmarshal(buf)
	if err != nil {
		return nil, fmt.Errorf("value: reading symbol table: %w", err)
	}
	d, _, err := ion.ReadDatum(&st, rest)
	if err != nil {
		return nil, fmt.Errorf("value: reading datum: %w", err)
	}
	return decode(d)
}

func encode(dst *ion.Buffer, st *ion.Symtab, v any) error {
	dst.BeginStruct(-1)
	defer dst.EndStruct()

	dst.BeginField(st.Intern("kind"))
	switch x := v.(type) {
	case Tensor:
		dst.WriteString("tensor")
		dst.BeginField(st.Intern("shape"))
		writeInts(dst, x.Shape)
		dst.BeginField(st.Intern("data"))
		writeFloats(dst, x.Data)
	case Ring:
		dst.WriteString("ring")
		dst.BeginField(st.Intern("shape"))
		writeInts(dst, x.Shape)
		dst.BeginField(st.Intern("data"))
		writeUints(dst, x.Data)
	case Bit:
		dst.WriteString("bit")
		dst.BeginField(st.Intern("shape"))
		writeInts(dst, x.Shape)
		dst.BeginField(st.Intern("data"))
		dst.WriteBlob(x.Data)
	case ReplicatedRing:
		dst.WriteString("replicated_ring")
		dst.BeginField(st.Intern("own"))
		if err := encode(dst, st, x.Own); err != nil {
			return err
		}
		dst.BeginField(st.Intern("next"))
		if err := encode(dst, st, x.Next); err != nil {
			return err
		}
	case ReplicatedBit:
		dst.WriteString("replicated_bit")
		dst.BeginField(st.Intern("own"))
		if err := encode(dst, st, x.Own); err != nil {
			return err
		}
		dst.BeginField(st.Intern("next"))
		if err := encode(dst, st, x.Next); err != nil {
			return err
		}
	case Shape:
		dst.WriteString("shape")
		dst.BeginField(st.Intern("dims"))
		writeInts(dst, x.Dims)
	case Seed:
		dst.WriteString("seed")
		dst.BeginField(st.Intern("data"))
		dst.WriteBlob(x)
	case PRFKey:
		dst.WriteString("prfkey")
		dst.BeginField(st.Intern("data"))
		dst.WriteBlob(x)
	case Unit:
		dst.WriteString("unit")
	default:
		return fmt.Errorf("value: unsupported runtime value type %T", v)
	}
	return nil
}

func writeInts(dst *ion.Buffer, xs []int) {
	dst.BeginList(-1)
	for _, x := range xs {
		dst.WriteInt(int64(x))
	}
	dst.EndList()
}

func writeFloats(dst *ion.Buffer, xs []float64) {
	dst.BeginList(-1)
	for _, x := range xs {
		dst.WriteFloat64(x)
	}
	dst.EndList()
}

func writeUints(dst *ion.Buffer, xs []uint64) {
	dst.BeginList(-1)
	for _, x := range xs {
		dst.WriteUint(x)
	}
	dst.EndList()
}

func decode(d ion.Datum) (any, error) {
	kind, ok := d.Field("kind").String()
	if !ok {
		return nil, fmt.Errorf("value: missing kind field")
	}
	switch kind {
	case "tensor":
		shape, err := readInts(d.Field("shape"))
		if err != nil {
			return nil, err
		}
		data, err := readFloats(d.Field("data"))
		if err != nil {
			return nil, err
		}
		return Tensor{Shape: shape, Data: data}, nil
	case "ring":
		shape, err := readInts(d.Field("shape"))
		if err != nil {
			return nil, err
		}
		data, err := readUints(d.Field("data"))
		if err != nil {
			return nil, err
		}
		return Ring{Shape: shape, Data: data}, nil
	case "bit":
		shape, err := readInts(d.Field("shape"))
		if err != nil {
			return nil, err
		}
		blob, ok := d.Field("data").Blob()
		if !ok {
			return nil, fmt.Errorf("value: expected blob for bit data")
		}
		return Bit{Shape: shape, Data: append([]uint8(nil), blob...)}, nil
	case "replicated_ring":
		own, err := decode(d.Field("own"))
		if err != nil {
			return nil, err
		}
		next, err := decode(d.Field("next"))
		if err != nil {
			return nil, err
		}
		return ReplicatedRing{Own: own.(Ring), Next: next.(Ring)}, nil
	case "replicated_bit":
		own, err := decode(d.Field("own"))
		if err != nil {
			return nil, err
		}
		next, err := decode(d.Field("next"))
		if err != nil {
			return nil, err
		}
		return ReplicatedBit{Own: own.(Bit), Next: next.(Bit)}, nil
	case "shape":
		dims, err := readInts(d.Field("dims"))
		if err != nil {
			return nil, err
		}
		return Shape{Dims: dims}, nil
	case "seed":
		blob, ok := d.Field("data").Blob()
		if !ok {
			return nil, fmt.Errorf("value: expected blob for seed data")
		}
		return Seed(append([]byte(nil), blob...)), nil
	case "prfkey":
		blob, ok := d.Field("data").Blob()
		if !ok {
			return nil, fmt.Errorf("value: expected blob for prfkey data")
		}
		return PRFKey(append([]byte(nil), blob...)), nil
	case "unit":
		return Unit{}, nil
	}
	return nil, fmt.Errorf("value: unknown kind %q", kind)
}

func readInts(d ion.Datum) ([]int, error) {
	lst, ok := d.List()
	if !ok {
		return nil, fmt.Errorf("value: expected int list")
	}
	var out []int
	var ferr error
	lst.Each(func(item ion.Datum) bool {
		i, ok := item.Int()
		if !ok {
			ferr = fmt.Errorf("value: expected int in list")
			return false
		}
		out = append(out, int(i))
		return true
	})
	return out, ferr
}

func readFloats(d ion.Datum) ([]float64, error) {
	lst, ok := d.List()
	if !ok {
		return nil, fmt.Errorf("value: expected float list")
	}
	var out []float64
	var ferr error
	lst.Each(func(item ion.Datum) bool {
		f, ok := item.Float()
		if !ok {
			ferr = fmt.Errorf("value: expected float64 in list")
			return false
		}
		out = append(out, f)
		return true
	})
	return out, ferr
}

func readUints(d ion.Datum) ([]uint64, error) {
	lst, ok := d.List()
	if !ok {
		return nil, fmt.Errorf("value: expected uint list")
	}
	var out []uint64
	var ferr error
	lst.Each(func(item ion.Datum) bool {
		u, ok := item.Uint()
		if !ok {
			ferr = fmt.Errorf("value: expected uint64 in list")
			return false
		}
		out = append(out, u)
		return true
	})
	return out, ferr
}
