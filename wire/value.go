package wire

import (
	"fmt"

	"github.com/SnellerInc/sneller/ion"
)

// encodeAny writes a Go value used as Constant.Value. Supported kinds
// are the ones a Moose frontend actually emits as literals: scalars and flat slices of
// float64/int64, bool, and raw bytes.
func encodeAny(dst *ion.Buffer, st *ion.Symtab, v any) error {
	switch x := v.(type) {
	case float64:
		dst.BeginField(st.Intern("value_kind"))
		dst.WriteString("f64")
		dst.BeginField(st.Intern("value"))
		dst.WriteFloat64(x)
	case int64:
		dst.BeginField(st.Intern("value_kind"))
		dst.WriteString("i64")
		dst.BeginField(st.Intern("value"))
		dst.WriteInt(x)
	case bool:
		dst.BeginField(st.Intern("value_kind"))
		dst.WriteString("bool")
		dst.BeginField(st.Intern("value"))
		dst.WriteBool(x)
	case []byte:
		dst.BeginField(st.Intern("value_kind"))
		dst.WriteString("bytes")
		dst.BeginField(st.Intern("value"))
		dst.WriteBlob(x)
	case []float64:
		dst.BeginField(st.Intern("value_kind"))
		dst.WriteString("f64vec")
		dst.BeginField(st.Intern("value"))
		dst.BeginList(-1)
		for _, f := range x {
			dst.WriteFloat64(f)
		}
		dst.EndList()
	case []int64:
		dst.BeginField(st.Intern("value_kind"))
		dst.WriteString("i64vec")
		dst.BeginField(st.Intern("value"))
		dst.BeginList(-1)
		for _, i := range x {
			dst.WriteInt(i)
		}
		dst.EndList()
	default:
		return fmt.Errorf("wire: unsupported constant value type %T", v)
	}
	return nil
}

func decodeAny(d ion.Datum) (any, error) {
	kind, ok := d.Field("value_kind").String()
	if !ok {
		return nil, fmt.Errorf("wire: constant value missing value_kind")
	}
	val := d.Field("value")
	switch kind {
	case "f64":
		f, ok := val.Float()
		if !ok {
			return nil, fmt.Errorf("wire: expected float64 value")
		}
		return f, nil
	case "i64":
		i, ok := val.Int()
		if !ok {
			return nil, fmt.Errorf("wire: expected int64 value")
		}
		return i, nil
	case "bool":
		b, ok := val.Bool()
		if !ok {
			return nil, fmt.Errorf("wire: expected bool value")
		}
		return b, nil
	case "bytes":
		b, ok := val.Blob()
		if !ok {
			return nil, fmt.Errorf("wire: expected blob value")
		}
		return b, nil
	case "f64vec":
		lst, ok := val.List()
		if !ok {
			return nil, fmt.Errorf("wire: expected f64vec list")
		}
		var out []float64
		var ferr error
		lst.Each(func(item ion.Datum) bool {
			f, ok := item.Float()
			if !ok {
				ferr = fmt.Errorf("wire: expected float64 in f64vec")
				return false
			}
			out = append(out, f)
			return true
		})
		return out, ferr
	case "i64vec":
		lst, ok := val.List()
		if !ok {
			return nil, fmt.Errorf("wire: expected i64vec list")
		}
		var out []int64
		var ferr error
		lst.Each(func(item ion.Datum) bool {
			i, ok := item.Int()
			if !ok {
				ferr = fmt.Errorf("wire: expected int64 in i64vec")
				return false
			}
			out = append(out, i)
			return true
		})
		return out, ferr
	}
	return nil, fmt.Errorf("wire: unknown value_kind %q", kind)
}
